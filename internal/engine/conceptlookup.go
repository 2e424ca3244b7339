package engine

import (
	"context"
	"fmt"

	"github.com/researchgraph/canonmatch/ent"
	entmention "github.com/researchgraph/canonmatch/ent/mention"
	"github.com/researchgraph/canonmatch/internal/matcher"
)

// entConceptLookup implements matcher.ConceptLookup over the ent client: a
// concept's domain and mention_count live on the Concept row itself, while
// the set of papers it has a linked mention in is derived by querying
// Mention (spec §4.2's citation-boost input).
type entConceptLookup struct {
	client *ent.Client
}

func newConceptLookup(client *ent.Client) *entConceptLookup {
	return &entConceptLookup{client: client}
}

func (l *entConceptLookup) Get(ctx context.Context, conceptID string) (matcher.ConceptInfo, error) {
	cpt, err := l.client.Concept.Get(ctx, conceptID)
	if err != nil {
		return matcher.ConceptInfo{}, fmt.Errorf("loading concept %s: %w", conceptID, err)
	}

	rows, err := l.client.Mention.Query().
		Where(entmention.ConceptID(conceptID)).
		Select(entmention.FieldPaperID).
		Strings(ctx)
	if err != nil {
		return matcher.ConceptInfo{}, fmt.Errorf("loading linked papers for concept %s: %w", conceptID, err)
	}

	return matcher.ConceptInfo{
		Domain:       cpt.Domain,
		MentionCount: cpt.MentionCount,
		PaperIDs:     rows,
	}, nil
}
