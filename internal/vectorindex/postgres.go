package vectorindex

import (
	"context"
	"sort"

	"github.com/researchgraph/canonmatch/ent"
	"github.com/researchgraph/canonmatch/ent/concept"
)

// PostgresIndex is the default Index adapter: concept embeddings are read
// through the shared ent client (stored as a JSON float array, per
// ent/schema/concept.go) and ranked in Go. No vector-similarity client
// appears anywhere in the retrieved example pack, so this is documented as
// a deliberate stdlib/ent-SQL implementation behind the Index interface —
// swapping in a pgvector- or dedicated vector-DB-backed adapter later only
// requires a new implementation of Index, not a caller change.
type PostgresIndex struct {
	client *ent.Client
}

// NewPostgresIndex builds a PostgresIndex over client.
func NewPostgresIndex(client *ent.Client) *PostgresIndex {
	return &PostgresIndex{client: client}
}

// Query implements Index by scanning every concept with a non-null
// embedding and ranking by cosine similarity. Acceptable at the scale named
// in spec §1 (a single research-domain knowledge graph, not a cross-domain
// corpus); a future pgvector adapter can replace this without touching
// callers.
func (p *PostgresIndex) Query(ctx context.Context, vec []float64, topK int) ([]Match, error) {
	concepts, err := p.client.Concept.Query().
		Where(concept.EmbeddingNotNil()).
		All(ctx)
	if err != nil {
		return nil, ErrUnavailable
	}

	matches := make([]Match, 0, len(concepts))
	for _, c := range concepts {
		if c.Embedding == nil {
			continue
		}
		matches = append(matches, Match{ConceptID: c.ID, Score: Cosine(vec, c.Embedding)})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].ConceptID < matches[j].ConceptID
	})

	if topK > 0 && len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

// Upsert implements Index by writing the embedding onto the concept row;
// the vector index and the concept's own embedding field are the same
// storage, not two systems to keep in sync.
func (p *PostgresIndex) Upsert(ctx context.Context, conceptID string, vec []float64) error {
	err := p.client.Concept.UpdateOneID(conceptID).
		SetEmbedding(vec).
		Exec(ctx)
	if err != nil {
		return ErrUnavailable
	}
	return nil
}

// Delete implements Index by clearing the concept's embedding.
func (p *PostgresIndex) Delete(ctx context.Context, conceptID string) error {
	err := p.client.Concept.UpdateOneID(conceptID).
		ClearEmbedding().
		Exec(ctx)
	if err != nil {
		return ErrUnavailable
	}
	return nil
}
