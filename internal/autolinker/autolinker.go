// Package autolinker implements the Auto-Linker (spec §4.4):
// auto_link_high and create_new_concept, each inside a single
// serializable transaction with atomic concept counters.
package autolinker

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/researchgraph/canonmatch/ent"
	"github.com/researchgraph/canonmatch/internal/matcher"
)

// linkDecision says what AutoLinkHigh/LinkExisting should do given a
// mention's already-stored concept id (spec §8 L3: "resolve is idempotent
// ... no double-linking, no counter drift"). A nil existing id means the
// link has never run; re-targeting the same concept is a harmless retry;
// re-targeting a different one is a genuine conflict.
func linkDecision(existingConceptID *string, targetConceptID string) (skip bool, err error) {
	if existingConceptID == nil {
		return false, nil
	}
	if *existingConceptID == targetConceptID {
		return true, nil
	}
	return false, ErrAlreadyLinked
}

// MentionInput is the narrow mention data the linker needs; it mirrors the
// fields of ProblemMention that the linker reads or copies onto a new
// concept (spec §4.4).
type MentionInput struct {
	ID        string
	Statement string
	PaperID   string
	Domain    string
	Embedding []float64
	Year      *int
	NewPaper  bool // true when PaperID has no other mention linked to the target concept yet
}

// Linker implements auto_link_high and create_new_concept.
type Linker struct {
	client *ent.Client
}

// New builds a Linker.
func New(client *ent.Client) *Linker {
	return &Linker{client: client}
}

// AutoLinkHigh re-verifies candidate's band is still HIGH, creates the
// INSTANCE_OF edge, and atomically updates the concept's counters, all in
// one serializable transaction (spec §4.4). Callers must have recomputed
// candidate immediately before calling this, so the band check below is
// meaningful rather than stale.
func (l *Linker) AutoLinkHigh(ctx context.Context, mention MentionInput, candidate matcher.Candidate, matchMethod string) error {
	if candidate.Band != matcher.BandHigh {
		return ErrBandChanged
	}

	tx, err := l.client.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	existing, err := tx.Mention.Get(ctx, mention.ID)
	if err != nil {
		return fmt.Errorf("loading mention %s: %w", mention.ID, err)
	}
	if skip, err := linkDecision(existing.ConceptID, candidate.ConceptID); err != nil {
		return err
	} else if skip {
		return nil
	}

	concept, err := tx.Concept.Get(ctx, candidate.ConceptID)
	if err != nil {
		return fmt.Errorf("loading candidate concept: %w", err)
	}

	update := tx.Concept.UpdateOneID(candidate.ConceptID).
		AddMentionCount(1)
	if mention.NewPaper {
		update = update.AddPaperCount(1)
	}
	if mention.Year != nil {
		if concept.FirstMentionedYear == nil || *mention.Year < *concept.FirstMentionedYear {
			update = update.SetFirstMentionedYear(*mention.Year)
		}
		if concept.LastMentionedYear == nil || *mention.Year > *concept.LastMentionedYear {
			update = update.SetLastMentionedYear(*mention.Year)
		}
	}
	if err := update.Exec(ctx); err != nil {
		return fmt.Errorf("updating concept counters: %w", err)
	}

	err = tx.Mention.UpdateOneID(mention.ID).
		SetConceptID(candidate.ConceptID).
		SetMatchConfidence(string(candidate.Band)).
		SetMatchScore(candidate.BoostedScore).
		SetMatchingMethod(matchMethod).
		SetCurrentState("AUTO_LINKED").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("linking mention: %w", err)
	}

	return tx.Commit()
}

// LinkExisting records the INSTANCE_OF edge and updates concept counters for
// a mention the Agent Workflow resolved to LINK (spec §4.5): unlike
// AutoLinkHigh it performs no band re-check, since MEDIUM/LOW band matches
// are accepted on the evaluator's or arbiter's authority rather than the
// matcher's score alone.
func (l *Linker) LinkExisting(ctx context.Context, mention MentionInput, candidate matcher.Candidate, matchMethod, matchConfidence string) error {
	tx, err := l.client.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	existing, err := tx.Mention.Get(ctx, mention.ID)
	if err != nil {
		return fmt.Errorf("loading mention %s: %w", mention.ID, err)
	}
	if skip, err := linkDecision(existing.ConceptID, candidate.ConceptID); err != nil {
		return err
	} else if skip {
		return nil
	}

	concept, err := tx.Concept.Get(ctx, candidate.ConceptID)
	if err != nil {
		return fmt.Errorf("loading candidate concept: %w", err)
	}

	update := tx.Concept.UpdateOneID(candidate.ConceptID).
		AddMentionCount(1)
	if mention.NewPaper {
		update = update.AddPaperCount(1)
	}
	if mention.Year != nil {
		if concept.FirstMentionedYear == nil || *mention.Year < *concept.FirstMentionedYear {
			update = update.SetFirstMentionedYear(*mention.Year)
		}
		if concept.LastMentionedYear == nil || *mention.Year > *concept.LastMentionedYear {
			update = update.SetLastMentionedYear(*mention.Year)
		}
	}
	if err := update.Exec(ctx); err != nil {
		return fmt.Errorf("updating concept counters: %w", err)
	}

	err = tx.Mention.UpdateOneID(mention.ID).
		SetConceptID(candidate.ConceptID).
		SetMatchConfidence(matchConfidence).
		SetMatchScore(candidate.BoostedScore).
		SetMatchingMethod(matchMethod).
		SetCurrentState("AUTO_LINKED").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("linking mention: %w", err)
	}

	return tx.Commit()
}

// CreateNewConcept creates a ProblemConcept seeded from mention — canonical
// statement equal to the mention statement, embedding equal to the mention
// embedding, version 1, human_edited false — and its first INSTANCE_OF
// edge, all in one transaction (spec §4.4).
func (l *Linker) CreateNewConcept(ctx context.Context, mention MentionInput, matchMethod, matchConfidence string) (string, error) {
	if mention.Statement == "" {
		return "", ErrEmptyStatement
	}

	tx, err := l.client.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return "", fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	existing, err := tx.Mention.Get(ctx, mention.ID)
	if err != nil {
		return "", fmt.Errorf("loading mention %s: %w", mention.ID, err)
	}
	if existing.ConceptID != nil {
		return *existing.ConceptID, nil // already resolved: idempotent no-op (spec §8 L3)
	}

	conceptID := uuid.NewString()
	now := time.Now().UTC()

	create := tx.Concept.Create().
		SetID(conceptID).
		SetCanonicalStatement(mention.Statement).
		SetDomain(mention.Domain).
		SetEmbedding(mention.Embedding).
		SetVersion(1).
		SetHumanEdited(false).
		SetMentionCount(1).
		SetPaperCount(1).
		SetCreatedAt(now).
		SetUpdatedAt(now)
	if mention.Year != nil {
		create = create.SetFirstMentionedYear(*mention.Year).SetLastMentionedYear(*mention.Year)
	}
	if err := create.Exec(ctx); err != nil {
		return "", fmt.Errorf("creating concept: %w", err)
	}

	err = tx.Mention.UpdateOneID(mention.ID).
		SetConceptID(conceptID).
		SetMatchConfidence(matchConfidence).
		SetMatchingMethod(matchMethod).
		SetCurrentState("CREATE_NEW_CONCEPT").
		Exec(ctx)
	if err != nil {
		return "", fmt.Errorf("linking mention to new concept: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing new concept: %w", err)
	}
	return conceptID, nil
}
