package reviewqueue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/researchgraph/canonmatch/ent"
	"github.com/researchgraph/canonmatch/ent/pendingreview"
	"github.com/researchgraph/canonmatch/ent/schema"
	"github.com/researchgraph/canonmatch/internal/alerting"
	"github.com/researchgraph/canonmatch/internal/config"
)

const defaultLeaseDuration = 30 * time.Minute

// ErrAlreadyResolved is returned by Resolve when the review has already
// been resolved: re-running Resolve's side effects on a retry would
// double-link/double-create against a mention that's already settled
// (spec §8 L3: "resolve is idempotent").
var ErrAlreadyResolved = errors.New("reviewqueue: review is already resolved")

// resolveGuard rejects a Resolve call against a review already in the
// resolved state, the pure decision Resolve applies before re-deriving and
// acting on a ResolveOutcome.
func resolveGuard(state pendingreview.State) error {
	if state == pendingreview.StateResolved {
		return ErrAlreadyResolved
	}
	return nil
}

// Store is the durable PendingReview store plus its in-memory priority
// index (spec §4.6). The index is a cache over the DB-authoritative rows,
// rebuilt by RefreshIndex on startup and kept in sync by every mutating
// operation — the same in-memory-registry-over-durable-store shape as the
// teacher's worker pool.
type Store struct {
	client *ent.Client
	alerts *alerting.Service

	priorityCfg   config.PriorityConfig
	slaCfg        config.SLAHoursConfig
	leaseDuration time.Duration

	mu    sync.Mutex
	index []*indexEntry
}

// New builds a Store. alerts may be nil (alerting.Service is nil-safe).
func New(client *ent.Client, alerts *alerting.Service, priorityCfg config.PriorityConfig, slaCfg config.SLAHoursConfig) *Store {
	return &Store{
		client:        client,
		alerts:        alerts,
		priorityCfg:   priorityCfg,
		slaCfg:        slaCfg,
		leaseDuration: defaultLeaseDuration,
	}
}

// RefreshIndex rebuilds the in-memory priority index from every
// non-resolved review, for use at process startup.
func (s *Store) RefreshIndex(ctx context.Context) error {
	rows, err := s.client.PendingReview.Query().
		Where(pendingreview.StateNEQ(pendingreview.StateResolved)).
		All(ctx)
	if err != nil {
		return fmt.Errorf("loading pending reviews: %w", err)
	}

	var index []*indexEntry
	for _, r := range rows {
		e := &indexEntry{
			reviewID:  r.ID,
			priority:  r.Priority,
			createdAt: r.CreatedAt,
			assigned:  r.State == pendingreview.StateAssigned,
		}
		if r.LeaseExpiresAt != nil {
			e.leaseExpiresAt = r.LeaseExpiresAt
		}
		index = insertSorted(index, e)
	}

	s.mu.Lock()
	s.index = index
	s.mu.Unlock()
	return nil
}

// EnqueueInput bundles what Enqueue needs beyond the priority inputs.
type EnqueueInput struct {
	WorkItemID        string
	MentionID         string
	SuggestedConcepts []SuggestedConcept
	AgentArtefacts    map[string]any
	EscalationReason  string
	MatchConfidence   float64
	CandidateMentionCount int
	Domain            string
}

// Enqueue assigns a priority and SLA deadline, persists a new
// PendingReview, and publishes it into the priority index (spec §4.6).
func (s *Store) Enqueue(ctx context.Context, in EnqueueInput, now time.Time) (string, error) {
	priority := Score(s.priorityCfg, in.MatchConfidence, in.CandidateMentionCount, in.Domain, now, now)
	deadline := SLADeadline(s.slaCfg, priority, now)

	id := uuid.NewString()
	suggested := make([]schema.SuggestedConcept, 0, len(in.SuggestedConcepts))
	for _, sc := range in.SuggestedConcepts {
		suggested = append(suggested, schema.SuggestedConcept{ConceptID: sc.ConceptID, Score: sc.Score, Reasoning: sc.Reasoning})
	}

	err := s.client.PendingReview.Create().
		SetID(id).
		SetWorkItemID(in.WorkItemID).
		SetMentionID(in.MentionID).
		SetDomain(in.Domain).
		SetSuggestedConcepts(suggested).
		SetAgentArtefacts(in.AgentArtefacts).
		SetPriority(priority).
		SetSLADeadline(deadline).
		SetEscalationReason(in.EscalationReason).
		Exec(ctx)
	if err != nil {
		return "", fmt.Errorf("creating pending review: %w", err)
	}

	s.mu.Lock()
	s.index = insertSorted(s.index, &indexEntry{reviewID: id, priority: priority, createdAt: now})
	s.mu.Unlock()

	return id, nil
}

// Next atomically pops the highest-priority claimable review and assigns
// it to reviewerID under a lease. Returns nil, nil when nothing is
// claimable.
func (s *Store) Next(ctx context.Context, reviewerID string, now time.Time) (*PendingReview, error) {
	s.mu.Lock()
	entry, rest := popMostUrgent(s.index, now)
	if entry == nil {
		s.mu.Unlock()
		return nil, nil
	}
	s.index = rest
	s.mu.Unlock()

	leaseExpiry := now.Add(s.leaseDuration)
	row, err := s.client.PendingReview.UpdateOneID(entry.reviewID).
		SetState(pendingreview.StateAssigned).
		SetAssignedTo(reviewerID).
		SetAssignedAt(now).
		SetLeaseExpiresAt(leaseExpiry).
		Save(ctx)
	if err != nil {
		// Put the entry back so it is not lost from the index on failure.
		s.mu.Lock()
		s.index = insertSorted(s.index, entry)
		s.mu.Unlock()
		return nil, fmt.Errorf("assigning review %s: %w", entry.reviewID, err)
	}

	s.mu.Lock()
	s.index = insertSorted(s.index, &indexEntry{
		reviewID: row.ID, priority: row.Priority, createdAt: row.CreatedAt,
		assigned: true, leaseExpiresAt: &leaseExpiry,
	})
	s.mu.Unlock()

	return rowToPendingReview(row), nil
}

// Release explicitly unassigns a review; a no-op if reviewerID is not the
// current lessee (spec §4.6).
func (s *Store) Release(ctx context.Context, reviewID, reviewerID string) error {
	row, err := s.client.PendingReview.Get(ctx, reviewID)
	if err != nil {
		return fmt.Errorf("loading review %s: %w", reviewID, err)
	}
	if row.AssignedTo == nil || *row.AssignedTo != reviewerID {
		return nil
	}

	row, err = s.client.PendingReview.UpdateOneID(reviewID).
		SetState(pendingreview.StateQueued).
		ClearAssignedTo().
		ClearAssignedAt().
		ClearLeaseExpiresAt().
		Save(ctx)
	if err != nil {
		return fmt.Errorf("releasing review %s: %w", reviewID, err)
	}

	s.mu.Lock()
	s.index = removeByID(s.index, reviewID)
	s.index = insertSorted(s.index, &indexEntry{reviewID: row.ID, priority: row.Priority, createdAt: row.CreatedAt})
	s.mu.Unlock()

	return nil
}

// Resolve records a reviewer's decision and returns what internal/engine
// must still do to give effect to it (spec §4.6).
func (s *Store) Resolve(ctx context.Context, reviewID, reviewerID string, decision Decision, now time.Time) (ResolveOutcome, error) {
	row, err := s.client.PendingReview.Get(ctx, reviewID)
	if err != nil {
		return ResolveOutcome{}, fmt.Errorf("loading review %s: %w", reviewID, err)
	}
	if err := resolveGuard(row.State); err != nil {
		return ResolveOutcome{}, fmt.Errorf("resolve review %s: %w", reviewID, err)
	}

	var resolution pendingreview.Resolution
	var action ResolveAction
	switch decision {
	case DecisionApproved:
		resolution, action = pendingreview.ResolutionLinked, ActionLink
	case DecisionRejected:
		resolution, action = pendingreview.ResolutionCreatedNew, ActionCreateNew
	case DecisionBlacklisted:
		resolution, action = pendingreview.ResolutionBlacklisted, ActionBlacklistThenCreateNew
	default:
		return ResolveOutcome{}, fmt.Errorf("resolve review %s: unknown decision %q", reviewID, decision)
	}

	_, err = s.client.PendingReview.UpdateOneID(reviewID).
		SetState(pendingreview.StateResolved).
		SetResolution(resolution).
		SetResolvedBy(reviewerID).
		SetResolvedAt(now).
		Save(ctx)
	if err != nil {
		return ResolveOutcome{}, fmt.Errorf("resolving review %s: %w", reviewID, err)
	}

	s.mu.Lock()
	s.index = removeByID(s.index, reviewID)
	s.mu.Unlock()

	return ResolveOutcome{Action: action, MentionID: row.MentionID, ConceptID: row.ConceptID}, nil
}

// List runs a read-only query over pending reviews (spec §4.6).
func (s *Store) List(ctx context.Context, filter Filter) ([]PendingReview, error) {
	q := s.client.PendingReview.Query()
	if filter.PriorityMin != nil {
		q = q.Where(pendingreview.PriorityGTE(*filter.PriorityMin))
	}
	if filter.PriorityMax != nil {
		q = q.Where(pendingreview.PriorityLTE(*filter.PriorityMax))
	}
	if filter.ReviewerID != nil {
		q = q.Where(pendingreview.AssignedTo(*filter.ReviewerID))
	}
	if filter.Domain != nil {
		q = q.Where(pendingreview.Domain(*filter.Domain))
	}
	if filter.State != nil {
		q = q.Where(pendingreview.StateEQ(pendingreview.State(*filter.State)))
	}

	rows, err := q.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing pending reviews: %w", err)
	}

	out := make([]PendingReview, 0, len(rows))
	for _, r := range rows {
		out = append(out, *rowToPendingReview(r))
	}
	return out, nil
}

// CheckSLABreaches escalates priority and alerts for every review past its
// SLA deadline that has not already been flagged (spec §4.6).
func (s *Store) CheckSLABreaches(ctx context.Context, now time.Time) error {
	rows, err := s.client.PendingReview.Query().
		Where(
			pendingreview.SLADeadlineLT(now),
			pendingreview.SLABreached(false),
			pendingreview.StateNEQ(pendingreview.StateResolved),
		).
		All(ctx)
	if err != nil {
		return fmt.Errorf("scanning for SLA breaches: %w", err)
	}

	for _, r := range rows {
		escalated := EscalatePriority(r.Priority)
		updated, err := s.client.PendingReview.UpdateOneID(r.ID).
			SetPriority(escalated).
			SetSLABreached(true).
			Save(ctx)
		if err != nil {
			return fmt.Errorf("escalating review %s: %w", r.ID, err)
		}

		s.mu.Lock()
		s.index = removeByID(s.index, r.ID)
		s.index = insertSorted(s.index, &indexEntry{
			reviewID: updated.ID, priority: escalated, createdAt: updated.CreatedAt,
			assigned: updated.State == pendingreview.StateAssigned, leaseExpiresAt: updated.LeaseExpiresAt,
		})
		s.mu.Unlock()

		s.alerts.NotifySLABreach(ctx, r.ID, escalated, r.Domain)
	}
	return nil
}

func rowToPendingReview(r *ent.PendingReview) *PendingReview {
	suggested := make([]SuggestedConcept, 0, len(r.SuggestedConcepts))
	for _, sc := range r.SuggestedConcepts {
		suggested = append(suggested, SuggestedConcept{ConceptID: sc.ConceptID, Score: sc.Score, Reasoning: sc.Reasoning})
	}

	pr := &PendingReview{
		ID:                r.ID,
		WorkItemID:        r.WorkItemID,
		MentionID:         r.MentionID,
		ConceptID:         r.ConceptID,
		Domain:            r.Domain,
		SuggestedConcepts: suggested,
		AgentArtefacts:    r.AgentArtefacts,
		Priority:          r.Priority,
		SLADeadline:       r.SLADeadline,
		SLABreached:       r.SLABreached,
		State:             string(r.State),
		AssignedTo:        r.AssignedTo,
		AssignedAt:        r.AssignedAt,
		LeaseExpiresAt:    r.LeaseExpiresAt,
		ResolvedBy:        r.ResolvedBy,
		ResolvedAt:        r.ResolvedAt,
		EscalationReason:  r.EscalationReason,
		CreatedAt:         r.CreatedAt,
	}
	if r.Resolution != "" {
		resolution := string(r.Resolution)
		pr.Resolution = &resolution
	}
	return pr
}
