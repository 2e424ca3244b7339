package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/researchgraph/canonmatch/ent"
	entmention "github.com/researchgraph/canonmatch/ent/mention"
	"github.com/researchgraph/canonmatch/ent/schema"
	entworkitem "github.com/researchgraph/canonmatch/ent/workitem"
	"github.com/researchgraph/canonmatch/internal/agentworkflow"
	"github.com/researchgraph/canonmatch/internal/autolinker"
	"github.com/researchgraph/canonmatch/internal/matcher"
	"github.com/researchgraph/canonmatch/internal/refinement"
	"github.com/researchgraph/canonmatch/internal/reviewqueue"
	"github.com/researchgraph/canonmatch/internal/workflow"
)

// maxBandRecheckAttempts bounds the in-call retry for autolinker.ErrBandChanged
// (spec §4.4); see handleHighConfidence.
const maxBandRecheckAttempts = 3

// ProcessWorkItem runs (or resumes) the pipeline for one work item: spec
// §2's "Embedding → Matcher → Auto-Linker [→ Agent Workflow] → Review
// Queue" data flow. It is resumable — a work item sitting in EXTRACTED
// starts the full pipeline; one already classified into a band state
// re-enters at its band's handler, the same "rerun the current stage"
// semantics internal/workflow.CheckStuck names for a rescheduled item.
func (e *Engine) ProcessWorkItem(ctx context.Context, workItemID string) error {
	wiRow, err := e.client.WorkItem.Get(ctx, workItemID)
	if err != nil {
		return fmt.Errorf("loading work item %s: %w", workItemID, err)
	}
	mRow, err := e.client.Mention.Get(ctx, wiRow.MentionID)
	if err != nil {
		return fmt.Errorf("loading mention %s: %w", wiRow.MentionID, err)
	}

	item := itemFromRow(wiRow)

	switch item.State {
	case workflow.Extracted:
		return e.runExtracted(ctx, item, mRow)
	case workflow.HighConfidence, workflow.MediumConfidence, workflow.LowConfidence, workflow.NoMatch:
		top := topCandidateFromRow(wiRow)
		mi, err := e.enrichMentionInput(ctx, mRow, top)
		if err != nil {
			return err
		}
		return e.dispatchBand(ctx, item, mi, mRow, bandFromState(item.State), top)
	default:
		return fmt.Errorf("work item %s in state %s is not resumable by ProcessWorkItem", workItemID, item.State)
	}
}

// PollExtracted lists up to limit work items still sitting in EXTRACTED,
// oldest first, for a worker pool to feed into ProcessWorkItem.
func (e *Engine) PollExtracted(ctx context.Context, limit int) ([]string, error) {
	rows, err := e.client.WorkItem.Query().
		Where(entworkitem.CurrentState(string(workflow.Extracted))).
		Order(ent.Asc(entworkitem.FieldCreatedAt)).
		Limit(limit).
		All(ctx)
	if err != nil {
		return nil, fmt.Errorf("polling extracted work items: %w", err)
	}
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	return ids, nil
}

func (e *Engine) runExtracted(ctx context.Context, item *workflow.Item, mRow *ent.Mention) error {
	if mRow.Embedding == nil {
		vec, err := e.embedder.Embed(ctx, mRow.Statement)
		if err != nil {
			return e.recordStageFailure(ctx, item, mRow.ID, mRow.Domain, "embedding", err)
		}
		if err := e.client.Mention.UpdateOneID(mRow.ID).SetEmbedding(vec).Exec(ctx); err != nil {
			return fmt.Errorf("persisting embedding for mention %s: %w", mRow.ID, err)
		}
		mRow.Embedding = vec
	}

	if err := e.transition(ctx, item, mRow.ID, workflow.Matching, "embedding computed", nil, nil); err != nil {
		return err
	}

	cited, err := e.citedPaperIDs(ctx, mRow.PaperID)
	if err != nil {
		return e.recordStageFailure(ctx, item, mRow.ID, mRow.Domain, "matching", err)
	}

	candidates, err := e.matcher.FindCandidates(ctx, mRow.ID, matcher.Mention{
		Embedding:     mRow.Embedding,
		Domain:        mRow.Domain,
		CitedPaperIDs: cited,
	}, 10)
	if err != nil {
		return e.recordStageFailure(ctx, item, mRow.ID, mRow.Domain, "matching", err)
	}
	if err := e.persistCandidates(ctx, item.ID, candidates); err != nil {
		return fmt.Errorf("persisting candidates for work item %s: %w", item.ID, err)
	}

	band, top := classifyTop(candidates)
	if err := e.transition(ctx, item, mRow.ID, bandState(band), "classification result", map[string]any{"band": string(band)}, nil); err != nil {
		return err
	}

	mi, err := e.enrichMentionInput(ctx, mRow, top)
	if err != nil {
		return err
	}
	return e.dispatchBand(ctx, item, mi, mRow, band, top)
}

func (e *Engine) dispatchBand(ctx context.Context, item *workflow.Item, mi autolinker.MentionInput, mRow *ent.Mention, band matcher.Band, top *matcher.Candidate) error {
	switch band {
	case matcher.BandHigh:
		return e.handleHighConfidence(ctx, item, mi, mRow, *top)
	case matcher.BandMedium:
		return e.handleMediumConfidence(ctx, item, mi, mRow, *top)
	case matcher.BandLow:
		return e.handleLowConfidence(ctx, item, mi, mRow, *top)
	default:
		return e.handleNoMatch(ctx, item, mi, mRow)
	}
}

// handleHighConfidence runs auto_link_high (spec §4.4). On a band-changed
// race it re-classifies and retries in-call up to maxBandRecheckAttempts
// (OQ5, DESIGN.md): HIGH_CONFIDENCE's only legal edge is to AUTO_LINKED
// (spec §4.3's table), so a demotion out of HIGH cannot itself be recorded
// as a state transition — if the recheck still isn't HIGH, this surfaces as
// a stage failure instead, leaving the work item for the next poll.
func (e *Engine) handleHighConfidence(ctx context.Context, item *workflow.Item, mi autolinker.MentionInput, mRow *ent.Mention, top matcher.Candidate) error {
	candidate := top
	for attempt := 0; ; attempt++ {
		if err := e.checkpointBefore(ctx, item, "before_auto_link_high"); err != nil {
			return e.recordStageFailure(ctx, item, mRow.ID, mRow.Domain, "auto_link_high", err)
		}
		err := e.linker.AutoLinkHigh(ctx, mi, candidate, "auto")
		if err == nil {
			if err := e.transition(ctx, item, mRow.ID, workflow.AutoLinked, "auto_link_high executed", nil, nil); err != nil {
				return err
			}
			e.triggerRefinement(ctx, candidate.ConceptID)
			return nil
		}
		if !errors.Is(err, autolinker.ErrBandChanged) || attempt >= maxBandRecheckAttempts {
			return e.recordStageFailure(ctx, item, mRow.ID, mRow.Domain, "auto_link_high", err)
		}

		cited, cerr := e.citedPaperIDs(ctx, mRow.PaperID)
		if cerr != nil {
			return e.recordStageFailure(ctx, item, mRow.ID, mRow.Domain, "auto_link_high", cerr)
		}
		candidates, cerr := e.matcher.FindCandidates(ctx, mRow.ID, matcher.Mention{
			Embedding: mi.Embedding, Domain: mRow.Domain, CitedPaperIDs: cited,
		}, 10)
		if cerr != nil {
			return e.recordStageFailure(ctx, item, mRow.ID, mRow.Domain, "auto_link_high", cerr)
		}
		if err := e.persistCandidates(ctx, item.ID, candidates); err != nil {
			return fmt.Errorf("persisting rechecked candidates for work item %s: %w", item.ID, err)
		}
		band, newTop := classifyTop(candidates)
		if band != matcher.BandHigh || newTop == nil {
			return e.recordStageFailure(ctx, item, mRow.ID, mRow.Domain, "auto_link_high", fmt.Errorf("candidate band changed to %s under concurrent update", band))
		}
		candidate = *newTop
	}
}

func (e *Engine) handleMediumConfidence(ctx context.Context, item *workflow.Item, mi autolinker.MentionInput, mRow *ent.Mention, top matcher.Candidate) error {
	candidateRow, err := e.client.Concept.Get(ctx, top.ConceptID)
	if err != nil {
		return fmt.Errorf("loading candidate concept %s: %w", top.ConceptID, err)
	}

	if err := e.transition(ctx, item, mRow.ID, workflow.AgentReview, "evaluator scheduled", nil, nil); err != nil {
		return err
	}

	in := agentworkflow.Input{MentionStatement: mRow.Statement, CandidateStatement: candidateRow.CanonicalStatement}
	outcome, err := e.agentWorkflow.Run(ctx, item.TraceID, in, matcher.BandMedium, top)
	if err != nil {
		return e.recordStageFailure(ctx, item, mRow.ID, mRow.Domain, "agent_workflow", err)
	}

	if outcome.FromConsensus {
		if err := e.transition(ctx, item, mRow.ID, workflow.NeedsConsensus, "evaluator escalated", nil, nil); err != nil {
			return err
		}
		return e.applyConsensusOutcome(ctx, item, mi, mRow, &top, outcome, workflow.NeedsConsensus)
	}

	switch outcome.Kind {
	case agentworkflow.OutcomeLink:
		if err := e.checkpointBefore(ctx, item, "before_agent_link"); err != nil {
			return e.recordStageFailure(ctx, item, mRow.ID, mRow.Domain, "agent_link", err)
		}
		if err := e.linker.LinkExisting(ctx, mi, top, "agent", outcome.MatchConfidence); err != nil {
			return e.recordStageFailure(ctx, item, mRow.ID, mRow.Domain, "agent_link", err)
		}
		if err := e.transition(ctx, item, mRow.ID, workflow.Approved, "evaluator approved", outcome.Artefacts, nil); err != nil {
			return err
		}
		if err := e.transition(ctx, item, mRow.ID, workflow.AutoLinked, "link executed", nil, nil); err != nil {
			return err
		}
		e.triggerRefinement(ctx, top.ConceptID)
		return nil
	case agentworkflow.OutcomeCreateNew:
		if err := e.checkpointBefore(ctx, item, "before_create_new_concept"); err != nil {
			return e.recordStageFailure(ctx, item, mRow.ID, mRow.Domain, "create_new_concept", err)
		}
		if _, err := e.linker.CreateNewConcept(ctx, mi, "agent", outcome.MatchConfidence); err != nil {
			return e.recordStageFailure(ctx, item, mRow.ID, mRow.Domain, "create_new_concept", err)
		}
		return e.transition(ctx, item, mRow.ID, workflow.CreateNewConcept, "evaluator rejected", outcome.Artefacts, nil)
	default:
		// OutcomeEnqueueReview from a direct evaluator failure (infra error
		// or an unrecognised decision), not the consensus path.
		if err := e.transition(ctx, item, mRow.ID, workflow.NeedsConsensus, "evaluator failure", outcome.Artefacts, nil); err != nil {
			return err
		}
		if err := e.transition(ctx, item, mRow.ID, workflow.PendingReview, "enqueued after evaluator failure", nil, nil); err != nil {
			return err
		}
		return e.enqueueForReview(ctx, item, mi, mRow, &top, outcome)
	}
}

func (e *Engine) handleLowConfidence(ctx context.Context, item *workflow.Item, mi autolinker.MentionInput, mRow *ent.Mention, top matcher.Candidate) error {
	candidateRow, err := e.client.Concept.Get(ctx, top.ConceptID)
	if err != nil {
		return fmt.Errorf("loading candidate concept %s: %w", top.ConceptID, err)
	}

	in := agentworkflow.Input{MentionStatement: mRow.Statement, CandidateStatement: candidateRow.CanonicalStatement}
	outcome, err := e.agentWorkflow.Run(ctx, item.TraceID, in, matcher.BandLow, top)
	if err != nil {
		return e.recordStageFailure(ctx, item, mRow.ID, mRow.Domain, "agent_workflow", err)
	}
	return e.applyConsensusOutcome(ctx, item, mi, mRow, &top, outcome, workflow.LowConfidence)
}

// applyConsensusOutcome handles the Maker/Hater/Arbiter consensus result
// reached from viaState (LOW_CONFIDENCE, or NEEDS_CONSENSUS after an
// escalated MEDIUM-band evaluation).
//
// OQ4 (DESIGN.md): spec §4.5 says a confident LINK/CREATE_NEW consensus
// result moves straight to AUTO_LINKED/CREATE_NEW_CONCEPT, but spec §4.3's
// table only allows LOW_CONFIDENCE/NEEDS_CONSENSUS → PENDING_REVIEW. Both
// are honored by auto-resolving through PENDING_REVIEW in the same call,
// recorded as a resolved-without-waiting hop in the work item's history;
// only a genuinely exhausted consensus creates a durable PendingReview row
// that a human actually waits on.
func (e *Engine) applyConsensusOutcome(ctx context.Context, item *workflow.Item, mi autolinker.MentionInput, mRow *ent.Mention, top *matcher.Candidate, outcome agentworkflow.Outcome, viaState workflow.State) error {
	switch outcome.Kind {
	case agentworkflow.OutcomeLink:
		if err := e.checkpointBefore(ctx, item, "before_consensus_link"); err != nil {
			return e.recordStageFailure(ctx, item, mRow.ID, mRow.Domain, "consensus_link", err)
		}
		if err := e.linker.LinkExisting(ctx, mi, *top, "agent", outcome.MatchConfidence); err != nil {
			return e.recordStageFailure(ctx, item, mRow.ID, mRow.Domain, "consensus_link", err)
		}
		if err := e.transition(ctx, item, mRow.ID, workflow.PendingReview, "consensus_auto_resolved", outcome.Artefacts, nil); err != nil {
			return err
		}
		if err := e.transition(ctx, item, mRow.ID, workflow.Approved, "consensus_link", nil, nil); err != nil {
			return err
		}
		if err := e.transition(ctx, item, mRow.ID, workflow.AutoLinked, "link executed", nil, nil); err != nil {
			return err
		}
		e.triggerRefinement(ctx, top.ConceptID)
		return nil
	case agentworkflow.OutcomeCreateNew:
		if err := e.checkpointBefore(ctx, item, "before_consensus_create_new"); err != nil {
			return e.recordStageFailure(ctx, item, mRow.ID, mRow.Domain, "consensus_create_new", err)
		}
		if _, err := e.linker.CreateNewConcept(ctx, mi, "agent", outcome.MatchConfidence); err != nil {
			return e.recordStageFailure(ctx, item, mRow.ID, mRow.Domain, "consensus_create_new", err)
		}
		if err := e.transition(ctx, item, mRow.ID, workflow.PendingReview, "consensus_auto_resolved", outcome.Artefacts, nil); err != nil {
			return err
		}
		if err := e.transition(ctx, item, mRow.ID, workflow.Rejected, "consensus_create_new", nil, nil); err != nil {
			return err
		}
		return e.transition(ctx, item, mRow.ID, workflow.CreateNewConcept, "concept creation", nil, nil)
	default:
		reason := "enqueued after consensus"
		if viaState == workflow.NeedsConsensus {
			reason = "consensus rounds exhausted"
		}
		if err := e.transition(ctx, item, mRow.ID, workflow.PendingReview, reason, outcome.Artefacts, nil); err != nil {
			return err
		}
		return e.enqueueForReview(ctx, item, mi, mRow, top, outcome)
	}
}

func (e *Engine) handleNoMatch(ctx context.Context, item *workflow.Item, mi autolinker.MentionInput, mRow *ent.Mention) error {
	if err := e.checkpointBefore(ctx, item, "before_create_new_concept"); err != nil {
		return e.recordStageFailure(ctx, item, mRow.ID, mRow.Domain, "create_new_concept", err)
	}
	if _, err := e.linker.CreateNewConcept(ctx, mi, "auto", "REJECTED"); err != nil {
		return e.recordStageFailure(ctx, item, mRow.ID, mRow.Domain, "create_new_concept", err)
	}
	return e.transition(ctx, item, mRow.ID, workflow.CreateNewConcept, "new concept created", nil, nil)
}

// transition applies a work-item state transition (checkpointing first, per
// spec §4.3), persists it, mirrors the state onto the mention row, and
// publishes the transition event.
func (e *Engine) transition(ctx context.Context, item *workflow.Item, mentionID string, to workflow.State, reason string, metadata map[string]any, userID *string) error {
	snapshot := map[string]any{
		"work_item_id": item.ID,
		"state":        string(item.State),
		"retry_count":  item.RetryCount,
	}

	if err := item.Apply(to, reason, metadata, userID, func() error {
		_, err := e.checkpoints.Save(ctx, item.TraceID, "before_"+strings.ToLower(string(to)), snapshot, nil)
		return err
	}); err != nil {
		return fmt.Errorf("transitioning work item %s to %s: %w", item.ID, to, err)
	}

	if err := e.client.WorkItem.UpdateOneID(item.ID).
		SetCurrentState(string(to)).
		SetHistory(item.History).
		Exec(ctx); err != nil {
		return fmt.Errorf("persisting transition for work item %s: %w", item.ID, err)
	}
	if err := e.client.Mention.UpdateOneID(mentionID).SetCurrentState(string(to)).Exec(ctx); err != nil {
		e.logger.Warn("failed to mirror work item state onto mention", "mention_id", mentionID, "error", err)
	}

	last := item.History[len(item.History)-1]
	if err := e.events.Publish(ctx, item.TraceID, item.ID, last.FromState, last.ToState, reason, userID, metadata); err != nil {
		e.logger.Warn("failed to publish transition event", "work_item_id", item.ID, "error", err)
	}
	return nil
}

// checkpointBefore persists a checkpoint ahead of a link/create-new-concept
// transaction (spec §4.5: "checkpoint before commit to link/create"), so a
// crash between the two can be replayed from a known pre-commit snapshot
// instead of leaving the work item's audit trail silent about what it was
// about to do.
func (e *Engine) checkpointBefore(ctx context.Context, item *workflow.Item, stage string) error {
	snapshot := map[string]any{
		"work_item_id": item.ID,
		"state":        string(item.State),
		"retry_count":  item.RetryCount,
	}
	if _, err := e.checkpoints.Save(ctx, item.TraceID, stage, snapshot, nil); err != nil {
		return fmt.Errorf("checkpointing before %s for work item %s: %w", stage, item.ID, err)
	}
	return nil
}

// recordStageFailure records a retryable failure without transitioning the
// work item (spec §4.1: "halts the current work item ... with a retryable
// error"). Once retries are exhausted it alerts and surfaces the item as a
// high-priority review, but leaves it resting in its last non-terminal
// state rather than forcing a transition (spec §7).
func (e *Engine) recordStageFailure(ctx context.Context, item *workflow.Item, mentionID, domain, stage string, cause error) error {
	item.RetryCount++
	msg := fmt.Sprintf("%s: %v", stage, cause)
	item.LastError = &msg

	if err := e.client.WorkItem.UpdateOneID(item.ID).
		SetRetryCount(item.RetryCount).
		SetLastError(msg).
		Exec(ctx); err != nil {
		return fmt.Errorf("recording stage failure for work item %s: %w", item.ID, err)
	}

	if item.RetryCount >= item.MaxRetries {
		e.alerts.NotifyPersistentError(ctx, item.ID, item.TraceID, msg)
		if _, err := e.reviews.Enqueue(ctx, reviewqueue.EnqueueInput{
			WorkItemID:       item.ID,
			MentionID:        mentionID,
			Domain:           domain,
			EscalationReason: "persistent_error: " + msg,
		}, time.Now().UTC()); err != nil {
			e.logger.Error("failed to enqueue persistent-error review", "work_item_id", item.ID, "error", err)
		}
	}

	return fmt.Errorf("%s: work item %s: %w", stage, item.ID, cause)
}

func (e *Engine) enqueueForReview(ctx context.Context, item *workflow.Item, mi autolinker.MentionInput, mRow *ent.Mention, top *matcher.Candidate, outcome agentworkflow.Outcome) error {
	var suggested []reviewqueue.SuggestedConcept
	matchConfidence := 0.0
	candidateMentionCount := 0
	if top != nil {
		suggested = []reviewqueue.SuggestedConcept{{ConceptID: top.ConceptID, Score: top.BoostedScore, Reasoning: top.ReasoningTag}}
		matchConfidence = top.BoostedScore
		candidateMentionCount = top.MentionCount
	}

	_, err := e.reviews.Enqueue(ctx, reviewqueue.EnqueueInput{
		WorkItemID:            item.ID,
		MentionID:             mi.ID,
		Domain:                mRow.Domain,
		SuggestedConcepts:     suggested,
		AgentArtefacts:        outcome.Artefacts,
		EscalationReason:      outcome.EscalationReason,
		MatchConfidence:       matchConfidence,
		CandidateMentionCount: candidateMentionCount,
	}, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("enqueuing review for work item %s: %w", item.ID, err)
	}
	return nil
}

// triggerRefinement checks spec §4.7's trigger condition and, if met, runs
// synthesis in the background — the engine's submit/resolve paths must not
// block on it (spec §2: "invoked asynchronously").
func (e *Engine) triggerRefinement(ctx context.Context, conceptID string) {
	cpt, err := e.client.Concept.Get(ctx, conceptID)
	if err != nil {
		e.logger.Warn("failed to load concept for refinement check", "concept_id", conceptID, "error", err)
		return
	}
	if !refinement.ShouldRefine(e.cfg.Refinement.MentionCountTriggers, cpt.MentionCount, cpt.LastRefinedAtCount, cpt.HumanEdited) {
		return
	}

	go func() {
		if err := e.refiner.Refine(context.Background(), conceptID); err != nil {
			e.logger.Error("refinement failed", "concept_id", conceptID, "error", err)
		}
	}()
}

func (e *Engine) persistCandidates(ctx context.Context, workItemID string, candidates []matcher.Candidate) error {
	cc := make([]schema.CandidateConcept, 0, len(candidates))
	for _, c := range candidates {
		cc = append(cc, schema.CandidateConcept{
			ConceptID:    c.ConceptID,
			RawScore:     c.RawScore,
			BoostedScore: c.BoostedScore,
			DomainMatch:  c.DomainMatch,
			ReasoningTag: c.ReasoningTag,
			Band:         string(c.Band),
			MentionCount: c.MentionCount,
		})
	}
	return e.client.WorkItem.UpdateOneID(workItemID).SetCandidateConcepts(cc).Exec(ctx)
}

func (e *Engine) citedPaperIDs(ctx context.Context, paperID string) ([]string, error) {
	p, err := e.client.Paper.Get(ctx, paperID)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("loading paper %s: %w", paperID, err)
	}
	return p.CitesPaperIDs, nil
}

func (e *Engine) paperYear(ctx context.Context, paperID string) (*int, error) {
	p, err := e.client.Paper.Get(ctx, paperID)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("loading paper %s: %w", paperID, err)
	}
	return p.Year, nil
}

func (e *Engine) isNewPaperForConcept(ctx context.Context, conceptID, paperID string) (bool, error) {
	exists, err := e.client.Mention.Query().
		Where(entmention.ConceptID(conceptID), entmention.PaperID(paperID)).
		Exist(ctx)
	if err != nil {
		return false, fmt.Errorf("checking existing mentions for concept %s/paper %s: %w", conceptID, paperID, err)
	}
	return !exists, nil
}

// enrichMentionInput builds the autolinker.MentionInput for mRow, filling
// in NewPaper/Year only when there is a candidate concept to check against
// (spec §4.4's counters only apply once a concept is actually touched).
func (e *Engine) enrichMentionInput(ctx context.Context, mRow *ent.Mention, top *matcher.Candidate) (autolinker.MentionInput, error) {
	mi := mentionInputFrom(mRow)
	if top == nil {
		return mi, nil
	}

	newPaper, err := e.isNewPaperForConcept(ctx, top.ConceptID, mRow.PaperID)
	if err != nil {
		return autolinker.MentionInput{}, err
	}
	year, err := e.paperYear(ctx, mRow.PaperID)
	if err != nil {
		return autolinker.MentionInput{}, err
	}
	mi.NewPaper = newPaper
	mi.Year = year
	return mi, nil
}

func mentionInputFrom(m *ent.Mention) autolinker.MentionInput {
	return autolinker.MentionInput{
		ID:        m.ID,
		Statement: m.Statement,
		PaperID:   m.PaperID,
		Domain:    m.Domain,
		Embedding: m.Embedding,
	}
}

func itemFromRow(r *ent.WorkItem) *workflow.Item {
	return &workflow.Item{
		ID:         r.ID,
		TraceID:    r.TraceID,
		State:      workflow.State(r.CurrentState),
		History:    r.History,
		RetryCount: r.RetryCount,
		MaxRetries: r.MaxRetries,
		LastError:  r.LastError,
	}
}

// HandleStuckItems sweeps every non-terminal work item and applies
// workflow.CheckStuck (spec §4.3): reschedule if retries remain, otherwise
// force the item into PENDING_REVIEW and enqueue it. Intended to be driven
// by a periodic ticker in cmd/canonmatch-engine.
func (e *Engine) HandleStuckItems(ctx context.Context, now time.Time) error {
	rows, err := e.client.WorkItem.Query().All(ctx)
	if err != nil {
		return fmt.Errorf("scanning work items for stuck check: %w", err)
	}

	for _, r := range rows {
		item := itemFromRow(r)
		if workflow.IsTerminal(item.State) {
			continue
		}
		lastTransitionAt := r.CreatedAt
		if len(item.History) > 0 {
			lastTransitionAt = item.History[len(item.History)-1].Timestamp
		}

		switch workflow.CheckStuck(item, lastTransitionAt, now, e.cfg.Workflow.StuckTimeout) {
		case workflow.NotStuck:
			continue
		case workflow.Reschedule:
			e.logger.Warn("rescheduling stuck work item", "work_item_id", r.ID, "state", r.CurrentState)
			if err := e.ProcessWorkItem(ctx, r.ID); err != nil {
				e.logger.Error("failed rescheduling stuck work item", "work_item_id", r.ID, "error", err)
			}
		case workflow.ForcePendingReview:
			if err := e.forceStuckToPendingReview(ctx, item, r); err != nil {
				e.logger.Error("failed forcing stuck work item to pending review", "work_item_id", r.ID, "error", err)
			}
		}
	}
	return nil
}

func (e *Engine) forceStuckToPendingReview(ctx context.Context, item *workflow.Item, r *ent.WorkItem) error {
	if e.alerts != nil {
		e.alerts.NotifyStuckWorkItem(ctx, r.ID, r.TraceID, r.CurrentState)
	}
	if err := e.transition(ctx, item, r.MentionID, workflow.PendingReview, workflow.StuckReason, nil, nil); err != nil {
		return err
	}

	mRow, err := e.client.Mention.Get(ctx, r.MentionID)
	if err != nil {
		return fmt.Errorf("loading mention %s: %w", r.MentionID, err)
	}
	top := topCandidateFromRow(r)
	return e.enqueueForReview(ctx, item, mentionInputFrom(mRow), mRow, top, agentworkflow.Outcome{EscalationReason: workflow.StuckReason})
}

func topCandidateFromRow(r *ent.WorkItem) *matcher.Candidate {
	if len(r.CandidateConcepts) == 0 {
		return nil
	}
	c := r.CandidateConcepts[0]
	return &matcher.Candidate{
		ConceptID:    c.ConceptID,
		RawScore:     c.RawScore,
		BoostedScore: c.BoostedScore,
		DomainMatch:  c.DomainMatch,
		ReasoningTag: c.ReasoningTag,
		Band:         matcher.Band(c.Band),
		MentionCount: c.MentionCount,
	}
}
