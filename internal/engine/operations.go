package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/researchgraph/canonmatch/ent"
	entmention "github.com/researchgraph/canonmatch/ent/mention"
	entworkitem "github.com/researchgraph/canonmatch/ent/workitem"
	"github.com/researchgraph/canonmatch/internal/matcher"
	"github.com/researchgraph/canonmatch/internal/reviewqueue"
	"github.com/researchgraph/canonmatch/internal/workflow"
)

// ReprocessFilter narrows reprocess's target set (spec §6: "reprocess by
// trace id, mention id, or a filter such as domain/time window").
type ReprocessFilter struct {
	TraceID   *string
	MentionID *string
	Domain    *string
	Since     *time.Time
}

// Reprocess creates a fresh WorkItem (new trace id, EXTRACTED) for every
// mention the filter selects. It never mutates an existing WorkItem in
// place: a prior run may have already reached a terminal state, and a
// terminal work item's history is an audit trail, not scratch space.
func (e *Engine) Reprocess(ctx context.Context, filter ReprocessFilter) ([]string, error) {
	mentionIDs, err := e.selectMentions(ctx, filter)
	if err != nil {
		return nil, err
	}

	traceIDs := make([]string, 0, len(mentionIDs))
	for _, mentionID := range mentionIDs {
		if _, err := e.client.Mention.Get(ctx, mentionID); err != nil {
			return traceIDs, fmt.Errorf("loading mention %s: %w", mentionID, err)
		}

		traceID := newTraceID("reprocess")
		workItemID := uuid.NewString()
		now := time.Now().UTC()
		err = e.client.WorkItem.Create().
			SetID(workItemID).
			SetTraceID(traceID).
			SetMentionID(mentionID).
			SetCurrentState(string(workflow.Extracted)).
			SetMaxRetries(e.cfg.Retry.Max).
			SetCreatedAt(now).
			SetUpdatedAt(now).
			Exec(ctx)
		if err != nil {
			return traceIDs, fmt.Errorf("creating reprocess work item for mention %s: %w", mentionID, err)
		}
		if err := e.client.Mention.UpdateOneID(mentionID).SetCurrentState(string(workflow.Extracted)).Exec(ctx); err != nil {
			return traceIDs, fmt.Errorf("resetting mention %s state: %w", mentionID, err)
		}
		traceIDs = append(traceIDs, traceID)
	}
	return traceIDs, nil
}

func (e *Engine) selectMentions(ctx context.Context, filter ReprocessFilter) ([]string, error) {
	if filter.MentionID != nil {
		return []string{*filter.MentionID}, nil
	}
	if filter.TraceID != nil {
		wi, err := e.client.WorkItem.Query().
			Where(entworkitem.TraceID(*filter.TraceID)).
			Only(ctx)
		if err != nil {
			return nil, fmt.Errorf("finding work item for trace %s: %w", *filter.TraceID, err)
		}
		return []string{wi.MentionID}, nil
	}

	q := e.client.Mention.Query()
	if filter.Domain != nil {
		q = q.Where(entmention.Domain(*filter.Domain))
	}
	if filter.Since != nil {
		q = q.Where(entmention.CreatedAtGT(*filter.Since))
	}
	ids, err := q.IDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("selecting mentions for reprocess: %w", err)
	}
	return ids, nil
}

// Rollback reconstructs the state at checkpointID (latest, if empty) and
// force-sets the work item back to it (spec §6: "rollback(trace_id,
// checkpoint_id)"). It deliberately bypasses workflow.Allowed(): like
// Cancelled, an operator-invoked rollback is an escape hatch reachable from
// any non-terminal state, not a transition the normal pipeline would take.
func (e *Engine) Rollback(ctx context.Context, traceID, checkpointID string) error {
	wi, err := e.client.WorkItem.Query().
		Where(entworkitem.TraceID(traceID)).
		Only(ctx)
	if err != nil {
		return fmt.Errorf("finding work item for trace %s: %w", traceID, err)
	}

	cp, err := e.checkpoints.Reconstruct(ctx, traceID, checkpointID)
	if err != nil {
		return fmt.Errorf("reconstructing checkpoint for trace %s: %w", traceID, err)
	}

	targetState, ok := cp.WorkItemSnapshot["state"].(string)
	if !ok || targetState == "" {
		return fmt.Errorf("checkpoint %s for trace %s has no recorded state", cp.Stage, traceID)
	}

	if err := e.client.WorkItem.UpdateOneID(wi.ID).
		SetCurrentState(targetState).
		SetRetryCount(0).
		ClearLastError().
		Exec(ctx); err != nil {
		return fmt.Errorf("rolling back work item %s: %w", wi.ID, err)
	}
	if err := e.client.Mention.UpdateOneID(wi.MentionID).SetCurrentState(targetState).Exec(ctx); err != nil {
		return fmt.Errorf("rolling back mention %s: %w", wi.MentionID, err)
	}

	if err := e.events.Publish(ctx, traceID, wi.ID, wi.CurrentState, targetState, "rollback to "+cp.Stage, nil, nil); err != nil {
		e.logger.Warn("failed to publish rollback event", "work_item_id", wi.ID, "error", err)
	}
	return nil
}

// Blacklist records a permanent interdiction for (mentionID, conceptID)
// (spec §6/§4.6). It does not itself move the mention off its current
// concept; callers resolving a review with DecisionBlacklisted get that
// via Resolve's ActionBlacklistThenCreateNew path.
func (e *Engine) Blacklist(ctx context.Context, mentionID, conceptID, reason, actorID string) (string, error) {
	return e.blacklists.Add(ctx, mentionID, conceptID, "", reason, actorID, true)
}

// Resolve applies a human reviewer's decision to a pending review (spec
// §4.6/§6) and drives the resulting work item through its legal
// PENDING_REVIEW transition. conceptID selects the target concept for
// DecisionApproved/DecisionBlacklisted when the review itself didn't
// already carry one.
func (e *Engine) Resolve(ctx context.Context, reviewID, reviewerID string, decision reviewqueue.Decision, conceptID *string, reason string) error {
	outcome, err := e.reviews.Resolve(ctx, reviewID, reviewerID, decision, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("resolving review %s: %w", reviewID, err)
	}

	target := outcome.ConceptID
	if target == nil {
		target = conceptID
	}

	wi, err := e.workItemForMention(ctx, outcome.MentionID)
	if err != nil {
		return err
	}
	mRow, err := e.client.Mention.Get(ctx, outcome.MentionID)
	if err != nil {
		return fmt.Errorf("loading mention %s: %w", outcome.MentionID, err)
	}
	item := itemFromRow(wi)
	userID := &reviewerID

	switch outcome.Action {
	case reviewqueue.ActionLink:
		if target == nil {
			return fmt.Errorf("resolve review %s: approved with no target concept", reviewID)
		}
		mi := mentionInputFrom(mRow)
		newPaper, err := e.isNewPaperForConcept(ctx, *target, mRow.PaperID)
		if err != nil {
			return err
		}
		mi.NewPaper = newPaper
		mi.Year, err = e.paperYear(ctx, mRow.PaperID)
		if err != nil {
			return err
		}

		if err := e.checkpointBefore(ctx, item, "before_human_link"); err != nil {
			return fmt.Errorf("resolve review %s: %w", reviewID, err)
		}
		if err := e.linker.LinkExisting(ctx, mi, matcher.Candidate{ConceptID: *target}, "human", "MEDIUM"); err != nil {
			return fmt.Errorf("resolve review %s: linking mention %s to concept %s: %w", reviewID, outcome.MentionID, *target, err)
		}
		if err := e.transition(ctx, item, outcome.MentionID, workflow.Approved, reason, nil, userID); err != nil {
			return err
		}
		if err := e.transition(ctx, item, outcome.MentionID, workflow.AutoLinked, "human link executed", nil, userID); err != nil {
			return err
		}
		e.triggerRefinement(ctx, *target)
		return nil

	case reviewqueue.ActionCreateNew:
		mi := mentionInputFrom(mRow)
		if err := e.checkpointBefore(ctx, item, "before_human_create_new"); err != nil {
			return fmt.Errorf("resolve review %s: %w", reviewID, err)
		}
		if _, err := e.linker.CreateNewConcept(ctx, mi, "human", "REJECTED"); err != nil {
			return fmt.Errorf("resolve review %s: creating concept for mention %s: %w", reviewID, outcome.MentionID, err)
		}
		if err := e.transition(ctx, item, outcome.MentionID, workflow.Rejected, reason, nil, userID); err != nil {
			return err
		}
		return e.transition(ctx, item, outcome.MentionID, workflow.CreateNewConcept, "human rejection", nil, userID)

	case reviewqueue.ActionBlacklistThenCreateNew:
		blacklistConcept := ""
		if target != nil {
			blacklistConcept = *target
		}
		if _, err := e.blacklists.Add(ctx, outcome.MentionID, blacklistConcept, "", reason, reviewerID, true); err != nil {
			return fmt.Errorf("resolve review %s: recording blacklist entry: %w", reviewID, err)
		}
		mi := mentionInputFrom(mRow)
		if err := e.checkpointBefore(ctx, item, "before_human_create_new"); err != nil {
			return fmt.Errorf("resolve review %s: %w", reviewID, err)
		}
		if _, err := e.linker.CreateNewConcept(ctx, mi, "human", "REJECTED"); err != nil {
			return fmt.Errorf("resolve review %s: creating concept for mention %s: %w", reviewID, outcome.MentionID, err)
		}
		if err := e.transition(ctx, item, outcome.MentionID, workflow.Blacklisted, reason, nil, userID); err != nil {
			return err
		}
		return e.transition(ctx, item, outcome.MentionID, workflow.CreateNewConcept, "human blacklist", nil, userID)

	default:
		return fmt.Errorf("resolve review %s: unhandled action %q", reviewID, outcome.Action)
	}
}

// Deprecate marks a concept deprecated (OQ2, DESIGN.md): no destructive
// delete operation is exposed, since a concept with incoming INSTANCE_OF
// edges cannot be removed without orphaning every mention linked to it.
func (e *Engine) Deprecate(ctx context.Context, conceptID string) error {
	return e.client.Concept.UpdateOneID(conceptID).SetStatus("deprecated").Exec(ctx)
}

func (e *Engine) workItemForMention(ctx context.Context, mentionID string) (*ent.WorkItem, error) {
	wi, err := e.client.WorkItem.Query().
		Where(entworkitem.MentionID(mentionID)).
		Order(ent.Desc(entworkitem.FieldCreatedAt)).
		First(ctx)
	if err != nil {
		return nil, fmt.Errorf("finding work item for mention %s: %w", mentionID, err)
	}
	return wi, nil
}
