// Package checkpoint persists the append-only, never-mutated work-item
// snapshots named in spec §3/§4.3/§9, and reconstructs a trace's stage
// history from them for the `rollback` operator operation (spec §6, §9's
// checkpoint-chain supplement).
package checkpoint

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/researchgraph/canonmatch/ent"
	entcheckpoint "github.com/researchgraph/canonmatch/ent/checkpoint"
)

// Checkpoint is the narrow read shape callers use; Store.Save writes
// directly through the ent client.
type Checkpoint struct {
	ID               string
	TraceID          string
	Stage            string
	WorkItemSnapshot map[string]any
	StageOutput      map[string]any
	CreatedAt        time.Time
}

// Store persists and reconstructs checkpoints through the shared ent
// client.
type Store struct {
	client *ent.Client
}

// New builds a Store.
func New(client *ent.Client) *Store {
	return &Store{client: client}
}

// Save writes a new checkpoint row for traceID/stage. Checkpoints are
// write-once: there is no Update method on this type by design (spec §3:
// "Append-only; never mutated").
func (s *Store) Save(ctx context.Context, traceID, stage string, snapshot, stageOutput map[string]any) (string, error) {
	id := uuid.NewString()
	err := s.client.Checkpoint.Create().
		SetID(id).
		SetTraceID(traceID).
		SetStage(stage).
		SetWorkItemSnapshot(snapshot).
		SetStageOutput(stageOutput).
		Exec(ctx)
	if err != nil {
		return "", err
	}
	return id, nil
}

// Chain returns every checkpoint for traceID ordered oldest-first, the
// sequence rollback/reconstruction replays over.
func (s *Store) Chain(ctx context.Context, traceID string) ([]Checkpoint, error) {
	rows, err := s.client.Checkpoint.Query().
		Where(entcheckpoint.TraceID(traceID)).
		All(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]Checkpoint, 0, len(rows))
	for _, r := range rows {
		out = append(out, Checkpoint{
			ID:               r.ID,
			TraceID:          r.TraceID,
			Stage:            r.Stage,
			WorkItemSnapshot: r.WorkItemSnapshot,
			StageOutput:      r.StageOutput,
			CreatedAt:        r.CreatedAt,
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// Reconstruct replays a trace's checkpoint chain and returns the
// work-item snapshot as of the given checkpoint id, or the latest
// checkpoint if checkpointID is empty. This is the primitive the
// `rollback(trace_id | checkpoint_id)` operator operation (spec §6) is
// built on: rollback simply restores the work item to this snapshot and
// records a new history entry noting the rollback, rather than mutating
// or deleting any checkpoint.
func (s *Store) Reconstruct(ctx context.Context, traceID, checkpointID string) (*Checkpoint, error) {
	chain, err := s.Chain(ctx, traceID)
	if err != nil {
		return nil, err
	}
	if len(chain) == 0 {
		return nil, ErrNoCheckpoints
	}

	if checkpointID == "" {
		latest := chain[len(chain)-1]
		return &latest, nil
	}

	for i := range chain {
		if chain[i].ID == checkpointID {
			return &chain[i], nil
		}
	}
	return nil, ErrCheckpointNotFound
}
