package observability

import (
	"context"
	stdsql "database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// Publisher persists an Event to the events table and broadcasts it via
// Postgres NOTIFY in the same transaction — pg_notify is transactional, so
// the notification is only visible to listeners once the INSERT commits,
// same as the teacher's EventPublisher.
type Publisher struct {
	db *stdsql.DB
}

// NewPublisher builds a Publisher over the store's raw *sql.DB.
func NewPublisher(db *stdsql.DB) *Publisher {
	return &Publisher{db: db}
}

// Publish persists a transition event and notifies both its trace channel
// and the global channel. The global notify is best-effort: if it fails
// after the persisted/trace-channel publish already committed, the event
// is not lost, only the live global-dashboard push is.
func (p *Publisher) Publish(ctx context.Context, traceID, workItemID, fromState, toState, reason string, userID *string, metadata map[string]any) error {
	id := uuid.NewString()

	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("marshaling event metadata: %w", err)
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning event transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO events (event_id, trace_id, work_item_id, from_state, to_state, reason, user_id, metadata, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())`,
		id, traceID, workItemID, fromState, toState, reason, userID, metadataJSON,
	)
	if err != nil {
		return fmt.Errorf("persisting event: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "SELECT pg_notify($1, $2)", Channel(traceID), metadataJSON); err != nil {
		return fmt.Errorf("notifying trace channel: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing event: %w", err)
	}

	// Outside the transaction: a failed statement inside it would abort the
	// transaction and lose the event along with the notification.
	if _, err := p.db.ExecContext(ctx, "SELECT pg_notify($1, $2)", GlobalChannel, metadataJSON); err != nil {
		slog.Warn("failed to notify global event channel", "trace_id", traceID, "error", err)
	}
	return nil
}
