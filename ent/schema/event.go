package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Event holds the schema definition for a persisted observability event
// (spec §6 "Engine → Observability"). Events are append-only and must be
// sufficient, as a stream, to reconstruct a work item's state history.
type Event struct {
	ent.Schema
}

// Fields of the Event.
func (Event) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("event_id").
			Unique().
			Immutable(),
		field.String("trace_id").
			Immutable(),
		field.String("work_item_id").
			Immutable(),
		field.String("from_state").
			Immutable(),
		field.String("to_state").
			Immutable(),
		field.String("reason").
			Immutable(),
		field.String("user_id").
			Optional().
			Nillable().
			Immutable(),
		field.JSON("metadata", map[string]any{}).
			Optional().
			Immutable(),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
	}
}

// Indexes of the Event.
func (Event) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("trace_id", "created_at"),
		index.Fields("work_item_id"),
	}
}
