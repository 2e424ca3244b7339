package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Checkpoint holds the schema definition for the append-only work-item
// snapshot described in spec §3/§4.3/§9. Checkpoints are never mutated.
type Checkpoint struct {
	ent.Schema
}

// Fields of the Checkpoint.
func (Checkpoint) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("checkpoint_id").
			Unique().
			Immutable(),
		field.String("trace_id").
			Immutable(),
		field.String("stage").
			Immutable().
			Comment("stage name this checkpoint precedes, e.g. MATCHING, AGENT_REVIEW"),

		// Full serialized work item at the moment of the checkpoint, plus
		// the current stage's output-in-progress (candidates, decision,
		// agent arguments) — stored as opaque JSON, never interpreted by
		// the checkpoint store itself (spec §3: "semantic state only").
		field.JSON("work_item_snapshot", map[string]any{}),
		field.JSON("stage_output", map[string]any{}).
			Optional(),

		field.Time("created_at").
			Default(time.Now).
			Immutable(),
	}
}

// Indexes of the Checkpoint.
func (Checkpoint) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("trace_id", "created_at"),
		index.Fields("trace_id", "stage"),
	}
}
