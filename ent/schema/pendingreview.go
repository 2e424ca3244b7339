package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// PendingReview holds the schema definition for the durable review-queue
// record described in spec §3/§4.6.
type PendingReview struct {
	ent.Schema
}

// Fields of the PendingReview.
func (PendingReview) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("review_id").
			Unique().
			Immutable(),
		field.String("work_item_id").
			Immutable(),
		field.String("mention_id").
			Immutable(),
		field.String("concept_id").
			Optional().
			Nillable(),
		field.String("domain").
			Immutable(),

		field.JSON("suggested_concepts", []SuggestedConcept{}).
			Optional(),
		field.JSON("agent_artefacts", map[string]any{}).
			Optional(),

		field.Int("priority").
			Comment("1=highest, 10=lowest, clamped (spec B3)"),
		field.Time("sla_deadline"),
		field.Bool("sla_breached").
			Default(false),

		field.Enum("state").
			Values("queued", "assigned", "resolved").
			Default("queued"),
		field.String("assigned_to").
			Optional().
			Nillable(),
		field.Time("assigned_at").
			Optional().
			Nillable(),
		field.Time("lease_expires_at").
			Optional().
			Nillable(),

		field.Enum("resolution").
			Values("linked", "created_new", "blacklisted").
			Optional().
			Nillable(),
		field.String("resolved_by").
			Optional().
			Nillable(),
		field.Time("resolved_at").
			Optional().
			Nillable(),

		field.String("escalation_reason").
			Optional().
			Nillable(),

		field.Time("created_at").
			Default(time.Now).
			Immutable(),
	}
}

// Edges of the PendingReview.
func (PendingReview) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("concept", Concept.Type).
			Ref("pending_reviews").
			Field("concept_id").
			Unique(),
	}
}

// Indexes of the PendingReview.
func (PendingReview) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("priority"),
		index.Fields("state"),
		index.Fields("sla_deadline"),
	}
}

// SuggestedConcept mirrors a candidate surfaced to the reviewer, with the
// score and reasoning captured at enqueue time (spec §3).
type SuggestedConcept struct {
	ConceptID string  `json:"concept_id"`
	Score     float64 `json:"score"`
	Reasoning string  `json:"reasoning"`
}
