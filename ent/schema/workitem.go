package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// WorkItem holds the schema definition for the per-mention processing
// record described in spec §3/§4.3.
type WorkItem struct {
	ent.Schema
}

// Fields of the WorkItem.
func (WorkItem) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("work_item_id").
			Unique().
			Immutable(),
		field.String("trace_id").
			Comment("{UTC timestamp}-{short-id}-{operation}, spec §3").
			Immutable(),
		field.String("mention_id").
			Immutable(),

		field.String("current_state").
			Default("EXTRACTED"),

		// Append-only history; StateHistoryEntry mirrors spec §3 exactly.
		field.JSON("history", []StateHistoryEntry{}).
			Optional(),

		field.JSON("candidate_concepts", []CandidateConcept{}).
			Optional(),
		field.String("selected_concept_id").
			Optional().
			Nillable(),

		field.Int("priority").
			Default(5).
			Comment("1=highest, 10=lowest"),
		field.Time("sla_deadline").
			Optional().
			Nillable(),

		field.Int("retry_count").
			Default(0),
		field.Int("max_retries").
			Default(3),
		field.String("last_error").
			Optional().
			Nillable(),

		field.Strings("checkpoint_ids").
			Optional(),

		field.String("assigned_reviewer_id").
			Optional().
			Nillable(),
		field.Time("assigned_at").
			Optional().
			Nillable(),

		field.Time("updated_at").
			Default(time.Now).
			UpdateDefault(time.Now),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
	}
}

// Edges of the WorkItem.
func (WorkItem) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("mention", Mention.Type).
			Ref("work_items").
			Field("mention_id").
			Unique().
			Required().
			Immutable(),
	}
}

// Indexes of the WorkItem.
func (WorkItem) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("current_state"),
		index.Fields("trace_id").Unique(),
		index.Fields("mention_id"),
	}
}

// Annotations for the WorkItem schema.
func (WorkItem) Annotations() []schema.Annotation {
	return []schema.Annotation{}
}

// StateHistoryEntry mirrors spec §3's state-history tuple exactly.
type StateHistoryEntry struct {
	FromState string         `json:"from_state"`
	ToState   string         `json:"to_state"`
	Timestamp time.Time      `json:"timestamp"`
	Reason    string         `json:"reason"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	UserID    *string        `json:"user_id,omitempty"`
}

// CandidateConcept mirrors the matcher's ranked-candidate output (spec §4.2)
// as persisted on the work item.
type CandidateConcept struct {
	ConceptID     string  `json:"concept_id"`
	RawScore      float64 `json:"raw_score"`
	BoostedScore  float64 `json:"boosted_score"`
	DomainMatch   bool    `json:"domain_match"`
	ReasoningTag  string  `json:"reasoning_tag"`
	Band          string  `json:"band"`
	MentionCount  int     `json:"mention_count"`
}
