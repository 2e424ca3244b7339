package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Concept holds the schema definition for the ProblemConcept entity (spec §3).
type Concept struct {
	ent.Schema
}

// Fields of the Concept.
func (Concept) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("concept_id").
			Unique().
			Immutable(),

		field.Text("canonical_statement"),
		field.String("domain"),
		field.Enum("status").
			Values("open", "in_progress", "resolved", "deprecated").
			Default("open"),

		// Aggregated attributes — union of all linked mentions, each entry
		// tagged with its source mention id (AggregatedX wraps the mention
		// tuple types with provenance, spec §3).
		field.JSON("assumptions", []AggregatedAssumption{}).
			Optional(),
		field.JSON("constraints", []AggregatedConstraint{}).
			Optional(),
		field.JSON("datasets", []AggregatedDataset{}).
			Optional(),
		field.JSON("metrics", []AggregatedMetric{}).
			Optional(),

		field.JSON("verified_baselines", []Baseline{}).
			Optional(),
		field.JSON("claimed_baselines", []Baseline{}).
			Optional(),

		// Synthesis metadata.
		field.String("synthesis_method").
			Optional().
			Nillable(),
		field.String("synthesis_model_id").
			Optional().
			Nillable(),
		field.Time("synthesized_at").
			Optional().
			Nillable(),
		field.String("synthesiser_id").
			Optional().
			Nillable(),
		field.Bool("human_edited").
			Default(false),
		field.Int("version").
			Default(1),

		// Aggregation counters.
		field.Int("mention_count").
			Default(0),
		field.Int("paper_count").
			Default(0),
		field.Int("first_mentioned_year").
			Optional().
			Nillable(),
		field.Int("last_mentioned_year").
			Optional().
			Nillable(),
		field.Int("last_refined_at_count").
			Default(0),

		// Embedding — cosine-comparable to mention embeddings.
		field.JSON("embedding", []float64{}).
			Optional().
			Nillable(),

		field.Time("created_at").
			Default(time.Now).
			Immutable(),
		field.Time("updated_at").
			Default(time.Now).
			UpdateDefault(time.Now),
	}
}

// Edges of the Concept.
//
// Mentions link back via their scalar concept_id field (see
// ent/schema/mention.go), not an ent edge — queried with
// entmention.ConceptID(conceptID), e.g. internal/engine/conceptlookup.go
// and internal/refinement/service.go.
func (Concept) Edges() []ent.Edge {
	return []ent.Edge{
		edge.To("pending_reviews", PendingReview.Type).
			Annotations(entsql.OnDelete(entsql.SetNull)),
		// EXTENDS/CONTRADICTS/DEPENDS_ON/REFRAMES are concept-level relations
		// owned by another subsystem (spec §6) — intentionally not modeled
		// here; this engine never writes them.
	}
}

// Indexes of the Concept.
func (Concept) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("domain"),
		index.Fields("status"),
	}
}

// Annotations for the Concept schema.
func (Concept) Annotations() []schema.Annotation {
	return []schema.Annotation{}
}

// AggregatedAssumption tags an Assumption with its source mention.
type AggregatedAssumption struct {
	Assumption
	SourceMentionID string `json:"source_mention_id"`
}

// AggregatedConstraint tags a Constraint with its source mention.
type AggregatedConstraint struct {
	Constraint
	SourceMentionID string `json:"source_mention_id"`
}

// AggregatedDataset tags a Dataset with its source mention.
type AggregatedDataset struct {
	Dataset
	SourceMentionID string `json:"source_mention_id"`
}

// AggregatedMetric tags a Metric with its source mention.
type AggregatedMetric struct {
	Metric
	SourceMentionID string `json:"source_mention_id"`
}
