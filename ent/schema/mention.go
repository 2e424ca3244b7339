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

// Mention holds the schema definition for the ProblemMention entity (spec §3).
//
// Immutable after creation except for workflow state and concept linkage
// (current_state, review_status, concept_id, match_confidence, match_score,
// matching_method).
type Mention struct {
	ent.Schema
}

// Fields of the Mention.
func (Mention) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("mention_id").
			Unique().
			Immutable(),
		field.Text("statement").
			Immutable(),
		field.String("paper_id").
			Immutable(),
		field.String("section_label").
			Optional().
			Nillable().
			Immutable(),
		field.Text("source_text").
			Optional().
			Nillable().
			Immutable(),
		field.String("domain").
			Immutable(),

		// Rich attributes — each stored as JSON blobs matching spec §3's
		// tuple shapes; these are append-only once the mention is created.
		field.JSON("assumptions", []Assumption{}).
			Optional().
			Immutable(),
		field.JSON("constraints", []Constraint{}).
			Optional().
			Immutable(),
		field.JSON("datasets", []Dataset{}).
			Optional().
			Immutable(),
		field.JSON("metrics", []Metric{}).
			Optional().
			Immutable(),
		field.JSON("baselines", []Baseline{}).
			Optional().
			Immutable(),

		// Extraction provenance.
		field.String("extractor_version").
			Immutable(),
		field.String("extraction_model_id").
			Immutable(),
		field.Float("extraction_confidence").
			Immutable(),
		field.String("reviewer_id").
			Optional().
			Nillable(),

		// Embedding — fixed-dimension dense vector, null until computed.
		field.JSON("embedding", []float64{}).
			Optional().
			Nillable(),

		// Linkage.
		field.String("concept_id").
			Optional().
			Nillable(),
		field.Enum("match_confidence").
			Values("HIGH", "MEDIUM", "LOW", "REJECTED").
			Optional().
			Nillable(),
		field.Float("match_score").
			Optional().
			Nillable(),
		field.Enum("matching_method").
			Values("auto", "agent", "human").
			Optional().
			Nillable(),

		// Workflow.
		field.String("current_state").
			Default("EXTRACTED"),
		field.Enum("review_status").
			Values("pending", "approved", "rejected", "needs-consensus").
			Optional().
			Nillable(),

		field.Time("created_at").
			Default(time.Now).
			Immutable(),
	}
}

// Edges of the Mention.
//
// There is deliberately no edge to Concept here: the INSTANCE_OF link (I4)
// is stored as the scalar concept_id field below and queried via
// entmention.ConceptID, matching internal/store/migrations' plain
// `concept_id text REFERENCES concepts(id)` column. Two parallel storage
// mechanisms for the same relationship is a bug, not redundancy.
func (Mention) Edges() []ent.Edge {
	return []ent.Edge{
		edge.To("work_items", WorkItem.Type).
			Annotations(entsql.OnDelete(entsql.Cascade)),
	}
}

// Indexes of the Mention.
func (Mention) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("paper_id"),
		index.Fields("current_state"),
		index.Fields("domain"),
	}
}

// Annotations for the Mention schema.
func (Mention) Annotations() []schema.Annotation {
	return []schema.Annotation{}
}

// Assumption mirrors spec §3's (text, implicit?, confidence) tuple.
type Assumption struct {
	Text       string  `json:"text"`
	Implicit   bool    `json:"implicit"`
	Confidence float64 `json:"confidence"`
}

// Constraint mirrors spec §3's (text, kind, confidence) tuple.
type Constraint struct {
	Text       string  `json:"text"`
	Kind       string  `json:"kind"` // computational | data | methodological | theoretical
	Confidence float64 `json:"confidence"`
}

// Dataset mirrors spec §3's (name, url?, available?, size?) tuple.
type Dataset struct {
	Name      string  `json:"name"`
	URL       *string `json:"url,omitempty"`
	Available *bool   `json:"available,omitempty"`
	Size      *string `json:"size,omitempty"`
}

// Metric mirrors spec §3's (name, description?, baseline_value?) tuple.
type Metric struct {
	Name          string   `json:"name"`
	Description   *string  `json:"description,omitempty"`
	BaselineValue *float64 `json:"baseline_value,omitempty"`
}

// Baseline mirrors spec §3's (name, paper_doi?, performance) tuple.
type Baseline struct {
	Name        string             `json:"name"`
	PaperDOI    *string            `json:"paper_doi,omitempty"`
	Performance map[string]float64 `json:"performance"`
}
