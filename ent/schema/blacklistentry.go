package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// BlacklistEntry holds the schema definition for a permanent (or
// superseding) interdiction of a mention/concept pair, spec §3/§4.6.
//
// Append-only: removal is modeled as a new entry with NeverAllow=false that
// supersedes by (mention_id, concept_id) — see internal/blacklist.Resolve.
type BlacklistEntry struct {
	ent.Schema
}

// Fields of the BlacklistEntry.
func (BlacklistEntry) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("blacklist_entry_id").
			Unique().
			Immutable(),
		field.String("mention_id").
			Optional().
			Nillable().
			Immutable(),
		field.String("concept_id").
			Optional().
			Nillable().
			Immutable(),
		field.String("text_pattern").
			Optional().
			Nillable().
			Immutable(),
		field.Bool("never_allow").
			Default(true).
			Immutable().
			Comment("false marks this entry as superseding an earlier interdiction"),
		field.String("reason").
			Immutable(),
		field.String("creator_id").
			Immutable(),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
	}
}

// Indexes of the BlacklistEntry.
func (BlacklistEntry) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("mention_id", "concept_id", "created_at"),
	}
}
