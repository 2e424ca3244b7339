package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Paper holds the schema definition for the Paper entity.
//
// Papers are owned by the out-of-scope bibliographic-ingestion subsystem
// (spec §1); this engine only reads paper identity and the CITES edge to
// compute the matcher's citation boost (spec §4.2).
type Paper struct {
	ent.Schema
}

// Fields of the Paper.
func (Paper) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("paper_id").
			Unique().
			Immutable(),
		field.String("doi").
			Optional().
			Nillable(),
		field.String("title").
			Optional().
			Nillable(),
		field.Int("year").
			Optional().
			Nillable(),
		// Flat id list instead of a self-referential edge: CITES is
		// read-only here (owned elsewhere) and the matcher only ever needs
		// depth-1 membership tests (spec §4.2), never traversal.
		field.Strings("cites_paper_ids").
			Optional().
			Comment("Depth-1 CITES targets; owned by the bibliographic subsystem"),
	}
}

// Indexes of the Paper.
func (Paper) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("doi"),
	}
}
