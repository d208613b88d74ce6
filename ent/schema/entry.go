package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Entry is a single namespaced key-value pair. The whole value is the unit
// of atomicity: writers replace it entirely, never individual fields.
type Entry struct {
	ent.Schema
}

func (Entry) Fields() []ent.Field {
	return []ent.Field{
		field.String("key").
			Unique().
			NotEmpty().
			Comment("Namespaced key, e.g. studorama-sessions"),
		field.Bytes("value").
			Comment("JSON-encoded value"),
		field.Time("updated_at").
			Default(time.Now).
			UpdateDefault(time.Now).
			Comment("When the entry was last written"),
	}
}

func (Entry) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("key").Unique(),
	}
}
