package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"

	"github.com/quizpulse/quizpulse/internal/bank"
)

// Quiz is a catalog entry: one imported question bank, deduplicated by
// the fingerprint of its normalized content.
type Quiz struct {
	ent.Schema
}

func (Quiz) Fields() []ent.Field {
	return []ent.Field{
		field.String("hash").
			NotEmpty().
			Unique().
			Immutable().
			Comment("Fingerprint of the normalized questions"),
		field.String("name").
			Comment("User-chosen label"),
		field.JSON("normalized_data", []bank.Question{}).
			Comment("Canonical questions in source order"),
		field.Int("question_count"),
		field.JSON("categories", []string{}),
		field.Time("imported_at").
			Default(time.Now).
			Immutable(),
	}
}

func (Quiz) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("name"),
		index.Fields("imported_at"),
	}
}
