package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/field"

	"github.com/quizpulse/quizpulse/internal/history"
)

// QuizHistory holds attempts and question stats for one quiz hash. It is
// joined to Quiz by hash, not by id, so re-importing identical content
// reattaches prior history.
type QuizHistory struct {
	ent.Schema
}

func (QuizHistory) Fields() []ent.Field {
	return []ent.Field{
		field.String("quiz_hash").
			NotEmpty().
			Unique(),
		field.JSON("attempts_history", []history.Attempt{}),
		field.JSON("question_stats", map[string]history.Stat{}),
		field.JSON("best_attempt", &history.Attempt{}).
			Optional(),
		field.Time("updated_at").
			Default(time.Now).
			UpdateDefault(time.Now),
	}
}
