package session

import (
	"errors"
	"time"

	"github.com/quizpulse/quizpulse/internal/bank"
	"github.com/quizpulse/quizpulse/internal/history"
)

// ErrNoQuestions signals that the requested filter selected nothing. It is
// not a failure of the bank; callers should prompt for another choice.
var ErrNoQuestions = errors.New("no questions available for this selection")

// Options configures Build.
type Options struct {
	// Category filters questions in full mode. Empty means all.
	Category string

	Mode history.Mode

	// Failed holds the keys eligible in failed-only mode.
	Failed map[string]struct{}
}

// Build selects questions per opts and returns a freshly shuffled session.
// Failed-only mode ignores the category filter.
func (b *Builder) Build(questions []bank.Question, opts Options) (*Session, error) {
	mode := opts.Mode
	if mode == "" {
		mode = history.ModeFull
	}

	var selected []bank.Question
	category := opts.Category
	if category == "" {
		category = AllCategories
	}
	if mode == history.ModeFailedOnly {
		selected = FailedOnly(questions, opts.Failed)
		category = AllCategories
	} else {
		selected = Filter(questions, category)
	}
	if len(selected) == 0 {
		return nil, ErrNoQuestions
	}

	shuffled, err := b.Shuffle(selected)
	if err != nil {
		return nil, err
	}
	return &Session{
		ID:        b.newID(),
		Mode:      mode,
		Category:  category,
		Questions: shuffled,
		StartedAt: time.Now().UTC(),
		answered:  make(map[string]bool, len(shuffled)),
		incorrect: make(map[string]bool),
	}, nil
}
