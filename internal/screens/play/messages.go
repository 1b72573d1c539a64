package play

import (
	"errors"

	"github.com/quizpulse/quizpulse/internal/history"
	"github.com/quizpulse/quizpulse/internal/session"
)

// tickMsg is sent every second while a question's timer runs. seq ties it
// to the question it was started for so stale ticks are dropped.
type tickMsg struct {
	seq int
}

// completedMsg is sent once the finished session has been recorded.
type completedMsg struct {
	Attempt history.Attempt
	History *history.History
	Err     error
}

// StartFailedMsg is sent when a session could not be built, most often
// because the selection is empty (session.ErrNoQuestions).
type StartFailedMsg struct {
	Err error
}

// NoQuestions reports whether the failure was an empty selection.
func (m StartFailedMsg) NoQuestions() bool {
	return errors.Is(m.Err, session.ErrNoQuestions)
}
