package session

import (
	"errors"
	"time"

	"github.com/quizpulse/quizpulse/internal/bank"
	"github.com/quizpulse/quizpulse/internal/history"
)

// TimeoutExplanation is shown when time ran out and neither the correct
// option nor the question carries an explanation.
const TimeoutExplanation = "Time is up."

var (
	ErrSessionDone     = errors.New("session is complete")
	ErrAlreadyAnswered = errors.New("question already answered")
	ErrUnknownOption   = errors.New("option does not belong to the current question")
)

// Session is one shuffled run through a set of questions. It is never
// persisted; only its Result is.
type Session struct {
	ID        string
	Mode      history.Mode
	Category  string
	Questions []bank.Question
	StartedAt time.Time

	index     int
	score     int
	answered  map[string]bool
	incorrect map[string]bool
}

// Outcome describes how the current question was resolved.
type Outcome struct {
	QuestionID bank.QuestionID
	// Selected is nil when no option was chosen.
	Selected    *bank.Option
	Correct     bank.Option
	IsCorrect   bool
	TimedOut    bool
	Explanation string
}

// Current returns the active question, or false once the session is done.
func (s *Session) Current() (bank.Question, bool) {
	if s.Done() {
		return bank.Question{}, false
	}
	return s.Questions[s.index], true
}

// Position returns the 1-based index of the current question and the total.
func (s *Session) Position() (int, int) {
	return s.index + 1, len(s.Questions)
}

// Score returns the number of correct answers so far.
func (s *Session) Score() int { return s.score }

// Done reports whether every question has been passed.
func (s *Session) Done() bool { return s.index >= len(s.Questions) }

// Answered reports whether the current question has been resolved.
func (s *Session) Answered() bool {
	q, ok := s.Current()
	return ok && s.answered[q.Key()]
}

// Answer resolves the current question with optionID. An empty optionID
// records "no answer", which counts as incorrect.
func (s *Session) Answer(optionID string) (Outcome, error) {
	return s.resolve(optionID, false)
}

// Timeout resolves the current question as unanswered because its timer
// expired. Statistics treat it exactly like a wrong answer.
func (s *Session) Timeout() (Outcome, error) {
	return s.resolve("", true)
}

func (s *Session) resolve(optionID string, timedOut bool) (Outcome, error) {
	q, ok := s.Current()
	if !ok {
		return Outcome{}, ErrSessionDone
	}
	key := q.Key()
	if s.answered[key] {
		return Outcome{}, ErrAlreadyAnswered
	}

	var selected *bank.Option
	if optionID != "" {
		opt, ok := q.Option(optionID)
		if !ok {
			return Outcome{}, ErrUnknownOption
		}
		selected = &opt
	}
	correct, _ := q.CorrectOption()

	out := Outcome{
		QuestionID: q.ID,
		Selected:   selected,
		Correct:    correct,
		IsCorrect:  selected != nil && selected.Correct,
		TimedOut:   timedOut,
	}
	out.Explanation = explain(q, out)

	s.answered[key] = true
	if out.IsCorrect {
		s.score++
	} else {
		s.incorrect[key] = true
	}
	return out, nil
}

func explain(q bank.Question, o Outcome) string {
	var candidates []string
	if o.TimedOut {
		candidates = []string{o.Correct.Explanation, q.Explanation, TimeoutExplanation}
	} else {
		if o.Selected != nil {
			candidates = append(candidates, o.Selected.Explanation)
		}
		candidates = append(candidates, q.Explanation, o.Correct.Explanation, bank.DefaultOptionExplanation)
	}
	for _, c := range candidates {
		if c != "" {
			return c
		}
	}
	return ""
}

// Advance moves to the next question. Leaving a question unanswered
// records it as missed.
func (s *Session) Advance() {
	q, ok := s.Current()
	if !ok {
		return
	}
	if !s.answered[q.Key()] {
		s.answered[q.Key()] = true
		s.incorrect[q.Key()] = true
	}
	s.index++
}

// Result returns the attempt data for registration. Questions not reached
// are counted against the score.
func (s *Session) Result(completedAt time.Time) history.Result {
	incorrect := make(map[string]bool, len(s.incorrect))
	for k := range s.incorrect {
		incorrect[k] = true
	}
	for _, q := range s.Questions {
		if !s.answered[q.Key()] {
			incorrect[q.Key()] = true
		}
	}
	return history.Result{
		Mode:        s.Mode,
		Score:       s.score,
		Total:       len(s.Questions),
		Questions:   bank.CloneAll(s.Questions),
		Incorrect:   incorrect,
		CompletedAt: completedAt,
	}
}
