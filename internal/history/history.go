// Package history aggregates attempts and per-question statistics for a
// quiz. It is pure in-memory logic; persistence lives in the store.
package history

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/quizpulse/quizpulse/internal/bank"
)

// Mode selects which questions a session draws from.
type Mode string

const (
	ModeFull       Mode = "full"
	ModeFailedOnly Mode = "failed_only"
)

// Label returns the short display name of the mode.
func (m Mode) Label() string {
	if m == ModeFailedOnly {
		return "Failed"
	}
	return "Full"
}

// ParseMode accepts "full", "failed_only" and the shorthand "failed".
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", string(ModeFull):
		return ModeFull, nil
	case string(ModeFailedOnly), "failed":
		return ModeFailedOnly, nil
	}
	return "", fmt.Errorf("unknown quiz mode %q", s)
}

// Attempt is one completed run. Immutable once appended.
type Attempt struct {
	Number      int       `json:"number"`
	Mode        Mode      `json:"mode"`
	Score       int       `json:"score"`
	Total       int       `json:"total"`
	Percentage  float64   `json:"percentage"`
	CompletedAt time.Time `json:"completedAt"`
}

// Stat tracks how often a question was asked and missed.
type Stat struct {
	ID       bank.QuestionID `json:"id"`
	Question string          `json:"question"`
	Attempts int             `json:"attempts"`
	Failures int             `json:"failures"`
}

// History is the aggregate state persisted per quiz hash.
type History struct {
	AttemptsHistory []Attempt       `json:"attemptsHistory"`
	QuestionStats   map[string]Stat `json:"questionStats"`
	BestAttempt     *Attempt        `json:"bestAttempt"`
	AttemptCount    int             `json:"attemptCount"`
}

// New returns the empty history used when nothing has been recorded.
func New() *History {
	return &History{
		AttemptsHistory: []Attempt{},
		QuestionStats:   map[string]Stat{},
	}
}

// Result is the outcome of a finished session, ready to be registered.
type Result struct {
	Mode      Mode
	Score     int
	Total     int
	Questions []bank.Question
	// Incorrect holds the keys of questions answered wrong or left
	// unanswered.
	Incorrect   map[string]bool
	CompletedAt time.Time
}

// Percentage returns score/total as a percentage rounded to two decimals.
func (r Result) Percentage() float64 {
	return Percentage(r.Score, r.Total)
}

// Percentage returns score/total*100 rounded to two decimals, or 0 when
// total is zero.
func Percentage(score, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(score)/float64(total)*10000) / 100
}

// RegisterAttempt appends an attempt for r and folds its answers into the
// per-question statistics. The best attempt only changes on a strictly
// higher percentage, so ties keep the earlier one.
func (h *History) RegisterAttempt(r Result) Attempt {
	if h.QuestionStats == nil {
		h.QuestionStats = map[string]Stat{}
	}

	number := 1
	if n := len(h.AttemptsHistory); n > 0 {
		number = h.AttemptsHistory[n-1].Number + 1
	}
	mode := r.Mode
	if mode == "" {
		mode = ModeFull
	}

	a := Attempt{
		Number:      number,
		Mode:        mode,
		Score:       r.Score,
		Total:       r.Total,
		Percentage:  r.Percentage(),
		CompletedAt: r.CompletedAt.UTC(),
	}
	h.AttemptsHistory = append(h.AttemptsHistory, a)
	h.AttemptCount = len(h.AttemptsHistory)

	if h.BestAttempt == nil || a.Percentage > h.BestAttempt.Percentage {
		best := a
		h.BestAttempt = &best
	}

	for _, q := range r.Questions {
		key := q.Key()
		st, ok := h.QuestionStats[key]
		if !ok {
			st = Stat{ID: q.ID, Question: q.Question}
		}
		st.Attempts++
		if r.Incorrect[key] {
			st.Failures++
		}
		h.QuestionStats[key] = st
	}
	return a
}

// FailedKeys returns the keys of questions that have failed at least once.
func (h *History) FailedKeys() map[string]struct{} {
	keys := make(map[string]struct{})
	for k, st := range h.QuestionStats {
		if st.Failures > 0 {
			keys[k] = struct{}{}
		}
	}
	return keys
}

// MostFailed returns up to n stats with failures, most failures first.
// Equal failure counts are ordered by key for stable output.
func (h *History) MostFailed(n int) []Stat {
	var out []Stat
	for _, st := range h.QuestionStats {
		if st.Failures > 0 {
			out = append(out, st)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Failures != out[j].Failures {
			return out[i].Failures > out[j].Failures
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// Recent returns the last n attempts, newest first.
func (h *History) Recent(n int) []Attempt {
	start := len(h.AttemptsHistory) - n
	if start < 0 || n < 0 {
		start = 0
	}
	out := make([]Attempt, 0, len(h.AttemptsHistory)-start)
	for i := len(h.AttemptsHistory) - 1; i >= start; i-- {
		out = append(out, h.AttemptsHistory[i])
	}
	return out
}

// Normalize repairs nil collections and recomputes AttemptCount, mirroring
// the defaults applied when a stored record is loaded.
func (h *History) Normalize() {
	if h.AttemptsHistory == nil {
		h.AttemptsHistory = []Attempt{}
	}
	if h.QuestionStats == nil {
		h.QuestionStats = map[string]Stat{}
	}
	h.AttemptCount = len(h.AttemptsHistory)
}
