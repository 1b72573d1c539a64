package history

import (
	"testing"
	"time"

	"github.com/quizpulse/quizpulse/internal/bank"
)

var t0 = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func questions(ids ...string) []bank.Question {
	qs := make([]bank.Question, len(ids))
	for i, id := range ids {
		qs[i] = bank.Question{ID: bank.StringID(id), Question: "Question " + id}
	}
	return qs
}

func result(score, total int, incorrect ...string) Result {
	ids := make([]string, total)
	for i := range ids {
		ids[i] = string(rune('a' + i))
	}
	wrong := map[string]bool{}
	for _, k := range incorrect {
		wrong[k] = true
	}
	return Result{Mode: ModeFull, Score: score, Total: total, Questions: questions(ids...), Incorrect: wrong, CompletedAt: t0}
}

func TestPercentage(t *testing.T) {
	tests := []struct {
		score, total int
		want         float64
	}{
		{0, 0, 0},
		{3, 5, 60},
		{1, 3, 33.33},
		{2, 3, 66.67},
		{7, 7, 100},
	}
	for _, tt := range tests {
		if got := Percentage(tt.score, tt.total); got != tt.want {
			t.Errorf("Percentage(%d, %d) = %v, want %v", tt.score, tt.total, got, tt.want)
		}
	}
}

func TestRegisterAttempt_BestOnlyOnStrictImprovement(t *testing.T) {
	h := New()

	h.RegisterAttempt(result(3, 5, "d", "e")) // 60
	h.RegisterAttempt(result(9, 10, "j"))     // 90
	if h.BestAttempt == nil || h.BestAttempt.Percentage != 90 {
		t.Fatalf("best = %+v, want 90", h.BestAttempt)
	}

	h.RegisterAttempt(result(2, 5, "a", "b", "c")) // 40
	if h.BestAttempt.Percentage != 90 {
		t.Errorf("best changed to %v after a worse attempt", h.BestAttempt.Percentage)
	}

	h.RegisterAttempt(result(9, 10, "a")) // tie
	if h.BestAttempt.Number != 2 {
		t.Errorf("tie replaced best: number = %d, want 2", h.BestAttempt.Number)
	}
}

func TestRegisterAttempt_NumbersAndCount(t *testing.T) {
	h := New()
	for i := 1; i <= 3; i++ {
		a := h.RegisterAttempt(result(1, 2, "b"))
		if a.Number != i {
			t.Errorf("attempt %d numbered %d", i, a.Number)
		}
	}
	if h.AttemptCount != 3 || len(h.AttemptsHistory) != 3 {
		t.Errorf("count = %d, history = %d", h.AttemptCount, len(h.AttemptsHistory))
	}
}

func TestRegisterAttempt_Stats(t *testing.T) {
	h := New()
	h.RegisterAttempt(result(1, 3, "b", "c"))
	h.RegisterAttempt(result(2, 3, "c"))

	want := map[string][2]int{"a": {2, 0}, "b": {2, 1}, "c": {2, 2}}
	for key, w := range want {
		st := h.QuestionStats[key]
		if st.Attempts != w[0] || st.Failures != w[1] {
			t.Errorf("stat %s = %d/%d, want %d/%d", key, st.Failures, st.Attempts, w[1], w[0])
		}
		if st.Question != "Question "+key {
			t.Errorf("stat %s question = %q", key, st.Question)
		}
	}

	failed := h.FailedKeys()
	if len(failed) != 2 {
		t.Fatalf("failed keys = %v", failed)
	}
	for _, k := range []string{"b", "c"} {
		if _, ok := failed[k]; !ok {
			t.Errorf("missing failed key %s", k)
		}
	}
}

func TestMostFailedAndRecent(t *testing.T) {
	h := New()
	h.RegisterAttempt(result(0, 3, "a", "b", "c"))
	h.RegisterAttempt(result(1, 3, "b", "c"))
	h.RegisterAttempt(result(2, 3, "c"))

	top := h.MostFailed(2)
	if len(top) != 2 || top[0].ID.String() != "c" || top[1].ID.String() != "b" {
		t.Errorf("MostFailed = %+v", top)
	}

	recent := h.Recent(2)
	if len(recent) != 2 || recent[0].Number != 3 || recent[1].Number != 2 {
		t.Errorf("Recent = %+v", recent)
	}
	if got := h.Recent(10); len(got) != 3 {
		t.Errorf("Recent(10) returned %d attempts", len(got))
	}
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{"": ModeFull, "full": ModeFull, "failed": ModeFailedOnly, "failed_only": ModeFailedOnly} {
		got, err := ParseMode(in)
		if err != nil || got != want {
			t.Errorf("ParseMode(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseMode("bogus"); err == nil {
		t.Error("expected error for unknown mode")
	}
}
