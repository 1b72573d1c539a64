// Package history renders a quiz's attempt history: the best attempt,
// recent attempts and the questions missed most often.
package history

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	quizhistory "github.com/quizpulse/quizpulse/internal/history"
	"github.com/quizpulse/quizpulse/internal/router"
	"github.com/quizpulse/quizpulse/internal/store"
	"github.com/quizpulse/quizpulse/internal/ui/layout"
	"github.com/quizpulse/quizpulse/internal/ui/theme"
)

const (
	RecentLimit     = 8
	MostFailedLimit = 5
)

// Loader reads stored history.
type Loader interface {
	History(ctx context.Context, hash string) (*quizhistory.History, error)
}

type historyLoadedMsg struct {
	History *quizhistory.History
	Err     error
}

// HistoryScreen displays past attempts for one quiz.
type HistoryScreen struct {
	loader Loader
	quiz   *store.QuizRecord
	hist   *quizhistory.History
	loaded bool
	errMsg string
}

var (
	_ router.Screen          = (*HistoryScreen)(nil)
	_ router.KeyHintProvider = (*HistoryScreen)(nil)
)

// New creates a HistoryScreen that loads the quiz's history on Init.
func New(loader Loader, quiz *store.QuizRecord) *HistoryScreen {
	return &HistoryScreen{loader: loader, quiz: quiz}
}

// NewLoaded creates a HistoryScreen for history already in hand.
func NewLoaded(quiz *store.QuizRecord, h *quizhistory.History) *HistoryScreen {
	return &HistoryScreen{quiz: quiz, hist: h, loaded: true}
}

func (s *HistoryScreen) Init() tea.Cmd {
	if s.loaded || s.loader == nil {
		return nil
	}
	loader, hash := s.loader, s.quiz.Hash
	return func() tea.Msg {
		h, err := loader.History(context.Background(), hash)
		return historyLoadedMsg{History: h, Err: err}
	}
}

func (s *HistoryScreen) Title() string {
	return "History: " + s.quiz.Name
}

func (s *HistoryScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{{Key: "Esc", Description: "Back"}}
}

func (s *HistoryScreen) Update(msg tea.Msg) (router.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case historyLoadedMsg:
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
		} else {
			s.hist = msg.History
		}
		s.loaded = true
	case tea.KeyMsg:
		switch msg.String() {
		case "esc", "q":
			return s, router.Pop
		}
	}
	return s, nil
}

func (s *HistoryScreen) View(width, height int) string {
	center := func(str string) string { return layout.Centered(str, width) }

	if s.errMsg != "" {
		return "\n\n" + center(theme.Incorrect.Render("Error: "+s.errMsg))
	}
	if !s.loaded {
		return "\n\n" + center(theme.Muted.Render("Loading history..."))
	}
	h := s.hist
	if h == nil || h.AttemptCount == 0 {
		return "\n\n" + center(theme.Hint.Render("No attempts yet. Play this quiz to start tracking."))
	}

	var b strings.Builder
	b.WriteString("\n")
	headline := fmt.Sprintf("Attempts: %d", h.AttemptCount)
	if h.BestAttempt != nil {
		headline += fmt.Sprintf("        Best: %s (#%d, %s)",
			FormatPercent(h.BestAttempt.Percentage), h.BestAttempt.Number, h.BestAttempt.Mode.Label())
	}
	b.WriteString(center(theme.Body.Bold(true).Render(headline)))
	b.WriteString("\n\n")

	b.WriteString(center(theme.Muted.Render("Recent attempts")))
	b.WriteString("\n")
	b.WriteString(center(layout.Divider(width)))
	b.WriteString("\n")
	for _, a := range h.Recent(RecentLimit) {
		line := fmt.Sprintf("#%-4d %-7s %3d/%-3d %8s   %s",
			a.Number, a.Mode.Label(), a.Score, a.Total, FormatPercent(a.Percentage),
			a.CompletedAt.Local().Format("Jan 02 2006 15:04"))
		style := theme.Body
		if h.BestAttempt != nil && a.Number == h.BestAttempt.Number {
			style = theme.Correct
		}
		b.WriteString(center(style.Render(line)))
		b.WriteString("\n")
	}

	failed := h.MostFailed(MostFailedLimit)
	if len(failed) > 0 {
		b.WriteString("\n")
		b.WriteString(center(theme.Muted.Render("Most failed")))
		b.WriteString("\n")
		b.WriteString(center(layout.Divider(width)))
		b.WriteString("\n")
		textWidth := max(min(width-24, 50), 10)
		for _, st := range failed {
			q := truncate(st.Question, textWidth)
			line := fmt.Sprintf("%-*s  %d/%d missed", textWidth, q, st.Failures, st.Attempts)
			b.WriteString(center(lipgloss.NewStyle().Foreground(theme.Error).Render(line)))
			b.WriteString("\n")
		}
	}
	return b.String()
}

// FormatPercent renders a percentage without trailing zeros, e.g. 66.67%.
func FormatPercent(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64) + "%"
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
