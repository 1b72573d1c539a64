package play

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/quizpulse/quizpulse/internal/history"
	"github.com/quizpulse/quizpulse/internal/router"
	historyscreen "github.com/quizpulse/quizpulse/internal/screens/history"
	"github.com/quizpulse/quizpulse/internal/session"
	"github.com/quizpulse/quizpulse/internal/store"
	"github.com/quizpulse/quizpulse/internal/ui/layout"
	"github.com/quizpulse/quizpulse/internal/ui/theme"
)

// NoFailedNotice is shown when failed-only practice has nothing to draw.
const NoFailedNotice = "No failed questions to practice."

// SummaryScreen shows the result of a finished session.
type SummaryScreen struct {
	player  Player
	quiz    *store.QuizRecord
	opts    session.Options
	cfg     Config
	attempt history.Attempt
	hist    *history.History
	notice  string
}

var (
	_ router.Screen          = (*SummaryScreen)(nil)
	_ router.KeyHintProvider = (*SummaryScreen)(nil)
	_ router.EscapeHandler   = (*SummaryScreen)(nil)
)

// NewSummary creates a SummaryScreen. opts are the options of the session
// just played and are reused for a retake.
func NewSummary(p Player, quiz *store.QuizRecord, opts session.Options, cfg Config, a history.Attempt, h *history.History) *SummaryScreen {
	return &SummaryScreen{
		player:  p,
		quiz:    quiz,
		opts:    opts,
		cfg:     cfg,
		attempt: a,
		hist:    h,
	}
}

func (s *SummaryScreen) Init() tea.Cmd { return nil }

func (s *SummaryScreen) Title() string { return "Results" }

func (s *SummaryScreen) HandlesEscape() bool { return true }

func (s *SummaryScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "R", Description: "Retake"},
		{Key: "F", Description: "Practice failed"},
		{Key: "H", Description: "History"},
		{Key: "Q", Description: "Library"},
	}
}

func (s *SummaryScreen) Update(msg tea.Msg) (router.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case StartFailedMsg:
		if msg.NoQuestions() {
			s.notice = "No questions available for this selection."
		} else {
			s.notice = "Could not start: " + msg.Err.Error()
		}
		return s, nil

	case tea.KeyMsg:
		s.notice = ""
		switch msg.String() {
		case "r", "R":
			opts := session.Options{Category: s.opts.Category, Mode: history.ModeFull}
			return s, Begin(s.player, s.quiz, opts, s.cfg, true)
		case "f", "F":
			if s.hist == nil || len(s.hist.FailedKeys()) == 0 {
				s.notice = NoFailedNotice
				return s, nil
			}
			return s, Begin(s.player, s.quiz, session.Options{Mode: history.ModeFailedOnly}, s.cfg, true)
		case "h", "H":
			return s, router.Push(historyscreen.NewLoaded(s.quiz, s.hist))
		case "q", "Q", "esc", "enter":
			return s, router.PopToRoot
		}
	}
	return s, nil
}

func (s *SummaryScreen) View(width, height int) string {
	a := s.attempt
	center := func(str string) string { return layout.Centered(str, width) }

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(theme.Title.Width(width).Render("Quiz complete!"))
	b.WriteString("\n\n")

	scoreStyle := theme.Correct
	if a.Percentage < 50 {
		scoreStyle = theme.Incorrect
	}
	b.WriteString(center(scoreStyle.Render(fmt.Sprintf("Score: %d/%d  (%s)",
		a.Score, a.Total, historyscreen.FormatPercent(a.Percentage)))))
	b.WriteString("\n")
	b.WriteString(center(theme.Muted.Render(fmt.Sprintf("Attempt #%d  ·  %s", a.Number, a.Mode.Label()))))
	b.WriteString("\n")

	if s.hist != nil && s.hist.BestAttempt != nil {
		best := s.hist.BestAttempt
		line := fmt.Sprintf("Best: %s (attempt #%d)", historyscreen.FormatPercent(best.Percentage), best.Number)
		if best.Number == a.Number && s.hist.AttemptCount > 1 {
			line = "New best score!"
		}
		b.WriteString(center(theme.Warning.Render(line)))
		b.WriteString("\n")
	}

	if s.hist != nil {
		if failed := s.hist.MostFailed(historyscreen.MostFailedLimit); len(failed) > 0 {
			b.WriteString("\n")
			b.WriteString(center(theme.Muted.Render("Most failed")))
			b.WriteString("\n")
			b.WriteString(center(layout.Divider(width)))
			b.WriteString("\n")
			for _, st := range failed {
				b.WriteString(center(theme.Body.Render(fmt.Sprintf("%s  (%d missed)", st.Question, st.Failures))))
				b.WriteString("\n")
			}
		}
	}

	if s.notice != "" {
		b.WriteString("\n")
		b.WriteString(center(theme.Hint.Render(s.notice)))
	}
	return b.String()
}
