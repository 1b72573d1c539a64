// Package play implements the question-by-question quiz screen and the
// results screen shown after it.
package play

import (
	"context"
	"fmt"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/quizpulse/quizpulse/internal/history"
	"github.com/quizpulse/quizpulse/internal/router"
	"github.com/quizpulse/quizpulse/internal/session"
	"github.com/quizpulse/quizpulse/internal/store"
	"github.com/quizpulse/quizpulse/internal/ui/components"
	"github.com/quizpulse/quizpulse/internal/ui/layout"
)

// Player starts sessions and records finished ones.
type Player interface {
	Start(ctx context.Context, quiz *store.QuizRecord, opts session.Options) (*session.Session, error)
	Complete(ctx context.Context, hash string, s *session.Session) (history.Attempt, *history.History, error)
}

// Config holds the play preferences in effect for a session.
type Config struct {
	// Study appends the correct answer to feedback after a miss.
	Study bool

	// Timer is the per-question limit; zero disables it.
	Timer time.Duration
}

// ConfigFromSettings derives a Config from stored preferences.
func ConfigFromSettings(s store.Settings) Config {
	return Config{Study: s.StudyMode, Timer: s.TimerDuration()}
}

// Begin builds a session in the background and opens it. With replace set
// the play screen takes the place of the active screen, otherwise it is
// pushed. Failures arrive as StartFailedMsg.
func Begin(p Player, quiz *store.QuizRecord, opts session.Options, cfg Config, replace bool) tea.Cmd {
	return func() tea.Msg {
		s, err := p.Start(context.Background(), quiz, opts)
		if err != nil {
			return StartFailedMsg{Err: err}
		}
		scr := New(p, quiz, s, opts, cfg)
		if replace {
			return router.ReplaceScreenMsg{Screen: scr}
		}
		return router.PushScreenMsg{Screen: scr}
	}
}

// Screen runs one session.
type Screen struct {
	player Player
	quiz   *store.QuizRecord
	opts   session.Options
	cfg    Config
	sess   *session.Session

	choice  components.MultiChoice
	outcome *session.Outcome

	remaining int // seconds left on the current question
	seq       int

	confirmQuit bool
	finishing   bool
	errMsg      string
}

var (
	_ router.Screen          = (*Screen)(nil)
	_ router.KeyHintProvider = (*Screen)(nil)
	_ router.StatusProvider  = (*Screen)(nil)
	_ router.EscapeHandler   = (*Screen)(nil)
)

// New creates a play screen for an already built session.
func New(p Player, quiz *store.QuizRecord, s *session.Session, opts session.Options, cfg Config) *Screen {
	return &Screen{
		player: p,
		quiz:   quiz,
		opts:   opts,
		cfg:    cfg,
		sess:   s,
	}
}

func (s *Screen) Init() tea.Cmd {
	return s.loadQuestion()
}

func (s *Screen) Title() string {
	if s.quiz == nil {
		return "Quiz"
	}
	return s.quiz.Name
}

func (s *Screen) HandlesEscape() bool { return true }

func (s *Screen) KeyHints() []layout.KeyHint {
	switch {
	case s.errMsg != "":
		return []layout.KeyHint{{Key: "any key", Description: "Back"}}
	case s.confirmQuit:
		return []layout.KeyHint{
			{Key: "Y", Description: "Abandon quiz"},
			{Key: "N", Description: "Keep going"},
		}
	case s.outcome != nil:
		return []layout.KeyHint{
			{Key: "Enter", Description: s.nextLabel()},
			{Key: "Esc", Description: "Quit"},
		}
	}
	return []layout.KeyHint{
		{Key: "A-" + components.Label(min(len(s.choice.Choices), components.MaxLettered)-1), Description: "Answer"},
		{Key: "↑↓", Description: "Move"},
		{Key: "Enter", Description: "Choose"},
		{Key: "Esc", Description: "Quit"},
	}
}

func (s *Screen) nextLabel() string {
	pos, total := s.sess.Position()
	if pos >= total {
		return "Finish"
	}
	return "Next question"
}

// Update handles ticks, completion and keys.
func (s *Screen) Update(msg tea.Msg) (router.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		return s.handleTick(msg)
	case completedMsg:
		return s.handleCompleted(msg)
	case tea.KeyMsg:
		return s.handleKey(msg)
	}
	return s, nil
}

// loadQuestion prepares the selector for the current question and starts
// its timer.
func (s *Screen) loadQuestion() tea.Cmd {
	q, ok := s.sess.Current()
	if !ok {
		return nil
	}
	choices := make([]components.Choice, len(q.Options))
	for i, o := range q.Options {
		choices[i] = components.Choice{ID: o.ID, Text: o.Text}
	}
	s.choice = components.NewMultiChoice(q.Question, choices)
	s.outcome = nil
	s.seq++

	if s.cfg.Timer <= 0 {
		return nil
	}
	s.remaining = int(s.cfg.Timer / time.Second)
	return tickCmd(s.seq)
}

func tickCmd(seq int) tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return tickMsg{seq: seq}
	})
}

func (s *Screen) handleTick(msg tickMsg) (router.Screen, tea.Cmd) {
	if msg.seq != s.seq || s.outcome != nil || s.finishing || s.errMsg != "" {
		return s, nil
	}
	s.remaining--
	if s.remaining > 0 {
		return s, tickCmd(s.seq)
	}
	s.remaining = 0

	out, err := s.sess.Timeout()
	if err != nil {
		s.errMsg = err.Error()
		return s, nil
	}
	s.confirmQuit = false
	s.choice.Expire()
	s.reveal(out)
	return s, nil
}

func (s *Screen) handleKey(msg tea.KeyMsg) (router.Screen, tea.Cmd) {
	key := msg.String()

	if s.errMsg != "" {
		return s, router.PopToRoot
	}
	if s.finishing {
		return s, nil
	}

	if s.confirmQuit {
		switch key {
		case "y", "Y":
			s.seq++ // stop the timer
			return s, router.PopToRoot
		case "n", "N", "esc":
			s.confirmQuit = false
		}
		return s, nil
	}

	if key == "esc" {
		s.confirmQuit = true
		return s, nil
	}

	if s.outcome != nil {
		switch key {
		case "enter", "space", "right", "n":
			return s.next()
		}
		return s, nil
	}

	var cmd tea.Cmd
	s.choice, cmd = s.choice.Update(msg)
	if !s.choice.Submitted {
		return s, cmd
	}

	out, err := s.sess.Answer(s.choice.ChosenID)
	if err != nil {
		s.errMsg = err.Error()
		return s, nil
	}
	s.reveal(out)
	return s, cmd
}

func (s *Screen) reveal(out session.Outcome) {
	s.outcome = &out
	s.choice.Reveal(out.Correct.ID)
}

// next advances past the answered question, finishing the session after
// the last one.
func (s *Screen) next() (router.Screen, tea.Cmd) {
	s.sess.Advance()
	if !s.sess.Done() {
		return s, s.loadQuestion()
	}

	s.finishing = true
	s.outcome = nil
	p, hash, sess := s.player, s.quiz.Hash, s.sess
	return s, func() tea.Msg {
		a, h, err := p.Complete(context.Background(), hash, sess)
		return completedMsg{Attempt: a, History: h, Err: err}
	}
}

func (s *Screen) handleCompleted(msg completedMsg) (router.Screen, tea.Cmd) {
	if msg.Err != nil {
		s.finishing = false
		s.errMsg = "Could not save results: " + msg.Err.Error()
		return s, nil
	}
	sum := NewSummary(s.player, s.quiz, s.opts, s.cfg, msg.Attempt, msg.History)
	return s, router.Replace(sum)
}

// Status shows score, position and the countdown in the header.
func (s *Screen) Status() string {
	pos, total := s.sess.Position()
	pos = min(pos, total)
	status := fmt.Sprintf("Score %d  Q %d/%d", s.sess.Score(), pos, total)
	switch {
	case s.cfg.Timer <= 0:
	case s.outcome != nil && s.outcome.TimedOut:
		status += "  ⏱ Time's up"
	default:
		status += fmt.Sprintf("  ⏱ %ds", s.remaining)
	}
	return status
}
