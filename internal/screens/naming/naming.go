// Package naming asks for a display name before a new question bank is
// added to the library.
package naming

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/quizpulse/quizpulse/internal/library"
	"github.com/quizpulse/quizpulse/internal/router"
	"github.com/quizpulse/quizpulse/internal/store"
	"github.com/quizpulse/quizpulse/internal/ui/components"
	"github.com/quizpulse/quizpulse/internal/ui/layout"
	"github.com/quizpulse/quizpulse/internal/ui/theme"
)

// MaxNameLength bounds quiz names typed in the prompt.
const MaxNameLength = 80

// Committer saves a prepared bank.
type Committer interface {
	Commit(ctx context.Context, p *library.Prepared, name string) (*library.ImportResult, error)
}

// Next is called with the saved quiz and returns what to do with it.
type Next func(quiz *store.QuizRecord) tea.Cmd

type committedMsg struct {
	Result *library.ImportResult
	Err    error
}

// NamingScreen prompts for the name of a freshly imported bank.
type NamingScreen struct {
	committer Committer
	prepared  *library.Prepared
	next      Next
	input     components.TextInput
	saving    bool
	errMsg    string
}

var (
	_ router.Screen          = (*NamingScreen)(nil)
	_ router.KeyHintProvider = (*NamingScreen)(nil)
)

// New creates a NamingScreen prefilled with suggested.
func New(c Committer, p *library.Prepared, suggested string, next Next) *NamingScreen {
	return &NamingScreen{
		committer: c,
		prepared:  p,
		next:      next,
		input:     components.NewTextInput(library.DefaultName, suggested, MaxNameLength),
	}
}

func (s *NamingScreen) Init() tea.Cmd {
	return s.input.Init()
}

func (s *NamingScreen) Title() string { return "Name this quiz" }

func (s *NamingScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Save"},
		{Key: "Esc", Description: "Cancel"},
	}
}

func (s *NamingScreen) Update(msg tea.Msg) (router.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case committedMsg:
		s.saving = false
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
			return s, nil
		}
		if s.next == nil {
			return s, router.Pop
		}
		return s, s.next(msg.Result.Quiz)

	case tea.KeyMsg:
		if s.saving {
			return s, nil
		}
		if msg.String() == "enter" {
			s.saving = true
			s.errMsg = ""
			c, p, name := s.committer, s.prepared, s.input.Value()
			return s, func() tea.Msg {
				res, err := c.Commit(context.Background(), p, name)
				return committedMsg{Result: res, Err: err}
			}
		}
	}

	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, cmd
}

func (s *NamingScreen) View(width, height int) string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(theme.Title.Width(width).Render("New question bank"))
	b.WriteString("\n\n")

	info := fmt.Sprintf("%d questions", len(s.prepared.Questions))
	if len(s.prepared.Categories) > 0 {
		info += " in " + strings.Join(s.prepared.Categories, ", ")
	}
	b.WriteString(theme.Subtitle.Width(width).Render(info))
	b.WriteString("\n\n")

	b.WriteString(layout.Centered(theme.Body.Render("Name: ")+s.input.View(), width))
	b.WriteString("\n")

	switch {
	case s.saving:
		b.WriteString("\n" + layout.Centered(theme.Muted.Render("Saving..."), width))
	case s.errMsg != "":
		b.WriteString("\n" + layout.Centered(theme.Incorrect.Render(s.errMsg), width))
	}
	return b.String()
}
