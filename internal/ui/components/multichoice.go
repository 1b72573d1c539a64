package components

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/quizpulse/quizpulse/internal/ui/theme"
)

// MaxLettered is the number of options that get a letter shortcut.
const MaxLettered = 26

// Choice is one selectable option.
type Choice struct {
	ID   string
	Text string
}

// MultiChoice is a multiple-choice selector component. Options are
// labelled A, B, C... and can be picked by letter or with the arrows.
type MultiChoice struct {
	Prompt    string
	Choices   []Choice
	Selected  int
	Submitted bool

	// ChosenID is empty after submission when nothing was picked (timeout).
	ChosenID  string
	CorrectID string
}

// NewMultiChoice creates a new multiple-choice component.
func NewMultiChoice(prompt string, choices []Choice) MultiChoice {
	return MultiChoice{
		Prompt:  prompt,
		Choices: choices,
	}
}

// Label returns the shortcut letter for option i.
func Label(i int) string {
	if i < 0 || i >= MaxLettered {
		return "?"
	}
	return string(rune('A' + i))
}

// Init returns nil.
func (m MultiChoice) Init() tea.Cmd {
	return nil
}

// Update handles keyboard navigation and selection. Once an option is
// picked the component is frozen until Reveal or a new question.
func (m MultiChoice) Update(msg tea.Msg) (MultiChoice, tea.Cmd) {
	if m.Submitted {
		return m, nil
	}

	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	key := kmsg.String()
	if i, ok := letterIndex(key); ok && i < len(m.Choices) {
		m.Selected = i
		m.choose(i)
		return m, nil
	}

	switch key {
	case "up", "k":
		if m.Selected > 0 {
			m.Selected--
		}
	case "down", "j":
		if m.Selected < len(m.Choices)-1 {
			m.Selected++
		}
	case "enter", "space":
		m.choose(m.Selected)
	}
	return m, nil
}

// letterIndex maps a single letter key to an option index. j and k only
// navigate when the list is too short for them to name an option.
func letterIndex(key string) (int, bool) {
	if len(key) != 1 {
		return 0, false
	}
	c := key[0]
	switch {
	case c >= 'a' && c <= 'z':
		return int(c - 'a'), true
	case c >= 'A' && c <= 'Z':
		return int(c - 'A'), true
	}
	return 0, false
}

func (m *MultiChoice) choose(i int) {
	if i < 0 || i >= len(m.Choices) {
		return
	}
	m.Submitted = true
	m.ChosenID = m.Choices[i].ID
}

// Expire freezes the component without a choice.
func (m *MultiChoice) Expire() {
	m.Submitted = true
	m.ChosenID = ""
}

// Reveal marks the correct option for rendering.
func (m *MultiChoice) Reveal(correctID string) {
	m.CorrectID = correctID
}

// View renders the multiple-choice component.
func (m MultiChoice) View() string {
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Text).Bold(true).Render(m.Prompt))
	b.WriteString("\n\n")

	for i, c := range m.Choices {
		prefix := "  "
		if i == m.Selected && !m.Submitted {
			prefix = "▸ "
		}
		line := fmt.Sprintf("%s%s)  %s", prefix, Label(i), c.Text)

		var style lipgloss.Style
		switch {
		case m.Submitted && m.CorrectID != "" && c.ID == m.CorrectID:
			style = theme.Correct
		case m.Submitted && c.ID == m.ChosenID:
			style = theme.Incorrect
		case m.Submitted:
			style = theme.Muted
		case i == m.Selected:
			style = theme.Selected
		default:
			style = theme.Unselected
		}
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}
	return b.String()
}

// IsCorrect returns true if the user chose the revealed correct answer.
func (m MultiChoice) IsCorrect() bool {
	return m.Submitted && m.ChosenID != "" && m.ChosenID == m.CorrectID
}
