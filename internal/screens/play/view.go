package play

import (
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/quizpulse/quizpulse/internal/session"
	"github.com/quizpulse/quizpulse/internal/ui/components"
	"github.com/quizpulse/quizpulse/internal/ui/layout"
	"github.com/quizpulse/quizpulse/internal/ui/theme"
)

// View renders the active question, the feedback box or a dialog.
func (s *Screen) View(width, height int) string {
	switch {
	case s.errMsg != "":
		return renderError(width, s.errMsg)
	case s.finishing:
		return theme.Subtitle.Width(width).Render("\n\nSaving results...")
	case s.confirmQuit:
		return renderQuitConfirm(width)
	}

	q, ok := s.sess.Current()
	if !ok {
		return ""
	}

	var b strings.Builder
	pos, total := s.sess.Position()
	bar := components.NewProgressBar(q.Category, pos-1, total, min(width-4, 70))
	b.WriteString("  " + bar.View())
	b.WriteString("\n")
	b.WriteString("  " + layout.Divider(width))
	b.WriteString("\n\n")

	body := lipgloss.NewStyle().Width(max(width-8, 20)).Render(s.choice.View())
	b.WriteString(lipgloss.NewStyle().PaddingLeft(2).Render(body))

	if s.outcome != nil {
		b.WriteString("\n")
		b.WriteString(renderFeedback(*s.outcome, s.cfg.Study, width))
	}
	return b.String()
}

// feedbackTitle names how the question was resolved.
func feedbackTitle(out session.Outcome) string {
	switch {
	case out.TimedOut:
		return "Time's up!"
	case out.IsCorrect:
		return "Correct!"
	}
	return "Incorrect"
}

// feedbackMessage is the explanation, followed in study mode by the
// correct answer when the question was missed.
func feedbackMessage(out session.Outcome, study bool) string {
	msg := out.Explanation
	if !out.IsCorrect && study && out.Correct.ID != "" {
		msg += " Correct answer: " + out.Correct.Text + "."
	}
	return msg
}

func renderFeedback(out session.Outcome, study bool, width int) string {
	titleStyle := theme.Incorrect
	border := theme.Error
	if out.IsCorrect {
		titleStyle = theme.Correct
		border = theme.Success
	}
	content := titleStyle.Render(feedbackTitle(out)) + "\n" +
		theme.Body.Render(feedbackMessage(out, study))

	return lipgloss.NewStyle().
		Width(max(min(width-6, 76), 20)).
		MarginLeft(2).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1).
		Render(content)
}

func renderQuitConfirm(width int) string {
	box := theme.Card.Render(
		theme.Warning.Render("Abandon this quiz?") + "\n\n" +
			theme.Body.Render("Progress in this attempt will not be recorded.") + "\n\n" +
			theme.Hint.Render("Y to abandon, N to keep going"))
	return "\n\n" + layout.Centered(box, width)
}

func renderError(width int, msg string) string {
	return "\n\n" + layout.Centered(theme.Incorrect.Render(msg), width) +
		"\n\n" + layout.Centered(theme.Hint.Render("Press any key to return"), width)
}
