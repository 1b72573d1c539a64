// Package home is the library screen: the saved quizzes, play preferences
// and the entry points into a session.
package home

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/quizpulse/quizpulse/internal/history"
	"github.com/quizpulse/quizpulse/internal/library"
	"github.com/quizpulse/quizpulse/internal/router"
	historyscreen "github.com/quizpulse/quizpulse/internal/screens/history"
	"github.com/quizpulse/quizpulse/internal/screens/play"
	"github.com/quizpulse/quizpulse/internal/session"
	"github.com/quizpulse/quizpulse/internal/store"
	"github.com/quizpulse/quizpulse/internal/ui/components"
	"github.com/quizpulse/quizpulse/internal/ui/layout"
	"github.com/quizpulse/quizpulse/internal/ui/theme"
)

// TimerStep is how much + and - change the per-question timer.
const TimerStep = 5

type catalogLoadedMsg struct {
	Catalog  []library.Summary
	Settings store.Settings
	Err      error
}

type deletedMsg struct {
	Quiz *store.QuizRecord
	Err  error
}

type settingsSavedMsg struct {
	Err error
}

// HomeScreen lists the library.
type HomeScreen struct {
	lib      *library.Library
	settings store.SettingsRepo

	prefs   store.Settings
	catalog []library.Summary
	menu    components.Menu

	loaded        bool
	confirmDelete bool
	notice        string
	errMsg        string
}

var (
	_ router.Screen          = (*HomeScreen)(nil)
	_ router.KeyHintProvider = (*HomeScreen)(nil)
	_ router.EscapeHandler   = (*HomeScreen)(nil)
)

// New creates a HomeScreen.
func New(lib *library.Library, settings store.SettingsRepo) *HomeScreen {
	return &HomeScreen{
		lib:      lib,
		settings: settings,
		prefs:    store.DefaultSettings(),
		menu:     components.NewMenu(nil),
	}
}

// Init (re)loads the catalog and preferences.
func (h *HomeScreen) Init() tea.Cmd {
	lib, settings := h.lib, h.settings
	return func() tea.Msg {
		ctx := context.Background()
		prefs, err := settings.Load(ctx)
		if err != nil {
			return catalogLoadedMsg{Err: fmt.Errorf("load settings: %w", err)}
		}
		catalog, err := lib.Catalog(ctx)
		if err != nil {
			return catalogLoadedMsg{Err: fmt.Errorf("load library: %w", err)}
		}
		return catalogLoadedMsg{Catalog: catalog, Settings: prefs}
	}
}

func (h *HomeScreen) Title() string { return "Library" }

func (h *HomeScreen) HandlesEscape() bool { return h.confirmDelete }

func (h *HomeScreen) KeyHints() []layout.KeyHint {
	if h.confirmDelete {
		return []layout.KeyHint{
			{Key: "Y", Description: "Delete"},
			{Key: "N", Description: "Keep"},
		}
	}
	if len(h.catalog) == 0 {
		return []layout.KeyHint{{Key: "Q", Description: "Quit"}}
	}
	return []layout.KeyHint{
		{Key: "Enter", Description: "Play"},
		{Key: "F", Description: "Failed"},
		{Key: "H", Description: "History"},
		{Key: "D", Description: "Delete"},
		{Key: "C", Description: "Category"},
		{Key: "S", Description: "Study"},
		{Key: "T/+/-", Description: "Timer"},
		{Key: "Q", Description: "Quit"},
	}
}

// selected returns the quiz under the cursor.
func (h *HomeScreen) selected() *store.QuizRecord {
	if h.menu.Selected < 0 || h.menu.Selected >= len(h.catalog) {
		return nil
	}
	return &h.catalog[h.menu.Selected].Quiz
}

func (h *HomeScreen) Update(msg tea.Msg) (router.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case catalogLoadedMsg:
		h.loaded = true
		if msg.Err != nil {
			h.errMsg = msg.Err.Error()
			return h, nil
		}
		h.errMsg = ""
		h.prefs = msg.Settings.Normalized()
		h.catalog = msg.Catalog
		h.menu.SetItems(h.menuItems())
		return h, nil

	case deletedMsg:
		if msg.Err != nil {
			h.notice = "Could not delete: " + msg.Err.Error()
			return h, nil
		}
		h.notice = fmt.Sprintf("Deleted %q and its history.", msg.Quiz.Name)
		return h, h.Init()

	case settingsSavedMsg:
		if msg.Err != nil {
			h.notice = "Could not save settings: " + msg.Err.Error()
		}
		return h, nil

	case play.StartFailedMsg:
		switch {
		case msg.NoQuestions() && h.prefs.CategoryFilter != session.AllCategories:
			h.notice = fmt.Sprintf("No questions in category %q. Press C to change it.", h.prefs.CategoryFilter)
		case msg.NoQuestions():
			h.notice = "No questions available for this selection."
		default:
			h.notice = "Could not start: " + msg.Err.Error()
		}
		return h, nil

	case tea.KeyMsg:
		return h.handleKey(msg)
	}
	return h, nil
}

func (h *HomeScreen) handleKey(msg tea.KeyMsg) (router.Screen, tea.Cmd) {
	key := msg.String()
	h.notice = ""

	if h.confirmDelete {
		switch key {
		case "y", "Y":
			h.confirmDelete = false
			quiz := h.selected()
			if quiz == nil {
				return h, nil
			}
			lib, id := h.lib, quiz.ID
			return h, func() tea.Msg {
				rec, err := lib.Delete(context.Background(), id)
				return deletedMsg{Quiz: rec, Err: err}
			}
		case "n", "N", "esc":
			h.confirmDelete = false
		}
		return h, nil
	}

	switch key {
	case "q", "Q":
		return h, tea.Quit
	case "s", "S":
		h.prefs.StudyMode = !h.prefs.StudyMode
		return h, h.saveSettings()
	case "t", "T":
		h.prefs.TimerEnabled = !h.prefs.TimerEnabled
		return h, h.saveSettings()
	case "+", "=":
		h.prefs.TimerSeconds += TimerStep
		h.prefs = h.prefs.Normalized()
		return h, h.saveSettings()
	case "-", "_":
		h.prefs.TimerSeconds = max(h.prefs.TimerSeconds-TimerStep, store.MinTimerSeconds)
		h.prefs = h.prefs.Normalized()
		return h, h.saveSettings()
	}

	quiz := h.selected()
	if quiz == nil {
		return h, nil
	}
	switch key {
	case "f", "F":
		return h, play.Begin(h.lib, quiz, session.Options{Mode: history.ModeFailedOnly}, play.ConfigFromSettings(h.prefs), false)
	case "h", "H":
		return h, router.Push(historyscreen.New(h.lib, quiz))
	case "d", "D":
		h.confirmDelete = true
		return h, nil
	case "c", "C":
		h.prefs.CategoryFilter = nextCategory(h.prefs.CategoryFilter, quiz.Categories)
		return h, h.saveSettings()
	}

	var cmd tea.Cmd
	h.menu, cmd = h.menu.Update(msg)
	return h, cmd
}

// nextCategory cycles through "all" followed by the quiz's categories. A
// filter the quiz does not have restarts the cycle.
func nextCategory(current string, categories []string) string {
	options := append([]string{session.AllCategories}, categories...)
	for i, c := range options {
		if c == current {
			return options[(i+1)%len(options)]
		}
	}
	return session.AllCategories
}

func (h *HomeScreen) saveSettings() tea.Cmd {
	settings, prefs := h.settings, h.prefs
	return func() tea.Msg {
		return settingsSavedMsg{Err: settings.Save(context.Background(), prefs)}
	}
}

func (h *HomeScreen) menuItems() []components.MenuItem {
	items := make([]components.MenuItem, len(h.catalog))
	for i := range h.catalog {
		quiz := &h.catalog[i].Quiz
		items[i] = components.MenuItem{
			Label:  fmt.Sprintf("%-3d %s", quiz.ID, quiz.Name),
			Detail: describe(h.catalog[i]),
			Action: func() tea.Cmd {
				opts := session.Options{Category: h.prefs.CategoryFilter, Mode: history.ModeFull}
				return play.Begin(h.lib, quiz, opts, play.ConfigFromSettings(h.prefs), false)
			},
		}
	}
	return items
}

func describe(sum library.Summary) string {
	parts := []string{fmt.Sprintf("%d questions", sum.Quiz.QuestionCount)}
	switch {
	case sum.AttemptCount == 0:
		parts = append(parts, "no attempts yet")
	case sum.Best != nil:
		parts = append(parts,
			fmt.Sprintf("%d attempts", sum.AttemptCount),
			"best "+historyscreen.FormatPercent(sum.Best.Percentage))
	}
	return strings.Join(parts, " · ")
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func (h *HomeScreen) View(width, height int) string {
	center := func(s string) string { return layout.Centered(s, width) }

	if !h.loaded {
		return "\n\n" + center(theme.Muted.Render("Loading library..."))
	}
	if h.errMsg != "" {
		return "\n\n" + center(theme.Incorrect.Render("Error: "+h.errMsg))
	}

	var b strings.Builder
	b.WriteString("\n")
	prefs := fmt.Sprintf("Category: %s    Study mode: %s    Timer: %s (%ds)",
		h.prefs.CategoryFilter, onOff(h.prefs.StudyMode), onOff(h.prefs.TimerEnabled), h.prefs.TimerSeconds)
	b.WriteString(center(theme.Muted.Render(prefs)))
	b.WriteString("\n\n")

	if len(h.catalog) == 0 {
		b.WriteString(center(theme.Hint.Render("No quizzes yet. Import one with: quizpulse import <file.json>")))
		b.WriteString("\n")
	} else {
		b.WriteString(h.menu.View())
	}

	if h.confirmDelete {
		if quiz := h.selected(); quiz != nil {
			box := theme.Card.Render(
				theme.Warning.Render(fmt.Sprintf("Delete %q?", quiz.Name)) + "\n\n" +
					theme.Body.Render("Its attempt history is removed too.") + "\n\n" +
					theme.Hint.Render("Y to delete, N to keep"))
			b.WriteString("\n" + center(box))
		}
	}

	if h.notice != "" {
		b.WriteString("\n" + center(theme.Hint.Render(h.notice)))
	}
	return b.String()
}
