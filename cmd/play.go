package cmd

import (
	"errors"
	"fmt"
	"os"

	tea "charm.land/bubbletea/v2"
	"github.com/spf13/cobra"

	"github.com/quizpulse/quizpulse/internal/history"
	"github.com/quizpulse/quizpulse/internal/library"
	"github.com/quizpulse/quizpulse/internal/router"
	"github.com/quizpulse/quizpulse/internal/screens/naming"
	"github.com/quizpulse/quizpulse/internal/screens/play"
	"github.com/quizpulse/quizpulse/internal/session"
	"github.com/quizpulse/quizpulse/internal/store"
)

func newPlayCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "play [id|hash|file]",
		Short: "Start a quiz session",
		Long: "Start a quiz session. The argument is a library id, a content hash or a\n" +
			"question bank file. A file that is not in the library yet is imported\n" +
			"after you name it. Without an argument the library screen opens.\n\n" +
			"Flags override the saved preferences for this session only.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return runApp(cmd, nil)
			}
			return runApp(cmd, func(lib *library.Library, prefs store.Settings) (tea.Cmd, error) {
				prefs, opts, err := playOverrides(cmd, prefs)
				if err != nil {
					return nil, err
				}
				return startPlay(cmd, lib, args[0], opts, play.ConfigFromSettings(prefs))
			})
		},
	}

	f := c.Flags()
	f.String("category", "", "Only ask questions from this category (\"all\" for every category)")
	f.Bool("failed-only", false, "Only ask questions missed in earlier attempts")
	f.Int("timer", 0, fmt.Sprintf("Seconds per question, %d-%d; 0 disables the timer", store.MinTimerSeconds, store.MaxTimerSeconds))
	f.Bool("study", false, "Show the correct answer after a wrong pick")
	return c
}

// playOverrides applies the flags the user set on top of the saved
// preferences.
func playOverrides(cmd *cobra.Command, prefs store.Settings) (store.Settings, session.Options, error) {
	f := cmd.Flags()
	prefs = prefs.Normalized()

	if f.Changed("category") {
		prefs.CategoryFilter, _ = f.GetString("category")
	}
	if f.Changed("study") {
		prefs.StudyMode, _ = f.GetBool("study")
	}
	if f.Changed("timer") {
		secs, _ := f.GetInt("timer")
		switch {
		case secs == 0:
			prefs.TimerEnabled = false
		case secs < store.MinTimerSeconds || secs > store.MaxTimerSeconds:
			return prefs, session.Options{}, fmt.Errorf("--timer must be 0 or between %d and %d", store.MinTimerSeconds, store.MaxTimerSeconds)
		default:
			prefs.TimerEnabled = true
			prefs.TimerSeconds = secs
		}
	}

	opts := session.Options{Category: prefs.CategoryFilter, Mode: history.ModeFull}
	if failed, _ := f.GetBool("failed-only"); failed {
		opts = session.Options{Mode: history.ModeFailedOnly}
	}
	return prefs, opts, nil
}

// startPlay resolves ref against the library and falls back to treating it
// as a file path.
func startPlay(cmd *cobra.Command, lib *library.Library, ref string, opts session.Options, cfg play.Config) (tea.Cmd, error) {
	ctx := cmd.Context()

	quiz, err := lib.Resolve(ctx, ref)
	if err == nil {
		return play.Begin(lib, quiz, opts, cfg, false), nil
	}
	if !errors.Is(err, library.ErrQuizNotFound) {
		return nil, err
	}

	data, readErr := os.ReadFile(ref)
	if errors.Is(readErr, os.ErrNotExist) {
		return nil, err
	}
	if readErr != nil {
		return nil, fmt.Errorf("read question bank: %w", readErr)
	}

	prepared, err := lib.Prepare(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ref, err)
	}
	if prepared.Existing != nil {
		return play.Begin(lib, prepared.Existing, opts, cfg, false), nil
	}

	next := func(q *store.QuizRecord) tea.Cmd {
		return tea.Sequence(router.Pop, play.Begin(lib, q, opts, cfg, false))
	}
	return router.Push(naming.New(lib, prepared, library.SuggestName(ref), next)), nil
}
