package cmd

import (
	"fmt"
	"log/slog"

	tea "charm.land/bubbletea/v2"
	"github.com/spf13/cobra"

	"github.com/quizpulse/quizpulse/internal/app"
	"github.com/quizpulse/quizpulse/internal/library"
	"github.com/quizpulse/quizpulse/internal/session"
	"github.com/quizpulse/quizpulse/internal/store"
)

// openStore resolves the database path and opens the store. The caller
// closes it.
func openStore(cmd *cobra.Command) (*store.Store, error) {
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, fmt.Errorf("resolve DB path: %w", err)
	}
	slog.Debug("opening store", "path", dbPath)

	st, err := store.Open(cmd.Context(), dbPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return st, nil
}

func newLibrary(st *store.Store) *library.Library {
	return library.New(st.QuizRepo(), st.HistoryRepo(), session.NewBuilder())
}

// startFunc decides what the TUI opens on top of the library.
type startFunc func(lib *library.Library, prefs store.Settings) (tea.Cmd, error)

// runApp opens the store, builds dependencies, and launches the TUI.
func runApp(cmd *cobra.Command, start startFunc) error {
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	lib := newLibrary(st)
	opts := app.Options{
		Library:  lib,
		Settings: st.SettingsRepo(),
	}

	if start != nil {
		prefs, err := st.SettingsRepo().Load(cmd.Context())
		if err != nil {
			return fmt.Errorf("load settings: %w", err)
		}
		opts.Start, err = start(lib, prefs)
		if err != nil {
			return err
		}
	}

	return app.Run(cmd.Context(), opts)
}
