package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/quizpulse/quizpulse/internal/store"
)

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "quizpulse",
		Short: "Multiple-choice quiz practice in the terminal",
		Long: "QuizPulse imports JSON question banks, runs shuffled quiz sessions and\n" +
			"tracks every attempt so you can retake a quiz or drill the questions you missed.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApp(cmd, nil)
		},
	}

	pf := root.PersistentFlags()
	pf.String("db", "", "Path to SQLite database file (overrides QUIZPULSE_DB env var)")
	pf.String("log-level", "", "Log level: debug, info, warn, error (default from QUIZPULSE_LOG_LEVEL or warn)")
	pf.String("log-format", "text", "Log format: text or json")

	root.AddCommand(
		newImportCmd(),
		newListCmd(),
		newDeleteCmd(),
		newCategoriesCmd(),
		newPlayCmd(),
		newHistoryCmd(),
		newExportCmd(),
		newValidateCmd(),
		newTemplateCmd(),
		newSettingsCmd(),
		newServeCmd(),
		newVersionCmd(),
	)
	return root
}

// Execute runs the root command until it finishes or the process is
// interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then QUIZPULSE_DB env var, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	return store.DefaultDBPath()
}
