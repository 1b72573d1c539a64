package cmd

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"
	"github.com/spf13/cobra"

	"github.com/quizpulse/quizpulse/internal/export"
	"github.com/quizpulse/quizpulse/internal/library"
	historyscreen "github.com/quizpulse/quizpulse/internal/screens/history"
	"github.com/quizpulse/quizpulse/internal/store"
	"github.com/quizpulse/quizpulse/internal/ui/theme"
)

func newHistoryCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "history <id|hash>",
		Short: "Show attempt history for a quiz",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer st.Close()

			lib := newLibrary(st)
			quiz, err := lib.Resolve(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			h, err := lib.History(cmd.Context(), quiz.Hash)
			if err != nil {
				return err
			}

			limit, _ := cmd.Flags().GetInt("limit")
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s\n", theme.Title.Render(quiz.Name))
			if h.AttemptCount == 0 {
				fmt.Fprintln(out, "No attempts yet.")
				return nil
			}
			fmt.Fprintf(out, "Attempts: %d  Best: %s\n\n", h.AttemptCount,
				historyscreen.FormatPercent(h.BestAttempt.Percentage))

			attempts := table.New().
				Border(lipgloss.NormalBorder()).
				BorderStyle(lipgloss.NewStyle().Foreground(theme.Border)).
				Headers("#", "Mode", "Score", "Percent", "Completed")
			for _, a := range h.Recent(limit) {
				attempts.Row(
					strconv.Itoa(a.Number),
					a.Mode.Label(),
					fmt.Sprintf("%d/%d", a.Score, a.Total),
					historyscreen.FormatPercent(a.Percentage),
					a.CompletedAt.Local().Format("2006-01-02 15:04"),
				)
			}
			fmt.Fprintln(out, attempts.String())

			if failed := h.MostFailed(historyscreen.MostFailedLimit); len(failed) > 0 {
				fmt.Fprintln(out, "\nMost failed:")
				for _, s := range failed {
					fmt.Fprintf(out, "  %d/%d missed  %s\n", s.Failures, s.Attempts, s.Question)
				}
			}
			return nil
		},
	}
	c.Flags().Int("limit", 10, "Number of recent attempts to show")
	return c
}

func newExportCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "export <id|hash>",
		Short: "Export attempt history as JSON or CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatFlag, _ := cmd.Flags().GetString("format")
			format, err := export.ParseFormat(formatFlag)
			if err != nil {
				return err
			}

			st, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer st.Close()

			report, err := loadReport(cmd, newLibrary(st), args[0])
			if err != nil {
				return err
			}

			path, _ := cmd.Flags().GetString("output")
			if path == "-" {
				return export.Write(cmd.OutOrStdout(), format, report)
			}
			if path == "" {
				path = format.Filename()
			}
			if err := writeFile(path, func(w io.Writer) error {
				return export.Write(w, format, report)
			}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d attempts to %s\n", len(report.AttemptsHistory), path)
			return nil
		},
	}
	c.Flags().StringP("format", "f", string(export.FormatJSON), "Export format: json or csv")
	c.Flags().StringP("output", "o", "", "Output file, or - for stdout (default quiz_results.<format>)")
	return c
}

func loadReport(cmd *cobra.Command, lib *library.Library, ref string) (export.Report, error) {
	quiz, err := lib.Resolve(cmd.Context(), ref)
	if err != nil {
		return export.Report{}, err
	}
	h, err := lib.History(cmd.Context(), quiz.Hash)
	if err != nil {
		return export.Report{}, err
	}
	return export.NewReport(h), nil
}

// writeFile creates path (and its directory) and hands it to write.
func writeFile(path string, write func(io.Writer) error) error {
	if err := store.EnsureDir(path); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
