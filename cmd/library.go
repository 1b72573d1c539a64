package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"
	"github.com/spf13/cobra"

	"github.com/quizpulse/quizpulse/internal/library"
	historyscreen "github.com/quizpulse/quizpulse/internal/screens/history"
	"github.com/quizpulse/quizpulse/internal/session"
	"github.com/quizpulse/quizpulse/internal/ui/theme"
)

func newImportCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "import <file>",
		Short: "Add a question bank to the library",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read question bank: %w", err)
			}
			name, _ := cmd.Flags().GetString("name")
			if name == "" {
				name = library.SuggestName(args[0])
			}

			st, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer st.Close()

			res, err := newLibrary(st).Import(cmd.Context(), data, name)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			out := cmd.OutOrStdout()
			if res.Existing {
				fmt.Fprintf(out, "Quiz already in library as #%d %q. Its history is kept.\n", res.Quiz.ID, res.Quiz.Name)
				return nil
			}
			fmt.Fprintf(out, "Imported #%d %q (%d questions, hash %s)\n",
				res.Quiz.ID, res.Quiz.Name, res.Quiz.QuestionCount, res.Quiz.Hash)
			return nil
		},
	}
	c.Flags().String("name", "", "Quiz name (defaults to the file name)")
	return c
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List quizzes in the library",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer st.Close()

			catalog, err := newLibrary(st).Catalog(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(catalog) == 0 {
				fmt.Fprintln(out, "No quizzes yet. Import one with: quizpulse import <file.json>")
				return nil
			}

			t := table.New().
				Border(lipgloss.NormalBorder()).
				BorderStyle(lipgloss.NewStyle().Foreground(theme.Border)).
				Headers("ID", "Name", "Questions", "Attempts", "Best", "Hash", "Imported")
			for _, sum := range catalog {
				best := "-"
				if sum.Best != nil {
					best = historyscreen.FormatPercent(sum.Best.Percentage)
				}
				t.Row(
					strconv.Itoa(sum.Quiz.ID),
					sum.Quiz.Name,
					strconv.Itoa(sum.Quiz.QuestionCount),
					strconv.Itoa(sum.AttemptCount),
					best,
					sum.Quiz.Hash,
					sum.Quiz.ImportedAt.Local().Format("2006-01-02 15:04"),
				)
			}
			fmt.Fprintln(out, t.String())
			return nil
		},
	}
}

func newDeleteCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "delete <id|hash>",
		Short: "Remove a quiz and its history",
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

			out := cmd.OutOrStdout()
			if yes, _ := cmd.Flags().GetBool("yes"); !yes {
				fmt.Fprintf(out, "Delete %q and its history? [y/N] ", quiz.Name)
				if !confirm(cmd) {
					fmt.Fprintln(out, "Cancelled.")
					return nil
				}
			}

			if _, err := lib.Delete(cmd.Context(), quiz.ID); err != nil {
				return err
			}
			fmt.Fprintf(out, "Deleted #%d %q\n", quiz.ID, quiz.Name)
			return nil
		},
	}
	c.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")
	return c
}

// confirm reads a yes/no answer from the command's input.
func confirm(cmd *cobra.Command) bool {
	line, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

func newCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories <id|hash>",
		Short: "List the categories of a quiz",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer st.Close()

			quiz, err := newLibrary(st).Resolve(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, session.AllCategories)
			for _, c := range quiz.Categories {
				fmt.Fprintln(out, c)
			}
			return nil
		},
	}
}
