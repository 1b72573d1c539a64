package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/quizpulse/quizpulse/internal/bank"
	"github.com/quizpulse/quizpulse/internal/fingerprint"
	"github.com/quizpulse/quizpulse/internal/session"
)

// TemplateFilename is where template writes when no output is given.
const TemplateFilename = "quiz_template.json"

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Check a question bank without importing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read question bank: %w", err)
			}
			raw, err := bank.Decode(data)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			if err := bank.Lint(raw); err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			questions, err := bank.Normalize(raw)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			hash, err := fingerprint.Compute(questions)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s is valid\n", args[0])
			fmt.Fprintf(out, "  questions:  %d\n", len(questions))
			fmt.Fprintf(out, "  categories: %s\n", strings.Join(session.CollectCategories(questions), ", "))
			fmt.Fprintf(out, "  hash:       %s\n", hash)
			return nil
		},
	}
}

func newTemplateCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "template",
		Short: "Write a starter question bank",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := bank.Template()
			if err != nil {
				return err
			}
			data = append(data, '\n')

			path, _ := cmd.Flags().GetString("output")
			if path == "-" {
				_, err := cmd.OutOrStdout().Write(data)
				return err
			}
			if err := writeFile(path, func(w io.Writer) error {
				_, err := w.Write(data)
				return err
			}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
	c.Flags().StringP("output", "o", TemplateFilename, "Output file, or - for stdout")
	return c
}
