package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quizpulse/quizpulse/internal/store"
)

func newSettingsCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "settings",
		Short: "Show or change saved play preferences",
		Long: "Without flags, prints the saved preferences. Each flag given is saved\n" +
			"and applies to every later session.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer st.Close()

			repo := st.SettingsRepo()
			prefs, err := repo.Load(cmd.Context())
			if err != nil {
				return err
			}

			f := cmd.Flags()
			if f.Changed("category") || f.Changed("study") || f.Changed("timer") {
				if f.Changed("category") {
					prefs.CategoryFilter, _ = f.GetString("category")
				}
				if f.Changed("study") {
					prefs.StudyMode, _ = f.GetBool("study")
				}
				if f.Changed("timer") {
					secs, _ := f.GetInt("timer")
					if secs != 0 && (secs < store.MinTimerSeconds || secs > store.MaxTimerSeconds) {
						return fmt.Errorf("--timer must be 0 or between %d and %d", store.MinTimerSeconds, store.MaxTimerSeconds)
					}
					prefs.TimerEnabled = secs != 0
					if secs != 0 {
						prefs.TimerSeconds = secs
					}
				}
				if err := repo.Save(cmd.Context(), prefs); err != nil {
					return err
				}
				prefs = prefs.Normalized()
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "category: %s\n", prefs.CategoryFilter)
			fmt.Fprintf(out, "study:    %t\n", prefs.StudyMode)
			if prefs.TimerEnabled {
				fmt.Fprintf(out, "timer:    %ds\n", prefs.TimerSeconds)
			} else {
				fmt.Fprintf(out, "timer:    off (%ds when enabled)\n", prefs.TimerSeconds)
			}
			return nil
		},
	}

	f := c.Flags()
	f.String("category", "", "Category filter for new sessions (\"all\" for every category)")
	f.Bool("study", false, "Study mode: show the correct answer after a wrong pick")
	f.Int("timer", 0, fmt.Sprintf("Seconds per question, %d-%d; 0 disables the timer", store.MinTimerSeconds, store.MaxTimerSeconds))
	return c
}
