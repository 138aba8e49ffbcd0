package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/embertools/ember/internal/history"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded verification runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		store := history.New(stateDir())
		runs, err := store.Runs()
		if err != nil {
			return fmt.Errorf("load history: %w", err)
		}
		if len(runs) == 0 {
			fmt.Println("No runs recorded")
			return nil
		}

		if historyLimit > 0 && len(runs) > historyLimit {
			runs = runs[len(runs)-historyLimit:]
		}

		for _, r := range runs {
			counts := fmt.Sprintf("%d passed, %d failed", r.Passed, r.Failed)
			if r.Skipped > 0 {
				counts += fmt.Sprintf(", %d skipped", r.Skipped)
			}
			if r.Failed == 0 {
				counts = passText.Render(counts)
			} else {
				counts = failText.Render(counts)
			}
			fmt.Printf("%s  %-14s %-24s %s  %s\n",
				r.Timestamp.Format("2006-01-02 15:04:05"),
				r.Port, r.Suite, counts, dimText.Render(r.Duration))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 0, "Show only the most recent N runs")
}
