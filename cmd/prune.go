package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joescharf/ideas/internal/output"
	"github.com/joescharf/ideas/internal/quality"
)

var (
	pruneMinScore  int
	pruneMaxEffort int
)

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete ideas below the quality bar",
	Long: `Delete ideas whose score is below --min-score or whose MVP effort is above
--max-effort. Ideas missing either rating are deleted too. Shortlisted ideas and
ideas with a deep dive are always kept. Use --dry-run to preview.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return pruneRun()
	},
}

func init() {
	pruneCmd.Flags().IntVar(&pruneMinScore, "min-score", quality.DefaultMinScore, "Minimum score to keep")
	pruneCmd.Flags().IntVar(&pruneMaxEffort, "max-effort", quality.DefaultMaxEffort, "Maximum MVP effort to keep")
	rootCmd.AddCommand(pruneCmd)
}

func pruneRun() error {
	s, err := getStore()
	if err != nil {
		return err
	}
	ctx := commandContext()

	criteria := quality.Criteria{MinScore: pruneMinScore, MaxEffort: pruneMaxEffort}
	pruned, err := criteria.Prune(ctx, s, dryRun)
	if err != nil {
		return err
	}
	if len(pruned) == 0 {
		ui.Success("All ideas meet the bar (score >= %d, effort <= %d)", criteria.MinScore, criteria.MaxEffort)
		return nil
	}

	table := ui.Table([]string{"ID", "Title", "Score", "Effort", "Reason"})
	collections := make(map[string]bool)
	for _, c := range pruned {
		collections[c.Idea.CollectionID] = true
		_ = table.Append([]string{
			shortID(c.Idea.ID),
			truncate(c.Idea.Title, 50),
			output.ScoreColor(c.Idea.Score),
			output.EffortColor(c.Idea.MVPEffort),
			strings.Join(c.Assessment.Reasons, ", "),
		})
	}
	_ = table.Render()

	if dryRun {
		ui.DryRunMsg("Would delete %d idea(s)", len(pruned))
		return nil
	}
	for id := range collections {
		invalidateCollection(ctx, id)
	}
	ui.Success("Deleted %s idea(s)", output.Yellow(fmt.Sprintf("%d", len(pruned))))
	return nil
}
