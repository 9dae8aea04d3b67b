package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/joescharf/ideas/internal/output"
)

var versionsCmd = &cobra.Command{
	Use:   "versions",
	Short: "Manage deep dive versions",
	Long: `Every generated or regenerated deep dive is kept as a numbered version.
Restoring a version copies it back onto the idea without creating a new one.`,
}

var versionsListCmd = &cobra.Command{
	Use:     "list <idea-id>",
	Aliases: []string{"ls"},
	Short:   "List deep dive versions, newest first",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return versionsListRun(args[0])
	},
}

var versionsShowCmd = &cobra.Command{
	Use:   "show <idea-id> <number>",
	Short: "Show one deep dive version",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return versionsShowRun(args[0], args[1])
	},
}

var versionsRestoreCmd = &cobra.Command{
	Use:   "restore <idea-id> <number>",
	Short: "Restore a deep dive version onto the idea",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return versionsRestoreRun(args[0], args[1])
	},
}

var versionsDeleteCmd = &cobra.Command{
	Use:     "delete <idea-id> <number>",
	Aliases: []string{"rm"},
	Short:   "Delete a deep dive version",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return versionsDeleteRun(args[0], args[1])
	},
}

func init() {
	versionsCmd.AddCommand(versionsListCmd)
	versionsCmd.AddCommand(versionsShowCmd)
	versionsCmd.AddCommand(versionsRestoreCmd)
	versionsCmd.AddCommand(versionsDeleteCmd)
	rootCmd.AddCommand(versionsCmd)
}

func parseVersionNumber(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid version number %q: must be a positive integer", s)
	}
	return n, nil
}

func versionsListRun(id string) error {
	s, err := getStore()
	if err != nil {
		return err
	}
	ctx := commandContext()

	idea, err := findIdea(ctx, s, id)
	if err != nil {
		return err
	}
	a, err := getApp(false)
	if err != nil {
		return err
	}
	list, err := a.versions.List(ctx, idea.ID)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		ui.Info("No deep dive versions for %s", shortID(idea.ID))
		return nil
	}

	table := ui.Table([]string{"Version", "Created", "Summary"})
	for _, v := range list {
		_ = table.Append([]string{
			fmt.Sprintf("v%d", v.VersionNumber),
			formatTime(v.CreatedAt),
			truncate(v.Fields["summary"], 70),
		})
	}
	_ = table.Render()
	return nil
}

func versionsShowRun(id, number string) error {
	n, err := parseVersionNumber(number)
	if err != nil {
		return err
	}
	s, err := getStore()
	if err != nil {
		return err
	}
	ctx := commandContext()

	idea, err := findIdea(ctx, s, id)
	if err != nil {
		return err
	}
	a, err := getApp(false)
	if err != nil {
		return err
	}
	v, err := a.versions.Get(ctx, idea.ID, n)
	if err != nil {
		return err
	}

	fmt.Fprintf(ui.Out, "%s  v%d of %s\n", output.Cyan(shortID(idea.ID)), v.VersionNumber, idea.Title)
	fmt.Fprintf(ui.Out, "  Created:    %s\n\n", v.CreatedAt.Format(time.RFC3339))
	renderDeepDive(v.Fields)
	return nil
}

func versionsRestoreRun(id, number string) error {
	n, err := parseVersionNumber(number)
	if err != nil {
		return err
	}
	s, err := getStore()
	if err != nil {
		return err
	}
	ctx := commandContext()

	idea, err := findIdea(ctx, s, id)
	if err != nil {
		return err
	}

	if dryRun {
		ui.DryRunMsg("Would restore v%d onto idea %s", n, shortID(idea.ID))
		return nil
	}

	a, err := getApp(false)
	if err != nil {
		return err
	}
	if _, err := a.versions.Restore(ctx, idea.ID, n); err != nil {
		return fmt.Errorf("restore version: %w", err)
	}
	ui.Success("Restored v%d onto idea %s", n, output.Cyan(shortID(idea.ID)))
	return nil
}

func versionsDeleteRun(id, number string) error {
	n, err := parseVersionNumber(number)
	if err != nil {
		return err
	}
	s, err := getStore()
	if err != nil {
		return err
	}
	ctx := commandContext()

	idea, err := findIdea(ctx, s, id)
	if err != nil {
		return err
	}

	if dryRun {
		ui.DryRunMsg("Would delete v%d of idea %s", n, shortID(idea.ID))
		return nil
	}

	a, err := getApp(false)
	if err != nil {
		return err
	}
	if err := a.versions.Delete(ctx, idea.ID, n); err != nil {
		return fmt.Errorf("delete version: %w", err)
	}
	ui.Success("Deleted v%d of idea %s", n, output.Cyan(shortID(idea.ID)))
	return nil
}
