package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joescharf/ideas/internal/models"
	"github.com/joescharf/ideas/internal/output"
)

var shortlistCmd = &cobra.Command{
	Use:     "shortlist",
	Aliases: []string{"sl"},
	Short:   "Manage the shortlist of favourite ideas",
	RunE: func(cmd *cobra.Command, args []string) error {
		return shortlistListRun()
	},
}

var shortlistAddCmd = &cobra.Command{
	Use:   "add <idea-id>",
	Short: "Add an idea to the shortlist",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return shortlistAddRun(args[0])
	},
}

var shortlistRemoveCmd = &cobra.Command{
	Use:     "remove <idea-id>",
	Aliases: []string{"rm"},
	Short:   "Remove an idea from the shortlist",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return shortlistRemoveRun(args[0])
	},
}

var shortlistListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List shortlisted ideas in the order they were added",
	RunE: func(cmd *cobra.Command, args []string) error {
		return shortlistListRun()
	},
}

func init() {
	shortlistCmd.AddCommand(shortlistAddCmd)
	shortlistCmd.AddCommand(shortlistRemoveCmd)
	shortlistCmd.AddCommand(shortlistListCmd)
	rootCmd.AddCommand(shortlistCmd)
}

func shortlistAddRun(id string) error {
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
		ui.DryRunMsg("Would shortlist idea %s: %s", shortID(idea.ID), idea.Title)
		return nil
	}

	if _, err := s.AddToShortlist(ctx, idea.ID); err != nil {
		if errors.Is(err, models.ErrConflict) {
			ui.Info("Idea %s is already shortlisted", shortID(idea.ID))
			return nil
		}
		return fmt.Errorf("shortlist idea: %w", err)
	}
	ui.Success("Shortlisted %s: %s", output.Cyan(shortID(idea.ID)), idea.Title)
	return nil
}

func shortlistRemoveRun(id string) error {
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
		ui.DryRunMsg("Would remove idea %s from the shortlist", shortID(idea.ID))
		return nil
	}

	if err := s.RemoveFromShortlist(ctx, idea.ID); err != nil {
		return fmt.Errorf("remove from shortlist: %w", err)
	}
	ui.Success("Removed %s from the shortlist", output.Cyan(shortID(idea.ID)))
	return nil
}

func shortlistListRun() error {
	s, err := getStore()
	if err != nil {
		return err
	}

	ideas, err := s.ListShortlist(commandContext())
	if err != nil {
		return err
	}
	if len(ideas) == 0 {
		ui.Info("The shortlist is empty.")
		return nil
	}
	renderIdeas(ideas)
	return nil
}
