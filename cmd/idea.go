package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/k0kubun/pp/v3"
	"github.com/spf13/cobra"

	"github.com/joescharf/ideas/internal/cache"
	"github.com/joescharf/ideas/internal/lifecycle"
	"github.com/joescharf/ideas/internal/models"
	"github.com/joescharf/ideas/internal/output"
	"github.com/joescharf/ideas/internal/store"
)

var (
	ideaStatus     string
	ideaCollection string
	ideaRaw        bool
	ideaFromFile   string
	ideaClearAll   bool
)

var ideaCmd = &cobra.Command{
	Use:   "idea",
	Short: "Browse ideas and move them through the workflow",
	Long: `Ideas move between suggested, deep_dive, iterating, considering and closed.
Moving an idea to deep_dive generates an investor-style analysis.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return ideaListRun()
	},
}

var ideaListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List ideas",
	RunE: func(cmd *cobra.Command, args []string) error {
		return ideaListRun()
	},
}

var ideaShowCmd = &cobra.Command{
	Use:   "show <idea-id>",
	Short: "Show an idea with its deep dive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return ideaShowRun(args[0])
	},
}

var ideaStatusCmd = &cobra.Command{
	Use:   "status <idea-id> <status>",
	Short: "Move an idea to a new status",
	Long: `Move an idea to a new status. Moving to deep_dive generates the deep dive
and waits for it to finish.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return ideaStatusRun(args[0], args[1])
	},
}

var ideaDeepDiveCmd = &cobra.Command{
	Use:   "deepdive <idea-id>",
	Short: "Generate or show an idea's deep dive without changing its status",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return ideaDeepDiveRun(args[0])
	},
}

var ideaRegenerateCmd = &cobra.Command{
	Use:   "regenerate <idea-id>",
	Short: "Regenerate the deep dive from edited sections",
	Long: `Regenerate the deep dive using the current sections as context, or the
sections in a JSON file given with --from-file. The result is applied to the
idea and recorded as a new version.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return ideaRegenerateRun(args[0])
	},
}

var ideaClearCmd = &cobra.Command{
	Use:   "clear-deepdive [idea-id]",
	Short: "Remove the current deep dive so it can be generated again",
	Long: `Remove the current deep dive and reset the in-progress flag. Use it to retry
an analysis or to recover an idea left pending by a crashed process. Deep dive
versions are kept. With --all every idea with a deep dive or a pending flag is
cleared.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var id string
		if len(args) > 0 {
			id = args[0]
		}
		return ideaClearRun(id)
	},
}

var ideaDeleteCmd = &cobra.Command{
	Use:     "delete <idea-id>",
	Aliases: []string{"rm"},
	Short:   "Delete an idea and its deep dive versions",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return ideaDeleteRun(args[0])
	},
}

func init() {
	ideaListCmd.Flags().StringVar(&ideaStatus, "status", "", "Filter by status: suggested, deep_dive, iterating, considering, closed")
	ideaListCmd.Flags().StringVar(&ideaCollection, "collection", "", "Filter by collection ID or prefix")

	ideaShowCmd.Flags().BoolVar(&ideaRaw, "raw", false, "Dump the stored record including raw generation output")

	ideaRegenerateCmd.Flags().StringVar(&ideaFromFile, "from-file", "", "JSON file with edited deep dive sections")

	ideaClearCmd.Flags().BoolVar(&ideaClearAll, "all", false, "Clear every deep dive")

	ideaCmd.AddCommand(ideaListCmd)
	ideaCmd.AddCommand(ideaShowCmd)
	ideaCmd.AddCommand(ideaStatusCmd)
	ideaCmd.AddCommand(ideaDeepDiveCmd)
	ideaCmd.AddCommand(ideaRegenerateCmd)
	ideaCmd.AddCommand(ideaClearCmd)
	ideaCmd.AddCommand(ideaDeleteCmd)
	rootCmd.AddCommand(ideaCmd)
}

func ideaListRun() error {
	s, err := getStore()
	if err != nil {
		return err
	}
	ctx := commandContext()

	var filter store.IdeaListFilter
	if ideaStatus != "" {
		st, err := models.ParseIdeaStatus(ideaStatus)
		if err != nil {
			return err
		}
		filter.Status = st
	}
	if ideaCollection != "" {
		c, err := findCollection(ctx, s, ideaCollection)
		if err != nil {
			return err
		}
		filter.CollectionID = c.ID
	}

	ideas, err := s.ListIdeas(ctx, filter)
	if err != nil {
		return err
	}
	if len(ideas) == 0 {
		ui.Info("No ideas found.")
		return nil
	}
	renderIdeas(ideas)
	return nil
}

func ideaShowRun(id string) error {
	s, err := getStore()
	if err != nil {
		return err
	}
	ctx := commandContext()

	idea, err := findIdea(ctx, s, id)
	if err != nil {
		return err
	}

	if ideaRaw {
		printer := pp.New()
		printer.SetOutput(ui.Out)
		printer.SetColoringEnabled(false)
		_, err := printer.Println(idea)
		return err
	}

	fmt.Fprintf(ui.Out, "%s  %s\n", output.Cyan(shortID(idea.ID)), idea.Title)
	if idea.CollectionID != "" {
		colName := shortID(idea.CollectionID)
		if c, err := s.GetCollection(ctx, idea.CollectionID); err == nil {
			colName = c.Name
		}
		fmt.Fprintf(ui.Out, "  Collection: %s\n", colName)
	}
	fmt.Fprintf(ui.Out, "  Status:     %s\n", output.StatusColor(string(idea.Status)))
	if idea.Kind != "" {
		fmt.Fprintf(ui.Out, "  Type:       %s\n", idea.Kind)
	}
	fmt.Fprintf(ui.Out, "  Score:      %s\n", output.ScoreColor(idea.Score))
	fmt.Fprintf(ui.Out, "  MVP effort: %s\n", output.EffortColor(idea.MVPEffort))
	printField("Hook", idea.Hook)
	printField("Value", idea.Value)
	printField("Evidence", idea.Evidence)
	printField("Edge", idea.Differentiator)
	printField("CTA", idea.CallToAction)
	fmt.Fprintf(ui.Out, "  Created:    %s\n", idea.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(ui.Out, "  Full ID:    %s\n", idea.ID)

	switch {
	case idea.DeepDive != nil:
		fmt.Fprintln(ui.Out)
		renderDeepDive(*idea.DeepDive)
	case idea.DeepDiveRequested:
		fmt.Fprintln(ui.Out)
		ui.Info("Deep dive generation in progress")
	}
	return nil
}

func ideaStatusRun(id, status string) error {
	st, err := models.ParseIdeaStatus(status)
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
	if idea.Status == st {
		ui.Info("Idea %s is already %s", shortID(idea.ID), output.StatusColor(string(st)))
		return nil
	}

	if dryRun {
		ui.DryRunMsg("Would move idea %s from %s to %s", shortID(idea.ID), idea.Status, st)
		return nil
	}

	a, err := getApp(false)
	if err != nil {
		return err
	}
	updated, err := a.engine.ChangeStatus(ctx, idea.ID, st)
	if err != nil {
		return fmt.Errorf("change status: %w", err)
	}
	ui.Success("Moved idea %s to %s", output.Cyan(shortID(updated.ID)), output.StatusColor(string(updated.Status)))

	if st != models.IdeaStatusDeepDive || idea.DeepDive != nil {
		return nil
	}

	ui.Info("Generating deep dive...")
	a.engine.Wait()
	fresh, err := s.GetIdea(ctx, idea.ID)
	if err != nil {
		return err
	}
	switch {
	case fresh.DeepDive != nil:
		ui.Success("Deep dive ready")
		renderDeepDive(*fresh.DeepDive)
	case fresh.DeepDiveRequested:
		ui.Info("Deep dive is being generated by another process")
	default:
		ui.Warning("Deep dive generation failed; run with --verbose for details and retry with: ideas idea deepdive %s", shortID(idea.ID))
	}
	return nil
}

func ideaDeepDiveRun(id string) error {
	s, err := getStore()
	if err != nil {
		return err
	}
	ctx := commandContext()

	idea, err := findIdea(ctx, s, id)
	if err != nil {
		return err
	}
	if dryRun && idea.DeepDive == nil {
		ui.DryRunMsg("Would generate a deep dive for idea %s", shortID(idea.ID))
		return nil
	}

	a, err := getApp(false)
	if err != nil {
		return err
	}
	if idea.DeepDive == nil && !idea.DeepDiveRequested {
		ui.Info("Generating deep dive for %s...", idea.Title)
	}
	res, err := a.engine.GenerateDeepDive(ctx, idea.ID)
	if err != nil {
		return fmt.Errorf("deep dive: %w", err)
	}
	if res.Status == lifecycle.DeepDivePending {
		ui.Info("Deep dive generation already in progress for %s", shortID(idea.ID))
		return nil
	}
	renderDeepDive(res.DeepDive)
	return nil
}

func ideaRegenerateRun(id string) error {
	s, err := getStore()
	if err != nil {
		return err
	}
	ctx := commandContext()

	idea, err := findIdea(ctx, s, id)
	if err != nil {
		return err
	}

	edited := models.NewDeepDive()
	switch {
	case ideaFromFile != "":
		data, err := os.ReadFile(ideaFromFile)
		if err != nil {
			return fmt.Errorf("read %s: %w", ideaFromFile, err)
		}
		var fields models.DeepDive
		if err := json.Unmarshal(data, &fields); err != nil {
			return fmt.Errorf("parse %s: expected an object of section strings: %w", ideaFromFile, err)
		}
		edited = fields.Normalize()
	case idea.DeepDive != nil:
		edited = idea.DeepDive.Normalize()
	}

	if dryRun {
		ui.DryRunMsg("Would regenerate the deep dive for idea %s", shortID(idea.ID))
		return nil
	}

	a, err := getApp(false)
	if err != nil {
		return err
	}
	ui.Info("Regenerating deep dive for %s...", idea.Title)
	updated, err := a.engine.RegenerateDeepDive(ctx, idea.ID, edited)
	if err != nil {
		return fmt.Errorf("regenerate deep dive: %w", err)
	}
	ui.Success("Deep dive regenerated and saved as a new version")
	if updated.DeepDive != nil {
		renderDeepDive(*updated.DeepDive)
	}
	return nil
}

func ideaClearRun(id string) error {
	if (id == "") == !ideaClearAll {
		return fmt.Errorf("specify an idea ID or --all")
	}
	s, err := getStore()
	if err != nil {
		return err
	}
	ctx := commandContext()

	var targets []*models.Idea
	if ideaClearAll {
		ideas, err := s.ListIdeas(ctx, store.IdeaListFilter{})
		if err != nil {
			return err
		}
		for _, idea := range ideas {
			if idea.DeepDive != nil || idea.DeepDiveRequested {
				targets = append(targets, idea)
			}
		}
	} else {
		idea, err := findIdea(ctx, s, id)
		if err != nil {
			return err
		}
		targets = append(targets, idea)
	}

	if len(targets) == 0 {
		ui.Success("No deep dives found")
		return nil
	}

	if dryRun {
		for _, idea := range targets {
			ui.DryRunMsg("Would clear the deep dive of %s: %s", shortID(idea.ID), idea.Title)
		}
		return nil
	}

	a, err := getApp(false)
	if err != nil {
		return err
	}
	for _, idea := range targets {
		if _, err := a.engine.ClearDeepDive(ctx, idea.ID); err != nil {
			return fmt.Errorf("clear deep dive of %s: %w", shortID(idea.ID), err)
		}
		ui.VerboseLog("Cleared %s: %s", shortID(idea.ID), idea.Title)
	}
	ui.Success("Cleared %d deep dive(s)", len(targets))
	return nil
}

func ideaDeleteRun(id string) error {
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
		ui.DryRunMsg("Would delete idea %s: %s", shortID(idea.ID), idea.Title)
		return nil
	}

	if err := s.DeleteIdea(ctx, idea.ID); err != nil {
		return fmt.Errorf("delete idea: %w", err)
	}
	invalidateCollection(ctx, idea.CollectionID)
	ui.Success("Deleted idea %s: %s", output.Cyan(shortID(idea.ID)), idea.Title)
	return nil
}

// invalidateCollection drops the cached idea list of a collection.
func invalidateCollection(ctx context.Context, collectionID string) {
	if collectionID == "" {
		return
	}
	a, err := getApp(false)
	if err != nil {
		ui.VerboseLog("cache not invalidated: %v", err)
		return
	}
	if err := a.cache.Delete(ctx, cache.CollectionIdeasKey(collectionID)); err != nil {
		ui.VerboseLog("cache not invalidated: %v", err)
	}
}

// renderIdeas prints ideas as a table.
func renderIdeas(ideas []*models.Idea) {
	table := ui.Table([]string{"ID", "Title", "Type", "Score", "Effort", "Status"})
	for _, idea := range ideas {
		_ = table.Append([]string{
			shortID(idea.ID),
			truncate(idea.Title, 60),
			idea.Kind,
			output.ScoreColor(idea.Score),
			output.EffortColor(idea.MVPEffort),
			output.StatusColor(string(idea.Status)),
		})
	}
	_ = table.Render()
}

var sectionTitles = map[string]string{
	models.SectionProductClarity:    "Product Clarity & MVP",
	models.SectionTiming:            "Timing",
	models.SectionMarketOpportunity: "Market Opportunity",
	models.SectionStrategicMoat:     "Strategic Moat",
	models.SectionBusinessFunding:   "Business & Funding",
	models.SectionInvestorScoring:   "Investor Scoring",
	models.SectionSummary:           "Summary",
}

// renderDeepDive prints the fixed sections in order, then any extra keys.
func renderDeepDive(dd models.DeepDive) {
	printed := make(map[string]bool, len(models.DeepDiveSections))
	for _, key := range models.DeepDiveSections {
		printed[key] = true
		printSection(sectionTitles[key], dd[key])
	}
	for key, text := range dd {
		if !printed[key] {
			printSection(key, text)
		}
	}
}

func printSection(title, text string) {
	fmt.Fprintln(ui.Out, output.Cyan(title))
	if strings.TrimSpace(text) == "" {
		fmt.Fprintln(ui.Out, "  -")
	} else {
		for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
			fmt.Fprintf(ui.Out, "  %s\n", line)
		}
	}
	fmt.Fprintln(ui.Out)
}

func printField(label, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(ui.Out, "  %-11s %s\n", label+":", value)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// shortID returns the first 12 characters of a ULID for display.
func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

// findIdea finds an idea by full ID or prefix match.
func findIdea(ctx context.Context, s store.Store, id string) (*models.Idea, error) {
	// Try exact match first
	if idea, err := s.GetIdea(ctx, id); err == nil {
		return idea, nil
	}

	// Try prefix match - list all and filter
	upper := strings.ToUpper(id)
	ideas, err := s.ListIdeas(ctx, store.IdeaListFilter{})
	if err != nil {
		return nil, err
	}

	var matches []*models.Idea
	for _, idea := range ideas {
		if strings.HasPrefix(idea.ID, upper) {
			matches = append(matches, idea)
		}
	}

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("idea not found: %s", id)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("ambiguous idea ID %s: matches %d ideas", id, len(matches))
	}
}
