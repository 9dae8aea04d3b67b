package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/joescharf/ideas/internal/github"
	"github.com/joescharf/ideas/internal/models"
	"github.com/joescharf/ideas/internal/output"
	"github.com/joescharf/ideas/internal/store"
)

var (
	collectionName     string
	collectionURL      string
	collectionSummary  string
	collectionLanguage string
	collectionGenerate bool
	collectionGitHub   string
)

var collectionCmd = &cobra.Command{
	Use:     "collection",
	Aliases: []string{"col"},
	Short:   "Manage collections",
	Long:    "Collections describe the projects that ideas are generated from.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return collectionListRun()
	},
}

var collectionAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a collection",
	Long: `Add a collection from a name and summary, or from a GitHub repository with
--github owner/repo (requires the gh CLI). Explicit flags override the
repository metadata.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return collectionAddRun()
	},
}

var collectionListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List collections",
	RunE: func(cmd *cobra.Command, args []string) error {
		return collectionListRun()
	},
}

var collectionShowCmd = &cobra.Command{
	Use:   "show <collection-id>",
	Short: "Show a collection and its ideas",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return collectionShowRun(args[0])
	},
}

var collectionGenerateCmd = &cobra.Command{
	Use:   "generate <collection-id>",
	Short: "Generate pitches for a collection",
	Long: `Ask the configured provider for startup pitches based on the collection
summary. One suggested idea is stored per pitch. When nothing can be parsed a
single "[ERROR]" idea holding the raw response is stored instead.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return collectionGenerateRun(args[0])
	},
}

func init() {
	collectionAddCmd.Flags().StringVar(&collectionName, "name", "", "Collection name (required unless --github is set)")
	collectionAddCmd.Flags().StringVar(&collectionURL, "url", "", "Project URL")
	collectionAddCmd.Flags().StringVar(&collectionSummary, "summary", "", "Project description used for pitch generation")
	collectionAddCmd.Flags().StringVar(&collectionLanguage, "language", "", "Primary programming language")
	collectionAddCmd.Flags().BoolVar(&collectionGenerate, "generate", false, "Generate pitches right after adding")
	collectionAddCmd.Flags().StringVar(&collectionGitHub, "github", "", "Import name, summary and language from a GitHub repository")

	collectionCmd.AddCommand(collectionAddCmd)
	collectionCmd.AddCommand(collectionListCmd)
	collectionCmd.AddCommand(collectionShowCmd)
	collectionCmd.AddCommand(collectionGenerateCmd)
	rootCmd.AddCommand(collectionCmd)
}

func collectionAddRun() error {
	s, err := getStore()
	if err != nil {
		return err
	}
	ctx := commandContext()

	c := &models.Collection{}
	if collectionGitHub != "" {
		imported, err := importFromGitHub(ctx, github.NewClient(), collectionGitHub)
		if err != nil {
			return err
		}
		c = imported
	}
	applyCollectionFlags(c)
	if c.Name == "" {
		return fmt.Errorf("--name is required unless --github is set")
	}

	if dryRun {
		ui.DryRunMsg("Would add collection: %s", c.Name)
		return nil
	}

	if err := s.CreateCollection(ctx, c); err != nil {
		return fmt.Errorf("create collection: %w", err)
	}
	ui.Success("Created collection %s: %s", output.Cyan(shortID(c.ID)), c.Name)

	if collectionGenerate {
		return generateFor(ctx, c)
	}
	return nil
}

func importFromGitHub(ctx context.Context, gh github.Client, ref string) (*models.Collection, error) {
	owner, repo, err := github.ParseRepoRef(ref)
	if err != nil {
		return nil, err
	}
	info, err := gh.RepoInfo(ctx, owner, repo)
	if err != nil {
		return nil, fmt.Errorf("fetch %s/%s: %w", owner, repo, err)
	}
	ui.VerboseLog("Fetched %s/%s (%d stars)", owner, repo, info.Stars)
	return github.Collection(info), nil
}

// applyCollectionFlags overrides collection fields with the flags that were set.
func applyCollectionFlags(c *models.Collection) {
	if v := strings.TrimSpace(collectionName); v != "" {
		c.Name = v
	}
	if collectionURL != "" {
		c.URL = collectionURL
	}
	if collectionSummary != "" {
		c.Summary = collectionSummary
	}
	if collectionLanguage != "" {
		c.Language = collectionLanguage
	}
}

func collectionListRun() error {
	s, err := getStore()
	if err != nil {
		return err
	}
	ctx := commandContext()

	collections, err := s.ListCollections(ctx)
	if err != nil {
		return err
	}
	if len(collections) == 0 {
		ui.Info("No collections found. Add one with: ideas collection add --name <name> --summary <text>")
		return nil
	}

	table := ui.Table([]string{"ID", "Name", "Language", "Ideas", "Created"})
	for _, c := range collections {
		count := "-"
		if ideas, err := s.ListIdeas(ctx, store.IdeaListFilter{CollectionID: c.ID}); err == nil {
			count = fmt.Sprintf("%d", len(ideas))
		}
		_ = table.Append([]string{
			shortID(c.ID),
			c.Name,
			c.Language,
			count,
			formatTime(c.CreatedAt),
		})
	}
	_ = table.Render()
	return nil
}

func collectionShowRun(id string) error {
	s, err := getStore()
	if err != nil {
		return err
	}
	ctx := commandContext()

	c, err := findCollection(ctx, s, id)
	if err != nil {
		return err
	}

	fmt.Fprintf(ui.Out, "%s  %s\n", output.Cyan(shortID(c.ID)), c.Name)
	if c.URL != "" {
		fmt.Fprintf(ui.Out, "  URL:        %s\n", c.URL)
	}
	if c.Language != "" {
		fmt.Fprintf(ui.Out, "  Language:   %s\n", c.Language)
	}
	if c.Summary != "" {
		fmt.Fprintf(ui.Out, "  Summary:    %s\n", c.Summary)
	}
	fmt.Fprintf(ui.Out, "  Created:    %s\n", c.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(ui.Out, "  Full ID:    %s\n", c.ID)

	ideas, err := s.ListIdeas(ctx, store.IdeaListFilter{CollectionID: c.ID})
	if err != nil {
		return err
	}
	fmt.Fprintln(ui.Out)
	if len(ideas) == 0 {
		ui.Info("No ideas yet. Generate some with: ideas collection generate %s", shortID(c.ID))
		return nil
	}
	renderIdeas(ideas)
	return nil
}

func collectionGenerateRun(id string) error {
	s, err := getStore()
	if err != nil {
		return err
	}
	ctx := commandContext()

	c, err := findCollection(ctx, s, id)
	if err != nil {
		return err
	}
	if dryRun {
		ui.DryRunMsg("Would generate pitches for collection %s: %s", shortID(c.ID), c.Name)
		return nil
	}
	return generateFor(ctx, c)
}

func generateFor(ctx context.Context, c *models.Collection) error {
	a, err := getApp(false)
	if err != nil {
		return err
	}

	ui.Info("Generating pitches for %s...", c.Name)
	res, err := a.pitches.FromCollection(ctx, c)
	if err != nil {
		return fmt.Errorf("generate pitches: %w", err)
	}
	if !res.Parsed {
		ui.Warning("No pitches could be parsed after %d attempt(s); stored %s for inspection",
			res.Attempts, output.Cyan(shortID(res.Ideas[0].ID)))
		return nil
	}
	ui.Success("Generated %d idea(s) in %d attempt(s)", len(res.Ideas), res.Attempts)
	renderIdeas(res.Ideas)
	return nil
}

// findCollection finds a collection by full ID or prefix match.
func findCollection(ctx context.Context, s store.Store, id string) (*models.Collection, error) {
	if c, err := s.GetCollection(ctx, id); err == nil {
		return c, nil
	}

	upper := strings.ToUpper(id)
	collections, err := s.ListCollections(ctx)
	if err != nil {
		return nil, err
	}

	var matches []*models.Collection
	for _, c := range collections {
		if strings.HasPrefix(c.ID, upper) {
			matches = append(matches, c)
		}
	}

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("collection not found: %s", id)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("ambiguous collection ID %s: matches %d collections", id, len(matches))
	}
}
