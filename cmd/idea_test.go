package cmd

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/ideas/internal/models"
	"github.com/joescharf/ideas/internal/store"
)

// cliEnv extends testEnv with a migrated store and captured output.
func cliEnv(t *testing.T) (store.Store, *bytes.Buffer) {
	t.Helper()
	testEnv(t)

	var buf bytes.Buffer
	ui.Out = &buf

	s, err := getStore()
	require.NoError(t, err)
	t.Cleanup(func() {
		closeApp()
		dryRun = false
	})
	return s, &buf
}

func seedIdea(t *testing.T, s store.Store, collectionID, title string, score, effort *int) *models.Idea {
	t.Helper()
	idea := models.NewIdeaFromPitch(collectionID, models.Pitch{
		Title:     title,
		Hook:      "hook for " + title,
		Kind:      "side_hustle",
		Score:     score,
		MVPEffort: effort,
	}, "raw")
	require.NoError(t, s.CreateIdea(context.Background(), idea))
	return idea
}

func TestShortID(t *testing.T) {
	assert.Equal(t, "01HZX4Y5Z6A7", shortID("01HZX4Y5Z6A7B8C9D0E1F2G3H4"))
	assert.Equal(t, "short", shortID("short"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "abc…", truncate("abcdefgh", 4))
	assert.Equal(t, "héll…", truncate("héllo wörld", 5))
}

func TestParseVersionNumber(t *testing.T) {
	n, err := parseVersionNumber("3")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	for _, bad := range []string{"0", "-1", "v2", ""} {
		_, err := parseVersionNumber(bad)
		assert.Error(t, err, bad)
	}
}

func TestFindIdea(t *testing.T) {
	s, _ := cliEnv(t)
	ctx := context.Background()

	idea := seedIdea(t, s, "", "Invoice bot", models.IntPtr(8), models.IntPtr(3))

	t.Run("exact", func(t *testing.T) {
		got, err := findIdea(ctx, s, idea.ID)
		require.NoError(t, err)
		assert.Equal(t, idea.ID, got.ID)
	})

	t.Run("lowercase prefix", func(t *testing.T) {
		got, err := findIdea(ctx, s, strings.ToLower(idea.ID[:20]))
		require.NoError(t, err)
		assert.Equal(t, idea.ID, got.ID)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := findIdea(ctx, s, "ZZZZZZZZ")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "idea not found")
	})
}

func TestFindCollection(t *testing.T) {
	s, _ := cliEnv(t)
	ctx := context.Background()

	c := &models.Collection{Name: "pm"}
	require.NoError(t, s.CreateCollection(ctx, c))

	got, err := findCollection(ctx, s, c.ID[:14])
	require.NoError(t, err)
	assert.Equal(t, "pm", got.Name)

	_, err = findCollection(ctx, s, "nope")
	assert.Error(t, err)
}

func TestIdeaListRun_FiltersByStatus(t *testing.T) {
	s, buf := cliEnv(t)
	ctx := context.Background()

	kept := seedIdea(t, s, "", "Kept idea", models.IntPtr(9), models.IntPtr(2))
	seedIdea(t, s, "", "Other idea", models.IntPtr(5), models.IntPtr(5))
	require.NoError(t, s.UpdateIdeaStatus(ctx, kept.ID, models.IdeaStatusIterating))

	ideaStatus = "iterating"
	t.Cleanup(func() { ideaStatus = "" })

	require.NoError(t, ideaListRun())
	out := buf.String()
	assert.Contains(t, out, "Kept idea")
	assert.NotContains(t, out, "Other idea")
}

func TestIdeaListRun_InvalidStatus(t *testing.T) {
	cliEnv(t)
	ideaStatus = "archived"
	t.Cleanup(func() { ideaStatus = "" })

	err := ideaListRun()
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestIdeaShowRun_RendersDeepDive(t *testing.T) {
	s, buf := cliEnv(t)
	ctx := context.Background()

	idea := seedIdea(t, s, "", "Deep idea", models.IntPtr(8), models.IntPtr(4))
	require.NoError(t, s.CompleteDeepDive(ctx, idea.ID, models.DeepDive{
		models.SectionProductClarity: "A tool for freelancers.\nShips in a week.",
		models.SectionSummary:        "Worth a try.",
	}.Normalize(), "raw"))

	require.NoError(t, ideaShowRun(idea.ID[:12]))
	out := buf.String()
	assert.Contains(t, out, "Deep idea")
	assert.Contains(t, out, "Product Clarity & MVP")
	assert.Contains(t, out, "  Ships in a week.")
	assert.Contains(t, out, "Worth a try.")
}

func TestIdeaStatusRun_NonDeepDive(t *testing.T) {
	s, buf := cliEnv(t)
	ctx := context.Background()

	idea := seedIdea(t, s, "", "Move me", nil, nil)

	require.NoError(t, ideaStatusRun(idea.ID, "considering"))
	assert.Contains(t, buf.String(), "Moved idea")

	got, err := s.GetIdea(ctx, idea.ID)
	require.NoError(t, err)
	assert.Equal(t, models.IdeaStatusConsidering, got.Status)
	assert.False(t, got.DeepDiveRequested)
}

func TestIdeaStatusRun_DryRun(t *testing.T) {
	s, _ := cliEnv(t)
	ctx := context.Background()

	idea := seedIdea(t, s, "", "Stay put", nil, nil)
	dryRun = true

	require.NoError(t, ideaStatusRun(idea.ID, "closed"))
	got, err := s.GetIdea(ctx, idea.ID)
	require.NoError(t, err)
	assert.Equal(t, models.IdeaStatusSuggested, got.Status)
}

func TestShortlistAddRun_Twice(t *testing.T) {
	s, buf := cliEnv(t)
	ctx := context.Background()

	idea := seedIdea(t, s, "", "Favourite", models.IntPtr(9), models.IntPtr(2))

	require.NoError(t, shortlistAddRun(idea.ID))
	require.NoError(t, shortlistAddRun(idea.ID))
	assert.Contains(t, buf.String(), "already shortlisted")

	list, err := s.ListShortlist(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, shortlistRemoveRun(idea.ID))
	err = shortlistRemoveRun(idea.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestPruneRun(t *testing.T) {
	s, buf := cliEnv(t)
	ctx := context.Background()

	pruneMinScore, pruneMaxEffort = 8, 4
	good := seedIdea(t, s, "", "Good", models.IntPtr(9), models.IntPtr(3))
	bad := seedIdea(t, s, "", "Bad", models.IntPtr(4), models.IntPtr(9))

	dryRun = true
	require.NoError(t, pruneRun())
	assert.Contains(t, buf.String(), "Bad")
	_, err := s.GetIdea(ctx, bad.ID)
	require.NoError(t, err, "dry run must not delete")

	dryRun = false
	require.NoError(t, pruneRun())
	_, err = s.GetIdea(ctx, bad.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
	_, err = s.GetIdea(ctx, good.ID)
	assert.NoError(t, err)
}

func TestIdeaClearRun(t *testing.T) {
	s, buf := cliEnv(t)
	ctx := context.Background()
	t.Cleanup(func() { ideaClearAll = false })

	done := seedIdea(t, s, "", "Analysed", models.IntPtr(8), models.IntPtr(3))
	stuck := seedIdea(t, s, "", "Stuck", models.IntPtr(8), models.IntPtr(3))
	untouched := seedIdea(t, s, "", "Fresh", models.IntPtr(8), models.IntPtr(3))
	require.NoError(t, s.CompleteDeepDive(ctx, done.ID, models.NewDeepDive(), "raw"))
	_, err := s.ClaimDeepDive(ctx, stuck.ID)
	require.NoError(t, err)

	assert.Error(t, ideaClearRun(""), "needs an ID or --all")

	ideaClearAll = true
	assert.Error(t, ideaClearRun(done.ID), "ID and --all are exclusive")

	require.NoError(t, ideaClearRun(""))
	assert.Contains(t, buf.String(), "Cleared 2 deep dive(s)")

	for _, id := range []string{done.ID, stuck.ID, untouched.ID} {
		got, err := s.GetIdea(ctx, id)
		require.NoError(t, err)
		assert.Nil(t, got.DeepDive)
		assert.False(t, got.DeepDiveRequested)
	}
}
