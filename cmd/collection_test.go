package cmd

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/ideas/internal/github"
	"github.com/joescharf/ideas/internal/models"
)

type stubGitHub struct {
	info *github.RepoInfo
	err  error
	got  string
}

func (s *stubGitHub) RepoInfo(_ context.Context, owner, repo string) (*github.RepoInfo, error) {
	s.got = owner + "/" + repo
	return s.info, s.err
}

func resetCollectionFlags(t *testing.T) {
	t.Cleanup(func() {
		collectionName, collectionURL, collectionSummary, collectionLanguage = "", "", "", ""
		collectionGitHub = ""
		collectionGenerate = false
	})
}

func TestImportFromGitHub(t *testing.T) {
	testEnv(t)
	gh := &stubGitHub{info: &github.RepoInfo{
		Owner: "joescharf", Name: "pm", Description: "Project manager", Language: "Go",
	}}

	c, err := importFromGitHub(context.Background(), gh, "https://github.com/joescharf/pm.git")
	require.NoError(t, err)
	assert.Equal(t, "joescharf/pm", gh.got)
	assert.Equal(t, "joescharf/pm", c.Name)
	assert.Equal(t, "Project manager", c.Summary)
	assert.Equal(t, "Go", c.Language)
}

func TestImportFromGitHub_Errors(t *testing.T) {
	testEnv(t)

	_, err := importFromGitHub(context.Background(), &stubGitHub{}, "nope")
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = importFromGitHub(context.Background(), &stubGitHub{err: errors.New("gh: not logged in")}, "a/b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch a/b")
}

func TestApplyCollectionFlags(t *testing.T) {
	resetCollectionFlags(t)
	c := &models.Collection{Name: "joescharf/pm", Summary: "from GitHub", Language: "Go"}

	collectionSummary = "my own words"
	applyCollectionFlags(c)
	assert.Equal(t, "joescharf/pm", c.Name)
	assert.Equal(t, "my own words", c.Summary)
	assert.Equal(t, "Go", c.Language)
}

func TestCollectionAddRun(t *testing.T) {
	s, buf := cliEnv(t)
	resetCollectionFlags(t)

	collectionName = "  invoicing  "
	collectionSummary = "Invoices for freelancers"
	require.NoError(t, collectionAddRun())
	assert.Contains(t, buf.String(), "Created collection")

	list, err := s.ListCollections(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "invoicing", list[0].Name)
	assert.Equal(t, "Invoices for freelancers", list[0].Summary)
}

func TestCollectionAddRun_RequiresName(t *testing.T) {
	cliEnv(t)
	resetCollectionFlags(t)

	err := collectionAddRun()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--name is required")
}

func TestCollectionShowRun_ListsIdeas(t *testing.T) {
	s, buf := cliEnv(t)
	ctx := context.Background()

	c := &models.Collection{Name: "pm", Summary: "Project manager"}
	require.NoError(t, s.CreateCollection(ctx, c))
	seedIdea(t, s, c.ID, "Standup digest", models.IntPtr(8), models.IntPtr(2))

	require.NoError(t, collectionShowRun(c.ID))
	out := buf.String()
	assert.Contains(t, out, "Project manager")
	assert.Contains(t, out, "Standup digest")
}
