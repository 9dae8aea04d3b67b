package pitch

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/joescharf/ideas/internal/cache"
	"github.com/joescharf/ideas/internal/llm"
	"github.com/joescharf/ideas/internal/models"
	"github.com/joescharf/ideas/internal/parse"
	"github.com/joescharf/ideas/internal/store"
)

type reply struct {
	text string
	err  error
}

type scriptedGenerator struct {
	replies []reply
	prompts []string
}

func (g *scriptedGenerator) Generate(_ context.Context, prompt, _ string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	if len(g.replies) == 0 {
		return "", errors.New("no more replies")
	}
	r := g.replies[0]
	g.replies = g.replies[1:]
	return r.text, r.err
}

func setup(t *testing.T, gen llm.Generator) (*Generator, *store.SQLiteStore, *models.Collection, *cache.Memory) {
	t.Helper()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { _ = s.Close() })

	c := &models.Collection{Name: "ragflow", URL: "https://github.com/infiniflow/ragflow", Summary: "RAG engine based on deep document understanding"}
	require.NoError(t, s.CreateCollection(context.Background(), c))

	mem := cache.NewMemory(time.Minute)
	g := NewGenerator(s, gen, mem, Config{}, zaptest.NewLogger(t))
	g.sleep = func(ctx context.Context, _ time.Duration) error { return ctx.Err() }
	return g, s, c, mem
}

func TestFromCollection_SavesPitches(t *testing.T) {
	gen := &scriptedGenerator{replies: []reply{{text: `[
		{"title":"Museum Curation","hook":"Exhibits come alive","type":"side_hustle","score":8,"mvp_effort":4},
		{"title":"","hook":"untitled is skipped"},
		{"title":"Grant Finder","score":"9","mvp_effort":2}
	]`}}}
	g, s, c, mem := setup(t, gen)
	ctx := context.Background()
	require.NoError(t, mem.Set(ctx, cache.CollectionIdeasKey(c.ID), []byte("[]")))

	res, err := g.FromCollection(ctx, c)
	require.NoError(t, err)
	assert.True(t, res.Parsed)
	assert.Equal(t, 1, res.Attempts)
	require.Len(t, res.Ideas, 2)

	ideas, err := s.ListIdeas(ctx, store.IdeaListFilter{CollectionID: c.ID})
	require.NoError(t, err)
	require.Len(t, ideas, 2)
	for _, idea := range ideas {
		assert.Equal(t, models.IdeaStatusSuggested, idea.Status)
		assert.Contains(t, idea.LLMRawResponse, "Museum Curation")
		assert.False(t, IsSentinel(idea))
	}

	assert.Contains(t, gen.prompts[0], "RAG engine based on deep document understanding")
	_, ok, _ := mem.Get(ctx, cache.CollectionIdeasKey(c.ID))
	assert.False(t, ok, "collection cache invalidated")
}

func TestFromCollection_RetriesThenSucceeds(t *testing.T) {
	gen := &scriptedGenerator{replies: []reply{
		{err: llm.ErrGenerationUnavailable},
		{text: "I could not think of anything."},
		{text: `[{"title":"Third time"}]`},
	}}
	g, _, c, _ := setup(t, gen)

	res, err := g.FromCollection(context.Background(), c)
	require.NoError(t, err)
	assert.True(t, res.Parsed)
	assert.Equal(t, 3, res.Attempts)
	require.Len(t, res.Ideas, 1)
	assert.Equal(t, "Third time", res.Ideas[0].Title)
}

func TestFromCollection_SentinelOnUnparseableOutput(t *testing.T) {
	gen := &scriptedGenerator{replies: []reply{
		{text: "not json at all"},
		{text: "still not json"},
		{text: "final prose answer"},
	}}
	g, s, c, _ := setup(t, gen)
	ctx := context.Background()

	res, err := g.FromCollection(ctx, c)
	require.NoError(t, err)
	assert.False(t, res.Parsed)
	require.Len(t, res.Ideas, 1)

	ideas, err := s.ListIdeas(ctx, store.IdeaListFilter{CollectionID: c.ID})
	require.NoError(t, err)
	require.Len(t, ideas, 1)
	assert.Equal(t, parse.ErrorSentinelTitle, ideas[0].Title)
	assert.Equal(t, "final prose answer", ideas[0].LLMRawResponse)
	assert.True(t, IsSentinel(ideas[0]))
	assert.Nil(t, ideas[0].Score)
}

func TestFromCollection_AllAttemptsFail(t *testing.T) {
	gen := &scriptedGenerator{replies: []reply{
		{err: llm.ErrGenerationUnavailable},
		{err: llm.ErrGenerationUnavailable},
		{err: llm.ErrGenerationUnavailable},
	}}
	g, s, c, _ := setup(t, gen)
	ctx := context.Background()

	_, err := g.FromCollection(ctx, c)
	require.Error(t, err)
	assert.ErrorIs(t, err, llm.ErrGenerationUnavailable)

	ideas, err := s.ListIdeas(ctx, store.IdeaListFilter{CollectionID: c.ID})
	require.NoError(t, err)
	assert.Empty(t, ideas)
}

func TestFromCollection_EmptySummary(t *testing.T) {
	gen := &scriptedGenerator{replies: []reply{{text: `[{"title":"X"}]`}}}
	g, _, c, _ := setup(t, gen)
	c.Summary = "  "

	_, err := g.FromCollection(context.Background(), c)
	require.NoError(t, err)
	assert.Contains(t, gen.prompts[0], noDescription)
}
