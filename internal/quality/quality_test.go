package quality

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/ideas/internal/models"
	"github.com/joescharf/ideas/internal/store"
)

func idea(score, effort *int) *models.Idea {
	return &models.Idea{Title: "t", Score: score, MVPEffort: effort}
}

func TestAssess(t *testing.T) {
	c := DefaultCriteria()
	p := models.IntPtr

	tests := []struct {
		name    string
		idea    *models.Idea
		meets   bool
		reasons int
	}{
		{"strong and cheap", idea(p(9), p(2)), true, 0},
		{"boundary", idea(p(8), p(4)), true, 0},
		{"low score", idea(p(7), p(2)), false, 1},
		{"high effort", idea(p(9), p(5)), false, 1},
		{"both missing", idea(nil, nil), false, 2},
		{"missing effort", idea(p(10), nil), false, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := c.Assess(tt.idea)
			assert.Equal(t, tt.meets, a.Meets)
			assert.Len(t, a.Reasons, tt.reasons)
			assert.Equal(t, tt.meets, c.Meets(tt.idea))
		})
	}
}

func TestPrune(t *testing.T) {
	ctx := context.Background()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate(ctx))
	defer func() { _ = s.Close() }()

	p := models.IntPtr
	good := &models.Idea{Title: "good", Score: p(9), MVPEffort: p(3)}
	weak := &models.Idea{Title: "weak", Score: p(5), MVPEffort: p(3)}
	unrated := &models.Idea{Title: "unrated"}
	listed := &models.Idea{Title: "weak but shortlisted", Score: p(4), MVPEffort: p(9)}
	analysed := &models.Idea{Title: "weak with deep dive", Score: p(3)}
	for _, i := range []*models.Idea{good, weak, unrated, listed, analysed} {
		require.NoError(t, s.CreateIdea(ctx, i))
	}
	_, err = s.AddToShortlist(ctx, listed.ID)
	require.NoError(t, err)
	require.NoError(t, s.CompleteDeepDive(ctx, analysed.ID, models.NewDeepDive(), "raw"))

	c := DefaultCriteria()

	t.Run("dry run deletes nothing", func(t *testing.T) {
		pruned, err := c.Prune(ctx, s, true)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{weak.ID, unrated.ID}, candidateIDs(pruned))

		all, err := s.ListIdeas(ctx, store.IdeaListFilter{})
		require.NoError(t, err)
		assert.Len(t, all, 5)
	})

	t.Run("prune deletes weak ideas", func(t *testing.T) {
		pruned, err := c.Prune(ctx, s, false)
		require.NoError(t, err)
		assert.Len(t, pruned, 2)

		all, err := s.ListIdeas(ctx, store.IdeaListFilter{})
		require.NoError(t, err)
		var titles []string
		for _, i := range all {
			titles = append(titles, i.Title)
		}
		assert.ElementsMatch(t, []string{"good", "weak but shortlisted", "weak with deep dive"}, titles)
	})
}

func candidateIDs(cs []Candidate) []string {
	ids := make([]string, 0, len(cs))
	for _, c := range cs {
		ids = append(ids, c.Idea.ID)
	}
	return ids
}
