package lifecycle

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/ideas/internal/llm"
	"github.com/joescharf/ideas/internal/models"
)

func TestGenerateDeepDive(t *testing.T) {
	ctx := context.Background()

	t.Run("generates inline when absent", func(t *testing.T) {
		gen := &fakeGenerator{text: deepDiveText}
		env := newTestEnv(t, gen)
		idea := env.createIdea(t, "")

		res, err := env.engine.GenerateDeepDive(ctx, idea.ID)
		require.NoError(t, err)
		assert.Equal(t, DeepDiveCompleted, res.Status)
		assert.Equal(t, "Worth building.", res.DeepDive[models.SectionSummary])

		got, err := env.store.GetIdea(ctx, idea.ID)
		require.NoError(t, err)
		assert.False(t, got.DeepDiveRequested)
		assert.NotNil(t, got.DeepDive)
		assert.Equal(t, models.IdeaStatusSuggested, got.Status, "inline generation does not change status")

		vs, err := env.versions.List(ctx, idea.ID)
		require.NoError(t, err)
		assert.Len(t, vs, 1)
	})

	t.Run("returns existing deep dive without generating", func(t *testing.T) {
		gen := &fakeGenerator{text: deepDiveText}
		env := newTestEnv(t, gen)
		idea := env.createIdea(t, "")
		existing := models.NewDeepDive()
		existing[models.SectionTiming] = "already here"
		require.NoError(t, env.store.CompleteDeepDive(ctx, idea.ID, existing, "raw"))

		res, err := env.engine.GenerateDeepDive(ctx, idea.ID)
		require.NoError(t, err)
		assert.Equal(t, DeepDiveCompleted, res.Status)
		assert.Equal(t, "already here", res.DeepDive[models.SectionTiming])
		assert.Zero(t, gen.Calls())
	})

	t.Run("pending while guard is held", func(t *testing.T) {
		gen := &fakeGenerator{text: deepDiveText}
		env := newTestEnv(t, gen)
		idea := env.createIdea(t, "")
		claimed, err := env.store.ClaimDeepDive(ctx, idea.ID)
		require.NoError(t, err)
		require.True(t, claimed)

		res, err := env.engine.GenerateDeepDive(ctx, idea.ID)
		require.NoError(t, err)
		assert.Equal(t, DeepDivePending, res.Status)
		assert.Nil(t, res.DeepDive)
		assert.Zero(t, gen.Calls())
	})

	t.Run("not found", func(t *testing.T) {
		env := newTestEnv(t, &fakeGenerator{text: deepDiveText})
		_, err := env.engine.GenerateDeepDive(ctx, "missing")
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("generation unavailable restores guard", func(t *testing.T) {
		gen := &fakeGenerator{err: fmt.Errorf("%w after 3 attempts", llm.ErrGenerationUnavailable)}
		env := newTestEnv(t, gen)
		idea := env.createIdea(t, "")

		_, err := env.engine.GenerateDeepDive(ctx, idea.ID)
		require.Error(t, err)
		assert.ErrorIs(t, err, llm.ErrGenerationUnavailable)

		got, err := env.store.GetIdea(ctx, idea.ID)
		require.NoError(t, err)
		assert.False(t, got.DeepDiveRequested)
		assert.Nil(t, got.DeepDive)
	})

	t.Run("cancelled request still clears guard", func(t *testing.T) {
		gen := &fakeGenerator{text: deepDiveText, gate: make(chan struct{}), started: make(chan struct{}, 1)}
		env := newTestEnv(t, gen)
		idea := env.createIdea(t, "")

		cctx, cancel := context.WithCancel(ctx)
		errc := make(chan error, 1)
		go func() {
			_, err := env.engine.GenerateDeepDive(cctx, idea.ID)
			errc <- err
		}()
		<-gen.started
		cancel()
		require.Error(t, <-errc)

		got, err := env.store.GetIdea(ctx, idea.ID)
		require.NoError(t, err)
		assert.False(t, got.DeepDiveRequested)
		assert.Nil(t, got.DeepDive)
	})
}

func TestRegenerateDeepDive(t *testing.T) {
	ctx := context.Background()

	t.Run("uses edited sections and records a new version", func(t *testing.T) {
		gen := &fakeGenerator{text: deepDiveText}
		env := newTestEnv(t, gen)
		idea := env.createIdea(t, "")

		_, err := env.engine.GenerateDeepDive(ctx, idea.ID)
		require.NoError(t, err)

		edited := models.DeepDive{models.SectionTiming: "A new regulation lands in 2027."}
		got, err := env.engine.RegenerateDeepDive(ctx, idea.ID, edited)
		require.NoError(t, err)
		assert.False(t, got.DeepDiveRequested)
		require.NotNil(t, got.DeepDive)

		require.Equal(t, 2, gen.Calls())
		assert.Contains(t, gen.prompts[1], "A new regulation lands in 2027.")

		vs, err := env.versions.List(ctx, idea.ID)
		require.NoError(t, err)
		require.Len(t, vs, 2)
		assert.Equal(t, 2, vs[0].VersionNumber)
	})

	t.Run("conflict while generation in flight", func(t *testing.T) {
		env := newTestEnv(t, &fakeGenerator{text: deepDiveText})
		idea := env.createIdea(t, "")
		_, err := env.store.ClaimDeepDive(ctx, idea.ID)
		require.NoError(t, err)

		_, err = env.engine.RegenerateDeepDive(ctx, idea.ID, nil)
		assert.ErrorIs(t, err, models.ErrConflict)
	})

	t.Run("not found", func(t *testing.T) {
		env := newTestEnv(t, &fakeGenerator{text: deepDiveText})
		_, err := env.engine.RegenerateDeepDive(ctx, "missing", nil)
		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}

func TestClearDeepDive(t *testing.T) {
	ctx := context.Background()

	t.Run("drops deep dive and keeps versions", func(t *testing.T) {
		gen := &fakeGenerator{text: deepDiveText}
		env := newTestEnv(t, gen)
		idea := env.createIdea(t, "")

		_, err := env.engine.GenerateDeepDive(ctx, idea.ID)
		require.NoError(t, err)

		got, err := env.engine.ClearDeepDive(ctx, idea.ID)
		require.NoError(t, err)
		assert.Nil(t, got.DeepDive)
		assert.Empty(t, got.DeepDiveRawResponse)
		assert.False(t, got.DeepDiveRequested)

		vs, err := env.versions.List(ctx, idea.ID)
		require.NoError(t, err)
		assert.Len(t, vs, 1)

		// A fresh request generates again.
		res, err := env.engine.GenerateDeepDive(ctx, idea.ID)
		require.NoError(t, err)
		assert.Equal(t, DeepDiveCompleted, res.Status)
		assert.Equal(t, 2, gen.Calls())
	})

	t.Run("recovers a stuck guard", func(t *testing.T) {
		env := newTestEnv(t, &fakeGenerator{text: deepDiveText})
		idea := env.createIdea(t, "")
		claimed, err := env.store.ClaimDeepDive(ctx, idea.ID)
		require.NoError(t, err)
		require.True(t, claimed)

		got, err := env.engine.ClearDeepDive(ctx, idea.ID)
		require.NoError(t, err)
		assert.False(t, got.DeepDiveRequested)
	})

	t.Run("not found", func(t *testing.T) {
		env := newTestEnv(t, &fakeGenerator{text: deepDiveText})
		_, err := env.engine.ClearDeepDive(ctx, "missing")
		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}
