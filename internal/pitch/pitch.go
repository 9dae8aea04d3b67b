// Package pitch turns a collection description into suggested ideas.
package pitch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/joescharf/ideas/internal/cache"
	"github.com/joescharf/ideas/internal/llm"
	"github.com/joescharf/ideas/internal/models"
	"github.com/joescharf/ideas/internal/parse"
)

// Defaults.
const (
	DefaultMaxAttempts = 3
	DefaultRetryDelay  = 3 * time.Second
	noDescription      = "No description provided."
)

// Store is the persistence the pipeline writes to.
type Store interface {
	CreateIdea(ctx context.Context, idea *models.Idea) error
}

// Config tunes the pipeline.
type Config struct {
	MaxAttempts int           // generate-and-parse rounds before giving up
	RetryDelay  time.Duration // pause between rounds
	Model       string
	Profile     string
}

// Result describes one pipeline run.
type Result struct {
	Ideas    []*models.Idea
	Parsed   bool // false when only the error sentinel was stored
	Attempts int
}

// Generator produces ideas for collections.
type Generator struct {
	store  Store
	gen    llm.Generator
	cache  cache.Cache
	cfg    Config
	logger *zap.Logger

	sleep func(ctx context.Context, d time.Duration) error
}

// NewGenerator creates a pitch pipeline. c may be nil.
func NewGenerator(s Store, gen llm.Generator, c cache.Cache, cfg Config, logger *zap.Logger) *Generator {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.RetryDelay < 0 {
		cfg.RetryDelay = 0
	} else if cfg.RetryDelay == 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{
		store:  s,
		gen:    gen,
		cache:  c,
		cfg:    cfg,
		logger: logger.Named("pitch"),
		sleep:  sleep,
	}
}

// FromCollection generates pitches from the collection summary and stores
// one suggested idea per titled pitch. When no round yields a pitch, a single
// sentinel idea holding the last raw response is stored instead so the output
// can be inspected. An error is returned only when nothing could be stored.
func (g *Generator) FromCollection(ctx context.Context, c *models.Collection) (*Result, error) {
	summary := strings.TrimSpace(c.Summary)
	if summary == "" {
		summary = noDescription
	}
	prompt := llm.BuildPitchPrompt(g.cfg.Profile, summary)

	var lastRaw string
	var lastErr error
	for attempt := 1; attempt <= g.cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			if err := g.sleep(ctx, g.cfg.RetryDelay); err != nil {
				return nil, err
			}
		}

		raw, err := g.gen.Generate(ctx, prompt, g.cfg.Model)
		if err != nil {
			lastErr = err
			g.logger.Warn("pitch generation failed",
				zap.String("collection", c.Name), zap.Int("attempt", attempt), zap.Error(err))
			continue
		}
		lastRaw = raw

		pitches := parse.ParsePitches(raw)
		if !parse.HasTitledPitch(pitches) {
			g.logger.Warn("no pitches parsed",
				zap.String("collection", c.Name), zap.Int("attempt", attempt), zap.Int("raw_len", len(raw)))
			continue
		}

		ideas, err := g.save(ctx, c.ID, pitches, raw)
		if err != nil {
			return nil, err
		}
		g.logger.Info("ideas saved",
			zap.String("collection", c.Name), zap.Int("count", len(ideas)), zap.Int("attempt", attempt))
		return &Result{Ideas: ideas, Parsed: true, Attempts: attempt}, nil
	}

	if lastRaw == "" {
		return nil, fmt.Errorf("generate ideas for %s after %d attempts: %w", c.Name, g.cfg.MaxAttempts, lastErr)
	}

	sentinel := &models.Idea{
		CollectionID:   c.ID,
		Title:          parse.ErrorSentinelTitle,
		Status:         models.IdeaStatusSuggested,
		LLMRawResponse: lastRaw,
	}
	if err := g.store.CreateIdea(ctx, sentinel); err != nil {
		return nil, fmt.Errorf("save sentinel idea: %w", err)
	}
	g.invalidate(ctx, c.ID)
	g.logger.Warn("saved raw response as sentinel idea", zap.String("collection", c.Name), zap.String("idea_id", sentinel.ID))
	return &Result{Ideas: []*models.Idea{sentinel}, Parsed: false, Attempts: g.cfg.MaxAttempts}, nil
}

func (g *Generator) save(ctx context.Context, collectionID string, pitches []models.Pitch, raw string) ([]*models.Idea, error) {
	var ideas []*models.Idea
	for _, p := range pitches {
		if strings.TrimSpace(p.Title) == "" {
			continue
		}
		idea := models.NewIdeaFromPitch(collectionID, p, raw)
		if err := g.store.CreateIdea(ctx, idea); err != nil {
			return ideas, fmt.Errorf("save idea %q: %w", p.Title, err)
		}
		ideas = append(ideas, idea)
	}
	g.invalidate(ctx, collectionID)
	return ideas, nil
}

func (g *Generator) invalidate(ctx context.Context, collectionID string) {
	if g.cache == nil || collectionID == "" {
		return
	}
	if err := g.cache.Delete(ctx, cache.CollectionIdeasKey(collectionID)); err != nil {
		g.logger.Warn("cache invalidation failed", zap.String("collection_id", collectionID), zap.Error(err))
	}
}

// IsSentinel reports whether idea is the placeholder stored for unparseable output.
func IsSentinel(idea *models.Idea) bool {
	return idea.Title == parse.ErrorSentinelTitle
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
