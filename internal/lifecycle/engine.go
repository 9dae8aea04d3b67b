// Package lifecycle owns the idea workflow: status transitions, the events
// they publish and the deep dive generation a transition to deep_dive starts.
// It is the only writer of an idea's status and deep dive guard.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/joescharf/ideas/internal/cache"
	"github.com/joescharf/ideas/internal/events"
	"github.com/joescharf/ideas/internal/llm"
	"github.com/joescharf/ideas/internal/models"
	"github.com/joescharf/ideas/internal/parse"
)

// ErrClosed is returned once the engine has stopped accepting work.
var ErrClosed = errors.New("lifecycle engine closed")

// Defaults.
const (
	DefaultWorkers     = 4
	DefaultTaskTimeout = 5 * time.Minute
	releaseTimeout     = 10 * time.Second
)

// Store is the persistence the engine drives.
type Store interface {
	GetIdea(ctx context.Context, id string) (*models.Idea, error)
	UpdateIdeaStatus(ctx context.Context, id string, status models.IdeaStatus) error
	ClaimDeepDive(ctx context.Context, id string) (bool, error)
	ReleaseDeepDive(ctx context.Context, id string) error
	CompleteDeepDive(ctx context.Context, id string, dd models.DeepDive, raw string) error
	ClearDeepDive(ctx context.Context, id string) error
}

// VersionRecorder appends a generated deep dive to the idea's history.
type VersionRecorder interface {
	Create(ctx context.Context, ideaID string, fields models.DeepDive, raw string) (*models.DeepDiveVersion, error)
}

// Config tunes background generation.
type Config struct {
	Workers     int64         // concurrent background generations
	TaskTimeout time.Duration // upper bound for one background generation
	Model       string        // model hint passed to the generator
	Profile     string        // founder profile used in prompts
}

// Deps are the collaborators the engine needs. Cache and Logger are optional.
type Deps struct {
	Store     Store
	Bus       events.Bus
	Generator llm.Generator
	Versions  VersionRecorder
	Cache     cache.Cache
	Logger    *zap.Logger
}

// Engine runs status transitions and their side effects.
type Engine struct {
	store    Store
	bus      events.Bus
	gen      llm.Generator
	versions VersionRecorder
	cache    cache.Cache
	cfg      Config
	logger   *zap.Logger

	sem *semaphore.Weighted
	wg  sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// New creates an engine and subscribes it to status updates on the bus.
func New(cfg Config, deps Deps) (*Engine, error) {
	if deps.Store == nil || deps.Bus == nil || deps.Generator == nil || deps.Versions == nil {
		return nil, errors.New("lifecycle: store, bus, generator and versions are required")
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.TaskTimeout <= 0 {
		cfg.TaskTimeout = DefaultTaskTimeout
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	e := &Engine{
		store:    deps.Store,
		bus:      deps.Bus,
		gen:      deps.Generator,
		versions: deps.Versions,
		cache:    deps.Cache,
		cfg:      cfg,
		logger:   logger.Named("lifecycle"),
		sem:      semaphore.NewWeighted(cfg.Workers),
	}
	if err := e.bus.Subscribe(events.TopicStatusUpdated, e.onStatusUpdated); err != nil {
		return nil, fmt.Errorf("subscribe to %s: %w", events.TopicStatusUpdated, err)
	}
	return e, nil
}

// ChangeStatus moves an idea to status and publishes the change. Moving to
// the current status is a no-op. Every other transition is allowed.
func (e *Engine) ChangeStatus(ctx context.Context, ideaID string, status models.IdeaStatus) (*models.Idea, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", models.ErrValidation, status)
	}
	idea, err := e.store.GetIdea(ctx, ideaID)
	if err != nil {
		return nil, err
	}
	if idea.Status == status {
		return idea, nil
	}
	if err := e.store.UpdateIdeaStatus(ctx, ideaID, status); err != nil {
		return nil, err
	}
	e.logger.Info("idea status updated",
		zap.String("idea_id", ideaID),
		zap.String("from", string(idea.Status)),
		zap.String("to", string(status)))

	ev := events.Event{
		IdeaID:       ideaID,
		Status:       status,
		CollectionID: idea.CollectionID,
		OccurredAt:   time.Now().UTC(),
	}
	published := true
	if err := e.bus.Publish(ctx, events.TopicStatusUpdated, ev); err != nil {
		e.logger.Error("publish status update", zap.String("idea_id", ideaID), zap.Error(err))
		published = false
	}

	fresh, err := e.store.GetIdea(ctx, ideaID)
	if err != nil {
		fresh = idea
		fresh.Status = status
	}
	// An asynchronous bus returns before the subscriber has claimed the
	// guard. The claim is queued, so report it as requested.
	if status == models.IdeaStatusDeepDive && published && !e.bus.Synchronous() {
		fresh.DeepDiveRequested = true
	}
	return fresh, nil
}

func (e *Engine) onStatusUpdated(ctx context.Context, ev events.Event) error {
	if e.cache != nil && ev.CollectionID != "" {
		key := cache.CollectionIdeasKey(ev.CollectionID)
		if err := e.cache.Delete(ctx, key); err != nil {
			e.logger.Warn("cache invalidation failed", zap.String("key", key), zap.Error(err))
		} else {
			e.logger.Debug("cache invalidated", zap.String("key", key))
		}
	}
	if ev.Status != models.IdeaStatusDeepDive {
		return nil
	}
	return e.trigger(ctx, ev.IdeaID)
}

// trigger claims the idea's guard and starts a background generation. A
// guard that is already set means a generation is in flight; the request is
// dropped.
func (e *Engine) trigger(ctx context.Context, ideaID string) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		e.logger.Warn("engine closed, deep dive not started", zap.String("idea_id", ideaID))
		return nil
	}
	e.wg.Add(1)
	e.mu.Unlock()

	claimed, err := e.store.ClaimDeepDive(ctx, ideaID)
	if err != nil {
		e.wg.Done()
		if errors.Is(err, models.ErrNotFound) {
			e.logger.Warn("idea not found for deep dive trigger", zap.String("idea_id", ideaID))
			return nil
		}
		return fmt.Errorf("claim deep dive for %s: %w", ideaID, err)
	}
	if !claimed {
		e.wg.Done()
		e.logger.Info("deep dive already requested", zap.String("idea_id", ideaID))
		return nil
	}

	e.logger.Info("deep dive triggered", zap.String("idea_id", ideaID))
	go e.runTask(context.WithoutCancel(ctx), ideaID)
	return nil
}

func (e *Engine) runTask(parent context.Context, ideaID string) {
	defer e.wg.Done()
	ctx, cancel := context.WithTimeout(parent, e.cfg.TaskTimeout)
	defer cancel()

	if err := e.sem.Acquire(ctx, 1); err != nil {
		e.logger.Error("no worker available for deep dive", zap.String("idea_id", ideaID), zap.Error(err))
		e.release(ctx, ideaID)
		return
	}
	defer e.sem.Release(1)

	start := time.Now()
	if _, err := e.generate(ctx, ideaID, nil); err != nil {
		e.logger.Error("background deep dive failed",
			zap.String("idea_id", ideaID),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return
	}
	e.logger.Info("background deep dive saved",
		zap.String("idea_id", ideaID),
		zap.Duration("elapsed", time.Since(start)))
}

// generate runs one guarded generation for an idea whose guard the caller
// holds. The guard is cleared on every exit path. edited, when non-nil, is
// passed to the generator as prior context.
func (e *Engine) generate(ctx context.Context, ideaID string, edited models.DeepDive) (dd models.DeepDive, err error) {
	saved := false
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("deep dive generation for %s panicked: %v", ideaID, r)
		}
		if !saved {
			e.release(ctx, ideaID)
		}
	}()

	idea, err := e.store.GetIdea(ctx, ideaID)
	if err != nil {
		return nil, err
	}

	prompt := llm.BuildDeepDivePrompt(e.cfg.Profile, idea.Pitch())
	if edited != nil {
		prompt = llm.BuildRegeneratePrompt(e.cfg.Profile, idea.Pitch(), edited)
	}
	raw, err := e.gen.Generate(ctx, prompt, e.cfg.Model)
	if err != nil {
		return nil, fmt.Errorf("generate deep dive for %s: %w", ideaID, err)
	}

	parsed, outcome := parse.ParseDeepDive(raw)
	if outcome == parse.ParseDegraded {
		e.logger.Warn("deep dive parse degraded, keeping raw response",
			zap.String("idea_id", ideaID), zap.Int("raw_len", len(raw)))
	} else {
		e.logger.Debug("deep dive parsed", zap.String("idea_id", ideaID), zap.Stringer("outcome", outcome))
	}

	if err := e.store.CompleteDeepDive(ctx, ideaID, parsed, raw); err != nil {
		return nil, fmt.Errorf("save deep dive for %s: %w", ideaID, err)
	}
	saved = true

	if _, err := e.versions.Create(ctx, ideaID, parsed, raw); err != nil {
		e.logger.Error("record deep dive version", zap.String("idea_id", ideaID), zap.Error(err))
	}
	return parsed, nil
}

// release clears the guard with a context that survives ctx's cancellation.
func (e *Engine) release(ctx context.Context, ideaID string) {
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
	defer cancel()
	if err := e.store.ReleaseDeepDive(rctx, ideaID); err != nil {
		e.logger.Error("release deep dive guard", zap.String("idea_id", ideaID), zap.Error(err))
	}
}

// Wait blocks until every background generation started so far has finished.
func (e *Engine) Wait() {
	e.wg.Wait()
}

// Close stops new background generations and waits for running ones.
func (e *Engine) Close() error {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
	e.wg.Wait()
	return nil
}
