package lifecycle

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/joescharf/ideas/internal/models"
)

// DeepDiveStatus is the state reported by GenerateDeepDive.
type DeepDiveStatus string

const (
	DeepDiveCompleted DeepDiveStatus = "completed"
	DeepDivePending   DeepDiveStatus = "pending"
)

// DeepDiveResult is returned by GenerateDeepDive.
type DeepDiveResult struct {
	Status   DeepDiveStatus
	DeepDive models.DeepDive // nil while pending
}

// GenerateDeepDive returns the idea's deep dive, generating it inline when
// none exists and no generation is in flight. A failed generation leaves the
// idea as it was and returns an error wrapping llm.ErrGenerationUnavailable.
func (e *Engine) GenerateDeepDive(ctx context.Context, ideaID string) (*DeepDiveResult, error) {
	idea, err := e.store.GetIdea(ctx, ideaID)
	if err != nil {
		return nil, err
	}
	if idea.DeepDive != nil {
		return &DeepDiveResult{Status: DeepDiveCompleted, DeepDive: *idea.DeepDive}, nil
	}
	if idea.DeepDiveRequested {
		return &DeepDiveResult{Status: DeepDivePending}, nil
	}

	claimed, err := e.store.ClaimDeepDive(ctx, ideaID)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return &DeepDiveResult{Status: DeepDivePending}, nil
	}

	e.logger.Info("deep dive requested inline", zap.String("idea_id", ideaID))
	dd, err := e.generate(ctx, ideaID, nil)
	if err != nil {
		return nil, err
	}
	return &DeepDiveResult{Status: DeepDiveCompleted, DeepDive: dd}, nil
}

// RegenerateDeepDive asks for a new deep dive that builds on edited
// sections, applies it to the idea and records it as a new version. It fails
// with models.ErrConflict while another generation holds the guard.
func (e *Engine) RegenerateDeepDive(ctx context.Context, ideaID string, edited models.DeepDive) (*models.Idea, error) {
	if edited == nil {
		edited = models.NewDeepDive()
	}
	claimed, err := e.store.ClaimDeepDive(ctx, ideaID)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, fmt.Errorf("idea %s: deep dive generation already in progress: %w", ideaID, models.ErrConflict)
	}

	e.logger.Info("deep dive regeneration requested", zap.String("idea_id", ideaID))
	if _, err := e.generate(ctx, ideaID, edited.Normalize()); err != nil {
		return nil, err
	}
	return e.store.GetIdea(ctx, ideaID)
}

// ClearDeepDive drops the idea's current deep dive and resets the guard, so
// the next deep_dive transition generates again. It also recovers an idea
// whose guard was left set by a process that died mid-generation. Recorded
// versions are kept.
func (e *Engine) ClearDeepDive(ctx context.Context, ideaID string) (*models.Idea, error) {
	idea, err := e.store.GetIdea(ctx, ideaID)
	if err != nil {
		return nil, err
	}
	if err := e.store.ClearDeepDive(ctx, ideaID); err != nil {
		return nil, err
	}
	e.logger.Info("deep dive cleared",
		zap.String("idea_id", ideaID),
		zap.Bool("was_pending", idea.DeepDiveRequested))
	return e.store.GetIdea(ctx, ideaID)
}
