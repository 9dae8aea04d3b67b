// Package versions keeps the append-only history of deep dives for an idea.
package versions

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/joescharf/ideas/internal/models"
)

// Store is the slice of persistence the version history needs.
type Store interface {
	GetIdea(ctx context.Context, id string) (*models.Idea, error)
	CreateDeepDiveVersion(ctx context.Context, v *models.DeepDiveVersion) error
	ListDeepDiveVersions(ctx context.Context, ideaID string) ([]*models.DeepDiveVersion, error)
	GetDeepDiveVersion(ctx context.Context, ideaID string, number int) (*models.DeepDiveVersion, error)
	RestoreDeepDiveVersion(ctx context.Context, ideaID string, number int) (*models.Idea, error)
	DeleteDeepDiveVersion(ctx context.Context, ideaID string, number int) error
}

// Service creates, lists and restores deep dive versions.
type Service struct {
	store  Store
	logger *zap.Logger
}

// New creates a version service.
func New(s Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: s, logger: logger.Named("versions")}
}

// Create records fields as the next version of the idea's deep dive.
// Numbering starts at 1 and is assigned atomically by the store.
func (s *Service) Create(ctx context.Context, ideaID string, fields models.DeepDive, raw string) (*models.DeepDiveVersion, error) {
	v := &models.DeepDiveVersion{
		IdeaID:         ideaID,
		Fields:         fields.Normalize(),
		LLMRawResponse: raw,
	}
	if err := s.store.CreateDeepDiveVersion(ctx, v); err != nil {
		return nil, err
	}
	s.logger.Info("deep dive version created",
		zap.String("idea_id", ideaID), zap.Int("version", v.VersionNumber))
	return v, nil
}

// List returns the idea's versions, newest first.
func (s *Service) List(ctx context.Context, ideaID string) ([]*models.DeepDiveVersion, error) {
	if _, err := s.store.GetIdea(ctx, ideaID); err != nil {
		return nil, err
	}
	vs, err := s.store.ListDeepDiveVersions(ctx, ideaID)
	if err != nil {
		return nil, err
	}
	if vs == nil {
		vs = []*models.DeepDiveVersion{}
	}
	return vs, nil
}

// Get returns version number of the idea.
func (s *Service) Get(ctx context.Context, ideaID string, number int) (*models.DeepDiveVersion, error) {
	if err := validNumber(number); err != nil {
		return nil, err
	}
	return s.store.GetDeepDiveVersion(ctx, ideaID, number)
}

// Restore copies a version back onto the idea's live deep dive without
// adding to the history.
func (s *Service) Restore(ctx context.Context, ideaID string, number int) (*models.Idea, error) {
	if err := validNumber(number); err != nil {
		return nil, err
	}
	if _, err := s.store.GetIdea(ctx, ideaID); err != nil {
		return nil, err
	}
	idea, err := s.store.RestoreDeepDiveVersion(ctx, ideaID, number)
	if err != nil {
		return nil, err
	}
	s.logger.Info("deep dive version restored",
		zap.String("idea_id", ideaID), zap.Int("version", number))
	return idea, nil
}

// Delete removes a single version. Administrative use only.
func (s *Service) Delete(ctx context.Context, ideaID string, number int) error {
	if err := validNumber(number); err != nil {
		return err
	}
	if err := s.store.DeleteDeepDiveVersion(ctx, ideaID, number); err != nil {
		return err
	}
	s.logger.Warn("deep dive version deleted",
		zap.String("idea_id", ideaID), zap.Int("version", number))
	return nil
}

func validNumber(n int) error {
	if n < 1 {
		return fmt.Errorf("%w: version number must be >= 1, got %d", models.ErrValidation, n)
	}
	return nil
}
