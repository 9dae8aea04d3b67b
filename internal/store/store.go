package store

import (
	"context"

	"github.com/joescharf/ideas/internal/models"
)

// IdeaListFilter specifies filters for listing ideas.
type IdeaListFilter struct {
	CollectionID string
	Status       models.IdeaStatus
}

// Store defines the persistence interface for ideas.
type Store interface {
	// Collections
	CreateCollection(ctx context.Context, c *models.Collection) error
	GetCollection(ctx context.Context, id string) (*models.Collection, error)
	ListCollections(ctx context.Context) ([]*models.Collection, error)
	DeleteCollection(ctx context.Context, id string) error

	// Ideas
	CreateIdea(ctx context.Context, idea *models.Idea) error
	GetIdea(ctx context.Context, id string) (*models.Idea, error)
	ListIdeas(ctx context.Context, filter IdeaListFilter) ([]*models.Idea, error)
	UpdateIdea(ctx context.Context, idea *models.Idea) error
	DeleteIdea(ctx context.Context, id string) error

	// Workflow columns. Only the lifecycle engine calls these.
	UpdateIdeaStatus(ctx context.Context, id string, status models.IdeaStatus) error
	ClaimDeepDive(ctx context.Context, id string) (bool, error)
	ReleaseDeepDive(ctx context.Context, id string) error
	CompleteDeepDive(ctx context.Context, id string, dd models.DeepDive, raw string) error
	ClearDeepDive(ctx context.Context, id string) error

	// Deep dive versions
	CreateDeepDiveVersion(ctx context.Context, v *models.DeepDiveVersion) error
	ListDeepDiveVersions(ctx context.Context, ideaID string) ([]*models.DeepDiveVersion, error)
	GetDeepDiveVersion(ctx context.Context, ideaID string, number int) (*models.DeepDiveVersion, error)
	RestoreDeepDiveVersion(ctx context.Context, ideaID string, number int) (*models.Idea, error)
	DeleteDeepDiveVersion(ctx context.Context, ideaID string, number int) error

	// Shortlist
	AddToShortlist(ctx context.Context, ideaID string) (*models.ShortlistEntry, error)
	RemoveFromShortlist(ctx context.Context, ideaID string) error
	ListShortlist(ctx context.Context) ([]*models.Idea, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
