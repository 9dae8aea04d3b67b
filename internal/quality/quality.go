// Package quality applies the score and effort bar ideas must clear.
package quality

import (
	"context"
	"fmt"

	"github.com/joescharf/ideas/internal/models"
	"github.com/joescharf/ideas/internal/store"
)

// Default thresholds.
const (
	DefaultMinScore  = 8
	DefaultMaxEffort = 4
)

// Criteria is the quality bar: score at least MinScore and MVP effort at
// most MaxEffort. Ideas missing either rating fail.
type Criteria struct {
	MinScore  int
	MaxEffort int
}

// DefaultCriteria returns the standard bar.
func DefaultCriteria() Criteria {
	return Criteria{MinScore: DefaultMinScore, MaxEffort: DefaultMaxEffort}
}

// Assessment explains whether an idea clears the bar.
type Assessment struct {
	Meets   bool
	Reasons []string
}

// Assess checks one idea against the criteria.
func (c Criteria) Assess(idea *models.Idea) Assessment {
	var reasons []string
	switch {
	case idea.Score == nil:
		reasons = append(reasons, "no score")
	case *idea.Score < c.MinScore:
		reasons = append(reasons, fmt.Sprintf("score %d < %d", *idea.Score, c.MinScore))
	}
	switch {
	case idea.MVPEffort == nil:
		reasons = append(reasons, "no MVP effort")
	case *idea.MVPEffort > c.MaxEffort:
		reasons = append(reasons, fmt.Sprintf("MVP effort %d > %d", *idea.MVPEffort, c.MaxEffort))
	}
	return Assessment{Meets: len(reasons) == 0, Reasons: reasons}
}

// Meets reports whether idea clears the bar.
func (c Criteria) Meets(idea *models.Idea) bool {
	return c.Assess(idea).Meets
}

// Store is the persistence Prune needs.
type Store interface {
	ListIdeas(ctx context.Context, filter store.IdeaListFilter) ([]*models.Idea, error)
	ListShortlist(ctx context.Context) ([]*models.Idea, error)
	DeleteIdea(ctx context.Context, id string) error
}

// Candidate is an idea selected for pruning.
type Candidate struct {
	Idea       *models.Idea
	Assessment Assessment
}

// Prune deletes ideas that miss the bar. Shortlisted ideas and ideas that
// already have a deep dive are kept. With dryRun nothing is deleted.
func (c Criteria) Prune(ctx context.Context, s Store, dryRun bool) ([]Candidate, error) {
	ideas, err := s.ListIdeas(ctx, store.IdeaListFilter{})
	if err != nil {
		return nil, err
	}
	shortlisted, err := s.ListShortlist(ctx)
	if err != nil {
		return nil, err
	}
	keep := make(map[string]bool, len(shortlisted))
	for _, idea := range shortlisted {
		keep[idea.ID] = true
	}

	var pruned []Candidate
	for _, idea := range ideas {
		if keep[idea.ID] || idea.DeepDive != nil || idea.DeepDiveRequested {
			continue
		}
		a := c.Assess(idea)
		if a.Meets {
			continue
		}
		if !dryRun {
			if err := s.DeleteIdea(ctx, idea.ID); err != nil {
				return pruned, fmt.Errorf("prune idea %s: %w", idea.ID, err)
			}
		}
		pruned = append(pruned, Candidate{Idea: idea, Assessment: a})
	}
	return pruned, nil
}
