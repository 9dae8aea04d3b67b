package models

import (
	"fmt"
	"time"
)

// IdeaStatus represents where an idea sits in the review workflow.
type IdeaStatus string

const (
	IdeaStatusSuggested   IdeaStatus = "suggested"
	IdeaStatusDeepDive    IdeaStatus = "deep_dive"
	IdeaStatusIterating   IdeaStatus = "iterating"
	IdeaStatusConsidering IdeaStatus = "considering"
	IdeaStatusClosed      IdeaStatus = "closed"
)

// IdeaStatuses lists every workflow state in display order.
var IdeaStatuses = []IdeaStatus{
	IdeaStatusSuggested,
	IdeaStatusDeepDive,
	IdeaStatusIterating,
	IdeaStatusConsidering,
	IdeaStatusClosed,
}

// Valid reports whether s is a known workflow state.
func (s IdeaStatus) Valid() bool {
	for _, st := range IdeaStatuses {
		if s == st {
			return true
		}
	}
	return false
}

// ParseIdeaStatus validates a user-supplied status string.
func ParseIdeaStatus(s string) (IdeaStatus, error) {
	st := IdeaStatus(s)
	if !st.Valid() {
		return "", fmt.Errorf("%w: unknown status %q", ErrValidation, s)
	}
	return st, nil
}

// Pitch is a single generated idea before it is persisted.
type Pitch struct {
	Title          string `json:"title"`
	Hook           string `json:"hook"`
	Value          string `json:"value"`
	Evidence       string `json:"evidence"`
	Differentiator string `json:"differentiator"`
	CallToAction   string `json:"call_to_action"`
	Kind           string `json:"type"`
	Score          *int   `json:"score"`
	MVPEffort      *int   `json:"mvp_effort"`
}

// Idea is a pitch tracked through the review workflow.
type Idea struct {
	ID                  string
	CollectionID        string // empty when the idea has no owning collection
	Title               string
	Hook                string
	Value               string
	Evidence            string
	Differentiator      string
	CallToAction        string
	Kind                string
	Score               *int
	MVPEffort           *int
	Status              IdeaStatus
	DeepDive            *DeepDive
	DeepDiveRequested   bool
	LLMRawResponse      string // raw pitch generation output
	DeepDiveRawResponse string // raw deep dive generation output
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// NewIdeaFromPitch builds a suggested idea from a parsed pitch.
func NewIdeaFromPitch(collectionID string, p Pitch, raw string) *Idea {
	return &Idea{
		CollectionID:   collectionID,
		Title:          p.Title,
		Hook:           p.Hook,
		Value:          p.Value,
		Evidence:       p.Evidence,
		Differentiator: p.Differentiator,
		CallToAction:   p.CallToAction,
		Kind:           p.Kind,
		Score:          ClampRating(p.Score),
		MVPEffort:      ClampRating(p.MVPEffort),
		Status:         IdeaStatusSuggested,
		LLMRawResponse: raw,
	}
}

// Pitch returns the pitch fields of the idea.
func (i *Idea) Pitch() Pitch {
	return Pitch{
		Title:          i.Title,
		Hook:           i.Hook,
		Value:          i.Value,
		Evidence:       i.Evidence,
		Differentiator: i.Differentiator,
		CallToAction:   i.CallToAction,
		Kind:           i.Kind,
		Score:          i.Score,
		MVPEffort:      i.MVPEffort,
	}
}

// ClampRating keeps 1-10 ratings and drops anything else.
func ClampRating(v *int) *int {
	if v == nil || *v < 1 || *v > 10 {
		return nil
	}
	n := *v
	return &n
}

// IntPtr is a convenience for optional ratings.
func IntPtr(n int) *int { return &n }
