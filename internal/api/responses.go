package api

import (
	"time"

	"github.com/joescharf/ideas/internal/models"
)

type collectionResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	URL       string    `json:"url,omitempty"`
	Summary   string    `json:"summary,omitempty"`
	Language  string    `json:"language,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func toCollectionResponse(c *models.Collection) collectionResponse {
	return collectionResponse{
		ID:        c.ID,
		Name:      c.Name,
		URL:       c.URL,
		Summary:   c.Summary,
		Language:  c.Language,
		CreatedAt: c.CreatedAt,
	}
}

// ideaResponse is the full JSON view of an idea.
type ideaResponse struct {
	ID                  string            `json:"id"`
	CollectionID        string            `json:"collection_id,omitempty"`
	Title               string            `json:"title"`
	Hook                string            `json:"hook"`
	Value               string            `json:"value"`
	Evidence            string            `json:"evidence"`
	Differentiator      string            `json:"differentiator"`
	CallToAction        string            `json:"call_to_action"`
	Type                string            `json:"type"`
	Score               *int              `json:"score"`
	MVPEffort           *int              `json:"mvp_effort"`
	Status              string            `json:"status"`
	DeepDive            map[string]string `json:"deep_dive"`
	DeepDiveRequested   bool              `json:"deep_dive_requested"`
	LLMRawResponse      string            `json:"llm_raw_response,omitempty"`
	DeepDiveRawResponse string            `json:"deep_dive_raw_response,omitempty"`
	CreatedAt           time.Time         `json:"created_at"`
	UpdatedAt           time.Time         `json:"updated_at"`
}

func toIdeaResponse(i *models.Idea) ideaResponse {
	resp := ideaResponse{
		ID:                  i.ID,
		CollectionID:        i.CollectionID,
		Title:               i.Title,
		Hook:                i.Hook,
		Value:               i.Value,
		Evidence:            i.Evidence,
		Differentiator:      i.Differentiator,
		CallToAction:        i.CallToAction,
		Type:                i.Kind,
		Score:               i.Score,
		MVPEffort:           i.MVPEffort,
		Status:              string(i.Status),
		DeepDiveRequested:   i.DeepDiveRequested,
		LLMRawResponse:      i.LLMRawResponse,
		DeepDiveRawResponse: i.DeepDiveRawResponse,
		CreatedAt:           i.CreatedAt,
		UpdatedAt:           i.UpdatedAt,
	}
	if i.DeepDive != nil {
		resp.DeepDive = *i.DeepDive
	}
	return resp
}

func toIdeaResponses(ideas []*models.Idea) []ideaResponse {
	out := make([]ideaResponse, 0, len(ideas))
	for _, i := range ideas {
		out = append(out, toIdeaResponse(i))
	}
	return out
}

// ideaSummary is the cached list view of an idea.
type ideaSummary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Hook      string    `json:"hook"`
	Type      string    `json:"type"`
	Score     *int      `json:"score"`
	MVPEffort *int      `json:"mvp_effort"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

func toIdeaSummary(i *models.Idea) ideaSummary {
	return ideaSummary{
		ID:        i.ID,
		Title:     i.Title,
		Hook:      i.Hook,
		Type:      i.Kind,
		Score:     i.Score,
		MVPEffort: i.MVPEffort,
		Status:    string(i.Status),
		CreatedAt: i.CreatedAt,
	}
}

type versionResponse struct {
	ID             string            `json:"id"`
	IdeaID         string            `json:"idea_id"`
	VersionNumber  int               `json:"version_number"`
	Fields         map[string]string `json:"fields"`
	LLMRawResponse string            `json:"llm_raw_response,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
}

func toVersionResponse(v *models.DeepDiveVersion) versionResponse {
	return versionResponse{
		ID:             v.ID,
		IdeaID:         v.IdeaID,
		VersionNumber:  v.VersionNumber,
		Fields:         v.Fields,
		LLMRawResponse: v.LLMRawResponse,
		CreatedAt:      v.CreatedAt,
	}
}
