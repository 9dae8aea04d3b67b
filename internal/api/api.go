package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/joescharf/ideas/internal/cache"
	"github.com/joescharf/ideas/internal/lifecycle"
	"github.com/joescharf/ideas/internal/llm"
	"github.com/joescharf/ideas/internal/models"
	"github.com/joescharf/ideas/internal/pitch"
	"github.com/joescharf/ideas/internal/store"
	"github.com/joescharf/ideas/internal/versions"
)

// Server provides the REST API handlers.
type Server struct {
	store    store.Store
	engine   *lifecycle.Engine
	versions *versions.Service
	pitches  *pitch.Generator
	cache    cache.Cache
	logger   *zap.Logger
}

// Deps are the collaborators the API serves. Pitches may be nil when no
// generation backend is configured; Cache may be nil to disable caching.
type Deps struct {
	Store    store.Store
	Engine   *lifecycle.Engine
	Versions *versions.Service
	Pitches  *pitch.Generator
	Cache    cache.Cache
	Logger   *zap.Logger
}

// NewServer creates a new API server.
func NewServer(d Deps) *Server {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		store:    d.Store,
		engine:   d.Engine,
		versions: d.Versions,
		pitches:  d.Pitches,
		cache:    d.Cache,
		logger:   logger.Named("api"),
	}
}

// Router returns an http.Handler for the API routes.
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/collections", s.listCollections)
	mux.HandleFunc("POST /api/v1/collections", s.createCollection)
	mux.HandleFunc("GET /api/v1/collections/{id}", s.getCollection)
	mux.HandleFunc("POST /api/v1/collections/{id}/generate", s.generateIdeas)
	mux.HandleFunc("GET /api/v1/collections/{id}/ideas", s.listCollectionIdeas)

	mux.HandleFunc("GET /api/v1/ideas", s.listIdeas)
	mux.HandleFunc("GET /api/v1/ideas/{id}", s.getIdea)
	mux.HandleFunc("DELETE /api/v1/ideas/{id}", s.deleteIdea)
	mux.HandleFunc("PUT /api/v1/ideas/{id}/status", s.setStatus)

	mux.HandleFunc("POST /api/v1/ideas/{id}/deepdive", s.deepDive)
	mux.HandleFunc("POST /api/v1/ideas/{id}/deepdive/regenerate", s.regenerateDeepDive)
	mux.HandleFunc("DELETE /api/v1/ideas/{id}/deepdive", s.clearDeepDive)

	mux.HandleFunc("GET /api/v1/ideas/{id}/versions", s.listVersions)
	mux.HandleFunc("POST /api/v1/ideas/{id}/versions", s.createVersion)
	mux.HandleFunc("GET /api/v1/ideas/{id}/versions/{n}", s.getVersion)
	mux.HandleFunc("DELETE /api/v1/ideas/{id}/versions/{n}", s.deleteVersion)
	mux.HandleFunc("POST /api/v1/ideas/{id}/versions/{n}/restore", s.restoreVersion)

	mux.HandleFunc("GET /api/v1/shortlist", s.listShortlist)
	mux.HandleFunc("POST /api/v1/ideas/{id}/shortlist", s.addToShortlist)
	mux.HandleFunc("DELETE /api/v1/ideas/{id}/shortlist", s.removeFromShortlist)

	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, llm.ErrGenerationUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeErr(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", zap.String("method", r.Method), zap.String("path", r.URL.Path), zap.Error(err))
	}
	writeError(w, status, err.Error())
}

func versionNumber(r *http.Request) (int, bool) {
	n, err := strconv.Atoi(r.PathValue("n"))
	return n, err == nil
}

func (s *Server) invalidate(r *http.Request, collectionID string) {
	if s.cache == nil || collectionID == "" {
		return
	}
	if err := s.cache.Delete(r.Context(), cache.CollectionIdeasKey(collectionID)); err != nil {
		s.logger.Warn("cache invalidation failed", zap.String("collection_id", collectionID), zap.Error(err))
	}
}

// --- Collections ---

type collectionRequest struct {
	Name     string `json:"name"`
	URL      string `json:"url"`
	Summary  string `json:"summary"`
	Language string `json:"language"`
}

func (s *Server) listCollections(w http.ResponseWriter, r *http.Request) {
	cs, err := s.store.ListCollections(r.Context())
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	out := make([]collectionResponse, 0, len(cs))
	for _, c := range cs {
		out = append(out, toCollectionResponse(c))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createCollection(w http.ResponseWriter, r *http.Request) {
	var req collectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	c := &models.Collection{Name: req.Name, URL: req.URL, Summary: req.Summary, Language: req.Language}
	if err := s.store.CreateCollection(r.Context(), c); err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCollectionResponse(c))
}

func (s *Server) getCollection(w http.ResponseWriter, r *http.Request) {
	c, err := s.store.GetCollection(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCollectionResponse(c))
}

type generateResponse struct {
	Ideas    []ideaResponse `json:"ideas"`
	Parsed   bool           `json:"parsed"`
	Attempts int            `json:"attempts"`
}

func (s *Server) generateIdeas(w http.ResponseWriter, r *http.Request) {
	if s.pitches == nil {
		writeError(w, http.StatusServiceUnavailable, "idea generation is not configured")
		return
	}
	c, err := s.store.GetCollection(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	res, err := s.pitches.FromCollection(r.Context(), c)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	resp := generateResponse{Ideas: make([]ideaResponse, 0, len(res.Ideas)), Parsed: res.Parsed, Attempts: res.Attempts}
	for _, idea := range res.Ideas {
		resp.Ideas = append(resp.Ideas, toIdeaResponse(idea))
	}
	writeJSON(w, http.StatusCreated, resp)
}

// listCollectionIdeas serves the collection's idea summaries from the cache
// when present. The summary omits deep dive state, so only status changes,
// new ideas and deletions invalidate it.
func (s *Server) listCollectionIdeas(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")
	key := cache.CollectionIdeasKey(id)

	if s.cache != nil {
		data, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			s.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		} else if ok {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("X-Cache", "hit")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(data)
			return
		}
	}

	if _, err := s.store.GetCollection(ctx, id); err != nil {
		s.writeErr(w, r, err)
		return
	}
	ideas, err := s.store.ListIdeas(ctx, store.IdeaListFilter{CollectionID: id})
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	out := make([]ideaSummary, 0, len(ideas))
	for _, idea := range ideas {
		out = append(out, toIdeaSummary(idea))
	}
	data, err := json.Marshal(out)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, data); err != nil {
			s.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Cache", "miss")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(append(data, '\n'))
}

// --- Ideas ---

func (s *Server) listIdeas(w http.ResponseWriter, r *http.Request) {
	filter := store.IdeaListFilter{CollectionID: r.URL.Query().Get("collection_id")}
	if v := r.URL.Query().Get("status"); v != "" {
		st, err := models.ParseIdeaStatus(v)
		if err != nil {
			s.writeErr(w, r, err)
			return
		}
		filter.Status = st
	}
	ideas, err := s.store.ListIdeas(r.Context(), filter)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toIdeaResponses(ideas))
}

func (s *Server) getIdea(w http.ResponseWriter, r *http.Request) {
	idea, err := s.store.GetIdea(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toIdeaResponse(idea))
}

func (s *Server) deleteIdea(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	idea, err := s.store.GetIdea(r.Context(), id)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	if err := s.store.DeleteIdea(r.Context(), id); err != nil {
		s.writeErr(w, r, err)
		return
	}
	s.invalidate(r, idea.CollectionID)
	w.WriteHeader(http.StatusNoContent)
}

type statusRequest struct {
	Status string `json:"status"`
}

func (s *Server) setStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	st, err := models.ParseIdeaStatus(req.Status)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	idea, err := s.engine.ChangeStatus(r.Context(), r.PathValue("id"), st)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toIdeaResponse(idea))
}

// --- Deep dives ---

type deepDiveResponse struct {
	Status   string            `json:"status"`
	DeepDive map[string]string `json:"deep_dive,omitempty"`
}

func (s *Server) deepDive(w http.ResponseWriter, r *http.Request) {
	res, err := s.engine.GenerateDeepDive(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	code := http.StatusOK
	if res.Status == lifecycle.DeepDivePending {
		code = http.StatusAccepted
	}
	writeJSON(w, code, deepDiveResponse{Status: string(res.Status), DeepDive: res.DeepDive})
}

type regenerateRequest struct {
	DeepDive map[string]string `json:"deep_dive"`
}

func (s *Server) regenerateDeepDive(w http.ResponseWriter, r *http.Request) {
	var req regenerateRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON")
			return
		}
	}
	idea, err := s.engine.RegenerateDeepDive(r.Context(), r.PathValue("id"), req.DeepDive)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toIdeaResponse(idea))
}

func (s *Server) clearDeepDive(w http.ResponseWriter, r *http.Request) {
	idea, err := s.engine.ClearDeepDive(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toIdeaResponse(idea))
}

// --- Versions ---

type createVersionRequest struct {
	Fields         map[string]string `json:"fields"`
	LLMRawResponse string            `json:"llm_raw_response"`
}

func (s *Server) listVersions(w http.ResponseWriter, r *http.Request) {
	vs, err := s.versions.List(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	out := make([]versionResponse, 0, len(vs))
	for _, v := range vs {
		out = append(out, toVersionResponse(v))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createVersion(w http.ResponseWriter, r *http.Request) {
	var req createVersionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	v, err := s.versions.Create(r.Context(), r.PathValue("id"), req.Fields, req.LLMRawResponse)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toVersionResponse(v))
}

func (s *Server) getVersion(w http.ResponseWriter, r *http.Request) {
	n, ok := versionNumber(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid version number")
		return
	}
	v, err := s.versions.Get(r.Context(), r.PathValue("id"), n)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toVersionResponse(v))
}

func (s *Server) deleteVersion(w http.ResponseWriter, r *http.Request) {
	n, ok := versionNumber(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid version number")
		return
	}
	if err := s.versions.Delete(r.Context(), r.PathValue("id"), n); err != nil {
		s.writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) restoreVersion(w http.ResponseWriter, r *http.Request) {
	n, ok := versionNumber(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid version number")
		return
	}
	idea, err := s.versions.Restore(r.Context(), r.PathValue("id"), n)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toIdeaResponse(idea))
}

// --- Shortlist ---

func (s *Server) listShortlist(w http.ResponseWriter, r *http.Request) {
	ideas, err := s.store.ListShortlist(r.Context())
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toIdeaResponses(ideas))
}

func (s *Server) addToShortlist(w http.ResponseWriter, r *http.Request) {
	entry, err := s.store.AddToShortlist(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"id":         entry.ID,
		"idea_id":    entry.IdeaID,
		"created_at": entry.CreatedAt,
	})
}

func (s *Server) removeFromShortlist(w http.ResponseWriter, r *http.Request) {
	if err := s.store.RemoveFromShortlist(r.Context(), r.PathValue("id")); err != nil {
		s.writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
