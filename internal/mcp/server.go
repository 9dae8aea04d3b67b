package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/joescharf/ideas/internal/lifecycle"
	"github.com/joescharf/ideas/internal/models"
	"github.com/joescharf/ideas/internal/store"
)

// IdeaReader is the read side of the store the tools need.
type IdeaReader interface {
	GetIdea(ctx context.Context, id string) (*models.Idea, error)
	ListIdeas(ctx context.Context, filter store.IdeaListFilter) ([]*models.Idea, error)
}

// Workflow drives status changes and deep dives.
type Workflow interface {
	ChangeStatus(ctx context.Context, ideaID string, status models.IdeaStatus) (*models.Idea, error)
	GenerateDeepDive(ctx context.Context, ideaID string) (*lifecycle.DeepDiveResult, error)
}

// VersionHistory lists and restores deep dive versions.
type VersionHistory interface {
	List(ctx context.Context, ideaID string) ([]*models.DeepDiveVersion, error)
	Restore(ctx context.Context, ideaID string, number int) (*models.Idea, error)
}

// Server wraps the idea workflow and exposes it as MCP tools.
type Server struct {
	store    IdeaReader
	workflow Workflow
	versions VersionHistory
	version  string
}

// NewServer creates the MCP server wrapper with all required dependencies.
func NewServer(s IdeaReader, w Workflow, v VersionHistory, version string) *Server {
	if version == "" {
		version = "dev"
	}
	return &Server{store: s, workflow: w, versions: v, version: version}
}

// MCPServer returns a configured mcp-go server with all tools registered.
func (s *Server) MCPServer() *server.MCPServer {
	srv := server.NewMCPServer("ideas", s.version, server.WithToolCapabilities(true))

	srv.AddTool(s.listIdeasTool())
	srv.AddTool(s.getIdeaTool())
	srv.AddTool(s.setStatusTool())
	srv.AddTool(s.deepDiveTool())
	srv.AddTool(s.listVersionsTool())
	srv.AddTool(s.restoreVersionTool())

	return srv
}

// ServeStdio starts the stdio transport, blocking until ctx is cancelled.
func (s *Server) ServeStdio(ctx context.Context) error {
	srv := s.MCPServer()
	stdioServer := server.NewStdioServer(srv)
	return stdioServer.Listen(ctx, os.Stdin, os.Stdout)
}

// ---------------------------------------------------------------------------
// Output shapes
// ---------------------------------------------------------------------------

type ideaOut struct {
	ID                string            `json:"id"`
	CollectionID      string            `json:"collection_id,omitempty"`
	Title             string            `json:"title"`
	Hook              string            `json:"hook,omitempty"`
	Value             string            `json:"value,omitempty"`
	Evidence          string            `json:"evidence,omitempty"`
	Differentiator    string            `json:"differentiator,omitempty"`
	CallToAction      string            `json:"call_to_action,omitempty"`
	Type              string            `json:"type,omitempty"`
	Score             *int              `json:"score"`
	MVPEffort         *int              `json:"mvp_effort"`
	Status            string            `json:"status"`
	DeepDive          map[string]string `json:"deep_dive,omitempty"`
	DeepDiveRequested bool              `json:"deep_dive_requested"`
}

func toIdeaOut(i *models.Idea, withDeepDive bool) ideaOut {
	out := ideaOut{
		ID:                i.ID,
		CollectionID:      i.CollectionID,
		Title:             i.Title,
		Hook:              i.Hook,
		Value:             i.Value,
		Evidence:          i.Evidence,
		Differentiator:    i.Differentiator,
		CallToAction:      i.CallToAction,
		Type:              i.Kind,
		Score:             i.Score,
		MVPEffort:         i.MVPEffort,
		Status:            string(i.Status),
		DeepDiveRequested: i.DeepDiveRequested,
	}
	if withDeepDive && i.DeepDive != nil {
		out.DeepDive = *i.DeepDive
	}
	return out
}

func jsonResult(what string, v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal %s: %v", what, err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// ---------------------------------------------------------------------------
// Tool definitions and handlers
// ---------------------------------------------------------------------------

// ideas_list
func (s *Server) listIdeasTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("ideas_list",
		mcp.WithDescription("List ideas. Returns a JSON array with id, title, hook, type, score, mvp_effort and status."),
		mcp.WithString("status", mcp.Description("Filter by status: suggested, deep_dive, iterating, considering, closed")),
		mcp.WithString("collection_id", mcp.Description("Filter by owning collection")),
	)
	return tool, s.handleListIdeas
}

func (s *Server) handleListIdeas(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filter := store.IdeaListFilter{CollectionID: request.GetString("collection_id", "")}
	if v := request.GetString("status", ""); v != "" {
		st, err := models.ParseIdeaStatus(v)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		filter.Status = st
	}

	ideas, err := s.store.ListIdeas(ctx, filter)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list ideas: %v", err)), nil
	}
	out := make([]ideaOut, len(ideas))
	for i, idea := range ideas {
		out[i] = toIdeaOut(idea, false)
	}
	return jsonResult("ideas", out)
}

// ideas_get
func (s *Server) getIdeaTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("ideas_get",
		mcp.WithDescription("Get one idea including its deep dive sections when present."),
		mcp.WithString("idea_id", mcp.Required(), mcp.Description("Idea ID")),
	)
	return tool, s.handleGetIdea
}

func (s *Server) handleGetIdea(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("idea_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: idea_id"), nil
	}
	idea, err := s.store.GetIdea(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("idea not found: %s", id)), nil
	}
	return jsonResult("idea", toIdeaOut(idea, true))
}

// ideas_set_status
func (s *Server) setStatusTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("ideas_set_status",
		mcp.WithDescription("Move an idea to a new status. Moving to deep_dive starts a background deep dive."),
		mcp.WithString("idea_id", mcp.Required(), mcp.Description("Idea ID")),
		mcp.WithString("status", mcp.Required(),
			mcp.Description("New status"),
			mcp.Enum("suggested", "deep_dive", "iterating", "considering", "closed")),
	)
	return tool, s.handleSetStatus
}

func (s *Server) handleSetStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("idea_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: idea_id"), nil
	}
	raw, err := request.RequireString("status")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: status"), nil
	}
	st, err := models.ParseIdeaStatus(raw)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	idea, err := s.workflow.ChangeStatus(ctx, id, st)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to update status: %v", err)), nil
	}
	return jsonResult("idea", toIdeaOut(idea, false))
}

// ideas_deep_dive
func (s *Server) deepDiveTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("ideas_deep_dive",
		mcp.WithDescription("Return the idea's deep dive, generating it when none exists. Reports pending while a generation is in flight."),
		mcp.WithString("idea_id", mcp.Required(), mcp.Description("Idea ID")),
	)
	return tool, s.handleDeepDive
}

func (s *Server) handleDeepDive(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("idea_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: idea_id"), nil
	}
	res, err := s.workflow.GenerateDeepDive(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("deep dive failed: %v", err)), nil
	}
	return jsonResult("deep dive", map[string]any{
		"status":    res.Status,
		"deep_dive": res.DeepDive,
	})
}

// ideas_list_versions
func (s *Server) listVersionsTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("ideas_list_versions",
		mcp.WithDescription("List the idea's deep dive versions, newest first."),
		mcp.WithString("idea_id", mcp.Required(), mcp.Description("Idea ID")),
	)
	return tool, s.handleListVersions
}

func (s *Server) handleListVersions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("idea_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: idea_id"), nil
	}
	vs, err := s.versions.List(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list versions: %v", err)), nil
	}

	type versionOut struct {
		VersionNumber int               `json:"version_number"`
		Fields        map[string]string `json:"fields"`
		CreatedAt     string            `json:"created_at"`
	}
	out := make([]versionOut, len(vs))
	for i, v := range vs {
		out[i] = versionOut{
			VersionNumber: v.VersionNumber,
			Fields:        v.Fields,
			CreatedAt:     v.CreatedAt.Format("2006-01-02 15:04:05"),
		}
	}
	return jsonResult("versions", out)
}

// ideas_restore_version
func (s *Server) restoreVersionTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("ideas_restore_version",
		mcp.WithDescription("Copy a stored deep dive version back onto the idea. The version history is not changed."),
		mcp.WithString("idea_id", mcp.Required(), mcp.Description("Idea ID")),
		mcp.WithNumber("version", mcp.Required(), mcp.Description("Version number, starting at 1")),
	)
	return tool, s.handleRestoreVersion
}

func (s *Server) handleRestoreVersion(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("idea_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: idea_id"), nil
	}
	n, err := request.RequireInt("version")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: version"), nil
	}
	idea, err := s.versions.Restore(ctx, id, n)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to restore version %d: %v", n, err)), nil
	}
	return jsonResult("idea", toIdeaOut(idea, true))
}
