// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Gebo tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/gebo/internal/index"
	"github.com/starford/gebo/internal/linkgraph"
	"github.com/starford/gebo/internal/models"
	"github.com/starford/gebo/internal/notestore"
)

// Vault is the store surface the MCP tools depend on: identity resolution
// plus raw file reads.
type Vault interface {
	notestore.Store
	notestore.Files
}

// Server wraps the MCP server with Gebo tools.
type Server struct {
	mcp   *server.MCPServer
	store Vault
	links *linkgraph.Service
	db    *index.DB
}

// New creates a new MCP server with all Gebo tools registered.
func New(store Vault, links *linkgraph.Service, db *index.DB) *Server {
	s := &Server{store: store, links: links, db: db}

	s.mcp = server.NewMCPServer(
		"Gebo",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_notes",
		mcp.WithDescription("Full-text search through note content and titles."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of results (default 20)")),
	), s.searchNotes)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read the raw Markdown of a note, frontmatter included. "+
			"The note is addressed by identity, not by file path."),
		mcp.WithString("note", mcp.Required(), mcp.Description("Note identity: Title or Category/Title")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("add_link",
		mcp.WithDescription("Link one note to another by adding the target to the source's "+
			"linked_notes frontmatter list. Both notes must exist."),
		mcp.WithString("source", mcp.Required(), mcp.Description("Source note identity")),
		mcp.WithString("target", mcp.Required(), mcp.Description("Target note identity")),
		mcp.WithBoolean("bidirectional", mcp.Description("Also link the target back to the source")),
	), s.addLink)

	s.mcp.AddTool(mcp.NewTool("remove_link",
		mcp.WithDescription("Remove the link between two notes from the source's linked_notes list."),
		mcp.WithString("source", mcp.Required(), mcp.Description("Source note identity")),
		mcp.WithString("target", mcp.Required(), mcp.Description("Target note identity")),
		mcp.WithBoolean("bidirectional", mcp.Description("Also remove the reverse direction")),
	), s.removeLink)

	s.mcp.AddTool(mcp.NewTool("list_links",
		mcp.WithDescription("List a note's outgoing links; with backlinks set, also the notes "+
			"whose linked_notes point at it."),
		mcp.WithString("note", mcp.Required(), mcp.Description("Note identity")),
		mcp.WithBoolean("backlinks", mcp.Description("Include backlinks")),
	), s.listLinks)

	s.mcp.AddTool(mcp.NewTool("find_path",
		mcp.WithDescription("Find the shortest chain of links connecting two notes."),
		mcp.WithString("source", mcp.Required(), mcp.Description("Source note identity")),
		mcp.WithString("target", mcp.Required(), mcp.Description("Target note identity")),
		mcp.WithString("category", mcp.Description("Restrict the search to one category")),
		mcp.WithNumber("max_depth", mcp.Description("Maximum number of links to follow (0 = unbounded)")),
	), s.findPath)

	s.mcp.AddTool(mcp.NewTool("network_stats",
		mcp.WithDescription("Link network statistics: totals, averages, dangling links, and the "+
			"most linked notes."),
		mcp.WithString("category", mcp.Description("Restrict to one category")),
		mcp.WithNumber("limit", mcp.Description("Ranking size (default 10, 0 disables the ranking)")),
	), s.networkStats)

	s.mcp.AddTool(mcp.NewTool("get_note_contract",
		mcp.WithDescription("Returns the canonical Gebo note format contract. "+
			"Call this before creating or editing note files to ensure correct structure."),
	), s.getNoteContract)

	// Resource: note format contract.
	s.mcp.AddResource(
		mcp.NewResource("gebo://note-format", "Note Format Contract",
			mcp.WithResourceDescription("Canonical Markdown note format that all notes must follow."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readNoteFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) searchNotes(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	limit := 20
	if v, ok := req.GetArguments()["limit"].(float64); ok {
		limit = int(v)
	}
	results, err := s.db.Search(query, limit)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(results) == 0 {
		return mcp.NewToolResultText("no results"), nil
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readNote(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("note")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := s.store.Resolve(models.ParseIdentity(raw))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", raw)), nil
	}
	data, err := s.store.Read(note.Path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) addLink(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	source, target, bidirectional, errResult := linkArgs(req)
	if errResult != nil {
		return errResult, nil
	}
	res, err := s.links.AddLink(ctx, source, target, bidirectional)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatDirections(res)), nil
}

func (s *Server) removeLink(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	source, target, bidirectional, errResult := linkArgs(req)
	if errResult != nil {
		return errResult, nil
	}
	res, err := s.links.RemoveLink(ctx, source, target, bidirectional)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatDirections(res)), nil
}

func (s *Server) listLinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("note")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	backlinks, _ := req.GetArguments()["backlinks"].(bool)

	links, err := s.links.ListLinks(ctx, models.ParseIdentity(raw), backlinks)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	report := struct {
		Note      string   `json:"note"`
		Outgoing  []string `json:"outgoing"`
		Dangling  []string `json:"dangling,omitempty"`
		Backlinks []string `json:"backlinks,omitempty"`
	}{
		Note:     links.Note.Identity().String(),
		Outgoing: []string{},
	}
	for _, ln := range links.Outgoing {
		if ln.Dangling {
			report.Dangling = append(report.Dangling, ln.Entry)
			continue
		}
		report.Outgoing = append(report.Outgoing, ln.Identity.String())
	}
	for _, in := range links.Incoming {
		report.Backlinks = append(report.Backlinks, in.Identity().String())
	}
	out, _ := json.MarshalIndent(report, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) findPath(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	source, err := req.RequireString("source")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	target, err := req.RequireString("target")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	args := req.GetArguments()
	scope := notestore.Scope{}
	if v, ok := args["category"].(string); ok {
		scope.Category = v
	}
	maxDepth := 0
	if v, ok := args["max_depth"].(float64); ok {
		maxDepth = int(v)
	}

	res, err := s.links.ShortestPath(ctx, models.ParseIdentity(source), models.ParseIdentity(target), scope, maxDepth)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !res.Found {
		return mcp.NewToolResultText("no path found"), nil
	}
	steps := make([]string, 0, len(res.Path))
	for _, id := range res.Path {
		steps = append(steps, id.String())
	}
	return mcp.NewToolResultText(strings.Join(steps, " -> ")), nil
}

func (s *Server) networkStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	scope := notestore.Scope{}
	if v, ok := args["category"].(string); ok {
		scope.Category = v
	}
	limit := 10
	if v, ok := args["limit"].(float64); ok {
		limit = int(v)
	}

	stats, err := s.links.Stats(ctx, scope, limit)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(stats, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getNoteContract(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(NoteFormatContract), nil
}

func (s *Server) readNoteFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "gebo://note-format",
			MIMEType: "text/markdown",
			Text:     NoteFormatContract,
		},
	}, nil
}

// linkArgs extracts the shared arguments of add_link and remove_link.
func linkArgs(req mcp.CallToolRequest) (source, target models.Identity, bidirectional bool, errResult *mcp.CallToolResult) {
	src, err := req.RequireString("source")
	if err != nil {
		return source, target, false, mcp.NewToolResultError(err.Error())
	}
	dst, err := req.RequireString("target")
	if err != nil {
		return source, target, false, mcp.NewToolResultError(err.Error())
	}
	bidirectional, _ = req.GetArguments()["bidirectional"].(bool)
	return models.ParseIdentity(src), models.ParseIdentity(dst), bidirectional, nil
}

func formatDirections(res *linkgraph.LinkResult) string {
	lines := make([]string, 0, len(res.Directions))
	for _, d := range res.Directions {
		lines = append(lines, fmt.Sprintf("%s: %s -> %s", d.Status, d.Source, d.Target))
	}
	return strings.Join(lines, "\n")
}
