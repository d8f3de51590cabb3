package mcpserver

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/gebo/internal/index"
	"github.com/starford/gebo/internal/linkgraph"
	"github.com/starford/gebo/internal/notestore"
	"github.com/starford/gebo/internal/testutil"
)

func testServer(t *testing.T) (*Server, *notestore.FS, *index.DB) {
	t.Helper()
	_, store := testutil.TestVault(t)
	db := testutil.TestDB(t)
	srv := New(store, linkgraph.NewService(store), db)
	return srv, store, db
}

// callTool dispatches directly to the tool handler functions, since
// mcp-go has no in-process "call tool" test helper.
func callTool(t *testing.T, srv *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	var result *mcp.CallToolResult
	var err error

	switch name {
	case "search_notes":
		result, err = srv.searchNotes(ctx, req)
	case "read_note":
		result, err = srv.readNote(ctx, req)
	case "add_link":
		result, err = srv.addLink(ctx, req)
	case "remove_link":
		result, err = srv.removeLink(ctx, req)
	case "list_links":
		result, err = srv.listLinks(ctx, req)
	case "find_path":
		result, err = srv.findPath(ctx, req)
	case "network_stats":
		result, err = srv.networkStats(ctx, req)
	case "get_note_contract":
		result, err = srv.getNoteContract(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestReadNote(t *testing.T) {
	srv, store, _ := testServer(t)
	testutil.Seed(t, store, "work/Standup")

	r := callTool(t, srv, "read_note", map[string]any{"note": "work/Standup"})
	if r.IsError {
		t.Fatalf("read_note error: %s", resultText(r))
	}
	text := resultText(r)
	if !strings.Contains(text, "title: Standup") {
		t.Errorf("missing frontmatter title in %q", text)
	}

	// Unqualified identity resolves too.
	r = callTool(t, srv, "read_note", map[string]any{"note": "Standup"})
	if r.IsError {
		t.Errorf("unqualified read failed: %s", resultText(r))
	}
}

func TestReadNoteMissing(t *testing.T) {
	srv, _, _ := testServer(t)
	r := callTool(t, srv, "read_note", map[string]any{"note": "Nope"})
	if !r.IsError {
		t.Error("expected error for missing note")
	}
}

func TestAddAndRemoveLink(t *testing.T) {
	srv, store, _ := testServer(t)
	testutil.Seed(t, store, "Alpha")
	testutil.Seed(t, store, "Beta")

	r := callTool(t, srv, "add_link", map[string]any{"source": "Alpha", "target": "Beta"})
	if r.IsError {
		t.Fatalf("add_link error: %s", resultText(r))
	}
	if got := resultText(r); got != "created: Alpha -> Beta" {
		t.Errorf("add_link = %q", got)
	}

	// Duplicate add reports the conflict.
	r = callTool(t, srv, "add_link", map[string]any{"source": "Alpha", "target": "Beta"})
	if !r.IsError {
		t.Error("duplicate add_link should error")
	}

	r = callTool(t, srv, "remove_link", map[string]any{"source": "Alpha", "target": "Beta"})
	if r.IsError {
		t.Fatalf("remove_link error: %s", resultText(r))
	}
	if got := resultText(r); got != "removed: Alpha -> Beta" {
		t.Errorf("remove_link = %q", got)
	}

	r = callTool(t, srv, "remove_link", map[string]any{"source": "Alpha", "target": "Beta"})
	if !r.IsError {
		t.Error("removing an absent link should error")
	}
}

func TestAddLinkBidirectional(t *testing.T) {
	srv, store, _ := testServer(t)
	testutil.Seed(t, store, "Alpha")
	testutil.Seed(t, store, "Beta")

	r := callTool(t, srv, "add_link", map[string]any{
		"source":        "Alpha",
		"target":        "Beta",
		"bidirectional": true,
	})
	if r.IsError {
		t.Fatalf("add_link error: %s", resultText(r))
	}
	text := resultText(r)
	if !strings.Contains(text, "created: Alpha -> Beta") || !strings.Contains(text, "created: Beta -> Alpha") {
		t.Errorf("bidirectional output = %q", text)
	}
}

func TestListLinks(t *testing.T) {
	srv, store, _ := testServer(t)
	testutil.Seed(t, store, "Alpha", "Beta", "Ghost")
	testutil.Seed(t, store, "Beta", "Alpha")

	r := callTool(t, srv, "list_links", map[string]any{"note": "Alpha", "backlinks": true})
	if r.IsError {
		t.Fatalf("list_links error: %s", resultText(r))
	}
	text := resultText(r)
	for _, want := range []string{`"Beta"`, `"Ghost"`, `"backlinks"`} {
		if !strings.Contains(text, want) {
			t.Errorf("list_links output missing %s: %q", want, text)
		}
	}
}

func TestFindPath(t *testing.T) {
	srv, store, _ := testServer(t)
	testutil.Seed(t, store, "Alpha", "Beta")
	testutil.Seed(t, store, "Beta", "Gamma")
	testutil.Seed(t, store, "Gamma")

	r := callTool(t, srv, "find_path", map[string]any{"source": "Alpha", "target": "Gamma"})
	if r.IsError {
		t.Fatalf("find_path error: %s", resultText(r))
	}
	if got := resultText(r); got != "Alpha -> Beta -> Gamma" {
		t.Errorf("find_path = %q", got)
	}

	// Depth cap cuts the chain.
	r = callTool(t, srv, "find_path", map[string]any{
		"source":    "Alpha",
		"target":    "Gamma",
		"max_depth": float64(1),
	})
	if got := resultText(r); got != "no path found" {
		t.Errorf("capped find_path = %q", got)
	}
}

func TestNetworkStats(t *testing.T) {
	srv, store, _ := testServer(t)
	testutil.Seed(t, store, "Alpha", "Beta")
	testutil.Seed(t, store, "Beta")

	r := callTool(t, srv, "network_stats", map[string]any{})
	if r.IsError {
		t.Fatalf("network_stats error: %s", resultText(r))
	}
	text := resultText(r)
	if !strings.Contains(text, `"total_notes": 2`) {
		t.Errorf("stats output = %q", text)
	}
}

func TestSearchNotes(t *testing.T) {
	srv, store, db := testServer(t)
	testutil.Seed(t, store, "work/Quasar")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if err := index.Sync(db, store, logger); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	r := callTool(t, srv, "search_notes", map[string]any{"query": "Quasar"})
	if r.IsError {
		t.Fatalf("search_notes error: %s", resultText(r))
	}
	if !strings.Contains(resultText(r), "Quasar") {
		t.Errorf("search output = %q", resultText(r))
	}

	r = callTool(t, srv, "search_notes", map[string]any{"query": "zzz-no-hit"})
	if got := resultText(r); got != "no results" {
		t.Errorf("empty search = %q", got)
	}
}

func TestGetNoteContract(t *testing.T) {
	srv, _, _ := testServer(t)
	r := callTool(t, srv, "get_note_contract", map[string]any{})
	if !strings.Contains(resultText(r), "linked_notes") {
		t.Error("contract should document linked_notes")
	}
}

func TestMissingRequiredArgument(t *testing.T) {
	srv, _, _ := testServer(t)
	r := callTool(t, srv, "add_link", map[string]any{"source": "Alpha"})
	if !r.IsError {
		t.Error("add_link without target should error")
	}
}
