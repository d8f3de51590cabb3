package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/starford/gebo/internal/index"
	"github.com/starford/gebo/internal/linkgraph"
	"github.com/starford/gebo/internal/models"
	"github.com/starford/gebo/internal/notestore"
	"github.com/starford/gebo/internal/testutil"
)

// testEnv sets up a temp vault, SQLite DB, service, and router for testing.
// An empty authToken means auth is disabled.
func testEnv(t *testing.T, authToken string) (*notestore.FS, http.Handler) {
	t.Helper()
	store, _, router := testEnvFull(t, authToken != "", authToken)
	return store, router
}

func testEnvFull(t *testing.T, authEnabled bool, token string) (*notestore.FS, *index.DB, http.Handler) {
	t.Helper()
	_, store := testutil.TestVault(t)
	db := testutil.TestDB(t)
	svc := NewService(store, linkgraph.NewService(store), db)
	return store, db, NewRouter(svc, authEnabled, token, nil)
}

func syncIndex(t *testing.T, db *index.DB, store *notestore.FS) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if err := index.Sync(db, store, logger); err != nil {
		t.Fatalf("Sync: %v", err)
	}
}

func get(router http.Handler, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func sendLink(router http.Handler, method string, body LinkRequest) *httptest.ResponseRecorder {
	payload, _ := json.Marshal(body)
	req := httptest.NewRequest(method, "/links", bytes.NewReader(payload))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestListNotes(t *testing.T) {
	store, router := testEnv(t, "")
	testutil.Seed(t, store, "Inbox")
	testutil.Seed(t, store, "work/Standup")
	testutil.Seed(t, store, "work/Roadmap")

	w := get(router, "/notes")
	if w.Code != http.StatusOK {
		t.Fatalf("list = %d, body = %s", w.Code, w.Body.String())
	}
	var resp NoteListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Total != 3 {
		t.Errorf("total = %d, want 3", resp.Total)
	}

	w = get(router, "/notes?category=work")
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Total != 2 {
		t.Errorf("work total = %d, want 2", resp.Total)
	}
}

func TestListNotesTagFilter(t *testing.T) {
	store, router := testEnv(t, "")
	testutil.Seed(t, store, "Plain")
	tagged := &models.Note{Title: "Tagged", Tags: []string{"urgent"}, Body: "# Tagged\n"}
	if err := store.Create(tagged); err != nil {
		t.Fatalf("Create: %v", err)
	}

	w := get(router, "/notes?tag=urgent")
	if w.Code != http.StatusOK {
		t.Fatalf("list = %d", w.Code)
	}
	var resp NoteListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Total != 1 || resp.Notes[0].Title != "Tagged" {
		t.Errorf("tag filter = %+v", resp.Notes)
	}
}

func TestGetNote(t *testing.T) {
	store, router := testEnv(t, "")
	testutil.Seed(t, store, "work/Standup", "Inbox")

	for _, path := range []string{"/notes/work/Standup", "/notes/work%2FStandup"} {
		w := get(router, path)
		if w.Code != http.StatusOK {
			t.Fatalf("get %s = %d, body = %s", path, w.Code, w.Body.String())
		}
		var note NoteDetail
		_ = json.Unmarshal(w.Body.Bytes(), &note)
		if note.Title != "Standup" || note.Category != "work" {
			t.Errorf("get %s = %s/%s", path, note.Category, note.Title)
		}
		if len(note.LinkedNotes) != 1 || note.LinkedNotes[0] != "Inbox" {
			t.Errorf("linked_notes = %v", note.LinkedNotes)
		}
	}
}

func TestGetNoteResolvesUnqualified(t *testing.T) {
	store, router := testEnv(t, "")
	testutil.Seed(t, store, "work/Standup")

	// A bare title resolves into the only category holding it.
	w := get(router, "/notes/Standup")
	if w.Code != http.StatusOK {
		t.Fatalf("get = %d, body = %s", w.Code, w.Body.String())
	}
	var note NoteDetail
	_ = json.Unmarshal(w.Body.Bytes(), &note)
	if note.Category != "work" {
		t.Errorf("category = %q, want work", note.Category)
	}
}

func TestGetNote_NotFound(t *testing.T) {
	_, router := testEnv(t, "")

	w := get(router, "/notes/Nope")
	if w.Code != http.StatusNotFound {
		t.Errorf("missing note = %d, want 404", w.Code)
	}
}

func TestNoteLinks(t *testing.T) {
	store, router := testEnv(t, "")
	testutil.Seed(t, store, "Alpha", "Beta", "Ghost")
	testutil.Seed(t, store, "Beta", "Alpha")

	w := get(router, "/notes/Alpha/links")
	if w.Code != http.StatusOK {
		t.Fatalf("links = %d, body = %s", w.Code, w.Body.String())
	}
	var resp NoteLinksResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Outgoing) != 2 {
		t.Fatalf("outgoing = %d, want 2", len(resp.Outgoing))
	}
	if resp.Outgoing[0].ID != "Beta" || resp.Outgoing[0].Dangling {
		t.Errorf("first link = %+v", resp.Outgoing[0])
	}
	if resp.Outgoing[1].Entry != "Ghost" || !resp.Outgoing[1].Dangling {
		t.Errorf("ghost link = %+v", resp.Outgoing[1])
	}
	if resp.Backlinks != nil {
		t.Errorf("backlinks without flag = %v", resp.Backlinks)
	}

	w = get(router, "/notes/Alpha/links?backlinks=true")
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Backlinks) != 1 || resp.Backlinks[0] != "Beta" {
		t.Errorf("backlinks = %v, want [Beta]", resp.Backlinks)
	}
}

func TestNoteLinksCategoryRoute(t *testing.T) {
	store, router := testEnv(t, "")
	testutil.Seed(t, store, "work/Standup", "work/Roadmap")
	testutil.Seed(t, store, "work/Roadmap")

	w := get(router, "/notes/work/Standup/links")
	if w.Code != http.StatusOK {
		t.Fatalf("links = %d, body = %s", w.Code, w.Body.String())
	}
	var resp NoteLinksResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Note != "work/Standup" || len(resp.Outgoing) != 1 {
		t.Errorf("resp = %+v", resp)
	}
}

func TestNoteLinks_NotFound(t *testing.T) {
	_, router := testEnv(t, "")

	w := get(router, "/notes/Ghost/links")
	if w.Code != http.StatusNotFound {
		t.Errorf("missing note links = %d, want 404", w.Code)
	}
}

func TestAddLink(t *testing.T) {
	store, router := testEnv(t, "")
	testutil.Seed(t, store, "Alpha")
	testutil.Seed(t, store, "Beta")

	w := sendLink(router, http.MethodPost, LinkRequest{Source: "Alpha", Target: "Beta"})
	if w.Code != http.StatusCreated {
		t.Fatalf("add = %d, body = %s", w.Code, w.Body.String())
	}
	var res LinkResponse
	_ = json.Unmarshal(w.Body.Bytes(), &res)
	if len(res.Directions) != 1 || res.Directions[0].Status != linkgraph.StatusCreated {
		t.Errorf("directions = %+v", res.Directions)
	}

	// Same link again → 409.
	w = sendLink(router, http.MethodPost, LinkRequest{Source: "Alpha", Target: "Beta"})
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate add = %d, want 409", w.Code)
	}
}

func TestAddLinkBidirectional(t *testing.T) {
	store, router := testEnv(t, "")
	testutil.Seed(t, store, "Alpha")
	testutil.Seed(t, store, "Beta")

	w := sendLink(router, http.MethodPost, LinkRequest{Source: "Alpha", Target: "Beta", Bidirectional: true})
	if w.Code != http.StatusCreated {
		t.Fatalf("add = %d, body = %s", w.Code, w.Body.String())
	}
	var res LinkResponse
	_ = json.Unmarshal(w.Body.Bytes(), &res)
	if len(res.Directions) != 2 {
		t.Fatalf("directions = %d, want 2", len(res.Directions))
	}

	beta, err := store.Resolve(models.Identity{Title: "Beta"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !beta.HasLink("Alpha") {
		t.Errorf("reverse direction not persisted: %v", beta.LinkedNotes)
	}
}

func TestAddLinkSelf(t *testing.T) {
	store, router := testEnv(t, "")
	testutil.Seed(t, store, "Alpha")

	w := sendLink(router, http.MethodPost, LinkRequest{Source: "Alpha", Target: "Alpha"})
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("self link = %d, want 422", w.Code)
	}
}

func TestAddLinkMissingNote(t *testing.T) {
	store, router := testEnv(t, "")
	testutil.Seed(t, store, "Alpha")

	w := sendLink(router, http.MethodPost, LinkRequest{Source: "Alpha", Target: "Ghost"})
	if w.Code != http.StatusNotFound {
		t.Errorf("missing target = %d, want 404", w.Code)
	}
}

func TestAddLinkBadRequest(t *testing.T) {
	_, router := testEnv(t, "")

	// Missing target.
	w := sendLink(router, http.MethodPost, LinkRequest{Source: "Alpha"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing target field = %d, want 400", w.Code)
	}

	// Invalid JSON.
	req := httptest.NewRequest(http.MethodPost, "/links", bytes.NewReader([]byte("{nope")))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid json = %d, want 400", w.Code)
	}
}

func TestRemoveLink(t *testing.T) {
	store, router := testEnv(t, "")
	testutil.Seed(t, store, "Alpha", "Beta")
	testutil.Seed(t, store, "Beta")

	w := sendLink(router, http.MethodDelete, LinkRequest{Source: "Alpha", Target: "Beta"})
	if w.Code != http.StatusOK {
		t.Fatalf("remove = %d, body = %s", w.Code, w.Body.String())
	}
	var res LinkResponse
	_ = json.Unmarshal(w.Body.Bytes(), &res)
	if len(res.Directions) != 1 || res.Directions[0].Status != linkgraph.StatusRemoved {
		t.Errorf("directions = %+v", res.Directions)
	}

	// Nothing left to remove → 404.
	w = sendLink(router, http.MethodDelete, LinkRequest{Source: "Alpha", Target: "Beta"})
	if w.Code != http.StatusNotFound {
		t.Errorf("remove again = %d, want 404", w.Code)
	}
}

func TestGraphEndpoint(t *testing.T) {
	store, router := testEnv(t, "")
	testutil.Seed(t, store, "Alpha", "Beta", "Ghost")
	testutil.Seed(t, store, "Beta", "Alpha")

	w := get(router, "/graph")
	if w.Code != http.StatusOK {
		t.Fatalf("graph = %d, body = %s", w.Code, w.Body.String())
	}
	var resp GraphResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Nodes) != 2 {
		t.Errorf("nodes = %d, want 2", len(resp.Nodes))
	}
	if len(resp.Edges) != 2 {
		t.Errorf("edges = %d, want 2", len(resp.Edges))
	}
	if len(resp.Dangling) != 1 || resp.Dangling[0].Entry != "Ghost" {
		t.Errorf("dangling = %+v", resp.Dangling)
	}
}

func TestStatsEndpoint(t *testing.T) {
	store, router := testEnv(t, "")
	testutil.Seed(t, store, "Alpha", "Beta")
	testutil.Seed(t, store, "Beta")
	testutil.Seed(t, store, "Loner")

	w := get(router, "/graph/stats?limit=5")
	if w.Code != http.StatusOK {
		t.Fatalf("stats = %d, body = %s", w.Code, w.Body.String())
	}
	var resp StatsResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.TotalNotes != 3 || resp.TotalLinks != 1 || resp.StandaloneNotes != 1 {
		t.Errorf("stats = %+v", resp)
	}
	if len(resp.TopNotes) != 3 || resp.TopNotes[0].Total != 1 {
		t.Errorf("top notes = %+v", resp.TopNotes)
	}
}

func TestStandaloneEndpoint(t *testing.T) {
	store, router := testEnv(t, "")
	testutil.Seed(t, store, "Alpha", "Beta")
	testutil.Seed(t, store, "Beta")
	testutil.Seed(t, store, "Loner")

	w := get(router, "/graph/standalone")
	if w.Code != http.StatusOK {
		t.Fatalf("standalone = %d", w.Code)
	}
	var resp NoteListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Total != 1 || resp.Notes[0].Title != "Loner" {
		t.Errorf("standalone = %+v", resp.Notes)
	}
}

func TestOrphanedEndpoint(t *testing.T) {
	store, router := testEnv(t, "")
	testutil.Seed(t, store, "Alpha", "Ghost", "Beta")
	testutil.Seed(t, store, "Beta")

	w := get(router, "/graph/orphaned")
	if w.Code != http.StatusOK {
		t.Fatalf("orphaned = %d", w.Code)
	}
	var resp struct {
		Orphaned []DanglingEntry `json:"orphaned"`
		Total    int             `json:"total"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Total != 1 || resp.Orphaned[0].Entry != "Ghost" {
		t.Errorf("orphaned = %+v", resp)
	}
}

func TestPathEndpoint(t *testing.T) {
	store, router := testEnv(t, "")
	testutil.Seed(t, store, "Alpha", "Beta")
	testutil.Seed(t, store, "Beta", "Gamma")
	testutil.Seed(t, store, "Gamma")

	w := get(router, "/graph/path?source=Alpha&target=Gamma")
	if w.Code != http.StatusOK {
		t.Fatalf("path = %d, body = %s", w.Code, w.Body.String())
	}
	var resp PathResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if !resp.Found || resp.Length != 2 {
		t.Errorf("path = %+v", resp)
	}

	// Depth cap below the path length → found=false, still 200.
	w = get(router, "/graph/path?source=Alpha&target=Gamma&max_depth=1")
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if w.Code != http.StatusOK || resp.Found {
		t.Errorf("capped path = %d found=%v", w.Code, resp.Found)
	}
}

func TestPathEndpointErrors(t *testing.T) {
	store, router := testEnv(t, "")
	testutil.Seed(t, store, "Alpha")

	w := get(router, "/graph/path?source=Alpha")
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing target = %d, want 400", w.Code)
	}

	w = get(router, "/graph/path?source=Alpha&target=Ghost")
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown target = %d, want 404", w.Code)
	}
}

func TestSearchEndpoint(t *testing.T) {
	store, db, router := testEnvFull(t, false, "")
	testutil.Seed(t, store, "work/Quasar")
	syncIndex(t, db, store)

	w := get(router, "/search?q=Quasar")
	if w.Code != http.StatusOK {
		t.Fatalf("search = %d, body = %s", w.Code, w.Body.String())
	}
	var resp SearchResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Results) != 1 {
		t.Fatalf("results = %d, want 1", len(resp.Results))
	}
	if resp.Results[0].Title != "Quasar" || resp.Results[0].Category != "work" {
		t.Errorf("hit = %+v", resp.Results[0])
	}
}

func TestSearchMissingQuery(t *testing.T) {
	_, router := testEnv(t, "")

	w := get(router, "/search")
	if w.Code != http.StatusBadRequest {
		t.Errorf("search no query = %d, want 400", w.Code)
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	store, router := testEnv(t, "secret123")
	testutil.Seed(t, store, "Alpha")

	req := httptest.NewRequest(http.MethodGet, "/notes", nil)
	req.Header.Set("Authorization", "Bearer secret123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("authed list = %d, want 200", w.Code)
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	_, router := testEnv(t, "secret123")

	w := get(router, "/notes")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("unauthed = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_WrongToken(t *testing.T) {
	_, router := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/notes", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_Disabled(t *testing.T) {
	_, router := testEnv(t, "")

	w := get(router, "/notes")
	if w.Code != http.StatusOK {
		t.Errorf("no auth = %d, want 200", w.Code)
	}
}

// SSE endpoint auth tests.

func TestSSEEvents_AuthProtected(t *testing.T) {
	router := testEnvWithSSE(t, true, "secret")

	w := get(router, "/events")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("SSE no auth = %d, want 401", w.Code)
	}
}

func TestSSEEvents_ValidToken(t *testing.T) {
	router := testEnvWithSSE(t, true, "tok")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code == http.StatusUnauthorized {
		t.Error("SSE with valid token should not 401")
	}
}

// testEnvWithSSE creates a router with a stub SSE handler to test auth on
// /events. The stub writes headers and blocks until the request context is
// done.
func testEnvWithSSE(t *testing.T, authEnabled bool, token string) http.Handler {
	t.Helper()
	_, store := testutil.TestVault(t)
	db := testutil.TestDB(t)
	svc := NewService(store, linkgraph.NewService(store), db)

	sseHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		<-r.Context().Done()
	})

	return NewRouter(svc, authEnabled, token, sseHandler)
}
