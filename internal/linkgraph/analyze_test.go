package linkgraph

import (
	"context"
	"testing"

	"github.com/starford/gebo/internal/notestore"
	"github.com/starford/gebo/internal/testutil"
)

func TestStats(t *testing.T) {
	svc, store := testService(t)
	testutil.Seed(t, store, "Apple", "Banana", "Cherry")
	testutil.Seed(t, store, "Banana", "Cherry")
	testutil.Seed(t, store, "Cherry")

	st, err := svc.Stats(context.Background(), notestore.Scope{}, 0)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st.TotalNotes != 3 {
		t.Errorf("TotalNotes = %d, want 3", st.TotalNotes)
	}
	if st.TotalLinks != 3 {
		t.Errorf("TotalLinks = %d, want 3", st.TotalLinks)
	}
	if st.AvgLinksPerNote != 1.0 {
		t.Errorf("AvgLinksPerNote = %v, want 1.0", st.AvgLinksPerNote)
	}
	if st.NotesWithOutgoing != 2 {
		t.Errorf("NotesWithOutgoing = %d, want 2", st.NotesWithOutgoing)
	}
	if st.NotesWithIncoming != 2 {
		t.Errorf("NotesWithIncoming = %d, want 2", st.NotesWithIncoming)
	}
	if st.NotesWithLinks != 3 {
		t.Errorf("NotesWithLinks = %d, want 3", st.NotesWithLinks)
	}
	if st.StandaloneNotes != 0 {
		t.Errorf("StandaloneNotes = %d, want 0", st.StandaloneNotes)
	}
	if st.TopNotes != nil {
		t.Errorf("TopNotes = %+v, want none with limit 0", st.TopNotes)
	}
}

func TestStatsRanking(t *testing.T) {
	svc, store := testService(t)
	testutil.Seed(t, store, "Apple", "Banana", "Cherry")
	testutil.Seed(t, store, "Banana", "Cherry")
	testutil.Seed(t, store, "Cherry")

	st, err := svc.Stats(context.Background(), notestore.Scope{}, 2)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	// All three notes tie on combined degree 2; the identity order breaks
	// the tie and the limit cuts the list.
	if len(st.TopNotes) != 2 {
		t.Fatalf("TopNotes = %+v, want 2 rows", st.TopNotes)
	}
	if st.TopNotes[0].Identity != id("Apple") || st.TopNotes[1].Identity != id("Banana") {
		t.Errorf("ranking = %+v", st.TopNotes)
	}
	if st.TopNotes[0].Outgoing != 2 || st.TopNotes[0].Incoming != 0 {
		t.Errorf("Apple rank = %+v, want 2 out, 0 in", st.TopNotes[0])
	}
}

func TestStatsCountsDanglingEntries(t *testing.T) {
	svc, store := testService(t)
	testutil.Seed(t, store, "Apple", "Ghost")

	st, err := svc.Stats(context.Background(), notestore.Scope{}, 0)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st.TotalLinks != 1 {
		t.Errorf("TotalLinks = %d, want 1 (dangling counts)", st.TotalLinks)
	}
	if st.DanglingLinks != 1 {
		t.Errorf("DanglingLinks = %d, want 1", st.DanglingLinks)
	}
	if st.NotesWithOutgoing != 1 {
		t.Errorf("NotesWithOutgoing = %d, want 1", st.NotesWithOutgoing)
	}
	if st.StandaloneNotes != 0 {
		t.Errorf("StandaloneNotes = %d, want 0", st.StandaloneNotes)
	}
}

func TestStatsEmptyScope(t *testing.T) {
	svc, _ := testService(t)

	st, err := svc.Stats(context.Background(), notestore.Scope{}, 10)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st.TotalNotes != 0 || st.TotalLinks != 0 || st.AvgLinksPerNote != 0 {
		t.Errorf("stats = %+v, want zero totals", st)
	}
	if len(st.TopNotes) != 0 {
		t.Errorf("TopNotes = %+v, want empty", st.TopNotes)
	}
}

func TestStatsScoped(t *testing.T) {
	svc, store := testService(t)
	testutil.Seed(t, store, "work/Standup", "work/Planning")
	testutil.Seed(t, store, "work/Planning")
	testutil.Seed(t, store, "personal/Journal", "work/Standup")

	st, err := svc.Stats(context.Background(), notestore.Scope{Category: "work"}, 0)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st.TotalNotes != 2 {
		t.Errorf("TotalNotes = %d, want 2", st.TotalNotes)
	}
	// personal/Journal's edge into the scope is invisible here.
	if st.TotalLinks != 1 {
		t.Errorf("TotalLinks = %d, want 1", st.TotalLinks)
	}
}

func TestFindStandalone(t *testing.T) {
	svc, store := testService(t)
	testutil.Seed(t, store, "Apple", "Banana")
	testutil.Seed(t, store, "Banana")
	testutil.Seed(t, store, "Cherry")
	testutil.Seed(t, store, "Dangler", "Ghost")

	standalone, err := svc.FindStandalone(context.Background(), notestore.Scope{})
	if err != nil {
		t.Fatalf("FindStandalone: %v", err)
	}
	if len(standalone) != 1 || standalone[0].Title != "Cherry" {
		t.Fatalf("standalone = %+v, want only Cherry", standalone)
	}
}

func TestFindStandaloneEmptyVault(t *testing.T) {
	svc, _ := testService(t)
	standalone, err := svc.FindStandalone(context.Background(), notestore.Scope{})
	if err != nil {
		t.Fatalf("FindStandalone: %v", err)
	}
	if len(standalone) != 0 {
		t.Errorf("standalone = %+v, want none", standalone)
	}
}
