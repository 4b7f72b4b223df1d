package store_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/serptrack/serptrack/internal/store"
)

func openTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateAndLoadExperiment(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	implemented := time.Now().Add(-10 * 24 * time.Hour).Truncate(time.Second)
	exp := &store.Experiment{
		UserID:         "u1",
		PageURL:        "https://example.com/pricing",
		Status:         store.StatusImplemented,
		CurrentKeyword: "pricing calculator",
		KeywordSource:  store.SourceGSCExisting,
		Title:          "Pricing | Example",
		ImplementedAt:  &implemented,
		PreStats:       &store.StatsSnapshot{Impressions: 100, Clicks: 3, CTR: 0.03, Position: 22.5},
	}

	if err := s.CreateExperiment(ctx, exp); err != nil {
		t.Fatalf("failed to create experiment: %v", err)
	}

	got, err := s.LoadExperiment(ctx, "u1", "https://example.com/pricing")
	if err != nil {
		t.Fatalf("failed to load experiment: %v", err)
	}

	if got.Status != store.StatusImplemented {
		t.Errorf("status = %s, want %s", got.Status, store.StatusImplemented)
	}
	if got.CurrentKeyword != "pricing calculator" {
		t.Errorf("keyword = %q", got.CurrentKeyword)
	}
	if got.Title != "Pricing | Example" {
		t.Errorf("title = %q", got.Title)
	}
	if got.ImplementedAt == nil || got.ImplementedAt.Unix() != implemented.Unix() {
		t.Errorf("implemented_at = %v, want %v", got.ImplementedAt, implemented)
	}
	if got.PreStats == nil || got.PreStats.Impressions != 100 || got.PreStats.Position != 22.5 {
		t.Errorf("pre stats = %+v", got.PreStats)
	}
	if got.PostStats != nil {
		t.Errorf("post stats should be absent, got %+v", got.PostStats)
	}
}

func TestLoadExperiment_NotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.LoadExperiment(context.Background(), "u1", "https://example.com/missing")
	if err != store.ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestApplyPatch_SetAndClear(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	implemented := time.Now().Truncate(time.Second)
	exp := &store.Experiment{
		UserID:         "u1",
		PageURL:        "https://example.com/p",
		Status:         store.StatusImplemented,
		CurrentKeyword: "old keyword",
		ImplementedAt:  &implemented,
		PreStats:       &store.StatsSnapshot{Impressions: 50},
		PostStats:      &store.StatsSnapshot{Impressions: 80},
	}
	if err := s.CreateExperiment(ctx, exp); err != nil {
		t.Fatalf("failed to create experiment: %v", err)
	}

	patch := store.Patch{
		Set: map[store.Field]any{
			store.FieldStatus:         store.StatusPivoted,
			store.FieldCurrentKeyword: "new keyword",
		},
		Clear: []store.Field{
			store.FieldPreStats,
			store.FieldPostStats,
			store.FieldImplementedAt,
		},
	}
	if err := s.ApplyPatch(ctx, "u1", "https://example.com/p", patch); err != nil {
		t.Fatalf("failed to apply patch: %v", err)
	}

	got, err := s.LoadExperiment(ctx, "u1", "https://example.com/p")
	if err != nil {
		t.Fatalf("failed to load experiment: %v", err)
	}

	if got.Status != store.StatusPivoted {
		t.Errorf("status = %s, want %s", got.Status, store.StatusPivoted)
	}
	if got.CurrentKeyword != "new keyword" {
		t.Errorf("keyword = %q, want 'new keyword'", got.CurrentKeyword)
	}
	// Cleared fields read back as absent, not zero.
	if got.PreStats != nil || got.PostStats != nil || got.ImplementedAt != nil {
		t.Errorf("cleared fields still present: pre=%+v post=%+v implemented=%v",
			got.PreStats, got.PostStats, got.ImplementedAt)
	}
}

func TestApplyPatch_MissingExperiment(t *testing.T) {
	s := openTestStore(t)

	patch := store.Patch{Set: map[store.Field]any{store.FieldStatus: store.StatusPivoted}}
	err := s.ApplyPatch(context.Background(), "u1", "https://example.com/missing", patch)
	if err != store.ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestAppendArchive_OrderPreserved(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	exp := &store.Experiment{
		UserID:  "u1",
		PageURL: "https://example.com/p",
		Status:  store.StatusImplemented,
	}
	if err := s.CreateExperiment(ctx, exp); err != nil {
		t.Fatalf("failed to create experiment: %v", err)
	}

	base := time.Now().Add(-3 * 24 * time.Hour).Truncate(time.Second)
	entries := []store.ArchiveEntry{
		{ID: "a1", Kind: store.KindKeyword, Keyword: "first", ArchivedAt: base},
		{ID: "a2", Kind: store.KindMeta, Keyword: "first", ArchivedAt: base.Add(24 * time.Hour)},
		{ID: "a3", Kind: store.KindKeyword, Keyword: "second", ArchivedAt: base.Add(48 * time.Hour)},
	}
	for _, e := range entries {
		if err := s.AppendArchive(ctx, "u1", "https://example.com/p", e); err != nil {
			t.Fatalf("failed to append archive %s: %v", e.ID, err)
		}
	}

	got, err := s.LoadExperiment(ctx, "u1", "https://example.com/p")
	if err != nil {
		t.Fatalf("failed to load experiment: %v", err)
	}

	if len(got.Archives) != 3 {
		t.Fatalf("got %d archives, want 3", len(got.Archives))
	}
	for i, wantID := range []string{"a1", "a2", "a3"} {
		if got.Archives[i].ID != wantID {
			t.Errorf("archive[%d].ID = %s, want %s", i, got.Archives[i].ID, wantID)
		}
	}

	// Kind filters split the combined history.
	if n := len(got.KeywordStatsHistory()); n != 2 {
		t.Errorf("keyword history size = %d, want 2", n)
	}
	if n := len(got.MetaOptimizationHistory()); n != 1 {
		t.Errorf("meta history size = %d, want 1", n)
	}
}

func TestDeleteExperiment_RemovesArchives(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	exp := &store.Experiment{UserID: "u1", PageURL: "https://example.com/p", Status: store.StatusImplemented}
	if err := s.CreateExperiment(ctx, exp); err != nil {
		t.Fatalf("failed to create experiment: %v", err)
	}
	entry := store.ArchiveEntry{ID: "a1", Kind: store.KindKeyword, Keyword: "k", ArchivedAt: time.Now()}
	if err := s.AppendArchive(ctx, "u1", "https://example.com/p", entry); err != nil {
		t.Fatalf("failed to append archive: %v", err)
	}

	if err := s.DeleteExperiment(ctx, "u1", "https://example.com/p"); err != nil {
		t.Fatalf("failed to delete experiment: %v", err)
	}

	if _, err := s.LoadExperiment(ctx, "u1", "https://example.com/p"); err != store.ErrNotFound {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := s.DeleteExperiment(ctx, "u1", "https://example.com/p"); err != store.ErrNotFound {
		t.Errorf("second delete should report ErrNotFound, got %v", err)
	}
}

func TestReplaceAssignments_WholeSet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first := []store.KeywordAssignment{
		{Keyword: "alpha", PageURL: "https://a.com/1"},
		{Keyword: "beta", PageURL: "https://a.com/2"},
	}
	if err := s.ReplaceAssignments(ctx, "u1", first); err != nil {
		t.Fatalf("failed to replace assignments: %v", err)
	}

	second := []store.KeywordAssignment{
		{Keyword: "Gamma", PageURL: "https://a.com/3"},
	}
	if err := s.ReplaceAssignments(ctx, "u1", second); err != nil {
		t.Fatalf("failed to replace assignments: %v", err)
	}

	got, err := s.LoadAssignments(ctx, "u1")
	if err != nil {
		t.Fatalf("failed to load assignments: %v", err)
	}

	// Replacement is whole-set: the first two entries are gone.
	if len(got) != 1 {
		t.Fatalf("got %d assignments, want 1", len(got))
	}
	if got[0].Keyword != "Gamma" || got[0].PageURL != "https://a.com/3" {
		t.Errorf("assignment = %+v", got[0])
	}
}

func TestAssignments_IsolatedPerUser(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.ReplaceAssignments(ctx, "u1", []store.KeywordAssignment{{Keyword: "k", PageURL: "https://a.com/p"}}); err != nil {
		t.Fatalf("failed to replace assignments: %v", err)
	}
	if err := s.ReplaceAssignments(ctx, "u2", nil); err != nil {
		t.Fatalf("failed to replace assignments for u2: %v", err)
	}

	got, err := s.LoadAssignments(ctx, "u1")
	if err != nil {
		t.Fatalf("failed to load assignments: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("u2's write touched u1's registry: %+v", got)
	}
}
