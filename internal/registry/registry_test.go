package registry_test

import (
	"errors"
	"testing"

	"github.com/serptrack/serptrack/internal/registry"
	"github.com/serptrack/serptrack/internal/store"
)

func TestAssign_Exclusive(t *testing.T) {
	r := registry.New()

	if err := r.Assign("pricing calculator", "https://a.com/pricing"); err != nil {
		t.Fatalf("first assign failed: %v", err)
	}

	err := r.Assign("pricing calculator", "https://a.com/other")
	if !errors.Is(err, registry.ErrKeywordTaken) {
		t.Fatalf("expected ErrKeywordTaken, got %v", err)
	}

	// A failed assign must not mutate the registry.
	if page, _ := r.PageFor("pricing calculator"); page != "https://a.com/pricing" {
		t.Errorf("keyword moved to %s after a rejected assign", page)
	}
	if r.Len() != 1 {
		t.Errorf("registry size = %d, want 1", r.Len())
	}
}

func TestAssign_CaseInsensitive(t *testing.T) {
	r := registry.New()

	if err := r.Assign("Pricing Calculator", "https://a.com/pricing"); err != nil {
		t.Fatalf("assign failed: %v", err)
	}

	err := r.Assign("pricing calculator", "https://a.com/other")
	if !errors.Is(err, registry.ErrKeywordTaken) {
		t.Fatalf("expected case-insensitive conflict, got %v", err)
	}

	// Original casing survives for display.
	if kw, ok := r.KeywordFor("https://a.com/pricing"); !ok || kw != "Pricing Calculator" {
		t.Errorf("KeywordFor = %q, want original casing", kw)
	}
}

func TestAssign_SamePageReassigns(t *testing.T) {
	r := registry.New()

	if err := r.Assign("old keyword", "https://a.com/pricing"); err != nil {
		t.Fatalf("assign failed: %v", err)
	}
	if err := r.Assign("new keyword", "https://a.com/pricing"); err != nil {
		t.Fatalf("reassign failed: %v", err)
	}

	// The old keyword is freed; a page holds at most one keyword.
	if _, ok := r.PageFor("old keyword"); ok {
		t.Error("old keyword should have been released")
	}
	if kw, _ := r.KeywordFor("https://a.com/pricing"); kw != "new keyword" {
		t.Errorf("KeywordFor = %q, want 'new keyword'", kw)
	}
	if r.Len() != 1 {
		t.Errorf("registry size = %d, want 1", r.Len())
	}
}

func TestAssign_SameKeywordSamePageIsNoop(t *testing.T) {
	r := registry.New()

	if err := r.Assign("keyword", "https://a.com/p"); err != nil {
		t.Fatalf("assign failed: %v", err)
	}
	if err := r.Assign("keyword", "https://a.com/p"); err != nil {
		t.Errorf("reassigning the same pair should succeed, got %v", err)
	}
}

func TestClearPage(t *testing.T) {
	r := registry.New()

	if err := r.Assign("keyword", "https://a.com/p"); err != nil {
		t.Fatalf("assign failed: %v", err)
	}
	r.ClearPage("https://a.com/p")

	if r.Len() != 0 {
		t.Errorf("registry size = %d after clear, want 0", r.Len())
	}
	if err := r.Assign("keyword", "https://a.com/q"); err != nil {
		t.Errorf("keyword should be free after clear, got %v", err)
	}
}

func TestFromAssignments_RebuildAndSort(t *testing.T) {
	set := []store.KeywordAssignment{
		{Keyword: "zebra facts", PageURL: "https://a.com/zebra"},
		{Keyword: "Aardvark diet", PageURL: "https://a.com/aardvark"},
	}

	r := registry.FromAssignments(set)

	got := r.Assignments()
	if len(got) != 2 {
		t.Fatalf("got %d assignments, want 2", len(got))
	}
	if got[0].Keyword != "Aardvark diet" || got[1].Keyword != "zebra facts" {
		t.Errorf("assignments not sorted by keyword: %+v", got)
	}
}

func TestFromAssignments_LaterEntryWins(t *testing.T) {
	set := []store.KeywordAssignment{
		{Keyword: "keyword", PageURL: "https://a.com/old"},
		{Keyword: "Keyword", PageURL: "https://a.com/new"},
	}

	r := registry.FromAssignments(set)

	if r.Len() != 1 {
		t.Fatalf("registry size = %d, want 1", r.Len())
	}
	if page, _ := r.PageFor("keyword"); page != "https://a.com/new" {
		t.Errorf("PageFor = %s, want the later entry", page)
	}
}
