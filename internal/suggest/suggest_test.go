package suggest_test

import (
	"strings"
	"testing"
	"time"

	"github.com/serptrack/serptrack/internal/engine"
	"github.com/serptrack/serptrack/internal/store"
	"github.com/serptrack/serptrack/internal/suggest"
)

func TestRewriteBrief_UsesE3Resolution(t *testing.T) {
	now := time.Now()
	implemented := now.Add(-50 * 24 * time.Hour)
	exp := &store.Experiment{
		PageURL:        "https://example.com/pricing",
		CurrentKeyword: "b2b pricing tools",
		ImplementedAt:  &implemented,
		PreStats:       &store.StatsSnapshot{Impressions: 100},
		PostStats:      &store.StatsSnapshot{Impressions: 170, Position: 42},
	}

	adv := engine.NewAdvisor(engine.DefaultThresholds()).Advise(exp)
	if adv.E3 == nil {
		t.Fatal("test setup should produce an E3 resolution")
	}

	brief, err := suggest.RewriteBrief(exp, adv)
	if err != nil {
		t.Fatalf("failed to render brief: %v", err)
	}

	for _, want := range []string{
		"https://example.com/pricing",
		"b2b pricing tools",
		"E3",
		string(adv.E3.Action),
		"170",
	} {
		if !strings.Contains(brief, want) {
			t.Errorf("brief missing %q:\n%s", want, brief)
		}
	}
}

func TestRewriteBrief_NoStats(t *testing.T) {
	exp := &store.Experiment{
		PageURL:        "https://example.com/new",
		CurrentKeyword: "fresh keyword",
	}

	adv := engine.NewAdvisor(engine.DefaultThresholds()).Advise(exp)
	brief, err := suggest.RewriteBrief(exp, adv)
	if err != nil {
		t.Fatalf("failed to render brief: %v", err)
	}
	if !strings.Contains(brief, "fresh keyword") {
		t.Errorf("brief missing keyword:\n%s", brief)
	}
}

func TestMetaBrief_IncludesBenchmarkNumbers(t *testing.T) {
	exp := &store.Experiment{
		PageURL:         "https://example.com/guide",
		CurrentKeyword:  "onboarding guide",
		Title:           "Old Title",
		MetaDescription: "Old description",
		PostStats:       &store.StatsSnapshot{Impressions: 100, Clicks: 0, Position: 1},
	}

	adv := engine.NewAdvisor(engine.DefaultThresholds()).Advise(exp)
	if adv.CTRFail == nil {
		t.Fatal("test setup should produce a CTR benchmark fail")
	}

	brief, err := suggest.MetaBrief(exp, adv)
	if err != nil {
		t.Fatalf("failed to render brief: %v", err)
	}

	for _, want := range []string{
		"onboarding guide",
		"Expected clicks: 28",
		"Old Title",
		"Old description",
	} {
		if !strings.Contains(brief, want) {
			t.Errorf("brief missing %q:\n%s", want, brief)
		}
	}
}
