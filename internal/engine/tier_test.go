package engine_test

import (
	"testing"

	"github.com/serptrack/serptrack/internal/engine"
)

func TestClassify_Boundaries(t *testing.T) {
	c := engine.NewClassifier(engine.DefaultThresholds())

	cases := []struct {
		position float64
		want     engine.TierLevel
	}{
		{15, engine.TierNearPage1},
		{24.9, engine.TierNearPage1},
		{25, engine.TierNearPage1},
		{25.1, engine.TierNeedsDepth},
		{40, engine.TierNeedsDepth},
		{40.1, engine.TierSevereMismatch},
		{87, engine.TierSevereMismatch},
	}

	for _, tc := range cases {
		got := c.Classify(tc.position).Level
		if got != tc.want {
			t.Errorf("Classify(%v) = %s, want %s", tc.position, got, tc.want)
		}
	}
}

func TestClassify_BetterThanBand(t *testing.T) {
	// Positions above the near-page-1 band still classify as E1; the
	// remedy is the same title/description work.
	c := engine.NewClassifier(engine.DefaultThresholds())

	if got := c.Classify(3).Level; got != engine.TierNearPage1 {
		t.Errorf("Classify(3) = %s, want %s", got, engine.TierNearPage1)
	}
}

func TestClassify_UnrankedIsSevere(t *testing.T) {
	c := engine.NewClassifier(engine.DefaultThresholds())

	for _, pos := range []float64{0, -1} {
		if got := c.Classify(pos).Level; got != engine.TierSevereMismatch {
			t.Errorf("Classify(%v) = %s, want %s", pos, got, engine.TierSevereMismatch)
		}
	}
}

func TestClassify_HasPriorityActions(t *testing.T) {
	c := engine.NewClassifier(engine.DefaultThresholds())

	for _, pos := range []float64{20, 35, 80} {
		tier := c.Classify(pos)
		if len(tier.PriorityActions) == 0 {
			t.Errorf("Classify(%v) tier %s has no priority actions", pos, tier.Level)
		}
	}
}
