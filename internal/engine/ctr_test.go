package engine_test

import (
	"testing"

	"github.com/serptrack/serptrack/internal/engine"
)

func TestExpectedCTRFor_RoundsToNearestRank(t *testing.T) {
	th := engine.DefaultThresholds()

	cases := []struct {
		position float64
		want     float64
	}{
		{1, 0.28},
		{1.4, 0.28},
		{1.6, 0.15},
		{3, 0.10},
		{8, 0.025},
		{11, 0.01}, // past the table, default CTR
	}

	for _, tc := range cases {
		if got := th.ExpectedCTRFor(tc.position); got != tc.want {
			t.Errorf("ExpectedCTRFor(%v) = %v, want %v", tc.position, got, tc.want)
		}
	}
}

func TestEvaluate_TooFewImpressions(t *testing.T) {
	e := engine.NewEvaluator(engine.DefaultThresholds())

	// 10 impressions at position 3 is not enough sample to call anything.
	if fail := e.Evaluate(3, 10, 0); fail != nil {
		t.Errorf("expected nil for small sample, got %+v", fail)
	}
}

func TestEvaluate_OutsideTopPositions(t *testing.T) {
	e := engine.NewEvaluator(engine.DefaultThresholds())

	if fail := e.Evaluate(6, 1000, 0); fail != nil {
		t.Errorf("expected nil for position 6, got %+v", fail)
	}
	if fail := e.Evaluate(0, 1000, 0); fail != nil {
		t.Errorf("expected nil for unranked page, got %+v", fail)
	}
}

func TestEvaluate_ZeroClicksFail(t *testing.T) {
	e := engine.NewEvaluator(engine.DefaultThresholds())

	// Position 1 with 100 impressions should earn ~28 clicks; zero is a fail.
	fail := e.Evaluate(1, 100, 0)
	if fail == nil {
		t.Fatal("expected a benchmark fail, got nil")
	}
	if fail.ExpectedClicks != 28 {
		t.Errorf("expected clicks = %d, want 28", fail.ExpectedClicks)
	}
	if fail.ExpectedCTR != 0.28 {
		t.Errorf("expected CTR = %v, want 0.28", fail.ExpectedCTR)
	}
}

func TestEvaluate_FarBelowExpectedFail(t *testing.T) {
	e := engine.NewEvaluator(engine.DefaultThresholds())

	// Position 4 at 100 impressions expects ~7 clicks; 1 click is under a
	// fifth of the expected CTR.
	fail := e.Evaluate(4, 100, 1)
	if fail == nil {
		t.Fatal("expected a benchmark fail, got nil")
	}
	if fail.ActualClicks != 1 {
		t.Errorf("actual clicks = %d, want 1", fail.ActualClicks)
	}
}

func TestEvaluate_HealthyCTRPasses(t *testing.T) {
	e := engine.NewEvaluator(engine.DefaultThresholds())

	// 25 clicks from 100 impressions at position 2 beats the benchmark.
	if fail := e.Evaluate(2, 100, 25); fail != nil {
		t.Errorf("expected pass, got %+v", fail)
	}
}

func TestEvaluate_UnderperformingButAboveRatioPasses(t *testing.T) {
	e := engine.NewEvaluator(engine.DefaultThresholds())

	// Position 5 expects 5% CTR. 2 clicks from 100 impressions is below
	// expectation but above a fifth of it, so it is not a benchmark fail.
	if fail := e.Evaluate(5, 100, 2); fail != nil {
		t.Errorf("expected pass above the fail ratio, got %+v", fail)
	}
}
