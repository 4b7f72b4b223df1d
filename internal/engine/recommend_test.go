package engine_test

import (
	"reflect"
	"testing"

	"github.com/serptrack/serptrack/internal/engine"
)

func newEngine() *engine.Engine {
	return engine.NewEngine(engine.DefaultThresholds())
}

func TestRecommend_LadderOrder(t *testing.T) {
	// The ladder is first-match-wins, so its order is part of the contract.
	want := []string{
		"ctr-benchmark-fail",
		"rising-star",
		"modest-growth",
		"has-clicks",
		"strong-position",
		"low-exposure",
		"mid-position",
		"deep-and-ignored",
		"repeat-pivoter",
		"heavy-exposure-no-clicks",
		"middle-band",
		"default",
	}

	if got := newEngine().RuleNames(); !reflect.DeepEqual(got, want) {
		t.Errorf("rule order = %v, want %v", got, want)
	}
}

func TestRecommend_CTRFailBeatsWaitRules(t *testing.T) {
	e := newEngine()

	// A strong position would normally say wait, but a CTR benchmark fail
	// takes priority: the title is the problem.
	fail := &engine.CTRBenchmarkFail{Position: 2, Impressions: 60, ExpectedClicks: 9}
	rec := e.Recommend(engine.Signals{Position: 2, Impressions: 60, Clicks: 0, CTRFail: fail})

	if rec.Action != engine.ActionOptimizeMeta {
		t.Errorf("action = %s, want %s", rec.Action, engine.ActionOptimizeMeta)
	}
	if rec.Confidence != engine.ConfidenceHigh {
		t.Errorf("confidence = %s, want high", rec.Confidence)
	}
}

func TestRecommend_RisingStar(t *testing.T) {
	e := newEngine()

	// Impressions more than doubled with no clicks yet: wait.
	rec := e.Recommend(engine.Signals{Position: 50, Impressions: 40, BaselineImpressions: 15, Clicks: 0})

	if rec.Action != engine.ActionWait || rec.Confidence != engine.ConfidenceHigh {
		t.Errorf("got %s/%s, want wait/high", rec.Action, rec.Confidence)
	}
}

func TestRecommend_RisingStarFromZeroBaseline(t *testing.T) {
	e := newEngine()

	// Any growth from a zero baseline counts as unbounded growth.
	rec := e.Recommend(engine.Signals{Position: 60, Impressions: 25, BaselineImpressions: 0, Clicks: 0})

	if rec.Action != engine.ActionWait || rec.Confidence != engine.ConfidenceHigh {
		t.Errorf("got %s/%s, want wait/high", rec.Action, rec.Confidence)
	}
}

func TestRecommend_HasClicks(t *testing.T) {
	e := newEngine()

	// Clicks anywhere mean momentum, even at a deep position.
	rec := e.Recommend(engine.Signals{Position: 45, Impressions: 200, BaselineImpressions: 190, Clicks: 2})

	if rec.Action != engine.ActionWait || rec.Confidence != engine.ConfidenceHigh {
		t.Errorf("got %s/%s, want wait/high", rec.Action, rec.Confidence)
	}
}

func TestRecommend_StrongPosition(t *testing.T) {
	e := newEngine()

	rec := e.Recommend(engine.Signals{Position: 5, Impressions: 40, BaselineImpressions: 40, Clicks: 0})

	if rec.Action != engine.ActionWait || rec.Confidence != engine.ConfidenceHigh {
		t.Errorf("got %s/%s, want wait/high", rec.Action, rec.Confidence)
	}
}

func TestRecommend_LowExposure(t *testing.T) {
	e := newEngine()

	rec := e.Recommend(engine.Signals{Position: 35, Impressions: 10, BaselineImpressions: 9, Clicks: 0})

	if rec.Action != engine.ActionWait || rec.Confidence != engine.ConfidenceMedium {
		t.Errorf("got %s/%s, want wait/medium", rec.Action, rec.Confidence)
	}
}

func TestRecommend_MidPosition(t *testing.T) {
	e := newEngine()

	rec := e.Recommend(engine.Signals{Position: 15, Impressions: 35, BaselineImpressions: 30, Clicks: 0})

	if rec.Action != engine.ActionWait || rec.Confidence != engine.ConfidenceMedium {
		t.Errorf("got %s/%s, want wait/medium", rec.Action, rec.Confidence)
	}
}

func TestRecommend_DeepAndIgnored(t *testing.T) {
	e := newEngine()

	rec := e.Recommend(engine.Signals{Position: 45, Impressions: 80, BaselineImpressions: 70, Clicks: 0})

	if rec.Action != engine.ActionPivot || rec.Confidence != engine.ConfidenceHigh {
		t.Errorf("got %s/%s, want pivot/high", rec.Action, rec.Confidence)
	}
}

func TestRecommend_RepeatPivoter(t *testing.T) {
	e := newEngine()

	rec := e.Recommend(engine.Signals{Position: 25, Impressions: 40, BaselineImpressions: 35, Clicks: 0, PivotCount: 2})

	if rec.Action != engine.ActionPivot || rec.Confidence != engine.ConfidenceHigh {
		t.Errorf("got %s/%s, want pivot/high", rec.Action, rec.Confidence)
	}
}

func TestRecommend_HeavyExposureNoClicks(t *testing.T) {
	e := newEngine()

	rec := e.Recommend(engine.Signals{Position: 35, Impressions: 120, BaselineImpressions: 110, Clicks: 0})

	if rec.Action != engine.ActionPivot || rec.Confidence != engine.ConfidenceMedium {
		t.Errorf("got %s/%s, want pivot/medium", rec.Action, rec.Confidence)
	}
}

func TestRecommend_MiddleBand(t *testing.T) {
	e := newEngine()

	rec := e.Recommend(engine.Signals{Position: 25, Impressions: 40, BaselineImpressions: 38, Clicks: 0})

	if rec.Action != engine.ActionEither || rec.Confidence != engine.ConfidenceLow {
		t.Errorf("got %s/%s, want either/low", rec.Action, rec.Confidence)
	}
}

func TestRecommend_UnrankedFallsToDefault(t *testing.T) {
	e := newEngine()

	// Position 0 maps to the unranked sentinel; with modest flat
	// impressions nothing stronger matches.
	rec := e.Recommend(engine.Signals{Position: 0, Impressions: 40, BaselineImpressions: 40, Clicks: 0})

	if rec.Action != engine.ActionEither || rec.Confidence != engine.ConfidenceLow {
		t.Errorf("got %s/%s, want either/low", rec.Action, rec.Confidence)
	}
}

func TestE3Action_Bands(t *testing.T) {
	e := newEngine()

	cases := []struct {
		name        string
		impressions int
		baseline    int
		wantAction  engine.Action
		wantConf    engine.Confidence
	}{
		{"almost no impressions", 10, 0, engine.ActionPivot, engine.ConfidenceHigh},
		{"flat low impressions", 30, 30, engine.ActionPivot, engine.ConfidenceMedium},
		{"growing low impressions", 35, 20, engine.ActionEither, engine.ConfidenceMedium},
		{"validated relevance", 60, 10, engine.ActionRewrite, engine.ConfidenceHigh},
	}

	for _, tc := range cases {
		rec := e.E3Action(tc.impressions, tc.baseline, 0)
		if rec.Action != tc.wantAction || rec.Confidence != tc.wantConf {
			t.Errorf("%s: got %s/%s, want %s/%s", tc.name, rec.Action, rec.Confidence, tc.wantAction, tc.wantConf)
		}
	}
}
