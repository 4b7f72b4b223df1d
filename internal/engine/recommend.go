package engine

import (
	"fmt"
	"math"
)

type Action string

const (
	ActionWait         Action = "wait"
	ActionPivot        Action = "pivot"
	ActionOptimizeMeta Action = "optimize-meta"
	ActionRewrite      Action = "rewrite"
	ActionEither       Action = "either"
)

type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Recommendation is the engine's verdict for one experiment. Derived, never
// persisted: always recomputed from current stats.
type Recommendation struct {
	Action     Action     `json:"action"`
	Confidence Confidence `json:"confidence"`
	Reason     string     `json:"reason"`
}

// Signals are the inputs to the pivot-decision ladder.
type Signals struct {
	Impressions         int     // post-implementation
	BaselineImpressions int     // pre-implementation
	Clicks              int     // post-implementation
	Position            float64 // current position, sentinel if unranked
	CTRFail             *CTRBenchmarkFail
	PivotCount          int // keywords previously abandoned on this page
}

type rule struct {
	name    string
	matches func(s Signals) bool
	verdict func(s Signals) Recommendation
}

// Engine evaluates the pivot-decision rule ladder.
//
// The ladder is ordered and first-match-wins. The CTR carve-out and the
// growth carve-outs deliberately override the coarser rank-based rules
// below them, so the order itself is load-bearing.
type Engine struct {
	t     Thresholds
	rules []rule
}

func NewEngine(t Thresholds) *Engine {
	e := &Engine{t: t}
	e.rules = []rule{
		{
			name:    "ctr-benchmark-fail",
			matches: func(s Signals) bool { return s.CTRFail != nil },
			verdict: func(s Signals) Recommendation {
				return Recommendation{ActionOptimizeMeta, ConfidenceHigh, fmt.Sprintf(
					"Position %.1f should earn ~%d clicks from %d impressions; the page got %d. The title and description are the problem, not the content.",
					s.CTRFail.Position, s.CTRFail.ExpectedClicks, s.CTRFail.Impressions, s.CTRFail.ActualClicks)}
			},
		},
		{
			name:    "rising-star",
			matches: func(s Signals) bool { return growthPercent(s) >= 100 && s.Clicks == 0 },
			verdict: func(s Signals) Recommendation {
				return Recommendation{ActionWait, ConfidenceHigh, fmt.Sprintf(
					"Rising star: impressions are up %s since the baseline. Google is still evaluating; clicks usually follow.",
					growthLabel(s))}
			},
		},
		{
			name:    "modest-growth",
			matches: func(s Signals) bool { return growthPercent(s) >= 50 && s.Clicks == 0 && s.Position > 15 },
			verdict: func(s Signals) Recommendation {
				return Recommendation{ActionWait, ConfidenceMedium, fmt.Sprintf(
					"Impressions are up %s and the page is still climbing from position %.1f. Give it more time.",
					growthLabel(s), s.Position)}
			},
		},
		{
			name:    "has-clicks",
			matches: func(s Signals) bool { return s.Clicks > 0 },
			verdict: func(s Signals) Recommendation {
				return Recommendation{ActionWait, ConfidenceHigh, fmt.Sprintf(
					"The page already earned %d click(s) for this keyword. Momentum is working; don't reset it.", s.Clicks)}
			},
		},
		{
			name:    "strong-position",
			matches: func(s Signals) bool { return s.Position < 10 },
			verdict: func(s Signals) Recommendation {
				return Recommendation{ActionWait, ConfidenceHigh, fmt.Sprintf(
					"Position %.1f is already on page 1 and the CTR benchmark passed. Clicks should arrive as the snippet stabilizes.", s.Position)}
			},
		},
		{
			name:    "low-exposure",
			matches: func(s Signals) bool { return s.Impressions < 30 },
			verdict: func(s Signals) Recommendation {
				return Recommendation{ActionWait, ConfidenceMedium, fmt.Sprintf(
					"Only %d impressions so far; not enough exposure to judge the keyword yet.", s.Impressions)}
			},
		},
		{
			name:    "mid-position",
			matches: func(s Signals) bool { return s.Position >= 10 && s.Position < 20 },
			verdict: func(s Signals) Recommendation {
				return Recommendation{ActionWait, ConfidenceMedium, fmt.Sprintf(
					"Position %.1f is within striking distance of page 1. Waiting is cheaper than starting over.", s.Position)}
			},
		},
		{
			name:    "deep-and-ignored",
			matches: func(s Signals) bool { return s.Position >= 40 && s.Impressions >= 50 && s.Clicks == 0 },
			verdict: func(s Signals) Recommendation {
				return Recommendation{ActionPivot, ConfidenceHigh, fmt.Sprintf(
					"Position %.1f with %d impressions and zero clicks: Google sees the page but ranks it too deep to matter. Pivot to a keyword you can win.",
					s.Position, s.Impressions)}
			},
		},
		{
			name:    "repeat-pivoter",
			matches: func(s Signals) bool { return s.PivotCount >= 2 },
			verdict: func(s Signals) Recommendation {
				return Recommendation{ActionPivot, ConfidenceHigh, fmt.Sprintf(
					"%d keywords have already failed on this page. Pivot again, but let AI-hybrid generation pick the next one.",
					s.PivotCount)}
			},
		},
		{
			name:    "heavy-exposure-no-clicks",
			matches: func(s Signals) bool { return s.Position >= 30 && s.Impressions >= 100 && s.Clicks == 0 },
			verdict: func(s Signals) Recommendation {
				return Recommendation{ActionPivot, ConfidenceMedium, fmt.Sprintf(
					"%d impressions at position %.1f produced nothing. The keyword is probably too competitive for this page.",
					s.Impressions, s.Position)}
			},
		},
		{
			name:    "middle-band",
			matches: func(s Signals) bool { return s.Position >= 20 && s.Position < 40 },
			verdict: func(s Signals) Recommendation {
				return Recommendation{ActionEither, ConfidenceLow, fmt.Sprintf(
					"Position %.1f is genuinely ambiguous: waiting and pivoting are both defensible. Decide by how much this page matters to you.", s.Position)}
			},
		},
		{
			name:    "default",
			matches: func(s Signals) bool { return true },
			verdict: func(s Signals) Recommendation {
				return Recommendation{ActionEither, ConfidenceLow,
					"The signals don't point anywhere clearly. Wait another cycle or pivot; neither is obviously wrong."}
			},
		},
	}
	return e
}

// Recommend walks the ladder top-down and returns the first match.
func (e *Engine) Recommend(s Signals) Recommendation {
	if s.Position <= 0 {
		s.Position = e.t.UnrankedPosition
	}
	for _, r := range e.rules {
		if r.matches(s) {
			return r.verdict(s)
		}
	}
	// Unreachable: the default rule always matches.
	return Recommendation{ActionEither, ConfidenceLow, "no rule matched"}
}

// RuleNames returns the ladder order, for tests that pin it.
func (e *Engine) RuleNames() []string {
	names := make([]string, len(e.rules))
	for i, r := range e.rules {
		names[i] = r.name
	}
	return names
}

// E3Action resolves the severe-mismatch tier into rewrite vs pivot based on
// how much attention Google is already giving the page.
func (e *Engine) E3Action(impressions, baseline, clicks int) Recommendation {
	growing := impressions > baseline

	switch {
	case impressions < e.t.E3LowImpressions:
		return Recommendation{ActionPivot, ConfidenceHigh, fmt.Sprintf(
			"Only %d impressions: Google shows no relevance between this page and the keyword. Pivot.", impressions)}

	case impressions < e.t.E3HighImpressions && !growing:
		return Recommendation{ActionPivot, ConfidenceMedium, fmt.Sprintf(
			"%d impressions and flat against the baseline of %d. The keyword isn't catching on.", impressions, baseline)}

	case impressions < e.t.E3HighImpressions && growing:
		growth := impressions - baseline
		reason := fmt.Sprintf("Impressions grew by %d", growth)
		if baseline > 0 {
			reason = fmt.Sprintf("%s (%.0f%%)", reason, float64(growth)/float64(baseline)*100)
		}
		return Recommendation{ActionEither, ConfidenceMedium,
			reason + ", which is some traction. A rewrite could build on it, or pivot if you'd rather not bet on it."}

	case impressions >= e.t.E3HighImpressions:
		return Recommendation{ActionRewrite, ConfidenceHigh, fmt.Sprintf(
			"%d impressions means Google already validated topical relevance. Rewrite the content; don't discard that momentum.", impressions)}
	}

	// Fallback; the bands above are exhaustive for non-negative impressions.
	return Recommendation{ActionEither, ConfidenceLow, "Impression data is inconclusive."}
}

func growthPercent(s Signals) float64 {
	growth := s.Impressions - s.BaselineImpressions
	if s.BaselineImpressions <= 0 {
		if growth > 0 {
			return math.Inf(1)
		}
		return 0
	}
	return float64(growth) / float64(s.BaselineImpressions) * 100
}

func growthLabel(s Signals) string {
	pct := growthPercent(s)
	if math.IsInf(pct, 1) {
		return fmt.Sprintf("+%d from a zero baseline", s.Impressions-s.BaselineImpressions)
	}
	return fmt.Sprintf("%.0f%%", pct)
}
