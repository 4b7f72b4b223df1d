package engine

import "math"

// CTRBenchmarkFail reports a page that ranks well but converts far fewer
// clicks than its position's historical average predicts. A nil result
// means the page passed, or the sample was too small to judge.
type CTRBenchmarkFail struct {
	Position       float64
	Impressions    int
	ExpectedClicks int
	ActualClicks   int
	ExpectedCTR    float64
	ActualCTR      float64
}

// Evaluator checks actual clicks against the expected-CTR table.
type Evaluator struct {
	t Thresholds
}

func NewEvaluator(t Thresholds) *Evaluator {
	return &Evaluator{t: t}
}

// Evaluate returns a fail when a well-ranked page badly underperforms its
// expected clicks. Pages outside the top positions or below the sample
// threshold return nil: not enough signal to call it a title problem.
func (e *Evaluator) Evaluate(position float64, impressions, clicks int) *CTRBenchmarkFail {
	if position <= 0 || position > e.t.CTRMaxPosition {
		return nil
	}
	if impressions < e.t.CTRMinImpressions {
		return nil
	}

	expectedCTR := e.t.ExpectedCTRFor(position)
	expectedClicks := int(math.Round(float64(impressions) * expectedCTR))
	actualCTR := float64(clicks) / float64(impressions)

	zeroClicksFail := clicks == 0 && expectedClicks >= e.t.CTRMinExpectedZero
	fewerClicksFail := actualCTR < expectedCTR*e.t.CTRFailRatio && expectedClicks >= e.t.CTRMinExpectedFewer

	if !zeroClicksFail && !fewerClicksFail {
		return nil
	}

	return &CTRBenchmarkFail{
		Position:       position,
		Impressions:    impressions,
		ExpectedClicks: expectedClicks,
		ActualClicks:   clicks,
		ExpectedCTR:    expectedCTR,
		ActualCTR:      actualCTR,
	}
}
