package engine

import (
	"time"

	"github.com/serptrack/serptrack/internal/store"
)

// Advice bundles everything the UI shows for one experiment.
type Advice struct {
	Tier           Tier              `json:"tier"`
	CTRFail        *CTRBenchmarkFail `json:"ctr_benchmark_fail,omitempty"`
	Recommendation Recommendation    `json:"recommendation"`
	E3             *Recommendation   `json:"e3_resolution,omitempty"`
	AuditEligible  bool              `json:"audit_eligible"`
	PivotEligible  bool              `json:"pivot_options_eligible"`
	DaysTracked    int               `json:"days_tracked"`
}

// Advisor composes the classifier, the CTR evaluator, and the rule ladder
// into one read-only surface.
type Advisor struct {
	thresholds Thresholds
	classifier *Classifier
	evaluator  *Evaluator
	engine     *Engine
	now        func() time.Time
}

func NewAdvisor(t Thresholds) *Advisor {
	return &Advisor{
		thresholds: t,
		classifier: NewClassifier(t),
		evaluator:  NewEvaluator(t),
		engine:     NewEngine(t),
		now:        time.Now,
	}
}

// WithClock replaces the advisor's clock; tests pin "now" with it.
func (a *Advisor) WithClock(now func() time.Time) *Advisor {
	a.now = now
	return a
}

func (a *Advisor) Thresholds() Thresholds { return a.thresholds }

// Advise derives the full decision for one experiment from its current
// snapshots. Missing stats degrade to sentinels instead of failing.
func (a *Advisor) Advise(exp *store.Experiment) Advice {
	now := a.now()

	position := a.thresholds.UnrankedPosition
	impressions, clicks := 0, 0
	if exp.PostStats != nil {
		impressions = exp.PostStats.Impressions
		clicks = exp.PostStats.Clicks
		if exp.PostStats.Position > 0 {
			position = exp.PostStats.Position
		}
	}

	baseline := 0
	if exp.PreStats != nil {
		baseline = exp.PreStats.Impressions
	}

	tier := a.classifier.Classify(position)
	ctrFail := a.evaluator.Evaluate(position, impressions, clicks)

	rec := a.engine.Recommend(Signals{
		Impressions:         impressions,
		BaselineImpressions: baseline,
		Clicks:              clicks,
		Position:            position,
		CTRFail:             ctrFail,
		PivotCount:          exp.PivotCount(),
	})

	var e3 *Recommendation
	if tier.Level == TierSevereMismatch {
		r := a.engine.E3Action(impressions, baseline, clicks)
		e3 = &r
	}

	daysTracked := 0
	if exp.ImplementedAt != nil {
		daysTracked = DaysBetween(*exp.ImplementedAt, now)
	}

	return Advice{
		Tier:           tier,
		CTRFail:        ctrFail,
		Recommendation: rec,
		E3:             e3,
		AuditEligible:  IsEligibleForContentAudit(exp, now, a.thresholds),
		PivotEligible:  IsEligibleForPivotOptions(exp, now, a.thresholds),
		DaysTracked:    daysTracked,
	}
}
