// Package engine turns Search Console stats into tiers, benchmark checks,
// and action recommendations. Everything here is pure computation over an
// injected threshold table.
package engine

// CTRBreakpoint maps a rounded position ceiling to its historical
// expected CTR.
type CTRBreakpoint struct {
	MaxPosition float64
	CTR         float64
}

// Thresholds holds every tunable the classifier, benchmark evaluator, and
// eligibility predicates use. Injected rather than hard-coded so tests can
// swap values.
type Thresholds struct {
	// Tier bounds. Half-open on the lower side: position 15 is E1,
	// position 40 is E2.
	NearPage1Min float64
	NearPage1Max float64
	DepthMax     float64

	// Sentinel for missing/non-positive positions, worse than any real
	// rank.
	UnrankedPosition float64

	// Expected CTR by rounded position; first breakpoint whose
	// MaxPosition covers the value wins, DefaultCTR otherwise.
	ExpectedCTR []CTRBreakpoint
	DefaultCTR  float64

	// CTR benchmark guards.
	CTRMinImpressions   int
	CTRMaxPosition      float64
	CTRFailRatio        float64
	CTRMinExpectedZero  int // expected clicks needed to fail on zero actual clicks
	CTRMinExpectedFewer int // expected clicks needed to fail on the ratio check

	// E3 rewrite-vs-pivot impression bands.
	E3LowImpressions  int
	E3HighImpressions int

	// Tracking cycle lengths.
	EvalWindowDays int
	ExtendDays     int

	// Content-audit eligibility.
	AuditMinImpressionGrowth int
	AuditMinPosition         float64
}

// DefaultThresholds returns the production threshold table.
func DefaultThresholds() Thresholds {
	return Thresholds{
		NearPage1Min:     15,
		NearPage1Max:     25,
		DepthMax:         40,
		UnrankedPosition: 999,

		ExpectedCTR: []CTRBreakpoint{
			{MaxPosition: 1, CTR: 0.28},
			{MaxPosition: 2, CTR: 0.15},
			{MaxPosition: 3, CTR: 0.10},
			{MaxPosition: 4, CTR: 0.07},
			{MaxPosition: 5, CTR: 0.05},
			{MaxPosition: 10, CTR: 0.025},
		},
		DefaultCTR: 0.01,

		CTRMinImpressions:   50,
		CTRMaxPosition:      5,
		CTRFailRatio:        0.2,
		CTRMinExpectedZero:  5,
		CTRMinExpectedFewer: 3,

		E3LowImpressions:  20,
		E3HighImpressions: 50,

		EvalWindowDays: 45,
		ExtendDays:     45,

		AuditMinImpressionGrowth: 50,
		AuditMinPosition:         15,
	}
}

// ExpectedCTRFor returns the historical average CTR for a position,
// rounded to the nearest whole rank.
func (t Thresholds) ExpectedCTRFor(position float64) float64 {
	rounded := float64(int(position + 0.5))
	for _, bp := range t.ExpectedCTR {
		if rounded <= bp.MaxPosition {
			return bp.CTR
		}
	}
	return t.DefaultCTR
}
