package engine

import (
	"time"

	"github.com/serptrack/serptrack/internal/store"
)

// DaysBetween returns the whole days elapsed from a to b, floored, never
// negative. Every call site that needs "days tracked" goes through here.
func DaysBetween(a, b time.Time) int {
	if b.Before(a) {
		return 0
	}
	return int(b.Sub(a) / (24 * time.Hour))
}

// IsEligibleForContentAudit reports whether the experiment earned the
// content-depth path: a full cycle elapsed, zero clicks, meaningful
// impression growth, and a position that says "indexed but buried".
func IsEligibleForContentAudit(exp *store.Experiment, now time.Time, t Thresholds) bool {
	if exp.ImplementedAt == nil || exp.PreStats == nil || exp.PostStats == nil {
		return false
	}
	if DaysBetween(*exp.ImplementedAt, now) < t.EvalWindowDays {
		return false
	}
	if exp.PostStats.Clicks != 0 {
		return false
	}
	if exp.PostStats.Impressions-exp.PreStats.Impressions < t.AuditMinImpressionGrowth {
		return false
	}
	return exp.PostStats.Position >= t.AuditMinPosition
}

// IsEligibleForPivotOptions reports whether the experiment has earned a
// decision but doesn't qualify for the content-audit path, so it falls
// into the wait/pivot/optimize-meta tree instead. By construction this is
// mutually exclusive with IsEligibleForContentAudit.
func IsEligibleForPivotOptions(exp *store.Experiment, now time.Time, t Thresholds) bool {
	if exp.ImplementedAt == nil {
		return false
	}
	if DaysBetween(*exp.ImplementedAt, now) < t.EvalWindowDays {
		return false
	}
	if exp.Status == store.StatusPivoted {
		return false
	}
	return !IsEligibleForContentAudit(exp, now, t)
}
