// Package suggest renders human-readable briefs for the rewrite and
// optimize-meta flows. Generation only: nothing here mutates an
// experiment; the rewrite transition commits separately after the user
// confirms.
package suggest

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/serptrack/serptrack/internal/engine"
	"github.com/serptrack/serptrack/internal/store"
)

const rewriteBriefTmpl = `REWRITE BRIEF: {{.PageURL}}
Focus keyword: {{.Keyword}}
Tier: {{.TierLevel}} ({{.TierLabel}})

{{.TierMessage}}
{{if .Stats}}
Current performance ({{.DaysTracked}} days tracked):
  Position:    {{printf "%.1f" .Stats.Position}}
  Impressions: {{.Stats.Impressions}}{{if .Baseline}} (baseline {{.Baseline.Impressions}}){{end}}
  Clicks:      {{.Stats.Clicks}}
{{end}}
Recommendation: {{.Action}} ({{.Confidence}} confidence)
{{.Reason}}

Priority actions:
{{range .Actions}}  - {{.}}
{{end}}
Confirming the rewrite archives this cycle and restarts tracking with the
latest performance as the new baseline.
`

const metaBriefTmpl = `META OPTIMIZATION BRIEF: {{.PageURL}}
Focus keyword: {{.Keyword}}
{{if .CTRFail}}
The page ranks at position {{printf "%.1f" .CTRFail.Position}} but converts far below benchmark:
  Expected clicks: {{.CTRFail.ExpectedClicks}} ({{printf "%.1f" .ExpectedPct}}% of {{.CTRFail.Impressions}} impressions)
  Actual clicks:   {{.CTRFail.ActualClicks}} ({{printf "%.2f" .ActualPct}}%)

This is a title/description problem, not a content or keyword problem.
{{end}}{{if .PrevTitle}}Current title: {{.PrevTitle}}
{{end}}{{if .PrevDescription}}Current description: {{.PrevDescription}}
{{end}}
Rework the title and meta description around "{{.Keyword}}": lead with the
keyword, state the concrete benefit, and keep the title under 60
characters. The previous copy is archived for comparison.
`

var (
	rewriteTmpl = template.Must(template.New("rewrite").Parse(rewriteBriefTmpl))
	metaTmpl    = template.Must(template.New("meta").Parse(metaBriefTmpl))
)

// RewriteBrief renders the phase-one rewrite plan for an experiment.
func RewriteBrief(exp *store.Experiment, adv engine.Advice) (string, error) {
	actions := adv.Tier.PriorityActions
	reason := adv.Recommendation.Reason
	action := adv.Recommendation.Action
	confidence := adv.Recommendation.Confidence
	if adv.E3 != nil {
		reason = adv.E3.Reason
		action = adv.E3.Action
		confidence = adv.E3.Confidence
	}

	data := struct {
		PageURL, Keyword        string
		TierLevel               engine.TierLevel
		TierLabel, TierMessage  string
		Stats, Baseline         *store.StatsSnapshot
		DaysTracked             int
		Action                  engine.Action
		Confidence              engine.Confidence
		Reason                  string
		Actions                 []string
	}{
		PageURL:     exp.PageURL,
		Keyword:     exp.CurrentKeyword,
		TierLevel:   adv.Tier.Level,
		TierLabel:   adv.Tier.Label,
		TierMessage: adv.Tier.Message,
		Stats:       exp.PostStats,
		Baseline:    exp.PreStats,
		DaysTracked: adv.DaysTracked,
		Action:      action,
		Confidence:  confidence,
		Reason:      reason,
		Actions:     actions,
	}

	var b strings.Builder
	if err := rewriteTmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("failed to render rewrite brief: %w", err)
	}
	return b.String(), nil
}

// MetaBrief renders the optimize-meta plan, including the benchmark
// numbers when the CTR check failed.
func MetaBrief(exp *store.Experiment, adv engine.Advice) (string, error) {
	data := struct {
		PageURL, Keyword           string
		CTRFail                    *engine.CTRBenchmarkFail
		ExpectedPct, ActualPct     float64
		PrevTitle, PrevDescription string
	}{
		PageURL:         exp.PageURL,
		Keyword:         exp.CurrentKeyword,
		CTRFail:         adv.CTRFail,
		PrevTitle:       exp.Title,
		PrevDescription: exp.MetaDescription,
	}
	if adv.CTRFail != nil {
		data.ExpectedPct = adv.CTRFail.ExpectedCTR * 100
		data.ActualPct = adv.CTRFail.ActualCTR * 100
	}

	var b strings.Builder
	if err := metaTmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("failed to render meta brief: %w", err)
	}
	return b.String(), nil
}
