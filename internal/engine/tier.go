package engine

// TierLevel identifies the severity of a page's ranking problem.
type TierLevel string

const (
	TierNearPage1      TierLevel = "E1"
	TierNeedsDepth     TierLevel = "E2"
	TierSevereMismatch TierLevel = "E3"
)

// Tier is the classification result plus the remedy copy shown to the
// user.
type Tier struct {
	Level           TierLevel
	Label           string
	Message         string
	PriorityActions []string
}

// Classifier maps a current position to a tier.
type Classifier struct {
	t Thresholds
}

func NewClassifier(t Thresholds) *Classifier {
	return &Classifier{t: t}
}

// Classify returns exactly one tier for any position. Boundaries are
// half-open on the lower bound: 15 is E1, 40 is E2, 40.1 is E3.
// Non-positive positions mean the page is unranked and get the most
// severe tier. Positions better than the E1 band also report E1; the
// remedy there is still title/description work.
func (c *Classifier) Classify(position float64) Tier {
	if position <= 0 {
		position = c.t.UnrankedPosition
	}

	switch {
	case position <= c.t.NearPage1Max:
		return Tier{
			Level:   TierNearPage1,
			Label:   "near page 1",
			Message: "This page is close to page 1. Small relevance signals can push it over.",
			PriorityActions: []string{
				"Optimize the title and meta description for the focus keyword",
				"Add 2-3 internal links pointing at this page",
			},
		}
	case position <= c.t.DepthMax:
		return Tier{
			Level:   TierNeedsDepth,
			Label:   "needs depth",
			Message: "Google sees some relevance but the content is too thin to compete.",
			PriorityActions: []string{
				"Expand the content by 300-500 words",
				"Add an FAQ section answering related questions",
				"Improve heading structure around the focus keyword",
			},
		}
	default:
		return Tier{
			Level:   TierSevereMismatch,
			Label:   "severe mismatch",
			Message: "Google does not associate this page with the keyword. Rewrite the content or pivot to a different keyword.",
			PriorityActions: []string{
				"Review the rewrite-vs-pivot recommendation below",
			},
		}
	}
}
