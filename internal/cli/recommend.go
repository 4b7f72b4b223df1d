package cli

import (
	"context"
	"fmt"

	"github.com/serptrack/serptrack/internal/store"
	"github.com/spf13/cobra"
)

var recommendCmd = &cobra.Command{
	Use:   "recommend <page-url>",
	Short: "Show the current recommendation for a page",
	Long: `Compute the recommendation for a page from its latest stats: wait,
pivot, optimize the title/description, or rewrite the content.

Recommendations are always recomputed, never stored.`,
	Args: cobra.ExactArgs(1),
	RunE: runRecommend,
}

func init() {
	rootCmd.AddCommand(recommendCmd)
}

func runRecommend(cmd *cobra.Command, args []string) error {
	pageURL := args[0]

	return withStore(func(s *store.SQLiteStore) error {
		ctx := context.Background()

		exp, err := s.LoadExperiment(ctx, userID, pageURL)
		if err != nil {
			if err == store.ErrNotFound {
				return fmt.Errorf("no experiment for '%s'", pageURL)
			}
			return fmt.Errorf("failed to load experiment: %w", err)
		}

		adv := newAdvisor().Advise(exp)

		fmt.Printf("TIER: %s (%s)\n", adv.Tier.Level, adv.Tier.Label)
		fmt.Printf("  %s\n\n", adv.Tier.Message)

		if adv.CTRFail != nil {
			fmt.Println("CTR BENCHMARK: FAIL")
			fmt.Printf("  Position %.1f should earn ~%d clicks from %d impressions (%.1f%% expected CTR).\n",
				adv.CTRFail.Position, adv.CTRFail.ExpectedClicks, adv.CTRFail.Impressions, adv.CTRFail.ExpectedCTR*100)
			fmt.Printf("  Actual: %d clicks (%.2f%%).\n\n", adv.CTRFail.ActualClicks, adv.CTRFail.ActualCTR*100)
		}

		fmt.Printf("RECOMMENDATION: %s (%s confidence)\n", adv.Recommendation.Action, adv.Recommendation.Confidence)
		fmt.Printf("  %s\n", adv.Recommendation.Reason)

		if adv.E3 != nil {
			fmt.Println()
			fmt.Printf("REWRITE VS PIVOT: %s (%s confidence)\n", adv.E3.Action, adv.E3.Confidence)
			fmt.Printf("  %s\n", adv.E3.Reason)
		}

		fmt.Println()
		switch {
		case adv.AuditEligible:
			fmt.Println("This page qualifies for a content audit (full cycle, growing impressions, no clicks).")
		case adv.PivotEligible:
			fmt.Println("This page has finished its evaluation window; the decision above is live.")
		default:
			fmt.Printf("Still inside the evaluation window (%d days tracked).\n", adv.DaysTracked)
		}

		if len(adv.Tier.PriorityActions) > 0 {
			fmt.Println()
			fmt.Println("Priority actions:")
			for _, a := range adv.Tier.PriorityActions {
				fmt.Printf("  - %s\n", a)
			}
		}

		return nil
	})
}
