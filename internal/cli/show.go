package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/serptrack/serptrack/internal/store"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show <page-url>",
	Short: "Show detailed state for an experiment",
	Long:  `Show an experiment's current cycle, stats history, keyword history, and archived cycles.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
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

		fmt.Printf("PAGE: %s\n", exp.PageURL)
		fmt.Printf("KEYWORD: %s (%s)\n", exp.CurrentKeyword, exp.KeywordSource)
		fmt.Printf("STATUS: %s\n", exp.Status)
		if exp.ImplementedAt != nil {
			fmt.Printf("TRACKING SINCE: %s (%d days)\n", exp.ImplementedAt.Format("2006-01-02"), adv.DaysTracked)
		}
		if exp.ExtendedDeadline != nil {
			fmt.Printf("EXTENDED UNTIL: %s (%d days total)\n", exp.ExtendedDeadline.Format("2006-01-02"), exp.ExtendedTotalDays)
		}
		fmt.Println()

		printSnapshot("BASELINE", exp.PreStats)
		printSnapshot("CURRENT", exp.PostStats)

		if len(exp.PostStatsHistory) > 0 {
			fmt.Println("TREND:")
			for _, snap := range exp.PostStatsHistory {
				fmt.Printf("  %s  pos %.1f  impr %d  clicks %d\n",
					snap.CapturedAt.Format("2006-01-02"), snap.Position, snap.Impressions, snap.Clicks)
			}
			fmt.Println()
		}

		fmt.Printf("TIER: %s (%s)\n", adv.Tier.Level, adv.Tier.Label)
		fmt.Printf("RECOMMENDATION: %s (%s confidence)\n", adv.Recommendation.Action, adv.Recommendation.Confidence)
		fmt.Printf("  %s\n", adv.Recommendation.Reason)
		fmt.Println()

		if len(exp.KeywordHistory) > 0 {
			fmt.Println("KEYWORDS TRIED:")
			for _, trial := range exp.KeywordHistory {
				fmt.Printf("  %s (%s, %s)\n", trial.Keyword, trial.Source, trial.TestedAt.Format("2006-01-02"))
			}
			fmt.Println()
		}

		if len(exp.Archives) > 0 {
			fmt.Println("ARCHIVED CYCLES:")
			fmt.Println(strings.Repeat("─", 60))
			for _, a := range exp.Archives {
				fmt.Printf("  [%s] %s — %d days tracked, archived %s\n",
					a.Kind, a.Keyword, a.DaysTracked, a.ArchivedAt.Format("2006-01-02"))
				if a.PostStats != nil {
					fmt.Printf("        final: pos %.1f, impr %d, clicks %d\n",
						a.PostStats.Position, a.PostStats.Impressions, a.PostStats.Clicks)
				}
				if a.Reason != "" {
					fmt.Printf("        reason: %s\n", a.Reason)
				}
			}
		}

		return nil
	})
}

func printSnapshot(label string, snap *store.StatsSnapshot) {
	if snap == nil {
		fmt.Printf("%s: no data\n\n", label)
		return
	}
	fmt.Printf("%s:\n", label)
	fmt.Printf("  Position:    %.1f\n", snap.Position)
	fmt.Printf("  Impressions: %d\n", snap.Impressions)
	fmt.Printf("  Clicks:      %d\n", snap.Clicks)
	fmt.Printf("  CTR:         %.2f%%\n", snap.CTR*100)
	fmt.Println()
}
