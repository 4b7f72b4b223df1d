package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/serptrack/serptrack/internal/store"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all tracked experiments",
	Long:  `List all experiments with their status, current stats, and recommended action.`,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	return withStore(func(s *store.SQLiteStore) error {
		ctx := context.Background()

		exps, err := s.ListExperiments(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to list experiments: %w", err)
		}

		if len(exps) == 0 {
			fmt.Println("No experiments yet.")
			fmt.Println()
			fmt.Println("Start tracking a page:")
			fmt.Println("  serptrack implement <page-url> <keyword>")
			return nil
		}

		advisor := newAdvisor()

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "PAGE\tKEYWORD\tSTATUS\tDAYS\tPOSITION\tIMPR\tCLICKS\tTIER\tACTION")

		for _, exp := range exps {
			adv := advisor.Advise(exp)

			position, impressions, clicks := "—", "—", "—"
			if exp.PostStats != nil {
				position = fmt.Sprintf("%.1f", exp.PostStats.Position)
				impressions = fmt.Sprintf("%d", exp.PostStats.Impressions)
				clicks = fmt.Sprintf("%d", exp.PostStats.Clicks)
			}

			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\t%s\t%s\t%s (%s)\n",
				exp.PageURL,
				exp.CurrentKeyword,
				exp.Status,
				adv.DaysTracked,
				position,
				impressions,
				clicks,
				adv.Tier.Level,
				adv.Recommendation.Action,
				adv.Recommendation.Confidence,
			)
		}

		w.Flush()
		return nil
	})
}
