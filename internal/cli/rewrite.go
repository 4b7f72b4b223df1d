package cli

import (
	"context"
	"fmt"

	"github.com/serptrack/serptrack/internal/lifecycle"
	"github.com/serptrack/serptrack/internal/store"
	"github.com/serptrack/serptrack/internal/suggest"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newRewriteCmd())
}

func newRewriteCmd() *cobra.Command {
	var planOnly bool
	var yes bool

	cmd := &cobra.Command{
		Use:   "rewrite <page-url>",
		Short: "Plan and confirm a content rewrite",
		Long: `Two-phase rewrite flow. Phase one prints a rewrite brief and changes
nothing. Confirming archives the cycle and restarts tracking with the
latest measured performance carried forward as the new baseline - the
momentum Google already gave the page is not discarded.

Example:
  serptrack rewrite https://example.com/pricing --plan   # brief only
  serptrack rewrite https://example.com/pricing          # brief + confirm`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pageURL := args[0]

			return withService(func(s *store.SQLiteStore, svc *lifecycle.Service) error {
				ctx := context.Background()

				exp, err := s.LoadExperiment(ctx, userID, pageURL)
				if err != nil {
					if err == store.ErrNotFound {
						return fmt.Errorf("no experiment for '%s'", pageURL)
					}
					return fmt.Errorf("failed to load experiment: %w", err)
				}

				brief, err := suggest.RewriteBrief(exp, newAdvisor().Advise(exp))
				if err != nil {
					return fmt.Errorf("failed to build brief: %w", err)
				}
				fmt.Println(brief)

				if planOnly {
					return nil
				}

				if !yes {
					ok, err := confirm("Confirm the rewrite and restart tracking")
					if err != nil {
						return err
					}
					if !ok {
						fmt.Println("Cancelled. Nothing was changed.")
						return nil
					}
				}

				exp, err = svc.ConfirmRewrite(ctx, userID, pageURL)
				if err != nil {
					return fmt.Errorf("failed to confirm rewrite: %w", err)
				}

				fmt.Println("Rewrite confirmed. Cycle archived and tracking restarted.")
				if exp.PreStats != nil {
					fmt.Printf("New baseline: position %.1f, %d impressions.\n",
						exp.PreStats.Position, exp.PreStats.Impressions)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&planOnly, "plan", false, "print the brief without confirming")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation")
	return cmd
}
