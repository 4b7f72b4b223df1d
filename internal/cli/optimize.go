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
	rootCmd.AddCommand(newOptimizeCmd())
}

func newOptimizeCmd() *cobra.Command {
	var reason string
	var yes bool

	cmd := &cobra.Command{
		Use:   "optimize <page-url>",
		Short: "Optimize the title/meta description only",
		Long: `Record a meta-only optimization: the keyword stays, the cycle's stats
and the previous title/description are archived, and tracking resets
when you implement the new copy.

Use this when the page ranks well but the CTR benchmark fails - a
title problem, not a content problem.`,
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

				brief, err := suggest.MetaBrief(exp, newAdvisor().Advise(exp))
				if err != nil {
					return fmt.Errorf("failed to build brief: %w", err)
				}
				fmt.Println(brief)

				if !yes {
					ok, err := confirm("Archive this cycle and start the meta optimization")
					if err != nil {
						return err
					}
					if !ok {
						fmt.Println("Cancelled. Nothing was changed.")
						return nil
					}
				}

				if _, err := svc.OptimizeMeta(ctx, userID, pageURL, reason); err != nil {
					return fmt.Errorf("failed to optimize: %w", err)
				}

				fmt.Println("Cycle archived. Update the title/description, then run:")
				fmt.Printf("  serptrack implement %s \"%s\"\n", pageURL, exp.CurrentKeyword)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&reason, "reason", "r", "", "why the meta is being optimized")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation")
	return cmd
}
