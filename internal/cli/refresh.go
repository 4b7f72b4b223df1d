package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/serptrack/serptrack/internal/lifecycle"
	"github.com/serptrack/serptrack/internal/store"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newRefreshCmd())
}

func newRefreshCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "refresh [page-url]",
		Short: "Pull fresh Search Console stats",
		Long: `Fetch the latest Search Console stats for one page, or for every page
that is due with --all. Requires gsc.endpoint in the config file.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all && len(args) == 0 {
				return fmt.Errorf("pass a page URL or --all")
			}

			return withService(func(s *store.SQLiteStore, svc *lifecycle.Service) error {
				ctx := context.Background()

				if all {
					refreshed, err := svc.RefreshAll(ctx, userID)
					if err != nil {
						return fmt.Errorf("failed to refresh: %w", err)
					}
					fmt.Printf("Refreshed %d experiment(s).\n", refreshed)
					return nil
				}

				exp, updated, err := svc.RefreshStats(ctx, userID, args[0])
				if err != nil {
					if errors.Is(err, lifecycle.ErrNoMetricSource) {
						return fmt.Errorf("no Search Console endpoint configured; set gsc.endpoint in the config file")
					}
					if err == store.ErrNotFound {
						return fmt.Errorf("no experiment for '%s'", args[0])
					}
					return fmt.Errorf("failed to refresh: %w", err)
				}

				if !updated {
					fmt.Println("Stats fetch failed or returned nothing; kept the previous snapshot.")
					return nil
				}
				if exp.PostStats != nil {
					fmt.Printf("Updated: position %.1f, %d impressions, %d clicks.\n",
						exp.PostStats.Position, exp.PostStats.Impressions, exp.PostStats.Clicks)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "refresh every experiment that is due")
	return cmd
}
