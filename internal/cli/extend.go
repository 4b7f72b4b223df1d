package cli

import (
	"context"
	"fmt"

	"github.com/serptrack/serptrack/internal/lifecycle"
	"github.com/serptrack/serptrack/internal/store"
	"github.com/spf13/cobra"
)

var extendCmd = &cobra.Command{
	Use:   "extend <page-url>",
	Short: "Extend the evaluation window instead of acting",
	Long: `Extend the tracking window for a page whose signals look promising but
inconclusive. Each call adds another extension period and pushes the
deadline out from today.`,
	Args: cobra.ExactArgs(1),
	RunE: runExtend,
}

func init() {
	rootCmd.AddCommand(extendCmd)
}

func runExtend(cmd *cobra.Command, args []string) error {
	pageURL := args[0]

	return withService(func(s *store.SQLiteStore, svc *lifecycle.Service) error {
		exp, err := svc.ExtendWait(context.Background(), userID, pageURL)
		if err != nil {
			if err == store.ErrNotFound {
				return fmt.Errorf("no experiment for '%s'", pageURL)
			}
			return fmt.Errorf("failed to extend: %w", err)
		}

		fmt.Printf("Window extended to %d total days.\n", exp.ExtendedTotalDays)
		if exp.ExtendedDeadline != nil {
			fmt.Printf("Next decision due %s.\n", exp.ExtendedDeadline.Format("2006-01-02"))
		}
		return nil
	})
}
