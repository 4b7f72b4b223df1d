package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/serptrack/serptrack/internal/lifecycle"
	"github.com/serptrack/serptrack/internal/registry"
	"github.com/serptrack/serptrack/internal/store"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newPivotCmd())
}

func newPivotCmd() *cobra.Command {
	var source string
	var yes bool

	cmd := &cobra.Command{
		Use:   "pivot <page-url> <new-keyword>",
		Short: "Abandon the current keyword and pivot to a new one",
		Long: `Pivot the page to a new focus keyword. The current cycle's stats are
archived before anything is cleared, so no performance data is lost.

Example:
  serptrack pivot https://example.com/pricing "saas pricing tool"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pageURL, newKeyword := args[0], args[1]

			return withService(func(s *store.SQLiteStore, svc *lifecycle.Service) error {
				ctx := context.Background()

				exp, err := s.LoadExperiment(ctx, userID, pageURL)
				if err != nil {
					if err == store.ErrNotFound {
						return fmt.Errorf("no experiment for '%s'", pageURL)
					}
					return fmt.Errorf("failed to load experiment: %w", err)
				}

				if !yes {
					ok, err := confirm(fmt.Sprintf("Abandon \"%s\" and pivot to \"%s\"", exp.CurrentKeyword, newKeyword))
					if err != nil {
						return err
					}
					if !ok {
						fmt.Println("Pivot cancelled.")
						return nil
					}
				}

				exp, err = svc.Pivot(ctx, userID, pageURL, newKeyword, keywordSource(source))
				if err != nil {
					if errors.Is(err, registry.ErrKeywordTaken) {
						return err
					}
					if errors.Is(err, lifecycle.ErrSameKeyword) {
						return fmt.Errorf("\"%s\" is already the current keyword for this page", newKeyword)
					}
					return fmt.Errorf("failed to pivot: %w", err)
				}

				fmt.Printf("Pivoted '%s' to \"%s\".\n", pageURL, exp.CurrentKeyword)
				if n := len(exp.KeywordStatsHistory()); n > 0 {
					fmt.Printf("Previous cycle archived (%d archived keyword cycle(s) total).\n", n)
				}
				fmt.Println("\nEdit the page for the new keyword, then run:")
				fmt.Println("  serptrack implement " + pageURL + " \"" + exp.CurrentKeyword + "\"")
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&source, "source", "s", string(store.SourceGSCExisting), "keyword source (gsc-existing, ai-generated, hybrid)")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation")
	return cmd
}
