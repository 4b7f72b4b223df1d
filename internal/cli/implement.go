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
	rootCmd.AddCommand(newImplementCmd())
}

func newImplementCmd() *cobra.Command {
	var source string

	cmd := &cobra.Command{
		Use:   "implement <page-url> <keyword>",
		Short: "Start tracking a page for a focus keyword",
		Long: `Record that you've edited the page for the keyword and start the
tracking cycle. The current Search Console stats become the baseline.

Example:
  serptrack implement https://example.com/pricing "pricing calculator"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pageURL, keyword := args[0], args[1]

			return withService(func(s *store.SQLiteStore, svc *lifecycle.Service) error {
				exp, err := svc.Implement(context.Background(), userID, pageURL, keyword, keywordSource(source))
				if err != nil {
					if errors.Is(err, lifecycle.ErrLiveCycle) {
						return fmt.Errorf("'%s' already has a live tracking cycle; pivot, rewrite, or optimize first", pageURL)
					}
					if errors.Is(err, registry.ErrKeywordTaken) {
						return err
					}
					return fmt.Errorf("failed to implement: %w", err)
				}

				fmt.Printf("Tracking started for '%s' with keyword \"%s\".\n", pageURL, exp.CurrentKeyword)
				if exp.PreStats != nil {
					fmt.Printf("Baseline: position %.1f, %d impressions, %d clicks.\n",
						exp.PreStats.Position, exp.PreStats.Impressions, exp.PreStats.Clicks)
				} else {
					fmt.Println("No baseline stats available yet; the cycle starts without one.")
				}
				fmt.Println("\nCheck back after the evaluation window with: serptrack recommend " + pageURL)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&source, "source", "s", string(store.SourceGSCExisting), "keyword source (gsc-existing, ai-generated, hybrid)")
	return cmd
}

func keywordSource(s string) store.KeywordSource {
	switch store.KeywordSource(s) {
	case store.SourceAIGenerated:
		return store.SourceAIGenerated
	case store.SourceHybrid:
		return store.SourceHybrid
	default:
		return store.SourceGSCExisting
	}
}
