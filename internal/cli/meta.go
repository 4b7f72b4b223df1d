package cli

import (
	"context"
	"fmt"

	"github.com/serptrack/serptrack/internal/lifecycle"
	"github.com/serptrack/serptrack/internal/store"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newMetaCmd())
}

func newMetaCmd() *cobra.Command {
	var title string
	var description string

	cmd := &cobra.Command{
		Use:   "meta <page-url>",
		Short: "Record the page's current title and meta description",
		Long: `Store the page's live title and meta description on the experiment.
A later 'optimize' archives this text alongside the stats, so you can
compare old and new copy after the CTR recovers.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pageURL := args[0]

			if title == "" && description == "" {
				return fmt.Errorf("pass --title and/or --description")
			}

			return withService(func(s *store.SQLiteStore, svc *lifecycle.Service) error {
				if err := svc.SetPageMeta(context.Background(), userID, pageURL, title, description); err != nil {
					if err == store.ErrNotFound {
						return fmt.Errorf("no experiment for '%s'", pageURL)
					}
					return fmt.Errorf("failed to update meta: %w", err)
				}
				fmt.Println("Page meta recorded.")
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "current page title")
	cmd.Flags().StringVarP(&description, "description", "d", "", "current meta description")
	return cmd
}
