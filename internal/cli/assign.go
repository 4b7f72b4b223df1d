package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/serptrack/serptrack/internal/registry"
	"github.com/serptrack/serptrack/internal/store"
	"github.com/spf13/cobra"
)

var assignCmd = &cobra.Command{
	Use:   "assign [keyword] [page-url]",
	Short: "List or set keyword-to-page assignments",
	Long: `With no arguments, list every focus keyword registered for the user and
the page that owns it. With a keyword and a page URL, bind them directly,
replacing whatever keyword the page held before. A keyword can only ever
belong to one page at a time.

Normally 'implement' and 'pivot' manage assignments for you; direct
binding is for fixing up the registry.`,
	Args: cobra.RangeArgs(0, 2),
	RunE: runAssign,
}

func init() {
	rootCmd.AddCommand(assignCmd)
}

func runAssign(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		return fmt.Errorf("pass both a keyword and a page URL, or neither")
	}

	return withStore(func(s *store.SQLiteStore) error {
		ctx := context.Background()

		assignments, err := s.LoadAssignments(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to load assignments: %w", err)
		}
		reg := registry.FromAssignments(assignments)

		if len(args) == 2 {
			keyword, pageURL := args[0], args[1]
			if err := reg.Assign(keyword, pageURL); err != nil {
				if errors.Is(err, registry.ErrKeywordTaken) {
					return err
				}
				return fmt.Errorf("failed to assign: %w", err)
			}
			if err := s.ReplaceAssignments(ctx, userID, reg.Assignments()); err != nil {
				return fmt.Errorf("failed to save assignments: %w", err)
			}
			fmt.Printf("Assigned \"%s\" to '%s'.\n", keyword, pageURL)
			return nil
		}

		if reg.Len() == 0 {
			fmt.Println("No keyword assignments yet. Run 'serptrack implement' to create one.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "KEYWORD\tPAGE")
		for _, a := range reg.Assignments() {
			fmt.Fprintf(w, "%s\t%s\n", a.Keyword, a.PageURL)
		}
		return w.Flush()
	})
}
