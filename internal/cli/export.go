package cli

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/serptrack/serptrack/internal/store"
	"github.com/spf13/cobra"
)

var exportFormat string

var exportCmd = &cobra.Command{
	Use:   "export <page-url>",
	Short: "Export a page's tracking history",
	Long: `Export the live cycle and every archived cycle for a page in CSV or
JSON format.

Examples:
  serptrack export https://example.com/pricing --format csv > pricing.csv
  serptrack export https://example.com/pricing --format json > pricing.json`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "csv", "output format (csv or json)")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	pageURL := args[0]

	if exportFormat != "csv" && exportFormat != "json" {
		return fmt.Errorf("invalid format: must be 'csv' or 'json'")
	}

	return withStore(func(s *store.SQLiteStore) error {
		exp, err := s.LoadExperiment(context.Background(), userID, pageURL)
		if err != nil {
			if err == store.ErrNotFound {
				return fmt.Errorf("no experiment for '%s'", pageURL)
			}
			return fmt.Errorf("failed to load experiment: %w", err)
		}

		if exportFormat == "csv" {
			return exportCSV(exp)
		}
		return exportJSON(exp)
	})
}

// exportRows flattens the live cycle plus the archives into one row per
// cycle, newest last.
func exportRows(exp *store.Experiment) [][]string {
	rows := make([][]string, 0, len(exp.Archives)+1)

	for _, a := range exp.Archives {
		rows = append(rows, []string{
			string(a.Kind),
			a.Keyword,
			string(a.Source),
			formatUnix(a.ImplementedAt),
			strconv.FormatInt(a.ArchivedAt.Unix(), 10),
			strconv.Itoa(a.DaysTracked),
			snapshotCols(a.PreStats),
			snapshotCols(a.PostStats),
			a.Reason,
		})
	}

	rows = append(rows, []string{
		"live",
		exp.CurrentKeyword,
		string(exp.KeywordSource),
		formatUnix(exp.ImplementedAt),
		"",
		"",
		snapshotCols(exp.PreStats),
		snapshotCols(exp.PostStats),
		"",
	})
	return rows
}

func exportCSV(exp *store.Experiment) error {
	w := csv.NewWriter(os.Stdout)
	defer w.Flush()

	header := []string{"cycle", "keyword", "source", "implemented_at", "archived_at", "days_tracked", "pre_stats", "post_stats", "reason"}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, row := range exportRows(exp) {
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	return nil
}

func exportJSON(exp *store.Experiment) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(exp)
}

func formatUnix(t *time.Time) string {
	if t == nil {
		return ""
	}
	return strconv.FormatInt(t.Unix(), 10)
}

func snapshotCols(s *store.StatsSnapshot) string {
	if s == nil {
		return ""
	}
	return fmt.Sprintf("pos=%.1f impr=%d clicks=%d", s.Position, s.Impressions, s.Clicks)
}
