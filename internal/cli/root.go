package cli

import (
	"fmt"
	"os"

	"github.com/serptrack/serptrack/internal/config"
	"github.com/spf13/cobra"
)

var (
	cfg    config.Config
	dbPath string
	userID string
)

var rootCmd = &cobra.Command{
	Use:   "serptrack",
	Short: "serptrack - track SEO experiments and decide what to do next",
	Long: `serptrack tracks how pages perform in Google Search Console after an
SEO edit and recommends the next move: keep waiting, rewrite the
content, fix the title/description, or pivot to a different keyword.

Single Go binary, embedded SQLite, no external dependencies.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
		if dbPath == "" {
			dbPath = cfg.DB.Path
		}
		return nil
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", os.Getenv("SERPTRACK_DB_PATH"), "database path (default from config)")
	rootCmd.PersistentFlags().StringVarP(&userID, "user", "u", getEnvOrDefault("SERPTRACK_USER", "default"), "user id")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
