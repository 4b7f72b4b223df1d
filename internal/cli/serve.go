package cli

import (
	"fmt"
	"path/filepath"

	"github.com/serptrack/serptrack/internal/server"
	"github.com/serptrack/serptrack/internal/store"
	"github.com/spf13/cobra"
)

var (
	serveHost string
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the serptrack HTTP server.

The server provides:
  - REST API for experiments, recommendations, and transitions
  - Token-protected dashboard
  - Prometheus metrics and a health check endpoint

Example:
  serptrack serve --port 8747`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "host to bind (default from config)")
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "port to listen on (default from config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	host := cfg.Server.Host
	if serveHost != "" {
		host = serveHost
	}
	port := cfg.Server.Port
	if servePort != 0 {
		port = servePort
	}

	s, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer s.Close()

	tokenFile := filepath.Join(filepath.Dir(dbPath), ".serptrack-token")
	srv := server.New(s, newService(s), newAdvisor(), host, port, tokenFile)

	fmt.Printf("serptrack listening on http://%s:%d\n", host, port)
	fmt.Printf("Dashboard: http://%s:%d/dashboard?token=%s\n", host, port, srv.Token())
	return srv.Start()
}
