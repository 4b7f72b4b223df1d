package cli

import (
	"fmt"
	"os"

	"github.com/manifoldco/promptui"
	"github.com/serptrack/serptrack/internal/engine"
	"github.com/serptrack/serptrack/internal/gsc"
	"github.com/serptrack/serptrack/internal/lifecycle"
	"github.com/serptrack/serptrack/internal/store"
)

// withStore opens the database, executes the function, and handles cleanup.
func withStore(fn func(*store.SQLiteStore) error) error {
	s, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer s.Close()

	return fn(s)
}

// withService opens the database and builds the lifecycle service with
// whatever external collaborators are configured.
func withService(fn func(*store.SQLiteStore, *lifecycle.Service) error) error {
	return withStore(func(s *store.SQLiteStore) error {
		return fn(s, newService(s))
	})
}

func newService(s *store.SQLiteStore) *lifecycle.Service {
	svc := lifecycle.New(s, cfg.Thresholds())
	if cfg.GSC.Endpoint != "" {
		client := gsc.NewClient(cfg.GSC.Endpoint, cfg.GSC.Token, cfg.GSC.SiteURL)
		svc = svc.WithMetricsSource(client, cfg.GSC.LookbackDays).WithRecrawler(client)
	}
	return svc
}

func newAdvisor() *engine.Advisor {
	return engine.NewAdvisor(cfg.Thresholds())
}

// confirm asks a yes/no question, exiting quietly on Ctrl+C.
func confirm(label string) (bool, error) {
	prompt := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
	}
	_, err := prompt.Run()
	if err != nil {
		if err == promptui.ErrInterrupt {
			os.Exit(0)
		}
		if err == promptui.ErrAbort {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
