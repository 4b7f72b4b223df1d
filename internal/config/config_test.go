package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/serptrack/serptrack/internal/config"
)

func TestLoad_DefaultsWhenFileAbsent(t *testing.T) {
	t.Setenv("SERPTRACK_HOME", t.TempDir())

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Server.Port != 8747 {
		t.Errorf("port = %d, want 8747", cfg.Server.Port)
	}
	if cfg.GSC.LookbackDays != 28 {
		t.Errorf("lookback = %d, want 28", cfg.GSC.LookbackDays)
	}
	if filepath.Base(cfg.DB.Path) != "serptrack.db" {
		t.Errorf("db path = %s", cfg.DB.Path)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("SERPTRACK_HOME", home)

	content := `
[server]
port = 9000

[gsc]
endpoint = "https://proxy.example.com"
site_url = "https://example.com"

[tracking]
eval_window_days = 30
`
	if err := os.WriteFile(filepath.Join(home, "config.toml"), []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.GSC.Endpoint != "https://proxy.example.com" {
		t.Errorf("endpoint = %s", cfg.GSC.Endpoint)
	}
	// Untouched sections keep their defaults.
	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("host = %s, want default", cfg.Server.Host)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	t.Setenv("SERPTRACK_HOME", t.TempDir())

	cfg := config.DefaultConfig()
	cfg.GSC.Token = "secret"
	cfg.Tracking.ExtendDays = 30

	if err := config.Save(cfg); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	got, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if got.GSC.Token != "secret" || got.Tracking.ExtendDays != 30 {
		t.Errorf("round trip lost values: %+v", got)
	}
}

func TestThresholds_TrackingOverrides(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Tracking.EvalWindowDays = 30
	cfg.Tracking.ExtendDays = 15

	th := cfg.Thresholds()
	if th.EvalWindowDays != 30 || th.ExtendDays != 15 {
		t.Errorf("thresholds = %d/%d, want 30/15", th.EvalWindowDays, th.ExtendDays)
	}

	// Zero values mean "use the default", not "zero days".
	th = config.DefaultConfig().Thresholds()
	if th.EvalWindowDays != 45 || th.ExtendDays != 45 {
		t.Errorf("default thresholds = %d/%d, want 45/45", th.EvalWindowDays, th.ExtendDays)
	}
}
