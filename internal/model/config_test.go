package model_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/akhatri/ledger-alerts/internal/model"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigFromFile(t *testing.T) {
	path := writeConfig(t, `
backend:
  base_url: https://books.example.com
  token: secret
server:
  addr: ":9000"
feed:
  poll_interval_sec: 60
  high_value_threshold: 25000
db_path: /tmp/alerts.db
`)

	cfg, err := model.LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Backend.BaseURL != "https://books.example.com" {
		t.Errorf("BaseURL = %q", cfg.Backend.BaseURL)
	}
	if cfg.Server.Addr != ":9000" {
		t.Errorf("Addr = %q", cfg.Server.Addr)
	}
	if cfg.PollInterval() != time.Minute {
		t.Errorf("PollInterval = %v", cfg.PollInterval())
	}
	if cfg.Feed.HighValueThreshold != 25000 {
		t.Errorf("HighValueThreshold = %v", cfg.Feed.HighValueThreshold)
	}
	if cfg.DBPath != "/tmp/alerts.db" {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, `
backend:
  base_url: https://books.example.com
`)

	cfg, err := model.LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Server.Addr != ":8090" {
		t.Errorf("Addr = %q, want default :8090", cfg.Server.Addr)
	}
	if cfg.Feed.PollIntervalSec != 300 {
		t.Errorf("PollIntervalSec = %d, want 300", cfg.Feed.PollIntervalSec)
	}
	if cfg.Feed.HighValueThreshold != 10000 {
		t.Errorf("HighValueThreshold = %v, want 10000", cfg.Feed.HighValueThreshold)
	}
	if cfg.ReadMarkRetention() != 90*24*time.Hour {
		t.Errorf("ReadMarkRetention = %v", cfg.ReadMarkRetention())
	}
	if cfg.BackendTimeout() != 30*time.Second {
		t.Errorf("BackendTimeout = %v", cfg.BackendTimeout())
	}
}

func TestLoadConfigEnvOverride(t *testing.T) {
	path := writeConfig(t, `
backend:
  base_url: https://books.example.com
`)
	t.Setenv("LEDGER_ALERTS_FEED_POLL_INTERVAL_SEC", "45")
	t.Setenv("LEDGER_ALERTS_BACKEND_TOKEN", "from-env")

	cfg, err := model.LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Feed.PollIntervalSec != 45 {
		t.Errorf("PollIntervalSec = %d, want 45", cfg.Feed.PollIntervalSec)
	}
	if cfg.Backend.Token != "from-env" {
		t.Errorf("Token = %q, want from-env", cfg.Backend.Token)
	}
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"missing base_url", "server:\n  addr: \":8090\"\n"},
		{"bad base_url", "backend:\n  base_url: not-a-url\n"},
		{"zero poll interval", "backend:\n  base_url: https://ok.example.com\nfeed:\n  poll_interval_sec: 0\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := model.LoadConfig(writeConfig(t, tc.content)); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
