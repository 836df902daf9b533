package model

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// BackendConfig holds connection settings for the accounting backend API.
type BackendConfig struct {
	// BaseURL is the root URL of the accounting API
	// (e.g., https://books.example.com).
	BaseURL string `mapstructure:"base_url" yaml:"base_url" validate:"required,url"`

	// Token is the bearer token used to authenticate against the API.
	Token string `mapstructure:"token" yaml:"token"`

	// TimeoutSec bounds each HTTP call to the backend.
	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec" validate:"gte=1"`
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr" validate:"required"`

	// AllowedOrigins lists the SPA origins permitted by CORS.
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
}

// FeedConfig tunes the notification aggregation cycle.
type FeedConfig struct {
	// PollIntervalSec is how often a generation cycle runs.
	PollIntervalSec int `mapstructure:"poll_interval_sec" yaml:"poll_interval_sec" validate:"gte=1"`

	// HighValueThreshold is the minimum outstanding amount, in the base
	// currency, for an unpaid invoice to raise a high-value alert.
	HighValueThreshold float64 `mapstructure:"high_value_threshold" yaml:"high_value_threshold" validate:"gt=0"`

	// ReadMarkRetentionDays controls startup pruning of the persisted
	// read-ID set. Marks older than this are dropped.
	ReadMarkRetentionDays int `mapstructure:"read_mark_retention_days" yaml:"read_mark_retention_days" validate:"gte=1"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Backend BackendConfig `mapstructure:"backend" yaml:"backend"`
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
	Feed    FeedConfig    `mapstructure:"feed" yaml:"feed"`

	// DBPath is the SQLite database file holding read marks and the
	// feed snapshot.
	DBPath string `mapstructure:"db_path" yaml:"db_path" validate:"required"`
}

// PollInterval returns the generation cycle period as a duration.
func (c *AppConfig) PollInterval() time.Duration {
	return time.Duration(c.Feed.PollIntervalSec) * time.Second
}

// BackendTimeout returns the per-request timeout for backend calls.
func (c *AppConfig) BackendTimeout() time.Duration {
	return time.Duration(c.Backend.TimeoutSec) * time.Second
}

// ReadMarkRetention returns how long read marks are kept before pruning.
func (c *AppConfig) ReadMarkRetention() time.Duration {
	return time.Duration(c.Feed.ReadMarkRetentionDays) * 24 * time.Hour
}

// envKeyReplacer maps nested config keys to environment variable form,
// e.g. backend.base_url -> LEDGER_ALERTS_BACKEND_BASE_URL.
var envKeyReplacer = strings.NewReplacer(".", "_")

// DefaultConfigPath returns the default location of the configuration
// file, next to the binary's working directory.
func DefaultConfigPath() string {
	if p := os.Getenv("LEDGER_ALERTS_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(".", "config.yaml")
}

// defaultAppConfig returns a configuration with every tunable at its
// default. The backend base URL has no default and must be supplied.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Backend: BackendConfig{TimeoutSec: 30},
		Server: ServerConfig{
			Addr:           ":8090",
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		Feed: FeedConfig{
			PollIntervalSec:       300,
			HighValueThreshold:    10000,
			ReadMarkRetentionDays: 90,
		},
		DBPath: "ledger-alerts.db",
	}
}

// LoadConfig reads configuration from the given YAML file using Viper,
// overlaying environment variables (LEDGER_ALERTS_*). A `.env` file in
// the working directory is loaded first if present. A missing config
// file is not an error; defaults plus environment apply.
func LoadConfig(path string) (*AppConfig, error) {
	// Populate the environment from .env before viper reads it.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault("backend.timeout_sec", 30)
	v.SetDefault("server.addr", ":8090")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("feed.poll_interval_sec", 300)
	v.SetDefault("feed.high_value_threshold", 10000)
	v.SetDefault("feed.read_mark_retention_days", 90)
	v.SetDefault("db_path", "ledger-alerts.db")

	v.SetEnvPrefix("LEDGER_ALERTS")
	v.SetEnvKeyReplacer(envKeyReplacer)
	v.AutomaticEnv()

	// Bind explicitly so AutomaticEnv resolves nested keys even when
	// the config file is absent.
	for _, key := range []string{
		"backend.base_url", "backend.token", "backend.timeout_sec",
		"server.addr", "feed.poll_interval_sec",
		"feed.high_value_threshold", "feed.read_mark_retention_days",
		"db_path",
	} {
		_ = v.BindEnv(key)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); !ok {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		}
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}
