package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// StoreConfig selects where sessions live: an embedded SQLite database
// (mode "local", the default) or a hosted backend (mode "remote").
type StoreConfig struct {
	Mode         string `yaml:"mode" envconfig:"STORE_MODE"`
	DatabasePath string `yaml:"database_path" envconfig:"DATABASE_PATH"`
	RemoteURL    string `yaml:"remote_url" envconfig:"REMOTE_URL"`
	APIToken     string `yaml:"api_token" envconfig:"API_TOKEN"`
}

// TimerConfig tunes state-machine behavior.
type TimerConfig struct {
	// CloseOnReset also closes the open remote session record on reset.
	// The default (false) matches the historical behavior of leaving the
	// record open.
	CloseOnReset bool `yaml:"close_on_reset" envconfig:"CLOSE_ON_RESET"`
}

type Config struct {
	DataDir  string      `yaml:"data_dir" envconfig:"DATA_DIR"`
	LogLevel string      `yaml:"log_level" envconfig:"LOG_LEVEL"`
	Timezone string      `yaml:"timezone" envconfig:"TIMEZONE"`
	Store    StoreConfig `yaml:"store"`
	Timer    TimerConfig `yaml:"timer"`
}

// Load reads the YAML config at path, falling back to defaults when the file
// does not exist, then applies FOCUSTRACK_* environment overrides.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// Defaults only.
	default:
		return nil, err
	}

	if err := envconfig.Process("FOCUSTRACK", cfg); err != nil {
		return nil, fmt.Errorf("config env overrides: %w", err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Timezone: "Local",
		Store:    StoreConfig{Mode: "local"},
	}
}

func (c *Config) applyDefaults() {
	if c.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		c.DataDir = filepath.Join(home, ".focustrack")
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Timezone == "" {
		c.Timezone = "Local"
	}
	if c.Store.Mode == "" {
		c.Store.Mode = "local"
	}
	if c.Store.DatabasePath == "" {
		c.Store.DatabasePath = filepath.Join(c.DataDir, "focustrack.db")
	}
}

// SnapshotPath is where the timer runtime snapshot is persisted.
func (c *Config) SnapshotPath() string {
	return filepath.Join(c.DataDir, "timer_state.json")
}

// SessionPath is where the logged-in user id is persisted.
func (c *Config) SessionPath() string {
	return filepath.Join(c.DataDir, "session")
}

// LogPath is the log file location; the TUI owns the terminal, so logs
// never go to stdout.
func (c *Config) LogPath() string {
	return filepath.Join(c.DataDir, "focustrack.log")
}

// Location resolves the configured timezone, defaulting to the system zone.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}
