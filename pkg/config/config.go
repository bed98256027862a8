// Package config loads discord-mcp configuration from an optional YAML
// file with environment overrides. Credentials are expected to arrive via
// the environment (or a .env file) in the usual MCP host setup.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds application configuration.
type Config struct {
	// Email is the Discord account email (required)
	Email string `yaml:"email"`

	// Password is the Discord account password (required)
	Password string `yaml:"password"`

	// Headless controls whether Chromium runs without a window (default true)
	Headless bool `yaml:"headless"`

	// ExtraWaitMs is added to every settle delay for slow environments
	ExtraWaitMs int `yaml:"extra_wait_ms"`

	// StateFile is the persisted browser storage-state path
	StateFile string `yaml:"state_file"`

	// Debug enables debug-level logging
	Debug bool `yaml:"debug"`
}

// ErrMissingCredentials is returned when no email/password reached the
// config through any source.
var ErrMissingCredentials = errors.New("DISCORD_EMAIL and DISCORD_PASSWORD must be set")

// Load reads configuration in increasing precedence: defaults, the YAML
// file at path (or the default location when path is empty; a missing
// file is not an error), then environment variables. A .env file in the
// working directory is loaded best-effort first.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := Config{Headless: true}

	explicit := path != ""
	if path == "" {
		path = defaultConfigPath()
	}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
		case explicit:
			return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if cfg.StateFile == "" {
		if home, err := os.UserHomeDir(); err == nil {
			cfg.StateFile = filepath.Join(home, ".discord-mcp-state.json")
		}
	}

	if cfg.Email == "" || cfg.Password == "" {
		return Config{}, ErrMissingCredentials
	}
	return cfg, nil
}

// ExtraWait returns the extra settle offset as a duration.
func (c Config) ExtraWait() time.Duration {
	return time.Duration(c.ExtraWaitMs) * time.Millisecond
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("DISCORD_EMAIL"); v != "" {
		cfg.Email = v
	}
	if v := os.Getenv("DISCORD_PASSWORD"); v != "" {
		cfg.Password = v
	}
	if v := os.Getenv("DISCORD_HEADLESS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Headless = b
		}
	}
	if v := os.Getenv("DISCORD_EXTRA_WAIT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.ExtraWaitMs = n
		}
	}
	if v := os.Getenv("DISCORD_STATE_FILE"); v != "" {
		cfg.StateFile = v
	}
	if v := os.Getenv("DISCORD_MCP_DEBUG"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Debug = b
		}
	}
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "discord-mcp", "config.yaml")
}
