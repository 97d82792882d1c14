// Package config loads gitshift configuration from the state
// directory's config.toml with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
)

// FileName is the config file inside the state directory.
const FileName = "config.toml"

// Config holds the application settings.
type Config struct {
	// ClientID is the OAuth app client id for the device flow.
	// Without it, device-flow login fails fast.
	ClientID string `toml:"client_id" env:"GITSHIFT_CLIENT_ID"`

	// Scope is the OAuth scope requested during device flow.
	Scope string `toml:"scope" env:"GITSHIFT_SCOPE"`

	// Hostname is the GitHub host identities authenticate against.
	Hostname string `toml:"hostname" env:"GITSHIFT_HOSTNAME"`

	// ReconcileSeconds is the import reconciler period.
	ReconcileSeconds int `toml:"reconcile_seconds" env:"GITSHIFT_RECONCILE_SECONDS"`

	// DeviceCodeURL and DeviceTokenURL override the device flow
	// endpoints, mainly for testing against a local server.
	DeviceCodeURL  string `toml:"device_code_url" env:"GITSHIFT_DEVICE_CODE_URL"`
	DeviceTokenURL string `toml:"device_token_url" env:"GITSHIFT_DEVICE_TOKEN_URL"`

	// LogLevel is a zerolog level name (debug, info, warn, error).
	LogLevel string `toml:"log_level" env:"GITSHIFT_LOG_LEVEL"`

	// Notify configures optional webhook notifications.
	Notify Notify `toml:"notify"`
}

// Notify is the webhook notification configuration. Opt-in.
type Notify struct {
	Enabled    bool   `toml:"enabled" env:"GITSHIFT_NOTIFY_ENABLED"`
	WebhookURL string `toml:"webhook_url" env:"GITSHIFT_NOTIFY_WEBHOOK_URL"`

	OnSwitch bool `toml:"on_switch"`
	OnFail   bool `toml:"on_fail"`
	OnImport bool `toml:"on_import"`
}

// ReconcileInterval returns the reconciler period as a duration,
// falling back to the default when unset.
func (c *Config) ReconcileInterval() time.Duration {
	if c.ReconcileSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.ReconcileSeconds) * time.Second
}

// Default returns a config with sensible defaults.
func Default() *Config {
	return &Config{
		Scope:            "repo read:org gist",
		Hostname:         "github.com",
		ReconcileSeconds: 5,
		LogLevel:         "info",
		Notify: Notify{
			OnSwitch: true,
			OnFail:   true,
			OnImport: true,
		},
	}
}

// StateDir returns the gitshift state directory, honoring
// GITSHIFT_STATE_DIR and defaulting to ~/.config/gitshift.
func StateDir() (string, error) {
	if dir := os.Getenv("GITSHIFT_STATE_DIR"); dir != "" {
		return dir, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("determining home directory: %w", err)
	}
	return filepath.Join(home, ".config", "gitshift"), nil
}

// Load reads config.toml from the state directory and applies
// environment overrides. A missing file is not an error; defaults
// apply. Environment values win over the file.
func Load(stateDir string) (*Config, error) {
	cfg := Default()

	path := filepath.Join(stateDir, FileName)
	if _, err := toml.DecodeFile(path, cfg); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	return cfg, nil
}

// Save writes the config back to the state directory.
func Save(stateDir string, cfg *Config) error {
	if err := os.MkdirAll(stateDir, 0700); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}

	path := filepath.Join(stateDir, FileName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return nil
}
