// Package appconfig loads the client configuration file.
package appconfig

import (
	"os"
	"path/filepath"
)

// Config is the top-level application configuration.
type Config struct {
	ConfigVersion int            `mapstructure:"config_version" yaml:"config_version"`
	StateDir      string         `mapstructure:"state_dir" yaml:"state_dir"`
	Server        ServerConfig   `mapstructure:"server" yaml:"server"`
	Identity      IdentityConfig `mapstructure:"identity" yaml:"identity"`
	Mentions      MentionsConfig `mapstructure:"mentions" yaml:"mentions"`
	Chat          ChatConfig     `mapstructure:"chat" yaml:"chat"`
}

// CurrentConfigVersion marks the supported config version.
const CurrentConfigVersion = 1

// ServerConfig points the client at the chat backend.
type ServerConfig struct {
	BaseURL                 string `mapstructure:"base_url" yaml:"base_url"`
	HandshakeTimeoutSeconds int    `mapstructure:"handshake_timeout_seconds" yaml:"handshake_timeout_seconds"`
}

// IdentityConfig controls the login flow.
type IdentityConfig struct {
	PollIntervalSeconds int `mapstructure:"poll_interval_seconds" yaml:"poll_interval_seconds"`
}

// MentionsConfig controls inline contact resolution.
type MentionsConfig struct {
	DebounceMs    int `mapstructure:"debounce_ms" yaml:"debounce_ms"`
	MaxCandidates int `mapstructure:"max_candidates" yaml:"max_candidates"`
}

// ChatConfig controls outbound message metadata.
type ChatConfig struct {
	// Timezone overrides the IANA zone stamped on outbound messages.
	// Empty means the system local zone.
	Timezone string `mapstructure:"timezone" yaml:"timezone"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, err
	}
	return Config{
		ConfigVersion: CurrentConfigVersion,
		StateDir:      filepath.Join(home, ".musechat"),
		Server: ServerConfig{
			BaseURL:                 "http://localhost:8000",
			HandshakeTimeoutSeconds: 10,
		},
		Identity: IdentityConfig{
			PollIntervalSeconds: 2,
		},
		Mentions: MentionsConfig{
			DebounceMs:    300,
			MaxCandidates: 5,
		},
		Chat: ChatConfig{
			Timezone: "",
		},
	}, nil
}

// DefaultConfigPath returns the standard config path.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".musechat", "config.yaml"), nil
}
