package appconfig

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Load reads configuration from the provided path. If path is empty, uses DefaultConfigPath.
func Load(path string) (Config, error) {
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return Config{}, err
		}
		path = defaultPath
	}

	cfg, err := DefaultConfig()
	if err != nil {
		return Config{}, err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetDefault("config_version", cfg.ConfigVersion)
	v.SetDefault("state_dir", cfg.StateDir)
	v.SetDefault("server.base_url", cfg.Server.BaseURL)
	v.SetDefault("server.handshake_timeout_seconds", cfg.Server.HandshakeTimeoutSeconds)
	v.SetDefault("identity.poll_interval_seconds", cfg.Identity.PollIntervalSeconds)
	v.SetDefault("mentions.debounce_ms", cfg.Mentions.DebounceMs)
	v.SetDefault("mentions.max_candidates", cfg.Mentions.MaxCandidates)
	v.SetDefault("chat.timezone", cfg.Chat.Timezone)

	// A missing file is fine: defaults apply until bootstrap writes one.
	configLoaded := false
	if _, err := os.Stat(path); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
		configLoaded = true
	} else if !os.IsNotExist(err) {
		return Config{}, err
	}

	if configLoaded {
		if !v.IsSet("config_version") {
			return Config{}, fmt.Errorf("config_version is required; expected %d", CurrentConfigVersion)
		}
		if v.GetInt("config_version") != CurrentConfigVersion {
			return Config{}, fmt.Errorf("unsupported config_version %d; expected %d", v.GetInt("config_version"), CurrentConfigVersion)
		}
		if !v.IsSet("server.base_url") {
			return Config{}, fmt.Errorf("server.base_url is required for config_version %d", CurrentConfigVersion)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	cfg.StateDir = expandEnv(cfg.StateDir)
	cfg.Server.BaseURL = expandEnv(cfg.Server.BaseURL)
	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validate(cfg Config) error {
	base := strings.TrimSpace(cfg.Server.BaseURL)
	parsed, err := url.Parse(base)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return fmt.Errorf("server.base_url must be an http or https URL (e.g. http://localhost:8000)")
	}
	if cfg.Mentions.DebounceMs < 0 {
		return fmt.Errorf("mentions.debounce_ms must not be negative")
	}
	if cfg.Mentions.MaxCandidates < 1 {
		return fmt.Errorf("mentions.max_candidates must be at least 1")
	}
	return nil
}

func expandEnv(value string) string {
	if value == "" {
		return value
	}
	return os.Expand(value, func(key string) string {
		if key == "" {
			return ""
		}
		if val, ok := os.LookupEnv(key); ok {
			return val
		}
		return "$" + key
	})
}

// WriteDefault writes the default config to the target path.
func WriteDefault(path string, overwrite bool) (string, error) {
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return "", err
		}
		path = defaultPath
	}

	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return "", fmt.Errorf("config already exists at %s", path)
		}
	}

	cfg, err := DefaultConfig()
	if err != nil {
		return "", err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", err
	}
	return path, nil
}
