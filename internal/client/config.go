// Package client implements the pieces behind the chronica CLI: server API
// access, session storage, local playback and recording state, and the
// list/map presentation helpers.
package client

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config holds the CLI settings read from config.toml.
type Config struct {
	ServerURL      string `toml:"server_url"`
	MediaDir       string `toml:"media_dir"`
	RequestTimeout int    `toml:"request_timeout"` // seconds
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		ServerURL:      "http://localhost:8080",
		MediaDir:       filepath.Join(ConfigDir(), "media"),
		RequestTimeout: 30,
	}
}

// ConfigDir returns the directory holding the config file, token and media.
func ConfigDir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "chronica")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "chronica")
}

// LoadConfig reads the config at path, falling back to defaults for a missing
// file. An empty path means the default location.
func LoadConfig(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = filepath.Join(ConfigDir(), "config.toml")
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	if err := toml.NewDecoder(f).Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if cfg.ServerURL == "" {
		return cfg, errors.New("config: server_url must not be empty")
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30
	}
	return cfg, nil
}

// Timeout returns the request timeout as a duration.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}
