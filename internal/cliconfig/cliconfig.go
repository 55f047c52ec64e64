// Package cliconfig persists the fsctl client's server address in the
// user's config directory.
package cliconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	appDir     = "filestore-cli"
	configFile = "config.json"
	defaultURL = "http://localhost:8080"
)

// Config holds either a full API URL or a host/port pair.
type Config struct {
	APIURL string `json:"api_url,omitempty"`
	Host   string `json:"host,omitempty"`
	Port   int    `json:"port,omitempty"`
}

// Path returns the config file location.
func Path() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(base, appDir, configFile), nil
}

// Load reads the stored config. A missing file yields a zero Config.
func Load() (Config, error) {
	path, err := Path()
	if err != nil {
		return Config{}, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Config{}, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Save writes the config, creating the directory if needed.
func Save(cfg Config) error {
	path, err := Path()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Clear removes the stored config. Clearing an absent config is fine.
func Clear() error {
	path, err := Path()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove config: %w", err)
	}
	return nil
}

// BaseURL resolves the server address: explicit api_url wins, then
// host/port, then the default.
func (c Config) BaseURL() string {
	if c.APIURL != "" {
		return c.APIURL
	}
	if c.Host != "" {
		port := c.Port
		if port == 0 {
			port = 8080
		}
		return fmt.Sprintf("http://%s:%d", c.Host, port)
	}
	return defaultURL
}
