package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v2"
)

// EnvServerURL overrides server.url when set.
const EnvServerURL = "RSO_SERVER_URL"

// DefaultPath is where the config lives when no path is given.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, "rso", "config.yaml")
}

// Resolve picks the config file to load: path when set, otherwise
// DefaultPath if that file exists, otherwise "" for built-in defaults.
func Resolve(path string) string {
	if path != "" {
		return path
	}
	if _, err := os.Stat(DefaultPath()); err == nil {
		return DefaultPath()
	}
	return ""
}

// Load reads configuration from a YAML file. An empty path yields the defaults.
func Load(path string) (*AppConfig, error) {
	var cfg AppConfig

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		// Expand environment variables in the YAML content
		expandedData := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if v := os.Getenv(EnvServerURL); v != "" {
		cfg.Server.URL = v
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that defaults cannot repair.
func (c *AppConfig) Validate() error {
	u, err := url.Parse(c.Server.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("bad server url: %q", c.Server.URL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("bad server url scheme: %q", u.Scheme)
	}
	c.Server.URL = strings.TrimRight(c.Server.URL, "/")

	if c.Handshake.MaxAttempts < 0 {
		return fmt.Errorf("handshake.max_attempts must be positive, got %d", c.Handshake.MaxAttempts)
	}
	if c.Queue.Workers < 0 {
		return fmt.Errorf("queue.workers must be positive, got %d", c.Queue.Workers)
	}
	return nil
}
