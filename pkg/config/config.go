package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the daemon configuration read from a YAML file.
type Config struct {
	// Storage locates the shared limits storage
	Storage StorageConfig `yaml:"storage" json:"storage"`

	// Browser controls the driven browser profile
	Browser BrowserConfig `yaml:"browser" json:"browser"`

	// SuspendedPagePatterns are glob patterns for tab-suspension wrapper pages
	SuspendedPagePatterns []string `yaml:"suspended_page_patterns" json:"suspended_page_patterns"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// StorageConfig defines where the shared storage file lives and how often it is polled
type StorageConfig struct {
	Path         string        `yaml:"path" json:"path"`
	PollInterval time.Duration `yaml:"poll_interval" json:"poll_interval"`
}

// BrowserConfig defines how the browser is launched
type BrowserConfig struct {
	Headless    bool     `yaml:"headless" json:"headless"`
	UserDataDir string   `yaml:"user_data_dir" json:"user_data_dir"`
	Channel     string   `yaml:"channel" json:"channel"` // e.g. "chrome", "msedge"; empty uses bundled Chromium
	StartURLs   []string `yaml:"start_urls" json:"start_urls"`
}

// LoggingConfig defines logging configuration
type LoggingConfig struct {
	// Verbosity controls logging level: quiet, normal, verbose, debug
	Verbosity string `yaml:"verbosity" json:"verbosity"`
}

// DefaultConfig returns the configuration used when no file is given
func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			Path:         "~/.tabguard/storage.json",
			PollInterval: DefaultPollInterval,
		},
		Browser: BrowserConfig{
			UserDataDir: "~/.tabguard/profile",
		},
		SuspendedPagePatterns: []string{"chrome-extension://*/suspended.html"},
		Logging: LoggingConfig{
			Verbosity: "normal",
		},
	}
}

// LoadFile reads a YAML config file on top of DefaultConfig and validates it.
func LoadFile(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, cfg.Validate()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate validates the configuration and expands "~" in paths
func (c *Config) Validate() error {
	if c.Storage.PollInterval < 0 {
		return fmt.Errorf("poll_interval cannot be negative")
	}
	if c.Storage.PollInterval == 0 {
		c.Storage.PollInterval = DefaultPollInterval
	}

	var err error
	if c.Storage.Path, err = ExpandHome(c.Storage.Path); err != nil {
		return err
	}
	if c.Browser.UserDataDir, err = ExpandHome(c.Browser.UserDataDir); err != nil {
		return err
	}
	if c.Browser.UserDataDir == "" {
		return fmt.Errorf("browser user_data_dir is required")
	}

	// Set default verbosity if not specified
	if c.Logging.Verbosity == "" {
		c.Logging.Verbosity = "normal"
	}

	validLevels := map[string]bool{
		"quiet":   true,
		"normal":  true,
		"verbose": true,
		"debug":   true,
	}
	if !validLevels[c.Logging.Verbosity] {
		return fmt.Errorf("invalid logging verbosity: %s (must be 'quiet', 'normal', 'verbose', or 'debug')", c.Logging.Verbosity)
	}

	return nil
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, strings.TrimPrefix(path, "~")), nil
}
