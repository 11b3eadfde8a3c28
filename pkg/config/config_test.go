package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, DefaultPollInterval, cfg.Storage.PollInterval)
	assert.Equal(t, []string{"chrome-extension://*/suspended.html"}, cfg.SuspendedPagePatterns)
	assert.Equal(t, "normal", cfg.Logging.Verbosity)
	assert.False(t, cfg.Browser.Headless)
}

func TestLoadFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	t.Run("empty path returns validated defaults", func(t *testing.T) {
		cfg, err := LoadFile("")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(home, ".tabguard", "storage.json"), cfg.Storage.Path)
		assert.Equal(t, filepath.Join(home, ".tabguard", "profile"), cfg.Browser.UserDataDir)
	})

	t.Run("overrides defaults from yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "tabguard.yaml")
		content := `
storage:
  path: /var/lib/tabguard/storage.json
  poll_interval: 250ms
browser:
  headless: true
  channel: chrome
  start_urls:
    - https://example.com
suspended_page_patterns:
  - "chrome-extension://*/park.html"
logging:
  verbosity: debug
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))

		cfg, err := LoadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "/var/lib/tabguard/storage.json", cfg.Storage.Path)
		assert.Equal(t, 250*time.Millisecond, cfg.Storage.PollInterval)
		assert.True(t, cfg.Browser.Headless)
		assert.Equal(t, "chrome", cfg.Browser.Channel)
		assert.Equal(t, []string{"https://example.com"}, cfg.Browser.StartURLs)
		assert.Equal(t, []string{"chrome-extension://*/park.html"}, cfg.SuspendedPagePatterns)
		assert.Equal(t, "debug", cfg.Logging.Verbosity)
		// untouched defaults survive
		assert.Equal(t, filepath.Join(home, ".tabguard", "profile"), cfg.Browser.UserDataDir)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("storage: [unterminated"), 0644))
		_, err := LoadFile(path)
		assert.Error(t, err)
	})
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:    "negative poll interval",
			mutate:  func(c *Config) { c.Storage.PollInterval = -time.Second },
			wantErr: "poll_interval cannot be negative",
		},
		{
			name:    "missing profile dir",
			mutate:  func(c *Config) { c.Browser.UserDataDir = "" },
			wantErr: "user_data_dir is required",
		},
		{
			name:    "bad verbosity",
			mutate:  func(c *Config) { c.Logging.Verbosity = "loud" },
			wantErr: "invalid logging verbosity",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	t.Run("fills zero values", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Storage.PollInterval = 0
		cfg.Logging.Verbosity = ""
		require.NoError(t, cfg.Validate())
		assert.Equal(t, DefaultPollInterval, cfg.Storage.PollInterval)
		assert.Equal(t, "normal", cfg.Logging.Verbosity)
	})
}

func TestExpandHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := ExpandHome("~/x/y")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "x", "y"), got)

	got, err = ExpandHome("/abs/path")
	require.NoError(t, err)
	assert.Equal(t, "/abs/path", got)

	got, err = ExpandHome("~other/path")
	require.NoError(t, err)
	assert.Equal(t, "~other/path", got)
}
