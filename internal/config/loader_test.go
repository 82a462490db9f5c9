package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadFromFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
global:
  cache_dir: `+filepath.Join(dir, "cache")+`
api:
  base_url: https://chat.example.com/api
  timeout: 5s
cache:
  workers: 2
ui:
  theme: high-contrast
`), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	require.Equal(t, "https://chat.example.com/api", cfg.API.BaseURL)
	require.Equal(t, 5*time.Second, cfg.API.Timeout)
	require.Equal(t, 2, cfg.Cache.Workers)
	require.Equal(t, "high-contrast", cfg.UI.Theme)
	require.Equal(t, ".jpeg", cfg.Cache.Extension)
	require.Equal(t, filepath.Join(dir, "cache", "image-cache"), cfg.ImageCacheDir())
}

func TestLoadEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cache:\n  workers: 2\n"), 0o644))

	t.Setenv("SQUADS_CACHE_WORKERS", "7")
	t.Setenv("SQUADS_LOGGING_LEVEL", "debug")

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	require.Equal(t, 7, cfg.Cache.Workers)
	require.Equal(t, "debug", cfg.Logging.Level)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := map[string]func(*Config){
		"workers":   func(c *Config) { c.Cache.Workers = 0 },
		"extension": func(c *Config) { c.Cache.Extension = "jpeg" },
		"image dir": func(c *Config) { c.Cache.ImageDir = "a/b" },
		"base url":  func(c *Config) { c.API.BaseURL = "ftp://x" },
		"theme":     func(c *Config) { c.UI.Theme = "neon" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			mutate(cfg)
			require.Error(t, cfg.Validate())
		})
	}
	require.NoError(t, DefaultConfig().Validate())
}

func TestExpandTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(home, "squads"), expandTilde("~/squads"))
	require.Equal(t, "/abs", expandTilde("/abs"))
	require.Equal(t, "", expandTilde(""))
}
