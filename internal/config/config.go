// Package config handles squads configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config is the root configuration structure for squads.
type Config struct {
	// Global settings
	Global GlobalConfig `yaml:"global" mapstructure:"global"`

	// API settings for the chat service
	API APIConfig `yaml:"api" mapstructure:"api"`

	// Resource cache settings
	Cache CacheConfig `yaml:"cache" mapstructure:"cache"`

	// Logging settings
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`

	// UI settings
	UI UIConfig `yaml:"ui" mapstructure:"ui"`
}

// GlobalConfig contains global squads settings.
type GlobalConfig struct {
	// DataDir is where squads stores its metadata database and session state.
	DataDir string `yaml:"data_dir" mapstructure:"data_dir"`

	// CacheDir is the per-application cache directory (default: $XDG_CACHE_HOME/squads).
	CacheDir string `yaml:"cache_dir" mapstructure:"cache_dir"`

	// ConfigDir is where config files are stored (default: ~/.config/squads).
	ConfigDir string `yaml:"config_dir" mapstructure:"config_dir"`
}

// APIConfig describes how to reach the chat service.
type APIConfig struct {
	// BaseURL is the root of the chat REST API. Empty selects FixturesDir.
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`

	// Token is sent as a bearer token. Never logged.
	Token string `yaml:"token" mapstructure:"token"`

	// Timeout bounds a single API request.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// FixturesDir serves teams, activities and conversations from JSON files.
	FixturesDir string `yaml:"fixtures_dir" mapstructure:"fixtures_dir"`
}

// CacheConfig contains resource cache settings.
type CacheConfig struct {
	// ImageDir is the subdirectory of CacheDir holding image payloads.
	ImageDir string `yaml:"image_dir" mapstructure:"image_dir"`

	// Extension is appended to the identity to form the payload filename.
	Extension string `yaml:"extension" mapstructure:"extension"`

	// Workers bounds concurrent fetches.
	Workers int `yaml:"workers" mapstructure:"workers"`

	// FetchTimeout bounds a single image fetch.
	FetchTimeout time.Duration `yaml:"fetch_timeout" mapstructure:"fetch_timeout"`

	// MaxResident bounds the in-memory resident index. Disk is not pruned.
	MaxResident int `yaml:"max_resident" mapstructure:"max_resident"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `yaml:"level" mapstructure:"level"`

	// Format is the output format (json, console, auto).
	Format string `yaml:"format" mapstructure:"format"`

	// File is an optional log file path.
	File string `yaml:"file" mapstructure:"file"`

	// EnableCaller adds caller information to logs.
	EnableCaller bool `yaml:"enable_caller" mapstructure:"enable_caller"`
}

// UIConfig contains renderer-facing settings.
type UIConfig struct {
	// Theme is the color theme (default, high-contrast).
	Theme string `yaml:"theme" mapstructure:"theme"`

	// EmojiFile is a YAML map of shortcode to rendering reference.
	EmojiFile string `yaml:"emoji_file" mapstructure:"emoji_file"`

	// PreviewWidth is the column budget for activity previews.
	PreviewWidth int `yaml:"preview_width" mapstructure:"preview_width"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	cacheDir, err := os.UserCacheDir()
	if err != nil || cacheDir == "" {
		cacheDir = filepath.Join(homeDir, ".cache")
	}

	return &Config{
		Global: GlobalConfig{
			DataDir:   filepath.Join(homeDir, ".local", "share", "squads"),
			CacheDir:  filepath.Join(cacheDir, "squads"),
			ConfigDir: filepath.Join(homeDir, ".config", "squads"),
		},
		API: APIConfig{
			Timeout: 15 * time.Second,
		},
		Cache: CacheConfig{
			ImageDir:     "image-cache",
			Extension:    ".jpeg",
			Workers:      4,
			FetchTimeout: 30 * time.Second,
			MaxResident:  1024,
		},
		Logging: LoggingConfig{
			Level:        "info",
			Format:       "auto",
			EnableCaller: false,
		},
		UI: UIConfig{
			Theme:        "default",
			PreviewWidth: 80,
		},
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Cache.Workers < 1 {
		return fmt.Errorf("cache.workers must be at least 1")
	}
	if c.Cache.MaxResident < 1 {
		return fmt.Errorf("cache.max_resident must be at least 1")
	}
	if c.Cache.FetchTimeout < 100*time.Millisecond {
		return fmt.Errorf("cache.fetch_timeout must be at least 100ms")
	}
	if strings.TrimSpace(c.Cache.ImageDir) == "" {
		return fmt.Errorf("cache.image_dir is required")
	}
	if strings.ContainsAny(c.Cache.ImageDir, `/\`) {
		return fmt.Errorf("cache.image_dir must be a single path element")
	}
	if !strings.HasPrefix(c.Cache.Extension, ".") {
		return fmt.Errorf("cache.extension must start with a dot")
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive")
	}
	if c.API.BaseURL != "" && !strings.HasPrefix(c.API.BaseURL, "http://") && !strings.HasPrefix(c.API.BaseURL, "https://") {
		return fmt.Errorf("api.base_url must be an http(s) URL")
	}
	switch c.UI.Theme {
	case "default", "high-contrast":
	default:
		return fmt.Errorf("ui.theme must be one of default, high-contrast")
	}
	if c.UI.PreviewWidth < 10 {
		return fmt.Errorf("ui.preview_width must be at least 10")
	}
	return nil
}

// EnsureDirectories creates required directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Global.DataDir,
		c.ImageCacheDir(),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// ImageCacheDir returns the directory image payloads are persisted under.
func (c *Config) ImageCacheDir() string {
	return filepath.Join(c.Global.CacheDir, c.Cache.ImageDir)
}

// DatabasePath returns the metadata database path.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Global.DataDir, "squads.db")
}

// StatePath returns the session state file path.
func (c *Config) StatePath() string {
	return filepath.Join(c.Global.DataDir, "session.json")
}
