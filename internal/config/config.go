// Package config provides the Config struct and loader for .factcheck.yaml
// configuration files.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the configuration file looked up by Load.
const FileName = ".factcheck.yaml"

// Default values for configuration. New() references them and no other code
// should duplicate them.
const (
	DefaultBaseURL = "http://localhost:5000"
	DefaultTimeout = 0

	DefaultLang    = "en"
	DefaultFormat  = "text"
	DefaultDetails = false

	DefaultPollInterval = 3

	DefaultMaxClaims      = 5
	DefaultMaxInputLength = 10000
	DefaultFeedMaxItems   = 50

	DefaultCacheDir        = ".factcheck-cache"
	DefaultCacheMaxAgeDays = 30
	DefaultSessionLogDir   = ".factcheck-sessions"
)

// ServerConfig holds backend connection settings.
type ServerConfig struct {
	BaseURL string `yaml:"base_url,omitempty"`
	// Timeout is the per-request timeout in seconds. Zero means none.
	Timeout int `yaml:"timeout,omitempty"`
}

// DefaultsConfig holds default command parameters.
type DefaultsConfig struct {
	Lang    string `yaml:"lang,omitempty"`
	Format  string `yaml:"format,omitempty"`
	Details *bool  `yaml:"details,omitempty"`
}

// PollingConfig holds status polling settings.
type PollingConfig struct {
	// Interval is the delay between status queries in seconds.
	Interval int `yaml:"interval,omitempty"`
}

// SelectionConfig holds claim selection settings.
type SelectionConfig struct {
	MaxClaims int `yaml:"max_claims,omitempty"`
}

// InputConfig holds submission limits.
type InputConfig struct {
	MaxLength int `yaml:"max_length,omitempty"`
}

// FeedConfig holds recent-analyses feed settings.
type FeedConfig struct {
	MaxItems int `yaml:"max_items,omitempty"`
}

// CacheConfig holds report cache settings.
type CacheConfig struct {
	Enabled *bool  `yaml:"enabled,omitempty"`
	Dir     string `yaml:"dir,omitempty"`
	// MaxAgeDays expires cached reports older than this many days.
	MaxAgeDays int `yaml:"max_age_days,omitempty"`
}

// SessionLogConfig holds NDJSON session log settings.
type SessionLogConfig struct {
	Enabled *bool  `yaml:"enabled,omitempty"`
	Dir     string `yaml:"dir,omitempty"`
}

// Config is the top-level configuration loaded from .factcheck.yaml.
type Config struct {
	Server     ServerConfig     `yaml:"server,omitempty"`
	Defaults   DefaultsConfig   `yaml:"defaults,omitempty"`
	Polling    PollingConfig    `yaml:"polling,omitempty"`
	Selection  SelectionConfig  `yaml:"selection,omitempty"`
	Input      InputConfig      `yaml:"input,omitempty"`
	Feed       FeedConfig       `yaml:"feed,omitempty"`
	Cache      CacheConfig      `yaml:"cache,omitempty"`
	SessionLog SessionLogConfig `yaml:"session_log,omitempty"`
}

// New returns a Config with all hard-coded defaults populated.
func New() *Config {
	return &Config{
		Server: ServerConfig{
			BaseURL: DefaultBaseURL,
			Timeout: DefaultTimeout,
		},
		Defaults: DefaultsConfig{
			Lang:    DefaultLang,
			Format:  DefaultFormat,
			Details: boolPtr(DefaultDetails),
		},
		Polling: PollingConfig{
			Interval: DefaultPollInterval,
		},
		Selection: SelectionConfig{
			MaxClaims: DefaultMaxClaims,
		},
		Input: InputConfig{
			MaxLength: DefaultMaxInputLength,
		},
		Feed: FeedConfig{
			MaxItems: DefaultFeedMaxItems,
		},
		Cache: CacheConfig{
			Enabled:    boolPtr(true),
			Dir:        DefaultCacheDir,
			MaxAgeDays: DefaultCacheMaxAgeDays,
		},
		SessionLog: SessionLogConfig{
			Enabled: boolPtr(false),
			Dir:     DefaultSessionLogDir,
		},
	}
}

// PollInterval is Polling.Interval as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Polling.Interval) * time.Second
}

// CacheMaxAge is Cache.MaxAgeDays as a duration.
func (c *Config) CacheMaxAge() time.Duration {
	return time.Duration(c.Cache.MaxAgeDays) * 24 * time.Hour
}

// RequestTimeout is Server.Timeout as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Server.Timeout) * time.Second
}

// ShowDetails reports whether reports open with the detailed section visible.
func (c *Config) ShowDetails() bool {
	return c.Defaults.Details != nil && *c.Defaults.Details
}

// CacheEnabled reports whether completed reports are cached on disk.
func (c *Config) CacheEnabled() bool {
	return c.Cache.Enabled != nil && *c.Cache.Enabled
}

// SessionLogEnabled reports whether NDJSON session logs are written.
func (c *Config) SessionLogEnabled() bool {
	return c.SessionLog.Enabled != nil && *c.SessionLog.Enabled
}

// Load finds .factcheck.yaml by walking up from startDir (max 10 levels),
// unmarshals it, and fills in missing fields with defaults.
// If no config file is found, returns defaults with a nil error.
// Real I/O errors (e.g. permission denied) are returned to the caller.
func Load(startDir string) (*Config, error) {
	cfg := New()

	data, err := findConfigFile(startDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("loading %s: %w", FileName, err)
	}
	if err := merge(cfg, data); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", FileName, err)
	}
	return cfg, nil
}

// LoadFile reads an explicit config file. Unlike Load, a missing file is an
// error.
func LoadFile(path string) (*Config, error) {
	cfg := New()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	if err := merge(cfg, data); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, nil
}

func merge(cfg *Config, data []byte) error {
	var fileCfg Config
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return err
	}
	mergeConfig(cfg, &fileCfg)
	return nil
}

// findConfigFile walks up from dir looking for .factcheck.yaml (max 10
// levels). Returns os.ErrNotExist if no config file is found.
func findConfigFile(dir string) ([]byte, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving path %q: %w", dir, err)
	}
	dir = absDir

	for range 10 {
		p := filepath.Join(dir, FileName)
		data, err := os.ReadFile(p)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading %q: %w", p, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break // reached filesystem root
		}
		dir = parent
	}
	return nil, os.ErrNotExist
}

// mergeConfig overlays non-zero values from src onto dst.
func mergeConfig(dst, src *Config) {
	// Server
	if src.Server.BaseURL != "" {
		dst.Server.BaseURL = src.Server.BaseURL
	}
	if src.Server.Timeout != 0 {
		dst.Server.Timeout = src.Server.Timeout
	}

	// Defaults
	if src.Defaults.Lang != "" {
		dst.Defaults.Lang = src.Defaults.Lang
	}
	if src.Defaults.Format != "" {
		dst.Defaults.Format = src.Defaults.Format
	}
	if src.Defaults.Details != nil {
		dst.Defaults.Details = src.Defaults.Details
	}

	if src.Polling.Interval > 0 {
		dst.Polling.Interval = src.Polling.Interval
	}
	if src.Selection.MaxClaims > 0 {
		dst.Selection.MaxClaims = src.Selection.MaxClaims
	}
	if src.Input.MaxLength > 0 {
		dst.Input.MaxLength = src.Input.MaxLength
	}
	if src.Feed.MaxItems > 0 {
		dst.Feed.MaxItems = src.Feed.MaxItems
	}

	// Cache
	if src.Cache.Enabled != nil {
		dst.Cache.Enabled = src.Cache.Enabled
	}
	if src.Cache.Dir != "" {
		dst.Cache.Dir = src.Cache.Dir
	}
	if src.Cache.MaxAgeDays > 0 {
		dst.Cache.MaxAgeDays = src.Cache.MaxAgeDays
	}

	// Session log
	if src.SessionLog.Enabled != nil {
		dst.SessionLog.Enabled = src.SessionLog.Enabled
	}
	if src.SessionLog.Dir != "" {
		dst.SessionLog.Dir = src.SessionLog.Dir
	}
}

func boolPtr(b bool) *bool {
	return &b
}
