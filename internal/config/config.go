// Package config loads and validates the docnav tool configuration file.
package config

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/docnav/internal/foundation/errors"
	"git.home.luguber.info/inful/docnav/internal/site"
)

// CurrentVersion is the configuration schema version this build understands.
const CurrentVersion = "1.0"

// DefaultPath is the configuration file used when none is given.
const DefaultPath = "docnav.yaml"

// Config is the docnav configuration file.
type Config struct {
	Version string `yaml:"version"`
	// Site is the navigation definition. SiteFile points to a separate
	// YAML or JSON file instead; exactly one of them is set.
	Site      *site.Site      `yaml:"site,omitempty"`
	SiteFile  string          `yaml:"site_file,omitempty"`
	Docs      DocsConfig      `yaml:"docs"`
	Output    OutputConfig    `yaml:"output"`
	LinkCheck LinkCheckConfig `yaml:"linkcheck"`
	History   HistoryConfig   `yaml:"history"`
	Watch     WatchConfig     `yaml:"watch"`
	Logging   LoggingConfig   `yaml:"logging"`

	baseDir string
}

// DocsConfig locates the Markdown sources behind auto sidebars.
type DocsConfig struct {
	Dir        string `yaml:"dir"`
	DetectRepo bool   `yaml:"detect_repo"`
}

// OutputConfig controls which files a build writes and where.
type OutputConfig struct {
	Directory string   `yaml:"directory"`
	Formats   []string `yaml:"formats"`
	Clean     bool     `yaml:"clean"`
}

// LinkCheckConfig configures navigation link verification.
type LinkCheckConfig struct {
	Enabled           bool             `yaml:"enabled"`  // run after every build
	External          bool             `yaml:"external"` // also request external URLs
	Timeout           string           `yaml:"timeout"`
	MaxConcurrent     int              `yaml:"max_concurrent"`
	MaxRetries        int              `yaml:"max_retries"`
	RetryBackoff      RetryBackoffMode `yaml:"retry_backoff"`
	RetryInitialDelay string           `yaml:"retry_initial_delay"`
	RetryMaxDelay     string           `yaml:"retry_max_delay"`
	CacheTTL          string           `yaml:"cache_ttl"`
	CacheTTLFailures  string           `yaml:"cache_ttl_failures"`
	NATS              NATSConfig       `yaml:"nats"`
}

// NATSConfig enables the shared result cache and broken link events.
// An empty URL disables both.
type NATSConfig struct {
	URL      string `yaml:"url"`
	Subject  string `yaml:"subject"`
	KVBucket string `yaml:"kv_bucket"`
}

// HistoryConfig configures the build history database.
type HistoryConfig struct {
	Path string `yaml:"path"`
}

// WatchConfig configures watch mode.
type WatchConfig struct {
	Debounce          string `yaml:"debounce"`
	LinkCheckInterval string `yaml:"link_check_interval"`
	MetricsAddr       string `yaml:"metrics_addr"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// Load reads, normalizes, defaults and validates a configuration file.
func Load(configPath string) (*Config, error) {
	loadEnvFiles(filepath.Dir(configPath))

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFoundError("configuration file not found").
				WithContext("path", configPath).
				Build()
		}
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to read config file").
			WithContext("path", configPath).
			Build()
	}

	cfg, err := Parse([]byte(site.ExpandEnv(string(data))))
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(filepath.Dir(configPath))
	if err != nil {
		abs = filepath.Dir(configPath)
	}
	cfg.baseDir = abs

	if cfg.SiteFile != "" {
		s, err := site.Load(cfg.Resolve(cfg.SiteFile))
		if err != nil {
			return nil, err
		}
		cfg.Site = s
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes configuration bytes and applies normalization and defaults.
// Relative paths resolve against the working directory until Load sets
// the configuration directory.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to parse configuration").Build()
	}

	if cfg.Version != CurrentVersion {
		return nil, errors.ConfigError(fmt.Sprintf("unsupported configuration version: %q (expected %s)", cfg.Version, CurrentVersion)).
			WithContext("version", cfg.Version).
			Build()
	}

	if cfg.Site != nil && cfg.SiteFile != "" {
		return nil, errors.ConfigError("site and site_file are mutually exclusive").Build()
	}

	res, err := NormalizeConfig(&cfg)
	if err != nil {
		return nil, err
	}
	for _, w := range res.Warnings {
		slog.Warn("Configuration normalized", slog.String("detail", w))
	}

	if err := applyDefaults(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Resolve returns p joined to the configuration directory when relative.
func (c *Config) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || c.baseDir == "" {
		return p
	}
	return filepath.Join(c.baseDir, p)
}

// BaseDir returns the directory of the loaded configuration file.
func (c *Config) BaseDir() string { return c.baseDir }

// DocsDir returns the resolved docs directory.
func (c *Config) DocsDir() string { return c.Resolve(c.Docs.Dir) }

// OutputDir returns the resolved output directory.
func (c *Config) OutputDir() string { return c.Resolve(c.Output.Directory) }

// HistoryPath returns the resolved history database path.
func (c *Config) HistoryPath() string {
	if c.History.Path == MemoryHistory {
		return c.History.Path
	}
	return c.Resolve(c.History.Path)
}

// MemoryHistory keeps build history in memory only.
const MemoryHistory = ":memory:"

// Duration parses a validated duration field, returning fallback when empty.
func Duration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return d
}
