// Package config provides configuration loading for ctxkit.
//
// Configuration comes from an optional YAML file overridden by CTXKIT_*
// environment variables. Every section has defaults that make the tool
// usable with nothing but a corpus root.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// MaxResultLimit is the largest accepted ranking.max_limit.
const MaxResultLimit = 20

// Store backends.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// Config holds the complete ctxkit configuration.
type Config struct {
	Corpus   CorpusConfig   `koanf:"corpus" json:"corpus"`
	Store    StoreConfig    `koanf:"store" json:"store"`
	Ranking  RankingConfig  `koanf:"ranking" json:"ranking"`
	Resolver ResolverConfig `koanf:"resolver" json:"resolver"`
	Logging  LoggingConfig  `koanf:"logging" json:"logging"`
	Metrics  MetricsConfig  `koanf:"metrics" json:"metrics"`
}

// CorpusConfig locates the document corpus.
type CorpusConfig struct {
	Root       string   `koanf:"root" json:"root"`
	Extensions []string `koanf:"extensions" json:"extensions"`
}

// StoreConfig controls where usage and pattern data persist.
type StoreConfig struct {
	Backend       string   `koanf:"backend" json:"backend"`
	Dir           string   `koanf:"dir" json:"dir"` // default: <corpus.root>/.ctxkit
	UsageFile     string   `koanf:"usage_file" json:"usage_file"`
	PatternsFile  string   `koanf:"patterns_file" json:"patterns_file"`
	SQLiteFile    string   `koanf:"sqlite_file" json:"sqlite_file"`
	QueryLogLimit int      `koanf:"query_log_limit" json:"query_log_limit"`
	LockTimeout   Duration `koanf:"lock_timeout" json:"lock_timeout"`
}

// RankingConfig tunes the recommendation ranker.
type RankingConfig struct {
	MinScore        float64 `koanf:"min_score" json:"min_score"`
	DefaultLimit    int     `koanf:"default_limit" json:"default_limit"`
	MaxLimit        int     `koanf:"max_limit" json:"max_limit"`
	PredictionBlend float64 `koanf:"prediction_blend" json:"prediction_blend"`
}

// ResolverConfig bounds reference resolution.
type ResolverConfig struct {
	MaxDepth      int      `koanf:"max_depth" json:"max_depth"`
	MaxFileSize   int64    `koanf:"max_file_size" json:"max_file_size"`
	MaxTextChars  int      `koanf:"max_text_chars" json:"max_text_chars"`
	LinkFields    []string `koanf:"link_fields" json:"link_fields"`
	RedactSecrets bool     `koanf:"redact_secrets" json:"redact_secrets"`
	AllowlistFile string   `koanf:"allowlist_file" json:"allowlist_file"`
}

// LoggingConfig is the subset of logger settings exposed to users.
type LoggingConfig struct {
	Level  string `koanf:"level" json:"level"`
	Format string `koanf:"format" json:"format"`
	File   string `koanf:"file" json:"file"`
}

// MetricsConfig controls the prometheus textfile export.
type MetricsConfig struct {
	Textfile string `koanf:"textfile" json:"textfile"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg, func(string) bool { return false })
	return cfg
}

// StoreDir returns the directory holding persisted stores.
func (c *Config) StoreDir() string {
	if c.Store.Dir != "" {
		return c.Store.Dir
	}
	return filepath.Join(c.Corpus.Root, ".ctxkit")
}

// UsagePath returns the usage ledger file for the JSON backend.
func (c *Config) UsagePath() string {
	return c.storePath(c.Store.UsageFile)
}

// PatternsPath returns the pattern store file for the JSON backend.
func (c *Config) PatternsPath() string {
	return c.storePath(c.Store.PatternsFile)
}

// SQLitePath returns the database file for the sqlite backend.
func (c *Config) SQLitePath() string {
	return c.storePath(c.Store.SQLiteFile)
}

func (c *Config) storePath(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.StoreDir(), name)
}

// applyDefaults fills unset fields. isSet reports whether a key was
// explicitly provided, so zero values that carry meaning are preserved.
func applyDefaults(cfg *Config, isSet func(key string) bool) {
	if len(cfg.Corpus.Extensions) == 0 {
		cfg.Corpus.Extensions = []string{".json", ".yaml", ".yml", ".toml"}
	}

	if cfg.Store.Backend == "" {
		cfg.Store.Backend = BackendJSON
	}
	if cfg.Store.UsageFile == "" {
		cfg.Store.UsageFile = "usage_stats.json"
	}
	if cfg.Store.PatternsFile == "" {
		cfg.Store.PatternsFile = "template_patterns.json"
	}
	if cfg.Store.SQLiteFile == "" {
		cfg.Store.SQLiteFile = "ctxkit.db"
	}
	if cfg.Store.QueryLogLimit == 0 {
		cfg.Store.QueryLogLimit = 1000
	}
	if cfg.Store.LockTimeout == 0 {
		cfg.Store.LockTimeout = Duration(5 * time.Second)
	}

	if !isSet("ranking.min_score") {
		cfg.Ranking.MinScore = 0.01
	}
	if cfg.Ranking.DefaultLimit == 0 {
		cfg.Ranking.DefaultLimit = 5
	}
	if cfg.Ranking.MaxLimit == 0 {
		cfg.Ranking.MaxLimit = MaxResultLimit
	}
	if !isSet("ranking.prediction_blend") {
		cfg.Ranking.PredictionBlend = 0.3
	}

	if cfg.Resolver.MaxDepth == 0 {
		cfg.Resolver.MaxDepth = 5
	}
	if cfg.Resolver.MaxFileSize == 0 {
		cfg.Resolver.MaxFileSize = 100 * 1024
	}
	if cfg.Resolver.MaxTextChars == 0 {
		cfg.Resolver.MaxTextChars = 5000
	}
	if len(cfg.Resolver.LinkFields) == 0 {
		cfg.Resolver.LinkFields = []string{"auto_load", "files_to_load", "suggested_files_to_load", "related_files"}
	}
	if !isSet("resolver.redact_secrets") {
		cfg.Resolver.RedactSecrets = true
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}
}

// Validate validates the configuration.
//
// Corpus.Root is not checked here because the CLI may supply it after
// loading; callers that need it must check it themselves.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendJSON, BackendSQLite:
	default:
		return fmt.Errorf("%w: store.backend must be %q or %q, got %q", ErrInvalidConfig, BackendJSON, BackendSQLite, c.Store.Backend)
	}
	if c.Store.QueryLogLimit < 1 {
		return fmt.Errorf("%w: store.query_log_limit must be positive, got %d", ErrInvalidConfig, c.Store.QueryLogLimit)
	}

	for _, ext := range c.Corpus.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("%w: corpus extension %q must start with '.'", ErrInvalidConfig, ext)
		}
	}

	if c.Ranking.MinScore < 0 {
		return fmt.Errorf("%w: ranking.min_score must be >= 0", ErrInvalidConfig)
	}
	if c.Ranking.MaxLimit < 1 || c.Ranking.MaxLimit > MaxResultLimit {
		return fmt.Errorf("%w: ranking.max_limit must be between 1 and %d, got %d", ErrInvalidConfig, MaxResultLimit, c.Ranking.MaxLimit)
	}
	if c.Ranking.DefaultLimit < 1 || c.Ranking.DefaultLimit > c.Ranking.MaxLimit {
		return fmt.Errorf("%w: ranking.default_limit must be between 1 and %d, got %d", ErrInvalidConfig, c.Ranking.MaxLimit, c.Ranking.DefaultLimit)
	}
	if c.Ranking.PredictionBlend < 0 || c.Ranking.PredictionBlend > 1 {
		return fmt.Errorf("%w: ranking.prediction_blend must be within [0,1], got %v", ErrInvalidConfig, c.Ranking.PredictionBlend)
	}

	if c.Resolver.MaxDepth < 1 {
		return fmt.Errorf("%w: resolver.max_depth must be >= 1, got %d", ErrInvalidConfig, c.Resolver.MaxDepth)
	}
	if c.Resolver.MaxFileSize < 1 {
		return fmt.Errorf("%w: resolver.max_file_size must be positive", ErrInvalidConfig)
	}
	if c.Resolver.MaxTextChars < 1 {
		return fmt.Errorf("%w: resolver.max_text_chars must be positive", ErrInvalidConfig)
	}
	if len(c.Resolver.LinkFields) == 0 {
		return fmt.Errorf("%w: resolver.link_fields cannot be empty", ErrInvalidConfig)
	}

	switch c.Logging.Level {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: logging.level %q is not one of trace, debug, info, warn, error", ErrInvalidConfig, c.Logging.Level)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("%w: logging.format must be 'json' or 'console', got %q", ErrInvalidConfig, c.Logging.Format)
	}

	return nil
}
