package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, []string{".json", ".yaml", ".yml", ".toml"}, cfg.Corpus.Extensions)
	assert.Equal(t, BackendJSON, cfg.Store.Backend)
	assert.Equal(t, 1000, cfg.Store.QueryLogLimit)
	assert.Equal(t, 5*time.Second, cfg.Store.LockTimeout.Duration())
	assert.InDelta(t, 0.01, cfg.Ranking.MinScore, 1e-12)
	assert.Equal(t, 5, cfg.Ranking.DefaultLimit)
	assert.Equal(t, 20, cfg.Ranking.MaxLimit)
	assert.InDelta(t, 0.3, cfg.Ranking.PredictionBlend, 1e-12)
	assert.Equal(t, 5, cfg.Resolver.MaxDepth)
	assert.Equal(t, int64(102400), cfg.Resolver.MaxFileSize)
	assert.Equal(t, 5000, cfg.Resolver.MaxTextChars)
	assert.Equal(t, []string{"auto_load", "files_to_load", "suggested_files_to_load", "related_files"}, cfg.Resolver.LinkFields)
	assert.True(t, cfg.Resolver.RedactSecrets)
	assert.Equal(t, "info", cfg.Logging.Level)
	require.NoError(t, cfg.Validate())
}

func TestConfig_StorePaths(t *testing.T) {
	cfg := Default()
	cfg.Corpus.Root = "/data/templates"

	assert.Equal(t, filepath.Join("/data/templates", ".ctxkit"), cfg.StoreDir())
	assert.Equal(t, filepath.Join("/data/templates", ".ctxkit", "usage_stats.json"), cfg.UsagePath())
	assert.Equal(t, filepath.Join("/data/templates", ".ctxkit", "template_patterns.json"), cfg.PatternsPath())
	assert.Equal(t, filepath.Join("/data/templates", ".ctxkit", "ctxkit.db"), cfg.SQLitePath())

	cfg.Store.Dir = "/var/lib/ctxkit"
	cfg.Store.UsageFile = "/tmp/usage.json"
	assert.Equal(t, "/tmp/usage.json", cfg.UsagePath())
	assert.Equal(t, filepath.Join("/var/lib/ctxkit", "ctxkit.db"), cfg.SQLitePath())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"unknown backend", func(c *Config) { c.Store.Backend = "redis" }, "store.backend"},
		{"zero query log", func(c *Config) { c.Store.QueryLogLimit = 0 }, "query_log_limit"},
		{"extension without dot", func(c *Config) { c.Corpus.Extensions = []string{"json"} }, "must start with '.'"},
		{"negative min score", func(c *Config) { c.Ranking.MinScore = -1 }, "min_score"},
		{"max limit above cap", func(c *Config) { c.Ranking.MaxLimit = MaxResultLimit + 1 }, "max_limit"},
		{"zero max limit", func(c *Config) { c.Ranking.MaxLimit = 0 }, "max_limit"},
		{"default above max", func(c *Config) { c.Ranking.DefaultLimit = 30 }, "default_limit"},
		{"blend above one", func(c *Config) { c.Ranking.PredictionBlend = 1.5 }, "prediction_blend"},
		{"zero depth", func(c *Config) { c.Resolver.MaxDepth = 0 }, "max_depth"},
		{"zero file size", func(c *Config) { c.Resolver.MaxFileSize = 0 }, "max_file_size"},
		{"zero text chars", func(c *Config) { c.Resolver.MaxTextChars = 0 }, "max_text_chars"},
		{"no link fields", func(c *Config) { c.Resolver.LinkFields = nil }, "link_fields"},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDuration_UnmarshalText(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("250ms")))
	assert.Equal(t, 250*time.Millisecond, d.Duration())

	assert.Error(t, d.UnmarshalText([]byte("-1s")))
	assert.Error(t, d.UnmarshalText([]byte("soon")))

	out, err := d.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `"250ms"`, string(out))
}
