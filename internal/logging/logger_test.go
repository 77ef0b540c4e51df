package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLogger(t *testing.T) {
	cfg := NewDefaultConfig()

	logger, err := NewLogger(cfg)
	require.NoError(t, err)
	require.NotNil(t, logger)

	assert.NotNil(t, logger.zap)
	assert.Equal(t, cfg, logger.config)
}

func TestNewLogger_InvalidConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Format = "xml"

	_, err := NewLogger(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestNewLogger_WritesJSONWithContextFields(t *testing.T) {
	var buf bytes.Buffer
	cfg := NewDefaultConfig()
	cfg.Format = "json"

	logger, err := newLogger(cfg, zapcore.AddSync(&buf))
	require.NoError(t, err)

	ctx := WithRunID(context.Background(), "run-1")
	ctx = WithCommand(ctx, "recommend")
	logger.Info(ctx, "ranking complete", zap.Int("results", 3))
	require.NoError(t, logger.Sync())

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "ranking complete", entry["msg"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "run-1", entry["run.id"])
	assert.Equal(t, "recommend", entry["command"])
	assert.Equal(t, "ctxkit", entry["service"])
	assert.EqualValues(t, 3, entry["results"])
}

func TestNewLogger_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "ctxkit.log")
	cfg := NewDefaultConfig()
	cfg.Output.Stderr = false
	cfg.Output.File = path

	logger, err := NewLogger(cfg)
	require.NoError(t, err)

	logger.Warn(context.Background(), "document skipped", zap.String("path", "a.json"))
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"document skipped"`)
	assert.Contains(t, string(data), `"path":"a.json"`)
}

func TestNewLogger_RedactsSensitiveFields(t *testing.T) {
	var buf bytes.Buffer
	cfg := NewDefaultConfig()
	cfg.Format = "json"

	logger, err := newLogger(cfg, zapcore.AddSync(&buf))
	require.NoError(t, err)

	logger.Info(context.Background(), "loaded",
		zap.String("token", "abc123"),
		zap.String("header", "Bearer xyz"),
		zap.String("path", "docs/a.json"),
	)

	out := buf.String()
	assert.NotContains(t, out, "abc123")
	assert.NotContains(t, out, "Bearer xyz")
	assert.Contains(t, out, "docs/a.json")
}

func TestLogger_ContextAwareMethods(t *testing.T) {
	core, observed := observer.New(TraceLevel)
	logger := &Logger{
		zap:    zap.New(core),
		config: NewDefaultConfig(),
	}

	ctx := WithRunID(context.Background(), "run-7")

	tests := []struct {
		name    string
		logFunc func()
		level   zapcore.Level
		message string
	}{
		{"trace", func() { logger.Trace(ctx, "trace message") }, TraceLevel, "trace message"},
		{"debug", func() { logger.Debug(ctx, "debug message") }, zapcore.DebugLevel, "debug message"},
		{"info", func() { logger.Info(ctx, "info message") }, zapcore.InfoLevel, "info message"},
		{"warn", func() { logger.Warn(ctx, "warn message") }, zapcore.WarnLevel, "warn message"},
		{"error", func() { logger.Error(ctx, "error message") }, zapcore.ErrorLevel, "error message"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			observed.TakeAll()
			tt.logFunc()

			logs := observed.All()
			require.Len(t, logs, 1)
			assert.Equal(t, tt.level, logs[0].Level)
			assert.Equal(t, tt.message, logs[0].Message)
			assert.Equal(t, "run-7", logs[0].ContextMap()["run.id"])
		})
	}
}

func TestLogger_TraceSkippedWhenDisabled(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	logger := &Logger{zap: zap.New(core), config: NewDefaultConfig()}

	logger.Trace(context.Background(), "noisy")
	assert.Zero(t, observed.Len())
	assert.False(t, logger.Enabled(TraceLevel))
}

func TestLogger_WithAndNamed(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	logger := &Logger{zap: zap.New(core), config: NewDefaultConfig()}

	child := logger.Named("ranker").With(zap.String("component", "tfidf"))
	child.Info(context.Background(), "scored")

	logs := observed.All()
	require.Len(t, logs, 1)
	assert.Equal(t, "ranker", logs[0].LoggerName)
	assert.Equal(t, "tfidf", logs[0].ContextMap()["component"])
}

func TestEncodeLevel_Trace(t *testing.T) {
	var buf bytes.Buffer
	cfg := NewDefaultConfig()
	cfg.Format = "json"
	cfg.Level = TraceLevel

	logger, err := newLogger(cfg, zapcore.AddSync(&buf))
	require.NoError(t, err)

	logger.Trace(context.Background(), "step")
	assert.True(t, strings.Contains(buf.String(), `"level":"trace"`), buf.String())
}

func TestNewNop(t *testing.T) {
	logger := NewNop()
	logger.Error(context.Background(), "discarded")
	assert.NoError(t, logger.Sync())
}
