package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	errorBand = zap.LevelEnablerFunc(func(l zapcore.Level) bool { return l >= zapcore.ErrorLevel })
	quietBand = zap.LevelEnablerFunc(func(l zapcore.Level) bool { return l < zapcore.ErrorLevel })
)

// newSampledCore thins repeated entries below error level, such as one
// warning per unreadable document in a large corpus. Errors always pass.
func newSampledCore(core zapcore.Core, cfg SamplingConfig) zapcore.Core {
	if !cfg.Enabled {
		return core
	}
	sampled := zapcore.NewSamplerWithOptions(
		bandCore{Core: core, band: quietBand},
		cfg.Tick.Duration(),
		cfg.Initial,
		cfg.Thereafter,
	)
	return zapcore.NewTee(bandCore{Core: core, band: errorBand}, sampled)
}

// bandCore forwards only the levels its band enables.
type bandCore struct {
	zapcore.Core
	band zapcore.LevelEnabler
}

func (c bandCore) Enabled(l zapcore.Level) bool {
	return c.band.Enabled(l) && c.Core.Enabled(l)
}

func (c bandCore) Check(e zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if !c.band.Enabled(e.Level) {
		return ce
	}
	return c.Core.Check(e, ce)
}

func (c bandCore) With(fields []zapcore.Field) zapcore.Core {
	return bandCore{Core: c.Core.With(fields), band: c.band}
}
