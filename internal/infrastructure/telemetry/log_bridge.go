package telemetry

import (
	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// BridgeLogger tees base with a core that forwards records at or above level
// to the OTLP log exporter. base is returned unchanged when logs are not exported.
func (p *Providers) BridgeLogger(base *zap.Logger, serviceName string, level zapcore.Level) *zap.Logger {
	if p == nil || p.logs == nil {
		return base
	}
	otelCore := minLevelCore{
		Core: otelzap.NewCore(serviceName, otelzap.WithLoggerProvider(p.logs)),
		min:  level,
	}
	return base.WithOptions(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
		return zapcore.NewTee(c, otelCore)
	}))
}

// minLevelCore drops entries below min; otelzap forwards every level.
type minLevelCore struct {
	zapcore.Core
	min zapcore.Level
}

func (c minLevelCore) Enabled(lvl zapcore.Level) bool {
	return lvl >= c.min && c.Core.Enabled(lvl)
}

func (c minLevelCore) Check(entry zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if entry.Level < c.min {
		return ce
	}
	return c.Core.Check(entry, ce)
}

func (c minLevelCore) With(fields []zapcore.Field) zapcore.Core {
	return minLevelCore{Core: c.Core.With(fields), min: c.min}
}
