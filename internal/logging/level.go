// Package logging builds the process-wide *zap.Logger and maps the
// specification's seven log levels onto zap's level set.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level is the specification's seven-value log level.
type Level int

const (
	Trace Level = iota
	Debug
	Info
	Warn
	Err
	Critical
	Off
)

var names = map[string]Level{
	"trace":    Trace,
	"debug":    Debug,
	"info":     Info,
	"warn":     Warn,
	"err":      Err,
	"error":    Err,
	"critical": Critical,
	"off":      Off,
}

// ParseLevel parses one of the seven configured level names.
func ParseLevel(s string) (Level, error) {
	if l, ok := names[s]; ok {
		return l, nil
	}
	return 0, fmt.Errorf("logging: unknown level %q", s)
}

// traceLevel is a custom zap level below Debug, since zap has no native
// "trace" level — this is the one place the mapping isn't 1:1.
const traceLevel = zapcore.Level(-2)

// zapLevel maps a specification Level to the zapcore.Level the process
// logger's core should be configured at.
func zapLevel(l Level) zapcore.Level {
	switch l {
	case Trace:
		return traceLevel
	case Debug:
		return zapcore.DebugLevel
	case Info:
		return zapcore.InfoLevel
	case Warn:
		return zapcore.WarnLevel
	case Err:
		return zapcore.ErrorLevel
	case Critical:
		return zapcore.DPanicLevel
	default: // Off
		return zapcore.Level(99)
	}
}

// New builds the process-wide logger at the given level, human-readable
// console output in development style (matching the teacher's plain
// stderr diagnostics rather than forcing JSON on operators).
func New(level Level) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapLevel(level))
	cfg.Encoding = "console"
	cfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	return cfg.Build()
}
