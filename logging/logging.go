// Package logging contains the structured logging used by planning scenes and their tools.
package logging

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

// Logger is the logging interface handed to every scene. It is a diagnostic side channel only.
type Logger interface {
	Debug(args ...interface{})
	Debugf(template string, args ...interface{})
	Debugw(msg string, keysAndValues ...interface{})
	Info(args ...interface{})
	Infof(template string, args ...interface{})
	Infow(msg string, keysAndValues ...interface{})
	Warn(args ...interface{})
	Warnf(template string, args ...interface{})
	Warnw(msg string, keysAndValues ...interface{})
	Error(args ...interface{})
	Errorf(template string, args ...interface{})
	Errorw(msg string, keysAndValues ...interface{})

	// Sublogger returns a logger whose name is this logger's name with subname appended.
	Sublogger(subname string) Logger
	// Name returns the dotted name of this logger.
	Name() string
	AsZap() *zap.SugaredLogger
}

type impl struct {
	name string
	*zap.SugaredLogger
}

// NewLoggerConfig returns a new default logger config.
func NewLoggerConfig() zap.Config {
	// from https://github.com/uber-go/zap/blob/2314926ec34c23ee21f3dd4399438469668f8097/config.go#L135
	// but disable stacktraces, use same keys as prod, and color levels.
	return zap.Config{
		Level:    zap.NewAtomicLevelAt(zap.InfoLevel),
		Encoding: "console",
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "ts",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller",
			FunctionKey:    zapcore.OmitKey,
			MessageKey:     "msg",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.CapitalColorLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		},
		DisableStacktrace: true,
		OutputPaths:       []string{"stderr"},
		ErrorOutputPaths:  []string{"stderr"},
	}
}

// NewLogger returns a new logger that outputs Info+ logs to stderr.
func NewLogger(name string) Logger {
	return fromConfig(name, NewLoggerConfig())
}

// NewDebugLogger returns a new logger that outputs Debug+ logs to stderr.
func NewDebugLogger(name string) Logger {
	cfg := NewLoggerConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	return fromConfig(name, cfg)
}

// NewBlankLogger returns a logger that discards everything.
func NewBlankLogger(name string) Logger {
	return &impl{name, zap.NewNop().Sugar().Named(name)}
}

// FromZapCompatible wraps an existing zap logger.
func FromZapCompatible(name string, logger *zap.SugaredLogger) Logger {
	return &impl{name, logger.Named(name)}
}

func fromConfig(name string, cfg zap.Config) Logger {
	return &impl{name, zap.Must(cfg.Build()).Sugar().Named(name)}
}

// NewTestLogger returns a new logger that outputs Debug+ logs through the test's Log method.
func NewTestLogger(tb testing.TB) Logger {
	logger, _ := NewObservedTestLogger(tb)
	return logger
}

// NewObservedTestLogger is like NewTestLogger but also saves logs to an in memory observer.
func NewObservedTestLogger(tb testing.TB) (Logger, *observer.ObservedLogs) {
	observerCore, observedLogs := observer.New(zap.LevelEnablerFunc(zapcore.DebugLevel.Enabled))
	base := zaptest.NewLogger(tb, zaptest.Level(zap.DebugLevel), zaptest.WrapOptions(
		zap.WrapCore(func(c zapcore.Core) zapcore.Core {
			return zapcore.NewTee(c, observerCore)
		}),
	))
	return &impl{"", base.Sugar()}, observedLogs
}

func (imp *impl) Sublogger(subname string) Logger {
	newName := subname
	if imp.name != "" {
		newName = imp.name + "." + subname
	}
	return &impl{newName, imp.SugaredLogger.Named(subname)}
}

func (imp *impl) Name() string {
	return imp.name
}

func (imp *impl) AsZap() *zap.SugaredLogger {
	return imp.SugaredLogger
}
