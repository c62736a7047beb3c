// Package logging holds the root zap logger and carries named loggers through contexts.
package logging

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type loggerKeyType string

const loggerKey = loggerKeyType("logger")

var rootLogger atomic.Pointer[zap.Logger]

func init() {
	rootLogger.Store(zap.NewNop())
}

// New builds a console logger at debug level when verbose is set, and a JSON logger at info level
// otherwise.
func New(verbose bool) (*zap.Logger, error) {
	if verbose {
		cfg := zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return cfg.Build()
	}
	return zap.NewProduction()
}

// SetRoot replaces the root logger. A nil logger silences logging.
func SetRoot(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	rootLogger.Store(l)
}

// Root returns the root logger. It is a no-op logger until SetRoot is called.
func Root() *zap.Logger {
	return rootLogger.Load()
}

// From returns the logger of the current context, if no logger is available, returns the root logger
func From(ctx context.Context) *zap.Logger {
	if ctx == nil {
		return Root()
	}
	l, ok := ctx.Value(loggerKey).(*zap.Logger)
	if !ok {
		return Root()
	}
	return l
}

func SubFrom(ctx context.Context, name string) (*zap.Logger, context.Context) {
	logger := From(ctx).Named(name)
	return logger, Context(ctx, logger)
}

func Context(ctx context.Context, logger *zap.Logger) context.Context {
	if logger == nil {
		logger = Root()
	}
	return context.WithValue(ctx, loggerKey, logger)
}

func FromWithFields(ctx context.Context, fields ...zapcore.Field) (*zap.Logger, context.Context) {
	logger := From(ctx).With(fields...)
	return logger, Context(ctx, logger)
}
