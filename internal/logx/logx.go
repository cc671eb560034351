// Package logx wires the zap sugared logger and its context
// propagation used across services.
package logx

import (
	"context"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	InfoLevel  = "info"
	DebugLevel = "debug"
	ErrorLevel = "error"
)

// New builds the service logger. Level comes from LOG_LEVEL, output is
// stdout, timestamps RFC3339.
func New(service string) *zap.SugaredLogger {
	level, _ := os.LookupEnv("LOG_LEVEL")
	config := configFor(level)
	config.EncoderConfig.EncodeTime = zapcore.RFC3339TimeEncoder
	config.OutputPaths = []string{"stdout"}
	logger, err := config.Build()
	if err != nil {
		panic(err)
	}
	return logger.Named(service).Sugar()
}

func configFor(level string) zap.Config {
	cfg := zap.NewProductionConfig()
	switch level {
	case DebugLevel:
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case ErrorLevel:
		cfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return cfg
}

type loggerKey struct{}

// WithLogger returns a copy of ctx carrying the supplied logger.
func WithLogger(ctx context.Context, logger *zap.SugaredLogger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext returns the request logger, falling back to a nop logger
// so library code never nil-checks.
func FromContext(ctx context.Context) *zap.SugaredLogger {
	if logger, ok := ctx.Value(loggerKey{}).(*zap.SugaredLogger); ok {
		return logger
	}
	return zap.NewNop().Sugar()
}
