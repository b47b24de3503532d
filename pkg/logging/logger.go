package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the process-wide structured logger. It starts as a no-op so
// packages can log before InitLogger runs (tests, CLI subcommands).
var Logger = zap.NewNop()

// InitLogger initializes the structured logger
func InitLogger(level string, format string) error {
	var config zap.Config

	if format == "json" {
		config = zap.NewProductionConfig()
	} else {
		config = zap.NewDevelopmentConfig()
	}

	config.Level = zap.NewAtomicLevelAt(parseLevel(level))

	// Disable caller and stack trace for cleaner logs
	config.DisableCaller = true
	config.DisableStacktrace = true

	logger, err := config.Build()
	if err != nil {
		return err
	}
	Logger = logger

	return nil
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// LogUpstream logs the outcome of a single outbound call
func LogUpstream(source, target, outcome string, fields ...zap.Field) {
	Logger.Info("upstream",
		append([]zap.Field{
			zap.String("source", source),
			zap.String("target", target),
			zap.String("outcome", outcome),
		}, fields...)...,
	)
}
