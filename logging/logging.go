// Package logging builds the structured logger shared by the server, the
// services and the request logging middleware.
package logging

import (
	"strings"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a logr.Logger backed by zap. Production loggers encode JSON,
// everything else uses the console encoder.
func New(level string, production bool) (logr.Logger, error) {
	var cfg zap.Config
	if production {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(ParseLevel(level))

	zapLog, err := cfg.Build()
	if err != nil {
		return logr.Discard(), err
	}
	return zapr.NewLogger(zapLog), nil
}

// ParseLevel maps LOG_LEVEL values to zap levels. Unknown values mean info.
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error", "silent":
		return zapcore.ErrorLevel
	}
	return zapcore.InfoLevel
}

var logger = logr.Discard()

// SetLogger replaces the process-wide logger
func SetLogger(l logr.Logger) {
	logger = l
}

// GetLogger returns the process-wide logger. It discards output until
// SetLogger is called.
func GetLogger() logr.Logger {
	return logger
}
