// Package logging builds the zap loggers used across grabsim.
package logging

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var ErrUnknownLevel = errors.New("logging: unknown level")

// ParseLevel accepts debug, info, warn, error and off.
func ParseLevel(s string) (zapcore.Level, bool, error) {
	switch strings.ToLower(s) {
	case "debug":
		return zap.DebugLevel, true, nil
	case "", "info":
		return zap.InfoLevel, true, nil
	case "warn", "warning":
		return zap.WarnLevel, true, nil
	case "error":
		return zap.ErrorLevel, true, nil
	case "off", "none":
		return zap.InfoLevel, false, nil
	}
	return zap.InfoLevel, false, fmt.Errorf("%w: %q", ErrUnknownLevel, s)
}

// New returns a logger writing to stderr at level. With json set the
// output is machine readable; otherwise it is the console encoding. Level
// "off" returns a no-op logger.
func New(level string, json bool) (*zap.Logger, error) {
	lvl, enabled, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	if !enabled {
		return zap.NewNop(), nil
	}

	encoding := "console"
	encoder := zap.NewDevelopmentEncoderConfig()
	if json {
		encoding = "json"
		encoder = zap.NewProductionEncoderConfig()
	}
	encoder.EncodeTime = zapcore.ISO8601TimeEncoder

	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(lvl),
		Encoding:         encoding,
		EncoderConfig:    encoder,
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
		DisableCaller:    true,
	}
	return cfg.Build()
}
