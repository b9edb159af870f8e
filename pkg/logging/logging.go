// Package logging builds the zap loggers handed to the manager and the CLI.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Config selects the logger flavour.
type Config struct {
	// Level is a zap level name such as "debug" or "warn". Empty means info.
	Level string `yaml:"level"`
	// Debug switches to the human-readable development encoder on stdout.
	Debug bool `yaml:"debug"`
}

// New builds a sugared logger for cfg.
func New(cfg Config) (*zap.SugaredLogger, error) {
	var zc zap.Config
	if cfg.Debug {
		zc = zap.NewDevelopmentConfig()
		zc.OutputPaths = []string{"stdout"}
	} else {
		zc = zap.NewProductionConfig()
	}
	if level := strings.TrimSpace(cfg.Level); level != "" {
		lvl, err := zap.ParseAtomicLevel(level)
		if err != nil {
			return nil, fmt.Errorf("logging: %w", err)
		}
		zc.Level = lvl
	}
	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("logging: build logger: %w", err)
	}
	return logger.Sugar(), nil
}

// Nop is the logger used when none is configured.
func Nop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
