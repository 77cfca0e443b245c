// Package logging builds the zap loggers used by the entry points.
package logging

import (
	"fmt"

	"go.uber.org/zap"
)

// New creates a named zap production logger at level ("debug", "info",
// "warn", "error").
func New(name, level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = lvl
	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return logger.Named(name), nil
}
