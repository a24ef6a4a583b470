// Package logging configures the structured logger shared across
// genomewarp's CLI and pipeline driver. The teacher's go.mod declared
// go.uber.org/zap but never imported it; this is where that dependency
// is actually exercised.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a *zap.SugaredLogger. verbose selects development-style
// console output at debug level; the default is production-style JSON
// at info level, matching a CLI tool that writes logs to a file or pipes
// them to a collector in normal operation.
func New(verbose bool) (*zap.SugaredLogger, error) {
	var cfg zap.Config
	if verbose {
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	} else {
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}

// Nop returns a logger that discards everything, for tests.
func Nop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
