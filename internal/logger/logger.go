package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config controls diagnostics logging. Pipeline banners are not logging and
// never route through here; this logger carries debug/troubleshooting
// output only.
type Config struct {
	Debug  bool   // enable debug level
	Format string // "json" or "human"
}

// New builds a sugared logger from the configuration.
func New(cfg Config) (*zap.SugaredLogger, error) {
	var zapConfig zap.Config

	if cfg.Format == "json" {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
		zapConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	// Keep stdout for pipeline output; diagnostics go to stderr.
	zapConfig.OutputPaths = []string{"stderr"}

	if cfg.Debug {
		zapConfig.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}

	log, err := zapConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return log.Sugar(), nil
}

// Nop returns a logger that discards everything; the default for library
// callers that configure nothing.
func Nop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
