package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New cria o logger da aplicação.
//
// format "console" usa a saída legível de desenvolvimento; qualquer outro valor, JSON.
func New(level, format string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	var cfg zap.Config
	if strings.EqualFold(format, "console") {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger.Named("graos"), nil
}

// Must igual a New, com fallback para um logger de produção padrão
func Must(level, format string) *zap.Logger {
	logger, err := New(level, format)
	if err == nil {
		return logger
	}
	fallback, ferr := zap.NewProduction()
	if ferr != nil {
		return zap.NewNop()
	}
	fallback.Warn("invalid log configuration, using defaults", zap.Error(err))
	return fallback
}
