package logger

import (
	"fmt"

	"github.com/straye-as/renewal-api/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger creates a new structured logger
func NewLogger(cfg *config.LoggingConfig, appCfg *config.AppConfig) (*zap.Logger, error) {
	var zapCfg zap.Config

	if cfg.Format == "json" || appCfg.Environment == "production" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	zapCfg.InitialFields = map[string]interface{}{
		"app":         appCfg.Name,
		"environment": appCfg.Environment,
	}

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return logger, nil
}

// WithJob scopes a logger to a background job run
func WithJob(logger *zap.Logger, jobName string) *zap.Logger {
	return logger.With(zap.String("job_name", jobName))
}

// WithProject adds project/complex context, used by the importer and reports
func WithProject(logger *zap.Logger, projectName, complexName string) *zap.Logger {
	fields := []zap.Field{zap.String("project", projectName)}
	if complexName != "" {
		fields = append(fields, zap.String("complex", complexName))
	}
	return logger.With(fields...)
}

// WithUser adds user context to logger
func WithUser(logger *zap.Logger, userID uint, username, role string) *zap.Logger {
	return logger.With(
		zap.Uint("user_id", userID),
		zap.String("username", username),
		zap.String("role", role),
	)
}
