package app

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger создаёт логгер: production JSON для ENV=production, иначе цветной консольный.
// level переопределяет уровень по умолчанию ("debug", "info", ...), пустой - без изменений.
func NewLogger(env, level string) *zap.Logger {
	var config zap.Config

	if env == "production" {
		config = zap.NewProductionConfig()
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	if level != "" {
		if lvl, err := zap.ParseAtomicLevel(level); err == nil {
			config.Level = lvl
		}
	}

	config.OutputPaths = []string{"stdout"}
	config.InitialFields = map[string]any{"service": "advisor-scheduler"}

	logger, err := config.Build()
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}

	return logger
}
