package config

import (
    "go.uber.org/zap"
    "go.uber.org/zap/zapcore"
)

// NewLogger builds the process logger: JSON at info level in production,
// colored console output at debug level otherwise.
func NewLogger(cfg Config) (*zap.Logger, error) {
    var zc zap.Config
    if cfg.IsProduction() {
        zc = zap.NewProductionConfig()
        zc.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
    } else {
        zc = zap.NewDevelopmentConfig()
        zc.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
        zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
    }
    return zc.Build(zap.Fields(zap.String("env", cfg.Env)))
}
