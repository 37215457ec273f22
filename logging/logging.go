// Package logging builds the zap loggers injected into every core
// component, following the teacher repo's own zap.NewProduction() /
// zap.NewDevelopment() conventions (see etcdctl/ctlv3/command/global.go).
package logging

import (
	"gopkg.in/natefinch/lumberjack.v2"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a production-configured logger, matching the teacher's
// default CLI logger.
func New() (*zap.Logger, error) {
	return zap.NewProduction()
}

// NewDevelopment returns a development-configured logger with a friendlier
// console encoder, for the CLI's --debug mode.
func NewDevelopment() (*zap.Logger, error) {
	return zap.NewDevelopment()
}

// FileConfig configures a rotating file sink. This module does not define a
// deployment-time logging *configuration format* (that remains out of
// scope, per SPEC_FULL.md §1) but does expose this one sink choice, the way
// the teacher's own dependency on lumberjack implies.
type FileConfig struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// NewFileLogger builds a zap logger that writes JSON-encoded entries to a
// lumberjack-rotated file.
func NewFileLogger(cfg FileConfig) *zap.Logger {
	sink := zapcore.AddSync(&lumberjack.Logger{
		Filename:   cfg.Path,
		MaxSize:    orDefault(cfg.MaxSizeMB, 100),
		MaxBackups: orDefault(cfg.MaxBackups, 3),
		MaxAge:     orDefault(cfg.MaxAgeDays, 28),
		Compress:   cfg.Compress,
	})

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), sink, zap.InfoLevel)
	return zap.New(core)
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
