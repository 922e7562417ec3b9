package main

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/inu-notice/notice-server/auth"
)

// zapLogger adapts a zap sugared logger to the auth.Logger interface the
// core packages consume.
type zapLogger struct {
	sugar *zap.SugaredLogger
}

func newLogger(debug bool) (*zapLogger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if debug {
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	log, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, err
	}
	return &zapLogger{sugar: log.Sugar()}, nil
}

func (l *zapLogger) Debug(msg string, args ...any) { l.sugar.Debugw(msg, args...) }
func (l *zapLogger) Info(msg string, args ...any)  { l.sugar.Infow(msg, args...) }
func (l *zapLogger) Warn(msg string, args ...any)  { l.sugar.Warnw(msg, args...) }
func (l *zapLogger) Error(msg string, args ...any) { l.sugar.Errorw(msg, args...) }

func (l *zapLogger) Sync() { _ = l.sugar.Sync() }

var _ auth.Logger = (*zapLogger)(nil)
