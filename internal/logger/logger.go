// Package logger holds the process-wide zap logger.
package logger

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	once  sync.Once       //nolint:gochecknoglobals // singleton logger
	log   *zap.Logger     //nolint:gochecknoglobals // singleton logger
	level zap.AtomicLevel //nolint:gochecknoglobals // singleton logger
)

func build() {
	level = zap.NewAtomicLevelAt(zap.InfoLevel)

	encoderCfg := zap.NewDevelopmentEncoderConfig()
	encoderCfg.TimeKey = "timestamp"
	encoderCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
	encoderCfg.CallerKey = ""
	encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderCfg),
		zapcore.AddSync(os.Stderr),
		level,
	)
	log = zap.New(core)
}

// Get returns the shared logger, building it on first use.
func Get() *zap.Logger {
	once.Do(build)
	return log
}

// SetLevel changes the minimum logged level at runtime.
func SetLevel(l zapcore.Level) {
	once.Do(build)
	level.SetLevel(l)
}
