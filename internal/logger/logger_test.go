package logger_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"

	"codeport-cli/internal/logger"
)

func TestGet_Singleton(t *testing.T) {
	t.Parallel()

	log := logger.Get()
	assert.NotNil(t, log)
	assert.Equal(t, log, logger.Get())

	log.Debug("debug message")
	log.Info("info message")
	log.Warn("warning message")
}

func TestSetLevel(t *testing.T) {
	t.Parallel()

	logger.SetLevel(zapcore.DebugLevel)
	log := logger.Get()
	assert.NotNil(t, log)
	assert.True(t, log.Core().Enabled(zapcore.DebugLevel))

	logger.SetLevel(zapcore.InfoLevel)
	assert.False(t, log.Core().Enabled(zapcore.DebugLevel))
}
