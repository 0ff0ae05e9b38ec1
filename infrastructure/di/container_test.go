package di

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"mindweave-backend/infrastructure/config"
)

func TestNewLogger_AppliesConfiguredLevel(t *testing.T) {
	cfg := &config.Config{Environment: "development", LogLevel: "warn"}

	logger, err := newLogger(cfg)

	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))
}

func TestNewLogger_RejectsUnknownLevel(t *testing.T) {
	cfg := &config.Config{Environment: "development", LogLevel: "shouting"}

	_, err := newLogger(cfg)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "log level")
}
