package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	// Act
	cfg, err := LoadConfig()

	// Assert
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.ServerAddress)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "memory", cfg.Persistence)
	assert.Equal(t, "local", cfg.EventPublisher)
	assert.Equal(t, "local", cfg.Embedding.Backend)
	assert.Equal(t, 5, cfg.Engine.MaxDepth)
	assert.Equal(t, 500, cfg.Engine.MaxTotalNewCap)
	assert.Equal(t, 1.5, cfg.Engine.DefaultFanoutFactor)
	assert.Equal(t, 24*time.Hour, cfg.Engine.JobTTL)
	assert.Equal(t, 0.75, cfg.Memory.WarningThreshold)
	assert.Equal(t, 0.9, cfg.Memory.CriticalThreshold)
	assert.Equal(t, 10000, cfg.Embedding.CacheMaxEntries)
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	t.Setenv("ENGINE_MAX_DEPTH", "3")
	t.Setenv("ENGINE_DEFAULT_FANOUT", "2.0")
	t.Setenv("ENGINE_JOB_TTL", "1h")
	t.Setenv("EMBEDDING_CACHE_MAX_ENTRIES", "250")
	t.Setenv("ENABLE_METRICS", "false")

	cfg, err := LoadConfig()

	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Engine.MaxDepth)
	assert.Equal(t, 2.0, cfg.Engine.DefaultFanoutFactor)
	assert.Equal(t, time.Hour, cfg.Engine.JobTTL)
	assert.Equal(t, 250, cfg.Embedding.CacheMaxEntries)
	assert.False(t, cfg.EnableMetrics)
}

func TestLoadConfig_InvalidValuesFallBackToDefaults(t *testing.T) {
	t.Setenv("ENGINE_MAX_DEPTH", "not-a-number")
	t.Setenv("MEMORY_WARNING_THRESHOLD", "also-bad")

	cfg, err := LoadConfig()

	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Engine.MaxDepth)
	assert.Equal(t, 0.75, cfg.Memory.WarningThreshold)
}

func TestValidate_RejectsIncoherentThresholds(t *testing.T) {
	t.Setenv("MEMORY_WARNING_THRESHOLD", "0.9")
	t.Setenv("MEMORY_CRITICAL_THRESHOLD", "0.8")

	_, err := LoadConfig()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "MEMORY_CRITICAL_THRESHOLD")
}

func TestValidate_UnknownPersistenceBackend(t *testing.T) {
	t.Setenv("PERSISTENCE", "postgres")

	_, err := LoadConfig()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "PERSISTENCE")
}

func TestValidate_OpenAIBackendRequiresKey(t *testing.T) {
	t.Setenv("EMBEDDING_BACKEND", "openai")
	t.Setenv("OPENAI_API_KEY", "")

	_, err := LoadConfig()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")
}

func TestValidate_EventBridgeRequiresBusName(t *testing.T) {
	t.Setenv("EVENT_PUBLISHER", "eventbridge")
	t.Setenv("EVENT_BUS_NAME", "")

	// EVENT_BUS_NAME falls back to its default when blank, so blank the
	// default path by pointing at an empty value explicitly
	cfg, err := LoadConfig()
	require.NoError(t, err)
	cfg.EventBusName = ""

	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "EVENT_BUS_NAME")
}
