// Package config loads application configuration from environment
// variables with sensible development defaults.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// EngineConfig holds limits for expansion jobs
type EngineConfig struct {
	// MaxDepth is the largest depth a single request may ask for
	MaxDepth int
	// MaxTotalNewCap bounds the per-job node budget
	MaxTotalNewCap int
	// DefaultFanoutFactor is used when a request omits the fanout factor
	DefaultFanoutFactor float64
	// DefaultProviderID names the provider used when a request omits one
	DefaultProviderID string
	// JobTTL is how long finished job records are kept
	JobTTL time.Duration
}

// MemoryConfig holds memory governor thresholds
type MemoryConfig struct {
	// WarningThreshold is the usage ratio that triggers a GC hint
	WarningThreshold float64
	// CriticalThreshold is the usage ratio that triggers component cleanup
	CriticalThreshold float64
	// LimitBytes caps the heap the governor measures against; 0 uses the
	// runtime's reported total
	LimitBytes uint64
	// CheckInterval paces the background pressure check
	CheckInterval time.Duration
}

// EmbeddingConfig holds embedding backend and cache settings
type EmbeddingConfig struct {
	// Backend selects the embedding source: "local" or "openai"
	Backend string
	// CacheMaxEntries bounds the embedding cache
	CacheMaxEntries int
	// OpenAIModel names the embedding model when Backend is "openai"
	OpenAIModel string
	// Dimension is the embedding vector dimension
	Dimension int
}

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string
	Environment   string

	// AWS configuration
	AWSRegion     string
	DynamoDBTable string
	EventBusName  string

	// Persistence selects the storage backend: "memory" or "dynamodb"
	Persistence string

	// EventPublisher selects the event sink: "local" or "eventbridge"
	EventPublisher string

	// OpenAI configuration
	OpenAIAPIKey    string
	OpenAIChatModel string

	// Logging
	LogLevel string

	// Feature flags
	EnableMetrics bool
	EnableCORS    bool

	Engine    EngineConfig
	Memory    MemoryConfig
	Embedding EmbeddingConfig
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServerAddress: getEnv("SERVER_ADDRESS", ":8080"),
		Environment:   getEnv("ENVIRONMENT", "development"),
		AWSRegion:     getEnv("AWS_REGION", "us-west-2"),
		DynamoDBTable: getEnv("DYNAMODB_TABLE", "mindweave-graphs"),
		EventBusName:  getEnv("EVENT_BUS_NAME", "mindweave-events"),

		Persistence:    getEnv("PERSISTENCE", "memory"),
		EventPublisher: getEnv("EVENT_PUBLISHER", "local"),

		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		OpenAIChatModel: getEnv("OPENAI_CHAT_MODEL", ""),

		LogLevel:      getEnv("LOG_LEVEL", "info"),
		EnableMetrics: getEnvBool("ENABLE_METRICS", true),
		EnableCORS:    getEnvBool("ENABLE_CORS", true),

		Engine: EngineConfig{
			MaxDepth:            getEnvInt("ENGINE_MAX_DEPTH", 5),
			MaxTotalNewCap:      getEnvInt("ENGINE_MAX_TOTAL_NEW", 500),
			DefaultFanoutFactor: getEnvFloat("ENGINE_DEFAULT_FANOUT", 1.5),
			DefaultProviderID:   getEnv("ENGINE_DEFAULT_PROVIDER", "mock"),
			JobTTL:              getEnvDuration("ENGINE_JOB_TTL", 24*time.Hour),
		},

		Memory: MemoryConfig{
			WarningThreshold:  getEnvFloat("MEMORY_WARNING_THRESHOLD", 0.75),
			CriticalThreshold: getEnvFloat("MEMORY_CRITICAL_THRESHOLD", 0.9),
			LimitBytes:        uint64(getEnvInt("MEMORY_LIMIT_BYTES", 0)),
			CheckInterval:     getEnvDuration("MEMORY_CHECK_INTERVAL", 30*time.Second),
		},

		Embedding: EmbeddingConfig{
			Backend:         getEnv("EMBEDDING_BACKEND", "local"),
			CacheMaxEntries: getEnvInt("EMBEDDING_CACHE_MAX_ENTRIES", 10000),
			OpenAIModel:     getEnv("EMBEDDING_OPENAI_MODEL", "text-embedding-3-small"),
			Dimension:       getEnvInt("EMBEDDING_DIMENSION", 256),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Load is an alias for LoadConfig
func Load() (*Config, error) {
	return LoadConfig()
}

// Validate checks if all required configuration is present and coherent
func (c *Config) Validate() error {
	if c.Engine.MaxDepth < 1 {
		return fmt.Errorf("ENGINE_MAX_DEPTH must be at least 1")
	}
	if c.Engine.MaxTotalNewCap < 1 {
		return fmt.Errorf("ENGINE_MAX_TOTAL_NEW must be at least 1")
	}
	if c.Memory.WarningThreshold <= 0 || c.Memory.WarningThreshold >= 1 {
		return fmt.Errorf("MEMORY_WARNING_THRESHOLD must be between 0 and 1")
	}
	if c.Memory.CriticalThreshold <= c.Memory.WarningThreshold || c.Memory.CriticalThreshold > 1 {
		return fmt.Errorf("MEMORY_CRITICAL_THRESHOLD must be above the warning threshold and at most 1")
	}
	if c.Embedding.CacheMaxEntries < 1 {
		return fmt.Errorf("EMBEDDING_CACHE_MAX_ENTRIES must be at least 1")
	}

	switch c.Persistence {
	case "memory", "dynamodb":
	default:
		return fmt.Errorf("PERSISTENCE must be \"memory\" or \"dynamodb\", got %q", c.Persistence)
	}
	if c.Persistence == "dynamodb" && c.DynamoDBTable == "" {
		return fmt.Errorf("DYNAMODB_TABLE is required when PERSISTENCE is dynamodb")
	}

	switch c.EventPublisher {
	case "local", "eventbridge":
	default:
		return fmt.Errorf("EVENT_PUBLISHER must be \"local\" or \"eventbridge\", got %q", c.EventPublisher)
	}
	if c.EventPublisher == "eventbridge" && c.EventBusName == "" {
		return fmt.Errorf("EVENT_BUS_NAME is required when EVENT_PUBLISHER is eventbridge")
	}

	switch c.Embedding.Backend {
	case "local", "openai":
	default:
		return fmt.Errorf("EMBEDDING_BACKEND must be \"local\" or \"openai\", got %q", c.Embedding.Backend)
	}
	if c.Embedding.Backend == "openai" && c.OpenAIAPIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required when EMBEDDING_BACKEND is openai")
	}

	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvFloat gets a float environment variable with a default value
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

// getEnvDuration gets a duration environment variable with a default value
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
