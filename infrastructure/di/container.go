// Package di assembles the application's dependency graph from
// configuration.
package di

import (
	"context"
	"fmt"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	appevents "mindweave-backend/application/events"
	"mindweave-backend/application/ports"
	"mindweave-backend/infrastructure/config"
	dynamostore "mindweave-backend/infrastructure/persistence/dynamodb"
	memstore "mindweave-backend/infrastructure/persistence/memory"
	ebpublisher "mindweave-backend/infrastructure/messaging/eventbridge"
	"mindweave-backend/internal/service/embedding"
	"mindweave-backend/internal/service/expansion"
	"mindweave-backend/pkg/memory"
	"mindweave-backend/pkg/observability"
)

// metricsNamespace prefixes all Prometheus metric names
const metricsNamespace = "mindweave"

// Container holds all initialized application components
type Container struct {
	Config          *config.Config
	Logger          *zap.Logger
	Metrics         *observability.Collector
	Governor        *memory.Governor
	Cache           *embedding.Cache
	GraphStore      ports.GraphStore
	JobStore        *memstore.JobStore
	EventBus        ports.EventBus
	HandlerRegistry *appevents.HandlerRegistry
	Engine          *expansion.Engine

	stopPressure chan struct{}
}

// InitializeContainer builds the full dependency graph from configuration
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	c := &Container{
		Config:       cfg,
		Logger:       logger,
		stopPressure: make(chan struct{}),
	}

	if cfg.EnableMetrics {
		c.Metrics = observability.NewCollector(metricsNamespace)
	}

	c.Governor = memory.NewGovernor(
		memory.Config{
			WarningThreshold:  cfg.Memory.WarningThreshold,
			CriticalThreshold: cfg.Memory.CriticalThreshold,
			LimitBytes:        cfg.Memory.LimitBytes,
		},
		memory.RuntimeSampler(cfg.Memory.LimitBytes),
		logger,
	)

	backend, err := newEmbeddingBackend(cfg, logger)
	if err != nil {
		return nil, err
	}
	c.Cache = embedding.NewCache(backend, cfg.Embedding.CacheMaxEntries, c.Metrics, logger)
	c.Governor.RegisterComponent("embedding-cache", memory.ComponentHooks{
		OnMemoryPressure: c.Cache.OnMemoryPressure,
		ClearCache:       c.Cache.Clear,
		MemoryUsage:      c.Cache.MemoryUsage,
	})

	if err := c.initPersistence(ctx, cfg); err != nil {
		return nil, err
	}
	if err := c.initEventBus(ctx, cfg); err != nil {
		return nil, err
	}

	registry := expansion.NewRegistry()
	if err := registry.Register("mock", expansion.NewMockProvider()); err != nil {
		return nil, err
	}
	if cfg.OpenAIAPIKey != "" {
		completer := expansion.NewOpenAICompleter(cfg.OpenAIAPIKey, cfg.OpenAIChatModel, logger)
		if err := registry.Register("openai", expansion.NewLLMProvider(completer)); err != nil {
			return nil, err
		}
	}

	c.Engine = expansion.NewEngine(
		c.GraphStore,
		c.JobStore,
		registry,
		c.Cache,
		c.Governor,
		c.EventBus,
		c.Metrics,
		expansion.Limits{
			MaxDepth:          cfg.Engine.MaxDepth,
			MaxTotalNewCap:    cfg.Engine.MaxTotalNewCap,
			DefaultFanout:     cfg.Engine.DefaultFanoutFactor,
			DefaultProviderID: cfg.Engine.DefaultProviderID,
		},
		logger,
	)

	go c.pressureLoop(cfg.Memory.CheckInterval)

	return c, nil
}

// initPersistence selects the graph store backend. Job records always
// live in process memory: a job's goroutine dies with the process, so a
// durable copy of its transient state would only mislead pollers.
func (c *Container) initPersistence(ctx context.Context, cfg *config.Config) error {
	c.JobStore = memstore.NewJobStore(cfg.Engine.JobTTL)

	switch cfg.Persistence {
	case "dynamodb":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			return fmt.Errorf("failed to load AWS config: %w", err)
		}
		client := awsdynamodb.NewFromConfig(awsCfg)
		c.GraphStore = dynamostore.NewGraphStore(client, cfg.DynamoDBTable, c.Logger)
	default:
		c.GraphStore = memstore.NewGraphStore()
	}
	return nil
}

// initEventBus selects between the in-process bus and EventBridge
func (c *Container) initEventBus(ctx context.Context, cfg *config.Config) error {
	c.HandlerRegistry = appevents.NewHandlerRegistry(c.Logger)

	switch cfg.EventPublisher {
	case "eventbridge":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			return fmt.Errorf("failed to load AWS config: %w", err)
		}
		client := awseventbridge.NewFromConfig(awsCfg)
		c.EventBus = ebpublisher.NewPublisher(client, cfg.EventBusName, c.Logger)
	default:
		c.EventBus = appevents.NewLocalEventBus(c.HandlerRegistry)
	}
	return nil
}

// pressureLoop periodically evaluates memory pressure
func (c *Container) pressureLoop(interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_, level := c.Governor.CheckPressure()
			if c.Metrics != nil && level != memory.LevelNormal {
				c.Metrics.PressureEvents.WithLabelValues(string(level)).Inc()
			}
		case <-c.stopPressure:
			return
		}
	}
}

// Shutdown stops background goroutines
func (c *Container) Shutdown() {
	close(c.stopPressure)
	c.JobStore.Close()
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.IsProduction() {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}

func newEmbeddingBackend(cfg *config.Config, logger *zap.Logger) (embedding.Backend, error) {
	switch cfg.Embedding.Backend {
	case "openai":
		return embedding.NewOpenAIBackend(
			cfg.OpenAIAPIKey,
			cfg.Embedding.OpenAIModel,
			cfg.Embedding.Dimension,
			logger,
		), nil
	default:
		return embedding.NewLocalBackend(cfg.Embedding.Dimension), nil
	}
}
