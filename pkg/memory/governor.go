// Package memory provides process memory sampling, pressure classification,
// and admission control for the expansion engine.
package memory

import (
	"runtime"
	"runtime/debug"
	"sync"

	"go.uber.org/zap"
)

// Level classifies current memory usage
type Level string

const (
	LevelNormal   Level = "normal"
	LevelWarning  Level = "warning"
	LevelCritical Level = "critical"
)

// Sample is a point-in-time memory usage reading
type Sample struct {
	UsedBytes    uint64  `json:"used_bytes"`
	LimitBytes   uint64  `json:"limit_bytes"`
	UsageRatio   float64 `json:"usage_ratio"`
	UsagePercent float64 `json:"usage_percent"`
}

// Sampler reads current used and limit bytes. Injectable so tests can
// force pressure without allocating.
type Sampler func() (usedBytes, limitBytes uint64)

// ComponentHooks are the callbacks a registered component exposes to the
// governor. Any hook may be nil.
type ComponentHooks struct {
	// OnMemoryPressure is invoked when usage reaches the critical level
	OnMemoryPressure func(level Level)

	// ClearCache drops all cached data the component holds
	ClearCache func()

	// MemoryUsage reports the component's approximate usage in bytes
	MemoryUsage func() uint64
}

// Config holds governor thresholds
type Config struct {
	// WarningThreshold is the usage ratio at which a GC hint is requested
	WarningThreshold float64

	// CriticalThreshold is the usage ratio at which components are notified
	CriticalThreshold float64

	// LimitBytes is the memory budget. Zero falls back to runtime Sys.
	LimitBytes uint64
}

// DefaultConfig returns the default governor thresholds
func DefaultConfig() Config {
	return Config{
		WarningThreshold:  0.75,
		CriticalThreshold: 0.9,
	}
}

// Governor samples process memory, classifies pressure, and notifies
// registered components when usage turns critical.
type Governor struct {
	config     Config
	sampler    Sampler
	gcHint     func()
	mu         sync.RWMutex
	components map[string]ComponentHooks
	logger     *zap.Logger
}

// NewGovernor creates a governor with the given config. A nil sampler
// falls back to runtime heap statistics.
func NewGovernor(config Config, sampler Sampler, logger *zap.Logger) *Governor {
	if config.WarningThreshold <= 0 {
		config.WarningThreshold = DefaultConfig().WarningThreshold
	}
	if config.CriticalThreshold <= 0 {
		config.CriticalThreshold = DefaultConfig().CriticalThreshold
	}
	if sampler == nil {
		sampler = RuntimeSampler(config.LimitBytes)
	}

	return &Governor{
		config:     config,
		sampler:    sampler,
		gcHint:     debug.FreeOSMemory,
		components: make(map[string]ComponentHooks),
		logger:     logger,
	}
}

// RuntimeSampler reads heap usage from runtime.MemStats. limitBytes of
// zero uses the total bytes obtained from the OS as the limit.
func RuntimeSampler(limitBytes uint64) Sampler {
	return func() (uint64, uint64) {
		var stats runtime.MemStats
		runtime.ReadMemStats(&stats)

		limit := limitBytes
		if limit == 0 {
			limit = stats.Sys
		}
		return stats.HeapAlloc, limit
	}
}

// Sample reads current memory usage without side effects
func (g *Governor) Sample() Sample {
	used, limit := g.sampler()

	ratio := 0.0
	if limit > 0 {
		ratio = float64(used) / float64(limit)
	}

	return Sample{
		UsedBytes:    used,
		LimitBytes:   limit,
		UsageRatio:   ratio,
		UsagePercent: ratio * 100,
	}
}

// Classify maps a usage ratio to a pressure level
func (g *Governor) Classify(ratio float64) Level {
	switch {
	case ratio >= g.config.CriticalThreshold:
		return LevelCritical
	case ratio >= g.config.WarningThreshold:
		return LevelWarning
	default:
		return LevelNormal
	}
}

// CheckPressure samples memory and applies pressure side effects: a GC
// hint on warning, and component notification on critical. Returns the
// sample and its classification.
func (g *Governor) CheckPressure() (Sample, Level) {
	sample := g.Sample()
	level := g.Classify(sample.UsageRatio)

	switch level {
	case LevelWarning:
		g.logger.Warn("Memory usage elevated, requesting garbage collection",
			zap.Float64("usagePercent", sample.UsagePercent),
		)
		g.gcHint()
	case LevelCritical:
		g.logger.Error("Memory usage critical, notifying components",
			zap.Float64("usagePercent", sample.UsagePercent),
		)
		g.gcHint()
		g.notifyComponents(level)
	}

	return sample, level
}

// Admit reports whether current usage is below the caller-supplied ratio.
// The expansion engine calls this at depth-level boundaries.
func (g *Governor) Admit(ratio float64) bool {
	if ratio <= 0 {
		return true
	}
	return g.Sample().UsageRatio < ratio
}

// RegisterComponent registers pressure callbacks under a name. The last
// registration for a given name wins.
func (g *Governor) RegisterComponent(name string, hooks ComponentHooks) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.components[name] = hooks
}

// UnregisterComponent removes a component registration
func (g *Governor) UnregisterComponent(name string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.components, name)
}

// ComponentUsage reports the per-component memory usage in bytes for
// components that expose a MemoryUsage hook.
func (g *Governor) ComponentUsage() map[string]uint64 {
	g.mu.RLock()
	defer g.mu.RUnlock()

	usage := make(map[string]uint64)
	for name, hooks := range g.components {
		if hooks.MemoryUsage != nil {
			usage[name] = hooks.MemoryUsage()
		}
	}
	return usage
}

func (g *Governor) notifyComponents(level Level) {
	g.mu.RLock()
	names := make([]string, 0, len(g.components))
	hooks := make([]ComponentHooks, 0, len(g.components))
	for name, h := range g.components {
		names = append(names, name)
		hooks = append(hooks, h)
	}
	g.mu.RUnlock()

	for i, h := range hooks {
		if h.OnMemoryPressure == nil {
			continue
		}
		h.OnMemoryPressure(level)
		g.logger.Info("Notified component of memory pressure",
			zap.String("component", names[i]),
			zap.String("level", string(level)),
		)
	}
}

// setGCHint overrides the GC hint for tests
func (g *Governor) setGCHint(hint func()) {
	g.gcHint = hint
}
