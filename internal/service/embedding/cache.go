package embedding

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	pkgerrors "mindweave-backend/pkg/errors"
	"mindweave-backend/pkg/memory"
	"mindweave-backend/pkg/observability"

	"go.uber.org/zap"
)

// Metric identifies a similarity metric
type Metric string

const (
	MetricCosine    Metric = "cosine"
	MetricDot       Metric = "dot"
	MetricEuclidean Metric = "euclidean"
	MetricManhattan Metric = "manhattan"
)

// DefaultMaxEntries bounds the cache when no explicit cap is configured
const DefaultMaxEntries = 10000

// pressureTrimRatio is the conservative keep ratio applied on critical
// memory pressure.
const pressureTrimRatio = 0.5

type cacheEntry struct {
	vector       []float32
	lastAccessed time.Time
}

// Match is one ranked result from FindSimilar
type Match struct {
	Text       string  `json:"text"`
	Similarity float64 `json:"similarity"`
}

// Stats reports cache effectiveness counters
type Stats struct {
	Entries int    `json:"entries"`
	Hits    uint64 `json:"hits"`
	Misses  uint64 `json:"misses"`
}

// Cache memoizes embedding vectors by text and answers similarity
// queries. It is a single shared resource across concurrently running
// expansion jobs; writes are last-write-wins, which is safe because a
// vector for a given text is stable regardless of which job computed it.
type Cache struct {
	backend    Backend
	maxEntries int

	mu      sync.Mutex
	entries map[string]*cacheEntry
	hits    uint64
	misses  uint64

	metrics *observability.Collector
	logger  *zap.Logger
	clock   func() time.Time
}

// NewCache creates a cache over the given backend. maxEntries of zero
// applies DefaultMaxEntries; the metrics collector is optional.
func NewCache(backend Backend, maxEntries int, metrics *observability.Collector, logger *zap.Logger) *Cache {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Cache{
		backend:    backend,
		maxEntries: maxEntries,
		entries:    make(map[string]*cacheEntry),
		metrics:    metrics,
		logger:     logger,
		clock:      time.Now,
	}
}

// Backend returns the wrapped embedding backend
func (c *Cache) Backend() Backend {
	return c.backend
}

// Embed returns one vector per text. Cached vectors are reused and their
// recency refreshed; misses are batched into a single backend call.
// Identical texts within one call are embedded once.
func (c *Cache) Embed(ctx context.Context, texts []string, useCache bool) ([][]float32, error) {
	vectors := make([][]float32, len(texts))

	// Resolve cache hits and collect unique misses
	var missing []string
	missingIndex := make(map[string][]int)

	var hits, misses int
	c.mu.Lock()
	for i, text := range texts {
		if useCache {
			if entry, ok := c.entries[text]; ok {
				entry.lastAccessed = c.clock()
				vectors[i] = entry.vector
				c.hits++
				hits++
				continue
			}
		}
		c.misses++
		misses++
		if len(missingIndex[text]) == 0 {
			missing = append(missing, text)
		}
		missingIndex[text] = append(missingIndex[text], i)
	}
	c.mu.Unlock()

	if c.metrics != nil {
		c.metrics.CacheHits.Add(float64(hits))
		c.metrics.CacheMisses.Add(float64(misses))
	}

	if len(missing) == 0 {
		return vectors, nil
	}

	computed, err := c.backend.Embed(ctx, missing)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "embed batch")
	}
	if len(computed) != len(missing) {
		return nil, pkgerrors.NewInternal(
			fmt.Sprintf("backend returned %d vectors for %d texts", len(computed), len(missing)), nil)
	}

	c.mu.Lock()
	for j, text := range missing {
		if useCache {
			c.insertLocked(text, computed[j])
		}
		for _, i := range missingIndex[text] {
			vectors[i] = computed[j]
		}
	}
	c.mu.Unlock()

	return vectors, nil
}

// Similarity computes a similarity score in [0,1] between two vectors
func (c *Cache) Similarity(a, b []float32, metric Metric) (float64, error) {
	if len(a) == 0 || len(b) == 0 {
		return 0, pkgerrors.NewValidation("similarity requires non-empty vectors")
	}
	if len(a) != len(b) {
		return 0, pkgerrors.NewValidation(
			fmt.Sprintf("vector dimensions do not match: %d vs %d", len(a), len(b)))
	}

	var score float64
	switch metric {
	case MetricCosine, "":
		score = cosine(a, b)
	case MetricDot:
		// Normalized dot product mapped from [-1,1] into [0,1]
		score = (cosine(a, b) + 1) / 2
	case MetricEuclidean:
		score = 1 / (1 + euclideanDistance(a, b))
	case MetricManhattan:
		score = 1 / (1 + manhattanDistance(a, b))
	default:
		return 0, pkgerrors.NewValidation(fmt.Sprintf("unsupported similarity metric: %s", metric))
	}

	return clamp01(score), nil
}

// FindSimilar embeds the query and candidates, filters by threshold, and
// returns matches sorted by descending similarity, truncated to limit.
func (c *Cache) FindSimilar(ctx context.Context, query string, candidates []string, threshold float64, limit int) ([]Match, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	texts := append([]string{query}, candidates...)
	vectors, err := c.Embed(ctx, texts, true)
	if err != nil {
		return nil, err
	}

	queryVector := vectors[0]
	matches := make([]Match, 0, len(candidates))
	for i, candidate := range candidates {
		score, err := c.Similarity(queryVector, vectors[i+1], MetricCosine)
		if err != nil {
			return nil, err
		}
		if score >= threshold {
			matches = append(matches, Match{Text: candidate, Similarity: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// Lookup returns the cached vector for a text without computing one
func (c *Cache) Lookup(text string) ([]float32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[text]
	if !ok {
		return nil, false
	}
	entry.lastAccessed = c.clock()
	return entry.vector, true
}

// Trim removes the oldest-accessed entries, keeping the given fraction.
// Returns the number of evicted entries.
func (c *Cache) Trim(keepRatio float64) int {
	if keepRatio < 0 {
		keepRatio = 0
	}
	if keepRatio >= 1 {
		return 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	keep := int(float64(len(c.entries)) * keepRatio)
	evict := len(c.entries) - keep
	if evict <= 0 {
		return 0
	}

	c.evictOldestLocked(evict)
	return evict
}

// Clear removes every cached entry
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*cacheEntry)
}

// Len returns the number of cached entries
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns hit/miss counters and the current entry count
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{Entries: len(c.entries), Hits: c.hits, Misses: c.misses}
}

// OnMemoryPressure trims the cache when the memory governor reports
// critical pressure. Registered via memory.ComponentHooks.
func (c *Cache) OnMemoryPressure(level memory.Level) {
	if level != memory.LevelCritical {
		return
	}
	evicted := c.Trim(pressureTrimRatio)
	c.logger.Warn("Embedding cache trimmed under memory pressure",
		zap.Int("evicted", evicted),
		zap.Int("remaining", c.Len()),
	)
}

// MemoryUsage approximates the cache's resident size in bytes
func (c *Cache) MemoryUsage() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	var total uint64
	for text, entry := range c.entries {
		total += uint64(len(text)) + uint64(len(entry.vector))*4
	}
	return total
}

// insertLocked stores a vector, evicting the oldest entry once the cap
// is reached. Caller holds c.mu.
func (c *Cache) insertLocked(text string, vector []float32) {
	if _, exists := c.entries[text]; !exists && len(c.entries) >= c.maxEntries {
		c.evictOldestLocked(1)
	}
	c.entries[text] = &cacheEntry{vector: vector, lastAccessed: c.clock()}
}

// evictOldestLocked removes the n least recently accessed entries.
// Caller holds c.mu.
func (c *Cache) evictOldestLocked(n int) {
	type aged struct {
		text string
		at   time.Time
	}
	all := make([]aged, 0, len(c.entries))
	for text, entry := range c.entries {
		all = append(all, aged{text: text, at: entry.lastAccessed})
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].at.Before(all[j].at)
	})

	if n > len(all) {
		n = len(all)
	}
	for _, candidate := range all[:n] {
		delete(c.entries, candidate.text)
	}
	if c.metrics != nil {
		c.metrics.CacheEvictions.Add(float64(n))
	}
}

func cosine(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func euclideanDistance(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

func manhattanDistance(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += math.Abs(float64(a[i]) - float64(b[i]))
	}
	return sum
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
