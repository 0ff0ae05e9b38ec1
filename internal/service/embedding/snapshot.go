package embedding

import (
	"fmt"
	"time"

	pkgerrors "mindweave-backend/pkg/errors"
)

// SnapshotVersion is the cache snapshot format version
const SnapshotVersion = 1

// SnapshotEntry is one persisted cache entry. Timestamp is epoch
// milliseconds of the entry's last access.
type SnapshotEntry struct {
	Vector    []float32 `json:"vector"`
	Timestamp int64     `json:"timestamp"`
}

// Snapshot is the persisted cache format
type Snapshot struct {
	Version   int                      `json:"version"`
	ModelName string                   `json:"modelName"`
	Dimension int                      `json:"dimension"`
	CreatedAt string                   `json:"createdAt"`
	Entries   map[string]SnapshotEntry `json:"entries"`
}

// ImportOptions controls snapshot import behavior
type ImportOptions struct {
	// ClearExisting drops all current entries before importing
	ClearExisting bool

	// ValidateDimension rejects snapshots whose dimension differs from
	// the backend's
	ValidateDimension bool
}

// ExportSnapshot captures the current cache contents
func (c *Cache) ExportSnapshot() *Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries := make(map[string]SnapshotEntry, len(c.entries))
	for text, entry := range c.entries {
		vector := make([]float32, len(entry.vector))
		copy(vector, entry.vector)
		entries[text] = SnapshotEntry{
			Vector:    vector,
			Timestamp: entry.lastAccessed.UnixMilli(),
		}
	}

	return &Snapshot{
		Version:   SnapshotVersion,
		ModelName: c.backend.ModelName(),
		Dimension: c.backend.Dimension(),
		CreatedAt: c.clock().UTC().Format(time.RFC3339),
		Entries:   entries,
	}
}

// ImportSnapshot restores entries from a snapshot. The cache is left
// unmodified when validation fails. Existing texts are never overwritten
// unless ClearExisting is set.
func (c *Cache) ImportSnapshot(snapshot *Snapshot, opts ImportOptions) error {
	if snapshot == nil {
		return pkgerrors.NewCacheFormat("snapshot is nil")
	}
	if snapshot.Version != SnapshotVersion {
		return pkgerrors.NewCacheFormat(
			fmt.Sprintf("unsupported snapshot version %d", snapshot.Version))
	}
	if opts.ValidateDimension && snapshot.Dimension != c.backend.Dimension() {
		return pkgerrors.NewCacheFormat(
			fmt.Sprintf("snapshot dimension %d does not match backend dimension %d",
				snapshot.Dimension, c.backend.Dimension()))
	}
	for text, entry := range snapshot.Entries {
		if len(entry.Vector) == 0 {
			return pkgerrors.NewCacheFormat(fmt.Sprintf("entry %q has an empty vector", text))
		}
		if snapshot.Dimension > 0 && len(entry.Vector) != snapshot.Dimension {
			return pkgerrors.NewCacheFormat(
				fmt.Sprintf("entry %q vector length %d does not match snapshot dimension %d",
					text, len(entry.Vector), snapshot.Dimension))
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if opts.ClearExisting {
		c.entries = make(map[string]*cacheEntry)
	}

	for text, entry := range snapshot.Entries {
		if _, exists := c.entries[text]; exists {
			continue
		}
		vector := make([]float32, len(entry.Vector))
		copy(vector, entry.Vector)
		c.insertLocked(text, vector)
		c.entries[text].lastAccessed = time.UnixMilli(entry.Timestamp)
	}

	return nil
}
