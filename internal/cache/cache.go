// Package cache provides persistence for catalog snapshots so a restarted
// instance can serve models immediately while the first network refresh runs.
// Supports a local file backend and Redis for multi-instance deployments.
package cache

import (
	"context"
	"time"

	"modelhub/internal/core"
)

// SnapshotData is the cached form of a catalog snapshot.
type SnapshotData struct {
	Version   uint64       `json:"version"`
	Digest    uint64       `json:"digest"`
	UpdatedAt time.Time    `json:"updated_at"`
	Entries   []core.Entry `json:"entries"`
}

// Cache defines the interface for snapshot storage.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get retrieves the cached snapshot. Returns nil, nil if no cache
	// exists yet.
	Get(ctx context.Context) (*SnapshotData, error)

	// Set stores the snapshot.
	Set(ctx context.Context, data *SnapshotData) error

	// Close releases any resources held by the cache.
	Close() error
}
