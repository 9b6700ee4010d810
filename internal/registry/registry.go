// Package registry builds and owns the unified catalog snapshot. It fetches
// raw model lists from vendor providers, merges in enrichment sources,
// applies overrides, and exposes lock-free reads against an atomically
// swapped snapshot.
package registry

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"modelhub/internal/cache"
	"modelhub/internal/core"
	"modelhub/internal/observability"
	"modelhub/internal/override"
)

const (
	// DefaultProducerTimeout bounds each provider/source fetch.
	DefaultProducerTimeout = 30 * time.Second

	// DefaultInitTimeout bounds the implicit first refresh scheduled at
	// construction.
	DefaultInitTimeout = 60 * time.Second
)

// Config holds the registry's construction-time configuration surface.
type Config struct {
	// Providers are the vendor catalog producers, in merge order.
	Providers []NamedProvider

	// Sources are the optional enrichment sources, in merge order.
	Sources []NamedSource

	// Overrides is the compiled override rule set applied to every
	// aggregated catalog. May be nil.
	Overrides *override.RuleSet

	// Cache optionally persists snapshots across restarts. May be nil.
	Cache cache.Cache

	// Metrics optionally records refresh metrics. May be nil.
	Metrics *observability.Metrics

	// ProducerTimeout bounds each producer fetch. Defaults to
	// DefaultProducerTimeout.
	ProducerTimeout time.Duration

	// InitTimeout bounds the implicit first refresh. Defaults to
	// DefaultInitTimeout.
	InitTimeout time.Duration
}

// Registry owns the current catalog snapshot. Reads never block and never
// observe a partially refreshed catalog; concurrent refreshes coalesce onto
// one in-flight fetch.
type Registry struct {
	providers       []NamedProvider
	sources         []NamedSource
	overrides       *override.RuleSet
	cacheStore      cache.Cache
	metrics         *observability.Metrics
	producerTimeout time.Duration

	snapshot atomic.Pointer[Snapshot]
	version  atomic.Uint64
	group    singleflight.Group
	ready    chan struct{}
}

// New creates a registry and schedules its implicit first refresh in the
// background. List may be called immediately and returns an empty (or
// cache-restored) snapshot until the first refresh completes; WaitReady
// blocks until then.
func New(cfg Config) (*Registry, error) {
	seen := make(map[string]struct{}, len(cfg.Providers))
	for _, p := range cfg.Providers {
		if p.Name == "" || p.Provider == nil {
			return nil, core.NewAggregationConfigError("provider with empty name or nil implementation", nil)
		}
		if _, dup := seen[p.Name]; dup {
			return nil, core.NewAggregationConfigError("duplicate provider name "+p.Name, nil)
		}
		seen[p.Name] = struct{}{}
	}
	for _, s := range cfg.Sources {
		if s.Name == "" || s.Source == nil {
			return nil, core.NewAggregationConfigError("source with empty name or nil implementation", nil)
		}
	}

	r := &Registry{
		providers:       cfg.Providers,
		sources:         cfg.Sources,
		overrides:       cfg.Overrides,
		cacheStore:      cfg.Cache,
		metrics:         cfg.Metrics,
		producerTimeout: cfg.ProducerTimeout,
		ready:           make(chan struct{}),
	}
	if r.producerTimeout <= 0 {
		r.producerTimeout = DefaultProducerTimeout
	}
	initTimeout := cfg.InitTimeout
	if initTimeout <= 0 {
		initTimeout = DefaultInitTimeout
	}

	r.snapshot.Store(emptySnapshot())

	// Restore a cached snapshot synchronously so a restarted instance can
	// serve models while the first network refresh runs.
	r.restoreFromCache()

	go func() {
		defer close(r.ready)
		ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
		defer cancel()
		if err := r.Refresh(ctx); err != nil {
			slog.Warn("initial catalog refresh failed", "error", err)
		}
	}()

	return r, nil
}

// Ready returns a channel closed once the implicit first refresh has
// completed, successfully or not.
func (r *Registry) Ready() <-chan struct{} {
	return r.ready
}

// WaitReady blocks until the first refresh completes or ctx is done.
func (r *Registry) WaitReady(ctx context.Context) error {
	select {
	case <-r.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot returns the current snapshot. All reads within one operation
// should go through a single captured snapshot so they never observe a
// version change mid-operation.
func (r *Registry) Snapshot() *Snapshot {
	return r.snapshot.Load()
}

// List returns the current snapshot's entries. It is O(1), never blocks, and
// never fails; before the first refresh it returns an empty catalog.
func (r *Registry) List() []core.Entry {
	return r.Snapshot().List()
}

// Get returns the entry with the given id from the current snapshot.
func (r *Registry) Get(id string) (core.Entry, bool) {
	return r.Snapshot().Get(id)
}

// ModelCount returns the number of models in the current snapshot.
func (r *Registry) ModelCount() int {
	return r.Snapshot().Len()
}

// Refresh re-aggregates the catalog and atomically swaps the snapshot on
// success. If a refresh is already in flight, the call joins it instead of
// starting a redundant fetch; both callers resolve together. On error the
// previous snapshot is retained and the error propagated.
func (r *Registry) Refresh(ctx context.Context) error {
	_, err, shared := r.group.Do("refresh", func() (any, error) {
		return nil, r.refresh(ctx)
	})
	if shared {
		slog.Debug("refresh coalesced onto in-flight fetch")
	}
	return err
}

func (r *Registry) refresh(ctx context.Context) error {
	start := time.Now()

	entries, warnings, err := aggregate(ctx, r.providers, r.sources, r.producerTimeout)
	if err != nil {
		r.metrics.ObserveRefresh(observability.OutcomeError, time.Since(start))
		return err
	}
	for _, w := range warnings {
		slog.Warn("producer skipped during refresh", "producer", w.Producer, "error", w.Err)
	}

	entries = r.overrides.Apply(entries)

	snap := newSnapshot(entries, r.version.Add(1))
	old := r.snapshot.Swap(snap)

	r.metrics.ObserveRefresh(observability.OutcomeSuccess, time.Since(start))
	r.metrics.SetSnapshot(snap.Len(), snap.Version())

	if old.Digest() == snap.Digest() {
		slog.Debug("catalog unchanged after refresh",
			"models", snap.Len(),
			"version", snap.Version(),
		)
		return nil
	}

	slog.Info("catalog snapshot installed",
		"models", snap.Len(),
		"version", snap.Version(),
		"skipped_producers", len(warnings),
		"duration", time.Since(start),
	)

	r.persist(snap)
	return nil
}

// restoreFromCache installs a previously persisted snapshot, if any.
func (r *Registry) restoreFromCache() {
	if r.cacheStore == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	data, err := r.cacheStore.Get(ctx)
	if err != nil {
		slog.Warn("failed to load snapshot from cache", "error", err)
		return
	}
	if data == nil || len(data.Entries) == 0 {
		return
	}

	r.version.Store(data.Version)
	r.snapshot.Store(newSnapshot(data.Entries, data.Version))
	slog.Info("serving cached catalog while refreshing",
		"models", len(data.Entries),
		"cache_updated_at", data.UpdatedAt,
	)
}

// persist writes the snapshot to the cache, if one is configured.
func (r *Registry) persist(snap *Snapshot) {
	if r.cacheStore == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := r.cacheStore.Set(ctx, &cache.SnapshotData{
		Version:   snap.Version(),
		Digest:    snap.Digest(),
		UpdatedAt: snap.CreatedAt(),
		Entries:   snap.List(),
	})
	if err != nil {
		slog.Warn("failed to persist snapshot to cache", "error", err)
	}
}

// StartBackgroundRefresh starts a goroutine that periodically refreshes the
// catalog. Returns a cancel function to stop the refresh loop.
func (r *Registry) StartBackgroundRefresh(interval time.Duration) func() {
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				refreshCtx, refreshCancel := context.WithTimeout(context.Background(), DefaultInitTimeout)
				if err := r.Refresh(refreshCtx); err != nil {
					slog.Warn("background catalog refresh failed", "error", err)
				}
				refreshCancel()
			}
		}
	}()

	return cancel
}
