package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"modelhub/internal/core"
)

func TestLocalCache_GetMissingReturnsNil(t *testing.T) {
	c := NewLocalCache(filepath.Join(t.TempDir(), "snapshot.json"))

	data, err := c.Get(context.Background())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if data != nil {
		t.Errorf("Get = %+v, want nil for absent cache", data)
	}
}

func TestLocalCache_SetThenGet(t *testing.T) {
	// The directory does not exist yet; Set must create it.
	path := filepath.Join(t.TempDir(), "nested", "snapshot.json")
	c := NewLocalCache(path)

	in := &SnapshotData{
		Version:   3,
		Digest:    12345,
		UpdatedAt: time.Now().UTC().Truncate(time.Second),
		Entries: []core.Entry{
			{
				ID:           "openai/gpt-4o",
				Provider:     "openai",
				Tier:         core.TierFlagship,
				Capabilities: core.NewCapabilitySet(core.CapabilityChat, core.CapabilityVision),
				Pricing:      &core.Pricing{InputPer1M: 2.5, OutputPer1M: 10},
			},
		},
	}
	if err := c.Set(context.Background(), in); err != nil {
		t.Fatalf("Set: %v", err)
	}

	out, err := c.Get(context.Background())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if out == nil {
		t.Fatal("Get returned nil after Set")
	}
	if out.Version != 3 || out.Digest != 12345 {
		t.Errorf("Version/Digest = %d/%d, want 3/12345", out.Version, out.Digest)
	}
	if len(out.Entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(out.Entries))
	}
	e := out.Entries[0]
	if e.ID != "openai/gpt-4o" || e.Tier != core.TierFlagship {
		t.Errorf("entry = %+v", e)
	}
	if !e.Capabilities.Has(core.CapabilityVision) {
		t.Error("capabilities lost in roundtrip")
	}
	if e.Pricing == nil || e.Pricing.OutputPer1M != 10 {
		t.Errorf("pricing lost in roundtrip: %+v", e.Pricing)
	}
}

func TestLocalCache_OverwriteReplacesSnapshot(t *testing.T) {
	c := NewLocalCache(filepath.Join(t.TempDir(), "snapshot.json"))
	ctx := context.Background()

	first := &SnapshotData{Version: 1, Entries: []core.Entry{{ID: "a", Provider: "p"}}}
	second := &SnapshotData{Version: 2, Entries: []core.Entry{{ID: "b", Provider: "p"}}}

	if err := c.Set(ctx, first); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := c.Set(ctx, second); err != nil {
		t.Fatalf("Set: %v", err)
	}

	out, err := c.Get(ctx)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if out.Version != 2 || out.Entries[0].ID != "b" {
		t.Errorf("Get = %+v, want second snapshot", out)
	}
}

func TestLocalCache_EmptyPathIsNoop(t *testing.T) {
	c := NewLocalCache("")
	ctx := context.Background()

	if err := c.Set(ctx, &SnapshotData{Version: 1}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, err := c.Get(ctx)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if data != nil {
		t.Error("empty path cache should store nothing")
	}
}
