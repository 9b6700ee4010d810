package registry

import (
	"context"
	"fmt"
	"testing"
	"time"

	"modelhub/internal/core"
)

// stubProvider returns a fixed list, an error, or blocks until its context
// is done.
type stubProvider struct {
	entries []core.Entry
	err     error
	delay   time.Duration
}

func (s *stubProvider) ListModels(ctx context.Context) ([]core.Entry, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.entries, s.err
}

type stubSource struct {
	fragments []core.Fragment
	err       error
}

func (s *stubSource) FetchModels(ctx context.Context) ([]core.Fragment, error) {
	return s.fragments, s.err
}

func entry(id, provider string) core.Entry {
	return core.Entry{ID: id, Provider: provider}
}

func ptr[T any](v T) *T { return &v }

func TestAggregate_MergesInDeclarationOrder(t *testing.T) {
	providers := []NamedProvider{
		{Name: "alpha", Provider: &stubProvider{
			entries: []core.Entry{entry("alpha/a", "alpha"), entry("alpha/b", "alpha")},
			// Finishing last must not change merge order
			delay: 30 * time.Millisecond,
		}},
		{Name: "beta", Provider: &stubProvider{
			entries: []core.Entry{entry("beta/c", "beta")},
		}},
	}

	merged, warnings, err := aggregate(context.Background(), providers, nil, time.Second)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("warnings = %v, want none", warnings)
	}

	wantOrder := []string{"alpha/a", "alpha/b", "beta/c"}
	if len(merged) != len(wantOrder) {
		t.Fatalf("merged %d entries, want %d", len(merged), len(wantOrder))
	}
	for i, want := range wantOrder {
		if merged[i].ID != want {
			t.Errorf("merged[%d] = %s, want %s", i, merged[i].ID, want)
		}
	}
}

func TestAggregate_FirstProviderWinsOnCollision(t *testing.T) {
	providers := []NamedProvider{
		{Name: "alpha", Provider: &stubProvider{
			entries: []core.Entry{{ID: "shared/model", Provider: "alpha", Tier: core.TierFlagship}},
		}},
		{Name: "beta", Provider: &stubProvider{
			entries: []core.Entry{{ID: "shared/model", Provider: "beta", Tier: core.TierEfficient}},
		}},
	}

	merged, _, err := aggregate(context.Background(), providers, nil, time.Second)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if len(merged) != 1 {
		t.Fatalf("merged %d entries, want 1", len(merged))
	}
	if merged[0].Provider != "alpha" || merged[0].Tier != core.TierFlagship {
		t.Errorf("collision winner = %s/%s, want alpha/flagship", merged[0].Provider, merged[0].Tier)
	}
}

func TestAggregate_FailedProviderSkippedWithWarning(t *testing.T) {
	providers := []NamedProvider{
		{Name: "broken", Provider: &stubProvider{err: fmt.Errorf("boom")}},
		{Name: "ok", Provider: &stubProvider{entries: []core.Entry{entry("ok/m", "ok")}}},
	}

	merged, warnings, err := aggregate(context.Background(), providers, nil, time.Second)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if len(merged) != 1 || merged[0].ID != "ok/m" {
		t.Errorf("merged = %+v, want only ok/m", merged)
	}
	if len(warnings) != 1 || warnings[0].Producer != "broken" {
		t.Errorf("warnings = %+v, want one for broken", warnings)
	}
}

func TestAggregate_MalformedEntriesRejectWholeProducer(t *testing.T) {
	providers := []NamedProvider{
		{Name: "sloppy", Provider: &stubProvider{
			entries: []core.Entry{
				entry("sloppy/good", "sloppy"),
				{ID: "", Provider: "sloppy"},
			},
		}},
		{Name: "ok", Provider: &stubProvider{entries: []core.Entry{entry("ok/m", "ok")}}},
	}

	merged, warnings, err := aggregate(context.Background(), providers, nil, time.Second)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	// The valid entry from the malformed producer is dropped along with the
	// invalid one
	if len(merged) != 1 || merged[0].ID != "ok/m" {
		t.Errorf("merged = %+v, want only ok/m", merged)
	}
	if len(warnings) != 1 || warnings[0].Producer != "sloppy" {
		t.Errorf("warnings = %+v, want one for sloppy", warnings)
	}
}

func TestAggregate_SourceEnrichesExistingEntries(t *testing.T) {
	providers := []NamedProvider{
		{Name: "alpha", Provider: &stubProvider{entries: []core.Entry{entry("alpha/m", "alpha")}}},
	}
	sources := []NamedSource{
		{Name: "pricing", Source: &stubSource{fragments: []core.Fragment{
			{ID: "alpha/m", Pricing: &core.Pricing{InputPer1M: 1, OutputPer1M: 2}, ContextWindow: ptr(32000)},
			// No base entry: must be dropped, not added
			{ID: "alpha/ghost", ContextWindow: ptr(8000)},
		}}},
	}

	merged, warnings, err := aggregate(context.Background(), providers, sources, time.Second)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("warnings = %v", warnings)
	}
	if len(merged) != 1 {
		t.Fatalf("merged %d entries, want 1 (ghost fragment must not create an entry)", len(merged))
	}
	if merged[0].Pricing == nil || merged[0].Pricing.InputPer1M != 1 {
		t.Errorf("pricing not enriched: %+v", merged[0].Pricing)
	}
	if merged[0].ContextWindow != 32000 {
		t.Errorf("ContextWindow = %d, want 32000", merged[0].ContextWindow)
	}
}

func TestAggregate_FailedSourceLeavesBaseIntact(t *testing.T) {
	providers := []NamedProvider{
		{Name: "alpha", Provider: &stubProvider{entries: []core.Entry{entry("alpha/m", "alpha")}}},
	}
	sources := []NamedSource{
		{Name: "flaky", Source: &stubSource{err: fmt.Errorf("timeout")}},
	}

	merged, warnings, err := aggregate(context.Background(), providers, sources, time.Second)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if len(merged) != 1 || merged[0].ID != "alpha/m" {
		t.Errorf("merged = %+v", merged)
	}
	if len(warnings) != 1 || warnings[0].Producer != "flaky" {
		t.Errorf("warnings = %+v, want one for flaky", warnings)
	}
}

func TestAggregate_CancellationPropagates(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	providers := []NamedProvider{
		{Name: "slow", Provider: &stubProvider{delay: time.Second}},
	}

	_, _, err := aggregate(ctx, providers, nil, time.Second)
	if err == nil {
		t.Fatal("expected error for canceled context")
	}
}

func TestAggregate_SlowProducerTimedOutIndividually(t *testing.T) {
	providers := []NamedProvider{
		{Name: "slow", Provider: &stubProvider{delay: time.Second}},
		{Name: "fast", Provider: &stubProvider{entries: []core.Entry{entry("fast/m", "fast")}}},
	}

	merged, warnings, err := aggregate(context.Background(), providers, nil, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if len(merged) != 1 || merged[0].ID != "fast/m" {
		t.Errorf("merged = %+v, want only fast/m", merged)
	}
	if len(warnings) != 1 || warnings[0].Producer != "slow" {
		t.Errorf("warnings = %+v, want one for slow", warnings)
	}
}
