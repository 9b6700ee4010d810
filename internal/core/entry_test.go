package core

import (
	"encoding/json"
	"testing"
)

func ptr[T any](v T) *T { return &v }

func TestCapabilitySet_HasAll(t *testing.T) {
	s := NewCapabilitySet(CapabilityChat, CapabilityVision, CapabilityTools)

	if !s.HasAll(NewCapabilitySet(CapabilityChat, CapabilityVision)) {
		t.Error("expected subset to satisfy HasAll")
	}
	if s.HasAll(NewCapabilitySet(CapabilityChat, CapabilityEmbedding)) {
		t.Error("expected missing capability to fail HasAll")
	}
	if !s.HasAll(nil) {
		t.Error("expected empty requirement to always pass")
	}
}

func TestCapabilitySet_JSONRoundtrip(t *testing.T) {
	s := NewCapabilitySet(CapabilityVision, CapabilityChat)

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	// Sorted output makes encoding deterministic
	if string(data) != `["chat","vision"]` {
		t.Errorf("marshal = %s, want [\"chat\",\"vision\"]", data)
	}

	var back CapabilitySet
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.Has(CapabilityChat) || !back.Has(CapabilityVision) {
		t.Errorf("roundtrip lost capabilities: %v", back.List())
	}
}

func TestCapabilitySet_CloneIndependent(t *testing.T) {
	orig := NewCapabilitySet(CapabilityChat)
	clone := orig.Clone()
	clone.Add(CapabilityVision)

	if orig.Has(CapabilityVision) {
		t.Error("mutating clone leaked into original")
	}
	if CapabilitySet(nil).Clone() != nil {
		t.Error("nil set should clone to nil")
	}
}

func TestTier_Rank(t *testing.T) {
	if TierFlagship.Rank() <= TierEfficient.Rank() {
		t.Error("flagship should outrank efficient")
	}
	if TierEfficient.Rank() <= TierExperimental.Rank() {
		t.Error("efficient should outrank experimental")
	}
	if Tier("mystery").Rank() != 0 {
		t.Errorf("unknown tier rank = %d, want 0", Tier("mystery").Rank())
	}
	if Tier("").Valid() {
		t.Error("empty tier should not be valid")
	}
}

func TestPricing_AveragePer1M(t *testing.T) {
	var p *Pricing
	if _, ok := p.AveragePer1M(); ok {
		t.Error("nil pricing should report unknown")
	}

	p = &Pricing{InputPer1M: 3, OutputPer1M: 15}
	avg, ok := p.AveragePer1M()
	if !ok {
		t.Fatal("expected known pricing")
	}
	if avg != 9 {
		t.Errorf("average = %f, want 9", avg)
	}

	// Zero prices are known (free), not unknown
	free := &Pricing{}
	if _, ok := free.AveragePer1M(); !ok {
		t.Error("zero pricing should still be known")
	}
}

func TestEntry_SpeedHint(t *testing.T) {
	e := Entry{Metadata: map[string]string{MetadataSpeedKey: "0.85"}}
	v, ok := e.SpeedHint()
	if !ok || v != 0.85 {
		t.Errorf("SpeedHint = %f, %v, want 0.85, true", v, ok)
	}

	e.Metadata[MetadataSpeedKey] = "2.5"
	if v, _ := e.SpeedHint(); v != 1 {
		t.Errorf("hint above range = %f, want clamped to 1", v)
	}

	e.Metadata[MetadataSpeedKey] = "-1"
	if v, _ := e.SpeedHint(); v != 0 {
		t.Errorf("hint below range = %f, want clamped to 0", v)
	}

	e.Metadata[MetadataSpeedKey] = "fast"
	if _, ok := e.SpeedHint(); ok {
		t.Error("unparseable hint should report absent")
	}

	if _, ok := (Entry{}).SpeedHint(); ok {
		t.Error("missing metadata should report absent")
	}
}

func TestEntry_Validate(t *testing.T) {
	valid := Entry{ID: "openai/gpt-4o", Provider: "openai"}
	if err := valid.Validate(); err != nil {
		t.Errorf("valid entry rejected: %v", err)
	}

	cases := []struct {
		name  string
		entry Entry
	}{
		{"empty id", Entry{Provider: "openai"}},
		{"empty provider", Entry{ID: "m"}},
		{"negative pricing", Entry{ID: "m", Provider: "p", Pricing: &Pricing{InputPer1M: -1}}},
		{"negative context window", Entry{ID: "m", Provider: "p", ContextWindow: -1}},
		{"unknown tier", Entry{ID: "m", Provider: "p", Tier: "ultra"}},
	}
	for _, tc := range cases {
		if err := tc.entry.Validate(); err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
	}
}

func TestEntry_CloneIndependent(t *testing.T) {
	orig := Entry{
		ID:           "m",
		Provider:     "p",
		Capabilities: NewCapabilitySet(CapabilityChat),
		Pricing:      &Pricing{InputPer1M: 1, OutputPer1M: 2},
		Metadata:     map[string]string{"k": "v"},
	}
	clone := orig.Clone()
	clone.Pricing.InputPer1M = 99
	clone.Metadata["k"] = "changed"
	clone.Capabilities.Add(CapabilityVision)

	if orig.Pricing.InputPer1M != 1 {
		t.Error("clone shares pricing with original")
	}
	if orig.Metadata["k"] != "v" {
		t.Error("clone shares metadata with original")
	}
	if orig.Capabilities.Has(CapabilityVision) {
		t.Error("clone shares capabilities with original")
	}
}

func TestFragment_Apply(t *testing.T) {
	base := Entry{
		ID:            "openai/gpt-4o",
		Provider:      "openai",
		Name:          "gpt-4o",
		Tier:          TierFlagship,
		ContextWindow: 128000,
		Capabilities:  NewCapabilitySet(CapabilityChat),
	}

	frag := Fragment{
		ID:            "openai/gpt-4o",
		Pricing:       &Pricing{InputPer1M: 2.5, OutputPer1M: 10},
		ContextWindow: ptr(200000),
		Capabilities:  NewCapabilitySet(CapabilityChat, CapabilityVision),
	}

	out := frag.Apply(base)

	if out.Pricing == nil || out.Pricing.InputPer1M != 2.5 {
		t.Errorf("pricing not applied: %+v", out.Pricing)
	}
	if out.ContextWindow != 200000 {
		t.Errorf("ContextWindow = %d, want 200000", out.ContextWindow)
	}
	if !out.Capabilities.Has(CapabilityVision) {
		t.Error("capabilities not replaced")
	}
	// Untouched fields survive
	if out.Tier != TierFlagship || out.Name != "gpt-4o" {
		t.Errorf("unset fragment fields changed base: tier=%s name=%s", out.Tier, out.Name)
	}
	// Base must not be mutated
	if base.Pricing != nil || base.ContextWindow != 128000 {
		t.Error("Apply mutated the base entry")
	}
}

func TestFragment_ApplyEmptyLeavesBase(t *testing.T) {
	base := Entry{
		ID:       "m",
		Provider: "p",
		Tier:     TierEfficient,
		Metadata: map[string]string{"speed": "0.9"},
	}
	out := Fragment{ID: "m"}.Apply(base)

	if out.Tier != base.Tier || out.Metadata["speed"] != "0.9" {
		t.Errorf("empty fragment changed entry: %+v", out)
	}
}

func TestCriteria_CloneIndependent(t *testing.T) {
	orig := Criteria{
		Required:  NewCapabilitySet(CapabilityChat),
		Providers: ProviderFilter{Allow: []string{"openai"}},
		Weights:   map[string]float64{MetricCost: 1},
	}
	clone := orig.Clone()
	clone.Required.Add(CapabilityVision)
	clone.Providers.Allow[0] = "anthropic"
	clone.Weights[MetricCost] = 5

	if orig.Required.Has(CapabilityVision) {
		t.Error("clone shares required set")
	}
	if orig.Providers.Allow[0] != "openai" {
		t.Error("clone shares provider filter")
	}
	if orig.Weights[MetricCost] != 1 {
		t.Error("clone shares weights")
	}
}
