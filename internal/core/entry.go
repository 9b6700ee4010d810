// Package core defines the catalog data model, selection types, and error
// taxonomy shared by the registry and selection engine.
package core

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Capability is a named feature tag a model may support.
type Capability string

// Well-known capability tags. Providers may report tags outside this list;
// the engine treats all tags uniformly.
const (
	CapabilityChat       Capability = "chat"
	CapabilityVision     Capability = "vision"
	CapabilityStreaming  Capability = "streaming"
	CapabilityTools      Capability = "tools"
	CapabilityEmbedding  Capability = "embedding"
	CapabilityImage      Capability = "image"
	CapabilityHearing    Capability = "hearing"
	CapabilityAudio      Capability = "audio"
	CapabilityJSON       Capability = "json"
	CapabilityStructured Capability = "structured"
	CapabilityReasoning  Capability = "reasoning"
)

// CapabilitySet is a set of capability tags. It marshals to and from a
// sorted list in both JSON and YAML.
type CapabilitySet map[Capability]struct{}

// NewCapabilitySet builds a set from the given tags.
func NewCapabilitySet(caps ...Capability) CapabilitySet {
	s := make(CapabilitySet, len(caps))
	for _, c := range caps {
		s[c] = struct{}{}
	}
	return s
}

// Add inserts a capability into the set.
func (s CapabilitySet) Add(c Capability) {
	s[c] = struct{}{}
}

// Has reports whether the set contains the given capability.
func (s CapabilitySet) Has(c Capability) bool {
	_, ok := s[c]
	return ok
}

// HasAll reports whether every capability in other is present in s.
func (s CapabilitySet) HasAll(other CapabilitySet) bool {
	for c := range other {
		if !s.Has(c) {
			return false
		}
	}
	return true
}

// List returns the capabilities as a sorted slice.
func (s CapabilitySet) List() []Capability {
	out := make([]Capability, 0, len(s))
	for c := range s {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Clone returns an independent copy of the set. A nil set clones to nil.
func (s CapabilitySet) Clone() CapabilitySet {
	if s == nil {
		return nil
	}
	out := make(CapabilitySet, len(s))
	for c := range s {
		out[c] = struct{}{}
	}
	return out
}

// MarshalJSON encodes the set as a sorted JSON array.
func (s CapabilitySet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.List())
}

// UnmarshalJSON decodes a JSON array of tags.
func (s *CapabilitySet) UnmarshalJSON(data []byte) error {
	var caps []Capability
	if err := json.Unmarshal(data, &caps); err != nil {
		return err
	}
	*s = NewCapabilitySet(caps...)
	return nil
}

// MarshalYAML encodes the set as a sorted YAML sequence.
func (s CapabilitySet) MarshalYAML() (any, error) {
	return s.List(), nil
}

// UnmarshalYAML decodes a YAML sequence of tags.
func (s *CapabilitySet) UnmarshalYAML(value *yaml.Node) error {
	var caps []Capability
	if err := value.Decode(&caps); err != nil {
		return err
	}
	*s = NewCapabilitySet(caps...)
	return nil
}

// Tier is the coarse quality/cost class of a model.
type Tier string

const (
	TierFlagship     Tier = "flagship"
	TierEfficient    Tier = "efficient"
	TierExperimental Tier = "experimental"
)

// Rank returns the ordering used for tie-breaking: flagship > efficient >
// experimental > anything else.
func (t Tier) Rank() int {
	switch t {
	case TierFlagship:
		return 3
	case TierEfficient:
		return 2
	case TierExperimental:
		return 1
	default:
		return 0
	}
}

// Valid reports whether t is one of the known tiers.
func (t Tier) Valid() bool {
	return t.Rank() > 0
}

// Pricing holds per-million-token prices in USD. A nil *Pricing means the
// price is unknown, which is distinct from a zero (free) price.
type Pricing struct {
	InputPer1M  float64 `json:"input_per_1m" yaml:"input_per_1m"`
	OutputPer1M float64 `json:"output_per_1m" yaml:"output_per_1m"`
}

// AveragePer1M returns the mean of input and output per-million prices.
// The second return is false when p is nil (unknown pricing).
func (p *Pricing) AveragePer1M() (float64, bool) {
	if p == nil {
		return 0, false
	}
	return (p.InputPer1M + p.OutputPer1M) / 2, true
}

// MetadataSpeedKey is the metadata key a provider may set to supply a speed
// hint in [0,1] that overrides the tier-derived speed proxy.
const MetadataSpeedKey = "speed"

// Entry is one model in the catalog. Entries are immutable once built; the
// aggregator constructs fresh entries on every refresh cycle.
type Entry struct {
	// ID is globally unique within a snapshot, either "provider/model" or
	// the vendor-native id. It is stable across refreshes for the same
	// logical model.
	ID              string        `json:"id" yaml:"id"`
	Provider        string        `json:"provider" yaml:"provider"`
	Name            string        `json:"name,omitempty" yaml:"name,omitempty"`
	Capabilities    CapabilitySet `json:"capabilities,omitempty" yaml:"capabilities,omitempty"`
	Tier            Tier          `json:"tier,omitempty" yaml:"tier,omitempty"`
	Pricing         *Pricing      `json:"pricing,omitempty" yaml:"pricing,omitempty"`
	ContextWindow   int           `json:"context_window,omitempty" yaml:"context_window,omitempty"`
	MaxOutputTokens int           `json:"max_output_tokens,omitempty" yaml:"max_output_tokens,omitempty"`
	// Metadata carries provider-specific extras. The engine never inspects
	// it except for the documented speed hint.
	Metadata map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Clone returns a deep copy of the entry.
func (e Entry) Clone() Entry {
	out := e
	out.Capabilities = e.Capabilities.Clone()
	if e.Pricing != nil {
		p := *e.Pricing
		out.Pricing = &p
	}
	if e.Metadata != nil {
		out.Metadata = make(map[string]string, len(e.Metadata))
		for k, v := range e.Metadata {
			out.Metadata[k] = v
		}
	}
	return out
}

// SpeedHint returns the provider-supplied speed hint from metadata, clamped
// to [0,1]. The second return is false when no parseable hint is present.
func (e Entry) SpeedHint() (float64, bool) {
	raw, ok := e.Metadata[MetadataSpeedKey]
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return v, true
}

// Validate checks the structural invariants of an entry. Aggregation treats
// a producer that returns invalid entries as malformed.
func (e Entry) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("entry has empty id")
	}
	if e.Provider == "" {
		return fmt.Errorf("entry %q has empty provider", e.ID)
	}
	if e.Pricing != nil && (e.Pricing.InputPer1M < 0 || e.Pricing.OutputPer1M < 0) {
		return fmt.Errorf("entry %q has negative pricing", e.ID)
	}
	if e.ContextWindow < 0 {
		return fmt.Errorf("entry %q has negative context window", e.ID)
	}
	if e.MaxOutputTokens < 0 {
		return fmt.Errorf("entry %q has negative max output tokens", e.ID)
	}
	if e.Tier != "" && !e.Tier.Valid() {
		return fmt.Errorf("entry %q has unknown tier %q", e.ID, e.Tier)
	}
	return nil
}
