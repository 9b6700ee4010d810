package core

// Fragment is a partial entry produced by an enrichment source, keyed by the
// id of an existing catalog entry. Nil fields leave the base entry untouched;
// non-nil fields overwrite. Capabilities and Metadata are replaced wholesale
// when present. A fragment can never change an entry's id or provider.
type Fragment struct {
	ID              string            `json:"id" yaml:"id"`
	Name            *string           `json:"name,omitempty" yaml:"name,omitempty"`
	Tier            *Tier             `json:"tier,omitempty" yaml:"tier,omitempty"`
	Capabilities    CapabilitySet     `json:"capabilities,omitempty" yaml:"capabilities,omitempty"`
	Pricing         *Pricing          `json:"pricing,omitempty" yaml:"pricing,omitempty"`
	ContextWindow   *int              `json:"context_window,omitempty" yaml:"context_window,omitempty"`
	MaxOutputTokens *int              `json:"max_output_tokens,omitempty" yaml:"max_output_tokens,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Apply merges the fragment onto a base entry and returns the result.
func (f Fragment) Apply(base Entry) Entry {
	out := base.Clone()
	if f.Name != nil {
		out.Name = *f.Name
	}
	if f.Tier != nil {
		out.Tier = *f.Tier
	}
	if f.Capabilities != nil {
		out.Capabilities = f.Capabilities.Clone()
	}
	if f.Pricing != nil {
		p := *f.Pricing
		out.Pricing = &p
	}
	if f.ContextWindow != nil {
		out.ContextWindow = *f.ContextWindow
	}
	if f.MaxOutputTokens != nil {
		out.MaxOutputTokens = *f.MaxOutputTokens
	}
	if f.Metadata != nil {
		out.Metadata = make(map[string]string, len(f.Metadata))
		for k, v := range f.Metadata {
			out.Metadata[k] = v
		}
	}
	return out
}
