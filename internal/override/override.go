package override

import (
	"fmt"
	"path"

	"modelhub/internal/core"
)

// Patch is a partial catalog entry applied to matching entries. Scalar fields
// replace; Capabilities and Metadata are replaced wholesale when present, so
// there is never ambiguity between adding to and removing from a set. An
// entry's id can never be patched.
type Patch struct {
	Name            Field[string]             `json:"name,omitzero" yaml:"name,omitempty"`
	Tier            Field[core.Tier]          `json:"tier,omitzero" yaml:"tier,omitempty"`
	Capabilities    Field[core.CapabilitySet] `json:"capabilities,omitzero" yaml:"capabilities,omitempty"`
	Pricing         Field[core.Pricing]       `json:"pricing,omitzero" yaml:"pricing,omitempty"`
	ContextWindow   Field[int]                `json:"context_window,omitzero" yaml:"context_window,omitempty"`
	MaxOutputTokens Field[int]                `json:"max_output_tokens,omitzero" yaml:"max_output_tokens,omitempty"`
	Metadata        Field[map[string]string]  `json:"metadata,omitzero" yaml:"metadata,omitempty"`
}

// Apply merges the patch onto an entry and returns the result. Applying the
// same patch twice yields the same entry as applying it once.
func (p Patch) Apply(e core.Entry) core.Entry {
	out := e.Clone()
	if v, ok := p.Name.Value(); ok {
		out.Name = v
	} else if p.Name.IsNull() {
		out.Name = ""
	}
	if v, ok := p.Tier.Value(); ok {
		out.Tier = v
	} else if p.Tier.IsNull() {
		out.Tier = ""
	}
	if v, ok := p.Capabilities.Value(); ok {
		out.Capabilities = v.Clone()
	} else if p.Capabilities.IsNull() {
		out.Capabilities = nil
	}
	if v, ok := p.Pricing.Value(); ok {
		pr := v
		out.Pricing = &pr
	} else if p.Pricing.IsNull() {
		out.Pricing = nil
	}
	if v, ok := p.ContextWindow.Value(); ok {
		out.ContextWindow = v
	} else if p.ContextWindow.IsNull() {
		out.ContextWindow = 0
	}
	if v, ok := p.MaxOutputTokens.Value(); ok {
		out.MaxOutputTokens = v
	} else if p.MaxOutputTokens.IsNull() {
		out.MaxOutputTokens = 0
	}
	if v, ok := p.Metadata.Value(); ok {
		out.Metadata = make(map[string]string, len(v))
		for k, val := range v {
			out.Metadata[k] = val
		}
	} else if p.Metadata.IsNull() {
		out.Metadata = nil
	}
	return out
}

// Rule is one override: a way of matching entries plus the patch to apply.
// Exactly one of ID, Pattern, or Match must be provided. Pattern uses
// path.Match glob syntax against the entry id (e.g. "openai/*").
type Rule struct {
	ID      string                `json:"id,omitempty" yaml:"id,omitempty"`
	Pattern string                `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	Match   func(core.Entry) bool `json:"-" yaml:"-"`
	Patch   Patch                 `json:"patch" yaml:"patch"`
}

type compiledRule struct {
	match func(core.Entry) bool
	patch Patch
}

// RuleSet is a compiled, ordered list of override rules.
type RuleSet struct {
	rules []compiledRule
}

// Compile validates the rules and prepares them for application. Rules with
// no matcher, more than one matcher, or an invalid glob pattern produce an
// AggregationConfigError.
func Compile(rules []Rule) (*RuleSet, error) {
	compiled := make([]compiledRule, 0, len(rules))
	for i, r := range rules {
		matchers := 0
		if r.ID != "" {
			matchers++
		}
		if r.Pattern != "" {
			matchers++
		}
		if r.Match != nil {
			matchers++
		}
		if matchers != 1 {
			return nil, core.NewAggregationConfigError(
				fmt.Sprintf("override rule #%d must have exactly one of id, pattern, or match", i), nil)
		}

		var match func(core.Entry) bool
		switch {
		case r.ID != "":
			id := r.ID
			match = func(e core.Entry) bool { return e.ID == id }
		case r.Pattern != "":
			pattern := r.Pattern
			if _, err := path.Match(pattern, ""); err != nil {
				return nil, core.NewAggregationConfigError(
					fmt.Sprintf("override rule #%d has invalid pattern %q", i, pattern), err)
			}
			match = func(e core.Entry) bool {
				ok, _ := path.Match(pattern, e.ID)
				return ok
			}
		default:
			match = r.Match
		}

		compiled = append(compiled, compiledRule{match: match, patch: r.Patch})
	}
	return &RuleSet{rules: compiled}, nil
}

// MustCompile is like Compile but panics on error. Intended for tests and
// programmatic rule sets built from literals.
func MustCompile(rules []Rule) *RuleSet {
	rs, err := Compile(rules)
	if err != nil {
		panic(err)
	}
	return rs
}

// Len returns the number of rules in the set.
func (rs *RuleSet) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.rules)
}

// Apply runs every rule against every entry. Matching rules apply in
// declaration order, so later rules win on field conflicts. Apply is
// idempotent and never mutates its input.
func (rs *RuleSet) Apply(entries []core.Entry) []core.Entry {
	if rs == nil || len(rs.rules) == 0 {
		return entries
	}
	out := make([]core.Entry, len(entries))
	for i, e := range entries {
		for _, r := range rs.rules {
			if r.match(e) {
				e = r.patch.Apply(e)
			}
		}
		out[i] = e
	}
	return out
}
