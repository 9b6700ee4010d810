package core

// Metric names accepted in Criteria.Weights.
const (
	MetricCost    = "cost"
	MetricSpeed   = "speed"
	MetricQuality = "quality"
)

// ProviderFilter restricts candidates by provider tag. Allow is a whitelist
// when non-empty; Deny always excludes.
type ProviderFilter struct {
	Allow []string `json:"allow,omitempty" yaml:"allow,omitempty"`
	Deny  []string `json:"deny,omitempty" yaml:"deny,omitempty"`
}

// Budget caps the acceptable cost of a candidate. Zero values mean unset.
type Budget struct {
	// MaxCostPerRequest is evaluated only when Criteria.EstimatedTokens is
	// supplied.
	MaxCostPerRequest float64 `json:"max_cost_per_request,omitempty" yaml:"max_cost_per_request,omitempty"`
	// MaxCostPerMTok caps the average of input and output per-million prices.
	MaxCostPerMTok float64 `json:"max_cost_per_mtok,omitempty" yaml:"max_cost_per_mtok,omitempty"`
}

// Criteria describes the caller's constraints and preferences for one
// selection. It is read-only to the engine; hooks that rewrite criteria
// operate on a copy.
type Criteria struct {
	// Required capabilities must all be present on a candidate.
	Required CapabilitySet `json:"required,omitempty" yaml:"required,omitempty"`
	// Optional capabilities contribute to the quality score but never filter.
	Optional CapabilitySet `json:"optional,omitempty" yaml:"optional,omitempty"`

	Providers        ProviderFilter `json:"providers,omitempty" yaml:"providers,omitempty"`
	MinContextWindow int            `json:"min_context_window,omitempty" yaml:"min_context_window,omitempty"`
	Budget           Budget         `json:"budget,omitempty" yaml:"budget,omitempty"`
	// EstimatedTokens is the caller's estimate of total tokens for the
	// request, enabling the per-request budget check.
	EstimatedTokens int `json:"estimated_tokens,omitempty" yaml:"estimated_tokens,omitempty"`

	// Weights maps metric name (cost, speed, quality) to a non-negative
	// weight. Weights need not sum to 1. Metrics absent from the map
	// contribute nothing to the composite score.
	Weights map[string]float64 `json:"weights,omitempty" yaml:"weights,omitempty"`
	// Profile names a configured weight set used when Weights is empty.
	Profile string `json:"profile,omitempty" yaml:"profile,omitempty"`

	// Model, when set, bypasses filtering and scoring entirely and selects
	// the entry with this exact id.
	Model string `json:"model,omitempty" yaml:"model,omitempty"`
}

// Clone returns a deep copy of the criteria.
func (c Criteria) Clone() Criteria {
	out := c
	out.Required = c.Required.Clone()
	out.Optional = c.Optional.Clone()
	out.Providers.Allow = append([]string(nil), c.Providers.Allow...)
	out.Providers.Deny = append([]string(nil), c.Providers.Deny...)
	if c.Weights != nil {
		out.Weights = make(map[string]float64, len(c.Weights))
		for k, v := range c.Weights {
			out.Weights[k] = v
		}
	}
	return out
}

// ScoredCandidate is one candidate with its per-metric and composite scores.
type ScoredCandidate struct {
	Entry   Entry              `json:"entry"`
	Score   float64            `json:"score"`
	Metrics map[string]float64 `json:"metrics,omitempty"`
}

// Result is the outcome of one selection. Candidates holds every model that
// survived filtering, ranked best-first, for observability. The explicit-id
// fast path considers no candidates and leaves it empty.
type Result struct {
	Entry      Entry             `json:"entry"`
	Score      float64           `json:"score"`
	Candidates []ScoredCandidate `json:"candidates,omitempty"`
}
