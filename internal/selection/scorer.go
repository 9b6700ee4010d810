package selection

import (
	"sort"

	"modelhub/internal/core"
)

// Epsilon is the tolerance within which composite scores count as equal and
// the tie-break rule decides.
const Epsilon = 1e-9

// Tier-derived proxies. Speed and quality have no canonical formula upstream;
// these ordinals are the documented reconstruction: efficient models are the
// fastest, flagship models the strongest.
var (
	speedForTier = map[core.Tier]float64{
		core.TierFlagship:     0.5,
		core.TierEfficient:    1.0,
		core.TierExperimental: 0.7,
	}
	qualityForTier = map[core.Tier]float64{
		core.TierFlagship:     1.0,
		core.TierEfficient:    0.6,
		core.TierExperimental: 0.4,
	}
)

const (
	defaultSpeed   = 0.7
	defaultQuality = 0.5

	// optionalCapabilityBonus rewards each requested optional capability an
	// entry actually has, capped so quality never exceeds 1.
	optionalCapabilityBonus = 0.1
)

// Score computes normalized per-metric scores and the weighted composite for
// every candidate. Normalization is min-max within the candidate set, not
// global: "best available" is relative to what survived filtering. Output
// order matches input order; use Rank to sort.
func Score(candidates []core.Entry, c core.Criteria) []core.ScoredCandidate {
	costs := normalizedCosts(candidates)

	scored := make([]core.ScoredCandidate, len(candidates))
	for i, e := range candidates {
		metrics := map[string]float64{
			core.MetricCost:    costs[i],
			core.MetricSpeed:   speedScore(e),
			core.MetricQuality: qualityScore(e, c),
		}

		var composite float64
		for name, norm := range metrics {
			w := c.Weights[name]
			if w <= 0 {
				continue
			}
			composite += w * norm
		}

		scored[i] = core.ScoredCandidate{
			Entry:   e,
			Score:   composite,
			Metrics: metrics,
		}
	}
	return scored
}

// normalizedCosts maps each candidate's average per-million price to [0,1]
// where 1 is cheapest. Unknown pricing scores 0 (worst). When every known
// price is identical, known candidates all score 1.
func normalizedCosts(candidates []core.Entry) []float64 {
	var min, max float64
	var anyKnown bool
	for _, e := range candidates {
		avg, known := e.Pricing.AveragePer1M()
		if !known {
			continue
		}
		if !anyKnown || avg < min {
			min = avg
		}
		if !anyKnown || avg > max {
			max = avg
		}
		anyKnown = true
	}

	out := make([]float64, len(candidates))
	for i, e := range candidates {
		avg, known := e.Pricing.AveragePer1M()
		if !known {
			out[i] = 0
			continue
		}
		if max == min {
			out[i] = 1
			continue
		}
		out[i] = (max - avg) / (max - min)
	}
	return out
}

// speedScore uses a provider-supplied metadata hint when present, otherwise
// the tier ordinal.
func speedScore(e core.Entry) float64 {
	if hint, ok := e.SpeedHint(); ok {
		return hint
	}
	if v, ok := speedForTier[e.Tier]; ok {
		return v
	}
	return defaultSpeed
}

// qualityScore combines the tier ordinal with a bonus per matched optional
// capability, rewarding richer models when optional features were requested.
func qualityScore(e core.Entry, c core.Criteria) float64 {
	q, ok := qualityForTier[e.Tier]
	if !ok {
		q = defaultQuality
	}
	for tag := range c.Optional {
		if e.Capabilities.Has(tag) {
			q += optionalCapabilityBonus
		}
	}
	if q > 1 {
		q = 1
	}
	return q
}

// Rank sorts candidates best-first: descending composite score, then (within
// Epsilon) higher tier rank, then lexicographically smallest id. The total
// order guarantees deterministic selection for identical inputs.
func Rank(scored []core.ScoredCandidate) {
	sort.Slice(scored, func(i, j int) bool {
		return better(scored[i], scored[j])
	})
}

func better(a, b core.ScoredCandidate) bool {
	d := a.Score - b.Score
	if d > Epsilon {
		return true
	}
	if d < -Epsilon {
		return false
	}
	if ar, br := a.Entry.Tier.Rank(), b.Entry.Tier.Rank(); ar != br {
		return ar > br
	}
	return a.Entry.ID < b.Entry.ID
}
