// Package selection narrows a catalog snapshot to candidates satisfying hard
// constraints, scores them against weighted metrics, and picks one
// deterministically.
package selection

import (
	"slices"

	"modelhub/internal/core"
)

// Filter returns the entries satisfying every hard requirement in the
// criteria. Each step is a hard exclusion with no partial credit, and input
// order is preserved.
func Filter(entries []core.Entry, c core.Criteria) []core.Entry {
	out := make([]core.Entry, 0, len(entries))
	for _, e := range entries {
		if !satisfies(e, c) {
			continue
		}
		out = append(out, e)
	}
	return out
}

func satisfies(e core.Entry, c core.Criteria) bool {
	if !e.Capabilities.HasAll(c.Required) {
		return false
	}

	if len(c.Providers.Allow) > 0 && !slices.Contains(c.Providers.Allow, e.Provider) {
		return false
	}
	if slices.Contains(c.Providers.Deny, e.Provider) {
		return false
	}

	if c.MinContextWindow > 0 && e.ContextWindow < c.MinContextWindow {
		return false
	}

	// Entries with wholly unknown pricing are never excluded by budget; they
	// score worst on the cost metric instead.
	avg, known := e.Pricing.AveragePer1M()
	if !known {
		return true
	}
	if c.Budget.MaxCostPerMTok > 0 && avg > c.Budget.MaxCostPerMTok {
		return false
	}
	if c.Budget.MaxCostPerRequest > 0 && c.EstimatedTokens > 0 {
		estimated := float64(c.EstimatedTokens) / 1e6 * avg
		if estimated > c.Budget.MaxCostPerRequest {
			return false
		}
	}
	return true
}
