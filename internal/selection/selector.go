package selection

import (
	"context"
	"fmt"
	"time"

	"modelhub/internal/core"
	"modelhub/internal/observability"
	"modelhub/internal/registry"
)

// Config holds the selector's construction-time configuration.
type Config struct {
	// Registry supplies the catalog snapshots. Required.
	Registry *registry.Registry

	// Profiles are named default weight sets, referenced by
	// Criteria.Profile when Criteria.Weights is empty.
	Profiles map[string]map[string]float64

	// BeforeHooks run in order before filtering; AfterHooks run in order
	// after a model has been chosen.
	BeforeHooks []BeforeHook
	AfterHooks  []AfterHook

	// Metrics optionally records selection metrics. May be nil.
	Metrics *observability.Metrics
}

// Selector orchestrates filter, score, rank, and tie-break over one request,
// plus the explicit-model-id fast path. Selection is pure and synchronous
// apart from awaiting hooks; concurrent selections never block each other or
// an in-flight refresh.
type Selector struct {
	registry *registry.Registry
	profiles map[string]map[string]float64
	before   []BeforeHook
	after    []AfterHook
	metrics  *observability.Metrics
}

// New creates a selector backed by the given registry.
func New(cfg Config) (*Selector, error) {
	if cfg.Registry == nil {
		return nil, fmt.Errorf("registry is required")
	}
	return &Selector{
		registry: cfg.Registry,
		profiles: cfg.Profiles,
		before:   cfg.BeforeHooks,
		after:    cfg.AfterHooks,
		metrics:  cfg.Metrics,
	}, nil
}

// Select picks the single best model for the criteria. When Criteria.Model
// is set it is an unconditional override of automatic selection, even if the
// named entry violates required capabilities or budget. The result owns
// copies of its entries and stays valid after later refreshes.
func (s *Selector) Select(ctx context.Context, criteria core.Criteria) (*core.Result, error) {
	start := time.Now()
	result, err := s.selectModel(ctx, criteria)
	s.metrics.ObserveSelection(outcomeFor(err), time.Since(start))
	return result, err
}

func (s *Selector) selectModel(ctx context.Context, criteria core.Criteria) (*core.Result, error) {
	crit := criteria.Clone()

	for _, h := range s.before {
		out, err := h.Fn(ctx, crit)
		if err != nil {
			return nil, core.NewHookError(h.Name, "before", err)
		}
		if out != nil {
			crit = out.Clone()
		}
	}

	// One snapshot serves the whole selection so a concurrent refresh can
	// never be observed mid-operation.
	snap := s.registry.Snapshot()

	var result *core.Result
	if crit.Model != "" {
		entry, ok := snap.Get(crit.Model)
		if !ok {
			return nil, core.NewUnknownModelError(crit.Model)
		}
		result = &core.Result{Entry: entry.Clone()}
	} else {
		var err error
		result, err = s.selectAutomatic(snap, crit)
		if err != nil {
			return nil, err
		}
	}

	for _, h := range s.after {
		out, err := h.Fn(ctx, result.Entry)
		if err != nil {
			return nil, core.NewHookError(h.Name, "after", err)
		}
		if out == nil {
			continue
		}
		replacement, ok := snap.Get(out.ID)
		if !ok {
			return nil, core.NewHookError(h.Name, "after",
				fmt.Errorf("substituted model %q is not in the snapshot", out.ID))
		}
		result.Entry = replacement.Clone()
		result.Score = scoreFor(result.Candidates, replacement.ID)
	}

	return result, nil
}

func (s *Selector) selectAutomatic(snap *registry.Snapshot, crit core.Criteria) (*core.Result, error) {
	if len(crit.Weights) == 0 && crit.Profile != "" {
		weights, ok := s.profiles[crit.Profile]
		if !ok {
			return nil, fmt.Errorf("unknown weights profile %q", crit.Profile)
		}
		crit.Weights = weights
	}

	candidates := Filter(snap.List(), crit)
	if len(candidates) == 0 {
		return nil, core.NewNoCandidateModelError(crit)
	}

	scored := Score(candidates, crit)
	Rank(scored)

	ranked := make([]core.ScoredCandidate, len(scored))
	for i, sc := range scored {
		ranked[i] = core.ScoredCandidate{
			Entry:   sc.Entry.Clone(),
			Score:   sc.Score,
			Metrics: sc.Metrics,
		}
	}

	return &core.Result{
		Entry:      ranked[0].Entry.Clone(),
		Score:      ranked[0].Score,
		Candidates: ranked,
	}, nil
}

// scoreFor finds the composite score a substituted entry earned during
// ranking, or zero when it was never a candidate (explicit path, or filtered
// out).
func scoreFor(candidates []core.ScoredCandidate, id string) float64 {
	for _, c := range candidates {
		if c.Entry.ID == id {
			return c.Score
		}
	}
	return 0
}

func outcomeFor(err error) string {
	switch err.(type) {
	case nil:
		return observability.OutcomeSuccess
	case *core.NoCandidateModelError:
		return observability.OutcomeNoCandidate
	case *core.UnknownModelError:
		return observability.OutcomeUnknown
	default:
		return observability.OutcomeError
	}
}
