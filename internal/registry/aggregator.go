package registry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"modelhub/internal/core"
)

// NamedProvider pairs a vendor provider with its declared name. Declaration
// order determines merge order.
type NamedProvider struct {
	Name     string
	Provider core.Provider
}

// NamedSource pairs an enrichment source with its declared name.
type NamedSource struct {
	Name   string
	Source core.ModelSource
}

type providerResult struct {
	entries []core.Entry
	err     error
}

type sourceResult struct {
	fragments []core.Fragment
	err       error
}

// aggregate fetches from every provider and source concurrently, then merges
// deterministically by declaration order regardless of completion order.
// Individual producer failures are skipped and returned as warnings; the
// returned error is non-nil only for cancellation, in which case no partial
// result must be installed.
func aggregate(ctx context.Context, providers []NamedProvider, sources []NamedSource, perFetchTimeout time.Duration) ([]core.Entry, []*core.ProducerFetchError, error) {
	provResults := make([]providerResult, len(providers))
	srcResults := make([]sourceResult, len(sources))

	var g errgroup.Group
	for i, p := range providers {
		i, p := i, p
		g.Go(func() error {
			fetchCtx, cancel := context.WithTimeout(ctx, perFetchTimeout)
			defer cancel()
			entries, err := p.Provider.ListModels(fetchCtx)
			if err == nil {
				err = validateEntries(entries)
			}
			provResults[i] = providerResult{entries: entries, err: err}
			return nil
		})
	}
	for i, s := range sources {
		i, s := i, s
		g.Go(func() error {
			fetchCtx, cancel := context.WithTimeout(ctx, perFetchTimeout)
			defer cancel()
			fragments, err := s.Source.FetchModels(fetchCtx)
			srcResults[i] = sourceResult{fragments: fragments, err: err}
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // tasks never return errors; failures are per-producer

	// A canceled refresh keeps the previous snapshot authoritative.
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	var warnings []*core.ProducerFetchError

	// Merge base entries in provider declaration order, first-seen wins on id
	// collisions. A collision across two different providers is a
	// configuration smell, logged but not fatal.
	var merged []core.Entry
	owner := make(map[string]string)
	for i, p := range providers {
		res := provResults[i]
		if res.err != nil {
			warnings = append(warnings, core.NewProducerFetchError(p.Name, res.err))
			continue
		}
		for _, e := range res.entries {
			if prev, exists := owner[e.ID]; exists {
				if prev != p.Name {
					slog.Warn("model id collision across providers, keeping first",
						"model", e.ID,
						"kept_provider", prev,
						"dropped_provider", p.Name,
					)
				} else {
					slog.Debug("duplicate model id within provider, skipping",
						"model", e.ID,
						"provider", p.Name,
					)
				}
				continue
			}
			owner[e.ID] = p.Name
			merged = append(merged, e)
		}
	}

	// Enrichment fragments merge onto existing base entries by id. Fragments
	// with no matching base are dropped: a source cannot introduce a model
	// the providers never advertised.
	index := make(map[string]int, len(merged))
	for i, e := range merged {
		index[e.ID] = i
	}
	for i, s := range sources {
		res := srcResults[i]
		if res.err != nil {
			warnings = append(warnings, core.NewProducerFetchError(s.Name, res.err))
			continue
		}
		var applied, dropped int
		for _, f := range res.fragments {
			pos, ok := index[f.ID]
			if !ok {
				dropped++
				slog.Debug("enrichment fragment has no base entry, dropping",
					"model", f.ID,
					"source", s.Name,
				)
				continue
			}
			merged[pos] = f.Apply(merged[pos])
			applied++
		}
		slog.Debug("enrichment source merged",
			"source", s.Name,
			"applied", applied,
			"dropped", dropped,
		)
	}

	return merged, warnings, nil
}

// validateEntries rejects a producer's whole result when any entry is
// structurally invalid, so malformed data degrades like a fetch failure.
func validateEntries(entries []core.Entry) error {
	for _, e := range entries {
		if err := e.Validate(); err != nil {
			return fmt.Errorf("malformed model list: %w", err)
		}
	}
	return nil
}
