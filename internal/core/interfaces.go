package core

import "context"

// Provider is a vendor catalog producer. ListModels must return within the
// aggregator's per-producer deadline; an error or timeout degrades gracefully
// to a skipped producer, never a failed refresh.
type Provider interface {
	ListModels(ctx context.Context) ([]Entry, error)
}

// ModelSource is an external, non-authoritative producer of enrichment
// fragments keyed by existing model ids. Fragments whose id matches no base
// entry are dropped: a source cannot introduce a model the providers never
// advertised.
type ModelSource interface {
	FetchModels(ctx context.Context) ([]Fragment, error)
}
