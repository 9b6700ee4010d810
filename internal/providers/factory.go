// Package providers hosts the registration point for model catalog producers.
// Concrete producer implementations live in subpackages and register
// themselves via init().
package providers

import (
	"fmt"
	"sort"
	"sync"

	"modelhub/internal/core"
)

// Config carries the settings a producer builder needs. Not every field is
// meaningful for every producer type; builders validate what they use.
type Config struct {
	// Name is the unique instance name, also used as the provider label on
	// emitted entries.
	Name string

	// Type selects the registered builder, e.g. "openai-compat" or "file".
	Type string

	// BaseURL is the API root for HTTP producers.
	BaseURL string

	// APIKey authenticates HTTP producers. May be empty for open endpoints.
	APIKey string

	// FilePath points at the catalog file for file-backed producers.
	FilePath string

	// PrefixIDs namespaces emitted model IDs as "<name>/<upstream id>".
	PrefixIDs bool

	// RateLimit caps outgoing requests per second. Zero disables limiting.
	RateLimit float64

	// Burst is the rate limiter burst size. Defaults to 1 when limiting is
	// enabled and no value is given.
	Burst int
}

// ProviderBuilder constructs a catalog provider from its configuration.
type ProviderBuilder func(cfg Config) (core.Provider, error)

// SourceBuilder constructs an enrichment source from its configuration.
type SourceBuilder func(cfg Config) (core.ModelSource, error)

var (
	mu            sync.RWMutex
	providerTypes = make(map[string]ProviderBuilder)
	sourceTypes   = make(map[string]SourceBuilder)
)

// RegisterProvider makes a provider type available by name. It panics on
// duplicate registration, which indicates a programming error.
func RegisterProvider(typ string, b ProviderBuilder) {
	mu.Lock()
	defer mu.Unlock()
	if _, dup := providerTypes[typ]; dup {
		panic(fmt.Sprintf("providers: duplicate provider type %q", typ))
	}
	providerTypes[typ] = b
}

// RegisterSource makes a source type available by name.
func RegisterSource(typ string, b SourceBuilder) {
	mu.Lock()
	defer mu.Unlock()
	if _, dup := sourceTypes[typ]; dup {
		panic(fmt.Sprintf("providers: duplicate source type %q", typ))
	}
	sourceTypes[typ] = b
}

// NewProvider builds a provider instance for the given configuration.
func NewProvider(cfg Config) (core.Provider, error) {
	mu.RLock()
	b, ok := providerTypes[cfg.Type]
	mu.RUnlock()
	if !ok {
		return nil, &core.AggregationConfigError{
			Reason: fmt.Sprintf("unknown provider type %q (registered: %v)", cfg.Type, ProviderTypes()),
		}
	}
	return b(cfg)
}

// NewSource builds an enrichment source instance for the given configuration.
func NewSource(cfg Config) (core.ModelSource, error) {
	mu.RLock()
	b, ok := sourceTypes[cfg.Type]
	mu.RUnlock()
	if !ok {
		return nil, &core.AggregationConfigError{
			Reason: fmt.Sprintf("unknown source type %q (registered: %v)", cfg.Type, SourceTypes()),
		}
	}
	return b(cfg)
}

// ProviderTypes returns the registered provider type names, sorted.
func ProviderTypes() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(providerTypes))
	for n := range providerTypes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// SourceTypes returns the registered source type names, sorted.
func SourceTypes() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(sourceTypes))
	for n := range sourceTypes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
