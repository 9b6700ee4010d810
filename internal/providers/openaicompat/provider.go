// Package openaicompat lists models from any endpoint implementing the
// OpenAI-style GET /v1/models surface.
package openaicompat

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"modelhub/internal/core"
	"modelhub/internal/httpclient"
	"modelhub/internal/providers"
)

func init() {
	providers.RegisterProvider("openai-compat", func(cfg providers.Config) (core.Provider, error) {
		return New(cfg)
	})
}

// Provider fetches the model list from an OpenAI-compatible API.
type Provider struct {
	name      string
	baseURL   string
	apiKey    string
	prefixIDs bool
	client    *http.Client
	limiter   *rate.Limiter
}

// New builds a Provider from its configuration.
func New(cfg providers.Config) (*Provider, error) {
	if cfg.BaseURL == "" {
		return nil, &core.AggregationConfigError{
			Reason: fmt.Sprintf("provider %q: base_url is required", cfg.Name),
		}
	}
	return &Provider{
		name:      cfg.Name,
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:    cfg.APIKey,
		prefixIDs: cfg.PrefixIDs,
		client:    httpclient.NewDefault(),
		limiter:   providers.NewLimiter(cfg),
	}, nil
}

// ListModels fetches the upstream catalog and converts it to entries.
// Capabilities and tier are inferred from model identifiers since the models
// endpoint does not expose them.
func (p *Provider) ListModels(ctx context.Context) ([]core.Entry, error) {
	headers := map[string]string{}
	if p.apiKey != "" {
		headers["Authorization"] = "Bearer " + p.apiKey
	}

	body, err := providers.FetchJSON(ctx, p.client, p.limiter, p.baseURL+"/v1/models", headers)
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("provider %q: invalid JSON in models response", p.name)
	}

	data := gjson.GetBytes(body, "data")
	if !data.IsArray() {
		return nil, fmt.Errorf("provider %q: models response missing data array", p.name)
	}

	var entries []core.Entry
	data.ForEach(func(_, item gjson.Result) bool {
		upstream := item.Get("id").String()
		if upstream == "" {
			return true
		}
		id := upstream
		if p.prefixIDs {
			id = p.name + "/" + upstream
		}
		entry := core.Entry{
			ID:           id,
			Provider:     p.name,
			Name:         upstream,
			Capabilities: inferCapabilities(upstream),
			Tier:         inferTier(upstream),
		}
		if owned := item.Get("owned_by").String(); owned != "" {
			entry.Metadata = map[string]string{"owned_by": owned}
		}
		entries = append(entries, entry)
		return true
	})
	return entries, nil
}
