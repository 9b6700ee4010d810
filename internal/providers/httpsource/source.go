// Package httpsource enriches catalog entries from a remote JSON document
// keyed by model ID, in the style of community pricing datasets. Fields it
// understands are pricing, context window, output limit, capabilities, and
// tier; anything else in the document is ignored.
package httpsource

import (
	"context"
	"fmt"
	"net/http"
	"sort"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"modelhub/internal/core"
	"modelhub/internal/httpclient"
	"modelhub/internal/providers"
)

func init() {
	providers.RegisterSource("http", func(cfg providers.Config) (core.ModelSource, error) {
		return New(cfg)
	})
}

// Source fetches an enrichment document of the shape:
//
//	{"models": {"<id>": {"pricing": {"input_per_1m": 3, "output_per_1m": 15},
//	                     "context_window": 200000,
//	                     "max_output_tokens": 8192,
//	                     "capabilities": ["chat", "vision"],
//	                     "tier": "flagship"}}}
type Source struct {
	name    string
	url     string
	apiKey  string
	client  *http.Client
	limiter *rate.Limiter
}

// New builds a Source from its configuration.
func New(cfg providers.Config) (*Source, error) {
	if cfg.BaseURL == "" {
		return nil, &core.AggregationConfigError{
			Reason: fmt.Sprintf("source %q: base_url is required", cfg.Name),
		}
	}
	return &Source{
		name:    cfg.Name,
		url:     cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  httpclient.NewDefault(),
		limiter: providers.NewLimiter(cfg),
	}, nil
}

// FetchModels downloads and parses the enrichment document. Fragments are
// returned in stable ID order so repeated fetches of the same document merge
// identically.
func (s *Source) FetchModels(ctx context.Context) ([]core.Fragment, error) {
	headers := map[string]string{}
	if s.apiKey != "" {
		headers["Authorization"] = "Bearer " + s.apiKey
	}

	body, err := providers.FetchJSON(ctx, s.client, s.limiter, s.url, headers)
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("source %q: invalid JSON in enrichment response", s.name)
	}

	models := gjson.GetBytes(body, "models")
	if !models.IsObject() {
		return nil, fmt.Errorf("source %q: enrichment response missing models object", s.name)
	}

	var fragments []core.Fragment
	models.ForEach(func(key, item gjson.Result) bool {
		id := key.String()
		if id == "" || !item.IsObject() {
			return true
		}
		fragments = append(fragments, parseFragment(id, item))
		return true
	})

	sort.Slice(fragments, func(i, j int) bool { return fragments[i].ID < fragments[j].ID })
	return fragments, nil
}

func parseFragment(id string, item gjson.Result) core.Fragment {
	frag := core.Fragment{ID: id}

	if pricing := item.Get("pricing"); pricing.IsObject() {
		frag.Pricing = &core.Pricing{
			InputPer1M:  pricing.Get("input_per_1m").Float(),
			OutputPer1M: pricing.Get("output_per_1m").Float(),
		}
	}
	if cw := item.Get("context_window"); cw.Exists() {
		v := int(cw.Int())
		frag.ContextWindow = &v
	}
	if mot := item.Get("max_output_tokens"); mot.Exists() {
		v := int(mot.Int())
		frag.MaxOutputTokens = &v
	}
	if caps := item.Get("capabilities"); caps.IsArray() {
		set := core.NewCapabilitySet()
		caps.ForEach(func(_, c gjson.Result) bool {
			if tag := c.String(); tag != "" {
				set.Add(core.Capability(tag))
			}
			return true
		})
		frag.Capabilities = set
	}
	if tier := item.Get("tier"); tier.Exists() {
		t := core.Tier(tier.String())
		if t.Valid() {
			frag.Tier = &t
		}
	}
	if name := item.Get("name"); name.Exists() {
		v := name.String()
		frag.Name = &v
	}
	return frag
}
