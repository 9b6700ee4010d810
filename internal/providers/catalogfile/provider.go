// Package catalogfile serves a model catalog from a local YAML file. It is
// useful for self-hosted deployments and for pinning a curated model list
// that no remote API exposes.
package catalogfile

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"modelhub/internal/core"
	"modelhub/internal/providers"
)

func init() {
	providers.RegisterProvider("file", func(cfg providers.Config) (core.Provider, error) {
		return New(cfg)
	})
}

// Provider reads entries from a YAML catalog file on every listing, so edits
// to the file are picked up by the next refresh without a restart.
type Provider struct {
	name string
	path string
}

type catalogDoc struct {
	Models []core.Entry `yaml:"models"`
}

// New builds a Provider from its configuration.
func New(cfg providers.Config) (*Provider, error) {
	if cfg.FilePath == "" {
		return nil, &core.AggregationConfigError{
			Reason: fmt.Sprintf("provider %q: file_path is required", cfg.Name),
		}
	}
	return &Provider{name: cfg.Name, path: cfg.FilePath}, nil
}

// ListModels parses the catalog file. Entries without an explicit provider
// inherit the instance name.
func (p *Provider) ListModels(ctx context.Context) ([]core.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(p.path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", p.path, err)
	}

	var doc catalogDoc
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", p.path, err)
	}

	entries := make([]core.Entry, 0, len(doc.Models))
	for _, e := range doc.Models {
		if e.Provider == "" {
			e.Provider = p.name
		}
		entries = append(entries, e)
	}
	return entries, nil
}
