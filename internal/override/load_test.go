package override

import (
	"os"
	"path/filepath"
	"testing"

	"modelhub/internal/core"
)

func writeRules(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "overrides.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write rules file: %v", err)
	}
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeRules(t, `
overrides:
  - id: openai/gpt-4o
    patch:
      tier: flagship
      context_window: 200000
  - pattern: "anthropic/*"
    patch:
      pricing: null
`)

	rs, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if rs.Len() != 2 {
		t.Fatalf("Len = %d, want 2", rs.Len())
	}

	out := rs.Apply([]core.Entry{
		{ID: "openai/gpt-4o", Provider: "openai"},
		{ID: "anthropic/claude", Provider: "anthropic", Pricing: &core.Pricing{InputPer1M: 3}},
	})

	if out[0].Tier != core.TierFlagship || out[0].ContextWindow != 200000 {
		t.Errorf("id rule not applied: %+v", out[0])
	}
	if out[1].Pricing != nil {
		t.Errorf("pricing tombstone not applied: %+v", out[1].Pricing)
	}
}

func TestLoadFile_InvalidRule(t *testing.T) {
	path := writeRules(t, `
overrides:
  - patch:
      tier: flagship
`)
	if _, err := LoadFile(path); err == nil {
		t.Fatal("expected error for rule without matcher")
	}
}

func TestLoadFile_MissingFile(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
