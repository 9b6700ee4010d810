package override

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ruleDoc is the on-disk shape of an override file:
//
//	overrides:
//	  - id: openai/gpt-4o
//	    patch:
//	      tier: flagship
//	  - pattern: "anthropic/*"
//	    patch:
//	      pricing: null
type ruleDoc struct {
	Overrides []fileRule `yaml:"overrides"`
}

type fileRule struct {
	ID      string `yaml:"id"`
	Pattern string `yaml:"pattern"`
	Patch   Patch  `yaml:"patch"`
}

// LoadFile reads override rules from a YAML file and compiles them. Rule
// order in the file is the application order.
func LoadFile(path string) (*RuleSet, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read overrides %s: %w", path, err)
	}

	var doc ruleDoc
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse overrides %s: %w", path, err)
	}

	rules := make([]Rule, 0, len(doc.Overrides))
	for _, fr := range doc.Overrides {
		rules = append(rules, Rule{
			ID:      fr.ID,
			Pattern: fr.Pattern,
			Patch:   fr.Patch,
		})
	}
	return Compile(rules)
}
