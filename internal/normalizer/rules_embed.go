package normalizer

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed data/abbreviations.yaml
var abbreviationsYAML []byte

// Rules is the token table driving abbreviation expansion.
type Rules struct {
	Abbreviations map[string]string `yaml:"abbreviations"`
	StreetTypes   []string          `yaml:"street_types"`
}

// LoadRules parses the embedded rule file.
func LoadRules() (*Rules, error) {
	return ParseRules(abbreviationsYAML)
}

// ParseRules parses and checks a rule document. Expansions must not chain
// and street types must be disjoint from both keys and expansions, otherwise
// normalizing twice could give a different answer than normalizing once.
func ParseRules(data []byte) (*Rules, error) {
	rules := &Rules{}
	if err := yaml.Unmarshal(data, rules); err != nil {
		return nil, fmt.Errorf("parse abbreviation rules: %w", err)
	}

	for k, v := range rules.Abbreviations {
		if v == "" {
			return nil, fmt.Errorf("abbreviation %q has empty expansion", k)
		}
		// A target that maps to itself ("mount: mount") is a fixed point.
		if w, chained := rules.Abbreviations[v]; chained && v != k && w != v {
			return nil, fmt.Errorf("abbreviation %q expands to another key %q", k, v)
		}
	}

	values := make(map[string]struct{}, len(rules.Abbreviations))
	for _, v := range rules.Abbreviations {
		values[v] = struct{}{}
	}
	for _, st := range rules.StreetTypes {
		if _, ok := rules.Abbreviations[st]; ok {
			return nil, fmt.Errorf("street type %q is also an abbreviation", st)
		}
		if _, ok := values[st]; ok {
			return nil, fmt.Errorf("street type %q is also an expansion", st)
		}
	}
	return rules, nil
}
