package common

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadTerms reads the search-term list from a YAML file. The file is a
// plain sequence of strings:
//
//	- desenvolvedor backend
//	- analista de dados
//
// Blank entries are dropped and duplicates removed, preserving order.
func LoadTerms(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read terms file %s: %w", path, err)
	}

	var raw []string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse terms file %s: %w", path, err)
	}

	seen := make(map[string]bool)
	var terms []string
	for _, t := range raw {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		key := strings.ToLower(t)
		if seen[key] {
			continue
		}
		seen[key] = true
		terms = append(terms, t)
	}

	if len(terms) == 0 {
		return nil, fmt.Errorf("terms file %s contains no search terms", path)
	}

	return terms, nil
}
