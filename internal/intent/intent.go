// Package intent classifies queries into a small closed set of intents that
// steer retrieval strategy selection. Classification is an ordered list of
// substring pattern groups over normalized text; the first matching group
// wins. The rule table is data, not code, and can be overridden from a YAML
// file.
package intent

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/shopchat/catalog/internal/textnorm"
)

// Intent is one label from the closed intent set.
type Intent string

const (
	IntentCount          Intent = "count"
	IntentPrice          Intent = "price"
	IntentAvailability   Intent = "availability"
	IntentCategory       Intent = "category"
	IntentDiscount       Intent = "discount"
	IntentRecommendation Intent = "recommendation"
	IntentGreeting       Intent = "greeting"
	IntentGift           Intent = "gift"
	IntentCleaning       Intent = "cleaning"
	IntentCosmetics      Intent = "cosmetics"
	IntentGeneral        Intent = "general"
)

// Rule is one pattern group: if any pattern is a substring of the
// normalized query, the rule's intent applies.
type Rule struct {
	Intent   Intent   `yaml:"intent"`
	Patterns []string `yaml:"patterns"`
}

// Classifier holds an ordered rule list and a synonym table.
type Classifier struct {
	rules    []Rule
	synonyms map[string][]string
}

// New creates a Classifier with the given rules. Nil rules means the
// built-in table.
func New(rules []Rule) *Classifier {
	if rules == nil {
		rules = DefaultRules()
	}
	return &Classifier{rules: rules, synonyms: defaultSynonyms}
}

// Classify returns the intent of the query. Same text, same intent: the
// classifier is pure and deterministic.
func (c *Classifier) Classify(query string) Intent {
	normalized := textnorm.Normalize(query)
	for _, rule := range c.rules {
		for _, pattern := range rule.Patterns {
			if pattern != "" && strings.Contains(normalized, pattern) {
				return rule.Intent
			}
		}
	}
	return IntentGeneral
}

// Expand widens a token list with known synonym surface forms, for a retry
// pass when the initial retrieval found nothing. Input tokens come first;
// duplicates are dropped.
func (c *Classifier) Expand(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	add := func(t string) {
		if _, dup := seen[t]; dup {
			return
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	for _, t := range tokens {
		add(t)
	}
	for _, t := range tokens {
		if alts, ok := c.synonyms[t]; ok {
			for _, alt := range alts {
				add(alt)
			}
		}
		for canonical, alts := range c.synonyms {
			for _, alt := range alts {
				if alt == t {
					add(canonical)
					break
				}
			}
		}
	}
	return out
}

// LoadRules reads an ordered rule list from a YAML file.
func LoadRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading intent rules %s: %w", path, err)
	}
	var rules []Rule
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("parsing intent rules %s: %w", path, err)
	}
	return rules, nil
}

