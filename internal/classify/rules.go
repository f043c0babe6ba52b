// Package classify assigns budget subcategories to canonical transactions from an ordered table of
// substring rules.
package classify

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Budget labels.
const (
	Needs      = "Needs"
	Wants      = "Wants"
	Savings    = "Savings"
	Income     = "Income"
	Transfer   = "Transfer"
	Unselected = "Unselected"
)

// Labels lists every subcategory a rule may assign.
var Labels = []string{Needs, Wants, Savings, Income, Transfer, Unselected}

// Scope says which text a rule is matched against.
type Scope string

const (
	ScopeAny         Scope = "any"
	ScopeCategory    Scope = "category"
	ScopeDescription Scope = "description"
)

// Rule assigns Subcategory when Pattern occurs, case-insensitively, in the scoped text.
type Rule struct {
	Pattern     string `yaml:"pattern"`
	Subcategory string `yaml:"subcategory"`
	Scope       Scope  `yaml:"scope,omitempty"`
}

type rulesFile struct {
	Rules []Rule `yaml:"rules"`
}

// DefaultRules is the built-in table: the Chase category map first, then description heuristics.
func DefaultRules() []Rule {
	return []Rule{
		{Pattern: "Food & Drink", Subcategory: Wants, Scope: ScopeCategory},
		{Pattern: "Entertainment", Subcategory: Wants, Scope: ScopeCategory},
		{Pattern: "Groceries", Subcategory: Needs, Scope: ScopeCategory},
		{Pattern: "Gas", Subcategory: Needs, Scope: ScopeCategory},
		{Pattern: "Home", Subcategory: Needs, Scope: ScopeCategory},
		{Pattern: "Health & Wellness", Subcategory: Needs, Scope: ScopeCategory},
		{Pattern: "Automotive", Subcategory: Needs, Scope: ScopeCategory},
		{Pattern: "ACCT_XFER", Subcategory: Transfer, Scope: ScopeCategory},
		{Pattern: "ANYTIME FIT", Subcategory: Needs, Scope: ScopeDescription},
		{Pattern: "PAYROLL", Subcategory: Income, Scope: ScopeDescription},
		{Pattern: "TRANSFER TO SAV", Subcategory: Savings, Scope: ScopeDescription},
	}
}

// LoadRules reads a YAML rule table:
//
//	rules:
//	  - pattern: ANYTIME FIT
//	    subcategory: Needs
//	    scope: description
func LoadRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rules: %w", err)
	}
	var rf rulesFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parsing rules: %w", err)
	}
	if err := Validate(rf.Rules); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rf.Rules, nil
}

// Validate rejects rules that could never apply or that name an unknown label.
func Validate(rules []Rule) error {
	for i, r := range rules {
		if strings.TrimSpace(r.Pattern) == "" {
			return fmt.Errorf("rule %d: empty pattern", i+1)
		}
		if _, ok := canonicalLabel(r.Subcategory); !ok {
			return fmt.Errorf("rule %d (%s): unknown subcategory %q", i+1, r.Pattern, r.Subcategory)
		}
		switch r.Scope {
		case "", ScopeAny, ScopeCategory, ScopeDescription:
		default:
			return fmt.Errorf("rule %d (%s): unknown scope %q", i+1, r.Pattern, r.Scope)
		}
	}
	return nil
}

// canonicalLabel returns the label matching s case-insensitively.
func canonicalLabel(s string) (string, bool) {
	s = strings.TrimSpace(s)
	for _, l := range Labels {
		if strings.EqualFold(s, l) {
			return l, true
		}
	}
	return "", false
}
