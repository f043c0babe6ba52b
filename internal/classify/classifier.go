package classify

import (
	"strings"

	"github.com/jask/expensetracker/internal/statement"
)

// ClassifiedTransaction is a canonical transaction with its budget labels. Notes is never set by
// the pipeline.
type ClassifiedTransaction struct {
	statement.CanonicalTransaction
	Category    string
	Subcategory string
	Notes       string
}

// Classifier evaluates rules top to bottom; the first match wins.
type Classifier struct {
	rules []compiledRule
}

type compiledRule struct {
	needle      string
	subcategory string
	scope       Scope
}

// New builds a classifier over rules, which must pass Validate.
func New(rules []Rule) (*Classifier, error) {
	if err := Validate(rules); err != nil {
		return nil, err
	}
	c := &Classifier{rules: make([]compiledRule, len(rules))}
	for i, r := range rules {
		label, _ := canonicalLabel(r.Subcategory)
		scope := r.Scope
		if scope == "" {
			scope = ScopeAny
		}
		c.rules[i] = compiledRule{needle: strings.ToLower(strings.TrimSpace(r.Pattern)), subcategory: label, scope: scope}
	}
	return c, nil
}

// Default returns a classifier over DefaultRules.
func Default() *Classifier {
	c, err := New(DefaultRules())
	if err != nil {
		panic(err) // static table
	}
	return c
}

// Classify labels tx. Category is the mapped raw category. Subcategory is the raw subcategory
// when it is a known label, else the first rule matching the category, else the first rule
// matching the description, else Unselected.
func (c *Classifier) Classify(tx statement.CanonicalTransaction) ClassifiedTransaction {
	out := ClassifiedTransaction{CanonicalTransaction: tx, Category: tx.RawCategory}
	if label, ok := canonicalLabel(tx.RawSubcategory); ok {
		out.Subcategory = label
		return out
	}
	if sub, ok := c.match(tx.RawCategory, ScopeCategory); ok {
		out.Subcategory = sub
		return out
	}
	if sub, ok := c.match(tx.Description, ScopeDescription); ok {
		out.Subcategory = sub
		return out
	}
	out.Subcategory = Unselected
	return out
}

func (c *Classifier) match(text string, scope Scope) (string, bool) {
	if text == "" {
		return "", false
	}
	hay := strings.ToLower(text)
	for _, r := range c.rules {
		if r.scope != scope && r.scope != ScopeAny {
			continue
		}
		if strings.Contains(hay, r.needle) {
			return r.subcategory, true
		}
	}
	return "", false
}
