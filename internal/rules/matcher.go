package rules

import (
	"github.com/codyseavey/sneaker-tracker/internal/models"
)

// Matcher evaluates one validated rule over many items and memoizes the
// result per item id. Use one Matcher per pass over a snapshot; it is not
// safe for concurrent use.
type Matcher struct {
	rule  models.SmartRule
	cache map[string]bool
}

// NewMatcher validates rule once up front.
func NewMatcher(rule models.SmartRule) (*Matcher, error) {
	if err := rule.Validate(); err != nil {
		return nil, err
	}
	return &Matcher{rule: rule, cache: make(map[string]bool)}, nil
}

// Match reports whether item satisfies the rule. Items without an id are
// evaluated but not cached.
func (m *Matcher) Match(item models.ItemView) bool {
	if item.ID == "" {
		return evaluateValid(m.rule, item)
	}
	if matched, ok := m.cache[item.ID]; ok {
		return matched
	}
	matched := evaluateValid(m.rule, item)
	m.cache[item.ID] = matched
	return matched
}
