// Package rules evaluates smart collection rules against single items.
//
// Matching policy: equals and contains are case-insensitive on free-text
// fields (brand, category, tags) and case-sensitive on the enumerated
// condition label. Ordering comparisons on non-numeric fields are false.
package rules

import (
	"strings"
	"time"

	"github.com/codyseavey/sneaker-tracker/internal/models"
)

// Validate checks a rule at creation time. Failures match models.ErrMalformedRule.
func Validate(rule models.SmartRule) error {
	return rule.Validate()
}

// Evaluate reports whether item satisfies rule. A malformed rule is an error,
// never a silent false.
func Evaluate(rule models.SmartRule, item models.ItemView) (bool, error) {
	if err := rule.Validate(); err != nil {
		return false, err
	}
	return evaluateValid(rule, item), nil
}

// evaluateValid assumes rule has been validated.
// An empty AND matches everything; an empty OR matches nothing.
func evaluateValid(rule models.SmartRule, item models.ItemView) bool {
	if rule.Operator == models.CombinatorOr {
		for _, cond := range rule.Conditions {
			if EvaluateCondition(cond, item) {
				return true
			}
		}
		return false
	}

	for _, cond := range rule.Conditions {
		if !EvaluateCondition(cond, item) {
			return false
		}
	}
	return true
}

// EvaluateCondition evaluates one already-validated condition.
func EvaluateCondition(cond models.RuleCondition, item models.ItemView) bool {
	switch cond.Field.Type() {
	case models.FieldTypeText:
		return compareText(textField(cond.Field, item), cond.Operator, cond.Value, false)
	case models.FieldTypeEnum:
		return compareText(string(item.Condition), cond.Operator, cond.Value, true)
	case models.FieldTypeNumber:
		return compareNumber(numberField(cond.Field, item), cond.Operator, cond.Value)
	case models.FieldTypeDate:
		if item.PurchaseDate == nil {
			return false
		}
		return compareDate(*item.PurchaseDate, cond.Operator, cond.Value)
	case models.FieldTypeTextSet:
		return compareSet(item.Tags, cond.Operator, cond.Value)
	}
	return false
}

// textField resolves free-text fields. Uses explicit switches, no reflection.
func textField(field models.RuleField, item models.ItemView) string {
	switch field {
	case models.FieldBrand:
		return item.Brand
	case models.FieldCategory:
		return item.Category
	}
	return ""
}

func numberField(field models.RuleField, item models.ItemView) float64 {
	switch field {
	case models.FieldValue:
		return item.ResolvedValue()
	case models.FieldWearCount:
		return float64(item.WearCount)
	}
	return 0
}

func compareText(actual string, op models.RuleOperator, operand models.Operand, caseSensitive bool) bool {
	expected := operand.Text()
	switch op {
	case models.OpEquals:
		if caseSensitive {
			return actual == expected
		}
		return strings.EqualFold(actual, expected)
	case models.OpContains:
		if caseSensitive {
			return strings.Contains(actual, expected)
		}
		return strings.Contains(strings.ToLower(actual), strings.ToLower(expected))
	}
	// greater_than / less_than on text are vacuously false
	return false
}

func compareNumber(actual float64, op models.RuleOperator, operand models.Operand) bool {
	switch op {
	case models.OpEquals:
		return actual == operand.Number()
	case models.OpGreaterThan:
		return actual > operand.Number()
	case models.OpLessThan:
		return actual < operand.Number()
	case models.OpBetween:
		lo, hi := operand.Range()
		return actual >= lo && actual <= hi
	}
	return false
}

func compareDate(actual time.Time, op models.RuleOperator, operand models.Operand) bool {
	switch op {
	case models.OpEquals:
		return sameDay(actual, operand.Date())
	case models.OpGreaterThan:
		return actual.After(operand.Date())
	case models.OpLessThan:
		return actual.Before(operand.Date())
	case models.OpBetween:
		from, to := operand.DateRange()
		// The upper bound covers its whole calendar day.
		return !actual.Before(from) && (!actual.After(to) || sameDay(actual, to))
	}
	return false
}

func sameDay(a, b time.Time) bool {
	a, b = a.UTC(), b.UTC()
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

func compareSet(tags []string, op models.RuleOperator, operand models.Operand) bool {
	switch op {
	case models.OpContains:
		if operand.Kind() == models.OperandSet {
			for _, want := range operand.Set() {
				if !containsFold(tags, want) {
					return false
				}
			}
			return true
		}
		return containsFold(tags, operand.Text())
	case models.OpEquals:
		if operand.Kind() == models.OperandText {
			return len(tags) == 1 && strings.EqualFold(tags[0], operand.Text())
		}
		return sameSetFold(tags, operand.Set())
	}
	return false
}

func containsFold(values []string, s string) bool {
	for _, v := range values {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

func sameSetFold(a, b []string) bool {
	left := make(map[string]struct{}, len(a))
	for _, v := range a {
		left[strings.ToLower(v)] = struct{}{}
	}
	right := make(map[string]struct{}, len(b))
	for _, v := range b {
		right[strings.ToLower(v)] = struct{}{}
	}
	if len(left) != len(right) {
		return false
	}
	for k := range left {
		if _, ok := right[k]; !ok {
			return false
		}
	}
	return true
}
