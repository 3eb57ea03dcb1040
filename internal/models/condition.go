package models

import (
	"strings"
)

// Condition is the wear grade recorded for a held pair.
type Condition string

const (
	ConditionDeadstock Condition = "DS"        // Unworn, original box and tags
	ConditionVNDS      Condition = "VNDS"      // Very near deadstock, tried on or worn once
	ConditionExcellent Condition = "EXCELLENT" // Light wear, no creasing
	ConditionGood      Condition = "GOOD"      // Visible wear, clean uppers
	ConditionFair      Condition = "FAIR"      // Heavy wear, sole wear
	ConditionBeater    Condition = "BEATER"    // Daily beaters
)

// AllConditions returns all valid condition labels, best first
func AllConditions() []Condition {
	return []Condition{
		ConditionDeadstock,
		ConditionVNDS,
		ConditionExcellent,
		ConditionGood,
		ConditionFair,
		ConditionBeater,
	}
}

// IsValid reports whether c is one of the enumerated labels.
// Labels are compared case-sensitively.
func (c Condition) IsValid() bool {
	for _, known := range AllConditions() {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCondition maps the free-form labels users and older app versions
// send to a Condition. The second return value is false for unknown input.
func ParseCondition(label string) (Condition, bool) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "ds", "deadstock", "dead stock", "new", "brand new", "bnib":
		return ConditionDeadstock, true
	case "vnds", "very near deadstock", "like new", "worn once":
		return ConditionVNDS, true
	case "excellent", "ex", "lightly worn":
		return ConditionExcellent, true
	case "good", "gd", "used":
		return ConditionGood, true
	case "fair", "worn", "heavily worn":
		return ConditionFair, true
	case "beater", "beat", "beaters":
		return ConditionBeater, true
	default:
		return "", false
	}
}
