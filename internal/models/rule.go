package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// RuleField names the item attribute a smart rule condition addresses
type RuleField string

const (
	FieldBrand        RuleField = "brand"
	FieldCategory     RuleField = "category"
	FieldValue        RuleField = "value"
	FieldCondition    RuleField = "condition"
	FieldWearCount    RuleField = "wear_count"
	FieldPurchaseDate RuleField = "purchase_date"
	FieldTags         RuleField = "tags"
)

// FieldType classifies fields by how they compare
type FieldType int

const (
	FieldTypeUnknown FieldType = iota
	FieldTypeText              // free text, compared case-insensitively
	FieldTypeEnum              // enumerated label, compared case-sensitively
	FieldTypeNumber
	FieldTypeDate
	FieldTypeTextSet
)

// Type returns how the field compares.
func (f RuleField) Type() FieldType {
	switch f {
	case FieldBrand, FieldCategory:
		return FieldTypeText
	case FieldCondition:
		return FieldTypeEnum
	case FieldValue, FieldWearCount:
		return FieldTypeNumber
	case FieldPurchaseDate:
		return FieldTypeDate
	case FieldTags:
		return FieldTypeTextSet
	}
	return FieldTypeUnknown
}

// RuleOperator is a condition comparison
type RuleOperator string

const (
	OpEquals      RuleOperator = "equals"
	OpContains    RuleOperator = "contains"
	OpGreaterThan RuleOperator = "greater_than"
	OpLessThan    RuleOperator = "less_than"
	OpBetween     RuleOperator = "between"
)

// Combinator joins the conditions of a rule
type Combinator string

const (
	CombinatorAnd Combinator = "AND"
	CombinatorOr  Combinator = "OR"
)

// SmartRule is a declarative membership predicate, evaluated fresh on every read.
type SmartRule struct {
	Operator   Combinator      `json:"operator"`
	Conditions []RuleCondition `json:"conditions"`
}

// RuleCondition compares one field against an operand.
type RuleCondition struct {
	Field    RuleField    `json:"field"`
	Operator RuleOperator `json:"operator"`
	Value    Operand      `json:"value"`
}

// OperandKind tags the active member of an Operand
type OperandKind int

const (
	OperandNone OperandKind = iota
	OperandText
	OperandNumber
	OperandDate
	OperandRange
	OperandDateRange
	OperandSet
)

func (k OperandKind) String() string {
	switch k {
	case OperandText:
		return "text"
	case OperandNumber:
		return "number"
	case OperandDate:
		return "date"
	case OperandRange:
		return "range"
	case OperandDateRange:
		return "date range"
	case OperandSet:
		return "set"
	}
	return "none"
}

// Operand is the comparison value of a condition. It is a tagged union:
// only the member selected by Kind is meaningful, and values are built
// through the constructors below.
type Operand struct {
	kind   OperandKind
	text   string
	number float64
	lo, hi float64
	from   time.Time
	to     time.Time
	set    []string
}

// Operand constructors, one per union member.

func TextOperand(s string) Operand { return Operand{kind: OperandText, text: s} }
func NumberOperand(n float64) Operand { return Operand{kind: OperandNumber, number: n} }
func DateOperand(t time.Time) Operand { return Operand{kind: OperandDate, from: t} }
func RangeOperand(lo, hi float64) Operand {
	return Operand{kind: OperandRange, lo: lo, hi: hi}
}
func DateRangeOperand(from, to time.Time) Operand {
	return Operand{kind: OperandDateRange, from: from, to: to}
}
func SetOperand(values ...string) Operand {
	return Operand{kind: OperandSet, set: append([]string(nil), values...)}
}

func (o Operand) Kind() OperandKind { return o.kind }
func (o Operand) Text() string { return o.text }
func (o Operand) Number() float64 { return o.number }
func (o Operand) Date() time.Time { return o.from }
func (o Operand) Range() (float64, float64) { return o.lo, o.hi }
func (o Operand) DateRange() (time.Time, time.Time) { return o.from, o.to }
func (o Operand) Set() []string { return o.set }

const operandDateLayout = "2006-01-02"

// MarshalJSON encodes the active member.
func (o Operand) MarshalJSON() ([]byte, error) {
	switch o.kind {
	case OperandText:
		return json.Marshal(o.text)
	case OperandNumber:
		return json.Marshal(o.number)
	case OperandDate:
		return json.Marshal(o.from.Format(operandDateLayout))
	case OperandRange:
		return json.Marshal([2]float64{o.lo, o.hi})
	case OperandDateRange:
		return json.Marshal([2]string{o.from.Format(operandDateLayout), o.to.Format(operandDateLayout)})
	case OperandSet:
		if o.set == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(o.set)
	}
	return []byte("null"), nil
}

// UnmarshalJSON decodes a rule and reports decode problems as *RuleError.
func (r *SmartRule) UnmarshalJSON(data []byte) error {
	var raw struct {
		Operator   Combinator        `json:"operator"`
		Conditions []json.RawMessage `json:"conditions"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return &RuleError{Index: -1, Reason: err.Error()}
	}

	conditions := make([]RuleCondition, 0, len(raw.Conditions))
	for i, rc := range raw.Conditions {
		cond, err := decodeCondition(i, rc)
		if err != nil {
			return err
		}
		conditions = append(conditions, cond)
	}

	r.Operator = Combinator(strings.ToUpper(string(raw.Operator)))
	r.Conditions = conditions
	return nil
}

// UnmarshalJSON decodes a single condition.
func (c *RuleCondition) UnmarshalJSON(data []byte) error {
	cond, err := decodeCondition(0, data)
	if err != nil {
		return err
	}
	*c = cond
	return nil
}

func decodeCondition(index int, data []byte) (RuleCondition, error) {
	var raw struct {
		Field    RuleField       `json:"field"`
		Operator RuleOperator    `json:"operator"`
		Value    json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return RuleCondition{}, &RuleError{Index: index, Reason: err.Error()}
	}

	operand, err := decodeOperand(raw.Field, raw.Operator, raw.Value)
	if err != nil {
		return RuleCondition{}, &RuleError{Index: index, Field: raw.Field, Operator: raw.Operator, Reason: err.Error()}
	}

	return RuleCondition{Field: raw.Field, Operator: raw.Operator, Value: operand}, nil
}

// decodeOperand picks the union member from the field type and operator,
// so "between" always yields a two-bound range.
func decodeOperand(field RuleField, op RuleOperator, raw json.RawMessage) (Operand, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return Operand{}, nil
	}

	if op == OpBetween {
		var bounds []json.RawMessage
		if err := json.Unmarshal(raw, &bounds); err != nil {
			return Operand{}, errors.New("between requires a two-element array")
		}
		if len(bounds) != 2 {
			return Operand{}, fmt.Errorf("between requires exactly two bounds, got %d", len(bounds))
		}
		for _, b := range bounds {
			if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
				return Operand{}, errors.New("between bound is missing")
			}
		}
		if field.Type() == FieldTypeDate {
			from, err := decodeDate(bounds[0])
			if err != nil {
				return Operand{}, err
			}
			to, err := decodeDate(bounds[1])
			if err != nil {
				return Operand{}, err
			}
			return DateRangeOperand(from, to), nil
		}
		var lo, hi float64
		if err := json.Unmarshal(bounds[0], &lo); err != nil {
			return Operand{}, errors.New("between bounds must be numbers")
		}
		if err := json.Unmarshal(bounds[1], &hi); err != nil {
			return Operand{}, errors.New("between bounds must be numbers")
		}
		return RangeOperand(lo, hi), nil
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return Operand{}, err
		}
		if field.Type() == FieldTypeDate {
			t, err := parseOperandDate(s)
			if err != nil {
				return Operand{}, err
			}
			return DateOperand(t), nil
		}
		return TextOperand(s), nil
	case '[':
		var set []string
		if err := json.Unmarshal(raw, &set); err != nil {
			return Operand{}, errors.New("list values must be strings")
		}
		return SetOperand(set...), nil
	default:
		var n float64
		if err := json.Unmarshal(raw, &n); err != nil {
			return Operand{}, fmt.Errorf("unsupported value %s", string(raw))
		}
		return NumberOperand(n), nil
	}
}

func decodeDate(raw json.RawMessage) (time.Time, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return time.Time{}, errors.New("date bounds must be strings")
	}
	return parseOperandDate(s)
}

func parseOperandDate(s string) (time.Time, error) {
	if t, err := time.Parse(operandDateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return t, nil
}

// ParseSmartRule decodes and validates a rule. Every failure matches ErrMalformedRule.
func ParseSmartRule(data []byte) (SmartRule, error) {
	var rule SmartRule
	if err := json.Unmarshal(data, &rule); err != nil {
		var ruleErr *RuleError
		if errors.As(err, &ruleErr) {
			return SmartRule{}, ruleErr
		}
		return SmartRule{}, &RuleError{Index: -1, Reason: err.Error()}
	}
	if err := rule.Validate(); err != nil {
		return SmartRule{}, err
	}
	return rule, nil
}

// Validate checks the combinator and every condition's field/operator/operand
// combination. It returns a *RuleError for the first problem found.
func (r SmartRule) Validate() error {
	switch r.Operator {
	case CombinatorAnd, CombinatorOr:
	default:
		return &RuleError{Index: -1, Reason: fmt.Sprintf("unknown combinator %q", r.Operator)}
	}
	for i, c := range r.Conditions {
		if err := c.validate(i); err != nil {
			return err
		}
	}
	return nil
}

func (c RuleCondition) validate(index int) error {
	fail := func(format string, args ...any) error {
		return &RuleError{Index: index, Field: c.Field, Operator: c.Operator, Reason: fmt.Sprintf(format, args...)}
	}

	ft := c.Field.Type()
	if ft == FieldTypeUnknown {
		return fail("unknown field")
	}
	kind := c.Value.Kind()

	switch c.Operator {
	case OpEquals:
		switch {
		case (ft == FieldTypeText || ft == FieldTypeEnum) && kind == OperandText:
		case ft == FieldTypeNumber && kind == OperandNumber:
		case ft == FieldTypeDate && kind == OperandDate:
		case ft == FieldTypeTextSet && (kind == OperandText || kind == OperandSet):
		default:
			return fail("equals cannot compare this field with a %s value", kind)
		}
	case OpContains:
		switch ft {
		case FieldTypeText, FieldTypeEnum:
			if kind != OperandText {
				return fail("contains needs a text value, got %s", kind)
			}
		case FieldTypeTextSet:
			if kind != OperandText && kind != OperandSet {
				return fail("contains needs a text or list value, got %s", kind)
			}
		default:
			return fail("contains is only valid on string or string-set fields")
		}
	case OpGreaterThan, OpLessThan:
		switch ft {
		case FieldTypeNumber:
			if kind != OperandNumber {
				return fail("%s needs a number, got %s", c.Operator, kind)
			}
		case FieldTypeDate:
			if kind != OperandDate {
				return fail("%s needs a date, got %s", c.Operator, kind)
			}
		default:
			// Non-numeric fields evaluate to false, but a value is still required.
			if kind == OperandNone {
				return fail("missing value")
			}
		}
	case OpBetween:
		switch ft {
		case FieldTypeNumber:
			if kind != OperandRange {
				return fail("between needs two numeric bounds, got %s", kind)
			}
			if !(c.Value.lo <= c.Value.hi) {
				return fail("lower bound %v exceeds upper bound %v", c.Value.lo, c.Value.hi)
			}
		case FieldTypeDate:
			if kind != OperandDateRange {
				return fail("between needs two date bounds, got %s", kind)
			}
			if c.Value.from.After(c.Value.to) {
				return fail("lower bound %s is after upper bound %s",
					c.Value.from.Format(operandDateLayout), c.Value.to.Format(operandDateLayout))
			}
		default:
			return fail("between is only valid on numeric or date fields")
		}
	default:
		return fail("unknown operator")
	}
	return nil
}
