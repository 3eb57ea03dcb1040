package models

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedRule is returned when a smart rule has an invalid
	// field/operator/value combination.
	ErrMalformedRule = errors.New("malformed smart rule")

	// ErrFetchFailed is returned when the record store could not return data.
	ErrFetchFailed = errors.New("record fetch failed")

	// ErrNotFound is returned when a referenced record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrInvalidCriteria is returned when filter/sort criteria are contradictory
	// or use unknown keys.
	ErrInvalidCriteria = errors.New("invalid criteria")
)

// RuleError describes why a smart rule was rejected.
// Index is the position of the offending condition, or -1 for rule-level problems.
type RuleError struct {
	Index    int
	Field    RuleField
	Operator RuleOperator
	Reason   string
}

// Error implements the error interface.
func (e *RuleError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%s: %s", ErrMalformedRule, e.Reason)
	}
	return fmt.Sprintf("%s: condition %d (%s %s): %s", ErrMalformedRule, e.Index, e.Field, e.Operator, e.Reason)
}

// Is makes errors.Is(err, ErrMalformedRule) match.
func (e *RuleError) Is(target error) bool {
	return target == ErrMalformedRule
}

// FetchError wraps a failure of the record-fetch collaborator.
type FetchError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", ErrFetchFailed, e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %s", ErrFetchFailed, e.Op)
}

// Unwrap returns the underlying error.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrFetchFailed) match.
func (e *FetchError) Is(target error) bool {
	return target == ErrFetchFailed
}

func criteriaError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidCriteria, fmt.Sprintf(format, args...))
}
