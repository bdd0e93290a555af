package recurrence

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRule is returned for every rule that fails parsing or validation.
	ErrInvalidRule = errors.New("invalid recurrence rule")
	// ErrUnsupportedCombination is returned when a BY* part is not allowed with
	// the rule's frequency. It wraps ErrInvalidRule.
	ErrUnsupportedCombination = fmt.Errorf("%w: unsupported combination", ErrInvalidRule)
)

// RuleError names the rule part that failed validation.
type RuleError struct {
	Field  string // RRULE part name, e.g. "BYDAY"
	Value  string // offending value, may be empty
	Reason string
	Err    error // ErrInvalidRule or ErrUnsupportedCombination
}

func (e *RuleError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("%v: %s=%s: %s", e.Err, e.Field, e.Value, e.Reason)
	}
	return fmt.Sprintf("%v: %s: %s", e.Err, e.Field, e.Reason)
}

func (e *RuleError) Unwrap() error {
	return e.Err
}

func invalid(field, value, reason string) *RuleError {
	return &RuleError{Field: field, Value: value, Reason: reason, Err: ErrInvalidRule}
}

func unsupported(field, reason string) *RuleError {
	return &RuleError{Field: field, Reason: reason, Err: ErrUnsupportedCombination}
}
