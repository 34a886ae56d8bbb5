package model

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidRule     = errors.New("model: invalid recurrence rule")
	ErrInvalidInterval = errors.New("model: invalid time interval")
)

// RuleError reports a malformed recurrence rule. It matches ErrInvalidRule.
type RuleError struct {
	Field  string
	Reason string
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrInvalidRule, e.Field, e.Reason)
}

func (e *RuleError) Unwrap() error { return ErrInvalidRule }

// IntervalError reports a timed event whose start is not before its end.
// It matches ErrInvalidInterval.
type IntervalError struct {
	EventID string
	Start   Clock
	End     Clock
}

func (e *IntervalError) Error() string {
	return fmt.Sprintf("%s: event %q spans %s-%s", ErrInvalidInterval, e.EventID, e.Start, e.End)
}

func (e *IntervalError) Unwrap() error { return ErrInvalidInterval }
