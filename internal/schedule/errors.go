package schedule

import (
	"errors"
	"fmt"
)

// ErrInvalidTime is wrapped by every Time Normalizer failure.
var ErrInvalidTime = errors.New("invalid time")

// PatternError explains why a meeting pattern produced no record.
type PatternError struct {
	Pattern string
	Reason  string
	Err     error
}

func invalidPattern(pattern, reason string) *PatternError {
	return &PatternError{Pattern: pattern, Reason: reason}
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("invalid meeting pattern %q: %s", e.Pattern, e.Reason)
}

func (e *PatternError) Unwrap() error {
	return e.Err
}

func (e *PatternError) WithCause(err error) *PatternError {
	e.Err = err
	return e
}

// RecordError reports a record that failed validation.
type RecordError struct {
	Index   int
	Section string
	Err     error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("course %d (%s): %v", e.Index, e.Section, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}
