package service

import "fmt"

// InvalidInputError reports a borrower record field that cannot be
// evaluated, typically a missing or non-positive denominator. The field
// name matches the JSON name of the offending field.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input: %s %s", e.Field, e.Reason)
}

func invalidInput(field, reason string) error {
	return &InvalidInputError{Field: field, Reason: reason}
}
