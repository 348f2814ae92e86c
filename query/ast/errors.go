package ast

import (
	"errors"
	"fmt"
)

// Error kinds shared by every consumer of the AST.
var (
	// ErrMalformedQuery is returned when a serialized query violates the wire schema.
	ErrMalformedQuery = errors.New("malformed query")

	// ErrEmptyGroup is returned when a condition group has no children.
	ErrEmptyGroup = errors.New("empty condition group")

	// ErrFieldNotFound is returned when a document lacks a referenced field.
	ErrFieldNotFound = errors.New("field not found")

	// ErrTypeMismatch is returned when an operator is applied to incompatible values.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrUnsupportedOperator is returned when a backend cannot evaluate an operator.
	ErrUnsupportedOperator = errors.New("unsupported operator")

	// ErrInvalidTable is returned when a table name is not a plain identifier.
	ErrInvalidTable = errors.New("invalid table name")
)

// MalformedQueryError reports a query that could not be decoded.
type MalformedQueryError struct {
	Input  string
	Reason string
	Cause  error
}

func (e *MalformedQueryError) Error() string {
	msg := "malformed query"
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	if e.Input != "" {
		msg += fmt.Sprintf(" (input: %s)", truncate(e.Input, 120))
	}
	return msg
}

func (e *MalformedQueryError) Unwrap() error { return e.Cause }

func (e *MalformedQueryError) Is(target error) bool { return target == ErrMalformedQuery }

// EmptyGroupError reports a condition group without children.
type EmptyGroupError struct {
	// Depth is the nesting level of the group, 1 for a top-level item.
	Depth int
}

func (e *EmptyGroupError) Error() string {
	return fmt.Sprintf("empty condition group at depth %d", e.Depth)
}

func (e *EmptyGroupError) Is(target error) bool { return target == ErrEmptyGroup }

// FieldNotFoundError reports a missing document field.
type FieldNotFoundError struct {
	Field string
}

func (e *FieldNotFoundError) Error() string {
	return fmt.Sprintf("field %q not found", e.Field)
}

func (e *FieldNotFoundError) Is(target error) bool { return target == ErrFieldNotFound }

// TypeMismatchError reports an operator applied to values of the wrong kind.
type TypeMismatchError struct {
	Field    string
	Operator Operator
	Expected string
	Value    any
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("type mismatch on field %q: %s expects %s, got %T", e.Field, e.Operator, e.Expected, e.Value)
}

func (e *TypeMismatchError) Is(target error) bool { return target == ErrTypeMismatch }

// UnsupportedOperatorError reports an operator a backend does not implement.
type UnsupportedOperatorError struct {
	Operator string
	Backend  string
}

func (e *UnsupportedOperatorError) Error() string {
	if e.Backend != "" {
		return fmt.Sprintf("unsupported operator %q in %s", e.Operator, e.Backend)
	}
	return fmt.Sprintf("unsupported operator %q", e.Operator)
}

func (e *UnsupportedOperatorError) Is(target error) bool { return target == ErrUnsupportedOperator }

// InvalidTableError reports a table name that cannot be emitted verbatim.
type InvalidTableError struct {
	Table string
}

func (e *InvalidTableError) Error() string {
	return fmt.Sprintf("invalid table name %q", e.Table)
}

func (e *InvalidTableError) Is(target error) bool { return target == ErrInvalidTable }

// IsMalformed checks if an error is a malformed query error.
func IsMalformed(err error) bool {
	return errors.Is(err, ErrMalformedQuery)
}

// IsFieldNotFound checks if an error is a missing field error.
func IsFieldNotFound(err error) bool {
	return errors.Is(err, ErrFieldNotFound)
}

// IsTypeMismatch checks if an error is a type mismatch error.
func IsTypeMismatch(err error) bool {
	return errors.Is(err, ErrTypeMismatch)
}

// IsUnsupportedOperator checks if an error is an unsupported operator error.
func IsUnsupportedOperator(err error) bool {
	return errors.Is(err, ErrUnsupportedOperator)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
