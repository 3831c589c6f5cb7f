package metadata

import (
	"errors"
	"fmt"
)

// Sentinel causes carried by ValidationError.
var (
	// ErrStatementExists is returned by ReplaceNothing updates that would
	// overwrite an existing statement.
	ErrStatementExists = errors.New("statement already set")

	// ErrLocale indicates a missing locale on a translatable property or a
	// locale given for a non-translatable one.
	ErrLocale = errors.New("invalid locale")

	// ErrValueKind indicates a value that does not match the property kind.
	ErrValueKind = errors.New("invalid value")
)

// UnknownPropertyError reports a statement key the schema does not declare.
type UnknownPropertyError struct {
	Schema   string
	Property string
}

func (e *UnknownPropertyError) Error() string {
	return fmt.Sprintf("property %q is not declared by schema %s", e.Property, e.Schema)
}

// CardinalityError reports a second value for a One-cardinality property.
type CardinalityError struct {
	Property string
	Locale   string
}

func (e *CardinalityError) Error() string {
	if e.Locale != "" {
		return fmt.Sprintf("property %q (%s) already has a value", e.Property, e.Locale)
	}
	return fmt.Sprintf("property %q already has a value", e.Property)
}

// ValidationError is returned by every rejected statement operation. The
// description is left in its pre-call state.
type ValidationError struct {
	Schema   string
	Property string
	Err      error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s.%s: %v", e.Schema, e.Property, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// IsUnknownProperty returns true if err was caused by an undeclared property.
func IsUnknownProperty(err error) bool {
	var upe *UnknownPropertyError
	return errors.As(err, &upe)
}

// IsCardinality returns true if err was caused by a cardinality violation.
func IsCardinality(err error) bool {
	var ce *CardinalityError
	return errors.As(err, &ce)
}
