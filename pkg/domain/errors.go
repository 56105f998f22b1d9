package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNotFound is returned when no entity of a table carries the requested id.
	ErrNotFound = errors.New("relstore: entity not found")

	// ErrSchema is returned for configuration and usage errors: unsupported field types,
	// invalid names, unknown tables and filters on undeclared keys.
	ErrSchema = errors.New("relstore: schema error")

	// ErrValidation matches every *ValidationError via errors.Is.
	ErrValidation = errors.New("relstore: validation failed")
)

// FieldErrors maps a field name to its ordered validation messages.
// Fields without errors are omitted.
type FieldErrors map[string][]string

// Valid reports whether no field carries a message.
func (f FieldErrors) Valid() bool {
	for _, msgs := range f {
		if len(msgs) > 0 {
			return false
		}
	}
	return true
}

// Fields returns the names of the failing fields in lexical order.
func (f FieldErrors) Fields() []string {
	names := make([]string, 0, len(f))
	for name := range f {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidationError carries the per-field messages of a rejected entity.
type ValidationError struct {
	Table  string
	Fields FieldErrors
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, name := range e.Fields.Fields() {
		parts = append(parts, fmt.Sprintf("%s: %s", name, strings.Join(e.Fields[name], ", ")))
	}
	if e.Table == "" {
		return fmt.Sprintf("%s: %s", ErrValidation.Error(), strings.Join(parts, "; "))
	}
	return fmt.Sprintf("%s (%s): %s", ErrValidation.Error(), e.Table, strings.Join(parts, "; "))
}

// Is makes errors.Is(err, ErrValidation) hold for every ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// FieldErrorsOf extracts the field errors from err if it wraps a *ValidationError.
// Otherwise returns nil.
func FieldErrorsOf(err error) FieldErrors {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Fields
	}
	return nil
}
