package schema

import (
	"fmt"
	"strings"

	"github.com/aretw0/relstore/pkg/domain"
	"github.com/aretw0/relstore/pkg/validation"
)

// Type tags the primitive kind of a field.
type Type string

// Built-in types.
const (
	String  Type = "string"
	Integer Type = "integer"
	Boolean Type = "boolean"
)

var typeValidators = map[Type]validation.Validator{
	String:  validation.RequireString,
	Integer: validation.RequireInteger,
	Boolean: validation.RequireBoolean,
}

// Types lists the supported type tags.
func Types() []Type {
	return []Type{String, Integer, Boolean}
}

// Valid reports whether t is a supported type tag.
func (t Type) Valid() bool {
	_, ok := typeValidators[t]
	return ok
}

// TypeValidator returns the built-in validator for t.
func TypeValidator(t Type) (validation.Validator, error) {
	v, ok := typeValidators[t]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported type: %s", domain.ErrSchema, t)
	}
	return v, nil
}

// ParseType converts a type name to a Type.
// Supports the canonical tags plus the aliases "int" and "bool".
func ParseType(name string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "string", "str":
		return String, nil
	case "integer", "int":
		return Integer, nil
	case "boolean", "bool":
		return Boolean, nil
	default:
		return "", fmt.Errorf("%w: unsupported type: %s", domain.ErrSchema, name)
	}
}
