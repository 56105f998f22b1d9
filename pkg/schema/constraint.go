package schema

import (
	"fmt"
	"math"
	"regexp"

	"github.com/mitchellh/mapstructure"

	"github.com/aretw0/relstore/pkg/domain"
	"github.com/aretw0/relstore/pkg/validation"
)

// ConstraintKind names a declarative validator.
type ConstraintKind string

const (
	ConstraintPresent   ConstraintKind = "present"
	ConstraintMin       ConstraintKind = "min"
	ConstraintMax       ConstraintKind = "max"
	ConstraintMinLength ConstraintKind = "min_length"
	ConstraintMaxLength ConstraintKind = "max_length"
	ConstraintOneOf     ConstraintKind = "one_of"
	ConstraintPattern   ConstraintKind = "pattern"
	ConstraintOr        ConstraintKind = "or"
)

// Constraint is the serialisable form of a validator, as found in schema files:
//
//	{type: max_length, value: 32}
//	{type: or, value: [{type: min_length, value: 10}, {type: max_length, value: 4}]}
type Constraint struct {
	Kind  ConstraintKind `mapstructure:"type" json:"type" yaml:"type"`
	Value any            `mapstructure:"value" json:"value,omitempty" yaml:"value,omitempty"`
}

// Validator builds the validator the constraint stands for.
func (c Constraint) Validator() (validation.Validator, error) {
	switch c.Kind {
	case ConstraintPresent:
		return validation.Present, nil

	case ConstraintMin, ConstraintMax:
		n, ok := c.Number()
		if !ok {
			return nil, c.invalid("expected a number")
		}
		if c.Kind == ConstraintMin {
			return validation.Min(n), nil
		}
		return validation.Max(n), nil

	case ConstraintMinLength, ConstraintMaxLength:
		n, ok := c.Int()
		if !ok || n < 0 {
			return nil, c.invalid("expected a non-negative integer")
		}
		if c.Kind == ConstraintMinLength {
			return validation.MinLength(n), nil
		}
		return validation.MaxLength(n), nil

	case ConstraintOneOf:
		candidates, ok := c.Values()
		if !ok || len(candidates) == 0 {
			return nil, c.invalid("expected a non-empty list")
		}
		return validation.OneOf(candidates...), nil

	case ConstraintPattern:
		expr, ok := c.Value.(string)
		if !ok {
			return nil, c.invalid("expected a regular expression")
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, c.invalid(err.Error())
		}
		return validation.Pattern(re), nil

	case ConstraintOr:
		branches, err := c.Branches()
		if err != nil {
			return nil, err
		}
		if len(branches) < 2 {
			return nil, c.invalid("expected at least two constraints")
		}
		combined, err := branches[0].Validator()
		if err != nil {
			return nil, err
		}
		for _, b := range branches[1:] {
			next, err := b.Validator()
			if err != nil {
				return nil, err
			}
			combined = validation.Or(combined, next)
		}
		return combined, nil

	default:
		return nil, fmt.Errorf("%w: unknown constraint %q", domain.ErrSchema, c.Kind)
	}
}

// Number returns the value as a float64.
func (c Constraint) Number() (float64, bool) {
	n, ok := validation.Number(c.Value)
	if !ok || math.IsNaN(n) {
		return 0, false
	}
	return n, true
}

// Int returns the value as an int when it is a whole number.
func (c Constraint) Int() (int, bool) {
	n, ok := c.Number()
	if !ok || n != math.Trunc(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return int(n), true
}

// Values returns the value as a list.
func (c Constraint) Values() ([]any, bool) {
	switch v := c.Value.(type) {
	case []any:
		return v, true
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out, true
	default:
		return nil, false
	}
}

// Branches decodes the nested constraints of an "or" constraint.
func (c Constraint) Branches() ([]Constraint, error) {
	if nested, ok := c.Value.([]Constraint); ok {
		return nested, nil
	}
	raw, ok := c.Values()
	if !ok {
		return nil, c.invalid("expected a list of constraints")
	}
	branches := make([]Constraint, 0, len(raw))
	for i, item := range raw {
		if nested, ok := item.(Constraint); ok {
			branches = append(branches, nested)
			continue
		}
		var nested Constraint
		if err := mapstructure.Decode(item, &nested); err != nil {
			return nil, c.invalid(fmt.Sprintf("branch %d: %v", i, err))
		}
		branches = append(branches, nested)
	}
	return branches, nil
}

func (c Constraint) invalid(reason string) error {
	return fmt.Errorf("%w: constraint %q: %s", domain.ErrSchema, c.Kind, reason)
}
