package schema

import (
	"fmt"
	"math"

	"github.com/aretw0/relstore/pkg/domain"
)

// DefaultValue is either a literal or a producer invoked on every resolution.
// The zero value means "no default".
type DefaultValue struct {
	literal  any
	producer func() any
	set      bool
}

// Literal returns a default that always resolves to a copy of v.
func Literal(v any) DefaultValue {
	return DefaultValue{literal: v, set: true}
}

// Producer returns a default computed by fn each time it is needed.
func Producer(fn func() any) DefaultValue {
	if fn == nil {
		return DefaultValue{}
	}
	return DefaultValue{producer: fn, set: true}
}

// IsSet reports whether a default was declared.
func (d DefaultValue) IsSet() bool { return d.set }

// IsProducer reports whether the default is computed.
func (d DefaultValue) IsProducer() bool { return d.producer != nil }

// LiteralValue returns the literal, if the default is one.
func (d DefaultValue) LiteralValue() (any, bool) {
	if !d.set || d.producer != nil {
		return nil, false
	}
	return d.literal, true
}

// Resolve produces the default value.
func (d DefaultValue) Resolve() any {
	if d.producer != nil {
		return d.producer()
	}
	return domain.CloneValue(d.literal)
}

// DefaultPolicy decides when a field value counts as missing.
type DefaultPolicy int

const (
	// DefaultWhenAbsent fills only missing keys and nil values.
	DefaultWhenAbsent DefaultPolicy = iota
	// DefaultWhenFalsy also replaces false, 0, NaN and "".
	DefaultWhenFalsy
)

func (p DefaultPolicy) String() string {
	switch p {
	case DefaultWhenAbsent:
		return "absent"
	case DefaultWhenFalsy:
		return "falsy"
	default:
		return fmt.Sprintf("DefaultPolicy(%d)", int(p))
	}
}

// ParseDefaultPolicy reads "absent" or "falsy". The empty string is "absent".
func ParseDefaultPolicy(s string) (DefaultPolicy, error) {
	switch s {
	case "", "absent":
		return DefaultWhenAbsent, nil
	case "falsy":
		return DefaultWhenFalsy, nil
	default:
		return 0, fmt.Errorf("unknown default policy %q", s)
	}
}

// Missing reports whether v should be replaced by a default.
func (p DefaultPolicy) Missing(v any) bool {
	if v == nil {
		return true
	}
	return p == DefaultWhenFalsy && isFalsy(v)
}

func isFalsy(v any) bool {
	switch val := v.(type) {
	case bool:
		return !val
	case string:
		return val == ""
	case float64:
		return val == 0 || math.IsNaN(val)
	case float32:
		return val == 0 || math.IsNaN(float64(val))
	case int:
		return val == 0
	case int8:
		return val == 0
	case int16:
		return val == 0
	case int32:
		return val == 0
	case int64:
		return val == 0
	case uint:
		return val == 0
	case uint8:
		return val == 0
	case uint16:
		return val == 0
	case uint32:
		return val == 0
	case uint64:
		return val == 0
	default:
		return false
	}
}
