package validation

import (
	"math"
	"reflect"
	"unicode/utf8"
)

// jsonNumber is satisfied by encoding/json.Number and by the decoders that mirror it.
type jsonNumber interface {
	Int64() (int64, error)
	Float64() (float64, error)
	String() string
}

// Number converts numeric values to float64. Booleans and numeric strings are not
// numbers.
func Number(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case jsonNumber:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// exactInt converts integral values to int64 without going through float64.
func exactInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), uint64(n) <= math.MaxInt64
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return int64(n), n <= math.MaxInt64
	case jsonNumber:
		i, err := n.Int64()
		return i, err == nil
	default:
		return 0, false
	}
}

// Equal reports exact value equality. Numbers compare by value regardless of their Go
// type, so int(1996), int64(1996) and float64(1996) are equal. Other values must share
// the same comparable type. Maps and slices are never equal: the comparison is not
// structural.
func Equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	fa, aNum := Number(a)
	fb, bNum := Number(b)
	if aNum || bNum {
		if !aNum || !bNum {
			return false
		}
		ia, aInt := exactInt(a)
		ib, bInt := exactInt(b)
		if aInt && bInt {
			return ia == ib
		}
		return fa == fb
	}

	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	// Value.Comparable also inspects dynamic contents, such as a slice held in an
	// interface field.
	if va.Type() != vb.Type() || !va.Comparable() || !vb.Comparable() {
		return false
	}
	return a == b
}

// length measures strings in runes and slices, arrays and maps by element count.
func length(v any) (int, bool) {
	if s, ok := v.(string); ok {
		return utf8.RuneCountInString(s), true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len(), true
	default:
		return 0, false
	}
}
