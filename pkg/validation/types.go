package validation

import "math"

// RequireString accepts nil and string values.
var RequireString = wrap(isString, "should be a string")

// RequireInteger accepts nil and integral numbers. Booleans are rejected.
var RequireInteger = wrap(isInteger, "should be an integer")

// RequireBoolean accepts nil and bool values.
var RequireBoolean = wrap(isBoolean, "should be a boolean")

func isString(v any) bool {
	_, ok := v.(string)
	return ok
}

func isBoolean(v any) bool {
	_, ok := v.(bool)
	return ok
}

func isInteger(v any) bool {
	switch n := v.(type) {
	case bool:
		return false
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	case float32:
		return isWhole(float64(n))
	case float64:
		return isWhole(n)
	case jsonNumber:
		if _, err := n.Int64(); err == nil {
			return true
		}
		f, err := n.Float64()
		return err == nil && isWhole(f)
	default:
		return false
	}
}

func isWhole(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0) && f == math.Trunc(f)
}
