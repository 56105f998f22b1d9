package validation

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Min accepts numbers greater than or equal to n. nil passes; non-numeric values and
// NaN fail.
func Min(n float64) Validator {
	msg := "should be more or equal to " + formatNumber(n)
	return func(value any) (string, bool) {
		if value == nil {
			return "", true
		}
		f, ok := Number(value)
		if !ok || math.IsNaN(f) || f < n {
			return msg, false
		}
		return "", true
	}
}

// Max accepts numbers less than or equal to n. nil passes; non-numeric values and
// NaN fail.
func Max(n float64) Validator {
	msg := "should be less or equal to " + formatNumber(n)
	return func(value any) (string, bool) {
		if value == nil {
			return "", true
		}
		f, ok := Number(value)
		if !ok || math.IsNaN(f) || f > n {
			return msg, false
		}
		return "", true
	}
}

// MaxLength rejects strings, slices and maps longer than n.
// Values without a length are rejected with a distinct message.
func MaxLength(n int) Validator {
	return func(value any) (string, bool) {
		if value == nil {
			return "", true
		}
		l, ok := length(value)
		if !ok {
			return "can't limit a max length: length is undefined", false
		}
		if l > n {
			return "max length exceeded", false
		}
		return "", true
	}
}

// MinLength rejects strings, slices and maps shorter than n.
// Values without a length are rejected with a distinct message.
func MinLength(n int) Validator {
	return func(value any) (string, bool) {
		if value == nil {
			return "", true
		}
		l, ok := length(value)
		if !ok {
			return "can't limit a min length: length is undefined", false
		}
		if l < n {
			return "min length exceeded", false
		}
		return "", true
	}
}

// OneOf accepts values equal to one of the candidates (see Equal).
// The message lists the candidates verbatim: "should be one of [fiction,non-fiction]".
func OneOf(candidates ...any) Validator {
	parts := make([]string, len(candidates))
	for i, c := range candidates {
		parts[i] = fmt.Sprint(c)
	}
	msg := "should be one of [" + strings.Join(parts, ",") + "]"

	return func(value any) (string, bool) {
		for _, c := range candidates {
			if Equal(value, c) {
				return "", true
			}
		}
		return msg, false
	}
}

// Pattern accepts strings matching re. nil passes; non-strings fail.
func Pattern(re *regexp.Regexp) Validator {
	msg := "should match " + re.String()
	return func(value any) (string, bool) {
		if value == nil {
			return "", true
		}
		s, ok := value.(string)
		if !ok || !re.MatchString(s) {
			return msg, false
		}
		return "", true
	}
}

func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}
