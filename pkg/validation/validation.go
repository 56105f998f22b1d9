package validation

// Validator checks a single value. It returns a human-readable message and false when
// the value is rejected, or "" and true when it is accepted.
// Validators never panic and hold no state.
type Validator func(value any) (msg string, ok bool)

// wrap turns a predicate into a Validator that treats nil as "no opinion".
func wrap(fn func(any) bool, msg string) Validator {
	return func(value any) (string, bool) {
		if value == nil || fn(value) {
			return "", true
		}
		return msg, false
	}
}

// Present rejects nil, which covers both a missing field and an explicit null.
// Falsy values such as 0, false and "" are present.
func Present(value any) (string, bool) {
	if value == nil {
		return "should be present", false
	}
	return "", true
}

// Or accepts the value when either v1 or v2 accepts it. On joint failure both
// messages are joined as "err1, err2".
//
//	outerRange := validation.Or(validation.MinLength(10), validation.MaxLength(2))
func Or(v1, v2 Validator) Validator {
	return func(value any) (string, bool) {
		msg1, ok := v1(value)
		if ok {
			return "", true
		}
		msg2, ok := v2(value)
		if ok {
			return "", true
		}
		return msg1 + ", " + msg2, false
	}
}

// Run applies every validator to value in order, without short-circuiting, and
// collects the messages of the ones that fail. The result is valid iff no message
// was collected.
func Run(value any, validators []Validator) ([]string, bool) {
	var msgs []string
	for _, v := range validators {
		if msg, ok := v(value); !ok {
			msgs = append(msgs, msg)
		}
	}
	return msgs, len(msgs) == 0
}

// Check is an alias of Run.
func Check(value any, validators ...Validator) ([]string, bool) {
	return Run(value, validators)
}
