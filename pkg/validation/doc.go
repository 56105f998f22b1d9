// Package validation provides composable field validators.
//
// A Validator is a pure function of one value returning a message and a validity flag.
// Type validators (RequireString, RequireInteger, RequireBoolean) and most bounds treat
// nil as "no opinion"; Present is the one validator that rejects absence.
//
//	title := []validation.Validator{validation.Present, validation.MaxLength(32)}
//	msgs, ok := validation.Run("War And Peace", title)
//
// Combinators build validators from other validators:
//
//	outerRange := validation.Or(validation.MinLength(10), validation.MaxLength(4))
package validation
