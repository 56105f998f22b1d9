package schema

import "github.com/aretw0/relstore/pkg/validation"

// Definition is a raw schema: a named set of tables.
type Definition struct {
	Name   string
	Tables map[string]TableDefinition
}

// TableDefinition maps field names to their definitions.
type TableDefinition map[string]FieldDefinition

// FieldDefinition describes one field of a table.
//
// The compiled chain is the type validator, then the validators built from
// Constraints, then Validators, in declared order.
type FieldDefinition struct {
	Type        Type
	Constraints []Constraint
	Validators  []validation.Validator
	Default     DefaultValue
}
