// Package schema compiles table definitions into validator chains and default resolvers.
//
// A Definition names a schema and its tables. Each field declares a Type, optional
// declarative Constraints, opaque validators and a DefaultValue:
//
//	def := schema.Definition{
//	    Name: "books_schema",
//	    Tables: map[string]schema.TableDefinition{
//	        "books": {
//	            "title": {Type: schema.String, Validators: []validation.Validator{
//	                validation.Present, validation.MaxLength(32),
//	            }},
//	            "year":  {Type: schema.Integer},
//	            "genre": {Type: schema.String, Default: schema.Literal("fiction")},
//	        },
//	    },
//	}
//
//	compiled, err := schema.Compile(def)
//
// Definitions can also be read from YAML or JSON files with ParseFile; constraints
// there use the {type: kind, value: v} form.
//
// By default only missing or nil values are defaulted. WithDefaultPolicy(DefaultWhenFalsy)
// also replaces false, 0 and "".
package schema
