/*
Package relstore is a schema-validated entity store on top of a plain key-value blob store.

A schema declares tables and their typed fields. Each field carries a chain of validators
and an optional default. relstore compiles the schema once and hands back, per table, an
API to build, validate, save, find, destroy and filter entities. Every table is persisted as
one JSON array under a single key of the backing store.

# Key Features

  - Composable Validation: Type checks plus validators such as Present, MaxLength or Or.
  - Defaults: Literal values or producers, applied before validation.
  - Pluggable Storage: Any ports.KV; memory, file, Redis, SQLite and DynamoDB adapters are provided.
  - Explicit Errors: Validation, not-found and schema failures are distinct, testable error values.

# Usage

	package main

	import (
		"context"
		"fmt"
		"log"

		"github.com/aretw0/relstore"
		"github.com/aretw0/relstore/pkg/adapters/memory"
		"github.com/aretw0/relstore/pkg/domain"
		"github.com/aretw0/relstore/pkg/schema"
		"github.com/aretw0/relstore/pkg/validation"
	)

	func main() {
		store, err := relstore.Define(memory.NewStore(), schema.Definition{
			Name: "books_schema",
			Tables: map[string]schema.TableDefinition{
				"books": {
					"title": {Type: relstore.Types.String, Validators: []validation.Validator{validation.Present}},
					"genre": {Type: relstore.Types.String, Default: schema.Literal("fiction")},
				},
			},
		})
		if err != nil {
			log.Fatal(err)
		}

		books, _ := store.Table("books")
		saved, err := books.Save(context.Background(), domain.Entity{"title": "Dune"})
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(saved["genre"]) // fiction
	}

# Concurrency

Mutations read the whole table, change it and write it back. There is no locking:
two writers sharing a backing store can lose updates.
*/
package relstore
