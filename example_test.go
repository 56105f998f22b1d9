package relstore_test

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/aretw0/relstore"
	"github.com/aretw0/relstore/pkg/adapters/memory"
	"github.com/aretw0/relstore/pkg/domain"
	"github.com/aretw0/relstore/pkg/entity"
	"github.com/aretw0/relstore/pkg/ports"
	"github.com/aretw0/relstore/pkg/schema"
	"github.com/aretw0/relstore/pkg/validation"
)

func booksSchema() schema.Definition {
	return schema.Definition{
		Name: "books_schema",
		Tables: map[string]schema.TableDefinition{
			"books": {
				"title": {Type: relstore.Types.String, Validators: []validation.Validator{
					validation.Present, validation.MaxLength(32),
				}},
				"year": {Type: relstore.Types.Integer},
				"genre": {
					Type:       relstore.Types.String,
					Validators: []validation.Validator{validation.Present, validation.OneOf("fiction", "non-fiction")},
					Default:    schema.Literal("fiction"),
				},
			},
		},
	}
}

func counter() ports.IDGenerator {
	n := 0
	return ports.IDFunc(func() (string, error) {
		n++
		return fmt.Sprintf("book-%d", n), nil
	})
}

// ExampleDefine demonstrates defining a schema over an in-memory backing store and
// saving, finding and filtering entities.
func ExampleDefine() {
	store, err := relstore.Define(memory.NewStore(), booksSchema(), relstore.WithIDGenerator(counter()))
	if err != nil {
		log.Fatal(err)
	}

	books, err := store.Table("books")
	if err != nil {
		log.Fatal(err)
	}
	ctx := context.Background()

	saved, err := books.Save(ctx, domain.Entity{"title": "War And Peace", "year": 1869})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(saved.ID(), saved["genre"])

	if _, err := books.Save(ctx, domain.Entity{"title": "Dune", "year": 1965, "genre": "fiction"}); err != nil {
		log.Fatal(err)
	}

	found, err := books.Find(ctx, "book-1")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(found["title"])

	old, err := books.Where(ctx, entity.Match(map[string]any{"year": 1965}))
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(len(old), old[0]["title"])

	// Output:
	// book-1 fiction
	// War And Peace
	// 1 Dune
}

// ExampleDefine_validation demonstrates how validation failures are reported.
func ExampleDefine_validation() {
	store := relstore.MustDefine(memory.NewStore(), booksSchema())
	books, _ := store.Table("books")

	_, err := books.Save(context.Background(), domain.Entity{
		"title": strings.Repeat("x", 80),
		"year":  "1995",
		"genre": "sci-fi",
	})

	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		for _, field := range verr.Fields.Fields() {
			fmt.Printf("%s: %s\n", field, strings.Join(verr.Fields[field], ", "))
		}
	}

	// Output:
	// genre: should be one of [fiction,non-fiction]
	// title: max length exceeded
	// year: should be an integer
}
