package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/relstore/internal/presentation/graph"
	"github.com/aretw0/relstore/pkg/schema"
)

func TestGenerateMermaid(t *testing.T) {
	tests := []struct {
		name     string
		tables   []schema.TableDescription
		contains []string
	}{
		{
			name:   "Entity Per Table",
			tables: []schema.TableDescription{{Name: "books"}, {Name: "authors"}},
			contains: []string{
				"erDiagram\n",
				"    books {\n        string id PK\n    }\n",
				"    authors {\n",
			},
		},
		{
			name: "Field Types",
			tables: []schema.TableDescription{{Name: "books", Fields: []schema.FieldDescription{
				{Name: "title", Type: schema.String},
				{Name: "year", Type: schema.Integer},
				{Name: "available", Type: schema.Boolean},
			}}},
			contains: []string{
				"        string title\n",
				"        int year\n",
				"        bool available\n",
			},
		},
		{
			name: "Annotations",
			tables: []schema.TableDescription{{Name: "books", Fields: []schema.FieldDescription{
				{Name: "title", Type: schema.String, Required: true},
				{Name: "genre", Type: schema.String, Required: true, Default: "fiction"},
				{Name: "code", Type: schema.String, DefaultProducer: true},
				{Name: "quote", Type: schema.String, Default: `say "hi"`},
			}}},
			contains: []string{
				`string title "required"`,
				`string genre "required, default fiction"`,
				`string code "default computed"`,
				`string quote "default say 'hi'"`,
			},
		},
		{
			name:   "Sanitized Names",
			tables: []schema.TableDescription{{Name: "book-club", Fields: []schema.FieldDescription{{Name: "first.name", Type: schema.String}}}},
			contains: []string{
				"    book_club {\n",
				"        string first_name\n",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := graph.GenerateMermaid(schema.Description{Name: "s", Tables: tt.tables})
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("GenerateMermaid() missing %q\nGot:\n%s", want, got)
				}
			}
		})
	}
}
