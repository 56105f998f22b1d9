package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/relstore/pkg/domain"
)

func TestParseFile_YAML(t *testing.T) {
	def, err := ParseFile(filepath.Join("testdata", "books.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "books_schema", def.Name)
	require.Contains(t, def.Tables, "books")
	require.Contains(t, def.Tables, "authors")

	books := def.Tables["books"]
	assert.Equal(t, Integer, books["year"].Type)
	assert.Equal(t, Boolean, books["available"].Type, "bare type names are accepted")
	assert.True(t, books["genre"].Default.IsSet())
	assert.False(t, books["title"].Default.IsSet())
	assert.Len(t, books["title"].Constraints, 2)

	c, err := Compile(def)
	require.NoError(t, err)
	table, err := c.Table("books")
	require.NoError(t, err)

	errs, ok := table.Validate(domain.Entity{"title": "Dune", "year": 1800, "genre": "sci-fi"})
	assert.False(t, ok)
	assert.Equal(t, domain.FieldErrors{
		"year":  {"should be more or equal to 1900"},
		"genre": {"should be one of [fiction,non-fiction]"},
	}, errs)

	errs, ok = table.Validate(domain.Entity{"title": "Dune", "year": 1965})
	assert.True(t, ok, "%v", errs)
}

func TestParseFile_OrAndPattern(t *testing.T) {
	def, err := ParseFile(filepath.Join("testdata", "books.yaml"))
	require.NoError(t, err)
	c, err := Compile(def)
	require.NoError(t, err)
	authors, err := c.Table("authors")
	require.NoError(t, err)

	errs, ok := authors.Validate(domain.Entity{"name": "abcde"})
	assert.False(t, ok)
	assert.Equal(t, []string{"min length exceeded, max length exceeded"}, errs["name"])

	_, ok = authors.Validate(domain.Entity{"name": "abcdefghijklmnopqrstuvwxyz"})
	assert.True(t, ok)

	errs, ok = authors.Validate(domain.Entity{"isbn": "123"})
	assert.False(t, ok)
	assert.Equal(t, []string{`should match ^\d{3}-\d{10}$`}, errs["isbn"])

	_, ok = authors.Validate(domain.Entity{"isbn": "978-0140447934"})
	assert.True(t, ok)
}

func TestParseFile_JSON(t *testing.T) {
	def, err := ParseFile(filepath.Join("testdata", "books.json"))
	require.NoError(t, err)

	c, err := Compile(def)
	require.NoError(t, err)
	books, err := c.Table("books")
	require.NoError(t, err)

	out := books.ApplyDefaults(domain.Entity{})
	assert.Equal(t, "fiction", out["genre"])

	errs, ok := books.Validate(domain.Entity{"title": "Dune", "year": 1800})
	assert.False(t, ok)
	assert.Equal(t, []string{"should be more or equal to 1900"}, errs["year"])
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		format Format
	}{
		{"invalid yaml", "name: [unclosed", FormatYAML},
		{"invalid json", `{"name":`, FormatJSON},
		{"unknown type", "name: s\ntables:\n  t:\n    f: float\n", FormatYAML},
		{"field is a list", "name: s\ntables:\n  t:\n    f: [1, 2]\n", FormatYAML},
		{"unknown format", "name: s", Format("toml")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data), tt.format)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrSchema)
		})
	}
}

func TestParse_DefaultNull(t *testing.T) {
	def, err := Parse([]byte("name: s\ntables:\n  t:\n    f: {type: string, default: null}\n"), FormatYAML)
	require.NoError(t, err)
	assert.True(t, def.Tables["t"]["f"].Default.IsSet())
}

func TestParseFile_Missing(t *testing.T) {
	_, err := ParseFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFormatFromPath(t *testing.T) {
	assert.Equal(t, FormatJSON, FormatFromPath("schema.JSON"))
	assert.Equal(t, FormatYAML, FormatFromPath("schema.yml"))
	assert.Equal(t, FormatYAML, FormatFromPath("schema"))
}

func TestParseType(t *testing.T) {
	tests := map[string]Type{
		"string":  String,
		"integer": Integer,
		"int":     Integer,
		"Boolean": Boolean,
		"bool":    Boolean,
	}
	for in, want := range tests {
		got, err := ParseType(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseType("float")
	assert.ErrorIs(t, err, domain.ErrSchema)
}

func TestTypeValidator(t *testing.T) {
	for _, typ := range Types() {
		assert.True(t, typ.Valid())
		v, err := TypeValidator(typ)
		require.NoError(t, err)
		_, ok := v(nil)
		assert.True(t, ok, "%s accepts undefined", typ)
	}

	_, err := TypeValidator("date")
	assert.ErrorIs(t, err, domain.ErrSchema)
	assert.False(t, Type("date").Valid())
}
