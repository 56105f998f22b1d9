package entity_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/relstore/pkg/adapters/memory"
	"github.com/aretw0/relstore/pkg/domain"
	"github.com/aretw0/relstore/pkg/entity"
	"github.com/aretw0/relstore/pkg/ports"
	"github.com/aretw0/relstore/pkg/schema"
	"github.com/aretw0/relstore/pkg/validation"
)

func booksDefinition() schema.Definition {
	return schema.Definition{
		Name: "books_schema",
		Tables: map[string]schema.TableDefinition{
			"books": {
				"title": {Type: schema.String, Validators: []validation.Validator{
					validation.Present, validation.MaxLength(32),
				}},
				"year": {Type: schema.Integer, Validators: []validation.Validator{
					validation.Min(1900), validation.Max(2999),
				}},
				"genre": {
					Type:       schema.String,
					Validators: []validation.Validator{validation.Present, validation.OneOf("fiction", "non-fiction")},
					Default:    schema.Literal("fiction"),
				},
			},
		},
	}
}

// sequence returns ids "1", "2", ...
func sequence() ports.IDGenerator {
	var mu sync.Mutex
	n := 0
	return ports.IDFunc(func() (string, error) {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprint(n), nil
	})
}

// spyKV counts calls to an in-memory store and can fail on demand.
type spyKV struct {
	*memory.Store
	gets, sets int
	failGet    error
	failSet    error
}

func (s *spyKV) Get(ctx context.Context, key string) (string, bool, error) {
	s.gets++
	if s.failGet != nil {
		return "", false, s.failGet
	}
	return s.Store.Get(ctx, key)
}

func (s *spyKV) Set(ctx context.Context, key, value string) error {
	s.sets++
	if s.failSet != nil {
		return s.failSet
	}
	return s.Store.Set(ctx, key, value)
}

func newBooks(t *testing.T, opts ...entity.Option) (*entity.Table, *spyKV) {
	t.Helper()
	compiled, err := schema.Compile(booksDefinition())
	require.NoError(t, err)
	def, err := compiled.Table("books")
	require.NoError(t, err)

	kv := &spyKV{Store: memory.NewStore()}
	opts = append([]entity.Option{entity.WithIDGenerator(sequence())}, opts...)
	books, err := entity.NewTable(def, kv, opts...)
	require.NoError(t, err)
	return books, kv
}

func TestNewTable_Key(t *testing.T) {
	books, _ := newBooks(t)
	assert.Equal(t, "relstore:books_schema:books", books.Key())
	assert.Equal(t, "books", books.Name())

	custom, _ := newBooks(t, entity.WithNamespace("library"))
	assert.Equal(t, "library:books_schema:books", custom.Key())

	compiled, err := schema.Compile(booksDefinition())
	require.NoError(t, err)
	def, _ := compiled.Table("books")

	_, err = entity.NewTable(def, memory.NewStore(), entity.WithNamespace("a:b"))
	assert.ErrorIs(t, err, domain.ErrSchema)

	_, err = entity.NewTable(def, nil)
	assert.ErrorIs(t, err, domain.ErrSchema)
}

func TestBuild(t *testing.T) {
	books, kv := newBooks(t)

	built := books.Build(domain.Entity{})
	assert.Equal(t, domain.Entity{"genre": "fiction"}, built)
	assert.Zero(t, kv.gets+kv.sets, "build does not touch the store")

	partial := domain.Entity{"title": "Dune"}
	built = books.Build(partial)
	assert.Equal(t, domain.Entity{"title": "Dune", "genre": "fiction"}, built)
	assert.Equal(t, domain.Entity{"title": "Dune"}, partial)
}

func TestValidate_Messages(t *testing.T) {
	books, _ := newBooks(t)

	errs, ok := books.Validate(domain.Entity{
		"title": strings.Repeat("a", 80),
		"year":  "1995",
		"genre": "sci-fi",
	})
	assert.False(t, ok)
	assert.Equal(t, []string{"max length exceeded"}, errs["title"])
	assert.Equal(t, "should be an integer", errs["year"][0])
	assert.Equal(t, []string{"should be one of [fiction,non-fiction]"}, errs["genre"])
}

func TestValidate_Idempotent(t *testing.T) {
	books, _ := newBooks(t)
	e := domain.Entity{"title": "", "year": 1800}

	errs1, ok1 := books.Validate(e)
	errs2, ok2 := books.Validate(e)
	assert.Equal(t, errs1, errs2)
	assert.Equal(t, ok1, ok2)
}

func TestSave_FindRoundTrip(t *testing.T) {
	books, _ := newBooks(t)
	ctx := context.Background()

	saved, err := books.Save(ctx, domain.Entity{"title": "Test Title"})
	require.NoError(t, err)
	assert.Equal(t, "1", saved.ID())
	assert.Equal(t, "fiction", saved["genre"])

	found, err := books.Find(ctx, saved.ID())
	require.NoError(t, err)
	assert.Equal(t, "Test Title", found["title"])
	assert.Equal(t, "fiction", found["genre"])
	assert.Equal(t, "1", found.ID())
}

func TestSave_KeepsIntegers(t *testing.T) {
	books, _ := newBooks(t)
	ctx := context.Background()

	saved, err := books.Save(ctx, domain.Entity{"title": "Dune", "year": 1965})
	require.NoError(t, err)

	found, err := books.Find(ctx, saved.ID())
	require.NoError(t, err)
	assert.Equal(t, int64(1965), found["year"])

	_, ok := books.Validate(found)
	assert.True(t, ok, "a stored entity validates again")
}

func TestSave_ValidationFailureDoesNotWrite(t *testing.T) {
	books, kv := newBooks(t)
	ctx := context.Background()

	_, err := books.Save(ctx, domain.Entity{"title": "Existing"})
	require.NoError(t, err)
	before, err := books.All(ctx)
	require.NoError(t, err)
	setsBefore := kv.sets

	input := domain.Entity{"title": strings.Repeat("x", 80), "year": "1995"}
	saved, err := books.Save(ctx, input)
	assert.Nil(t, saved)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrValidation)

	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "books", verr.Table)
	assert.Equal(t, []string{"max length exceeded"}, verr.Fields["title"])
	assert.Equal(t, []string{"should be an integer"}, verr.Fields["year"])

	assert.Equal(t, setsBefore, kv.sets, "no write on validation failure")
	assert.Equal(t, domain.Entity{"title": strings.Repeat("x", 80), "year": "1995"}, input, "caller map is untouched")

	after, err := books.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestSave_DoesNotMutateInput(t *testing.T) {
	books, _ := newBooks(t)
	input := domain.Entity{"title": "Dune"}

	saved, err := books.Save(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, domain.Entity{"title": "Dune"}, input)

	saved["title"] = "changed"
	found, err := books.Find(context.Background(), saved.ID())
	require.NoError(t, err)
	assert.Equal(t, "Dune", found["title"], "returned entities are copies")
}

func TestSave_Update(t *testing.T) {
	books, _ := newBooks(t)
	ctx := context.Background()

	first, err := books.Save(ctx, domain.Entity{"title": "Dune", "year": 1965})
	require.NoError(t, err)
	second, err := books.Save(ctx, domain.Entity{"title": "Emma", "year": 1815 + 100})
	require.NoError(t, err)

	first["year"] = 1966
	first["genre"] = "non-fiction"
	updated, err := books.Save(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, first.ID(), updated.ID())

	all, err := books.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2, "update replaces in place")
	assert.Equal(t, first.ID(), all[0].ID(), "order is preserved")
	assert.Equal(t, int64(1966), all[0]["year"])
	assert.Equal(t, "non-fiction", all[0]["genre"])
	assert.Equal(t, second.ID(), all[1].ID())
}

func TestUpdate_Errors(t *testing.T) {
	books, kv := newBooks(t)
	ctx := context.Background()

	_, err := books.Save(ctx, domain.Entity{"id": "missing", "title": "Ghost"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = books.Update(ctx, domain.Entity{"title": "No id"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	sets := kv.sets
	_, err = books.Update(ctx, domain.Entity{"id": "missing", "title": "Ghost", "year": "x"})
	assert.ErrorIs(t, err, domain.ErrValidation, "validation runs before the lookup")
	assert.Equal(t, sets, kv.sets)
}

func TestCreate_AlwaysAssignsFreshID(t *testing.T) {
	books, _ := newBooks(t)
	ctx := context.Background()

	a, err := books.Create(ctx, domain.Entity{"title": "A"})
	require.NoError(t, err)
	b, err := books.Create(ctx, domain.Entity{"id": a.ID(), "title": "B"})
	require.NoError(t, err)

	assert.NotEqual(t, a.ID(), b.ID())
	n, err := books.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestFind_NotFound(t *testing.T) {
	books, _ := newBooks(t)

	_, err := books.Find(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Contains(t, err.Error(), `books "nope"`)
}

func TestDestroy(t *testing.T) {
	books, _ := newBooks(t)
	ctx := context.Background()

	a, err := books.Save(ctx, domain.Entity{"title": "A"})
	require.NoError(t, err)
	b, err := books.Save(ctx, domain.Entity{"title": "B"})
	require.NoError(t, err)

	ok, err := books.Destroy(ctx, a.ID())
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = books.Destroy(ctx, a.ID())
	assert.False(t, ok)
	assert.ErrorIs(t, err, domain.ErrNotFound, "destroy is not idempotent")

	all, err := books.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, b.ID(), all[0].ID())
}

func TestWhere(t *testing.T) {
	books, kv := newBooks(t)
	ctx := context.Background()

	for _, e := range []domain.Entity{
		{"title": "A", "year": 1996},
		{"title": "B", "year": 2001},
		{"title": "C", "year": 1996, "genre": "non-fiction"},
	} {
		_, err := books.Save(ctx, e)
		require.NoError(t, err)
	}

	got, err := books.Where(ctx, entity.Match(map[string]any{"year": 1996}))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "A", got[0]["title"])
	assert.Equal(t, "C", got[1]["title"])

	got, err = books.Where(ctx, entity.Match(map[string]any{"year": 1996, "genre": "fiction"}))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "A", got[0]["title"])

	got, err = books.Where(ctx, entity.Match(map[string]any{"id": "2"}))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "B", got[0]["title"])

	got, err = books.Where(ctx, entity.Predicate(func(e domain.Entity) bool {
		year, _ := e["year"].(int64)
		return year > 2000
	}))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "B", got[0]["title"])

	got, err = books.Where(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, got, 3, "no filter is all")

	gets := kv.gets
	_, err = books.Where(ctx, entity.Match(map[string]any{"unknownKey": "x"}))
	assert.ErrorIs(t, err, domain.ErrSchema)
	assert.Contains(t, err.Error(), "key does not exist: unknownKey")
	assert.Equal(t, gets, kv.gets, "schema errors are raised before any read")
}

func TestAll_EmptyTable(t *testing.T) {
	books, _ := newBooks(t)

	all, err := books.All(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, all)
	assert.Empty(t, all)
}

func TestBuildThenValidate_DefaultRoundTrip(t *testing.T) {
	compiled, err := schema.Compile(schema.Definition{
		Name: "s",
		Tables: map[string]schema.TableDefinition{
			"counters": {
				"label": {Type: schema.String, Default: schema.Literal("untitled")},
				"count": {Type: schema.Integer, Default: schema.Literal(0)},
				"on":    {Type: schema.Boolean, Default: schema.Producer(func() any { return true })},
			},
		},
	})
	require.NoError(t, err)
	def, _ := compiled.Table("counters")
	counters, err := entity.NewTable(def, memory.NewStore())
	require.NoError(t, err)

	errs, ok := counters.Validate(counters.Build(domain.Entity{}))
	assert.True(t, ok, "%v", errs)
}

func TestBackendErrors(t *testing.T) {
	books, kv := newBooks(t)
	ctx := context.Background()
	boom := errors.New("connection refused")

	kv.failGet = boom
	_, err := books.All(ctx)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), `failed to load table "books"`)

	_, err = books.Find(ctx, "1")
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, domain.ErrNotFound)

	kv.failGet = nil
	kv.failSet = boom
	_, err = books.Save(ctx, domain.Entity{"title": "A"})
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), `failed to persist table "books"`)
}

func TestCorruptBlob(t *testing.T) {
	books, kv := newBooks(t)
	ctx := context.Background()

	require.NoError(t, kv.Store.Set(ctx, books.Key(), `{"not":"an array"}`))
	_, err := books.All(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode table")
}

func TestTablesShareStoreWithoutCollisions(t *testing.T) {
	compiled, err := schema.Compile(schema.Definition{
		Name: "library",
		Tables: map[string]schema.TableDefinition{
			"books":   {"title": {Type: schema.String}},
			"authors": {"name": {Type: schema.String}},
		},
	})
	require.NoError(t, err)
	kv := memory.NewStore()
	ctx := context.Background()

	booksDef, _ := compiled.Table("books")
	authorsDef, _ := compiled.Table("authors")
	books, err := entity.NewTable(booksDef, kv)
	require.NoError(t, err)
	authors, err := entity.NewTable(authorsDef, kv)
	require.NoError(t, err)

	_, err = books.Save(ctx, domain.Entity{"title": "Dune"})
	require.NoError(t, err)

	n, err := authors.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, []string{"relstore:library:books"}, kv.Keys())
}

func TestCreate_ResolvesProducerOnce(t *testing.T) {
	calls := 0
	compiled, err := schema.Compile(schema.Definition{
		Name: "counters",
		Tables: map[string]schema.TableDefinition{
			"counters": {
				"n": {
					Type:       schema.Integer,
					Validators: []validation.Validator{validation.Min(1)},
					Default: schema.Producer(func() any {
						calls++
						return calls - 1
					}),
				},
			},
		},
	}, schema.WithDefaultPolicy(schema.DefaultWhenFalsy))
	require.NoError(t, err)
	def, err := compiled.Table("counters")
	require.NoError(t, err)

	kv := &spyKV{Store: memory.NewStore()}
	counters, err := entity.NewTable(def, kv, entity.WithIDGenerator(sequence()))
	require.NoError(t, err)

	_, err = counters.Save(context.Background(), domain.Entity{})
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, domain.FieldErrors{"n": {"should be more or equal to 1"}}, domain.FieldErrorsOf(err),
		"the produced value is the one validated")
	assert.Equal(t, 1, calls)
	assert.Zero(t, kv.sets)

	saved, err := counters.Save(context.Background(), domain.Entity{})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	found, err := counters.Find(context.Background(), saved.ID())
	require.NoError(t, err)
	assert.EqualValues(t, 1, found["n"], "the validated value is the one stored")
}
