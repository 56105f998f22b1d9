package entity

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aretw0/relstore/internal/codec"
	"github.com/aretw0/relstore/pkg/adapters/uuidgen"
	"github.com/aretw0/relstore/pkg/domain"
	"github.com/aretw0/relstore/pkg/ports"
	"github.com/aretw0/relstore/pkg/schema"
)

// DefaultNamespace prefixes every storage key unless WithNamespace overrides it.
const DefaultNamespace = "relstore"

// Table is the persistence API of one schema table. Every mutation reads the whole
// table blob, changes it in memory and writes it back; concurrent writers sharing a
// backing store can lose updates.
type Table struct {
	def       *schema.Table
	kv        ports.KV
	ids       ports.IDGenerator
	logger    *slog.Logger
	namespace string
	key       string
}

// Option configures a Table.
type Option func(*Table)

// WithNamespace sets the first segment of the storage key.
func WithNamespace(ns string) Option {
	return func(t *Table) {
		t.namespace = ns
	}
}

// WithIDGenerator replaces the default UUID generator.
func WithIDGenerator(g ports.IDGenerator) Option {
	return func(t *Table) {
		t.ids = g
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Table) {
		t.logger = logger
	}
}

// NewTable binds a compiled table to a backing store.
func NewTable(def *schema.Table, kv ports.KV, opts ...Option) (*Table, error) {
	if def == nil || kv == nil {
		return nil, fmt.Errorf("%w: table definition and backing store are required", domain.ErrSchema)
	}

	t := &Table{
		def:       def,
		kv:        kv,
		namespace: DefaultNamespace,
	}
	for _, opt := range opts {
		opt(t)
	}

	if t.namespace == "" || strings.Contains(t.namespace, schema.KeySeparator) {
		return nil, fmt.Errorf("%w: invalid namespace %q", domain.ErrSchema, t.namespace)
	}
	if t.ids == nil {
		t.ids = uuidgen.New(uuidgen.V4)
	}
	if t.logger == nil {
		t.logger = slog.New(slog.DiscardHandler)
	}

	t.key = Key(t.namespace, def.Schema(), def.Name())
	t.logger = t.logger.With("table", def.Name())
	return t, nil
}

// Key derives the storage key of a table.
func Key(namespace, schemaName, table string) string {
	return strings.Join([]string{namespace, schemaName, table}, schema.KeySeparator)
}

func (t *Table) Name() string { return t.def.Name() }

// Key returns the storage key of the table blob.
func (t *Table) Key() string { return t.key }

// Schema returns the compiled definition.
func (t *Table) Schema() *schema.Table { return t.def }

// Build applies defaults to partial. It neither validates nor persists.
func (t *Table) Build(partial domain.Entity) domain.Entity {
	return t.def.ApplyDefaults(partial)
}

// Validate applies defaults to a copy of e and runs every field chain.
func (t *Table) Validate(e domain.Entity) (domain.FieldErrors, bool) {
	return t.def.Validate(e)
}

// Save creates e when it has no id and updates it otherwise.
func (t *Table) Save(ctx context.Context, e domain.Entity) (domain.Entity, error) {
	if e.Persisted() {
		return t.Update(ctx, e)
	}
	return t.Create(ctx, e)
}

// Create validates e, assigns a fresh id and appends it to the table.
// e is never mutated; the stored entity is returned.
func (t *Table) Create(ctx context.Context, e domain.Entity) (domain.Entity, error) {
	built, err := t.checked(e)
	if err != nil {
		return nil, err
	}

	id, err := t.ids.NewID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate id: %w", err)
	}
	built[domain.IDField] = id

	entities, err := t.load(ctx)
	if err != nil {
		return nil, err
	}
	if err := t.commit(ctx, append(entities, built)); err != nil {
		return nil, err
	}

	t.logger.InfoContext(ctx, "entity created", "id", id)
	return built.Clone(), nil
}

// Update validates e and replaces the stored entity carrying the same id.
func (t *Table) Update(ctx context.Context, e domain.Entity) (domain.Entity, error) {
	built, err := t.checked(e)
	if err != nil {
		return nil, err
	}

	id := built.ID()
	entities, err := t.load(ctx)
	if err != nil {
		return nil, err
	}

	i := indexOf(entities, id)
	if i < 0 {
		return nil, t.notFound(id)
	}
	before := entities[i]
	entities[i] = built

	if err := t.commit(ctx, entities); err != nil {
		return nil, err
	}

	t.logger.InfoContext(ctx, "entity updated", "id", id, "changed", domain.Diff(before, built).Keys())
	return built.Clone(), nil
}

// Find returns the entity with the given id.
func (t *Table) Find(ctx context.Context, id string) (domain.Entity, error) {
	entities, err := t.load(ctx)
	if err != nil {
		return nil, err
	}

	i := indexOf(entities, id)
	if i < 0 {
		return nil, t.notFound(id)
	}
	return entities[i], nil
}

// Destroy removes the entity with the given id. Destroying a missing id fails with
// domain.ErrNotFound.
func (t *Table) Destroy(ctx context.Context, id string) (bool, error) {
	entities, err := t.load(ctx)
	if err != nil {
		return false, err
	}

	i := indexOf(entities, id)
	if i < 0 {
		return false, t.notFound(id)
	}
	remaining := append(entities[:i:i], entities[i+1:]...)

	if err := t.commit(ctx, remaining); err != nil {
		return false, err
	}

	t.logger.InfoContext(ctx, "entity destroyed", "id", id)
	return true, nil
}

// All returns every stored entity in insertion order.
func (t *Table) All(ctx context.Context) ([]domain.Entity, error) {
	return t.load(ctx)
}

// Where returns the entities selected by f. A Match on an undeclared key fails with
// domain.ErrSchema before the backing store is read.
func (t *Table) Where(ctx context.Context, f *Filter) ([]domain.Entity, error) {
	for _, k := range f.Keys() {
		if k != domain.IDField && !t.def.HasField(k) {
			return nil, fmt.Errorf("%w: key does not exist: %s", domain.ErrSchema, k)
		}
	}

	entities, err := t.load(ctx)
	if err != nil {
		return nil, err
	}

	selected := make([]domain.Entity, 0, len(entities))
	for _, e := range entities {
		if f.matches(e) {
			selected = append(selected, e)
		}
	}
	return selected, nil
}

// Count returns the number of stored entities.
func (t *Table) Count(ctx context.Context) (int, error) {
	entities, err := t.load(ctx)
	if err != nil {
		return 0, err
	}
	return len(entities), nil
}

// checked returns e with defaults applied, or a *domain.ValidationError.
func (t *Table) checked(e domain.Entity) (domain.Entity, error) {
	built := t.def.ApplyDefaults(e)
	if errs, ok := t.def.Check(built); !ok {
		return nil, &domain.ValidationError{Table: t.def.Name(), Fields: errs}
	}
	return built, nil
}

// load decodes a fresh copy of the table, so callers may mutate the result.
func (t *Table) load(ctx context.Context) ([]domain.Entity, error) {
	blob, ok, err := t.kv.Get(ctx, t.key)
	if err != nil {
		return nil, fmt.Errorf("failed to load table %q: %w", t.def.Name(), err)
	}
	if !ok {
		t.logger.DebugContext(ctx, "table is empty", "key", t.key)
		return []domain.Entity{}, nil
	}

	entities, err := codec.DecodeEntities(blob)
	if err != nil {
		return nil, fmt.Errorf("failed to decode table %q: %w", t.def.Name(), err)
	}
	t.logger.DebugContext(ctx, "table loaded", "key", t.key, "count", len(entities))
	return entities, nil
}

func (t *Table) commit(ctx context.Context, entities []domain.Entity) error {
	blob, err := codec.EncodeEntities(entities)
	if err != nil {
		return fmt.Errorf("failed to encode table %q: %w", t.def.Name(), err)
	}
	if err := t.kv.Set(ctx, t.key, blob); err != nil {
		return fmt.Errorf("failed to persist table %q: %w", t.def.Name(), err)
	}
	t.logger.DebugContext(ctx, "table committed", "key", t.key, "count", len(entities), "bytes", len(blob))
	return nil
}

func (t *Table) notFound(id string) error {
	return fmt.Errorf("%w: %s %q", domain.ErrNotFound, t.def.Name(), id)
}

func indexOf(entities []domain.Entity, id string) int {
	if id == "" {
		return -1
	}
	for i, e := range entities {
		if e.ID() == id {
			return i
		}
	}
	return -1
}
