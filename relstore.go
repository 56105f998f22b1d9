package relstore

import (
	"fmt"
	"log/slog"

	"github.com/aretw0/relstore/pkg/domain"
	"github.com/aretw0/relstore/pkg/entity"
	"github.com/aretw0/relstore/pkg/ports"
	"github.com/aretw0/relstore/pkg/schema"
)

// Types is the registry of primitive field types.
var Types = struct {
	String  schema.Type
	Integer schema.Type
	Boolean schema.Type
}{
	String:  schema.String,
	Integer: schema.Integer,
	Boolean: schema.Boolean,
}

// Store is a compiled schema bound to a backing store: one entity.Table per declared
// table, all persisting into the same KV.
type Store struct {
	compiled *schema.Compiled
	tables   map[string]*entity.Table
	logger   *slog.Logger
}

// Option defines a functional option for configuring the Store.
type Option func(*options)

type options struct {
	namespace string
	ids       ports.IDGenerator
	logger    *slog.Logger
	policy    schema.DefaultPolicy
}

// WithNamespace sets the first segment of every storage key (default "relstore").
func WithNamespace(ns string) Option {
	return func(o *options) {
		o.namespace = ns
	}
}

// WithIDGenerator sets how new entities get their id (default: random UUIDs).
func WithIDGenerator(g ports.IDGenerator) Option {
	return func(o *options) {
		o.ids = g
	}
}

// WithLogger sets a custom structured logger for the store.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithDefaultPolicy sets when field defaults apply (default schema.DefaultWhenAbsent).
func WithDefaultPolicy(p schema.DefaultPolicy) Option {
	return func(o *options) {
		o.policy = p
	}
}

// Define compiles def and binds each table to kv.
// Schema problems are reported as errors wrapping domain.ErrSchema.
func Define(kv ports.KV, def schema.Definition, opts ...Option) (*Store, error) {
	o := options{namespace: entity.DefaultNamespace}
	for _, opt := range opts {
		opt(&o)
	}

	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}

	compiled, err := schema.Compile(def, schema.WithDefaultPolicy(o.policy))
	if err != nil {
		return nil, err
	}

	logger := o.logger.With("schema", compiled.Name())
	tableOpts := []entity.Option{
		entity.WithNamespace(o.namespace),
		entity.WithLogger(logger),
	}
	if o.ids != nil {
		tableOpts = append(tableOpts, entity.WithIDGenerator(o.ids))
	}

	s := &Store{
		compiled: compiled,
		tables:   make(map[string]*entity.Table),
		logger:   logger,
	}
	for _, name := range compiled.Tables() {
		def, _ := compiled.Table(name)
		t, err := entity.NewTable(def, kv, tableOpts...)
		if err != nil {
			return nil, err
		}
		s.tables[name] = t
	}

	logger.Debug("schema defined", "tables", compiled.Tables(), "namespace", o.namespace, "default_policy", o.policy.String())
	return s, nil
}

// MustDefine is like Define but panics on error.
func MustDefine(kv ports.KV, def schema.Definition, opts ...Option) *Store {
	s, err := Define(kv, def, opts...)
	if err != nil {
		panic(err)
	}
	return s
}

// DefineFile reads a YAML or JSON schema file and defines it.
func DefineFile(kv ports.KV, path string, opts ...Option) (*Store, error) {
	def, err := schema.ParseFile(path)
	if err != nil {
		return nil, err
	}
	return Define(kv, def, opts...)
}

// Table returns the API of a declared table.
func (s *Store) Table(name string) (*entity.Table, error) {
	t, ok := s.tables[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown table %q", domain.ErrSchema, name)
	}
	return t, nil
}

// Tables returns the declared table names in sorted order.
func (s *Store) Tables() []string {
	return s.compiled.Tables()
}

// Schema returns the compiled schema.
func (s *Store) Schema() *schema.Compiled {
	return s.compiled
}
