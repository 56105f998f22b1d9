package schema

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/aretw0/relstore/pkg/domain"
	"github.com/aretw0/relstore/pkg/validation"
)

// KeySeparator joins namespace, schema and table names into storage keys.
// Names may not contain it.
const KeySeparator = ":"

// Option configures compilation.
type Option func(*options)

type options struct {
	policy DefaultPolicy
}

// WithDefaultPolicy sets when field defaults apply. The default is DefaultWhenAbsent.
func WithDefaultPolicy(p DefaultPolicy) Option {
	return func(o *options) {
		o.policy = p
	}
}

// Compiled is a schema whose tables are ready to validate and default entities.
type Compiled struct {
	name   string
	tables map[string]*Table
	policy DefaultPolicy
}

// Table holds the compiled fields of one table.
type Table struct {
	schema string
	name   string
	fields map[string]*Field
	order  []string
	policy DefaultPolicy
}

// Field is a compiled field: its validator chain and default.
type Field struct {
	Name        string
	Type        Type
	Default     DefaultValue
	Constraints []Constraint
	// Custom counts the opaque validators appended after the constraints.
	Custom int

	chain []validation.Validator
}

// Compile checks a definition and compiles every table.
// Errors wrap domain.ErrSchema.
func Compile(def Definition, opts ...Option) (*Compiled, error) {
	o := options{policy: DefaultWhenAbsent}
	for _, opt := range opts {
		opt(&o)
	}

	if err := checkName("schema", def.Name); err != nil {
		return nil, err
	}
	if len(def.Tables) == 0 {
		return nil, fmt.Errorf("%w: schema %q declares no tables", domain.ErrSchema, def.Name)
	}

	c := &Compiled{
		name:   def.Name,
		tables: make(map[string]*Table, len(def.Tables)),
		policy: o.policy,
	}

	for tableName, tableDef := range def.Tables {
		if err := checkName("table", tableName); err != nil {
			return nil, err
		}
		t, err := compileTable(def.Name, tableName, tableDef, o.policy)
		if err != nil {
			return nil, err
		}
		c.tables[tableName] = t
	}

	return c, nil
}

func compileTable(schemaName, name string, def TableDefinition, policy DefaultPolicy) (*Table, error) {
	t := &Table{
		schema: schemaName,
		name:   name,
		fields: make(map[string]*Field, len(def)),
		policy: policy,
	}

	for fieldName, fd := range def {
		if strings.TrimSpace(fieldName) == "" {
			return nil, fmt.Errorf("%w: table %q: empty field name", domain.ErrSchema, name)
		}
		if fieldName == domain.IDField {
			return nil, fmt.Errorf("%w: table %q: field %q is reserved", domain.ErrSchema, name, fieldName)
		}

		chain, err := CompileFieldChain(fd)
		if err != nil {
			return nil, fmt.Errorf("table %q field %q: %w", name, fieldName, err)
		}

		t.fields[fieldName] = &Field{
			Name:        fieldName,
			Type:        fd.Type,
			Default:     fd.Default,
			Constraints: append([]Constraint(nil), fd.Constraints...),
			Custom:      len(fd.Validators),
			chain:       chain,
		}
		t.order = append(t.order, fieldName)
	}
	sort.Strings(t.order)

	return t, nil
}

// CompileFieldChain prepends the type validator to the declared validators.
func CompileFieldChain(fd FieldDefinition) ([]validation.Validator, error) {
	typeCheck, err := TypeValidator(fd.Type)
	if err != nil {
		return nil, err
	}

	chain := make([]validation.Validator, 0, 1+len(fd.Constraints)+len(fd.Validators))
	chain = append(chain, typeCheck)
	for _, c := range fd.Constraints {
		v, err := c.Validator()
		if err != nil {
			return nil, err
		}
		chain = append(chain, v)
	}
	for i, v := range fd.Validators {
		if v == nil {
			return nil, fmt.Errorf("%w: validator %d is nil", domain.ErrSchema, i)
		}
		chain = append(chain, v)
	}
	return chain, nil
}

func checkName(kind, name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: %s name is empty", domain.ErrSchema, kind)
	}
	if strings.Contains(name, KeySeparator) {
		return fmt.Errorf("%w: %s name %q contains %q", domain.ErrSchema, kind, name, KeySeparator)
	}
	return nil
}

// Name returns the schema name.
func (c *Compiled) Name() string { return c.name }

// Policy returns the default policy the schema was compiled with.
func (c *Compiled) Policy() DefaultPolicy { return c.policy }

// Tables returns the table names in sorted order.
func (c *Compiled) Tables() []string {
	names := make([]string, 0, len(c.tables))
	for name := range c.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Table looks up a compiled table.
func (c *Compiled) Table(name string) (*Table, error) {
	t, ok := c.tables[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown table %q", domain.ErrSchema, name)
	}
	return t, nil
}

func (t *Table) Name() string   { return t.name }
func (t *Table) Schema() string { return t.schema }

// Fields returns the declared field names in sorted order.
func (t *Table) Fields() []string {
	return append([]string(nil), t.order...)
}

// Field returns a declared field.
func (t *Table) Field(name string) (*Field, bool) {
	f, ok := t.fields[name]
	return f, ok
}

// HasField reports whether name is a declared field.
func (t *Table) HasField(name string) bool {
	_, ok := t.fields[name]
	return ok
}

// ResolveDefault returns the field default when value counts as missing under the
// table's policy, and value otherwise.
func (t *Table) ResolveDefault(field string, value any) any {
	f, ok := t.fields[field]
	if !ok || !f.Default.IsSet() || !t.policy.Missing(value) {
		return value
	}
	return f.Default.Resolve()
}

// ApplyDefaults returns a copy of e with defaults resolved for every declared field.
// Unknown keys pass through untouched and e is never mutated.
func (t *Table) ApplyDefaults(e domain.Entity) domain.Entity {
	out := e.Clone()
	for _, name := range t.order {
		current, present := out[name]
		resolved := t.ResolveDefault(name, current)
		if present || resolved != nil {
			out[name] = resolved
		}
	}
	return out
}

// Validate applies defaults, then runs every field chain. Fields without errors are
// omitted from the result; unknown keys are ignored.
func (t *Table) Validate(e domain.Entity) (domain.FieldErrors, bool) {
	return t.Check(t.ApplyDefaults(e))
}

// Check runs every field chain on applied as is. Callers that persist an entity
// resolve defaults once with ApplyDefaults and check that same value, so producers
// are not invoked twice.
func (t *Table) Check(applied domain.Entity) (domain.FieldErrors, bool) {
	errs := domain.FieldErrors{}
	for _, name := range t.order {
		if msgs, ok := t.fields[name].Validate(applied[name]); !ok {
			errs[name] = msgs
		}
	}
	return errs, errs.Valid()
}

// Validate runs the field chain on a single value.
func (f *Field) Validate(value any) ([]string, bool) {
	return validation.Run(value, f.chain)
}

// ParseValue converts a textual value, as found in query strings and CLI flags, to the
// declared type of field. Undeclared fields and string fields keep raw as is.
func (t *Table) ParseValue(field, raw string) (any, error) {
	f, ok := t.fields[field]
	if !ok {
		return raw, nil
	}

	switch f.Type {
	case Integer:
		n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s should be an integer, got %q", domain.ErrSchema, field, raw)
		}
		return n, nil
	case Boolean:
		b, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("%w: %s should be a boolean, got %q", domain.ErrSchema, field, raw)
		}
		return b, nil
	default:
		return raw, nil
	}
}
