package schema

// Description is a serialisable summary of a compiled schema.
type Description struct {
	Name   string             `json:"name" yaml:"name"`
	Policy string             `json:"default_policy" yaml:"default_policy"`
	Tables []TableDescription `json:"tables" yaml:"tables"`
}

// TableDescription summarises one table.
type TableDescription struct {
	Name   string             `json:"name" yaml:"name"`
	Fields []FieldDescription `json:"fields" yaml:"fields"`
}

// FieldDescription summarises one field. Default is set only for literal defaults;
// computed defaults are flagged by DefaultProducer.
type FieldDescription struct {
	Name             string       `json:"name" yaml:"name"`
	Type             Type         `json:"type" yaml:"type"`
	Required         bool         `json:"required" yaml:"required"`
	Default          any          `json:"default,omitempty" yaml:"default,omitempty"`
	DefaultProducer  bool         `json:"default_producer,omitempty" yaml:"default_producer,omitempty"`
	Constraints      []Constraint `json:"constraints,omitempty" yaml:"constraints,omitempty"`
	CustomValidators int          `json:"custom_validators,omitempty" yaml:"custom_validators,omitempty"`
}

// Describe summarises the schema with tables and fields in sorted order.
func (c *Compiled) Describe() Description {
	d := Description{
		Name:   c.name,
		Policy: c.policy.String(),
		Tables: make([]TableDescription, 0, len(c.tables)),
	}
	for _, name := range c.Tables() {
		d.Tables = append(d.Tables, c.tables[name].Describe())
	}
	return d
}

// Describe summarises the table.
func (t *Table) Describe() TableDescription {
	td := TableDescription{
		Name:   t.name,
		Fields: make([]FieldDescription, 0, len(t.order)),
	}
	for _, name := range t.order {
		td.Fields = append(td.Fields, t.fields[name].Describe())
	}
	return td
}

// Describe summarises the field.
func (f *Field) Describe() FieldDescription {
	fd := FieldDescription{
		Name:             f.Name,
		Type:             f.Type,
		Required:         f.Required(),
		DefaultProducer:  f.Default.IsProducer(),
		Constraints:      f.Constraints,
		CustomValidators: f.Custom,
	}
	if v, ok := f.Default.LiteralValue(); ok {
		fd.Default = v
	}
	return fd
}

// Required reports whether the field declares a present constraint.
func (f *Field) Required() bool {
	for _, c := range f.Constraints {
		if c.Kind == ConstraintPresent {
			return true
		}
	}
	return false
}
