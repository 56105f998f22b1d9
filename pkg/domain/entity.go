package domain

// IDField is the attribute under which the store keeps an entity's identifier.
const IDField = "id"

// Entity is one record of a table: field name to value, plus the "id" assigned by the
// store on first creation. An entity without an id is unsaved.
type Entity map[string]any

// ID returns the store-assigned identifier, or "" for unsaved entities.
func (e Entity) ID() string {
	id, _ := e[IDField].(string)
	return id
}

// Persisted reports whether the entity carries an id.
func (e Entity) Persisted() bool {
	return e.ID() != ""
}

// Clone returns a deep copy of the entity. Nested maps and slices are copied so the
// result shares no mutable state with e.
func (e Entity) Clone() Entity {
	if e == nil {
		return Entity{}
	}
	out := make(Entity, len(e))
	for k, v := range e {
		out[k] = CloneValue(v)
	}
	return out
}

// CloneValue deep-copies the JSON-shaped containers (maps and slices) inside v.
// Scalars are returned as is.
func CloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			out[k] = CloneValue(inner)
		}
		return out
	case Entity:
		return val.Clone()
	case []any:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = CloneValue(inner)
		}
		return out
	case []string:
		return append([]string(nil), val...)
	default:
		return v
	}
}
