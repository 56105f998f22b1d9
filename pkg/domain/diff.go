package domain

import (
	"reflect"
	"sort"
)

// EntityDiff describes the changes between two versions of an entity.
// It is designed to be serialized to JSON for logs and API responses.
type EntityDiff struct {
	ID string `json:"id"`

	// Changed contains added or modified keys with their new value.
	Changed map[string]any `json:"changed,omitempty"`

	// Removed lists keys present in the old version only.
	Removed []string `json:"removed,omitempty"`
}

// Diff calculates the difference between before and after.
// If before is nil, every key of after is reported as changed (creation).
// Returns nil when nothing changed.
func Diff(before, after Entity) *EntityDiff {
	if after == nil {
		return nil
	}

	diff := &EntityDiff{ID: after.ID()}

	for k, newVal := range after {
		oldVal, exists := before[k]
		if !exists || !reflect.DeepEqual(oldVal, newVal) {
			if diff.Changed == nil {
				diff.Changed = make(map[string]any)
			}
			diff.Changed[k] = newVal
		}
	}

	for k := range before {
		if _, exists := after[k]; !exists {
			diff.Removed = append(diff.Removed, k)
		}
	}
	sort.Strings(diff.Removed)

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

// Keys returns the changed and removed keys in lexical order.
func (d *EntityDiff) Keys() []string {
	if d == nil {
		return nil
	}
	keys := make([]string, 0, len(d.Changed)+len(d.Removed))
	for k := range d.Changed {
		keys = append(keys, k)
	}
	keys = append(keys, d.Removed...)
	sort.Strings(keys)
	return keys
}

// IsEmpty checks if the diff contains any change.
func (d *EntityDiff) IsEmpty() bool {
	return d == nil || (len(d.Changed) == 0 && len(d.Removed) == 0)
}
