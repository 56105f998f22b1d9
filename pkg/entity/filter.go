package entity

import (
	"sort"

	"github.com/aretw0/relstore/pkg/domain"
	"github.com/aretw0/relstore/pkg/validation"
)

type filterKind int

const (
	filterPredicate filterKind = iota + 1
	filterMatch
)

// Filter selects entities in Where. It is either a Predicate or a Match;
// a nil *Filter selects everything.
type Filter struct {
	kind  filterKind
	pred  func(domain.Entity) bool
	attrs map[string]any
}

// Predicate selects the entities for which fn returns true.
func Predicate(fn func(domain.Entity) bool) *Filter {
	return &Filter{kind: filterPredicate, pred: fn}
}

// Match selects the entities equal to attrs on every listed key. Keys must be declared
// fields or "id". Numbers compare by value, so 1996 matches int64(1996).
func Match(attrs map[string]any) *Filter {
	return &Filter{kind: filterMatch, attrs: attrs}
}

// Keys returns the attribute keys of a Match filter in sorted order.
func (f *Filter) Keys() []string {
	if f == nil || f.kind != filterMatch {
		return nil
	}
	keys := make([]string, 0, len(f.attrs))
	for k := range f.attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (f *Filter) matches(e domain.Entity) bool {
	switch {
	case f == nil:
		return true
	case f.kind == filterPredicate:
		return f.pred == nil || f.pred(e)
	case f.kind == filterMatch:
		for k, want := range f.attrs {
			if !validation.Equal(e[k], want) {
				return false
			}
		}
		return true
	default:
		return true
	}
}
