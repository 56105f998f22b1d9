// Package codec serializes table blobs and request bodies.
//
// Numbers are decoded with UseNumber and normalised so values keep their integer-ness
// across a round trip: integral numbers become int64, everything else float64.
package codec

import (
	"bytes"
	"fmt"

	json "github.com/goccy/go-json"

	"github.com/aretw0/relstore/pkg/domain"
)

type number interface {
	Int64() (int64, error)
	Float64() (float64, error)
	String() string
}

// Marshal encodes v as JSON.
func Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

// MarshalIndent encodes v as indented JSON.
func MarshalIndent(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}

// Unmarshal decodes a JSON document into a generic value with normalised numbers.
func Unmarshal(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return Normalize(v), nil
}

// DecodeEntity decodes a JSON object into an entity.
func DecodeEntity(data []byte) (domain.Entity, error) {
	v, err := Unmarshal(data)
	if err != nil {
		return nil, err
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected a JSON object, got %T", v)
	}
	return domain.Entity(obj), nil
}

// EncodeEntities serializes a table sequence as one JSON array.
func EncodeEntities(entities []domain.Entity) (string, error) {
	if entities == nil {
		entities = []domain.Entity{}
	}
	data, err := json.Marshal(entities)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// DecodeEntities parses a table blob. An empty blob is an empty table.
func DecodeEntities(blob string) ([]domain.Entity, error) {
	if blob == "" {
		return []domain.Entity{}, nil
	}

	v, err := Unmarshal([]byte(blob))
	if err != nil {
		return nil, err
	}
	if v == nil {
		return []domain.Entity{}, nil
	}

	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("expected a JSON array, got %T", v)
	}

	entities := make([]domain.Entity, 0, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("element %d: expected a JSON object, got %T", i, item)
		}
		entities = append(entities, domain.Entity(obj))
	}
	return entities, nil
}

// Normalize replaces JSON numbers inside v by int64 or float64.
func Normalize(v any) any {
	switch val := v.(type) {
	case map[string]any:
		for k, inner := range val {
			val[k] = Normalize(inner)
		}
		return val
	case []any:
		for i, inner := range val {
			val[i] = Normalize(inner)
		}
		return val
	case number:
		if i, err := val.Int64(); err == nil {
			return i
		}
		if f, err := val.Float64(); err == nil {
			return f
		}
		return val.String()
	default:
		return v
	}
}
