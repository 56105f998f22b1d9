package ports

import "context"

// KV is the backing store the entity store persists table blobs into.
// Each table is one opaque string under one key.
type KV interface {
	// Get returns the value stored under key. ok is false when the key was never set;
	// that is not an error.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
}

// IDGenerator produces unique entity identifiers.
type IDGenerator interface {
	NewID() (string, error)
}

// IDFunc adapts a function to IDGenerator.
type IDFunc func() (string, error)

func (f IDFunc) NewID() (string, error) { return f() }
