// Package uuidgen provides ports.IDGenerator implementations backed by google/uuid.
package uuidgen

import (
	"fmt"

	"github.com/google/uuid"
)

// Version selects the UUID layout.
type Version int

const (
	// V4 is a random UUID.
	V4 Version = 4
	// V7 is time-ordered, so ids sort by creation time.
	V7 Version = 7
)

// Generator produces UUID strings.
type Generator struct {
	version Version
}

// New returns a generator for the given version. Unknown versions fall back to V4.
func New(v Version) *Generator {
	if v != V7 {
		v = V4
	}
	return &Generator{version: v}
}

// NewID returns a fresh UUID.
func (g *Generator) NewID() (string, error) {
	var (
		id  uuid.UUID
		err error
	)
	switch g.version {
	case V7:
		id, err = uuid.NewV7()
	default:
		id, err = uuid.NewRandom()
	}
	if err != nil {
		return "", fmt.Errorf("generate uuid: %w", err)
	}
	return id.String(), nil
}
