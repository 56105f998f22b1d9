package uuidgen_test

import (
	"sort"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/relstore/pkg/adapters/uuidgen"
	"github.com/aretw0/relstore/pkg/ports"
)

var _ ports.IDGenerator = (*uuidgen.Generator)(nil)

func TestGenerator_Unique(t *testing.T) {
	for _, v := range []uuidgen.Version{uuidgen.V4, uuidgen.V7} {
		gen := uuidgen.New(v)
		seen := make(map[string]bool)
		for i := 0; i < 100; i++ {
			id, err := gen.NewID()
			require.NoError(t, err)

			parsed, err := uuid.Parse(id)
			require.NoError(t, err)
			assert.Equal(t, uuid.Version(v), parsed.Version())

			assert.False(t, seen[id], "duplicate id %s", id)
			seen[id] = true
		}
	}
}

func TestGenerator_V7IsOrdered(t *testing.T) {
	gen := uuidgen.New(uuidgen.V7)
	ids := make([]string, 50)
	for i := range ids {
		id, err := gen.NewID()
		require.NoError(t, err)
		ids[i] = id
	}
	assert.True(t, sort.StringsAreSorted(ids))
}

func TestGenerator_UnknownVersion(t *testing.T) {
	id, err := uuidgen.New(3).NewID()
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(4), uuid.MustParse(id).Version())
}
