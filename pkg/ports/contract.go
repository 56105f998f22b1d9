package ports

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunKVContract runs a suite of tests to verify that a KV implementation
// adheres to the defined interface contract.
func RunKVContract(t *testing.T, kv KV) {
	ctx := context.Background()
	prefix := "contract:" + time.Now().Format("20060102150405.000000000")

	t.Run("Get Missing", func(t *testing.T) {
		value, ok, err := kv.Get(ctx, prefix+":missing")
		require.NoError(t, err, "a missing key is not an error")
		assert.False(t, ok)
		assert.Empty(t, value)
	})

	t.Run("Set and Get", func(t *testing.T) {
		key := prefix + ":books"
		blob := `[{"id":"1","title":"War And Peace","year":1869}]`

		require.NoError(t, kv.Set(ctx, key, blob))

		value, ok, err := kv.Get(ctx, key)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, blob, value)
	})

	t.Run("Overwrite", func(t *testing.T) {
		key := prefix + ":overwrite"
		require.NoError(t, kv.Set(ctx, key, "first"))
		require.NoError(t, kv.Set(ctx, key, "second"))

		value, ok, err := kv.Get(ctx, key)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "second", value)
	})

	t.Run("Empty Value Is Stored", func(t *testing.T) {
		key := prefix + ":empty"
		require.NoError(t, kv.Set(ctx, key, ""))

		value, ok, err := kv.Get(ctx, key)
		require.NoError(t, err)
		assert.True(t, ok, "an empty value is distinct from a missing key")
		assert.Empty(t, value)
	})

	t.Run("Keys Are Independent", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			require.NoError(t, kv.Set(ctx, fmt.Sprintf("%s:ns:table-%d", prefix, i), fmt.Sprint(i)))
		}
		for i := 0; i < 3; i++ {
			value, ok, err := kv.Get(ctx, fmt.Sprintf("%s:ns:table-%d", prefix, i))
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, fmt.Sprint(i), value)
		}
	})

	t.Run("Large Unicode Value", func(t *testing.T) {
		key := prefix + ":large"
		blob := strings.Repeat("Война и мир ", 10_000)
		require.NoError(t, kv.Set(ctx, key, blob))

		value, ok, err := kv.Get(ctx, key)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, blob, value)
	})
}
