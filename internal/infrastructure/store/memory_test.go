package store

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()

	t.Run("set then get round-trips values", func(t *testing.T) {
		s := NewMemoryStore()
		err := s.Set(ctx, map[string]any{
			"preferences": map[string]string{"priority": "eco_friendly"},
			"impactStats": map[string]int{"totalSearches": 3},
		})
		require.NoError(t, err)

		values, err := s.Get(ctx, []string{"preferences", "impactStats"})
		require.NoError(t, err)
		require.Len(t, values, 2)

		var prefs map[string]string
		require.NoError(t, json.Unmarshal(values["preferences"], &prefs))
		assert.Equal(t, "eco_friendly", prefs["priority"])
	})

	t.Run("missing keys are omitted", func(t *testing.T) {
		s := NewMemoryStore()
		values, err := s.Get(ctx, []string{"nothing"})
		require.NoError(t, err)
		assert.Empty(t, values)
	})

	t.Run("set overwrites", func(t *testing.T) {
		s := NewMemoryStore()
		require.NoError(t, s.Set(ctx, map[string]any{"k": 1}))
		require.NoError(t, s.Set(ctx, map[string]any{"k": 2}))

		values, err := s.Get(ctx, []string{"k"})
		require.NoError(t, err)
		assert.JSONEq(t, "2", string(values["k"]))
	})

	t.Run("remove deletes keys", func(t *testing.T) {
		s := NewMemoryStore()
		require.NoError(t, s.Set(ctx, map[string]any{"a": 1, "b": 2}))
		require.NoError(t, s.Remove(ctx, []string{"a", "never-existed"}))

		values, err := s.Get(ctx, []string{"a", "b"})
		require.NoError(t, err)
		assert.NotContains(t, values, "a")
		assert.Contains(t, values, "b")
		assert.Equal(t, 1, s.Len())
	})

	t.Run("unmarshalable value fails the whole set", func(t *testing.T) {
		s := NewMemoryStore()
		err := s.Set(ctx, map[string]any{"bad": make(chan int)})
		require.Error(t, err)
		assert.Equal(t, 0, s.Len())
	})
}
