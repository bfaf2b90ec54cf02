package restmap_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	restmap "github.com/reoring/restmap"
)

func TestComponentStore_UnsynchronizedStartsDirty(t *testing.T) {
	s := restmap.NewComponentStore(map[string]any{"a": 1, "b": 2}, false)
	require.True(t, s.IsDirty())
	assert.Equal(t, map[string]any{"a": 1, "b": 2}, s.Dirty())
}

func TestComponentStore_SynchronizedStartsClean(t *testing.T) {
	s := restmap.NewComponentStore(map[string]any{"a": 1}, true)
	assert.False(t, s.IsDirty())
	assert.Empty(t, s.Dirty())
}

func TestComponentStore_SetSameValueStaysClean(t *testing.T) {
	s := restmap.NewComponentStore(map[string]any{"a": 1}, true)
	s.Set("a", 1)
	assert.False(t, s.IsDirty())

	s.Set("a", 2)
	require.True(t, s.IsDirty())
	assert.Equal(t, map[string]any{"a": 2}, s.Dirty())
}

func TestComponentStore_DeleteMarksDirtyNil(t *testing.T) {
	s := restmap.NewComponentStore(map[string]any{"a": 1}, true)
	s.Delete("a")
	require.True(t, s.IsDirty())
	dirty := s.Dirty()
	v, ok := dirty["a"]
	require.True(t, ok)
	assert.Nil(t, v)

	_, present := s.Get("a")
	assert.False(t, present)
}

func TestComponentStore_DeleteAbsentIsNoop(t *testing.T) {
	s := restmap.NewComponentStore(nil, true)
	s.Delete("missing")
	assert.False(t, s.IsDirty())
}

func TestComponentStore_CleanAndMarkClean(t *testing.T) {
	s := restmap.NewComponentStore(map[string]any{"a": 1, "b": 2}, false)
	s.MarkClean("a")
	assert.Equal(t, map[string]any{"b": 2}, s.Dirty())

	s.Clean()
	assert.False(t, s.IsDirty())
	// values survive cleaning
	v, ok := s.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestComponentStore_KeysInsertionOrder(t *testing.T) {
	s := restmap.NewComponentStore(nil, true)
	s.Set("z", 1)
	s.Set("a", 2)
	s.Set("m", 3)
	assert.Equal(t, []string{"z", "a", "m"}, s.Keys())
	assert.Equal(t, []any{1, 2, 3}, s.Values())

	s.Delete("a")
	assert.Equal(t, []string{"z", "m"}, s.Keys())
}

func TestComponentStore_EqualIgnoresDirtyState(t *testing.T) {
	a := restmap.NewComponentStore(map[string]any{"x": 1}, false)
	b := restmap.NewComponentStore(map[string]any{"x": 1}, true)
	assert.True(t, a.Equal(b))

	b.Set("x", 2)
	assert.False(t, a.Equal(b))
}

func TestComponentStore_DirtySnapshotIsDetached(t *testing.T) {
	s := restmap.NewComponentStore(map[string]any{"a": 1}, false)
	dirty := s.Dirty()
	dirty["b"] = 2
	_, ok := s.Get("b")
	assert.False(t, ok)
}
