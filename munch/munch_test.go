package munch_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/restmap/munch"
)

func TestMunchify_NestedStructures(t *testing.T) {
	out := munch.Munchify(map[string]any{
		"a": map[string]any{"b": []any{map[string]any{"c": 1}}},
	})
	m, ok := out.(munch.Munch)
	require.True(t, ok)

	v, ok := m.Path("a.b")
	require.True(t, ok)
	seq, ok := v.([]any)
	require.True(t, ok)
	require.Len(t, seq, 1)
	inner, ok := seq[0].(munch.Munch)
	require.True(t, ok)
	assert.Equal(t, 1, inner.Get("c"))
}

func TestMunchify_ScalarsPassThrough(t *testing.T) {
	assert.Equal(t, 42, munch.Munchify(42))
	assert.Equal(t, "s", munch.Munchify("s"))
	assert.Nil(t, munch.Munchify(nil))
}

func TestMunchify_SharedContainerStaysShared(t *testing.T) {
	shared := map[string]any{"v": 1}
	in := map[string]any{"x": shared, "y": shared}

	m := munch.Munchify(in).(munch.Munch)
	mx := m.Get("x").(munch.Munch)
	my := m.Get("y").(munch.Munch)

	mx["v"] = 2
	assert.Equal(t, 2, my.Get("v"))
}

func TestMunchify_SelfReferentialMapTerminates(t *testing.T) {
	in := map[string]any{}
	in["self"] = in

	m := munch.Munchify(in).(munch.Munch)
	inner, ok := m.Get("self").(munch.Munch)
	require.True(t, ok)
	// the cycle resolves to the converted container itself
	m["probe"] = 1
	assert.Equal(t, 1, inner.Get("probe"))
}

func TestUnmunchify_RoundTrip(t *testing.T) {
	in := map[string]any{"a": map[string]any{"b": "c"}, "n": 1}
	back := munch.Unmunchify(munch.Munchify(in))
	assert.Equal(t, in, back)
}

func TestMunch_ToDictAndCopy(t *testing.T) {
	m := munch.Munchify(map[string]any{"a": map[string]any{"b": 1}}).(munch.Munch)

	d := m.ToDict()
	nested, ok := d["a"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 1, nested["b"])

	c := m.Copy()
	c.Get("a").(munch.Munch)["b"] = 2
	v, _ := m.Path("a.b")
	assert.Equal(t, 1, v)
}

func TestMunchify_PointerAndArray(t *testing.T) {
	inner := map[string]any{"k": "v"}
	out := munch.Munchify(&inner)
	m, ok := out.(munch.Munch)
	require.True(t, ok)
	assert.Equal(t, "v", m.Get("k"))

	arr := [2]any{map[string]any{"i": 0}, "plain"}
	converted, ok := munch.Munchify(arr).([]any)
	require.True(t, ok)
	_, ok = converted[0].(munch.Munch)
	assert.True(t, ok)
	assert.Equal(t, "plain", converted[1])
}
