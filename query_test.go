package restmap_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	restmap "github.com/reoring/restmap"
	"github.com/reoring/restmap/format"
)

func TestQueryParameters_PaginationAlwaysDeclared(t *testing.T) {
	q := restmap.NewQueryParameters()
	assert.ElementsMatch(t, []string{"limit", "marker"}, q.Keys())
}

func TestQueryParameters_TransposeRenames(t *testing.T) {
	q := restmap.NewQueryParameters("status").With("node_type", "resource_type")
	s := restmap.NewSchema("q").BasePath("/q").MustBuild()

	out, err := q.Transpose(map[string]any{
		"status":    "active",
		"node_type": "baremetal",
		"limit":     10,
	}, s)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"status":        "active",
		"resource_type": "baremetal",
		"limit":         10,
	}, out)
}

func TestQueryParameters_TransposeDropsUndeclared(t *testing.T) {
	q := restmap.NewQueryParameters("status")
	s := restmap.NewSchema("q").BasePath("/q").MustBuild()

	out, err := q.Transpose(map[string]any{"bogus": "x", "status": "ok"}, s)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"status": "ok"}, out)
}

func TestQueryParameters_TypedCoercion(t *testing.T) {
	q := restmap.NewQueryParameters().WithTyped("flag", "is_flag",
		func(v any, _ *restmap.Schema) (any, error) { return format.ToBool(v) })
	s := restmap.NewSchema("q").BasePath("/q").MustBuild()

	out, err := q.Transpose(map[string]any{"flag": "true"}, s)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"is_flag": true}, out)

	_, err = q.Transpose(map[string]any{"flag": 3.14}, s)
	require.Error(t, err)
	assert.True(t, restmap.HasCode(err, restmap.CodeConversion))
}
