package restmap_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	restmap "github.com/reoring/restmap"
)

func TestSchema_BaseAttributesInherited(t *testing.T) {
	s := restmap.NewSchema("thing").BasePath("/things").MustBuild()

	mapping := s.Mapping(restmap.KindBody)
	assert.Equal(t, "id", mapping["id"])
	assert.Equal(t, "name", mapping["name"])

	computed := s.Mapping(restmap.KindComputed)
	assert.Equal(t, "location", computed["location"])
}

func TestSchema_SubclassOverrideWins(t *testing.T) {
	parent := restmap.NewSchema("parent").
		BasePath("/parents").
		Fields(restmap.Body("a", "old_remote")).
		MustBuild()
	child := restmap.NewSchema("child").
		Extends(parent).
		Fields(restmap.Body("a", "new_remote")).
		MustBuild()

	f, ok := child.FieldByName("a")
	require.True(t, ok)
	assert.Equal(t, "new_remote", f.Remote)

	// the override holds in both directions
	mapping := child.Mapping(restmap.KindBody)
	assert.Equal(t, "a", mapping["new_remote"])

	// the parent is unaffected
	pf, ok := parent.FieldByName("a")
	require.True(t, ok)
	assert.Equal(t, "old_remote", pf.Remote)
}

func TestSchema_ChildInheritsBasePathAndQuery(t *testing.T) {
	parent := restmap.NewSchema("parent").
		BasePath("/parents").
		Query(restmap.NewQueryParameters("flavor")).
		MustBuild()
	child := restmap.NewSchema("child").Extends(parent).MustBuild()

	assert.Equal(t, "/parents", child.BasePath())

	tr, err := child.Query().Transpose(map[string]any{"flavor": "x"}, child)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"flavor": "x"}, tr)
}

func TestSchema_AlternateID(t *testing.T) {
	s := restmap.NewSchema("alt").
		BasePath("/alts").
		Fields(restmap.Body("bar", "bar", restmap.AlternateID())).
		MustBuild()
	assert.Equal(t, "bar", s.AlternateID())

	plain := restmap.NewSchema("plain").BasePath("/plains").MustBuild()
	assert.Equal(t, "", plain.AlternateID())
}

func TestSchema_UnknownPoliciesAreMutuallyExclusive(t *testing.T) {
	_, err := restmap.NewSchema("broken").
		BasePath("/broken").
		AllowUnknownAttrsInBody().
		StoreUnknownAttrsAsProperties().
		Build()
	require.Error(t, err)
	assert.True(t, restmap.HasCode(err, restmap.CodeInvalidArgument))
}

func TestSchema_FieldByNameResolvesAliasAndRemote(t *testing.T) {
	s := restmap.NewSchema("aliased").
		BasePath("/aliased").
		Fields(restmap.Body("display_name", "displayName", restmap.Aka("label"))).
		MustBuild()

	for _, name := range []string{"display_name", "label", "displayName"} {
		f, ok := s.FieldByName(name)
		require.True(t, ok, name)
		assert.Equal(t, "display_name", f.Name)
	}

	_, ok := s.FieldByName("nope")
	assert.False(t, ok)
}
