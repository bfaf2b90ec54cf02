package format_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/restmap/format"
)

func TestBoolStr(t *testing.T) {
	for in, want := range map[string]bool{
		"True": true, "TRUE": true, "true": true,
		"False": false, "FALSE": false, "false": false,
	} {
		got, err := format.BoolStr.Deserialize(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := format.BoolStr.Deserialize("maybe")
	require.Error(t, err)

	out, err := format.BoolStr.Serialize(true)
	require.NoError(t, err)
	assert.Equal(t, "True", out)

	out, err = format.BoolStr.Serialize(false)
	require.NoError(t, err)
	assert.Equal(t, "False", out)

	_, err = format.BoolStr.Serialize("yes")
	require.Error(t, err)
}

func TestTimeRFC3339_Deserialize(t *testing.T) {
	got, err := format.TimeRFC3339.Deserialize("2023-04-05T06:07:08Z")
	require.NoError(t, err)
	want := time.Date(2023, 4, 5, 6, 7, 8, 0, time.UTC)
	assert.True(t, want.Equal(got.(time.Time)))

	// fractional seconds accepted
	got, err = format.TimeRFC3339.Deserialize("2023-04-05T06:07:08.123Z")
	require.NoError(t, err)
	assert.Equal(t, 123000000, got.(time.Time).Nanosecond())

	// an already-parsed value passes through
	got, err = format.TimeRFC3339.Deserialize(want)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = format.TimeRFC3339.Deserialize("yesterday")
	require.Error(t, err)
}

func TestTimeRFC3339_SerializeNormalizesToUTC(t *testing.T) {
	loc := time.FixedZone("X", 2*3600)
	in := time.Date(2023, 4, 5, 8, 7, 8, 0, loc)

	out, err := format.TimeRFC3339.Serialize(in)
	require.NoError(t, err)
	assert.Equal(t, "2023-04-05T06:07:08Z", out)

	// string input re-serializes through a parse
	out, err = format.TimeRFC3339.Serialize("2023-04-05T08:07:08+02:00")
	require.NoError(t, err)
	assert.Equal(t, "2023-04-05T06:07:08Z", out)

	_, err = format.TimeRFC3339.Serialize("not-a-time")
	require.Error(t, err)
}

func TestPlainConversions(t *testing.T) {
	v, err := format.ToInt("3")
	require.NoError(t, err)
	assert.Equal(t, 3, v)

	v, err = format.ToInt(float64(7))
	require.NoError(t, err)
	assert.Equal(t, 7, v)

	_, err = format.ToInt("x")
	require.Error(t, err)

	v, err = format.ToFloat("2.5")
	require.NoError(t, err)
	assert.Equal(t, 2.5, v)

	v, err = format.ToString(9)
	require.NoError(t, err)
	assert.Equal(t, "9", v)

	v, err = format.ToBool("true")
	require.NoError(t, err)
	assert.Equal(t, true, v)

	_, err = format.ToBool(struct{}{})
	require.Error(t, err)
}
