package viz

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRenderOptions(t *testing.T) {
	opts := DefaultRenderOptions()
	assert.Equal(t, BackgroundDark, opts.Background)
	assert.Equal(t, 2.25, opts.PointSize)
	assert.True(t, opts.Lighting)
	assert.True(t, opts.ShowBackFace)
}

func TestToggleBackground(t *testing.T) {
	opts := DefaultRenderOptions()
	assert.Equal(t, BackgroundLight, opts.ToggleBackground())
	assert.Equal(t, BackgroundDark, opts.ToggleBackground())
}

func TestBackgroundRGB(t *testing.T) {
	assert.Equal(t, [3]float64{0, 0, 0}, BackgroundDark.RGB())
	assert.Equal(t, [3]float64{1, 1, 1}, BackgroundLight.RGB())
}

func TestParseBackground(t *testing.T) {
	for in, want := range map[string]Background{
		"dark": BackgroundDark, "black": BackgroundDark, "": BackgroundDark,
		"LIGHT": BackgroundLight, "white": BackgroundLight,
	} {
		got, err := ParseBackground(in)
		require.NoError(t, err, "input %q", in)
		assert.Equal(t, want, got, "input %q", in)
	}

	_, err := ParseBackground("plaid")
	assert.Error(t, err)
}

func TestRenderOptionsJSON(t *testing.T) {
	data, err := json.Marshal(DefaultRenderOptions())
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"background":"dark","point_size":2.25,"lighting":true,"show_back_face":true}`,
		string(data))
}
