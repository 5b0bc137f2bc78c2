package stage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDefaults(t *testing.T) {
	opts, err := PortOptions{}.Normalize()
	require.NoError(t, err)

	assert.Equal(t, 115200, opts.BaudRate)
	assert.Equal(t, 8, opts.DataBits)
	assert.Equal(t, 1, opts.StopBits)
	assert.Equal(t, "N", opts.Parity)
	assert.Equal(t, time.Second, opts.ReadTimeout)
}

func TestNormalizeRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		opts PortOptions
	}{
		{"data bits too low", PortOptions{DataBits: 4}},
		{"data bits too high", PortOptions{DataBits: 9}},
		{"bad stop bits", PortOptions{StopBits: 3}},
		{"bad parity", PortOptions{Parity: "Q"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.opts.Normalize()
			assert.Error(t, err)
		})
	}
}

func TestNormalizeParityAliases(t *testing.T) {
	for in, want := range map[string]string{
		"none": "N", "n": "N", "even": "E", "ODD": "O", " e ": "E",
	} {
		opts, err := PortOptions{Parity: in}.Normalize()
		require.NoError(t, err, "parity %q", in)
		assert.Equal(t, want, opts.Parity, "parity %q", in)
	}
}

func TestSerialModeMapping(t *testing.T) {
	opts, err := PortOptions{BaudRate: 115200, StopBits: 2, Parity: "E"}.Normalize()
	require.NoError(t, err)

	mode, err := opts.serialMode()
	require.NoError(t, err)
	assert.Equal(t, 115200, mode.BaudRate)
	assert.Equal(t, 8, mode.DataBits)
}
