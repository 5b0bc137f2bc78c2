package sensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimLifecycle(t *testing.T) {
	s := NewSim(make([]float64, SweepSize))

	assert.False(t, s.Available(), "not available before StartScan")
	require.Error(t, s.StartScan(), "StartScan requires Connect")

	require.NoError(t, s.Connect())
	require.NoError(t, s.StartScan())
	assert.True(t, s.Available())

	require.NoError(t, s.StopScan())
	assert.False(t, s.Available())
	require.NoError(t, s.Disconnect())
	assert.False(t, s.Connected())
}

func TestSimServesSweepsInOrder(t *testing.T) {
	first := make([]float64, SweepSize)
	second := make([]float64, SweepSize)
	first[10] = 100
	second[10] = 200

	s := NewSim(first, second)
	s.Repeat = false
	require.NoError(t, s.Connect())
	require.NoError(t, s.StartScan())

	assert.Equal(t, 100.0, s.Data()[10])
	assert.Equal(t, 200.0, s.Data()[10])
	assert.False(t, s.Available(), "queue exhausted with Repeat off")
}

func TestSimRepeatsLastSweep(t *testing.T) {
	sweep := make([]float64, SweepSize)
	sweep[0] = 42
	s := NewSim(sweep)
	require.NoError(t, s.Connect())
	require.NoError(t, s.StartScan())

	for i := 0; i < 5; i++ {
		require.True(t, s.Available())
		assert.Equal(t, 42.0, s.Data()[0])
	}
}

func TestSimDataReturnsCopy(t *testing.T) {
	sweep := make([]float64, SweepSize)
	s := NewSim(sweep)
	require.NoError(t, s.Connect())
	require.NoError(t, s.StartScan())

	got := s.Data()
	got[0] = 999
	assert.Equal(t, 0.0, s.Data()[0], "mutating a returned sweep must not affect the source")
}

func TestSimRoomGeometry(t *testing.T) {
	s := NewSimRoom(1000, 2000)
	require.NoError(t, s.Connect())
	require.NoError(t, s.StartScan())

	sweep := s.Data()
	require.Len(t, sweep, SweepSize)

	// Straight ahead (angle 0) hits the far wall at half-depth; broadside
	// (angle 90) hits the side wall at half-width.
	assert.InDelta(t, 2000, sweep[0], 1)
	assert.InDelta(t, 1000, sweep[90], 1)
	for angle, d := range sweep {
		assert.GreaterOrEqual(t, d, 1000.0, "angle %d", angle)
	}
}
