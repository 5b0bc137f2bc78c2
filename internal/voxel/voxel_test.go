package voxel

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/skein-labs/rotoscan/internal/pointcloud"
)

func randomCloud(n int, spread float64) []pointcloud.ColoredPoint {
	rng := rand.New(rand.NewSource(42))
	points := make([]pointcloud.ColoredPoint, n)
	for i := range points {
		points[i] = pointcloud.ColoredPoint{
			Pos: r3.Vec{
				X: (rng.Float64() - 0.5) * spread,
				Y: (rng.Float64() - 0.5) * spread,
				Z: (rng.Float64() - 0.5) * spread,
			},
			R: uint8(rng.Intn(256)),
			G: uint8(rng.Intn(256)),
			B: uint8(rng.Intn(256)),
		}
	}
	return points
}

func TestDownsampleRejectsBadSize(t *testing.T) {
	_, err := Downsample(nil, 0)
	assert.Error(t, err)
	_, err = Downsample(nil, -0.03)
	assert.Error(t, err)
}

func TestDownsampleMergesCohabitingPoints(t *testing.T) {
	points := []pointcloud.ColoredPoint{
		{Pos: r3.Vec{X: 0.01, Y: 0.01, Z: 0.01}, R: 100, G: 0, B: 200},
		{Pos: r3.Vec{X: 0.02, Y: 0.02, Z: 0.02}, R: 200, G: 0, B: 100},
		{Pos: r3.Vec{X: 1.50, Y: 0.01, Z: 0.01}, R: 50, G: 50, B: 50},
	}

	out, err := Downsample(points, 0.03)
	require.NoError(t, err)
	require.Len(t, out, 2)

	// First cube: centroid position, averaged color.
	assert.InDelta(t, 0.015, out[0].Pos.X, 1e-12)
	assert.Equal(t, uint8(150), out[0].R)
	assert.Equal(t, uint8(150), out[0].B)

	// The far point survives untouched.
	assert.Equal(t, points[2], out[1])
}

func TestDownsampleNeverGrows(t *testing.T) {
	points := randomCloud(500, 10)
	for _, size := range []float64{0.03, 0.5, 2, 100} {
		out, err := Downsample(points, size)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(out), len(points), "size %v", size)
	}
}

func TestDownsampleIdempotent(t *testing.T) {
	points := randomCloud(500, 10)
	once, err := Downsample(points, 0.5)
	require.NoError(t, err)
	twice, err := Downsample(once, 0.5)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}

func TestDownsampleDeterministicOrder(t *testing.T) {
	points := randomCloud(200, 5)
	a, err := Downsample(points, 0.5)
	require.NoError(t, err)
	b, err := Downsample(points, 0.5)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestDownsampleNegativeCoordinates(t *testing.T) {
	// floor-based binning must not collapse points straddling the origin.
	points := []pointcloud.ColoredPoint{
		{Pos: r3.Vec{X: -0.01, Y: 0, Z: 0}},
		{Pos: r3.Vec{X: 0.01, Y: 0, Z: 0}},
	}
	out, err := Downsample(points, 0.03)
	require.NoError(t, err)
	assert.Len(t, out, 2)
}

func TestAdjustGammaIdentity(t *testing.T) {
	points := randomCloud(10, 1)
	assert.Equal(t, points, AdjustGamma(points, 1))
}

func TestAdjustGammaDarkensLowChannels(t *testing.T) {
	points := []pointcloud.ColoredPoint{{R: 64, G: 128, B: 255}}
	out := AdjustGamma(points, 2)

	assert.Less(t, out[0].R, uint8(64))
	assert.Less(t, out[0].G, uint8(128))
	assert.Equal(t, uint8(255), out[0].B, "full channel is a fixed point")
	assert.Equal(t, uint8(64), points[0].R, "input is not mutated")
}
