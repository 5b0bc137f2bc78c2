// Package voxel thins a point cloud onto a regular 3D grid before display:
// one representative point per occupied cube reduces density and sensor
// noise without inventing geometry.
package voxel

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/skein-labs/rotoscan/internal/pointcloud"
)

type cell struct {
	ix, iy, iz int64
}

// Downsample bins points into cubes of edge length size and emits the
// centroid of each occupied cube, with channel-averaged color. Output order
// follows the first occurrence of each cube in the input, so the result is
// deterministic for identical input ordering. The output never contains
// more points than the input, and reapplying with the same size is a no-op:
// a cube's centroid lies inside the cube that produced it.
func Downsample(points []pointcloud.ColoredPoint, size float64) ([]pointcloud.ColoredPoint, error) {
	if size <= 0 {
		return nil, fmt.Errorf("voxel size must be positive, got %v", size)
	}

	type accum struct {
		sum     r3.Vec
		r, g, b int64
		n       int64
	}

	bins := make(map[cell]*accum)
	order := make([]cell, 0, len(points))

	for _, p := range points {
		key := cell{
			ix: int64(math.Floor(p.Pos.X / size)),
			iy: int64(math.Floor(p.Pos.Y / size)),
			iz: int64(math.Floor(p.Pos.Z / size)),
		}
		a, ok := bins[key]
		if !ok {
			a = &accum{}
			bins[key] = a
			order = append(order, key)
		}
		a.sum = r3.Add(a.sum, p.Pos)
		a.r += int64(p.R)
		a.g += int64(p.G)
		a.b += int64(p.B)
		a.n++
	}

	out := make([]pointcloud.ColoredPoint, 0, len(order))
	for _, key := range order {
		a := bins[key]
		n := float64(a.n)
		out = append(out, pointcloud.ColoredPoint{
			Pos: r3.Scale(1/n, a.sum),
			R:   uint8(math.Round(float64(a.r) / n)),
			G:   uint8(math.Round(float64(a.g) / n)),
			B:   uint8(math.Round(float64(a.b) / n)),
		})
	}
	return out, nil
}

// AdjustGamma raises each color channel (normalized to [0,1]) to the given
// exponent and returns the adjusted copy. Exponents above one deepen dark
// tones; exponent one returns the input unchanged, which is the pipeline
// default.
func AdjustGamma(points []pointcloud.ColoredPoint, exponent float64) []pointcloud.ColoredPoint {
	if exponent == 1 {
		return points
	}

	out := make([]pointcloud.ColoredPoint, len(points))
	for i, p := range points {
		p.R = gammaChannel(p.R, exponent)
		p.G = gammaChannel(p.G, exponent)
		p.B = gammaChannel(p.B, exponent)
		out[i] = p
	}
	return out
}

func gammaChannel(c uint8, exponent float64) uint8 {
	v := 255 * math.Pow(float64(c)/255, exponent)
	return uint8(math.Round(math.Max(0, math.Min(255, v))))
}
