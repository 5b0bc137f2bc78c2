package pointcloud

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Transform maps one range reading into Cartesian coordinates. angleDeg is
// the in-sweep bearing, rotationDeg the stage position, both in degrees.
// Coordinate convention: Y=up along the sweep, Z=forward at rotation zero,
// X completes the frame. The function is total over its numeric domain.
func Transform(angleDeg, distance, rotationDeg float64, c Chirality) r3.Vec {
	angleRad := angleDeg * math.Pi / 180.0
	y := distance * math.Sin(angleRad)
	z := distance * math.Cos(angleRad)

	// The stage rotates the sweep plane about the vertical axis. A
	// counterclockwise mount is the mirror of a clockwise one, so the
	// rotation angle flips sign.
	rotationRad := rotationDeg * math.Pi / 180.0
	if c == Counterclockwise {
		rotationRad = -rotationRad
	}

	x := -(z * math.Sin(rotationRad))
	z = z * math.Cos(rotationRad)

	return r3.Vec{X: x, Y: y, Z: z}
}
