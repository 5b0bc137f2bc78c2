// Package pointcloud reconstructs a colored 3D point cloud from the sample
// log of a rotating 2D range sensor: each (angle, distance) reading lies in
// the sensor's sweep plane, and the stage rotation swings that plane about
// the vertical axis.
package pointcloud

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

// ColoredPoint is one reconstructed vertex: a position in sensor units and
// an 8-bit RGB color keyed to the reading's relative distance. Points are
// never mutated after creation.
type ColoredPoint struct {
	Pos     r3.Vec
	R, G, B uint8
}

// Chirality is the rotation sense used when composing the stage rotation
// into the reconstruction. It is always an explicit parameter: the same
// sample log yields mirrored clouds under the two senses, and which one is
// correct depends on how the stage was mounted.
type Chirality int

const (
	Clockwise Chirality = iota
	Counterclockwise
)

func (c Chirality) String() string {
	if c == Counterclockwise {
		return "counterclockwise"
	}
	return "clockwise"
}

// Suffix returns the filename suffix that disambiguates reconstruction
// variants, e.g. scanData_x_CW.ply vs scanData_x_CCW.ply.
func (c Chirality) Suffix() string {
	if c == Counterclockwise {
		return "_CCW"
	}
	return "_CW"
}

// ParseChirality parses the flag form of a Chirality.
func ParseChirality(s string) (Chirality, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cw", "clockwise", "":
		return Clockwise, nil
	case "ccw", "counterclockwise":
		return Counterclockwise, nil
	default:
		return Clockwise, fmt.Errorf("invalid chirality %q: supported values are cw or ccw", s)
	}
}
