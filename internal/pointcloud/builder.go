package pointcloud

import (
	"errors"

	"gonum.org/v1/gonum/floats"

	"github.com/skein-labs/rotoscan/internal/samplelog"
)

// ErrEmptyInput reports that no valid samples remained after sentinel
// filtering, so there is nothing to reconstruct.
var ErrEmptyInput = errors.New("no valid samples to reconstruct")

// Build reconstructs a colored point cloud from a closed sample log.
// sentinel is the sensor's out-of-range value; rows carrying it (or a
// negative distance) are excluded. The color gradient is scan-relative, so
// the distance range is computed over the whole input before any point is
// mapped. The transformation is pure: records are not modified and the
// result depends only on the arguments.
func Build(records []samplelog.Record, sentinel float64, c Chirality) ([]ColoredPoint, error) {
	valid := make([]samplelog.Record, 0, len(records))
	distances := make([]float64, 0, len(records))
	for _, rec := range records {
		if rec.Distance < 0 || rec.Distance == sentinel {
			continue
		}
		valid = append(valid, rec)
		distances = append(distances, rec.Distance)
	}
	if len(valid) == 0 {
		return nil, ErrEmptyInput
	}

	minDistance := floats.Min(distances)
	maxDistance := floats.Max(distances)

	points := make([]ColoredPoint, 0, len(valid))
	for _, rec := range valid {
		pos := Transform(rec.Angle, rec.Distance, rec.Rotation, c)
		r, g, b := Colorize(rec.Distance, minDistance, maxDistance)
		points = append(points, ColoredPoint{Pos: pos, R: r, G: g, B: b})
	}
	return points, nil
}

// DistanceRange returns the min and max valid distance in records, for
// report generation. ok is false when no valid distances exist.
func DistanceRange(records []samplelog.Record, sentinel float64) (min, max float64, ok bool) {
	var distances []float64
	for _, rec := range records {
		if rec.Distance < 0 || rec.Distance == sentinel {
			continue
		}
		distances = append(distances, rec.Distance)
	}
	if len(distances) == 0 {
		return 0, 0, false
	}
	return floats.Min(distances), floats.Max(distances), true
}
