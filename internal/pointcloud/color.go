package pointcloud

import "math"

// Colorize maps a distance onto a blue→green→red gradient keyed to the
// scan's distance range: the nearest reading is blue, the farthest red. A
// degenerate range (minDistance == maxDistance, e.g. a flat wall filling the
// whole scan) maps everything to the mid-gradient green rather than
// dividing by zero.
func Colorize(distance, minDistance, maxDistance float64) (r, g, b uint8) {
	t := 0.5
	if maxDistance > minDistance {
		t = (distance - minDistance) / (maxDistance - minDistance)
		t = math.Max(0, math.Min(1, t))
	}

	r = uint8(math.Round(255 * t))
	g = uint8(math.Round(255 * (1 - 2*math.Abs(t-0.5))))
	b = uint8(math.Round(255 * (1 - t)))
	return r, g, b
}
