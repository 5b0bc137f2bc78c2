package pointcloud

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestColorizeEndpoints(t *testing.T) {
	// Nearest is pure blue, farthest pure red, midpoint pure green.
	r, g, b := Colorize(100, 100, 500)
	assert.Equal(t, [3]uint8{0, 0, 255}, [3]uint8{r, g, b})

	r, g, b = Colorize(500, 100, 500)
	assert.Equal(t, [3]uint8{255, 0, 0}, [3]uint8{r, g, b})

	r, g, b = Colorize(300, 100, 500)
	assert.Equal(t, [3]uint8{128, 255, 128}, [3]uint8{r, g, b})
}

func TestColorizeClampsOutsideRange(t *testing.T) {
	r, g, b := Colorize(50, 100, 500)
	assert.Equal(t, [3]uint8{0, 0, 255}, [3]uint8{r, g, b}, "below range clamps to nearest color")

	r, g, b = Colorize(9999, 100, 500)
	assert.Equal(t, [3]uint8{255, 0, 0}, [3]uint8{r, g, b}, "above range clamps to farthest color")
}

func TestColorizeDegenerateRange(t *testing.T) {
	// A flat wall collapses the range; everything maps mid-gradient.
	r, g, b := Colorize(1000, 1000, 1000)
	assert.Equal(t, uint8(128), r)
	assert.Equal(t, uint8(255), g)
	assert.Equal(t, uint8(128), b)
}

func TestColorizeChannelsAlwaysInRange(t *testing.T) {
	// uint8 enforces [0,255] by type; check the gradient is monotone at the
	// red/blue ends across a dense sweep.
	prevR, prevB := uint8(0), uint8(255)
	for d := 0.0; d <= 1000; d += 12.5 {
		r, _, b := Colorize(d, 0, 1000)
		assert.GreaterOrEqual(t, r, prevR, "red is non-decreasing with distance")
		assert.LessOrEqual(t, b, prevB, "blue is non-increasing with distance")
		prevR, prevB = r, b
	}
}
