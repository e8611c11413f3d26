package imgproc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// gradientGray builds a non-periodic, non-linear synthetic pattern so
// block matching has a unique minimum at the true shift rather than
// ambiguous ties along a ramp or a repeating tile.
func gradientGray(w, h int) []byte {
	g := make([]byte, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			g[y*w+x] = byte(((x*31 + y*17) ^ (x * y)) % 251)
		}
	}
	return g
}

func TestEstimateTranslationZeroForIdenticalFrames(t *testing.T) {
	gray := gradientGray(64, 64)
	dx, dy := EstimateTranslation(gray, gray, 64, 64)
	assert.Equal(t, 0, dx)
	assert.Equal(t, 0, dy)
}

func TestEstimateTranslationFindsShift(t *testing.T) {
	w, h := 64, 64
	prev := gradientGray(w, h)
	curr := WarpTranslate(prev, w, h, 3, -2)
	dx, dy := EstimateTranslation(prev, curr, w, h)
	assert.Equal(t, 3, dx)
	assert.Equal(t, -2, dy)
}

func TestEstimateTranslationMismatchedSizeIsZero(t *testing.T) {
	dx, dy := EstimateTranslation(make([]byte, 4), make([]byte, 9), 2, 2)
	assert.Equal(t, 0, dx)
	assert.Equal(t, 0, dy)
}

func TestWarpTranslateIdentityWhenZero(t *testing.T) {
	gray := gradientGray(16, 16)
	out := WarpTranslate(gray, 16, 16, 0, 0)
	assert.Equal(t, gray, out)
}
