package imgproc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func flatGray(w, h int, v byte) []byte {
	g := make([]byte, w*h)
	for i := range g {
		g[i] = v
	}
	return g
}

func TestGaussianBlurPreservesFlatField(t *testing.T) {
	gray := flatGray(20, 20, 100)
	blurred := GaussianBlur5x5(gray, 20, 20)
	for _, v := range blurred {
		assert.InDelta(t, 100, v, 1)
	}
}

func TestGaussianBlur11x11SmoothsImpulse(t *testing.T) {
	gray := flatGray(21, 21, 0)
	gray[10*21+10] = 255
	blurred := GaussianBlur11x11(gray, 21, 21)
	assert.Less(t, int(blurred[10*21+10]), 255)
	assert.Greater(t, int(blurred[10*21+11]), 0)
}

func TestSobelMagnitudeZeroOnFlatField(t *testing.T) {
	gray := flatGray(10, 10, 128)
	mags := SobelMagnitude(gray, 10, 10)
	for _, m := range mags {
		assert.Equal(t, 0.0, m)
	}
}

func TestSobelMagnitudeDetectsEdge(t *testing.T) {
	w, h := 10, 10
	gray := make([]byte, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x < w/2 {
				gray[y*w+x] = 0
			} else {
				gray[y*w+x] = 255
			}
		}
	}
	mags := SobelMagnitude(gray, w, h)
	assert.Greater(t, mags[5*w+5], 0.0)
}
