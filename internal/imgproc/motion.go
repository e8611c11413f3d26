package imgproc

import "math"

// blockSearchRadius bounds the single-translation optical-flow
// estimate used for motion compensation (spec.md §4.2.1): "estimate a
// single translation vector via optical flow at the frame center".
// A full Lucas-Kanade/Farneback implementation is out of scope for a
// single global vector; this uses block matching around the frame
// center over a bounded search window, the idiomatic stand-in for
// "optical flow at a point" when only one vector is needed.
const blockSearchRadius = 8

// EstimateTranslation finds the integer (dx, dy) that best aligns a
// patch of `curr` centered on the frame to the same location in
// `prev`, minimizing sum of absolute differences over a
// blockSearchRadius window.
func EstimateTranslation(prev, curr []byte, w, h int) (dx, dy int) {
	if len(prev) != w*h || len(curr) != w*h || w == 0 || h == 0 {
		return 0, 0
	}
	patch := 32
	if patch > w {
		patch = w
	}
	if patch > h {
		patch = h
	}
	cx, cy := w/2, h/2
	x0 := clamp(cx-patch/2, 0, w-patch)
	y0 := clamp(cy-patch/2, 0, h-patch)

	bestCost := math.MaxFloat64
	bestDx, bestDy := 0, 0

	for oy := -blockSearchRadius; oy <= blockSearchRadius; oy++ {
		for ox := -blockSearchRadius; ox <= blockSearchRadius; ox++ {
			cost := 0.0
			valid := true
			for py := 0; py < patch && valid; py++ {
				for px := 0; px < patch; px++ {
					sx, sy := x0+px, y0+py
					tx, ty := sx+ox, sy+oy
					if tx < 0 || tx >= w || ty < 0 || ty >= h {
						valid = false
						break
					}
					cost += math.Abs(float64(curr[ty*w+tx]) - float64(prev[sy*w+sx]))
				}
			}
			if !valid {
				continue
			}
			if cost < bestCost {
				bestCost = cost
				bestDx, bestDy = ox, oy
			}
		}
	}
	return bestDx, bestDy
}

// WarpTranslate shifts a grayscale plane by (dx, dy): output pixel
// (x, y) takes the input pixel at (x-dx, y-dy). The frame-difference
// detector passes the negated EstimateTranslation result to move
// `curr` back toward `prev`'s frame of reference before differencing,
// per spec.md §4.2.1's "warp the second frame by its negation".
// Out-of-bounds samples are clamped (edge replication).
func WarpTranslate(gray []byte, w, h, dx, dy int) []byte {
	out := make([]byte, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sx := clamp(x-dx, 0, w-1)
			sy := clamp(y-dy, 0, h-1)
			out[y*w+x] = gray[sy*w+sx]
		}
	}
	return out
}
