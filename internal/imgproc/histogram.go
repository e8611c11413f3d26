package imgproc

import "math"

// Histogram is a normalized (unit-sum) probability mass function over
// a fixed number of bins.
type Histogram []float64

// JointHistogram computes a 3-channel joint color histogram with
// binsPerChannel bins per channel (so len == binsPerChannel^3),
// normalized to unit sum, per spec.md §4.2.2. colorSpace selects which
// channels of the frame are sampled; HSV mode uses only H and S
// (collapsing to a 2-channel histogram) as the spec requires.
func JointHistogram(f *Frame, binsPerChannel int, space string) Histogram {
	if binsPerChannel < 1 {
		binsPerChannel = 1
	}

	switch space {
	case "HSV":
		return jointHistogram2D(f, binsPerChannel, toHS)
	case "LAB":
		return jointHistogram3D(f, binsPerChannel, toLAB)
	default:
		return jointHistogram3D(f, binsPerChannel, toRGBf)
	}
}

func toRGBf(b, g, r uint8) (c1, c2, c3 float64) {
	return float64(r), float64(g), float64(b)
}

// toHS converts BGR to hue/saturation in [0,255] scale; value is unused.
func toHS(b, g, r uint8) (h, s, _ float64) {
	rf, gf, bf := float64(r)/255, float64(g)/255, float64(b)/255
	maxC := math.Max(rf, math.Max(gf, bf))
	minC := math.Min(rf, math.Min(gf, bf))
	delta := maxC - minC

	hue := 0.0
	if delta > 1e-9 {
		switch maxC {
		case rf:
			hue = 60 * math.Mod((gf-bf)/delta, 6)
		case gf:
			hue = 60 * ((bf-rf)/delta + 2)
		default:
			hue = 60 * ((rf-gf)/delta + 4)
		}
	}
	if hue < 0 {
		hue += 360
	}
	sat := 0.0
	if maxC > 1e-9 {
		sat = delta / maxC
	}
	return hue / 360 * 255, sat * 255, 0
}

// toLAB is a coarse BGR->CIE-L*a*b* approximation, sufficient for
// histogram binning (exact colorimetric accuracy is not required by
// spec.md, which leaves color-space conversion to an external
// collaborator).
func toLAB(b, g, r uint8) (l, a, bb float64) {
	rf, gf, bf := float64(r)/255, float64(g)/255, float64(b)/255
	linearize := func(c float64) float64 {
		if c > 0.04045 {
			return math.Pow((c+0.055)/1.055, 2.4)
		}
		return c / 12.92
	}
	rl, gl, bl := linearize(rf), linearize(gf), linearize(bf)
	x := rl*0.4124 + gl*0.3576 + bl*0.1805
	y := rl*0.2126 + gl*0.7152 + bl*0.0722
	z := rl*0.0193 + gl*0.1192 + bl*0.9505

	f := func(t float64) float64 {
		if t > 0.008856 {
			return math.Cbrt(t)
		}
		return 7.787*t + 16.0/116
	}
	fx, fy, fz := f(x/0.95047), f(y), f(z/1.08883)
	L := 116*fy - 16
	A := 500 * (fx - fy)
	B := 200 * (fy - fz)
	// Scale into a 0..255-ish range for binning purposes.
	return (L/100 + 1) * 127.5, A + 128, B + 128
}

func jointHistogram3D(f *Frame, bins int, conv func(b, g, r uint8) (float64, float64, float64)) Histogram {
	total := bins * bins * bins
	hist := make(Histogram, total)
	n := 0
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			b, g, r := f.At(x, y)
			c1, c2, c3 := conv(b, g, r)
			i1 := binIndex(c1, bins)
			i2 := binIndex(c2, bins)
			i3 := binIndex(c3, bins)
			hist[i1*bins*bins+i2*bins+i3]++
			n++
		}
	}
	normalize(hist, float64(n))
	return hist
}

func jointHistogram2D(f *Frame, bins int, conv func(b, g, r uint8) (float64, float64, float64)) Histogram {
	total := bins * bins
	hist := make(Histogram, total)
	n := 0
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			b, g, r := f.At(x, y)
			c1, c2, _ := conv(b, g, r)
			i1 := binIndex(c1, bins)
			i2 := binIndex(c2, bins)
			hist[i1*bins+i2]++
			n++
		}
	}
	normalize(hist, float64(n))
	return hist
}

func binIndex(v float64, bins int) int {
	idx := int(v / 256.0 * float64(bins))
	return clamp(idx, 0, bins-1)
}

func normalize(h Histogram, n float64) {
	if n == 0 {
		return
	}
	for i := range h {
		h[i] /= n
	}
}

// ChiSquareDistance computes the chi-square distance between two
// normalized histograms, scaled by 1/1000 and clamped to [0,1], per
// spec.md §4.2.2 formula (1).
func ChiSquareDistance(a, b Histogram) float64 {
	sum := 0.0
	for i := range a {
		denom := a[i] + b[i]
		if denom > 1e-12 {
			d := a[i] - b[i]
			sum += d * d / denom
		}
	}
	scaled := sum / 1000.0
	return math.Max(0, math.Min(1, scaled))
}

// BhattacharyyaDistance computes the Bhattacharyya distance, already
// in [0,1], per spec.md §4.2.2 formula (2).
func BhattacharyyaDistance(a, b Histogram) float64 {
	bc := 0.0
	for i := range a {
		bc += math.Sqrt(a[i] * b[i])
	}
	bc = math.Max(0, math.Min(1, bc))
	d := math.Sqrt(1 - bc)
	if math.IsNaN(d) {
		return 1
	}
	return d
}

// Correlation computes Pearson correlation between two histograms,
// used as 1-corr in spec.md §4.2.2 formula (3).
func Correlation(a, b Histogram) float64 {
	n := len(a)
	if n == 0 {
		return 0
	}
	meanA, meanB := mean(a), mean(b)
	var num, denA, denB float64
	for i := 0; i < n; i++ {
		da := a[i] - meanA
		db := b[i] - meanB
		num += da * db
		denA += da * da
		denB += db * db
	}
	if denA <= 0 || denB <= 0 {
		return 1
	}
	return num / math.Sqrt(denA*denB)
}

func mean(h Histogram) float64 {
	if len(h) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range h {
		sum += v
	}
	return sum / float64(len(h))
}

// IntersectionDistance computes 1 - (intersection / sum(a)), formula
// (4) in spec.md §4.2.2.
func IntersectionDistance(a, b Histogram) float64 {
	inter := 0.0
	sumA := 0.0
	for i := range a {
		inter += math.Min(a[i], b[i])
		sumA += a[i]
	}
	if sumA <= 0 {
		return 0
	}
	return 1 - inter/sumA
}

// EdgeOrientationHistogram buckets Canny-like edge-pixel gradient
// directions into binsOver180 bins over [0, 180), per spec.md §4.2.2's
// multi-channel variant. It approximates Canny with a Sobel-magnitude
// threshold pair (50/150 on the raw 3x3 Sobel magnitude, which reaches
// 1020 on a hard 0-to-255 edge), the same thresholds spec.md names.
func EdgeOrientationHistogram(gray []byte, w, h, binsOver180 int) Histogram {
	if binsOver180 < 1 {
		binsOver180 = 1
	}
	hist := make(Histogram, binsOver180)
	gx := [3][3]int{{-1, 0, 1}, {-2, 0, 2}, {-1, 0, 1}}
	gy := [3][3]int{{-1, -2, -1}, {0, 0, 0}, {1, 2, 1}}

	count := 0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var sx, sy int
			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					xx := clamp(x+kx, 0, w-1)
					yy := clamp(y+ky, 0, h-1)
					v := int(gray[yy*w+xx])
					sx += v * gx[ky+1][kx+1]
					sy += v * gy[ky+1][kx+1]
				}
			}
			mag := math.Sqrt(float64(sx*sx + sy*sy))
			if mag < 50 {
				continue // below low Canny threshold: not an edge
			}
			strong := mag >= 150
			_ = strong // weak edges are still counted; strong/weak linking is out of scope

			angle := math.Atan2(float64(sy), float64(sx)) * 180 / math.Pi
			if angle < 0 {
				angle += 180
			} else if angle >= 180 {
				angle -= 180
			}
			bin := clamp(int(angle/180*float64(binsOver180)), 0, binsOver180-1)
			hist[bin]++
			count++
		}
	}
	normalize(hist, float64(count))
	return hist
}

// Concat concatenates histograms into one vector, for the
// multi-channel detector's global+spatial-grid+edge-orientation
// feature assembly (spec.md §4.2.2).
func Concat(hists ...Histogram) Histogram {
	total := 0
	for _, h := range hists {
		total += len(h)
	}
	out := make(Histogram, 0, total)
	for _, h := range hists {
		out = append(out, h...)
	}
	return out
}
