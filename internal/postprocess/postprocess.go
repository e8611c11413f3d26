// Package postprocess implements the score smoothing, peak finding,
// minimum-scene-length filtering, close-boundary deduplication and
// adaptive global threshold of spec.md §4.3 (C3).
package postprocess

import (
	"math"
	"sort"

	"github.com/rendiffdev/shotdetect-core/internal/shottypes"
)

// Smooth applies a sliding-window mean with the given odd window
// size; edges use truncated windows, per spec.md §4.3.
func Smooth(scores []float64, window int) []float64 {
	if window < 1 {
		window = 1
	}
	if window%2 == 0 {
		window++
	}
	half := window / 2
	out := make([]float64, len(scores))
	for i := range scores {
		lo := i - half
		if lo < 0 {
			lo = 0
		}
		hi := i + half
		if hi >= len(scores) {
			hi = len(scores) - 1
		}
		sum := 0.0
		for j := lo; j <= hi; j++ {
			sum += scores[j]
		}
		out[i] = sum / float64(hi-lo+1)
	}
	return out
}

// FindPeaks finds local maxima at or above threshold, at least
// minDistance frames apart, per spec.md §4.3: a peak at i requires
// s[i] >= threshold, s[i] greater than all s[j] for |j-i| < d, and no
// higher peak within distance d already selected; ties broken by
// earlier index.
func FindPeaks(scores []float64, threshold float64, minDistance int) []int {
	type candidate struct {
		idx   int
		score float64
	}
	var candidates []candidate
	for i, s := range scores {
		if s < threshold {
			continue
		}
		isLocalMax := true
		for j := i - minDistance + 1; j <= i+minDistance-1; j++ {
			if j == i || j < 0 || j >= len(scores) {
				continue
			}
			if scores[j] > s || (scores[j] == s && j < i) {
				isLocalMax = false
				break
			}
		}
		if isLocalMax {
			candidates = append(candidates, candidate{i, s})
		}
	}

	sort.SliceStable(candidates, func(a, b int) bool {
		if candidates[a].score != candidates[b].score {
			return candidates[a].score > candidates[b].score
		}
		return candidates[a].idx < candidates[b].idx
	})

	var selected []int
	for _, c := range candidates {
		conflict := false
		for _, s := range selected {
			if abs(s-c.idx) < minDistance {
				conflict = true
				break
			}
		}
		if !conflict {
			selected = append(selected, c.idx)
		}
	}
	sort.Ints(selected)
	return selected
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// MinSceneLengthFilter walks the ordered boundary list, dropping any
// boundary whose frame index is less than minSceneLength after the
// previous retained boundary, per spec.md §4.3 and E3.
func MinSceneLengthFilter(boundaries []shottypes.Boundary, minSceneLength int) []shottypes.Boundary {
	if len(boundaries) == 0 {
		return boundaries
	}
	out := make([]shottypes.Boundary, 0, len(boundaries))
	out = append(out, boundaries[0])
	for _, b := range boundaries[1:] {
		if b.Frame-out[len(out)-1].Frame < minSceneLength {
			continue
		}
		out = append(out, b)
	}
	return out
}

// DeduplicateClose keeps, among boundaries separated by less than
// minIntervalSec seconds, the one with higher confidence (earlier on
// tie), per spec.md §4.3.
func DeduplicateClose(boundaries []shottypes.Boundary, minIntervalSec float64) []shottypes.Boundary {
	if len(boundaries) == 0 {
		return boundaries
	}
	sorted := make([]shottypes.Boundary, len(boundaries))
	copy(sorted, boundaries)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Frame < sorted[j].Frame })

	out := make([]shottypes.Boundary, 0, len(sorted))
	out = append(out, sorted[0])
	for _, b := range sorted[1:] {
		last := out[len(out)-1]
		if b.Timestamp-last.Timestamp < minIntervalSec {
			if b.Confidence > last.Confidence {
				out[len(out)-1] = b
			}
			continue
		}
		out = append(out, b)
	}
	return out
}

// AdaptiveGlobalThreshold sets the threshold to the 85th percentile of
// the observed score sequence, per spec.md §4.3.
func AdaptiveGlobalThreshold(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	sorted := make([]float64, len(scores))
	copy(sorted, scores)
	sort.Float64s(sorted)
	idx := int(0.85 * float64(len(sorted)-1))
	return sorted[idx]
}

// AdaptiveThresholds computes a per-transition threshold tau_i = mu_i
// + 2*sigma_i over a local window [i-w/2, i+w/2), per spec.md §4.2.2's
// adaptive histogram variant.
func AdaptiveThresholds(scores []float64, window int) []float64 {
	if window < 1 {
		window = 1
	}
	half := window / 2
	out := make([]float64, len(scores))
	for i := range scores {
		lo := i - half
		if lo < 0 {
			lo = 0
		}
		hi := i + half - 1
		if hi < i {
			hi = i
		}
		if hi >= len(scores) {
			hi = len(scores) - 1
		}
		n := hi - lo + 1
		mean := 0.0
		for j := lo; j <= hi; j++ {
			mean += scores[j]
		}
		mean /= float64(n)

		variance := 0.0
		for j := lo; j <= hi; j++ {
			d := scores[j] - mean
			variance += d * d
		}
		variance /= float64(n)
		out[i] = mean + 2*math.Sqrt(variance)
	}
	return out
}
