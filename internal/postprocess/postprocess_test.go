package postprocess

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendiffdev/shotdetect-core/internal/shottypes"
)

func TestSmoothFlatSeriesUnchanged(t *testing.T) {
	scores := []float64{5, 5, 5, 5, 5}
	out := Smooth(scores, 3)
	for _, v := range out {
		assert.InDelta(t, 5, v, 1e-9)
	}
}

func TestSmoothEdgesUseTruncatedWindow(t *testing.T) {
	scores := []float64{0, 10, 0}
	out := Smooth(scores, 3)
	// first element's window is [0,1]: mean of 0 and 10.
	assert.InDelta(t, 5, out[0], 1e-9)
}

func TestFindPeaksRespectsThresholdAndDistance(t *testing.T) {
	scores := []float64{0, 1, 0, 0, 0.9, 0, 0}
	peaks := FindPeaks(scores, 0.5, 3)
	require.Len(t, peaks, 2)
	assert.Equal(t, 1, peaks[0])
	assert.Equal(t, 4, peaks[1])
}

func TestFindPeaksSuppressesCloseSecondary(t *testing.T) {
	scores := []float64{0, 1.0, 0.9, 0, 0}
	peaks := FindPeaks(scores, 0.5, 3)
	require.Len(t, peaks, 1)
	assert.Equal(t, 1, peaks[0])
}

func boundaryAt(frame int) shottypes.Boundary {
	return shottypes.Boundary{Frame: frame, Timestamp: float64(frame) / 30.0, Confidence: 0.8}
}

func TestMinSceneLengthFilterDropsShortGaps(t *testing.T) {
	boundaries := []shottypes.Boundary{boundaryAt(0), boundaryAt(5), boundaryAt(20)}
	out := MinSceneLengthFilter(boundaries, 15)
	require.Len(t, out, 2)
	assert.Equal(t, 0, out[0].Frame)
	assert.Equal(t, 20, out[1].Frame)
}

func TestDeduplicateCloseKeepsHigherConfidence(t *testing.T) {
	low := shottypes.Boundary{Frame: 100, Timestamp: 100.0 / 30, Confidence: 0.4}
	high := shottypes.Boundary{Frame: 102, Timestamp: 102.0 / 30, Confidence: 0.9}
	out := DeduplicateClose([]shottypes.Boundary{low, high}, 1.0)
	require.Len(t, out, 1)
	assert.Equal(t, 102, out[0].Frame)
}

func TestDeduplicateCloseKeepsSeparateBoundaries(t *testing.T) {
	a := shottypes.Boundary{Frame: 0, Timestamp: 0, Confidence: 0.5}
	b := shottypes.Boundary{Frame: 90, Timestamp: 3.0, Confidence: 0.5}
	out := DeduplicateClose([]shottypes.Boundary{a, b}, 1.0)
	require.Len(t, out, 2)
}

func TestAdaptiveGlobalThresholdIs85thPercentile(t *testing.T) {
	scores := make([]float64, 0, 100)
	for i := 1; i <= 100; i++ {
		scores = append(scores, float64(i))
	}
	th := AdaptiveGlobalThreshold(scores)
	assert.InDelta(t, 85, th, 0.001)
}

func TestAdaptiveThresholdsTracksLocalVariance(t *testing.T) {
	scores := []float64{1, 1, 1, 1, 1}
	out := AdaptiveThresholds(scores, 3)
	for _, v := range out {
		assert.InDelta(t, 1, v, 1e-9)
	}
}
