package fusion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendiffdev/shotdetect-core/internal/shottypes"
)

func boundary(frame int, fps, confidence float64) shottypes.Boundary {
	return shottypes.Boundary{Frame: frame, Timestamp: float64(frame) / fps, Confidence: confidence, Kind: shottypes.KindCut}
}

func TestFuseClustersAndCollapsesWorkedExample(t *testing.T) {
	const fps = 30.0
	detectorA := shottypes.DetectionResult{
		Algorithm:  "frame_difference",
		FrameCount: 300,
		Boundaries: []shottypes.Boundary{
			boundary(100, fps, 0.8),
			boundary(250, fps, 0.6),
		},
	}
	detectorB := shottypes.DetectionResult{
		Algorithm:  "histogram",
		FrameCount: 300,
		Boundaries: []shottypes.Boundary{
			boundary(102, fps, 0.7),
			boundary(260, fps, 0.9),
		},
	}

	result, err := Fuse([]shottypes.DetectionResult{detectorA, detectorB}, Options{
		Weights:          map[string]float64{"frame_difference": 0.5, "histogram": 0.5},
		TimeToleranceSec: 1.0,
	})
	require.NoError(t, err)
	require.Len(t, result.Boundaries, 2)

	assert.Equal(t, 101, result.Boundaries[0].Frame)
	assert.InDelta(t, 0.375, result.Boundaries[0].Confidence, 1e-9)

	// Confidence-weighted, not fusion-weight-weighted: (250*0.6+260*0.9)/(0.6+0.9) = 256.
	assert.Equal(t, 256, result.Boundaries[1].Frame)
	assert.InDelta(t, 0.375, result.Boundaries[1].Confidence, 1e-9)

	assert.Equal(t, "ensemble", result.Algorithm)
	assert.Equal(t, 300, result.FrameCount)
}

func TestFuseSingleDetectorPassesThroughUnweighted(t *testing.T) {
	only := shottypes.DetectionResult{
		Algorithm:  "frame_difference",
		FrameCount: 100,
		Boundaries: []shottypes.Boundary{boundary(42, 30, 0.9)},
	}

	result, err := Fuse([]shottypes.DetectionResult{only}, Options{})
	require.NoError(t, err)
	require.Len(t, result.Boundaries, 1)
	assert.Equal(t, 42, result.Boundaries[0].Frame)
	assert.InDelta(t, 0.9, result.Boundaries[0].Confidence, 1e-9)
}

func TestFuseRejectsMismatchedFrameCounts(t *testing.T) {
	a := shottypes.DetectionResult{Algorithm: "frame_difference", FrameCount: 100}
	b := shottypes.DetectionResult{Algorithm: "histogram", FrameCount: 200}

	_, err := Fuse([]shottypes.DetectionResult{a, b}, Options{})
	require.Error(t, err)
}

func TestFuseEmptyInputReturnsEmptyEnsembleResult(t *testing.T) {
	result, err := Fuse(nil, Options{})
	require.NoError(t, err)
	assert.Equal(t, "ensemble", result.Algorithm)
	assert.Empty(t, result.Boundaries)
}

func TestFuseBoundariesOutsideToleranceStaySeparate(t *testing.T) {
	a := shottypes.DetectionResult{
		Algorithm:  "frame_difference",
		FrameCount: 500,
		Boundaries: []shottypes.Boundary{boundary(100, 30, 0.8)},
	}
	b := shottypes.DetectionResult{
		Algorithm:  "histogram",
		FrameCount: 500,
		Boundaries: []shottypes.Boundary{boundary(400, 30, 0.8)},
	}

	result, err := Fuse([]shottypes.DetectionResult{a, b}, Options{TimeToleranceSec: 1.0})
	require.NoError(t, err)
	require.Len(t, result.Boundaries, 2)
}
