package detect

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendiffdev/shotdetect-core/internal/frame"
	"github.com/rendiffdev/shotdetect-core/internal/shottypes"
)

func solidCutSource(splitIndex, frameCount int) *frame.SyntheticSource {
	meta := shottypes.VideoMetadata{Width: 64, Height: 64, FPS: 30, FrameCount: frameCount}
	build := frame.SolidColorBuild(64, 64, splitIndex, [3]byte{0, 0, 0}, [3]byte{255, 255, 255})
	return frame.NewSyntheticSource(meta, build)
}

func TestFrameDifferenceDetectsSingleCut(t *testing.T) {
	src := solidCutSource(150, 300)
	d := NewFrameDifference(shottypes.DetectorConfig{})
	require.NoError(t, d.Initialize())
	defer d.Cleanup()

	result, err := d.Detect(context.Background(), src)
	require.NoError(t, err)
	require.Len(t, result.Boundaries, 1)
	assert.Equal(t, 150, result.Boundaries[0].Frame)
	assert.InDelta(t, 5.0, result.Boundaries[0].Timestamp, 1e-9)
	assert.Equal(t, "frame_difference", result.Algorithm)
	assert.Equal(t, 300, result.FrameCount)
}

func TestFrameDifferenceNoCutOnSolidVideo(t *testing.T) {
	meta := shottypes.VideoMetadata{Width: 32, Height: 32, FPS: 30, FrameCount: 60}
	build := frame.SolidColorBuild(32, 32, 1000, [3]byte{10, 20, 30}, [3]byte{10, 20, 30})
	src := frame.NewSyntheticSource(meta, build)

	d := NewFrameDifference(shottypes.DetectorConfig{})
	require.NoError(t, d.Initialize())

	result, err := d.Detect(context.Background(), src)
	require.NoError(t, err)
	assert.Empty(t, result.Boundaries)
}

func TestEnhancedFrameDifferenceWithEdgeAndMotionCompensation(t *testing.T) {
	src := solidCutSource(150, 300)
	d := NewEnhancedFrameDifference(shottypes.DetectorConfig{EdgeEnhancement: true, MotionCompensation: true})
	require.NoError(t, d.Initialize())

	result, err := d.Detect(context.Background(), src)
	require.NoError(t, err)
	require.Len(t, result.Boundaries, 1)
	assert.Equal(t, "enhanced_frame_difference", result.Algorithm)
}

func TestFrameDifferenceDetectRespectsCancellation(t *testing.T) {
	src := solidCutSource(150, 300)
	d := NewFrameDifference(shottypes.DetectorConfig{})
	require.NoError(t, d.Initialize())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := d.Detect(ctx, src)
	require.Error(t, err)
}

func TestFrameDifferenceProcessPairRejectsShapeMismatch(t *testing.T) {
	d := NewFrameDifference(shottypes.DetectorConfig{})
	a := imgProcFrame(16, 16)
	b := imgProcFrame(8, 8)
	_, err := d.ProcessPair(a, b)
	require.Error(t, err)
}
