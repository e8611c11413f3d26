package orchestrator

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendiffdev/shotdetect-core/internal/cache"
	"github.com/rendiffdev/shotdetect-core/internal/detect"
	"github.com/rendiffdev/shotdetect-core/internal/detecterrors"
	"github.com/rendiffdev/shotdetect-core/internal/frame"
	"github.com/rendiffdev/shotdetect-core/internal/imgproc"
	"github.com/rendiffdev/shotdetect-core/internal/shottypes"
)

// syntheticSourceFactory returns a sourceOpener that ignores the path
// and codec-tool arguments and always opens the same in-memory cut
// fixture, letting orchestrator tests run without ffmpeg/ffprobe.
func syntheticSourceFactory(meta shottypes.VideoMetadata, splitIndex int) sourceOpener {
	return func(ctx context.Context, path, ffprobePath, ffmpegPath string, log zerolog.Logger) (frame.Source, error) {
		build := frame.SolidColorBuild(meta.Width, meta.Height, splitIndex, [3]byte{0, 0, 0}, [3]byte{255, 255, 255})
		return frame.NewSyntheticSource(meta, build), nil
	}
}

func newTempVideoPath(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.mp4")
	require.NoError(t, os.WriteFile(path, []byte("not a real video"), 0o644))
	return path
}

func TestDetectRequiresAtLeastOneDetector(t *testing.T) {
	orch := New(detect.NewRegistry(), nil, nil, zerolog.Nop())
	_, err := orch.Detect(context.Background(), newTempVideoPath(t), Options{})
	require.Error(t, err)
}

func TestDetectRejectsUnsupportedExtension(t *testing.T) {
	orch := New(detect.NewRegistry(), nil, nil, zerolog.Nop())
	path := filepath.Join(t.TempDir(), "clip.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	_, err := orch.Detect(context.Background(), path, Options{
		Detectors: []shottypes.DetectorConfig{{Kind: "frame_difference"}},
	})
	require.Error(t, err)
}

func TestDetectSingleDetectorEndToEnd(t *testing.T) {
	meta := shottypes.VideoMetadata{Width: 32, Height: 32, FPS: 30, FrameCount: 300}
	orch := New(detect.NewRegistry(), nil, nil, zerolog.Nop())
	orch.openSource = syntheticSourceFactory(meta, 150)

	var stages []string
	result, err := orch.Detect(context.Background(), newTempVideoPath(t), Options{
		Detectors: []shottypes.DetectorConfig{{Kind: "frame_difference"}},
		OnProgress: func(fraction float64, stage string) {
			stages = append(stages, stage)
		},
	})
	require.NoError(t, err)
	require.Len(t, result.Boundaries, 1)
	assert.Equal(t, 150, result.Boundaries[0].Frame)
	assert.Equal(t, "frame_difference", result.Fused.Algorithm)
	assert.NotEmpty(t, result.Segments)
	assert.Equal(t, stages[len(stages)-1], "done")
}

func TestDetectMultiDetectorFansOutAndFuses(t *testing.T) {
	meta := shottypes.VideoMetadata{Width: 32, Height: 32, FPS: 30, FrameCount: 300}
	orch := New(detect.NewRegistry(), nil, nil, zerolog.Nop())
	orch.openSource = syntheticSourceFactory(meta, 150)

	result, err := orch.Detect(context.Background(), newTempVideoPath(t), Options{
		Detectors: []shottypes.DetectorConfig{
			{Kind: "frame_difference"},
			{Kind: "histogram"},
		},
		FusionTolerance: 1.0,
	})
	require.NoError(t, err)
	require.Len(t, result.PerDetector, 2)
	assert.Equal(t, "ensemble", result.Fused.Algorithm)
	require.Len(t, result.Boundaries, 1)
	assert.Equal(t, 150, result.Boundaries[0].Frame)
}

func TestDetectUsesCacheCoordinatorOnSecondCall(t *testing.T) {
	meta := shottypes.VideoMetadata{Width: 32, Height: 32, FPS: 30, FrameCount: 300}
	store, err := cache.NewStore(t.TempDir(), 8, zerolog.Nop())
	require.NoError(t, err)
	coord := cache.NewCoordinator(store)

	orch := New(detect.NewRegistry(), coord, nil, zerolog.Nop())
	orch.openSource = syntheticSourceFactory(meta, 150)

	videoPath := newTempVideoPath(t)
	opts := Options{Detectors: []shottypes.DetectorConfig{{Kind: "frame_difference"}}}

	first, err := orch.Detect(context.Background(), videoPath, opts)
	require.NoError(t, err)
	assert.Empty(t, first.CacheHits)

	second, err := orch.Detect(context.Background(), videoPath, opts)
	require.NoError(t, err)
	assert.Contains(t, second.CacheHits, "frame_difference")
	assert.Equal(t, first.Boundaries, second.Boundaries)
}

func TestDetectForceReprocessBypassesCacheHit(t *testing.T) {
	meta := shottypes.VideoMetadata{Width: 32, Height: 32, FPS: 30, FrameCount: 300}
	store, err := cache.NewStore(t.TempDir(), 8, zerolog.Nop())
	require.NoError(t, err)
	coord := cache.NewCoordinator(store)

	orch := New(detect.NewRegistry(), coord, nil, zerolog.Nop())
	orch.openSource = syntheticSourceFactory(meta, 150)

	videoPath := newTempVideoPath(t)
	opts := Options{Detectors: []shottypes.DetectorConfig{{Kind: "frame_difference"}}}

	first, err := orch.Detect(context.Background(), videoPath, opts)
	require.NoError(t, err)
	assert.Empty(t, first.CacheHits)

	opts.ForceReprocess = true
	second, err := orch.Detect(context.Background(), videoPath, opts)
	require.NoError(t, err)
	assert.Empty(t, second.CacheHits, "a forced run must not report a cache hit even though a cached result exists")
	assert.Equal(t, first.Boundaries, second.Boundaries)
}

func TestDetectPropagatesContextCancellation(t *testing.T) {
	meta := shottypes.VideoMetadata{Width: 32, Height: 32, FPS: 30, FrameCount: 300}
	orch := New(detect.NewRegistry(), nil, nil, zerolog.Nop())
	orch.openSource = syntheticSourceFactory(meta, 150)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := orch.Detect(ctx, newTempVideoPath(t), Options{
		Detectors: []shottypes.DetectorConfig{{Kind: "frame_difference"}},
	})
	require.Error(t, err)
}

func TestDetectPropagatesDetectorInitError(t *testing.T) {
	meta := shottypes.VideoMetadata{Width: 32, Height: 32, FPS: 30, FrameCount: 300}
	orch := New(detect.NewRegistry(), nil, nil, zerolog.Nop())
	orch.openSource = syntheticSourceFactory(meta, 150)

	_, err := orch.Detect(context.Background(), newTempVideoPath(t), Options{
		Detectors: []shottypes.DetectorConfig{{Kind: "does_not_exist"}},
	})
	require.Error(t, err)
}

func TestDetectCompletesThreeDetectorsWithSingleWorker(t *testing.T) {
	meta := shottypes.VideoMetadata{Width: 16, Height: 16, FPS: 30, FrameCount: 60}
	orch := New(detect.NewRegistry(), nil, nil, zerolog.Nop())
	orch.openSource = syntheticSourceFactory(meta, 30)

	start := time.Now()
	_, err := orch.Detect(context.Background(), newTempVideoPath(t), Options{
		Detectors: []shottypes.DetectorConfig{
			{Kind: "frame_difference"},
			{Kind: "histogram"},
			{Kind: "multi_channel_histogram"},
		},
		MaxWorkers: 1,
	})
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 10*time.Second)
}

// unresponsiveSource simulates a decoder that does not check ctx at
// all: its first Next() call returns immediately (so the detector has
// a "prev" frame to pair), every subsequent call blocks well past any
// reasonable cancellation timeout. It lets tests exercise
// detectWithTimeout's CancellationTimedOut path without waiting out a
// real decode.
type unresponsiveSource struct {
	meta  shottypes.VideoMetadata
	calls int
}

func (s *unresponsiveSource) Metadata() shottypes.VideoMetadata { return s.meta }

func (s *unresponsiveSource) Next() (*imgproc.Frame, error) {
	s.calls++
	if s.calls == 1 {
		return imgproc.NewFrame(s.meta.Width, s.meta.Height), nil
	}
	time.Sleep(2 * time.Second)
	return nil, io.EOF
}

func (s *unresponsiveSource) ReadAt(index int) (*imgproc.Frame, error) {
	return imgproc.NewFrame(s.meta.Width, s.meta.Height), nil
}

func (s *unresponsiveSource) Close() error { return nil }

func TestDetectReturnsCancellationTimedOutWhenDetectorDoesNotObserveCancellation(t *testing.T) {
	meta := shottypes.VideoMetadata{Width: 16, Height: 16, FPS: 30, FrameCount: 60}
	orch := New(detect.NewRegistry(), nil, nil, zerolog.Nop())
	orch.openSource = func(ctx context.Context, path, ffprobePath, ffmpegPath string, log zerolog.Logger) (frame.Source, error) {
		return &unresponsiveSource{meta: meta}, nil
	}

	// Cancel shortly after the run starts, once the detector is already
	// blocked inside its second Next() call (which ignores ctx) rather
	// than between frame-loop checks, so the detector genuinely fails
	// to observe the cancellation before the timeout elapses.
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := orch.Detect(ctx, newTempVideoPath(t), Options{
		Detectors:           []shottypes.DetectorConfig{{Kind: "frame_difference"}},
		CancellationTimeout: 50 * time.Millisecond,
	})
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.True(t, detecterrors.As(err, detecterrors.KindCancellationTimedOut), "expected CancellationTimedOut, got %v", err)
	assert.Less(t, elapsed, time.Second, "Detect should return once the timeout elapses, not wait for the blocked detector")
}

var errOpenFailed = errors.New("open failed")

func TestDetectPropagatesSourceOpenError(t *testing.T) {
	orch := New(detect.NewRegistry(), nil, nil, zerolog.Nop())
	orch.openSource = func(ctx context.Context, path, ffprobePath, ffmpegPath string, log zerolog.Logger) (frame.Source, error) {
		return nil, errOpenFailed
	}

	_, err := orch.Detect(context.Background(), newTempVideoPath(t), Options{
		Detectors: []shottypes.DetectorConfig{{Kind: "frame_difference"}},
	})
	require.Error(t, err)
}
