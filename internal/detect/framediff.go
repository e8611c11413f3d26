package detect

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/rendiffdev/shotdetect-core/internal/detecterrors"
	"github.com/rendiffdev/shotdetect-core/internal/frame"
	"github.com/rendiffdev/shotdetect-core/internal/imgproc"
	"github.com/rendiffdev/shotdetect-core/internal/postprocess"
	"github.com/rendiffdev/shotdetect-core/internal/shottypes"
)

// FrameDifference implements spec.md §4.2.1: mean absolute pixel
// difference on downscaled, blurred, grayscale frames, with an
// enhanced variant adding SSIM-distance and gradient-magnitude terms,
// optional edge enhancement and optional motion compensation.
type FrameDifference struct {
	cfg      shottypes.DetectorConfig
	enhanced bool

	initialized bool
	metrics     Metrics
}

// NewFrameDifference builds the base variant.
func NewFrameDifference(cfg shottypes.DetectorConfig) *FrameDifference {
	cfg.Kind = "frame_difference"
	applyFrameDiffDefaults(&cfg)
	return &FrameDifference{cfg: cfg}
}

// NewEnhancedFrameDifference builds the multi-feature variant.
func NewEnhancedFrameDifference(cfg shottypes.DetectorConfig) *FrameDifference {
	cfg.Kind = "enhanced_frame_difference"
	applyFrameDiffDefaults(&cfg)
	return &FrameDifference{cfg: cfg, enhanced: true}
}

func applyFrameDiffDefaults(cfg *shottypes.DetectorConfig) {
	if cfg.Threshold == 0 {
		cfg.Threshold = 0.3
	}
	if cfg.MinSceneLength == 0 {
		cfg.MinSceneLength = 15
	}
	if cfg.ResizeHeight == 0 {
		cfg.ResizeHeight = 240
	}
}

func (d *FrameDifference) Name() string                       { return d.cfg.Kind }
func (d *FrameDifference) Config() shottypes.DetectorConfig    { return d.cfg }
func (d *FrameDifference) Metrics() Metrics                    { return d.metrics }

func (d *FrameDifference) Initialize() error {
	d.initialized = true
	return nil
}

func (d *FrameDifference) Cleanup() { d.initialized = false }

// ProcessPair is the pure per-transition score function shared by
// Detect's frame loop and by callers scoring an isolated pair.
func (d *FrameDifference) ProcessPair(prev, curr *imgproc.Frame) (float64, error) {
	if prev == nil || curr == nil {
		return 0, detecterrors.ProcessingError("nil frame pair", -1, nil)
	}
	if prev.Width != curr.Width || prev.Height != curr.Height {
		return 0, detecterrors.ProcessingError("frame shape mismatch", -1, nil)
	}

	p := imgproc.ResizeToShorterSide(prev, d.cfg.ResizeHeight)
	c := imgproc.ResizeToShorterSide(curr, d.cfg.ResizeHeight)

	prevGray := imgproc.GaussianBlur5x5(imgproc.ToGrayscale(p), p.Width, p.Height)
	currGray := imgproc.GaussianBlur5x5(imgproc.ToGrayscale(c), c.Width, c.Height)

	if d.enhanced && d.cfg.MotionCompensation {
		dx, dy := imgproc.EstimateTranslation(prevGray, currGray, p.Width, p.Height)
		currGray = imgproc.WarpTranslate(currGray, p.Width, p.Height, -dx, -dy)
	}

	if d.enhanced && d.cfg.EdgeEnhancement {
		prevGray = blendSobel(prevGray, p.Width, p.Height)
		currGray = blendSobel(currGray, p.Width, p.Height)
	}

	pixelScore := meanAbsDiff(prevGray, currGray) / 255.0

	if !d.enhanced {
		return pixelScore, nil
	}

	ssimDist := imgproc.SSIMDistance(prevGray, currGray, p.Width, p.Height)
	gradPrev := imgproc.SobelMagnitude(prevGray, p.Width, p.Height)
	gradCurr := imgproc.SobelMagnitude(currGray, p.Width, p.Height)
	gradDiff := meanAbsDiffFloat(gradPrev, gradCurr)

	return 0.4*pixelScore + 0.3*ssimDist + 0.3*gradDiff, nil
}

func blendSobel(gray []byte, w, h int) []byte {
	mag := imgproc.SobelMagnitude(gray, w, h)
	out := make([]byte, len(gray))
	for i := range gray {
		normMag := mag[i] * 255.0
		if normMag > 255 {
			normMag = 255
		}
		blended := 0.7*float64(gray[i]) + 0.3*normMag
		if blended > 255 {
			blended = 255
		}
		out[i] = byte(blended + 0.5)
	}
	return out
}

func meanAbsDiff(a, b []byte) float64 {
	if len(a) == 0 {
		return 0
	}
	sum := 0.0
	for i := range a {
		d := int(a[i]) - int(b[i])
		if d < 0 {
			d = -d
		}
		sum += float64(d)
	}
	return sum / float64(len(a))
}

func meanAbsDiffFloat(a, b []float64) float64 {
	if len(a) == 0 {
		return 0
	}
	sum := 0.0
	for i := range a {
		d := a[i] - b[i]
		if d < 0 {
			d = -d
		}
		sum += d
	}
	return sum / float64(len(a))
}

// Detect walks the Frame Source pairwise, scoring each transition,
// thresholding into boundaries, and applying post-processing, per
// spec.md §4.2.
func (d *FrameDifference) Detect(ctx context.Context, source frame.Source) (shottypes.DetectionResult, error) {
	start := time.Now()
	meta := source.Metadata()

	scores := make([]float64, 0, meta.FrameCount)
	prev, err := source.Next()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return shottypes.DetectionResult{Algorithm: d.cfg.Kind, FrameCount: meta.FrameCount}, nil
		}
		return shottypes.DetectionResult{}, err
	}

	frameIdx := 1
	for {
		select {
		case <-ctx.Done():
			return shottypes.DetectionResult{}, detecterrors.Cancelled("frame-difference detection cancelled")
		default:
		}

		curr, err := source.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			break // truncated stream: stop with what we have, per spec.md §7
		}

		score, err := d.ProcessPair(prev, curr)
		if err != nil {
			return shottypes.DetectionResult{}, err
		}
		scores = append(scores, score)
		prev = curr
		frameIdx++
	}

	d.metrics.FramesProcessed = frameIdx
	d.metrics.TotalProcessingSecs = time.Since(start).Seconds()
	if frameIdx > 0 {
		d.metrics.MeanFrameProcessSecs = d.metrics.TotalProcessingSecs / float64(frameIdx)
	}

	threshold := d.cfg.Threshold
	var boundaries []shottypes.Boundary
	if d.cfg.AdaptiveThreshold {
		taus := postprocess.AdaptiveThresholds(scores, 30)
		for i, s := range scores {
			if s > taus[i] && s > threshold {
				boundaries = append(boundaries, shottypes.NewBoundary(i+1, meta.FPS, s, shottypes.KindCut))
			}
		}
	} else {
		for i, s := range scores {
			if s > threshold {
				boundaries = append(boundaries, shottypes.NewBoundary(i+1, meta.FPS, s, shottypes.KindCut))
			}
		}
	}

	boundaries = postprocess.MinSceneLengthFilter(boundaries, d.cfg.MinSceneLength)
	boundaries = postprocess.DeduplicateClose(boundaries, 1.0)
	d.metrics.BoundariesEmitted = len(boundaries)

	return shottypes.DetectionResult{
		Boundaries:        boundaries,
		Algorithm:          d.cfg.Kind,
		ProcessingTimeSec:  time.Since(start).Seconds(),
		FrameCount:         meta.FrameCount,
		Scores:             scores,
	}, nil
}
