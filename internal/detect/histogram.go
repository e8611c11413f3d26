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

// variant enumerates the three histogram detector flavors of
// spec.md §4.2.2.
type variant int

const (
	variantBase variant = iota
	variantMultiChannel
	variantAdaptive
)

// Histogram implements spec.md §4.2.2: a joint color histogram
// compared across four distance measures (chi-square, Bhattacharyya,
// 1-correlation, 1-intersection), with a multi-channel variant adding
// spatial-grid and edge-orientation histograms, and an adaptive
// variant deriving a per-transition threshold from local statistics.
type Histogram struct {
	cfg     shottypes.DetectorConfig
	variant variant

	initialized bool
	metrics     Metrics
}

func NewHistogram(cfg shottypes.DetectorConfig) *Histogram {
	cfg.Kind = "histogram"
	applyHistogramDefaults(&cfg)
	return &Histogram{cfg: cfg, variant: variantBase}
}

func NewMultiChannelHistogram(cfg shottypes.DetectorConfig) *Histogram {
	cfg.Kind = "multi_channel_histogram"
	applyHistogramDefaults(&cfg)
	return &Histogram{cfg: cfg, variant: variantMultiChannel}
}

func NewAdaptiveHistogram(cfg shottypes.DetectorConfig) *Histogram {
	cfg.Kind = "adaptive_histogram"
	applyHistogramDefaults(&cfg)
	return &Histogram{cfg: cfg, variant: variantAdaptive}
}

func applyHistogramDefaults(cfg *shottypes.DetectorConfig) {
	if cfg.Threshold == 0 {
		cfg.Threshold = 0.4
	}
	if cfg.Bins == 0 {
		cfg.Bins = 256
	}
	if cfg.ColorSpace == "" {
		cfg.ColorSpace = shottypes.ColorRGB
	}
	if cfg.MinSceneLength == 0 {
		cfg.MinSceneLength = 15
	}
	if cfg.ResizeHeight == 0 {
		cfg.ResizeHeight = 240
	}
	if cfg.GridSize == 0 {
		cfg.GridSize = 4
	}
	if cfg.AdaptationWindow == 0 {
		cfg.AdaptationWindow = 30
	}
}

func (d *Histogram) Name() string                    { return d.cfg.Kind }
func (d *Histogram) Config() shottypes.DetectorConfig { return d.cfg }
func (d *Histogram) Metrics() Metrics                 { return d.metrics }

func (d *Histogram) Initialize() error {
	d.initialized = true
	return nil
}

func (d *Histogram) Cleanup() { d.initialized = false }

func (d *Histogram) ProcessPair(prev, curr *imgproc.Frame) (float64, error) {
	if prev == nil || curr == nil {
		return 0, detecterrors.ProcessingError("nil frame pair", -1, nil)
	}
	p := imgproc.ResizeToShorterSide(prev, d.cfg.ResizeHeight)
	c := imgproc.ResizeToShorterSide(curr, d.cfg.ResizeHeight)

	binsPerChannel := d.cfg.Bins / 4
	if binsPerChannel < 1 {
		binsPerChannel = 1
	}

	hp := imgproc.JointHistogram(p, binsPerChannel, string(d.cfg.ColorSpace))
	hc := imgproc.JointHistogram(c, binsPerChannel, string(d.cfg.ColorSpace))

	if d.variant == variantMultiChannel {
		hp = d.withSpatialFeatures(p, hp)
		hc = d.withSpatialFeatures(c, hc)
	}

	return histogramScore(hp, hc), nil
}

func (d *Histogram) withSpatialFeatures(f *imgproc.Frame, global imgproc.Histogram) imgproc.Histogram {
	grid := d.cfg.GridSize
	if grid < 1 {
		grid = 4
	}
	blockBins := d.cfg.Bins / 8
	if blockBins < 1 {
		blockBins = 1
	}

	parts := []imgproc.Histogram{global}
	bw, bh := f.Width/grid, f.Height/grid
	if bw > 0 && bh > 0 {
		for gy := 0; gy < grid; gy++ {
			for gx := 0; gx < grid; gx++ {
				block := subFrame(f, gx*bw, gy*bh, bw, bh)
				parts = append(parts, imgproc.JointHistogram(block, blockBins, string(d.cfg.ColorSpace)))
			}
		}
	}

	gray := imgproc.ToGrayscale(f)
	edgeBins := d.cfg.Bins / 8
	if edgeBins < 1 {
		edgeBins = 1
	}
	parts = append(parts, imgproc.EdgeOrientationHistogram(gray, f.Width, f.Height, edgeBins))

	return imgproc.Concat(parts...)
}

func subFrame(f *imgproc.Frame, x0, y0, w, h int) *imgproc.Frame {
	out := imgproc.NewFrame(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			b, g, r := f.At(x0+x, y0+y)
			out.Set(x, y, b, g, r)
		}
	}
	return out
}

func histogramScore(a, b imgproc.Histogram) float64 {
	chi := imgproc.ChiSquareDistance(a, b)
	bhatt := imgproc.BhattacharyyaDistance(a, b)
	corrDist := 1 - imgproc.Correlation(a, b)
	interDist := imgproc.IntersectionDistance(a, b)
	return 0.3*chi + 0.3*bhatt + 0.2*corrDist + 0.2*interDist
}

func (d *Histogram) Detect(ctx context.Context, source frame.Source) (shottypes.DetectionResult, error) {
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
			return shottypes.DetectionResult{}, detecterrors.Cancelled("histogram detection cancelled")
		default:
		}

		curr, err := source.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			break
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

	var boundaries []shottypes.Boundary
	if d.variant == variantAdaptive {
		taus := postprocess.AdaptiveThresholds(scores, d.cfg.AdaptationWindow)
		for i, s := range scores {
			if s > taus[i] && s > d.cfg.Threshold {
				boundaries = append(boundaries, shottypes.NewBoundary(i+1, meta.FPS, s, shottypes.KindCut))
			}
		}
	} else {
		for i, s := range scores {
			if s > d.cfg.Threshold {
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
