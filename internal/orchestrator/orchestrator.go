// Package orchestrator implements the Orchestrator of spec.md §4.7
// (C7): the single entry point that wires fingerprinting, cache
// lookup, parallel detector execution, fusion, and segmentation into
// one Detect call.
//
// Grounded on the teacher's service-layer composition pattern (a
// struct holding its collaborators as fields, constructed once and
// reused across requests) rather than a free function, with the
// concurrency fan-out built on golang.org/x/sync/errgroup the way a
// worker-pool service in the pack uses it to bound parallel work.
package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/rendiffdev/shotdetect-core/internal/cache"
	"github.com/rendiffdev/shotdetect-core/internal/detect"
	"github.com/rendiffdev/shotdetect-core/internal/detecterrors"
	"github.com/rendiffdev/shotdetect-core/internal/frame"
	"github.com/rendiffdev/shotdetect-core/internal/fusion"
	"github.com/rendiffdev/shotdetect-core/internal/metrics"
	"github.com/rendiffdev/shotdetect-core/internal/segment"
	"github.com/rendiffdev/shotdetect-core/internal/shottypes"
	"github.com/rendiffdev/shotdetect-core/pkg/logger"
	"github.com/rs/zerolog"
)

// ProgressFunc reports run progress: fraction in [0, 1] and a
// human-readable stage label, per spec.md §4.7's progress-callback
// contract.
type ProgressFunc func(fraction float64, stage string)

// Options configures one Detect call.
type Options struct {
	Detectors       []shottypes.DetectorConfig
	FusionWeights   map[string]float64
	FusionTolerance float64
	Segmentation    segment.Options
	MaxWorkers      int
	OnProgress      ProgressFunc
	FFmpegPath      string
	FFprobePath     string
	// CancellationTimeout bounds how long Detect waits, once ctx is
	// done, for a detector to observe the cancellation at its next
	// frame-loop check (spec.md §5 "cooperative cancellation... caller-
	// supplied timeout"). Zero disables the timeout: Detect then waits
	// for each detector to notice ctx.Done() on its own. If the timeout
	// elapses first, Detect returns detecterrors.CancellationTimedOut
	// without waiting further; the detector goroutine is not killed and
	// may continue running until its next cancellation check.
	CancellationTimeout time.Duration
	// ForceReprocess skips the cache lookup (and single-flight wait)
	// for every configured detector, always running detection fresh,
	// per spec.md §4.7 step 3 "unless force_reprocess, query cache".
	// The fresh result is still written back to the cache.
	ForceReprocess bool
}

// Result is the full output of one Detect call.
type Result struct {
	Boundaries     []shottypes.Boundary
	Segments       []shottypes.Segment
	SegmentStats   segment.Stats
	PerDetector     []shottypes.DetectionResult
	Fused           shottypes.DetectionResult
	VideoMetadata  shottypes.VideoMetadata
	CacheHits       []string
}

// sourceOpener opens a Frame Source for one (path, codec tool paths)
// triple. The default implementation shells out to ffmpeg/ffprobe;
// tests substitute a factory backed by frame.SyntheticSource so the
// orchestrator's fan-out, caching and fusion wiring can be exercised
// without real decoder binaries.
type sourceOpener func(ctx context.Context, path, ffprobePath, ffmpegPath string, log zerolog.Logger) (frame.Source, error)

func openFFmpegSource(ctx context.Context, path, ffprobePath, ffmpegPath string, log zerolog.Logger) (frame.Source, error) {
	return frame.NewFFmpegSource(ctx, path, ffprobePath, ffmpegPath, log)
}

// Orchestrator ties the registry, cache coordinator and fusion/segment
// stages together behind one Detect call.
type Orchestrator struct {
	registry    *detect.Registry
	coordinator *cache.Coordinator
	recorder    *metrics.Recorder
	log         zerolog.Logger
	openSource  sourceOpener
}

func New(registry *detect.Registry, coordinator *cache.Coordinator, recorder *metrics.Recorder, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		registry:    registry,
		coordinator: coordinator,
		recorder:    recorder,
		log:         log.With().Str("component", "orchestrator").Logger(),
		openSource:  openFFmpegSource,
	}
}

// Detect runs the full pipeline against videoPath: validates the
// input, opens one Frame Source per configured detector (sources are
// single-consumer, spec.md §4.1), runs detectors in parallel bounded
// by opts.MaxWorkers, fuses multi-detector results, and segments the
// outcome.
func (o *Orchestrator) Detect(ctx context.Context, videoPath string, opts Options) (Result, error) {
	if len(opts.Detectors) == 0 {
		return Result{}, detecterrors.InputError("at least one detector config is required", nil)
	}

	runID := uuid.New().String()
	ctx = context.WithValue(ctx, logger.RunIDKey, runID)
	runLog := logger.WithRunID(o.log, runID)
	runLog.Debug().Str("video_path", videoPath).Int("detectors", len(opts.Detectors)).Msg("starting detection run")

	fp, meta, err := o.probeInput(ctx, videoPath, opts)
	if err != nil {
		return Result{}, err
	}

	report(opts.OnProgress, 0.05, "probed input")

	perDetector, cacheHits, err := o.runDetectors(ctx, videoPath, fp, meta, opts)
	if err != nil {
		return Result{}, err
	}

	report(opts.OnProgress, 0.8, "detectors complete")

	fused, err := o.fuse(perDetector, opts)
	if err != nil {
		return Result{}, err
	}

	report(opts.OnProgress, 0.9, "fused results")

	segOpts := opts.Segmentation
	if segOpts == (segment.Options{}) {
		segOpts = segment.DefaultOptions()
	}
	segments := segment.Build(fused.Boundaries, meta, segOpts)
	stats := segment.ComputeStats(segments)

	report(opts.OnProgress, 1.0, "done")

	return Result{
		Boundaries:    fused.Boundaries,
		Segments:      segments,
		SegmentStats:  stats,
		PerDetector:   perDetector,
		Fused:         fused,
		VideoMetadata: meta,
		CacheHits:     cacheHits,
	}, nil
}

func report(fn ProgressFunc, fraction float64, stage string) {
	if fn != nil {
		fn(fraction, stage)
	}
}

func (o *Orchestrator) probeInput(ctx context.Context, videoPath string, opts Options) (shottypes.VideoFingerprint, shottypes.VideoMetadata, error) {
	ext := strings.ToLower(filepath.Ext(videoPath))
	if !frame.SupportedExtensions[ext] {
		return shottypes.VideoFingerprint{}, shottypes.VideoMetadata{},
			detecterrors.InputError("unsupported file extension: "+ext, nil)
	}

	info, err := os.Stat(videoPath)
	if err != nil {
		return shottypes.VideoFingerprint{}, shottypes.VideoMetadata{},
			detecterrors.InputError("cannot stat video path", err)
	}
	abs, err := filepath.Abs(videoPath)
	if err != nil {
		abs = videoPath
	}
	fp := shottypes.VideoFingerprint{AbsolutePath: abs, FileSize: info.Size(), ModTime: info.ModTime()}

	src, err := o.openSource(ctx, videoPath, opts.FFprobePath, opts.FFmpegPath, logger.WithContext(o.log, ctx))
	if err != nil {
		return fp, shottypes.VideoMetadata{}, err
	}
	defer src.Close()
	return fp, src.Metadata(), nil
}

// runDetectors fans out one goroutine per configured detector, each
// opening its own Frame Source (sources are single-consumer) and
// going through the cache coordinator so concurrent identical requests
// collapse into a single underlying detection, per spec.md §4.6.
func (o *Orchestrator) runDetectors(
	ctx context.Context,
	videoPath string,
	fp shottypes.VideoFingerprint,
	meta shottypes.VideoMetadata,
	opts Options,
) ([]shottypes.DetectionResult, []string, error) {
	workers := opts.MaxWorkers
	if workers <= 0 {
		workers = len(opts.Detectors)
	}
	if cores := runtime.NumCPU(); workers > cores {
		workers = cores
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	results := make([]shottypes.DetectionResult, len(opts.Detectors))
	hits := make([]bool, len(opts.Detectors))

	for i, cfg := range opts.Detectors {
		i, cfg := i, cfg
		g.Go(func() error {
			detector, err := o.registry.Build(cfg)
			if err != nil {
				return detecterrors.DetectorInitError(cfg.Kind, "unknown detector kind", err)
			}
			if err := detector.Initialize(); err != nil {
				return detecterrors.DetectorInitError(cfg.Kind, "initialize failed", err)
			}
			defer detector.Cleanup()

			key := cache.ComputeKey(fp, detector.Name(), cfg)

			result, fromCache, err := o.runOneDetector(gctx, videoPath, fp, key, detector, opts)
			if err != nil {
				o.recorder.ObserveDetector(detector.Name(), "error", 0)
				return err
			}
			o.recorder.ObserveDetector(detector.Name(), "ok", result.ProcessingTimeSec)
			results[i] = result
			hits[i] = fromCache
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var cacheHits []string
	for i, hit := range hits {
		if hit {
			cacheHits = append(cacheHits, results[i].Algorithm)
		}
	}
	return results, cacheHits, nil
}

func (o *Orchestrator) runOneDetector(
	ctx context.Context,
	videoPath string,
	fp shottypes.VideoFingerprint,
	key cache.Key,
	detector detect.Detector,
	opts Options,
) (shottypes.DetectionResult, bool, error) {
	computeFn := func() (shottypes.DetectionResult, error) {
		return o.detectWithTimeout(ctx, videoPath, detector, opts)
	}

	if o.coordinator == nil {
		result, err := computeFn()
		return result, false, err
	}

	if opts.ForceReprocess {
		result, err := o.coordinator.ForceCompute(key, fp, computeFn)
		o.recorder.ObserveCacheLookup("forced")
		return result, false, err
	}

	outcome := "miss"
	result, hit, err := o.coordinator.GetOrCompute(key, fp, computeFn)
	if hit {
		outcome = "hit"
	}
	o.recorder.ObserveCacheLookup(outcome)
	return result, hit, err
}

// detectWithTimeout runs detectFresh in its own goroutine and, once ctx
// is done, waits at most opts.CancellationTimeout for the detector to
// observe the cancellation at its next frame-loop check (spec.md §5).
// If the detector has not returned by then, it reports
// CancellationTimedOut to the caller without waiting further; the
// detector goroutine is left running and may still complete (or abort)
// on its own, per spec.md §5 "the worker may continue until its next
// check" — detectWithTimeout never kills it.
func (o *Orchestrator) detectWithTimeout(ctx context.Context, videoPath string, detector detect.Detector, opts Options) (shottypes.DetectionResult, error) {
	if opts.CancellationTimeout <= 0 {
		return o.detectFresh(ctx, videoPath, detector, opts)
	}

	type outcome struct {
		result shottypes.DetectionResult
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		result, err := o.detectFresh(ctx, videoPath, detector, opts)
		done <- outcome{result, err}
	}()

	select {
	case out := <-done:
		return out.result, out.err
	case <-ctx.Done():
	}

	select {
	case out := <-done:
		return out.result, out.err
	case <-time.After(opts.CancellationTimeout):
		logger.WithContext(o.log, ctx).Warn().Str("detector", detector.Name()).Dur("timeout", opts.CancellationTimeout).
			Msg("detector did not observe cancellation within timeout")
		return shottypes.DetectionResult{}, detecterrors.CancellationTimedOut(
			detector.Name() + ": detector did not observe cancellation within the configured timeout")
	}
}

func (o *Orchestrator) detectFresh(ctx context.Context, videoPath string, detector detect.Detector, opts Options) (shottypes.DetectionResult, error) {
	src, err := o.openSource(ctx, videoPath, opts.FFprobePath, opts.FFmpegPath, logger.WithContext(o.log, ctx))
	if err != nil {
		return shottypes.DetectionResult{}, err
	}
	defer src.Close()

	start := time.Now()
	result, err := detector.Detect(ctx, src)
	if err != nil {
		return shottypes.DetectionResult{}, err
	}
	result.Algorithm = detector.Name()
	result.ProcessingTimeSec = time.Since(start).Seconds()
	return result, nil
}

func (o *Orchestrator) fuse(perDetector []shottypes.DetectionResult, opts Options) (shottypes.DetectionResult, error) {
	if len(perDetector) == 1 {
		return perDetector[0], nil
	}
	start := time.Now()
	fused, err := fusion.Fuse(perDetector, fusion.Options{Weights: opts.FusionWeights, TimeToleranceSec: opts.FusionTolerance})
	o.recorder.ObserveFusion(time.Since(start).Seconds())
	return fused, err
}
