// Package detect implements the pluggable detector abstraction of
// spec.md §4.2 (C2): frame-difference, histogram and their enhanced
// multi-feature variants. Every detector implements the same small
// interface — initialize/process-pair/detect/cleanup — as a concrete
// type, never as a subclass of a shared base; shared pixel primitives
// live in internal/imgproc as pure functions, per spec.md §9's
// "recast as a capability set" guidance.
package detect

import (
	"context"

	"github.com/rendiffdev/shotdetect-core/internal/frame"
	"github.com/rendiffdev/shotdetect-core/internal/imgproc"
	"github.com/rendiffdev/shotdetect-core/internal/shottypes"
)

// Detector is the capability set every concrete analyzer implements.
type Detector interface {
	// Name is the algorithm identifier used as DetectionResult.Algorithm.
	Name() string
	// Config returns the detector's tuning knobs.
	Config() shottypes.DetectorConfig
	// Initialize acquires any resources (lookup tables, etc). Idempotent.
	Initialize() error
	// ProcessPair is a pure function of two frames; implementations
	// must not retain references to prev/curr past the call.
	ProcessPair(prev, curr *imgproc.Frame) (score float64, err error)
	// Detect runs the full pipeline against an already-open Frame
	// Source: walks frames, thresholds, post-processes. It does not
	// open or close the source; the caller does both.
	Detect(ctx context.Context, source frame.Source) (shottypes.DetectionResult, error)
	// Cleanup releases resources.
	Cleanup()
	// Metrics returns a snapshot of per-detector performance counters
	// (spec.md §4 supplement from original_source's
	// get_performance_metrics).
	Metrics() Metrics
}

// Metrics is a per-detector performance snapshot.
type Metrics struct {
	FramesProcessed      int
	BoundariesEmitted     int
	MeanFrameProcessSecs  float64
	TotalProcessingSecs   float64
}
