// Package shottypes holds the value objects shared across the
// detection pipeline: Boundary, DetectionResult, Segment,
// DetectorConfig and VideoFingerprint, per spec.md §3. They are
// created by producers and never mutated after emission.
package shottypes

import "time"

// BoundaryKind classifies a detected transition.
type BoundaryKind string

const (
	KindCut      BoundaryKind = "cut"
	KindFade     BoundaryKind = "fade"
	KindDissolve BoundaryKind = "dissolve"
	KindStart    BoundaryKind = "start"
	KindEnd      BoundaryKind = "end"
)

// Boundary is a detected shot transition.
type Boundary struct {
	Frame      int                    `json:"frame"`
	Timestamp  float64                `json:"timestamp"`
	Confidence float64                `json:"confidence"`
	Kind       BoundaryKind           `json:"kind"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// NewBoundary builds a Boundary with its timestamp derived from fps.
func NewBoundary(frame int, fps float64, confidence float64, kind BoundaryKind) Boundary {
	ts := 0.0
	if fps > 0 {
		ts = float64(frame) / fps
	}
	return Boundary{Frame: frame, Timestamp: ts, Confidence: confidence, Kind: kind}
}

// DetectionResult is the immutable output of one detector run (or of
// the fusion engine, whose algorithm identifier is "ensemble").
type DetectionResult struct {
	Boundaries        []Boundary             `json:"boundaries"`
	Algorithm         string                 `json:"algorithm"`
	ProcessingTimeSec  float64                `json:"processing_time_sec"`
	FrameCount         int                    `json:"frame_count"`
	Scores             []float64              `json:"scores,omitempty"`
	Metadata           map[string]interface{} `json:"metadata,omitempty"`
}

// Segment is a half-open [StartFrame, EndFrame) interval with derived
// timestamps and duration, per spec.md §3.
type Segment struct {
	Index          int                    `json:"index"`
	StartFrame     int                    `json:"start_frame"`
	EndFrame       int                    `json:"end_frame"`
	StartTimestamp float64                `json:"start_timestamp"`
	EndTimestamp   float64                `json:"end_timestamp"`
	DurationSec    float64                `json:"duration_sec"`
	Confidence     float64                `json:"confidence"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// ColorSpace enumerates the histogram detector's color space options.
type ColorSpace string

const (
	ColorRGB ColorSpace = "RGB"
	ColorHSV ColorSpace = "HSV"
	ColorLAB ColorSpace = "LAB"
)

// DetectorConfig is an immutable bag of tuning knobs for one detector
// instance. It parameterizes the detector and is canonicalized into
// the cache key digest (see internal/cache).
type DetectorConfig struct {
	Kind string `json:"kind"` // "frame_difference" | "histogram" | ...

	Threshold      float64 `json:"threshold"`
	MinSceneLength int     `json:"min_scene_length"`
	ResizeHeight   int     `json:"resize_height"`

	// Frame-difference specific.
	EdgeEnhancement    bool `json:"edge_enhancement"`
	MotionCompensation bool `json:"motion_compensation"`
	AdaptiveThreshold  bool `json:"adaptive_threshold"`

	// Histogram specific.
	Bins               int        `json:"bins"`
	ColorSpace         ColorSpace `json:"color_space"`
	GridSize           int        `json:"grid_size"`
	UseSpatialHistogram bool      `json:"use_spatial_histogram"`
	AdaptationWindow   int        `json:"adaptation_window"`
}

// KeyValuePairs returns a deterministically ordered list of the
// config's fields for cache-key canonicalization.
func (c DetectorConfig) KeyValuePairs() [][2]string {
	return [][2]string{
		{"adaptation_window", itoa(c.AdaptationWindow)},
		{"adaptive_threshold", btoa(c.AdaptiveThreshold)},
		{"bins", itoa(c.Bins)},
		{"color_space", string(c.ColorSpace)},
		{"edge_enhancement", btoa(c.EdgeEnhancement)},
		{"grid_size", itoa(c.GridSize)},
		{"kind", c.Kind},
		{"min_scene_length", itoa(c.MinSceneLength)},
		{"motion_compensation", btoa(c.MotionCompensation)},
		{"resize_height", itoa(c.ResizeHeight)},
		{"threshold", ftoa(c.Threshold)},
		{"use_spatial_histogram", btoa(c.UseSpatialHistogram)},
	}
}

// VideoFingerprint identifies a video file cheaply: (path, size, mtime).
// Collisions are not cryptographically prevented; the design accepts
// the risk in exchange for a fingerprint that costs one stat(2) call.
type VideoFingerprint struct {
	AbsolutePath string    `json:"absolute_path"`
	FileSize     int64     `json:"file_size"`
	ModTime      time.Time `json:"mod_time"`
}

// VideoMetadata describes the source video as reported by the Frame Source.
type VideoMetadata struct {
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	FPS        float64 `json:"fps"`
	FrameCount int     `json:"frame_count"`
	CodecTag   string  `json:"codec_tag"`
	DurationSec float64 `json:"duration_sec"`
}
