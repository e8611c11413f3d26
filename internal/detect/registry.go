package detect

import (
	"fmt"

	"github.com/rendiffdev/shotdetect-core/internal/shottypes"
)

// Registry maps a DetectorConfig.Kind string to a constructor,
// replacing the hand-written switch that would otherwise be
// duplicated between the Orchestrator and the CLI — grounded in
// original_source's core/detection/__init__.py pattern of exposing a
// name-to-constructor map rather than a scattered if/elif chain.
type Registry struct {
	constructors map[string]func(shottypes.DetectorConfig) Detector
}

// NewRegistry returns a Registry pre-populated with every detector
// kind spec.md §4.2 defines.
func NewRegistry() *Registry {
	r := &Registry{constructors: make(map[string]func(shottypes.DetectorConfig) Detector)}
	r.Register("frame_difference", func(c shottypes.DetectorConfig) Detector { return NewFrameDifference(c) })
	r.Register("enhanced_frame_difference", func(c shottypes.DetectorConfig) Detector { return NewEnhancedFrameDifference(c) })
	r.Register("histogram", func(c shottypes.DetectorConfig) Detector { return NewHistogram(c) })
	r.Register("multi_channel_histogram", func(c shottypes.DetectorConfig) Detector { return NewMultiChannelHistogram(c) })
	r.Register("adaptive_histogram", func(c shottypes.DetectorConfig) Detector { return NewAdaptiveHistogram(c) })
	return r
}

// Register adds or overrides the constructor for kind.
func (r *Registry) Register(kind string, ctor func(shottypes.DetectorConfig) Detector) {
	r.constructors[kind] = ctor
}

// Build constructs a detector instance from cfg.Kind.
func (r *Registry) Build(cfg shottypes.DetectorConfig) (Detector, error) {
	ctor, ok := r.constructors[cfg.Kind]
	if !ok {
		return nil, fmt.Errorf("unknown detector kind %q", cfg.Kind)
	}
	return ctor(cfg), nil
}

// Kinds lists all registered detector kinds.
func (r *Registry) Kinds() []string {
	out := make([]string, 0, len(r.constructors))
	for k := range r.constructors {
		out = append(out, k)
	}
	return out
}
