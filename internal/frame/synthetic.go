package frame

import (
	"github.com/rendiffdev/shotdetect-core/internal/imgproc"
	"github.com/rendiffdev/shotdetect-core/internal/shottypes"
)

// FrameFunc synthesizes the frame at a given index; used by
// SyntheticSource for tests and for callers that already have decoded
// frames in memory and just want to drive the pipeline without a real
// decoder.
type FrameFunc func(index int) *imgproc.Frame

// SyntheticSource is an in-memory Source implementation. It never
// fails to open (there is no file to fail to open); ReadAt fails with
// a frame-read error only if the index is out of range, and Next
// returns ErrEndOfStream once all frames have been produced.
type SyntheticSource struct {
	meta  shottypes.VideoMetadata
	build FrameFunc
	pos   int
}

// NewSyntheticSource builds a Source over a frame-synthesis function,
// useful for constructing solid-color-run fixtures like spec.md's E2
// scenario (two 150-frame runs, black then white).
func NewSyntheticSource(meta shottypes.VideoMetadata, build FrameFunc) *SyntheticSource {
	return &SyntheticSource{meta: meta, build: build}
}

func (s *SyntheticSource) Metadata() shottypes.VideoMetadata { return s.meta }

func (s *SyntheticSource) Next() (*imgproc.Frame, error) {
	if s.pos >= s.meta.FrameCount {
		return nil, ErrEndOfStream
	}
	f := s.build(s.pos)
	s.pos++
	return f, nil
}

func (s *SyntheticSource) ReadAt(index int) (*imgproc.Frame, error) {
	if index < 0 || index >= s.meta.FrameCount {
		return nil, frameReadError(index)
	}
	return s.build(index), nil
}

func (s *SyntheticSource) Close() error { return nil }

// SolidColorBuild returns a FrameFunc that produces solid-color frames
// up to a split index, switching color after it — the fixture spec.md
// E2 describes (black 0-149, white 150-299).
func SolidColorBuild(width, height, splitIndex int, before, after [3]byte) FrameFunc {
	return func(index int) *imgproc.Frame {
		f := imgproc.NewFrame(width, height)
		b, g, r := before[0], before[1], before[2]
		if index >= splitIndex {
			b, g, r = after[0], after[1], after[2]
		}
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				f.Set(x, y, b, g, r)
			}
		}
		return f
	}
}
