// Package frame implements the Frame Source contract of spec.md §4.1
// (C1): a lazy, single-consumer producer of decoded BGR frames with
// known fps/frame-count metadata. The core never decodes video itself
// — per spec.md §6 the decoder is an external collaborator — so this
// package only defines the interface plus two concrete adapters: one
// that shells out to a real ffmpeg/ffprobe pair (grounded in the
// teacher's internal/ffmpeg os/exec wrapper), and one that synthesizes
// frames in memory for tests and for callers that already hold decoded
// frames.
package frame

import (
	"io"

	"github.com/rendiffdev/shotdetect-core/internal/detecterrors"
	"github.com/rendiffdev/shotdetect-core/internal/imgproc"
	"github.com/rendiffdev/shotdetect-core/internal/shottypes"
)

// Source is a pull-based, single-consumer frame producer. Concurrent
// readers of the same video must use independent Source instances
// (spec.md §4.1).
type Source interface {
	// Metadata reports (width, height, fps, frame_count, codec_tag).
	Metadata() shottypes.VideoMetadata
	// Next returns the next frame in sequence, or io.EOF when
	// exhausted. FFmpegSource returns a *detecterrors.Error
	// (KindSource) when decoding fails before any frame was produced;
	// a later decode failure ends the stream like io.EOF.
	Next() (*imgproc.Frame, error)
	// ReadAt performs an indexed random-access read.
	ReadAt(index int) (*imgproc.Frame, error)
	// Close releases any resources (subprocess, file handle).
	Close() error
}

// ErrEndOfStream is returned by Next once all frames have been
// consumed; callers should treat it exactly like io.EOF.
var ErrEndOfStream = io.EOF

// SupportedExtensions is the allow-list from spec.md §6.
var SupportedExtensions = map[string]bool{
	".mp4":  true,
	".avi":  true,
	".mov":  true,
	".mkv":  true,
	".wmv":  true,
	".flv":  true,
	".webm": true,
	".m4v":  true,
}

// validateExtension is shared by every concrete Source opener.
func validateExtension(ext string) error {
	if !SupportedExtensions[ext] {
		return detecterrors.InputError("unsupported file extension: "+ext, nil)
	}
	return nil
}
