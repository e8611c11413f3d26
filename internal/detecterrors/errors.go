// Package detecterrors defines the error taxonomy shared across the
// detection pipeline. It mirrors the shape of the teacher's
// internal/errors package (a small set of named kinds, each with a
// constructor) but returns plain errors carrying structured fields
// instead of writing an HTTP response — the core has no HTTP surface
// of its own.
package detecterrors

import (
	"errors"
	"fmt"
)

// Kind tags an error with one of the taxonomy entries from spec.md §7.
type Kind string

const (
	KindInput               Kind = "INPUT_ERROR"
	KindSource               Kind = "SOURCE_ERROR"
	KindDetectorInit         Kind = "DETECTOR_INIT_ERROR"
	KindProcessing           Kind = "PROCESSING_ERROR"
	KindFusionInconsistent   Kind = "FUSION_INCONSISTENT_INPUT"
	KindCacheCorrupt         Kind = "CACHE_CORRUPT"
	KindCacheIO              Kind = "CACHE_IO_ERROR"
	KindCancelled            Kind = "CANCELLED"
	KindCancellationTimedOut Kind = "CANCELLATION_TIMED_OUT"
)

// Error is the structured error type returned across the core boundary.
// Every top-level call returns exactly one success or one Error, never
// both, and never uses exceptions/panics for control flow.
type Error struct {
	Kind    Kind
	Message string
	// Frame is the offending frame index, if applicable. -1 when unset.
	Frame int
	// CacheKey is the offending cache key, if applicable.
	CacheKey string
	cause    error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// As reports whether err (or anything it wraps) is a *Error of kind k.
func As(err error, k Kind) bool {
	var de *Error
	if !errors.As(err, &de) {
		return false
	}
	return de.Kind == k
}

func newErr(k Kind, msg string, cause error) *Error {
	return &Error{Kind: k, Message: msg, Frame: -1, cause: cause}
}

func InputError(msg string, cause error) *Error { return newErr(KindInput, msg, cause) }

func SourceError(msg string, frame int, cause error) *Error {
	e := newErr(KindSource, msg, cause)
	e.Frame = frame
	return e
}

func DetectorInitError(detectorName, msg string, cause error) *Error {
	return newErr(KindDetectorInit, fmt.Sprintf("%s: %s", detectorName, msg), cause)
}

func ProcessingError(msg string, frame int, cause error) *Error {
	e := newErr(KindProcessing, msg, cause)
	e.Frame = frame
	return e
}

func FusionInconsistentInput(msg string) *Error {
	return newErr(KindFusionInconsistent, msg, nil)
}

func CacheCorrupt(key, msg string, cause error) *Error {
	e := newErr(KindCacheCorrupt, msg, cause)
	e.CacheKey = key
	return e
}

func CacheIO(key, msg string, cause error) *Error {
	e := newErr(KindCacheIO, msg, cause)
	e.CacheKey = key
	return e
}

func Cancelled(msg string) *Error { return newErr(KindCancelled, msg, nil) }

func CancellationTimedOut(msg string) *Error { return newErr(KindCancellationTimedOut, msg, nil) }
