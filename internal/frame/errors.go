package frame

import "github.com/rendiffdev/shotdetect-core/internal/detecterrors"

func frameReadError(index int) error {
	return detecterrors.SourceError("frame index out of range", index, nil)
}

func sourceUnavailable(path string, cause error) error {
	return detecterrors.InputError("cannot open video source: "+path, cause)
}
