package cache

import "github.com/rendiffdev/shotdetect-core/internal/detecterrors"

func errCorrupt(msg string, cause error) error {
	return detecterrors.CacheCorrupt("", msg, cause)
}

func errIO(key Key, msg string, cause error) error {
	return detecterrors.CacheIO(string(key), msg, cause)
}
