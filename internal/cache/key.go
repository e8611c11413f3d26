// Package cache implements the Result Cache of spec.md §4.6 (C6): a
// content-addressed, on-disk store of prior detection results keyed
// by (video fingerprint, detector config digest), with single-flight
// coordination for concurrent requests on the same key.
package cache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/rendiffdev/shotdetect-core/internal/shottypes"
)

// Key is a stable 128-bit digest, hex-encoded, over the canonical byte
// encoding of (absolute_path, file_size, mtime_ns, detector_name,
// sorted_detector_config_key_value_pairs), per spec.md §4.6.
type Key string

// ComputeKey derives the cache key for one detector run against one
// video fingerprint.
func ComputeKey(fp shottypes.VideoFingerprint, detectorName string, cfg shottypes.DetectorConfig) Key {
	h := sha256.New()
	fmt.Fprintf(h, "path=%s\x00size=%d\x00mtime_ns=%d\x00detector=%s\x00",
		fp.AbsolutePath, fp.FileSize, fp.ModTime.UnixNano(), detectorName)

	pairs := cfg.KeyValuePairs()
	sort.Slice(pairs, func(i, j int) bool { return pairs[i][0] < pairs[j][0] })
	for _, kv := range pairs {
		fmt.Fprintf(h, "%s=%s\x00", kv[0], kv[1])
	}

	sum := h.Sum(nil)
	// Truncate the SHA-256 digest to 128 bits: the spec only requires
	// a stable 128-bit digest, and a shorter on-disk filename is
	// friendlier than a full 256-bit hex string.
	var lo, hi uint64
	hi = binary.BigEndian.Uint64(sum[0:8])
	lo = binary.BigEndian.Uint64(sum[8:16])
	buf := make([]byte, 16)
	binary.BigEndian.PutUint64(buf[0:8], hi)
	binary.BigEndian.PutUint64(buf[8:16], lo)
	return Key(hex.EncodeToString(buf))
}

func (k Key) String() string { return string(k) }
