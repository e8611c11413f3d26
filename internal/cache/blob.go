package cache

import (
	"encoding/json"
	"time"

	"github.com/rendiffdev/shotdetect-core/internal/shottypes"
)

// blobVersion is the schema version stamped into every on-disk entry.
// spec.md §9 resolves an open question in the source (which stores
// cache entries as schema-less JSON): this cache requires an explicit
// version field and treats its absence as corrupt.
const blobVersion = 2

// entryBlob is the self-describing serialized form written to disk:
// a DetectionResult plus the fingerprint snapshot taken at write time
// and the cache key for self-validation, per spec.md §3 CacheEntry.
type entryBlob struct {
	Version     int                        `json:"version"`
	Key         string                     `json:"key"`
	Fingerprint shottypes.VideoFingerprint `json:"fingerprint"`
	WrittenAt   time.Time                  `json:"written_at"`
	Result      shottypes.DetectionResult  `json:"result"`
}

func encodeBlob(key Key, fp shottypes.VideoFingerprint, result shottypes.DetectionResult) ([]byte, error) {
	blob := entryBlob{
		Version:     blobVersion,
		Key:         string(key),
		Fingerprint: fp,
		WrittenAt:   time.Now(),
		Result:      result,
	}
	return json.Marshal(blob)
}

func decodeBlob(data []byte, expectedKey Key) (shottypes.DetectionResult, error) {
	var blob entryBlob
	if err := json.Unmarshal(data, &blob); err != nil {
		return shottypes.DetectionResult{}, errCorrupt("malformed json", err)
	}
	if blob.Version != blobVersion {
		return shottypes.DetectionResult{}, errCorrupt("missing or mismatched schema version", nil)
	}
	if blob.Key != string(expectedKey) {
		return shottypes.DetectionResult{}, errCorrupt("key mismatch", nil)
	}
	return blob.Result, nil
}
