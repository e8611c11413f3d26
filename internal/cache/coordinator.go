package cache

import (
	"golang.org/x/sync/singleflight"

	"github.com/rendiffdev/shotdetect-core/internal/shottypes"
)

// Coordinator wraps a Store with singleflight request collapsing: when
// N concurrent callers miss on the same key, exactly one underlying
// detection runs and the rest wait on its result, per spec.md §4.6's
// "at most one underlying detection per key in flight" contract
// (testable property 5 / scenario E6).
type Coordinator struct {
	store *Store
	group singleflight.Group
}

func NewCoordinator(store *Store) *Coordinator {
	return &Coordinator{store: store}
}

// GetOrCompute returns the cached result for key if present; otherwise
// it calls compute at most once across all concurrent callers sharing
// key, stores the result, and returns it to every waiter.
func (c *Coordinator) GetOrCompute(
	key Key,
	fp shottypes.VideoFingerprint,
	compute func() (shottypes.DetectionResult, error),
) (shottypes.DetectionResult, bool, error) {
	if result, status, err := c.store.Lookup(key); status == Hit && err == nil {
		return result, true, nil
	}

	v, err, _ := c.group.Do(string(key), func() (interface{}, error) {
		if result, status, lerr := c.store.Lookup(key); status == Hit && lerr == nil {
			return result, nil
		}

		result, cerr := compute()
		if cerr != nil {
			return shottypes.DetectionResult{}, cerr
		}
		if serr := c.store.Store(key, fp, result); serr != nil {
			return result, serr
		}
		return result, nil
	})

	if err != nil {
		return shottypes.DetectionResult{}, false, err
	}
	return v.(shottypes.DetectionResult), false, nil
}

// ForceCompute runs compute unconditionally, bypassing both the cache
// lookup and single-flight collapsing, and stores its result under
// key — the "unless force_reprocess" cache-skip of spec.md §4.7
// step 3. It still writes the fresh result back to the store so a
// subsequent non-forced lookup observes it.
func (c *Coordinator) ForceCompute(
	key Key,
	fp shottypes.VideoFingerprint,
	compute func() (shottypes.DetectionResult, error),
) (shottypes.DetectionResult, error) {
	result, err := compute()
	if err != nil {
		return shottypes.DetectionResult{}, err
	}
	if err := c.store.Store(key, fp, result); err != nil {
		return result, err
	}
	return result, nil
}
