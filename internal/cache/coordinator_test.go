package cache

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendiffdev/shotdetect-core/internal/shottypes"
)

func TestCoordinatorGetOrComputeCachesAcrossCalls(t *testing.T) {
	store, err := NewStore(t.TempDir(), 4, zerolog.Nop())
	require.NoError(t, err)
	coord := NewCoordinator(store)

	fp := fixtureFingerprint()
	key := ComputeKey(fp, "frame_difference", shottypes.DetectorConfig{})

	var computeCalls int32
	compute := func() (shottypes.DetectionResult, error) {
		atomic.AddInt32(&computeCalls, 1)
		return shottypes.DetectionResult{Algorithm: "frame_difference", FrameCount: 42}, nil
	}

	result, fromFront, err := coord.GetOrCompute(key, fp, compute)
	require.NoError(t, err)
	assert.False(t, fromFront)
	assert.Equal(t, 42, result.FrameCount)
	assert.EqualValues(t, 1, atomic.LoadInt32(&computeCalls))

	result2, fromFront2, err := coord.GetOrCompute(key, fp, compute)
	require.NoError(t, err)
	assert.True(t, fromFront2)
	assert.Equal(t, 42, result2.FrameCount)
	assert.EqualValues(t, 1, atomic.LoadInt32(&computeCalls))
}

func TestCoordinatorSingleFlightsConcurrentCallsOnSameKey(t *testing.T) {
	store, err := NewStore(t.TempDir(), 4, zerolog.Nop())
	require.NoError(t, err)
	coord := NewCoordinator(store)

	fp := fixtureFingerprint()
	key := ComputeKey(fp, "frame_difference", shottypes.DetectorConfig{})

	var computeCalls int32
	release := make(chan struct{})
	compute := func() (shottypes.DetectionResult, error) {
		atomic.AddInt32(&computeCalls, 1)
		<-release
		return shottypes.DetectionResult{Algorithm: "frame_difference", FrameCount: 7}, nil
	}

	const n = 8
	var wg sync.WaitGroup
	results := make([]shottypes.DetectionResult, n)
	errs := make([]error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _, errs[i] = coord.GetOrCompute(key, fp, compute)
		}(i)
	}

	close(release)
	wg.Wait()

	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, 7, results[i].FrameCount)
	}
	assert.EqualValues(t, 1, atomic.LoadInt32(&computeCalls))
}

func TestCoordinatorForceComputeIgnoresExistingEntryAndOverwritesIt(t *testing.T) {
	store, err := NewStore(t.TempDir(), 4, zerolog.Nop())
	require.NoError(t, err)
	coord := NewCoordinator(store)

	fp := fixtureFingerprint()
	key := ComputeKey(fp, "frame_difference", shottypes.DetectorConfig{})

	var computeCalls int32
	compute := func() (shottypes.DetectionResult, error) {
		n := atomic.AddInt32(&computeCalls, 1)
		return shottypes.DetectionResult{Algorithm: "frame_difference", FrameCount: int(n)}, nil
	}

	first, err := coord.ForceCompute(key, fp, compute)
	require.NoError(t, err)
	assert.Equal(t, 1, first.FrameCount)

	second, err := coord.ForceCompute(key, fp, compute)
	require.NoError(t, err)
	assert.Equal(t, 2, second.FrameCount, "ForceCompute must recompute rather than return the stored entry")

	cached, fromFront, err := coord.GetOrCompute(key, fp, compute)
	require.NoError(t, err)
	assert.True(t, fromFront)
	assert.Equal(t, 2, cached.FrameCount, "ForceCompute must still write its result back to the store")
}

func TestCoordinatorPropagatesComputeError(t *testing.T) {
	store, err := NewStore(t.TempDir(), 4, zerolog.Nop())
	require.NoError(t, err)
	coord := NewCoordinator(store)

	fp := fixtureFingerprint()
	key := ComputeKey(fp, "frame_difference", shottypes.DetectorConfig{})

	wantErr := assert.AnError
	_, _, err = coord.GetOrCompute(key, fp, func() (shottypes.DetectionResult, error) {
		return shottypes.DetectionResult{}, wantErr
	})
	require.Error(t, err)
}
