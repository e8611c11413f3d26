package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistersAgainstSuppliedRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)
	require.NotNil(t, r)

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestNilRecorderMethodsAreNoops(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.ObserveDetector("frame_difference", "ok", 1.0)
		r.ObserveCacheLookup("hit")
		r.ObserveFusion(0.5)
	})
}

func TestObserveDetectorIncrementsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)
	r.ObserveDetector("frame_difference", "ok", 1.0)

	families, err := reg.Gather()
	require.NoError(t, err)

	var found bool
	for _, f := range families {
		if f.GetName() == "shotdetect_detector_runs_total" {
			found = true
			assert.NotEmpty(t, f.GetMetric())
		}
	}
	assert.True(t, found)
}
