package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setTestEnv(t *testing.T, envVars map[string]string) func() {
	t.Helper()
	originalValues := make(map[string]string)

	for key, value := range envVars {
		originalValues[key] = os.Getenv(key)
		os.Setenv(key, value)
	}

	return func() {
		for key := range envVars {
			if original, exists := originalValues[key]; exists && original != "" {
				os.Setenv(key, original)
			} else {
				os.Unsetenv(key)
			}
		}
	}
}

func TestLoadDefaults(t *testing.T) {
	restore := setTestEnv(t, map[string]string{})
	defer restore()

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 0.3, cfg.DetectorThreshold)
	assert.Equal(t, 15, cfg.DetectorMinSceneLength)
	assert.Equal(t, 1.0, cfg.SegmentationMinDurationSec)
	assert.Equal(t, 300.0, cfg.SegmentationMaxDurationSec)
	assert.True(t, cfg.CacheEnabled)
}

func TestLoadOverrides(t *testing.T) {
	restore := setTestEnv(t, map[string]string{
		"SHOTDETECT_DETECTOR_THRESHOLD":    "0.5",
		"SHOTDETECT_CACHE_ENABLED":         "false",
		"SHOTDETECT_RUNTIME_MAX_WORKERS":   "4",
	})
	defer restore()

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 0.5, cfg.DetectorThreshold)
	assert.False(t, cfg.CacheEnabled)
	assert.Equal(t, 4, cfg.MaxWorkers)
}

func TestLoadRejectsInvalidThreshold(t *testing.T) {
	restore := setTestEnv(t, map[string]string{
		"SHOTDETECT_DETECTOR_THRESHOLD": "1.5",
	})
	defer restore()

	_, err := Load()
	require.Error(t, err)
}

func TestLoadRejectsMaxBelowMin(t *testing.T) {
	restore := setTestEnv(t, map[string]string{
		"SHOTDETECT_SEGMENTATION_MIN_DURATION_SEC": "10",
		"SHOTDETECT_SEGMENTATION_MAX_DURATION_SEC": "5",
	})
	defer restore()

	_, err := Load()
	require.Error(t, err)
}
