// Package config loads runtime configuration from the environment, in
// the teacher's internal/config style (a flat struct populated by
// getEnv/getEnvAsInt/getEnvAsBool helpers with fallbacks), adapted to
// the detection-pipeline's own keys per SPEC_FULL.md §2.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all runtime configuration for the detection pipeline.
type Config struct {
	// Logging configuration.
	LogLevel  string `json:"log_level"`
	LogFormat string `json:"log_format"`

	// Detector defaults (spec.md §6).
	DetectorThreshold      float64 `json:"detector_threshold"`
	DetectorMinSceneLength int     `json:"detector_min_scene_length"`
	DetectorResizeHeight   int     `json:"detector_resize_height"`

	// Segmentation defaults (spec.md §6).
	SegmentationMinDurationSec float64 `json:"segmentation_min_duration_sec"`
	SegmentationMaxDurationSec float64 `json:"segmentation_max_duration_sec"`
	SegmentationMergeShort     bool    `json:"segmentation_merge_short"`

	// Cache configuration (spec.md §4.6).
	CacheDir       string `json:"cache_dir"`
	CacheFrontSize int    `json:"cache_front_size"`
	CacheEnabled   bool   `json:"cache_enabled"`

	// Runtime/orchestrator configuration (spec.md §4.7).
	MaxWorkers           int `json:"max_workers"`
	CancellationGraceSec int `json:"cancellation_grace_sec"`

	// External decoder tools (spec.md §6 external collaborators).
	FFmpegPath  string `json:"ffmpeg_path"`
	FFprobePath string `json:"ffprobe_path"`
}

// Load populates a Config from the environment, falling back to
// spec.md §6's documented defaults for anything unset.
func Load() (*Config, error) {
	cfg := &Config{
		LogLevel:  getEnv("SHOTDETECT_LOG_LEVEL", "info"),
		LogFormat: getEnv("SHOTDETECT_LOG_FORMAT", "console"),

		DetectorThreshold:      getEnvAsFloat("SHOTDETECT_DETECTOR_THRESHOLD", 0.3),
		DetectorMinSceneLength: getEnvAsInt("SHOTDETECT_DETECTOR_MIN_SCENE_LENGTH", 15),
		DetectorResizeHeight:   getEnvAsInt("SHOTDETECT_DETECTOR_RESIZE_HEIGHT", 240),

		SegmentationMinDurationSec: getEnvAsFloat("SHOTDETECT_SEGMENTATION_MIN_DURATION_SEC", 1.0),
		SegmentationMaxDurationSec: getEnvAsFloat("SHOTDETECT_SEGMENTATION_MAX_DURATION_SEC", 300.0),
		SegmentationMergeShort:     getEnvAsBool("SHOTDETECT_SEGMENTATION_MERGE_SHORT", false),

		CacheDir:       getEnv("SHOTDETECT_CACHE_DIR", "./.shotdetect-cache"),
		CacheFrontSize: getEnvAsInt("SHOTDETECT_CACHE_FRONT_SIZE", 128),
		CacheEnabled:   getEnvAsBool("SHOTDETECT_CACHE_ENABLED", true),

		MaxWorkers:           getEnvAsInt("SHOTDETECT_RUNTIME_MAX_WORKERS", 0),
		CancellationGraceSec: getEnvAsInt("SHOTDETECT_RUNTIME_CANCELLATION_GRACE_SEC", 5),

		FFmpegPath:  getEnv("SHOTDETECT_FFMPEG_PATH", "ffmpeg"),
		FFprobePath: getEnv("SHOTDETECT_FFPROBE_PATH", "ffprobe"),
	}

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func validateConfig(cfg *Config) error {
	if cfg.DetectorThreshold <= 0 || cfg.DetectorThreshold > 1 {
		return fmt.Errorf("SHOTDETECT_DETECTOR_THRESHOLD must be in (0, 1], got %v", cfg.DetectorThreshold)
	}
	if cfg.SegmentationMinDurationSec <= 0 {
		return fmt.Errorf("SHOTDETECT_SEGMENTATION_MIN_DURATION_SEC must be positive")
	}
	if cfg.SegmentationMaxDurationSec < cfg.SegmentationMinDurationSec {
		return fmt.Errorf("SHOTDETECT_SEGMENTATION_MAX_DURATION_SEC must be >= min duration")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}
