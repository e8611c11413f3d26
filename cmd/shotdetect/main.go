// shotdetect - shot-boundary detection command-line driver.
//
// A thin collaborator over the detection core: it wires config
// loading, the detector registry, the cache store and the
// orchestrator into two subcommands, the way rendiffprobe-cli wires
// ffmpeg.FFprobe into its analyze/info commands. It is not part of the
// core library surface; the core exposes a library, not a CLI.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rendiffdev/shotdetect-core/internal/cache"
	"github.com/rendiffdev/shotdetect-core/internal/config"
	"github.com/rendiffdev/shotdetect-core/internal/detect"
	"github.com/rendiffdev/shotdetect-core/internal/orchestrator"
	"github.com/rendiffdev/shotdetect-core/internal/segment"
	"github.com/rendiffdev/shotdetect-core/internal/shottypes"
	"github.com/rendiffdev/shotdetect-core/pkg/logger"
)

var (
	version = "0.1.0"

	detectorKind   string
	threshold      float64
	outputFormat   string
	verbose        bool
	cacheDir       string
	forceReprocess bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "shotdetect",
		Short:   "Shot-boundary detection over decoded video",
		Version: version,
	}

	detectCmd := &cobra.Command{
		Use:   "detect <video>",
		Short: "Run shot-boundary detection against a video file",
		Args:  cobra.ExactArgs(1),
		RunE:  runDetect,
	}
	detectCmd.Flags().StringVar(&detectorKind, "detector", "frame_difference", "detector kind to run")
	detectCmd.Flags().Float64Var(&threshold, "threshold", 0.3, "detector threshold")
	detectCmd.Flags().StringVarP(&outputFormat, "format", "f", "json", "output format: json, text")
	detectCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")
	detectCmd.Flags().StringVar(&cacheDir, "cache-dir", "", "override the cache directory")
	detectCmd.Flags().BoolVar(&forceReprocess, "force", false, "skip the cache lookup and always re-run detection")

	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the result cache",
	}
	cacheInfoCmd := &cobra.Command{
		Use:   "info",
		Short: "Show cache occupancy",
		RunE:  runCacheInfo,
	}
	cacheClearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove all cache entries",
		RunE:  runCacheClear,
	}
	cacheCmd.AddCommand(cacheInfoCmd, cacheClearCmd)
	cacheCmd.PersistentFlags().StringVar(&cacheDir, "cache-dir", "", "override the cache directory")

	rootCmd.AddCommand(detectCmd, cacheCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadRuntimeConfig() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Logger{}, err
	}
	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	log := logger.New(level)
	if cacheDir != "" {
		cfg.CacheDir = cacheDir
	}
	return cfg, log, nil
}

func runDetect(cmd *cobra.Command, args []string) error {
	videoPath := args[0]

	cfg, log, err := loadRuntimeConfig()
	if err != nil {
		return err
	}

	store, err := cache.NewStore(cfg.CacheDir, cfg.CacheFrontSize, log)
	if err != nil {
		return err
	}
	var coordinator *cache.Coordinator
	if cfg.CacheEnabled {
		coordinator = cache.NewCoordinator(store)
	}

	registry := detect.NewRegistry()
	orch := orchestrator.New(registry, coordinator, nil, log)

	detCfg := shottypes.DetectorConfig{
		Kind:           detectorKind,
		Threshold:      threshold,
		MinSceneLength: cfg.DetectorMinSceneLength,
		ResizeHeight:   cfg.DetectorResizeHeight,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	result, err := orch.Detect(ctx, videoPath, orchestrator.Options{
		Detectors: []shottypes.DetectorConfig{detCfg},
		Segmentation: segment.Options{
			MinSegmentDurationSec: cfg.SegmentationMinDurationSec,
			MaxSegmentDurationSec: cfg.SegmentationMaxDurationSec,
			MergeShortSegments:    cfg.SegmentationMergeShort,
		},
		FFmpegPath:          cfg.FFmpegPath,
		FFprobePath:         cfg.FFprobePath,
		CancellationTimeout: time.Duration(cfg.CancellationGraceSec) * time.Second,
		ForceReprocess:      forceReprocess,
		OnProgress: func(fraction float64, stage string) {
			if verbose {
				fmt.Fprintf(os.Stderr, "[%.0f%%] %s\n", fraction*100, stage)
			}
		},
	})
	if err != nil {
		return err
	}

	return printResult(result)
}

func printResult(result orchestrator.Result) error {
	switch outputFormat {
	case "text":
		fmt.Printf("Detected %d boundaries, %d segments\n", len(result.Boundaries), len(result.Segments))
		for _, seg := range result.Segments {
			fmt.Printf("  segment %d: [%d, %d) %.2fs conf=%.2f\n",
				seg.Index, seg.StartFrame, seg.EndFrame, seg.DurationSec, seg.Confidence)
		}
		return nil
	default:
		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}
}

func runCacheInfo(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadRuntimeConfig()
	if err != nil {
		return err
	}
	store, err := cache.NewStore(cfg.CacheDir, cfg.CacheFrontSize, log)
	if err != nil {
		return err
	}
	info, err := store.GetInfo()
	if err != nil {
		return err
	}
	fmt.Printf("entries: %d\nbytes: %d\n", info.EntryCount, info.TotalBytes)
	return nil
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadRuntimeConfig()
	if err != nil {
		return err
	}
	store, err := cache.NewStore(cfg.CacheDir, cfg.CacheFrontSize, log)
	if err != nil {
		return err
	}
	if err := store.Clear(); err != nil {
		return err
	}
	fmt.Println("cache cleared")
	return nil
}
