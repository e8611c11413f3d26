// Package fusion implements the multi-detector fusion engine of
// spec.md §4.4 (C4): clusters temporally close boundaries across
// detectors and collapses each cluster to one confidence-weighted
// Boundary.
//
// spec.md §9 flags that the source clusters by distance to the
// cluster's *first* member in one code path and to the *last* member
// in another (confirmed against
// original_source/shot_detection/core/detection/multi_detector.py,
// whose _cluster_boundaries compares against current_cluster[-1], the
// last member). spec.md fixes the contract to *first* member for
// determinism; this package implements that fixed contract, not the
// source's divergent behavior.
package fusion

import (
	"sort"

	"github.com/rendiffdev/shotdetect-core/internal/detecterrors"
	"github.com/rendiffdev/shotdetect-core/internal/shottypes"
)

// Options configures one fusion run.
type Options struct {
	// Weights maps algorithm name to fusion weight. If nil or empty,
	// each input result is weighted 1/N.
	Weights map[string]float64
	// TimeToleranceSec is the clustering tolerance, default 1.0.
	TimeToleranceSec float64
}

type taggedBoundary struct {
	shottypes.Boundary
	algorithm        string
	weightedConfidence float64
	weight             float64
}

// Fuse reconciles N detector results into one authoritative boundary
// list, per spec.md §4.4.
func Fuse(results []shottypes.DetectionResult, opts Options) (shottypes.DetectionResult, error) {
	if len(results) == 0 {
		return shottypes.DetectionResult{Algorithm: "ensemble"}, nil
	}

	frameCount := results[0].FrameCount
	for _, r := range results[1:] {
		if r.FrameCount != frameCount {
			return shottypes.DetectionResult{}, detecterrors.FusionInconsistentInput(
				"member results disagree on frame count")
		}
	}

	weights := opts.Weights
	if len(weights) == 0 {
		weights = make(map[string]float64, len(results))
		w := 1.0 / float64(len(results))
		for _, r := range results {
			weights[r.Algorithm] = w
		}
	}

	tolerance := opts.TimeToleranceSec
	if tolerance <= 0 {
		tolerance = 1.0
	}

	var tagged []taggedBoundary
	var totalDuration float64
	for _, r := range results {
		totalDuration += r.ProcessingTimeSec
		w := weights[r.Algorithm]
		for _, b := range r.Boundaries {
			tagged = append(tagged, taggedBoundary{
				Boundary:           b,
				algorithm:          r.Algorithm,
				weightedConfidence: b.Confidence * w,
				weight:             w,
			})
		}
	}

	sort.SliceStable(tagged, func(i, j int) bool { return tagged[i].Frame < tagged[j].Frame })

	clusters := clusterByFirstMember(tagged, tolerance)

	boundaries := make([]shottypes.Boundary, 0, len(clusters))
	for _, cluster := range clusters {
		boundaries = append(boundaries, collapseCluster(cluster))
	}

	return shottypes.DetectionResult{
		Boundaries:        boundaries,
		Algorithm:          "ensemble",
		ProcessingTimeSec:  totalDuration,
		FrameCount:         frameCount,
		Metadata: map[string]interface{}{
			"num_detectors":           len(results),
			"original_boundary_count": len(tagged),
		},
	}, nil
}

// clusterByFirstMember scans boundaries in order, opening a cluster at
// the first boundary; a subsequent boundary joins the current cluster
// iff its timestamp is within tolerance of the cluster's FIRST member
// (not a moving centroid or the last member), per spec.md §4.4 step 3.
func clusterByFirstMember(tagged []taggedBoundary, tolerance float64) [][]taggedBoundary {
	if len(tagged) == 0 {
		return nil
	}
	var clusters [][]taggedBoundary
	current := []taggedBoundary{tagged[0]}
	firstTimestamp := tagged[0].Timestamp

	for _, b := range tagged[1:] {
		if b.Timestamp-firstTimestamp <= tolerance {
			current = append(current, b)
			continue
		}
		clusters = append(clusters, current)
		current = []taggedBoundary{b}
		firstTimestamp = b.Timestamp
	}
	clusters = append(clusters, current)
	return clusters
}

// collapseCluster reduces a cluster to one Boundary: its frame index
// and timestamp are the *confidence*-weighted means over cluster
// members (weighted by each member's weightedConfidence, not its raw
// fusion weight — matching
// original_source/shot_detection/core/detection/multi_detector.py's
// _merge_cluster, whose avg_frame is sum(frame*confidence)/total_weight),
// and its confidence is the mean weighted confidence (not sum), per
// spec.md §4.4 step 4 and §9's resolution of the source's divergent
// sum-based helper.
func collapseCluster(cluster []taggedBoundary) shottypes.Boundary {
	var sumWeightedConf, sumWeightedFrame, sumWeightedTimestamp float64
	algorithms := make([]string, 0, len(cluster))
	confidences := make([]float64, 0, len(cluster))

	for _, b := range cluster {
		sumWeightedConf += b.weightedConfidence
		sumWeightedFrame += float64(b.Frame) * b.weightedConfidence
		sumWeightedTimestamp += b.Timestamp * b.weightedConfidence
		algorithms = append(algorithms, b.algorithm)
		confidences = append(confidences, b.Confidence)
	}

	var frame float64
	var timestamp float64
	var confidence float64

	if sumWeightedConf > 0 {
		frame = sumWeightedFrame / sumWeightedConf
		timestamp = sumWeightedTimestamp / sumWeightedConf
		confidence = sumWeightedConf / float64(len(cluster))
	} else {
		// Fall back to unweighted means and zero confidence when the
		// summed weighted confidence is zero, per spec.md §4.4 step 4.
		for _, b := range cluster {
			frame += float64(b.Frame)
			timestamp += b.Timestamp
		}
		frame /= float64(len(cluster))
		timestamp /= float64(len(cluster))
		confidence = 0
	}

	return shottypes.Boundary{
		Frame:      int(frame + 0.5),
		Timestamp:  timestamp,
		Confidence: confidence,
		Kind:       shottypes.KindCut,
		Metadata: map[string]interface{}{
			"contributing_algorithms": algorithms,
			"cluster_size":            len(cluster),
			"original_confidences":    confidences,
		},
	}
}
