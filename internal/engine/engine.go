package engine

import (
	"errors"
	"fmt"
	"math"

	"github.com/kookyleo/pwrzv/internal/metrics"
)

// ErrNoMetrics means every metric was unavailable. An empty reserve
// estimate is not "perfect"; callers must surface this instead of a score.
var ErrNoMetrics = errors.New("no metrics available")

// tieEpsilon bounds floating-point near-ties when picking bottlenecks.
const tieEpsilon = 1e-9

// ComponentScore is one metric's contribution to the evaluation.
type ComponentScore struct {
	Name  string  `json:"name" yaml:"name"`
	Label string  `json:"label" yaml:"label"`
	Raw   float64 `json:"raw_value" yaml:"raw_value"`
	// Score is reserve-direction in (0,1): higher means more headroom.
	Score float64 `json:"score" yaml:"score"`
	// Points is Score on the display-friendly 0-5 decimal scale.
	Points float64 `json:"points" yaml:"points"`
}

// DetailedResult is the read-only outcome of one evaluation. The output
// layer renders it; the engine exposes no serialization format itself.
type DetailedResult struct {
	Platform    string           `json:"platform" yaml:"platform"`
	Components  []ComponentScore `json:"components" yaml:"components"`
	Overall     float64          `json:"overall_score" yaml:"overall_score"`
	Level       int              `json:"power_reserve_level" yaml:"power_reserve_level"`
	LevelLabel  string           `json:"level_label" yaml:"level_label"`
	Bottlenecks []string         `json:"bottlenecks" yaml:"bottlenecks"`
	Warnings    []string         `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// Evaluate scores a snapshot against a resolved parameter table. Metrics
// absent from the snapshot are excluded rather than defaulted, so an
// uncollectable counter can never appear perfect or critical. The whole
// computation is pure and side-effect free.
func Evaluate(snap *metrics.Snapshot, table Table) (*DetailedResult, error) {
	if snap == nil {
		return nil, ErrNoMetrics
	}

	var components []ComponentScore
	for _, metric := range canonicalOrder {
		pressure, ok := pressureValue(metric, snap)
		if !ok {
			continue
		}
		params, ok := table[metric]
		if !ok {
			// Defaults tables cover every metric; a hole here is a bug
			// in the table, not a host condition.
			return nil, fmt.Errorf("no parameters for metric %q", metric)
		}
		score := 1.0 - params.Evaluate(pressure)
		components = append(components, ComponentScore{
			Name:   string(metric),
			Label:  metric.Label(),
			Raw:    pressure,
			Score:  score,
			Points: round4(5.0 * score),
		})
	}

	overall, bottlenecks, err := aggregate(components)
	if err != nil {
		return nil, err
	}

	level, label := LevelFromScore(overall)
	return &DetailedResult{
		Platform:    snap.Platform,
		Components:  components,
		Overall:     overall,
		Level:       level,
		LevelLabel:  label,
		Bottlenecks: bottlenecks,
	}, nil
}

// aggregate reduces component scores via minimum selection: the reserve is
// only as good as its worst bottleneck. All components within tieEpsilon of
// the minimum are reported, in the order they appear (canonical).
func aggregate(components []ComponentScore) (float64, []string, error) {
	if len(components) == 0 {
		return 0, nil, ErrNoMetrics
	}

	overall := math.Inf(1)
	for _, c := range components {
		overall = min(overall, c.Score)
	}

	var bottlenecks []string
	for _, c := range components {
		if c.Score <= overall+tieEpsilon {
			bottlenecks = append(bottlenecks, c.Name)
		}
	}
	return overall, bottlenecks, nil
}

// pressureValue normalizes one snapshot field into the pressure domain its
// sigmoid expects. Memory availability inverts (low availability is high
// pressure); everything else is already pressure-direction.
func pressureValue(metric Metric, snap *metrics.Snapshot) (float64, bool) {
	var v *float64
	switch metric {
	case MetricCPUUsage:
		v = snap.CPUUsageRatio
	case MetricCPUIOWait:
		v = snap.CPUIOWaitRatio
	case MetricCPULoad:
		v = snap.CPULoadRatio
	case MetricMemoryUsage:
		if snap.MemoryAvailableRatio == nil {
			return 0, false
		}
		return 1.0 - *snap.MemoryAvailableRatio, true
	case MetricMemoryPressure:
		v = snap.MemoryPressureRatio
	case MetricSwapUsage:
		v = snap.SwapUsageRatio
	case MetricDiskIO:
		v = snap.DiskIOBusyRatio
	case MetricNetworkUsage:
		v = snap.NetworkUtilizationRatio
	case MetricNetworkDropped:
		v = snap.NetworkDropRatio
	case MetricFDUsage:
		v = snap.FDUsageRatio
	case MetricProcessCount:
		v = snap.ProcessCountRatio
	}
	if v == nil {
		return 0, false
	}
	return *v, true
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
