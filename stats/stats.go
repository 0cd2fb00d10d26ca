// Package stats reduces closed windows to per-channel summary statistics
// and compiles them into a per-logger table keyed by window timestamp or
// file number.
package stats

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ChannelStats holds the summary statistics of one channel over one window.
// Invariant: Min <= Mean <= Max and Std >= 0 whenever any valid sample
// exists; all fields are NaN for an entirely missing channel.
type ChannelStats struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"` // sample standard deviation
}

// StatNames lists the statistic kinds in export order.
var StatNames = []string{"min", "max", "mean", "std"}

// Value returns the statistic by export name.
func (s ChannelStats) Value(name string) float64 {
	switch name {
	case "min":
		return s.Min
	case "max":
		return s.Max
	case "mean":
		return s.Mean
	case "std":
		return s.Std
	default:
		return math.NaN()
	}
}

// Compute reduces one channel. NaN samples (missing values) are skipped;
// a channel with no valid samples reduces to all-NaN statistics rather
// than an error, so schema drift never aborts a run.
func Compute(data []float64) ChannelStats {
	valid := make([]float64, 0, len(data))
	for _, v := range data {
		if !math.IsNaN(v) {
			valid = append(valid, v)
		}
	}

	if len(valid) == 0 {
		nan := math.NaN()
		return ChannelStats{Min: nan, Max: nan, Mean: nan, Std: nan}
	}

	cs := ChannelStats{
		Min:  floats.Min(valid),
		Max:  floats.Max(valid),
		Mean: stat.Mean(valid, nil),
	}

	if len(valid) > 1 {
		cs.Std = math.Sqrt(stat.Variance(valid, nil))
	}

	return cs
}

// ComputeChannels reduces every channel of a window.
func ComputeChannels(channels [][]float64) []ChannelStats {
	out := make([]ChannelStats, len(channels))
	for c, data := range channels {
		out[c] = Compute(data)
	}
	return out
}
