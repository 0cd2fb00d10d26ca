package screening

import (
	"math"
	"sort"

	"github.com/metocean-tools/logscreen/frame"
)

// FilePoints records the observed row count of one screened file.
type FilePoints struct {
	Path   string `json:"path"`
	Points int    `json:"points"`
}

// QualityScreen accumulates per-file and per-channel quality bookkeeping for
// one logger. Completeness is a monitoring output, not a gate: screening
// continues regardless of its value.
type QualityScreen struct {
	expectedPoints int
	registry       *BadFileRegistry

	pointsPerFile []FilePoints
	filesSeen     int

	validPoints   []int     // cumulative non-NaN samples per channel
	minResolution []float64 // smallest positive step per channel, +Inf until seen
}

// NewQualityScreen creates a screen for the given expected per-file point
// count and channel count. Registry entries for failed files are appended
// to the shared per-logger registry.
func NewQualityScreen(expectedPoints, numChannels int, registry *BadFileRegistry) *QualityScreen {
	q := &QualityScreen{
		expectedPoints: expectedPoints,
		registry:       registry,
		validPoints:    make([]int, numChannels),
		minResolution:  make([]float64, numChannels),
	}
	for c := range q.minResolution {
		q.minResolution[c] = math.Inf(1)
	}
	return q
}

// Observe screens one decoded frame. Returns false when the file's row
// count does not match the expected count; such files are registered and
// must be excluded from windowing and integration.
func (q *QualityScreen) Observe(f *frame.Frame) bool {
	q.filesSeen++
	q.pointsPerFile = append(q.pointsPerFile, FilePoints{Path: f.Path, Points: f.NumRows()})

	for c, data := range f.Channels {
		if c >= len(q.validPoints) {
			break
		}
		for _, v := range data {
			if !math.IsNaN(v) {
				q.validPoints[c]++
			}
		}
		if res := minResolution(data); res < q.minResolution[c] {
			q.minResolution[c] = res
		}
	}

	if q.expectedPoints > 0 && f.NumRows() != q.expectedPoints {
		q.registry.Add(f.Path, ReasonPointCount)
		return false
	}

	return true
}

// PointsPerFile returns the per-file row-count history.
func (q *QualityScreen) PointsPerFile() []FilePoints {
	return q.pointsPerFile
}

// ValidPoints returns the cumulative valid-point counter per channel.
func (q *QualityScreen) ValidPoints() []int {
	return append([]int(nil), q.validPoints...)
}

// MinResolution returns the smallest strictly-positive difference between
// any two sorted, de-duplicated values seen per channel. Channels where no
// two distinct values were observed report +Inf.
func (q *QualityScreen) MinResolution() []float64 {
	return append([]float64(nil), q.minResolution...)
}

// Completeness returns per-channel data completeness in percent:
// cumulative valid points / (files seen × expected points per file) × 100.
func (q *QualityScreen) Completeness() []float64 {
	out := make([]float64, len(q.validPoints))

	denom := float64(q.filesSeen * q.expectedPoints)
	if denom == 0 {
		return out
	}

	for c, n := range q.validPoints {
		out[c] = float64(n) / denom * 100.0
	}
	return out
}

// minResolution scans one channel for the smallest positive step between
// distinct values.
func minResolution(data []float64) float64 {
	valid := make([]float64, 0, len(data))
	for _, v := range data {
		if !math.IsNaN(v) {
			valid = append(valid, v)
		}
	}
	if len(valid) < 2 {
		return math.Inf(1)
	}

	sort.Float64s(valid)

	res := math.Inf(1)
	for i := 1; i < len(valid); i++ {
		d := valid[i] - valid[i-1]
		if d > 0 && d < res {
			res = d
		}
	}
	return res
}
