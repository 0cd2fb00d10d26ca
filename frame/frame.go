package frame

import (
	"fmt"
	"math"
	"time"
)

// Frame is the decoded content of one raw file: a first-column index
// (absolute timestamps and/or elapsed seconds) plus one column per requested
// channel. Channel names and units are attached as parallel metadata, not
// per-row. A Frame is consumed destructively by the window sampler; callers
// that need the data twice must Clone first.
type Frame struct {
	// Elapsed holds seconds from the start of the file for every row.
	// Always populated.
	Elapsed []float64

	// Timestamps holds absolute row times. Nil when the source file carries
	// neither embedded timestamps nor a filename-encoded start time.
	Timestamps []time.Time

	// Channels is column-major data: Channels[c][r]. Missing values are NaN.
	Channels [][]float64

	Names []string
	Units []string

	// Path is the raw file this frame was decoded from.
	Path string

	// FileOrder is the position of the source file in the logger's processed
	// list, used as the row index when timestamps are absent.
	FileOrder int
}

// New allocates an empty frame with the given channel metadata.
func New(names, units []string) (*Frame, error) {
	if len(names) != len(units) {
		return nil, fmt.Errorf("channel names (%d) and units (%d) length mismatch", len(names), len(units))
	}

	return &Frame{
		Channels: make([][]float64, len(names)),
		Names:    names,
		Units:    units,
	}, nil
}

// NumRows returns the number of rows in the frame.
func (f *Frame) NumRows() int {
	return len(f.Elapsed)
}

// NumChannels returns the number of channel columns.
func (f *Frame) NumChannels() int {
	return len(f.Channels)
}

// HasTimestamps reports whether absolute row times are available.
func (f *Frame) HasTimestamps() bool {
	return len(f.Timestamps) > 0
}

// AppendRow appends one row: elapsed seconds, optional timestamp and one
// value per channel. Values beyond the channel count are dropped; channels
// without a value receive NaN.
func (f *Frame) AppendRow(elapsed float64, ts time.Time, values []float64) {
	f.Elapsed = append(f.Elapsed, elapsed)

	if f.Timestamps == nil && !ts.IsZero() {
		// first timed row; backfill zero times for any earlier rows so the
		// timestamp column stays aligned with the data
		f.Timestamps = make([]time.Time, len(f.Elapsed)-1)
	}
	if f.Timestamps != nil {
		f.Timestamps = append(f.Timestamps, ts)
	}

	for c := range f.Channels {
		v := math.NaN()
		if c < len(values) {
			v = values[c]
		}
		f.Channels[c] = append(f.Channels[c], v)
	}
}

// Clone returns a deep copy of the frame. The sampler consumes frames
// destructively, so every additional consumer works on its own copy.
func (f *Frame) Clone() *Frame {
	out := &Frame{
		Elapsed:   append([]float64(nil), f.Elapsed...),
		Names:     append([]string(nil), f.Names...),
		Units:     append([]string(nil), f.Units...),
		Path:      f.Path,
		FileOrder: f.FileOrder,
	}
	if f.Timestamps != nil {
		out.Timestamps = append([]time.Time(nil), f.Timestamps...)
	}
	out.Channels = make([][]float64, len(f.Channels))
	for c := range f.Channels {
		out.Channels[c] = append([]float64(nil), f.Channels[c]...)
	}
	return out
}

// DropRows removes the first n rows from the frame in place. Dropping more
// rows than the frame holds empties it.
func (f *Frame) DropRows(n int) {
	if n >= f.NumRows() {
		n = f.NumRows()
	}
	f.Elapsed = f.Elapsed[n:]
	if f.Timestamps != nil {
		f.Timestamps = f.Timestamps[n:]
	}
	for c := range f.Channels {
		f.Channels[c] = f.Channels[c][n:]
	}
}

// SampleRate estimates the sampling frequency in Hz from the elapsed-time
// column. Returns 0 for frames with fewer than two rows or a non-increasing
// index.
func (f *Frame) SampleRate() float64 {
	n := f.NumRows()
	if n < 2 {
		return 0
	}

	span := f.Elapsed[n-1] - f.Elapsed[0]
	if span <= 0 {
		return 0
	}

	return float64(n-1) / span
}
