// Package sampler slices a logger's normalized file stream into fixed-length
// windows whose boundaries may straddle file edges. The transition function
// Sample(window, frame) -> (window', frame') is deterministic and keeps no
// hidden state, so boundary-crossing behavior is testable without file I/O.
package sampler

import (
	"math"
	"time"

	"github.com/metocean-tools/logscreen/frame"
)

// Window is a mutable accumulator of rows collected toward a target length.
// It is CLOSED once its row count reaches the target; a final trailing
// window may be closed short at end of run and is then flagged Partial.
type Window struct {
	target   int
	channels [][]float64
	times    []time.Time

	start, end time.Time
	hasTimes   bool

	// startFile/endFile are the FileOrder values of the first and last
	// contributing source files.
	startFile, endFile int

	sampleRate float64

	closed  bool
	partial bool
}

// NewWindow creates an empty window for the given target length and channel
// count.
func NewWindow(target, numChannels int) *Window {
	return &Window{
		target:    target,
		channels:  make([][]float64, numChannels),
		startFile: -1,
	}
}

// Len returns the number of rows collected so far.
func (w *Window) Len() int {
	if len(w.channels) == 0 {
		return 0
	}
	return len(w.channels[0])
}

// Target returns the configured target length.
func (w *Window) Target() int {
	return w.target
}

// Closed reports whether the window has been closed.
func (w *Window) Closed() bool {
	return w.closed
}

// Partial reports whether the window closed short of its target length.
func (w *Window) Partial() bool {
	return w.partial
}

// Channels returns the collected rows, column-major.
func (w *Window) Channels() [][]float64 {
	return w.channels
}

// Start returns the timestamp of the first row. Valid once closed, for
// sources with timestamps.
func (w *Window) Start() time.Time {
	return w.start
}

// End returns the timestamp of the last row. Valid once closed.
func (w *Window) End() time.Time {
	return w.end
}

// HasTimestamps reports whether the window rows carry absolute times.
func (w *Window) HasTimestamps() bool {
	return w.hasTimes
}

// StartFile returns the FileOrder of the file contributing the first row,
// or -1 for an empty window.
func (w *Window) StartFile() int {
	return w.startFile
}

// EndFile returns the FileOrder of the file contributing the last row.
func (w *Window) EndFile() int {
	return w.endFile
}

// SampleRate returns the sampling rate inherited from the first
// contributing frame, in Hz.
func (w *Window) SampleRate() float64 {
	return w.sampleRate
}

// ValidRows returns, per channel, the number of non-NaN samples.
func (w *Window) ValidRows() []int {
	counts := make([]int, len(w.channels))
	for c, data := range w.channels {
		for _, v := range data {
			if !math.IsNaN(v) {
				counts[c]++
			}
		}
	}
	return counts
}

// appendFrom moves the first n rows of f into the window.
func (w *Window) appendFrom(f *frame.Frame, n int) {
	if n <= 0 {
		return
	}

	if w.Len() == 0 {
		w.startFile = f.FileOrder
		w.hasTimes = f.HasTimestamps()
		w.sampleRate = f.SampleRate()
	}
	w.endFile = f.FileOrder

	for c := range w.channels {
		if c < len(f.Channels) {
			w.channels[c] = append(w.channels[c], f.Channels[c][:n]...)
		}
	}
	if w.hasTimes && f.HasTimestamps() {
		w.times = append(w.times, f.Timestamps[:n]...)
	}

	f.DropRows(n)
}

// close records the start/end timestamps and seals the window.
func (w *Window) close(partial bool) {
	if len(w.times) > 0 {
		w.start = w.times[0]
		w.end = w.times[len(w.times)-1]
	}
	w.closed = true
	w.partial = partial
}
