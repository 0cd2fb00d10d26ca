package sampler

import (
	"github.com/metocean-tools/logscreen/frame"
)

// Sample consumes up to target−len(window) rows from the front of the frame
// into the window, removing them from the frame. When the window reaches its
// target length it is closed with its start/end timestamps recorded. Returns
// the (possibly still-open) window and the (possibly non-empty) remainder of
// the frame, letting one raw file feed the tail of one window and the head
// of the next.
func Sample(w *Window, f *frame.Frame) (*Window, *frame.Frame) {
	if w.Closed() {
		return w, f
	}

	need := w.Target() - w.Len()
	take := need
	if f.NumRows() < take {
		take = f.NumRows()
	}

	w.appendFrom(f, take)

	if w.Len() >= w.Target() {
		w.close(false)
	}

	return w, f
}

// Sampler drives the ACCUMULATING -> FULL cycle across a logger's files for
// one window kind (statistics or spectral).
type Sampler struct {
	target      int
	numChannels int

	current     *Window
	windowCount int
}

// NewSampler creates a sampler for the given target length and channel
// count.
func NewSampler(target, numChannels int) *Sampler {
	return &Sampler{
		target:      target,
		numChannels: numChannels,
		current:     NewWindow(target, numChannels),
	}
}

// WindowCount returns the number of windows closed so far.
func (s *Sampler) WindowCount() int {
	return s.windowCount
}

// Pending returns the number of rows accumulated in the open window.
func (s *Sampler) Pending() int {
	return s.current.Len()
}

// Push feeds one frame through the sampler, consuming it entirely. Every
// window that fills during this frame is returned in order; left-over rows
// stay accumulated for the next call.
func (s *Sampler) Push(f *frame.Frame) []*Window {
	var closed []*Window

	for f.NumRows() > 0 {
		w, rest := Sample(s.current, f)
		f = rest

		if w.Closed() {
			s.windowCount++
			closed = append(closed, w)
			s.current = NewWindow(s.target, s.numChannels)
		}
	}

	return closed
}

// Flush closes the trailing window at end of run with whatever it holds.
// Returns nil when no rows are pending. The returned window is marked
// Partial since its statistics mix a different population size than its
// siblings.
func (s *Sampler) Flush() *Window {
	if s.current.Len() == 0 {
		return nil
	}

	w := s.current
	w.close(true)
	s.windowCount++
	s.current = NewWindow(s.target, s.numChannels)

	return w
}
