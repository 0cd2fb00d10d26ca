package windowing

import "math"

// Hann represents a periodic Hann window, the default taper for Welch PSD
// segments.
type Hann struct {
	base
}

// NewHann creates a new Hann window
func NewHann(size int) *Hann {
	h := &Hann{base{size: size, typ: TypeHann}}
	h.generate()
	return h
}

func (h *Hann) generate() {
	h.coefficients = make([]float64, h.size)

	denominator := float64(h.size)
	for i := 0; i < h.size; i++ {
		h.coefficients[i] = 0.5 * (1.0 - math.Cos(2*math.Pi*float64(i)/denominator))
	}
}
