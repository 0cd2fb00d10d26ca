package windowing

import "math"

// Hamming represents a periodic Hamming window
type Hamming struct {
	base
}

// NewHamming creates a new Hamming window
func NewHamming(size int) *Hamming {
	h := &Hamming{base{size: size, typ: TypeHamming}}
	h.generate()
	return h
}

func (h *Hamming) generate() {
	h.coefficients = make([]float64, h.size)

	denominator := float64(h.size)
	for i := 0; i < h.size; i++ {
		h.coefficients[i] = 0.54 - 0.46*math.Cos(2*math.Pi*float64(i)/denominator)
	}
}
