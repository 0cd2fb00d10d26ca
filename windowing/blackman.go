package windowing

import "math"

// Blackman represents a periodic Blackman window
type Blackman struct {
	base
}

// NewBlackman creates a new Blackman window
func NewBlackman(size int) *Blackman {
	b := &Blackman{base{size: size, typ: TypeBlackman}}
	b.generate()
	return b
}

func (b *Blackman) generate() {
	b.coefficients = make([]float64, b.size)

	denominator := float64(b.size)
	for i := 0; i < b.size; i++ {
		phase := 2 * math.Pi * float64(i) / denominator
		b.coefficients[i] = 0.42 - 0.5*math.Cos(phase) + 0.08*math.Cos(2*phase)
	}
}
