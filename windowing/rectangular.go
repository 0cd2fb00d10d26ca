package windowing

// Rectangular represents a rectangular (boxcar) window. Equivalent to no
// tapering at all.
type Rectangular struct {
	base
}

// NewRectangular creates a new rectangular window
func NewRectangular(size int) *Rectangular {
	r := &Rectangular{base{size: size, typ: TypeRectangular}}
	r.generate()
	return r
}

func (r *Rectangular) generate() {
	r.coefficients = make([]float64, r.size)
	for i := 0; i < r.size; i++ {
		r.coefficients[i] = 1.0
	}
}
