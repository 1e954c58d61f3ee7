package nn

import (
	"github.com/born-ml/needle/internal/tensor"
)

// Dropout randomly zeroes elements during training.
//
// In training mode each element is kept with probability 1-p and scaled by
// 1/(1-p), so the expected value is unchanged. A fresh mask is drawn from
// the backend's random generator on every call. In evaluation mode the
// input is returned as is.
type Dropout[B tensor.Backend] struct {
	ModuleBase
	p float64
}

// NewDropout creates a dropout layer with drop probability p.
// Panics with ErrInvalidConfig unless 0 <= p < 1.
func NewDropout[B tensor.Backend](p float64) *Dropout[B] {
	if p < 0 || p >= 1 {
		panicConfig("NewDropout", "probability must be in [0, 1), got %v", p)
	}
	return &Dropout[B]{p: p}
}

// P returns the drop probability.
func (d *Dropout[B]) P() float64 {
	return d.p
}

// Forward applies the dropout mask in training mode.
func (d *Dropout[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	if !d.Training() || d.p == 0 {
		return input
	}
	mask := tensor.Bernoulli[float32](input.Shape(), 1-d.p, input.Backend())
	return input.Mul(mask).DivScalar(1 - d.p)
}

// Fields returns nothing (Dropout has no parameters).
func (d *Dropout[B]) Fields() []Field[B] {
	return nil
}
