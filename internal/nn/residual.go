package nn

import (
	"github.com/born-ml/needle/internal/tensor"
)

// Residual wraps a layer with a skip connection: y = x + fn(x).
// fn must preserve the input shape.
type Residual[B tensor.Backend] struct {
	ModuleBase
	fn Layer[B]
}

// NewResidual wraps fn in a skip connection.
func NewResidual[B tensor.Backend](fn Layer[B]) *Residual[B] {
	return &Residual[B]{fn: fn}
}

// Forward computes x + fn(x).
func (r *Residual[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	out := r.fn.Forward(input)
	if !out.Shape().Equal(input.Shape()) {
		panicShape("Residual.Forward", "wrapped layer changed shape %v to %v", input.Shape(), out.Shape())
	}
	return input.Add(out)
}

// Fields declares the wrapped layer.
func (r *Residual[B]) Fields() []Field[B] {
	return []Field[B]{ModuleField[B](r.fn)}
}
