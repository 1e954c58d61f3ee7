package nn

import (
	"github.com/born-ml/needle/internal/tensor"
)

// Identity returns its input unchanged.
type Identity[B tensor.Backend] struct {
	ModuleBase
}

// NewIdentity creates a new Identity module.
func NewIdentity[B tensor.Backend]() *Identity[B] {
	return &Identity[B]{}
}

// Forward returns input.
func (m *Identity[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return input
}

// Fields returns nothing (Identity has no state).
func (m *Identity[B]) Fields() []Field[B] {
	return nil
}

// ReLU is a Rectified Linear Unit activation module.
//
// Applies the element-wise function: f(x) = max(0, x)
//
// Example:
//
//	relu := nn.NewReLU[Backend]()
//	output := relu.Forward(input)  // All negative values become 0
type ReLU[B tensor.Backend] struct {
	ModuleBase
}

// NewReLU creates a new ReLU activation module.
func NewReLU[B tensor.Backend]() *ReLU[B] {
	return &ReLU[B]{}
}

// Forward applies ReLU activation: f(x) = max(0, x).
func (r *ReLU[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return input.ReLU()
}

// Fields returns nothing (ReLU has no trainable parameters).
func (r *ReLU[B]) Fields() []Field[B] {
	return nil
}

// Tanh is a hyperbolic tangent activation module.
//
// Applies the element-wise function: tanh(x) = (e^x - e^-x) / (e^x + e^-x)
//
// Tanh squashes values to the range (-1, 1).
type Tanh[B tensor.Backend] struct {
	ModuleBase
}

// NewTanh creates a new Tanh activation module.
func NewTanh[B tensor.Backend]() *Tanh[B] {
	return &Tanh[B]{}
}

// Forward applies Tanh activation.
func (t *Tanh[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return input.Tanh()
}

// Fields returns nothing (Tanh has no trainable parameters).
func (t *Tanh[B]) Fields() []Field[B] {
	return nil
}
