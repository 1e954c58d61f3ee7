package nn

import (
	"github.com/born-ml/needle/internal/tensor"
)

// Flatten collapses every axis after the first: (N, d1, ..., dk) becomes
// (N, d1*...*dk).
type Flatten[B tensor.Backend] struct {
	ModuleBase
}

// NewFlatten creates a new Flatten module.
func NewFlatten[B tensor.Backend]() *Flatten[B] {
	return &Flatten[B]{}
}

// Forward reshapes input to two dimensions.
func (f *Flatten[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := input.Shape()
	if len(shape) < 1 {
		panicShape("Flatten.Forward", "expected at least 1D input, got shape %v", shape)
	}
	rest := 1
	for _, d := range shape[1:] {
		rest *= d
	}
	return input.Reshape(shape[0], rest)
}

// Fields returns nothing.
func (f *Flatten[B]) Fields() []Field[B] {
	return nil
}
