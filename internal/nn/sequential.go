package nn

import (
	"github.com/born-ml/needle/internal/tensor"
)

// Sequential is a container module that chains multiple layers together.
//
// Each layer's output becomes the next layer's input, creating a
// sequential pipeline of transformations.
//
// Example:
//
//	model := nn.NewSequential[Backend](
//	    nn.NewLinear(784, 128, true, backend),
//	    nn.NewReLU[Backend](),
//	    nn.NewLinear(128, 10, true, backend),
//	)
//
//	output := model.Forward(input)
//
// This is equivalent to:
//
//	h1 := linear1.Forward(input)
//	h2 := relu.Forward(h1)
//	output := linear2.Forward(h2)
type Sequential[B tensor.Backend] struct {
	ModuleBase
	layers []Layer[B]
}

// NewSequential creates a new Sequential container.
func NewSequential[B tensor.Backend](layers ...Layer[B]) *Sequential[B] {
	return &Sequential[B]{
		layers: layers,
	}
}

// Forward applies all layers in sequence and returns the output of the
// last one. An empty Sequential returns its input.
func (s *Sequential[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	output := input
	for _, layer := range s.layers {
		output = layer.Forward(output)
	}
	return output
}

// Fields declares the layers as an ordered list.
func (s *Sequential[B]) Fields() []Field[B] {
	return []Field[B]{ModuleList[B](s.layers)}
}

// Layer returns the layer at index i.
func (s *Sequential[B]) Layer(i int) Layer[B] {
	return s.layers[i]
}

// Len returns the number of layers in the container.
func (s *Sequential[B]) Len() int {
	return len(s.layers)
}
