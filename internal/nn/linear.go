package nn

import (
	"github.com/born-ml/needle/internal/tensor"
)

// Linear implements a fully connected (dense) layer.
//
// Performs the transformation: y = x @ W + b
// where:
//   - x is the input tensor with shape [batch_size, in_features]
//   - W is the weight matrix with shape [in_features, out_features]
//   - b is the bias row with shape [1, out_features]
//   - y is the output tensor with shape [batch_size, out_features]
//
// Weights are initialized with Kaiming uniform over fan_in = in_features.
// The bias uses Kaiming uniform over fan_in = out_features.
//
// Example:
//
//	backend := autodiff.New(cpu.New())
//	layer := nn.NewLinear(784, 128, true, backend)
//
//	input := tensor.Randn[float32](tensor.Shape{32, 784}, 0, 1, backend)  // batch_size=32
//	output := layer.Forward(input)  // shape: [32, 128]
type Linear[B tensor.Backend] struct {
	ModuleBase

	inFeatures  int
	outFeatures int
	weight      *Parameter[B] // [in_features, out_features]
	bias        *Parameter[B] // [1, out_features], nil when disabled
}

// NewLinear creates a new Linear layer.
//
// Parameters:
//   - inFeatures: Number of input features
//   - outFeatures: Number of output features
//   - bias: Whether to learn an additive bias
//   - backend: Backend to use for tensor operations
//
// Panics with ErrInvalidConfig if either size is not positive.
func NewLinear[B tensor.Backend](inFeatures, outFeatures int, bias bool, backend B) *Linear[B] {
	if inFeatures <= 0 || outFeatures <= 0 {
		panicConfig("NewLinear", "features must be positive, got in=%d out=%d", inFeatures, outFeatures)
	}

	l := &Linear[B]{
		inFeatures:  inFeatures,
		outFeatures: outFeatures,
		weight:      NewParameter("weight", mustKaimingUniform(inFeatures, outFeatures, nil, backend)),
	}
	if bias {
		b := mustKaimingUniform(outFeatures, 1, nil, backend).Reshape(1, outFeatures)
		l.bias = NewParameter("bias", b)
	}
	return l
}

// Forward computes the output of the linear layer.
//
// Input shape: [batch_size, in_features]
// Output shape: [batch_size, out_features]
func (l *Linear[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	inputShape := input.Shape()
	if len(inputShape) != 2 {
		panicShape("Linear.Forward", "expected 2D input [batch, features], got shape %v", inputShape)
	}
	if inputShape[1] != l.inFeatures {
		panicShape("Linear.Forward", "expected input with %d features, got %d", l.inFeatures, inputShape[1])
	}

	output := input.MatMul(l.weight.Tensor())

	if l.bias != nil {
		b := l.bias.Tensor().Expand(tensor.Shape{inputShape[0], l.outFeatures})
		output = output.Add(b)
	}

	return output
}

// Fields declares the weight and the optional bias.
func (l *Linear[B]) Fields() []Field[B] {
	return []Field[B]{ParamField(l.weight), ParamField(l.bias)}
}

// Weight returns the weight parameter.
func (l *Linear[B]) Weight() *Parameter[B] {
	return l.weight
}

// Bias returns the bias parameter, or nil if the layer has none.
func (l *Linear[B]) Bias() *Parameter[B] {
	return l.bias
}

// InFeatures returns the number of input features.
func (l *Linear[B]) InFeatures() int {
	return l.inFeatures
}

// OutFeatures returns the number of output features.
func (l *Linear[B]) OutFeatures() int {
	return l.outFeatures
}
