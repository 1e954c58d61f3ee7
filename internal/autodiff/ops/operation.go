// Package ops defines operation interfaces and implementations for automatic differentiation.
//
// Each operation implements the Operation interface, which provides:
//   - Forward pass: computed by the backend
//   - Backward pass: computes gradients for inputs given output gradient
//
// Supported operations:
//   - AddOp, SubOp, MulOp, DivOp: element-wise arithmetic with broadcasting
//   - MatMulOp: matrix multiplication (d(A@B)/dA = grad@B^T, d(A@B)/dB = A^T@grad)
//   - ReshapeOp, TransposeOp, ExpandOp: shape manipulation
//   - ScalarOp, PowScalarOp: element-wise operations with a scalar
//   - ExpOp, LogOp, ReLUOp, TanhOp: element-wise math
//   - SumDimOp, MaxDimOp: reductions along one dimension
//   - Conv2DOp: channel-last 2D convolution
package ops

import "github.com/born-ml/needle/internal/tensor"

// Operation represents a differentiable operation in the computation graph.
// Each operation records its inputs and output during the forward pass,
// and computes input gradients during the backward pass.
type Operation interface {
	// Backward computes gradients for inputs given the output gradient.
	// Returns a slice of gradients corresponding to each input tensor.
	//
	// Example for AddOp:
	//   inputs: [a, b]
	//   outputGrad: dL/d(a+b)
	//   returns: [dL/d(a+b), dL/d(a+b)] (gradient flows equally to both inputs)
	Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor

	// Inputs returns the input tensors for this operation.
	Inputs() []*tensor.RawTensor

	// Output returns the output tensor produced by this operation.
	Output() *tensor.RawTensor
}

// node carries the inputs and output every operation records.
type node struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
}

// Inputs returns the recorded input tensors.
func (n node) Inputs() []*tensor.RawTensor {
	return n.inputs
}

// Output returns the recorded output tensor.
func (n node) Output() *tensor.RawTensor {
	return n.output
}

func newNode(output *tensor.RawTensor, inputs ...*tensor.RawTensor) node {
	return node{inputs: inputs, output: output}
}
