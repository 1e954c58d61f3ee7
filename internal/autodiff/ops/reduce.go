package ops

import "github.com/born-ml/needle/internal/tensor"

// SumDimOp represents a sum along one dimension.
// The gradient is broadcast back over the reduced dimension.
type SumDimOp struct {
	node
	dim     int
	keepDim bool
}

// NewSumDimOp creates a new SumDimOp.
func NewSumDimOp(input, output *tensor.RawTensor, dim int, keepDim bool) *SumDimOp {
	dim = tensor.NormalizeAxis(dim, len(input.Shape()))
	return &SumDimOp{node: newNode(output, input), dim: dim, keepDim: keepDim}
}

// Backward expands the output gradient to the input's shape.
func (op *SumDimOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	inShape := op.inputs[0].Shape()
	grad := backend.Reshape(outputGrad, keepDimShape(inShape, op.dim))
	return []*tensor.RawTensor{backend.Expand(grad, inShape)}
}

// MaxDimOp represents a maximum along one dimension.
//
// The gradient flows to every position equal to the maximum; with ties each
// tied position receives the full gradient.
type MaxDimOp struct {
	node
	dim int
}

// NewMaxDimOp creates a new MaxDimOp.
func NewMaxDimOp(input, output *tensor.RawTensor, dim int) *MaxDimOp {
	dim = tensor.NormalizeAxis(dim, len(input.Shape()))
	return &MaxDimOp{node: newNode(output, input), dim: dim}
}

// Backward routes the output gradient to the arg-max positions.
func (op *MaxDimOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	x := op.inputs[0]
	keep := keepDimShape(x.Shape(), op.dim)

	mask := equalMask(x, backend.Reshape(op.output, keep), backend)
	grad := backend.Expand(backend.Reshape(outputGrad, keep), x.Shape())
	return []*tensor.RawTensor{backend.Mul(grad, mask)}
}
