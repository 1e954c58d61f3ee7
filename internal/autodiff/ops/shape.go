package ops

import "github.com/born-ml/needle/internal/tensor"

// ReshapeOp represents a reshape. The gradient is reshaped back to the
// input's shape.
type ReshapeOp struct{ node }

// NewReshapeOp creates a new ReshapeOp.
func NewReshapeOp(input, output *tensor.RawTensor) *ReshapeOp {
	return &ReshapeOp{newNode(output, input)}
}

// Backward reshapes the output gradient to the input's shape.
func (op *ReshapeOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.Reshape(outputGrad, op.inputs[0].Shape())}
}

// TransposeOp represents an axis permutation.
// The gradient is permuted back with the inverse permutation.
type TransposeOp struct {
	node
	axes []int
}

// NewTransposeOp creates a new TransposeOp.
// Empty axes mean the last two dimensions were swapped.
func NewTransposeOp(input, output *tensor.RawTensor, axes []int) *TransposeOp {
	ndim := len(input.Shape())
	perm := make([]int, ndim)
	if len(axes) == 0 {
		for i := range perm {
			perm[i] = i
		}
		perm[ndim-2], perm[ndim-1] = perm[ndim-1], perm[ndim-2]
	} else {
		for i, ax := range axes {
			perm[i] = tensor.NormalizeAxis(ax, ndim)
		}
	}
	return &TransposeOp{node: newNode(output, input), axes: perm}
}

// Backward applies the inverse permutation to the output gradient.
func (op *TransposeOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	inverse := make([]int, len(op.axes))
	for i, ax := range op.axes {
		inverse[ax] = i
	}
	return []*tensor.RawTensor{backend.Transpose(outputGrad, inverse...)}
}

// ExpandOp represents a broadcast to a larger shape.
// The gradient is summed over every broadcast dimension.
type ExpandOp struct{ node }

// NewExpandOp creates a new ExpandOp.
func NewExpandOp(input, output *tensor.RawTensor) *ExpandOp {
	return &ExpandOp{newNode(output, input)}
}

// Backward sums the output gradient back to the input's shape.
func (op *ExpandOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{reduceBroadcast(outputGrad, op.inputs[0].Shape(), backend)}
}
