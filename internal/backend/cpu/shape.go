package cpu

import (
	"fmt"

	"github.com/born-ml/needle/internal/tensor"
)

// Reshape returns a tensor with the same data and a new shape.
// The result is a view: it shares the input's buffer but is a distinct tensor.
func (cpu *CPUBackend) Reshape(t *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	if err := newShape.Validate(); err != nil {
		panic(fmt.Sprintf("reshape: %v", err))
	}
	if newShape.NumElements() != t.NumElements() {
		panic(fmt.Sprintf("reshape: cannot reshape %v (%d elements) to %v (%d elements)",
			t.Shape(), t.NumElements(), newShape, newShape.NumElements()))
	}
	return t.View(newShape)
}

// Transpose permutes the tensor's axes and materializes the result.
// With no axes, the last two dimensions are swapped.
func (cpu *CPUBackend) Transpose(t *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	shape := t.Shape()
	ndim := len(shape)

	if len(axes) == 0 {
		if ndim < 2 {
			panic(fmt.Sprintf("transpose: need at least 2 dimensions, got %d", ndim))
		}
		axes = make([]int, ndim)
		for i := range axes {
			axes[i] = i
		}
		axes[ndim-2], axes[ndim-1] = axes[ndim-1], axes[ndim-2]
	}
	if len(axes) != ndim {
		panic(fmt.Sprintf("transpose: axes %v do not match %d dimensions", axes, ndim))
	}

	seen := make([]bool, ndim)
	outShape := make(tensor.Shape, ndim)
	srcStrides := t.Strides()
	permStrides := make([]int, ndim)
	for i, ax := range axes {
		ax = tensor.NormalizeAxis(ax, ndim)
		if seen[ax] {
			panic(fmt.Sprintf("transpose: axes %v are not a permutation", axes))
		}
		seen[ax] = true
		outShape[i] = shape[ax]
		permStrides[i] = srcStrides[ax]
	}

	result := cpu.newResult("transpose", outShape, t.DType())
	switch t.DType() {
	case tensor.Float32:
		gather(result.AsFloat32(), t.AsFloat32(), outShape, permStrides)
	case tensor.Float64:
		gather(result.AsFloat64(), t.AsFloat64(), outShape, permStrides)
	default:
		panic(fmt.Sprintf("transpose: unsupported dtype %s", t.DType()))
	}
	return result
}

// Expand broadcasts t to shape, materializing the repeated elements.
func (cpu *CPUBackend) Expand(t *tensor.RawTensor, shape tensor.Shape) *tensor.RawTensor {
	if !tensor.CanExpand(t.Shape(), shape) {
		panic(fmt.Sprintf("expand: cannot broadcast %v to %v", t.Shape(), shape))
	}

	strides := broadcastStrides(t.Shape(), shape)
	result := cpu.newResult("expand", shape, t.DType())
	switch t.DType() {
	case tensor.Float32:
		gather(result.AsFloat32(), t.AsFloat32(), shape, strides)
	case tensor.Float64:
		gather(result.AsFloat64(), t.AsFloat64(), shape, strides)
	default:
		panic(fmt.Sprintf("expand: unsupported dtype %s", t.DType()))
	}
	return result
}

// gather fills out (row-major over shape) from src read through strides.
func gather[T float](out, src []T, shape tensor.Shape, strides []int) {
	stridedWalk(shape, [][]int{strides}, func(pos int, offsets []int) {
		out[pos] = src[offsets[0]]
	})
}
