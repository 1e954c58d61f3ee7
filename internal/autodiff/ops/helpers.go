package ops

import (
	"fmt"

	"github.com/born-ml/needle/internal/tensor"
)

// reduceBroadcast reduces a gradient tensor to match the target shape.
// This is necessary when broadcasting was used in the forward pass.
//
// Example:
//
//	Forward: a[3,1] + b[3,4] -> c[3,4]  (a was broadcast along dim 1)
//	Backward: grad_c[3,4] -> grad_a[3,1] (sum along dim 1)
func reduceBroadcast(grad *tensor.RawTensor, targetShape tensor.Shape, backend tensor.Backend) *tensor.RawTensor {
	if grad.Shape().Equal(targetShape) {
		return grad
	}

	// Scalar target: sum everything.
	if len(targetShape) == 0 {
		flat := backend.Reshape(grad, tensor.Shape{grad.NumElements()})
		return backend.Reshape(backend.SumDim(flat, 0, true), targetShape)
	}

	// NumPy broadcasting aligns shapes from the right, so extra leading
	// dimensions are summed away first.
	for len(grad.Shape()) > len(targetShape) {
		grad = backend.SumDim(grad, 0, false)
	}

	for i, dim := range targetShape {
		if dim == 1 && grad.Shape()[i] != 1 {
			grad = backend.SumDim(grad, i, true)
		}
	}

	if !grad.Shape().Equal(targetShape) {
		grad = backend.Reshape(grad, targetShape)
	}
	return grad
}

// keepDimShape returns shape with dim collapsed to size 1.
func keepDimShape(shape tensor.Shape, dim int) tensor.Shape {
	out := shape.Clone()
	out[dim] = 1
	return out
}

// equalMask returns 1 where x equals the broadcast reference and 0 elsewhere.
func equalMask(x, ref *tensor.RawTensor, backend tensor.Backend) *tensor.RawTensor {
	expanded := backend.Expand(ref, x.Shape())
	mask, err := tensor.NewRaw(x.Shape(), x.DType(), backend.Device())
	if err != nil {
		panic(fmt.Sprintf("equal_mask: failed to create mask: %v", err))
	}

	switch x.DType() {
	case tensor.Float32:
		fillEqual(mask.AsFloat32(), x.AsFloat32(), expanded.AsFloat32())
	case tensor.Float64:
		fillEqual(mask.AsFloat64(), x.AsFloat64(), expanded.AsFloat64())
	default:
		panic(fmt.Sprintf("equal_mask: unsupported dtype %s", x.DType()))
	}
	return mask
}

func fillEqual[T float32 | float64](mask, x, ref []T) {
	for i := range mask {
		if x[i] == ref[i] {
			mask[i] = 1
		}
	}
}

// positiveMask returns 1 where x > 0 and 0 elsewhere.
func positiveMask(x *tensor.RawTensor, backend tensor.Backend) *tensor.RawTensor {
	mask, err := tensor.NewRaw(x.Shape(), x.DType(), backend.Device())
	if err != nil {
		panic(fmt.Sprintf("relu: failed to create mask: %v", err))
	}

	switch x.DType() {
	case tensor.Float32:
		fillPositive(mask.AsFloat32(), x.AsFloat32())
	case tensor.Float64:
		fillPositive(mask.AsFloat64(), x.AsFloat64())
	default:
		panic(fmt.Sprintf("relu: unsupported dtype %s", x.DType()))
	}
	return mask
}

func fillPositive[T float32 | float64](mask, x []T) {
	for i := range mask {
		if x[i] > 0 {
			mask[i] = 1
		}
	}
}
