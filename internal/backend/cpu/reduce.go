package cpu

import (
	"fmt"
	"math"

	"github.com/born-ml/needle/internal/parallel"
	"github.com/born-ml/needle/internal/tensor"
)

// SumDim sums along a dimension.
// Negative dims count from the end. With keepDim the reduced dimension stays
// as size 1, otherwise it is removed (a 1-D input reduces to shape [1]).
func (cpu *CPUBackend) SumDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	return cpu.reduce("sum_dim", x, dim, keepDim, 0, func(acc, v float64) float64 { return acc + v })
}

// MaxDim takes the maximum along a dimension.
func (cpu *CPUBackend) MaxDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	return cpu.reduce("max_dim", x, dim, keepDim, math.Inf(-1), math.Max)
}

func (cpu *CPUBackend) reduce(
	op string,
	x *tensor.RawTensor,
	dim int,
	keepDim bool,
	init float64,
	f func(acc, v float64) float64,
) *tensor.RawTensor {
	shape := x.Shape()
	if len(shape) == 0 {
		panic(fmt.Sprintf("%s: cannot reduce a scalar", op))
	}
	dim = tensor.NormalizeAxis(dim, len(shape))

	outer := 1
	for i := 0; i < dim; i++ {
		outer *= shape[i]
	}
	inner := 1
	for i := dim + 1; i < len(shape); i++ {
		inner *= shape[i]
	}

	result := cpu.newResult(op, reducedShape(shape, dim, keepDim), x.DType())
	switch x.DType() {
	case tensor.Float32:
		reduceKernel(result.AsFloat32(), x.AsFloat32(), outer, shape[dim], inner, init, f, cpu.par)
	case tensor.Float64:
		reduceKernel(result.AsFloat64(), x.AsFloat64(), outer, shape[dim], inner, init, f, cpu.par)
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", op, x.DType()))
	}
	return result
}

// reduceKernel folds src viewed as [outer, size, inner] over its middle axis.
// Accumulation happens in float64.
func reduceKernel[T float](out, src []T, outer, size, inner int, init float64, f func(acc, v float64) float64, cfg parallel.Config) {
	parallel.For(outer*inner, func(i int) {
		o, in := i/inner, i%inner
		base := o*size*inner + in
		acc := init
		for k := 0; k < size; k++ {
			acc = f(acc, float64(src[base+k*inner]))
		}
		out[i] = T(acc)
	}, cfg)
}

func reducedShape(shape tensor.Shape, dim int, keepDim bool) tensor.Shape {
	if keepDim {
		out := shape.Clone()
		out[dim] = 1
		return out
	}
	out := make(tensor.Shape, 0, len(shape)-1)
	out = append(out, shape[:dim]...)
	out = append(out, shape[dim+1:]...)
	if len(out) == 0 {
		out = tensor.Shape{1}
	}
	return out
}
