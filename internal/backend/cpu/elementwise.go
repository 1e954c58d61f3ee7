package cpu

import (
	"fmt"
	"math"

	"github.com/born-ml/needle/internal/parallel"
	"github.com/born-ml/needle/internal/tensor"
)

// float is the set of element types the CPU kernels are instantiated for.
type float interface {
	~float32 | ~float64
}

func add[T float](x, y T) T { return x + y }
func sub[T float](x, y T) T { return x - y }
func mul[T float](x, y T) T { return x * y }
func div[T float](x, y T) T { return x / y }

// Add performs element-wise addition with NumPy-style broadcasting.
func (cpu *CPUBackend) Add(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary("add", a, b, add[float32], add[float64])
}

// Sub performs element-wise subtraction with broadcasting.
func (cpu *CPUBackend) Sub(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary("sub", a, b, sub[float32], sub[float64])
}

// Mul performs element-wise multiplication with broadcasting.
func (cpu *CPUBackend) Mul(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary("mul", a, b, mul[float32], mul[float64])
}

// Div performs element-wise division with broadcasting.
func (cpu *CPUBackend) Div(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary("div", a, b, div[float32], div[float64])
}

// binary dispatches a broadcasting binary kernel on the operands' dtype.
func (cpu *CPUBackend) binary(
	op string,
	a, b *tensor.RawTensor,
	f32 func(x, y float32) float32,
	f64 func(x, y float64) float64,
) *tensor.RawTensor {
	if a.DType() != b.DType() {
		panic(fmt.Sprintf("%s: dtype mismatch %s vs %s", op, a.DType(), b.DType()))
	}
	outShape, _, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(fmt.Sprintf("%s: %v", op, err))
	}

	result := cpu.newResult(op, outShape, a.DType())
	switch a.DType() {
	case tensor.Float32:
		binaryKernel(result.AsFloat32(), a.AsFloat32(), b.AsFloat32(), outShape, a.Shape(), b.Shape(), f32, cpu.par)
	case tensor.Float64:
		binaryKernel(result.AsFloat64(), a.AsFloat64(), b.AsFloat64(), outShape, a.Shape(), b.Shape(), f64, cpu.par)
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", op, a.DType()))
	}
	return result
}

func binaryKernel[T float](out, a, b []T, outShape, aShape, bShape tensor.Shape, f func(x, y T) T, cfg parallel.Config) {
	// Fast path: identical shapes need no index arithmetic.
	if aShape.Equal(bShape) {
		parallel.For(len(out), func(i int) {
			out[i] = f(a[i], b[i])
		}, cfg)
		return
	}

	aStrides := broadcastStrides(aShape, outShape)
	bStrides := broadcastStrides(bShape, outShape)
	stridedWalk(outShape, [][]int{aStrides, bStrides}, func(pos int, offsets []int) {
		out[pos] = f(a[offsets[0]], b[offsets[1]])
	})
}

// broadcastStrides returns the strides of src viewed as shape out:
// broadcast dimensions get stride 0 so the same element is revisited.
func broadcastStrides(src, out tensor.Shape) []int {
	strides := make([]int, len(out))
	srcStrides := src.ComputeStrides()
	offset := len(out) - len(src)
	for i, dim := range src {
		if dim != 1 {
			strides[i+offset] = srcStrides[i]
		}
	}
	return strides
}

// stridedWalk visits every index of shape in row-major order. For each index
// it calls fn with the flat output position and the matching offset into every
// strided source.
func stridedWalk(shape tensor.Shape, strides [][]int, fn func(pos int, offsets []int)) {
	n := shape.NumElements()
	ndim := len(shape)
	idx := make([]int, ndim)
	offsets := make([]int, len(strides))

	for pos := 0; pos < n; pos++ {
		fn(pos, offsets)
		for d := ndim - 1; d >= 0; d-- {
			idx[d]++
			for s := range strides {
				offsets[s] += strides[s][d]
			}
			if idx[d] < shape[d] {
				break
			}
			for s := range strides {
				offsets[s] -= strides[s][d] * shape[d]
			}
			idx[d] = 0
		}
	}
}

// unary applies f to every element. Kernels are written once against
// float64 and narrowed back for float32 storage.
func (cpu *CPUBackend) unary(op string, x *tensor.RawTensor, f func(v float64) float64) *tensor.RawTensor {
	result := cpu.newResult(op, x.Shape(), x.DType())
	switch x.DType() {
	case tensor.Float32:
		unaryKernel(result.AsFloat32(), x.AsFloat32(), f, cpu.par)
	case tensor.Float64:
		unaryKernel(result.AsFloat64(), x.AsFloat64(), f, cpu.par)
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", op, x.DType()))
	}
	return result
}

func unaryKernel[T float](out, x []T, f func(v float64) float64, cfg parallel.Config) {
	parallel.For(len(out), func(i int) {
		out[i] = T(f(float64(x[i])))
	}, cfg)
}

// MulScalar multiplies every element by a scalar.
func (cpu *CPUBackend) MulScalar(x *tensor.RawTensor, scalar float64) *tensor.RawTensor {
	return cpu.unary("mul_scalar", x, func(v float64) float64 { return v * scalar })
}

// AddScalar adds a scalar to every element.
func (cpu *CPUBackend) AddScalar(x *tensor.RawTensor, scalar float64) *tensor.RawTensor {
	return cpu.unary("add_scalar", x, func(v float64) float64 { return v + scalar })
}

// DivScalar divides every element by a scalar.
func (cpu *CPUBackend) DivScalar(x *tensor.RawTensor, scalar float64) *tensor.RawTensor {
	if scalar == 0 {
		panic("div_scalar: division by zero")
	}
	return cpu.unary("div_scalar", x, func(v float64) float64 { return v / scalar })
}

// PowScalar raises every element to a scalar power.
func (cpu *CPUBackend) PowScalar(x *tensor.RawTensor, exponent float64) *tensor.RawTensor {
	switch exponent {
	case 2:
		return cpu.unary("pow_scalar", x, func(v float64) float64 { return v * v })
	case 0.5:
		return cpu.unary("pow_scalar", x, math.Sqrt)
	}
	return cpu.unary("pow_scalar", x, func(v float64) float64 { return math.Pow(v, exponent) })
}

// Exp computes e^x element-wise.
func (cpu *CPUBackend) Exp(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary("exp", x, math.Exp)
}

// Log computes the natural logarithm element-wise.
func (cpu *CPUBackend) Log(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary("log", x, math.Log)
}

// ReLU computes max(0, x) element-wise.
func (cpu *CPUBackend) ReLU(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary("relu", x, func(v float64) float64 { return max(v, 0) })
}

// Tanh computes the hyperbolic tangent element-wise.
func (cpu *CPUBackend) Tanh(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary("tanh", x, math.Tanh)
}
