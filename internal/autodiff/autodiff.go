// Package autodiff implements automatic differentiation using the decorator pattern.
//
// AutodiffBackend wraps any Backend implementation and adds gradient tracking
// capabilities through a GradientTape.
//
// Architecture:
//   - Decorator pattern: AutodiffBackend[B] wraps any Backend implementation
//   - GradientTape: Records operations during forward pass
//   - Operation interface: Each op implements its backward pass
//   - Reverse-mode AD: Computes gradients efficiently using chain rule
//
// Usage:
//
//	backend := autodiff.New(cpu.New())
//	backend.Tape().StartRecording()
//
//	x, _ := tensor.FromSlice([]float32{2.0}, tensor.Shape{1}, backend)
//	y := x.Mul(x) // y = x²
//
//	grads := autodiff.Backward(y, backend)
//	fmt.Println(grads[x.Raw()].AsFloat32()) // dy/dx = 2x = [4]
package autodiff

import (
	"github.com/born-ml/needle/internal/autodiff/ops"
	"github.com/born-ml/needle/internal/tensor"
)

// AutodiffBackend wraps a Backend and adds automatic differentiation.
// It implements the tensor.Backend interface and records operations in a GradientTape.
//
// Type parameter B must satisfy the tensor.Backend interface.
type AutodiffBackend[B tensor.Backend] struct {
	inner B             // Wrapped backend
	tape  *GradientTape // Records operations for backpropagation
}

// New creates a new AutodiffBackend wrapping the given backend.
func New[B tensor.Backend](backend B) *AutodiffBackend[B] {
	return &AutodiffBackend[B]{
		inner: backend,
		tape:  NewGradientTape(),
	}
}

// Tape returns the gradient tape for manual control.
// Useful for:
//   - Starting/stopping recording
//   - Clearing tape between iterations
//   - Inspecting recorded operations
func (b *AutodiffBackend[B]) Tape() *GradientTape {
	return b.tape
}

// Inner returns the wrapped backend for direct access.
func (b *AutodiffBackend[B]) Inner() B {
	return b.inner
}

// Name returns the backend name.
func (b *AutodiffBackend[B]) Name() string {
	return "Autodiff(" + b.inner.Name() + ")"
}

// Device returns the compute device.
func (b *AutodiffBackend[B]) Device() tensor.Device {
	return b.inner.Device()
}

// record pushes op onto the tape when recording and returns its output.
func (b *AutodiffBackend[B]) record(result *tensor.RawTensor, build func() ops.Operation) *tensor.RawTensor {
	if b.tape.IsRecording() {
		b.tape.Record(build())
	}
	return result
}

// Add performs element-wise addition and records the operation.
func (b *AutodiffBackend[B]) Add(x, y *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.Add(x, y)
	return b.record(result, func() ops.Operation { return ops.NewAddOp(x, y, result) })
}

// Sub performs element-wise subtraction and records the operation.
func (b *AutodiffBackend[B]) Sub(x, y *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.Sub(x, y)
	return b.record(result, func() ops.Operation { return ops.NewSubOp(x, y, result) })
}

// Mul performs element-wise multiplication and records the operation.
func (b *AutodiffBackend[B]) Mul(x, y *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.Mul(x, y)
	return b.record(result, func() ops.Operation { return ops.NewMulOp(x, y, result) })
}

// Div performs element-wise division and records the operation.
func (b *AutodiffBackend[B]) Div(x, y *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.Div(x, y)
	return b.record(result, func() ops.Operation { return ops.NewDivOp(x, y, result) })
}

// MatMul performs matrix multiplication and records the operation.
func (b *AutodiffBackend[B]) MatMul(x, y *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.MatMul(x, y)
	return b.record(result, func() ops.Operation { return ops.NewMatMulOp(x, y, result) })
}

// Conv2D performs a channel-last convolution and records the operation.
func (b *AutodiffBackend[B]) Conv2D(input, kernel *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	result := b.inner.Conv2D(input, kernel, stride, padding)
	return b.record(result, func() ops.Operation {
		return ops.NewConv2DOp(input, kernel, result, stride, padding)
	})
}

// Conv2DInputBackward delegates to the wrapped backend without recording.
// Second-order gradients are not supported.
func (b *AutodiffBackend[B]) Conv2DInputBackward(input, kernel, grad *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	return b.inner.Conv2DInputBackward(input, kernel, grad, stride, padding)
}

// Conv2DKernelBackward delegates to the wrapped backend without recording.
func (b *AutodiffBackend[B]) Conv2DKernelBackward(input, kernel, grad *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	return b.inner.Conv2DKernelBackward(input, kernel, grad, stride, padding)
}

// Reshape reshapes a tensor and records the operation.
//
// Reshape must be recorded: the result is a distinct tensor, and without a
// ReshapeOp gradients would stop at it instead of reaching the original
// parameter (e.g. a Linear bias reshaped for broadcasting).
func (b *AutodiffBackend[B]) Reshape(t *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	result := b.inner.Reshape(t, newShape)
	return b.record(result, func() ops.Operation { return ops.NewReshapeOp(t, result) })
}

// Transpose permutes axes and records the operation.
func (b *AutodiffBackend[B]) Transpose(t *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	result := b.inner.Transpose(t, axes...)
	return b.record(result, func() ops.Operation { return ops.NewTransposeOp(t, result, axes) })
}

// Expand broadcasts a tensor and records the operation.
func (b *AutodiffBackend[B]) Expand(t *tensor.RawTensor, shape tensor.Shape) *tensor.RawTensor {
	result := b.inner.Expand(t, shape)
	return b.record(result, func() ops.Operation { return ops.NewExpandOp(t, result) })
}

// MulScalar multiplies by a constant and records the operation.
func (b *AutodiffBackend[B]) MulScalar(x *tensor.RawTensor, scalar float64) *tensor.RawTensor {
	result := b.inner.MulScalar(x, scalar)
	return b.record(result, func() ops.Operation { return ops.NewScalarOp(ops.ScalarMul, x, result, scalar) })
}

// AddScalar adds a constant and records the operation.
func (b *AutodiffBackend[B]) AddScalar(x *tensor.RawTensor, scalar float64) *tensor.RawTensor {
	result := b.inner.AddScalar(x, scalar)
	return b.record(result, func() ops.Operation { return ops.NewScalarOp(ops.ScalarAdd, x, result, scalar) })
}

// DivScalar divides by a constant and records the operation.
func (b *AutodiffBackend[B]) DivScalar(x *tensor.RawTensor, scalar float64) *tensor.RawTensor {
	result := b.inner.DivScalar(x, scalar)
	return b.record(result, func() ops.Operation { return ops.NewScalarOp(ops.ScalarDiv, x, result, scalar) })
}

// PowScalar raises to a constant power and records the operation.
func (b *AutodiffBackend[B]) PowScalar(x *tensor.RawTensor, exponent float64) *tensor.RawTensor {
	result := b.inner.PowScalar(x, exponent)
	return b.record(result, func() ops.Operation { return ops.NewPowScalarOp(x, result, exponent) })
}

// Exp computes e^x and records the operation.
func (b *AutodiffBackend[B]) Exp(x *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.Exp(x)
	return b.record(result, func() ops.Operation { return ops.NewExpOp(x, result) })
}

// Log computes ln(x) and records the operation.
func (b *AutodiffBackend[B]) Log(x *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.Log(x)
	return b.record(result, func() ops.Operation { return ops.NewLogOp(x, result) })
}

// ReLU computes max(0, x) and records the operation.
func (b *AutodiffBackend[B]) ReLU(x *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.ReLU(x)
	return b.record(result, func() ops.Operation { return ops.NewReLUOp(x, result) })
}

// Tanh computes tanh(x) and records the operation.
func (b *AutodiffBackend[B]) Tanh(x *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.Tanh(x)
	return b.record(result, func() ops.Operation { return ops.NewTanhOp(x, result) })
}

// SumDim sums along a dimension and records the operation.
func (b *AutodiffBackend[B]) SumDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	result := b.inner.SumDim(x, dim, keepDim)
	return b.record(result, func() ops.Operation { return ops.NewSumDimOp(x, result, dim, keepDim) })
}

// MaxDim takes the maximum along a dimension and records the operation.
func (b *AutodiffBackend[B]) MaxDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	result := b.inner.MaxDim(x, dim, keepDim)
	return b.record(result, func() ops.Operation { return ops.NewMaxDimOp(x, result, dim) })
}

// RandUniform delegates to the wrapped backend. Random tensors are leaves.
func (b *AutodiffBackend[B]) RandUniform(shape tensor.Shape, dtype tensor.DataType, low, high float64) *tensor.RawTensor {
	return b.inner.RandUniform(shape, dtype, low, high)
}

// RandNormal delegates to the wrapped backend.
func (b *AutodiffBackend[B]) RandNormal(shape tensor.Shape, dtype tensor.DataType, mean, std float64) *tensor.RawTensor {
	return b.inner.RandNormal(shape, dtype, mean, std)
}

// RandBernoulli delegates to the wrapped backend.
func (b *AutodiffBackend[B]) RandBernoulli(shape tensor.Shape, dtype tensor.DataType, p float64) *tensor.RawTensor {
	return b.inner.RandBernoulli(shape, dtype, p)
}
