package tensor

// Backend defines the interface that all compute backends must implement.
// It is the complete engine contract the nn layers rely on.
//
// Element-wise binary operations follow NumPy broadcasting and panic when the
// shapes are incompatible. Every operation returns a new RawTensor; inputs are
// never modified.
//
// Implementations:
//   - cpu.CPUBackend: reference kernels in pure Go with gonum BLAS.
//   - autodiff.AutodiffBackend: decorator recording a gradient tape.
type Backend interface {
	// Element-wise binary operations
	Add(a, b *RawTensor) *RawTensor
	Sub(a, b *RawTensor) *RawTensor
	Mul(a, b *RawTensor) *RawTensor
	Div(a, b *RawTensor) *RawTensor

	// MatMul multiplies 2-D matrices: (M, K) @ (K, N) -> (M, N).
	MatMul(a, b *RawTensor) *RawTensor

	// Conv2D convolves a channel-last input [N, H, W, C_in] with a kernel
	// [K_h, K_w, C_in, C_out] and returns [N, H_out, W_out, C_out].
	Conv2D(input, kernel *RawTensor, stride, padding int) *RawTensor
	Conv2DInputBackward(input, kernel, grad *RawTensor, stride, padding int) *RawTensor
	Conv2DKernelBackward(input, kernel, grad *RawTensor, stride, padding int) *RawTensor

	// Shape operations
	Reshape(t *RawTensor, newShape Shape) *RawTensor
	Transpose(t *RawTensor, axes ...int) *RawTensor // full permutation of the axes
	Expand(x *RawTensor, shape Shape) *RawTensor    // broadcast to shape

	// Scalar operations (element-wise with scalar)
	MulScalar(x *RawTensor, scalar float64) *RawTensor
	AddScalar(x *RawTensor, scalar float64) *RawTensor
	DivScalar(x *RawTensor, scalar float64) *RawTensor
	PowScalar(x *RawTensor, exponent float64) *RawTensor

	// Math operations (element-wise)
	Exp(x *RawTensor) *RawTensor
	Log(x *RawTensor) *RawTensor
	ReLU(x *RawTensor) *RawTensor
	Tanh(x *RawTensor) *RawTensor

	// Reduction operations
	SumDim(x *RawTensor, dim int, keepDim bool) *RawTensor
	MaxDim(x *RawTensor, dim int, keepDim bool) *RawTensor

	// Random generators. Results never require gradients.
	RandUniform(shape Shape, dtype DataType, low, high float64) *RawTensor
	RandNormal(shape Shape, dtype DataType, mean, std float64) *RawTensor
	RandBernoulli(shape Shape, dtype DataType, p float64) *RawTensor

	// Metadata
	Name() string
	Device() Device
}
