package tensor

import "fmt"

// Add performs element-wise addition with broadcasting.
//
// Example:
//
//	a := tensor.Ones[float32](Shape{3, 1}, backend)
//	b := tensor.Ones[float32](Shape{3, 5}, backend)
//	c := a.Add(b) // Shape: [3, 5] (broadcasted)
func (t *Tensor[T, B]) Add(other *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](t.backend.Add(t.raw, other.raw), t.backend)
}

// Sub performs element-wise subtraction with broadcasting.
func (t *Tensor[T, B]) Sub(other *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](t.backend.Sub(t.raw, other.raw), t.backend)
}

// Mul performs element-wise multiplication with broadcasting.
func (t *Tensor[T, B]) Mul(other *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](t.backend.Mul(t.raw, other.raw), t.backend)
}

// Div performs element-wise division with broadcasting.
func (t *Tensor[T, B]) Div(other *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](t.backend.Div(t.raw, other.raw), t.backend)
}

// MatMul performs 2-D matrix multiplication: (M, K) @ (K, N) → (M, N).
//
// Example:
//
//	a := tensor.Randn[float32](Shape{3, 4}, 0, 1, backend)
//	b := tensor.Randn[float32](Shape{4, 5}, 0, 1, backend)
//	c := a.MatMul(b) // Shape: [3, 5]
func (t *Tensor[T, B]) MatMul(other *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](t.backend.MatMul(t.raw, other.raw), t.backend)
}

// Conv2D convolves a channel-last input [N, H, W, C_in] with a kernel
// [K, K, C_in, C_out].
func (t *Tensor[T, B]) Conv2D(kernel *Tensor[T, B], stride, padding int) *Tensor[T, B] {
	return New[T, B](t.backend.Conv2D(t.raw, kernel.raw, stride, padding), t.backend)
}

// Reshape returns a tensor with the same data but different shape.
// The new shape must have the same number of elements.
//
// Example:
//
//	t := tensor.Zeros[float32](Shape{12}, backend)
//	reshaped := t.Reshape(3, 4) // Shape: [3, 4]
func (t *Tensor[T, B]) Reshape(newShape ...int) *Tensor[T, B] {
	return New[T, B](t.backend.Reshape(t.raw, Shape(newShape)), t.backend)
}

// Transpose permutes the tensor's dimensions.
//
// If axes is empty, the last two dimensions are swapped.
// Otherwise, axes specifies the full permutation.
//
// Example:
//
//	t := tensor.Zeros[float32](Shape{2, 3, 4}, backend)
//	t.Transpose()        // Shape: [2, 4, 3]
//	t.Transpose(2, 0, 1) // Shape: [4, 2, 3]
func (t *Tensor[T, B]) Transpose(axes ...int) *Tensor[T, B] {
	if len(axes) == 0 {
		ndim := t.Ndim()
		if ndim < 2 {
			panic(fmt.Sprintf("transpose: need at least 2 dimensions, got %d", ndim))
		}
		return t.SwapAxes(ndim-2, ndim-1)
	}
	return New[T, B](t.backend.Transpose(t.raw, axes...), t.backend)
}

// SwapAxes exchanges two dimensions. Negative axes count from the end.
func (t *Tensor[T, B]) SwapAxes(a, b int) *Tensor[T, B] {
	ndim := t.Ndim()
	a = NormalizeAxis(a, ndim)
	b = NormalizeAxis(b, ndim)

	perm := make([]int, ndim)
	for i := range perm {
		perm[i] = i
	}
	perm[a], perm[b] = perm[b], perm[a]
	return New[T, B](t.backend.Transpose(t.raw, perm...), t.backend)
}

// T is a shortcut for 2D transpose (swaps rows and columns).
// Panics if the tensor is not 2D.
func (t *Tensor[T, B]) T() *Tensor[T, B] {
	if t.Ndim() != 2 {
		panic(fmt.Sprintf("T() requires 2D tensor, got %dD", t.Ndim()))
	}
	return t.SwapAxes(0, 1)
}

// Expand broadcasts the tensor to a larger shape.
// Dimensions of size 1 are repeated, missing leading dimensions are added.
func (t *Tensor[T, B]) Expand(shape Shape) *Tensor[T, B] {
	if t.Shape().Equal(shape) {
		return t
	}
	return New[T, B](t.backend.Expand(t.raw, shape), t.backend)
}

// MulScalar multiplies every element by a scalar.
func (t *Tensor[T, B]) MulScalar(s float64) *Tensor[T, B] {
	return New[T, B](t.backend.MulScalar(t.raw, s), t.backend)
}

// AddScalar adds a scalar to every element.
func (t *Tensor[T, B]) AddScalar(s float64) *Tensor[T, B] {
	return New[T, B](t.backend.AddScalar(t.raw, s), t.backend)
}

// DivScalar divides every element by a scalar.
func (t *Tensor[T, B]) DivScalar(s float64) *Tensor[T, B] {
	return New[T, B](t.backend.DivScalar(t.raw, s), t.backend)
}

// Pow raises every element to a scalar power.
func (t *Tensor[T, B]) Pow(exponent float64) *Tensor[T, B] {
	return New[T, B](t.backend.PowScalar(t.raw, exponent), t.backend)
}

// Neg returns -t.
func (t *Tensor[T, B]) Neg() *Tensor[T, B] {
	return t.MulScalar(-1)
}

// Exp computes e^x element-wise.
func (t *Tensor[T, B]) Exp() *Tensor[T, B] {
	return New[T, B](t.backend.Exp(t.raw), t.backend)
}

// Log computes the natural logarithm element-wise.
func (t *Tensor[T, B]) Log() *Tensor[T, B] {
	return New[T, B](t.backend.Log(t.raw), t.backend)
}

// ReLU computes max(0, x) element-wise.
func (t *Tensor[T, B]) ReLU() *Tensor[T, B] {
	return New[T, B](t.backend.ReLU(t.raw), t.backend)
}

// Tanh computes the hyperbolic tangent element-wise.
func (t *Tensor[T, B]) Tanh() *Tensor[T, B] {
	return New[T, B](t.backend.Tanh(t.raw), t.backend)
}

// SumDim sums along one dimension. Negative dims count from the end.
func (t *Tensor[T, B]) SumDim(dim int, keepDim bool) *Tensor[T, B] {
	return New[T, B](t.backend.SumDim(t.raw, dim, keepDim), t.backend)
}

// MaxDim takes the maximum along one dimension. Negative dims count from the end.
func (t *Tensor[T, B]) MaxDim(dim int, keepDim bool) *Tensor[T, B] {
	return New[T, B](t.backend.MaxDim(t.raw, dim, keepDim), t.backend)
}

// MeanDim averages along one dimension.
func (t *Tensor[T, B]) MeanDim(dim int, keepDim bool) *Tensor[T, B] {
	n := t.Shape()[NormalizeAxis(dim, t.Ndim())]
	return t.SumDim(dim, keepDim).DivScalar(float64(n))
}

// Sum reduces every element to a scalar tensor of shape [1].
func (t *Tensor[T, B]) Sum() *Tensor[T, B] {
	return t.Reshape(t.NumElements()).SumDim(0, true)
}
