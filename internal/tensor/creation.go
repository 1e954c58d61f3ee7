package tensor

import "fmt"

// Zeros creates a tensor filled with zeros.
//
// Example:
//
//	backend := cpu.New()
//	t := tensor.Zeros[float32](Shape{3, 4}, backend)
func Zeros[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	var dummy T
	raw, err := NewRaw(shape, inferDataType(dummy), b.Device())
	if err != nil {
		panic(err)
	}
	return New[T, B](raw, b)
}

// Ones creates a tensor filled with ones.
//
// Example:
//
//	t := tensor.Ones[float64](Shape{2, 3}, backend)
func Ones[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return Full[T, B](shape, 1, b)
}

// Full creates a tensor filled with a specific value.
//
// Example:
//
//	t := tensor.Full[float32](Shape{3, 3}, 3.14, backend)
func Full[T DType, B Backend](shape Shape, value T, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	data := t.Data()
	for i := range data {
		data[i] = value
	}
	return t
}

// ZerosLike creates a zero tensor with the shape and backend of t.
func ZerosLike[T DType, B Backend](t *Tensor[T, B]) *Tensor[T, B] {
	return Zeros[T, B](t.Shape(), t.Backend())
}

// OnesLike creates a ones tensor with the shape and backend of t.
func OnesLike[T DType, B Backend](t *Tensor[T, B]) *Tensor[T, B] {
	return Ones[T, B](t.Shape(), t.Backend())
}

// Rand creates a tensor with values drawn uniformly from [low, high)
// using the backend's random generator.
//
// Example:
//
//	t := tensor.Rand[float32](Shape{10, 10}, -1, 1, backend)
func Rand[T DType, B Backend](shape Shape, low, high float64, b B) *Tensor[T, B] {
	var dummy T
	return New[T, B](b.RandUniform(shape, inferDataType(dummy), low, high), b)
}

// Randn creates a tensor with values drawn from a normal distribution
// using the backend's random generator.
//
// Example:
//
//	t := tensor.Randn[float32](Shape{100, 100}, 0, 1, backend)
func Randn[T DType, B Backend](shape Shape, mean, std float64, b B) *Tensor[T, B] {
	var dummy T
	return New[T, B](b.RandNormal(shape, inferDataType(dummy), mean, std), b)
}

// Bernoulli creates a 0/1 tensor where each element is 1 with probability p.
func Bernoulli[T DType, B Backend](shape Shape, p float64, b B) *Tensor[T, B] {
	var dummy T
	return New[T, B](b.RandBernoulli(shape, inferDataType(dummy), p), b)
}

// OneHot encodes integer indices as rows of a (len(indices), n) matrix.
// Panics if an index is outside [0, n).
//
// Example:
//
//	t := tensor.OneHot[float32]([]int{2, 0}, 3, backend) // [[0 0 1] [1 0 0]]
func OneHot[T DType, B Backend](indices []int, n int, b B) *Tensor[T, B] {
	t := Zeros[T, B](Shape{len(indices), n}, b)
	data := t.Data()
	for row, idx := range indices {
		if idx < 0 || idx >= n {
			panic(fmt.Sprintf("one_hot: index %d out of range [0, %d)", idx, n))
		}
		data[row*n+idx] = 1
	}
	return t
}

// Arange creates a 1-D tensor with values start, start+1, ..., end-1.
func Arange[T DType, B Backend](start, end int, b B) *Tensor[T, B] {
	if end <= start {
		panic(fmt.Sprintf("arange: end (%d) must be greater than start (%d)", end, start))
	}
	t := Zeros[T, B](Shape{end - start}, b)
	data := t.Data()
	for i := range data {
		data[i] = T(start + i)
	}
	return t
}
