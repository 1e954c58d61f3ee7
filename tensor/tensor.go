// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/born-ml/needle/internal/tensor"
)

// DType is a constraint for tensor element types (float32, float64).
type DType = tensor.DType

// DataType represents the runtime element type of a tensor.
type DataType = tensor.DataType

// Data type constants.
const (
	Float32 DataType = tensor.Float32
	Float64 DataType = tensor.Float64
)

// Device represents the device where tensor data resides.
type Device = tensor.Device

// CPU is the only device currently implemented.
const CPU Device = tensor.CPU

// Shape represents the dimensions of a tensor.
// Example: Shape{2, 3, 4} is a 3D tensor with dimensions 2×3×4.
type Shape = tensor.Shape

// Backend is the compute contract every backend implements.
//
// Element-wise binary operations broadcast with NumPy rules, MatMul is
// strictly 2D and Conv2D takes NHWC input with an HWIO kernel.
type Backend = tensor.Backend

// RawTensor is the untyped tensor representation.
//
// Gradients returned by autodiff.Backward are keyed on *RawTensor, so use
// Tensor.Raw() to look one up.
type RawTensor = tensor.RawTensor

// Tensor is a generic type-safe tensor.
//
// T is the element type, B the backend. Operations dispatch to B, so wrapping
// a backend with autodiff makes every operation differentiable.
type Tensor[T DType, B Backend] = tensor.Tensor[T, B]

// Creation functions

// Zeros creates a tensor filled with zeros.
func Zeros[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return tensor.Zeros[T, B](shape, b)
}

// Ones creates a tensor filled with ones.
func Ones[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return tensor.Ones[T, B](shape, b)
}

// Full creates a tensor filled with a specific value.
//
// Example:
//
//	x := tensor.Full[float32](tensor.Shape{2, 3}, 3.14, backend)
func Full[T DType, B Backend](shape Shape, value T, b B) *Tensor[T, B] {
	return tensor.Full[T, B](shape, value, b)
}

// ZerosLike creates a zero tensor with the shape of t.
func ZerosLike[T DType, B Backend](t *Tensor[T, B]) *Tensor[T, B] {
	return tensor.ZerosLike(t)
}

// OnesLike creates a tensor of ones with the shape of t.
func OnesLike[T DType, B Backend](t *Tensor[T, B]) *Tensor[T, B] {
	return tensor.OnesLike(t)
}

// Rand creates a tensor with values drawn from U(low, high).
// Random draws come from the backend generator, so a seeded backend is reproducible.
func Rand[T DType, B Backend](shape Shape, low, high float64, b B) *Tensor[T, B] {
	return tensor.Rand[T, B](shape, low, high, b)
}

// Randn creates a tensor with values drawn from N(mean, std²).
func Randn[T DType, B Backend](shape Shape, mean, std float64, b B) *Tensor[T, B] {
	return tensor.Randn[T, B](shape, mean, std, b)
}

// Bernoulli creates a tensor of 0/1 values that are 1 with probability p.
func Bernoulli[T DType, B Backend](shape Shape, p float64, b B) *Tensor[T, B] {
	return tensor.Bernoulli[T, B](shape, p, b)
}

// OneHot creates a (len(indices), n) tensor with a single one per row.
func OneHot[T DType, B Backend](indices []int, n int, b B) *Tensor[T, B] {
	return tensor.OneHot[T, B](indices, n, b)
}

// Arange creates a 1D tensor with values from start to end (exclusive).
//
// Example:
//
//	x := tensor.Arange[float32](0, 10, backend)  // [0, 1, 2, ..., 9]
func Arange[T DType, B Backend](start, end int, b B) *Tensor[T, B] {
	return tensor.Arange[T, B](start, end, b)
}

// FromSlice creates a tensor from a Go slice. The slice length must match shape.
//
// Example:
//
//	x, err := tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, backend)
func FromSlice[T DType, B Backend](data []T, shape Shape, b B) (*Tensor[T, B], error) {
	return tensor.FromSlice[T, B](data, shape, b)
}

// New wraps a raw tensor.
//
// This is a low-level function. Most users should use Zeros, Ones or FromSlice.
func New[T DType, B Backend](raw *RawTensor, b B) *Tensor[T, B] {
	return tensor.New[T, B](raw, b)
}

// NewRaw creates a new raw tensor with the given shape, dtype, and device.
func NewRaw(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	return tensor.NewRaw(shape, dtype, device)
}

// Utility functions

// BroadcastShapes computes the broadcast shape of two shapes following NumPy rules.
// The boolean reports whether either operand needs broadcasting.
func BroadcastShapes(a, b Shape) (Shape, bool, error) {
	return tensor.BroadcastShapes(a, b)
}
