package nn

import (
	"github.com/born-ml/needle/internal/tensor"
)

// LayerNorm1d normalizes over the last axis of its input.
//
// For each position, statistics are computed over the last dimension:
//
//	y = (x - mean) / sqrt(var + eps) * weight + bias
//
// The computation is the same in training and evaluation mode and does not
// depend on the batch size.
//
// Input shape: [..., dim]
type LayerNorm1d[B tensor.Backend] struct {
	ModuleBase

	dim int
	eps float64

	weight *Parameter[B] // [dim], ones
	bias   *Parameter[B] // [dim], zeros
}

// NewLayerNorm1d creates a layer normalization over a trailing axis of size dim.
func NewLayerNorm1d[B tensor.Backend](dim int, eps float64, backend B) *LayerNorm1d[B] {
	if dim <= 0 {
		panicConfig("NewLayerNorm1d", "dim must be positive, got %d", dim)
	}
	if eps < 0 {
		panicConfig("NewLayerNorm1d", "eps must be non-negative, got %v", eps)
	}
	return &LayerNorm1d[B]{
		dim:    dim,
		eps:    eps,
		weight: NewParameter("weight", tensor.Ones[float32](tensor.Shape{dim}, backend)),
		bias:   NewParameter("bias", tensor.Zeros[float32](tensor.Shape{dim}, backend)),
	}
}

// Forward normalizes x over its last axis.
func (ln *LayerNorm1d[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := x.Shape()
	if len(shape) == 0 || shape[len(shape)-1] != ln.dim {
		panicShape("LayerNorm1d.Forward", "expected last dimension %d, got shape %v", ln.dim, shape)
	}

	mean := x.SumDim(-1, true).DivScalar(float64(ln.dim)).Expand(shape)
	centered := x.Sub(mean)
	variance := centered.Mul(centered).SumDim(-1, true).DivScalar(float64(ln.dim))
	std := variance.AddScalar(ln.eps).Pow(0.5).Expand(shape)
	normalized := centered.Div(std)

	paramShape := make([]int, len(shape))
	for i := range paramShape {
		paramShape[i] = 1
	}
	paramShape[len(shape)-1] = ln.dim

	w := ln.weight.Tensor().Reshape(paramShape...).Expand(shape)
	b := ln.bias.Tensor().Reshape(paramShape...).Expand(shape)
	return w.Mul(normalized).Add(b)
}

// Fields declares weight and bias.
func (ln *LayerNorm1d[B]) Fields() []Field[B] {
	return []Field[B]{ParamField(ln.weight), ParamField(ln.bias)}
}

// Weight returns the per-feature scale.
func (ln *LayerNorm1d[B]) Weight() *Parameter[B] {
	return ln.weight
}

// Bias returns the per-feature shift.
func (ln *LayerNorm1d[B]) Bias() *Parameter[B] {
	return ln.bias
}
