// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/born-ml/needle/internal/nn"
	"github.com/born-ml/needle/internal/tensor"
)

// Default normalization hyperparameters.
const (
	DefaultEps      = nn.DefaultEps
	DefaultMomentum = nn.DefaultMomentum
)

// Layers

// Linear represents a fully connected layer: y = x·W + b.
type Linear[B tensor.Backend] = nn.Linear[B]

// NewLinear creates a linear layer with Kaiming-uniform weights (in, out)
// and, when bias is set, a Kaiming-uniform bias (1, out).
//
// Example:
//
//	layer := nn.NewLinear(784, 128, true, backend)
func NewLinear[B tensor.Backend](inFeatures, outFeatures int, bias bool, backend B) *Linear[B] {
	return nn.NewLinear(inFeatures, outFeatures, bias, backend)
}

// Conv is a square-kernel 2D convolution over channel-first input (N, C, H, W)
// with padding (k-1)/2.
type Conv[B tensor.Backend] = nn.Conv[B]

// NewConv creates a convolution with weights laid out (k, k, in, out).
//
// Example:
//
//	conv := nn.NewConv(3, 16, 3, 1, true, backend)
func NewConv[B tensor.Backend](inChannels, outChannels, kernelSize, stride int, bias bool, backend B) *Conv[B] {
	return nn.NewConv(inChannels, outChannels, kernelSize, stride, bias, backend)
}

// ConvBN is Conv, BatchNorm2d and ReLU in sequence.
type ConvBN[B tensor.Backend] = nn.ConvBN[B]

// NewConvBN creates a convolution block with a biased convolution.
func NewConvBN[B tensor.Backend](inChannels, outChannels, kernelSize, stride int, backend B) *ConvBN[B] {
	return nn.NewConvBN(inChannels, outChannels, kernelSize, stride, backend)
}

// Embedding maps integer indices to learned vectors.
type Embedding[B tensor.Backend] = nn.Embedding[B]

// NewEmbedding creates an embedding table with N(0, 1) rows.
func NewEmbedding[B tensor.Backend](numEmbeddings, embeddingDim int, backend B) *Embedding[B] {
	return nn.NewEmbedding(numEmbeddings, embeddingDim, backend)
}

// Flatten reshapes (N, ...) to (N, prod(...)).
type Flatten[B tensor.Backend] = nn.Flatten[B]

// NewFlatten creates a flatten layer.
func NewFlatten[B tensor.Backend]() *Flatten[B] {
	return nn.NewFlatten[B]()
}

// Sequential chains layers, feeding each output into the next.
type Sequential[B tensor.Backend] = nn.Sequential[B]

// NewSequential creates a sequential container.
//
// Example:
//
//	model := nn.NewSequential[*cpu.Backend](
//	    nn.NewLinear(784, 128, true, backend),
//	    nn.NewReLU[*cpu.Backend](),
//	    nn.NewLinear(128, 10, true, backend),
//	)
func NewSequential[B tensor.Backend](layers ...Layer[B]) *Sequential[B] {
	return nn.NewSequential(layers...)
}

// Residual computes x + fn(x).
type Residual[B tensor.Backend] = nn.Residual[B]

// NewResidual wraps fn in a skip connection. fn must preserve the input shape.
func NewResidual[B tensor.Backend](fn Layer[B]) *Residual[B] {
	return nn.NewResidual(fn)
}

// Normalization

// BatchNorm1d normalizes each feature of a (batch, dim) input over the batch.
type BatchNorm1d[B tensor.Backend] = nn.BatchNorm1d[B]

// NewBatchNorm1d creates a batch norm with unit weight, zero bias, zero
// running mean and unit running variance.
func NewBatchNorm1d[B tensor.Backend](dim int, eps, momentum float64, backend B) *BatchNorm1d[B] {
	return nn.NewBatchNorm1d(dim, eps, momentum, backend)
}

// BatchNorm2d normalizes each channel of a (N, C, H, W) input.
type BatchNorm2d[B tensor.Backend] = nn.BatchNorm2d[B]

// NewBatchNorm2d creates a channel-wise batch norm.
func NewBatchNorm2d[B tensor.Backend](dim int, eps, momentum float64, backend B) *BatchNorm2d[B] {
	return nn.NewBatchNorm2d(dim, eps, momentum, backend)
}

// LayerNorm1d normalizes over the last axis.
type LayerNorm1d[B tensor.Backend] = nn.LayerNorm1d[B]

// NewLayerNorm1d creates a layer norm over a trailing axis of size dim.
func NewLayerNorm1d[B tensor.Backend](dim int, eps float64, backend B) *LayerNorm1d[B] {
	return nn.NewLayerNorm1d(dim, eps, backend)
}

// Regularization

// Dropout zeroes elements with probability p in training mode and rescales
// the survivors by 1/(1-p). It is the identity in evaluation mode.
type Dropout[B tensor.Backend] = nn.Dropout[B]

// NewDropout creates a dropout layer. p must be in [0, 1).
func NewDropout[B tensor.Backend](p float64) *Dropout[B] {
	return nn.NewDropout[B](p)
}

// Activations

// Identity returns its input.
type Identity[B tensor.Backend] = nn.Identity[B]

// NewIdentity creates an identity layer.
func NewIdentity[B tensor.Backend]() *Identity[B] {
	return nn.NewIdentity[B]()
}

// ReLU represents the Rectified Linear Unit activation function.
type ReLU[B tensor.Backend] = nn.ReLU[B]

// NewReLU creates a new ReLU activation layer.
func NewReLU[B tensor.Backend]() *ReLU[B] {
	return nn.NewReLU[B]()
}

// Tanh represents the hyperbolic tangent activation function.
type Tanh[B tensor.Backend] = nn.Tanh[B]

// NewTanh creates a new Tanh activation layer.
func NewTanh[B tensor.Backend]() *Tanh[B] {
	return nn.NewTanh[B]()
}

// Losses

// SoftmaxLoss is the mean cross-entropy of logits against integer labels.
type SoftmaxLoss[B tensor.Backend] = nn.SoftmaxLoss[B]

// NewSoftmaxLoss creates a softmax cross-entropy loss.
func NewSoftmaxLoss[B tensor.Backend]() *SoftmaxLoss[B] {
	return nn.NewSoftmaxLoss[B]()
}

// MSELoss is the mean squared error between prediction and target.
type MSELoss[B tensor.Backend] = nn.MSELoss[B]

// NewMSELoss creates a mean squared error loss.
func NewMSELoss[B tensor.Backend]() *MSELoss[B] {
	return nn.NewMSELoss[B]()
}

// Initialization

// ReLUGain is the recommended gain for ReLU layers, sqrt(2).
const ReLUGain = nn.ReLUGain

// XavierUniform draws from U(-a, a) with a = gain*sqrt(6/(fanIn+fanOut)).
// A nil shape means (fanIn, fanOut).
func XavierUniform[B tensor.Backend](fanIn, fanOut int, shape tensor.Shape, gain float64, backend B) *tensor.Tensor[float32, B] {
	return nn.XavierUniform(fanIn, fanOut, shape, gain, backend)
}

// XavierNormal draws from N(0, std²) with std = gain*sqrt(2/(fanIn+fanOut)).
func XavierNormal[B tensor.Backend](fanIn, fanOut int, shape tensor.Shape, gain float64, backend B) *tensor.Tensor[float32, B] {
	return nn.XavierNormal(fanIn, fanOut, shape, gain, backend)
}

// KaimingUniform draws from U(-b, b) with b = gain*sqrt(3/fanIn).
// Only the "relu" nonlinearity is supported.
func KaimingUniform[B tensor.Backend](fanIn, fanOut int, shape tensor.Shape, nonlinearity string, backend B) (*tensor.Tensor[float32, B], error) {
	return nn.KaimingUniform(fanIn, fanOut, shape, nonlinearity, backend)
}

// KaimingNormal draws from N(0, std²) with std = gain/sqrt(fanIn).
func KaimingNormal[B tensor.Backend](fanIn, fanOut int, shape tensor.Shape, nonlinearity string, backend B) (*tensor.Tensor[float32, B], error) {
	return nn.KaimingNormal(fanIn, fanOut, shape, nonlinearity, backend)
}
