// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/born-ml/needle/internal/nn"
	"github.com/born-ml/needle/internal/tensor"
)

// MultiHeadAttention computes softmax(q·kᵀ/sqrt(d) + mask)·v over
// pre-split heads of shape (batch, heads, len, dim).
type MultiHeadAttention[B tensor.Backend] = nn.MultiHeadAttention[B]

// NewMultiHeadAttention creates the attention kernel. dropout applies to the
// attention probabilities; causal masks keys after each query.
func NewMultiHeadAttention[B tensor.Backend](dropout float64, causal bool, backend B) *MultiHeadAttention[B] {
	return nn.NewMultiHeadAttention(dropout, causal, backend)
}

// AttentionConfig configures an AttentionLayer. Zero KFeatures, VFeatures and
// OutFeatures default to QFeatures.
type AttentionConfig = nn.AttentionConfig

// AttentionLayer is pre-normalized multi-head attention with bias-free
// projections.
type AttentionLayer[B tensor.Backend] = nn.AttentionLayer[B]

// NewAttentionLayer creates an attention layer.
//
// Example:
//
//	attn := nn.NewAttentionLayer(nn.AttentionConfig{QFeatures: 64, NumHead: 8, DimHead: 8, Causal: true}, backend)
//	y := attn.Forward(x) // x: (batch, len, 64)
func NewAttentionLayer[B tensor.Backend](cfg AttentionConfig, backend B) *AttentionLayer[B] {
	return nn.NewAttentionLayer(cfg, backend)
}

// TransformerLayer is a pre-norm transformer block: residual self-attention
// followed by a residual two-layer ReLU MLP.
type TransformerLayer[B tensor.Backend] = nn.TransformerLayer[B]

// NewTransformerLayer creates one transformer block.
func NewTransformerLayer[B tensor.Backend](
	qFeatures, numHead, dimHead, hiddenSize int,
	dropout float64,
	causal bool,
	backend B,
) *TransformerLayer[B] {
	return nn.NewTransformerLayer(qFeatures, numHead, dimHead, hiddenSize, dropout, causal, backend)
}

// TransformerConfig configures a Transformer. It carries yaml tags so it can be
// decoded straight from a config file.
type TransformerConfig = nn.TransformerConfig

// DefaultTransformerConfig returns a causal, sequence-first configuration with
// 8 heads of size 32 and a 2048-position embedding.
func DefaultTransformerConfig(embeddingSize, hiddenSize, numLayers int) TransformerConfig {
	return nn.DefaultTransformerConfig(embeddingSize, hiddenSize, numLayers)
}

// Transformer is a stack of TransformerLayers over learned positional embeddings.
type Transformer[B tensor.Backend] = nn.Transformer[B]

// NewTransformer validates cfg and builds the model.
//
// Example:
//
//	cfg := nn.DefaultTransformerConfig(64, 256, 2)
//	cfg.BatchFirst = true
//	model, err := nn.NewTransformer(cfg, backend)
//	if err != nil {
//	    return err
//	}
//	y, _ := model.Forward(x, nil)
func NewTransformer[B tensor.Backend](cfg TransformerConfig, backend B) (*Transformer[B], error) {
	return nn.NewTransformer(cfg, backend)
}

// Functional helpers

// Softmax normalizes over the last axis after subtracting the row maximum.
func Softmax[T tensor.DType, B tensor.Backend](logits *tensor.Tensor[T, B]) *tensor.Tensor[T, B] {
	return nn.Softmax(logits)
}

// LogSumExp reduces the last axis to log(sum(exp(x))), keeping the axis.
func LogSumExp[T tensor.DType, B tensor.Backend](x *tensor.Tensor[T, B]) *tensor.Tensor[T, B] {
	return nn.LogSumExp(x)
}

// BatchedMatMul multiplies the last two axes of a by the transpose of the
// last two axes of bT, broadcasting the leading axes.
func BatchedMatMul[T tensor.DType, B tensor.Backend](a, bT *tensor.Tensor[T, B]) *tensor.Tensor[T, B] {
	return nn.BatchedMatMul(a, bT)
}

// CausalMask returns a (1, 1, i, j) additive mask that hides key c from query
// r when c > r + (j - i).
func CausalMask[T tensor.DType, B tensor.Backend](i, j int, backend B) *tensor.Tensor[T, B] {
	return nn.CausalMask[T](i, j, backend)
}
