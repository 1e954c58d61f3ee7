package nn

import (
	"github.com/born-ml/needle/internal/tensor"
)

// AttentionConfig configures an AttentionLayer.
//
// Zero KFeatures, VFeatures or OutFeatures fall back to QFeatures.
type AttentionConfig struct {
	QFeatures   int     // Query input features
	NumHead     int     // Number of heads
	DimHead     int     // Size of each head
	KFeatures   int     // Key input features (default: QFeatures)
	VFeatures   int     // Value input features (default: QFeatures)
	OutFeatures int     // Output features (default: QFeatures)
	Dropout     float64 // Dropout on attention probabilities
	Causal      bool    // Mask future positions
}

// withDefaults fills the feature sizes that fall back to QFeatures.
func (c AttentionConfig) withDefaults() AttentionConfig {
	if c.KFeatures == 0 {
		c.KFeatures = c.QFeatures
	}
	if c.VFeatures == 0 {
		c.VFeatures = c.QFeatures
	}
	if c.OutFeatures == 0 {
		c.OutFeatures = c.QFeatures
	}
	return c
}

// AttentionLayer is pre-norm multi-head attention with input and output
// projections.
//
// Each of q, k, v is flattened to [batch*len, features], normalized with its
// own LayerNorm1d, projected without bias to heads*dim_head and split into
// heads. The merged attention result goes through a bias-free output
// projection.
//
// Input shapes:  q [batch, queries_len, q_features], k and v [batch, keys_len, *_features]
// Output shape:  [batch, queries_len, out_features]
//
// Example:
//
//	attn := nn.NewAttentionLayer(nn.AttentionConfig{QFeatures: 64, NumHead: 4, DimHead: 16, Causal: true}, backend)
//	y := attn.Forward(x, nil, nil) // self-attention
type AttentionLayer[B tensor.Backend] struct {
	ModuleBase

	cfg AttentionConfig

	prenormQ *LayerNorm1d[B]
	prenormK *LayerNorm1d[B]
	prenormV *LayerNorm1d[B]

	qProjection   *Linear[B]
	kProjection   *Linear[B]
	vProjection   *Linear[B]
	outProjection *Linear[B]

	attn *MultiHeadAttention[B]
}

// NewAttentionLayer creates an attention layer. Panics with ErrInvalidConfig
// if QFeatures, NumHead or DimHead is not positive.
func NewAttentionLayer[B tensor.Backend](cfg AttentionConfig, backend B) *AttentionLayer[B] {
	cfg = cfg.withDefaults()
	if cfg.QFeatures <= 0 || cfg.NumHead <= 0 || cfg.DimHead <= 0 {
		panicConfig("NewAttentionLayer", "q_features=%d num_head=%d dim_head=%d must be positive",
			cfg.QFeatures, cfg.NumHead, cfg.DimHead)
	}
	inner := cfg.NumHead * cfg.DimHead

	return &AttentionLayer[B]{
		cfg:           cfg,
		prenormQ:      NewLayerNorm1d(cfg.QFeatures, DefaultEps, backend),
		prenormK:      NewLayerNorm1d(cfg.KFeatures, DefaultEps, backend),
		prenormV:      NewLayerNorm1d(cfg.VFeatures, DefaultEps, backend),
		qProjection:   NewLinear(cfg.QFeatures, inner, false, backend),
		kProjection:   NewLinear(cfg.KFeatures, inner, false, backend),
		vProjection:   NewLinear(cfg.VFeatures, inner, false, backend),
		outProjection: NewLinear(inner, cfg.OutFeatures, false, backend),
		attn:          NewMultiHeadAttention(cfg.Dropout, cfg.Causal, backend),
	}
}

// Config returns the resolved configuration.
func (a *AttentionLayer[B]) Config() AttentionConfig {
	return a.cfg
}

// Forward computes attention of q over k and v. A nil k or v defaults to q.
func (a *AttentionLayer[B]) Forward(q *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	out, _ := a.ForwardWithProbs(q, nil, nil)
	return out
}

// Attend computes attention of q over explicit keys and values.
func (a *AttentionLayer[B]) Attend(q, k, v *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	out, _ := a.ForwardWithProbs(q, k, v)
	return out
}

// ForwardWithProbs is Attend that also returns the attention probabilities
// [batch, heads, queries_len, keys_len].
func (a *AttentionLayer[B]) ForwardWithProbs(q, k, v *tensor.Tensor[float32, B]) (*tensor.Tensor[float32, B], *tensor.Tensor[float32, B]) {
	if k == nil {
		k = q
	}
	if v == nil {
		v = q
	}

	qs, ks, vs := q.Shape(), k.Shape(), v.Shape()
	if len(qs) != 3 || len(ks) != 3 || len(vs) != 3 {
		panicShape("AttentionLayer.Forward", "expected 3D q, k, v [batch, len, features], got %v, %v, %v", qs, ks, vs)
	}
	if qs[0] != ks[0] || ks[0] != vs[0] {
		panicShape("AttentionLayer.Forward", "batch sizes differ: %v, %v, %v", qs, ks, vs)
	}
	if qs[2] != a.cfg.QFeatures || ks[2] != a.cfg.KFeatures || vs[2] != a.cfg.VFeatures {
		panicShape("AttentionLayer.Forward", "expected features %d, %d, %d, got %v, %v, %v",
			a.cfg.QFeatures, a.cfg.KFeatures, a.cfg.VFeatures, qs, ks, vs)
	}

	batch, queriesLen := qs[0], qs[1]

	qh := a.project(q, a.prenormQ, a.qProjection)
	kh := a.project(k, a.prenormK, a.kProjection)
	vh := a.project(v, a.prenormV, a.vProjection)

	result, probs := a.attn.Forward(qh, kh, vh)

	inner := a.cfg.NumHead * a.cfg.DimHead
	merged := result.SwapAxes(1, 2).Reshape(batch*queriesLen, inner)
	out := a.outProjection.Forward(merged).Reshape(batch, queriesLen, a.cfg.OutFeatures)
	return out, probs
}

// project normalizes and projects x [batch, len, features] into heads
// [batch, heads, len, dim_head].
func (a *AttentionLayer[B]) project(x *tensor.Tensor[float32, B], norm *LayerNorm1d[B], proj *Linear[B]) *tensor.Tensor[float32, B] {
	s := x.Shape()
	batch, length, features := s[0], s[1], s[2]

	flat := norm.Forward(x.Reshape(batch*length, features))
	return proj.Forward(flat).
		Reshape(batch, length, a.cfg.NumHead, a.cfg.DimHead).
		SwapAxes(1, 2)
}

// Fields declares the norms, projections and the attention core.
func (a *AttentionLayer[B]) Fields() []Field[B] {
	return []Field[B]{
		ModuleField[B](a.prenormQ),
		ModuleField[B](a.prenormK),
		ModuleField[B](a.prenormV),
		ModuleField[B](a.qProjection),
		ModuleField[B](a.kProjection),
		ModuleField[B](a.vProjection),
		ModuleField[B](a.outProjection),
		ModuleField[B](a.attn),
	}
}

// Attention returns the attention core.
func (a *AttentionLayer[B]) Attention() *MultiHeadAttention[B] {
	return a.attn
}
