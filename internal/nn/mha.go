package nn

import (
	"math"

	"github.com/born-ml/needle/internal/tensor"
)

// MultiHeadAttention is the scaled dot-product attention core.
//
// Inputs are already split into heads:
//
//	q: [batch, heads, queries_len, dim]
//	k: [batch, heads, keys_len, dim]
//	v: [batch, heads, keys_len, dim]
//
// The module has no projections of its own (see AttentionLayer). It owns a
// Dropout applied to the attention probabilities.
//
// Example:
//
//	mha := nn.NewMultiHeadAttention(0.1, true, backend)
//	out, probs := mha.Forward(q, k, v) // out: [B, H, Lq, D], probs: [B, H, Lq, Lk]
type MultiHeadAttention[B tensor.Backend] struct {
	ModuleBase

	causal  bool
	dropout *Dropout[B]
}

// NewMultiHeadAttention creates the attention core with the given dropout
// probability on the attention weights.
func NewMultiHeadAttention[B tensor.Backend](dropout float64, causal bool, _ B) *MultiHeadAttention[B] {
	return &MultiHeadAttention[B]{
		causal:  causal,
		dropout: NewDropout[B](dropout),
	}
}

// Causal reports whether future positions are masked.
func (m *MultiHeadAttention[B]) Causal() bool {
	return m.causal
}

// Forward computes softmax(q·kᵀ/sqrt(dim) + mask)·v.
//
// Returns the attended values [batch, heads, queries_len, dim] and the
// attention probabilities after dropout [batch, heads, queries_len, keys_len].
func (m *MultiHeadAttention[B]) Forward(q, k, v *tensor.Tensor[float32, B]) (*tensor.Tensor[float32, B], *tensor.Tensor[float32, B]) {
	qs, ks, vs := q.Shape(), k.Shape(), v.Shape()
	if len(qs) != 4 || len(ks) != 4 || len(vs) != 4 {
		panicShape("MultiHeadAttention.Forward", "expected 4D q, k, v [batch, heads, len, dim], got %v, %v, %v", qs, ks, vs)
	}
	if qs[0] != ks[0] || ks[0] != vs[0] || qs[1] != ks[1] || ks[1] != vs[1] {
		panicShape("MultiHeadAttention.Forward", "batch and heads must match, got %v, %v, %v", qs, ks, vs)
	}
	if qs[3] != ks[3] || ks[3] != vs[3] {
		panicShape("MultiHeadAttention.Forward", "q, k, v dims must be equal, got %d, %d, %d", qs[3], ks[3], vs[3])
	}
	if ks[2] != vs[2] {
		panicShape("MultiHeadAttention.Forward", "keys_len %d != values_len %d", ks[2], vs[2])
	}

	queriesLen, keysLen, dim := qs[2], ks[2], qs[3]

	logits := BatchedMatMul(q, k).DivScalar(math.Sqrt(float64(dim)))

	if m.causal {
		mask := CausalMask[float32](queriesLen, keysLen, q.Backend())
		logits = logits.Add(mask.Expand(logits.Shape()))
	}

	probs := m.dropout.Forward(Softmax(logits))
	result := BatchedMatMul(probs, v.Transpose())
	return result, probs
}

// Fields declares the attention dropout.
func (m *MultiHeadAttention[B]) Fields() []Field[B] {
	return []Field[B]{ModuleField[B](m.dropout)}
}

// BatchedMatMul multiplies the trailing matrices of a [..., m, k] and
// bT [..., n, k], returning [..., m, n]. The second operand is given
// transposed. Leading dimensions broadcast.
//
// The product is formed by broadcasting a to [..., m, 1, k] and bT to
// [..., 1, n, k], multiplying and summing over the last axis.
func BatchedMatMul[T tensor.DType, B tensor.Backend](a, bT *tensor.Tensor[T, B]) *tensor.Tensor[T, B] {
	as, bs := a.Shape(), bT.Shape()
	if len(as) < 2 || len(bs) < 2 {
		panicShape("BatchedMatMul", "operands must be at least 2D, got %v and %v", as, bs)
	}
	mRows, kA := as[len(as)-2], as[len(as)-1]
	nRows, kB := bs[len(bs)-2], bs[len(bs)-1]
	if kA != kB {
		panicShape("BatchedMatMul", "contraction dims differ: %v and %v", as, bs)
	}

	lead, _, err := tensor.BroadcastShapes(as[:len(as)-2], bs[:len(bs)-2])
	if err != nil {
		panicShape("BatchedMatMul", "leading dims %v and %v do not broadcast", as, bs)
	}

	aShape := append(as[:len(as)-2:len(as)-2], mRows, 1, kA)
	bShape := append(bs[:len(bs)-2:len(bs)-2], 1, nRows, kB)
	full := append(lead.Clone(), mRows, nRows, kA)

	left := a.Reshape(aShape...).Expand(full)
	right := bT.Reshape(bShape...).Expand(full)
	return left.Mul(right).SumDim(-1, false)
}

// Softmax normalizes over the last axis. The per-row maximum is subtracted
// first; it is taken from a detached copy so it carries no gradient.
func Softmax[T tensor.DType, B tensor.Backend](logits *tensor.Tensor[T, B]) *tensor.Tensor[T, B] {
	shape := logits.Shape()
	maxVal := logits.Detach().MaxDim(-1, true).Expand(shape)
	e := logits.Sub(maxVal).Exp()
	return e.Div(e.SumDim(-1, true).Expand(shape))
}

// CausalMask returns a [1, 1, i, j] additive mask that is 0 where query r may
// attend key c and the lowest finite value of T where c > r + (j - i).
func CausalMask[T tensor.DType, B tensor.Backend](i, j int, backend B) *tensor.Tensor[T, B] {
	mask := tensor.Zeros[T](tensor.Shape{1, 1, i, j}, backend)
	lowest := T(mask.DType().Lowest())
	data := mask.Data()
	offset := j - i
	for r := range i {
		for c := max(r+offset+1, 0); c < j; c++ {
			data[r*j+c] = lowest
		}
	}
	return mask
}
