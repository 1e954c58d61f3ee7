package nn_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"

	"github.com/born-ml/needle/internal/autodiff"
	"github.com/born-ml/needle/internal/nn"
	"github.com/born-ml/needle/internal/tensor"
)

func TestBatchedMatMul(t *testing.T) {
	backend := newBackend()
	const batch, heads, m, n, k = 2, 3, 4, 6, 5

	a := tensor.Randn[float64](tensor.Shape{batch, heads, m, k}, 0, 1, backend)
	bT := tensor.Randn[float64](tensor.Shape{batch, heads, n, k}, 0, 1, backend)
	got := nn.BatchedMatMul(a, bT)
	require.Equal(t, tensor.Shape{batch, heads, m, n}, got.Shape())

	for bh := 0; bh < batch*heads; bh++ {
		for i := 0; i < m; i++ {
			for j := 0; j < n; j++ {
				var want float64
				for p := 0; p < k; p++ {
					want += a.Data()[(bh*m+i)*k+p] * bT.Data()[(bh*n+j)*k+p]
				}
				assert.InDelta(t, want, got.Data()[(bh*m+i)*n+j], 1e-12)
			}
		}
	}
}

func TestBatchedMatMul_BroadcastsLeadingDims(t *testing.T) {
	backend := newBackend()
	a := tensor.Randn[float32](tensor.Shape{2, 1, 4, 5}, 0, 1, backend)
	bT := tensor.Randn[float32](tensor.Shape{1, 3, 6, 5}, 0, 1, backend)
	assert.Equal(t, tensor.Shape{2, 3, 4, 6}, nn.BatchedMatMul(a, bT).Shape())

	requirePanicsIs(t, nn.ErrShapeMismatch, func() {
		nn.BatchedMatMul(a, tensor.Randn[float32](tensor.Shape{1, 3, 6, 4}, 0, 1, backend))
	})
}

func TestSoftmax_RowsSumToOne(t *testing.T) {
	backend := newBackend()
	x := tensor.Randn[float32](tensor.Shape{2, 3, 7}, 0, 5, backend)
	p := nn.Softmax(x).Data()
	for row := 0; row < 6; row++ {
		assert.InDelta(t, 1, floats.Sum(toF64(p[row*7:(row+1)*7])), 1e-5)
	}
}

func TestSoftmax_ShiftInvariance(t *testing.T) {
	backend := newBackend()

	// Multiples of 1/8 stay exact after adding 1e4 in float32.
	logits := fromSlice(t, backend, tensor.Shape{2, 4}, -3.5, 0.125, 2, 4, 1, 1, -0.25, 0.5)
	base := nn.Softmax(logits).Data()

	for _, c := range []float64{1e4, -1e4} {
		shifted := nn.Softmax(logits.AddScalar(c)).Data()
		assert.Equal(t, base, shifted, "shift %v", c)
	}

	huge := nn.Softmax(logits.MulScalar(1e30)).Data()
	for _, v := range huge {
		assert.False(t, math.IsNaN(float64(v)) || math.IsInf(float64(v), 0))
	}

	x := tensor.Randn[float64](tensor.Shape{3, 5}, 0, 2, backend)
	assert.True(t, floats.EqualApprox(nn.Softmax(x).Data(), nn.Softmax(x.AddScalar(1e4)).Data(), 1e-9))
}

func TestSoftmax_Gradient(t *testing.T) {
	backend := newBackend()
	x := tensor.Randn[float64](tensor.Shape{1, 4}, 0, 1, backend)
	weights, err := tensor.FromSlice([]float64{1, -2, 0.5, 3}, tensor.Shape{1, 4}, backend)
	require.NoError(t, err)

	backend.Tape().StartRecording()
	p := nn.Softmax(x)
	grads := autodiff.Backward(p.Mul(weights), backend)
	backend.Tape().StopRecording()

	// d/dx_i sum_j w_j p_j = p_i (w_i - sum_j w_j p_j)
	pd, wd := p.Data(), weights.Data()
	dot := floats.Dot(pd, wd)
	want := make([]float64, 4)
	for i := range want {
		want[i] = pd[i] * (wd[i] - dot)
	}
	require.Contains(t, grads, x.Raw())
	assert.True(t, floats.EqualApprox(want, grads[x.Raw()].AsFloat64(), 1e-9))
}

func TestCausalMask(t *testing.T) {
	backend := newBackend()
	lowest := -math.MaxFloat32

	m := nn.CausalMask[float32](3, 3, backend)
	require.Equal(t, tensor.Shape{1, 1, 3, 3}, m.Shape())
	assert.Equal(t, []float32{
		0, float32(lowest), float32(lowest),
		0, 0, float32(lowest),
		0, 0, 0,
	}, m.Data())

	// Fewer queries than keys: the last query sees every key.
	wide := nn.CausalMask[float32](2, 4, backend)
	assert.Equal(t, []float32{0, 0, 0, float32(lowest), 0, 0, 0, 0}, wide.Data())

	m64 := nn.CausalMask[float64](2, 2, backend)
	assert.Equal(t, []float64{0, -math.MaxFloat64, 0, 0}, m64.Data())
}

func TestMultiHeadAttention_CausalZeros(t *testing.T) {
	backend := newBackend()
	mha := nn.NewMultiHeadAttention(0, true, backend)
	const b, h, l, d = 2, 2, 5, 4

	q := tensor.Randn[float32](tensor.Shape{b, h, l, d}, 0, 3, backend)
	k := tensor.Randn[float32](tensor.Shape{b, h, l, d}, 0, 3, backend)
	v := tensor.Randn[float32](tensor.Shape{b, h, l, d}, 0, 1, backend)

	out, probs := mha.Forward(q, k, v)
	require.Equal(t, tensor.Shape{b, h, l, d}, out.Shape())
	require.Equal(t, tensor.Shape{b, h, l, l}, probs.Shape())

	p := probs.Data()
	for bh := 0; bh < b*h; bh++ {
		for i := 0; i < l; i++ {
			row := p[(bh*l+i)*l : (bh*l+i+1)*l]
			for j := i + 1; j < l; j++ {
				assert.Zero(t, row[j], "prob[%d][%d][%d] must be exactly zero", bh, i, j)
			}
			assert.InDelta(t, 1, floats.Sum(toF64(row)), 1e-5)
		}
	}
}

func TestMultiHeadAttention_UniformQueries(t *testing.T) {
	backend := newBackend()
	const l, d = 4, 2

	// Zero queries give uniform weights over the visible keys, so each output
	// row is the mean of the visible values.
	q := tensor.Zeros[float32](tensor.Shape{1, 1, l, d}, backend)
	k := tensor.Randn[float32](tensor.Shape{1, 1, l, d}, 0, 1, backend)
	v := fromSlice(t, backend, tensor.Shape{1, 1, l, d}, 1, 2, 3, 4, 5, 6, 7, 8)

	out, _ := nn.NewMultiHeadAttention(0, false, backend).Forward(q, k, v)
	for i := 0; i < l; i++ {
		assert.InDelta(t, 4.0, out.Data()[i*d], 1e-5)
		assert.InDelta(t, 5.0, out.Data()[i*d+1], 1e-5)
	}

	causal, _ := nn.NewMultiHeadAttention(0, true, backend).Forward(q, k, v)
	want := []float64{1, 2, 2, 3, 3, 4, 4, 5}
	assert.True(t, floats.EqualApprox(want, toF64(causal.Data()), 1e-5), "got %v", causal.Data())
}

func TestMultiHeadAttention_Errors(t *testing.T) {
	backend := newBackend()
	mha := nn.NewMultiHeadAttention(0, false, backend)
	x := tensor.Zeros[float32](tensor.Shape{1, 2, 3, 4}, backend)

	requirePanicsIs(t, nn.ErrShapeMismatch, func() {
		mha.Forward(x, tensor.Zeros[float32](tensor.Shape{1, 2, 3, 5}, backend), x)
	})
	requirePanicsIs(t, nn.ErrShapeMismatch, func() {
		mha.Forward(x, x, tensor.Zeros[float32](tensor.Shape{1, 2, 4, 4}, backend))
	})
	requirePanicsIs(t, nn.ErrShapeMismatch, func() {
		mha.Forward(tensor.Zeros[float32](tensor.Shape{2, 3, 4}, backend), x, x)
	})
	requirePanicsIs(t, nn.ErrShapeMismatch, func() {
		mha.Forward(x, tensor.Zeros[float32](tensor.Shape{1, 3, 3, 4}, backend), x)
	})
}

func TestAttentionLayer_SelfAttention(t *testing.T) {
	backend := newBackend()
	attn := nn.NewAttentionLayer(nn.AttentionConfig{
		QFeatures: 6, NumHead: 2, DimHead: 3, Causal: true,
	}, backend)

	cfg := attn.Config()
	assert.Equal(t, 6, cfg.KFeatures)
	assert.Equal(t, 6, cfg.VFeatures)
	assert.Equal(t, 6, cfg.OutFeatures)

	x := tensor.Randn[float32](tensor.Shape{2, 3, 6}, 0, 1, backend)
	out, probs := attn.ForwardWithProbs(x, nil, nil)
	require.Equal(t, tensor.Shape{2, 3, 6}, out.Shape())
	require.Equal(t, tensor.Shape{2, 2, 3, 3}, probs.Shape())

	// nil k and v mean self-attention.
	assert.Equal(t, out.Data(), attn.Forward(x).Data())
	assert.Equal(t, out.Data(), attn.Attend(x, x, x).Data())

	p := probs.Data()
	for row := 0; row < 2*2*3; row++ {
		i := row % 3
		for j := i + 1; j < 3; j++ {
			assert.Zero(t, p[row*3+j])
		}
	}
}

func TestAttentionLayer_CrossAttention(t *testing.T) {
	backend := newBackend()
	attn := nn.NewAttentionLayer(nn.AttentionConfig{
		QFeatures: 6, KFeatures: 4, VFeatures: 5, OutFeatures: 7, NumHead: 2, DimHead: 3,
	}, backend)

	q := tensor.Randn[float32](tensor.Shape{2, 3, 6}, 0, 1, backend)
	k := tensor.Randn[float32](tensor.Shape{2, 4, 4}, 0, 1, backend)
	v := tensor.Randn[float32](tensor.Shape{2, 4, 5}, 0, 1, backend)

	out, probs := attn.ForwardWithProbs(q, k, v)
	assert.Equal(t, tensor.Shape{2, 3, 7}, out.Shape())
	assert.Equal(t, tensor.Shape{2, 2, 3, 4}, probs.Shape())

	// Three norms with weight and bias, four bias-free projections.
	params := nn.Parameters[testBackend](attn)
	assert.Len(t, params, 10)
	assert.Equal(t, (6+6)+(4+4)+(5+5)+6*6+4*6+5*6+6*7, nn.NumParameters[testBackend](attn))

	requirePanicsIs(t, nn.ErrShapeMismatch, func() {
		attn.Attend(q, q, v)
	})
	requirePanicsIs(t, nn.ErrInvalidConfig, func() {
		nn.NewAttentionLayer(nn.AttentionConfig{QFeatures: 6, NumHead: 0, DimHead: 3}, backend)
	})
}

func TestAttentionLayer_BackwardReachesProjections(t *testing.T) {
	backend := newBackend()
	attn := nn.NewAttentionLayer(nn.AttentionConfig{QFeatures: 4, NumHead: 2, DimHead: 2, Causal: true}, backend)
	x := tensor.Randn[float32](tensor.Shape{1, 3, 4}, 0, 1, backend)

	backend.Tape().StartRecording()
	out := attn.Forward(x)
	grads := autodiff.Backward(out.Mul(out), backend)
	backend.Tape().StopRecording()

	for _, p := range nn.Parameters[testBackend](attn) {
		assert.True(t, p.GradFrom(grads), "parameter %s %v has no gradient", p.Name(), p.Shape())
	}
}
