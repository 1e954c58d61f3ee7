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

func TestLinear_Shape(t *testing.T) {
	backend := newBackend()

	tests := []struct {
		batch, in, out int
		bias           bool
	}{
		{1, 1, 1, true},
		{4, 3, 5, true},
		{7, 16, 2, false},
	}
	for _, tc := range tests {
		lin := nn.NewLinear(tc.in, tc.out, tc.bias, backend)
		x := tensor.Randn[float32](tensor.Shape{tc.batch, tc.in}, 0, 1, backend)
		y := lin.Forward(x)
		assert.Equal(t, tensor.Shape{tc.batch, tc.out}, y.Shape())

		assert.Equal(t, tensor.Shape{tc.in, tc.out}, lin.Weight().Shape())
		if tc.bias {
			require.NotNil(t, lin.Bias())
			assert.Equal(t, tensor.Shape{1, tc.out}, lin.Bias().Shape())
		} else {
			assert.Nil(t, lin.Bias())
		}
	}
}

func TestLinear_ZeroBiasMatchesNoBias(t *testing.T) {
	backend := newBackend()
	withBias := nn.NewLinear(3, 2, true, backend)
	noBias := nn.NewLinear(3, 2, false, backend)
	copy(noBias.Weight().Tensor().Data(), withBias.Weight().Tensor().Data())

	x := fromSlice(t, backend, tensor.Shape{2, 3}, 1, -2, 3, 0.5, 0, -1)

	for i := range withBias.Bias().Tensor().Data() {
		withBias.Bias().Tensor().Data()[i] = 0
	}
	assert.Equal(t, noBias.Forward(x).Data(), withBias.Forward(x).Data())

	withBias.Bias().Tensor().Data()[1] = 10
	got := withBias.Forward(x).Data()
	want := noBias.Forward(x).Data()
	assert.Equal(t, want[0], got[0])
	assert.InDelta(t, want[1]+10, got[1], 1e-5)
	assert.Equal(t, want[2], got[2])
	assert.InDelta(t, want[3]+10, got[3], 1e-5)
}

func TestLinear_KnownValues(t *testing.T) {
	backend := newBackend()
	lin := nn.NewLinear(2, 2, true, backend)
	copy(lin.Weight().Tensor().Data(), []float32{1, 2, 3, 4})
	copy(lin.Bias().Tensor().Data(), []float32{0.5, -0.5})

	x := fromSlice(t, backend, tensor.Shape{1, 2}, 1, 1)
	assert.Equal(t, []float32{4.5, 5.5}, lin.Forward(x).Data())
}

func TestLinear_InitBounds(t *testing.T) {
	backend := newBackend()
	lin := nn.NewLinear(50, 40, true, backend)

	bound := math.Sqrt2*math.Sqrt(3.0/50) + 1e-6
	for _, w := range lin.Weight().Tensor().Data() {
		assert.LessOrEqual(t, math.Abs(float64(w)), bound)
	}
	biasBound := math.Sqrt2*math.Sqrt(3.0/40) + 1e-6
	for _, b := range lin.Bias().Tensor().Data() {
		assert.LessOrEqual(t, math.Abs(float64(b)), biasBound)
	}
}

func TestLinear_ShapeMismatch(t *testing.T) {
	backend := newBackend()
	lin := nn.NewLinear(3, 2, true, backend)

	requirePanicsIs(t, nn.ErrShapeMismatch, func() {
		lin.Forward(tensor.Zeros[float32](tensor.Shape{2, 4}, backend))
	})
	requirePanicsIs(t, nn.ErrShapeMismatch, func() {
		lin.Forward(tensor.Zeros[float32](tensor.Shape{2, 3, 1}, backend))
	})
	requirePanicsIs(t, nn.ErrInvalidConfig, func() {
		nn.NewLinear(0, 2, true, backend)
	})
}

func TestDropout_Training(t *testing.T) {
	backend := newBackend()
	drop := nn.NewDropout[testBackend](0.5)
	x := tensor.Ones[float32](tensor.Shape{100, 100}, backend)

	y := drop.Forward(x).Data()
	zeros := 0
	for _, v := range y {
		if v == 0 {
			zeros++
			continue
		}
		assert.InDelta(t, 2.0, v, 1e-6, "survivors are scaled by 1/(1-p)")
	}
	frac := float64(zeros) / float64(len(y))
	assert.InDelta(t, 0.5, frac, 0.05)

	// A fresh mask per call.
	assert.NotEqual(t, y, drop.Forward(x).Data())
}

func TestDropout_EvalIsIdentity(t *testing.T) {
	backend := newBackend()
	drop := nn.NewDropout[testBackend](0.9)
	nn.Eval[testBackend](drop)

	x := tensor.Randn[float32](tensor.Shape{4, 5}, 0, 1, backend)
	assert.Same(t, x, drop.Forward(x))
}

func TestDropout_ZeroProbability(t *testing.T) {
	backend := newBackend()
	drop := nn.NewDropout[testBackend](0)
	x := tensor.Randn[float32](tensor.Shape{3, 3}, 0, 1, backend)
	assert.Equal(t, x.Data(), drop.Forward(x).Data())
}

func TestDropout_InvalidProbability(t *testing.T) {
	for _, p := range []float64{-0.1, 1, 1.5} {
		requirePanicsIs(t, nn.ErrInvalidConfig, func() { nn.NewDropout[testBackend](p) })
	}
}

func TestActivations(t *testing.T) {
	backend := newBackend()
	x := fromSlice(t, backend, tensor.Shape{4}, -2, -0.5, 0, 3)

	assert.Equal(t, []float32{0, 0, 0, 3}, nn.NewReLU[testBackend]().Forward(x).Data())
	assert.Same(t, x, nn.NewIdentity[testBackend]().Forward(x))

	got := nn.NewTanh[testBackend]().Forward(x).Data()
	for i, v := range []float64{-2, -0.5, 0, 3} {
		assert.InDelta(t, math.Tanh(v), got[i], 1e-6)
	}
}

func TestFlatten(t *testing.T) {
	backend := newBackend()
	x := tensor.Randn[float32](tensor.Shape{2, 3, 4, 5}, 0, 1, backend)
	y := nn.NewFlatten[testBackend]().Forward(x)
	assert.Equal(t, tensor.Shape{2, 60}, y.Shape())
	assert.Equal(t, x.Data(), y.Data())

	v := tensor.Randn[float32](tensor.Shape{6}, 0, 1, backend)
	assert.Equal(t, tensor.Shape{6, 1}, nn.NewFlatten[testBackend]().Forward(v).Shape())
}

func TestResidual(t *testing.T) {
	backend := newBackend()
	lin := nn.NewLinear(2, 2, false, backend)
	copy(lin.Weight().Tensor().Data(), []float32{2, 0, 0, 3})
	res := nn.NewResidual[testBackend](lin)

	x := fromSlice(t, backend, tensor.Shape{1, 2}, 1, 1)
	assert.Equal(t, []float32{3, 4}, res.Forward(x).Data())
	assert.Len(t, nn.Parameters[testBackend](res), 1)

	grow := nn.NewResidual[testBackend](nn.NewLinear(2, 3, false, backend))
	requirePanicsIs(t, nn.ErrShapeMismatch, func() { grow.Forward(x) })
}

func TestSequential(t *testing.T) {
	backend := newBackend()
	l1 := nn.NewLinear(2, 2, false, backend)
	copy(l1.Weight().Tensor().Data(), []float32{1, 0, 0, -1})
	seq := nn.NewSequential[testBackend](l1, nn.NewReLU[testBackend]())

	x := fromSlice(t, backend, tensor.Shape{1, 2}, 3, 5)
	assert.Equal(t, []float32{3, 0}, seq.Forward(x).Data())
	assert.Equal(t, 2, seq.Len())
	assert.Same(t, l1, seq.Layer(0))

	empty := nn.NewSequential[testBackend]()
	assert.Same(t, x, empty.Forward(x))
}

func TestEmbedding(t *testing.T) {
	backend := newBackend()
	emb := nn.NewEmbedding(5, 3, backend)
	w := emb.Weight().Tensor().Data()

	ids := fromSlice(t, backend, tensor.Shape{2, 2}, 4, 0, 2, 4)
	out := emb.Forward(ids)
	require.Equal(t, tensor.Shape{2, 2, 3}, out.Shape())

	data := out.Data()
	for i, id := range []int{4, 0, 2, 4} {
		assert.Equal(t, w[id*3:id*3+3], data[i*3:i*3+3])
	}

	requirePanicsIs(t, nn.ErrShapeMismatch, func() {
		emb.Forward(fromSlice(t, backend, tensor.Shape{1}, 5))
	})
	requirePanicsIs(t, nn.ErrShapeMismatch, func() {
		emb.Forward(fromSlice(t, backend, tensor.Shape{1}, 1.5))
	})
}

func TestEmbedding_GradientHitsSelectedRows(t *testing.T) {
	backend := newBackend()
	emb := nn.NewEmbedding(4, 2, backend)

	backend.Tape().StartRecording()
	out := emb.Forward(fromSlice(t, backend, tensor.Shape{3}, 1, 3, 1))
	grads := autodiff.Backward(out, backend)
	backend.Tape().StopRecording()

	require.True(t, emb.Weight().GradFrom(grads))
	assert.Equal(t, []float32{0, 0, 2, 2, 0, 0, 1, 1}, emb.Weight().Grad().Data())
}

func TestInitializers(t *testing.T) {
	backend := newBackend()

	w, err := nn.KaimingUniform(30, 10, nil, "relu", backend)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{30, 10}, w.Shape())
	bound := math.Sqrt2*math.Sqrt(3.0/30) + 1e-6
	assert.LessOrEqual(t, floats.Max(toF64(w.Data())), bound)
	assert.GreaterOrEqual(t, floats.Min(toF64(w.Data())), -bound)

	_, err = nn.KaimingUniform(30, 10, nil, "tanh", backend)
	assert.ErrorIs(t, err, nn.ErrUnsupported)
	_, err = nn.KaimingNormal(30, 10, nil, "gelu", backend)
	assert.ErrorIs(t, err, nn.ErrUnsupported)

	kn, err := nn.KaimingNormal(400, 100, tensor.Shape{40000}, "relu", backend)
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt2/20, stdDev(kn.Data()), 0.005)

	xu := nn.XavierUniform(20, 30, tensor.Shape{2, 10, 30}, 2, backend)
	assert.Equal(t, tensor.Shape{2, 10, 30}, xu.Shape())
	a := 2*math.Sqrt(6.0/50) + 1e-6
	assert.LessOrEqual(t, floats.Max(toF64(xu.Data())), a)

	xn := nn.XavierNormal(100, 100, tensor.Shape{50000}, 1, backend)
	assert.InDelta(t, 0.1, stdDev(xn.Data()), 0.005)
}
