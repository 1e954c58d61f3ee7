package nn_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"

	"github.com/born-ml/needle/internal/autodiff"
	"github.com/born-ml/needle/internal/backend/cpu"
	"github.com/born-ml/needle/internal/nn"
	"github.com/born-ml/needle/internal/tensor"
)

type testBackend = *autodiff.AutodiffBackend[*cpu.CPUBackend]

type f32 = tensor.Tensor[float32, testBackend]

func newBackend() testBackend {
	return autodiff.New(cpu.New(cpu.WithSeed(42)))
}

func fromSlice(t *testing.T, b testBackend, shape tensor.Shape, values ...float32) *f32 {
	t.Helper()
	x, err := tensor.FromSlice(values, shape, b)
	require.NoError(t, err)
	return x
}

func toF64(values []float32) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}
	return out
}

// stdDev is the population standard deviation.
func stdDev(values []float32) float64 {
	_, variance := stat.PopMeanVariance(toF64(values), nil)
	return math.Sqrt(variance)
}

// requirePanicsIs runs f and checks that it panics with an error matching target.
func requirePanicsIs(t *testing.T, target error, f func()) {
	t.Helper()
	defer func() {
		t.Helper()
		r := recover()
		require.NotNil(t, r, "expected a panic")
		err, ok := r.(error)
		require.True(t, ok, "panic value %v is not an error", r)
		assert.ErrorIs(t, err, target)
	}()
	f()
}

func TestParameter(t *testing.T) {
	backend := newBackend()

	data := fromSlice(t, backend, tensor.Shape{3}, 1, 2, 3)
	param := nn.NewParameter("test_param", data)

	assert.Equal(t, "test_param", param.Name())
	assert.Same(t, data, param.Tensor())
	assert.True(t, param.Tensor().RequiresGrad())
	assert.Equal(t, tensor.Shape{3}, param.Shape())
	assert.Nil(t, param.Grad())

	grad := fromSlice(t, backend, tensor.Shape{3}, 0.1, 0.2, 0.3)
	param.SetGrad(grad)
	assert.Same(t, grad, param.Grad())

	param.ZeroGrad()
	assert.Nil(t, param.Grad())
}

func TestParameter_GradFrom(t *testing.T) {
	backend := newBackend()
	lin := nn.NewLinear(3, 2, true, backend)
	x := fromSlice(t, backend, tensor.Shape{4, 3}, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12)

	backend.Tape().StartRecording()
	out := lin.Forward(x)
	grads := autodiff.Backward(out, backend)
	backend.Tape().StopRecording()

	require.True(t, lin.Weight().GradFrom(grads))
	require.True(t, lin.Bias().GradFrom(grads))

	// d(sum(xW + b))/dW[i][j] = sum over the batch of x[:, i].
	assert.Equal(t, []float32{22, 22, 26, 26, 30, 30}, lin.Weight().Grad().Data())
	assert.Equal(t, tensor.Shape{1, 2}, lin.Bias().Grad().Shape())
	assert.Equal(t, []float32{4, 4}, lin.Bias().Grad().Data())

	unrelated := nn.NewParameter("unused", tensor.Zeros[float32](tensor.Shape{1}, backend))
	assert.False(t, unrelated.GradFrom(grads))
	assert.Nil(t, unrelated.Grad())
}

// bag is a test module with every kind of field declaration.
type bag struct {
	nn.ModuleBase
	w      *nn.Parameter[testBackend]
	child  nn.Module[testBackend]
	list   []nn.Layer[testBackend]
	dict   map[string]nn.Field[testBackend]
	shared *nn.Parameter[testBackend]
}

func (b *bag) Fields() []nn.Field[testBackend] {
	return []nn.Field[testBackend]{
		nn.ParamField(b.w),
		nn.ModuleField(b.child),
		nn.ModuleList[testBackend](b.list),
		nn.DictField(b.dict),
		nn.ParamField(b.shared),
		nn.ParamField[testBackend](nil),
	}
}

func param(backend testBackend, name string) *nn.Parameter[testBackend] {
	return nn.NewParameter(name, tensor.Zeros[float32](tensor.Shape{1}, backend))
}

func names(params []*nn.Parameter[testBackend]) []string {
	out := make([]string, len(params))
	for i, p := range params {
		out[i] = p.Name()
	}
	return out
}

func TestParameters_OrderAndDedup(t *testing.T) {
	backend := newBackend()
	shared := param(backend, "shared")

	inner := &bag{w: param(backend, "inner.w"), shared: shared}
	root := &bag{
		w:     param(backend, "root.w"),
		child: inner,
		list:  []nn.Layer[testBackend]{nn.NewReLU[testBackend](), nn.NewLinear(2, 2, false, backend)},
		dict: map[string]nn.Field[testBackend]{
			"zeta":  nn.ParamField(param(backend, "dict.zeta")),
			"alpha": nn.ParamField(param(backend, "dict.alpha")),
			"mid":   nn.ListField(nn.ParamField(param(backend, "dict.mid.0")), nn.ParamField(shared)),
		},
		shared: shared,
	}

	got := names(nn.Parameters[testBackend](root))
	assert.Equal(t, []string{
		"root.w",
		"inner.w", "shared",
		"weight",
		"dict.alpha", "dict.mid.0", "dict.zeta",
	}, got)
}

func TestParameters_SharedModuleOnce(t *testing.T) {
	backend := newBackend()
	lin := nn.NewLinear(2, 3, true, backend)
	seq := nn.NewSequential[testBackend](lin, nn.NewReLU[testBackend](), lin)

	params := nn.Parameters[testBackend](seq)
	require.Len(t, params, 2)
	assert.Same(t, lin.Weight(), params[0])
	assert.Same(t, lin.Bias(), params[1])
	assert.Equal(t, 2*3+3, nn.NumParameters[testBackend](seq))

	mods := nn.Modules[testBackend](seq)
	assert.Len(t, mods, 3, "root, linear and relu")
}

func TestParameters_Empty(t *testing.T) {
	assert.Empty(t, nn.Parameters[testBackend](&bag{}))
	assert.Empty(t, nn.Parameters[testBackend](nn.NewReLU[testBackend]()))
}

func TestModules_PreOrder(t *testing.T) {
	backend := newBackend()
	relu := nn.NewReLU[testBackend]()
	lin := nn.NewLinear(2, 2, true, backend)
	inner := nn.NewSequential[testBackend](lin, relu)
	drop := nn.NewDropout[testBackend](0.5)
	root := nn.NewSequential[testBackend](inner, drop)

	mods := nn.Modules[testBackend](root)
	require.Len(t, mods, 5)
	assert.Same(t, root, mods[0])
	assert.Same(t, inner, mods[1])
	assert.Same(t, lin, mods[2])
	assert.Same(t, relu, mods[3])
	assert.Same(t, drop, mods[4])
}

func TestTrainEval_Propagates(t *testing.T) {
	backend := newBackend()
	drop := nn.NewDropout[testBackend](0.5)
	bn := nn.NewBatchNorm1d(4, nn.DefaultEps, nn.DefaultMomentum, backend)
	root := &bag{
		child: nn.NewSequential[testBackend](nn.NewLinear(4, 4, true, backend), drop),
		dict:  map[string]nn.Field[testBackend]{"bn": nn.ModuleField[testBackend](bn)},
	}

	for _, m := range nn.Modules[testBackend](root) {
		assert.True(t, m.Training(), "modules start in training mode")
	}

	nn.Eval[testBackend](root)
	for _, m := range nn.Modules[testBackend](root) {
		assert.False(t, m.Training())
	}
	assert.False(t, drop.Training())
	assert.False(t, bn.Training())

	nn.Train[testBackend](root)
	for _, m := range nn.Modules[testBackend](root) {
		assert.True(t, m.Training())
	}
}

func TestZeroGrad(t *testing.T) {
	backend := newBackend()
	lin := nn.NewLinear(2, 2, true, backend)
	lin.Weight().SetGrad(tensor.Ones[float32](tensor.Shape{2, 2}, backend))
	lin.Bias().SetGrad(tensor.Ones[float32](tensor.Shape{1, 2}, backend))

	nn.ZeroGrad[testBackend](lin)
	assert.Nil(t, lin.Weight().Grad())
	assert.Nil(t, lin.Bias().Grad())
}
