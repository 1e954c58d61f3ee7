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

func TestSoftmaxLoss(t *testing.T) {
	backend := newBackend()
	logits := fromSlice(t, backend, tensor.Shape{2, 3}, 1, 2, 3, 0.5, -1, 2)
	labels := []int{2, 0}

	loss := nn.NewSoftmaxLoss[testBackend]().Forward(logits, labels)
	require.Equal(t, tensor.Shape{1}, loss.Shape())

	lse := func(v ...float64) float64 { return floats.LogSumExp(v) }
	want := ((lse(1, 2, 3) - 3) + (lse(0.5, -1, 2) - 0.5)) / 2
	assert.InDelta(t, want, float64(loss.Item()), 1e-5)
}

func TestSoftmaxLoss_Gradient(t *testing.T) {
	backend := newBackend()
	logits := fromSlice(t, backend, tensor.Shape{2, 3}, 1, 2, 3, 0.5, -1, 2)

	backend.Tape().StartRecording()
	loss := nn.NewSoftmaxLoss[testBackend]().Forward(logits, []int{2, 0})
	grads := autodiff.Backward(loss, backend)
	backend.Tape().StopRecording()

	// (softmax - one_hot) / batch
	p := nn.Softmax(logits).Data()
	oneHot := []float32{0, 0, 1, 1, 0, 0}
	got := grads[logits.Raw()].AsFloat32()
	for i := range got {
		assert.InDelta(t, (p[i]-oneHot[i])/2, got[i], 1e-5)
	}
}

func TestSoftmaxLoss_LargeLogits(t *testing.T) {
	backend := newBackend()
	logits := fromSlice(t, backend, tensor.Shape{1, 2}, 1000, 0)
	loss := nn.NewSoftmaxLoss[testBackend]().Forward(logits, []int{1})
	assert.InDelta(t, 1000, float64(loss.Item()), 1e-3)
	assert.False(t, math.IsInf(float64(loss.Item()), 0))
}

func TestSoftmaxLoss_Errors(t *testing.T) {
	backend := newBackend()
	lossFn := nn.NewSoftmaxLoss[testBackend]()
	logits := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)

	requirePanicsIs(t, nn.ErrShapeMismatch, func() { lossFn.Forward(logits, []int{0}) })
	requirePanicsIs(t, nn.ErrShapeMismatch, func() { lossFn.Forward(logits, []int{0, 3}) })
	requirePanicsIs(t, nn.ErrShapeMismatch, func() {
		lossFn.Forward(tensor.Zeros[float32](tensor.Shape{6}, backend), []int{0})
	})
}

func TestMSELoss(t *testing.T) {
	backend := newBackend()
	pred := fromSlice(t, backend, tensor.Shape{2, 2}, 1, 2, 3, 4)
	target := fromSlice(t, backend, tensor.Shape{2, 2}, 1, 0, 3, 8)

	loss := nn.NewMSELoss[testBackend]().Forward(pred, target)
	assert.InDelta(t, (0+4+0+16)/4.0, float64(loss.Item()), 1e-6)

	requirePanicsIs(t, nn.ErrShapeMismatch, func() {
		nn.NewMSELoss[testBackend]().Forward(pred, tensor.Zeros[float32](tensor.Shape{4}, backend))
	})
}
