package autodiff_test

import (
	"testing"

	"github.com/born-ml/needle/internal/autodiff"
	"github.com/born-ml/needle/internal/backend/cpu"
	"github.com/born-ml/needle/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testBackend = *autodiff.AutodiffBackend[*cpu.CPUBackend]

func newBackend() testBackend {
	return autodiff.New(cpu.New(cpu.WithSeed(3)))
}

func TestAutodiffBackend_Name(t *testing.T) {
	backend := newBackend()
	assert.Equal(t, "Autodiff(CPU)", backend.Name())
	assert.Equal(t, tensor.CPU, backend.Device())
}

func TestTape_Recording(t *testing.T) {
	backend := newBackend()
	tape := backend.Tape()

	assert.False(t, tape.IsRecording(), "tape should not record initially")

	tape.StartRecording()
	assert.True(t, tape.IsRecording())

	tape.StopRecording()
	assert.False(t, tape.IsRecording())
}

func TestTape_Clear(t *testing.T) {
	backend := newBackend()
	tape := backend.Tape()
	tape.StartRecording()

	a, _ := tensor.FromSlice([]float32{1, 2}, tensor.Shape{2}, backend)
	b, _ := tensor.FromSlice([]float32{3, 4}, tensor.Shape{2}, backend)
	a.Add(b)
	require.Equal(t, 1, tape.NumOps())

	tape.Clear()
	assert.Equal(t, 0, tape.NumOps())
	assert.True(t, tape.IsRecording(), "Clear preserves the recording state")
}

func TestTape_NotRecording(t *testing.T) {
	backend := newBackend()

	a, _ := tensor.FromSlice([]float32{1, 2}, tensor.Shape{2}, backend)
	a.Mul(a).Exp()
	assert.Equal(t, 0, backend.Tape().NumOps())

	assert.Panics(t, func() { autodiff.Backward(a, backend) })
}

func TestBackward_Square(t *testing.T) {
	backend := newBackend()
	backend.Tape().StartRecording()

	x, _ := tensor.FromSlice([]float32{2, -3}, tensor.Shape{2}, backend)
	y := x.Mul(x)

	grads := autodiff.Backward(y, backend)
	assert.Equal(t, []float32{4, -6}, grads[x.Raw()].AsFloat32())
}

func TestBackward_Accumulates(t *testing.T) {
	backend := newBackend()
	backend.Tape().StartRecording()

	// y = x*3 + x*x, dy/dx = 3 + 2x
	x, _ := tensor.FromSlice([]float32{1, 2}, tensor.Shape{2}, backend)
	y := x.MulScalar(3).Add(x.Mul(x))

	grads := autodiff.Backward(y, backend)
	assert.Equal(t, []float32{5, 7}, grads[x.Raw()].AsFloat32())
}

func TestBackward_IntermediateOutput(t *testing.T) {
	backend := newBackend()
	backend.Tape().StartRecording()

	x, _ := tensor.FromSlice([]float32{1, 2}, tensor.Shape{2}, backend)
	y := x.MulScalar(2)
	_ = y.Exp() // recorded after y, must not contribute

	grads := autodiff.Backward(y, backend)
	assert.Equal(t, []float32{2, 2}, grads[x.Raw()].AsFloat32())
}

func TestDetach_StopsGradient(t *testing.T) {
	backend := newBackend()
	backend.Tape().StartRecording()

	// y = x * detach(x): gradient only flows through the first factor.
	x, _ := tensor.FromSlice([]float32{3, 5}, tensor.Shape{2}, backend)
	y := x.Mul(x.Detach())

	grads := autodiff.Backward(y, backend)
	assert.Equal(t, []float32{3, 5}, grads[x.Raw()].AsFloat32())
}

func TestDetach_SharesData(t *testing.T) {
	backend := newBackend()
	x, _ := tensor.FromSlice([]float32{3, 5}, tensor.Shape{2}, backend)
	d := x.Detach()

	assert.NotSame(t, x.Raw(), d.Raw())
	assert.Equal(t, x.Data(), d.Data())
	assert.False(t, d.RequiresGrad())
}

func TestBackward_ReshapeReachesLeaf(t *testing.T) {
	backend := newBackend()
	backend.Tape().StartRecording()

	bias, _ := tensor.FromSlice([]float32{1, 2, 3}, tensor.Shape{3}, backend)
	x := tensor.Ones[float32](tensor.Shape{4, 3}, backend)
	y := x.Add(bias.Reshape(1, 3).Expand(tensor.Shape{4, 3}))

	grads := autodiff.Backward(y, backend)
	require.Contains(t, grads, bias.Raw())
	assert.Equal(t, tensor.Shape{3}, grads[bias.Raw()].Shape())
	assert.Equal(t, []float32{4, 4, 4}, grads[bias.Raw()].AsFloat32())
}
