package nn_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"

	"github.com/born-ml/needle/internal/autodiff"
	"github.com/born-ml/needle/internal/nn"
	"github.com/born-ml/needle/internal/tensor"
)

// naiveConvNCHW is a direct channel-first convolution with "same" padding,
// weights laid out [k, k, in, out].
func naiveConvNCHW(x []float32, n, cin, h, w int, weight []float32, k, cout int, bias []float32) []float64 {
	pad := (k - 1) / 2
	out := make([]float64, n*cout*h*w)
	for b := 0; b < n; b++ {
		for o := 0; o < cout; o++ {
			for i := 0; i < h; i++ {
				for j := 0; j < w; j++ {
					var acc float64
					if bias != nil {
						acc = float64(bias[o])
					}
					for ki := 0; ki < k; ki++ {
						for kj := 0; kj < k; kj++ {
							ii, jj := i+ki-pad, j+kj-pad
							if ii < 0 || ii >= h || jj < 0 || jj >= w {
								continue
							}
							for c := 0; c < cin; c++ {
								xv := x[((b*cin+c)*h+ii)*w+jj]
								wv := weight[((ki*k+kj)*cin+c)*cout+o]
								acc += float64(xv) * float64(wv)
							}
						}
					}
					out[((b*cout+o)*h+i)*w+j] = acc
				}
			}
		}
	}
	return out
}

func TestConv_MatchesDirectConvolution(t *testing.T) {
	backend := newBackend()
	const n, cin, h, w, k, cout = 2, 3, 5, 4, 3, 2
	conv := nn.NewConv(cin, cout, k, 1, true, backend)

	x := tensor.Randn[float32](tensor.Shape{n, cin, h, w}, 0, 1, backend)
	y := conv.Forward(x)
	require.Equal(t, tensor.Shape{n, cout, h, w}, y.Shape())

	want := naiveConvNCHW(x.Data(), n, cin, h, w,
		conv.Weight().Tensor().Data(), k, cout, conv.Bias().Tensor().Data())
	assert.True(t, floats.EqualApprox(want, toF64(y.Data()), 1e-4))
}

func TestConv_KernelOneIsPerPixelLinear(t *testing.T) {
	backend := newBackend()
	const n, cin, h, w, cout = 2, 3, 4, 5, 4
	conv := nn.NewConv(cin, cout, 1, 1, true, backend)

	lin := nn.NewLinear(cin, cout, true, backend)
	copy(lin.Weight().Tensor().Data(), conv.Weight().Tensor().Data()) // [1,1,in,out] == [in,out]
	copy(lin.Bias().Tensor().Data(), conv.Bias().Tensor().Data())

	x := tensor.Randn[float32](tensor.Shape{n, cin, h, w}, 0, 1, backend)
	got := conv.Forward(x)

	pixels := x.Transpose(0, 2, 3, 1).Reshape(n*h*w, cin)
	want := lin.Forward(pixels).Reshape(n, h, w, cout).Transpose(0, 3, 1, 2)

	require.Equal(t, want.Shape(), got.Shape())
	assert.True(t, floats.EqualApprox(toF64(want.Data()), toF64(got.Data()), 1e-5))
}

func TestConv_Shapes(t *testing.T) {
	backend := newBackend()

	tests := []struct {
		name              string
		kernel, stride    int
		h, w, wantH, wantW int
	}{
		{"k3_same", 3, 1, 8, 6, 8, 6},
		{"k5_same", 5, 1, 7, 7, 7, 7},
		{"k3_stride2", 3, 2, 8, 8, 4, 4},
		{"k4_even", 4, 1, 6, 6, 5, 5},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			conv := nn.NewConv(2, 3, tc.kernel, tc.stride, false, backend)
			assert.Nil(t, conv.Bias())
			assert.Equal(t, (tc.kernel-1)/2, conv.Padding())
			assert.Equal(t, tensor.Shape{tc.kernel, tc.kernel, 2, 3}, conv.Weight().Shape())

			y := conv.Forward(tensor.Randn[float32](tensor.Shape{1, 2, tc.h, tc.w}, 0, 1, backend))
			assert.Equal(t, tensor.Shape{1, 3, tc.wantH, tc.wantW}, y.Shape())
		})
	}
}

func TestConv_ZeroBiasIsStillABias(t *testing.T) {
	backend := newBackend()
	conv := nn.NewConv(1, 2, 3, 1, true, backend)
	for i := range conv.Bias().Tensor().Data() {
		conv.Bias().Tensor().Data()[i] = 0
	}
	require.NotNil(t, conv.Bias())
	assert.Len(t, nn.Parameters[testBackend](conv), 2)
}

func TestConv_BiasGradient(t *testing.T) {
	backend := newBackend()
	const n, h, w = 2, 3, 4
	conv := nn.NewConv(2, 3, 3, 1, true, backend)
	x := tensor.Randn[float32](tensor.Shape{n, 2, h, w}, 0, 1, backend)

	backend.Tape().StartRecording()
	grads := autodiff.Backward(conv.Forward(x), backend)
	backend.Tape().StopRecording()

	require.True(t, conv.Bias().GradFrom(grads))
	require.True(t, conv.Weight().GradFrom(grads))
	assert.Equal(t, []float32{n * h * w, n * h * w, n * h * w}, conv.Bias().Grad().Data())
	assert.Equal(t, conv.Weight().Shape(), conv.Weight().Grad().Shape())
}

func TestConv_Errors(t *testing.T) {
	backend := newBackend()
	conv := nn.NewConv(3, 4, 3, 1, true, backend)

	requirePanicsIs(t, nn.ErrShapeMismatch, func() {
		conv.Forward(tensor.Zeros[float32](tensor.Shape{1, 2, 5, 5}, backend))
	})
	requirePanicsIs(t, nn.ErrShapeMismatch, func() {
		conv.Forward(tensor.Zeros[float32](tensor.Shape{3, 5, 5}, backend))
	})
	requirePanicsIs(t, nn.ErrInvalidConfig, func() { nn.NewConv(3, 4, 0, 1, true, backend) })
	requirePanicsIs(t, nn.ErrInvalidConfig, func() { nn.NewConv(3, 4, 3, 0, true, backend) })
}

func TestConvBN(t *testing.T) {
	backend := newBackend()
	block := nn.NewConvBN(3, 8, 3, 1, backend)

	y := block.Forward(tensor.Randn[float32](tensor.Shape{2, 3, 6, 6}, 0, 1, backend))
	require.Equal(t, tensor.Shape{2, 8, 6, 6}, y.Shape())
	for _, v := range y.Data() {
		assert.GreaterOrEqual(t, v, float32(0))
	}

	// conv weight and bias, then batch norm weight and bias
	params := nn.Parameters[testBackend](block)
	require.Len(t, params, 4)
	assert.Equal(t, tensor.Shape{3, 3, 3, 8}, params[0].Shape())
	assert.Equal(t, tensor.Shape{8}, params[3].Shape())
}
