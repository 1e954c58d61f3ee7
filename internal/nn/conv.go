package nn

import (
	"math"

	"github.com/born-ml/needle/internal/tensor"
)

// Conv is a 2D convolution over channel-first input with a square kernel.
//
// The layer moves channels last, runs the backend's NHWC convolution with
// padding (kernel-1)/2, adds the bias and moves channels back to second
// position.
//
// Input shape:  [batch, in_channels, height, width]
// Weight shape: [kernel, kernel, in_channels, out_channels]
// Bias shape:   [out_channels]
// Output shape: [batch, out_channels, out_h, out_w]
//
// With stride 1 and an odd kernel the spatial size is preserved. Other
// strides follow the usual (size + 2*padding - kernel)/stride + 1 rule.
//
// Example:
//
//	conv := nn.NewConv(3, 16, 3, 1, true, backend)
//	input := tensor.Randn[float32](tensor.Shape{8, 3, 32, 32}, 0, 1, backend)
//	output := conv.Forward(input) // [8, 16, 32, 32]
type Conv[B tensor.Backend] struct {
	ModuleBase

	inChannels  int
	outChannels int
	kernelSize  int
	stride      int
	padding     int

	weight *Parameter[B] // [kernel, kernel, in_channels, out_channels]
	bias   *Parameter[B] // [out_channels] or nil
}

// NewConv creates a new convolution layer.
//
// Parameters:
//   - inChannels: Number of input channels
//   - outChannels: Number of output channels (number of filters)
//   - kernelSize: Side of the square kernel
//   - stride: Stride for convolution
//   - bias: Whether to include a bias term
//   - backend: Backend for computation
//
// Initialization:
//   - Weights: Kaiming uniform with fan_in = in_channels*kernel²
//   - Bias: uniform in ±1/sqrt(in_channels*kernel²)
func NewConv[B tensor.Backend](inChannels, outChannels, kernelSize, stride int, bias bool, backend B) *Conv[B] {
	if inChannels <= 0 || outChannels <= 0 || kernelSize <= 0 || stride <= 0 {
		panicConfig("NewConv", "in=%d out=%d kernel=%d stride=%d must all be positive",
			inChannels, outChannels, kernelSize, stride)
	}

	area := kernelSize * kernelSize
	weightShape := tensor.Shape{kernelSize, kernelSize, inChannels, outChannels}
	c := &Conv[B]{
		inChannels:  inChannels,
		outChannels: outChannels,
		kernelSize:  kernelSize,
		stride:      stride,
		padding:     (kernelSize - 1) / 2,
		weight:      NewParameter("weight", mustKaimingUniform(inChannels*area, outChannels*area, weightShape, backend)),
	}
	if bias {
		bound := 1.0 / math.Sqrt(float64(inChannels*area))
		c.bias = NewParameter("bias", tensor.Rand[float32](tensor.Shape{outChannels}, -bound, bound, backend))
	}
	return c
}

// Forward convolves x of shape [N, C_in, H, W].
func (c *Conv[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := x.Shape()
	if len(shape) != 4 {
		panicShape("Conv.Forward", "expected 4D input [N, C, H, W], got shape %v", shape)
	}
	if shape[1] != c.inChannels {
		panicShape("Conv.Forward", "expected %d input channels, got %d", c.inChannels, shape[1])
	}

	nhwc := x.SwapAxes(1, 2).SwapAxes(2, 3)
	out := nhwc.Conv2D(c.weight.Tensor(), c.stride, c.padding)

	if c.bias != nil {
		b := c.bias.Tensor().Reshape(1, 1, 1, c.outChannels).Expand(out.Shape())
		out = out.Add(b)
	}

	return out.SwapAxes(2, 3).SwapAxes(1, 2)
}

// Fields declares the weight and the optional bias.
func (c *Conv[B]) Fields() []Field[B] {
	return []Field[B]{ParamField(c.weight), ParamField(c.bias)}
}

// Weight returns the kernel parameter.
func (c *Conv[B]) Weight() *Parameter[B] {
	return c.weight
}

// Bias returns the bias parameter, or nil if the layer has none.
func (c *Conv[B]) Bias() *Parameter[B] {
	return c.bias
}

// Padding returns the zero padding applied on each spatial side.
func (c *Conv[B]) Padding() int {
	return c.padding
}

// ConvBN is a convolution followed by BatchNorm2d and ReLU.
type ConvBN[B tensor.Backend] struct {
	*Sequential[B]
}

// NewConvBN creates a Conv → BatchNorm2d → ReLU block.
func NewConvBN[B tensor.Backend](inChannels, outChannels, kernelSize, stride int, backend B) *ConvBN[B] {
	return &ConvBN[B]{NewSequential[B](
		NewConv(inChannels, outChannels, kernelSize, stride, true, backend),
		NewBatchNorm2d(outChannels, DefaultEps, DefaultMomentum, backend),
		NewReLU[B](),
	)}
}
