package nn

import (
	"github.com/born-ml/needle/internal/tensor"
)

// Default normalization hyperparameters.
const (
	DefaultEps      = 1e-5
	DefaultMomentum = 0.1
)

// BatchNorm1d normalizes each feature over the batch axis.
//
// Training mode normalizes with the current batch mean and biased variance
// and then blends them into the running statistics:
//
//	running = running*(1-momentum) + batch_stat*momentum
//
// Evaluation mode normalizes with the running statistics only. The output
// is always scaled by weight and shifted by bias, per feature.
//
// Input shape: [batch, dim]
type BatchNorm1d[B tensor.Backend] struct {
	ModuleBase

	dim      int
	eps      float64
	momentum float64

	weight *Parameter[B] // [dim], ones
	bias   *Parameter[B] // [dim], zeros

	runningMean *tensor.Tensor[float32, B] // [dim], zeros
	runningVar  *tensor.Tensor[float32, B] // [dim], ones
}

// NewBatchNorm1d creates a batch normalization layer over dim features.
// Panics with ErrInvalidConfig for a non-positive dim, negative eps, or
// momentum outside [0, 1].
func NewBatchNorm1d[B tensor.Backend](dim int, eps, momentum float64, backend B) *BatchNorm1d[B] {
	if dim <= 0 {
		panicConfig("NewBatchNorm1d", "dim must be positive, got %d", dim)
	}
	if eps < 0 || momentum < 0 || momentum > 1 {
		panicConfig("NewBatchNorm1d", "eps=%v momentum=%v out of range", eps, momentum)
	}
	return &BatchNorm1d[B]{
		dim:         dim,
		eps:         eps,
		momentum:    momentum,
		weight:      NewParameter("weight", tensor.Ones[float32](tensor.Shape{dim}, backend)),
		bias:        NewParameter("bias", tensor.Zeros[float32](tensor.Shape{dim}, backend)),
		runningMean: tensor.Zeros[float32](tensor.Shape{dim}, backend),
		runningVar:  tensor.Ones[float32](tensor.Shape{dim}, backend),
	}
}

// Forward normalizes x of shape [batch, dim].
func (bn *BatchNorm1d[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := x.Shape()
	if len(shape) != 2 || shape[1] != bn.dim {
		panicShape("BatchNorm1d.Forward", "expected [batch, %d], got %v", bn.dim, shape)
	}
	batch := shape[0]
	row := tensor.Shape{1, bn.dim}

	var normalized *tensor.Tensor[float32, B]
	var nextMean, nextVar *tensor.Tensor[float32, B]

	if bn.Training() {
		mean := x.SumDim(0, true).DivScalar(float64(batch)) // [1, dim]
		centered := x.Sub(mean.Expand(shape))
		variance := centered.Mul(centered).SumDim(0, true).DivScalar(float64(batch))
		std := variance.AddScalar(bn.eps).Pow(0.5)
		normalized = centered.Div(std.Expand(shape))

		// Blend on detached statistics; commit after the output exists.
		m := bn.momentum
		nextMean = bn.runningMean.MulScalar(1 - m).Add(mean.Detach().Reshape(bn.dim).MulScalar(m))
		nextVar = bn.runningVar.MulScalar(1 - m).Add(variance.Detach().Reshape(bn.dim).MulScalar(m))
	} else {
		mean := bn.runningMean.Reshape(row...).Expand(shape)
		std := bn.runningVar.AddScalar(bn.eps).Pow(0.5).Reshape(row...).Expand(shape)
		normalized = x.Sub(mean).Div(std)
	}

	w := bn.weight.Tensor().Reshape(row...).Expand(shape)
	b := bn.bias.Tensor().Reshape(row...).Expand(shape)
	out := w.Mul(normalized).Add(b)

	if nextMean != nil {
		bn.runningMean = nextMean.Detach()
		bn.runningVar = nextVar.Detach()
	}
	return out
}

// Fields declares weight and bias. Running statistics are buffers, not
// parameters.
func (bn *BatchNorm1d[B]) Fields() []Field[B] {
	return []Field[B]{ParamField(bn.weight), ParamField(bn.bias)}
}

// Weight returns the per-feature scale.
func (bn *BatchNorm1d[B]) Weight() *Parameter[B] {
	return bn.weight
}

// Bias returns the per-feature shift.
func (bn *BatchNorm1d[B]) Bias() *Parameter[B] {
	return bn.bias
}

// RunningMean returns the running mean buffer of shape [dim].
func (bn *BatchNorm1d[B]) RunningMean() *tensor.Tensor[float32, B] {
	return bn.runningMean
}

// RunningVar returns the running variance buffer of shape [dim].
func (bn *BatchNorm1d[B]) RunningVar() *tensor.Tensor[float32, B] {
	return bn.runningVar
}

// Dim returns the number of normalized features.
func (bn *BatchNorm1d[B]) Dim() int {
	return bn.dim
}

// BatchNorm2d normalizes each channel of an NCHW input over the batch and
// spatial axes. It moves channels last, flattens to [N*H*W, C], applies
// BatchNorm1d, and restores the layout.
type BatchNorm2d[B tensor.Backend] struct {
	*BatchNorm1d[B]
}

// NewBatchNorm2d creates a batch normalization layer over dim channels.
func NewBatchNorm2d[B tensor.Backend](dim int, eps, momentum float64, backend B) *BatchNorm2d[B] {
	return &BatchNorm2d[B]{BatchNorm1d: NewBatchNorm1d(dim, eps, momentum, backend)}
}

// Forward normalizes x of shape [N, C, H, W].
func (bn *BatchNorm2d[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := x.Shape()
	if len(shape) != 4 || shape[1] != bn.dim {
		panicShape("BatchNorm2d.Forward", "expected [N, %d, H, W], got %v", bn.dim, shape)
	}
	n, c, h, w := shape[0], shape[1], shape[2], shape[3]

	flat := x.SwapAxes(1, 2).SwapAxes(2, 3).Reshape(n*h*w, c)
	out := bn.BatchNorm1d.Forward(flat)
	return out.Reshape(n, h, w, c).SwapAxes(2, 3).SwapAxes(1, 2)
}
