package nn

import (
	"github.com/born-ml/needle/internal/tensor"
)

// SoftmaxLoss computes the mean cross-entropy of logits against integer
// class labels.
//
// Loss = mean_i(logsumexp(logits_i) - logits_i[y_i])
//
// The logsumexp subtracts a detached row maximum before exponentiating.
//
// Example:
//
//	lossFn := nn.NewSoftmaxLoss[Backend]()
//	loss := lossFn.Forward(model.Forward(x), labels) // shape [1]
type SoftmaxLoss[B tensor.Backend] struct {
	ModuleBase
}

// NewSoftmaxLoss creates a new softmax cross-entropy loss.
func NewSoftmaxLoss[B tensor.Backend]() *SoftmaxLoss[B] {
	return &SoftmaxLoss[B]{}
}

// Forward computes the loss of logits [batch, classes] against labels of
// length batch. Returns a tensor of shape [1].
func (s *SoftmaxLoss[B]) Forward(logits *tensor.Tensor[float32, B], labels []int) *tensor.Tensor[float32, B] {
	shape := logits.Shape()
	if len(shape) != 2 {
		panicShape("SoftmaxLoss.Forward", "expected 2D logits [batch, classes], got shape %v", shape)
	}
	batch, classes := shape[0], shape[1]
	if len(labels) != batch {
		panicShape("SoftmaxLoss.Forward", "got %d labels for batch of %d", len(labels), batch)
	}
	for _, y := range labels {
		if y < 0 || y >= classes {
			panicShape("SoftmaxLoss.Forward", "label %d out of range [0, %d)", y, classes)
		}
	}

	lse := LogSumExp(logits) // [batch, 1]
	oneHot := tensor.OneHot[float32](labels, classes, logits.Backend())
	picked := oneHot.Mul(logits)

	n := float64(batch)
	return lse.Sum().DivScalar(n).Sub(picked.Sum().DivScalar(n))
}

// Fields returns nothing.
func (s *SoftmaxLoss[B]) Fields() []Field[B] {
	return nil
}

// LogSumExp computes log(sum(exp(x))) over the last axis, keeping it as
// size 1. The shift by the row maximum uses a detached copy.
func LogSumExp[T tensor.DType, B tensor.Backend](x *tensor.Tensor[T, B]) *tensor.Tensor[T, B] {
	maxKeep := x.Detach().MaxDim(-1, true)
	shifted := x.Sub(maxKeep.Expand(x.Shape()))
	return shifted.Exp().SumDim(-1, true).Log().Add(maxKeep)
}

// MSELoss computes Mean Squared Error loss.
//
// Loss = mean((predictions - targets)²)
type MSELoss[B tensor.Backend] struct {
	ModuleBase
}

// NewMSELoss creates a new MSE loss function.
func NewMSELoss[B tensor.Backend]() *MSELoss[B] {
	return &MSELoss[B]{}
}

// Forward computes the MSE loss. Returns a tensor of shape [1].
func (m *MSELoss[B]) Forward(predictions, targets *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	if !predictions.Shape().Equal(targets.Shape()) {
		panicShape("MSELoss.Forward", "predictions %v and targets %v differ", predictions.Shape(), targets.Shape())
	}
	diff := predictions.Sub(targets)
	return diff.Mul(diff).Sum().DivScalar(float64(predictions.NumElements()))
}

// Fields returns nothing.
func (m *MSELoss[B]) Fields() []Field[B] {
	return nil
}
