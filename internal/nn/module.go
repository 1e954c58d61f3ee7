// Package nn implements neural network modules on top of the needle tensor engine.
//
// This package provides building blocks for constructing neural networks:
//   - Module interface: ownership tree of parameters and child modules
//   - Parameter: Trainable parameters with gradient tracking
//   - Registry: Parameters, Modules, Train and Eval walk any module tree
//   - Layers: Linear, Conv, BatchNorm1d/2d, LayerNorm1d, Dropout, Residual,
//     Flatten, Embedding, activations and Sequential
//   - Attention: MultiHeadAttention, AttentionLayer, TransformerLayer, Transformer
//
// Every module owns its own training flag. The flag changes only through
// Train and Eval, which set it on the whole subtree.
//
// Concurrency: a model instance is single-threaded. Forward calls must not
// run concurrently with each other or with Train/Eval on the same instance;
// callers serialize access or build one instance per goroutine.
package nn

import (
	"github.com/born-ml/needle/internal/tensor"
)

// Module is the base interface for all neural network components.
//
// A module declares what it owns through Fields: parameters, child modules,
// and lists or maps of them. The registry walks these declarations, so
// discovery order is exactly declaration order and no reflection is involved.
//
// Modules gain the training flag by embedding ModuleBase:
//
//	type MyBlock[B tensor.Backend] struct {
//	    nn.ModuleBase
//	    proj *nn.Linear[B]
//	}
//
//	func (m *MyBlock[B]) Fields() []nn.Field[B] {
//	    return []nn.Field[B]{nn.ModuleField[B](m.proj)}
//	}
//
// Type parameter B must satisfy the tensor.Backend interface.
type Module[B tensor.Backend] interface {
	// Fields returns the module's owned parameters and children in
	// declaration order.
	Fields() []Field[B]

	// Training reports whether the module is in training mode.
	Training() bool

	setTraining(training bool)
}

// Layer is a module with a single-input forward transform.
// Sequential and Residual compose Layers.
type Layer[B tensor.Backend] interface {
	Module[B]

	// Forward computes the output of the module given an input tensor.
	Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]
}

// ModuleBase holds the training flag. Embed it in every module.
// The zero value is in training mode.
type ModuleBase struct {
	eval bool
}

// Training reports whether the module is in training mode.
func (m *ModuleBase) Training() bool {
	return !m.eval
}

func (m *ModuleBase) setTraining(training bool) {
	m.eval = !training
}
