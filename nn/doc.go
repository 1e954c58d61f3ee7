// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides neural network layers and building blocks.
//
// # Overview
//
// This package contains:
//   - Layers: Linear, Conv, Embedding, Flatten, Sequential, Residual
//   - Normalization: BatchNorm1d, BatchNorm2d, LayerNorm1d
//   - Regularization: Dropout
//   - Activations: Identity, ReLU, Tanh
//   - Attention: MultiHeadAttention, AttentionLayer, TransformerLayer, Transformer
//   - Losses: SoftmaxLoss, MSELoss
//   - Registry: Parameters, Modules, Train, Eval over a module tree
//   - Initialization: Xavier and Kaiming, uniform and normal
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/needle/backend/cpu"
//	    "github.com/born-ml/needle/nn"
//	)
//
//	func main() {
//	    backend := cpu.New(cpu.WithSeed(0))
//
//	    model := nn.NewSequential[*cpu.Backend](
//	        nn.NewLinear(784, 128, true, backend),
//	        nn.NewReLU[*cpu.Backend](),
//	        nn.NewDropout[*cpu.Backend](0.1),
//	        nn.NewLinear(128, 10, true, backend),
//	    )
//
//	    params := nn.Parameters[*cpu.Backend](model)
//	    nn.Eval[*cpu.Backend](model)
//	}
//
// # Custom Modules
//
// A module embeds ModuleBase and declares what it owns through Fields:
//
//	type Block[B tensor.Backend] struct {
//	    nn.ModuleBase
//	    proj *nn.Linear[B]
//	    act  *nn.ReLU[B]
//	}
//
//	func (b *Block[B]) Fields() []nn.Field[B] {
//	    return []nn.Field[B]{nn.ModuleField[B](b.proj), nn.ModuleField[B](b.act)}
//	}
//
// Parameters and Modules walk fields in declaration order and visit shared
// parameters and submodules once.
//
// # Errors
//
// Constructors and Forward panic on invalid configuration or input shape.
// The panic value is an error wrapping ErrInvalidConfig or ErrShapeMismatch.
// Functions that return errors (NewTransformer, the Kaiming initializers)
// wrap the same sentinels.
package nn
