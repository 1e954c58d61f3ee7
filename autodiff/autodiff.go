// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package autodiff provides reverse-mode automatic differentiation.
//
// A Backend wraps any tensor.Backend and records every operation on a
// GradientTape while recording is on. Backward replays the tape in reverse
// and returns gradients keyed on the raw tensors of the graph.
//
// Example:
//
//	import (
//	    "github.com/born-ml/needle/autodiff"
//	    "github.com/born-ml/needle/backend/cpu"
//	    "github.com/born-ml/needle/tensor"
//	)
//
//	func main() {
//	    backend := autodiff.New(cpu.New())
//
//	    x := tensor.Randn[float32](tensor.Shape{2, 3}, 0, 1, backend)
//	    backend.Tape().StartRecording()
//	    y := x.Mul(x).Sum()
//	    grads := autodiff.Backward(y, backend)
//	    backend.Tape().StopRecording()
//
//	    dx := grads[x.Raw()] // 2x
//	}
package autodiff

import (
	"github.com/born-ml/needle/internal/autodiff"
	"github.com/born-ml/needle/internal/tensor"
)

// Backend is the autodiff-enabled backend.
type Backend[B tensor.Backend] = autodiff.AutodiffBackend[B]

// New creates a new autodiff backend wrapping the given backend.
func New[B tensor.Backend](backend B) *Backend[B] {
	return autodiff.New(backend)
}

// GradientTape records operations for automatic differentiation.
type GradientTape = autodiff.GradientTape

// BackwardCapable is satisfied by backends that own a GradientTape.
type BackwardCapable = autodiff.BackwardCapable

// Backward computes the gradients of t with respect to every recorded input,
// seeding the output gradient with ones.
func Backward[T tensor.DType, B BackwardCapable](t *tensor.Tensor[T, B], backend B) map[*tensor.RawTensor]*tensor.RawTensor {
	return autodiff.Backward(t, backend)
}
