// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the public API for tensors in needle.
//
// The package re-exports the core types of the engine:
//   - Tensor[T, B]: generic tensor over an element type and a backend
//   - RawTensor: untyped storage passed across the Backend contract
//   - Backend: the compute contract implemented by backend/cpu and wrapped by autodiff
//
// Example:
//
//	backend := cpu.New()
//	x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
//	y := tensor.Ones[float32](tensor.Shape{2, 3}, backend)
//	z := x.Add(y)
package tensor
