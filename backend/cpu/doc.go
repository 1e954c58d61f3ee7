// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides a pure Go CPU backend for tensor operations.
//
// # Overview
//
// This package implements a CPU backend with:
//   - Pure Go implementation (no CGO), matrix products through gonum BLAS
//   - Im2col convolutions over NHWC input and HWIO kernels
//   - Float32 and Float64 support
//   - NumPy-compatible broadcasting
//   - A seedable random generator for reproducible initialization
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/needle/backend/cpu"
//	    "github.com/born-ml/needle/nn"
//	    "github.com/born-ml/needle/tensor"
//	)
//
//	func main() {
//	    backend := cpu.New(cpu.WithSeed(42))
//
//	    x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
//	    y := tensor.Ones[float32](tensor.Shape{2, 3}, backend)
//	    z := x.Add(y)
//
//	    model := nn.NewLinear(784, 10, true, backend)
//	}
//
// # Thread Safety
//
// Kernels do not share mutable state, and the random generator is guarded
// by a mutex. Draw order across goroutines is not deterministic, so seed a
// backend per goroutine when reproducibility matters.
package cpu
