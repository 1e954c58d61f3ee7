// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	internalcpu "github.com/born-ml/needle/internal/backend/cpu"
	"github.com/born-ml/needle/internal/parallel"
	"github.com/born-ml/needle/tensor"
)

// Backend represents the CPU backend implementation.
type Backend = internalcpu.CPUBackend

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// Option configures a Backend.
type Option = internalcpu.Option

// ParallelConfig controls how kernels fan out over goroutines.
type ParallelConfig = parallel.Config

// New creates a new CPU backend.
//
// Without WithSeed the generator is seeded from the clock.
//
// Example:
//
//	backend := cpu.New(cpu.WithSeed(42))
//	x := tensor.Randn[float32](tensor.Shape{2, 3}, 0, 1, backend)
func New(opts ...Option) *Backend {
	return internalcpu.New(opts...)
}

// WithSeed seeds the backend's random generator.
func WithSeed(seed uint64) Option {
	return internalcpu.WithSeed(seed)
}

// WithParallel overrides the goroutine fan-out used by the kernels.
func WithParallel(cfg ParallelConfig) Option {
	return internalcpu.WithParallel(cfg)
}

// DefaultParallel returns one worker per CPU.
func DefaultParallel() ParallelConfig {
	return parallel.DefaultConfig()
}

// SequentialParallel runs every kernel loop on the calling goroutine.
func SequentialParallel() ParallelConfig {
	return parallel.Sequential()
}
