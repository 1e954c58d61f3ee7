// Package cpu implements the reference CPU backend with gonum BLAS integration.
package cpu

import (
	"sync"
	"time"

	"github.com/born-ml/needle/internal/parallel"
	"github.com/born-ml/needle/internal/tensor"
	"golang.org/x/exp/rand"
)

// CPUBackend implements tensor operations on CPU.
//
// Matrix products and convolutions go through gonum BLAS; element-wise and
// im2col loops fan out over goroutines via internal/parallel. Results are
// deterministic regardless of the parallel configuration.
type CPUBackend struct {
	device tensor.Device
	par    parallel.Config

	mu  sync.Mutex // guards rng
	rng *rand.Rand
}

// Option configures a CPUBackend.
type Option func(*CPUBackend)

// WithSeed seeds the backend's random generator.
// Two backends built with the same seed produce the same random tensors.
func WithSeed(seed uint64) Option {
	return func(cpu *CPUBackend) {
		cpu.rng = rand.New(rand.NewSource(seed))
	}
}

// WithParallel overrides the goroutine fan-out used by the kernels.
func WithParallel(cfg parallel.Config) Option {
	return func(cpu *CPUBackend) {
		cpu.par = cfg
	}
}

// New creates a new CPU backend.
func New(opts ...Option) *CPUBackend {
	cpu := &CPUBackend{
		device: tensor.CPU,
		par:    parallel.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(cpu)
	}
	if cpu.rng == nil {
		cpu.rng = rand.New(rand.NewSource(uint64(time.Now().UnixNano())))
	}
	return cpu
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Device returns the compute device.
func (cpu *CPUBackend) Device() tensor.Device {
	return cpu.device
}

// newResult allocates an output tensor or panics with the op name.
func (cpu *CPUBackend) newResult(op string, shape tensor.Shape, dtype tensor.DataType) *tensor.RawTensor {
	r, err := tensor.NewRaw(shape, dtype, cpu.device)
	if err != nil {
		panic(op + ": failed to create result tensor: " + err.Error())
	}
	return r
}
