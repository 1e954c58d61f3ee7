package cpu

import (
	"fmt"

	"github.com/born-ml/needle/internal/tensor"
)

// RandUniform draws values uniformly from [low, high).
func (cpu *CPUBackend) RandUniform(shape tensor.Shape, dtype tensor.DataType, low, high float64) *tensor.RawTensor {
	if high < low {
		panic(fmt.Sprintf("rand_uniform: high %v < low %v", high, low))
	}
	span := high - low
	return cpu.sample("rand_uniform", shape, dtype, func() float64 {
		return low + span*cpu.rng.Float64()
	})
}

// RandNormal draws values from a normal distribution.
func (cpu *CPUBackend) RandNormal(shape tensor.Shape, dtype tensor.DataType, mean, std float64) *tensor.RawTensor {
	return cpu.sample("rand_normal", shape, dtype, func() float64 {
		return mean + std*cpu.rng.NormFloat64()
	})
}

// RandBernoulli draws 1 with probability p and 0 otherwise.
func (cpu *CPUBackend) RandBernoulli(shape tensor.Shape, dtype tensor.DataType, p float64) *tensor.RawTensor {
	if p < 0 || p > 1 {
		panic(fmt.Sprintf("rand_bernoulli: probability %v outside [0, 1]", p))
	}
	return cpu.sample("rand_bernoulli", shape, dtype, func() float64 {
		if cpu.rng.Float64() < p {
			return 1
		}
		return 0
	})
}

// sample fills a new tensor sequentially from draw so that the stream of
// values depends only on the seed.
func (cpu *CPUBackend) sample(op string, shape tensor.Shape, dtype tensor.DataType, draw func() float64) *tensor.RawTensor {
	result := cpu.newResult(op, shape, dtype)

	cpu.mu.Lock()
	defer cpu.mu.Unlock()

	switch dtype {
	case tensor.Float32:
		data := result.AsFloat32()
		for i := range data {
			data[i] = float32(draw())
		}
	case tensor.Float64:
		data := result.AsFloat64()
		for i := range data {
			data[i] = draw()
		}
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", op, dtype))
	}
	return result
}
