// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/needle/backend/cpu"
	"github.com/born-ml/needle/tensor"
)

// TestBackendInterface verifies that the CPU backend implements tensor.Backend.
func TestBackendInterface(_ *testing.T) {
	var _ tensor.Backend = (*cpu.Backend)(nil)
}

func TestRawTensorAPI(t *testing.T) {
	raw, err := tensor.NewRaw(tensor.Shape{2, 3}, tensor.Float32, tensor.CPU)
	require.NoError(t, err)

	assert.True(t, raw.Shape().Equal(tensor.Shape{2, 3}))
	assert.Equal(t, tensor.Float32, raw.DType())
	assert.Equal(t, tensor.CPU, raw.Device())
	assert.Equal(t, 6, raw.NumElements())
	assert.Len(t, raw.AsFloat32(), 6)

	clone := raw.Clone()
	require.NotNil(t, clone)
	assert.NotSame(t, raw, clone)
}

func TestCreation(t *testing.T) {
	backend := cpu.New(cpu.WithSeed(1))

	assert.Equal(t, []float32{0, 0, 0, 0}, tensor.Zeros[float32](tensor.Shape{2, 2}, backend).Data())
	assert.Equal(t, []float64{1, 1}, tensor.Ones[float64](tensor.Shape{2}, backend).Data())
	assert.Equal(t, []float32{2.5, 2.5}, tensor.Full[float32](tensor.Shape{2}, 2.5, backend).Data())
	assert.Equal(t, []float32{0, 1, 2, 3}, tensor.Arange[float32](0, 4, backend).Data())
	assert.Equal(t, []float32{0, 1, 0, 1, 0, 0}, tensor.OneHot[float32]([]int{1, 0}, 3, backend).Data())

	u := tensor.Rand[float32](tensor.Shape{100}, -1, 1, backend)
	for _, v := range u.Data() {
		assert.GreaterOrEqual(t, v, float32(-1))
		assert.Less(t, v, float32(1))
	}
	for _, v := range tensor.Bernoulli[float32](tensor.Shape{50}, 0.5, backend).Data() {
		assert.Contains(t, []float32{0, 1}, v)
	}
	assert.Equal(t, tensor.Shape{3, 4}, tensor.Randn[float32](tensor.Shape{3, 4}, 0, 1, backend).Shape())
}

func TestFromSlice(t *testing.T) {
	backend := cpu.New()

	x, err := tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, backend)
	require.NoError(t, err)
	assert.Equal(t, float32(6), x.At(1, 2))
	assert.Equal(t, tensor.Shape{3, 2}, x.T().Shape())

	_, err = tensor.FromSlice([]float32{1, 2, 3}, tensor.Shape{2, 2}, backend)
	assert.Error(t, err)
}

func TestBroadcastShapes(t *testing.T) {
	shape, needs, err := tensor.BroadcastShapes(tensor.Shape{3, 1}, tensor.Shape{3, 4})
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{3, 4}, shape)
	assert.True(t, needs)

	_, _, err = tensor.BroadcastShapes(tensor.Shape{3, 4}, tensor.Shape{3, 5})
	assert.Error(t, err)
}
