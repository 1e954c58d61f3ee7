// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/born-ml/needle/internal/nn"
	"github.com/born-ml/needle/internal/tensor"
)

// Sentinel errors.
var (
	ErrShapeMismatch = nn.ErrShapeMismatch
	ErrInvalidConfig = nn.ErrInvalidConfig
	ErrUnsupported   = nn.ErrUnsupported
)

// Module is anything that declares parameters and submodules and carries a
// training flag. Implement it by embedding ModuleBase and defining Fields.
type Module[B tensor.Backend] = nn.Module[B]

// Layer is a Module with a single-input Forward.
type Layer[B tensor.Backend] = nn.Layer[B]

// ModuleBase holds the training flag. The zero value is in training mode.
type ModuleBase = nn.ModuleBase

// Field is one entry in a module's ownership declaration.
type Field[B tensor.Backend] = nn.Field[B]

// ParamField declares a parameter. A nil parameter is skipped.
func ParamField[B tensor.Backend](p *Parameter[B]) Field[B] {
	return nn.ParamField(p)
}

// ModuleField declares a submodule. A nil module is skipped.
func ModuleField[B tensor.Backend](m Module[B]) Field[B] {
	return nn.ModuleField(m)
}

// ListField declares an ordered collection of fields.
func ListField[B tensor.Backend](items ...Field[B]) Field[B] {
	return nn.ListField(items...)
}

// DictField declares a keyed collection, walked in sorted key order.
func DictField[B tensor.Backend](dict map[string]Field[B]) Field[B] {
	return nn.DictField(dict)
}

// ModuleList declares a slice of submodules.
func ModuleList[B tensor.Backend, M Module[B]](modules []M) Field[B] {
	return nn.ModuleList[B](modules)
}

// Parameter is a trainable float32 tensor with a name and a gradient slot.
type Parameter[B tensor.Backend] = nn.Parameter[B]

// NewParameter creates a new parameter and marks its tensor as requiring gradients.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return nn.NewParameter(name, t)
}

// Parameters returns every parameter reachable from root, in declaration
// order, each exactly once.
func Parameters[B tensor.Backend](root Module[B]) []*Parameter[B] {
	return nn.Parameters(root)
}

// Modules returns root and every reachable submodule in pre-order, each once.
func Modules[B tensor.Backend](root Module[B]) []Module[B] {
	return nn.Modules(root)
}

// Train switches root and every submodule to training mode.
func Train[B tensor.Backend](root Module[B]) {
	nn.Train(root)
}

// Eval switches root and every submodule to evaluation mode.
func Eval[B tensor.Backend](root Module[B]) {
	nn.Eval(root)
}

// NumParameters returns the total number of scalars across Parameters(root).
func NumParameters[B tensor.Backend](root Module[B]) int {
	return nn.NumParameters(root)
}

// ZeroGrad clears the gradient of every parameter reachable from root.
func ZeroGrad[B tensor.Backend](root Module[B]) {
	nn.ZeroGrad(root)
}
