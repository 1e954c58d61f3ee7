package ops

import "github.com/born-ml/needle/internal/tensor"

// ScalarKind identifies which scalar operation a ScalarOp recorded.
type ScalarKind int

// Scalar operations with a constant right-hand side.
const (
	ScalarAdd ScalarKind = iota
	ScalarMul
	ScalarDiv
)

// ScalarOp represents x + s, x * s or x / s for a constant s.
type ScalarOp struct {
	node
	kind   ScalarKind
	scalar float64
}

// NewScalarOp creates a new ScalarOp.
func NewScalarOp(kind ScalarKind, input, output *tensor.RawTensor, scalar float64) *ScalarOp {
	return &ScalarOp{node: newNode(output, input), kind: kind, scalar: scalar}
}

// Backward computes the input gradient.
func (op *ScalarOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	switch op.kind {
	case ScalarMul:
		return []*tensor.RawTensor{backend.MulScalar(outputGrad, op.scalar)}
	case ScalarDiv:
		return []*tensor.RawTensor{backend.DivScalar(outputGrad, op.scalar)}
	default:
		return []*tensor.RawTensor{outputGrad}
	}
}

// PowScalarOp represents x^p for a constant p.
//
// Backward pass:
//   - d(x^p)/dx = p * x^(p-1)
type PowScalarOp struct {
	node
	exponent float64
}

// NewPowScalarOp creates a new PowScalarOp.
func NewPowScalarOp(input, output *tensor.RawTensor, exponent float64) *PowScalarOp {
	return &PowScalarOp{node: newNode(output, input), exponent: exponent}
}

// Backward computes the input gradient.
func (op *PowScalarOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	x := op.inputs[0]
	var local *tensor.RawTensor
	if op.exponent == 2 {
		local = backend.MulScalar(x, 2)
	} else {
		local = backend.MulScalar(backend.PowScalar(x, op.exponent-1), op.exponent)
	}
	return []*tensor.RawTensor{backend.Mul(outputGrad, local)}
}

// ExpOp represents e^x. The derivative is the output itself.
type ExpOp struct{ node }

// NewExpOp creates a new ExpOp.
func NewExpOp(input, output *tensor.RawTensor) *ExpOp {
	return &ExpOp{newNode(output, input)}
}

// Backward computes grad * exp(x).
func (op *ExpOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.Mul(outputGrad, op.output)}
}

// LogOp represents ln(x).
type LogOp struct{ node }

// NewLogOp creates a new LogOp.
func NewLogOp(input, output *tensor.RawTensor) *LogOp {
	return &LogOp{newNode(output, input)}
}

// Backward computes grad / x.
func (op *LogOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.Div(outputGrad, op.inputs[0])}
}

// ReLUOp represents a ReLU (Rectified Linear Unit) activation: output = max(0, x).
//
// Backward pass:
//   - d(ReLU(x))/dx = 1 if x > 0, else 0
type ReLUOp struct{ node }

// NewReLUOp creates a new ReLUOp.
func NewReLUOp(input, output *tensor.RawTensor) *ReLUOp {
	return &ReLUOp{newNode(output, input)}
}

// Backward masks the output gradient with x > 0.
func (op *ReLUOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.Mul(outputGrad, positiveMask(op.inputs[0], backend))}
}

// TanhOp represents tanh(x).
//
// Backward pass:
//   - d(tanh(x))/dx = 1 - tanh²(x)
type TanhOp struct{ node }

// NewTanhOp creates a new TanhOp.
func NewTanhOp(input, output *tensor.RawTensor) *TanhOp {
	return &TanhOp{newNode(output, input)}
}

// Backward computes grad * (1 - output²).
func (op *TanhOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	local := backend.AddScalar(backend.MulScalar(backend.Mul(op.output, op.output), -1), 1)
	return []*tensor.RawTensor{backend.Mul(outputGrad, local)}
}
