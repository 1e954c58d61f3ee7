package cpu

import (
	"fmt"

	"github.com/born-ml/needle/internal/tensor"
	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"
	"gonum.org/v1/gonum/blas/blas64"
)

// MatMul performs matrix multiplication.
// For 2D tensors: (M, K) @ (K, N) -> (M, N)
func (cpu *CPUBackend) MatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	aShape := a.Shape()
	bShape := b.Shape()

	if len(aShape) != 2 || len(bShape) != 2 {
		panic(fmt.Sprintf("matmul: only 2D tensors supported, got %dD and %dD", len(aShape), len(bShape)))
	}
	if a.DType() != b.DType() {
		panic(fmt.Sprintf("matmul: dtype mismatch %s vs %s", a.DType(), b.DType()))
	}

	m, k := aShape[0], aShape[1]
	kAlt, n := bShape[0], bShape[1]
	if k != kAlt {
		panic(fmt.Sprintf("matmul: shape mismatch [%d,%d] @ [%d,%d]", m, k, kAlt, n))
	}

	result := cpu.newResult("matmul", tensor.Shape{m, n}, a.DType())
	switch a.DType() {
	case tensor.Float32:
		gemm(blas.NoTrans, blas.NoTrans, a.AsFloat32(), m, k, b.AsFloat32(), k, n, result.AsFloat32(), m, n)
	case tensor.Float64:
		gemm(blas.NoTrans, blas.NoTrans, a.AsFloat64(), m, k, b.AsFloat64(), k, n, result.AsFloat64(), m, n)
	default:
		panic(fmt.Sprintf("matmul: unsupported dtype %s", a.DType()))
	}
	return result
}

// gemm computes c = op(a) @ op(b), overwriting c.
// a is stored row-major as aRows×aCols and b as bRows×bCols; tA and tB
// select whether each operand is used transposed.
func gemm[T float](tA, tB blas.Transpose, a []T, aRows, aCols int, b []T, bRows, bCols int, c []T, cRows, cCols int) {
	switch cs := any(c).(type) {
	case []float32:
		blas32.Gemm(tA, tB, 1,
			blas32.General{Rows: aRows, Cols: aCols, Stride: aCols, Data: any(a).([]float32)},
			blas32.General{Rows: bRows, Cols: bCols, Stride: bCols, Data: any(b).([]float32)},
			0,
			blas32.General{Rows: cRows, Cols: cCols, Stride: cCols, Data: cs})
	case []float64:
		blas64.Gemm(tA, tB, 1,
			blas64.General{Rows: aRows, Cols: aCols, Stride: aCols, Data: any(a).([]float64)},
			blas64.General{Rows: bRows, Cols: bCols, Stride: bCols, Data: any(b).([]float64)},
			0,
			blas64.General{Rows: cRows, Cols: cCols, Stride: cCols, Data: cs})
	default:
		panic("gemm: unsupported element type")
	}
}
