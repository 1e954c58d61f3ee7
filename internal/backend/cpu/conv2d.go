package cpu

import (
	"fmt"

	"github.com/born-ml/needle/internal/parallel"
	"github.com/born-ml/needle/internal/tensor"
	"gonum.org/v1/gonum/blas"
)

// convGeom holds the dimensions of one channel-last convolution.
type convGeom struct {
	N, H, W, CIn    int
	KH, KW, COut    int
	HOut, WOut      int
	stride, padding int
}

// rows is the number of output positions, one im2col row each.
func (g convGeom) rows() int { return g.N * g.HOut * g.WOut }

// cols is the length of one flattened receptive field.
func (g convGeom) cols() int { return g.KH * g.KW * g.CIn }

func newConvGeom(op string, input, kernel *tensor.RawTensor, stride, padding int) convGeom {
	inputShape := input.Shape()
	kernelShape := kernel.Shape()

	if len(inputShape) != 4 {
		panic(fmt.Sprintf("%s: input must be 4D [N,H,W,C_in], got %dD", op, len(inputShape)))
	}
	if len(kernelShape) != 4 {
		panic(fmt.Sprintf("%s: kernel must be 4D [K_h,K_w,C_in,C_out], got %dD", op, len(kernelShape)))
	}
	if input.DType() != kernel.DType() {
		panic(fmt.Sprintf("%s: dtype mismatch %s vs %s", op, input.DType(), kernel.DType()))
	}
	if stride <= 0 || padding < 0 {
		panic(fmt.Sprintf("%s: invalid stride %d or padding %d", op, stride, padding))
	}

	g := convGeom{
		N: inputShape[0], H: inputShape[1], W: inputShape[2], CIn: inputShape[3],
		KH: kernelShape[0], KW: kernelShape[1], COut: kernelShape[3],
		stride: stride, padding: padding,
	}
	if kernelShape[2] != g.CIn {
		panic(fmt.Sprintf("%s: input channels %d != kernel channels %d", op, g.CIn, kernelShape[2]))
	}

	// out = (in + 2*padding - k) / stride + 1
	g.HOut = (g.H+2*padding-g.KH)/stride + 1
	g.WOut = (g.W+2*padding-g.KW)/stride + 1
	if g.HOut <= 0 || g.WOut <= 0 {
		panic(fmt.Sprintf("%s: invalid output dimensions: out_h=%d, out_w=%d (check stride/padding)", op, g.HOut, g.WOut))
	}
	return g
}

// Conv2D performs 2D convolution using the im2col algorithm.
//
// Input shape: [N, H, W, C_in] (channel-last)
// Kernel shape: [K_h, K_w, C_in, C_out]
// Output shape: [N, H_out, W_out, C_out]
//
// Algorithm:
//  1. Im2col: gather every receptive field into a row of a
//     [N*H_out*W_out, K_h*K_w*C_in] matrix
//  2. The kernel in HWIO layout already is a [K_h*K_w*C_in, C_out] matrix
//  3. One GEMM produces [N*H_out*W_out, C_out], which is the NHWC output
func (cpu *CPUBackend) Conv2D(input, kernel *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	g := newConvGeom("conv2d", input, kernel, stride, padding)
	output := cpu.newResult("conv2d", tensor.Shape{g.N, g.HOut, g.WOut, g.COut}, input.DType())

	switch input.DType() {
	case tensor.Float32:
		conv2dForward(output.AsFloat32(), input.AsFloat32(), kernel.AsFloat32(), g, cpu.par)
	case tensor.Float64:
		conv2dForward(output.AsFloat64(), input.AsFloat64(), kernel.AsFloat64(), g, cpu.par)
	default:
		panic(fmt.Sprintf("conv2d: unsupported dtype %s", input.DType()))
	}
	return output
}

// Conv2DInputBackward computes the gradient with respect to the input.
//
// dCols = grad [rows, C_out] @ kernelᵀ [C_out, cols], then col2im scatters
// every row back onto the input positions it was gathered from.
func (cpu *CPUBackend) Conv2DInputBackward(input, kernel, grad *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	g := newConvGeom("conv2d_input_backward", input, kernel, stride, padding)
	checkConvGrad("conv2d_input_backward", grad, g)
	result := cpu.newResult("conv2d_input_backward", input.Shape(), input.DType())

	switch input.DType() {
	case tensor.Float32:
		conv2dInputGrad(result.AsFloat32(), kernel.AsFloat32(), grad.AsFloat32(), g, cpu.par)
	case tensor.Float64:
		conv2dInputGrad(result.AsFloat64(), kernel.AsFloat64(), grad.AsFloat64(), g, cpu.par)
	default:
		panic(fmt.Sprintf("conv2d_input_backward: unsupported dtype %s", input.DType()))
	}
	return result
}

// Conv2DKernelBackward computes the gradient with respect to the kernel:
// dKernel = colsᵀ [cols, rows] @ grad [rows, C_out].
func (cpu *CPUBackend) Conv2DKernelBackward(input, kernel, grad *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	g := newConvGeom("conv2d_kernel_backward", input, kernel, stride, padding)
	checkConvGrad("conv2d_kernel_backward", grad, g)
	result := cpu.newResult("conv2d_kernel_backward", kernel.Shape(), kernel.DType())

	switch input.DType() {
	case tensor.Float32:
		conv2dKernelGrad(result.AsFloat32(), input.AsFloat32(), grad.AsFloat32(), g, cpu.par)
	case tensor.Float64:
		conv2dKernelGrad(result.AsFloat64(), input.AsFloat64(), grad.AsFloat64(), g, cpu.par)
	default:
		panic(fmt.Sprintf("conv2d_kernel_backward: unsupported dtype %s", input.DType()))
	}
	return result
}

func checkConvGrad(op string, grad *tensor.RawTensor, g convGeom) {
	want := tensor.Shape{g.N, g.HOut, g.WOut, g.COut}
	if !grad.Shape().Equal(want) {
		panic(fmt.Sprintf("%s: gradient shape %v, expected %v", op, grad.Shape(), want))
	}
}

func conv2dForward[T float](out, input, kernel []T, g convGeom, cfg parallel.Config) {
	cols := make([]T, g.rows()*g.cols())
	im2col(cols, input, g, cfg)
	gemm(blas.NoTrans, blas.NoTrans, cols, g.rows(), g.cols(), kernel, g.cols(), g.COut, out, g.rows(), g.COut)
}

func conv2dInputGrad[T float](dInput, kernel, grad []T, g convGeom, cfg parallel.Config) {
	dCols := make([]T, g.rows()*g.cols())
	gemm(blas.NoTrans, blas.Trans, grad, g.rows(), g.COut, kernel, g.cols(), g.COut, dCols, g.rows(), g.cols())
	col2im(dInput, dCols, g, cfg)
}

func conv2dKernelGrad[T float](dKernel, input, grad []T, g convGeom, cfg parallel.Config) {
	cols := make([]T, g.rows()*g.cols())
	im2col(cols, input, g, cfg)
	gemm(blas.Trans, blas.NoTrans, cols, g.rows(), g.cols(), grad, g.rows(), g.COut, dKernel, g.cols(), g.COut)
}

// im2col transforms the NHWC input into the column matrix.
//
// Row r = (n, oh, ow) holds the receptive field of that output position,
// laid out (kh, kw, c) to match the HWIO kernel. Padding positions stay zero.
func im2col[T float](cols, input []T, g convGeom, cfg parallel.Config) {
	width := g.cols()
	parallel.For(g.rows(), func(r int) {
		n := r / (g.HOut * g.WOut)
		oh := (r / g.WOut) % g.HOut
		ow := r % g.WOut
		row := cols[r*width : (r+1)*width]

		for kh := 0; kh < g.KH; kh++ {
			h := oh*g.stride - g.padding + kh
			if h < 0 || h >= g.H {
				continue
			}
			for kw := 0; kw < g.KW; kw++ {
				w := ow*g.stride - g.padding + kw
				if w < 0 || w >= g.W {
					continue
				}
				src := ((n*g.H+h)*g.W + w) * g.CIn
				dst := (kh*g.KW + kw) * g.CIn
				copy(row[dst:dst+g.CIn], input[src:src+g.CIn])
			}
		}
	}, cfg)
}

// col2im is the adjoint of im2col: it accumulates every column entry back
// onto its input position. Work is split per image so writes never overlap.
func col2im[T float](dInput, cols []T, g convGeom, cfg parallel.Config) {
	width := g.cols()
	cfg.MinChunkSize = 1
	parallel.For(g.N, func(n int) {
		for oh := 0; oh < g.HOut; oh++ {
			for ow := 0; ow < g.WOut; ow++ {
				r := (n*g.HOut+oh)*g.WOut + ow
				row := cols[r*width : (r+1)*width]
				for kh := 0; kh < g.KH; kh++ {
					h := oh*g.stride - g.padding + kh
					if h < 0 || h >= g.H {
						continue
					}
					for kw := 0; kw < g.KW; kw++ {
						w := ow*g.stride - g.padding + kw
						if w < 0 || w >= g.W {
							continue
						}
						dst := ((n*g.H+h)*g.W + w) * g.CIn
						src := (kh*g.KW + kw) * g.CIn
						for c := 0; c < g.CIn; c++ {
							dInput[dst+c] += row[src+c]
						}
					}
				}
			}
		}
	}, cfg)
}
