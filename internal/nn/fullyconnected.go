package nn

import (
	"fmt"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"

	"github.com/loom-ml/loom/internal/tensor"
)

// FullyConnected flattens its input per example and applies an affine
// transform.
//
// Input shape:  [batch, ...] (trailing dimensions are flattened)
// Weight shape: [outDim, inDim]
// Bias shape:   [outDim]
// Output shape: [batch, outDim]
//
// Forward computes y = flatten(x)·Wᵗ + b. Backward produces
// dX = g·W, accumulates dW = gᵗ·X and db as the column sum of g.
// The matrix products run through gonum's float32 BLAS interface.
type FullyConnected struct {
	in     NodeID
	batch  int
	inDim  int
	outDim int

	weight *Parameter // [outDim, inDim]
	bias   *Parameter // [outDim]

	out  *tensor.Tensor
	grad *tensor.Tensor
}

func newFullyConnected(net *Network, in NodeID, inShape tensor.Shape, outDim int) *FullyConnected {
	if outDim <= 0 {
		panic(fmt.Sprintf("fullyconnected: invalid output width %d", outDim))
	}
	if len(inShape) < 2 {
		panic(fmt.Sprintf("fullyconnected: expected input with a batch dimension, got shape %v", inShape))
	}

	batch := inShape[0]
	inDim := inShape.NumElements() / batch

	weight := xavier(net.rng, inDim, outDim, tensor.Shape{outDim, inDim})

	return &FullyConnected{
		in:     in,
		batch:  batch,
		inDim:  inDim,
		outDim: outDim,
		weight: NewParameter("fc.weight", weight),
		bias:   NewParameter("fc.bias", tensor.MustNew(tensor.Float32, tensor.Shape{outDim})),
		out:    tensor.MustNew(tensor.Float32, tensor.Shape{batch, outDim}),
		grad:   tensor.MustNew(tensor.Float32, tensor.Shape{batch, outDim}),
	}
}

// Output returns the [batch, outDim] activation tensor.
func (f *FullyConnected) Output() *tensor.Tensor { return f.out }

// OutputGrad returns the gradient buffer matching Output.
func (f *FullyConnected) OutputGrad() *tensor.Tensor { return f.grad }

// Params returns the weight and bias parameters.
func (f *FullyConnected) Params() []*Parameter {
	return []*Parameter{f.weight, f.bias}
}

// Weight returns the weight parameter.
func (f *FullyConnected) Weight() *Parameter { return f.weight }

// Bias returns the bias parameter.
func (f *FullyConnected) Bias() *Parameter { return f.bias }

// Forward computes y = x·Wᵗ + b.
func (f *FullyConnected) Forward(net *Network) {
	x := blas32.General{
		Rows: f.batch, Cols: f.inDim, Stride: f.inDim,
		Data: net.node(f.in).Output().AsFloat32(),
	}
	w := blas32.General{
		Rows: f.outDim, Cols: f.inDim, Stride: f.inDim,
		Data: f.weight.value.AsFloat32(),
	}
	y := blas32.General{
		Rows: f.batch, Cols: f.outDim, Stride: f.outDim,
		Data: f.out.AsFloat32(),
	}

	blas32.Gemm(blas.NoTrans, blas.Trans, 1, x, w, 0, y)

	b := f.bias.value.AsFloat32()
	out := f.out.AsFloat32()
	for n := 0; n < f.batch; n++ {
		row := out[n*f.outDim : (n+1)*f.outDim]
		for o := range row {
			row[o] += b[o]
		}
	}
}

// Backward accumulates dX = g·W into the predecessor, dW = gᵗ·x and
// db = column sum of g into the parameter accumulators.
func (f *FullyConnected) Backward(net *Network) {
	pred := net.node(f.in)

	g := blas32.General{
		Rows: f.batch, Cols: f.outDim, Stride: f.outDim,
		Data: f.grad.AsFloat32(),
	}
	x := blas32.General{
		Rows: f.batch, Cols: f.inDim, Stride: f.inDim,
		Data: pred.Output().AsFloat32(),
	}
	w := blas32.General{
		Rows: f.outDim, Cols: f.inDim, Stride: f.inDim,
		Data: f.weight.value.AsFloat32(),
	}
	dx := blas32.General{
		Rows: f.batch, Cols: f.inDim, Stride: f.inDim,
		Data: pred.OutputGrad().AsFloat32(),
	}
	dw := blas32.General{
		Rows: f.outDim, Cols: f.inDim, Stride: f.inDim,
		Data: f.weight.grad.AsFloat32(),
	}

	// dX += g·W and dW += gᵗ·x; beta=1 accumulates into the buffers.
	blas32.Gemm(blas.NoTrans, blas.NoTrans, 1, g, w, 1, dx)
	blas32.Gemm(blas.Trans, blas.NoTrans, 1, g, x, 1, dw)

	db := f.bias.grad.AsFloat32()
	gData := f.grad.AsFloat32()
	for n := 0; n < f.batch; n++ {
		row := gData[n*f.outDim : (n+1)*f.outDim]
		for o := range row {
			db[o] += row[o]
		}
	}
}

func (f *FullyConnected) String() string {
	return fmt.Sprintf("FullyConnected(in=%d, out=%d)", f.inDim, f.outDim)
}
