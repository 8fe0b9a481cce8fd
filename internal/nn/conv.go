package nn

import (
	"fmt"

	"github.com/loom-ml/loom/internal/tensor"
)

// Conv is a 2D convolution over a minibatch of feature maps.
//
// Input shape:  [batch, inChannels, height, width]
// Weight shape: [filters, inChannels, kernel, kernel]
// Bias shape:   [filters]
// Output shape: [batch, filters, outH, outW]
//
// where outH = (height + 2*pad - kernel)/stride + 1 and likewise for
// outW. Zero padding is applied implicitly by skipping out-of-range
// input positions.
//
// Backward produces the gradient w.r.t. the input via transposed-kernel
// correlation, accumulates the weight gradient by correlating the input
// with the output gradient, and accumulates the bias gradient as a
// spatial sum, all per example in the minibatch.
type Conv struct {
	in      NodeID
	filters int
	kernel  int
	stride  int
	pad     int

	batch, inC, inH, inW int
	outH, outW           int

	weight *Parameter // [filters, inC, kernel, kernel]
	bias   *Parameter // [filters]

	out  *tensor.Tensor
	grad *tensor.Tensor
}

func newConv(net *Network, in NodeID, inShape tensor.Shape, filters, kernel, stride, pad int) *Conv {
	if filters <= 0 {
		panic(fmt.Sprintf("conv: invalid filter count %d", filters))
	}
	if kernel <= 0 {
		panic(fmt.Sprintf("conv: invalid kernel size %d", kernel))
	}
	if stride <= 0 {
		panic(fmt.Sprintf("conv: invalid stride %d", stride))
	}
	if pad < 0 {
		panic(fmt.Sprintf("conv: invalid padding %d", pad))
	}
	if len(inShape) != 4 {
		panic(fmt.Sprintf("conv: expected 4D input [N,C,H,W], got shape %v", inShape))
	}

	batch, inC, inH, inW := inShape[0], inShape[1], inShape[2], inShape[3]
	outH := (inH+2*pad-kernel)/stride + 1
	outW := (inW+2*pad-kernel)/stride + 1
	if outH <= 0 || outW <= 0 {
		panic(fmt.Sprintf("conv: invalid output size %dx%d for input %dx%d (kernel=%d, stride=%d, pad=%d)",
			outH, outW, inH, inW, kernel, stride, pad))
	}

	fanIn := inC * kernel * kernel
	fanOut := filters * kernel * kernel
	weight := xavier(net.rng, fanIn, fanOut, tensor.Shape{filters, inC, kernel, kernel})

	return &Conv{
		in:      in,
		filters: filters,
		kernel:  kernel,
		stride:  stride,
		pad:     pad,
		batch:   batch,
		inC:     inC,
		inH:     inH,
		inW:     inW,
		outH:    outH,
		outW:    outW,
		weight:  NewParameter("conv.weight", weight),
		bias:    NewParameter("conv.bias", tensor.MustNew(tensor.Float32, tensor.Shape{filters})),
		out:     tensor.MustNew(tensor.Float32, tensor.Shape{batch, filters, outH, outW}),
		grad:    tensor.MustNew(tensor.Float32, tensor.Shape{batch, filters, outH, outW}),
	}
}

// Output returns the feature-map tensor.
func (c *Conv) Output() *tensor.Tensor { return c.out }

// OutputGrad returns the gradient buffer matching Output.
func (c *Conv) OutputGrad() *tensor.Tensor { return c.grad }

// Params returns the weight and bias parameters.
func (c *Conv) Params() []*Parameter {
	return []*Parameter{c.weight, c.bias}
}

// Weight returns the kernel parameter.
func (c *Conv) Weight() *Parameter { return c.weight }

// Bias returns the bias parameter.
func (c *Conv) Bias() *Parameter { return c.bias }

// Forward computes the sliding-window dot product per filter.
func (c *Conv) Forward(net *Network) {
	in := net.node(c.in).Output().AsFloat32()
	w := c.weight.value.AsFloat32()
	b := c.bias.value.AsFloat32()
	out := c.out.AsFloat32()

	k := c.kernel
	for n := 0; n < c.batch; n++ {
		for f := 0; f < c.filters; f++ {
			for oy := 0; oy < c.outH; oy++ {
				for ox := 0; ox < c.outW; ox++ {
					sum := b[f]
					yStart := oy*c.stride - c.pad
					xStart := ox*c.stride - c.pad

					for ch := 0; ch < c.inC; ch++ {
						inPlane := in[(n*c.inC+ch)*c.inH*c.inW:]
						wPlane := w[(f*c.inC+ch)*k*k:]

						for ky := 0; ky < k; ky++ {
							y := yStart + ky
							if y < 0 || y >= c.inH {
								continue
							}
							for kx := 0; kx < k; kx++ {
								x := xStart + kx
								if x < 0 || x >= c.inW {
									continue
								}
								sum += inPlane[y*c.inW+x] * wPlane[ky*k+kx]
							}
						}
					}

					out[((n*c.filters+f)*c.outH+oy)*c.outW+ox] = sum
				}
			}
		}
	}
}

// Backward accumulates weight, bias, and input gradients.
func (c *Conv) Backward(net *Network) {
	pred := net.node(c.in)
	in := pred.Output().AsFloat32()
	inGrad := pred.OutputGrad().AsFloat32()
	w := c.weight.value.AsFloat32()
	wGrad := c.weight.grad.AsFloat32()
	bGrad := c.bias.grad.AsFloat32()
	g := c.grad.AsFloat32()

	k := c.kernel
	for n := 0; n < c.batch; n++ {
		for f := 0; f < c.filters; f++ {
			for oy := 0; oy < c.outH; oy++ {
				for ox := 0; ox < c.outW; ox++ {
					gv := g[((n*c.filters+f)*c.outH+oy)*c.outW+ox]
					bGrad[f] += gv
					yStart := oy*c.stride - c.pad
					xStart := ox*c.stride - c.pad

					for ch := 0; ch < c.inC; ch++ {
						planeOff := (n*c.inC + ch) * c.inH * c.inW
						wOff := (f*c.inC + ch) * k * k

						for ky := 0; ky < k; ky++ {
							y := yStart + ky
							if y < 0 || y >= c.inH {
								continue
							}
							for kx := 0; kx < k; kx++ {
								x := xStart + kx
								if x < 0 || x >= c.inW {
									continue
								}
								wGrad[wOff+ky*k+kx] += gv * in[planeOff+y*c.inW+x]
								inGrad[planeOff+y*c.inW+x] += gv * w[wOff+ky*k+kx]
							}
						}
					}
				}
			}
		}
	}
}

func (c *Conv) String() string {
	return fmt.Sprintf("Conv(filters=%d, kernel=%d, stride=%d, pad=%d)",
		c.filters, c.kernel, c.stride, c.pad)
}
