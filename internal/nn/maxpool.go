package nn

import (
	"fmt"

	"github.com/loom-ml/loom/internal/tensor"
)

// PoolKind selects the pooling reduction.
type PoolKind int

// Supported pooling reductions.
const (
	PoolMax PoolKind = iota
	PoolAvg
)

// String returns a human-readable name for the pool kind.
func (k PoolKind) String() string {
	switch k {
	case PoolMax:
		return "max"
	case PoolAvg:
		return "avg"
	default:
		return "unknown"
	}
}

// MaxPool reduces each size×size window to a single value, per example
// and per channel.
//
// Input shape:  [batch, channels, height, width]
// Output shape: [batch, channels, outH, outW]
//
// with outH = (height + 2*pad - size)/stride + 1 and likewise for
// outW. For PoolMax the forward pass records the flat input position
// of each window's maximum; backward routes the whole window gradient
// to that position and nothing anywhere else. For PoolAvg every valid
// position receives an equal share 1/size² of the gradient. Padding
// positions never win a max and never receive gradient.
type MaxPool struct {
	kind   PoolKind
	in     NodeID
	size   int
	stride int
	pad    int

	batch, channels, inH, inW int
	outH, outW                int

	// argmax holds, per output element, the flat index into the input
	// of the forward maximum, or -1 for a window with no valid
	// position. Only maintained for PoolMax.
	argmax []int

	out  *tensor.Tensor
	grad *tensor.Tensor
}

func newMaxPool(in NodeID, inShape tensor.Shape, kind PoolKind, size, stride, pad int) *MaxPool {
	if kind != PoolMax && kind != PoolAvg {
		panic(fmt.Sprintf("maxpool: invalid pool kind %d", kind))
	}
	if size <= 0 {
		panic(fmt.Sprintf("maxpool: invalid window size %d", size))
	}
	if stride <= 0 {
		panic(fmt.Sprintf("maxpool: invalid stride %d", stride))
	}
	if pad < 0 {
		panic(fmt.Sprintf("maxpool: invalid padding %d", pad))
	}
	if len(inShape) != 4 {
		panic(fmt.Sprintf("maxpool: expected 4D input [N,C,H,W], got shape %v", inShape))
	}

	batch, channels, inH, inW := inShape[0], inShape[1], inShape[2], inShape[3]
	outH := (inH+2*pad-size)/stride + 1
	outW := (inW+2*pad-size)/stride + 1
	if outH <= 0 || outW <= 0 {
		panic(fmt.Sprintf("maxpool: invalid output size %dx%d for input %dx%d (size=%d, stride=%d, pad=%d)",
			outH, outW, inH, inW, size, stride, pad))
	}

	p := &MaxPool{
		kind:     kind,
		in:       in,
		size:     size,
		stride:   stride,
		pad:      pad,
		batch:    batch,
		channels: channels,
		inH:      inH,
		inW:      inW,
		outH:     outH,
		outW:     outW,
		out:      tensor.MustNew(tensor.Float32, tensor.Shape{batch, channels, outH, outW}),
		grad:     tensor.MustNew(tensor.Float32, tensor.Shape{batch, channels, outH, outW}),
	}
	if kind == PoolMax {
		p.argmax = make([]int, batch*channels*outH*outW)
	}
	return p
}

// Output returns the pooled tensor.
func (p *MaxPool) Output() *tensor.Tensor { return p.out }

// OutputGrad returns the gradient buffer matching Output.
func (p *MaxPool) OutputGrad() *tensor.Tensor { return p.grad }

// Forward reduces each window, recording argmax positions for PoolMax.
func (p *MaxPool) Forward(net *Network) {
	in := net.node(p.in).Output().AsFloat32()
	out := p.out.AsFloat32()

	outIdx := 0
	area := float32(p.size * p.size)
	for n := 0; n < p.batch; n++ {
		for ch := 0; ch < p.channels; ch++ {
			planeOff := (n*p.channels + ch) * p.inH * p.inW

			for oy := 0; oy < p.outH; oy++ {
				yStart := oy*p.stride - p.pad
				for ox := 0; ox < p.outW; ox++ {
					xStart := ox*p.stride - p.pad

					switch p.kind {
					case PoolMax:
						maxVal := float32(0)
						maxPos := -1
						for ky := 0; ky < p.size; ky++ {
							y := yStart + ky
							if y < 0 || y >= p.inH {
								continue
							}
							for kx := 0; kx < p.size; kx++ {
								x := xStart + kx
								if x < 0 || x >= p.inW {
									continue
								}
								v := in[planeOff+y*p.inW+x]
								if maxPos == -1 || v > maxVal {
									maxVal = v
									maxPos = planeOff + y*p.inW + x
								}
							}
						}
						p.argmax[outIdx] = maxPos
						if maxPos == -1 {
							maxVal = 0
						}
						out[outIdx] = maxVal

					case PoolAvg:
						sum := float32(0)
						for ky := 0; ky < p.size; ky++ {
							y := yStart + ky
							if y < 0 || y >= p.inH {
								continue
							}
							for kx := 0; kx < p.size; kx++ {
								x := xStart + kx
								if x < 0 || x >= p.inW {
									continue
								}
								sum += in[planeOff+y*p.inW+x]
							}
						}
						out[outIdx] = sum / area
					}

					outIdx++
				}
			}
		}
	}
}

// Backward routes gradients to the recorded argmax (PoolMax) or
// spreads them uniformly over the window (PoolAvg).
func (p *MaxPool) Backward(net *Network) {
	inGrad := net.node(p.in).OutputGrad().AsFloat32()
	g := p.grad.AsFloat32()

	switch p.kind {
	case PoolMax:
		for i, pos := range p.argmax {
			if pos >= 0 {
				inGrad[pos] += g[i]
			}
		}

	case PoolAvg:
		area := float32(p.size * p.size)
		outIdx := 0
		for n := 0; n < p.batch; n++ {
			for ch := 0; ch < p.channels; ch++ {
				planeOff := (n*p.channels + ch) * p.inH * p.inW

				for oy := 0; oy < p.outH; oy++ {
					yStart := oy*p.stride - p.pad
					for ox := 0; ox < p.outW; ox++ {
						xStart := ox*p.stride - p.pad
						share := g[outIdx] / area

						for ky := 0; ky < p.size; ky++ {
							y := yStart + ky
							if y < 0 || y >= p.inH {
								continue
							}
							for kx := 0; kx < p.size; kx++ {
								x := xStart + kx
								if x < 0 || x >= p.inW {
									continue
								}
								inGrad[planeOff+y*p.inW+x] += share
							}
						}
						outIdx++
					}
				}
			}
		}
	}
}

func (p *MaxPool) String() string {
	return fmt.Sprintf("MaxPool(kind=%s, size=%d, stride=%d, pad=%d)",
		p.kind, p.size, p.stride, p.pad)
}
