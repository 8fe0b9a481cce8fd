package nn

import (
	"fmt"

	"github.com/loom-ml/loom/internal/tensor"
)

// ReLU applies the elementwise rectifier f(x) = max(0, x).
//
// Backward passes the output gradient through unchanged wherever the
// forward input was positive and blocks it everywhere else.
type ReLU struct {
	in   NodeID
	out  *tensor.Tensor
	grad *tensor.Tensor
}

func newReLU(in NodeID, inShape tensor.Shape) *ReLU {
	return &ReLU{
		in:   in,
		out:  tensor.MustNew(tensor.Float32, inShape),
		grad: tensor.MustNew(tensor.Float32, inShape),
	}
}

// Output returns the activation tensor.
func (r *ReLU) Output() *tensor.Tensor { return r.out }

// OutputGrad returns the gradient buffer matching Output.
func (r *ReLU) OutputGrad() *tensor.Tensor { return r.grad }

// Forward computes max(0, x) elementwise.
func (r *ReLU) Forward(net *Network) {
	in := net.node(r.in).Output().AsFloat32()
	out := r.out.AsFloat32()
	for i, x := range in {
		if x > 0 {
			out[i] = x
		} else {
			out[i] = 0
		}
	}
}

// Backward routes the gradient only through positive inputs.
func (r *ReLU) Backward(net *Network) {
	pred := net.node(r.in)
	in := pred.Output().AsFloat32()
	inGrad := pred.OutputGrad().AsFloat32()
	g := r.grad.AsFloat32()
	for i, x := range in {
		if x > 0 {
			inGrad[i] += g[i]
		}
	}
}

func (r *ReLU) String() string {
	return fmt.Sprintf("ReLU(shape=%v)", r.out.Shape())
}
