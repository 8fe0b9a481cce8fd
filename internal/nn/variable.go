package nn

import (
	"fmt"

	"github.com/loom-ml/loom/internal/tensor"
)

// Variable is a graph leaf whose output is bound externally: the
// Network copies caller data into it at the start of each training
// step or inference call. Forward and backward are no-ops.
//
// Float32 variables carry a gradient buffer so operators above them
// can deposit input gradients (the values are discarded, the buffer
// keeps backward uniform and makes input-gradient inspection possible
// in tests). Index variables hold labels and have no gradient.
type Variable struct {
	out  *tensor.Tensor
	grad *tensor.Tensor
}

func newVariable(kind tensor.ElemKind, shape tensor.Shape) *Variable {
	v := &Variable{
		out: tensor.MustNew(kind, shape),
	}
	if kind == tensor.Float32 {
		v.grad = tensor.MustNew(tensor.Float32, shape)
	}
	return v
}

// Output returns the variable's bound tensor.
func (v *Variable) Output() *tensor.Tensor { return v.out }

// OutputGrad returns the gradient buffer, or nil for Index variables.
func (v *Variable) OutputGrad() *tensor.Tensor { return v.grad }

// Forward is a no-op; the output is bound externally.
func (v *Variable) Forward(*Network) {}

// Backward is a no-op; a variable is a leaf.
func (v *Variable) Backward(*Network) {}

func (v *Variable) String() string {
	return fmt.Sprintf("Variable(kind=%s, shape=%v)", v.out.Kind(), v.out.Shape())
}
