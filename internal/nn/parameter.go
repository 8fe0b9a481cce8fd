package nn

import "github.com/loom-ml/loom/internal/tensor"

// Parameter is a trainable tensor (a weight or bias) together with its
// gradient accumulator of identical shape. Backward passes accumulate
// into Grad across a whole minibatch; the Network zeroes the
// accumulator immediately after each optimizer step.
type Parameter struct {
	name  string
	value *tensor.Tensor
	grad  *tensor.Tensor
}

// NewParameter wraps an initialized value tensor and allocates its
// zeroed gradient accumulator.
func NewParameter(name string, value *tensor.Tensor) *Parameter {
	return &Parameter{
		name:  name,
		value: value,
		grad:  tensor.MustNew(value.Kind(), value.Shape()),
	}
}

// Name returns the parameter name (e.g. "conv.weight").
func (p *Parameter) Name() string {
	return p.name
}

// Value returns the parameter tensor.
func (p *Parameter) Value() *tensor.Tensor {
	return p.value
}

// Grad returns the gradient accumulator.
func (p *Parameter) Grad() *tensor.Tensor {
	return p.grad
}

// ZeroGrad clears the gradient accumulator.
func (p *Parameter) ZeroGrad() {
	p.grad.Zero()
}
