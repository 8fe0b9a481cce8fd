package nn

import (
	"fmt"

	"k8s.io/klog/v2"

	"github.com/loom-ml/loom/internal/tensor"
)

// binding pairs an input Variable with a caller-owned dataset tensor
// for the duration of one Train or Infer call. The engine only ever
// reads from the dataset tensor; ownership stays with the caller.
type binding struct {
	node *Variable
	data *tensor.Tensor
}

// bind validates the parallel input-node and dataset-tensor sequences.
// Every input must be a Variable whose element kind and trailing
// dimensions match its dataset tensor, and the dataset tensors must
// agree on their leading (example count) dimension.
func (net *Network) bind(inputs []NodeID, data []*tensor.Tensor) ([]binding, error) {
	if len(inputs) != len(data) {
		return nil, fmt.Errorf("%w: %d input nodes bound to %d tensors",
			tensor.ErrShapeMismatch, len(inputs), len(data))
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: no input bindings", tensor.ErrShapeMismatch)
	}

	bindings := make([]binding, len(inputs))
	for i, id := range inputs {
		v, ok := net.node(id).(*Variable)
		if !ok {
			return nil, fmt.Errorf("%w: node %d is not a variable", tensor.ErrShapeMismatch, id)
		}
		d := data[i]
		if d == nil {
			return nil, fmt.Errorf("%w: nil tensor bound to node %d", tensor.ErrShapeMismatch, id)
		}
		if d.Kind() != v.out.Kind() {
			return nil, fmt.Errorf("%w: node %d expects %s data, got %s",
				tensor.ErrShapeMismatch, id, v.out.Kind(), d.Kind())
		}
		vs, ds := v.out.Shape(), d.Shape()
		if len(ds) != len(vs) || !ds[1:].Equal(vs[1:]) {
			return nil, fmt.Errorf("%w: node %d expects slices of shape %v, got %v",
				tensor.ErrShapeMismatch, id, vs[1:], ds[1:])
		}
		if ds[0] != data[0].Shape()[0] {
			return nil, fmt.Errorf("%w: dataset tensors disagree on example count: %d vs %d",
				tensor.ErrShapeMismatch, ds[0], data[0].Shape()[0])
		}
		bindings[i] = binding{node: v, data: d}
	}
	return bindings, nil
}

// copySlices copies a run of leading-dimension slices from src into
// dst, dispatching on element kind.
func copySlices(dst, src *tensor.Tensor, offset int) error {
	switch dst.Kind() {
	case tensor.Float32:
		return tensor.View[float32](dst).CopyConsecutiveSlices(src, offset)
	case tensor.Index:
		return tensor.View[uint64](dst).CopyConsecutiveSlices(src, offset)
	default:
		return fmt.Errorf("%w: unsupported element kind %s", tensor.ErrInvalidShape, dst.Kind())
	}
}

// forward runs every node's forward pass in arena (topological) order.
func (net *Network) forward() {
	for _, n := range net.nodes {
		n.Forward(net)
	}
}

// backward zeroes all activation gradients, then runs backward from
// root down in reverse arena order. The root node seeds the gradient
// chain itself (SoftMax computes its logits gradient from the bound
// expected labels).
func (net *Network) backward(root NodeID) {
	for _, n := range net.nodes {
		if g := n.OutputGrad(); g != nil {
			g.Zero()
		}
	}
	for id := root; id >= 0; id-- {
		net.nodes[id].Backward(net)
	}
}

// Train runs iterations minibatch steps against the caller-owned
// dataset tensors bound to the given input variables.
//
// Each step advances a cursor shared across Train calls by one
// minibatch (the leading dimension of the input variables) and copies
// the next run of examples into each bound variable. When the cursor
// would overrun the dataset it wraps to zero before copying, so a
// trailing run of examples smaller than one minibatch is skipped; the
// wrap is deterministic and depends only on dataset size, minibatch
// size, and the number of steps taken so far.
//
// After each forward/backward sweep the optimizer updates every
// trainable parameter once from its accumulated gradient, then the
// accumulators are zeroed.
func (net *Network) Train(root NodeID, iterations int, inputs []NodeID, data []*tensor.Tensor) error {
	bindings, err := net.bind(inputs, data)
	if err != nil {
		return err
	}

	minibatch := bindings[0].node.out.Shape()[0]
	for _, b := range bindings {
		if mb := b.node.out.Shape()[0]; mb != minibatch {
			return fmt.Errorf("%w: input variables disagree on minibatch size: %d vs %d",
				tensor.ErrShapeMismatch, mb, minibatch)
		}
	}
	numExamples := data[0].Shape()[0]
	if minibatch > numExamples {
		return fmt.Errorf("%w: minibatch %d exceeds dataset size %d",
			tensor.ErrShapeMismatch, minibatch, numExamples)
	}

	sm, _ := net.node(root).(*SoftMax)

	for iter := 0; iter < iterations; iter++ {
		if net.cursor+minibatch > numExamples {
			net.cursor = 0
		}
		for _, b := range bindings {
			if err := copySlices(b.node.out, b.data, net.cursor); err != nil {
				return err
			}
		}
		net.cursor += minibatch

		net.forward()
		net.backward(root)

		for _, n := range net.nodes {
			t, ok := n.(Trainable)
			if !ok {
				continue
			}
			for _, p := range t.Params() {
				net.sgd.Step(p.Value(), p.Grad(), &net.cfg)
				p.ZeroGrad()
			}
		}

		if sm != nil && klog.V(2).Enabled() {
			klog.Infof("train step %d: loss=%.6f", iter, sm.Loss())
		}
	}
	return nil
}

// Infer binds the given tensors directly to the input variables (the
// caller controls the batch dimension, which must equal each
// variable's configured minibatch), runs forward only, and returns the
// root node's output tensor. The returned tensor remains owned by the
// Network; callers must copy it to retain it across calls.
func (net *Network) Infer(root NodeID, inputs []NodeID, data []*tensor.Tensor) (*tensor.Tensor, error) {
	bindings, err := net.bind(inputs, data)
	if err != nil {
		return nil, err
	}
	for _, b := range bindings {
		if !b.data.Shape().Equal(b.node.out.Shape()) {
			return nil, fmt.Errorf("%w: inference data shape %v does not match variable shape %v",
				tensor.ErrShapeMismatch, b.data.Shape(), b.node.out.Shape())
		}
		if err := b.node.out.CopyFrom(b.data); err != nil {
			return nil, err
		}
	}

	net.forward()
	return net.node(root).Output(), nil
}
