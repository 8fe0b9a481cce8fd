package nn

import (
	"fmt"
	"math/rand"

	"github.com/loom-ml/loom/internal/optim"
	"github.com/loom-ml/loom/internal/tensor"
)

// Network owns the full node graph and the training configuration.
//
// Nodes live in an arena in creation order, and creation order is the
// topological order: a factory method only accepts predecessors that
// already exist, so a node's inputs always precede it. Forward and
// backward traversals walk the arena directly; no separate topological
// sort is ever performed.
//
// A Network supports exclusive single-caller use only. There is no
// locking because there is no concurrent mutation.
type Network struct {
	nodes  []Node
	cfg    optim.Config
	sgd    *optim.SGD
	rng    *rand.Rand
	cursor int
}

// New creates an empty Network. The seed fixes parameter
// initialization, so identical seeds, dataset order, and Config
// reproduce identical training runs.
func New(seed int64) *Network {
	return &Network{
		sgd: optim.NewSGD(),
		rng: rand.New(rand.NewSource(seed)),
	}
}

// Config returns the mutable training configuration. The optimizer
// reads it on every update step, so changes take effect on the next
// minibatch.
func (net *Network) Config() *optim.Config {
	return &net.cfg
}

// node resolves a NodeID. An unknown ID is a contract failure.
func (net *Network) node(id NodeID) Node {
	if id < 0 || int(id) >= len(net.nodes) {
		panic(fmt.Sprintf("network: unknown node id %d (have %d nodes)", id, len(net.nodes)))
	}
	return net.nodes[id]
}

// append adds a node to the arena and returns its ID.
func (net *Network) append(n Node) NodeID {
	net.nodes = append(net.nodes, n)
	return NodeID(len(net.nodes) - 1)
}

// floatPred resolves a predecessor and checks it produces Float32
// data, panicking with the operator name otherwise. Wiring an operator
// to an incompatible predecessor is a graph-construction contract
// failure, surfaced immediately at build time.
func (net *Network) floatPred(op string, id NodeID) Node {
	n := net.node(id)
	if n.Output().Kind() != tensor.Float32 {
		panic(fmt.Sprintf("%s: predecessor %d has element kind %s, want float32", op, id, n.Output().Kind()))
	}
	return n
}

// CreateVariable adds an input/variable leaf of the given kind and
// shape. Its contents are bound externally by Train and Infer.
func (net *Network) CreateVariable(kind tensor.ElemKind, shape tensor.Shape) NodeID {
	return net.append(newVariable(kind, shape))
}

// CreateConv adds a convolution node over predecessor in with the
// given filter count, square kernel size, stride, and zero padding.
func (net *Network) CreateConv(in NodeID, filters, kernel, stride, pad int) NodeID {
	pred := net.floatPred("conv", in)
	return net.append(newConv(net, in, pred.Output().Shape(), filters, kernel, stride, pad))
}

// CreateReLU adds a rectifier node over predecessor in.
func (net *Network) CreateReLU(in NodeID) NodeID {
	pred := net.floatPred("relu", in)
	return net.append(newReLU(in, pred.Output().Shape()))
}

// CreateMaxPool adds a pooling node over predecessor in.
func (net *Network) CreateMaxPool(in NodeID, kind PoolKind, size, stride, pad int) NodeID {
	pred := net.floatPred("maxpool", in)
	return net.append(newMaxPool(in, pred.Output().Shape(), kind, size, stride, pad))
}

// CreateFullyConnected adds an affine node over predecessor in with
// the given output width. Inputs of rank above 2 are flattened per
// example.
func (net *Network) CreateFullyConnected(in NodeID, outDim int) NodeID {
	pred := net.floatPred("fullyconnected", in)
	return net.append(newFullyConnected(net, in, pred.Output().Shape(), outDim))
}

// CreateSoftMax adds a softmax-with-loss node over logits from in,
// paired with the expected-label Variable holding Index labels of
// shape [batch, 1].
func (net *Network) CreateSoftMax(in, expected NodeID) NodeID {
	pred := net.floatPred("softmax", in)
	exp := net.node(expected)
	if exp.Output().Kind() != tensor.Index {
		panic(fmt.Sprintf("softmax: expected-label node %d has element kind %s, want index",
			expected, exp.Output().Kind()))
	}
	return net.append(newSoftMax(pred.Output().Shape(), exp.Output().Shape(), in, expected))
}
