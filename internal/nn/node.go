// Package nn implements the computation graph: polymorphic operator
// nodes with hand-derived forward and backward passes, and the Network
// that owns them and orchestrates minibatch training and inference.
package nn

import "github.com/loom-ml/loom/internal/tensor"

// NodeID is a stable index into a Network's node arena. Nodes refer to
// their predecessors by NodeID rather than by pointer; the Network is
// the sole owner of every node and the single authority over lifetime.
type NodeID int

// Node is one operator instance in the computation graph. Every node
// has exactly one primary output tensor, owned by the node for the
// lifetime of the Network.
//
// Forward recomputes the output from the predecessors' outputs.
// Backward consumes the gradient of the loss with respect to this
// node's output (OutputGrad) and accumulates gradients into the
// predecessors' OutputGrad buffers and, for trainable nodes, into
// parameter gradient accumulators. The Network guarantees Forward runs
// in arena order and Backward in reverse arena order, so predecessor
// outputs are always current.
type Node interface {
	// Output returns the node's output tensor.
	Output() *tensor.Tensor

	// OutputGrad returns the gradient buffer matching Output, or nil
	// for nodes that cannot receive a gradient (Index variables).
	OutputGrad() *tensor.Tensor

	// Forward recomputes the output tensor.
	Forward(net *Network)

	// Backward propagates OutputGrad to predecessors and parameters.
	Backward(net *Network)

	// String describes the node and its configuration.
	String() string
}

// Trainable is implemented by nodes that own parameters updated by the
// optimizer (Conv, FullyConnected).
type Trainable interface {
	Node

	// Params returns the node's trainable parameters.
	Params() []*Parameter
}
