// Copyright 2026 Loom ML Engine. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides the public API for Loom's computation graph: the
// Network that owns all operator nodes and orchestrates minibatch
// training and inference.
//
// Example:
//
//	net := nn.New(42)
//	net.Config().LearningRate = 0.001
//	net.Config().Momentum = 0.9
//	net.Config().L2Decay = 0.0001
//
//	in := net.CreateVariable(tensor.Float32, tensor.Shape{8, 3, 32, 32})
//	labels := net.CreateVariable(tensor.Index, tensor.Shape{8, 1})
//	cv := net.CreateConv(in, 16, 5, 1, 2)
//	rl := net.CreateReLU(cv)
//	mp := net.CreateMaxPool(rl, nn.PoolMax, 2, 2, 0)
//	fc := net.CreateFullyConnected(mp, 10)
//	sm := net.CreateSoftMax(fc, labels)
//
//	err := net.Train(sm, 256, []nn.NodeID{in, labels}, []*tensor.Tensor{images, labelData})
package nn

import (
	"github.com/loom-ml/loom/internal/nn"
)

// NodeID is a stable index into a Network's node arena.
type NodeID = nn.NodeID

// Node is one operator instance in the computation graph.
type Node = nn.Node

// Trainable is implemented by nodes owning optimizer-updated
// parameters.
type Trainable = nn.Trainable

// Parameter is a trainable tensor with its gradient accumulator.
type Parameter = nn.Parameter

// Network owns the full node graph and the training configuration.
type Network = nn.Network

// PoolKind selects the pooling reduction.
type PoolKind = nn.PoolKind

// Supported pooling reductions.
const (
	PoolMax PoolKind = nn.PoolMax
	PoolAvg PoolKind = nn.PoolAvg
)

// New creates an empty Network seeded for reproducible parameter
// initialization.
func New(seed int64) *Network {
	return nn.New(seed)
}
