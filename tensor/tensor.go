// Copyright 2026 Loom ML Engine. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the public API for Loom's dense typed
// containers: Tensor, Shape, ElemKind, and the bounds-checked Handle
// accessor.
//
// Example:
//
//	images := tensor.MustNew(tensor.Float32, tensor.Shape{10000, 3, 32, 32})
//	h := tensor.View[float32](images)
//	h.Set(0.5, 0, 2, 31, 31)
package tensor

import (
	"github.com/loom-ml/loom/internal/tensor"
)

// Shape represents the dimensions of a tensor.
type Shape = tensor.Shape

// ElemKind is the runtime element type of a Tensor.
type ElemKind = tensor.ElemKind

// Supported element kinds.
const (
	Float32 ElemKind = tensor.Float32
	Index   ElemKind = tensor.Index
)

// Tensor is a dense N-dimensional buffer with an explicit shape and
// element kind.
type Tensor = tensor.Tensor

// Elem is the constraint satisfied by Go types a Handle can view a
// Tensor through.
type Elem = tensor.Elem

// Handle is a typed, bounds-checked, non-owning accessor over one
// Tensor.
type Handle[T Elem] = tensor.Handle[T]

// Error conditions reported by the tensor layer.
var (
	ErrInvalidShape  = tensor.ErrInvalidShape
	ErrOutOfBounds   = tensor.ErrOutOfBounds
	ErrEmptyTensor   = tensor.ErrEmptyTensor
	ErrShapeMismatch = tensor.ErrShapeMismatch
)

// New creates a zero-initialized Tensor with the given kind and shape.
func New(kind ElemKind, shape Shape) (*Tensor, error) {
	return tensor.New(kind, shape)
}

// MustNew is like New but panics on error.
func MustNew(kind ElemKind, shape Shape) *Tensor {
	return tensor.MustNew(kind, shape)
}

// View creates a Handle over t. Panics if T does not match the
// tensor's element kind.
func View[T Elem](t *Tensor) Handle[T] {
	return tensor.View[T](t)
}
