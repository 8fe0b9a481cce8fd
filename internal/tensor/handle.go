package tensor

import "fmt"

// Handle is a typed, non-owning accessor bound to one Tensor. It
// computes linear offsets from multi-dimensional indices in row-major
// order (last listed dimension varies fastest) and bounds-checks every
// access. A single generic Handle serves every element kind; the type
// parameter must agree with the tensor's ElemKind.
//
// Example:
//
//	t := tensor.MustNew(tensor.Float32, tensor.Shape{8, 3, 32, 32})
//	h := tensor.View[float32](t)
//	h.Set(0.5, 0, 2, 31, 31)
//	v := h.At(0, 2, 31, 31)
type Handle[T Elem] struct {
	t       *Tensor
	data    []T
	strides []int
}

// View creates a Handle over t. Panics if T does not match the
// tensor's element kind; a mistyped view is a contract failure, not a
// recoverable condition.
func View[T Elem](t *Tensor) Handle[T] {
	if want := kindOf[T](); t.kind != want {
		panic(fmt.Sprintf("handle: tensor kind is %s, view requested as %s", t.kind, want))
	}

	var data []T
	switch any(*new(T)).(type) {
	case float32:
		data = any(t.AsFloat32()).([]T)
	case uint64:
		data = any(t.AsIndex()).([]T)
	}

	return Handle[T]{
		t:       t,
		data:    data,
		strides: t.shape.ComputeStrides(),
	}
}

// Tensor returns the tensor this handle is bound to.
func (h Handle[T]) Tensor() *Tensor {
	return h.t
}

// offset converts a multi-dimensional index to a linear offset,
// panicking on any out-of-bounds component.
func (h Handle[T]) offset(ix []int) int {
	if len(ix) != len(h.t.shape) {
		panic(fmt.Sprintf("handle: expected %d indices, got %d", len(h.t.shape), len(ix)))
	}
	off := 0
	for i, idx := range ix {
		if idx < 0 || idx >= h.t.shape[i] {
			panic(fmt.Sprintf("handle: index %d out of bounds for dimension %d (size %d)",
				idx, i, h.t.shape[i]))
		}
		off += idx * h.strides[i]
	}
	return off
}

// At returns the element at the given indices.
// Panics if any index exceeds its dimension's bound.
func (h Handle[T]) At(ix ...int) T {
	return h.data[h.offset(ix)]
}

// Set stores value at the given indices.
// Panics if any index exceeds its dimension's bound.
func (h Handle[T]) Set(value T, ix ...int) {
	h.data[h.offset(ix)] = value
}

// Data returns the underlying element slice in row-major order.
// Modifications to the returned slice modify the tensor.
func (h Handle[T]) Data() []T {
	return h.data
}

// Fill sets every element to value.
func (h Handle[T]) Fill(value T) {
	for i := range h.data {
		h.data[i] = value
	}
}

// sliceSize returns the number of elements in one leading-dimension
// slice.
func (h Handle[T]) sliceSize() int {
	return h.t.NumElements() / h.t.shape[0]
}

// ExtractSlice copies the i-th leading-dimension slice into a new
// Tensor of rank one lower (a rank-1 source yields shape {1}). The
// result never aliases the source storage.
func (h Handle[T]) ExtractSlice(i int) (*Tensor, error) {
	lead := h.t.shape[0]
	if i < 0 || i >= lead {
		return nil, fmt.Errorf("%w: slice %d of tensor with leading dimension %d", ErrOutOfBounds, i, lead)
	}

	var shape Shape
	if len(h.t.shape) > 1 {
		shape = h.t.shape[1:].Clone()
	} else {
		shape = Shape{1}
	}

	out, err := New(h.t.kind, shape)
	if err != nil {
		return nil, err
	}
	n := h.sliceSize()
	copy(View[T](out).data, h.data[i*n:(i+1)*n])
	return out, nil
}

// CopyConsecutiveSlices fills this handle's tensor with
// leadingDim(dst) consecutive leading-dimension slices of src,
// starting at offset. It fails with ErrShapeMismatch if kinds or
// trailing dimensions differ, and with ErrOutOfBounds if the run
// extends past src's leading dimension.
func (h Handle[T]) CopyConsecutiveSlices(src *Tensor, offset int) error {
	if src.kind != h.t.kind {
		return fmt.Errorf("%w: element kind %s vs %s", ErrShapeMismatch, h.t.kind, src.kind)
	}
	if len(src.shape) != len(h.t.shape) || !src.shape[1:].Equal(h.t.shape[1:]) {
		return fmt.Errorf("%w: slice shape %v vs %v", ErrShapeMismatch, h.t.shape[1:], src.shape[1:])
	}
	want := h.t.shape[0]
	if offset < 0 || offset+want > src.shape[0] {
		return fmt.Errorf("%w: slices [%d, %d) of tensor with leading dimension %d",
			ErrOutOfBounds, offset, offset+want, src.shape[0])
	}

	n := h.sliceSize()
	copy(h.data, View[T](src).data[offset*n:(offset+want)*n])
	return nil
}

// MaxArg returns the linear position of the maximum element, ties
// broken by lowest index. It fails with ErrEmptyTensor if the tensor
// has no elements.
func (h Handle[T]) MaxArg() (int, error) {
	if len(h.data) == 0 {
		return 0, fmt.Errorf("%w: maxArg over zero elements", ErrEmptyTensor)
	}
	maxIdx := 0
	maxVal := h.data[0]
	for i := 1; i < len(h.data); i++ {
		if h.data[i] > maxVal {
			maxVal = h.data[i]
			maxIdx = i
		}
	}
	return maxIdx, nil
}
