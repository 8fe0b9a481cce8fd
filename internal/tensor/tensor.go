package tensor

import (
	"errors"
	"fmt"
	"unsafe"
)

// Error conditions reported by the tensor layer. All of them are
// detected at construction or bind time and are never retried.
var (
	// ErrInvalidShape reports a zero or missing dimension, or an
	// unsupported element kind, at construction time.
	ErrInvalidShape = errors.New("invalid shape")

	// ErrOutOfBounds reports an index or slice range that exceeds a
	// tensor's extent.
	ErrOutOfBounds = errors.New("out of bounds")

	// ErrEmptyTensor reports a reduction over a zero-element tensor.
	ErrEmptyTensor = errors.New("empty tensor")

	// ErrShapeMismatch reports an operand whose shape or element kind
	// is incompatible with the operation's configuration.
	ErrShapeMismatch = errors.New("shape mismatch")
)

// Tensor is a dense N-dimensional buffer with an explicit shape and
// element kind. The shape is immutable after construction; element data
// is mutated exclusively through a Handle.
type Tensor struct {
	shape Shape
	kind  ElemKind
	data  []byte
}

// New creates a zero-initialized Tensor with the given kind and shape.
// It fails with ErrInvalidShape if any dimension is zero or the kind is
// unsupported.
func New(kind ElemKind, shape Shape) (*Tensor, error) {
	if !kind.valid() {
		return nil, fmt.Errorf("%w: unsupported element kind %d", ErrInvalidShape, kind)
	}
	if err := shape.Validate(); err != nil {
		return nil, err
	}

	return &Tensor{
		shape: shape.Clone(),
		kind:  kind,
		data:  make([]byte, shape.NumElements()*kind.Size()),
	}, nil
}

// MustNew is like New but panics on error. It is intended for shapes
// the engine has already validated, such as operator output sizing.
func MustNew(kind ElemKind, shape Shape) *Tensor {
	t, err := New(kind, shape)
	if err != nil {
		panic(err)
	}
	return t
}

// Shape returns the tensor's shape.
func (t *Tensor) Shape() Shape {
	return t.shape
}

// Kind returns the tensor's element kind.
func (t *Tensor) Kind() ElemKind {
	return t.kind
}

// NumElements returns the total number of elements.
func (t *Tensor) NumElements() int {
	return t.shape.NumElements()
}

// ByteSize returns the total storage size in bytes. It always equals
// NumElements() * Kind().Size().
func (t *Tensor) ByteSize() int {
	return len(t.data)
}

// Zero resets every element to zero.
func (t *Tensor) Zero() {
	clear(t.data)
}

// Clone creates a deep copy of the tensor.
func (t *Tensor) Clone() *Tensor {
	c := &Tensor{
		shape: t.shape.Clone(),
		kind:  t.kind,
		data:  make([]byte, len(t.data)),
	}
	copy(c.data, t.data)
	return c
}

// CopyFrom overwrites this tensor's storage with src's. It fails with
// ErrShapeMismatch unless shapes and kinds are identical.
func (t *Tensor) CopyFrom(src *Tensor) error {
	if t.kind != src.kind {
		return fmt.Errorf("%w: element kind %s vs %s", ErrShapeMismatch, t.kind, src.kind)
	}
	if !t.shape.Equal(src.shape) {
		return fmt.Errorf("%w: shape %v vs %v", ErrShapeMismatch, t.shape, src.shape)
	}
	copy(t.data, src.data)
	return nil
}

// AsFloat32 interprets the storage as []float32.
// Panics if the tensor's kind is not Float32.
func (t *Tensor) AsFloat32() []float32 {
	if t.kind != Float32 {
		panic(fmt.Sprintf("tensor kind is %s, not float32", t.kind))
	}
	//nolint:gosec // unsafe.Slice for zero-copy access, bounds fixed by NumElements()
	return unsafe.Slice((*float32)(unsafe.Pointer(&t.data[0])), t.NumElements())
}

// AsIndex interprets the storage as []uint64.
// Panics if the tensor's kind is not Index.
func (t *Tensor) AsIndex() []uint64 {
	if t.kind != Index {
		panic(fmt.Sprintf("tensor kind is %s, not index", t.kind))
	}
	//nolint:gosec // unsafe.Slice for zero-copy access, bounds fixed by NumElements()
	return unsafe.Slice((*uint64)(unsafe.Pointer(&t.data[0])), t.NumElements())
}

// String returns a human-readable representation of the tensor.
func (t *Tensor) String() string {
	return fmt.Sprintf("Tensor[%s]%v", t.kind, t.shape)
}
