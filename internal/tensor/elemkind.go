// Package tensor provides the dense typed containers the Loom engine
// computes over: Tensor, its Shape, and the bounds-checked Handle accessor.
package tensor

// ElemKind is the runtime element type of a Tensor.
type ElemKind int

// Supported element kinds.
//
// Float32 is the single floating-point kind used for activations,
// parameters, and gradients. Index holds class labels and other
// unsigned positions.
const (
	Float32 ElemKind = iota
	Index
)

// Size returns the byte width of one element of this kind.
func (k ElemKind) Size() int {
	switch k {
	case Float32:
		return 4
	case Index:
		return 8
	default:
		panic("unknown element kind")
	}
}

// String returns a human-readable name for the element kind.
func (k ElemKind) String() string {
	switch k {
	case Float32:
		return "float32"
	case Index:
		return "index"
	default:
		return "unknown"
	}
}

// valid reports whether k is one of the supported kinds.
func (k ElemKind) valid() bool {
	return k == Float32 || k == Index
}

// Elem is the constraint satisfied by Go types a Handle can view a
// Tensor through. It mirrors the ElemKind constants: float32 for
// Float32, uint64 for Index.
type Elem interface {
	~float32 | ~uint64
}

// kindOf returns the ElemKind corresponding to the Go type T.
func kindOf[T Elem]() ElemKind {
	var dummy T
	switch any(dummy).(type) {
	case float32:
		return Float32
	case uint64:
		return Index
	default:
		panic("unsupported element type")
	}
}
