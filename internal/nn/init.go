package nn

import (
	"math"
	"math/rand"

	"github.com/loom-ml/loom/internal/tensor"
)

// xavier creates a Float32 tensor initialized from the Xavier/Glorot
// uniform distribution U(-b, b) with b = sqrt(6/(fanIn+fanOut)).
//
// The Network's seeded rand.Rand is threaded through so that identical
// seeds reproduce identical parameter initialization.
func xavier(rng *rand.Rand, fanIn, fanOut int, shape tensor.Shape) *tensor.Tensor {
	bound := math.Sqrt(6.0 / float64(fanIn+fanOut))

	t := tensor.MustNew(tensor.Float32, shape)
	data := t.AsFloat32()
	for i := range data {
		data[i] = float32((rng.Float64()*2.0 - 1.0) * bound)
	}
	return t
}
