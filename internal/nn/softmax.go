package nn

import (
	"fmt"
	"math"

	"github.com/loom-ml/loom/internal/tensor"
)

// SoftMax normalizes logits over the class axis and, paired with an
// expected-label Variable, produces the mean negative log-likelihood of
// the minibatch as a scalar loss.
//
// Input shape:    [batch, classes] (logits)
// Expected shape: [batch, 1] (Index class labels)
// Output shape:   [batch, classes] (probabilities)
//
// The forward pass uses the log-sum-exp trick so large logits cannot
// overflow float32. As the graph root, backward seeds the gradient
// chain itself: dLogits = (softmax − one-hot(expected)) / batch.
type SoftMax struct {
	in       NodeID
	expected NodeID

	batch, classes int

	out  *tensor.Tensor // probabilities
	grad *tensor.Tensor
	loss float32
}

func newSoftMax(inShape, expectedShape tensor.Shape, in, expected NodeID) *SoftMax {
	if len(inShape) != 2 {
		panic(fmt.Sprintf("softmax: expected 2D logits [batch, classes], got shape %v", inShape))
	}
	if len(expectedShape) != 2 || expectedShape[1] != 1 || expectedShape[0] != inShape[0] {
		panic(fmt.Sprintf("softmax: expected labels of shape [%d, 1], got %v", inShape[0], expectedShape))
	}

	return &SoftMax{
		in:       in,
		expected: expected,
		batch:    inShape[0],
		classes:  inShape[1],
		out:      tensor.MustNew(tensor.Float32, inShape.Clone()),
		grad:     tensor.MustNew(tensor.Float32, inShape.Clone()),
	}
}

// Output returns the [batch, classes] probability tensor.
func (s *SoftMax) Output() *tensor.Tensor { return s.out }

// OutputGrad returns the gradient buffer matching Output. As the loss
// root it is unused by the training traversal.
func (s *SoftMax) OutputGrad() *tensor.Tensor { return s.grad }

// Loss returns the mean negative log-likelihood from the most recent
// forward pass.
func (s *SoftMax) Loss() float32 { return s.loss }

// Forward computes row-wise softmax and the minibatch loss.
func (s *SoftMax) Forward(net *Network) {
	logits := net.node(s.in).Output().AsFloat32()
	labels := net.node(s.expected).Output().AsIndex()
	out := s.out.AsFloat32()

	total := float32(0)
	for n := 0; n < s.batch; n++ {
		row := logits[n*s.classes : (n+1)*s.classes]
		probs := out[n*s.classes : (n+1)*s.classes]

		logProbs := logSoftmax(row)
		for i, lp := range logProbs {
			probs[i] = float32(math.Exp(float64(lp)))
		}

		label := int(labels[n])
		if label < 0 || label >= s.classes {
			panic(fmt.Sprintf("softmax: label %d out of range [0, %d)", label, s.classes))
		}
		total += -logProbs[label]
	}
	s.loss = total / float32(s.batch)
}

// Backward seeds the logits gradient (softmax − one-hot)/batch.
func (s *SoftMax) Backward(net *Network) {
	inGrad := net.node(s.in).OutputGrad().AsFloat32()
	labels := net.node(s.expected).Output().AsIndex()
	out := s.out.AsFloat32()

	inv := 1 / float32(s.batch)
	for n := 0; n < s.batch; n++ {
		label := int(labels[n])
		for i := 0; i < s.classes; i++ {
			g := out[n*s.classes+i]
			if i == label {
				g -= 1
			}
			inGrad[n*s.classes+i] += g * inv
		}
	}
}

func (s *SoftMax) String() string {
	return fmt.Sprintf("SoftMaxWithLoss(classes=%d)", s.classes)
}

// logSoftmax computes log(softmax(z)) with the log-sum-exp trick:
// LogSoftmax(z)[i] = z[i] − (max(z) + log(Σ exp(z − max(z)))).
func logSoftmax(z []float32) []float32 {
	result := make([]float32, len(z))

	maxZ := z[0]
	for _, v := range z[1:] {
		if v > maxZ {
			maxZ = v
		}
	}

	sumExp := float32(0)
	for _, v := range z {
		sumExp += float32(math.Exp(float64(v - maxZ)))
	}
	logSumExp := maxZ + float32(math.Log(float64(sumExp)))

	for i, v := range z {
		result[i] = v - logSumExp
	}
	return result
}
