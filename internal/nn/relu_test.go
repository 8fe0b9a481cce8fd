package nn

import (
	"testing"

	"github.com/loom-ml/loom/internal/tensor"
)

func TestReLU_Forward(t *testing.T) {
	net := New(1)
	in := net.CreateVariable(tensor.Float32, tensor.Shape{2, 3})
	id := net.CreateReLU(in)
	relu := net.node(id).(*ReLU)

	inData := net.node(in).Output().AsFloat32()
	copy(inData, []float32{-1, 0, 2.5, -0.1, 7, -3})

	net.forward()

	expected := []float32{0, 0, 2.5, 0, 7, 0}
	out := relu.out.AsFloat32()
	for i, exp := range expected {
		if out[i] != exp {
			t.Errorf("output[%d]: expected %.1f, got %.1f", i, exp, out[i])
		}
	}
}

func TestReLU_Backward(t *testing.T) {
	net := New(1)
	in := net.CreateVariable(tensor.Float32, tensor.Shape{1, 4})
	id := net.CreateReLU(in)
	relu := net.node(id).(*ReLU)
	input := net.node(in).(*Variable)

	copy(input.out.AsFloat32(), []float32{-2, 0, 1, 3})
	net.forward()

	zeroActivationGrads(net)
	copy(relu.grad.AsFloat32(), []float32{10, 20, 30, 40})
	relu.Backward(net)

	// Gradient passes only where the input was strictly positive.
	expected := []float32{0, 0, 30, 40}
	for i, exp := range expected {
		if g := input.grad.AsFloat32()[i]; g != exp {
			t.Errorf("input grad [%d]: expected %.1f, got %.1f", i, exp, g)
		}
	}
}
