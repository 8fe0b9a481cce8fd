package nn

import (
	"testing"

	"github.com/loom-ml/loom/internal/tensor"
)

func TestMaxPool_OutputSize(t *testing.T) {
	tests := []struct {
		inH, inW             int
		size, stride, pad    int
		expectedH, expectedW int
	}{
		{32, 32, 2, 2, 0, 16, 16},
		{16, 16, 2, 2, 0, 8, 8},
		{8, 8, 3, 2, 0, 3, 3},
		{7, 7, 3, 2, 1, 4, 4},
	}

	for _, tt := range tests {
		net := New(1)
		in := net.CreateVariable(tensor.Float32, tensor.Shape{1, 2, tt.inH, tt.inW})
		mp := net.CreateMaxPool(in, PoolMax, tt.size, tt.stride, tt.pad)

		want := tensor.Shape{1, 2, tt.expectedH, tt.expectedW}
		got := net.node(mp).Output().Shape()
		if !got.Equal(want) {
			t.Errorf("maxpool(size=%d, s=%d, p=%d) over %dx%d: expected shape %v, got %v",
				tt.size, tt.stride, tt.pad, tt.inH, tt.inW, want, got)
		}
	}
}

func TestMaxPool_ForwardValues(t *testing.T) {
	net := New(1)
	in := net.CreateVariable(tensor.Float32, tensor.Shape{1, 1, 4, 4})
	mp := net.CreateMaxPool(in, PoolMax, 2, 2, 0)
	pool := net.node(mp).(*MaxPool)

	inData := net.node(in).Output().AsFloat32()
	copy(inData, []float32{
		1, 2, 5, 6,
		3, 4, 7, 8,
		9, 1, 2, 3,
		1, 1, 4, 1,
	})

	net.forward()

	expected := []float32{4, 8, 9, 4}
	out := pool.out.AsFloat32()
	for i, exp := range expected {
		if out[i] != exp {
			t.Errorf("output[%d]: expected %.1f, got %.1f", i, exp, out[i])
		}
	}
}

func TestMaxPool_BackwardRouting(t *testing.T) {
	net := New(1)
	in := net.CreateVariable(tensor.Float32, tensor.Shape{1, 1, 4, 4})
	mp := net.CreateMaxPool(in, PoolMax, 2, 2, 0)
	pool := net.node(mp).(*MaxPool)
	input := net.node(in).(*Variable)

	// Unique values so every window has one unambiguous maximum.
	inData := input.out.AsFloat32()
	for i := range inData {
		inData[i] = float32(i)
	}

	net.forward()

	zeroActivationGrads(net)
	copy(pool.grad.AsFloat32(), []float32{1, 2, 3, 4})
	pool.Backward(net)

	// Each window's maximum sits at its bottom-right corner here.
	inGrad := input.grad.AsFloat32()
	routed := map[int]float32{5: 1, 7: 2, 13: 3, 15: 4}
	for i, g := range inGrad {
		if exp, ok := routed[i]; ok {
			if g != exp {
				t.Errorf("input grad [%d]: expected %.1f, got %.1f", i, exp, g)
			}
		} else if g != 0 {
			t.Errorf("input grad [%d]: expected 0 (not a window max), got %.1f", i, g)
		}
	}
}

func TestMaxPool_Padding(t *testing.T) {
	net := New(1)
	in := net.CreateVariable(tensor.Float32, tensor.Shape{1, 1, 2, 2})
	mp := net.CreateMaxPool(in, PoolMax, 2, 2, 1)
	pool := net.node(mp).(*MaxPool)

	inData := net.node(in).Output().AsFloat32()
	copy(inData, []float32{-1, -2, -3, -4})

	net.forward()

	// Every padded window covers exactly one real element, and padding
	// never wins even when all inputs are negative.
	expected := []float32{-1, -2, -3, -4}
	out := pool.out.AsFloat32()
	for i, exp := range expected {
		if out[i] != exp {
			t.Errorf("output[%d]: expected %.1f, got %.1f", i, exp, out[i])
		}
	}
}

func TestAvgPool_ForwardBackward(t *testing.T) {
	net := New(1)
	in := net.CreateVariable(tensor.Float32, tensor.Shape{1, 1, 4, 4})
	mp := net.CreateMaxPool(in, PoolAvg, 2, 2, 0)
	pool := net.node(mp).(*MaxPool)
	input := net.node(in).(*Variable)

	inData := input.out.AsFloat32()
	for i := range inData {
		inData[i] = float32(i)
	}

	net.forward()

	// Window {0,1,4,5} averages to 2.5, and so on.
	expected := []float32{2.5, 4.5, 10.5, 12.5}
	out := pool.out.AsFloat32()
	for i, exp := range expected {
		if out[i] != exp {
			t.Errorf("output[%d]: expected %.2f, got %.2f", i, exp, out[i])
		}
	}

	zeroActivationGrads(net)
	copy(pool.grad.AsFloat32(), []float32{4, 4, 4, 4})
	pool.Backward(net)

	// Average pooling spreads each window's gradient evenly.
	for i, g := range input.grad.AsFloat32() {
		if g != 1 {
			t.Errorf("input grad [%d]: expected 1, got %.2f", i, g)
		}
	}
}

func TestMaxPool_InvalidConfig(t *testing.T) {
	net := New(1)
	in := net.CreateVariable(tensor.Float32, tensor.Shape{1, 1, 4, 4})

	for _, fn := range []func(){
		func() { net.CreateMaxPool(in, PoolMax, 0, 2, 0) },
		func() { net.CreateMaxPool(in, PoolMax, 2, 0, 0) },
		func() { net.CreateMaxPool(in, PoolMax, 2, 2, -1) },
		func() { net.CreateMaxPool(in, PoolMax, 9, 1, 0) },
		func() { net.CreateMaxPool(in, PoolKind(9), 2, 2, 0) },
	} {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("expected panic for invalid pool configuration")
				}
			}()
			fn()
		}()
	}
}
