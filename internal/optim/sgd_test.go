package optim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loom-ml/loom/internal/tensor"
)

func TestSGD_UpdateRule(t *testing.T) {
	cfg := &Config{LearningRate: 0.01, Momentum: 0.9, L2Decay: 0.0001}

	value := tensor.MustNew(tensor.Float32, tensor.Shape{2})
	grad := tensor.MustNew(tensor.Float32, tensor.Shape{2})
	copy(value.AsFloat32(), []float32{1.0, -2.0})
	copy(grad.AsFloat32(), []float32{0.5, -0.25})

	s := NewSGD()
	s.Step(value, grad, cfg)

	// g' = g + λ·w; v = µ·0 − η·g'; w = w + v
	var want [2]float32
	w := [2]float32{1.0, -2.0}
	g := [2]float32{0.5, -0.25}
	var v [2]float32
	for i := range w {
		gp := g[i] + cfg.L2Decay*w[i]
		v[i] = -cfg.LearningRate * gp
		want[i] = w[i] + v[i]
	}
	assert.InDelta(t, want[0], value.AsFloat32()[0], 1e-7)
	assert.InDelta(t, want[1], value.AsFloat32()[1], 1e-7)

	// Second step folds the momentum buffer in.
	s.Step(value, grad, cfg)
	for i := range want {
		gp := g[i] + cfg.L2Decay*want[i]
		v[i] = cfg.Momentum*v[i] - cfg.LearningRate*gp
		want[i] += v[i]
	}
	assert.InDelta(t, want[0], value.AsFloat32()[0], 1e-6)
	assert.InDelta(t, want[1], value.AsFloat32()[1], 1e-6)

	vel := s.Velocity(value)
	require.NotNil(t, vel)
	assert.InDelta(t, v[0], vel.AsFloat32()[0], 1e-6)
	assert.InDelta(t, v[1], vel.AsFloat32()[1], 1e-6)
}

func TestSGD_VelocityAllocatedLazily(t *testing.T) {
	s := NewSGD()
	value := tensor.MustNew(tensor.Float32, tensor.Shape{3})
	assert.Nil(t, s.Velocity(value))

	grad := tensor.MustNew(tensor.Float32, tensor.Shape{3})
	s.Step(value, grad, &Config{LearningRate: 0.1})
	require.NotNil(t, s.Velocity(value))
	assert.True(t, s.Velocity(value).Shape().Equal(value.Shape()))
}

func TestSGD_ZeroDecayZeroMomentum(t *testing.T) {
	// Plain SGD: w -= η·g.
	cfg := &Config{LearningRate: 0.5}
	value := tensor.MustNew(tensor.Float32, tensor.Shape{1})
	grad := tensor.MustNew(tensor.Float32, tensor.Shape{1})
	value.AsFloat32()[0] = 3
	grad.AsFloat32()[0] = 2

	NewSGD().Step(value, grad, cfg)
	assert.InDelta(t, 2.0, value.AsFloat32()[0], 1e-7)
}

func TestSGD_ShapeMismatchPanics(t *testing.T) {
	value := tensor.MustNew(tensor.Float32, tensor.Shape{2})
	grad := tensor.MustNew(tensor.Float32, tensor.Shape{3})
	assert.Panics(t, func() { NewSGD().Step(value, grad, &Config{LearningRate: 0.1}) })
}
