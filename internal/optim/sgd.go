// Package optim implements the parameter-update rule applied after the
// backward pass: stochastic gradient descent with momentum and L2
// weight decay.
package optim

import (
	"fmt"

	"github.com/loom-ml/loom/internal/tensor"
)

// Config holds the training hyperparameters. It is owned by a Network,
// mutable by the caller before training begins, and read by the
// optimizer on every update step.
type Config struct {
	LearningRate float32 // Step size η
	Momentum     float32 // Momentum coefficient µ, range [0, 1)
	L2Decay      float32 // L2 weight decay λ
}

// SGD applies stochastic gradient descent with momentum and L2 decay.
//
// Per parameter element w with accumulated gradient g, momentum buffer
// v, learning rate η, momentum µ, and decay λ:
//
//	g' = g + λ·w
//	v  = µ·v − η·g'
//	w  = w + v
//
// Velocity buffers are allocated lazily on the first update of each
// parameter and keyed by the parameter's value tensor, so a parameter
// that is never updated never acquires optimizer state.
type SGD struct {
	velocities map[*tensor.Tensor]*tensor.Tensor
}

// NewSGD creates a new SGD optimizer with no velocity state.
func NewSGD() *SGD {
	return &SGD{
		velocities: make(map[*tensor.Tensor]*tensor.Tensor),
	}
}

// Step applies one update to value from the gradient accumulated in
// grad. The caller is responsible for zeroing grad afterwards.
func (s *SGD) Step(value, grad *tensor.Tensor, cfg *Config) {
	if !value.Shape().Equal(grad.Shape()) {
		panic(fmt.Sprintf("sgd: gradient shape %v does not match parameter shape %v",
			grad.Shape(), value.Shape()))
	}

	v, ok := s.velocities[value]
	if !ok {
		v = tensor.MustNew(tensor.Float32, value.Shape())
		s.velocities[value] = v
	}

	w := value.AsFloat32()
	g := grad.AsFloat32()
	vel := v.AsFloat32()

	for i := range w {
		gp := g[i] + cfg.L2Decay*w[i]
		vel[i] = cfg.Momentum*vel[i] - cfg.LearningRate*gp
		w[i] += vel[i]
	}
}

// Velocity returns the momentum buffer for a parameter value tensor,
// or nil if the parameter has never been updated.
func (s *SGD) Velocity(value *tensor.Tensor) *tensor.Tensor {
	return s.velocities[value]
}
