// Copyright 2026 Loom ML Engine. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides the public API for Loom's parameter-update
// rule: SGD with momentum and L2 weight decay.
package optim

import (
	"github.com/loom-ml/loom/internal/optim"
)

// Config holds the training hyperparameters read by the optimizer on
// every update step.
type Config = optim.Config

// SGD applies stochastic gradient descent with momentum and L2 decay.
type SGD = optim.SGD

// NewSGD creates a new SGD optimizer with no velocity state.
func NewSGD() *SGD {
	return optim.NewSGD()
}
