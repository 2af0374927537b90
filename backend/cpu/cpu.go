// Copyright 2026 The SciGrad Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides the pure-Go CPU backend.
//
// The CPU backend is the reference implementation: every operation is
// plain Go with loop-level parallelism for large tensors, no CGO.
//
// Example:
//
//	backend := cpu.New()
//	x := tensor.Zeros[float64](tensor.Shape{2, 3}, backend)
package cpu

import (
	internalcpu "github.com/scigrad-ml/scigrad/internal/backend/cpu"
	"github.com/scigrad-ml/scigrad/internal/parallel"
	"github.com/scigrad-ml/scigrad/tensor"
)

// Backend is the CPU backend implementation.
type Backend = internalcpu.Backend

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// Config controls the parallelism of large operations.
type Config = parallel.Config

// New creates a CPU backend with parallelism derived from the CPU count.
func New() *Backend {
	return internalcpu.New()
}

// NewWithParallel creates a CPU backend with an explicit parallel
// configuration, typically built from config.Load().
func NewWithParallel(cfg Config) *Backend {
	return internalcpu.NewWithParallel(cfg)
}
