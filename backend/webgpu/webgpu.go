// Copyright 2026 The SciGrad Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package webgpu provides the GPU backend built on WebGPU.
//
// Float32 element-wise operations and matrix products run as WGSL compute
// shaders; operations without a shader fall back to the CPU backend, so
// the type satisfies the full tensor.Backend interface.
//
// Example:
//
//	gpu, err := webgpu.New()
//	if err != nil {
//	    log.Fatal(err) // no adapter, or native library missing
//	}
//	defer gpu.Close()
//
//	backend := autodiff.New(gpu)
//	x := tensor.Randn[float32](tensor.Shape{1024, 1024}, rng, backend)
package webgpu

import (
	internalwebgpu "github.com/scigrad-ml/scigrad/internal/backend/webgpu"
	"github.com/scigrad-ml/scigrad/tensor"
)

// Backend is the WebGPU backend implementation.
type Backend = internalwebgpu.Backend

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// New creates a WebGPU backend, or an error when no GPU is available.
func New() (*Backend, error) {
	return internalwebgpu.New()
}
