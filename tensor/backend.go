// Copyright 2026 The SciGrad Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import "github.com/scigrad-ml/scigrad/internal/tensor"

// Backend is the interface every compute backend implements.
//
// Implementations:
//   - backend/cpu: pure Go reference implementation
//   - backend/webgpu: GPU compute through WebGPU
//
// Decorator backends:
//   - autodiff: gradient recording over any backend
//
// Backend methods panic on shape or dtype misuse; the public constructors
// in linop, linalg and interp validate user input before any backend call
// is reached.
type Backend = tensor.Backend
