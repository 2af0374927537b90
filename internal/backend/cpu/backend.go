// Package cpu implements the pure-Go CPU backend.
package cpu

import (
	"fmt"

	"github.com/scigrad-ml/scigrad/internal/parallel"
	"github.com/scigrad-ml/scigrad/internal/tensor"
)

// Backend implements tensor operations on the CPU. Element-wise operations
// update buffers in place when the operand is the sole buffer reference.
type Backend struct {
	device tensor.Device
	par    parallel.Config
}

// New creates a new CPU backend with default parallelism.
func New() *Backend {
	return &Backend{
		device: tensor.CPU,
		par:    parallel.DefaultConfig(),
	}
}

// NewWithParallel creates a CPU backend with explicit parallel configuration.
func NewWithParallel(cfg parallel.Config) *Backend {
	return &Backend{device: tensor.CPU, par: cfg}
}

// Name returns the backend name.
func (c *Backend) Name() string { return "CPU" }

// Device returns the compute device.
func (c *Backend) Device() tensor.Device { return c.device }

// Add performs element-wise addition with NumPy-style broadcasting.
func (c *Backend) Add(a, b *tensor.RawTensor) *tensor.RawTensor {
	return c.binaryOp("add", a, b, addKernel{})
}

// Sub performs element-wise subtraction with broadcasting.
func (c *Backend) Sub(a, b *tensor.RawTensor) *tensor.RawTensor {
	return c.binaryOp("sub", a, b, subKernel{})
}

// Mul performs element-wise multiplication with broadcasting.
func (c *Backend) Mul(a, b *tensor.RawTensor) *tensor.RawTensor {
	return c.binaryOp("mul", a, b, mulKernel{})
}

// Div performs element-wise division with broadcasting.
func (c *Backend) Div(a, b *tensor.RawTensor) *tensor.RawTensor {
	return c.binaryOp("div", a, b, divKernel{})
}

// binaryOp dispatches an element-wise binary operation on dtype, choosing
// the in-place, vectorized, or broadcasting path.
func (c *Backend) binaryOp(name string, a, b *tensor.RawTensor, k kernel) *tensor.RawTensor {
	if a.DType() != b.DType() {
		panic(fmt.Sprintf("%s: dtype mismatch: %s vs %s", name, a.DType(), b.DType()))
	}

	outShape, needsBroadcast, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(fmt.Sprintf("%s: %v", name, err))
	}

	if !needsBroadcast {
		if a.IsUnique() {
			// In-place fast path: reuse a's buffer.
			applyInplace(a, b, k)
			return a
		}
		result := mustNewRaw(outShape, a.DType(), c.device)
		applySameShape(result, a, b, k)
		return result
	}

	result := mustNewRaw(outShape, a.DType(), c.device)
	applyBroadcast(result, a, b, outShape, k)
	return result
}

func mustNewRaw(shape tensor.Shape, dtype tensor.DataType, device tensor.Device) *tensor.RawTensor {
	raw, err := tensor.NewRaw(shape, dtype, device)
	if err != nil {
		panic(fmt.Sprintf("cpu: failed to allocate tensor: %v", err))
	}
	return raw
}
