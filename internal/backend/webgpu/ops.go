package webgpu

import (
	"fmt"

	"github.com/scigrad-ml/scigrad/internal/tensor"
)

// gpuBinaryOK reports whether a binary op can run on the GPU: float32
// operands of identical shape. Broadcasting falls back to the CPU.
func gpuBinaryOK(a, b *tensor.RawTensor) bool {
	return a.DType() == tensor.Float32 && b.DType() == tensor.Float32 && a.Shape().Equal(b.Shape())
}

// Add performs element-wise addition.
func (b *Backend) Add(x, y *tensor.RawTensor) *tensor.RawTensor {
	if gpuBinaryOK(x, y) {
		return b.runElementwise("add", binaryShader("+"), x, y)
	}
	return b.fallback.Add(x, y)
}

// Sub performs element-wise subtraction.
func (b *Backend) Sub(x, y *tensor.RawTensor) *tensor.RawTensor {
	if gpuBinaryOK(x, y) {
		return b.runElementwise("sub", binaryShader("-"), x, y)
	}
	return b.fallback.Sub(x, y)
}

// Mul performs element-wise multiplication.
func (b *Backend) Mul(x, y *tensor.RawTensor) *tensor.RawTensor {
	if gpuBinaryOK(x, y) {
		return b.runElementwise("mul", binaryShader("*"), x, y)
	}
	return b.fallback.Mul(x, y)
}

// Div performs element-wise division.
func (b *Backend) Div(x, y *tensor.RawTensor) *tensor.RawTensor {
	if gpuBinaryOK(x, y) {
		return b.runElementwise("div", binaryShader("/"), x, y)
	}
	return b.fallback.Div(x, y)
}

// MatMul multiplies two matrices, offloading 2-D float32 products to the
// GPU and delegating everything else.
func (b *Backend) MatMul(x, y *tensor.RawTensor) *tensor.RawTensor {
	if x.DType() == tensor.Float32 && y.DType() == tensor.Float32 &&
		len(x.Shape()) == 2 && len(y.Shape()) == 2 {
		if x.Shape()[1] != y.Shape()[0] {
			panic(fmt.Sprintf("matmul: inner dimensions must agree: %v vs %v", x.Shape(), y.Shape()))
		}
		return b.runMatMul(x, y)
	}
	return b.fallback.MatMul(x, y)
}

func (b *Backend) AddScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	if s, ok := scalarFloat32(x, scalar); ok {
		return b.runUnary("addscalar", scalarShader("+"), x, s)
	}
	return b.fallback.AddScalar(x, scalar)
}

func (b *Backend) SubScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	if s, ok := scalarFloat32(x, scalar); ok {
		return b.runUnary("subscalar", scalarShader("-"), x, s)
	}
	return b.fallback.SubScalar(x, scalar)
}

func (b *Backend) MulScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	if s, ok := scalarFloat32(x, scalar); ok {
		return b.runUnary("mulscalar", scalarShader("*"), x, s)
	}
	return b.fallback.MulScalar(x, scalar)
}

func (b *Backend) DivScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	if s, ok := scalarFloat32(x, scalar); ok {
		return b.runUnary("divscalar", scalarShader("/"), x, s)
	}
	return b.fallback.DivScalar(x, scalar)
}

// scalarFloat32 extracts a float32 scalar when the operand is a float32
// tensor and the scalar is a float32 value.
func scalarFloat32(x *tensor.RawTensor, scalar any) (float32, bool) {
	if x.DType() != tensor.Float32 {
		return 0, false
	}
	s, ok := scalar.(float32)
	return s, ok
}

// Neg negates element-wise.
func (b *Backend) Neg(x *tensor.RawTensor) *tensor.RawTensor {
	if x.DType() == tensor.Float32 {
		return b.runUnary("neg", unaryShader("-a[idx]"), x)
	}
	return b.fallback.Neg(x)
}

// Exp exponentiates element-wise.
func (b *Backend) Exp(x *tensor.RawTensor) *tensor.RawTensor {
	if x.DType() == tensor.Float32 {
		return b.runUnary("exp", unaryShader("exp(a[idx])"), x)
	}
	return b.fallback.Exp(x)
}

// Sqrt takes the element-wise square root.
func (b *Backend) Sqrt(x *tensor.RawTensor) *tensor.RawTensor {
	if x.DType() == tensor.Float32 {
		return b.runUnary("sqrt", unaryShader("sqrt(a[idx])"), x)
	}
	return b.fallback.Sqrt(x)
}

// Abs takes the element-wise absolute value.
func (b *Backend) Abs(x *tensor.RawTensor) *tensor.RawTensor {
	if x.DType() == tensor.Float32 {
		return b.runUnary("abs", unaryShader("abs(a[idx])"), x)
	}
	return b.fallback.Abs(x)
}

// The remaining operations have no shader and always run on the CPU.

func (b *Backend) Reshape(t *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	return b.fallback.Reshape(t, newShape)
}

func (b *Backend) Transpose(t *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	return b.fallback.Transpose(t, axes...)
}

func (b *Backend) Sum(x *tensor.RawTensor) *tensor.RawTensor { return b.fallback.Sum(x) }
func (b *Backend) Max(x *tensor.RawTensor) *tensor.RawTensor { return b.fallback.Max(x) }

func (b *Backend) Dot(x, y *tensor.RawTensor) *tensor.RawTensor { return b.fallback.Dot(x, y) }

func (b *Backend) Cat(tensors []*tensor.RawTensor, dim int) *tensor.RawTensor {
	return b.fallback.Cat(tensors, dim)
}

func (b *Backend) Gather1D(x, index *tensor.RawTensor) *tensor.RawTensor {
	return b.fallback.Gather1D(x, index)
}
