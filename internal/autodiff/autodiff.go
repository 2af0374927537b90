// Package autodiff implements reverse-mode automatic differentiation using
// the decorator pattern: Backend wraps any compute backend and records every
// operation on a GradientTape, and Backward replays the tape in reverse.
//
// Usage:
//
//	ad := autodiff.New(cpu.New())
//	ad.Tape().StartRecording()
//	x, _ := tensor.FromSlice([]float64{2}, tensor.Shape{1}, ad)
//	y := x.Mul(x) // y = x²
//	grads := autodiff.Backward(y, ad)
//	_ = grads[x.Raw()] // dy/dx = 2x
package autodiff

import (
	"github.com/scigrad-ml/scigrad/internal/autodiff/ops"
	"github.com/scigrad-ml/scigrad/internal/tensor"
)

// Backend wraps a compute backend and records operations for gradient
// computation. It implements tensor.Backend.
type Backend[B tensor.Backend] struct {
	inner B
	tape  *GradientTape
}

// New creates an autodiff Backend wrapping the given compute backend.
func New[B tensor.Backend](backend B) *Backend[B] {
	return &Backend[B]{inner: backend, tape: NewGradientTape()}
}

// Tape returns the gradient tape for recording control.
func (b *Backend[B]) Tape() *GradientTape { return b.tape }

// Inner returns the wrapped backend.
func (b *Backend[B]) Inner() B { return b.inner }

// Name returns the backend name.
func (b *Backend[B]) Name() string { return "Autodiff(" + b.inner.Name() + ")" }

// Device returns the compute device of the wrapped backend.
func (b *Backend[B]) Device() tensor.Device { return b.inner.Device() }

// Add performs element-wise addition and records the operation.
func (b *Backend[B]) Add(x, y *tensor.RawTensor) *tensor.RawTensor {
	// Block the inner backend's in-place path: the recorded operands must
	// stay intact for the backward pass.
	defer x.ForceNonUnique()()
	defer y.ForceNonUnique()()

	result := b.inner.Add(x, y)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewAddOp(x, y, result))
	}
	return result
}

// Sub performs element-wise subtraction and records the operation.
func (b *Backend[B]) Sub(x, y *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	defer y.ForceNonUnique()()

	result := b.inner.Sub(x, y)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewSubOp(x, y, result))
	}
	return result
}

// Mul performs element-wise multiplication and records the operation.
func (b *Backend[B]) Mul(x, y *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	defer y.ForceNonUnique()()

	result := b.inner.Mul(x, y)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewMulOp(x, y, result))
	}
	return result
}

// Div performs element-wise division and records the operation.
func (b *Backend[B]) Div(x, y *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	defer y.ForceNonUnique()()

	result := b.inner.Div(x, y)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewDivOp(x, y, result))
	}
	return result
}

// MatMul performs matrix multiplication and records the operation.
func (b *Backend[B]) MatMul(x, y *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	defer y.ForceNonUnique()()

	result := b.inner.MatMul(x, y)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewMatMulOp(x, y, result))
	}
	return result
}

// Reshape reshapes a tensor and records the operation so gradients reach the
// original layout.
func (b *Backend[B]) Reshape(t *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	defer t.ForceNonUnique()()

	result := b.inner.Reshape(t, newShape)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewReshapeOp(t, result))
	}
	return result
}

// Transpose permutes dimensions and records the operation so gradients flow
// back through the inverse permutation.
func (b *Backend[B]) Transpose(t *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	defer t.ForceNonUnique()()

	ndim := len(t.Shape())
	if len(axes) == 0 {
		axes = make([]int, ndim)
		for i := range axes {
			axes[i] = ndim - 1 - i
		}
	}

	result := b.inner.Transpose(t, axes...)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewTransposeOp(t, result, axes))
	}
	return result
}

// AddScalar adds a scalar and records the operation.
func (b *Backend[B]) AddScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	return b.scalarOp(ops.ScalarAdd, x, scalar, b.inner.AddScalar)
}

// SubScalar subtracts a scalar and records the operation.
func (b *Backend[B]) SubScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	return b.scalarOp(ops.ScalarSub, x, scalar, b.inner.SubScalar)
}

// MulScalar multiplies by a scalar and records the operation.
func (b *Backend[B]) MulScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	return b.scalarOp(ops.ScalarMul, x, scalar, b.inner.MulScalar)
}

// DivScalar divides by a scalar and records the operation.
func (b *Backend[B]) DivScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	return b.scalarOp(ops.ScalarDiv, x, scalar, b.inner.DivScalar)
}

func (b *Backend[B]) scalarOp(kind ops.ScalarKind, x *tensor.RawTensor, scalar any, f func(*tensor.RawTensor, any) *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()

	result := f(x, scalar)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewScalarOp(kind, x, result, toFloat64(scalar)))
	}
	return result
}

// Neg negates and records the operation.
func (b *Backend[B]) Neg(x *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()

	result := b.inner.Neg(x)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewNegOp(x, result))
	}
	return result
}

// Exp computes the element-wise exponential and records the operation.
func (b *Backend[B]) Exp(x *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()

	result := b.inner.Exp(x)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewExpOp(x, result))
	}
	return result
}

// Sqrt computes the element-wise square root and records the operation.
func (b *Backend[B]) Sqrt(x *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()

	result := b.inner.Sqrt(x)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewSqrtOp(x, result))
	}
	return result
}

// Abs computes the element-wise absolute value and records the operation.
func (b *Backend[B]) Abs(x *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()

	result := b.inner.Abs(x)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewAbsOp(x, result))
	}
	return result
}

// Sum reduces to the scalar sum and records the operation.
func (b *Backend[B]) Sum(x *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()

	result := b.inner.Sum(x)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewSumOp(x, result))
	}
	return result
}

// Max reduces to the largest element. Max is used for convergence checks and
// is not differentiated; no operation is recorded.
func (b *Backend[B]) Max(x *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	return b.inner.Max(x)
}

// Dot computes the 1-D inner product and records the operation.
func (b *Backend[B]) Dot(x, y *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()
	defer y.ForceNonUnique()()

	result := b.inner.Dot(x, y)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewDotOp(x, y, result))
	}
	return result
}

// Cat concatenates tensors and records the operation.
func (b *Backend[B]) Cat(tensors []*tensor.RawTensor, dim int) *tensor.RawTensor {
	for _, t := range tensors {
		defer t.ForceNonUnique()()
	}

	result := b.inner.Cat(tensors, dim)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewCatOp(tensors, result, dim))
	}
	return result
}

// Gather1D selects elements by index and records the operation. Gradients
// scatter-add back into the source positions.
func (b *Backend[B]) Gather1D(x *tensor.RawTensor, index *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()

	result := b.inner.Gather1D(x, index)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewGatherOp(x, index, result))
	}
	return result
}

func toFloat64(scalar any) float64 {
	switch s := scalar.(type) {
	case float32:
		return float64(s)
	case float64:
		return s
	case int:
		return float64(s)
	case int32:
		return float64(s)
	case int64:
		return float64(s)
	default:
		panic("unsupported scalar type")
	}
}
