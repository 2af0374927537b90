package ops

import "github.com/scigrad-ml/scigrad/internal/tensor"

// ScalarOp records an element-wise operation between a tensor and a Go
// scalar: output = x ⊕ s. The scalar is a constant, so only the tensor
// operand receives a gradient:
//
//	add/sub: grad_x = outputGrad
//	mul:     grad_x = outputGrad * s
//	div:     grad_x = outputGrad / s
type ScalarOp struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
	kind   ScalarKind
	scalar float64
}

// ScalarKind selects the arithmetic of a ScalarOp.
type ScalarKind int

// Scalar operation kinds.
const (
	ScalarAdd ScalarKind = iota
	ScalarSub
	ScalarMul
	ScalarDiv
)

// NewScalarOp creates a new ScalarOp.
func NewScalarOp(kind ScalarKind, x, output *tensor.RawTensor, scalar float64) *ScalarOp {
	return &ScalarOp{
		inputs: []*tensor.RawTensor{x},
		output: output,
		kind:   kind,
		scalar: scalar,
	}
}

func (op *ScalarOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	switch op.kind {
	case ScalarAdd, ScalarSub:
		return []*tensor.RawTensor{outputGrad.Clone()}
	case ScalarMul:
		return []*tensor.RawTensor{backend.MulScalar(outputGrad, op.scalar)}
	case ScalarDiv:
		return []*tensor.RawTensor{backend.DivScalar(outputGrad, op.scalar)}
	default:
		panic("unknown scalar op kind")
	}
}

func (op *ScalarOp) Inputs() []*tensor.RawTensor { return op.inputs }
func (op *ScalarOp) Output() *tensor.RawTensor  { return op.output }
