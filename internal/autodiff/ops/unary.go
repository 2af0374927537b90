package ops

import (
	"fmt"

	"github.com/scigrad-ml/scigrad/internal/tensor"
)

// NegOp records output = -x.
type NegOp struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
}

// NewNegOp creates a new NegOp.
func NewNegOp(x, output *tensor.RawTensor) *NegOp {
	return &NegOp{inputs: []*tensor.RawTensor{x}, output: output}
}

func (op *NegOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.Neg(outputGrad)}
}

func (op *NegOp) Inputs() []*tensor.RawTensor { return op.inputs }
func (op *NegOp) Output() *tensor.RawTensor  { return op.output }

// ExpOp records output = exp(x). d(exp x)/dx = exp x = output.
type ExpOp struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
}

// NewExpOp creates a new ExpOp.
func NewExpOp(x, output *tensor.RawTensor) *ExpOp {
	return &ExpOp{inputs: []*tensor.RawTensor{x}, output: output}
}

func (op *ExpOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	defer op.output.ForceNonUnique()()
	defer outputGrad.ForceNonUnique()()
	return []*tensor.RawTensor{backend.Mul(outputGrad, op.output)}
}

func (op *ExpOp) Inputs() []*tensor.RawTensor { return op.inputs }
func (op *ExpOp) Output() *tensor.RawTensor  { return op.output }

// SqrtOp records output = sqrt(x). d(sqrt x)/dx = 1/(2 sqrt x) = 1/(2 output).
type SqrtOp struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
}

// NewSqrtOp creates a new SqrtOp.
func NewSqrtOp(x, output *tensor.RawTensor) *SqrtOp {
	return &SqrtOp{inputs: []*tensor.RawTensor{x}, output: output}
}

func (op *SqrtOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	defer op.output.ForceNonUnique()()
	defer outputGrad.ForceNonUnique()()
	twice := backend.MulScalar(op.output, 2.0)
	return []*tensor.RawTensor{backend.Div(outputGrad, twice)}
}

func (op *SqrtOp) Inputs() []*tensor.RawTensor { return op.inputs }
func (op *SqrtOp) Output() *tensor.RawTensor  { return op.output }

// AbsOp records output = |x|. The gradient is sign(x) * outputGrad; the
// subgradient at zero is taken as zero.
type AbsOp struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
}

// NewAbsOp creates a new AbsOp.
func NewAbsOp(x, output *tensor.RawTensor) *AbsOp {
	return &AbsOp{inputs: []*tensor.RawTensor{x}, output: output}
}

func (op *AbsOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	x := op.inputs[0]
	grad, err := tensor.NewRaw(x.Shape(), x.DType(), x.Device())
	if err != nil {
		panic(fmt.Sprintf("abs backward: %v", err))
	}

	switch x.DType() {
	case tensor.Float32:
		xd, gd, od := x.AsFloat32(), outputGrad.AsFloat32(), grad.AsFloat32()
		for i, v := range xd {
			switch {
			case v > 0:
				od[i] = gd[i]
			case v < 0:
				od[i] = -gd[i]
			}
		}
	case tensor.Float64:
		xd, gd, od := x.AsFloat64(), outputGrad.AsFloat64(), grad.AsFloat64()
		for i, v := range xd {
			switch {
			case v > 0:
				od[i] = gd[i]
			case v < 0:
				od[i] = -gd[i]
			}
		}
	default:
		panic(fmt.Sprintf("abs backward: unsupported dtype %s", x.DType()))
	}
	return []*tensor.RawTensor{grad}
}

func (op *AbsOp) Inputs() []*tensor.RawTensor { return op.inputs }
func (op *AbsOp) Output() *tensor.RawTensor  { return op.output }
