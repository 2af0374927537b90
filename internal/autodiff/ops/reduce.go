package ops

import (
	"fmt"

	"github.com/scigrad-ml/scigrad/internal/tensor"
)

// SumOp records output = sum(x), a shape-{1} scalar. The gradient broadcasts
// the scalar back over x.
type SumOp struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
}

// NewSumOp creates a new SumOp.
func NewSumOp(x, output *tensor.RawTensor) *SumOp {
	return &SumOp{inputs: []*tensor.RawTensor{x}, output: output}
}

func (op *SumOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	x := op.inputs[0]
	g := scalarValue(outputGrad)
	return []*tensor.RawTensor{fullLike(x.Shape(), x.DType(), x.Device(), g)}
}

func (op *SumOp) Inputs() []*tensor.RawTensor { return op.inputs }
func (op *SumOp) Output() *tensor.RawTensor  { return op.output }

// DotOp records output = <a, b>, a shape-{1} scalar.
// grad_a = g*b, grad_b = g*a.
type DotOp struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
}

// NewDotOp creates a new DotOp.
func NewDotOp(a, b, output *tensor.RawTensor) *DotOp {
	return &DotOp{inputs: []*tensor.RawTensor{a, b}, output: output}
}

func (op *DotOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	a, b := op.inputs[0], op.inputs[1]
	defer a.ForceNonUnique()()
	defer b.ForceNonUnique()()

	g := scalarValue(outputGrad)
	return []*tensor.RawTensor{
		backend.MulScalar(b, g),
		backend.MulScalar(a, g),
	}
}

func (op *DotOp) Inputs() []*tensor.RawTensor { return op.inputs }
func (op *DotOp) Output() *tensor.RawTensor  { return op.output }

// GatherOp records output = x[index] for 1-D x. The gradient scatter-adds
// back into the positions that were read; repeated indices accumulate.
type GatherOp struct {
	inputs []*tensor.RawTensor
	index  *tensor.RawTensor
	output *tensor.RawTensor
}

// NewGatherOp creates a new GatherOp.
func NewGatherOp(x, index, output *tensor.RawTensor) *GatherOp {
	return &GatherOp{
		inputs: []*tensor.RawTensor{x},
		index:  index,
		output: output,
	}
}

func (op *GatherOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	x := op.inputs[0]
	grad, err := tensor.NewRaw(x.Shape(), x.DType(), x.Device())
	if err != nil {
		panic(fmt.Sprintf("gather backward: %v", err))
	}

	idx := op.index.AsInt64()
	switch x.DType() {
	case tensor.Float32:
		gd, od := outputGrad.AsFloat32(), grad.AsFloat32()
		for i, j := range idx {
			od[j] += gd[i]
		}
	case tensor.Float64:
		gd, od := outputGrad.AsFloat64(), grad.AsFloat64()
		for i, j := range idx {
			od[j] += gd[i]
		}
	default:
		panic(fmt.Sprintf("gather backward: unsupported dtype %s", x.DType()))
	}
	return []*tensor.RawTensor{grad}
}

func (op *GatherOp) Inputs() []*tensor.RawTensor { return op.inputs }
func (op *GatherOp) Output() *tensor.RawTensor  { return op.output }

// CatOp records output = cat(inputs, dim). The gradient is split back into
// the input shapes along the same dimension.
type CatOp struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
	dim    int
}

// NewCatOp creates a new CatOp.
func NewCatOp(inputs []*tensor.RawTensor, output *tensor.RawTensor, dim int) *CatOp {
	return &CatOp{
		inputs: append([]*tensor.RawTensor(nil), inputs...),
		output: output,
		dim:    dim,
	}
}

func (op *CatOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	outShape := op.output.Shape()
	ndim := len(outShape)
	elem := op.output.DType().Size()

	outer := 1
	for d := 0; d < op.dim; d++ {
		outer *= outShape[d]
	}
	inner := 1
	for d := op.dim + 1; d < ndim; d++ {
		inner *= outShape[d]
	}

	grads := make([]*tensor.RawTensor, len(op.inputs))
	src := outputGrad.Data()
	srcRow := outShape[op.dim] * inner * elem
	colOffset := 0
	for i, in := range op.inputs {
		grad, err := tensor.NewRaw(in.Shape(), in.DType(), in.Device())
		if err != nil {
			panic(fmt.Sprintf("cat backward: %v", err))
		}
		rows := in.Shape()[op.dim]
		dstRow := rows * inner * elem
		dst := grad.Data()
		for o := 0; o < outer; o++ {
			copy(dst[o*dstRow:(o+1)*dstRow], src[o*srcRow+colOffset:o*srcRow+colOffset+dstRow])
		}
		colOffset += dstRow
		grads[i] = grad
	}
	return grads
}

func (op *CatOp) Inputs() []*tensor.RawTensor { return op.inputs }
func (op *CatOp) Output() *tensor.RawTensor  { return op.output }
