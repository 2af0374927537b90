package ops

import "github.com/scigrad-ml/scigrad/internal/tensor"

// TransposeOp records output = transpose(t, axes). Even when conceptually a
// view, the backend may materialize a new tensor, so the tape must route
// gradients back through the inverse permutation.
type TransposeOp struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
	axes   []int
}

// NewTransposeOp creates a new TransposeOp.
func NewTransposeOp(t, output *tensor.RawTensor, axes []int) *TransposeOp {
	return &TransposeOp{
		inputs: []*tensor.RawTensor{t},
		output: output,
		axes:   append([]int(nil), axes...),
	}
}

func (op *TransposeOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	inverse := make([]int, len(op.axes))
	for i, ax := range op.axes {
		inverse[ax] = i
	}
	return []*tensor.RawTensor{backend.Transpose(outputGrad, inverse...)}
}

func (op *TransposeOp) Inputs() []*tensor.RawTensor { return op.inputs }
func (op *TransposeOp) Output() *tensor.RawTensor  { return op.output }

// ReshapeOp records output = reshape(t). The gradient is reshaped back to
// the input shape.
type ReshapeOp struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
}

// NewReshapeOp creates a new ReshapeOp.
func NewReshapeOp(t, output *tensor.RawTensor) *ReshapeOp {
	return &ReshapeOp{inputs: []*tensor.RawTensor{t}, output: output}
}

func (op *ReshapeOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.Reshape(outputGrad, op.inputs[0].Shape())}
}

func (op *ReshapeOp) Inputs() []*tensor.RawTensor { return op.inputs }
func (op *ReshapeOp) Output() *tensor.RawTensor  { return op.output }
