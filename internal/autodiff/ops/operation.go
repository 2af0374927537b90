// Package ops defines the differentiable operation records used by the
// gradient tape. Each operation stores its operands during the forward pass
// and produces operand gradients from the output gradient during the
// backward pass.
package ops

import "github.com/scigrad-ml/scigrad/internal/tensor"

// Operation is one node of the recorded computation graph.
type Operation interface {
	// Backward computes gradients for the inputs given the output gradient.
	// The returned slice is parallel to Inputs().
	Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor

	// Inputs returns the operand tensors recorded during the forward pass.
	Inputs() []*tensor.RawTensor

	// Output returns the tensor produced by this operation.
	Output() *tensor.RawTensor
}
