package autodiff

import (
	"github.com/scigrad-ml/scigrad/internal/tensor"
)

// BackwardCapable is a backend that records operations on a gradient tape.
// Differentiable routines check for this interface to decide whether to
// register their adjoints.
type BackwardCapable interface {
	tensor.Backend
	GetTape() *GradientTape
}

// GetTape implements BackwardCapable.
func (b *Backend[B]) GetTape() *GradientTape { return b.tape }

// Backward computes gradients of t with respect to every tensor on the tape,
// seeding with a gradient of ones. t must be the output of the most recently
// recorded operation.
func Backward[T tensor.DType, B BackwardCapable](t *tensor.Tensor[T, B], backend B) map[*tensor.RawTensor]*tensor.RawTensor {
	seed := onesLike(t.Raw())
	return backend.GetTape().Backward(seed, backend)
}

func onesLike(t *tensor.RawTensor) *tensor.RawTensor {
	out, err := tensor.NewRaw(t.Shape(), t.DType(), t.Device())
	if err != nil {
		panic("autodiff: " + err.Error())
	}
	switch t.DType() {
	case tensor.Float32:
		data := out.AsFloat32()
		for i := range data {
			data[i] = 1
		}
	case tensor.Float64:
		data := out.AsFloat64()
		for i := range data {
			data[i] = 1
		}
	case tensor.Int32:
		data := out.AsInt32()
		for i := range data {
			data[i] = 1
		}
	case tensor.Int64:
		data := out.AsInt64()
		for i := range data {
			data[i] = 1
		}
	}
	return out
}
