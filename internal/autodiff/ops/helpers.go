package ops

import (
	"fmt"

	"github.com/scigrad-ml/scigrad/internal/tensor"
)

// reduceBroadcast sums a gradient down to the target shape, undoing any
// broadcasting that happened in the forward pass. Broadcasting aligns shapes
// from the right, so leading gradient dimensions are summed away first, then
// dimensions where the target size is 1.
func reduceBroadcast(grad *tensor.RawTensor, targetShape tensor.Shape, backend tensor.Backend) *tensor.RawTensor {
	gradShape := grad.Shape()
	if gradShape.Equal(targetShape) {
		// Clone so gradient accumulation cannot alias a shared buffer.
		return grad.Clone()
	}

	result := grad
	for len(result.Shape()) > len(targetShape) {
		result = sumAlongDim(result, 0, false)
	}
	for d := 0; d < len(targetShape); d++ {
		if targetShape[d] == 1 && result.Shape()[d] > 1 {
			result = sumAlongDim(result, d, true)
		}
	}
	if !result.Shape().Equal(targetShape) {
		result = backend.Reshape(result, targetShape)
	}
	return result
}

// sumAlongDim sums along one dimension, optionally keeping it as size 1.
func sumAlongDim(t *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	shape := t.Shape()
	outShape := shape.Clone()
	if keepDim {
		outShape[dim] = 1
	} else {
		outShape = append(outShape[:dim], outShape[dim+1:]...)
	}
	if len(outShape) == 0 {
		outShape = tensor.Shape{1}
	}

	result, err := tensor.NewRaw(outShape, t.DType(), t.Device())
	if err != nil {
		panic(fmt.Sprintf("sumAlongDim: %v", err))
	}

	outer := 1
	for d := 0; d < dim; d++ {
		outer *= shape[d]
	}
	size := shape[dim]
	inner := 1
	for d := dim + 1; d < len(shape); d++ {
		inner *= shape[d]
	}

	switch t.DType() {
	case tensor.Float32:
		td, od := t.AsFloat32(), result.AsFloat32()
		for o := 0; o < outer; o++ {
			for s := 0; s < size; s++ {
				base := (o*size + s) * inner
				for i := 0; i < inner; i++ {
					od[o*inner+i] += td[base+i]
				}
			}
		}
	case tensor.Float64:
		td, od := t.AsFloat64(), result.AsFloat64()
		for o := 0; o < outer; o++ {
			for s := 0; s < size; s++ {
				base := (o*size + s) * inner
				for i := 0; i < inner; i++ {
					od[o*inner+i] += td[base+i]
				}
			}
		}
	default:
		panic(fmt.Sprintf("sumAlongDim: unsupported dtype %s", t.DType()))
	}
	return result
}

// fullLike creates a tensor of the given shape filled with value.
func fullLike(shape tensor.Shape, dtype tensor.DataType, device tensor.Device, value float64) *tensor.RawTensor {
	result, err := tensor.NewRaw(shape, dtype, device)
	if err != nil {
		panic(fmt.Sprintf("fullLike: %v", err))
	}
	switch dtype {
	case tensor.Float32:
		data := result.AsFloat32()
		for i := range data {
			data[i] = float32(value)
		}
	case tensor.Float64:
		data := result.AsFloat64()
		for i := range data {
			data[i] = value
		}
	default:
		panic(fmt.Sprintf("fullLike: unsupported dtype %s", dtype))
	}
	return result
}

// scalarValue reads the single element of a shape-{1} tensor as float64.
func scalarValue(t *tensor.RawTensor) float64 {
	switch t.DType() {
	case tensor.Float32:
		return float64(t.AsFloat32()[0])
	case tensor.Float64:
		return t.AsFloat64()[0]
	default:
		panic(fmt.Sprintf("scalarValue: unsupported dtype %s", t.DType()))
	}
}
