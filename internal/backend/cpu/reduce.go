package cpu

import (
	"fmt"

	"github.com/scigrad-ml/scigrad/internal/tensor"
)

// Sum reduces the tensor to the scalar sum of its elements, shape {1}.
func (c *Backend) Sum(x *tensor.RawTensor) *tensor.RawTensor {
	result := mustNewRaw(tensor.Shape{1}, x.DType(), c.device)
	switch x.DType() {
	case tensor.Float32:
		var acc float32
		for _, v := range x.AsFloat32() {
			acc += v
		}
		result.AsFloat32()[0] = acc
	case tensor.Float64:
		var acc float64
		for _, v := range x.AsFloat64() {
			acc += v
		}
		result.AsFloat64()[0] = acc
	case tensor.Int32:
		var acc int32
		for _, v := range x.AsInt32() {
			acc += v
		}
		result.AsInt32()[0] = acc
	case tensor.Int64:
		var acc int64
		for _, v := range x.AsInt64() {
			acc += v
		}
		result.AsInt64()[0] = acc
	default:
		panic(fmt.Sprintf("sum: unsupported dtype %s", x.DType()))
	}
	return result
}

// Max reduces the tensor to its largest element, shape {1}.
func (c *Backend) Max(x *tensor.RawTensor) *tensor.RawTensor {
	if x.NumElements() == 0 {
		panic("max: empty tensor")
	}
	result := mustNewRaw(tensor.Shape{1}, x.DType(), c.device)
	switch x.DType() {
	case tensor.Float32:
		result.AsFloat32()[0] = maxOf(x.AsFloat32())
	case tensor.Float64:
		result.AsFloat64()[0] = maxOf(x.AsFloat64())
	case tensor.Int32:
		result.AsInt32()[0] = maxOf(x.AsInt32())
	case tensor.Int64:
		result.AsInt64()[0] = maxOf(x.AsInt64())
	default:
		panic(fmt.Sprintf("max: unsupported dtype %s", x.DType()))
	}
	return result
}

func maxOf[T tensor.DType](data []T) T {
	best := data[0]
	for _, v := range data[1:] {
		if v > best {
			best = v
		}
	}
	return best
}

// Dot computes the inner product of two 1-D tensors, shape {1}.
func (c *Backend) Dot(a, b *tensor.RawTensor) *tensor.RawTensor {
	if len(a.Shape()) != 1 || len(b.Shape()) != 1 {
		panic(fmt.Sprintf("dot: requires 1D tensors, got %v and %v", a.Shape(), b.Shape()))
	}
	if a.NumElements() != b.NumElements() {
		panic(fmt.Sprintf("dot: length mismatch %d vs %d", a.NumElements(), b.NumElements()))
	}

	result := mustNewRaw(tensor.Shape{1}, a.DType(), c.device)
	switch a.DType() {
	case tensor.Float32:
		ad, bd := a.AsFloat32(), b.AsFloat32()
		var acc float32
		for i := range ad {
			acc += ad[i] * bd[i]
		}
		result.AsFloat32()[0] = acc
	case tensor.Float64:
		ad, bd := a.AsFloat64(), b.AsFloat64()
		var acc float64
		for i := range ad {
			acc += ad[i] * bd[i]
		}
		result.AsFloat64()[0] = acc
	default:
		panic(fmt.Sprintf("dot: unsupported dtype %s", a.DType()))
	}
	return result
}
