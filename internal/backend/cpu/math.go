package cpu

import (
	"fmt"
	"math"

	"github.com/scigrad-ml/scigrad/internal/tensor"
)

// Neg returns the element-wise negation.
func (c *Backend) Neg(x *tensor.RawTensor) *tensor.RawTensor {
	return c.unaryOp("neg", x, func(v float64) float64 { return -v })
}

// Exp returns the element-wise exponential.
func (c *Backend) Exp(x *tensor.RawTensor) *tensor.RawTensor {
	return c.unaryOp("exp", x, math.Exp)
}

// Sqrt returns the element-wise square root.
func (c *Backend) Sqrt(x *tensor.RawTensor) *tensor.RawTensor {
	return c.unaryOp("sqrt", x, math.Sqrt)
}

// Abs returns the element-wise absolute value.
func (c *Backend) Abs(x *tensor.RawTensor) *tensor.RawTensor {
	return c.unaryOp("abs", x, math.Abs)
}

// unaryOp applies f element-wise on the floating dtypes.
func (c *Backend) unaryOp(name string, x *tensor.RawTensor, f func(float64) float64) *tensor.RawTensor {
	result := mustNewRaw(x.Shape(), x.DType(), c.device)
	switch x.DType() {
	case tensor.Float32:
		xd, od := x.AsFloat32(), result.AsFloat32()
		for i, v := range xd {
			od[i] = float32(f(float64(v)))
		}
	case tensor.Float64:
		xd, od := x.AsFloat64(), result.AsFloat64()
		for i, v := range xd {
			od[i] = f(v)
		}
	default:
		panic(fmt.Sprintf("%s: only float32 and float64 are supported, got %s", name, x.DType()))
	}
	return result
}

// AddScalar adds a scalar to every element.
func (c *Backend) AddScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	s := toFloat64(scalar)
	return c.unaryOp("addscalar", x, func(v float64) float64 { return v + s })
}

// SubScalar subtracts a scalar from every element.
func (c *Backend) SubScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	s := toFloat64(scalar)
	return c.unaryOp("subscalar", x, func(v float64) float64 { return v - s })
}

// MulScalar multiplies every element by a scalar.
func (c *Backend) MulScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	s := toFloat64(scalar)
	return c.unaryOp("mulscalar", x, func(v float64) float64 { return v * s })
}

// DivScalar divides every element by a scalar.
func (c *Backend) DivScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	s := toFloat64(scalar)
	return c.unaryOp("divscalar", x, func(v float64) float64 { return v / s })
}

// toFloat64 widens a supported scalar to float64.
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
		panic(fmt.Sprintf("unsupported scalar type %T", scalar))
	}
}
