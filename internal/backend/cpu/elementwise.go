package cpu

import (
	"fmt"

	"github.com/scigrad-ml/scigrad/internal/tensor"
)

// kernel is a dtype-polymorphic element-wise binary operation.
type kernel interface {
	f32(a, b float32) float32
	f64(a, b float64) float64
	i32(a, b int32) int32
	i64(a, b int64) int64
}

type addKernel struct{}

func (addKernel) f32(a, b float32) float32 { return a + b }
func (addKernel) f64(a, b float64) float64 { return a + b }
func (addKernel) i32(a, b int32) int32     { return a + b }
func (addKernel) i64(a, b int64) int64     { return a + b }

type subKernel struct{}

func (subKernel) f32(a, b float32) float32 { return a - b }
func (subKernel) f64(a, b float64) float64 { return a - b }
func (subKernel) i32(a, b int32) int32     { return a - b }
func (subKernel) i64(a, b int64) int64     { return a - b }

type mulKernel struct{}

func (mulKernel) f32(a, b float32) float32 { return a * b }
func (mulKernel) f64(a, b float64) float64 { return a * b }
func (mulKernel) i32(a, b int32) int32     { return a * b }
func (mulKernel) i64(a, b int64) int64     { return a * b }

type divKernel struct{}

func (divKernel) f32(a, b float32) float32 { return a / b }
func (divKernel) f64(a, b float64) float64 { return a / b }
func (divKernel) i32(a, b int32) int32     { return a / b }
func (divKernel) i64(a, b int64) int64     { return a / b }

// applySameShape computes out[i] = k(a[i], b[i]) for identically shaped operands.
func applySameShape(out, a, b *tensor.RawTensor, k kernel) {
	switch a.DType() {
	case tensor.Float32:
		ad, bd, od := a.AsFloat32(), b.AsFloat32(), out.AsFloat32()
		for i := range od {
			od[i] = k.f32(ad[i], bd[i])
		}
	case tensor.Float64:
		ad, bd, od := a.AsFloat64(), b.AsFloat64(), out.AsFloat64()
		for i := range od {
			od[i] = k.f64(ad[i], bd[i])
		}
	case tensor.Int32:
		ad, bd, od := a.AsInt32(), b.AsInt32(), out.AsInt32()
		for i := range od {
			od[i] = k.i32(ad[i], bd[i])
		}
	case tensor.Int64:
		ad, bd, od := a.AsInt64(), b.AsInt64(), out.AsInt64()
		for i := range od {
			od[i] = k.i64(ad[i], bd[i])
		}
	default:
		panic(fmt.Sprintf("cpu: unsupported dtype %s", a.DType()))
	}
}

// applyInplace computes a[i] = k(a[i], b[i]).
func applyInplace(a, b *tensor.RawTensor, k kernel) {
	applySameShape(a, a, b, k)
}

// applyBroadcast computes the general broadcasting path: every output index
// is mapped back to operand indices with stride 0 on size-1 dimensions.
func applyBroadcast(out, a, b *tensor.RawTensor, outShape tensor.Shape, k kernel) {
	strideA := broadcastStrides(a.Shape(), outShape)
	strideB := broadcastStrides(b.Shape(), outShape)
	outStrides := outShape.ComputeStrides()
	n := outShape.NumElements()

	indexPair := func(flat int) (int, int) {
		ia, ib := 0, 0
		rem := flat
		for d := 0; d < len(outShape); d++ {
			idx := rem / outStrides[d]
			rem %= outStrides[d]
			ia += idx * strideA[d]
			ib += idx * strideB[d]
		}
		return ia, ib
	}

	switch a.DType() {
	case tensor.Float32:
		ad, bd, od := a.AsFloat32(), b.AsFloat32(), out.AsFloat32()
		for i := 0; i < n; i++ {
			ia, ib := indexPair(i)
			od[i] = k.f32(ad[ia], bd[ib])
		}
	case tensor.Float64:
		ad, bd, od := a.AsFloat64(), b.AsFloat64(), out.AsFloat64()
		for i := 0; i < n; i++ {
			ia, ib := indexPair(i)
			od[i] = k.f64(ad[ia], bd[ib])
		}
	case tensor.Int32:
		ad, bd, od := a.AsInt32(), b.AsInt32(), out.AsInt32()
		for i := 0; i < n; i++ {
			ia, ib := indexPair(i)
			od[i] = k.i32(ad[ia], bd[ib])
		}
	case tensor.Int64:
		ad, bd, od := a.AsInt64(), b.AsInt64(), out.AsInt64()
		for i := 0; i < n; i++ {
			ia, ib := indexPair(i)
			od[i] = k.i64(ad[ia], bd[ib])
		}
	default:
		panic(fmt.Sprintf("cpu: unsupported dtype %s", a.DType()))
	}
}

// broadcastStrides returns per-output-dimension strides for an operand,
// zeroed where the operand dimension is 1 or missing.
func broadcastStrides(in, out tensor.Shape) []int {
	inStrides := in.ComputeStrides()
	strides := make([]int, len(out))
	offset := len(out) - len(in)
	for d := range out {
		if d < offset {
			continue
		}
		if in[d-offset] == 1 {
			continue
		}
		strides[d] = inStrides[d-offset]
	}
	return strides
}
