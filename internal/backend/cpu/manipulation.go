package cpu

import (
	"fmt"

	"github.com/scigrad-ml/scigrad/internal/tensor"
)

// Reshape returns a tensor with the same data and a new shape.
func (c *Backend) Reshape(t *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	if err := newShape.Validate(); err != nil {
		panic(fmt.Sprintf("reshape: invalid shape: %v", err))
	}
	if t.NumElements() != newShape.NumElements() {
		panic(fmt.Sprintf("reshape: cannot reshape %v into %v", t.Shape(), newShape))
	}

	result := mustNewRaw(newShape, t.DType(), c.device)
	copy(result.Data(), t.Data())
	return result
}

// Transpose permutes the tensor's dimensions. With no axes, all dimensions
// are reversed.
func (c *Backend) Transpose(t *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	shape := t.Shape()
	ndim := len(shape)

	if len(axes) == 0 {
		axes = make([]int, ndim)
		for i := range axes {
			axes[i] = ndim - 1 - i
		}
	}
	if len(axes) != ndim {
		panic(fmt.Sprintf("transpose: expected %d axes, got %d", ndim, len(axes)))
	}

	seen := make([]bool, ndim)
	newShape := make(tensor.Shape, ndim)
	for i, ax := range axes {
		if ax < 0 || ax >= ndim || seen[ax] {
			panic(fmt.Sprintf("transpose: invalid axes %v for %dD tensor", axes, ndim))
		}
		seen[ax] = true
		newShape[i] = shape[ax]
	}

	result := mustNewRaw(newShape, t.DType(), c.device)

	oldStrides := shape.ComputeStrides()
	newStrides := newShape.ComputeStrides()
	n := t.NumElements()

	srcIndex := func(flat int) int {
		src := 0
		rem := flat
		for d := 0; d < ndim; d++ {
			idx := rem / newStrides[d]
			rem %= newStrides[d]
			src += idx * oldStrides[axes[d]]
		}
		return src
	}

	switch t.DType() {
	case tensor.Float32:
		td, od := t.AsFloat32(), result.AsFloat32()
		for i := 0; i < n; i++ {
			od[i] = td[srcIndex(i)]
		}
	case tensor.Float64:
		td, od := t.AsFloat64(), result.AsFloat64()
		for i := 0; i < n; i++ {
			od[i] = td[srcIndex(i)]
		}
	case tensor.Int32:
		td, od := t.AsInt32(), result.AsInt32()
		for i := 0; i < n; i++ {
			od[i] = td[srcIndex(i)]
		}
	case tensor.Int64:
		td, od := t.AsInt64(), result.AsInt64()
		for i := 0; i < n; i++ {
			od[i] = td[srcIndex(i)]
		}
	default:
		panic(fmt.Sprintf("transpose: unsupported dtype %s", t.DType()))
	}
	return result
}

// Cat concatenates tensors along the given dimension. All other dimensions
// must match.
func (c *Backend) Cat(tensors []*tensor.RawTensor, dim int) *tensor.RawTensor {
	if len(tensors) == 0 {
		panic("cat: no tensors given")
	}
	first := tensors[0]
	ndim := len(first.Shape())
	if dim < 0 || dim >= ndim {
		panic(fmt.Sprintf("cat: dimension %d out of range for %dD tensors", dim, ndim))
	}

	outShape := first.Shape().Clone()
	for _, t := range tensors[1:] {
		s := t.Shape()
		if len(s) != ndim || t.DType() != first.DType() {
			panic("cat: tensors must have matching rank and dtype")
		}
		for d := 0; d < ndim; d++ {
			if d == dim {
				continue
			}
			if s[d] != outShape[d] {
				panic(fmt.Sprintf("cat: shape mismatch at dim %d: %v vs %v", d, first.Shape(), s))
			}
		}
		outShape[dim] += s[dim]
	}

	result := mustNewRaw(outShape, first.DType(), c.device)

	// Copy blockwise: every tensor contributes contiguous runs of
	// inner*sizeAlongDim elements per outer index.
	elem := first.DType().Size()
	outer := 1
	for d := 0; d < dim; d++ {
		outer *= outShape[d]
	}
	inner := 1
	for d := dim + 1; d < ndim; d++ {
		inner *= outShape[d]
	}

	dstRow := outShape[dim] * inner * elem
	dst := result.Data()
	colOffset := 0
	for _, t := range tensors {
		rows := t.Shape()[dim]
		srcRow := rows * inner * elem
		src := t.Data()
		for o := 0; o < outer; o++ {
			copy(dst[o*dstRow+colOffset:], src[o*srcRow:(o+1)*srcRow])
		}
		colOffset += srcRow
	}
	return result
}

// Gather1D selects x[index[i]] for a 1-D x and integer index tensor.
func (c *Backend) Gather1D(x *tensor.RawTensor, index *tensor.RawTensor) *tensor.RawTensor {
	if len(x.Shape()) != 1 {
		panic(fmt.Sprintf("gather1d: x must be 1D, got %v", x.Shape()))
	}
	if index.DType() != tensor.Int64 {
		panic(fmt.Sprintf("gather1d: index must be int64, got %s", index.DType()))
	}

	idx := index.AsInt64()
	result := mustNewRaw(index.Shape().Clone(), x.DType(), c.device)
	n := x.NumElements()

	checkBounds := func(i int64) {
		if i < 0 || int(i) >= n {
			panic(fmt.Sprintf("gather1d: index %d out of range [0,%d)", i, n))
		}
	}

	switch x.DType() {
	case tensor.Float32:
		xd, od := x.AsFloat32(), result.AsFloat32()
		for i, j := range idx {
			checkBounds(j)
			od[i] = xd[j]
		}
	case tensor.Float64:
		xd, od := x.AsFloat64(), result.AsFloat64()
		for i, j := range idx {
			checkBounds(j)
			od[i] = xd[j]
		}
	case tensor.Int32:
		xd, od := x.AsInt32(), result.AsInt32()
		for i, j := range idx {
			checkBounds(j)
			od[i] = xd[j]
		}
	case tensor.Int64:
		xd, od := x.AsInt64(), result.AsInt64()
		for i, j := range idx {
			checkBounds(j)
			od[i] = xd[j]
		}
	default:
		panic(fmt.Sprintf("gather1d: unsupported dtype %s", x.DType()))
	}
	return result
}
