package cpu

import (
	"fmt"

	"github.com/scigrad-ml/scigrad/internal/parallel"
	"github.com/scigrad-ml/scigrad/internal/tensor"
)

// MatMul performs 2-D matrix multiplication: (M, K) @ (K, N) → (M, N).
// Rows of the result are computed in parallel for large problems.
func (c *Backend) MatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	aShape, bShape := a.Shape(), b.Shape()
	if len(aShape) != 2 || len(bShape) != 2 {
		panic(fmt.Sprintf("matmul: only 2D tensors supported, got %dD and %dD", len(aShape), len(bShape)))
	}

	m, k := aShape[0], aShape[1]
	kAlt, n := bShape[0], bShape[1]
	if k != kAlt {
		panic(fmt.Sprintf("matmul: shape mismatch [%d,%d] @ [%d,%d]", m, k, kAlt, n))
	}

	result := mustNewRaw(tensor.Shape{m, n}, a.DType(), c.device)

	switch a.DType() {
	case tensor.Float32:
		matmulRows(result.AsFloat32(), a.AsFloat32(), b.AsFloat32(), m, k, n, c.par)
	case tensor.Float64:
		matmulRows(result.AsFloat64(), a.AsFloat64(), b.AsFloat64(), m, k, n, c.par)
	case tensor.Int32:
		matmulRows(result.AsInt32(), a.AsInt32(), b.AsInt32(), m, k, n, c.par)
	case tensor.Int64:
		matmulRows(result.AsInt64(), a.AsInt64(), b.AsInt64(), m, k, n, c.par)
	default:
		panic(fmt.Sprintf("matmul: unsupported dtype %s", a.DType()))
	}
	return result
}

// matmulRows computes C[i,:] = A[i,:] @ B row by row. The k-inner loop runs
// over a row of B to stay cache friendly.
func matmulRows[T tensor.DType](c, a, b []T, m, k, n int, par parallel.Config) {
	par.MinChunkSize = max(par.MinChunkSize/max(k*n, 1), 1)
	parallel.For(m, func(i int) {
		row := c[i*n : (i+1)*n]
		for j := range row {
			row[j] = 0
		}
		for kIdx := 0; kIdx < k; kIdx++ {
			aik := a[i*k+kIdx]
			if aik == 0 {
				continue
			}
			brow := b[kIdx*n : (kIdx+1)*n]
			for j, bv := range brow {
				row[j] += aik * bv
			}
		}
	}, par)
}
