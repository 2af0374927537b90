package linalg

import "math"

// tallqr orthonormalizes the columns of a tall row-major n×k matrix with
// modified Gram–Schmidt. When applyM is non-nil the columns come out
// orthonormal in the M inner product ⟨x, y⟩ = xᵀ M y, which is what keeps
// the Davidson subspace well conditioned for generalized problems.
// Numerically dependent columns are dropped; the second return value is the
// surviving column count.
func tallqr(v []float64, n, k int, applyM func([]float64) []float64) ([]float64, int) {
	const dropTol = 1e-12

	cols := make([][]float64, 0, k)
	mcols := make([][]float64, 0, k)

	for j := 0; j < k; j++ {
		c := make([]float64, n)
		for i := 0; i < n; i++ {
			c[i] = v[i*k+j]
		}
		for p, q := range cols {
			proj := dot(mcols[p], c)
			for i := 0; i < n; i++ {
				c[i] -= proj * q[i]
			}
		}
		mc := c
		if applyM != nil {
			mc = applyM(c)
		}
		nrm := dot(mc, c)
		if nrm < dropTol {
			continue
		}
		scale := 1 / math.Sqrt(nrm)
		for i := 0; i < n; i++ {
			c[i] *= scale
		}
		if applyM != nil {
			for i := 0; i < n; i++ {
				mc[i] *= scale
			}
		} else {
			mc = c
		}
		cols = append(cols, c)
		mcols = append(mcols, mc)
	}

	r := len(cols)
	out := make([]float64, n*r)
	for j, c := range cols {
		for i := 0; i < n; i++ {
			out[i*r+j] = c[i]
		}
	}
	return out, r
}
