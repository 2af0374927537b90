package linalg

import (
	"fmt"
	"math"
	"sort"
)

// Dense float64 kernels backing the exact methods. Matrices are flat
// row-major slices; these run outside the gradient tape so the recorded
// graph stays one composite operation per routine.

// jacobiEig diagonalizes a symmetric n×n matrix with cyclic Jacobi
// rotations. Returns eigenvalues in ascending order and the matching
// eigenvectors as the columns of a row-major n×n matrix.
func jacobiEig(a []float64, n int) ([]float64, []float64) {
	const maxSweeps = 64

	A := make([]float64, len(a))
	copy(A, a)
	V := make([]float64, n*n)
	for i := 0; i < n; i++ {
		V[i*n+i] = 1
	}

	norm := 0.0
	for _, v := range A {
		norm += v * v
	}
	tol := 1e-30 * (norm + 1)

	for sweep := 0; sweep < maxSweeps; sweep++ {
		off := 0.0
		for p := 0; p < n; p++ {
			for q := p + 1; q < n; q++ {
				off += A[p*n+q] * A[p*n+q]
			}
		}
		if off < tol {
			break
		}

		for p := 0; p < n; p++ {
			for q := p + 1; q < n; q++ {
				apq := A[p*n+q]
				if math.Abs(apq) < 1e-300 {
					continue
				}
				theta := (A[q*n+q] - A[p*n+p]) / (2 * apq)
				t := 1 / (math.Abs(theta) + math.Sqrt(theta*theta+1))
				if theta < 0 {
					t = -t
				}
				c := 1 / math.Sqrt(t*t+1)
				s := t * c

				// A <- Jᵀ A J with the rotation in the (p, q) plane.
				for i := 0; i < n; i++ {
					aip, aiq := A[i*n+p], A[i*n+q]
					A[i*n+p] = c*aip - s*aiq
					A[i*n+q] = s*aip + c*aiq
				}
				for j := 0; j < n; j++ {
					apj, aqj := A[p*n+j], A[q*n+j]
					A[p*n+j] = c*apj - s*aqj
					A[q*n+j] = s*apj + c*aqj
				}
				for i := 0; i < n; i++ {
					vip, viq := V[i*n+p], V[i*n+q]
					V[i*n+p] = c*vip - s*viq
					V[i*n+q] = s*vip + c*viq
				}
			}
		}
	}

	evals := make([]float64, n)
	for i := 0; i < n; i++ {
		evals[i] = A[i*n+i]
	}

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(i, j int) bool { return evals[idx[i]] < evals[idx[j]] })

	sortedVals := make([]float64, n)
	sortedVecs := make([]float64, n*n)
	for k, j := range idx {
		sortedVals[k] = evals[j]
		for i := 0; i < n; i++ {
			sortedVecs[i*n+k] = V[i*n+j]
		}
	}
	return sortedVals, sortedVecs
}

// luFactor computes a partially-pivoted LU factorization in place of a copy.
// The returned slice packs unit-lower L below the diagonal and U on and
// above it; piv records the row swap made at each elimination step.
func luFactor(a []float64, n int) ([]float64, []int, error) {
	lu := make([]float64, len(a))
	copy(lu, a)
	piv := make([]int, n)

	for k := 0; k < n; k++ {
		p := k
		maxv := math.Abs(lu[k*n+k])
		for i := k + 1; i < n; i++ {
			if v := math.Abs(lu[i*n+k]); v > maxv {
				p, maxv = i, v
			}
		}
		if maxv == 0 {
			return nil, nil, fmt.Errorf("linalg: matrix is singular at column %d", k)
		}
		piv[k] = p
		if p != k {
			for j := 0; j < n; j++ {
				lu[k*n+j], lu[p*n+j] = lu[p*n+j], lu[k*n+j]
			}
		}
		pivot := lu[k*n+k]
		for i := k + 1; i < n; i++ {
			lu[i*n+k] /= pivot
			lik := lu[i*n+k]
			if lik == 0 {
				continue
			}
			for j := k + 1; j < n; j++ {
				lu[i*n+j] -= lik * lu[k*n+j]
			}
		}
	}
	return lu, piv, nil
}

// luSolve solves the factored system for one right-hand side, overwriting b
// with the solution.
func luSolve(lu []float64, piv []int, b []float64, n int) {
	for k := 0; k < n; k++ {
		if piv[k] != k {
			b[k], b[piv[k]] = b[piv[k]], b[k]
		}
	}
	// Ly = Pb, unit diagonal.
	for i := 1; i < n; i++ {
		sum := b[i]
		for j := 0; j < i; j++ {
			sum -= lu[i*n+j] * b[j]
		}
		b[i] = sum
	}
	// Ux = y.
	for i := n - 1; i >= 0; i-- {
		sum := b[i]
		for j := i + 1; j < n; j++ {
			sum -= lu[i*n+j] * b[j]
		}
		b[i] = sum / lu[i*n+i]
	}
}

// cholesky computes the lower-triangular factor of a symmetric
// positive-definite matrix. Non-positive pivots are an error, which is how
// an indefinite overlap matrix surfaces to the caller.
func cholesky(a []float64, n int) ([]float64, error) {
	l := make([]float64, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			sum := a[i*n+j]
			for k := 0; k < j; k++ {
				sum -= l[i*n+k] * l[j*n+k]
			}
			if i == j {
				if sum <= 0 {
					return nil, fmt.Errorf("linalg: matrix is not positive definite at pivot %d", i)
				}
				l[i*n+i] = math.Sqrt(sum)
			} else {
				l[i*n+j] = sum / l[j*n+j]
			}
		}
	}
	return l, nil
}

// solveLower solves L y = b in place for lower-triangular L.
func solveLower(l, b []float64, n int) {
	for i := 0; i < n; i++ {
		sum := b[i]
		for j := 0; j < i; j++ {
			sum -= l[i*n+j] * b[j]
		}
		b[i] = sum / l[i*n+i]
	}
}

// solveLowerT solves Lᵀ x = b in place for lower-triangular L.
func solveLowerT(l, b []float64, n int) {
	for i := n - 1; i >= 0; i-- {
		sum := b[i]
		for j := i + 1; j < n; j++ {
			sum -= l[j*n+i] * b[j]
		}
		b[i] = sum / l[i*n+i]
	}
}

// matMul computes C = A B for row-major A (m×k) and B (k×n).
func matMul(a, b []float64, m, k, n int) []float64 {
	c := make([]float64, m*n)
	for i := 0; i < m; i++ {
		for p := 0; p < k; p++ {
			aip := a[i*k+p]
			if aip == 0 {
				continue
			}
			for j := 0; j < n; j++ {
				c[i*n+j] += aip * b[p*n+j]
			}
		}
	}
	return c
}

// matTMul computes C = Aᵀ B for row-major A (k×m) and B (k×n).
func matTMul(a, b []float64, k, m, n int) []float64 {
	c := make([]float64, m*n)
	for p := 0; p < k; p++ {
		for i := 0; i < m; i++ {
			api := a[p*m+i]
			if api == 0 {
				continue
			}
			for j := 0; j < n; j++ {
				c[i*n+j] += api * b[p*n+j]
			}
		}
	}
	return c
}

// matMulT computes C = A Bᵀ for row-major A (m×k) and B (n×k).
func matMulT(a, b []float64, m, k, n int) []float64 {
	c := make([]float64, m*n)
	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			sum := 0.0
			for p := 0; p < k; p++ {
				sum += a[i*k+p] * b[j*k+p]
			}
			c[i*n+j] = sum
		}
	}
	return c
}

// transposed returns Aᵀ for row-major A (m×n).
func transposed(a []float64, m, n int) []float64 {
	t := make([]float64, len(a))
	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			t[j*m+i] = a[i*n+j]
		}
	}
	return t
}

func dot(a, b []float64) float64 {
	sum := 0.0
	for i, v := range a {
		sum += v * b[i]
	}
	return sum
}

func norm2(a []float64) float64 {
	return math.Sqrt(dot(a, a))
}
