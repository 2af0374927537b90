package linalg_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scigrad-ml/scigrad/internal/backend/cpu"
	"github.com/scigrad-ml/scigrad/internal/linalg"
	"github.com/scigrad-ml/scigrad/internal/linop"
	"github.com/scigrad-ml/scigrad/internal/tensor"
)

// checkSolve verifies A X − M X diag(E) = B element by element.
func checkSolve(t *testing.T, amat, mmat []float64, e []float64, n int,
	b, x *tensor.RawTensor, tol float64) {
	t.Helper()

	k := b.Shape()[1]
	bd := b.AsFloat64()
	xd := x.AsFloat64()
	require.Equal(t, tensor.Shape{n, k}, x.Shape())

	for j := 0; j < k; j++ {
		for i := 0; i < n; i++ {
			ax := 0.0
			for p := 0; p < n; p++ {
				ax += amat[i*n+p] * xd[p*k+j]
			}
			if e != nil {
				mx := xd[i*k+j]
				if mmat != nil {
					mx = 0
					for p := 0; p < n; p++ {
						mx += mmat[i*n+p] * xd[p*k+j]
					}
				}
				ax -= e[j] * mx
			}
			assert.InDelta(t, bd[i*k+j], ax, tol, "residual at [%d, %d]", i, j)
		}
	}
}

var solveA = []float64{
	4, 1, 0,
	2, 5, 1,
	0, 1, 3,
}

func TestSolveExact(t *testing.T) {
	backend := cpu.New()
	a, err := linop.NewMatrix(raw64(t, solveA, tensor.Shape{3, 3}), backend, false)
	require.NoError(t, err)
	b := raw64(t, []float64{1, 2, 0, 1, 3, -1}, tensor.Shape{3, 2})

	x, err := linalg.Solve(a, b, nil)
	require.NoError(t, err)

	checkSolve(t, solveA, nil, nil, 3, b, x, 1e-10)
}

func TestSolveExactShifted(t *testing.T) {
	backend := cpu.New()
	a, err := linop.NewMatrix(raw64(t, solveA, tensor.Shape{3, 3}), backend, false)
	require.NoError(t, err)
	b := raw64(t, []float64{1, 2, 0, 1, 3, -1}, tensor.Shape{3, 2})
	e := raw64(t, []float64{0.5, -1}, tensor.Shape{2})

	t.Run("identity metric", func(t *testing.T) {
		x, err := linalg.Solve(a, b, &linalg.SolveOptions{E: e})
		require.NoError(t, err)
		checkSolve(t, solveA, nil, e.AsFloat64(), 3, b, x, 1e-10)
	})

	t.Run("explicit metric", func(t *testing.T) {
		mmat := []float64{
			2, 0, 0.5,
			0, 1, 0,
			0.5, 0, 1.5,
		}
		m := hermitianOp(t, mmat, 3)
		x, err := linalg.Solve(a, b, &linalg.SolveOptions{E: e, M: m})
		require.NoError(t, err)
		checkSolve(t, solveA, mmat, e.AsFloat64(), 3, b, x, 1e-10)
	})
}

func TestSolveCG(t *testing.T) {
	spd := []float64{
		4, 1, 0,
		1, 5, 1,
		0, 1, 3,
	}
	a := hermitianOp(t, spd, 3)
	b := raw64(t, []float64{1, 2, 0, 1, 3, -1}, tensor.Shape{3, 2})

	x, err := linalg.Solve(a, b, &linalg.SolveOptions{Method: "cg", MinEps: 1e-12})
	require.NoError(t, err)

	checkSolve(t, spd, nil, nil, 3, b, x, 1e-8)
}

func TestSolveCGShifted(t *testing.T) {
	spd := []float64{
		4, 1, 0,
		1, 5, 1,
		0, 1, 3,
	}
	a := hermitianOp(t, spd, 3)
	b := raw64(t, []float64{1, 2, 0, 1, 3, -1}, tensor.Shape{3, 2})
	// Shifts well below the smallest eigenvalue keep A − eI positive definite.
	e := raw64(t, []float64{0.5, 1}, tensor.Shape{2})

	x, err := linalg.Solve(a, b, &linalg.SolveOptions{Method: "cg", E: e, MinEps: 1e-12})
	require.NoError(t, err)

	checkSolve(t, spd, nil, e.AsFloat64(), 3, b, x, 1e-8)
}

func TestSolveGMRES(t *testing.T) {
	backend := cpu.New()
	a, err := linop.NewMatrix(raw64(t, solveA, tensor.Shape{3, 3}), backend, false)
	require.NoError(t, err)
	b := raw64(t, []float64{1, 2, 0, 1, 3, -1}, tensor.Shape{3, 2})

	x, err := linalg.Solve(a, b, &linalg.SolveOptions{Method: "gmres", MinEps: 1e-12})
	require.NoError(t, err)

	checkSolve(t, solveA, nil, nil, 3, b, x, 1e-8)
}

func TestSolveMatrixFree(t *testing.T) {
	// Matrix-free tridiagonal stencil [-1, 2, -1].
	n := 8
	op, err := linop.NewFunc(n, n, true, tensor.Float64, cpu.New(), func(x *tensor.RawTensor) *tensor.RawTensor {
		out, _ := tensor.NewRaw(tensor.Shape{n}, tensor.Float64, tensor.CPU)
		in := x.AsFloat64()
		res := out.AsFloat64()
		for i := 0; i < n; i++ {
			res[i] = 2 * in[i]
			if i > 0 {
				res[i] -= in[i-1]
			}
			if i < n-1 {
				res[i] -= in[i+1]
			}
		}
		return out
	})
	require.NoError(t, err)

	bdata := make([]float64, n)
	for i := range bdata {
		bdata[i] = 1
	}
	b := raw64(t, bdata, tensor.Shape{n, 1})

	x, err := linalg.Solve(op, b, &linalg.SolveOptions{Method: "cg", MinEps: 1e-12})
	require.NoError(t, err)

	stencil := make([]float64, n*n)
	for i := 0; i < n; i++ {
		stencil[i*n+i] = 2
		if i > 0 {
			stencil[i*n+i-1] = -1
		}
		if i < n-1 {
			stencil[i*n+i+1] = -1
		}
	}
	checkSolve(t, stencil, nil, nil, n, b, x, 1e-7)
}

func TestSolveSingular(t *testing.T) {
	backend := cpu.New()
	a, err := linop.NewMatrix(raw64(t, []float64{1, 2, 2, 4}, tensor.Shape{2, 2}), backend, false)
	require.NoError(t, err)
	b := raw64(t, []float64{1, 1}, tensor.Shape{2, 1})

	_, err = linalg.Solve(a, b, nil)
	assert.ErrorContains(t, err, "singular")
}

func TestSolveValidation(t *testing.T) {
	backend := cpu.New()
	a, err := linop.NewMatrix(raw64(t, solveA, tensor.Shape{3, 3}), backend, false)
	require.NoError(t, err)
	rect, err := linop.NewMatrix(raw64(t, []float64{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}), backend, false)
	require.NoError(t, err)
	b := raw64(t, []float64{1, 2, 0, 1, 3, -1}, tensor.Shape{3, 2})

	t.Run("non-square operator", func(t *testing.T) {
		_, err := linalg.Solve(rect, b, nil)
		assert.ErrorContains(t, err, "square")
	})

	t.Run("B row mismatch", func(t *testing.T) {
		short := raw64(t, []float64{1, 2}, tensor.Shape{2, 1})
		_, err := linalg.Solve(a, short, nil)
		assert.ErrorContains(t, err, "rows")
	})

	t.Run("B not a matrix", func(t *testing.T) {
		vec := raw64(t, []float64{1, 2, 3}, tensor.Shape{3})
		_, err := linalg.Solve(a, vec, nil)
		assert.ErrorContains(t, err, "2-D")
	})

	t.Run("E length mismatch", func(t *testing.T) {
		e := raw64(t, []float64{1, 2, 3}, tensor.Shape{3})
		_, err := linalg.Solve(a, b, &linalg.SolveOptions{E: e})
		assert.ErrorContains(t, err, "E must have shape")
	})

	t.Run("M without E", func(t *testing.T) {
		m := hermitianOp(t, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1}, 3)
		_, err := linalg.Solve(a, b, &linalg.SolveOptions{M: m})
		assert.ErrorContains(t, err, "together with E")
	})

	t.Run("M shape mismatch", func(t *testing.T) {
		m := hermitianOp(t, []float64{1, 0, 0, 1}, 2)
		e := raw64(t, []float64{1, 2}, tensor.Shape{2})
		_, err := linalg.Solve(a, b, &linalg.SolveOptions{E: e, M: m})
		assert.ErrorContains(t, err, "does not match")
	})

	t.Run("cg on non-hermitian", func(t *testing.T) {
		_, err := linalg.Solve(a, b, &linalg.SolveOptions{Method: "cg"})
		assert.ErrorContains(t, err, "hermitian")
	})

	t.Run("unknown method", func(t *testing.T) {
		_, err := linalg.Solve(a, b, &linalg.SolveOptions{Method: "qr"})
		assert.ErrorContains(t, err, "unknown")
	})
}
