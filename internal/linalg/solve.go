package linalg

import (
	"fmt"

	"github.com/scigrad-ml/scigrad/internal/linop"
	"github.com/scigrad-ml/scigrad/internal/tensor"
)

// Solve solves A X − M X diag(E) = B for X, which is the plain linear
// system A X = B when the optional shifts E (and their metric M) are absent.
// B has shape {n, k} with one right-hand side per column; with shifts,
// column j solves the shifted system (A − E[j] M) x_j = b_j.
//
// The unshifted problem is differentiable: when A is a dense linop.Matrix
// on a recording autodiff backend, the solve adjoint is registered on the
// tape as one composite operation.
func Solve(A linop.Operator, B *tensor.RawTensor, o *SolveOptions) (*tensor.RawTensor, error) {
	opts := o.withDefaults()

	if A == nil {
		return nil, fmt.Errorf("linalg: Solve requires an operator")
	}
	if A.Rows() != A.Cols() {
		return nil, fmt.Errorf("linalg: Solve requires a square operator, got shape {%d, %d}", A.Rows(), A.Cols())
	}
	if A.DType() != tensor.Float64 {
		return nil, fmt.Errorf("linalg: Solve computes in float64, got operator dtype %s", A.DType())
	}
	n := A.Rows()
	if len(B.Shape()) != 2 {
		return nil, fmt.Errorf("linalg: B must be 2-D with one right-hand side per column, got shape %v", B.Shape())
	}
	if B.Shape()[0] != n {
		return nil, fmt.Errorf("linalg: B has %d rows but the operator has %d columns", B.Shape()[0], n)
	}
	if B.DType() != tensor.Float64 {
		return nil, fmt.Errorf("linalg: B must be float64, got %s", B.DType())
	}
	k := B.Shape()[1]

	var shifts []float64
	if opts.E != nil {
		if len(opts.E.Shape()) != 1 || opts.E.Shape()[0] != k {
			return nil, fmt.Errorf("linalg: E must have shape {%d} to match B's columns, got %v", k, opts.E.Shape())
		}
		if opts.E.DType() != tensor.Float64 {
			return nil, fmt.Errorf("linalg: E must be float64, got %s", opts.E.DType())
		}
		shifts = opts.E.AsFloat64()
	}
	if opts.M != nil {
		if shifts == nil {
			return nil, fmt.Errorf("linalg: M is only meaningful together with E")
		}
		if opts.M.Rows() != n || opts.M.Cols() != n {
			return nil, fmt.Errorf("linalg: M shape {%d, %d} does not match operator shape {%d, %d}",
				opts.M.Rows(), opts.M.Cols(), n, n)
		}
		if opts.M.DType() != tensor.Float64 {
			return nil, fmt.Errorf("linalg: M must be float64, got %s", opts.M.DType())
		}
	}

	tape := recordingTape(A.Backend())
	if tape != nil {
		tape.StopRecording()
		defer tape.StartRecording()
	}

	bdata := B.AsFloat64()
	var x []float64
	var err error
	switch opts.Method {
	case "exact":
		x, err = solveExact(A, bdata, shifts, n, k, &opts)
	case "cg":
		if !A.Hermitian() {
			return nil, fmt.Errorf("linalg: cg requires a hermitian operator")
		}
		if opts.M != nil && !opts.M.Hermitian() {
			return nil, fmt.Errorf("linalg: cg requires a hermitian M")
		}
		x, err = solveIterative(A, bdata, shifts, n, k, &opts, func(apply func([]float64) []float64, b []float64) []float64 {
			return cgSolve(apply, b, opts.MaxIter, opts.MinEps, opts.Logger)
		})
	case "gmres":
		restart := opts.Restart
		if restart == 0 {
			restart = n
			if restart > 30 {
				restart = 30
			}
		}
		x, err = solveIterative(A, bdata, shifts, n, k, &opts, func(apply func([]float64) []float64, b []float64) []float64 {
			return gmresSolve(apply, b, restart, opts.MaxIter, opts.MinEps, opts.Logger)
		})
	default:
		return nil, fmt.Errorf("linalg: unknown Solve method %q", opts.Method)
	}
	if err != nil {
		return nil, err
	}

	xraw := rawFrom(x, tensor.Shape{n, k})
	if tape != nil && shifts == nil {
		if mat, ok := A.(*linop.Matrix); ok {
			amat := append([]float64(nil), mat.Raw().AsFloat64()...)
			recordSolve(tape, mat.Raw(), B, xraw, amat, n, k)
		}
	}
	return xraw, nil
}

func solveExact(A linop.Operator, b, shifts []float64, n, k int, opts *SolveOptions) ([]float64, error) {
	amat := A.Dense().AsFloat64()
	x := make([]float64, n*k)
	col := make([]float64, n)

	if shifts == nil {
		lu, piv, err := luFactor(amat, n)
		if err != nil {
			return nil, err
		}
		for j := 0; j < k; j++ {
			for i := 0; i < n; i++ {
				col[i] = b[i*k+j]
			}
			luSolve(lu, piv, col, n)
			for i := 0; i < n; i++ {
				x[i*k+j] = col[i]
			}
		}
		return x, nil
	}

	var mmat []float64
	if opts.M != nil {
		mmat = opts.M.Dense().AsFloat64()
	}
	shifted := make([]float64, n*n)
	for j := 0; j < k; j++ {
		copy(shifted, amat)
		if mmat != nil {
			for i := range shifted {
				shifted[i] -= shifts[j] * mmat[i]
			}
		} else {
			for i := 0; i < n; i++ {
				shifted[i*n+i] -= shifts[j]
			}
		}
		lu, piv, err := luFactor(shifted, n)
		if err != nil {
			return nil, fmt.Errorf("linalg: shifted system for column %d: %w", j, err)
		}
		for i := 0; i < n; i++ {
			col[i] = b[i*k+j]
		}
		luSolve(lu, piv, col, n)
		for i := 0; i < n; i++ {
			x[i*k+j] = col[i]
		}
	}
	return x, nil
}

// solveIterative runs a matrix-free solver column by column, building the
// shifted apply A − e_j M on the fly.
func solveIterative(A linop.Operator, b, shifts []float64, n, k int, opts *SolveOptions,
	solver func(apply func([]float64) []float64, b []float64) []float64) ([]float64, error) {

	x := make([]float64, n*k)
	col := make([]float64, n)
	for j := 0; j < k; j++ {
		apply := func(v []float64) []float64 { return applyOp(A, v) }
		if shifts != nil {
			e := shifts[j]
			if opts.M != nil {
				m := opts.M
				apply = func(v []float64) []float64 {
					av := applyOp(A, v)
					mv := applyOp(m, v)
					for i := range av {
						av[i] -= e * mv[i]
					}
					return av
				}
			} else {
				apply = func(v []float64) []float64 {
					av := applyOp(A, v)
					for i := range av {
						av[i] -= e * v[i]
					}
					return av
				}
			}
		}
		for i := 0; i < n; i++ {
			col[i] = b[i*k+j]
		}
		sol := solver(apply, col)
		for i := 0; i < n; i++ {
			x[i*k+j] = sol[i]
		}
	}
	return x, nil
}
