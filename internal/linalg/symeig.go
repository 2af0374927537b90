package linalg

import (
	"fmt"

	"github.com/scigrad-ml/scigrad/internal/autodiff"
	"github.com/scigrad-ml/scigrad/internal/linop"
	"github.com/scigrad-ml/scigrad/internal/tensor"
)

// SymEig computes the neig lowest (or uppest) eigenpairs of a Hermitian
// operator, optionally generalized with a Hermitian positive-definite
// overlap M so that A x = λ M x. Eigenvalues come back ascending in a
// tensor of shape {neig}; eigenvectors are the columns of a {n, neig}
// tensor and are M-orthonormal.
//
// The standard exact problem is differentiable: when A is a dense
// linop.Matrix on a recording autodiff backend, adjoints for both outputs
// are registered on the tape.
func SymEig(A linop.Operator, neig int, o *SymEigOptions) (*tensor.RawTensor, *tensor.RawTensor, error) {
	opts := o.withDefaults()

	if A == nil {
		return nil, nil, fmt.Errorf("linalg: SymEig requires an operator")
	}
	if !A.Hermitian() {
		return nil, nil, fmt.Errorf("linalg: SymEig requires a hermitian operator")
	}
	if A.Rows() != A.Cols() {
		return nil, nil, fmt.Errorf("linalg: SymEig requires a square operator, got shape {%d, %d}", A.Rows(), A.Cols())
	}
	if A.DType() != tensor.Float64 {
		return nil, nil, fmt.Errorf("linalg: SymEig computes in float64, got operator dtype %s", A.DType())
	}
	n := A.Rows()
	if neig < 1 || neig > n {
		return nil, nil, fmt.Errorf("linalg: neig must be in [1, %d], got %d", n, neig)
	}
	if opts.M != nil {
		if !opts.M.Hermitian() {
			return nil, nil, fmt.Errorf("linalg: SymEig overlap M must be hermitian")
		}
		if opts.M.Rows() != n || opts.M.Cols() != n {
			return nil, nil, fmt.Errorf("linalg: overlap M shape {%d, %d} does not match operator shape {%d, %d}",
				opts.M.Rows(), opts.M.Cols(), n, n)
		}
		if opts.M.DType() != tensor.Float64 {
			return nil, nil, fmt.Errorf("linalg: overlap M must be float64, got %s", opts.M.DType())
		}
	}
	if opts.Mode != ModeLowest && opts.Mode != ModeUppest {
		return nil, nil, fmt.Errorf("linalg: unknown mode %q", opts.Mode)
	}

	// Internal arithmetic must not land on the tape; only the composite
	// adjoint is recorded.
	tape := recordingTape(A.Backend())
	if tape != nil {
		tape.StopRecording()
		defer tape.StartRecording()
	}

	switch opts.Method {
	case "exact":
		return symEigExact(A, neig, &opts, tape)
	case "davidson":
		evals, evecs, err := symEigDavidson(A, neig, &opts)
		if err != nil {
			return nil, nil, err
		}
		return rawFrom(evals, tensor.Shape{neig}), rawFrom(evecs, tensor.Shape{n, neig}), nil
	default:
		return nil, nil, fmt.Errorf("linalg: unknown SymEig method %q", opts.Method)
	}
}

func symEigExact(A linop.Operator, neig int, opts *SymEigOptions, tape *autodiff.GradientTape) (*tensor.RawTensor, *tensor.RawTensor, error) {
	n := A.Rows()
	amat := A.Dense().AsFloat64()

	var fullVals, fullVecs []float64
	if opts.M == nil {
		fullVals, fullVecs = jacobiEig(amat, n)
	} else {
		// Reduce the generalized problem through the Cholesky factor of M:
		// with M = L Lᵀ, the operator L⁻¹ A L⁻ᵀ has the same eigenvalues
		// and its eigenvectors map back through L⁻ᵀ, staying M-orthonormal.
		mmat := opts.M.Dense().AsFloat64()
		l, err := cholesky(mmat, n)
		if err != nil {
			return nil, nil, fmt.Errorf("linalg: overlap M: %w", err)
		}

		// B = L⁻¹ A, solved column by column against the rows of Aᵀ.
		b := transposed(amat, n, n)
		for j := 0; j < n; j++ {
			solveLower(l, b[j*n:(j+1)*n], n)
		}
		// b holds Bᵀ; A2 = B L⁻ᵀ = L⁻¹ A L⁻ᵀ has column j equal to
		// L⁻¹ (row j of B), again solved row-contiguously.
		a2 := transposed(b, n, n)
		for j := 0; j < n; j++ {
			solveLower(l, a2[j*n:(j+1)*n], n)
		}
		// Symmetrize away the round-off before diagonalizing.
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				v := 0.5 * (a2[i*n+j] + a2[j*n+i])
				a2[i*n+j], a2[j*n+i] = v, v
			}
		}

		var v2 []float64
		fullVals, v2 = jacobiEig(a2, n)

		// Map back: evecs = L⁻ᵀ V2, column by column.
		fullVecs = make([]float64, n*n)
		col := make([]float64, n)
		for k := 0; k < n; k++ {
			for i := 0; i < n; i++ {
				col[i] = v2[i*n+k]
			}
			solveLowerT(l, col, n)
			for i := 0; i < n; i++ {
				fullVecs[i*n+k] = col[i]
			}
		}
	}

	lo := 0
	if opts.Mode == ModeUppest {
		lo = n - neig
	}
	evals := make([]float64, neig)
	evecs := make([]float64, n*neig)
	selIdx := make([]int, neig)
	for k := 0; k < neig; k++ {
		selIdx[k] = lo + k
		evals[k] = fullVals[lo+k]
		for i := 0; i < n; i++ {
			evecs[i*neig+k] = fullVecs[i*n+lo+k]
		}
	}

	evalsRaw := rawFrom(evals, tensor.Shape{neig})
	evecsRaw := rawFrom(evecs, tensor.Shape{n, neig})

	if tape != nil && opts.M == nil {
		if mat, ok := A.(*linop.Matrix); ok {
			recordSymEig(tape, mat.Raw(), evalsRaw, evecsRaw, fullVals, fullVecs, selIdx, n)
		}
	}
	return evalsRaw, evecsRaw, nil
}
