package linalg

import (
	"math"

	"github.com/scigrad-ml/scigrad/internal/autodiff"
	"github.com/scigrad-ml/scigrad/internal/tensor"
)

// Composite tape operations for the linalg routines. The forward passes run
// off-tape in dense float64 kernels, so each routine contributes exactly one
// node per output with an analytic adjoint instead of a trail through every
// rotation and elimination step.

// degenTol guards the 1/(λ_k − λ_j) factors of the eigenvector adjoint:
// contributions inside a degenerate cluster are dropped, which is the
// gauge-invariant choice when the loss only depends on the subspace.
const degenTol = 1e-12

// symEigValsOp carries the eigenvalue adjoint dA = Σ_k gλ_k u_k u_kᵀ.
type symEigValsOp struct {
	amat    *tensor.RawTensor
	evals   *tensor.RawTensor
	evecs   []float64 // selected eigenvectors, n × neig
	n, neig int
}

// symEigVecsOp carries the eigenvector adjoint built from the full
// spectrum: dA = Σ_k Σ_{j≠k} (u_jᵀ gU_k)/(λ_k − λ_j) u_j u_kᵀ.
type symEigVecsOp struct {
	amat     *tensor.RawTensor
	evecsOut *tensor.RawTensor
	fullVals []float64 // n
	fullVecs []float64 // n × n
	selIdx   []int     // which full column each output column is
	n, neig  int
}

func recordSymEig(tape *autodiff.GradientTape, amat, evalsRaw, evecsRaw *tensor.RawTensor,
	fullVals, fullVecs []float64, selIdx []int, n int) {
	// The routine paused the tape for its internals; the composite records
	// themselves must land on it.
	tape.StartRecording()

	neig := len(selIdx)

	sel := make([]float64, n*neig)
	for k, j := range selIdx {
		for i := 0; i < n; i++ {
			sel[i*neig+k] = fullVecs[i*n+j]
		}
	}

	tape.Record(&symEigValsOp{
		amat:  amat,
		evals: evalsRaw,
		evecs: sel,
		n:     n,
		neig:  neig,
	})
	tape.Record(&symEigVecsOp{
		amat:     amat,
		evecsOut: evecsRaw,
		fullVals: fullVals,
		fullVecs: fullVecs,
		selIdx:   selIdx,
		n:        n,
		neig:     neig,
	})
}

func (op *symEigValsOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.amat} }
func (op *symEigValsOp) Output() *tensor.RawTensor   { return op.evals }

func (op *symEigValsOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	gl := outputGrad.AsFloat64()
	n, neig := op.n, op.neig

	grad := make([]float64, n*n)
	for k := 0; k < neig; k++ {
		if gl[k] == 0 {
			continue
		}
		for a := 0; a < n; a++ {
			ua := op.evecs[a*neig+k]
			if ua == 0 {
				continue
			}
			for b := 0; b < n; b++ {
				grad[a*n+b] += gl[k] * ua * op.evecs[b*neig+k]
			}
		}
	}
	return []*tensor.RawTensor{rawFrom(grad, tensor.Shape{n, n})}
}

func (op *symEigVecsOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.amat} }
func (op *symEigVecsOp) Output() *tensor.RawTensor   { return op.evecsOut }

func (op *symEigVecsOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	gu := outputGrad.AsFloat64() // n × neig
	n, neig := op.n, op.neig

	// P = U_fullᵀ gU, then scale by the guarded gap inverses.
	p := matTMul(op.fullVecs, gu, n, n, neig)
	scale := 1.0
	for _, v := range op.fullVals {
		if a := math.Abs(v); a > scale {
			scale = a
		}
	}
	for k := 0; k < neig; k++ {
		lam := op.fullVals[op.selIdx[k]]
		for j := 0; j < n; j++ {
			gap := lam - op.fullVals[j]
			if j == op.selIdx[k] || math.Abs(gap) < degenTol*scale {
				p[j*neig+k] = 0
				continue
			}
			p[j*neig+k] /= gap
		}
	}

	// dA = U_full P U_selᵀ.
	sel := make([]float64, n*neig)
	for k, j := range op.selIdx {
		for i := 0; i < n; i++ {
			sel[i*neig+k] = op.fullVecs[i*n+j]
		}
	}
	up := matMul(op.fullVecs, p, n, n, neig)
	grad := matMulT(up, sel, n, neig, n)
	return []*tensor.RawTensor{rawFrom(grad, tensor.Shape{n, n})}
}

// solveOp carries the solve adjoint: with X = A⁻¹B,
// grad_B = A⁻ᵀ G and grad_A = −grad_B Xᵀ.
type solveOp struct {
	amat, b, x *tensor.RawTensor
	adense     []float64 // copy of A at forward time
	n, k       int
}

func recordSolve(tape *autodiff.GradientTape, amat, b, x *tensor.RawTensor, adense []float64, n, k int) {
	tape.StartRecording()
	tape.Record(&solveOp{amat: amat, b: b, x: x, adense: adense, n: n, k: k})
}

func (op *solveOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.amat, op.b}
}

func (op *solveOp) Output() *tensor.RawTensor { return op.x }

func (op *solveOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	g := outputGrad.AsFloat64() // n × k
	n, k := op.n, op.k

	at := transposed(op.adense, n, n)
	lu, piv, err := luFactor(at, n)
	if err != nil {
		panic("linalg: solve backward: " + err.Error())
	}

	gradB := make([]float64, n*k)
	col := make([]float64, n)
	for j := 0; j < k; j++ {
		for i := 0; i < n; i++ {
			col[i] = g[i*k+j]
		}
		luSolve(lu, piv, col, n)
		for i := 0; i < n; i++ {
			gradB[i*k+j] = col[i]
		}
	}

	xdata := op.x.AsFloat64()
	gradA := matMulT(gradB, xdata, n, k, n)
	for i := range gradA {
		gradA[i] = -gradA[i]
	}

	return []*tensor.RawTensor{
		rawFrom(gradA, tensor.Shape{n, n}),
		rawFrom(gradB, tensor.Shape{n, k}),
	}
}
