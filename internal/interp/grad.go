package interp

import (
	"github.com/scigrad-ml/scigrad/internal/autodiff"
	"github.com/scigrad-ml/scigrad/internal/tensor"
)

// Interpolation is linear in the sample values, so one composite tape
// operation per evaluation carries the full adjoint with respect to y.

func recordable(backend tensor.Backend, y *tensor.RawTensor) bool {
	if y == nil {
		return false
	}
	bc, ok := backend.(autodiff.BackwardCapable)
	return ok && bc.GetTape().IsRecording()
}

// splineRecord keeps the per-query interval indices and Hermite weights
// gathered during the forward pass.
type splineRecord struct {
	idxl               []int
	wyl, wyr, wkl, wkr []float64
}

// splineOp is the recorded spline evaluation. With yq = Ty y + Tk A⁻¹ R y
// the adjoint is grad_y = Tyᵀ g + Rᵀ A⁻¹ (Tkᵀ g), reusing the Thomas
// factorization since A is symmetric.
type splineOp struct {
	spline *CubicSpline1D
	y, out *tensor.RawTensor
	rec    *splineRecord
}

func recordSpline(s *CubicSpline1D, y, out *tensor.RawTensor, rec *splineRecord) {
	bc := s.backend.(autodiff.BackwardCapable)
	bc.GetTape().Record(&splineOp{spline: s, y: y, out: out, rec: rec})
}

func (op *splineOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.y} }
func (op *splineOp) Output() *tensor.RawTensor   { return op.out }

func (op *splineOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	g := outputGrad.AsFloat64()
	s := op.spline
	n := s.n

	grad := make([]float64, n)
	v := make([]float64, n)
	for q, i := range op.rec.idxl {
		grad[i] += g[q] * op.rec.wyl[q]
		grad[i+1] += g[q] * op.rec.wyr[q]
		v[i] += g[q] * op.rec.wkl[q]
		v[i+1] += g[q] * op.rec.wkr[q]
	}

	s.thomasSolve(v)
	for i := 0; i < n; i++ {
		grad[i] += s.rd[i] * v[i]
		if i > 0 {
			grad[i] += s.ru[i-1] * v[i-1]
		}
		if i < n-1 {
			grad[i] += s.rl[i] * v[i+1]
		}
	}
	return []*tensor.RawTensor{rawVec(grad)}
}

// linearOp is the recorded piecewise-linear evaluation; the adjoint is the
// plain scatter of the two interval weights.
type linearOp struct {
	n      int
	y, out *tensor.RawTensor
	idxl   []int
	wl, wr []float64
}

func (op *linearOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.y} }
func (op *linearOp) Output() *tensor.RawTensor   { return op.out }

func (op *linearOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	g := outputGrad.AsFloat64()
	grad := make([]float64, op.n)
	for q, i := range op.idxl {
		grad[i] += g[q] * op.wl[q]
		grad[i+1] += g[q] * op.wr[q]
	}
	return []*tensor.RawTensor{rawVec(grad)}
}
