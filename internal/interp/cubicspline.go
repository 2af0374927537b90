// Package interp provides differentiable 1-D interpolation on non-uniform
// grids: natural cubic splines and a piecewise-linear interpolant. Both are
// linear in the sample values y, so gradients flow to y through a single
// composite tape operation per evaluation.
package interp

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/scigrad-ml/scigrad/internal/parallel"
	"github.com/scigrad-ml/scigrad/internal/tensor"
)

// SplineOptions configures NewCubicSpline1D.
type SplineOptions struct {
	// BCType is the boundary condition; only "natural" (the default) is
	// accepted.
	BCType string
	// Y optionally fixes the sample values at construction so the slope
	// system is solved once and reused across evaluations.
	Y *tensor.RawTensor
	// Logger receives the precedence warning when Y was fixed at
	// construction and an evaluation supplies another y. Default no-op.
	Logger *zap.Logger
}

// CubicSpline1D interpolates samples on a non-uniform 1-D grid with a
// natural cubic spline. The tridiagonal slope system is factorized once
// from the grid alone, so any number of y rows reuse it.
type CubicSpline1D struct {
	x  []float64
	n  int
	dx []float64

	// Thomas factorization of the symmetric tridiagonal spline matrix A.
	thomasW, thomasD, thomasU []float64

	// Right-hand-side tridiagonal R with A k = R y.
	rd, ru, rl []float64

	y  *tensor.RawTensor
	ks []float64 // slopes for the construction-time y

	backend tensor.Backend
	par     parallel.Config
	logger  *zap.Logger
}

// NewCubicSpline1D builds a natural cubic spline over the strictly
// increasing grid x of shape {n}, n ≥ 2. backend is consulted for gradient
// recording; evaluation itself runs on dense kernels.
func NewCubicSpline1D(x *tensor.RawTensor, backend tensor.Backend, o *SplineOptions) (*CubicSpline1D, error) {
	opts := SplineOptions{}
	if o != nil {
		opts = *o
	}
	if opts.BCType == "" {
		opts.BCType = "natural"
	}
	if opts.BCType != "natural" {
		return nil, fmt.Errorf("interp: only the natural boundary condition is supported, got %q", opts.BCType)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	if len(x.Shape()) != 1 {
		return nil, fmt.Errorf("interp: x must be 1-D, got shape %v", x.Shape())
	}
	if x.DType() != tensor.Float64 {
		return nil, fmt.Errorf("interp: x must be float64, got %s", x.DType())
	}
	n := x.Shape()[0]
	if n < 2 {
		return nil, fmt.Errorf("interp: need at least 2 grid points, got %d", n)
	}

	xs := append([]float64(nil), x.AsFloat64()...)
	dx := make([]float64, n-1)
	for i := 0; i < n-1; i++ {
		dx[i] = xs[i+1] - xs[i]
		if dx[i] <= 0 {
			return nil, fmt.Errorf("interp: x must be strictly increasing, violated at index %d", i+1)
		}
	}

	s := &CubicSpline1D{
		x:       xs,
		n:       n,
		dx:      dx,
		backend: backend,
		par:     parallel.DefaultConfig(),
		logger:  opts.Logger,
	}
	s.buildSystem()

	if opts.Y != nil {
		if err := s.checkY(opts.Y); err != nil {
			return nil, err
		}
		s.y = opts.Y
		s.ks = s.solveSlopes(opts.Y.AsFloat64())
	}
	return s, nil
}

// buildSystem assembles the natural-spline slope system A k = R y on the
// grid and factorizes A with the Thomas algorithm. dxinv is zero-padded at
// both ends so the boundary rows fall out of the same expressions as the
// interior ones.
func (s *CubicSpline1D) buildSystem() {
	n := s.n
	dxinv := make([]float64, n+1) // padded
	for i, d := range s.dx {
		dxinv[i+1] = 1 / d
	}

	diag := make([]float64, n)
	off := make([]float64, n-1)
	for i := 0; i < n; i++ {
		diag[i] = 2 * (dxinv[i] + dxinv[i+1])
	}
	for i := 0; i < n-1; i++ {
		off[i] = dxinv[i+1]
	}

	dxinv2 := make([]float64, n+1)
	for i, v := range dxinv {
		dxinv2[i] = 3 * v * v
	}
	s.rd = make([]float64, n)
	s.ru = make([]float64, n-1)
	s.rl = make([]float64, n-1)
	for i := 0; i < n; i++ {
		s.rd[i] = dxinv2[i] - dxinv2[i+1]
	}
	for i := 0; i < n-1; i++ {
		s.ru[i] = dxinv2[i+1]
		s.rl[i] = -dxinv2[i+1]
	}

	// Thomas factorization; A is symmetric and diagonally dominant, so no
	// pivoting is needed.
	s.thomasW = make([]float64, n)
	s.thomasD = make([]float64, n)
	s.thomasU = off
	s.thomasD[0] = diag[0]
	for i := 1; i < n; i++ {
		s.thomasW[i] = off[i-1] / s.thomasD[i-1]
		s.thomasD[i] = diag[i] - s.thomasW[i]*off[i-1]
	}
}

// thomasSolve solves A k = rhs in place using the stored factorization.
func (s *CubicSpline1D) thomasSolve(rhs []float64) {
	n := s.n
	for i := 1; i < n; i++ {
		rhs[i] -= s.thomasW[i] * rhs[i-1]
	}
	rhs[n-1] /= s.thomasD[n-1]
	for i := n - 2; i >= 0; i-- {
		rhs[i] = (rhs[i] - s.thomasU[i]*rhs[i+1]) / s.thomasD[i]
	}
}

// solveSlopes computes the spline slopes k = A⁻¹ R y.
func (s *CubicSpline1D) solveSlopes(y []float64) []float64 {
	n := s.n
	rhs := make([]float64, n)
	for i := 0; i < n; i++ {
		rhs[i] = s.rd[i] * y[i]
		if i > 0 {
			rhs[i] += s.rl[i-1] * y[i-1]
		}
		if i < n-1 {
			rhs[i] += s.ru[i] * y[i+1]
		}
	}
	s.thomasSolve(rhs)
	return rhs
}

func (s *CubicSpline1D) checkY(y *tensor.RawTensor) error {
	if len(y.Shape()) != 1 || y.Shape()[0] != s.n {
		return fmt.Errorf("interp: y must have shape {%d} to match the grid, got %v", s.n, y.Shape())
	}
	if y.DType() != tensor.Float64 {
		return fmt.Errorf("interp: y must be float64, got %s", y.DType())
	}
	return nil
}

// Eval interpolates at the query points xq using the y fixed at
// construction.
func (s *CubicSpline1D) Eval(xq *tensor.RawTensor) (*tensor.RawTensor, error) {
	if s.y == nil {
		return nil, fmt.Errorf("interp: y must be given, either at construction or through EvalWith")
	}
	return s.eval(xq, s.y, s.ks)
}

// EvalWith interpolates at xq with the sample values y. When y was already
// fixed at construction the fixed values win and y is ignored with a
// warning.
func (s *CubicSpline1D) EvalWith(xq, y *tensor.RawTensor) (*tensor.RawTensor, error) {
	if s.y != nil {
		if y != nil {
			s.logger.Warn("y was supplied at construction; the value passed to EvalWith is ignored")
		}
		return s.eval(xq, s.y, s.ks)
	}
	if y == nil {
		return nil, fmt.Errorf("interp: y must be given, either at construction or through EvalWith")
	}
	if err := s.checkY(y); err != nil {
		return nil, err
	}
	return s.eval(xq, y, s.solveSlopes(y.AsFloat64()))
}

func (s *CubicSpline1D) eval(xq *tensor.RawTensor, y *tensor.RawTensor, ks []float64) (*tensor.RawTensor, error) {
	if len(xq.Shape()) != 1 {
		return nil, fmt.Errorf("interp: xq must be 1-D, got shape %v", xq.Shape())
	}
	if xq.DType() != tensor.Float64 {
		return nil, fmt.Errorf("interp: xq must be float64, got %s", xq.DType())
	}
	xqd := xq.AsFloat64()
	nrq := len(xqd)
	yd := y.AsFloat64()

	// Interval lookup with clamping, so queries outside the grid
	// extrapolate with the edge polynomials.
	idxl := make([]int, nrq)
	for q, v := range xqd {
		i := sort.SearchFloat64s(s.x, v)
		if i < 1 {
			i = 1
		}
		if i > s.n-1 {
			i = s.n - 1
		}
		idxl[q] = i - 1
	}

	out := make([]float64, nrq)
	var rec *splineRecord
	if recordable(s.backend, y) {
		rec = &splineRecord{
			idxl: idxl,
			wyl:  make([]float64, nrq),
			wyr:  make([]float64, nrq),
			wkl:  make([]float64, nrq),
			wkr:  make([]float64, nrq),
		}
	}

	if nrq > s.n && rec == nil {
		s.evalDense(xqd, idxl, yd, ks, out)
	} else {
		s.evalHermite(xqd, idxl, yd, ks, out, rec)
	}

	outRaw := rawVec(out)
	if rec != nil {
		recordSpline(s, y, outRaw, rec)
	}
	return outRaw, nil
}

// evalDense precomputes per-interval cubic coefficients, which amortizes
// better when there are more queries than grid points.
func (s *CubicSpline1D) evalDense(xq []float64, idxl []int, y, ks, out []float64) {
	n := s.n
	p0 := make([]float64, n-1)
	p1 := make([]float64, n-1)
	p2 := make([]float64, n-1)
	p3 := make([]float64, n-1)
	for i := 0; i < n-1; i++ {
		dy := y[i+1] - y[i]
		a := ks[i]*s.dx[i] - dy
		b := -ks[i+1]*s.dx[i] + dy
		p0[i] = y[i]
		p1[i] = dy + a
		p2[i] = b - 2*a
		p3[i] = a - b
	}

	parallel.For(len(xq), func(q int) {
		i := idxl[q]
		t := (xq[q] - s.x[i]) / s.dx[i]
		out[q] = p0[i] + t*(p1[i]+t*(p2[i]+t*p3[i]))
	}, s.par)
}

// evalHermite evaluates through the Hermite basis weights, which is cheaper
// for sparse queries and yields the weights the gradient needs.
func (s *CubicSpline1D) evalHermite(xq []float64, idxl []int, y, ks, out []float64, rec *splineRecord) {
	parallel.For(len(xq), func(q int) {
		i := idxl[q]
		dxrl := s.dx[i]
		t := (xq[q] - s.x[i]) / dxrl
		tinv := 1 - t
		tta := t * tinv * tinv
		ttb := t * t * tinv
		tyl := tinv + tta - ttb
		tyr := t - tta + ttb
		tkl := tta * dxrl
		tkr := -ttb * dxrl

		out[q] = y[i]*tyl + y[i+1]*tyr + ks[i]*tkl + ks[i+1]*tkr
		if rec != nil {
			rec.wyl[q] = tyl
			rec.wyr[q] = tyr
			rec.wkl[q] = tkl
			rec.wkr[q] = tkr
		}
	}, s.par)
}

func rawVec(data []float64) *tensor.RawTensor {
	out, err := tensor.NewRaw(tensor.Shape{len(data)}, tensor.Float64, tensor.CPU)
	if err != nil {
		panic("interp: " + err.Error())
	}
	copy(out.AsFloat64(), data)
	return out
}
