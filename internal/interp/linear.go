package interp

import (
	"fmt"
	"sort"

	"github.com/scigrad-ml/scigrad/internal/autodiff"
	"github.com/scigrad-ml/scigrad/internal/tensor"
)

// Linear1D interpolates samples on a non-uniform 1-D grid with straight
// segments, extrapolating with the edge segments like the spline does.
type Linear1D struct {
	x       []float64
	n       int
	backend tensor.Backend
}

// NewLinear1D builds a piecewise-linear interpolant over the strictly
// increasing grid x of shape {n}, n ≥ 2.
func NewLinear1D(x *tensor.RawTensor, backend tensor.Backend) (*Linear1D, error) {
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
	for i := 1; i < n; i++ {
		if xs[i] <= xs[i-1] {
			return nil, fmt.Errorf("interp: x must be strictly increasing, violated at index %d", i)
		}
	}
	return &Linear1D{x: xs, n: n, backend: backend}, nil
}

// Eval interpolates y at the query points xq.
func (l *Linear1D) Eval(xq, y *tensor.RawTensor) (*tensor.RawTensor, error) {
	if len(xq.Shape()) != 1 {
		return nil, fmt.Errorf("interp: xq must be 1-D, got shape %v", xq.Shape())
	}
	if xq.DType() != tensor.Float64 {
		return nil, fmt.Errorf("interp: xq must be float64, got %s", xq.DType())
	}
	if len(y.Shape()) != 1 || y.Shape()[0] != l.n {
		return nil, fmt.Errorf("interp: y must have shape {%d} to match the grid, got %v", l.n, y.Shape())
	}
	if y.DType() != tensor.Float64 {
		return nil, fmt.Errorf("interp: y must be float64, got %s", y.DType())
	}

	xqd := xq.AsFloat64()
	yd := y.AsFloat64()
	nrq := len(xqd)

	out := make([]float64, nrq)
	idxl := make([]int, nrq)
	wl := make([]float64, nrq)
	wr := make([]float64, nrq)
	for q, v := range xqd {
		i := sort.SearchFloat64s(l.x, v)
		if i < 1 {
			i = 1
		}
		if i > l.n-1 {
			i = l.n - 1
		}
		i--
		t := (v - l.x[i]) / (l.x[i+1] - l.x[i])
		idxl[q] = i
		wl[q] = 1 - t
		wr[q] = t
		out[q] = yd[i]*(1-t) + yd[i+1]*t
	}

	outRaw := rawVec(out)
	if recordable(l.backend, y) {
		bc := l.backend.(autodiff.BackwardCapable)
		bc.GetTape().Record(&linearOp{n: l.n, y: y, out: outRaw, idxl: idxl, wl: wl, wr: wr})
	}
	return outRaw, nil
}
