package linalg

import (
	"math"

	"go.uber.org/zap"
)

// cgSolve runs conjugate gradients on a Hermitian apply until the residual
// drops below tol relative to ||b||. A run that exhausts maxIter logs a
// warning and returns the current iterate, matching the Davidson behavior.
func cgSolve(apply func([]float64) []float64, b []float64, maxIter int, tol float64, lg *zap.Logger) []float64 {
	n := len(b)
	x := make([]float64, n)
	bnorm := norm2(b)
	if bnorm == 0 {
		return x
	}

	r := append([]float64(nil), b...)
	p := append([]float64(nil), r...)
	rs := dot(r, r)

	for iter := 0; iter < maxIter; iter++ {
		if math.Sqrt(rs) <= tol*bnorm {
			return x
		}
		ap := apply(p)
		pap := dot(p, ap)
		if pap == 0 {
			break
		}
		alpha := rs / pap
		for i := 0; i < n; i++ {
			x[i] += alpha * p[i]
			r[i] -= alpha * ap[i]
		}
		rsNew := dot(r, r)
		lg.Debug("cg iteration",
			zap.Int("iter", iter),
			zap.Float64("resid", math.Sqrt(rsNew)))
		beta := rsNew / rs
		for i := 0; i < n; i++ {
			p[i] = r[i] + beta*p[i]
		}
		rs = rsNew
	}

	if math.Sqrt(rs) > tol*bnorm {
		lg.Warn("cg did not converge",
			zap.Int("max_iter", maxIter),
			zap.Float64("resid", math.Sqrt(rs)),
			zap.Float64("tol", tol*bnorm))
	}
	return x
}
