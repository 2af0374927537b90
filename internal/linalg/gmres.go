package linalg

import (
	"math"

	"go.uber.org/zap"
)

// gmresSolve runs restarted GMRES with Givens-rotation least squares until
// the residual drops below tol relative to ||b|| or maxIter total Arnoldi
// steps have been spent.
func gmresSolve(apply func([]float64) []float64, b []float64, restart, maxIter int, tol float64, lg *zap.Logger) []float64 {
	n := len(b)
	x := make([]float64, n)
	bnorm := norm2(b)
	if bnorm == 0 {
		return x
	}
	target := tol * bnorm

	total := 0
	for total < maxIter {
		// Residual for this cycle.
		ax := apply(x)
		r := make([]float64, n)
		for i := range r {
			r[i] = b[i] - ax[i]
		}
		beta := norm2(r)
		if beta <= target {
			return x
		}

		m := restart
		v := make([][]float64, m+1)
		v[0] = make([]float64, n)
		for i := range r {
			v[0][i] = r[i] / beta
		}
		h := make([][]float64, m+1)
		for i := range h {
			h[i] = make([]float64, m)
		}
		cs := make([]float64, m)
		sn := make([]float64, m)
		g := make([]float64, m+1)
		g[0] = beta

		cols := 0
		for j := 0; j < m && total < maxIter; j++ {
			total++
			w := apply(v[j])
			for i := 0; i <= j; i++ {
				h[i][j] = dot(w, v[i])
				for p := 0; p < n; p++ {
					w[p] -= h[i][j] * v[i][p]
				}
			}
			h[j+1][j] = norm2(w)
			breakdown := h[j+1][j] < 1e-300
			if !breakdown {
				v[j+1] = make([]float64, n)
				for p := 0; p < n; p++ {
					v[j+1][p] = w[p] / h[j+1][j]
				}
			}

			// Fold the new column into the triangular system.
			for i := 0; i < j; i++ {
				tmp := cs[i]*h[i][j] + sn[i]*h[i+1][j]
				h[i+1][j] = -sn[i]*h[i][j] + cs[i]*h[i+1][j]
				h[i][j] = tmp
			}
			denom := math.Hypot(h[j][j], h[j+1][j])
			cs[j] = h[j][j] / denom
			sn[j] = h[j+1][j] / denom
			h[j][j] = denom
			h[j+1][j] = 0
			g[j+1] = -sn[j] * g[j]
			g[j] = cs[j] * g[j]

			cols = j + 1
			resid := math.Abs(g[j+1])
			lg.Debug("gmres iteration",
				zap.Int("iter", total),
				zap.Int("krylov", cols),
				zap.Float64("resid", resid))
			if resid <= target || breakdown {
				break
			}
		}

		// Back-substitute H y = g and update x along the Krylov basis.
		y := make([]float64, cols)
		for i := cols - 1; i >= 0; i-- {
			sum := g[i]
			for j := i + 1; j < cols; j++ {
				sum -= h[i][j] * y[j]
			}
			y[i] = sum / h[i][i]
		}
		for i := 0; i < cols; i++ {
			for p := 0; p < n; p++ {
				x[p] += y[i] * v[i][p]
			}
		}
	}

	ax := apply(x)
	finalResid := 0.0
	for i := range b {
		d := b[i] - ax[i]
		finalResid += d * d
	}
	if math.Sqrt(finalResid) > target {
		lg.Warn("gmres did not converge",
			zap.Int("max_iter", maxIter),
			zap.Float64("resid", math.Sqrt(finalResid)),
			zap.Float64("tol", target))
	}
	return x
}
