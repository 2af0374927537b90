// Package optimize implements numerical optimization routines: a Broyden
// rootfinder for nonlinear systems F(x) = 0 and a first-order minimizer
// driven by gradients from the autodiff tape.
//
// Like the linalg package, everything here computes in float64.
package optimize

import (
	"fmt"
	"math"

	"go.uber.org/zap"
)

// RootOptions configures Root.
type RootOptions struct {
	// MaxIter caps the number of Broyden iterations (default 500).
	MaxIter int
	// Tol is the max-norm residual threshold for convergence (default 1e-9).
	Tol float64
	// Alpha scales the initial inverse-Jacobian estimate alpha*I (default 1).
	Alpha float64
	// Logger receives per-iteration diagnostics (default no-op).
	Logger *zap.Logger
}

func (o *RootOptions) withDefaults() RootOptions {
	opts := RootOptions{}
	if o != nil {
		opts = *o
	}
	if opts.MaxIter == 0 {
		opts.MaxIter = 500
	}
	if opts.Tol == 0 {
		opts.Tol = 1e-9
	}
	if opts.Alpha == 0 {
		opts.Alpha = 1
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return opts
}

// Root solves F(x) = 0 with Broyden's good method. It maintains a dense
// inverse-Jacobian estimate updated by the Sherman-Morrison formula, with
// step halving whenever a full step would increase the residual norm.
//
// Returns the best iterate found. When the residual never drops below
// Tol within MaxIter iterations a warning is logged and the best iterate
// is still returned.
func Root(f func([]float64) []float64, x0 []float64, o *RootOptions) ([]float64, error) {
	opts := o.withDefaults()

	n := len(x0)
	if n == 0 {
		return nil, fmt.Errorf("optimize: x0 must be non-empty")
	}

	x := append([]float64(nil), x0...)
	fx := f(x)
	if len(fx) != n {
		return nil, fmt.Errorf("optimize: F returned %d components for %d unknowns", len(fx), n)
	}
	fx = append([]float64(nil), fx...)

	// h approximates the inverse Jacobian, starting from alpha*I.
	h := make([]float64, n*n)
	for i := 0; i < n; i++ {
		h[i*n+i] = opts.Alpha
	}

	best := append([]float64(nil), x...)
	bestResid := normInf(fx)

	for iter := 0; iter < opts.MaxIter; iter++ {
		resid := normInf(fx)
		if resid < bestResid {
			bestResid = resid
			copy(best, x)
		}
		opts.Logger.Debug("broyden iteration",
			zap.Int("iter", iter),
			zap.Float64("resid", resid))
		if resid < opts.Tol {
			return x, nil
		}

		// dx = -H F(x)
		dx := make([]float64, n)
		for i := 0; i < n; i++ {
			sum := 0.0
			for j := 0; j < n; j++ {
				sum += h[i*n+j] * fx[j]
			}
			dx[i] = -sum
		}

		// Halve the step while it increases the residual norm. After a
		// few halvings the step is taken anyway so the Jacobian estimate
		// keeps improving.
		step := 1.0
		xn := make([]float64, n)
		var fn []float64
		fxNorm := norm2(fx)
		for halving := 0; ; halving++ {
			for i := range xn {
				xn[i] = x[i] + step*dx[i]
			}
			fn = f(xn)
			if len(fn) != n {
				return nil, fmt.Errorf("optimize: F returned %d components for %d unknowns", len(fn), n)
			}
			if norm2(fn) < fxNorm || halving >= 6 {
				break
			}
			step /= 2
		}

		// Good Broyden update:
		//   H += (s - H y) (s^T H) / (s^T H y)
		// with s = x_{k+1} - x_k and y = F_{k+1} - F_k.
		s := make([]float64, n)
		y := make([]float64, n)
		for i := 0; i < n; i++ {
			s[i] = xn[i] - x[i]
			y[i] = fn[i] - fx[i]
		}
		hy := make([]float64, n)
		for i := 0; i < n; i++ {
			sum := 0.0
			for j := 0; j < n; j++ {
				sum += h[i*n+j] * y[j]
			}
			hy[i] = sum
		}
		sth := make([]float64, n)
		for j := 0; j < n; j++ {
			sum := 0.0
			for i := 0; i < n; i++ {
				sum += s[i] * h[i*n+j]
			}
			sth[j] = sum
		}
		denom := dot(s, hy)
		if math.Abs(denom) > 1e-300 {
			for i := 0; i < n; i++ {
				c := (s[i] - hy[i]) / denom
				for j := 0; j < n; j++ {
					h[i*n+j] += c * sth[j]
				}
			}
		}

		copy(x, xn)
		copy(fx, fn)
	}

	if resid := normInf(fx); resid < bestResid {
		bestResid = resid
		copy(best, x)
	}
	if bestResid >= opts.Tol {
		opts.Logger.Warn("broyden did not converge",
			zap.Int("max_iter", opts.MaxIter),
			zap.Float64("resid", bestResid))
	}
	return best, nil
}

func dot(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

func norm2(v []float64) float64 {
	return math.Sqrt(dot(v, v))
}

func normInf(v []float64) float64 {
	max := 0.0
	for _, x := range v {
		if a := math.Abs(x); a > max {
			max = a
		}
	}
	return max
}
