package linalg

import (
	"fmt"
	"math"
	"math/rand"

	"go.uber.org/zap"

	"github.com/scigrad-ml/scigrad/internal/linop"
)

// symEigDavidson computes the neig extreme eigenpairs with the Davidson
// subspace method: diagonalize the operator projected onto a small
// M-orthonormal subspace, expand the subspace with the negated residuals,
// restart from the Ritz vectors when the subspace would outgrow n. The best
// iterate by residual norm is kept, so a non-converged run still returns
// the closest approximation seen.
func symEigDavidson(A linop.Operator, neig int, opts *SymEigOptions) ([]float64, []float64, error) {
	n := A.Rows()

	op := A
	if opts.Mode == ModeUppest {
		// The uppest eigenpairs of A are the lowest of -A.
		op = linop.Scale(A, -1)
	}

	var applyM func([]float64) []float64
	if opts.M != nil {
		m := opts.M
		applyM = func(x []float64) []float64 { return applyOp(m, x) }
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	v, err := initialGuess(n, neig, opts.VInit, rng)
	if err != nil {
		return nil, nil, err
	}
	v, k := tallqr(v, n, neig, applyM)
	for k < neig {
		v, k = padRandom(v, n, k, neig, rng, applyM)
	}

	bestResid := math.Inf(1)
	var bestVals, bestVecs []float64
	converged := false

	for iter := 0; iter < opts.MaxIter; iter++ {
		av := applyOpMat(op, v, n, k)

		// Projected problem T = Vᵀ A V, solved densely.
		t := matTMul(v, av, n, k, k)
		for i := 0; i < k; i++ {
			for j := i + 1; j < k; j++ {
				s := 0.5 * (t[i*k+j] + t[j*k+i])
				t[i*k+j], t[j*k+i] = s, s
			}
		}
		tvals, tvecs := jacobiEig(t, k)

		w := make([]float64, k*neig)
		lam := make([]float64, neig)
		for c := 0; c < neig; c++ {
			lam[c] = tvals[c]
			for r := 0; r < k; r++ {
				w[r*neig+c] = tvecs[r*k+c]
			}
		}

		q := matMul(v, w, n, k, neig)
		aq := matMul(av, w, n, k, neig)
		mq := q
		if applyM != nil {
			mq = applyOpMat(opts.M, q, n, neig)
		}

		// Residual R = A Q − M Q diag(λ); convergence is the worst column.
		resid := make([]float64, n*neig)
		maxResid := 0.0
		for c := 0; c < neig; c++ {
			sum := 0.0
			for r := 0; r < n; r++ {
				d := aq[r*neig+c] - lam[c]*mq[r*neig+c]
				resid[r*neig+c] = d
				sum += d * d
			}
			if rn := math.Sqrt(sum); rn > maxResid {
				maxResid = rn
			}
		}

		if maxResid < bestResid {
			bestResid = maxResid
			bestVals = append([]float64(nil), lam...)
			bestVecs = append([]float64(nil), q...)
		}

		opts.Logger.Debug("davidson iteration",
			zap.Int("iter", iter),
			zap.Int("subspace", k),
			zap.Float64("max_resid", maxResid))

		if maxResid < opts.MinEps {
			converged = true
			break
		}

		// Expand with the negated residuals; restart from the Ritz vectors
		// once the subspace would outgrow the full space.
		for i := range resid {
			resid[i] = -resid[i]
		}
		if k+neig > n {
			v = catColumns(q, resid, n, neig, neig)
			k = 2 * neig
		} else {
			v = catColumns(v, resid, n, k, neig)
			k += neig
		}
		v, k = tallqr(v, n, k, applyM)
		for k < neig {
			v, k = padRandom(v, n, k, neig, rng, applyM)
		}
	}

	if !converged {
		opts.Logger.Warn("davidson did not converge",
			zap.Int("max_iter", opts.MaxIter),
			zap.Float64("best_resid", bestResid),
			zap.Float64("min_eps", opts.MinEps))
	}

	if opts.Mode == ModeUppest {
		// Undo the sign flip and restore ascending order.
		vals := make([]float64, neig)
		vecs := make([]float64, n*neig)
		for c := 0; c < neig; c++ {
			vals[c] = -bestVals[neig-1-c]
			for r := 0; r < n; r++ {
				vecs[r*neig+c] = bestVecs[r*neig+neig-1-c]
			}
		}
		return vals, vecs, nil
	}
	return bestVals, bestVecs, nil
}

func initialGuess(n, k int, vinit string, rng *rand.Rand) ([]float64, error) {
	v := make([]float64, n*k)
	switch vinit {
	case "randn":
		for i := range v {
			v[i] = rng.NormFloat64()
		}
	case "rand":
		for i := range v {
			v[i] = rng.Float64()
		}
	case "eye":
		for j := 0; j < k; j++ {
			v[j*k+j] = 1
		}
	default:
		return nil, fmt.Errorf("linalg: unknown VInit %q (want randn, rand or eye)", vinit)
	}
	return v, nil
}

// padRandom appends random directions until the orthonormal basis has at
// least want columns; tallqr can drop columns when the residuals become
// linearly dependent.
func padRandom(v []float64, n, k, want int, rng *rand.Rand, applyM func([]float64) []float64) ([]float64, int) {
	extra := make([]float64, n*(want-k))
	for i := range extra {
		extra[i] = rng.NormFloat64()
	}
	return tallqr(catColumns(v, extra, n, k, want-k), n, want, applyM)
}

// catColumns concatenates two row-major column blocks of height n.
func catColumns(a, b []float64, n, ka, kb int) []float64 {
	k := ka + kb
	out := make([]float64, n*k)
	for i := 0; i < n; i++ {
		copy(out[i*k:i*k+ka], a[i*ka:(i+1)*ka])
		copy(out[i*k+ka:(i+1)*k], b[i*kb:(i+1)*kb])
	}
	return out
}
