package linalg

import (
	"go.uber.org/zap"

	"github.com/scigrad-ml/scigrad/internal/linop"
	"github.com/scigrad-ml/scigrad/internal/tensor"
)

// Mode selects which end of the spectrum SymEig returns.
type Mode string

const (
	// ModeLowest returns the smallest eigenvalues (the default).
	ModeLowest Mode = "lowest"
	// ModeUppest returns the largest eigenvalues.
	ModeUppest Mode = "uppest"
)

// SymEigOptions configures SymEig. The zero value requests the exact method
// on the standard problem with the lowest part of the spectrum.
type SymEigOptions struct {
	// Method is "exact" (dense Jacobi diagonalization, the default) or
	// "davidson" (iterative subspace method for a few extreme eigenpairs).
	Method string
	// Mode selects the lowest or uppest eigenvalues.
	Mode Mode
	// M is the optional overlap operator for the generalized problem
	// A x = λ M x. It must be Hermitian positive definite.
	M linop.Operator
	// MaxIter bounds Davidson iterations. Default 1000.
	MaxIter int
	// MinEps is the residual tolerance for Davidson convergence.
	// Default 1e-6.
	MinEps float64
	// VInit picks the Davidson initial guess: "randn" (default), "rand"
	// or "eye".
	VInit string
	// Seed seeds the random initial guess so runs are reproducible.
	// Default 12421.
	Seed int64
	// Logger receives per-iteration diagnostics. Default is a no-op logger.
	Logger *zap.Logger
}

func (o *SymEigOptions) withDefaults() SymEigOptions {
	opts := SymEigOptions{}
	if o != nil {
		opts = *o
	}
	if opts.Method == "" {
		opts.Method = "exact"
	}
	if opts.Mode == "" {
		opts.Mode = ModeLowest
	}
	if opts.MaxIter == 0 {
		opts.MaxIter = 1000
	}
	if opts.MinEps == 0 {
		opts.MinEps = 1e-6
	}
	if opts.VInit == "" {
		opts.VInit = "randn"
	}
	if opts.Seed == 0 {
		opts.Seed = 12421
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return opts
}

// SolveOptions configures Solve. The zero value requests the exact method
// on the plain system A X = B.
type SolveOptions struct {
	// Method is "exact" (dense LU, the default), "cg" (conjugate gradient,
	// Hermitian operators only) or "gmres" (restarted GMRES).
	Method string
	// E holds optional per-column shifts of shape {k} so column j solves
	// (A − E[j] M) x_j = b_j.
	E *tensor.RawTensor
	// M is the optional shift metric; identity when E is set and M is nil.
	M linop.Operator
	// MaxIter bounds iterative solver steps. Default 1000.
	MaxIter int
	// MinEps is the relative residual tolerance for the iterative methods.
	// Default 1e-8.
	MinEps float64
	// Restart is the GMRES restart length. Default min(n, 30).
	Restart int
	// Logger receives per-iteration diagnostics. Default is a no-op logger.
	Logger *zap.Logger
}

func (o *SolveOptions) withDefaults() SolveOptions {
	opts := SolveOptions{}
	if o != nil {
		opts = *o
	}
	if opts.Method == "" {
		opts.Method = "exact"
	}
	if opts.MaxIter == 0 {
		opts.MaxIter = 1000
	}
	if opts.MinEps == 0 {
		opts.MinEps = 1e-8
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return opts
}
