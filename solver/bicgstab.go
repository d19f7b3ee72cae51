// Package solver assembles sparse linear systems from (row, col, value)
// triples and solves them iteratively.
package solver

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
)

var (
	ErrNotConverged  = errors.New("linear solve did not converge")
	ErrUnknownSolver = errors.New("unknown linear solver")
)

const (
	DefaultMaxIterations = 1000
	DefaultTolerance     = 1e-9
)

type Config struct {
	MaxIterations int
	Tolerance     float64 // On the residual norm relative to the right hand side norm
}

func DefaultConfig() Config {
	return Config{
		MaxIterations: DefaultMaxIterations,
		Tolerance:     DefaultTolerance,
	}
}

func (c Config) Validate() error {
	if c.MaxIterations < 1 {
		return fmt.Errorf("solver max iterations is %d, must be >= 1", c.MaxIterations)
	}
	if !(c.Tolerance > 0) {
		return fmt.Errorf("solver tolerance is %g, must be > 0", c.Tolerance)
	}
	return nil
}

type Result struct {
	X          []float64
	Converged  bool
	Iterations int
	Residual   float64 // Relative residual of X
}

// LinearSolver solves A x = b starting from x0. Failing to converge within the
// iteration cap is not an error: the last iterate is returned with
// Converged set to false.
type LinearSolver interface {
	Solve(A *Matrix, b, x0 []float64, cfg Config) (Result, error)
}

// NewLinearSolver returns the solver named by label, CG when label is empty
func NewLinearSolver(label string) (LinearSolver, error) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "", "cg":
		return CG{}, nil
	case "bicgstab":
		return BiCGStab{}, nil
	}
	return nil, fmt.Errorf("%w: %q, choose CG or BiCGStab", ErrUnknownSolver, label)
}

// Relative size of rHat.r below which BiCGStab restarts
const breakdown = 1e-12

// BiCGStab is a Jacobi preconditioned stabilized bi-conjugate gradient solver
// for general non-symmetric systems. It restarts with a fresh shadow residual
// on breakdown.
type BiCGStab struct{}

func (BiCGStab) Solve(A *Matrix, b, x0 []float64, cfg Config) (res Result, err error) {
	var (
		n, nc = A.Dims()
	)
	if n != nc || len(b) != n || (x0 != nil && len(x0) != n) {
		err = fmt.Errorf("%w: A is %dx%d, len(b) = %d, len(x0) = %d", ErrDimension, n, nc, len(b), len(x0))
		return
	}
	if err = cfg.Validate(); err != nil {
		return
	}
	x := make([]float64, n)
	if x0 != nil {
		copy(x, x0)
	}
	res.X = x
	bNorm := floats.Norm(b, 2)
	if bNorm == 0 {
		// The zero vector is the exact solution
		for i := range x {
			x[i] = 0
		}
		res.Converged = true
		return
	}
	invDiag := jacobi(A)
	var (
		r       = make([]float64, n)
		rHat    = make([]float64, n)
		p       = make([]float64, n)
		v       = make([]float64, n)
		s       = make([]float64, n)
		t       = make([]float64, n)
		pHat    = make([]float64, n)
		sHat    = make([]float64, n)
		rho     = 1.
		alpha   = 1.
		omega   = 1.
		restart = true
	)
	A.MulVecTo(r, x)
	floats.SubTo(r, b, r)
	copy(rHat, r)
	res.Residual = floats.Norm(r, 2) / bNorm
	if res.Residual <= cfg.Tolerance {
		res.Converged = true
		return
	}
	for it := 1; it <= cfg.MaxIterations; it++ {
		res.Iterations = it
		rhoNew := floats.Dot(rHat, r)
		if math.IsNaN(rhoNew) {
			return
		}
		if math.Abs(rhoNew) <= breakdown*floats.Norm(rHat, 2)*floats.Norm(r, 2) {
			// The shadow residual is orthogonal to r, restart from the current residual
			copy(rHat, r)
			rhoNew = floats.Dot(r, r)
			restart = true
		}
		if restart {
			copy(p, r)
			restart = false
		} else {
			beta := (rhoNew / rho) * (alpha / omega)
			// p = r + beta*(p - omega*v)
			floats.AddScaled(p, -omega, v)
			floats.Scale(beta, p)
			floats.Add(p, r)
		}
		floats.MulTo(pHat, invDiag, p)
		A.MulVecTo(v, pHat)
		den := floats.Dot(rHat, v)
		if den == 0 {
			copy(rHat, r)
			restart = true
			continue
		}
		alpha = rhoNew / den
		floats.AddScaledTo(s, r, -alpha, v)
		if sNorm := floats.Norm(s, 2) / bNorm; sNorm <= cfg.Tolerance {
			floats.AddScaled(x, alpha, pHat)
			res.Residual = sNorm
			res.Converged = true
			return
		}
		floats.MulTo(sHat, invDiag, s)
		A.MulVecTo(t, sHat)
		tt := floats.Dot(t, t)
		if tt == 0 {
			floats.AddScaled(x, alpha, pHat)
			return
		}
		omega = floats.Dot(t, s) / tt
		floats.AddScaled(x, alpha, pHat)
		floats.AddScaled(x, omega, sHat)
		floats.AddScaledTo(r, s, -omega, t)
		res.Residual = floats.Norm(r, 2) / bNorm
		if res.Residual <= cfg.Tolerance {
			res.Converged = true
			return
		}
		if omega == 0 {
			restart = true
		}
		rho = rhoNew
	}
	return
}

// Residual returns ||b - A x|| / ||b||
func Residual(A *Matrix, b, x []float64) float64 {
	r := make([]float64, len(b))
	A.MulVecTo(r, x)
	floats.SubTo(r, b, r)
	bNorm := floats.Norm(b, 2)
	if bNorm == 0 {
		return floats.Norm(r, 2)
	}
	return floats.Norm(r, 2) / bNorm
}
