package solver

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// How often CG replaces the recursive residual with b - A x
const recomputeResidualInterval = 50

// CG is a Jacobi preconditioned conjugate gradient solver. A must be
// symmetric positive definite.
type CG struct{}

func (CG) Solve(A *Matrix, b, x0 []float64, cfg Config) (res Result, err error) {
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
		for i := range x {
			x[i] = 0
		}
		res.Converged = true
		return
	}
	invDiag := jacobi(A)
	var (
		r = make([]float64, n)
		z = make([]float64, n)
		p = make([]float64, n)
		q = make([]float64, n)
	)
	A.MulVecTo(r, x)
	floats.SubTo(r, b, r)
	res.Residual = floats.Norm(r, 2) / bNorm
	if res.Residual <= cfg.Tolerance {
		res.Converged = true
		return
	}
	floats.MulTo(z, invDiag, r)
	copy(p, z)
	rz := floats.Dot(r, z)
	for it := 1; it <= cfg.MaxIterations; it++ {
		res.Iterations = it
		A.MulVecTo(q, p)
		pq := floats.Dot(p, q)
		if !(pq > 0) {
			break // A is not positive definite along p
		}
		alpha := rz / pq
		floats.AddScaled(x, alpha, p)
		if it%recomputeResidualInterval == 0 {
			A.MulVecTo(r, x)
			floats.SubTo(r, b, r)
		} else {
			floats.AddScaled(r, -alpha, q)
		}
		if floats.Norm(r, 2)/bNorm <= cfg.Tolerance {
			res.Converged = true
			break
		}
		floats.MulTo(z, invDiag, r)
		rzNew := floats.Dot(r, z)
		if math.IsNaN(rzNew) {
			break
		}
		// p = z + beta*p
		floats.Scale(rzNew/rz, p)
		floats.Add(p, z)
		rz = rzNew
	}
	res.Residual = Residual(A, b, x)
	return
}

// jacobi returns the inverse of the diagonal of A, with zero entries left as one
func jacobi(A *Matrix) (invDiag []float64) {
	invDiag = A.Diagonal()
	for i, d := range invDiag {
		if d == 0 {
			invDiag[i] = 1
		} else {
			invDiag[i] = 1 / d
		}
	}
	return
}
