package solver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// laplace1D assembles n cells with fixed values at both ends and a three point
// stencil in between
func laplace1D(t *testing.T, n int, left, right float64) (A *Matrix, b []float64) {
	a := NewAssembler(n)
	b = make([]float64, n)
	require.NoError(t, a.Assemble(0, 0, 1))
	require.NoError(t, a.Assemble(n-1, n-1, 1))
	b[0], b[n-1] = left, right
	for i := 1; i < n-1; i++ {
		require.NoError(t, a.Assemble(i, i-1, -1))
		require.NoError(t, a.Assemble(i, i+1, -1))
		require.NoError(t, a.Assemble(i, i, 1))
		require.NoError(t, a.Assemble(i, i, 1)) // Summed
	}
	return a.Finalize(), b
}

// laplaceInterior assembles the n unknowns between two fixed end values,
// with the end values folded into the right hand side
func laplaceInterior(t *testing.T, n int, left, right float64) (A *Matrix, b []float64) {
	a := NewAssembler(n)
	b = make([]float64, n)
	for i := 0; i < n; i++ {
		require.NoError(t, a.Assemble(i, i, 2))
		if i > 0 {
			require.NoError(t, a.Assemble(i, i-1, -1))
		}
		if i < n-1 {
			require.NoError(t, a.Assemble(i, i+1, -1))
		}
	}
	b[0] += left
	b[n-1] += right
	return a.Finalize(), b
}

func TestAssembler(t *testing.T) {
	A, _ := laplace1D(t, 4, 1, 0)
	r, c := A.Dims()
	assert.Equal(t, 4, r)
	assert.Equal(t, 4, c)
	assert.Equal(t, 2., A.At(1, 1))
	assert.Equal(t, -1., A.At(1, 2))
	assert.Equal(t, 0., A.At(0, 3))
	assert.Equal(t, 8, A.NNZ())
	assert.Equal(t, []float64{1, 2, 2, 1}, A.Diagonal())

	dst := []float64{9, 9, 9, 9}
	A.MulVecTo(dst, []float64{1, 1, 1, 1})
	assert.Equal(t, []float64{1, 0, 0, 1}, dst)

	a := NewAssembler(2)
	assert.ErrorIs(t, a.Assemble(2, 0, 1), ErrDimension)
	assert.ErrorIs(t, a.Assemble(0, -1, 1), ErrDimension)
}

func TestBiCGStabLinearProfile(t *testing.T) {
	for _, n := range []int{3, 5, 17, 64} {
		A, b := laplace1D(t, n, 1, 0)
		res, err := BiCGStab{}.Solve(A, b, nil, DefaultConfig())
		require.NoError(t, err)
		assert.True(t, res.Converged, "n = %d", n)
		assert.LessOrEqual(t, res.Residual, DefaultTolerance)
		for i, x := range res.X {
			assert.InDelta(t, 1-float64(i)/float64(n-1), x, 1e-7, "n = %d, i = %d", n, i)
		}
		assert.InDelta(t, 0, Residual(A, b, res.X), 1e-8)
	}
}

func TestInteriorLinearProfile(t *testing.T) {
	for _, ls := range []LinearSolver{CG{}, BiCGStab{}} {
		for _, n := range []int{1, 3, 4, 5, 17, 64} {
			A, b := laplaceInterior(t, n, 1, 0)
			res, err := ls.Solve(A, b, nil, DefaultConfig())
			require.NoError(t, err)
			assert.True(t, res.Converged, "%T n = %d", ls, n)
			for i, x := range res.X {
				assert.InDelta(t, 1-float64(i+1)/float64(n+1), x, 1e-7, "%T n = %d, i = %d", ls, n, i)
			}
			assert.InDelta(t, 0, Residual(A, b, res.X), 1e-8)
		}
	}
}

func TestCG(t *testing.T) {
	A, b := laplaceInterior(t, 198, 1, 0)
	res, err := CG{}.Solve(A, b, nil, Config{MaxIterations: 2, Tolerance: 1e-14})
	require.NoError(t, err)
	assert.False(t, res.Converged)
	assert.Equal(t, 2, res.Iterations)
	assert.Equal(t, Residual(A, b, res.X), res.Residual)

	// A warm start at the solution needs no iteration
	exact := make([]float64, 9)
	for i := range exact {
		exact[i] = 1 - float64(i+1)/10
	}
	A, b = laplaceInterior(t, 9, 1, 0)
	res, err = CG{}.Solve(A, b, exact, DefaultConfig())
	require.NoError(t, err)
	assert.True(t, res.Converged)
	assert.Equal(t, 0, res.Iterations)

	// An indefinite matrix stops the iteration without converging
	a := NewAssembler(2)
	require.NoError(t, a.Assemble(0, 0, 1))
	require.NoError(t, a.Assemble(1, 1, -1))
	res, err = CG{}.Solve(a.Finalize(), []float64{1, 1}, nil, DefaultConfig())
	require.NoError(t, err)
	assert.False(t, res.Converged)

	res, err = CG{}.Solve(A, make([]float64, 9), exact, DefaultConfig())
	require.NoError(t, err)
	assert.True(t, res.Converged)
	assert.Equal(t, make([]float64, 9), res.X)

	_, err = CG{}.Solve(A, b[:3], nil, DefaultConfig())
	assert.ErrorIs(t, err, ErrDimension)
	_, err = CG{}.Solve(A, b, nil, Config{MaxIterations: 10})
	assert.Error(t, err)
}

func TestBiCGStabIterationCap(t *testing.T) {
	A, b := laplace1D(t, 200, 1, 0)
	res, err := BiCGStab{}.Solve(A, b, nil, Config{MaxIterations: 2, Tolerance: 1e-14})
	require.NoError(t, err)
	assert.False(t, res.Converged)
	assert.Equal(t, 2, res.Iterations)
	assert.Len(t, res.X, 200)
}

func TestBiCGStabZeroRHS(t *testing.T) {
	A, b := laplace1D(t, 5, 0, 0)
	res, err := BiCGStab{}.Solve(A, b, []float64{1, 2, 3, 4, 5}, DefaultConfig())
	require.NoError(t, err)
	assert.True(t, res.Converged)
	assert.Equal(t, []float64{0, 0, 0, 0, 0}, res.X)
}

func TestBiCGStabErrors(t *testing.T) {
	A, b := laplace1D(t, 5, 1, 0)
	_, err := BiCGStab{}.Solve(A, b[:3], nil, DefaultConfig())
	assert.ErrorIs(t, err, ErrDimension)
	_, err = BiCGStab{}.Solve(A, b, nil, Config{MaxIterations: 0, Tolerance: 1e-9})
	assert.Error(t, err)
	_, err = BiCGStab{}.Solve(A, b, nil, Config{MaxIterations: 10, Tolerance: 0})
	assert.Error(t, err)
}

func TestNewLinearSolver(t *testing.T) {
	ls, err := NewLinearSolver("")
	require.NoError(t, err)
	assert.Equal(t, CG{}, ls)
	ls, err = NewLinearSolver(" BiCGStab")
	require.NoError(t, err)
	assert.Equal(t, BiCGStab{}, ls)
	_, err = NewLinearSolver("GMRES")
	assert.ErrorIs(t, err, ErrUnknownSolver)
}
