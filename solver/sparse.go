package solver

import (
	"errors"
	"fmt"

	"github.com/james-bowman/sparse"
)

var ErrDimension = errors.New("dimension mismatch")

// Assembler accumulates (row, col, value) triples into a square sparse matrix
type Assembler struct {
	n   int
	dok *sparse.DOK
}

func NewAssembler(n int) *Assembler {
	return &Assembler{
		n:   n,
		dok: sparse.NewDOK(n, n),
	}
}

// Assemble adds value into A[row, col]; repeated triples are summed
func (a *Assembler) Assemble(row, col int, value float64) error {
	if row < 0 || row >= a.n || col < 0 || col >= a.n {
		return fmt.Errorf("%w: (%d,%d) outside %dx%d", ErrDimension, row, col, a.n, a.n)
	}
	a.dok.Set(row, col, a.dok.At(row, col)+value)
	return nil
}

// Finalize compresses the assembled triples into row compressed storage
func (a *Assembler) Finalize() *Matrix {
	return &Matrix{
		n:   a.n,
		csr: a.dok.ToCSR(),
	}
}

type Matrix struct {
	n   int
	csr *sparse.CSR
}

func (m *Matrix) Dims() (r, c int) { return m.csr.Dims() }
func (m *Matrix) At(i, j int) float64 { return m.csr.At(i, j) }

// NNZ is the number of stored entries
func (m *Matrix) NNZ() int { return m.csr.NNZ() }

// MulVecTo computes dst = A*x
func (m *Matrix) MulVecTo(dst, x []float64) {
	for i := range dst {
		dst[i] = 0
	}
	m.csr.MulVecTo(dst, false, x)
}

// Diagonal returns the main diagonal
func (m *Matrix) Diagonal() (diag []float64) {
	diag = make([]float64, m.n)
	for i := range diag {
		diag[i] = m.csr.At(i, i)
	}
	return
}
