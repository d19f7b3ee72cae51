package upscale

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/stat"

	"github.com/GitPaean/PRESTO/partition"
	"github.com/GitPaean/PRESTO/store"
	"github.com/GitPaean/PRESTO/types"
)

var ErrEmptyBlock = errors.New("no values to average")

// Average reduces v with the given rule
func Average(v []float64, method types.AverageMethod) (float64, error) {
	if len(v) == 0 {
		return 0, ErrEmptyBlock
	}
	switch method {
	case types.Arithmetic:
		return stat.Mean(v, nil), nil
	case types.Geometric:
		return stat.GeometricMean(v, nil), nil
	case types.Harmonic:
		return stat.HarmonicMean(v, nil), nil
	}
	return 0, fmt.Errorf("%w: %s", types.ErrUnknownAverageMethod, method)
}

// AveragePorosity is the arithmetic mean of the member porosities
func AveragePorosity(phi []float64) (float64, error) {
	return Average(phi, types.Arithmetic)
}

// AveragePermeability averages each principal component independently and
// returns the diagonal tensor of the results
func AveragePermeability(perms []types.Tensor, method types.AverageMethod) (K types.Tensor, err error) {
	var (
		comp [3][]float64
		k    [3]float64
	)
	for d := 0; d < 3; d++ {
		comp[d] = make([]float64, len(perms))
	}
	for i, T := range perms {
		diag := T.Diagonal()
		for d := 0; d < 3; d++ {
			comp[d][i] = diag[d]
		}
	}
	for d := 0; d < 3; d++ {
		if k[d], err = Average(comp[d], method); err != nil {
			return
		}
	}
	return types.NewDiagonalTensor(k[0], k[1], k[2]), nil
}

// UpscalePorosity stores the mean porosity of every block on its group and
// returns the values by block ID
func (g *FineGrid) UpscalePorosity() (phis []float64, err error) {
	phis = make([]float64, len(g.Partition.Blocks))
	for _, b := range g.Partition.Blocks {
		if phis[b.ID], err = g.blockPorosity(b); err != nil {
			return nil, err
		}
		g.Tags.PrimalPhi.Set(g.Primals[b.ID], phis[b.ID])
	}
	return
}

func (g *FineGrid) blockPorosity(b *partition.Block) (float64, error) {
	cells, err := g.BlockCells(b)
	if err != nil {
		return 0, err
	}
	phi, err := g.Tags.Phi.GetMany(cells)
	if err != nil {
		return 0, err
	}
	return AveragePorosity(phi)
}

// UpscalePermeabilityMean stores the averaged permeability tensor of every
// block on its group and returns the values by block ID
func (g *FineGrid) UpscalePermeabilityMean(method types.AverageMethod) (perms []types.Tensor, err error) {
	perms = make([]types.Tensor, len(g.Partition.Blocks))
	for _, b := range g.Partition.Blocks {
		var (
			members []store.EntityHandle
			cells   []types.Tensor
			K       types.Tensor
		)
		if members, err = g.BlockCells(b); err != nil {
			return nil, err
		}
		if cells, err = g.Tags.Perm.GetMany(members); err != nil {
			return nil, err
		}
		if K, err = AveragePermeability(cells, method); err != nil {
			return nil, fmt.Errorf("block %s: %w", b.Index, err)
		}
		perms[b.ID] = K
		g.Tags.PrimalPerm.Set(g.Primals[b.ID], K)
	}
	return
}
