// Package upscale computes coarse block porosity and permeability from a fine
// structured grid, by statistical averaging or by solving a local single
// phase pressure problem on each coarse block.
package upscale

import (
	"errors"
	"fmt"

	"github.com/GitPaean/PRESTO/mesh"
	"github.com/GitPaean/PRESTO/partition"
	"github.com/GitPaean/PRESTO/store"
	"github.com/GitPaean/PRESTO/types"
)

var ErrPropertyLength = errors.New("property array too short")

const (
	TagGlobalID       = "GLOBAL_ID"
	TagPhi            = "PHI"
	TagPerm           = "PERM"
	TagFineToPrimal   = "FINE_TO_PRIMAL"
	TagPrimalID       = "PRIMAL_ID"
	TagPrimalPhi      = "PRIMAL_PHI"
	TagPrimalPerm     = "PRIMAL_PERM"
	TagCoarseGlobalID = "COARSE_GLOBAL_ID"
)

var TagLocalBC = [3]string{"LOCAL_BC_X", "LOCAL_BC_Y", "LOCAL_BC_Z"}

// Tags are the attributes the upscaler reads and writes
type Tags struct {
	GlobalID       store.Tag[int]
	Phi            store.Tag[float64]
	Perm           store.Tag[types.Tensor]
	FineToPrimal   store.Tag[store.EntityHandle]
	PrimalID       store.Tag[int]
	PrimalPhi      store.Tag[float64]
	PrimalPerm     store.Tag[types.Tensor]
	CoarseGlobalID store.Tag[int]
	LocalBC        [3]store.Tag[float64]
}

func NewTags(s *store.Store) (tags Tags, err error) {
	if tags.GlobalID, err = store.NewTag[int](s, TagGlobalID); err != nil {
		return
	}
	if tags.Phi, err = store.NewTag[float64](s, TagPhi); err != nil {
		return
	}
	if tags.Perm, err = store.NewTag[types.Tensor](s, TagPerm); err != nil {
		return
	}
	if tags.FineToPrimal, err = store.NewTag[store.EntityHandle](s, TagFineToPrimal); err != nil {
		return
	}
	if tags.PrimalID, err = store.NewTag[int](s, TagPrimalID); err != nil {
		return
	}
	if tags.PrimalPhi, err = store.NewTag[float64](s, TagPrimalPhi); err != nil {
		return
	}
	if tags.PrimalPerm, err = store.NewTag[types.Tensor](s, TagPrimalPerm); err != nil {
		return
	}
	if tags.CoarseGlobalID, err = store.NewTag[int](s, TagCoarseGlobalID); err != nil {
		return
	}
	for d := range tags.LocalBC {
		if tags.LocalBC[d], err = store.NewTag[float64](s, TagLocalBC[d]); err != nil {
			return
		}
	}
	return
}

// FineGrid is the fine mesh loaded into a store together with its coarse partition
type FineGrid struct {
	Store     *store.Store
	Tags      Tags
	CellSize  types.CellSize
	Partition *partition.Partition
	Cells     []store.EntityHandle // By fine linear index
	Primals   []store.EntityHandle // One group per coarse block, by Block.ID
}

// LoadFineGrid builds the fine hexahedra, tags each with its porosity and
// diagonal permeability, and groups them by coarse block.
// perm holds three stacked blocks of Extent.Count() values: kx, then ky, then kz.
func LoadFineGrid(s *store.Store, extent types.Extent, cellSize types.CellSize,
	ratio types.CoarseningRatio, phi, perm []float64) (g *FineGrid, err error) {
	var (
		m *mesh.Mesh
		N = extent.Count()
	)
	if m, err = mesh.NewStructuredMesh(extent, cellSize); err != nil {
		return
	}
	if len(phi) < N {
		err = fmt.Errorf("%w: %d porosity values for %d cells", ErrPropertyLength, len(phi), N)
		return
	}
	if len(perm) < 3*N {
		err = fmt.Errorf("%w: %d permeability values for %d cells, need %d", ErrPropertyLength, len(perm), N, 3*N)
		return
	}
	g = &FineGrid{
		Store:    s,
		CellSize: cellSize,
	}
	if g.Partition, err = partition.New(extent, ratio); err != nil {
		return nil, err
	}
	if g.Tags, err = NewTags(s); err != nil {
		return nil, err
	}
	if g.Cells, err = s.AddMesh(m); err != nil {
		return nil, err
	}
	for c, cell := range g.Cells {
		g.Tags.GlobalID.Set(cell, c)
		g.Tags.Phi.Set(cell, phi[c])
		g.Tags.Perm.Set(cell, types.NewDiagonalTensor(perm[c], perm[c+N], perm[c+2*N]))
	}
	g.Primals = make([]store.EntityHandle, len(g.Partition.Blocks))
	for _, b := range g.Partition.Blocks {
		primal := s.CreateGroup()
		members := make([]store.EntityHandle, len(b.Cells))
		for i, c := range b.Cells {
			members[i] = g.Cells[c]
			g.Tags.FineToPrimal.Set(g.Cells[c], primal)
		}
		if err = s.AddToGroup(primal, members...); err != nil {
			return nil, err
		}
		g.Tags.PrimalID.Set(primal, b.ID)
		g.Primals[b.ID] = primal
	}
	return
}

func (g *FineGrid) Extent() types.Extent { return g.Partition.Extent }

// BlockCells returns the fine cell handles of a block, sorted by handle
func (g *FineGrid) BlockCells(b *partition.Block) ([]store.EntityHandle, error) {
	return g.Store.Members(g.Primals[b.ID], store.Cell)
}
