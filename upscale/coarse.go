package upscale

import (
	"fmt"

	"github.com/GitPaean/PRESTO/mesh"
	"github.com/GitPaean/PRESTO/store"
	"github.com/GitPaean/PRESTO/types"
)

// CoarseGrid is the output mesh, one hexahedron per coarse block
type CoarseGrid struct {
	Mesh         *mesh.Mesh
	Cells        []store.EntityHandle // By block ID
	Porosity     []float64
	Permeability []types.Tensor
}

// BuildCoarseGrid creates the coarse hexahedra in the store and copies the
// upscaled properties from each block's group onto its coarse cell. Blocks
// without an upscaled value are an error.
func (g *FineGrid) BuildCoarseGrid() (cg *CoarseGrid, err error) {
	p := g.Partition
	cg = &CoarseGrid{
		Porosity:     make([]float64, len(p.Blocks)),
		Permeability: make([]types.Tensor, len(p.Blocks)),
	}
	if cg.Mesh, err = mesh.NewStructuredMeshFromTicks(p.CoarseTicks(g.CellSize)); err != nil {
		return nil, err
	}
	if cg.Mesh.Extent != p.CoarseExtent {
		return nil, fmt.Errorf("coarse mesh extent %v does not match partition %v", cg.Mesh.Extent, p.CoarseExtent)
	}
	if cg.Cells, err = g.Store.AddMesh(cg.Mesh); err != nil {
		return nil, err
	}
	for _, b := range p.Blocks {
		primal, cell := g.Primals[b.ID], cg.Cells[b.ID]
		if cg.Porosity[b.ID], err = g.Tags.PrimalPhi.Get(primal); err != nil {
			return nil, err
		}
		if cg.Permeability[b.ID], err = g.Tags.PrimalPerm.Get(primal); err != nil {
			return nil, err
		}
		g.Tags.CoarseGlobalID.Set(cell, b.ID)
		g.Tags.PrimalPhi.Set(cell, cg.Porosity[b.ID])
		g.Tags.PrimalPerm.Set(cell, cg.Permeability[b.ID])
	}
	return
}
