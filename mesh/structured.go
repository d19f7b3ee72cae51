package mesh

import (
	"fmt"

	"github.com/GitPaean/PRESTO/types"
)

// Mesh is a structured hexahedral mesh
type Mesh struct {
	// Geometry
	Vertices [][3]float64 // Vertex coordinates, x fastest varying

	// Element data
	EToV   [][8]int     // Element to vertex connectivity [nelems][8]
	Extent types.Extent // Cells per axis

	NumElements int
	NumVertices int
}

// UniformTicks returns the n+1 vertex ordinates 0, h, 2h, ... n*h
func UniformTicks(n int, h float64) (ticks []float64) {
	ticks = make([]float64, n+1)
	for i := range ticks {
		ticks[i] = float64(i) * h
	}
	return
}

// NewStructuredMesh builds a uniform grid of extent[d] cells of size cellSize[d] per axis
func NewStructuredMesh(extent types.Extent, cellSize types.CellSize) (*Mesh, error) {
	if err := extent.Validate(); err != nil {
		return nil, err
	}
	if err := cellSize.Validate(); err != nil {
		return nil, err
	}
	var ticks [3][]float64
	for d := 0; d < 3; d++ {
		ticks[d] = UniformTicks(extent[d], cellSize[d])
	}
	return NewStructuredMeshFromTicks(ticks)
}

// NewStructuredMeshFromTicks builds a grid whose vertex ordinates along each axis
// are given explicitly. The cell count along axis d is len(ticks[d])-1.
func NewStructuredMeshFromTicks(ticks [3][]float64) (m *Mesh, err error) {
	var extent types.Extent
	for d := 0; d < 3; d++ {
		extent[d] = len(ticks[d]) - 1
		for i := 1; i < len(ticks[d]); i++ {
			if ticks[d][i] <= ticks[d][i-1] {
				return nil, fmt.Errorf("%w: %s ordinates are not increasing at %d",
					types.ErrInvalidExtent, types.Axis(d), i)
			}
		}
	}
	if err = extent.Validate(); err != nil {
		return
	}
	m = &Mesh{
		Extent:      extent,
		NumElements: extent.Count(),
		NumVertices: (extent[0] + 1) * (extent[1] + 1) * (extent[2] + 1),
	}
	m.Vertices = make([][3]float64, 0, m.NumVertices)
	for _, z := range ticks[2] {
		for _, y := range ticks[1] {
			for _, x := range ticks[0] {
				m.Vertices = append(m.Vertices, [3]float64{x, y, z})
			}
		}
	}
	m.EToV = make([][8]int, 0, m.NumElements)
	for k := 0; k < extent[2]; k++ {
		for j := 0; j < extent[1]; j++ {
			for i := 0; i < extent[0]; i++ {
				m.EToV = append(m.EToV, HexVertices(i, j, k, extent))
			}
		}
	}
	return
}

// HexVertices returns the vertex indices of cell (i,j,k): the bottom face
// counter clockwise starting at (i,j,k), then the same four offset by one in k.
func HexVertices(i, j, k int, extent types.Extent) [8]int {
	var (
		nx1   = extent[0] + 1
		layer = (extent[0] + 1) * (extent[1] + 1)
		v     = func(i, j, k int) int { return i + j*nx1 + k*layer }
	)
	return [8]int{
		v(i, j, k), v(i+1, j, k), v(i+1, j+1, k), v(i, j+1, k),
		v(i, j, k+1), v(i+1, j, k+1), v(i+1, j+1, k+1), v(i, j+1, k+1),
	}
}
