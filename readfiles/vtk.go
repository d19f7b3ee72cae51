package readfiles

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/GitPaean/PRESTO/mesh"
	"github.com/GitPaean/PRESTO/types"
)

// VTK legacy cell types share the SU2 element type numbering
type VTKCellType uint8

const VTKType_Hexahedron VTKCellType = 12

// CellData is a cell attribute written alongside the mesh
type CellData struct {
	Name   string
	Scalar []float64      // One value per cell, or nil
	Tensor []types.Tensor // One tensor per cell, or nil
}

// WriteVTK writes m as a legacy ASCII unstructured grid of hexahedra
func WriteVTK(w io.Writer, title string, m *mesh.Mesh, data ...CellData) (err error) {
	K := len(m.EToV)
	for _, cd := range data {
		if (cd.Scalar != nil && len(cd.Scalar) != K) || (cd.Tensor != nil && len(cd.Tensor) != K) {
			return fmt.Errorf("%w: cell data %s does not cover %d cells", ErrShortData, cd.Name, K)
		}
	}
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# vtk DataFile Version 3.0\n%s\nASCII\nDATASET UNSTRUCTURED_GRID\n", title)
	fmt.Fprintf(bw, "POINTS %d double\n", len(m.Vertices))
	for _, v := range m.Vertices {
		fmt.Fprintf(bw, "%g %g %g\n", v[0], v[1], v[2])
	}
	fmt.Fprintf(bw, "CELLS %d %d\n", K, K*9)
	for _, ev := range m.EToV {
		fmt.Fprintf(bw, "8 %d %d %d %d %d %d %d %d\n", ev[0], ev[1], ev[2], ev[3], ev[4], ev[5], ev[6], ev[7])
	}
	fmt.Fprintf(bw, "CELL_TYPES %d\n", K)
	for k := 0; k < K; k++ {
		fmt.Fprintf(bw, "%d\n", VTKType_Hexahedron)
	}
	if len(data) > 0 {
		fmt.Fprintf(bw, "CELL_DATA %d\n", K)
	}
	for _, cd := range data {
		switch {
		case cd.Scalar != nil:
			fmt.Fprintf(bw, "SCALARS %s double 1\nLOOKUP_TABLE default\n", cd.Name)
			for _, v := range cd.Scalar {
				fmt.Fprintf(bw, "%g\n", v)
			}
		case cd.Tensor != nil:
			fmt.Fprintf(bw, "TENSORS %s double\n", cd.Name)
			for _, T := range cd.Tensor {
				for r := 0; r < 3; r++ {
					fmt.Fprintf(bw, "%g %g %g\n", T[3*r], T[3*r+1], T[3*r+2])
				}
			}
		}
	}
	return bw.Flush()
}

func WriteVTKFile(fileName, title string, m *mesh.Mesh, data ...CellData) (err error) {
	var file *os.File
	if file, err = os.Create(fileName); err != nil {
		return
	}
	defer func() {
		if cerr := file.Close(); err == nil {
			err = cerr
		}
	}()
	return WriteVTK(file, title, m, data...)
}
