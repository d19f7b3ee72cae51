package readfiles

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GitPaean/PRESTO/mesh"
	"github.com/GitPaean/PRESTO/types"
)

var phiFile = "0.1        \t0.2        \t0.3\n\n0.4 0.5\t0.6\n"

var permFile = `-- PERMX
1.0        	2.0        	3.0
-- LAYER  1
4.0        	5.0        	6.0
permy
10 10 10 10 10 10
100 100 100 100 100 100
`

func TestReadProperties(t *testing.T) {
	{ // Porosity keeps every field
		phi, err := ReadPorosity(strings.NewReader(phiFile))
		require.NoError(t, err)
		assert.Equal(t, []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6}, phi)
	}
	{ // Permeability skips header lines
		perm, err := ReadPermeability(strings.NewReader(permFile))
		require.NoError(t, err)
		require.Len(t, perm, 18)
		assert.Equal(t, 1., perm[0])
		assert.Equal(t, 6., perm[5])
		assert.Equal(t, 10., perm[6])
		assert.Equal(t, 100., perm[17])
	}
	{ // Malformed values report the line
		_, err := ReadPorosity(strings.NewReader("0.1\n0.2 abc\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "line 2")
	}
	{ // Files on disk
		dir := t.TempDir()
		phiName, permName := filepath.Join(dir, "phi.dat"), filepath.Join(dir, "perm.dat")
		require.NoError(t, os.WriteFile(phiName, []byte(phiFile), 0644))
		require.NoError(t, os.WriteFile(permName, []byte(permFile), 0644))
		phi, perm, err := ReadProperties(phiName, permName, types.Extent{3, 2, 1})
		require.NoError(t, err)
		assert.Len(t, phi, 6)
		assert.Len(t, perm, 18)

		_, _, err = ReadProperties(phiName, permName, types.Extent{3, 2, 2})
		assert.ErrorIs(t, err, ErrShortData)
		_, _, err = ReadProperties(filepath.Join(dir, "missing.dat"), permName, types.Extent{3, 2, 1})
		assert.ErrorIs(t, err, os.ErrNotExist)
	}
}

func TestWriteCoarsePorosity(t *testing.T) {
	var buf bytes.Buffer
	coarse := types.Extent{2, 1, 2}
	require.NoError(t, WriteCoarsePorosity(&buf, coarse, []float64{0.1, 0.2, 0.3, 0.4}))
	expected := "-- LAYER  1\n" +
		"-- ROW  1\n" +
		"0.100000        \t0.100000        \t0.100000\n" +
		"0.200000        \t0.200000        \t0.200000\n" +
		"-- LAYER  2\n" +
		"-- ROW  1\n" +
		"0.300000        \t0.300000        \t0.300000\n" +
		"0.400000        \t0.400000        \t0.400000\n"
	assert.Equal(t, expected, buf.String())

	// The report can be read back as a porosity file
	phi, err := ReadPorosity(&buf)
	require.NoError(t, err)
	assert.Len(t, phi, 12)

	assert.ErrorIs(t, WriteCoarsePorosity(&buf, coarse, []float64{0.1}), ErrShortData)
}

func TestWriteVTK(t *testing.T) {
	m, err := mesh.NewStructuredMesh(types.Extent{2, 1, 1}, types.CellSize{1, 1, 1})
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, WriteVTK(&buf, "coarse", m,
		CellData{Name: "porosity", Scalar: []float64{0.1, 0.2}},
		CellData{Name: "permeability", Tensor: []types.Tensor{
			types.NewDiagonalTensor(1, 2, 3), types.NewDiagonalTensor(4, 5, 6)}},
	))
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "# vtk DataFile Version 3.0\ncoarse\nASCII\n"))
	assert.Contains(t, out, "POINTS 12 double\n")
	assert.Contains(t, out, "CELLS 2 18\n8 0 1 4 3 6 7 10 9\n")
	assert.Contains(t, out, "CELL_TYPES 2\n12\n12\n")
	assert.Contains(t, out, "CELL_DATA 2\nSCALARS porosity double 1\nLOOKUP_TABLE default\n0.1\n0.2\n")
	assert.Contains(t, out, "TENSORS permeability double\n1 0 0\n0 2 0\n0 0 3\n4 0 0\n")

	err = WriteVTK(&buf, "bad", m, CellData{Name: "porosity", Scalar: []float64{0.1}})
	assert.ErrorIs(t, err, ErrShortData)
}
