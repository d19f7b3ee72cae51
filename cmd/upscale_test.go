package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeCase writes a 4x2x2 fine grid with unit permeability and its input deck
func writeCase(t *testing.T, direction string) (deck string, dir string) {
	dir = t.TempDir()
	var phi, perm strings.Builder
	for c := 0; c < 16; c++ {
		fmt.Fprintf(&phi, "%f        \t", 0.1*float64(c%4+1))
	}
	phi.WriteString("\n")
	perm.WriteString("-- PERMX\n")
	for d := 0; d < 3; d++ {
		for c := 0; c < 16; c++ {
			fmt.Fprintf(&perm, "%f        \t", 1.)
		}
		perm.WriteString("\n")
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "phi.dat"), []byte(phi.String()), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "perm.dat"), []byte(perm.String()), 0644))
	fileInput := fmt.Sprintf(`
Title: Test Case
MeshSize: [4, 2, 2]
CoarseRatio: [2, 2, 2]
BlockSize: [1, 1, 1]
AverageMethod: Arithmetic
Direction: %s
PorosityFile: %s
PermeabilityFile: %s
CoarsePorosityFile: %s
OutputFile: %s
`, direction, filepath.Join(dir, "phi.dat"), filepath.Join(dir, "perm.dat"),
		filepath.Join(dir, "coarse_phi.dat"), filepath.Join(dir, "coarse.vtk"))
	deck = filepath.Join(dir, "input.yaml")
	require.NoError(t, os.WriteFile(deck, []byte(fileInput), 0644))
	return
}

func TestRunUpscale(t *testing.T) {
	deck, dir := writeCase(t, "x")
	ip, err := processInput(deck)
	require.NoError(t, err)
	assert.Equal(t, "Test Case", ip.Title)

	log := logrus.New()
	log.SetLevel(logrus.WarnLevel)
	require.NoError(t, RunUpscale(context.Background(), ip, log))

	report, err := os.ReadFile(filepath.Join(dir, "coarse_phi.dat"))
	require.NoError(t, err)
	assert.Equal(t, "-- LAYER  1\n-- ROW  1\n"+
		"0.150000        \t0.150000        \t0.150000\n"+
		"0.350000        \t0.350000        \t0.350000\n", string(report))

	vtk, err := os.ReadFile(filepath.Join(dir, "coarse.vtk"))
	require.NoError(t, err)
	assert.Contains(t, string(vtk), "CELL_TYPES 2\n12\n12\n")
}

func TestProcessInputErrors(t *testing.T) {
	_, err := processInput("")
	assert.Error(t, err)

	deck, _ := writeCase(t, "diagonal")
	_, err = processInput(deck)
	assert.Error(t, err)

	_, err = processInput(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
