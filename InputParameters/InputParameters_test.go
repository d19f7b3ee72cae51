package InputParameters

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GitPaean/PRESTO/solver"
	"github.com/GitPaean/PRESTO/types"
)

func TestUpscaleParameters(t *testing.T) {
	fileInput := []byte(`
Title: SPE10 layer 1
MeshSize: [60, 220, 85]
CoarseRatio: [2, 2, 5]
BlockSize: [6.096, 3.048, 0.6096]
AverageMethod: Harmonic
Direction: z
Projection: Tensor
LinearSolver: BiCGStab
ParallelDegree: 4
PorosityFile: spe_phi.dat
PermeabilityFile: spe_perm.dat
OutputFile: coarse.vtk
`)
	var input UpscaleParameters
	require.NoError(t, input.Parse(fileInput))
	input.Print()
	assert.Equal(t, "SPE10 layer 1", input.Title)
	assert.Equal(t, [3]int{60, 220, 85}, input.MeshSize)
	assert.Equal(t, 0.6096, input.BlockSize[2])
	assert.Equal(t, solver.DefaultMaxIterations, input.MaxIterations)
	assert.Equal(t, solver.DefaultTolerance, input.Tolerance)
	assert.Equal(t, DefaultCoarsePorosityFile, input.CoarsePorosityFile)
	require.NoError(t, input.Validate())

	opts, err := input.Options()
	require.NoError(t, err)
	assert.Equal(t, types.Extent{60, 220, 85}, opts.Extent)
	assert.Equal(t, types.CoarseningRatio{2, 2, 5}, opts.Ratio)
	assert.Equal(t, types.Harmonic, opts.Method)
	assert.Equal(t, types.TensorProjection, opts.Projection)
	assert.Equal(t, []types.Axis{types.AxisZ}, opts.FlowAxes)
	assert.Equal(t, 4, opts.ParallelDegree)
	assert.Equal(t, solver.BiCGStab{}, opts.LinearSolver)
}

func TestDirection(t *testing.T) {
	for _, tc := range []struct {
		deck string
		want []types.Axis
	}{
		{"Direction: 0", []types.Axis{types.AxisX}},
		{"Direction: y", []types.Axis{types.AxisY}},
		{"Direction: Y", []types.Axis{types.AxisY}},
		{`Direction: "y"`, []types.Axis{types.AxisY}},
		{"Direction: 2", []types.Axis{types.AxisZ}},
		{"Direction:", nil},
		{"Direction: All", []types.Axis{types.AxisX, types.AxisY, types.AxisZ}},
		{"Title: averaging only", nil},
	} {
		var input UpscaleParameters
		require.NoError(t, input.Parse([]byte(tc.deck)))
		axes, err := input.FlowAxes()
		require.NoError(t, err, tc.deck)
		assert.Equal(t, tc.want, axes, tc.deck)
	}
	for _, deck := range []string{"Direction: diagonal", "Direction: n", "Direction: true"} {
		var input UpscaleParameters
		require.NoError(t, input.Parse([]byte(deck)))
		_, err := input.FlowAxes()
		assert.ErrorIs(t, err, types.ErrUnknownAxis, deck)
	}
}

func TestValidate(t *testing.T) {
	valid := `
MeshSize: [4, 4, 4]
CoarseRatio: [2, 2, 2]
BlockSize: [1, 1, 1]
AverageMethod: Arithmetic
PorosityFile: phi.dat
PermeabilityFile: perm.dat
`
	var input UpscaleParameters
	require.NoError(t, input.Parse([]byte(valid)))
	require.NoError(t, input.Validate())

	input.AverageMethod = "Median"
	assert.ErrorIs(t, input.Validate(), types.ErrUnknownAverageMethod)

	parse := func() (input UpscaleParameters) {
		require.NoError(t, input.Parse([]byte(valid)))
		return
	}
	input = parse()
	input.CoarseRatio[1] = 0
	assert.ErrorIs(t, input.Validate(), types.ErrInvalidExtent)

	input = parse()
	input.Projection = "Full"
	assert.ErrorIs(t, input.Validate(), types.ErrUnknownProjection)

	input = parse()
	input.Direction = "x"
	input.Tolerance = -1
	assert.Error(t, input.Validate())

	input = parse()
	input.LinearSolver = "GMRES"
	assert.ErrorIs(t, input.Validate(), solver.ErrUnknownSolver)

	input = parse()
	input.PermeabilityFile = ""
	assert.Error(t, input.Validate())
}
