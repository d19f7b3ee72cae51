package upscale

import (
	"errors"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/GitPaean/PRESTO/partition"
	"github.com/GitPaean/PRESTO/solver"
	"github.com/GitPaean/PRESTO/store"
	"github.com/GitPaean/PRESTO/types"
)

var ErrSingleLayer = errors.New("block has a single fine layer along the flow axis")

const (
	InletPressure  = 1.0
	OutletPressure = 0.0
	// Face area used in the flow rate integration on a structured grid
	faceArea = 1.0
)

// BoundaryCondition is the Dirichlet state of one fine cell for a (block, axis) problem
type BoundaryCondition struct {
	Fixed bool
	Value float64
}

// BoundaryOf classifies a fine cell of block b for flow along axis. The low
// face is tested first, so a block one layer thick has no outlet.
func BoundaryOf(b *partition.Block, ijk [3]int, axis types.Axis) BoundaryCondition {
	switch ijk[axis] {
	case b.Lo[axis]:
		return BoundaryCondition{Fixed: true, Value: InletPressure}
	case b.Hi[axis]:
		return BoundaryCondition{Fixed: true, Value: OutletPressure}
	}
	return BoundaryCondition{}
}

// AssignBoundary returns the boundary condition of each cell of b, aligned with b.Cells
func AssignBoundary(b *partition.Block, extent types.Extent, axis types.Axis) (bcs []BoundaryCondition) {
	bcs = make([]BoundaryCondition, len(b.Cells))
	for i, c := range b.Cells {
		bcs[i] = BoundaryOf(b, extent.IJK(c), axis)
	}
	return
}

// SetBlockBoundary tags the boundary cells of block b with their Dirichlet
// value for flow along axis. The local problem reads its conditions back from
// these tags.
func (g *FineGrid) SetBlockBoundary(b *partition.Block, axis types.Axis) {
	for i, bc := range AssignBoundary(b, g.Extent(), axis) {
		if bc.Fixed {
			g.Tags.LocalBC[axis].Set(g.Cells[b.Cells[i]], bc.Value)
		}
	}
}

// FlowResult is the outcome of one (block, axis) local flow problem
type FlowResult struct {
	Block        int
	Index        types.CoarseIndex
	Axis         types.Axis
	Permeability float64
	FlowRate     float64
	Converged    bool
	Iterations   int
	Residual     float64
}

type FlowUpscaler struct {
	Grid                 *FineGrid
	Solver               solver.LinearSolver
	Config               solver.Config
	Projection           types.Projection
	FailOnNonConvergence bool
	KeepPressure         bool // Leave the per-(block, axis) pressure tags in the store
	Log                  logrus.FieldLogger
}

func NewFlowUpscaler(g *FineGrid, cfg solver.Config) *FlowUpscaler {
	return &FlowUpscaler{
		Grid:   g,
		Solver: solver.CG{},
		Config: cfg,
		Log:    logrus.StandardLogger(),
	}
}

// PressureTagName is the scratch tag holding the solved pressure of one (block, axis) problem
func PressureTagName(block int, axis types.Axis) string {
	return fmt.Sprintf("PRESSURE_%d_%s", block, axis)
}

// localProblem is the per-(block, axis) state: dense renumbering of the
// member cells, their boundary conditions and their in-block face neighbors
type localProblem struct {
	cells     []store.EntityHandle
	local     map[store.EntityHandle]int
	bcs       []BoundaryCondition
	neighbors [][]store.EntityHandle
	unknowns  []int // Rows of the cells without a Dirichlet value
	eq        []int // Equation of each row, -1 on Dirichlet cells
}

func (fu *FlowUpscaler) newLocalProblem(b *partition.Block, axis types.Axis) (lp *localProblem, err error) {
	g := fu.Grid
	lp = &localProblem{}
	if lp.cells, err = g.BlockCells(b); err != nil {
		return nil, err
	}
	lp.local = make(map[store.EntityHandle]int, len(lp.cells))
	for i, c := range lp.cells {
		lp.local[c] = i
	}
	lp.bcs = make([]BoundaryCondition, len(lp.cells))
	lp.neighbors = make([][]store.EntityHandle, len(lp.cells))
	lp.eq = make([]int, len(lp.cells))
	bcTag := g.Tags.LocalBC[axis]
	for i, c := range lp.cells {
		var adj []store.EntityHandle
		lp.eq[i] = -1
		if bcTag.Has(c) {
			lp.bcs[i].Fixed = true
			if lp.bcs[i].Value, err = bcTag.Get(c); err != nil {
				return nil, err
			}
		} else {
			lp.eq[i] = len(lp.unknowns)
			lp.unknowns = append(lp.unknowns, i)
		}
		if adj, err = g.Store.FaceAdjacent(c); err != nil {
			return nil, err
		}
		for _, nbr := range adj {
			if _, member := lp.local[nbr]; member {
				lp.neighbors[i] = append(lp.neighbors[i], nbr)
			}
		}
	}
	return
}

// transmissibility between two adjacent cells, together with half the centroid distance
func (fu *FlowUpscaler) transmissibility(c1, c2 store.EntityHandle) (T, dl float64, err error) {
	var (
		g      = fu.Grid
		x1, x2 [3]float64
		N      [3]float64
		k1, k2 = 1., 1.
	)
	if x1, err = g.Store.Centroid(c1); err != nil {
		return
	}
	if x2, err = g.Store.Centroid(c2); err != nil {
		return
	}
	var dist float64
	for d := 0; d < 3; d++ {
		N[d] = x1[d] - x2[d]
		dist += N[d] * N[d]
	}
	dist = math.Sqrt(dist)
	for d := 0; d < 3; d++ {
		N[d] /= dist
	}
	dl = dist / 2
	if fu.Projection == types.TensorProjection {
		var K1, K2 types.Tensor
		if K1, err = g.Tags.Perm.Get(c1); err != nil {
			return
		}
		if K2, err = g.Tags.Perm.Get(c2); err != nil {
			return
		}
		k1, k2 = K1.Project(N), K2.Project(N)
	}
	T = 2 * k1 * k2 / (k1*dl + k2*dl)
	return
}

// assemble builds the two point flux equations of the interior cells. Dirichlet
// neighbors move to the right hand side, leaving a symmetric positive definite system.
func (fu *FlowUpscaler) assemble(lp *localProblem) (A *solver.Matrix, rhs []float64, err error) {
	var (
		n   = len(lp.unknowns)
		asm = solver.NewAssembler(n)
	)
	rhs = make([]float64, n)
	for eq, row := range lp.unknowns {
		var diag float64
		for _, nbr := range lp.neighbors[row] {
			var T float64
			if T, _, err = fu.transmissibility(lp.cells[row], nbr); err != nil {
				return
			}
			diag += T
			nrow := lp.local[nbr]
			if bc := lp.bcs[nrow]; bc.Fixed {
				rhs[eq] += T * bc.Value
				continue
			}
			if err = asm.Assemble(eq, lp.eq[nrow], -T); err != nil {
				return
			}
		}
		if err = asm.Assemble(eq, eq, diag); err != nil {
			return
		}
	}
	A = asm.Finalize()
	return
}

// Upscale solves the local pressure problem of block b with flow along axis
// and returns the effective permeability along that axis
func (fu *FlowUpscaler) Upscale(b *partition.Block, axis types.Axis) (fr FlowResult, err error) {
	var (
		lp  *localProblem
		A   *solver.Matrix
		rhs []float64
		res solver.Result
		log = fu.logger().WithFields(logrus.Fields{"block": b.Index.String(), "axis": axis.String()})
	)
	fr = FlowResult{Block: b.ID, Index: b.Index, Axis: axis}
	if axis > types.AxisZ {
		err = fmt.Errorf("%w: %d", types.ErrUnknownAxis, axis)
		return
	}
	if b.Layers(axis) < 2 {
		err = fmt.Errorf("block %s: %w", b.Index, ErrSingleLayer)
		return
	}
	fu.Grid.SetBlockBoundary(b, axis)
	if lp, err = fu.newLocalProblem(b, axis); err != nil {
		return
	}
	x := make([]float64, len(lp.cells))
	for row, bc := range lp.bcs {
		if bc.Fixed {
			x[row] = bc.Value
		}
	}
	// A block two layers thick has no interior cells to solve for
	fr.Converged = true
	if len(lp.unknowns) > 0 {
		if A, rhs, err = fu.assemble(lp); err != nil {
			return
		}
		if res, err = fu.Solver.Solve(A, rhs, nil, fu.Config); err != nil {
			err = fmt.Errorf("block %s axis %s: %w", b.Index, axis, err)
			return
		}
		fr.Converged, fr.Iterations, fr.Residual = res.Converged, res.Iterations, res.Residual
		if !res.Converged {
			if fu.FailOnNonConvergence {
				err = fmt.Errorf("block %s axis %s: %w after %d iterations, residual %g",
					b.Index, axis, solver.ErrNotConverged, res.Iterations, res.Residual)
				return
			}
			log.WithFields(logrus.Fields{
				"iterations": res.Iterations,
				"residual":   res.Residual,
			}).Warn("pressure solve did not converge, using last iterate")
		}
		for eq, row := range lp.unknowns {
			x[row] = res.X[eq]
		}
	}
	pressure, err := store.NewTag[float64](fu.Grid.Store, PressureTagName(b.ID, axis))
	if err != nil {
		return
	}
	if !fu.KeepPressure {
		defer fu.Grid.Store.DeleteTag(pressure.Name())
	}
	if err = pressure.SetMany(lp.cells, x); err != nil {
		return
	}
	if fr.FlowRate, fr.Permeability, err = fu.extract(lp, pressure); err != nil {
		return
	}
	log.WithFields(logrus.Fields{
		"permeability": fr.Permeability,
		"iterations":   fr.Iterations,
	}).Debug("block upscaled")
	return
}

// extract integrates the flow entering the outlet cells from their in-block
// neighbors and converts it to a permeability using the distance of the last
// contributing neighbor
func (fu *FlowUpscaler) extract(lp *localProblem, pressure store.Tag[float64]) (flowRate, perm float64, err error) {
	var dl float64
	for row, c := range lp.cells {
		bc := lp.bcs[row]
		if !bc.Fixed || bc.Value == InletPressure {
			continue
		}
		for _, nbr := range lp.neighbors[row] {
			var p, T float64
			if p, err = pressure.Get(nbr); err != nil {
				return
			}
			if p == 0 {
				continue
			}
			if T, dl, err = fu.transmissibility(nbr, c); err != nil {
				return
			}
			flowRate += faceArea * T / dl * p
		}
	}
	perm = flowRate * dl / faceArea
	return
}

// UpscaleBlock runs the local problem along each requested axis. Axes not
// requested keep the corresponding entry of base.
func (fu *FlowUpscaler) UpscaleBlock(b *partition.Block, axes []types.Axis,
	base types.Tensor) (K types.Tensor, results []FlowResult, err error) {
	diag := base.Diagonal()
	for _, axis := range axes {
		var fr FlowResult
		if fr, err = fu.Upscale(b, axis); err != nil {
			return
		}
		diag[axis] = fr.Permeability
		results = append(results, fr)
	}
	K = types.NewDiagonalTensor(diag[0], diag[1], diag[2])
	return
}

func (fu *FlowUpscaler) logger() logrus.FieldLogger {
	if fu.Log == nil {
		return logrus.StandardLogger()
	}
	return fu.Log
}
