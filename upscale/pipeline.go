package upscale

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/GitPaean/PRESTO/solver"
	"github.com/GitPaean/PRESTO/store"
	"github.com/GitPaean/PRESTO/types"
	"github.com/GitPaean/PRESTO/utils"
)

// Options select the upscaling path for a run
type Options struct {
	Extent   types.Extent
	CellSize types.CellSize
	Ratio    types.CoarseningRatio
	Method   types.AverageMethod // Statistical rule, also the base for axes not solved by flow
	// FlowAxes lists the axes upscaled by local flow problems; empty means
	// averaging only
	FlowAxes             []types.Axis
	Projection           types.Projection
	Solver               solver.Config
	LinearSolver         solver.LinearSolver // nil selects CG
	FailOnNonConvergence bool
	ParallelDegree       int // Goroutines for the flow solves, 0 is one per CPU
}

func (o Options) Validate() error {
	if err := o.Extent.Validate(); err != nil {
		return err
	}
	if err := o.CellSize.Validate(); err != nil {
		return err
	}
	if err := o.Ratio.Validate(); err != nil {
		return err
	}
	if o.Method > types.Harmonic {
		return fmt.Errorf("%w: %s", types.ErrUnknownAverageMethod, o.Method)
	}
	if o.Projection > types.TensorProjection {
		return fmt.Errorf("%w: %s", types.ErrUnknownProjection, o.Projection)
	}
	for _, axis := range o.FlowAxes {
		if axis > types.AxisZ {
			return fmt.Errorf("%w: %d", types.ErrUnknownAxis, axis)
		}
	}
	if len(o.FlowAxes) > 0 {
		if err := o.Solver.Validate(); err != nil {
			return err
		}
	}
	return nil
}

type Result struct {
	Grid   *FineGrid
	Coarse *CoarseGrid
	Flow   []FlowResult // Ordered by block ID, then by the order of FlowAxes
}

// NotConverged counts the flow solves that stopped at the iteration cap
func (r *Result) NotConverged() (n int) {
	for _, fr := range r.Flow {
		if !fr.Converged {
			n++
		}
	}
	return
}

// Run loads the fine grid, upscales porosity and permeability for every
// coarse block and builds the coarse grid. Running it twice on the same input
// gives identical coarse properties.
func Run(ctx context.Context, opts Options, phi, perm []float64, log logrus.FieldLogger) (r *Result, err error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if err = opts.Validate(); err != nil {
		return
	}
	r = &Result{}
	if r.Grid, err = LoadFineGrid(store.New(), opts.Extent, opts.CellSize, opts.Ratio, phi, perm); err != nil {
		return nil, err
	}
	g := r.Grid
	log.WithFields(logrus.Fields{
		"fine":   g.Extent(),
		"coarse": g.Partition.CoarseExtent,
		"blocks": len(g.Partition.Blocks),
	}).Info("partitioned fine grid")

	if _, err = g.UpscalePorosity(); err != nil {
		return nil, err
	}
	var perms []types.Tensor
	if perms, err = g.UpscalePermeabilityMean(opts.Method); err != nil {
		return nil, err
	}
	if len(opts.FlowAxes) > 0 {
		fu := NewFlowUpscaler(g, opts.Solver)
		fu.Projection = opts.Projection
		if opts.LinearSolver != nil {
			fu.Solver = opts.LinearSolver
		}
		fu.FailOnNonConvergence = opts.FailOnNonConvergence
		fu.Log = log
		if r.Flow, err = fu.UpscaleAll(ctx, opts.FlowAxes, perms, opts.ParallelDegree); err != nil {
			return nil, err
		}
		if n := r.NotConverged(); n > 0 {
			log.WithField("solves", n).Warn("some flow solves stopped at the iteration cap")
		}
	}
	if r.Coarse, err = g.BuildCoarseGrid(); err != nil {
		return nil, err
	}
	return
}

// UpscaleAll runs the flow problems of every block on ParallelDegree
// goroutines. Each goroutine owns a contiguous range of blocks, so results are
// written to disjoint slots. The base tensors supply the axes not in axes; the
// resulting tensors are stored on the block groups.
func (fu *FlowUpscaler) UpscaleAll(ctx context.Context, axes []types.Axis, base []types.Tensor,
	parallelDegree int) (results []FlowResult, err error) {
	var (
		g       = fu.Grid
		nBlocks = len(g.Partition.Blocks)
		perms   = make([]types.Tensor, nBlocks)
		byBlock = make([][]FlowResult, nBlocks)
		pm      = utils.NewPartitionMap(parallelDegree, nBlocks)
		log     = fu.logger()
	)
	if len(base) != nBlocks {
		return nil, fmt.Errorf("%d base tensors for %d blocks", len(base), nBlocks)
	}
	log.WithFields(logrus.Fields{
		"blocks":  nBlocks,
		"axes":    axes,
		"workers": pm.ParallelDegree,
	}).Info("flow based upscaling")
	// The first failing block stops the other workers at their next block
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	var (
		once     sync.Once
		firstErr error
	)
	err = pm.ParallelFor(func(bucket, kMin, kMax int) (err error) {
		defer func() {
			if err != nil {
				once.Do(func() {
					firstErr = err
					cancel()
				})
			}
		}()
		for id := kMin; id < kMax; id++ {
			if err = ctx.Err(); err != nil {
				return
			}
			b := g.Partition.Blocks[id]
			if perms[id], byBlock[id], err = fu.UpscaleBlock(b, axes, base[id]); err != nil {
				return
			}
			log.WithField("worker", bucket).Infof("block %d / %d", id+1, nBlocks)
		}
		return
	})
	if err != nil {
		return nil, firstErr
	}
	for id, K := range perms {
		g.Tags.PrimalPerm.Set(g.Primals[id], K)
		results = append(results, byBlock[id]...)
	}
	return
}
