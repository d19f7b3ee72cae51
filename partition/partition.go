// Package partition maps the cells of a fine structured grid onto coarse
// blocks and computes the face adjacency between coarse blocks.
//
// The mapping is computed in two passes: the per-axis index maps depend only on
// the fine extent and the coarsening ratio, and block membership is then
// filled by streaming through the fine cells once.
package partition

import (
	"errors"
	"fmt"

	"github.com/GitPaean/PRESTO/types"
)

var (
	ErrNoBlock        = errors.New("no coarse block at index")
	ErrFineIndexRange = errors.New("fine cell index out of range")
)

// Block is the set of fine cells sharing a coarse index
type Block struct {
	ID    int // Position in Partition.Blocks, ordered by coarse linear index
	Index types.CoarseIndex
	Cells []int // Fine linear indices, ascending
	// Lo and Hi are the first and last fine index covered along each axis
	Lo, Hi [3]int
}

// Layers is the number of fine cells spanned along axis d
func (b *Block) Layers(d types.Axis) int { return b.Hi[d] - b.Lo[d] + 1 }

type Partition struct {
	Extent       types.Extent
	Ratio        types.CoarseningRatio
	CoarseExtent types.Extent
	AxisMap      [3][]int // Fine index -> coarse index along each axis
	Blocks       []*Block
	Adjacency    [][]types.CoarseIndex // Indexed by Block.ID
	blockIndex   map[types.CoarseIndex]int
}

// CoarseDims is the number of coarse blocks along one axis. Remainder cells
// never form a block of their own, and an axis shorter than its ratio forms a
// single block.
func CoarseDims(n, r int) int {
	if nc := n / r; nc > 0 {
		return nc
	}
	return 1
}

// AxisMap maps each of the n fine indices along one axis to a coarse index.
// Cells left over after the last full group of r fold into that group.
func AxisMap(n, r int) (ids []int) {
	var (
		last = CoarseDims(n, r) - 1
	)
	ids = make([]int, n)
	for i := range ids {
		ids[i] = i / r
		if ids[i] > last {
			ids[i] = last
		}
	}
	return
}

// New partitions a fine grid of the given extent
func New(extent types.Extent, ratio types.CoarseningRatio) (p *Partition, err error) {
	if err = extent.Validate(); err != nil {
		return
	}
	if err = ratio.Validate(); err != nil {
		return
	}
	p = &Partition{
		Extent: extent,
		Ratio:  ratio,
	}
	// Pass 1: index maps and block skeletons
	for d := 0; d < 3; d++ {
		p.CoarseExtent[d] = CoarseDims(extent[d], ratio[d])
		p.AxisMap[d] = AxisMap(extent[d], ratio[d])
	}
	nBlocks := p.CoarseExtent.Count()
	p.Blocks = make([]*Block, nBlocks)
	p.blockIndex = make(map[types.CoarseIndex]int, nBlocks)
	for id := range p.Blocks {
		ci := types.CoarseIndex(p.CoarseExtent.IJK(id))
		b := &Block{ID: id, Index: ci}
		for d := 0; d < 3; d++ {
			b.Lo[d] = ci[d] * ratio[d]
			b.Hi[d] = (ci[d]+1)*ratio[d] - 1
			if ci[d] == p.CoarseExtent[d]-1 {
				b.Hi[d] = extent[d] - 1
			}
		}
		b.Cells = make([]int, 0, b.Layers(types.AxisX)*b.Layers(types.AxisY)*b.Layers(types.AxisZ))
		p.Blocks[id] = b
		p.blockIndex[ci] = id
	}
	// Pass 2: membership
	for k := 0; k < extent[2]; k++ {
		for j := 0; j < extent[1]; j++ {
			for i := 0; i < extent[0]; i++ {
				ci := types.CoarseIndex{p.AxisMap[0][i], p.AxisMap[1][j], p.AxisMap[2][k]}
				b := p.Blocks[p.blockIndex[ci]]
				b.Cells = append(b.Cells, extent.Linear(i, j, k))
			}
		}
	}
	p.Adjacency = make([][]types.CoarseIndex, nBlocks)
	for _, b := range p.Blocks {
		p.Adjacency[b.ID] = p.neighbors(b.Index)
	}
	return
}

// neighbors scans the 26 surrounding offsets and keeps the face neighbors
// that lie inside the coarse extent.
func (p *Partition) neighbors(ci types.CoarseIndex) (adj []types.CoarseIndex) {
	adj = make([]types.CoarseIndex, 0, 6)
	for i := -1; i <= 1; i++ {
		for j := -1; j <= 1; j++ {
			for k := -1; k <= 1; k++ {
				inc := [3]int{i, j, k}
				var zeros int
				for _, v := range inc {
					if v == 0 {
						zeros++
					}
				}
				if zeros != 2 {
					continue
				}
				n := types.CoarseIndex{ci[0] + i, ci[1] + j, ci[2] + k}
				if p.CoarseExtent.Contains(n) {
					adj = append(adj, n)
				}
			}
		}
	}
	return
}

// Block returns the block stored at a coarse index
func (p *Partition) Block(ci types.CoarseIndex) (*Block, error) {
	id, ok := p.blockIndex[ci]
	if !ok {
		return nil, fmt.Errorf("%w %s", ErrNoBlock, ci)
	}
	return p.Blocks[id], nil
}

// Neighbors returns the face adjacent coarse indices of the block at ci
func (p *Partition) Neighbors(ci types.CoarseIndex) ([]types.CoarseIndex, error) {
	b, err := p.Block(ci)
	if err != nil {
		return nil, err
	}
	return p.Adjacency[b.ID], nil
}

// CoarseIndexOf returns the coarse index owning a fine cell
func (p *Partition) CoarseIndexOf(fine int) (ci types.CoarseIndex, err error) {
	if fine < 0 || fine >= p.Extent.Count() {
		err = fmt.Errorf("%w: %d not in [0,%d)", ErrFineIndexRange, fine, p.Extent.Count())
		return
	}
	ijk := p.Extent.IJK(fine)
	for d := 0; d < 3; d++ {
		ci[d] = p.AxisMap[d][ijk[d]]
	}
	return
}

// CoarseTicks returns the vertex ordinates of the coarse grid along each axis.
// The last ordinate is the full fine length, so the last coarse cell covers
// any remainder cells.
func (p *Partition) CoarseTicks(cellSize types.CellSize) (ticks [3][]float64) {
	for d := 0; d < 3; d++ {
		nc := p.CoarseExtent[d]
		ticks[d] = make([]float64, nc+1)
		for c := 0; c < nc; c++ {
			ticks[d][c] = float64(c*p.Ratio[d]) * cellSize[d]
		}
		ticks[d][nc] = float64(p.Extent[d]) * cellSize[d]
	}
	return
}
