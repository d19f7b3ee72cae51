package types

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cast"
)

var (
	ErrInvalidExtent = errors.New("invalid extent")
	ErrUnknownAxis   = errors.New("unknown axis")
)

// Extent is the number of cells per axis of a structured grid
type Extent [3]int

func (e Extent) Validate() error {
	for d, n := range e {
		if n < 1 {
			return fmt.Errorf("%w: %s extent is %d, must be >= 1", ErrInvalidExtent, Axis(d), n)
		}
	}
	return nil
}

// Count is the total number of cells, nx*ny*nz
func (e Extent) Count() int { return e[0] * e[1] * e[2] }

// Linear converts (i,j,k) into the row-major cell index with x fastest varying
func (e Extent) Linear(i, j, k int) int {
	return i + j*e[0] + k*e[0]*e[1]
}

// IJK is the inverse of Linear
func (e Extent) IJK(ind int) (ijk [3]int) {
	ijk[0] = ind % e[0]
	ijk[1] = (ind / e[0]) % e[1]
	ijk[2] = ind / (e[0] * e[1])
	return
}

// Contains reports whether (i,j,k) lies inside the extent
func (e Extent) Contains(ijk [3]int) bool {
	for d := 0; d < 3; d++ {
		if ijk[d] < 0 || ijk[d] >= e[d] {
			return false
		}
	}
	return true
}

// CellSize is the uniform cell dimension per axis
type CellSize [3]float64

func (cs CellSize) Validate() error {
	for d, h := range cs {
		if !(h > 0) {
			return fmt.Errorf("%w: %s cell size is %g, must be > 0", ErrInvalidExtent, Axis(d), h)
		}
	}
	return nil
}

// CoarseningRatio is the number of fine cells per coarse cell along each axis
type CoarseningRatio [3]int

func (r CoarseningRatio) Validate() error {
	for d, n := range r {
		if n < 1 {
			return fmt.Errorf("%w: %s coarsening ratio is %d, must be >= 1", ErrInvalidExtent, Axis(d), n)
		}
	}
	return nil
}

// CoarseIndex addresses a coarse block by its per-axis coordinate
type CoarseIndex [3]int

func (ci CoarseIndex) String() string {
	return fmt.Sprintf("(%d,%d,%d)", ci[0], ci[1], ci[2])
}

type Axis uint8

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

var Axes = [3]Axis{AxisX, AxisY, AxisZ}

func (a Axis) String() string {
	if a > AxisZ {
		return fmt.Sprintf("Axis(%d)", uint8(a))
	}
	return [...]string{"X", "Y", "Z"}[a]
}

var AxisNameMap = map[string]Axis{
	"x": AxisX,
	"y": AxisY,
	"z": AxisZ,
	"0": AxisX,
	"1": AxisY,
	"2": AxisZ,
}

// NewAxis accepts either an axis letter or an integer 0..2
func NewAxis(v interface{}) (Axis, error) {
	label := strings.ToLower(strings.TrimSpace(cast.ToString(v)))
	if a, ok := AxisNameMap[label]; ok {
		return a, nil
	}
	return 0, fmt.Errorf("%w: %v", ErrUnknownAxis, v)
}
