package types

import (
	"errors"
	"fmt"
	"strings"

	"gonum.org/v1/gonum/mat"
)

var (
	ErrUnknownAverageMethod = errors.New("unknown average method")
	ErrUnknownProjection    = errors.New("unknown projection")
)

type AverageMethod uint8

const (
	Arithmetic AverageMethod = iota
	Geometric
	Harmonic
)

func (am AverageMethod) String() string {
	if am > Harmonic {
		return fmt.Sprintf("AverageMethod(%d)", uint8(am))
	}
	return [...]string{"Arithmetic", "Geometric", "Harmonic"}[am]
}

var AverageMethodNameMap = map[string]AverageMethod{
	"arithmetic": Arithmetic,
	"geometric":  Geometric,
	"harmonic":   Harmonic,
}

func NewAverageMethod(label string) (AverageMethod, error) {
	if am, ok := AverageMethodNameMap[strings.ToLower(strings.TrimSpace(label))]; ok {
		return am, nil
	}
	return 0, fmt.Errorf("%w: %q, choose either Arithmetic, Geometric or Harmonic",
		ErrUnknownAverageMethod, label)
}

// Projection selects how a cell permeability is reduced to a scalar along the
// line joining two cell centroids when computing a transmissibility.
type Projection uint8

const (
	// UnitProjection treats both cells as isotropic with unit permeability
	UnitProjection Projection = iota
	// TensorProjection uses N·K·N with the cell's permeability tensor
	TensorProjection
)

func (p Projection) String() string {
	if p > TensorProjection {
		return fmt.Sprintf("Projection(%d)", uint8(p))
	}
	return [...]string{"Unit", "Tensor"}[p]
}

var ProjectionNameMap = map[string]Projection{
	"unit":   UnitProjection,
	"tensor": TensorProjection,
}

func NewProjection(label string) (Projection, error) {
	if label == "" {
		return UnitProjection, nil
	}
	if p, ok := ProjectionNameMap[strings.ToLower(strings.TrimSpace(label))]; ok {
		return p, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownProjection, label)
}

// Tensor is a 3x3 permeability tensor stored row major
type Tensor [9]float64

func NewDiagonalTensor(kx, ky, kz float64) (T Tensor) {
	T[0], T[4], T[8] = kx, ky, kz
	return
}

// Diagonal returns the principal values (kx, ky, kz)
func (T Tensor) Diagonal() [3]float64 {
	return [3]float64{T[0], T[4], T[8]}
}

// Project returns N·K·N
func (T Tensor) Project(N [3]float64) float64 {
	K := mat.NewDense(3, 3, T[:])
	n := mat.NewVecDense(3, N[:])
	return mat.Inner(n, K, n)
}
