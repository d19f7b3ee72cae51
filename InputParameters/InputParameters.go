package InputParameters

import (
	"fmt"
	"strings"

	"github.com/ghodss/yaml"
	"github.com/spf13/cast"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/GitPaean/PRESTO/solver"
	"github.com/GitPaean/PRESTO/types"
	"github.com/GitPaean/PRESTO/upscale"
)

const DefaultCoarsePorosityFile = "coarse_phi.dat"

// Parameters obtained from the YAML input file
type UpscaleParameters struct {
	Title                string      `json:"Title"`
	MeshSize             [3]int      `json:"MeshSize"`    // Fine cells along x, y, z
	CoarseRatio          [3]int      `json:"CoarseRatio"` // Fine cells per coarse block along x, y, z
	BlockSize            [3]float64  `json:"BlockSize"`   // Fine cell dimensions
	AverageMethod        string      `json:"AverageMethod"`
	Direction            interface{} `json:"Direction"` // x, y, z, 0, 1, 2 or all; empty averages only
	Projection           string      `json:"Projection"`
	LinearSolver         string      `json:"LinearSolver"` // CG or BiCGStab
	MaxIterations        int         `json:"MaxIterations"`
	Tolerance            float64     `json:"Tolerance"`
	FailOnNonConvergence bool        `json:"FailOnNonConvergence"`
	ParallelDegree       int         `json:"ParallelDegree"`
	PorosityFile         string      `json:"PorosityFile"`
	PermeabilityFile     string      `json:"PermeabilityFile"`
	CoarsePorosityFile   string      `json:"CoarsePorosityFile"`
	OutputFile           string      `json:"OutputFile"` // VTK export of the coarse grid, optional
}

func (ip *UpscaleParameters) Parse(data []byte) (err error) {
	if err = yaml.Unmarshal(data, ip); err != nil {
		return
	}
	// YAML 1.1 reads a bare y or n as a boolean, so Direction is decoded as YAML 1.2
	var direction struct {
		Direction interface{} `yaml:"Direction"`
	}
	if err = yamlv3.Unmarshal(data, &direction); err != nil {
		return
	}
	ip.Direction = direction.Direction
	ip.SetDefaults()
	return
}

func (ip *UpscaleParameters) SetDefaults() {
	if ip.MaxIterations == 0 {
		ip.MaxIterations = solver.DefaultMaxIterations
	}
	if ip.Tolerance == 0 {
		ip.Tolerance = solver.DefaultTolerance
	}
	if ip.CoarsePorosityFile == "" {
		ip.CoarsePorosityFile = DefaultCoarsePorosityFile
	}
}

func (ip *UpscaleParameters) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", ip.Title)
	fmt.Printf("%v\t\t= Mesh Size\n", ip.MeshSize)
	fmt.Printf("%v\t\t= Coarse Ratio\n", ip.CoarseRatio)
	fmt.Printf("%v\t\t= Block Size\n", ip.BlockSize)
	fmt.Printf("[%s]\t\t= Average Method\n", ip.AverageMethod)
	if ip.Direction != nil {
		fmt.Printf("[%v]\t\t\t= Flow Direction\n", ip.Direction)
		fmt.Printf("[%s]\t\t= Projection\n", ip.Projection)
		fmt.Printf("[%s]\t\t\t= Linear Solver\n", ip.LinearSolver)
		fmt.Printf("[%d]\t\t\t= Max Iterations\n", ip.MaxIterations)
		fmt.Printf("%8.3g\t\t= Tolerance\n", ip.Tolerance)
	}
	fmt.Printf("\"%s\"\t= Porosity File\n", ip.PorosityFile)
	fmt.Printf("\"%s\"\t= Permeability File\n", ip.PermeabilityFile)
}

// FlowAxes parses Direction. A nil or empty Direction selects no flow axes.
func (ip *UpscaleParameters) FlowAxes() (axes []types.Axis, err error) {
	if ip.Direction == nil {
		return
	}
	label := strings.ToLower(strings.TrimSpace(cast.ToString(ip.Direction)))
	switch label {
	case "":
		return
	case "all":
		return types.Axes[:], nil
	}
	var axis types.Axis
	if axis, err = types.NewAxis(label); err != nil {
		return nil, fmt.Errorf("Direction: %w, choose x, y, z or all", err)
	}
	return []types.Axis{axis}, nil
}

// Options converts the deck into upscaling options
func (ip *UpscaleParameters) Options() (opts upscale.Options, err error) {
	opts = upscale.Options{
		Extent:   types.Extent(ip.MeshSize),
		CellSize: types.CellSize(ip.BlockSize),
		Ratio:    types.CoarseningRatio(ip.CoarseRatio),
		Solver: solver.Config{
			MaxIterations: ip.MaxIterations,
			Tolerance:     ip.Tolerance,
		},
		FailOnNonConvergence: ip.FailOnNonConvergence,
		ParallelDegree:       ip.ParallelDegree,
	}
	if opts.Method, err = types.NewAverageMethod(ip.AverageMethod); err != nil {
		return
	}
	if opts.Projection, err = types.NewProjection(ip.Projection); err != nil {
		return
	}
	if opts.FlowAxes, err = ip.FlowAxes(); err != nil {
		return
	}
	if opts.LinearSolver, err = solver.NewLinearSolver(ip.LinearSolver); err != nil {
		return
	}
	return
}

// Validate checks the whole deck before any file is read
func (ip *UpscaleParameters) Validate() (err error) {
	var opts upscale.Options
	if opts, err = ip.Options(); err != nil {
		return
	}
	if err = opts.Validate(); err != nil {
		return
	}
	if ip.PorosityFile == "" || ip.PermeabilityFile == "" {
		return fmt.Errorf("PorosityFile and PermeabilityFile are required")
	}
	return
}
