/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/GitPaean/PRESTO/InputParameters"
	"github.com/GitPaean/PRESTO/readfiles"
	"github.com/GitPaean/PRESTO/upscale"
)

const exampleFile = `
########################################
Title: "SPE10 model 2"
MeshSize: [60, 220, 85]
CoarseRatio: [2, 2, 5]
BlockSize: [6.096, 3.048, 0.6096]
AverageMethod: Harmonic # Arithmetic, Geometric or Harmonic
Direction: all # x, y, z or all; omit for averaging only
LinearSolver: CG # CG or BiCGStab
PorosityFile: spe_phi.dat
PermeabilityFile: spe_perm.dat
CoarsePorosityFile: coarse_phi.dat
OutputFile: coarse.vtk
########################################
`

// UpscaleCmd represents the upscale command
var UpscaleCmd = &cobra.Command{
	Use:   "upscale",
	Short: "Upscale porosity and permeability of a structured grid",
	Long: `Reads fine porosity and permeability, coarsens the grid by the requested ratio
and writes the coarse porosity report and, optionally, a VTK file of the coarse grid`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		var (
			ip  *InputParameters.UpscaleParameters
			log = logrus.StandardLogger()
		)
		if ip, err = processInput(viper.GetString("inputConditionsFile")); err != nil {
			return
		}
		ip.Print()
		return RunUpscale(cmd.Context(), ip, log)
	},
}

func init() {
	rootCmd.AddCommand(UpscaleCmd)
	flags := UpscaleCmd.Flags()
	flags.StringP("inputConditionsFile", "I", "", "YAML file for input parameters like:\n\t- MeshSize\n\t- CoarseRatio\n\t- AverageMethod")
	flags.StringP("direction", "d", "", "flow direction, overrides the input file: x, y, z or all")
	flags.StringP("method", "m", "", "average method, overrides the input file: Arithmetic, Geometric or Harmonic")
	flags.IntP("parallel", "p", 0, "goroutines for the flow solves, 0 is one per CPU")
	for _, name := range []string{"inputConditionsFile", "direction", "method", "parallel"} {
		_ = viper.BindPFlag(name, flags.Lookup(name))
	}
}

// processInput reads and validates the input deck, applying overrides from
// flags, the config file and the environment
func processInput(fileName string) (ip *InputParameters.UpscaleParameters, err error) {
	if len(fileName) == 0 {
		fmt.Printf("Example File:%s\n", exampleFile)
		return nil, fmt.Errorf("must supply an input parameters file (-I, --inputConditionsFile)")
	}
	var data []byte
	if data, err = os.ReadFile(fileName); err != nil {
		return
	}
	ip = &InputParameters.UpscaleParameters{}
	if err = ip.Parse(data); err != nil {
		return nil, fmt.Errorf("%s: %w", fileName, err)
	}
	if d := viper.GetString("direction"); d != "" {
		ip.Direction = d
	}
	if m := viper.GetString("method"); m != "" {
		ip.AverageMethod = m
	}
	if p := viper.GetInt("parallel"); p != 0 {
		ip.ParallelDegree = p
	}
	if err = ip.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", fileName, err)
	}
	return
}

// RunUpscale reads the fine properties named in ip, upscales them and writes the outputs
func RunUpscale(ctx context.Context, ip *InputParameters.UpscaleParameters, log logrus.FieldLogger) (err error) {
	var (
		opts      upscale.Options
		phi, perm []float64
		r         *upscale.Result
		start     = time.Now()
	)
	if ctx == nil {
		ctx = context.Background()
	}
	if opts, err = ip.Options(); err != nil {
		return
	}
	if phi, perm, err = readfiles.ReadProperties(ip.PorosityFile, ip.PermeabilityFile, opts.Extent); err != nil {
		return
	}
	if r, err = upscale.Run(ctx, opts, phi, perm, log); err != nil {
		return
	}
	if err = readfiles.WriteCoarsePorosityFile(ip.CoarsePorosityFile, r.Coarse.Mesh.Extent, r.Coarse.Porosity); err != nil {
		return
	}
	if ip.OutputFile != "" {
		if err = readfiles.WriteVTKFile(ip.OutputFile, ip.Title, r.Coarse.Mesh,
			readfiles.CellData{Name: "porosity", Scalar: r.Coarse.Porosity},
			readfiles.CellData{Name: "permeability", Tensor: r.Coarse.Permeability},
		); err != nil {
			return
		}
	}
	log.WithFields(logrus.Fields{
		"blocks":       len(r.Coarse.Cells),
		"flowSolves":   len(r.Flow),
		"notConverged": r.NotConverged(),
		"elapsed":      time.Since(start).Round(time.Millisecond),
	}).Info("upscaling complete")
	return
}
