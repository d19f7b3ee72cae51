package readfiles

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/GitPaean/PRESTO/types"
)

var ErrShortData = errors.New("not enough property values")

// ReadPorosity reads every whitespace or tab separated value of r, one fine
// cell per value in linear index order. Blank lines and "--" comment lines are
// ignored.
func ReadPorosity(r io.Reader) (phi []float64, err error) {
	return readValues(r, 1)
}

// ReadPermeability reads three stacked blocks of values: kx for every fine
// cell, then ky, then kz. Lines with fewer than two fields are headers and
// are skipped.
func ReadPermeability(r io.Reader) (perm []float64, err error) {
	return readValues(r, 2)
}

func readValues(r io.Reader, minFields int) (values []float64, err error) {
	var (
		scanner = bufio.NewScanner(r)
		lineNum int
	)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		lineNum++
		fields := strings.Fields(scanner.Text())
		if len(fields) < minFields || strings.HasPrefix(fields[0], "--") {
			continue
		}
		for _, field := range fields {
			var v float64
			if v, err = strconv.ParseFloat(field, 64); err != nil {
				err = fmt.Errorf("line %d: %w", lineNum, err)
				return
			}
			values = append(values, v)
		}
	}
	err = scanner.Err()
	return
}

// ReadProperties reads the porosity and permeability files of a fine grid and
// checks that both hold enough values for extent
func ReadProperties(porosityFile, permeabilityFile string, extent types.Extent) (phi, perm []float64, err error) {
	var (
		N = extent.Count()
	)
	if phi, err = readFile(porosityFile, ReadPorosity); err != nil {
		return
	}
	if len(phi) < N {
		err = fmt.Errorf("%w: %s has %d porosity values for %d cells", ErrShortData, porosityFile, len(phi), N)
		return
	}
	if perm, err = readFile(permeabilityFile, ReadPermeability); err != nil {
		return
	}
	if len(perm) < 3*N {
		err = fmt.Errorf("%w: %s has %d permeability values, need %d", ErrShortData, permeabilityFile, len(perm), 3*N)
		return
	}
	return
}

func readFile(fileName string, read func(io.Reader) ([]float64, error)) (values []float64, err error) {
	var file *os.File
	if file, err = os.Open(fileName); err != nil {
		return
	}
	defer file.Close()
	if values, err = read(file); err != nil {
		err = fmt.Errorf("%s: %w", fileName, err)
	}
	return
}
