package readfiles

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/GitPaean/PRESTO/types"
)

// columnSeparator follows every value but the last on a report line
const columnSeparator = "        \t"

// WriteCoarsePorosity writes one section per coarse layer and one subsection
// per row. Each coarse column gets its own line holding its porosity repeated
// once per column and once more at the end of the line. phi is indexed by
// coarse linear index.
func WriteCoarsePorosity(w io.Writer, coarse types.Extent, phi []float64) (err error) {
	if len(phi) < coarse.Count() {
		return fmt.Errorf("%w: %d coarse porosity values for %d blocks", ErrShortData, len(phi), coarse.Count())
	}
	bw := bufio.NewWriter(w)
	for k := 0; k < coarse[2]; k++ {
		fmt.Fprintf(bw, "-- LAYER  %d\n", k+1)
		for j := 0; j < coarse[1]; j++ {
			fmt.Fprintf(bw, "-- ROW  %d\n", j+1)
			for i := 0; i < coarse[0]; i++ {
				v := phi[coarse.Linear(i, j, k)]
				for n := 0; n < coarse[0]; n++ {
					fmt.Fprintf(bw, "%f%s", v, columnSeparator)
				}
				fmt.Fprintf(bw, "%f\n", v)
			}
		}
	}
	return bw.Flush()
}

func WriteCoarsePorosityFile(fileName string, coarse types.Extent, phi []float64) (err error) {
	var file *os.File
	if file, err = os.Create(fileName); err != nil {
		return
	}
	defer func() {
		if cerr := file.Close(); err == nil {
			err = cerr
		}
	}()
	return WriteCoarsePorosity(file, coarse, phi)
}
