package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/sysid/internal/dynamo"
	"github.com/san-kum/sysid/internal/experiment"
)

// SaveDataset writes an experiment as CSV with a header of the form
// t,u0,...,z0,...,w0,... so channel counts survive the round trip.
func SaveDataset(path string, exp *experiment.Experiment) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	defer w.Flush()

	nu := 0
	if exp.U != nil {
		nu, _ = exp.U.Dims()
	}
	nz, _ := exp.Z.Dims()
	nw := 0
	if exp.W != nil {
		nw, _ = exp.W.Dims()
	}

	header := []string{"t"}
	for i := 0; i < nu; i++ {
		header = append(header, fmt.Sprintf("u%d", i))
	}
	for i := 0; i < nz; i++ {
		header = append(header, fmt.Sprintf("z%d", i))
	}
	for i := 0; i < nw; i++ {
		header = append(header, fmt.Sprintf("w%d", i))
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for i := 0; i < exp.Samples(); i++ {
		row := []string{strconv.FormatFloat(exp.T[i], 'g', -1, 64)}
		for r := 0; r < nu; r++ {
			row = append(row, strconv.FormatFloat(exp.U.At(r, i), 'g', -1, 64))
		}
		for r := 0; r < nz; r++ {
			row = append(row, strconv.FormatFloat(exp.Z.At(r, i), 'g', -1, 64))
		}
		for r := 0; r < nw; r++ {
			row = append(row, strconv.FormatFloat(exp.W.At(r, i), 'g', -1, 64))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// LoadDataset reads a CSV written by SaveDataset and rebuilds the
// experiment around the given initial state.
func LoadDataset(path string, x0 dynamo.State) (*experiment.Experiment, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 3 {
		return nil, fmt.Errorf("%w: dataset %s has fewer than two samples", dynamo.ErrConfig, path)
	}

	header := records[0]
	if len(header) == 0 || header[0] != "t" {
		return nil, fmt.Errorf("%w: dataset %s: first column must be t", dynamo.ErrConfig, path)
	}

	nu, nz, nw := 0, 0, 0
	for _, name := range header[1:] {
		switch {
		case strings.HasPrefix(name, "u"):
			nu++
		case strings.HasPrefix(name, "z"):
			nz++
		case strings.HasPrefix(name, "w"):
			nw++
		default:
			return nil, fmt.Errorf("%w: dataset %s: unknown column %q", dynamo.ErrConfig, path, name)
		}
	}
	if nz == 0 {
		return nil, fmt.Errorf("%w: dataset %s has no measurement columns", dynamo.ErrConfig, path)
	}

	ns := len(records) - 1
	times := make([]float64, ns)

	var u, w *mat.Dense
	if nu > 0 {
		u = mat.NewDense(nu, ns, nil)
	}
	z := mat.NewDense(nz, ns, nil)
	if nw > 0 {
		w = mat.NewDense(nw, ns, nil)
	}

	for i := 0; i < ns; i++ {
		record := records[i+1]
		if len(record) != len(header) {
			return nil, fmt.Errorf("%w: dataset %s: row %d has %d fields, want %d", dynamo.ErrConfig, path, i+1, len(record), len(header))
		}

		vals := make([]float64, len(record))
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: dataset %s: row %d column %d: %v", dynamo.ErrConfig, path, i+1, j, err)
			}
			vals[j] = v
		}

		times[i] = vals[0]
		col := 1
		for r := 0; r < nu; r++ {
			u.Set(r, i, vals[col])
			col++
		}
		for r := 0; r < nz; r++ {
			z.Set(r, i, vals[col])
			col++
		}
		for r := 0; r < nw; r++ {
			w.Set(r, i, vals[col])
			col++
		}
	}

	return experiment.New(times, u, z, w, x0)
}
