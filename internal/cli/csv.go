// Package cli holds the file I/O helpers for the scigrad command line:
// CSV readers for matrices, vectors and sample points, and a CSV writer
// for results.
package cli

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/scigrad-ml/scigrad/internal/tensor"
)

// readRecords parses a CSV file into float64 rows of equal length.
func readRecords(path string) ([][]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cli: open %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true

	var rows [][]float64
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("cli: read %s: %w", path, err)
		}
		row := make([]float64, len(record))
		for i, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("cli: %s line %d: %q is not a number", path, len(rows)+1, field)
			}
			row[i] = v
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("cli: %s is empty", path)
	}
	return rows, nil
}

// ReadMatrix loads a CSV file as a 2-D float64 tensor.
func ReadMatrix(path string) (*tensor.RawTensor, error) {
	rows, err := readRecords(path)
	if err != nil {
		return nil, err
	}
	cols := len(rows[0])
	flat := make([]float64, 0, len(rows)*cols)
	for i, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("cli: %s line %d has %d fields, expected %d", path, i+1, len(row), cols)
		}
		flat = append(flat, row...)
	}
	return rawFrom(flat, tensor.Shape{len(rows), cols})
}

// ReadVector loads a CSV file with a single column (or a single row) as a
// 1-D float64 tensor.
func ReadVector(path string) (*tensor.RawTensor, error) {
	rows, err := readRecords(path)
	if err != nil {
		return nil, err
	}
	if len(rows) == 1 {
		return rawFrom(rows[0], tensor.Shape{len(rows[0])})
	}
	flat := make([]float64, len(rows))
	for i, row := range rows {
		if len(row) != 1 {
			return nil, fmt.Errorf("cli: %s line %d has %d fields, expected 1", path, i+1, len(row))
		}
		flat[i] = row[0]
	}
	return rawFrom(flat, tensor.Shape{len(flat)})
}

// ReadPoints loads a two-column CSV file as the (x, y) sample vectors.
func ReadPoints(path string) (x, y *tensor.RawTensor, err error) {
	rows, err := readRecords(path)
	if err != nil {
		return nil, nil, err
	}
	xs := make([]float64, len(rows))
	ys := make([]float64, len(rows))
	for i, row := range rows {
		if len(row) != 2 {
			return nil, nil, fmt.Errorf("cli: %s line %d has %d fields, expected 2 (x,y)", path, i+1, len(row))
		}
		xs[i], ys[i] = row[0], row[1]
	}
	x, err = rawFrom(xs, tensor.Shape{len(xs)})
	if err != nil {
		return nil, nil, err
	}
	y, err = rawFrom(ys, tensor.Shape{len(ys)})
	if err != nil {
		return nil, nil, err
	}
	return x, y, nil
}

// WriteCSV writes a 1-D or 2-D float64 tensor as CSV.
func WriteCSV(w io.Writer, raw *tensor.RawTensor) error {
	writer := csv.NewWriter(w)
	data := raw.AsFloat64()

	// Vectors print one value per line.
	rows, cols := len(data), 1
	if len(raw.Shape()) == 2 {
		rows, cols = raw.Shape()[0], raw.Shape()[1]
	}

	record := make([]string, cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			record[j] = strconv.FormatFloat(data[i*cols+j], 'g', -1, 64)
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("cli: write csv: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

func rawFrom(data []float64, shape tensor.Shape) (*tensor.RawTensor, error) {
	raw, err := tensor.NewRaw(shape, tensor.Float64, tensor.CPU)
	if err != nil {
		return nil, fmt.Errorf("cli: %w", err)
	}
	copy(raw.AsFloat64(), data)
	return raw, nil
}
