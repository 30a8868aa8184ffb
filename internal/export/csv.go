// Package export reads and writes feature tables as CSV, Arrow IPC, Parquet
// and compressed snapshot files.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/nvandessel/tipgen/internal/dataset"
)

// ErrSchemaMismatch is returned when input columns do not match the table schema.
var ErrSchemaMismatch = errors.New("schema mismatch")

// WriteCSV writes a header naming the eleven columns followed by one line per
// order. No index column is written.
func WriteCSV(w io.Writer, t *dataset.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(dataset.ColumnNames()); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i := range t.Len() {
		if err := cw.Write(t.Row(i).Record()); err != nil {
			return fmt.Errorf("writing row %d: %w", i, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}
	return nil
}

// ReadCSV parses a file written by WriteCSV. The header must list the
// schema columns in order.
func ReadCSV(r io.Reader) (*dataset.Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(dataset.Schema)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("reading header: empty input")
		}
		return nil, fmt.Errorf("reading header: %w", err)
	}
	if !slices.Equal(header, dataset.ColumnNames()) {
		return nil, fmt.Errorf("%w: header %v", ErrSchemaMismatch, header)
	}

	var rows []dataset.Row
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading line %d: %w", line, err)
		}
		row, err := dataset.ParseRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		rows = append(rows, row)
	}
	return dataset.NewTable(rows), nil
}
