package export

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/ipc"
	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/apache/arrow/go/v17/parquet"
	"github.com/apache/arrow/go/v17/parquet/compress"
	"github.com/apache/arrow/go/v17/parquet/pqarrow"

	"github.com/nvandessel/tipgen/internal/dataset"
	"github.com/nvandessel/tipgen/internal/heuristic"
)

// ArrowSchema maps the table schema onto Arrow types. Integer columns are
// stored as int64. No column is nullable.
func ArrowSchema() *arrow.Schema {
	fields := make([]arrow.Field, len(dataset.Schema))
	for i, c := range dataset.Schema {
		fields[i] = arrow.Field{Name: c.Name, Type: arrowType(c.Kind)}
	}
	return arrow.NewSchema(fields, nil)
}

func arrowType(k dataset.ColumnKind) arrow.DataType {
	switch k {
	case dataset.KindInt:
		return arrow.PrimitiveTypes.Int64
	case dataset.KindString:
		return arrow.BinaryTypes.String
	default:
		return arrow.PrimitiveTypes.Float64
	}
}

// newRecord copies t into a single Arrow record. The caller releases it.
func newRecord(mem memory.Allocator, t *dataset.Table) (arrow.Record, error) {
	b := array.NewRecordBuilder(mem, ArrowSchema())
	defer b.Release()

	for i, c := range dataset.Schema {
		switch c.Kind {
		case dataset.KindFloat:
			vals, err := t.Floats(c.Name)
			if err != nil {
				return nil, err
			}
			b.Field(i).(*array.Float64Builder).AppendValues(vals, nil)
		case dataset.KindInt:
			vals, err := t.Ints(c.Name)
			if err != nil {
				return nil, err
			}
			fb := b.Field(i).(*array.Int64Builder)
			fb.Reserve(len(vals))
			for _, v := range vals {
				fb.UnsafeAppend(int64(v))
			}
		case dataset.KindString:
			vals, err := t.Strings(c.Name)
			if err != nil {
				return nil, err
			}
			b.Field(i).(*array.StringBuilder).AppendValues(vals, nil)
		}
	}
	return b.NewRecord(), nil
}

// WriteArrow writes t as an Arrow IPC file holding one record batch.
func WriteArrow(w io.Writer, t *dataset.Table) error {
	mem := memory.NewGoAllocator()
	rec, err := newRecord(mem, t)
	if err != nil {
		return err
	}
	defer rec.Release()

	fw, err := ipc.NewFileWriter(w, ipc.WithSchema(rec.Schema()), ipc.WithAllocator(mem))
	if err != nil {
		return fmt.Errorf("creating arrow writer: %w", err)
	}
	if err := fw.Write(rec); err != nil {
		fw.Close()
		return fmt.Errorf("writing arrow record: %w", err)
	}
	if err := fw.Close(); err != nil {
		return fmt.Errorf("closing arrow writer: %w", err)
	}
	return nil
}

// ReadArrow reads every record batch of an Arrow IPC file.
func ReadArrow(r io.Reader) (*dataset.Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading arrow file: %w", err)
	}

	fr, err := ipc.NewFileReader(bytes.NewReader(data), ipc.WithAllocator(memory.NewGoAllocator()))
	if err != nil {
		return nil, fmt.Errorf("opening arrow file: %w", err)
	}
	defer fr.Close()

	var rows []dataset.Row
	for i := range fr.NumRecords() {
		rec, err := fr.Record(i)
		if err != nil {
			return nil, fmt.Errorf("reading record %d: %w", i, err)
		}
		batch, err := recordRows(rec)
		if err != nil {
			return nil, err
		}
		rows = append(rows, batch...)
	}
	return dataset.NewTable(rows), nil
}

// WriteParquet writes t as a snappy-compressed Parquet file. The Arrow
// schema is embedded so readers recover the exact column types.
func WriteParquet(w io.Writer, t *dataset.Table) error {
	mem := memory.NewGoAllocator()
	rec, err := newRecord(mem, t)
	if err != nil {
		return err
	}
	defer rec.Release()

	props := parquet.NewWriterProperties(
		parquet.WithCompression(compress.Codecs.Snappy),
		parquet.WithAllocator(mem),
	)
	arrProps := pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema(), pqarrow.WithAllocator(mem))

	// The parquet footer is only written on Close, so buffer to avoid leaving
	// a truncated file on w when a write fails.
	var buf bytes.Buffer
	fw, err := pqarrow.NewFileWriter(rec.Schema(), &buf, props, arrProps)
	if err != nil {
		return fmt.Errorf("creating parquet writer: %w", err)
	}
	if rec.NumRows() > 0 {
		if err := fw.Write(rec); err != nil {
			fw.Close()
			return fmt.Errorf("writing parquet row group: %w", err)
		}
	}
	if err := fw.Close(); err != nil {
		return fmt.Errorf("closing parquet writer: %w", err)
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("writing parquet file: %w", err)
	}
	return nil
}

// ReadParquet reads a Parquet file written by WriteParquet.
func ReadParquet(ctx context.Context, r io.Reader) (*dataset.Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading parquet file: %w", err)
	}

	mem := memory.NewGoAllocator()
	tbl, err := pqarrow.ReadTable(ctx, bytes.NewReader(data), parquet.NewReaderProperties(mem), pqarrow.ArrowReadProperties{}, mem)
	if err != nil {
		return nil, fmt.Errorf("opening parquet file: %w", err)
	}
	defer tbl.Release()

	tr := array.NewTableReader(tbl, -1)
	defer tr.Release()

	var rows []dataset.Row
	for tr.Next() {
		batch, err := recordRows(tr.Record())
		if err != nil {
			return nil, err
		}
		rows = append(rows, batch...)
	}
	return dataset.NewTable(rows), nil
}

// recordRows converts one Arrow record with the table schema back into rows.
func recordRows(rec arrow.Record) ([]dataset.Row, error) {
	sch := rec.Schema()
	cols := make([]arrow.Array, len(dataset.Schema))
	for i, c := range dataset.Schema {
		idx := sch.FieldIndices(c.Name)
		if len(idx) != 1 {
			return nil, fmt.Errorf("%w: column %q missing", ErrSchemaMismatch, c.Name)
		}
		col := rec.Column(idx[0])
		if !arrow.TypeEqual(col.DataType(), arrowType(c.Kind)) {
			return nil, fmt.Errorf("%w: column %q has type %s", ErrSchemaMismatch, c.Name, col.DataType())
		}
		if col.NullN() > 0 {
			return nil, fmt.Errorf("%w: column %q has nulls", ErrSchemaMismatch, c.Name)
		}
		cols[i] = col
	}

	f := func(i, row int) float64 { return cols[i].(*array.Float64).Value(row) }
	n := func(i, row int) int { return int(cols[i].(*array.Int64).Value(row)) }
	s := func(i, row int) string { return cols[i].(*array.String).Value(row) }

	rows := make([]dataset.Row, rec.NumRows())
	for r := range rows {
		rows[r] = dataset.Row{
			Features: heuristic.Features{
				DistanceMiles:       f(0, r),
				OrderSubtotal:       f(1, r),
				WaitTimeMinutes:     f(2, r),
				Weather:             s(3, r),
				TimeOfDay:           s(4, r),
				DayOfWeek:           s(5, r),
				CommunicationRating: n(6, r),
				ItemCount:           n(7, r),
				MessagesSent:        n(8, r),
			},
			TipPercent: f(9, r),
			TipAmount:  f(10, r),
		}
	}
	return rows, nil
}
