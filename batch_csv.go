package lagoon

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// CSVBatchReader reads CSV data in batches.
type CSVBatchReader struct {
	reader     *csv.Reader
	closer     io.Closer
	headers    []string
	dtypes     []DType
	nullValues []string
	batchSize  int
	schema     *Schema
	done       bool
}

// CSVBatchReaderOptions configures CSV batch reading.
type CSVBatchReaderOptions struct {
	// BatchSize is the number of rows per batch.
	BatchSize int

	// DTypes specifies column types. If nil, types are inferred from
	// the first batch.
	DTypes []DType

	// Delimiter is the field delimiter (default ',').
	Delimiter rune

	// NullValues are strings treated as null. Defaults match ReadCSV.
	NullValues []string
}

// DefaultCSVBatchReaderOptions returns default options.
func DefaultCSVBatchReaderOptions() CSVBatchReaderOptions {
	return CSVBatchReaderOptions{
		BatchSize:  65536,
		Delimiter:  ',',
		NullValues: DefaultCSVReadOptions().NullValues,
	}
}

// NewCSVBatchReader creates a new CSV batch reader. Column types are
// detected from the first batch unless DTypes is set.
func NewCSVBatchReader(r io.Reader, opts ...CSVBatchReaderOptions) (*CSVBatchReader, error) {
	opt := DefaultCSVBatchReaderOptions()
	if len(opts) > 0 {
		opt = opts[0]
	}
	if opt.BatchSize <= 0 {
		opt.BatchSize = DefaultCSVBatchReaderOptions().BatchSize
	}
	if opt.NullValues == nil {
		opt.NullValues = DefaultCSVReadOptions().NullValues
	}

	csvReader := csv.NewReader(r)
	csvReader.FieldsPerRecord = -1
	if opt.Delimiter != 0 {
		csvReader.Comma = opt.Delimiter
	}

	headers, err := csvReader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	for i := range headers {
		headers[i] = strings.TrimSpace(headers[i])
	}

	var dtypes []DType
	var schema *Schema
	if len(opt.DTypes) > 0 {
		if len(opt.DTypes) != len(headers) {
			return nil, fmt.Errorf("got %d dtypes for %d columns", len(opt.DTypes), len(headers))
		}
		dtypes = opt.DTypes
		schema, err = NewSchema(headers, dtypes)
		if err != nil {
			return nil, err
		}
	}

	var closer io.Closer
	if c, ok := r.(io.Closer); ok {
		closer = c
	}

	return &CSVBatchReader{
		reader:     csvReader,
		closer:     closer,
		headers:    headers,
		dtypes:     dtypes,
		nullValues: opt.NullValues,
		batchSize:  opt.BatchSize,
		schema:     schema,
	}, nil
}

// Next reads the next batch of rows as a DataFrame.
func (r *CSVBatchReader) Next(ctx context.Context) (*DataFrame, error) {
	if r.done {
		return nil, io.EOF
	}

	records := make([][]string, 0, r.batchSize)
	for i := 0; i < r.batchSize; i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		record, err := r.reader.Read()
		if err == io.EOF {
			r.done = true
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row: %w", err)
		}
		records = append(records, record)
	}

	if len(records) == 0 {
		r.done = true
		return nil, io.EOF
	}

	// Types inferred from the first batch are pinned for the rest of
	// the stream so all batches concatenate cleanly.
	if r.dtypes == nil {
		r.dtypes = make([]DType, len(r.headers))
		for i := range r.headers {
			r.dtypes[i] = inferColumnType(records, i, r.nullValues)
		}
		schema, err := NewSchema(r.headers, r.dtypes)
		if err != nil {
			return nil, err
		}
		r.schema = schema
	}

	columns := make([]*Series, len(r.headers))
	for i, name := range r.headers {
		col, err := buildColumn(name, r.dtypes[i], records, i, r.nullValues)
		if err != nil {
			return nil, fmt.Errorf("failed to build column '%s': %w", name, err)
		}
		columns[i] = col
	}
	return NewDataFrame(columns...)
}

// Schema returns the schema, or nil before the first inferred batch.
func (r *CSVBatchReader) Schema() *Schema {
	return r.schema
}

// Close releases the underlying reader if it is closable.
func (r *CSVBatchReader) Close() error {
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}
