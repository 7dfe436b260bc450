package lagoon

import (
	"context"
	"fmt"
	"io"
)

// BatchReader reads data in batches, enabling processing of datasets
// larger than RAM.
type BatchReader interface {
	// Next reads the next batch of data.
	// Returns io.EOF when there are no more batches.
	Next(ctx context.Context) (*DataFrame, error)

	// Schema returns the schema of the data.
	// May return nil if the schema is unknown until first read.
	Schema() *Schema

	// Close releases any resources held by the reader.
	Close() error
}

// BatchOptions configures batch reading behavior.
type BatchOptions struct {
	// BatchSize is the number of rows per batch.
	// Default: 65536 (matches typical columnar chunk size)
	BatchSize int
}

// DefaultBatchOptions returns default batch reading options.
func DefaultBatchOptions() BatchOptions {
	return BatchOptions{
		BatchSize: 65536,
	}
}

// Pipeline represents a streaming data processing pipeline over a
// batch reader. Filters and transforms apply per batch in order.
type Pipeline struct {
	reader     BatchReader
	transforms []func(*DataFrame) (*DataFrame, error)
	filters    []Expr
	limit      int
	hasLimit   bool
}

// NewPipeline creates a new streaming pipeline from a batch reader.
func NewPipeline(reader BatchReader) *Pipeline {
	return &Pipeline{
		reader:     reader,
		transforms: make([]func(*DataFrame) (*DataFrame, error), 0),
		filters:    make([]Expr, 0),
	}
}

// Filter adds a filter predicate to the pipeline.
func (p *Pipeline) Filter(pred Expr) *Pipeline {
	p.filters = append(p.filters, pred)
	return p
}

// Transform adds a transformation function to the pipeline.
func (p *Pipeline) Transform(fn func(*DataFrame) (*DataFrame, error)) *Pipeline {
	p.transforms = append(p.transforms, fn)
	return p
}

// Limit sets a maximum number of rows to process.
func (p *Pipeline) Limit(n int) *Pipeline {
	p.limit = n
	p.hasLimit = true
	return p
}

// Collect processes all batches and combines the results into a single
// DataFrame.
func (p *Pipeline) Collect(ctx context.Context) (*DataFrame, error) {
	var results []*DataFrame
	totalRows := 0

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		batch, err := p.reader.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		batch, err = p.processBatch(batch)
		if err != nil {
			return nil, err
		}

		if p.hasLimit {
			remaining := p.limit - totalRows
			if remaining <= 0 {
				break
			}
			if batch.Height() > remaining {
				batch = batch.Head(remaining)
			}
		}

		results = append(results, batch)
		totalRows += batch.Height()

		if p.hasLimit && totalRows >= p.limit {
			break
		}
	}

	if len(results) == 0 {
		if schema := p.reader.Schema(); schema != nil {
			return emptyDataFrameFromSchema(schema)
		}
		return NewDataFrame()
	}
	return ConcatDataFrames(results...)
}

// ForEach processes each batch without combining results. Useful for
// aggregations or side effects.
func (p *Pipeline) ForEach(ctx context.Context, fn func(*DataFrame) error) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		batch, err := p.reader.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		batch, err = p.processBatch(batch)
		if err != nil {
			return err
		}
		if err := fn(batch); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pipeline) processBatch(batch *DataFrame) (*DataFrame, error) {
	var err error
	for _, pred := range p.filters {
		batch, err = applyFilterToBatch(batch, pred)
		if err != nil {
			return nil, err
		}
	}
	for _, transform := range p.transforms {
		batch, err = transform(batch)
		if err != nil {
			return nil, err
		}
	}
	return batch, nil
}

// applyFilterToBatch evaluates a predicate against one batch through
// the lazy executor.
func applyFilterToBatch(df *DataFrame, pred Expr) (*DataFrame, error) {
	return df.Lazy().Filter(pred).Collect()
}

func emptyDataFrameFromSchema(schema *Schema) (*DataFrame, error) {
	names := schema.Names()
	dtypes := schema.DTypes()
	series := make([]*Series, len(names))
	for i, name := range names {
		series[i] = newSeriesBuilder(name, commonDType([]DType{dtypes[i]}), 0).series()
	}
	return NewDataFrame(series...)
}

// ConcatDataFrames concatenates multiple DataFrames vertically.
// All frames must share the same column names and dtypes; validity
// masks are preserved across the concatenation.
func ConcatDataFrames(dfs ...*DataFrame) (*DataFrame, error) {
	if len(dfs) == 0 {
		return NewDataFrame()
	}
	if len(dfs) == 1 {
		return dfs[0], nil
	}

	ref := dfs[0]
	numCols := ref.Width()
	colNames := ref.ColumnNames()

	for i, df := range dfs[1:] {
		if df.Width() != numCols {
			return nil, fmt.Errorf("concat: frame %d has %d columns, expected %d", i+1, df.Width(), numCols)
		}
	}

	totalRows := 0
	for _, df := range dfs {
		totalRows += df.Height()
	}

	resultCols := make([]*Series, numCols)
	for colIdx := 0; colIdx < numCols; colIdx++ {
		name := colNames[colIdx]
		dtype := ref.Column(colIdx).DType()

		// Float32 and Int32 columns widen to their canonical types.
		b := newSeriesBuilder(name, commonDType([]DType{dtype}), totalRows)
		for frameIdx, df := range dfs {
			col, err := df.ColumnByName(name)
			if err != nil {
				return nil, fmt.Errorf("concat: frame %d: %w", frameIdx, err)
			}
			if col.DType() != dtype {
				return nil, fmt.Errorf("concat: column %s is %s in frame %d, expected %s",
					name, col.DType(), frameIdx, dtype)
			}
			for i := 0; i < col.Len(); i++ {
				b.appendValue(col.Get(i))
			}
		}
		resultCols[colIdx] = b.series()
	}
	return NewDataFrame(resultCols...)
}
