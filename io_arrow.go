package lagoon

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// ============================================================================
// Arrow Export
// ============================================================================

// ToArrow exports a DataFrame to an Arrow Record. Validity masks map onto
// Arrow null bitmaps. The caller is responsible for calling Release() on the
// returned Record.
func (df *DataFrame) ToArrow(mem memory.Allocator) (arrow.Record, error) {
	if mem == nil {
		mem = memory.DefaultAllocator
	}

	// Build Arrow schema
	fields := make([]arrow.Field, df.Width())
	for i, col := range df.columns {
		arrowType, err := dtypeToArrowType(col.DType())
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", col.Name(), err)
		}
		fields[i] = arrow.Field{Name: col.Name(), Type: arrowType, Nullable: true}
	}
	schema := arrow.NewSchema(fields, nil)

	// Convert each column to Arrow array
	arrays := make([]arrow.Array, df.Width())
	for i, col := range df.columns {
		arr, err := seriesToArrowArray(col, mem)
		if err != nil {
			// Clean up already created arrays
			for j := 0; j < i; j++ {
				arrays[j].Release()
			}
			return nil, fmt.Errorf("column %s: %w", col.Name(), err)
		}
		arrays[i] = arr
	}

	// Create Record
	record := array.NewRecord(schema, arrays, int64(df.Height()))

	// Release arrays (Record retains them)
	for _, arr := range arrays {
		arr.Release()
	}

	return record, nil
}

// ToArrowTable exports a DataFrame to an Arrow Table.
// The caller is responsible for calling Release() on the returned Table.
func (df *DataFrame) ToArrowTable(mem memory.Allocator) (arrow.Table, error) {
	record, err := df.ToArrow(mem)
	if err != nil {
		return nil, err
	}
	defer record.Release()

	return array.NewTableFromRecords(record.Schema(), []arrow.Record{record}), nil
}

// dtypeToArrowType converts a DType to an Arrow DataType
func dtypeToArrowType(dtype DType) (arrow.DataType, error) {
	switch dtype {
	case Float64:
		return arrow.PrimitiveTypes.Float64, nil
	case Float32:
		return arrow.PrimitiveTypes.Float32, nil
	case Int64:
		return arrow.PrimitiveTypes.Int64, nil
	case Int32:
		return arrow.PrimitiveTypes.Int32, nil
	case Bool:
		return arrow.FixedWidthTypes.Boolean, nil
	case String:
		return arrow.BinaryTypes.String, nil
	default:
		return nil, fmt.Errorf("unsupported dtype: %s", dtype)
	}
}

// seriesToArrowArray converts a Series to an Arrow Array
func seriesToArrowArray(s *Series, mem memory.Allocator) (arrow.Array, error) {
	valid := s.Validity()

	switch s.DType() {
	case Float64:
		builder := array.NewFloat64Builder(mem)
		defer builder.Release()
		builder.AppendValues(s.Float64(), valid)
		return builder.NewArray(), nil

	case Float32:
		builder := array.NewFloat32Builder(mem)
		defer builder.Release()
		builder.AppendValues(s.Float32(), valid)
		return builder.NewArray(), nil

	case Int64:
		builder := array.NewInt64Builder(mem)
		defer builder.Release()
		builder.AppendValues(s.Int64(), valid)
		return builder.NewArray(), nil

	case Int32:
		builder := array.NewInt32Builder(mem)
		defer builder.Release()
		builder.AppendValues(s.Int32(), valid)
		return builder.NewArray(), nil

	case Bool:
		builder := array.NewBooleanBuilder(mem)
		defer builder.Release()
		builder.AppendValues(s.Bool(), valid)
		return builder.NewArray(), nil

	case String:
		builder := array.NewStringBuilder(mem)
		defer builder.Release()
		builder.AppendValues(s.Strings(), valid)
		return builder.NewArray(), nil

	default:
		return nil, fmt.Errorf("unsupported dtype for Arrow export: %s", s.DType())
	}
}

// ============================================================================
// Arrow Import
// ============================================================================

// NewDataFrameFromArrow creates a DataFrame from an Arrow Record. Arrow null
// bitmaps map onto validity masks.
func NewDataFrameFromArrow(record arrow.Record) (*DataFrame, error) {
	if record == nil {
		return nil, fmt.Errorf("record is nil")
	}

	schema := record.Schema()
	numCols := int(record.NumCols())
	series := make([]*Series, numCols)

	for i := 0; i < numCols; i++ {
		field := schema.Field(i)
		col := record.Column(i)

		s, err := arrowArrayToSeries(field.Name, col)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", field.Name, err)
		}
		series[i] = s
	}

	return NewDataFrame(series...)
}

// NewDataFrameFromArrowTable creates a DataFrame from an Arrow Table,
// concatenating chunked columns.
func NewDataFrameFromArrowTable(table arrow.Table) (*DataFrame, error) {
	if table == nil {
		return nil, fmt.Errorf("table is nil")
	}

	schema := table.Schema()
	numCols := int(table.NumCols())
	series := make([]*Series, numCols)

	for i := 0; i < numCols; i++ {
		field := schema.Field(i)
		chunked := table.Column(i).Data()

		b := newSeriesBuilder(field.Name, arrowTypeToDType(field.Type), int(table.NumRows()))
		for j := 0; j < chunked.Len(); j++ {
			chunk := chunked.Chunk(j)
			chunkSeries, err := arrowArrayToSeries(field.Name, chunk)
			if err != nil {
				return nil, fmt.Errorf("column %s chunk %d: %w", field.Name, j, err)
			}
			for row := 0; row < chunkSeries.Len(); row++ {
				if chunkSeries.IsValid(row) {
					b.appendValue(chunkSeries.Get(row))
				} else {
					b.appendNull()
				}
			}
		}
		series[i] = b.series()
	}

	return NewDataFrame(series...)
}

// arrowTypeToDType maps an Arrow type onto the builder dtype used when
// concatenating chunks.
func arrowTypeToDType(t arrow.DataType) DType {
	switch t.ID() {
	case arrow.FLOAT64, arrow.FLOAT32:
		return Float64
	case arrow.INT64, arrow.INT32:
		return Int64
	case arrow.BOOL:
		return Bool
	default:
		return String
	}
}

// arrowArrayToSeries converts an Arrow Array to a Series
func arrowArrayToSeries(name string, arr arrow.Array) (*Series, error) {
	n := arr.Len()
	var valid []bool
	if arr.NullN() > 0 {
		valid = make([]bool, n)
		for i := 0; i < n; i++ {
			valid[i] = arr.IsValid(i)
		}
	}

	switch a := arr.(type) {
	case *array.Float64:
		data := make([]float64, n)
		for i := 0; i < n; i++ {
			data[i] = a.Value(i)
		}
		if valid != nil {
			return NewSeriesFloat64WithNulls(name, data, valid), nil
		}
		return NewSeriesFloat64(name, data), nil

	case *array.Float32:
		data := make([]float32, n)
		for i := 0; i < n; i++ {
			data[i] = a.Value(i)
		}
		if valid != nil {
			return NewSeriesFloat32WithNulls(name, data, valid), nil
		}
		return NewSeriesFloat32(name, data), nil

	case *array.Int64:
		data := make([]int64, n)
		for i := 0; i < n; i++ {
			data[i] = a.Value(i)
		}
		if valid != nil {
			return NewSeriesInt64WithNulls(name, data, valid), nil
		}
		return NewSeriesInt64(name, data), nil

	case *array.Int32:
		data := make([]int32, n)
		for i := 0; i < n; i++ {
			data[i] = a.Value(i)
		}
		if valid != nil {
			return NewSeriesInt32WithNulls(name, data, valid), nil
		}
		return NewSeriesInt32(name, data), nil

	case *array.Boolean:
		data := make([]bool, n)
		for i := 0; i < n; i++ {
			data[i] = a.Value(i)
		}
		if valid != nil {
			return NewSeriesBoolWithNulls(name, data, valid), nil
		}
		return NewSeriesBool(name, data), nil

	case *array.String:
		data := make([]string, n)
		for i := 0; i < n; i++ {
			data[i] = a.Value(i)
		}
		if valid != nil {
			return NewSeriesStringWithNulls(name, data, valid), nil
		}
		return NewSeriesString(name, data), nil

	default:
		return nil, fmt.Errorf("unsupported Arrow array type: %T", arr)
	}
}
