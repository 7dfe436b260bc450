package lagoon

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
)

// JSONFormat selects the JSON layout used when reading or writing frames.
type JSONFormat int

const (
	// JSONRecords is an array of objects, one object per row.
	JSONRecords JSONFormat = iota
	// JSONColumns is an object mapping column names to value arrays.
	JSONColumns
)

// JSONReadOptions configures ReadJSON.
type JSONReadOptions struct {
	Format JSONFormat
}

// DefaultJSONReadOptions returns the default JSON read options.
func DefaultJSONReadOptions() JSONReadOptions {
	return JSONReadOptions{Format: JSONRecords}
}

// ReadJSON reads a DataFrame from a JSON file.
func ReadJSON(path string, opts ...JSONReadOptions) (*DataFrame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSONFromReader(f, opts...)
}

// ReadJSONFromReader reads a DataFrame from an io.Reader containing JSON.
func ReadJSONFromReader(r io.Reader, opts ...JSONReadOptions) (*DataFrame, error) {
	opt := DefaultJSONReadOptions()
	if len(opts) > 0 {
		opt = opts[0]
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading JSON: %w", err)
	}
	switch opt.Format {
	case JSONRecords:
		return readJSONRecords(data)
	case JSONColumns:
		return readJSONColumns(data)
	default:
		return nil, fmt.Errorf("unsupported JSON format %d", opt.Format)
	}
}

func readJSONRecords(data []byte) (*DataFrame, error) {
	var records []map[string]interface{}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parsing JSON records: %w", err)
	}
	if len(records) == 0 {
		return NewDataFrame()
	}

	// Object keys decode in map order, so column layout is made
	// deterministic by sorting the union of keys.
	seen := make(map[string]bool)
	var names []string
	for _, rec := range records {
		for key := range rec {
			if !seen[key] {
				seen[key] = true
				names = append(names, key)
			}
		}
	}
	sort.Strings(names)

	columns := make([]*Series, len(names))
	for i, name := range names {
		values := make([]interface{}, len(records))
		for j, rec := range records {
			values[j] = rec[name]
		}
		col, err := buildJSONColumn(name, values)
		if err != nil {
			return nil, err
		}
		columns[i] = col
	}
	return NewDataFrame(columns...)
}

func readJSONColumns(data []byte) (*DataFrame, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing JSON columns: %w", err)
	}
	if len(raw) == 0 {
		return NewDataFrame()
	}

	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)

	columns := make([]*Series, 0, len(names))
	height := -1
	for _, name := range names {
		var values []interface{}
		if err := json.Unmarshal(raw[name], &values); err != nil {
			return nil, fmt.Errorf("parsing column %s: %w", name, err)
		}
		if height == -1 {
			height = len(values)
		} else if len(values) != height {
			return nil, fmt.Errorf("column %s has %d values, expected %d", name, len(values), height)
		}
		col, err := buildJSONColumn(name, values)
		if err != nil {
			return nil, err
		}
		columns = append(columns, col)
	}
	return NewDataFrame(columns...)
}

// inferJSONType determines the column type from decoded JSON values.
// Strings dominate, then floats, then integers, then bools. Nulls are
// ignored for inference; an all-null column becomes Float64.
func inferJSONType(values []interface{}) DType {
	hasString := false
	hasFloat := false
	hasInt := false
	hasBool := false
	for _, v := range values {
		switch val := v.(type) {
		case nil:
			continue
		case string:
			hasString = true
		case bool:
			hasBool = true
		case float64:
			if val == float64(int64(val)) {
				hasInt = true
			} else {
				hasFloat = true
			}
		default:
			hasString = true
		}
	}
	switch {
	case hasString, hasBool && (hasFloat || hasInt):
		return String
	case hasFloat:
		return Float64
	case hasInt:
		return Int64
	case hasBool:
		return Bool
	default:
		return Float64
	}
}

func buildJSONColumn(name string, values []interface{}) (*Series, error) {
	dtype := inferJSONType(values)
	b := newSeriesBuilder(name, dtype, len(values))
	for _, v := range values {
		if v == nil {
			b.appendNull()
			continue
		}
		switch dtype {
		case Float64:
			f, ok := v.(float64)
			if !ok {
				b.appendNull()
				continue
			}
			b.appendValue(f)
		case Int64:
			f, ok := v.(float64)
			if !ok {
				b.appendNull()
				continue
			}
			b.appendValue(int64(f))
		case Bool:
			bv, ok := v.(bool)
			if !ok {
				b.appendNull()
				continue
			}
			b.appendValue(bv)
		default:
			b.appendValue(jsonValueString(v))
		}
	}
	return b.series(), nil
}

func jsonValueString(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		if val {
			return "true"
		}
		return "false"
	case float64:
		return formatValue(val)
	default:
		out, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(out)
	}
}

// JSONWriteOptions configures WriteJSON.
type JSONWriteOptions struct {
	Format JSONFormat
	Indent string
}

// DefaultJSONWriteOptions returns the default JSON write options.
func DefaultJSONWriteOptions() JSONWriteOptions {
	return JSONWriteOptions{Format: JSONRecords}
}

// WriteJSON writes a DataFrame to a JSON file.
func (df *DataFrame) WriteJSON(path string, opts ...JSONWriteOptions) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()
	return df.WriteJSONToWriter(f, opts...)
}

// WriteJSONToWriter writes a DataFrame as JSON to an io.Writer.
// Invalid slots are written as JSON null in both formats.
func (df *DataFrame) WriteJSONToWriter(w io.Writer, opts ...JSONWriteOptions) error {
	opt := DefaultJSONWriteOptions()
	if len(opts) > 0 {
		opt = opts[0]
	}
	var payload interface{}
	switch opt.Format {
	case JSONRecords:
		records := make([]map[string]interface{}, df.Height())
		ParallelFor(df.Height(), func(start, end int) {
			for i := start; i < end; i++ {
				rec := make(map[string]interface{}, df.Width())
				for _, col := range df.columns {
					rec[col.Name()] = col.Get(i)
				}
				records[i] = rec
			}
		})
		payload = records
	case JSONColumns:
		cols := make(map[string]interface{}, df.Width())
		for _, col := range df.columns {
			values := make([]interface{}, col.Len())
			for i := 0; i < col.Len(); i++ {
				values[i] = col.Get(i)
			}
			cols[col.Name()] = values
		}
		payload = cols
	default:
		return fmt.Errorf("unsupported JSON format %d", opt.Format)
	}

	enc := json.NewEncoder(w)
	if opt.Indent != "" {
		enc.SetIndent("", opt.Indent)
	}
	if err := enc.Encode(payload); err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}
	return nil
}
