package lagoon

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
)

// CSVReadOptions configures CSV reading behavior
type CSVReadOptions struct {
	Delimiter   rune             // Field delimiter (default ',')
	HasHeader   bool             // First row is header (default true)
	ColumnNames []string         // Override column names
	ColumnTypes map[string]DType // Force column types
	Columns     []string         // Keep only these columns (empty = all)
	InferTypes  bool             // Auto-detect types (default true)
	NullValues  []string         // Strings to treat as null
	SkipRows    int              // Skip first N rows
	MaxRows     int              // Max rows to read (0 = unlimited)
	TrimSpace   bool             // Trim whitespace from values
	Comment     rune             // Comment character (skip lines starting with this)
}

// DefaultCSVReadOptions returns default CSV reading options
func DefaultCSVReadOptions() CSVReadOptions {
	return CSVReadOptions{
		Delimiter:  ',',
		HasHeader:  true,
		InferTypes: true,
		NullValues: []string{"", "null", "NULL", "NA", "N/A", "nan", "NaN"},
		TrimSpace:  true,
	}
}

// ReadCSV reads a CSV file into a DataFrame
func ReadCSV(path string, opts ...CSVReadOptions) (*DataFrame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	return ReadCSVFromReader(f, opts...)
}

// ReadCSVFromReader reads CSV data from an io.Reader into a DataFrame
func ReadCSVFromReader(r io.Reader, opts ...CSVReadOptions) (*DataFrame, error) {
	opt := DefaultCSVReadOptions()
	if len(opts) > 0 {
		opt = opts[0]
	}

	reader := csv.NewReader(r)
	reader.Comma = opt.Delimiter
	if opt.Comment != 0 {
		reader.Comment = opt.Comment
	}
	reader.TrimLeadingSpace = opt.TrimSpace

	// Skip rows
	for i := 0; i < opt.SkipRows; i++ {
		if _, err := reader.Read(); err != nil {
			return nil, fmt.Errorf("failed to skip row %d: %w", i, err)
		}
	}

	// Read header
	var headers []string
	if opt.HasHeader {
		var err error
		headers, err = reader.Read()
		if err != nil {
			return nil, fmt.Errorf("failed to read header: %w", err)
		}
	} else if len(opt.ColumnNames) > 0 {
		headers = opt.ColumnNames
	}

	// Read all data
	var records [][]string
	rowCount := 0
	for {
		if opt.MaxRows > 0 && rowCount >= opt.MaxRows {
			break
		}

		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", rowCount, err)
		}

		// Generate headers if needed
		if headers == nil {
			headers = make([]string, len(record))
			for i := range record {
				headers[i] = fmt.Sprintf("column_%d", i)
			}
		}

		records = append(records, record)
		rowCount++
	}

	if len(headers) == 0 {
		return NewDataFrame()
	}

	// Restrict to requested columns before any parsing work
	keepIdx := make([]int, 0, len(headers))
	if len(opt.Columns) > 0 {
		wanted := make(map[string]bool, len(opt.Columns))
		for _, name := range opt.Columns {
			wanted[name] = true
		}
		for i, h := range headers {
			if wanted[h] {
				keepIdx = append(keepIdx, i)
			}
		}
	} else {
		for i := range headers {
			keepIdx = append(keepIdx, i)
		}
	}

	// Infer or use specified types (in parallel for large datasets)
	colTypes := make([]DType, len(headers))
	cfg := activeParallelConfig

	if opt.InferTypes {
		if cfg.shouldParallelize(len(records)) && len(keepIdx) > 1 {
			var wg sync.WaitGroup
			for _, i := range keepIdx {
				wg.Add(1)
				go func(colIdx int) {
					defer wg.Done()
					colTypes[colIdx] = inferColumnType(records, colIdx, opt.NullValues)
				}(i)
			}
			wg.Wait()
		} else {
			for _, i := range keepIdx {
				colTypes[i] = inferColumnType(records, i, opt.NullValues)
			}
		}
	} else {
		for _, i := range keepIdx {
			colTypes[i] = String
		}
	}

	// Override with specified types
	for name, dtype := range opt.ColumnTypes {
		for i, h := range headers {
			if h == name {
				colTypes[i] = dtype
				break
			}
		}
	}

	// Build columns (in parallel for large datasets)
	columns := make([]*Series, len(keepIdx))
	errors := make([]error, len(keepIdx))

	if cfg.shouldParallelize(len(records)) && len(keepIdx) > 1 {
		var wg sync.WaitGroup
		for pos, i := range keepIdx {
			wg.Add(1)
			go func(outIdx, colIdx int) {
				defer wg.Done()
				columns[outIdx], errors[outIdx] = buildColumn(
					headers[colIdx], colTypes[colIdx], records, colIdx, opt.NullValues)
			}(pos, i)
		}
		wg.Wait()
	} else {
		for pos, i := range keepIdx {
			columns[pos], errors[pos] = buildColumn(
				headers[i], colTypes[i], records, i, opt.NullValues)
		}
	}

	for pos, err := range errors {
		if err != nil {
			return nil, fmt.Errorf("failed to build column '%s': %w", headers[keepIdx[pos]], err)
		}
	}

	return NewDataFrame(columns...)
}

func inferColumnType(records [][]string, colIdx int, nullValues []string) DType {
	hasInt := false
	hasFloat := false
	hasBool := false
	hasString := false

	for _, record := range records {
		if colIdx >= len(record) {
			continue
		}
		val := strings.TrimSpace(record[colIdx])

		if isNullString(val, nullValues) {
			continue
		}

		// Try bool
		lower := strings.ToLower(val)
		if lower == "true" || lower == "false" {
			hasBool = true
			continue
		}

		// Try int
		if _, err := strconv.ParseInt(val, 10, 64); err == nil {
			hasInt = true
			continue
		}

		// Try float
		if _, err := strconv.ParseFloat(val, 64); err == nil {
			hasFloat = true
			continue
		}

		hasString = true
	}

	// Priority: string > float > int > bool
	if hasString {
		return String
	}
	if hasFloat {
		return Float64
	}
	if hasInt {
		return Int64
	}
	if hasBool {
		return Bool
	}

	// All-null columns default to string
	return String
}

func buildColumn(name string, dtype DType, records [][]string, colIdx int, nullValues []string) (*Series, error) {
	b := newSeriesBuilder(name, dtype, len(records))

	for i, record := range records {
		if colIdx >= len(record) {
			b.appendNull()
			continue
		}
		val := strings.TrimSpace(record[colIdx])
		if isNullString(val, nullValues) {
			b.appendNull()
			continue
		}

		switch dtype {
		case Float64:
			f, err := strconv.ParseFloat(val, 64)
			if err != nil {
				return nil, fmt.Errorf("row %d: cannot parse '%s' as float64", i, val)
			}
			b.appendFloat64(f)

		case Int64:
			v, err := strconv.ParseInt(val, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("row %d: cannot parse '%s' as int64", i, val)
			}
			b.appendInt64(v)

		case Bool:
			lower := strings.ToLower(val)
			b.appendBool(lower == "true" || lower == "1" || lower == "yes")

		case String:
			b.appendString(val)

		default:
			return nil, fmt.Errorf("unsupported dtype: %s", dtype)
		}
	}
	return b.series(), nil
}

func isNullString(val string, nullValues []string) bool {
	for _, nv := range nullValues {
		if val == nv {
			return true
		}
	}
	return false
}

// CSVWriteOptions configures CSV writing behavior
type CSVWriteOptions struct {
	Delimiter   rune   // Field delimiter (default ',')
	WriteHeader bool   // Write header row (default true)
	NullString  string // String to write for null values (default "")
	RowNames    bool   // Prefix every row with its 1-based row number
}

// DefaultCSVWriteOptions returns default CSV writing options
func DefaultCSVWriteOptions() CSVWriteOptions {
	return CSVWriteOptions{
		Delimiter:   ',',
		WriteHeader: true,
		NullString:  "",
	}
}

// WriteCSV writes a DataFrame to a CSV file
func (df *DataFrame) WriteCSV(path string, opts ...CSVWriteOptions) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	defer w.Flush()

	return df.WriteCSVToWriter(w, opts...)
}

// WriteCSVToWriter writes a DataFrame to an io.Writer
func (df *DataFrame) WriteCSVToWriter(w io.Writer, opts ...CSVWriteOptions) error {
	opt := DefaultCSVWriteOptions()
	if len(opts) > 0 {
		opt = opts[0]
	}

	writer := csv.NewWriter(w)
	writer.Comma = opt.Delimiter

	offset := 0
	if opt.RowNames {
		offset = 1
	}
	width := df.Width() + offset
	height := df.Height()

	// Write header
	if opt.WriteHeader {
		header := make([]string, 0, width)
		if opt.RowNames {
			header = append(header, "")
		}
		header = append(header, df.ColumnNames()...)
		if err := writer.Write(header); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}

	formatRow := func(i int, row []string) {
		if opt.RowNames {
			row[0] = strconv.Itoa(i + 1)
		}
		for j, col := range df.columns {
			val := col.Get(i)
			if val == nil {
				row[j+offset] = opt.NullString
			} else {
				row[j+offset] = formatValue(val)
			}
		}
	}

	cfg := activeParallelConfig

	// For large datasets, format rows in parallel then write sequentially
	if cfg.shouldParallelize(height) {
		allRows := make([][]string, height)

		var wg sync.WaitGroup
		numWorkers := cfg.numWorkers()
		chunkSize := (height + numWorkers - 1) / numWorkers

		for workerID := 0; workerID < numWorkers; workerID++ {
			start := workerID * chunkSize
			end := start + chunkSize
			if end > height {
				end = height
			}
			if start >= height {
				break
			}

			wg.Add(1)
			go func(startRow, endRow int) {
				defer wg.Done()
				for i := startRow; i < endRow; i++ {
					row := make([]string, width)
					formatRow(i, row)
					allRows[i] = row
				}
			}(start, end)
		}
		wg.Wait()

		// Write all rows sequentially (I/O must be sequential)
		for i := 0; i < height; i++ {
			if err := writer.Write(allRows[i]); err != nil {
				return fmt.Errorf("failed to write row %d: %w", i, err)
			}
		}
	} else {
		row := make([]string, width)
		for i := 0; i < height; i++ {
			formatRow(i, row)
			if err := writer.Write(row); err != nil {
				return fmt.Errorf("failed to write row %d: %w", i, err)
			}
		}
	}

	writer.Flush()
	return writer.Error()
}
