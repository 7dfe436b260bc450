package lagoon

import (
	"fmt"
	"sort"
	"strings"
)

// Reshape transforms: Pivot widens a long table into one column per key
// value, Melt lengthens a wide table into (variable, value) pairs. The two
// are inverses up to column order and dtype widening.

// DuplicatePolicy controls what a pivot does when more than one input row
// maps to the same output cell.
type DuplicatePolicy int

const (
	// DuplicateFail aborts the pivot with a DuplicateKeyError.
	DuplicateFail DuplicatePolicy = iota
	// DuplicateLast keeps the value from the last input row.
	DuplicateLast
)

// PivotOptions configures DataFrame.Pivot.
type PivotOptions struct {
	// Index names the columns identifying an output row. Required.
	Index []string
	// Column names the column whose distinct values become output columns.
	Column string
	// Values names the column supplying cell values.
	Values string
	// Fill is placed in cells with no matching input row. nil leaves the
	// cell missing.
	Fill interface{}
	// OnDuplicate selects the duplicate-cell policy. Default DuplicateFail.
	OnDuplicate DuplicatePolicy
}

// MeltOptions configures DataFrame.Melt.
type MeltOptions struct {
	// IDVars names the columns repeated onto every output row.
	IDVars []string
	// ValueVars names the columns to unpivot. Empty means every column not
	// in IDVars, in input column order.
	ValueVars []string
	// VarName is the name of the output column holding the source column
	// name. Default "variable".
	VarName string
	// ValueName is the name of the output column holding the values.
	// Default "value".
	ValueName string
}

// pivotNullColumn is the output column name used for a missing key value.
const pivotNullColumn = "NA"

// Pivot spreads a long table wide: one output row per distinct Index tuple,
// one output column per distinct value of the Column column, cells taken from
// the Values column. Output rows follow the first appearance of each Index
// tuple; the spread columns are sorted ascending, with the missing-key column
// (if any) last.
func (df *DataFrame) Pivot(opts PivotOptions) (*DataFrame, error) {
	if len(opts.Index) == 0 {
		return nil, errNoGroupKeys()
	}
	indexed := make(map[string]bool, len(opts.Index))
	for _, name := range opts.Index {
		if !df.HasColumn(name) {
			return nil, errUnknownColumn(name)
		}
		if indexed[name] {
			return nil, fmt.Errorf("pivot index column '%s' listed twice", name)
		}
		indexed[name] = true
	}
	if indexed[opts.Column] {
		return nil, fmt.Errorf("pivot column '%s' cannot also be an index column", opts.Column)
	}
	if indexed[opts.Values] {
		return nil, fmt.Errorf("pivot values column '%s' cannot also be an index column", opts.Values)
	}
	if opts.Column == opts.Values {
		return nil, fmt.Errorf("pivot column and values must differ, both are '%s'", opts.Column)
	}
	keyCol, err := df.ColumnByName(opts.Column)
	if err != nil {
		return nil, err
	}
	valCol, err := df.ColumnByName(opts.Values)
	if err != nil {
		return nil, err
	}

	// Entities in first-appearance order.
	entityIndex := make(map[string]int, 64)
	var entityFirstRows []int
	entityOf := make([]int, df.Height())
	for row := 0; row < df.Height(); row++ {
		key := df.encodeRowKey(opts.Index, row)
		ei, seen := entityIndex[key]
		if !seen {
			ei = len(entityFirstRows)
			entityIndex[key] = ei
			entityFirstRows = append(entityFirstRows, row)
		}
		entityOf[row] = ei
	}

	// Distinct key values, ascending, missing last.
	spread, err := collectSpreadColumns(keyCol)
	if err != nil {
		return nil, err
	}
	columnOf := make(map[string]int, len(spread.labels))
	for i, label := range spread.labels {
		columnOf[label] = i
	}

	outDType := pivotOutputDType(valCol.DType(), opts.Fill)
	cells := make([][]interface{}, len(spread.labels))
	filled := make([][]bool, len(spread.labels))
	for i := range cells {
		cells[i] = make([]interface{}, len(entityFirstRows))
		filled[i] = make([]bool, len(entityFirstRows))
	}

	for row := 0; row < df.Height(); row++ {
		label := spreadLabel(keyCol, row)
		ci := columnOf[label]
		ei := entityOf[row]
		if filled[ci][ei] && opts.OnDuplicate == DuplicateFail {
			return nil, &DuplicateKeyError{
				Entity: describeEntity(df, opts.Index, row),
				Key:    label,
			}
		}
		if valCol.IsValid(row) {
			cells[ci][ei] = valCol.Get(row)
		} else {
			cells[ci][ei] = nil
		}
		filled[ci][ei] = true
	}

	columns := make([]*Series, 0, len(opts.Index)+len(spread.labels))
	entityFrame := df.Take(entityFirstRows)
	for _, name := range opts.Index {
		s, err := entityFrame.ColumnByName(name)
		if err != nil {
			return nil, err
		}
		columns = append(columns, s)
	}
	for ci, label := range spread.labels {
		b := newSeriesBuilder(label, outDType, len(entityFirstRows))
		for ei := range entityFirstRows {
			switch {
			case filled[ci][ei]:
				b.appendValue(cells[ci][ei])
			case opts.Fill != nil:
				b.appendValue(opts.Fill)
			default:
				b.appendNull()
			}
		}
		columns = append(columns, b.series())
	}
	return NewDataFrame(columns...)
}

// spreadColumns holds the ordered output column labels of a pivot.
type spreadColumns struct {
	labels []string
}

// collectSpreadColumns gathers the distinct key values and orders them
// ascending. Numeric keys sort numerically, everything else sorts
// lexicographically. A missing key becomes the trailing "NA" column; a key
// column holding both missing values and a literal "NA" is an error, never a
// silent merge.
func collectSpreadColumns(keyCol *Series) (spreadColumns, error) {
	type entry struct {
		label string
		num   float64
	}
	seen := make(map[string]bool, 16)
	var entries []entry
	hasNull := false
	numeric := keyCol.DType().IsNumeric()
	for row := 0; row < keyCol.Len(); row++ {
		if !keyCol.IsValid(row) {
			hasNull = true
			continue
		}
		label := spreadLabel(keyCol, row)
		if seen[label] {
			continue
		}
		seen[label] = true
		e := entry{label: label}
		if numeric {
			e.num, _ = keyCol.GetFloat64(row)
		}
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if numeric {
			return entries[i].num < entries[j].num
		}
		return entries[i].label < entries[j].label
	})
	out := spreadColumns{labels: make([]string, 0, len(entries)+1)}
	for _, e := range entries {
		out.labels = append(out.labels, e.label)
	}
	if hasNull {
		if seen[pivotNullColumn] {
			return spreadColumns{}, fmt.Errorf(
				"pivot column '%s' mixes missing keys with the literal '%s' value",
				keyCol.Name(), pivotNullColumn)
		}
		out.labels = append(out.labels, pivotNullColumn)
	}
	return out, nil
}

// spreadLabel renders the key value at row as an output column name.
func spreadLabel(keyCol *Series, row int) string {
	if !keyCol.IsValid(row) {
		return pivotNullColumn
	}
	return formatValue(keyCol.Get(row))
}

// pivotOutputDType picks the cell dtype: integer columns stay Int64 as long
// as the fill value (if any) is integral, floats stay Float64, strings stay
// String, bools widen to String alongside any exotic fill.
func pivotOutputDType(valueDType DType, fill interface{}) DType {
	switch valueDType {
	case Int64, Int32:
		if fill == nil {
			return Int64
		}
		if _, ok := toInt64Value(fill); ok {
			return Int64
		}
		if _, ok := toFloat64Value(fill); ok {
			return Float64
		}
		return String
	case Float64, Float32:
		if fill == nil {
			return Float64
		}
		if _, ok := toFloat64Value(fill); ok {
			return Float64
		}
		return String
	case Bool:
		if fill == nil {
			return Bool
		}
		if _, ok := fill.(bool); ok {
			return Bool
		}
		return String
	default:
		return String
	}
}

// describeEntity renders the index tuple of one row for error messages.
func describeEntity(df *DataFrame, index []string, row int) string {
	parts := make([]string, 0, len(index))
	for _, name := range index {
		s, err := df.ColumnByName(name)
		if err != nil || !s.IsValid(row) {
			parts = append(parts, name+"=null")
			continue
		}
		parts = append(parts, name+"="+formatValue(s.Get(row)))
	}
	return strings.Join(parts, ", ")
}

// Melt gathers a wide table long. Every output row carries the IDVars of its
// source row, the name of one value column and that column's value. Output is
// row-major: all value columns of input row 0 first, then row 1, and so on,
// with value columns in ValueVars order. The output height is always
// Height() * len(value columns).
func (df *DataFrame) Melt(opts MeltOptions) (*DataFrame, error) {
	varName := opts.VarName
	if varName == "" {
		varName = "variable"
	}
	valueName := opts.ValueName
	if valueName == "" {
		valueName = "value"
	}

	for _, name := range opts.IDVars {
		if !df.HasColumn(name) {
			return nil, errUnknownColumn(name)
		}
	}
	valueVars := opts.ValueVars
	if len(valueVars) == 0 {
		isID := make(map[string]bool, len(opts.IDVars))
		for _, name := range opts.IDVars {
			isID[name] = true
		}
		for _, name := range df.ColumnNames() {
			if !isID[name] {
				valueVars = append(valueVars, name)
			}
		}
	}
	valueCols := make([]*Series, len(valueVars))
	dtypes := make([]DType, len(valueVars))
	for i, name := range valueVars {
		s, err := df.ColumnByName(name)
		if err != nil {
			return nil, err
		}
		valueCols[i] = s
		dtypes[i] = s.DType()
	}
	if varName == valueName {
		return nil, errDuplicateOutput(valueName)
	}
	for _, name := range opts.IDVars {
		if name == varName || name == valueName {
			return nil, errDuplicateOutput(name)
		}
	}

	height := df.Height()
	outHeight := height * len(valueVars)

	// Row-major repetition of the ID columns.
	idIndices := make([]int, 0, outHeight)
	for row := 0; row < height; row++ {
		for range valueVars {
			idIndices = append(idIndices, row)
		}
	}
	columns := make([]*Series, 0, len(opts.IDVars)+2)
	for _, name := range opts.IDVars {
		s, _ := df.ColumnByName(name)
		columns = append(columns, s.Take(idIndices))
	}

	variables := make([]string, 0, outHeight)
	valueDType := commonDType(dtypes)
	vb := newSeriesBuilder(valueName, valueDType, outHeight)
	for row := 0; row < height; row++ {
		for vi, s := range valueCols {
			variables = append(variables, valueVars[vi])
			if !s.IsValid(row) {
				vb.appendNull()
				continue
			}
			vb.appendValue(s.Get(row))
		}
	}
	columns = append(columns, NewSeriesString(varName, variables))
	columns = append(columns, vb.series())
	return NewDataFrame(columns...)
}
