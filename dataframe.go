package lagoon

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// DataFrame is an immutable, ordered collection of equal-length Series.
// Column names are unique. Every transformation returns a new DataFrame.
type DataFrame struct {
	columns []*Series
	byName  map[string]int
}

// NewDataFrame creates a DataFrame from the given series. All series must
// have the same length and distinct names.
func NewDataFrame(series ...*Series) (*DataFrame, error) {
	df := &DataFrame{
		columns: make([]*Series, 0, len(series)),
		byName:  make(map[string]int, len(series)),
	}
	var length int
	for i, s := range series {
		if s == nil {
			return nil, fmt.Errorf("series %d is nil", i)
		}
		if i == 0 {
			length = s.Len()
		} else if s.Len() != length {
			return nil, fmt.Errorf("series '%s' has length %d, expected %d",
				s.Name(), s.Len(), length)
		}
		if _, exists := df.byName[s.Name()]; exists {
			return nil, fmt.Errorf("duplicate column name '%s'", s.Name())
		}
		df.byName[s.Name()] = len(df.columns)
		df.columns = append(df.columns, s)
	}
	return df, nil
}

// mustNewDataFrame is for internal construction where invariants are already
// guaranteed by the caller.
func mustNewDataFrame(series ...*Series) *DataFrame {
	df, err := NewDataFrame(series...)
	if err != nil {
		panic(err)
	}
	return df
}

// ============================================================================
// Access
// ============================================================================

// Width returns the number of columns.
func (df *DataFrame) Width() int {
	return len(df.columns)
}

// Height returns the number of rows.
func (df *DataFrame) Height() int {
	if len(df.columns) == 0 {
		return 0
	}
	return df.columns[0].Len()
}

// Shape returns (height, width).
func (df *DataFrame) Shape() (int, int) {
	return df.Height(), df.Width()
}

// ColumnNames returns the column names in column order.
func (df *DataFrame) ColumnNames() []string {
	names := make([]string, len(df.columns))
	for i, s := range df.columns {
		names[i] = s.Name()
	}
	return names
}

// Column returns the series at the given position, or nil if out of bounds.
func (df *DataFrame) Column(index int) *Series {
	if index < 0 || index >= len(df.columns) {
		return nil
	}
	return df.columns[index]
}

// ColumnByName returns the series with the given name.
func (df *DataFrame) ColumnByName(name string) (*Series, error) {
	idx, ok := df.byName[name]
	if !ok {
		return nil, errUnknownColumn(name)
	}
	return df.columns[idx], nil
}

// HasColumn reports whether a column with the given name exists.
func (df *DataFrame) HasColumn(name string) bool {
	_, ok := df.byName[name]
	return ok
}

// Schema returns the schema describing this DataFrame's columns.
func (df *DataFrame) Schema() *Schema {
	names := make([]string, len(df.columns))
	dtypes := make([]DType, len(df.columns))
	for i, s := range df.columns {
		names[i] = s.Name()
		dtypes[i] = s.DType()
	}
	// Construction cannot fail: column names are unique by DataFrame invariant.
	schema, _ := NewSchema(names, dtypes)
	return schema
}

// ============================================================================
// Column operations
// ============================================================================

// Select returns a new DataFrame with only the named columns, in the given
// order.
func (df *DataFrame) Select(names ...string) (*DataFrame, error) {
	selected := make([]*Series, 0, len(names))
	for _, name := range names {
		s, err := df.ColumnByName(name)
		if err != nil {
			return nil, err
		}
		selected = append(selected, s)
	}
	return NewDataFrame(selected...)
}

// Drop returns a new DataFrame without the named columns. Names that do not
// exist are ignored.
func (df *DataFrame) Drop(names ...string) (*DataFrame, error) {
	drop := make(map[string]bool, len(names))
	for _, name := range names {
		drop[name] = true
	}
	kept := make([]*Series, 0, len(df.columns))
	for _, s := range df.columns {
		if !drop[s.Name()] {
			kept = append(kept, s)
		}
	}
	return NewDataFrame(kept...)
}

// WithColumn returns a new DataFrame with the given series appended, or
// replacing an existing column of the same name in place.
func (df *DataFrame) WithColumn(s *Series) (*DataFrame, error) {
	if df.Width() > 0 && s.Len() != df.Height() {
		return nil, fmt.Errorf("series '%s' has length %d, expected %d",
			s.Name(), s.Len(), df.Height())
	}
	columns := make([]*Series, len(df.columns))
	copy(columns, df.columns)
	if idx, ok := df.byName[s.Name()]; ok {
		columns[idx] = s
	} else {
		columns = append(columns, s)
	}
	return NewDataFrame(columns...)
}

// RenameColumn returns a new DataFrame with one column renamed.
func (df *DataFrame) RenameColumn(oldName, newName string) (*DataFrame, error) {
	idx, ok := df.byName[oldName]
	if !ok {
		return nil, errUnknownColumn(oldName)
	}
	if _, exists := df.byName[newName]; exists && newName != oldName {
		return nil, fmt.Errorf("duplicate column name '%s'", newName)
	}
	columns := make([]*Series, len(df.columns))
	copy(columns, df.columns)
	columns[idx] = columns[idx].Rename(newName)
	return NewDataFrame(columns...)
}

// ============================================================================
// Row operations
// ============================================================================

// Take returns a new DataFrame with the rows at the given indices, in index
// order. Indices may repeat.
func (df *DataFrame) Take(indices []int) *DataFrame {
	columns := make([]*Series, len(df.columns))
	for i, s := range df.columns {
		columns[i] = s.Take(indices)
	}
	return mustNewDataFrame(columns...)
}

// Filter returns a new DataFrame with only the rows where mask is true.
func (df *DataFrame) Filter(mask []bool) *DataFrame {
	buf := getIndexSlice(len(mask))
	defer buf.Release()
	indices := buf.Data[:0]
	h := df.Height()
	for i, keep := range mask {
		if i >= h {
			break
		}
		if keep {
			indices = append(indices, i)
		}
	}
	return df.Take(indices)
}

// Slice returns a new DataFrame containing rows [start, end).
func (df *DataFrame) Slice(start, end int) *DataFrame {
	if start < 0 {
		start = 0
	}
	if end > df.Height() {
		end = df.Height()
	}
	if start >= end {
		return df.Take(nil)
	}
	indices := make([]int, end-start)
	for i := range indices {
		indices[i] = start + i
	}
	return df.Take(indices)
}

// Head returns a new DataFrame with the first n rows.
func (df *DataFrame) Head(n int) *DataFrame {
	if n < 0 {
		n = 0
	}
	return df.Slice(0, n)
}

// Tail returns a new DataFrame with the last n rows.
func (df *DataFrame) Tail(n int) *DataFrame {
	if n < 0 {
		n = 0
	}
	if n > df.Height() {
		n = df.Height()
	}
	return df.Slice(df.Height()-n, df.Height())
}

// SortBy returns a new DataFrame sorted by the given columns. ascending
// applies per column; missing entries default to true. Nulls sort last
// regardless of direction. The sort is stable.
func (df *DataFrame) SortBy(columns []string, ascending []bool) (*DataFrame, error) {
	keys := make([]*Series, len(columns))
	for i, name := range columns {
		s, err := df.ColumnByName(name)
		if err != nil {
			return nil, err
		}
		keys[i] = s
	}
	indices := make([]int, df.Height())
	for i := range indices {
		indices[i] = i
	}
	sort.SliceStable(indices, func(a, b int) bool {
		ia, ib := indices[a], indices[b]
		for k, s := range keys {
			asc := k >= len(ascending) || ascending[k]
			cmp := compareSeriesValues(s, ia, ib)
			if cmp == 0 {
				continue
			}
			if asc {
				return cmp < 0
			}
			return cmp > 0
		}
		return false
	})
	return df.Take(indices), nil
}

// compareSeriesValues compares two slots of one series. Nulls compare
// greater than any value so they land at the end of an ascending sort.
func compareSeriesValues(s *Series, i, j int) int {
	vi, vj := s.IsValid(i), s.IsValid(j)
	switch {
	case !vi && !vj:
		return 0
	case !vi:
		return 1
	case !vj:
		return -1
	}
	switch s.DType() {
	case String:
		a, _ := s.GetString(i)
		b, _ := s.GetString(j)
		return strings.Compare(a, b)
	case Bool:
		a, _ := s.GetBool(i)
		b, _ := s.GetBool(j)
		switch {
		case a == b:
			return 0
		case !a:
			return -1
		default:
			return 1
		}
	default:
		a, _ := s.GetFloat64(i)
		b, _ := s.GetFloat64(j)
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		default:
			return 0
		}
	}
}

// Distinct returns a new DataFrame keeping the first occurrence of every
// distinct row.
func (df *DataFrame) Distinct() *DataFrame {
	seen := make(map[string]bool, df.Height())
	indices := make([]int, 0, df.Height())
	for row := 0; row < df.Height(); row++ {
		key := df.encodeRowKey(df.ColumnNames(), row)
		if !seen[key] {
			seen[key] = true
			indices = append(indices, row)
		}
	}
	return df.Take(indices)
}

// encodeRowKey builds a composite key over the named columns for one row.
// Every component carries a validity marker and a length prefix, so a null
// never collides with a zero value or an empty string, and values containing
// separator bytes cannot shift content between components.
func (df *DataFrame) encodeRowKey(columns []string, row int) string {
	var sb strings.Builder
	for _, name := range columns {
		idx := df.byName[name]
		s := df.columns[idx]
		if !s.IsValid(row) {
			sb.WriteString("n:")
			continue
		}
		v := formatValue(s.Get(row))
		sb.WriteByte('v')
		sb.WriteString(strconv.Itoa(len(v)))
		sb.WriteByte(':')
		sb.WriteString(v)
	}
	return sb.String()
}
