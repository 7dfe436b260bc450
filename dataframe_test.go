package lagoon

import (
	"reflect"
	"testing"
)

func sampleFrame(t *testing.T) *DataFrame {
	t.Helper()
	df, err := NewDataFrame(
		NewSeriesString("region", []string{"west", "east", "west", "north"}),
		NewSeriesInt64("units", []int64{10, 8, 12, 4}),
		NewSeriesFloat64WithNulls("revenue",
			[]float64{100, 80, 0, 40},
			[]bool{true, true, false, true}),
	)
	if err != nil {
		t.Fatalf("NewDataFrame failed: %v", err)
	}
	return df
}

// ============================================================================
// Construction Tests
// ============================================================================

func TestNewDataFrame(t *testing.T) {
	df := sampleFrame(t)
	if df.Width() != 3 {
		t.Errorf("Width() = %d, want 3", df.Width())
	}
	if df.Height() != 4 {
		t.Errorf("Height() = %d, want 4", df.Height())
	}
	rows, cols := df.Shape()
	if rows != 4 || cols != 3 {
		t.Errorf("Shape() = %d, %d, want 4, 3", rows, cols)
	}
	want := []string{"region", "units", "revenue"}
	if !reflect.DeepEqual(df.ColumnNames(), want) {
		t.Errorf("ColumnNames() = %v, want %v", df.ColumnNames(), want)
	}
}

func TestNewDataFrameEmpty(t *testing.T) {
	df, err := NewDataFrame()
	if err != nil {
		t.Fatalf("NewDataFrame() failed: %v", err)
	}
	if df.Width() != 0 || df.Height() != 0 {
		t.Errorf("empty frame shape = %d x %d, want 0 x 0", df.Height(), df.Width())
	}
}

func TestNewDataFrameLengthMismatch(t *testing.T) {
	_, err := NewDataFrame(
		NewSeriesInt64("a", []int64{1, 2}),
		NewSeriesInt64("b", []int64{1}),
	)
	if err == nil {
		t.Fatal("expected error for mismatched column lengths")
	}
}

func TestNewDataFrameDuplicateNames(t *testing.T) {
	_, err := NewDataFrame(
		NewSeriesInt64("a", []int64{1}),
		NewSeriesInt64("a", []int64{2}),
	)
	if err == nil {
		t.Fatal("expected error for duplicate column names")
	}
}

// ============================================================================
// Column Access Tests
// ============================================================================

func TestColumnByName(t *testing.T) {
	df := sampleFrame(t)
	s, err := df.ColumnByName("units")
	if err != nil {
		t.Fatalf("ColumnByName failed: %v", err)
	}
	if s.Name() != "units" {
		t.Errorf("Name() = %q, want %q", s.Name(), "units")
	}

	_, err = df.ColumnByName("missing")
	if err == nil {
		t.Fatal("expected error for unknown column")
	}
	if _, ok := err.(*UnknownColumnError); !ok {
		t.Errorf("error type = %T, want *UnknownColumnError", err)
	}
}

func TestSelectAndDrop(t *testing.T) {
	df := sampleFrame(t)

	sel, err := df.Select("revenue", "region")
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	want := []string{"revenue", "region"}
	if !reflect.DeepEqual(sel.ColumnNames(), want) {
		t.Errorf("Select order = %v, want %v", sel.ColumnNames(), want)
	}

	dropped, err := df.Drop("units")
	if err != nil {
		t.Fatalf("Drop failed: %v", err)
	}
	if dropped.HasColumn("units") {
		t.Error("Drop left the column in place")
	}
	if dropped.Width() != 2 {
		t.Errorf("Width() = %d, want 2", dropped.Width())
	}
}

func TestWithColumnReplaces(t *testing.T) {
	df := sampleFrame(t)
	out, err := df.WithColumn(NewSeriesInt64("units", []int64{1, 1, 1, 1}))
	if err != nil {
		t.Fatalf("WithColumn failed: %v", err)
	}
	// Replacement keeps the column position.
	want := []string{"region", "units", "revenue"}
	if !reflect.DeepEqual(out.ColumnNames(), want) {
		t.Errorf("ColumnNames() = %v, want %v", out.ColumnNames(), want)
	}
	s, _ := out.ColumnByName("units")
	if v, _ := s.GetInt64(0); v != 1 {
		t.Errorf("replaced units[0] = %d, want 1", v)
	}
}

// ============================================================================
// Row Transform Tests
// ============================================================================

func TestDataFrameFilter(t *testing.T) {
	df := sampleFrame(t)
	out := df.Filter([]bool{true, false, true, false})
	if out.Height() != 2 {
		t.Fatalf("Height() = %d, want 2", out.Height())
	}
	region, _ := out.ColumnByName("region")
	if v, _ := region.GetString(1); v != "west" {
		t.Errorf("region[1] = %q, want %q", v, "west")
	}
	// Null slots survive filtering.
	revenue, _ := out.ColumnByName("revenue")
	if revenue.IsValid(1) {
		t.Error("revenue[1] should stay null")
	}
}

func TestDataFrameTake(t *testing.T) {
	df := sampleFrame(t)
	out := df.Take([]int{3, 0})
	if out.Height() != 2 {
		t.Fatalf("Height() = %d, want 2", out.Height())
	}
	region, _ := out.ColumnByName("region")
	if v, _ := region.GetString(0); v != "north" {
		t.Errorf("region[0] = %q, want %q", v, "north")
	}
}

func TestHeadTail(t *testing.T) {
	df := sampleFrame(t)
	if df.Head(2).Height() != 2 {
		t.Errorf("Head(2).Height() = %d, want 2", df.Head(2).Height())
	}
	if df.Tail(10).Height() != 4 {
		t.Errorf("Tail(10).Height() = %d, want 4", df.Tail(10).Height())
	}
	tail := df.Tail(1)
	region, _ := tail.ColumnByName("region")
	if v, _ := region.GetString(0); v != "north" {
		t.Errorf("Tail(1) region = %q, want %q", v, "north")
	}
}

// ============================================================================
// Sort Tests
// ============================================================================

func TestSortBy(t *testing.T) {
	df := sampleFrame(t)
	out, err := df.SortBy([]string{"units"}, []bool{true})
	if err != nil {
		t.Fatalf("SortBy failed: %v", err)
	}
	units, _ := out.ColumnByName("units")
	got := units.Int64()
	want := []int64{4, 8, 10, 12}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("sorted units = %v, want %v", got, want)
	}
}

func TestSortByNullsLast(t *testing.T) {
	df, _ := NewDataFrame(
		NewSeriesFloat64WithNulls("x",
			[]float64{3, 0, 1},
			[]bool{true, false, true}),
	)
	out, err := df.SortBy([]string{"x"}, []bool{true})
	if err != nil {
		t.Fatalf("SortBy failed: %v", err)
	}
	x, _ := out.ColumnByName("x")
	if v, _ := x.GetFloat64(0); v != 1 {
		t.Errorf("x[0] = %v, want 1", v)
	}
	if x.IsValid(2) {
		t.Error("null row should sort last")
	}
}

func TestSortByDescending(t *testing.T) {
	df := sampleFrame(t)
	out, err := df.SortBy([]string{"units"}, []bool{false})
	if err != nil {
		t.Fatalf("SortBy failed: %v", err)
	}
	units, _ := out.ColumnByName("units")
	if v, _ := units.GetInt64(0); v != 12 {
		t.Errorf("units[0] = %d, want 12", v)
	}
}

func TestSortByStable(t *testing.T) {
	df, _ := NewDataFrame(
		NewSeriesString("k", []string{"a", "b", "a", "b"}),
		NewSeriesInt64("seq", []int64{0, 1, 2, 3}),
	)
	out, err := df.SortBy([]string{"k"}, []bool{true})
	if err != nil {
		t.Fatalf("SortBy failed: %v", err)
	}
	seq, _ := out.ColumnByName("seq")
	want := []int64{0, 2, 1, 3}
	if !reflect.DeepEqual(seq.Int64(), want) {
		t.Errorf("stable order = %v, want %v", seq.Int64(), want)
	}
}

// ============================================================================
// Distinct Tests
// ============================================================================

func TestDistinct(t *testing.T) {
	df, _ := NewDataFrame(
		NewSeriesString("k", []string{"a", "b", "a", "b", "c"}),
		NewSeriesInt64("v", []int64{1, 2, 1, 3, 4}),
	)
	out := df.Distinct()
	if out.Height() != 4 {
		t.Fatalf("Height() = %d, want 4", out.Height())
	}
	// First occurrence wins the order.
	k, _ := out.ColumnByName("k")
	if v, _ := k.GetString(0); v != "a" {
		t.Errorf("k[0] = %q, want %q", v, "a")
	}
}

func TestDistinctNullsAreDistinctFromValues(t *testing.T) {
	df, _ := NewDataFrame(
		NewSeriesStringWithNulls("k",
			[]string{"", "a", "", "a"},
			[]bool{false, true, false, true}),
	)
	out := df.Distinct()
	if out.Height() != 2 {
		t.Errorf("Height() = %d, want 2 (null and \"a\")", out.Height())
	}
}

func TestDistinctSeparatorBytesInValues(t *testing.T) {
	df, _ := NewDataFrame(
		NewSeriesString("a", []string{"a\x00v|b", "a"}),
		NewSeriesString("b", []string{"c", "b\x00v|c"}),
	)
	out := df.Distinct()
	if out.Height() != 2 {
		t.Errorf("Height() = %d, want 2 (rows differ componentwise)", out.Height())
	}
}

func TestDataFrameSchema(t *testing.T) {
	df := sampleFrame(t)
	schema := df.Schema()
	if schema == nil {
		t.Fatal("Schema() returned nil")
	}
	if !reflect.DeepEqual(schema.Names(), df.ColumnNames()) {
		t.Errorf("Names() = %v, want %v", schema.Names(), df.ColumnNames())
	}
	if dt, ok := schema.GetDType("units"); !ok || dt != Int64 {
		t.Errorf("GetDType(units) = %v, %v, want Int64, true", dt, ok)
	}
}

func TestRenameColumn(t *testing.T) {
	df := sampleFrame(t)
	out, err := df.RenameColumn("units", "qty")
	if err != nil {
		t.Fatalf("RenameColumn failed: %v", err)
	}
	if !out.HasColumn("qty") || out.HasColumn("units") {
		t.Errorf("rename produced columns %v", out.ColumnNames())
	}
}
