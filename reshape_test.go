package lagoon

import (
	"reflect"
	"strings"
	"testing"
)

func longFrame(t *testing.T) *DataFrame {
	t.Helper()
	df, err := NewDataFrame(
		NewSeriesString("region", []string{"west", "west", "east", "east", "west"}),
		NewSeriesString("quarter", []string{"q1", "q2", "q1", "q2", "q3"}),
		NewSeriesFloat64("revenue", []float64{100, 120, 80, 95, 110}),
	)
	if err != nil {
		t.Fatalf("NewDataFrame failed: %v", err)
	}
	return df
}

// ============================================================================
// Pivot Tests
// ============================================================================

func TestPivotBasic(t *testing.T) {
	df := longFrame(t)
	out, err := df.Pivot(PivotOptions{
		Index:  []string{"region"},
		Column: "quarter",
		Values: "revenue",
	})
	if err != nil {
		t.Fatalf("Pivot failed: %v", err)
	}
	want := []string{"region", "q1", "q2", "q3"}
	if !reflect.DeepEqual(out.ColumnNames(), want) {
		t.Fatalf("ColumnNames() = %v, want %v", out.ColumnNames(), want)
	}
	if out.Height() != 2 {
		t.Fatalf("Height() = %d, want 2", out.Height())
	}
	// Rows follow first appearance: west then east.
	region, _ := out.ColumnByName("region")
	if v, _ := region.GetString(0); v != "west" {
		t.Errorf("region[0] = %q, want %q", v, "west")
	}
	q1, _ := out.ColumnByName("q1")
	if v, _ := q1.GetFloat64(1); v != 80 {
		t.Errorf("east q1 = %v, want 80", v)
	}
	// east has no q3 row and no fill, so the cell is missing.
	q3, _ := out.ColumnByName("q3")
	if q3.IsValid(1) {
		t.Error("east q3 should be missing")
	}
}

func TestPivotFill(t *testing.T) {
	df := longFrame(t)
	out, err := df.Pivot(PivotOptions{
		Index:  []string{"region"},
		Column: "quarter",
		Values: "revenue",
		Fill:   0.0,
	})
	if err != nil {
		t.Fatalf("Pivot failed: %v", err)
	}
	q3, _ := out.ColumnByName("q3")
	if v, ok := q3.GetFloat64(1); !ok || v != 0 {
		t.Errorf("east q3 = %v, %v, want 0, true", v, ok)
	}
}

func TestPivotIntValuesStayInt(t *testing.T) {
	df, _ := NewDataFrame(
		NewSeriesString("id", []string{"a", "a", "b"}),
		NewSeriesString("k", []string{"x", "y", "x"}),
		NewSeriesInt64("v", []int64{1, 2, 3}),
	)
	out, err := df.Pivot(PivotOptions{
		Index:  []string{"id"},
		Column: "k",
		Values: "v",
		Fill:   int64(0),
	})
	if err != nil {
		t.Fatalf("Pivot failed: %v", err)
	}
	x, _ := out.ColumnByName("x")
	if x.DType() != Int64 {
		t.Errorf("x dtype = %v, want %v", x.DType(), Int64)
	}
	y, _ := out.ColumnByName("y")
	if v, _ := y.GetInt64(1); v != 0 {
		t.Errorf("b y = %d, want 0 (fill)", v)
	}
}

func TestPivotFloatFillWidensIntValues(t *testing.T) {
	df, _ := NewDataFrame(
		NewSeriesString("id", []string{"a", "b"}),
		NewSeriesString("k", []string{"x", "y"}),
		NewSeriesInt64("v", []int64{1, 2}),
	)
	out, err := df.Pivot(PivotOptions{
		Index:  []string{"id"},
		Column: "k",
		Values: "v",
		Fill:   0.5,
	})
	if err != nil {
		t.Fatalf("Pivot failed: %v", err)
	}
	x, _ := out.ColumnByName("x")
	if x.DType() != Float64 {
		t.Errorf("x dtype = %v, want %v", x.DType(), Float64)
	}
}

func TestPivotNumericSpreadOrder(t *testing.T) {
	df, _ := NewDataFrame(
		NewSeriesString("id", []string{"a", "a", "a"}),
		NewSeriesInt64("k", []int64{10, 2, 30}),
		NewSeriesFloat64("v", []float64{1, 2, 3}),
	)
	out, err := df.Pivot(PivotOptions{
		Index:  []string{"id"},
		Column: "k",
		Values: "v",
	})
	if err != nil {
		t.Fatalf("Pivot failed: %v", err)
	}
	// Numeric keys sort numerically, not lexicographically.
	want := []string{"id", "2", "10", "30"}
	if !reflect.DeepEqual(out.ColumnNames(), want) {
		t.Errorf("ColumnNames() = %v, want %v", out.ColumnNames(), want)
	}
}

func TestPivotNullKeyColumn(t *testing.T) {
	df, _ := NewDataFrame(
		NewSeriesString("id", []string{"a", "a"}),
		NewSeriesStringWithNulls("k", []string{"x", ""}, []bool{true, false}),
		NewSeriesFloat64("v", []float64{1, 2}),
	)
	out, err := df.Pivot(PivotOptions{
		Index:  []string{"id"},
		Column: "k",
		Values: "v",
	})
	if err != nil {
		t.Fatalf("Pivot failed: %v", err)
	}
	// The missing key becomes a trailing NA column.
	want := []string{"id", "x", "NA"}
	if !reflect.DeepEqual(out.ColumnNames(), want) {
		t.Fatalf("ColumnNames() = %v, want %v", out.ColumnNames(), want)
	}
	na, _ := out.ColumnByName("NA")
	if v, _ := na.GetFloat64(0); v != 2 {
		t.Errorf("NA cell = %v, want 2", v)
	}
}

func TestPivotNullKeyCollidesWithLiteralNA(t *testing.T) {
	df, _ := NewDataFrame(
		NewSeriesString("id", []string{"a", "a"}),
		NewSeriesStringWithNulls("k", []string{"NA", ""}, []bool{true, false}),
		NewSeriesFloat64("v", []float64{1, 2}),
	)
	_, err := df.Pivot(PivotOptions{
		Index:  []string{"id"},
		Column: "k",
		Values: "v",
	})
	if err == nil {
		t.Fatal("expected error for literal NA key alongside a missing key")
	}
	if !strings.Contains(err.Error(), "NA") {
		t.Errorf("error %q does not name the colliding label", err)
	}
}

func TestPivotOverlappingRoles(t *testing.T) {
	df := longFrame(t)
	cases := []PivotOptions{
		{Index: []string{"region"}, Column: "region", Values: "revenue"},
		{Index: []string{"region"}, Column: "quarter", Values: "region"},
		{Index: []string{"region"}, Column: "quarter", Values: "quarter"},
		{Index: []string{"region", "region"}, Column: "quarter", Values: "revenue"},
	}
	for i, opts := range cases {
		if _, err := df.Pivot(opts); err == nil {
			t.Errorf("case %d: expected error for overlapping pivot roles", i)
		}
	}
}

func TestPivotNullValueCell(t *testing.T) {
	// A present row with a missing value yields a missing cell even
	// when a fill is set: fill marks absent rows only.
	df, _ := NewDataFrame(
		NewSeriesString("id", []string{"a"}),
		NewSeriesString("k", []string{"x"}),
		NewSeriesFloat64WithNulls("v", []float64{0}, []bool{false}),
	)
	out, err := df.Pivot(PivotOptions{
		Index:  []string{"id"},
		Column: "k",
		Values: "v",
		Fill:   99.0,
	})
	if err != nil {
		t.Fatalf("Pivot failed: %v", err)
	}
	x, _ := out.ColumnByName("x")
	if x.IsValid(0) {
		t.Error("cell from a null value row should stay missing")
	}
}

func TestPivotDuplicateFails(t *testing.T) {
	df, _ := NewDataFrame(
		NewSeriesString("id", []string{"a", "a"}),
		NewSeriesString("k", []string{"x", "x"}),
		NewSeriesFloat64("v", []float64{1, 2}),
	)
	_, err := df.Pivot(PivotOptions{
		Index:  []string{"id"},
		Column: "k",
		Values: "v",
	})
	if err == nil {
		t.Fatal("expected duplicate error")
	}
	dup, ok := err.(*DuplicateKeyError)
	if !ok {
		t.Fatalf("error type = %T, want *DuplicateKeyError", err)
	}
	if dup.Key != "x" {
		t.Errorf("Key = %q, want %q", dup.Key, "x")
	}
}

func TestPivotDuplicateLast(t *testing.T) {
	df, _ := NewDataFrame(
		NewSeriesString("id", []string{"a", "a"}),
		NewSeriesString("k", []string{"x", "x"}),
		NewSeriesFloat64("v", []float64{1, 2}),
	)
	out, err := df.Pivot(PivotOptions{
		Index:       []string{"id"},
		Column:      "k",
		Values:      "v",
		OnDuplicate: DuplicateLast,
	})
	if err != nil {
		t.Fatalf("Pivot failed: %v", err)
	}
	x, _ := out.ColumnByName("x")
	if v, _ := x.GetFloat64(0); v != 2 {
		t.Errorf("x = %v, want 2 (last row wins)", v)
	}
}

func TestPivotUnknownColumns(t *testing.T) {
	df := longFrame(t)
	if _, err := df.Pivot(PivotOptions{Index: []string{"nope"}, Column: "quarter", Values: "revenue"}); err == nil {
		t.Error("expected error for unknown index column")
	}
	if _, err := df.Pivot(PivotOptions{Index: []string{"region"}, Column: "nope", Values: "revenue"}); err == nil {
		t.Error("expected error for unknown key column")
	}
	if _, err := df.Pivot(PivotOptions{Index: []string{"region"}, Column: "quarter", Values: "nope"}); err == nil {
		t.Error("expected error for unknown values column")
	}
}

// ============================================================================
// Melt Tests
// ============================================================================

func TestMeltBasic(t *testing.T) {
	df, _ := NewDataFrame(
		NewSeriesString("region", []string{"west", "east"}),
		NewSeriesFloat64("q1", []float64{100, 80}),
		NewSeriesFloat64("q2", []float64{120, 95}),
	)
	out, err := df.Melt(MeltOptions{IDVars: []string{"region"}})
	if err != nil {
		t.Fatalf("Melt failed: %v", err)
	}
	want := []string{"region", "variable", "value"}
	if !reflect.DeepEqual(out.ColumnNames(), want) {
		t.Fatalf("ColumnNames() = %v, want %v", out.ColumnNames(), want)
	}
	if out.Height() != 4 {
		t.Fatalf("Height() = %d, want 4", out.Height())
	}
	// Row-major: both value columns of row 0, then row 1.
	variable, _ := out.ColumnByName("variable")
	wantVars := []string{"q1", "q2", "q1", "q2"}
	if !reflect.DeepEqual(variable.Strings(), wantVars) {
		t.Errorf("variable = %v, want %v", variable.Strings(), wantVars)
	}
	value, _ := out.ColumnByName("value")
	wantVals := []float64{100, 120, 80, 95}
	if !reflect.DeepEqual(value.Float64(), wantVals) {
		t.Errorf("value = %v, want %v", value.Float64(), wantVals)
	}
	region, _ := out.ColumnByName("region")
	wantRegion := []string{"west", "west", "east", "east"}
	if !reflect.DeepEqual(region.Strings(), wantRegion) {
		t.Errorf("region = %v, want %v", region.Strings(), wantRegion)
	}
}

func TestMeltRowCountLaw(t *testing.T) {
	df, _ := NewDataFrame(
		NewSeriesString("id", []string{"a", "b", "c"}),
		NewSeriesInt64("x", []int64{1, 2, 3}),
		NewSeriesInt64("y", []int64{4, 5, 6}),
		NewSeriesInt64("z", []int64{7, 8, 9}),
	)
	out, err := df.Melt(MeltOptions{IDVars: []string{"id"}})
	if err != nil {
		t.Fatalf("Melt failed: %v", err)
	}
	if out.Height() != df.Height()*3 {
		t.Errorf("Height() = %d, want %d", out.Height(), df.Height()*3)
	}
}

func TestMeltCustomNames(t *testing.T) {
	df, _ := NewDataFrame(
		NewSeriesString("id", []string{"a"}),
		NewSeriesInt64("x", []int64{1}),
	)
	out, err := df.Melt(MeltOptions{
		IDVars:    []string{"id"},
		VarName:   "metric",
		ValueName: "reading",
	})
	if err != nil {
		t.Fatalf("Melt failed: %v", err)
	}
	want := []string{"id", "metric", "reading"}
	if !reflect.DeepEqual(out.ColumnNames(), want) {
		t.Errorf("ColumnNames() = %v, want %v", out.ColumnNames(), want)
	}
}

func TestMeltExplicitValueVars(t *testing.T) {
	df, _ := NewDataFrame(
		NewSeriesString("id", []string{"a"}),
		NewSeriesInt64("x", []int64{1}),
		NewSeriesInt64("y", []int64{2}),
	)
	out, err := df.Melt(MeltOptions{
		IDVars:    []string{"id"},
		ValueVars: []string{"y"},
	})
	if err != nil {
		t.Fatalf("Melt failed: %v", err)
	}
	if out.Height() != 1 {
		t.Fatalf("Height() = %d, want 1", out.Height())
	}
	variable, _ := out.ColumnByName("variable")
	if v, _ := variable.GetString(0); v != "y" {
		t.Errorf("variable = %q, want %q", v, "y")
	}
}

func TestMeltMixedTypesWiden(t *testing.T) {
	df, _ := NewDataFrame(
		NewSeriesString("id", []string{"a"}),
		NewSeriesInt64("x", []int64{1}),
		NewSeriesFloat64("y", []float64{2.5}),
	)
	out, err := df.Melt(MeltOptions{IDVars: []string{"id"}})
	if err != nil {
		t.Fatalf("Melt failed: %v", err)
	}
	value, _ := out.ColumnByName("value")
	if value.DType() != Float64 {
		t.Errorf("value dtype = %v, want %v", value.DType(), Float64)
	}
}

func TestMeltAllIntStaysInt(t *testing.T) {
	df, _ := NewDataFrame(
		NewSeriesInt64("x", []int64{1}),
		NewSeriesInt64("y", []int64{2}),
	)
	out, err := df.Melt(MeltOptions{})
	if err != nil {
		t.Fatalf("Melt failed: %v", err)
	}
	value, _ := out.ColumnByName("value")
	if value.DType() != Int64 {
		t.Errorf("value dtype = %v, want %v", value.DType(), Int64)
	}
}

func TestMeltPreservesNulls(t *testing.T) {
	df, _ := NewDataFrame(
		NewSeriesString("id", []string{"a", "b"}),
		NewSeriesFloat64WithNulls("x", []float64{1, 0}, []bool{true, false}),
	)
	out, err := df.Melt(MeltOptions{IDVars: []string{"id"}})
	if err != nil {
		t.Fatalf("Melt failed: %v", err)
	}
	value, _ := out.ColumnByName("value")
	if value.IsValid(1) {
		t.Error("null input should melt to a null cell")
	}
}

func TestMeltNameCollision(t *testing.T) {
	df, _ := NewDataFrame(
		NewSeriesString("variable", []string{"a"}),
		NewSeriesInt64("x", []int64{1}),
	)
	if _, err := df.Melt(MeltOptions{IDVars: []string{"variable"}}); err == nil {
		t.Error("expected error when an ID column collides with the variable name")
	}
	df2, _ := NewDataFrame(NewSeriesInt64("x", []int64{1}))
	if _, err := df2.Melt(MeltOptions{VarName: "v", ValueName: "v"}); err == nil {
		t.Error("expected error when VarName equals ValueName")
	}
}

// ============================================================================
// Round-trip Tests
// ============================================================================

func TestPivotMeltRoundTrip(t *testing.T) {
	long := longFrame(t)
	wide, err := long.Pivot(PivotOptions{
		Index:  []string{"region"},
		Column: "quarter",
		Values: "revenue",
	})
	if err != nil {
		t.Fatalf("Pivot failed: %v", err)
	}
	back, err := wide.Melt(MeltOptions{
		IDVars:    []string{"region"},
		VarName:   "quarter",
		ValueName: "revenue",
	})
	if err != nil {
		t.Fatalf("Melt failed: %v", err)
	}

	// Every original (region, quarter, revenue) triple survives; cells
	// absent from the input come back as nulls.
	index := make(map[string]float64, long.Height())
	lr, _ := long.ColumnByName("region")
	lq, _ := long.ColumnByName("quarter")
	lv, _ := long.ColumnByName("revenue")
	for i := 0; i < long.Height(); i++ {
		r, _ := lr.GetString(i)
		q, _ := lq.GetString(i)
		v, _ := lv.GetFloat64(i)
		index[r+"/"+q] = v
	}
	br, _ := back.ColumnByName("region")
	bq, _ := back.ColumnByName("quarter")
	bv, _ := back.ColumnByName("revenue")
	found := 0
	for i := 0; i < back.Height(); i++ {
		r, _ := br.GetString(i)
		q, _ := bq.GetString(i)
		want, present := index[r+"/"+q]
		if !present {
			if bv.IsValid(i) {
				t.Errorf("unexpected value for %s/%s", r, q)
			}
			continue
		}
		if v, _ := bv.GetFloat64(i); v != want {
			t.Errorf("%s/%s = %v, want %v", r, q, v, want)
		}
		found++
	}
	if found != long.Height() {
		t.Errorf("recovered %d of %d original cells", found, long.Height())
	}
}
