package lagoon

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
)

// ============================================================================
// Arrow Interop Tests
// ============================================================================

func TestArrowRoundTrip(t *testing.T) {
	orig, _ := NewDataFrame(
		NewSeriesString("region", []string{"west", "east"}),
		NewSeriesInt64("units", []int64{10, 5}),
		NewSeriesFloat64WithNulls("revenue", []float64{100, 0}, []bool{true, false}),
	)

	mem := memory.NewGoAllocator()
	rec, err := orig.ToArrow(mem)
	if err != nil {
		t.Fatalf("ToArrow failed: %v", err)
	}
	defer rec.Release()

	if rec.NumRows() != 2 || rec.NumCols() != 3 {
		t.Fatalf("record shape = %d x %d, want 2 x 3", rec.NumRows(), rec.NumCols())
	}

	back, err := NewDataFrameFromArrow(rec)
	if err != nil {
		t.Fatalf("NewDataFrameFromArrow failed: %v", err)
	}

	units, _ := back.ColumnByName("units")
	if units.DType() != Int64 {
		t.Errorf("units dtype = %v, want %v", units.DType(), Int64)
	}
	if v, _ := units.GetInt64(1); v != 5 {
		t.Errorf("units[1] = %d, want 5", v)
	}

	revenue, _ := back.ColumnByName("revenue")
	if revenue.IsValid(1) {
		t.Error("revenue[1] should be null after the round trip")
	}
	if v, _ := revenue.GetFloat64(0); v != 100 {
		t.Errorf("revenue[0] = %v, want 100", v)
	}

	region, _ := back.ColumnByName("region")
	if v, _ := region.GetString(1); v != "east" {
		t.Errorf("region[1] = %q, want %q", v, "east")
	}
}

func TestArrowTableRoundTrip(t *testing.T) {
	orig, _ := NewDataFrame(
		NewSeriesInt64WithNulls("x", []int64{1, 0, 3}, []bool{true, false, true}),
		NewSeriesBool("flag", []bool{true, false, true}),
	)

	mem := memory.NewGoAllocator()
	table, err := orig.ToArrowTable(mem)
	if err != nil {
		t.Fatalf("ToArrowTable failed: %v", err)
	}
	defer table.Release()

	back, err := NewDataFrameFromArrowTable(table)
	if err != nil {
		t.Fatalf("NewDataFrameFromArrowTable failed: %v", err)
	}
	if back.Height() != 3 {
		t.Fatalf("Height() = %d, want 3", back.Height())
	}

	x, _ := back.ColumnByName("x")
	if x.IsValid(1) {
		t.Error("x[1] should be null")
	}
	if v, _ := x.GetInt64(2); v != 3 {
		t.Errorf("x[2] = %d, want 3", v)
	}

	flag, _ := back.ColumnByName("flag")
	if v, _ := flag.GetBool(2); v != true {
		t.Errorf("flag[2] = %v, want true", v)
	}
}

func TestNewDataFrameFromArrowNil(t *testing.T) {
	if _, err := NewDataFrameFromArrow(nil); err == nil {
		t.Fatal("expected error for nil record")
	}
}
