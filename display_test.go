package lagoon

import (
	"strings"
	"testing"
)

// ============================================================================
// DataFrame Display Tests
// ============================================================================

func TestDataFrameString(t *testing.T) {
	df, _ := NewDataFrame(
		NewSeriesString("region", []string{"west", "east"}),
		NewSeriesInt64("units", []int64{10, 5}),
	)
	out := df.String()
	if !strings.Contains(out, "shape: (2, 2)") {
		t.Errorf("output missing shape header:\n%s", out)
	}
	for _, want := range []string{"region", "units", "west", "10"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestDataFrameStringNulls(t *testing.T) {
	df, _ := NewDataFrame(
		NewSeriesFloat64WithNulls("x", []float64{1, 0}, []bool{true, false}),
	)
	out := df.String()
	if !strings.Contains(out, "null") {
		t.Errorf("invalid slot not rendered as null:\n%s", out)
	}
}

func TestDataFrameStringEmpty(t *testing.T) {
	df, _ := NewDataFrame()
	if got := df.String(); got != "DataFrame(empty)" {
		t.Errorf("String() = %q, want %q", got, "DataFrame(empty)")
	}
}

func TestDataFrameStringTruncatesRows(t *testing.T) {
	n := 100
	data := make([]int64, n)
	for i := range data {
		data[i] = int64(i)
	}
	df, _ := NewDataFrame(NewSeriesInt64("x", data))

	cfg := DefaultDisplayConfig()
	cfg.MaxRows = 10
	out := df.StringWithConfig(cfg)
	if !strings.Contains(out, "…") {
		t.Errorf("output missing ellipsis row:\n%s", out)
	}
	if !strings.Contains(out, "99") {
		t.Errorf("output missing tail row:\n%s", out)
	}
	if strings.Contains(out, " 50 ") {
		t.Errorf("middle row should be elided:\n%s", out)
	}
}

func TestDataFrameStringFloatPrecision(t *testing.T) {
	df, _ := NewDataFrame(NewSeriesFloat64("x", []float64{1.23456}))
	cfg := DefaultDisplayConfig()
	cfg.FloatPrecision = 2
	out := df.StringWithConfig(cfg)
	if !strings.Contains(out, "1.23") {
		t.Errorf("output missing rounded float:\n%s", out)
	}
	if strings.Contains(out, "1.2346") {
		t.Errorf("float not rounded to 2 places:\n%s", out)
	}
}

func TestDataFrameStringAsciiStyle(t *testing.T) {
	df, _ := NewDataFrame(NewSeriesInt64("x", []int64{1}))
	cfg := DefaultDisplayConfig()
	cfg.TableStyle = "ascii"
	out := df.StringWithConfig(cfg)
	if !strings.Contains(out, "+") || !strings.Contains(out, "|") {
		t.Errorf("ascii style should use + and | borders:\n%s", out)
	}
	if strings.Contains(out, "╭") {
		t.Errorf("ascii style should not use rounded corners:\n%s", out)
	}
}

func TestDataFrameStringHidesDTypes(t *testing.T) {
	df, _ := NewDataFrame(NewSeriesInt64("x", []int64{1}))
	cfg := DefaultDisplayConfig()
	cfg.ShowDTypes = false
	cfg.ShowShape = false
	out := df.StringWithConfig(cfg)
	if strings.Contains(out, "Int64") {
		t.Errorf("dtype row should be hidden:\n%s", out)
	}
	if strings.Contains(out, "shape:") {
		t.Errorf("shape header should be hidden:\n%s", out)
	}
}

// ============================================================================
// Series Display Tests
// ============================================================================

func TestSeriesString(t *testing.T) {
	s := NewSeriesFloat64WithNulls("score", []float64{91.5, 0}, []bool{true, false})
	out := s.String()
	if !strings.Contains(out, "Series: 'score'") {
		t.Errorf("output missing header:\n%s", out)
	}
	if !strings.Contains(out, "length: 2") {
		t.Errorf("output missing length:\n%s", out)
	}
	if !strings.Contains(out, "null") {
		t.Errorf("invalid slot not rendered as null:\n%s", out)
	}
}

func TestSeriesStringEmpty(t *testing.T) {
	s := NewSeriesInt64("x", nil)
	out := s.String()
	if !strings.Contains(out, "length: 0") {
		t.Errorf("output missing zero length:\n%s", out)
	}
}

// ============================================================================
// Configuration Tests
// ============================================================================

func TestSetDisplayConfig(t *testing.T) {
	old := GetDisplayConfig()
	defer SetDisplayConfig(old)

	SetMaxDisplayRows(4)
	SetFloatPrecision(1)
	SetTableStyle("sharp")

	cfg := GetDisplayConfig()
	if cfg.MaxRows != 4 {
		t.Errorf("MaxRows = %d, want 4", cfg.MaxRows)
	}
	if cfg.FloatPrecision != 1 {
		t.Errorf("FloatPrecision = %d, want 1", cfg.FloatPrecision)
	}
	if cfg.TableStyle != "sharp" {
		t.Errorf("TableStyle = %q, want %q", cfg.TableStyle, "sharp")
	}

	SetTableStyle("bogus")
	if got := GetDisplayConfig().TableStyle; got != "sharp" {
		t.Errorf("unknown style should be ignored, got %q", got)
	}
}
