package lagoon

import (
	"context"
	"io"
	"strings"
	"testing"
)

// ============================================================================
// CSV Batch Reader Tests
// ============================================================================

func TestCSVBatchReaderSingleBatch(t *testing.T) {
	data := "region,units\nwest,10\neast,5\n"
	reader, err := NewCSVBatchReader(strings.NewReader(data))
	if err != nil {
		t.Fatalf("NewCSVBatchReader failed: %v", err)
	}
	defer reader.Close()

	batch, err := reader.Next(context.Background())
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if batch.Height() != 2 || batch.Width() != 2 {
		t.Fatalf("batch shape = %d x %d, want 2 x 2", batch.Height(), batch.Width())
	}
	units, _ := batch.ColumnByName("units")
	if units.DType() != Int64 {
		t.Errorf("units dtype = %v, want %v", units.DType(), Int64)
	}

	if _, err := reader.Next(context.Background()); err != io.EOF {
		t.Errorf("second Next err = %v, want io.EOF", err)
	}
}

func TestCSVBatchReaderMultipleBatches(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("x\n")
	for i := 0; i < 10; i++ {
		sb.WriteString("1\n")
	}
	opt := CSVBatchReaderOptions{BatchSize: 3}
	reader, err := NewCSVBatchReader(strings.NewReader(sb.String()), opt)
	if err != nil {
		t.Fatalf("NewCSVBatchReader failed: %v", err)
	}
	defer reader.Close()

	batches := 0
	rows := 0
	for {
		batch, err := reader.Next(context.Background())
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		batches++
		rows += batch.Height()
	}
	if rows != 10 {
		t.Errorf("total rows = %d, want 10", rows)
	}
	if batches != 4 {
		t.Errorf("batches = %d, want 4", batches)
	}
}

func TestCSVBatchReaderSchemaPinnedAfterFirstBatch(t *testing.T) {
	data := "x\n1\n2\n3\n"
	opt := CSVBatchReaderOptions{BatchSize: 2}
	reader, err := NewCSVBatchReader(strings.NewReader(data), opt)
	if err != nil {
		t.Fatalf("NewCSVBatchReader failed: %v", err)
	}
	defer reader.Close()

	if reader.Schema() != nil {
		t.Error("Schema() should be nil before the first inferred batch")
	}
	if _, err := reader.Next(context.Background()); err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	schema := reader.Schema()
	if schema == nil {
		t.Fatal("Schema() is nil after the first batch")
	}
	if dt, _ := schema.GetDType("x"); dt != Int64 {
		t.Errorf("x dtype = %v, want %v", dt, Int64)
	}
}

func TestCSVBatchReaderExplicitTypes(t *testing.T) {
	data := "x\n1\n2\n"
	opt := CSVBatchReaderOptions{DTypes: []DType{String}}
	reader, err := NewCSVBatchReader(strings.NewReader(data), opt)
	if err != nil {
		t.Fatalf("NewCSVBatchReader failed: %v", err)
	}
	defer reader.Close()

	if reader.Schema() == nil {
		t.Fatal("Schema() should be set eagerly when types are given")
	}
	batch, err := reader.Next(context.Background())
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	x, _ := batch.ColumnByName("x")
	if x.DType() != String {
		t.Errorf("x dtype = %v, want %v", x.DType(), String)
	}
}

func TestCSVBatchReaderContextCancel(t *testing.T) {
	data := "x\n1\n2\n"
	reader, err := NewCSVBatchReader(strings.NewReader(data))
	if err != nil {
		t.Fatalf("NewCSVBatchReader failed: %v", err)
	}
	defer reader.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := reader.Next(ctx); err == nil {
		t.Fatal("expected error from cancelled context")
	}
}

// ============================================================================
// Pipeline Tests
// ============================================================================

func batchPipelineReader(t *testing.T, batchSize int) *CSVBatchReader {
	t.Helper()
	data := "region,units\nwest,10\neast,5\nnorth,7\nwest,12\nsouth,3\n"
	opt := CSVBatchReaderOptions{BatchSize: batchSize}
	reader, err := NewCSVBatchReader(strings.NewReader(data), opt)
	if err != nil {
		t.Fatalf("NewCSVBatchReader failed: %v", err)
	}
	return reader
}

func TestPipelineCollect(t *testing.T) {
	reader := batchPipelineReader(t, 2)
	defer reader.Close()

	df, err := NewPipeline(reader).Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if df.Height() != 5 {
		t.Errorf("Height() = %d, want 5", df.Height())
	}
	region, _ := df.ColumnByName("region")
	if v, _ := region.GetString(4); v != "south" {
		t.Errorf("region[4] = %q, want %q", v, "south")
	}
}

func TestPipelineFilter(t *testing.T) {
	reader := batchPipelineReader(t, 2)
	defer reader.Close()

	df, err := NewPipeline(reader).
		Filter(Col("units").Gt(Lit(int64(6)))).
		Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if df.Height() != 3 {
		t.Errorf("Height() = %d, want 3 rows with units > 6", df.Height())
	}
}

func TestPipelineLimit(t *testing.T) {
	reader := batchPipelineReader(t, 2)
	defer reader.Close()

	df, err := NewPipeline(reader).Limit(3).Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if df.Height() != 3 {
		t.Errorf("Height() = %d, want 3", df.Height())
	}
}

func TestPipelineTransform(t *testing.T) {
	reader := batchPipelineReader(t, 2)
	defer reader.Close()

	df, err := NewPipeline(reader).
		Transform(func(batch *DataFrame) (*DataFrame, error) {
			return batch.Select("units")
		}).
		Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if df.Width() != 1 {
		t.Errorf("Width() = %d, want 1", df.Width())
	}
	if df.Height() != 5 {
		t.Errorf("Height() = %d, want 5", df.Height())
	}
}

func TestPipelineForEach(t *testing.T) {
	reader := batchPipelineReader(t, 2)
	defer reader.Close()

	batches := 0
	rows := 0
	err := NewPipeline(reader).ForEach(context.Background(), func(batch *DataFrame) error {
		batches++
		rows += batch.Height()
		return nil
	})
	if err != nil {
		t.Fatalf("ForEach failed: %v", err)
	}
	if rows != 5 {
		t.Errorf("rows = %d, want 5", rows)
	}
	if batches != 3 {
		t.Errorf("batches = %d, want 3", batches)
	}
}

// ============================================================================
// Concatenation Tests
// ============================================================================

func TestConcatDataFrames(t *testing.T) {
	a, _ := NewDataFrame(
		NewSeriesInt64("x", []int64{1, 2}),
		NewSeriesString("y", []string{"a", "b"}),
	)
	b, _ := NewDataFrame(
		NewSeriesInt64WithNulls("x", []int64{3, 0}, []bool{true, false}),
		NewSeriesString("y", []string{"c", "d"}),
	)

	out, err := ConcatDataFrames(a, b)
	if err != nil {
		t.Fatalf("ConcatDataFrames failed: %v", err)
	}
	if out.Height() != 4 {
		t.Fatalf("Height() = %d, want 4", out.Height())
	}
	x, _ := out.ColumnByName("x")
	if v, _ := x.GetInt64(2); v != 3 {
		t.Errorf("x[2] = %d, want 3", v)
	}
	if x.IsValid(3) {
		t.Error("x[3] should be null")
	}
	y, _ := out.ColumnByName("y")
	if v, _ := y.GetString(3); v != "d" {
		t.Errorf("y[3] = %q, want %q", v, "d")
	}
}

func TestConcatDataFramesSchemaMismatch(t *testing.T) {
	a, _ := NewDataFrame(NewSeriesInt64("x", []int64{1}))
	b, _ := NewDataFrame(NewSeriesInt64("y", []int64{2}))
	if _, err := ConcatDataFrames(a, b); err == nil {
		t.Fatal("expected error for mismatched column names")
	}
}

func TestConcatDataFramesEmptyInput(t *testing.T) {
	out, err := ConcatDataFrames()
	if err != nil {
		t.Fatalf("ConcatDataFrames failed: %v", err)
	}
	if out.Height() != 0 || out.Width() != 0 {
		t.Errorf("shape = %d x %d, want 0 x 0", out.Height(), out.Width())
	}
}
