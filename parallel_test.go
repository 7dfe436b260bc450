package lagoon

import (
	"sync"
	"sync/atomic"
	"testing"
)

// ============================================================================
// Morsel Iterator Tests
// ============================================================================

func TestMorselIteratorCoversAllRows(t *testing.T) {
	mi := NewMorselIterator(10000, 4096)
	covered := 0
	var last int
	for m := mi.Next(); m != nil; m = mi.Next() {
		if m.Start != last {
			t.Fatalf("morsel start = %d, want %d", m.Start, last)
		}
		covered += m.End - m.Start
		last = m.End
	}
	if covered != 10000 {
		t.Errorf("covered %d rows, want 10000", covered)
	}
}

func TestMorselIteratorConcurrent(t *testing.T) {
	mi := NewMorselIterator(100000, 1000)
	var total int64
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for m := mi.Next(); m != nil; m = mi.Next() {
				atomic.AddInt64(&total, int64(m.End-m.Start))
			}
		}()
	}
	wg.Wait()
	if total != 100000 {
		t.Errorf("workers covered %d rows, want 100000", total)
	}
}

func TestMorselIteratorEmpty(t *testing.T) {
	mi := NewMorselIterator(0, 4096)
	if m := mi.Next(); m != nil {
		t.Errorf("Next() = %+v, want nil for zero rows", m)
	}
}

// ============================================================================
// Parallel Execution Tests
// ============================================================================

func TestParallelForSmallInputRunsSerially(t *testing.T) {
	data := make([]int, 100)
	ParallelFor(len(data), func(start, end int) {
		for i := start; i < end; i++ {
			data[i] = i
		}
	})
	for i, v := range data {
		if v != i {
			t.Fatalf("data[%d] = %d, want %d", i, v, i)
		}
	}
}

func TestParallelForLargeInput(t *testing.T) {
	n := 100000
	var total int64
	ParallelFor(n, func(start, end int) {
		var local int64
		for i := start; i < end; i++ {
			local++
		}
		atomic.AddInt64(&total, local)
	})
	if total != int64(n) {
		t.Errorf("processed %d rows, want %d", total, n)
	}
}

func TestParallelForDisabled(t *testing.T) {
	old := GetParallelConfig()
	defer SetParallelConfig(old)
	SetParallelConfig(&ParallelConfig{Enabled: false, MorselSize: 4096})

	data := make([]int64, 50000)
	ParallelFor(len(data), func(start, end int) {
		for i := start; i < end; i++ {
			data[i] = int64(i)
		}
	})
	if data[49999] != 49999 {
		t.Errorf("data[49999] = %d, want 49999", data[49999])
	}
}

func TestParallelMap(t *testing.T) {
	out := ParallelMap(10, func(i int) int { return i * i })
	if len(out) != 10 {
		t.Fatalf("len = %d, want 10", len(out))
	}
	for i, v := range out {
		if v != i*i {
			t.Errorf("out[%d] = %d, want %d", i, v, i*i)
		}
	}
}

func TestParallelMapSlice(t *testing.T) {
	in := []string{"a", "bb", "ccc"}
	out := ParallelMapSlice(in, func(s string) int { return len(s) })
	want := []int{1, 2, 3}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("out[%d] = %d, want %d", i, out[i], want[i])
		}
	}
}

func TestParallelReduceFloat64(t *testing.T) {
	data := make([]float64, 20000)
	for i := range data {
		data[i] = 1
	}
	sum := ParallelReduceFloat64(data, 0, func(a, b float64) float64 { return a + b })
	if sum != 20000 {
		t.Errorf("sum = %v, want 20000", sum)
	}
}

func TestParallelReduceInt64Max(t *testing.T) {
	data := make([]int64, 20000)
	for i := range data {
		data[i] = int64(i)
	}
	max := ParallelReduceInt64(data, data[0], func(a, b int64) int64 {
		if a > b {
			return a
		}
		return b
	})
	if max != 19999 {
		t.Errorf("max = %d, want 19999", max)
	}
}

func TestParallelBuildColumns(t *testing.T) {
	names := []string{"a", "b", "c"}
	cols := ParallelBuildColumns(len(names), func(i int) *Series {
		return NewSeriesInt64(names[i], []int64{int64(i)})
	})
	if len(cols) != 3 {
		t.Fatalf("len = %d, want 3", len(cols))
	}
	for i, col := range cols {
		if col.Name() != names[i] {
			t.Errorf("cols[%d].Name() = %q, want %q", i, col.Name(), names[i])
		}
		if v, _ := col.GetInt64(0); v != int64(i) {
			t.Errorf("cols[%d][0] = %d, want %d", i, v, i)
		}
	}
}
