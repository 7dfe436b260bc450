package lagoon

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Row-level parallelism is split into fixed-size morsels handed out through
// an atomic cursor. Results must be position-addressed, never
// completion-ordered, so parallel and sequential execution are
// indistinguishable to callers.

// ParallelConfig tunes when and how row ranges fan out across goroutines.
type ParallelConfig struct {
	// MinRowsForParallel is the row count below which everything runs on the
	// calling goroutine.
	MinRowsForParallel int

	// MorselSize is the number of rows per work unit.
	MorselSize int

	// MaxWorkers caps the goroutine count. 0 means GOMAXPROCS.
	MaxWorkers int

	// Enabled switches all fan-out off when false.
	Enabled bool
}

// DefaultParallelConfig returns the tuning used unless overridden.
func DefaultParallelConfig() *ParallelConfig {
	return &ParallelConfig{
		MinRowsForParallel: 8192,
		MorselSize:         4096,
		MaxWorkers:         0,
		Enabled:            true,
	}
}

var activeParallelConfig = DefaultParallelConfig()

// SetParallelConfig replaces the active configuration. A nil config is
// ignored.
func SetParallelConfig(cfg *ParallelConfig) {
	if cfg != nil {
		activeParallelConfig = cfg
	}
}

// GetParallelConfig returns the active configuration.
func GetParallelConfig() *ParallelConfig {
	return activeParallelConfig
}

func (cfg *ParallelConfig) numWorkers() int {
	if cfg.MaxWorkers > 0 {
		return cfg.MaxWorkers
	}
	return runtime.GOMAXPROCS(0)
}

func (cfg *ParallelConfig) shouldParallelize(rows int) bool {
	return cfg.Enabled && rows >= cfg.MinRowsForParallel
}

// ============================================================================
// Morsels
// ============================================================================

// Morsel is one contiguous range of rows, [Start, End).
type Morsel struct {
	Start int
	End   int
}

// MorselIterator hands out morsels to competing workers. Safe for concurrent
// use; each range is claimed by exactly one caller.
type MorselIterator struct {
	totalRows  int
	morselSize int
	cursor     int64
}

// NewMorselIterator creates an iterator over totalRows rows. A non-positive
// morselSize falls back to the active config.
func NewMorselIterator(totalRows, morselSize int) *MorselIterator {
	if morselSize <= 0 {
		morselSize = activeParallelConfig.MorselSize
	}
	return &MorselIterator{totalRows: totalRows, morselSize: morselSize}
}

// Next claims the next unclaimed morsel, or returns nil when the rows are
// exhausted.
func (mi *MorselIterator) Next() *Morsel {
	for {
		start := int(atomic.LoadInt64(&mi.cursor))
		if start >= mi.totalRows {
			return nil
		}
		end := start + mi.morselSize
		if end > mi.totalRows {
			end = mi.totalRows
		}
		if atomic.CompareAndSwapInt64(&mi.cursor, int64(start), int64(end)) {
			return &Morsel{Start: start, End: end}
		}
	}
}

// ordinal maps a morsel back to its position in the sequence of morsels.
func (mi *MorselIterator) ordinal(m *Morsel) int {
	return m.Start / mi.morselSize
}

// count is the total number of morsels the iterator will hand out.
func (mi *MorselIterator) count() int {
	if mi.totalRows <= 0 {
		return 0
	}
	return (mi.totalRows + mi.morselSize - 1) / mi.morselSize
}

// runWorkers starts n goroutines on task and blocks until all return.
func runWorkers(n int, task func()) {
	var wg sync.WaitGroup
	wg.Add(n)
	for w := 0; w < n; w++ {
		go func() {
			defer wg.Done()
			task()
		}()
	}
	wg.Wait()
}

// ============================================================================
// Fan-out helpers
// ============================================================================

// ParallelFor runs fn over [0, totalRows) in morsel-sized ranges. Below the
// parallel threshold fn is called once on the whole range.
func ParallelFor(totalRows int, fn func(start, end int)) {
	cfg := activeParallelConfig
	if !cfg.shouldParallelize(totalRows) {
		fn(0, totalRows)
		return
	}
	mi := NewMorselIterator(totalRows, cfg.MorselSize)
	runWorkers(cfg.numWorkers(), func() {
		for m := mi.Next(); m != nil; m = mi.Next() {
			fn(m.Start, m.End)
		}
	})
}

// ParallelForWithResult runs fn over morsel ranges and returns one result per
// morsel, in range order regardless of which worker ran which range.
func ParallelForWithResult[T any](totalRows int, fn func(start, end int) T) []T {
	cfg := activeParallelConfig
	if !cfg.shouldParallelize(totalRows) {
		return []T{fn(0, totalRows)}
	}
	mi := NewMorselIterator(totalRows, cfg.MorselSize)
	results := make([]T, mi.count())
	runWorkers(cfg.numWorkers(), func() {
		for m := mi.Next(); m != nil; m = mi.Next() {
			results[mi.ordinal(m)] = fn(m.Start, m.End)
		}
	})
	return results
}

// ParallelMap evaluates fn for every index in [0, n) and returns the results
// in index order.
func ParallelMap[T any](n int, fn func(i int) T) []T {
	results := make([]T, n)
	ParallelFor(n, func(start, end int) {
		for i := start; i < end; i++ {
			results[i] = fn(i)
		}
	})
	return results
}

// ParallelMapSlice maps fn over a slice, preserving element order.
func ParallelMapSlice[T, R any](slice []T, fn func(T) R) []R {
	return ParallelMap(len(slice), func(i int) R {
		return fn(slice[i])
	})
}

// ============================================================================
// Reductions
// ============================================================================

// reduceRange folds combine over data[start:end] starting from identity.
func reduceRange[T any](data []T, start, end int, identity T, combine func(a, b T) T) T {
	acc := identity
	for i := start; i < end; i++ {
		acc = combine(acc, data[i])
	}
	return acc
}

// parallelReduce folds combine over data via per-morsel partials. combine
// must be associative and commutative so morsel boundaries cannot change the
// result.
func parallelReduce[T any](data []T, identity T, combine func(a, b T) T) T {
	cfg := activeParallelConfig
	if !cfg.shouldParallelize(len(data)) {
		return reduceRange(data, 0, len(data), identity, combine)
	}
	partials := ParallelForWithResult(len(data), func(start, end int) T {
		return reduceRange(data, start, end, identity, combine)
	})
	return reduceRange(partials, 0, len(partials), identity, combine)
}

// ParallelReduceFloat64 folds combine over a float64 slice.
func ParallelReduceFloat64(data []float64, identity float64, combine func(a, b float64) float64) float64 {
	return parallelReduce(data, identity, combine)
}

// ParallelReduceInt64 folds combine over an int64 slice.
func ParallelReduceInt64(data []int64, identity int64, combine func(a, b int64) int64) int64 {
	return parallelReduce(data, identity, combine)
}

// ============================================================================
// Column fan-out
// ============================================================================

// ParallelBuildColumns builds n independent columns, one builder call per
// column index, and returns them in index order.
func ParallelBuildColumns(n int, builder func(colIdx int) *Series) []*Series {
	cols := make([]*Series, n)
	if !activeParallelConfig.Enabled || n <= 1 {
		for i := 0; i < n; i++ {
			cols[i] = builder(i)
		}
		return cols
	}

	workers := activeParallelConfig.numWorkers()
	if workers > n {
		workers = n
	}
	var next int64
	runWorkers(workers, func() {
		for {
			i := int(atomic.AddInt64(&next, 1)) - 1
			if i >= n {
				return
			}
			cols[i] = builder(i)
		}
	})
	return cols
}
