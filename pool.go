package lagoon

import (
	"sync"
)

// IndexSlice is a pooled row-index buffer for filter and slice operations.
// Call Release() when done to return it to the pool.
type IndexSlice struct {
	Data []int
	pool *sync.Pool
}

// Release returns the slice to the pool for reuse
func (s *IndexSlice) Release() {
	if s.pool != nil && s.Data != nil {
		s.pool.Put(s)
	}
}

// Pool sizes - we use power-of-2 buckets for efficiency
var (
	indexPools [32]*sync.Pool // pools for sizes 2^0 to 2^31
	poolInit   sync.Once
)

func initPools() {
	poolInit.Do(func() {
		for i := range indexPools {
			size := 1 << i
			indexPools[i] = &sync.Pool{
				New: func() interface{} {
					return &IndexSlice{
						Data: make([]int, size),
					}
				},
			}
		}
	})
}

// getBucket returns the pool bucket index for a given size
func getBucket(size int) int {
	if size <= 0 {
		return 0
	}
	// Find the smallest power of 2 >= size
	bucket := 0
	n := size - 1
	for n > 0 {
		n >>= 1
		bucket++
	}
	if bucket >= 32 {
		bucket = 31
	}
	return bucket
}

// getIndexSlice gets an index buffer from the pool with at least 'size' capacity
func getIndexSlice(size int) *IndexSlice {
	initPools()
	bucket := getBucket(size)
	pool := indexPools[bucket]
	slice := pool.Get().(*IndexSlice)
	slice.pool = pool

	poolSize := 1 << bucket
	if len(slice.Data) != size {
		slice.Data = slice.Data[:size]
	}
	// If we need more than pool size, allocate new
	if size > poolSize {
		slice.Data = make([]int, size)
	}

	return slice
}
