package lagoon

import (
	"fmt"
	"strconv"
)

// Series is a named, immutable column of a single dtype. Missing values are
// tracked in a validity mask; a nil mask means every slot is valid. All
// operations return new Series values and never mutate their receiver.
type Series struct {
	name  string
	dtype DType

	f64 []float64
	f32 []float32
	i64 []int64
	i32 []int32
	b   []bool
	str []string

	// valid[i] == false marks a missing value. nil means no nulls.
	valid []bool
}

// ============================================================================
// Creation
// ============================================================================

// NewSeriesFloat64 creates a Float64 Series from a Go slice.
func NewSeriesFloat64(name string, data []float64) *Series {
	return &Series{name: name, dtype: Float64, f64: append([]float64{}, data...)}
}

// NewSeriesFloat64WithNulls creates a Float64 Series with null values.
// valid[i] == false marks data[i] as missing.
func NewSeriesFloat64WithNulls(name string, data []float64, valid []bool) *Series {
	s := NewSeriesFloat64(name, data)
	s.valid = normalizeValidity(valid, len(data))
	return s
}

// NewSeriesFloat32 creates a Float32 Series from a Go slice.
func NewSeriesFloat32(name string, data []float32) *Series {
	return &Series{name: name, dtype: Float32, f32: append([]float32{}, data...)}
}

// NewSeriesFloat32WithNulls creates a Float32 Series with null values.
func NewSeriesFloat32WithNulls(name string, data []float32, valid []bool) *Series {
	s := NewSeriesFloat32(name, data)
	s.valid = normalizeValidity(valid, len(data))
	return s
}

// NewSeriesInt64 creates an Int64 Series from a Go slice.
func NewSeriesInt64(name string, data []int64) *Series {
	return &Series{name: name, dtype: Int64, i64: append([]int64{}, data...)}
}

// NewSeriesInt64WithNulls creates an Int64 Series with null values.
func NewSeriesInt64WithNulls(name string, data []int64, valid []bool) *Series {
	s := NewSeriesInt64(name, data)
	s.valid = normalizeValidity(valid, len(data))
	return s
}

// NewSeriesInt32 creates an Int32 Series from a Go slice.
func NewSeriesInt32(name string, data []int32) *Series {
	return &Series{name: name, dtype: Int32, i32: append([]int32{}, data...)}
}

// NewSeriesInt32WithNulls creates an Int32 Series with null values.
func NewSeriesInt32WithNulls(name string, data []int32, valid []bool) *Series {
	s := NewSeriesInt32(name, data)
	s.valid = normalizeValidity(valid, len(data))
	return s
}

// NewSeriesBool creates a Bool Series from a Go slice.
func NewSeriesBool(name string, data []bool) *Series {
	return &Series{name: name, dtype: Bool, b: append([]bool{}, data...)}
}

// NewSeriesBoolWithNulls creates a Bool Series with null values.
func NewSeriesBoolWithNulls(name string, data []bool, valid []bool) *Series {
	s := NewSeriesBool(name, data)
	s.valid = normalizeValidity(valid, len(data))
	return s
}

// NewSeriesString creates a String Series from a Go slice.
func NewSeriesString(name string, data []string) *Series {
	return &Series{name: name, dtype: String, str: append([]string{}, data...)}
}

// NewSeriesStringWithNulls creates a String Series with null values.
func NewSeriesStringWithNulls(name string, data []string, valid []bool) *Series {
	s := NewSeriesString(name, data)
	s.valid = normalizeValidity(valid, len(data))
	return s
}

// normalizeValidity copies the mask, or drops it entirely when every slot is
// valid so that HasNulls stays cheap.
func normalizeValidity(valid []bool, length int) []bool {
	if valid == nil {
		return nil
	}
	allValid := true
	out := make([]bool, length)
	for i := 0; i < length; i++ {
		v := i < len(valid) && valid[i]
		out[i] = v
		if !v {
			allValid = false
		}
	}
	if allValid {
		return nil
	}
	return out
}

// ============================================================================
// Access
// ============================================================================

// Name returns the series name.
func (s *Series) Name() string {
	return s.name
}

// DType returns the data type.
func (s *Series) DType() DType {
	return s.dtype
}

// Len returns the number of elements.
func (s *Series) Len() int {
	switch s.dtype {
	case Float64:
		return len(s.f64)
	case Float32:
		return len(s.f32)
	case Int64:
		return len(s.i64)
	case Int32:
		return len(s.i32)
	case Bool:
		return len(s.b)
	case String:
		return len(s.str)
	default:
		return 0
	}
}

// IsValid returns true if the value at the given index is valid (not null).
// Returns false if index is out of bounds.
func (s *Series) IsValid(index int) bool {
	if index < 0 || index >= s.Len() {
		return false
	}
	return s.valid == nil || s.valid[index]
}

// NullCount returns the number of null values.
func (s *Series) NullCount() int {
	if s.valid == nil {
		return 0
	}
	count := 0
	for _, v := range s.valid {
		if !v {
			count++
		}
	}
	return count
}

// HasNulls returns true if the series has any null values.
func (s *Series) HasNulls() bool {
	return s.valid != nil
}

// Get returns the value at the given index as an interface value,
// or nil for null and out-of-bounds slots.
func (s *Series) Get(index int) interface{} {
	if !s.IsValid(index) {
		return nil
	}
	switch s.dtype {
	case Float64:
		return s.f64[index]
	case Float32:
		return s.f32[index]
	case Int64:
		return s.i64[index]
	case Int32:
		return s.i32[index]
	case Bool:
		return s.b[index]
	case String:
		return s.str[index]
	default:
		return nil
	}
}

// GetFloat64 returns the value at the given index as float64.
// Integer and Float32 values are widened. Returns (0, false) for null,
// out-of-bounds, or non-numeric slots.
func (s *Series) GetFloat64(index int) (float64, bool) {
	if !s.IsValid(index) {
		return 0, false
	}
	switch s.dtype {
	case Float64:
		return s.f64[index], true
	case Float32:
		return float64(s.f32[index]), true
	case Int64:
		return float64(s.i64[index]), true
	case Int32:
		return float64(s.i32[index]), true
	default:
		return 0, false
	}
}

// GetInt64 returns the value at the given index as int64.
// Returns (0, false) for null, out-of-bounds, or non-integer slots.
func (s *Series) GetInt64(index int) (int64, bool) {
	if !s.IsValid(index) {
		return 0, false
	}
	switch s.dtype {
	case Int64:
		return s.i64[index], true
	case Int32:
		return int64(s.i32[index]), true
	default:
		return 0, false
	}
}

// GetString returns the value at the given index for a String series.
// Returns ("", false) for null, out-of-bounds, or non-string slots.
func (s *Series) GetString(index int) (string, bool) {
	if !s.IsValid(index) || s.dtype != String {
		return "", false
	}
	return s.str[index], true
}

// GetBool returns the value at the given index for a Bool series.
// Returns (false, false) for null, out-of-bounds, or non-bool slots.
func (s *Series) GetBool(index int) (bool, bool) {
	if !s.IsValid(index) || s.dtype != Bool {
		return false, false
	}
	return s.b[index], true
}

// Float64 returns a copy of the backing data for a Float64 series.
// Null slots hold the zero value; check IsValid for null awareness.
func (s *Series) Float64() []float64 {
	return append([]float64{}, s.f64...)
}

// Float32 returns a copy of the backing data for a Float32 series.
func (s *Series) Float32() []float32 {
	return append([]float32{}, s.f32...)
}

// Int64 returns a copy of the backing data for an Int64 series.
func (s *Series) Int64() []int64 {
	return append([]int64{}, s.i64...)
}

// Int32 returns a copy of the backing data for an Int32 series.
func (s *Series) Int32() []int32 {
	return append([]int32{}, s.i32...)
}

// Bool returns a copy of the backing data for a Bool series.
func (s *Series) Bool() []bool {
	return append([]bool{}, s.b...)
}

// Strings returns a copy of the backing data for a String series.
func (s *Series) Strings() []string {
	return append([]string{}, s.str...)
}

// Validity returns a copy of the validity mask, or nil when no nulls exist.
func (s *Series) Validity() []bool {
	if s.valid == nil {
		return nil
	}
	return append([]bool{}, s.valid...)
}

// asFloat64 widens any numeric series to float64 together with its validity
// mask. ok is false for non-numeric dtypes.
func (s *Series) asFloat64() (data []float64, valid []bool, ok bool) {
	n := s.Len()
	switch s.dtype {
	case Float64:
		data = append([]float64{}, s.f64...)
	case Float32:
		data = make([]float64, n)
		for i, v := range s.f32 {
			data[i] = float64(v)
		}
	case Int64:
		data = make([]float64, n)
		for i, v := range s.i64 {
			data[i] = float64(v)
		}
	case Int32:
		data = make([]float64, n)
		for i, v := range s.i32 {
			data[i] = float64(v)
		}
	default:
		return nil, nil, false
	}
	if s.valid != nil {
		valid = append([]bool{}, s.valid...)
	}
	return data, valid, true
}

// ============================================================================
// Transformation
// ============================================================================

// Rename returns a copy of the series with a new name.
// The backing data is shared, which is safe because Series are immutable.
func (s *Series) Rename(newName string) *Series {
	out := *s
	out.name = newName
	return &out
}

// Take returns a new series with the values at the given row indices,
// in index order.
func (s *Series) Take(indices []int) *Series {
	out := &Series{name: s.name, dtype: s.dtype}
	switch s.dtype {
	case Float64:
		out.f64 = make([]float64, len(indices))
		for i, idx := range indices {
			out.f64[i] = s.f64[idx]
		}
	case Float32:
		out.f32 = make([]float32, len(indices))
		for i, idx := range indices {
			out.f32[i] = s.f32[idx]
		}
	case Int64:
		out.i64 = make([]int64, len(indices))
		for i, idx := range indices {
			out.i64[i] = s.i64[idx]
		}
	case Int32:
		out.i32 = make([]int32, len(indices))
		for i, idx := range indices {
			out.i32[i] = s.i32[idx]
		}
	case Bool:
		out.b = make([]bool, len(indices))
		for i, idx := range indices {
			out.b[i] = s.b[idx]
		}
	case String:
		out.str = make([]string, len(indices))
		for i, idx := range indices {
			out.str[i] = s.str[idx]
		}
	}
	if s.valid != nil {
		valid := make([]bool, len(indices))
		for i, idx := range indices {
			valid[i] = s.valid[idx]
		}
		out.valid = normalizeValidity(valid, len(indices))
	}
	return out
}

// Filter returns a new Series with only elements where mask is true.
func (s *Series) Filter(mask []bool) *Series {
	indices := make([]int, 0, len(mask))
	n := s.Len()
	for i, keep := range mask {
		if i >= n {
			break
		}
		if keep {
			indices = append(indices, i)
		}
	}
	return s.Take(indices)
}

// Slice returns a new Series containing elements [start, end).
func (s *Series) Slice(start, end int) *Series {
	if start < 0 {
		start = 0
	}
	if end > s.Len() {
		end = s.Len()
	}
	if start >= end {
		return &Series{name: s.name, dtype: s.dtype}
	}
	indices := make([]int, end-start)
	for i := range indices {
		indices[i] = start + i
	}
	return s.Take(indices)
}

// Head returns a new Series with the first n elements.
func (s *Series) Head(n int) *Series {
	if n < 0 {
		n = 0
	}
	return s.Slice(0, n)
}

// Tail returns a new Series with the last n elements.
func (s *Series) Tail(n int) *Series {
	if n < 0 {
		n = 0
	}
	if n > s.Len() {
		n = s.Len()
	}
	return s.Slice(s.Len()-n, s.Len())
}

// ============================================================================
// Reductions
// ============================================================================

// Sum returns the sum of all values, skipping nulls.
func (s *Series) Sum() float64 {
	data, valid, ok := s.asFloat64()
	if !ok {
		return 0
	}
	if valid == nil {
		return ParallelReduceFloat64(data, 0, func(a, b float64) float64 { return a + b })
	}
	sum := 0.0
	for i, v := range data {
		if valid[i] {
			sum += v
		}
	}
	return sum
}

// Mean returns the arithmetic mean of all values, skipping nulls.
func (s *Series) Mean() float64 {
	data, valid, ok := s.asFloat64()
	if !ok {
		return 0
	}
	sum := 0.0
	count := 0
	for i, v := range data {
		if valid == nil || valid[i] {
			sum += v
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// Min returns the minimum value, skipping nulls.
func (s *Series) Min() float64 {
	data, valid, ok := s.asFloat64()
	if !ok {
		return 0
	}
	first := true
	min := 0.0
	for i, v := range data {
		if valid != nil && !valid[i] {
			continue
		}
		if first || v < min {
			min = v
			first = false
		}
	}
	return min
}

// Max returns the maximum value, skipping nulls.
func (s *Series) Max() float64 {
	data, valid, ok := s.asFloat64()
	if !ok {
		return 0
	}
	first := true
	max := 0.0
	for i, v := range data {
		if valid != nil && !valid[i] {
			continue
		}
		if first || v > max {
			max = v
			first = false
		}
	}
	return max
}

// Count returns the number of non-null values.
func (s *Series) Count() int {
	return s.Len() - s.NullCount()
}

// ============================================================================
// Builders
// ============================================================================

// seriesBuilder accumulates values of one dtype, null-aware. Used by the
// grouped aggregator, the reshapers and the IO readers.
type seriesBuilder struct {
	name  string
	dtype DType

	f64 []float64
	i64 []int64
	b   []bool
	str []string

	valid    []bool
	hasNulls bool
}

func newSeriesBuilder(name string, dtype DType, capacity int) *seriesBuilder {
	b := &seriesBuilder{name: name, dtype: dtype}
	b.valid = make([]bool, 0, capacity)
	switch dtype {
	case Float64:
		b.f64 = make([]float64, 0, capacity)
	case Int64:
		b.i64 = make([]int64, 0, capacity)
	case Bool:
		b.b = make([]bool, 0, capacity)
	case String:
		b.str = make([]string, 0, capacity)
	}
	return b
}

func (b *seriesBuilder) appendNull() {
	b.hasNulls = true
	b.valid = append(b.valid, false)
	switch b.dtype {
	case Float64:
		b.f64 = append(b.f64, 0)
	case Int64:
		b.i64 = append(b.i64, 0)
	case Bool:
		b.b = append(b.b, false)
	case String:
		b.str = append(b.str, "")
	}
}

func (b *seriesBuilder) appendFloat64(v float64) {
	b.valid = append(b.valid, true)
	b.f64 = append(b.f64, v)
}

func (b *seriesBuilder) appendInt64(v int64) {
	b.valid = append(b.valid, true)
	b.i64 = append(b.i64, v)
}

func (b *seriesBuilder) appendBool(v bool) {
	b.valid = append(b.valid, true)
	b.b = append(b.b, v)
}

func (b *seriesBuilder) appendString(v string) {
	b.valid = append(b.valid, true)
	b.str = append(b.str, v)
}

// appendValue appends an interface value, widening numerics to the builder
// dtype and stringifying everything for String builders. nil appends a null.
func (b *seriesBuilder) appendValue(v interface{}) {
	if v == nil {
		b.appendNull()
		return
	}
	switch b.dtype {
	case Float64:
		if f, ok := toFloat64Value(v); ok {
			b.appendFloat64(f)
			return
		}
	case Int64:
		if i, ok := toInt64Value(v); ok {
			b.appendInt64(i)
			return
		}
	case Bool:
		if bv, ok := v.(bool); ok {
			b.appendBool(bv)
			return
		}
	case String:
		b.appendString(formatValue(v))
		return
	}
	b.appendNull()
}

func (b *seriesBuilder) series() *Series {
	switch b.dtype {
	case Float64:
		if b.hasNulls {
			return NewSeriesFloat64WithNulls(b.name, b.f64, b.valid)
		}
		return NewSeriesFloat64(b.name, b.f64)
	case Int64:
		if b.hasNulls {
			return NewSeriesInt64WithNulls(b.name, b.i64, b.valid)
		}
		return NewSeriesInt64(b.name, b.i64)
	case Bool:
		if b.hasNulls {
			return NewSeriesBoolWithNulls(b.name, b.b, b.valid)
		}
		return NewSeriesBool(b.name, b.b)
	default:
		if b.hasNulls {
			return NewSeriesStringWithNulls(b.name, b.str, b.valid)
		}
		return NewSeriesString(b.name, b.str)
	}
}

func toFloat64Value(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int64:
		return float64(x), true
	case int32:
		return float64(x), true
	case int:
		return float64(x), true
	default:
		return 0, false
	}
}

func toInt64Value(v interface{}) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case int32:
		return int64(x), true
	case int:
		return int64(x), true
	case float64:
		if x == float64(int64(x)) {
			return int64(x), true
		}
		return 0, false
	default:
		return 0, false
	}
}

func formatValue(v interface{}) string {
	switch val := v.(type) {
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case int64:
		return strconv.FormatInt(val, 10)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case bool:
		return strconv.FormatBool(val)
	case string:
		return val
	default:
		return fmt.Sprintf("%v", val)
	}
}
