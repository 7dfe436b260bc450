package lagoon

// Grouped aggregation. Rows are partitioned by the values of one or more key
// columns and each non-key column is reduced per group. Groups appear in the
// output in the order their key combination first appears in the input, and a
// missing key value forms a group of its own, distinct from every real value.

// NullPolicy controls how an aggregation treats missing values.
type NullPolicy int

const (
	// NullSkip drops missing values before reducing. A group with no valid
	// values yields a missing result, except Count which yields 0.
	NullSkip NullPolicy = iota
	// NullPropagate makes the result missing as soon as the group contains
	// any missing value.
	NullPropagate
)

// AggKind identifies a reduction.
type AggKind int

const (
	AggKindSum AggKind = iota
	AggKindMean
	AggKindMin
	AggKindMax
	AggKindCount
	AggKindFirst
	AggKindLast
)

func (k AggKind) String() string {
	switch k {
	case AggKindSum:
		return "sum"
	case AggKindMean:
		return "mean"
	case AggKindMin:
		return "min"
	case AggKindMax:
		return "max"
	case AggKindCount:
		return "count"
	case AggKindFirst:
		return "first"
	case AggKindLast:
		return "last"
	default:
		return "unknown"
	}
}

// AggSpec describes one reduction over one column. Build one with AggSum,
// AggMean, AggMin, AggMax, AggCount, AggFirst or AggLast and refine it with
// Alias, Skip or Propagate.
type AggSpec struct {
	column string
	kind   AggKind
	alias  string
	policy NullPolicy
}

// AggSum sums a numeric column per group.
func AggSum(column string) AggSpec { return AggSpec{column: column, kind: AggKindSum} }

// AggMean averages a numeric column per group.
func AggMean(column string) AggSpec { return AggSpec{column: column, kind: AggKindMean} }

// AggMin takes the per-group minimum. Numeric columns compare numerically,
// string columns lexicographically.
func AggMin(column string) AggSpec { return AggSpec{column: column, kind: AggKindMin} }

// AggMax takes the per-group maximum.
func AggMax(column string) AggSpec { return AggSpec{column: column, kind: AggKindMax} }

// AggCount counts valid values per group.
func AggCount(column string) AggSpec { return AggSpec{column: column, kind: AggKindCount} }

// AggFirst takes the first value per group in input order.
func AggFirst(column string) AggSpec { return AggSpec{column: column, kind: AggKindFirst} }

// AggLast takes the last value per group in input order.
func AggLast(column string) AggSpec { return AggSpec{column: column, kind: AggKindLast} }

// Alias sets the output column name, replacing the default "<column>_<agg>".
func (a AggSpec) Alias(name string) AggSpec {
	a.alias = name
	return a
}

// Skip makes the reduction drop missing values. This is the default.
func (a AggSpec) Skip() AggSpec {
	a.policy = NullSkip
	return a
}

// Propagate makes the result missing when the group holds any missing value.
func (a AggSpec) Propagate() AggSpec {
	a.policy = NullPropagate
	return a
}

func (a AggSpec) outputName() string {
	if a.alias != "" {
		return a.alias
	}
	return a.column + "_" + a.kind.String()
}

// GroupBy is the result of partitioning a DataFrame by key columns.
type GroupBy struct {
	df   *DataFrame
	keys []string

	// groups[i] holds the input row indices of the i-th group, in input
	// order. Group order is first appearance of the key combination.
	groups    [][]int
	firstRows []int
}

// GroupBy partitions the DataFrame by the given key columns.
func (df *DataFrame) GroupBy(keys ...string) (*GroupBy, error) {
	if len(keys) == 0 {
		return nil, errNoGroupKeys()
	}
	for _, key := range keys {
		if !df.HasColumn(key) {
			return nil, errUnknownColumn(key)
		}
	}
	gb := &GroupBy{df: df, keys: keys}
	index := make(map[string]int, 64)
	for row := 0; row < df.Height(); row++ {
		key := df.encodeRowKey(keys, row)
		gi, seen := index[key]
		if !seen {
			gi = len(gb.groups)
			index[key] = gi
			gb.groups = append(gb.groups, nil)
			gb.firstRows = append(gb.firstRows, row)
		}
		gb.groups[gi] = append(gb.groups[gi], row)
	}
	return gb, nil
}

// NumGroups returns the number of distinct key combinations.
func (gb *GroupBy) NumGroups() int {
	return len(gb.groups)
}

// Keys returns the grouping column names.
func (gb *GroupBy) Keys() []string {
	return append([]string{}, gb.keys...)
}

// Agg reduces every group with the given specs. The output holds one row per
// group: the key columns first, then one column per spec.
func (gb *GroupBy) Agg(specs ...AggSpec) (*DataFrame, error) {
	if len(specs) == 0 {
		return nil, errNoAggregations()
	}
	columns := make([]*Series, 0, len(gb.keys)+len(specs))

	// Key columns carry the group's first-appearance value.
	keyFrame := gb.df.Take(gb.firstRows)
	for _, key := range gb.keys {
		s, err := keyFrame.ColumnByName(key)
		if err != nil {
			return nil, err
		}
		columns = append(columns, s)
	}

	// Validate every spec up front so a bad request leaves no partial work.
	sources := make([]*Series, len(specs))
	for i, spec := range specs {
		s, err := gb.df.ColumnByName(spec.column)
		if err != nil {
			return nil, err
		}
		if err := checkAggDType(spec.kind, s); err != nil {
			return nil, err
		}
		sources[i] = s
	}
	seen := make(map[string]bool, len(gb.keys)+len(specs))
	for _, key := range gb.keys {
		seen[key] = true
	}
	for _, spec := range specs {
		name := spec.outputName()
		if seen[name] {
			return nil, errDuplicateOutput(name)
		}
		seen[name] = true
	}

	aggColumns := ParallelBuildColumns(len(specs), func(i int) *Series {
		return gb.aggregateColumn(specs[i], sources[i])
	})
	columns = append(columns, aggColumns...)
	return NewDataFrame(columns...)
}

// Count returns one row per group with the key columns and a "count" column
// holding the group sizes, missing rows included.
func (gb *GroupBy) Count() (*DataFrame, error) {
	columns := make([]*Series, 0, len(gb.keys)+1)
	keyFrame := gb.df.Take(gb.firstRows)
	for _, key := range gb.keys {
		s, err := keyFrame.ColumnByName(key)
		if err != nil {
			return nil, err
		}
		columns = append(columns, s)
	}
	counts := make([]int64, len(gb.groups))
	for i, rows := range gb.groups {
		counts[i] = int64(len(rows))
	}
	columns = append(columns, NewSeriesInt64("count", counts))
	return NewDataFrame(columns...)
}

// Sum aggregates the sum of one column per group.
func (gb *GroupBy) Sum(column string) (*DataFrame, error) { return gb.Agg(AggSum(column)) }

// Mean aggregates the mean of one column per group.
func (gb *GroupBy) Mean(column string) (*DataFrame, error) { return gb.Agg(AggMean(column)) }

// Min aggregates the minimum of one column per group.
func (gb *GroupBy) Min(column string) (*DataFrame, error) { return gb.Agg(AggMin(column)) }

// Max aggregates the maximum of one column per group.
func (gb *GroupBy) Max(column string) (*DataFrame, error) { return gb.Agg(AggMax(column)) }

// First picks the first value of one column per group.
func (gb *GroupBy) First(column string) (*DataFrame, error) { return gb.Agg(AggFirst(column)) }

// Last picks the last value of one column per group.
func (gb *GroupBy) Last(column string) (*DataFrame, error) { return gb.Agg(AggLast(column)) }

// Groups returns one DataFrame per group, in group order.
func (gb *GroupBy) Groups() []*DataFrame {
	out := make([]*DataFrame, len(gb.groups))
	for i, rows := range gb.groups {
		out[i] = gb.df.Take(rows)
	}
	return out
}

func checkAggDType(kind AggKind, s *Series) error {
	switch kind {
	case AggKindCount, AggKindFirst, AggKindLast:
		return nil
	case AggKindMin, AggKindMax:
		if s.DType().IsNumeric() || s.DType() == String {
			return nil
		}
	default:
		if s.DType().IsNumeric() {
			return nil
		}
	}
	return &TypeMismatchError{Column: s.Name(), DType: s.DType(), Op: kind.String()}
}

// aggregateColumn reduces one source column for every group.
func (gb *GroupBy) aggregateColumn(spec AggSpec, src *Series) *Series {
	name := spec.outputName()
	switch spec.kind {
	case AggKindCount:
		return gb.reduceCount(name, spec.policy, src)
	case AggKindFirst, AggKindLast:
		return gb.reducePicked(name, spec, src)
	case AggKindMin, AggKindMax:
		if src.DType() == String {
			return gb.reduceStringExtreme(name, spec, src)
		}
		fallthrough
	default:
		return gb.reduceNumeric(name, spec, src)
	}
}

func (gb *GroupBy) reduceCount(name string, policy NullPolicy, src *Series) *Series {
	b := newSeriesBuilder(name, Int64, len(gb.groups))
	for _, rows := range gb.groups {
		var count int64
		propagated := false
		for _, row := range rows {
			if !src.IsValid(row) {
				if policy == NullPropagate {
					propagated = true
					break
				}
				continue
			}
			count++
		}
		if propagated {
			b.appendNull()
		} else {
			b.appendInt64(count)
		}
	}
	return b.series()
}

func (gb *GroupBy) reducePicked(name string, spec AggSpec, src *Series) *Series {
	dtype := src.DType()
	switch dtype {
	case Float32:
		dtype = Float64
	case Int32:
		dtype = Int64
	}
	b := newSeriesBuilder(name, dtype, len(gb.groups))
	for _, rows := range gb.groups {
		picked := -1
		propagated := false
		for _, row := range rows {
			if !src.IsValid(row) {
				if spec.policy == NullPropagate {
					propagated = true
					break
				}
				continue
			}
			if spec.kind == AggKindFirst {
				picked = row
				break
			}
			picked = row
		}
		if propagated || picked < 0 {
			b.appendNull()
		} else {
			b.appendValue(src.Get(picked))
		}
	}
	return b.series()
}

func (gb *GroupBy) reduceStringExtreme(name string, spec AggSpec, src *Series) *Series {
	b := newSeriesBuilder(name, String, len(gb.groups))
	for _, rows := range gb.groups {
		best := ""
		found := false
		propagated := false
		for _, row := range rows {
			v, ok := src.GetString(row)
			if !ok {
				if spec.policy == NullPropagate {
					propagated = true
					break
				}
				continue
			}
			if !found {
				best = v
				found = true
				continue
			}
			if spec.kind == AggKindMin && v < best {
				best = v
			}
			if spec.kind == AggKindMax && v > best {
				best = v
			}
		}
		if propagated || !found {
			b.appendNull()
		} else {
			b.appendString(best)
		}
	}
	return b.series()
}

func (gb *GroupBy) reduceNumeric(name string, spec AggSpec, src *Series) *Series {
	if src.DType().IsInteger() &&
		(spec.kind == AggKindSum || spec.kind == AggKindMin || spec.kind == AggKindMax) {
		return gb.reduceInt64(name, spec, src)
	}
	b := newSeriesBuilder(name, Float64, len(gb.groups))
	for _, rows := range gb.groups {
		var sum, min, max float64
		var count int64
		propagated := false
		for _, row := range rows {
			v, ok := src.GetFloat64(row)
			if !ok {
				if spec.policy == NullPropagate {
					propagated = true
					break
				}
				continue
			}
			if count == 0 {
				min, max = v, v
			} else {
				if v < min {
					min = v
				}
				if v > max {
					max = v
				}
			}
			sum += v
			count++
		}
		if propagated || count == 0 {
			b.appendNull()
			continue
		}
		switch spec.kind {
		case AggKindSum:
			b.appendFloat64(sum)
		case AggKindMean:
			b.appendFloat64(sum / float64(count))
		case AggKindMin:
			b.appendFloat64(min)
		case AggKindMax:
			b.appendFloat64(max)
		}
	}
	return b.series()
}

// reduceInt64 accumulates integer sums and extremes in int64. Routing through
// float64 would round values beyond the 53-bit mantissa.
func (gb *GroupBy) reduceInt64(name string, spec AggSpec, src *Series) *Series {
	b := newSeriesBuilder(name, Int64, len(gb.groups))
	for _, rows := range gb.groups {
		var sum, min, max int64
		var count int64
		propagated := false
		for _, row := range rows {
			v, ok := src.GetInt64(row)
			if !ok {
				if spec.policy == NullPropagate {
					propagated = true
					break
				}
				continue
			}
			if count == 0 {
				min, max = v, v
			} else {
				if v < min {
					min = v
				}
				if v > max {
					max = v
				}
			}
			sum += v
			count++
		}
		if propagated || count == 0 {
			b.appendNull()
			continue
		}
		switch spec.kind {
		case AggKindSum:
			b.appendInt64(sum)
		case AggKindMin:
			b.appendInt64(min)
		case AggKindMax:
			b.appendInt64(max)
		}
	}
	return b.series()
}
