package lagoon

import (
	"fmt"
)

// ============================================================================
// Plan Executor
// ============================================================================

// executePlan executes a logical plan and returns the resulting DataFrame
func executePlan(plan *LogicalPlan) (*DataFrame, error) {
	if plan == nil {
		return NewDataFrame()
	}

	switch plan.Op {
	case PlanScan:
		return executeScan(plan)

	case PlanScanCSV:
		return executeScanCSV(plan)

	case PlanScanParquet:
		return executeScanParquet(plan)

	case PlanProject:
		return executeProject(plan)

	case PlanFilter:
		return executeFilter(plan)

	case PlanWithColumn:
		return executeWithColumn(plan)

	case PlanGroupBy:
		return executeGroupBy(plan)

	case PlanSort:
		return executeSort(plan)

	case PlanLimit:
		return executeLimit(plan)

	case PlanTail:
		return executeTail(plan)

	case PlanDistinct:
		return executeDistinct(plan)

	case PlanPivot:
		return executePivot(plan)

	case PlanMelt:
		return executeMelt(plan)

	default:
		return nil, fmt.Errorf("unknown plan operation: %v", plan.Op)
	}
}

// ============================================================================
// Scan Operations
// ============================================================================

func executeScan(plan *LogicalPlan) (*DataFrame, error) {
	if plan.Data == nil {
		return NewDataFrame()
	}
	return plan.Data, nil
}

func executeScanCSV(plan *LogicalPlan) (*DataFrame, error) {
	return ReadCSV(plan.SourcePath, plan.CSVOpts...)
}

func executeScanParquet(plan *LogicalPlan) (*DataFrame, error) {
	return ReadParquet(plan.SourcePath, plan.ParquetOpts...)
}

// ============================================================================
// Projection
// ============================================================================

func executeProject(plan *LogicalPlan) (*DataFrame, error) {
	df, err := executePlan(plan.Input)
	if err != nil {
		return nil, err
	}

	columns := make([]*Series, 0, len(plan.Projections))
	for _, expr := range plan.Projections {
		s, err := evaluateExpr(expr, df)
		if err != nil {
			return nil, err
		}
		columns = append(columns, s)
	}
	return NewDataFrame(columns...)
}

// ============================================================================
// Filter
// ============================================================================

func executeFilter(plan *LogicalPlan) (*DataFrame, error) {
	df, err := executePlan(plan.Input)
	if err != nil {
		return nil, err
	}

	mask, err := evaluatePredicate(plan.Predicate, df)
	if err != nil {
		return nil, err
	}
	return df.Filter(mask), nil
}

// ============================================================================
// WithColumn
// ============================================================================

func executeWithColumn(plan *LogicalPlan) (*DataFrame, error) {
	df, err := executePlan(plan.Input)
	if err != nil {
		return nil, err
	}

	s, err := evaluateExpr(plan.NewColExpr, df)
	if err != nil {
		return nil, err
	}
	return df.WithColumn(s)
}

// ============================================================================
// GroupBy
// ============================================================================

func executeGroupBy(plan *LogicalPlan) (*DataFrame, error) {
	df, err := executePlan(plan.Input)
	if err != nil {
		return nil, err
	}

	gb, err := df.GroupBy(plan.GroupByKeys...)
	if err != nil {
		return nil, err
	}
	if len(plan.Aggregations) == 0 {
		return gb.Count()
	}
	specs := make([]AggSpec, 0, len(plan.Aggregations))
	for _, expr := range plan.Aggregations {
		spec, err := exprToAggSpec(expr)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return gb.Agg(specs...)
}

// exprToAggSpec lowers an aggregation expression tree into an AggSpec.
func exprToAggSpec(expr Expr) (AggSpec, error) {
	switch e := expr.(type) {
	case *AliasExpr:
		spec, err := exprToAggSpec(e.Inner)
		if err != nil {
			return AggSpec{}, err
		}
		return spec.Alias(e.AliasName), nil
	case *AggExpr:
		return e.spec()
	default:
		return AggSpec{}, fmt.Errorf("group by requires aggregation expressions, got %s", expr)
	}
}

// ============================================================================
// Sort / Limit / Tail / Distinct
// ============================================================================

func executeSort(plan *LogicalPlan) (*DataFrame, error) {
	df, err := executePlan(plan.Input)
	if err != nil {
		return nil, err
	}
	return df.SortBy(plan.SortColumns, plan.SortAscending)
}

func executeLimit(plan *LogicalPlan) (*DataFrame, error) {
	df, err := executePlan(plan.Input)
	if err != nil {
		return nil, err
	}
	return df.Head(plan.Limit), nil
}

func executeTail(plan *LogicalPlan) (*DataFrame, error) {
	df, err := executePlan(plan.Input)
	if err != nil {
		return nil, err
	}
	return df.Tail(plan.TailRows), nil
}

func executeDistinct(plan *LogicalPlan) (*DataFrame, error) {
	df, err := executePlan(plan.Input)
	if err != nil {
		return nil, err
	}
	return df.Distinct(), nil
}

// ============================================================================
// Reshape
// ============================================================================

func executePivot(plan *LogicalPlan) (*DataFrame, error) {
	df, err := executePlan(plan.Input)
	if err != nil {
		return nil, err
	}
	return df.Pivot(plan.PivotOpts)
}

func executeMelt(plan *LogicalPlan) (*DataFrame, error) {
	df, err := executePlan(plan.Input)
	if err != nil {
		return nil, err
	}
	return df.Melt(plan.MeltOpts)
}

// ============================================================================
// Expression Evaluation
// ============================================================================

// evaluateExpr evaluates an expression against a DataFrame, producing a
// Series of df.Height() rows (aggregations produce a single row).
func evaluateExpr(expr Expr, df *DataFrame) (*Series, error) {
	switch e := expr.(type) {
	case *ColExpr:
		return df.ColumnByName(e.Name)

	case *LitExpr:
		return createLiteralSeries(exprOutputName(e), e.Value, df.Height())

	case *AliasExpr:
		s, err := evaluateExpr(e.Inner, df)
		if err != nil {
			return nil, err
		}
		return s.Rename(e.AliasName), nil

	case *BinaryOpExpr:
		return evaluateBinaryOp(e, df)

	case *AggExpr:
		return evaluateFrameAgg(e, df)

	case *IsNullExpr:
		s, err := evaluateExpr(e.Input, df)
		if err != nil {
			return nil, err
		}
		mask := make([]bool, s.Len())
		for i := range mask {
			mask[i] = !s.IsValid(i)
		}
		return NewSeriesBool(exprOutputName(expr), mask), nil

	case *IsNotNullExpr:
		s, err := evaluateExpr(e.Input, df)
		if err != nil {
			return nil, err
		}
		mask := make([]bool, s.Len())
		for i := range mask {
			mask[i] = s.IsValid(i)
		}
		return NewSeriesBool(exprOutputName(expr), mask), nil

	case *FillNullExpr:
		return evaluateFillNull(e, df)

	default:
		return nil, fmt.Errorf("cannot evaluate expression: %s", expr)
	}
}

// evaluateFrameAgg reduces a whole column to a single-row series.
func evaluateFrameAgg(e *AggExpr, df *DataFrame) (*Series, error) {
	col, ok := e.Input.(*ColExpr)
	if !ok {
		return nil, fmt.Errorf("aggregation input must be a column reference, got %s", e.Input)
	}
	s, err := df.ColumnByName(col.Name)
	if err != nil {
		return nil, err
	}
	name := exprOutputName(e)
	switch e.AggType {
	case AggTypeCount:
		return NewSeriesInt64(name, []int64{int64(s.Count())}), nil
	case AggTypeFirst, AggTypeLast:
		b := newSeriesBuilder(name, narrowToWide(s.DType()), 1)
		picked := -1
		for i := 0; i < s.Len(); i++ {
			if !s.IsValid(i) {
				continue
			}
			picked = i
			if e.AggType == AggTypeFirst {
				break
			}
		}
		if picked < 0 {
			b.appendNull()
		} else {
			b.appendValue(s.Get(picked))
		}
		return b.series(), nil
	}
	if err := checkAggDType(e.AggType.kind(), s); err != nil {
		return nil, err
	}
	if s.Count() == 0 {
		b := newSeriesBuilder(name, Float64, 1)
		b.appendNull()
		return b.series(), nil
	}
	var v float64
	switch e.AggType {
	case AggTypeSum:
		v = s.Sum()
	case AggTypeMean:
		v = s.Mean()
	case AggTypeMin:
		v = s.Min()
	case AggTypeMax:
		v = s.Max()
	}
	return NewSeriesFloat64(name, []float64{v}), nil
}

func narrowToWide(d DType) DType {
	switch d {
	case Float32:
		return Float64
	case Int32:
		return Int64
	default:
		return d
	}
}

func evaluateFillNull(e *FillNullExpr, df *DataFrame) (*Series, error) {
	input, err := evaluateExpr(e.Input, df)
	if err != nil {
		return nil, err
	}
	if !input.HasNulls() {
		return input, nil
	}
	value, err := evaluateExpr(e.Value, df)
	if err != nil {
		return nil, err
	}
	b := newSeriesBuilder(input.Name(), narrowToWide(input.DType()), input.Len())
	for i := 0; i < input.Len(); i++ {
		if input.IsValid(i) {
			b.appendValue(input.Get(i))
			continue
		}
		// Length-1 values broadcast; equal-length values align by row.
		vi := i
		if value.Len() == 1 {
			vi = 0
		}
		if value.IsValid(vi) {
			b.appendValue(value.Get(vi))
		} else {
			b.appendNull()
		}
	}
	return b.series(), nil
}

// evaluateBinaryOp evaluates arithmetic, comparison and logical operators.
// A missing value on either side makes the result missing.
func evaluateBinaryOp(expr *BinaryOpExpr, df *DataFrame) (*Series, error) {
	left, err := evaluateExpr(expr.Left, df)
	if err != nil {
		return nil, err
	}
	right, err := evaluateExpr(expr.Right, df)
	if err != nil {
		return nil, err
	}
	if left.Len() != right.Len() && left.Len() != 1 && right.Len() != 1 {
		return nil, fmt.Errorf("length mismatch in %s: %d vs %d", expr.Op, left.Len(), right.Len())
	}

	name := exprOutputName(expr.Left)
	n := left.Len()
	if right.Len() > n {
		n = right.Len()
	}

	switch expr.Op {
	case OpAdd, OpSub, OpMul, OpDiv:
		return evaluateArithmetic(name, expr.Op, left, right, n)
	case OpAnd, OpOr:
		return evaluateLogical(name, expr.Op, left, right, n)
	default:
		return evaluateComparison(name, expr.Op, left, right, n)
	}
}

func broadcastIndex(s *Series, i int) int {
	if s.Len() == 1 {
		return 0
	}
	return i
}

func evaluateArithmetic(name string, op BinaryOp, left, right *Series, n int) (*Series, error) {
	if !left.DType().IsNumeric() {
		return nil, &TypeMismatchError{Column: left.Name(), DType: left.DType(), Op: op.String()}
	}
	if !right.DType().IsNumeric() {
		return nil, &TypeMismatchError{Column: right.Name(), DType: right.DType(), Op: op.String()}
	}
	// Integer inputs stay integer except under division
	intOut := left.DType().IsInteger() && right.DType().IsInteger() && op != OpDiv
	dtype := Float64
	if intOut {
		dtype = Int64
	}
	b := newSeriesBuilder(name, dtype, n)
	for i := 0; i < n; i++ {
		lv, lok := left.GetFloat64(broadcastIndex(left, i))
		rv, rok := right.GetFloat64(broadcastIndex(right, i))
		if !lok || !rok {
			b.appendNull()
			continue
		}
		var v float64
		switch op {
		case OpAdd:
			v = lv + rv
		case OpSub:
			v = lv - rv
		case OpMul:
			v = lv * rv
		case OpDiv:
			if rv == 0 {
				b.appendNull()
				continue
			}
			v = lv / rv
		}
		if intOut {
			b.appendInt64(int64(v))
		} else {
			b.appendFloat64(v)
		}
	}
	return b.series(), nil
}

func evaluateLogical(name string, op BinaryOp, left, right *Series, n int) (*Series, error) {
	if left.DType() != Bool {
		return nil, &TypeMismatchError{Column: left.Name(), DType: left.DType(), Op: op.String()}
	}
	if right.DType() != Bool {
		return nil, &TypeMismatchError{Column: right.Name(), DType: right.DType(), Op: op.String()}
	}
	b := newSeriesBuilder(name, Bool, n)
	for i := 0; i < n; i++ {
		lv, lok := left.GetBool(broadcastIndex(left, i))
		rv, rok := right.GetBool(broadcastIndex(right, i))
		if !lok || !rok {
			b.appendNull()
			continue
		}
		if op == OpAnd {
			b.appendBool(lv && rv)
		} else {
			b.appendBool(lv || rv)
		}
	}
	return b.series(), nil
}

func evaluateComparison(name string, op BinaryOp, left, right *Series, n int) (*Series, error) {
	stringCmp := left.DType() == String && right.DType() == String
	if !stringCmp {
		if !left.DType().IsNumeric() {
			return nil, &TypeMismatchError{Column: left.Name(), DType: left.DType(), Op: op.String()}
		}
		if !right.DType().IsNumeric() {
			return nil, &TypeMismatchError{Column: right.Name(), DType: right.DType(), Op: op.String()}
		}
	}
	b := newSeriesBuilder(name, Bool, n)
	for i := 0; i < n; i++ {
		var cmp int
		ok := true
		if stringCmp {
			lv, lok := left.GetString(broadcastIndex(left, i))
			rv, rok := right.GetString(broadcastIndex(right, i))
			ok = lok && rok
			switch {
			case lv < rv:
				cmp = -1
			case lv > rv:
				cmp = 1
			}
		} else {
			lv, lok := left.GetFloat64(broadcastIndex(left, i))
			rv, rok := right.GetFloat64(broadcastIndex(right, i))
			ok = lok && rok
			switch {
			case lv < rv:
				cmp = -1
			case lv > rv:
				cmp = 1
			}
		}
		if !ok {
			b.appendNull()
			continue
		}
		b.appendBool(compareResult(cmp, op))
	}
	return b.series(), nil
}

func compareResult(cmp int, op BinaryOp) bool {
	switch op {
	case OpGt:
		return cmp > 0
	case OpLt:
		return cmp < 0
	case OpGte:
		return cmp >= 0
	case OpLte:
		return cmp <= 0
	case OpEq:
		return cmp == 0
	case OpNeq:
		return cmp != 0
	default:
		return false
	}
}

// evaluatePredicate evaluates an expression into a row mask. Missing results
// exclude the row.
func evaluatePredicate(expr Expr, df *DataFrame) ([]bool, error) {
	s, err := evaluateExpr(expr, df)
	if err != nil {
		return nil, err
	}
	if s.DType() != Bool {
		return nil, &TypeMismatchError{Column: s.Name(), DType: s.DType(), Op: "filter"}
	}
	mask := make([]bool, df.Height())
	for i := range mask {
		v, ok := s.GetBool(broadcastIndex(s, i))
		mask[i] = ok && v
	}
	return mask, nil
}

// createLiteralSeries broadcasts a scalar to a column.
func createLiteralSeries(name string, value interface{}, length int) (*Series, error) {
	switch v := value.(type) {
	case float64, float32:
		f, _ := toFloat64Value(v)
		data := make([]float64, length)
		for i := range data {
			data[i] = f
		}
		return NewSeriesFloat64(name, data), nil
	case int, int32, int64:
		iv, _ := toInt64Value(v)
		data := make([]int64, length)
		for i := range data {
			data[i] = iv
		}
		return NewSeriesInt64(name, data), nil
	case bool:
		data := make([]bool, length)
		for i := range data {
			data[i] = v
		}
		return NewSeriesBool(name, data), nil
	case string:
		data := make([]string, length)
		for i := range data {
			data[i] = v
		}
		return NewSeriesString(name, data), nil
	case nil:
		b := newSeriesBuilder(name, Float64, length)
		for i := 0; i < length; i++ {
			b.appendNull()
		}
		return b.series(), nil
	default:
		return nil, fmt.Errorf("unsupported literal type %T", value)
	}
}
