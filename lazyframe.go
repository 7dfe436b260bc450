package lagoon

import (
	"fmt"
)

// LazyFrame represents a lazy DataFrame that builds a query plan.
// Operations on LazyFrame don't execute immediately - they build a plan
// that gets optimized and executed when Collect() is called
type LazyFrame struct {
	plan *LogicalPlan
}

// ============================================================================
// LazyFrame Creation
// ============================================================================

// Lazy converts a DataFrame to a LazyFrame
func (df *DataFrame) Lazy() *LazyFrame {
	return &LazyFrame{
		plan: &LogicalPlan{
			Op:   PlanScan,
			Data: df,
		},
	}
}

// ScanCSV creates a LazyFrame that will read a CSV file when collected
func ScanCSV(path string, opts ...CSVReadOptions) *LazyFrame {
	return &LazyFrame{
		plan: &LogicalPlan{
			Op:         PlanScanCSV,
			SourcePath: path,
			CSVOpts:    opts,
		},
	}
}

// ScanParquet creates a LazyFrame that will read a Parquet file when collected
func ScanParquet(path string, opts ...ParquetReadOptions) *LazyFrame {
	return &LazyFrame{
		plan: &LogicalPlan{
			Op:          PlanScanParquet,
			SourcePath:  path,
			ParquetOpts: opts,
		},
	}
}

// ============================================================================
// LazyFrame Operations
// ============================================================================

// Select projects specific columns or expressions
func (lf *LazyFrame) Select(exprs ...Expr) *LazyFrame {
	return &LazyFrame{
		plan: &LogicalPlan{
			Op:          PlanProject,
			Input:       lf.plan,
			Projections: exprs,
		},
	}
}

// Filter applies a filter predicate
func (lf *LazyFrame) Filter(predicate Expr) *LazyFrame {
	return &LazyFrame{
		plan: &LogicalPlan{
			Op:        PlanFilter,
			Input:     lf.plan,
			Predicate: predicate,
		},
	}
}

// WithColumn adds or replaces a column
func (lf *LazyFrame) WithColumn(name string, expr Expr) *LazyFrame {
	aliased := &AliasExpr{Inner: expr, AliasName: name}
	return &LazyFrame{
		plan: &LogicalPlan{
			Op:         PlanWithColumn,
			Input:      lf.plan,
			NewColName: name,
			NewColExpr: aliased,
		},
	}
}

// GroupBy starts a lazy group by operation
func (lf *LazyFrame) GroupBy(keys ...string) *LazyGroupBy {
	return &LazyGroupBy{
		input: lf,
		keys:  keys,
	}
}

// Sort sorts by a single column
func (lf *LazyFrame) Sort(column string, ascending bool) *LazyFrame {
	return lf.SortBy([]string{column}, []bool{ascending})
}

// SortBy sorts by multiple columns. ascending applies per column.
func (lf *LazyFrame) SortBy(columns []string, ascending []bool) *LazyFrame {
	return &LazyFrame{
		plan: &LogicalPlan{
			Op:            PlanSort,
			Input:         lf.plan,
			SortColumns:   columns,
			SortAscending: ascending,
		},
	}
}

// Head keeps the first n rows
func (lf *LazyFrame) Head(n int) *LazyFrame {
	return &LazyFrame{
		plan: &LogicalPlan{
			Op:    PlanLimit,
			Input: lf.plan,
			Limit: n,
		},
	}
}

// Tail keeps the last n rows
func (lf *LazyFrame) Tail(n int) *LazyFrame {
	return &LazyFrame{
		plan: &LogicalPlan{
			Op:       PlanTail,
			Input:    lf.plan,
			TailRows: n,
		},
	}
}

// Distinct removes duplicate rows, keeping first occurrences
func (lf *LazyFrame) Distinct() *LazyFrame {
	return &LazyFrame{
		plan: &LogicalPlan{
			Op:    PlanDistinct,
			Input: lf.plan,
		},
	}
}

// Pivot spreads a long table wide when collected
func (lf *LazyFrame) Pivot(opts PivotOptions) *LazyFrame {
	return &LazyFrame{
		plan: &LogicalPlan{
			Op:        PlanPivot,
			Input:     lf.plan,
			PivotOpts: opts,
		},
	}
}

// Melt gathers a wide table long when collected
func (lf *LazyFrame) Melt(opts MeltOptions) *LazyFrame {
	return &LazyFrame{
		plan: &LogicalPlan{
			Op:       PlanMelt,
			Input:    lf.plan,
			MeltOpts: opts,
		},
	}
}

// ============================================================================
// Execution
// ============================================================================

// Collect optimizes and executes the plan, returning the result
func (lf *LazyFrame) Collect() (*DataFrame, error) {
	optimized := optimizePlan(lf.plan)
	return executePlan(optimized)
}

// Describe returns the unoptimized plan as a string
func (lf *LazyFrame) Describe() string {
	return describePlan(lf.plan, 0)
}

// Explain returns the optimized plan as a string
func (lf *LazyFrame) Explain() string {
	optimized := optimizePlan(lf.plan)
	return "Optimized plan:\n" + describePlan(optimized, 0)
}

// ============================================================================
// LazyGroupBy
// ============================================================================

// LazyGroupBy is a pending lazy group by waiting for aggregations
type LazyGroupBy struct {
	input *LazyFrame
	keys  []string
}

// Agg applies aggregation expressions to the groups
func (lgb *LazyGroupBy) Agg(aggs ...Expr) *LazyFrame {
	return &LazyFrame{
		plan: &LogicalPlan{
			Op:           PlanGroupBy,
			Input:        lgb.input.plan,
			GroupByKeys:  lgb.keys,
			Aggregations: aggs,
		},
	}
}

// Convenience single-aggregation methods
func (lgb *LazyGroupBy) Sum(column string) *LazyFrame {
	return lgb.Agg(Col(column).Sum())
}

func (lgb *LazyGroupBy) Mean(column string) *LazyFrame {
	return lgb.Agg(Col(column).Mean())
}

func (lgb *LazyGroupBy) Min(column string) *LazyFrame {
	return lgb.Agg(Col(column).Min())
}

func (lgb *LazyGroupBy) Max(column string) *LazyFrame {
	return lgb.Agg(Col(column).Max())
}

func (lgb *LazyGroupBy) Count() *LazyFrame {
	return &LazyFrame{
		plan: &LogicalPlan{
			Op:          PlanGroupBy,
			Input:       lgb.input.plan,
			GroupByKeys: lgb.keys,
		},
	}
}

// ============================================================================
// Logical Plan
// ============================================================================

// PlanOp identifies a plan node type
type PlanOp int

const (
	PlanScan PlanOp = iota
	PlanScanCSV
	PlanScanParquet
	PlanProject
	PlanFilter
	PlanWithColumn
	PlanGroupBy
	PlanSort
	PlanLimit
	PlanTail
	PlanDistinct
	PlanPivot
	PlanMelt
)

func (op PlanOp) String() string {
	switch op {
	case PlanScan:
		return "Scan"
	case PlanScanCSV:
		return "ScanCSV"
	case PlanScanParquet:
		return "ScanParquet"
	case PlanProject:
		return "Project"
	case PlanFilter:
		return "Filter"
	case PlanWithColumn:
		return "WithColumn"
	case PlanGroupBy:
		return "GroupBy"
	case PlanSort:
		return "Sort"
	case PlanLimit:
		return "Limit"
	case PlanTail:
		return "Tail"
	case PlanDistinct:
		return "Distinct"
	case PlanPivot:
		return "Pivot"
	case PlanMelt:
		return "Melt"
	default:
		return "Unknown"
	}
}

// LogicalPlan represents a node in the query plan tree
type LogicalPlan struct {
	Op    PlanOp
	Input *LogicalPlan // Parent plan (for unary operations)

	// Scan source
	Data        *DataFrame
	SourcePath  string
	CSVOpts     []CSVReadOptions
	ParquetOpts []ParquetReadOptions

	// Projection
	Projections []Expr

	// Filter
	Predicate Expr

	// WithColumn
	NewColName string
	NewColExpr Expr

	// GroupBy
	GroupByKeys  []string
	Aggregations []Expr

	// Sort
	SortColumns   []string
	SortAscending []bool

	// Limit/Tail
	Limit    int
	TailRows int

	// Reshape configuration
	PivotOpts PivotOptions
	MeltOpts  MeltOptions
}

// describePlan returns a string representation of the plan
func describePlan(plan *LogicalPlan, indent int) string {
	prefix := ""
	for i := 0; i < indent; i++ {
		prefix += "  "
	}

	var result string

	switch plan.Op {
	case PlanScan:
		h, w := 0, 0
		if plan.Data != nil {
			h, w = plan.Data.Height(), plan.Data.Width()
		}
		result = fmt.Sprintf("%s%s [%d rows x %d cols]\n", prefix, plan.Op, h, w)

	case PlanScanCSV, PlanScanParquet:
		result = fmt.Sprintf("%s%s path=%q\n", prefix, plan.Op, plan.SourcePath)

	case PlanProject:
		result = fmt.Sprintf("%s%s %v\n", prefix, plan.Op, plan.Projections)

	case PlanFilter:
		result = fmt.Sprintf("%s%s %s\n", prefix, plan.Op, plan.Predicate)

	case PlanWithColumn:
		result = fmt.Sprintf("%s%s %s = %s\n", prefix, plan.Op, plan.NewColName, plan.NewColExpr)

	case PlanGroupBy:
		result = fmt.Sprintf("%s%s keys=%v aggs=%v\n", prefix, plan.Op, plan.GroupByKeys, plan.Aggregations)

	case PlanSort:
		result = fmt.Sprintf("%s%s cols=%v asc=%v\n", prefix, plan.Op, plan.SortColumns, plan.SortAscending)

	case PlanLimit:
		result = fmt.Sprintf("%s%s n=%d\n", prefix, plan.Op, plan.Limit)

	case PlanTail:
		result = fmt.Sprintf("%s%s n=%d\n", prefix, plan.Op, plan.TailRows)

	case PlanPivot:
		result = fmt.Sprintf("%s%s index=%v column=%q values=%q\n",
			prefix, plan.Op, plan.PivotOpts.Index, plan.PivotOpts.Column, plan.PivotOpts.Values)

	case PlanMelt:
		result = fmt.Sprintf("%s%s id_vars=%v value_vars=%v var_name=%q value_name=%q\n",
			prefix, plan.Op, plan.MeltOpts.IDVars, plan.MeltOpts.ValueVars,
			plan.MeltOpts.VarName, plan.MeltOpts.ValueName)

	default:
		result = fmt.Sprintf("%s%s\n", prefix, plan.Op)
	}

	if plan.Input != nil {
		result += describePlan(plan.Input, indent+1)
	}

	return result
}
