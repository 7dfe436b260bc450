package lagoon

import "sort"

// ============================================================================
// Query Optimizer
// ============================================================================

// optimizePlan applies optimization passes to the logical plan
func optimizePlan(plan *LogicalPlan) *LogicalPlan {
	result := plan

	// Pass 1: Predicate pushdown - push filters closer to data sources
	result = pushdownPredicates(result)

	// Pass 2: Projection pushdown - only carry needed columns
	result = pushdownProjections(result, nil)

	// Pass 3: Combine consecutive filters
	result = combineFilters(result)

	return result
}

// ============================================================================
// Predicate Pushdown
// ============================================================================

// pushdownPredicates pushes filter predicates down through the plan
func pushdownPredicates(plan *LogicalPlan) *LogicalPlan {
	if plan == nil {
		return nil
	}

	newPlan := &LogicalPlan{}
	*newPlan = *plan
	newPlan.Input = pushdownPredicates(plan.Input)

	if newPlan.Op == PlanFilter && newPlan.Input != nil {
		return tryPushFilter(newPlan)
	}

	return newPlan
}

// tryPushFilter attempts to push a filter through its input
func tryPushFilter(filterPlan *LogicalPlan) *LogicalPlan {
	child := filterPlan.Input
	predicate := filterPlan.Predicate

	switch child.Op {
	case PlanFilter:
		// Combine consecutive filters with AND
		combined := &BinaryOpExpr{
			Left:  child.Predicate,
			Op:    OpAnd,
			Right: predicate,
		}
		return tryPushFilter(&LogicalPlan{
			Op:        PlanFilter,
			Input:     child.Input,
			Predicate: combined,
		})

	case PlanSort:
		// Filtering commutes with sorting and shrinks the sort input
		pushed := tryPushFilter(&LogicalPlan{
			Op:        PlanFilter,
			Input:     child.Input,
			Predicate: predicate,
		})
		return &LogicalPlan{
			Op:            PlanSort,
			Input:         pushed,
			SortColumns:   child.SortColumns,
			SortAscending: child.SortAscending,
		}

	default:
		// Project can rename columns, reshape and group by change row
		// identity, limit and tail depend on row positions. Keep the
		// filter where it is.
		return filterPlan
	}
}

// ============================================================================
// Projection Pushdown
// ============================================================================

// pushdownProjections tracks which columns downstream operators need so that
// scans can prune early. File scans receive the needed set through their
// read options.
func pushdownProjections(plan *LogicalPlan, neededCols map[string]bool) *LogicalPlan {
	if plan == nil {
		return nil
	}

	newPlan := &LogicalPlan{}
	*newPlan = *plan

	switch plan.Op {
	case PlanScan:
		// In-memory source, pruning saves nothing
		return newPlan

	case PlanScanCSV:
		if len(neededCols) > 0 {
			// A synthesized options struct replaces the scan's implicit
			// defaults, so it has to start from them.
			opts := DefaultCSVReadOptions()
			if len(plan.CSVOpts) > 0 {
				opts = plan.CSVOpts[0]
			}
			if len(opts.Columns) == 0 {
				opts.Columns = sortedColumnSet(neededCols)
				newPlan.CSVOpts = []CSVReadOptions{opts}
			}
		}
		return newPlan

	case PlanScanParquet:
		if len(neededCols) > 0 {
			opts := DefaultParquetReadOptions()
			if len(plan.ParquetOpts) > 0 {
				opts = plan.ParquetOpts[0]
			}
			if len(opts.Columns) == 0 {
				opts.Columns = sortedColumnSet(neededCols)
				newPlan.ParquetOpts = []ParquetReadOptions{opts}
			}
		}
		return newPlan

	case PlanProject:
		needed := make(map[string]bool)
		for _, expr := range plan.Projections {
			for _, col := range expr.columns() {
				needed[col] = true
			}
		}
		newPlan.Input = pushdownProjections(plan.Input, needed)
		return newPlan

	case PlanFilter:
		needed := make(map[string]bool)
		for k, v := range neededCols {
			needed[k] = v
		}
		for _, col := range plan.Predicate.columns() {
			needed[col] = true
		}
		newPlan.Input = pushdownProjections(plan.Input, needed)
		return newPlan

	case PlanWithColumn:
		needed := make(map[string]bool)
		for k, v := range neededCols {
			needed[k] = v
		}
		for _, col := range plan.NewColExpr.columns() {
			needed[col] = true
		}
		newPlan.Input = pushdownProjections(plan.Input, needed)
		return newPlan

	case PlanGroupBy:
		needed := make(map[string]bool)
		for _, key := range plan.GroupByKeys {
			needed[key] = true
		}
		for _, agg := range plan.Aggregations {
			for _, col := range agg.columns() {
				needed[col] = true
			}
		}
		newPlan.Input = pushdownProjections(plan.Input, needed)
		return newPlan

	case PlanPivot:
		needed := make(map[string]bool)
		for _, col := range plan.PivotOpts.Index {
			needed[col] = true
		}
		needed[plan.PivotOpts.Column] = true
		needed[plan.PivotOpts.Values] = true
		newPlan.Input = pushdownProjections(plan.Input, needed)
		return newPlan

	case PlanMelt:
		// With explicit value vars the melt touches a known column set;
		// otherwise it consumes every column.
		if len(plan.MeltOpts.ValueVars) > 0 {
			needed := make(map[string]bool)
			for _, col := range plan.MeltOpts.IDVars {
				needed[col] = true
			}
			for _, col := range plan.MeltOpts.ValueVars {
				needed[col] = true
			}
			newPlan.Input = pushdownProjections(plan.Input, needed)
			return newPlan
		}
		newPlan.Input = pushdownProjections(plan.Input, nil)
		return newPlan

	default:
		newPlan.Input = pushdownProjections(plan.Input, neededCols)
		return newPlan
	}
}

// sortedColumnSet flattens a column set deterministically.
func sortedColumnSet(cols map[string]bool) []string {
	out := make([]string, 0, len(cols))
	for col := range cols {
		out = append(out, col)
	}
	sort.Strings(out)
	return out
}

// ============================================================================
// Filter Combination
// ============================================================================

// combineFilters combines consecutive filter operations
func combineFilters(plan *LogicalPlan) *LogicalPlan {
	if plan == nil {
		return nil
	}

	newPlan := &LogicalPlan{}
	*newPlan = *plan
	newPlan.Input = combineFilters(plan.Input)

	if newPlan.Op == PlanFilter && newPlan.Input != nil && newPlan.Input.Op == PlanFilter {
		combined := &BinaryOpExpr{
			Left:  newPlan.Input.Predicate,
			Op:    OpAnd,
			Right: newPlan.Predicate,
		}
		return &LogicalPlan{
			Op:        PlanFilter,
			Input:     newPlan.Input.Input,
			Predicate: combined,
		}
	}

	return newPlan
}
