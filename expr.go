package lagoon

import "fmt"

// Expr represents a lazy expression that can be evaluated against a DataFrame.
// Expressions form a tree built with the fluent methods on ColExpr.
type Expr interface {
	// String returns a human-readable representation
	String() string
	// Clone creates a deep copy of the expression
	Clone() Expr
	// columns returns the column names this expression reads
	columns() []string
	exprType() exprKind
}

type exprKind int

const (
	exprCol exprKind = iota
	exprLit
	exprAlias
	exprBinaryOp
	exprAgg
	exprIsNull
	exprIsNotNull
	exprFillNull
)

// ============================================================================
// Column reference
// ============================================================================

// ColExpr references a column by name
type ColExpr struct {
	Name string
}

// Col creates a column reference expression
func Col(name string) *ColExpr {
	return &ColExpr{Name: name}
}

func (e *ColExpr) String() string     { return fmt.Sprintf("col(%q)", e.Name) }
func (e *ColExpr) Clone() Expr        { return &ColExpr{Name: e.Name} }
func (e *ColExpr) columns() []string  { return []string{e.Name} }
func (e *ColExpr) exprType() exprKind { return exprCol }

// Arithmetic operations
func (e *ColExpr) Add(other Expr) *BinaryOpExpr {
	return &BinaryOpExpr{Left: e, Op: OpAdd, Right: other}
}
func (e *ColExpr) Sub(other Expr) *BinaryOpExpr {
	return &BinaryOpExpr{Left: e, Op: OpSub, Right: other}
}
func (e *ColExpr) Mul(other Expr) *BinaryOpExpr {
	return &BinaryOpExpr{Left: e, Op: OpMul, Right: other}
}
func (e *ColExpr) Div(other Expr) *BinaryOpExpr {
	return &BinaryOpExpr{Left: e, Op: OpDiv, Right: other}
}

// Comparison operations
func (e *ColExpr) Gt(other Expr) *BinaryOpExpr { return &BinaryOpExpr{Left: e, Op: OpGt, Right: other} }
func (e *ColExpr) Lt(other Expr) *BinaryOpExpr { return &BinaryOpExpr{Left: e, Op: OpLt, Right: other} }
func (e *ColExpr) Eq(other Expr) *BinaryOpExpr { return &BinaryOpExpr{Left: e, Op: OpEq, Right: other} }
func (e *ColExpr) Neq(other Expr) *BinaryOpExpr {
	return &BinaryOpExpr{Left: e, Op: OpNeq, Right: other}
}
func (e *ColExpr) Gte(other Expr) *BinaryOpExpr {
	return &BinaryOpExpr{Left: e, Op: OpGte, Right: other}
}
func (e *ColExpr) Lte(other Expr) *BinaryOpExpr {
	return &BinaryOpExpr{Left: e, Op: OpLte, Right: other}
}

// Logical operations
func (e *ColExpr) And(other Expr) *BinaryOpExpr {
	return &BinaryOpExpr{Left: e, Op: OpAnd, Right: other}
}
func (e *ColExpr) Or(other Expr) *BinaryOpExpr { return &BinaryOpExpr{Left: e, Op: OpOr, Right: other} }

// Aggregations
func (e *ColExpr) Sum() *AggExpr   { return &AggExpr{Input: e, AggType: AggTypeSum} }
func (e *ColExpr) Mean() *AggExpr  { return &AggExpr{Input: e, AggType: AggTypeMean} }
func (e *ColExpr) Min() *AggExpr   { return &AggExpr{Input: e, AggType: AggTypeMin} }
func (e *ColExpr) Max() *AggExpr   { return &AggExpr{Input: e, AggType: AggTypeMax} }
func (e *ColExpr) Count() *AggExpr { return &AggExpr{Input: e, AggType: AggTypeCount} }
func (e *ColExpr) First() *AggExpr { return &AggExpr{Input: e, AggType: AggTypeFirst} }
func (e *ColExpr) Last() *AggExpr  { return &AggExpr{Input: e, AggType: AggTypeLast} }

// Alias renames the expression output
func (e *ColExpr) Alias(name string) *AliasExpr {
	return &AliasExpr{Inner: e, AliasName: name}
}

// Null handling
func (e *ColExpr) IsNull() *IsNullExpr       { return &IsNullExpr{Input: e} }
func (e *ColExpr) IsNotNull() *IsNotNullExpr { return &IsNotNullExpr{Input: e} }
func (e *ColExpr) FillNull(value Expr) *FillNullExpr {
	return &FillNullExpr{Input: e, Value: value}
}
func (e *ColExpr) FillNullLit(value interface{}) *FillNullExpr {
	return &FillNullExpr{Input: e, Value: Lit(value)}
}

// ============================================================================
// Literal
// ============================================================================

// LitExpr is a literal value
type LitExpr struct {
	Value interface{}
}

// Lit creates a literal expression
func Lit(value interface{}) *LitExpr {
	return &LitExpr{Value: value}
}

func (e *LitExpr) String() string     { return fmt.Sprintf("lit(%v)", e.Value) }
func (e *LitExpr) Clone() Expr        { return &LitExpr{Value: e.Value} }
func (e *LitExpr) columns() []string  { return nil }
func (e *LitExpr) exprType() exprKind { return exprLit }

// ============================================================================
// Alias
// ============================================================================

// AliasExpr renames the output of an expression
type AliasExpr struct {
	Inner     Expr
	AliasName string
}

func (e *AliasExpr) String() string     { return fmt.Sprintf("%s.alias(%q)", e.Inner, e.AliasName) }
func (e *AliasExpr) Clone() Expr        { return &AliasExpr{Inner: e.Inner.Clone(), AliasName: e.AliasName} }
func (e *AliasExpr) columns() []string  { return e.Inner.columns() }
func (e *AliasExpr) exprType() exprKind { return exprAlias }

// ============================================================================
// Binary operations
// ============================================================================

// BinaryOp is a binary operator
type BinaryOp int

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpGt
	OpLt
	OpEq
	OpNeq
	OpGte
	OpLte
	OpAnd
	OpOr
)

func (op BinaryOp) String() string {
	switch op {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	case OpGt:
		return ">"
	case OpLt:
		return "<"
	case OpEq:
		return "=="
	case OpNeq:
		return "!="
	case OpGte:
		return ">="
	case OpLte:
		return "<="
	case OpAnd:
		return "&&"
	case OpOr:
		return "||"
	default:
		return "?"
	}
}

// BinaryOpExpr applies a binary operator to two expressions
type BinaryOpExpr struct {
	Left  Expr
	Op    BinaryOp
	Right Expr
}

func (e *BinaryOpExpr) String() string {
	return fmt.Sprintf("(%s %s %s)", e.Left, e.Op, e.Right)
}

func (e *BinaryOpExpr) Clone() Expr {
	return &BinaryOpExpr{Left: e.Left.Clone(), Op: e.Op, Right: e.Right.Clone()}
}

func (e *BinaryOpExpr) columns() []string {
	cols := e.Left.columns()
	cols = append(cols, e.Right.columns()...)
	return cols
}

func (e *BinaryOpExpr) exprType() exprKind { return exprBinaryOp }

// Chaining for filter composition
func (e *BinaryOpExpr) And(other Expr) *BinaryOpExpr {
	return &BinaryOpExpr{Left: e, Op: OpAnd, Right: other}
}
func (e *BinaryOpExpr) Or(other Expr) *BinaryOpExpr {
	return &BinaryOpExpr{Left: e, Op: OpOr, Right: other}
}
func (e *BinaryOpExpr) Alias(name string) *AliasExpr {
	return &AliasExpr{Inner: e, AliasName: name}
}

// ============================================================================
// Aggregation expressions
// ============================================================================

// AggType identifies a lazy aggregation
type AggType int

const (
	AggTypeSum AggType = iota
	AggTypeMean
	AggTypeMin
	AggTypeMax
	AggTypeCount
	AggTypeFirst
	AggTypeLast
)

func (t AggType) String() string {
	switch t {
	case AggTypeSum:
		return "sum"
	case AggTypeMean:
		return "mean"
	case AggTypeMin:
		return "min"
	case AggTypeMax:
		return "max"
	case AggTypeCount:
		return "count"
	case AggTypeFirst:
		return "first"
	case AggTypeLast:
		return "last"
	default:
		return "unknown"
	}
}

func (t AggType) kind() AggKind {
	switch t {
	case AggTypeSum:
		return AggKindSum
	case AggTypeMean:
		return AggKindMean
	case AggTypeMin:
		return AggKindMin
	case AggTypeMax:
		return AggKindMax
	case AggTypeCount:
		return AggKindCount
	case AggTypeFirst:
		return AggKindFirst
	default:
		return AggKindLast
	}
}

// AggExpr applies an aggregation to an input expression
type AggExpr struct {
	Input   Expr
	AggType AggType
}

func (e *AggExpr) String() string {
	return fmt.Sprintf("%s.%s()", e.Input, e.AggType)
}

func (e *AggExpr) Clone() Expr {
	return &AggExpr{Input: e.Input.Clone(), AggType: e.AggType}
}

func (e *AggExpr) columns() []string  { return e.Input.columns() }
func (e *AggExpr) exprType() exprKind { return exprAgg }

// Alias renames the aggregation output
func (e *AggExpr) Alias(name string) *AliasExpr {
	return &AliasExpr{Inner: e, AliasName: name}
}

// spec lowers the aggregation expression into an AggSpec for the eager
// grouped aggregator. Only aggregations over plain column references lower.
func (e *AggExpr) spec() (AggSpec, error) {
	col, ok := e.Input.(*ColExpr)
	if !ok {
		return AggSpec{}, fmt.Errorf("aggregation input must be a column reference, got %s", e.Input)
	}
	spec := AggSpec{column: col.Name, kind: e.AggType.kind()}
	return spec, nil
}

// ============================================================================
// Null handling expressions
// ============================================================================

// IsNullExpr is true where the input is null
type IsNullExpr struct {
	Input Expr
}

func (e *IsNullExpr) String() string     { return fmt.Sprintf("%s.is_null()", e.Input) }
func (e *IsNullExpr) Clone() Expr        { return &IsNullExpr{Input: e.Input.Clone()} }
func (e *IsNullExpr) columns() []string  { return e.Input.columns() }
func (e *IsNullExpr) exprType() exprKind { return exprIsNull }

func (e *IsNullExpr) Alias(name string) *AliasExpr {
	return &AliasExpr{Inner: e, AliasName: name}
}

// IsNotNullExpr is true where the input is not null
type IsNotNullExpr struct {
	Input Expr
}

func (e *IsNotNullExpr) String() string     { return fmt.Sprintf("%s.is_not_null()", e.Input) }
func (e *IsNotNullExpr) Clone() Expr        { return &IsNotNullExpr{Input: e.Input.Clone()} }
func (e *IsNotNullExpr) columns() []string  { return e.Input.columns() }
func (e *IsNotNullExpr) exprType() exprKind { return exprIsNotNull }

func (e *IsNotNullExpr) Alias(name string) *AliasExpr {
	return &AliasExpr{Inner: e, AliasName: name}
}

// FillNullExpr replaces nulls in the input with a value
type FillNullExpr struct {
	Input Expr
	Value Expr
}

func (e *FillNullExpr) String() string {
	return fmt.Sprintf("%s.fill_null(%s)", e.Input, e.Value)
}

func (e *FillNullExpr) Clone() Expr {
	return &FillNullExpr{Input: e.Input.Clone(), Value: e.Value.Clone()}
}

func (e *FillNullExpr) columns() []string {
	cols := e.Input.columns()
	cols = append(cols, e.Value.columns()...)
	return cols
}

func (e *FillNullExpr) exprType() exprKind { return exprFillNull }

func (e *FillNullExpr) Alias(name string) *AliasExpr {
	return &AliasExpr{Inner: e, AliasName: name}
}

// exprOutputName is the column name an expression produces when materialized.
func exprOutputName(e Expr) string {
	switch ex := e.(type) {
	case *AliasExpr:
		return ex.AliasName
	case *ColExpr:
		return ex.Name
	case *AggExpr:
		if col, ok := ex.Input.(*ColExpr); ok {
			return col.Name + "_" + ex.AggType.String()
		}
		return ex.String()
	default:
		return e.String()
	}
}
