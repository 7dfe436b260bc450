package lagoon

import "fmt"

// UnknownColumnError reports a reference to a column that does not exist in
// the DataFrame. It is always fatal to the operation that raised it.
type UnknownColumnError struct {
	Column string
}

func (e *UnknownColumnError) Error() string {
	return fmt.Sprintf("unknown column '%s'", e.Column)
}

// DuplicateKeyError reports that a pivot found more than one row for the same
// entity and key combination while the duplicate policy is DuplicateFail.
type DuplicateKeyError struct {
	Entity string
	Key    string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate rows for entity (%s) and key '%s'", e.Entity, e.Key)
}

// TypeMismatchError reports a reduction applied to a column whose dtype
// cannot support it, e.g. mean over a String column.
type TypeMismatchError struct {
	Column string
	DType  DType
	Op     string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("cannot apply %s to column '%s' of type %s", e.Op, e.Column, e.DType)
}

func errUnknownColumn(name string) error {
	return &UnknownColumnError{Column: name}
}

func errNoGroupKeys() error {
	return fmt.Errorf("at least one grouping column is required")
}

func errNoAggregations() error {
	return fmt.Errorf("at least one aggregation is required")
}

func errDuplicateOutput(name string) error {
	return fmt.Errorf("duplicate output column name '%s'", name)
}
