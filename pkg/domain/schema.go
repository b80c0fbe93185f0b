package domain

import (
	"fmt"

	"github.com/tabweave/tabweave/pkg/utils/slices"
)

type ColumnType string

const (
	// Numeric columns hold float-parsable cells. Empty cells mean "missing".
	Numeric ColumnType = "numeric"

	// Categorical columns hold free string cells.
	Categorical ColumnType = "categorical"
)

func AsColumnType(expr string) (ColumnType, error) {
	switch expr {
	case string(Numeric):
		return Numeric, nil
	case string(Categorical):
		return Categorical, nil
	default:
		return "", fmt.Errorf("'%s' is not ColumnType", expr)
	}
}

// ColumnSpec declares the expected type and constraints of one column.
type ColumnSpec struct {
	Name     string
	Type     ColumnType
	Required bool

	// Min and Max bound numeric values, when set.
	Min *float64
	Max *float64

	// Categories enumerates allowed values of a categorical column, when set.
	Categories []string
}

// AllowsCategory reports whether value is allowed on this column.
//
// A column without declared Categories allows everything.
func (c ColumnSpec) AllowsCategory(value string) bool {
	if len(c.Categories) == 0 {
		return true
	}
	return slices.Contains(c.Categories, func(v string) bool { return v == value })
}

// InRange reports whether a numeric value satisfies declared bounds.
func (c ColumnSpec) InRange(value float64) bool {
	if c.Min != nil && value < *c.Min {
		return false
	}
	if c.Max != nil && *c.Max < value {
		return false
	}
	return true
}

// Schema is the declared shape of a Dataset.
//
// Immutable once loaded for a run.
type Schema struct {
	// Name identifies the schema.
	Name string

	// Label is the column holding the training target.
	Label string

	// Columns are feature and label columns, in declared order.
	Columns []ColumnSpec
}

func (s Schema) Column(name string) (ColumnSpec, bool) {
	return slices.First(s.Columns, func(c ColumnSpec) bool { return c.Name == name })
}

// FeatureColumns lists columns except the label, in declared order.
func (s Schema) FeatureColumns() []ColumnSpec {
	return slices.Filter(s.Columns, func(c ColumnSpec) bool { return c.Name != s.Label })
}

// DropLabel derives the schema a prediction input has to satisfy:
// same features, no label column.
func (s Schema) DropLabel() Schema {
	return Schema{
		Name:    s.Name,
		Columns: s.FeatureColumns(),
	}
}
