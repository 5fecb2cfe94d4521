package table

import (
	"time"

	"datalens/domain/core"
)

// Kind defines the value type carried by a column
type Kind string

const (
	KindNumber  Kind = "number"
	KindText    Kind = "text"
	KindBoolean Kind = "boolean"
	KindDate    Kind = "date"
)

// Column is one named, typed, ordered sequence of values. Exactly one of the
// value slices is populated, matching Kind.
type Column struct {
	Name    string      `json:"name"`
	Kind    Kind        `json:"kind"`
	Numbers []float64   `json:"numbers,omitempty"`
	Texts   []string    `json:"texts,omitempty"`
	Bools   []bool      `json:"bools,omitempty"`
	Dates   []time.Time `json:"dates,omitempty"`
}

// NewNumberColumn creates a numeric column
func NewNumberColumn(name string, values []float64) Column {
	return Column{Name: name, Kind: KindNumber, Numbers: values}
}

// NewTextColumn creates a text column
func NewTextColumn(name string, values []string) Column {
	return Column{Name: name, Kind: KindText, Texts: values}
}

// NewBooleanColumn creates a boolean column
func NewBooleanColumn(name string, values []bool) Column {
	return Column{Name: name, Kind: KindBoolean, Bools: values}
}

// NewDateColumn creates a date column
func NewDateColumn(name string, values []time.Time) Column {
	return Column{Name: name, Kind: KindDate, Dates: values}
}

// Len returns the number of values in the column
func (c Column) Len() int {
	switch c.Kind {
	case KindNumber:
		return len(c.Numbers)
	case KindText:
		return len(c.Texts)
	case KindBoolean:
		return len(c.Bools)
	case KindDate:
		return len(c.Dates)
	default:
		return 0
	}
}

// IsNumeric reports whether the column carries numbers
func (c Column) IsNumeric() bool {
	return c.Kind == KindNumber
}

// Numeric returns the column's values as floats. It fails when the column is
// not numeric, empty, or contains non-finite values; engines never see NaN.
func (c Column) Numeric() ([]float64, error) {
	if c.Kind != KindNumber {
		return nil, core.NewColumnError(core.ErrNonNumeric, c.Name)
	}
	if len(c.Numbers) == 0 {
		return nil, core.NewColumnError(core.ErrEmptyColumn, c.Name)
	}
	if err := CheckFinite(c.Name, c.Numbers); err != nil {
		return nil, err
	}
	return c.Numbers, nil
}

// Table is a named set of equal-origin columns. Column names are unique.
type Table struct {
	columns []Column
	index   map[string]int
}

// NewTable builds a table, rejecting duplicate column names
func NewTable(columns []Column) (*Table, error) {
	index := make(map[string]int, len(columns))
	for i, col := range columns {
		if col.Name == "" {
			return nil, core.NewValidationError("column", "name must not be empty")
		}
		if _, dup := index[col.Name]; dup {
			return nil, core.NewColumnError(core.ErrDuplicateColumn, col.Name)
		}
		if col.Kind != KindNumber && col.Kind != KindText && col.Kind != KindBoolean && col.Kind != KindDate {
			return nil, core.NewColumnError(core.ErrUnknownKind, col.Name)
		}
		index[col.Name] = i
	}
	return &Table{columns: columns, index: index}, nil
}

// Column looks up a column by name
func (t *Table) Column(name string) (Column, error) {
	i, ok := t.index[name]
	if !ok {
		return Column{}, core.NewColumnError(core.ErrColumnNotFound, name)
	}
	return t.columns[i], nil
}

// Columns returns all columns in declaration order
func (t *Table) Columns() []Column {
	return t.columns
}

// ColumnCount returns the number of columns
func (t *Table) ColumnCount() int {
	return len(t.columns)
}

// NumericColumns returns the numeric, non-empty columns in declaration order.
// Declaration order keeps downstream output deterministic.
func (t *Table) NumericColumns() []Column {
	out := make([]Column, 0, len(t.columns))
	for _, col := range t.columns {
		if col.IsNumeric() && len(col.Numbers) > 0 {
			out = append(out, col)
		}
	}
	return out
}
