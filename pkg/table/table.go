// Package table provides the in-memory table model shared by readers,
// the column selector, and the pivot engine.
//
// A Table is an ordered list of named columns. Each column carries the type
// name declared by the reader that produced it (for example DuckDB's
// "BIGINT" or "VARCHAR") and its cell values aligned by row position.
// Numeric cells are float64, categorical cells are string, missing cells are nil.
package table

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
	"time"
)

// Column is a named, typed column of a Table.
type Column struct {
	// Name is the column name as it appears in the source header.
	Name string

	// Type is the declared type name (e.g. "DOUBLE", "VARCHAR").
	Type string

	// Values holds one cell per row. nil marks a missing value.
	Values []any
}

// Kind returns the column kind derived from its declared type.
func (c *Column) Kind() Kind {
	return KindOf(c.Type)
}

// Len returns the number of cells in the column.
func (c *Column) Len() int {
	return len(c.Values)
}

// Table is an ordered collection of columns with rows aligned by position.
type Table struct {
	Columns []*Column
}

// New creates a table from columns and validates its shape.
func New(cols ...*Column) (*Table, error) {
	t := &Table{Columns: cols}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Validate checks that the table is well formed: no nil or unnamed columns,
// no duplicate names, and all columns of equal length.
func (t *Table) Validate() error {
	if t == nil {
		return fmt.Errorf("table is nil")
	}
	seen := make(map[string]struct{}, len(t.Columns))
	rows := -1
	for i, c := range t.Columns {
		if c == nil {
			return fmt.Errorf("column %d is nil", i)
		}
		if c.Name == "" {
			return fmt.Errorf("column %d has no name", i)
		}
		if _, dup := seen[c.Name]; dup {
			return fmt.Errorf("duplicate column %q", c.Name)
		}
		seen[c.Name] = struct{}{}
		if rows == -1 {
			rows = len(c.Values)
		} else if len(c.Values) != rows {
			return fmt.Errorf("column %q has %d rows, expected %d", c.Name, len(c.Values), rows)
		}
	}
	return nil
}

// NumCols returns the number of columns.
func (t *Table) NumCols() int {
	return len(t.Columns)
}

// NumRows returns the number of rows. A table without columns has no rows.
func (t *Table) NumRows() int {
	if len(t.Columns) == 0 {
		return 0
	}
	return len(t.Columns[0].Values)
}

// Column returns the column with the given name, or nil.
func (t *Table) Column(name string) *Column {
	for _, c := range t.Columns {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Names returns the column names in declared order.
func (t *Table) Names() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Row returns the cells of row i in column order.
func (t *Table) Row(i int) []any {
	row := make([]any, len(t.Columns))
	for j, c := range t.Columns {
		row[j] = c.Values[i]
	}
	return row
}

// NewNumeric builds a DOUBLE column. NaN values are stored as missing.
func NewNumeric(name string, values ...float64) *Column {
	cells := make([]any, len(values))
	for i, v := range values {
		if math.IsNaN(v) {
			continue
		}
		cells[i] = v
	}
	return &Column{Name: name, Type: "DOUBLE", Values: cells}
}

// NewCategorical builds a VARCHAR column.
func NewCategorical(name string, values ...string) *Column {
	cells := make([]any, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return &Column{Name: name, Type: "VARCHAR", Values: cells}
}

// Cell normalizes a driver value into the cell representation for kind:
// float64 for numeric columns, string for categorical ones, nil when missing.
func Cell(kind Kind, v any) any {
	if v == nil {
		return nil
	}
	if kind == Numeric {
		if f, ok := ToFloat(v); ok {
			if math.IsNaN(f) {
				return nil
			}
			return f
		}
		if f, err := strconv.ParseFloat(FormatValue(v), 64); err == nil && !math.IsNaN(f) {
			return f
		}
		return nil
	}
	return FormatValue(v)
}

// ToFloat converts any Go numeric value to float64.
func ToFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case *big.Int:
		f, _ := new(big.Float).SetInt(n).Float64()
		return f, true
	case interface{ Float64() float64 }:
		return n.Float64(), true
	}
	return 0, false
}

// FormatValue renders a cell as text. Missing cells render as "".
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 && x.Nanosecond() == 0 {
			return x.Format(time.DateOnly)
		}
		return x.Format(time.DateTime)
	case fmt.Stringer:
		return x.String()
	}
	return strings.TrimSpace(fmt.Sprint(v))
}
