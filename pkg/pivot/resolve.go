// Package pivot resolves the parameters of a mean-aggregation pivot table.
//
// Resolve validates a table and the caller's optional column references and
// fills in the missing ones with positional defaults:
//
//   - values (aggregated columns) default to the last numeric column;
//   - index (row grouping) defaults to the last categorical column;
//   - columns (column grouping) default to the second-to-last categorical
//     column when the table has at least two categorical columns, and are
//     omitted otherwise.
//
// Numeric versus categorical is decided by each column's declared type
// (see table.KindOf), never by looking at the values.
package pivot

import (
	"fmt"
	"math"
	"strings"

	"github.com/leapstack-labs/leappivot/pkg/table"
)

// Options holds the caller's column references and fill value. Each column
// reference may be nil, a single name, a list of names or a set of names
// (see Normalize).
type Options struct {
	Values  any
	Index   any
	Columns any

	// Fill replaces missing aggregates. When set it must be a Go number.
	Fill any
}

// Spec is a fully resolved pivot: every name exists in the table, Index and
// Values are non-empty, and Index and Columns are disjoint.
type Spec struct {
	Index   []string `json:"index" yaml:"index"`
	Columns []string `json:"columns,omitempty" yaml:"columns,omitempty"`
	Values  []string `json:"values" yaml:"values"`
	Fill    *float64 `json:"fill,omitempty" yaml:"fill,omitempty"`
}

// String renders the spec for log lines and prompts.
func (s *Spec) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "index=%s values=%s", strings.Join(s.Index, ","), strings.Join(s.Values, ","))
	if len(s.Columns) > 0 {
		fmt.Fprintf(&b, " columns=%s", strings.Join(s.Columns, ","))
	}
	if s.Fill != nil {
		fmt.Fprintf(&b, " fill=%g", *s.Fill)
	}
	return b.String()
}

// Partition splits the table's column names by declared kind, preserving
// column order.
func Partition(t *table.Table) (numeric, categorical []string) {
	for _, c := range t.Columns {
		if c.Kind() == table.Numeric {
			numeric = append(numeric, c.Name)
		} else {
			categorical = append(categorical, c.Name)
		}
	}
	return numeric, categorical
}

// Resolve validates t and opts and returns the resolved Spec. It fails fast
// with an error wrapping ErrInvalidType or ErrInvalidValue and never returns
// a partial Spec.
func Resolve(t *table.Table, opts Options) (*Spec, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: table is nil", ErrInvalidType)
	}
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("%w: malformed table: %v", ErrInvalidType, err)
	}
	if t.NumCols() == 0 || t.NumRows() == 0 {
		return nil, fmt.Errorf("%w: table is empty (%d rows, %d columns)", ErrInvalidValue, t.NumRows(), t.NumCols())
	}

	values, err := normalizeArg("values", opts.Values)
	if err != nil {
		return nil, err
	}
	index, err := normalizeArg("index", opts.Index)
	if err != nil {
		return nil, err
	}
	columns, err := normalizeArg("columns", opts.Columns)
	if err != nil {
		return nil, err
	}

	for _, group := range [][]string{values, index, columns} {
		for _, name := range group {
			if t.Column(name) == nil {
				return nil, fmt.Errorf("%w: column not found: %q", ErrInvalidValue, name)
			}
		}
	}
	for _, name := range values {
		if t.Column(name).Kind() != table.Numeric {
			return nil, fmt.Errorf("%w: aggregation column %q is not numeric", ErrInvalidValue, name)
		}
	}

	fill, err := fillValue(opts.Fill)
	if err != nil {
		return nil, err
	}

	numeric, categorical := Partition(t)
	if values == nil {
		if len(numeric) == 0 {
			return nil, fmt.Errorf("%w: no numeric columns to aggregate", ErrInvalidValue)
		}
		values = []string{numeric[len(numeric)-1]}
	}
	if index == nil {
		if len(categorical) == 0 {
			return nil, fmt.Errorf("%w: no categorical columns to index by", ErrInvalidValue)
		}
		index = []string{categorical[len(categorical)-1]}
	}
	if columns == nil && len(categorical) >= 2 {
		columns = []string{categorical[len(categorical)-2]}
	}

	if shared := intersect(index, columns); len(shared) > 0 {
		return nil, fmt.Errorf("%w: index and columns coincide: %s", ErrInvalidValue, strings.Join(shared, ", "))
	}
	grouping := append(append([]string{}, index...), columns...)
	if shared := intersect(values, grouping); len(shared) > 0 {
		return nil, fmt.Errorf("%w: column used both for grouping and aggregation: %s", ErrInvalidValue, strings.Join(shared, ", "))
	}

	return &Spec{
		Index:   index,
		Columns: columns,
		Values:  values,
		Fill:    fill,
	}, nil
}

func normalizeArg(arg string, v any) ([]string, error) {
	names, err := Normalize(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidType, arg, err)
	}
	return names, nil
}

func fillValue(v any) (*float64, error) {
	if v == nil {
		return nil, nil
	}
	if p, ok := v.(*float64); ok {
		if p == nil {
			return nil, nil
		}
		v = *p
	}
	f, ok := table.ToFloat(v)
	if !ok {
		return nil, fmt.Errorf("%w: fill value must be numeric, got %T", ErrInvalidType, v)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("%w: fill value must be finite, got %v", ErrInvalidType, f)
	}
	return &f, nil
}

func intersect(a, b []string) []string {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	in := NewSet(b...)
	var shared []string
	for _, name := range a {
		if _, ok := in[name]; ok {
			shared = append(shared, name)
		}
	}
	return shared
}
