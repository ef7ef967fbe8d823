package engine

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/leapstack-labs/leappivot/internal/adapter"
	"github.com/leapstack-labs/leappivot/pkg/pivot"
	"github.com/leapstack-labs/leappivot/pkg/table"
)

const inputTable = "__leappivot_input"

// Aggregate computes the mean of each spec value column for every
// combination of index and grouping keys, and reshapes the result into one
// row per index combination and one column per (value, grouping) pair.
func (e *Engine) Aggregate(ctx context.Context, t *table.Table, spec *pivot.Spec) (*table.Table, error) {
	if spec == nil || len(spec.Index) == 0 || len(spec.Values) == 0 {
		return nil, errors.New("pivot needs at least one index and one value column")
	}
	for _, name := range slices.Concat(spec.Index, spec.Columns, spec.Values) {
		if t.Column(name) == nil {
			return nil, fmt.Errorf("column not found: %q", name)
		}
	}

	if err := e.db.LoadTable(ctx, inputTable, t); err != nil {
		return nil, fmt.Errorf("failed to load input: %w", err)
	}
	defer func() {
		_ = e.db.Exec(context.WithoutCancel(ctx), "DROP TABLE IF EXISTS "+adapter.QuoteIdent(inputTable))
	}()

	query := aggregateSQL(spec)
	grouped, err := e.db.FetchTable(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate: %w", err)
	}
	e.logger.Debug("aggregated groups", "groups", grouped.NumRows())

	return reshape(t, spec, grouped)
}

// aggregateSQL builds the grouped mean query. Key and value columns are
// aliased positionally so names never clash.
func aggregateSQL(spec *pivot.Spec) string {
	keys := slices.Concat(spec.Index, spec.Columns)

	selects := make([]string, 0, len(keys)+len(spec.Values))
	groups := make([]string, len(keys))
	filters := make([]string, len(keys))
	orders := make([]string, len(keys))
	for i, k := range keys {
		q := adapter.QuoteIdent(k)
		selects = append(selects, fmt.Sprintf("%s AS k%d", q, i))
		groups[i] = q
		filters[i] = q + " IS NOT NULL"
		orders[i] = q + " ASC NULLS LAST"
	}
	for i, v := range spec.Values {
		selects = append(selects, fmt.Sprintf("avg(%s) AS v%d", adapter.QuoteIdent(v), i))
	}

	return fmt.Sprintf("SELECT %s FROM %s WHERE %s GROUP BY %s ORDER BY %s",
		strings.Join(selects, ", "),
		adapter.QuoteIdent(inputTable),
		strings.Join(filters, " AND "),
		strings.Join(groups, ", "),
		strings.Join(orders, ", "))
}

// reshape spreads the long grouped result into the wide pivot layout.
func reshape(in *table.Table, spec *pivot.Spec, grouped *table.Table) (*table.Table, error) {
	nIdx, nGrp := len(spec.Index), len(spec.Columns)

	var (
		rowKeys [][]any
		rowPos  = map[string]int{}
		grpKeys [][]any
		grpSeen = map[string]bool{}
	)
	if nGrp == 0 {
		grpKeys = [][]any{{}}
		grpSeen[""] = true
	}
	for i := 0; i < grouped.NumRows(); i++ {
		row := grouped.Row(i)
		idx := row[:nIdx]
		if k := tupleKey(idx); !hasKey(rowPos, k) {
			rowPos[k] = len(rowKeys)
			rowKeys = append(rowKeys, idx)
		}
		grp := row[nIdx : nIdx+nGrp]
		if k := tupleKey(grp); !grpSeen[k] {
			grpSeen[k] = true
			grpKeys = append(grpKeys, grp)
		}
	}
	slices.SortStableFunc(grpKeys, compareTuples)

	grpPos := make(map[string]int, len(grpKeys))
	for i, g := range grpKeys {
		grpPos[tupleKey(g)] = i
	}

	cols := make([]*table.Column, 0, nIdx+len(spec.Values)*len(grpKeys))
	for j, name := range spec.Index {
		values := make([]any, len(rowKeys))
		for r, key := range rowKeys {
			values[r] = key[j]
		}
		cols = append(cols, &table.Column{Name: name, Type: in.Column(name).Type, Values: values})
	}

	var fill any
	if spec.Fill != nil {
		fill = *spec.Fill
	}
	valueCols := make([]*table.Column, 0, len(spec.Values)*len(grpKeys))
	for _, v := range spec.Values {
		for _, g := range grpKeys {
			values := make([]any, len(rowKeys))
			for r := range values {
				values[r] = fill
			}
			valueCols = append(valueCols, &table.Column{Name: columnName(v, g), Type: "DOUBLE", Values: values})
		}
	}

	for i := 0; i < grouped.NumRows(); i++ {
		row := grouped.Row(i)
		r := rowPos[tupleKey(row[:nIdx])]
		g := grpPos[tupleKey(row[nIdx:nIdx+nGrp])]
		for vi := range spec.Values {
			if mean := row[nIdx+nGrp+vi]; mean != nil {
				valueCols[vi*len(grpKeys)+g].Values[r] = mean
			}
		}
	}

	out := append(cols, valueCols...)
	if err := checkNames(out); err != nil {
		return nil, err
	}
	return table.New(out...)
}

// checkNames rejects pivots whose generated column names are ambiguous,
// such as keys ("x_y", "z") and ("x", "y_z") or an index named "v_S".
func checkNames(cols []*table.Column) error {
	seen := make(map[string]bool, len(cols))
	for _, c := range cols {
		if seen[c.Name] {
			return fmt.Errorf("%w: pivot column name %q is ambiguous; rename the column or grouping values that produce it",
				pivot.ErrInvalidValue, c.Name)
		}
		seen[c.Name] = true
	}
	return nil
}

// columnName joins a value column with its grouping keys: Fare_female_S.
func columnName(value string, keys []any) string {
	parts := make([]string, 0, len(keys)+1)
	parts = append(parts, value)
	for _, k := range keys {
		parts = append(parts, table.FormatValue(k))
	}
	return strings.Join(parts, "_")
}

func tupleKey(tuple []any) string {
	parts := make([]string, len(tuple))
	for i, v := range tuple {
		parts[i] = table.FormatValue(v)
	}
	return strings.Join(parts, "\x00")
}

func hasKey(m map[string]int, k string) bool {
	_, ok := m[k]
	return ok
}

// compareTuples orders key tuples element-wise, numbers numerically and
// everything else as text.
func compareTuples(a, b []any) int {
	for i := range a {
		if c := compareCells(a[i], b[i]); c != 0 {
			return c
		}
	}
	return 0
}

func compareCells(a, b any) int {
	af, aok := a.(float64)
	bf, bok := b.(float64)
	if aok && bok {
		return cmp.Compare(af, bf)
	}
	return strings.Compare(table.FormatValue(a), table.FormatValue(b))
}
