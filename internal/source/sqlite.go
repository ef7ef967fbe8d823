package source

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/leapstack-labs/leappivot/internal/adapter"
	"github.com/leapstack-labs/leappivot/pkg/table"
	_ "modernc.org/sqlite" // SQLite driver (pure Go)
)

func readSQLite(ctx context.Context, path string) (*table.Table, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	defer func() { _ = db.Close() }()

	return readSQLiteDB(ctx, db, tableStem(path))
}

func writeSQLite(ctx context.Context, t *table.Table, path string) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}
	defer func() { _ = db.Close() }()

	return writeSQLiteDB(ctx, db, tableStem(path), t)
}

// tableStem is the file name without its extension.
func tableStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// readSQLiteDB reads the only user table in db, or the table named stem
// when there are several.
func readSQLiteDB(ctx context.Context, db *sql.DB, stem string) (*table.Table, error) {
	tables, err := userTables(ctx, db)
	if err != nil {
		return nil, err
	}

	var name string
	switch {
	case len(tables) == 1:
		name = tables[0]
	case slices.Contains(tables, stem):
		name = stem
	case len(tables) == 0:
		return nil, fmt.Errorf("database has no tables")
	default:
		return nil, fmt.Errorf("database has %d tables and none is named %q (tables: %s)",
			len(tables), stem, strings.Join(tables, ", "))
	}

	rows, err := db.QueryContext(ctx, "SELECT * FROM "+adapter.QuoteIdent(name))
	if err != nil {
		return nil, fmt.Errorf("failed to query table %s: %w", name, err)
	}
	defer func() { _ = rows.Close() }()

	colTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("failed to read column types: %w", err)
	}

	cols := make([]*table.Column, len(colTypes))
	for i, ct := range colTypes {
		typ := "VARCHAR"
		if numericAffinity(ct.DatabaseTypeName()) {
			typ = "DOUBLE"
		}
		cols[i] = &table.Column{Name: ct.Name(), Type: typ}
	}

	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		for i, c := range cols {
			c.Values = append(c.Values, table.Cell(c.Kind(), values[i]))
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return table.New(cols...)
}

func userTables(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

// numericAffinity reports whether a declared column type has INTEGER,
// REAL or NUMERIC affinity.
func numericAffinity(declared string) bool {
	d := strings.ToUpper(declared)
	switch {
	case strings.Contains(d, "INT"):
		return true
	case strings.Contains(d, "CHAR"), strings.Contains(d, "CLOB"), strings.Contains(d, "TEXT"):
		return false
	case d == "", strings.Contains(d, "BLOB"):
		return false
	}
	return true
}

// writeSQLiteDB replaces table name in db with the contents of t.
func writeSQLiteDB(ctx context.Context, db *sql.DB, name string, t *table.Table) error {
	defs := make([]string, len(t.Columns))
	marks := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		typ := "TEXT"
		if c.Kind() == table.Numeric {
			typ = "REAL"
		}
		defs[i] = adapter.QuoteIdent(c.Name) + " " + typ
		marks[i] = "?"
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+adapter.QuoteIdent(name)); err != nil {
		return fmt.Errorf("failed to drop table %s: %w", name, err)
	}
	create := fmt.Sprintf("CREATE TABLE %s (%s)", adapter.QuoteIdent(name), strings.Join(defs, ", "))
	if _, err := tx.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("failed to create table %s: %w", name, err)
	}

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s VALUES (%s)", adapter.QuoteIdent(name), strings.Join(marks, ", ")))
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i := 0; i < t.NumRows(); i++ {
		row := t.Row(i)
		for j, c := range t.Columns {
			row[j] = table.Cell(c.Kind(), row[j])
		}
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return fmt.Errorf("failed to insert row %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit %s: %w", name, err)
	}
	return nil
}
