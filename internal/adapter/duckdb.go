package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/leappivot/pkg/table"
	_ "github.com/marcboeker/go-duckdb" // duckdb driver
)

// DuckDBAdapter runs SQL against an embedded DuckDB database.
type DuckDBAdapter struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewDuckDBAdapter creates a new DuckDB adapter instance.
func NewDuckDBAdapter() *DuckDBAdapter {
	return &DuckDBAdapter{logger: slog.New(slog.DiscardHandler)}
}

// Connect establishes a connection to DuckDB.
// Use ":memory:" (or an empty path) for an in-memory database.
func (a *DuckDBAdapter) Connect(ctx context.Context, cfg Config) error {
	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return fmt.Errorf("failed to open duckdb connection: %w", err)
	}

	// Test the connection
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping duckdb: %w", err)
	}

	// Temporary tables live on a single connection.
	db.SetMaxOpenConns(1)

	a.db = db
	if cfg.Logger != nil {
		a.logger = cfg.Logger
	}
	a.logger.Debug("connected to duckdb", "path", path)

	return nil
}

// Close closes the DuckDB connection.
func (a *DuckDBAdapter) Close() error {
	if a.db != nil {
		err := a.db.Close()
		a.db = nil
		return err
	}
	return nil
}

// Exec executes a SQL statement that doesn't return rows.
func (a *DuckDBAdapter) Exec(ctx context.Context, sqlStr string, args ...any) error {
	if a.db == nil {
		return fmt.Errorf("database connection not established")
	}

	a.logger.Debug("exec", "sql", sqlStr)
	if _, err := a.db.ExecContext(ctx, sqlStr, args...); err != nil {
		return fmt.Errorf("failed to execute SQL: %w", err)
	}

	return nil
}

// Query executes a SQL statement that returns rows.
func (a *DuckDBAdapter) Query(ctx context.Context, sqlStr string, args ...any) (*sql.Rows, error) {
	if a.db == nil {
		return nil, fmt.Errorf("database connection not established")
	}

	a.logger.Debug("query", "sql", sqlStr)
	//nolint:rowserrcheck // rows.Err() must be checked by caller after iteration completes
	rows, err := a.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}

	return rows, nil
}

// LoadFile creates (or replaces) tableName from a file DuckDB can scan,
// letting DuckDB infer the column types.
func (a *DuckDBAdapter) LoadFile(ctx context.Context, tableName, filePath string, format FileFormat) error {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}

	query := fmt.Sprintf("CREATE OR REPLACE TEMP TABLE %s AS SELECT * FROM %s",
		QuoteIdent(tableName), format.scanExpr(absPath))
	if err := a.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to load %s: %w", format, err)
	}

	return nil
}

// LoadTable creates (or replaces) tableName with the contents of t.
// Numeric columns become DOUBLE and categorical columns VARCHAR.
func (a *DuckDBAdapter) LoadTable(ctx context.Context, tableName string, t *table.Table) error {
	if a.db == nil {
		return fmt.Errorf("database connection not established")
	}
	if err := t.Validate(); err != nil {
		return fmt.Errorf("cannot load table %s: %w", tableName, err)
	}

	defs := make([]string, len(t.Columns))
	marks := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		defs[i] = QuoteIdent(c.Name) + " " + storageType(c.Kind())
		marks[i] = "?"
	}
	create := fmt.Sprintf("CREATE OR REPLACE TEMP TABLE %s (%s)", QuoteIdent(tableName), strings.Join(defs, ", "))
	if err := a.Exec(ctx, create); err != nil {
		return err
	}
	if t.NumRows() == 0 {
		return nil
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	insert := fmt.Sprintf("INSERT INTO %s VALUES (%s)", QuoteIdent(tableName), strings.Join(marks, ", "))
	stmt, err := tx.PrepareContext(ctx, insert)
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
		return fmt.Errorf("failed to commit %s: %w", tableName, err)
	}
	a.logger.Debug("loaded table", "table", tableName, "rows", t.NumRows(), "columns", t.NumCols())
	return nil
}

// FetchTable runs query and collects the result into a table. Column types
// are the DuckDB type names reported for the result set.
func (a *DuckDBAdapter) FetchTable(ctx context.Context, query string, args ...any) (*table.Table, error) {
	rows, err := a.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	colTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("failed to read column types: %w", err)
	}

	cols := make([]*table.Column, len(colTypes))
	for i, ct := range colTypes {
		cols[i] = &table.Column{Name: ct.Name(), Type: ct.DatabaseTypeName()}
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

// CopyTo writes tableName to filePath in the given format.
func (a *DuckDBAdapter) CopyTo(ctx context.Context, tableName, filePath string, format FileFormat) error {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}

	query := fmt.Sprintf("COPY %s TO %s %s", QuoteIdent(tableName), QuoteString(absPath), format.copyOptions())
	if err := a.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to write %s: %w", format, err)
	}
	return nil
}

// ReadFile loads a file into a scratch table and returns its contents.
func (a *DuckDBAdapter) ReadFile(ctx context.Context, filePath string, format FileFormat) (*table.Table, error) {
	const scratch = "__leappivot_read"
	if err := a.LoadFile(ctx, scratch, filePath, format); err != nil {
		return nil, err
	}
	defer func() { _ = a.Exec(context.WithoutCancel(ctx), "DROP TABLE IF EXISTS "+QuoteIdent(scratch)) }()

	return a.FetchTable(ctx, "SELECT * FROM "+QuoteIdent(scratch))
}

// WriteFile stores t in a scratch table and copies it to filePath.
func (a *DuckDBAdapter) WriteFile(ctx context.Context, t *table.Table, filePath string, format FileFormat) error {
	const scratch = "__leappivot_write"
	if err := a.LoadTable(ctx, scratch, t); err != nil {
		return err
	}
	defer func() { _ = a.Exec(context.WithoutCancel(ctx), "DROP TABLE IF EXISTS "+QuoteIdent(scratch)) }()

	return a.CopyTo(ctx, scratch, filePath, format)
}

func storageType(k table.Kind) string {
	if k == table.Numeric {
		return "DOUBLE"
	}
	return "VARCHAR"
}
