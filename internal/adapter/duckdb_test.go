package adapter

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/leappivot/internal/testutil"
	"github.com/leapstack-labs/leappivot/pkg/table"
)

func connect(t *testing.T) *DuckDBAdapter {
	t.Helper()
	adapter := NewDuckDBAdapter()
	if err := adapter.Connect(context.Background(), Config{Path: ":memory:", Logger: testutil.NewTestLogger(t)}); err != nil {
		t.Fatalf("failed to connect to in-memory DuckDB: %v", err)
	}
	t.Cleanup(func() { _ = adapter.Close() })
	return adapter
}

func TestDuckDBAdapter_ConnectInMemory(t *testing.T) {
	ctx := context.Background()
	adapter := NewDuckDBAdapter()

	err := adapter.Connect(ctx, Config{})
	if err != nil {
		t.Fatalf("failed to connect to in-memory DuckDB: %v", err)
	}
	defer adapter.Close()
}

func TestDuckDBAdapter_ConnectFileBased(t *testing.T) {
	ctx := context.Background()
	adapter := NewDuckDBAdapter()

	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.duckdb")

	err := adapter.Connect(ctx, Config{Path: dbPath})
	if err != nil {
		t.Fatalf("failed to connect to file-based DuckDB: %v", err)
	}
	defer adapter.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestDuckDBAdapter_ExecWithoutConnect(t *testing.T) {
	adapter := NewDuckDBAdapter()

	if err := adapter.Exec(context.Background(), "SELECT 1"); err == nil {
		t.Error("expected error when executing without connection, got nil")
	}
}

func TestDuckDBAdapter_QueryWithoutConnect(t *testing.T) {
	adapter := NewDuckDBAdapter()

	if _, err := adapter.Query(context.Background(), "SELECT 1"); err == nil {
		t.Error("expected error when querying without connection, got nil")
	}
}

func TestDuckDBAdapter_Close(t *testing.T) {
	ctx := context.Background()
	adapter := NewDuckDBAdapter()

	// Close without connect should not error
	if err := adapter.Close(); err != nil {
		t.Errorf("close without connect should not error: %v", err)
	}

	if err := adapter.Connect(ctx, Config{Path: ":memory:"}); err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	if err := adapter.Close(); err != nil {
		t.Errorf("failed to close: %v", err)
	}
	if err := adapter.Close(); err != nil {
		t.Errorf("second close should be a no-op: %v", err)
	}
}

func TestDuckDBAdapter_FetchTable(t *testing.T) {
	ctx := context.Background()
	adapter := connect(t)

	if err := adapter.Exec(ctx, `CREATE TABLE products (id INTEGER, name VARCHAR, price DOUBLE, in_stock BOOLEAN)`); err != nil {
		t.Fatalf("failed to create table: %v", err)
	}
	if err := adapter.Exec(ctx, `INSERT INTO products VALUES (1, 'Widget', 9.99, true), (2, NULL, 19.99, false)`); err != nil {
		t.Fatalf("failed to insert data: %v", err)
	}

	tbl, err := adapter.FetchTable(ctx, "SELECT * FROM products ORDER BY id")
	if err != nil {
		t.Fatalf("failed to fetch: %v", err)
	}

	wantTypes := map[string]string{
		"id":       "INTEGER",
		"name":     "VARCHAR",
		"price":    "DOUBLE",
		"in_stock": "BOOLEAN",
	}
	for _, c := range tbl.Columns {
		if c.Type != wantTypes[c.Name] {
			t.Errorf("column %s: got type %q, want %q", c.Name, c.Type, wantTypes[c.Name])
		}
	}

	if got := tbl.Column("id").Values[1]; got != 2.0 {
		t.Errorf("id[1] = %v, want 2", got)
	}
	if got := tbl.Column("name").Values[1]; got != nil {
		t.Errorf("name[1] = %v, want nil", got)
	}
	if got := tbl.Column("in_stock").Values[0]; got != "true" {
		t.Errorf("in_stock[0] = %v, want \"true\"", got)
	}
	if tbl.Column("in_stock").Kind() != table.Categorical {
		t.Error("BOOLEAN should be categorical")
	}
}

func TestDuckDBAdapter_LoadTable(t *testing.T) {
	ctx := context.Background()
	adapter := connect(t)

	in, err := table.New(
		table.NewCategorical("city", "Oslo", "Rome"),
		&table.Column{Name: "temp", Type: "BIGINT", Values: []any{int64(3), nil}},
	)
	if err != nil {
		t.Fatalf("failed to build table: %v", err)
	}

	if err := adapter.LoadTable(ctx, "weather", in); err != nil {
		t.Fatalf("failed to load table: %v", err)
	}

	out, err := adapter.FetchTable(ctx, `SELECT * FROM weather ORDER BY city`)
	if err != nil {
		t.Fatalf("failed to fetch: %v", err)
	}
	if out.NumRows() != 2 {
		t.Fatalf("got %d rows, want 2", out.NumRows())
	}
	if out.Column("temp").Type != "DOUBLE" {
		t.Errorf("temp type = %q, want DOUBLE", out.Column("temp").Type)
	}
	if got := out.Column("temp").Values[0]; got != 3.0 {
		t.Errorf("temp[0] = %v, want 3", got)
	}
	if got := out.Column("temp").Values[1]; got != nil {
		t.Errorf("temp[1] = %v, want nil", got)
	}
}

func TestDuckDBAdapter_LoadTableEmpty(t *testing.T) {
	adapter := connect(t)

	in, _ := table.New(table.NewCategorical("a"))
	if err := adapter.LoadTable(context.Background(), "empty", in); err != nil {
		t.Fatalf("failed to load empty table: %v", err)
	}
}

func TestDuckDBAdapter_FileRoundTrip(t *testing.T) {
	formats := []struct {
		format FileFormat
		ext    string
	}{
		{FormatCSV, ".csv"},
		{FormatTSV, ".tsv"},
		{FormatParquet, ".parquet"},
		{FormatJSON, ".json"},
		{FormatNDJSON, ".ndjson"},
	}

	for _, f := range formats {
		t.Run(string(f.format), func(t *testing.T) {
			ctx := context.Background()
			adapter := connect(t)
			path := filepath.Join(t.TempDir(), "data"+f.ext)

			in, err := table.New(
				table.NewCategorical("name", "alice", "bob"),
				table.NewNumeric("value", 100.5, 200.75),
			)
			if err != nil {
				t.Fatalf("failed to build table: %v", err)
			}

			if err := adapter.WriteFile(ctx, in, path, f.format); err != nil {
				t.Fatalf("failed to write: %v", err)
			}
			out, err := adapter.ReadFile(ctx, path, f.format)
			if err != nil {
				t.Fatalf("failed to read: %v", err)
			}

			if out.NumRows() != 2 || out.NumCols() != 2 {
				t.Fatalf("got %dx%d table, want 2x2", out.NumRows(), out.NumCols())
			}
			if got := out.Column("value").Values[1]; got != 200.75 {
				t.Errorf("value[1] = %v, want 200.75", got)
			}
			if got := out.Column("name").Values[0]; got != "alice" {
				t.Errorf("name[0] = %v, want alice", got)
			}
		})
	}
}

func TestDuckDBAdapter_ReadCSVInfersTypes(t *testing.T) {
	ctx := context.Background()
	adapter := connect(t)

	csvPath := filepath.Join(t.TempDir(), "test_data.csv")
	csvContent := "id,name,value\n1,alice,100.5\n2,bob,200.75\n3,charlie,300.25\n"
	if err := os.WriteFile(csvPath, []byte(csvContent), 0644); err != nil {
		t.Fatalf("failed to write CSV file: %v", err)
	}

	tbl, err := adapter.ReadFile(ctx, csvPath, FormatCSV)
	if err != nil {
		t.Fatalf("failed to read CSV: %v", err)
	}

	if tbl.NumRows() != 3 {
		t.Errorf("got %d rows, want 3", tbl.NumRows())
	}
	if tbl.Column("id").Kind() != table.Numeric {
		t.Errorf("id should be numeric, got type %q", tbl.Column("id").Type)
	}
	if tbl.Column("name").Kind() != table.Categorical {
		t.Errorf("name should be categorical, got type %q", tbl.Column("name").Type)
	}
}

func TestQuoting(t *testing.T) {
	if got := QuoteIdent(`we"ird`); got != `"we""ird"` {
		t.Errorf("QuoteIdent = %s", got)
	}
	if got := QuoteString(`it's`); got != `'it''s'` {
		t.Errorf("QuoteString = %s", got)
	}
}
