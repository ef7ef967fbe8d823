// Package adapter wraps the DuckDB connection used to read, aggregate and
// write tables.
package adapter

import (
	"log/slog"
	"strings"
)

// Config holds the configuration for connecting to DuckDB.
type Config struct {
	// Path is the database file. Use "" or ":memory:" for an in-memory database.
	Path string

	// Logger receives debug output for executed statements (optional).
	Logger *slog.Logger
}

// FileFormat identifies a file format DuckDB can scan and COPY natively.
type FileFormat string

// File formats handled by DuckDB.
const (
	FormatCSV     FileFormat = "csv"
	FormatTSV     FileFormat = "tsv"
	FormatParquet FileFormat = "parquet"
	FormatJSON    FileFormat = "json"
	FormatNDJSON  FileFormat = "ndjson"
)

// scanExpr returns the table function that reads path in format f.
func (f FileFormat) scanExpr(path string) string {
	p := QuoteString(path)
	switch f {
	case FormatTSV:
		return "read_csv_auto(" + p + ", header=true, delim='\t')"
	case FormatParquet:
		return "read_parquet(" + p + ")"
	case FormatJSON, FormatNDJSON:
		return "read_json_auto(" + p + ")"
	default:
		return "read_csv_auto(" + p + ", header=true)"
	}
}

// copyOptions returns the COPY ... TO option list for format f.
func (f FileFormat) copyOptions() string {
	switch f {
	case FormatTSV:
		return "(FORMAT CSV, HEADER true, DELIMITER '\t')"
	case FormatParquet:
		return "(FORMAT PARQUET)"
	case FormatJSON:
		return "(FORMAT JSON, ARRAY true)"
	case FormatNDJSON:
		return "(FORMAT JSON)"
	default:
		return "(FORMAT CSV, HEADER true)"
	}
}

// QuoteIdent quotes a SQL identifier for DuckDB.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// QuoteString quotes a SQL string literal for DuckDB.
func QuoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
