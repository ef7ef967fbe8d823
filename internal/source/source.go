// Package source reads and writes tables by file path, choosing the format
// from the file extension.
//
// Delimited text, Parquet and JSON go through DuckDB, Excel workbooks
// through excelize, and SQLite databases through modernc.org/sqlite.
package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/leapstack-labs/leappivot/internal/adapter"
	"github.com/leapstack-labs/leappivot/pkg/table"
)

var (
	// ErrNotFound is returned when the input path does not exist.
	ErrNotFound = errors.New("file not found")

	// ErrUnsupportedFormat is returned for extensions no reader or writer handles.
	ErrUnsupportedFormat = errors.New("unsupported format")
)

// Format is a table file format selected by extension.
type Format string

// Supported formats.
const (
	FormatCSV     Format = "csv"
	FormatTSV     Format = "tsv"
	FormatParquet Format = "parquet"
	FormatJSON    Format = "json"
	FormatNDJSON  Format = "ndjson"
	FormatExcel   Format = "excel"
	FormatSQLite  Format = "sqlite"
)

var extensions = map[string]Format{
	".csv":     FormatCSV,
	".tsv":     FormatTSV,
	".tab":     FormatTSV,
	".parquet": FormatParquet,
	".json":    FormatJSON,
	".jsonl":   FormatNDJSON,
	".ndjson":  FormatNDJSON,
	".xlsx":    FormatExcel,
	".xlsm":    FormatExcel,
	".sqlite":  FormatSQLite,
	".sqlite3": FormatSQLite,
	".db":      FormatSQLite,
}

// duckFormats maps the formats DuckDB handles natively.
var duckFormats = map[Format]adapter.FileFormat{
	FormatCSV:     adapter.FormatCSV,
	FormatTSV:     adapter.FormatTSV,
	FormatParquet: adapter.FormatParquet,
	FormatJSON:    adapter.FormatJSON,
	FormatNDJSON:  adapter.FormatNDJSON,
}

// FormatFor returns the format for path's extension (case-insensitive).
func FormatFor(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if f, ok := extensions[ext]; ok {
		return f, nil
	}
	if ext == "" {
		return "", fmt.Errorf("%w: %s has no extension (supported: %s)", ErrUnsupportedFormat, path, strings.Join(Extensions(), ", "))
	}
	return "", fmt.Errorf("%w: %s (supported: %s)", ErrUnsupportedFormat, ext, strings.Join(Extensions(), ", "))
}

// Extensions lists the recognized file extensions, sorted.
func Extensions() []string {
	exts := make([]string, 0, len(extensions))
	for ext := range extensions {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Config configures a Source.
type Config struct {
	// Sheet selects the worksheet for Excel input. Empty means the first sheet.
	Sheet string

	// Logger is the structured logger (optional, uses discard if nil).
	Logger *slog.Logger
}

// Source is the table source collaborator.
type Source struct {
	duck   *adapter.DuckDBAdapter
	sheet  string
	logger *slog.Logger
}

// New creates a Source backed by a connected DuckDB adapter.
func New(duck *adapter.DuckDBAdapter, cfg Config) *Source {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Source{duck: duck, sheet: cfg.Sheet, logger: logger}
}

// Read loads the table stored at path.
func (s *Source) Read(ctx context.Context, path string) (*table.Table, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrNotFound, path)
	}

	format, err := FormatFor(path)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("reading table", "path", path, "format", format)

	var t *table.Table
	switch format {
	case FormatExcel:
		t, err = readExcel(path, s.sheet)
	case FormatSQLite:
		t, err = readSQLite(ctx, path)
	default:
		t, err = s.duck.ReadFile(ctx, path, duckFormats[format])
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	s.logger.Debug("read table", "path", path, "rows", t.NumRows(), "columns", t.NumCols())
	return t, nil
}

// Write stores t at path, replacing any existing file (or SQLite table).
func (s *Source) Write(ctx context.Context, t *table.Table, path string) error {
	format, err := FormatFor(path)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	s.logger.Debug("writing table", "path", path, "format", format, "rows", t.NumRows())

	switch format {
	case FormatExcel:
		err = writeExcel(t, path)
	case FormatSQLite:
		err = writeSQLite(ctx, t, path)
	default:
		err = s.duck.WriteFile(ctx, t, path, duckFormats[format])
	}
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
