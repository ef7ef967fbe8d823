// Package engine provides the pivot execution engine.
// It reads tables through the source layer, resolves pivot parameters and
// computes per-group means in an embedded DuckDB database.
package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/leappivot/internal/adapter"
	"github.com/leapstack-labs/leappivot/internal/source"
	"github.com/leapstack-labs/leappivot/pkg/pivot"
	"github.com/leapstack-labs/leappivot/pkg/table"
)

// Engine orchestrates reading, resolving, aggregating and writing pivots.
type Engine struct {
	db     *adapter.DuckDBAdapter
	source *source.Source

	// Structured logger
	logger *slog.Logger
}

// Config holds engine configuration.
type Config struct {
	// Database is the path to the DuckDB database (empty for in-memory).
	Database string
	// Sheet selects the worksheet read from Excel inputs (empty for the first).
	Sheet string
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// New creates an engine connected to DuckDB.
func New(ctx context.Context, cfg Config) (*Engine, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	logger.Debug("initializing engine", "database", cfg.Database, "sheet", cfg.Sheet)

	db := adapter.NewDuckDBAdapter()
	if err := db.Connect(ctx, adapter.Config{Path: cfg.Database, Logger: logger}); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &Engine{
		db:     db,
		source: source.New(db, source.Config{Sheet: cfg.Sheet, Logger: logger}),
		logger: logger,
	}, nil
}

// Close releases the database connection.
func (e *Engine) Close() error {
	return e.db.Close()
}

// Read loads the table at path.
func (e *Engine) Read(ctx context.Context, path string) (*table.Table, error) {
	return e.source.Read(ctx, path)
}

// Write stores t at path, choosing the format from the extension.
func (e *Engine) Write(ctx context.Context, t *table.Table, path string) error {
	return e.source.Write(ctx, t, path)
}

// Pivot resolves opts against t and aggregates the result.
func (e *Engine) Pivot(ctx context.Context, t *table.Table, opts pivot.Options) (*pivot.Spec, *table.Table, error) {
	spec, err := pivot.Resolve(t, opts)
	if err != nil {
		return nil, nil, err
	}
	e.logger.Debug("resolved pivot", "spec", spec.String())

	out, err := e.Aggregate(ctx, t, spec)
	if err != nil {
		return spec, nil, err
	}
	return spec, out, nil
}
