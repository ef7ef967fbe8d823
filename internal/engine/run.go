package engine

// run.go - Request orchestration: read, resolve, aggregate, write

import (
	"context"
	"fmt"
	"time"

	"github.com/leapstack-labs/leappivot/pkg/pivot"
	"github.com/leapstack-labs/leappivot/pkg/table"
)

// Request describes a single pivot invocation.
type Request struct {
	// Input is the table file to read.
	Input string
	// Output is where the pivot is written (optional).
	Output string
	// Options are the caller's column references and fill value.
	Options pivot.Options
}

// Result is the outcome of a Run.
type Result struct {
	Spec   *pivot.Spec
	Table  *table.Table
	Output string
}

// Run reads req.Input, pivots it and writes the result to req.Output when set.
func (e *Engine) Run(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	e.logger.Info("starting pivot", "input", req.Input)

	in, err := e.Read(ctx, req.Input)
	if err != nil {
		return nil, err
	}

	spec, out, err := e.Pivot(ctx, in, req.Options)
	if err != nil {
		return nil, err
	}

	result := &Result{Spec: spec, Table: out}
	if req.Output != "" {
		if err := e.Write(ctx, out, req.Output); err != nil {
			return result, fmt.Errorf("failed to save pivot: %w", err)
		}
		result.Output = req.Output
	}

	e.logger.Info("pivot complete",
		"spec", spec.String(),
		"rows", out.NumRows(),
		"columns", out.NumCols(),
		"output", req.Output,
		"duration_ms", time.Since(start).Milliseconds())
	return result, nil
}
