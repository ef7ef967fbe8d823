package pivot

import "errors"

// Validation errors. Resolve wraps one of these with a description of the
// offending argument, so callers test with errors.Is.
var (
	// ErrInvalidType reports an argument of the wrong shape or type:
	// a malformed table, a column reference that is not a name, list or set
	// of names, or a non-numeric fill value.
	ErrInvalidType = errors.New("invalid type")

	// ErrInvalidValue reports a well-typed but inconsistent argument:
	// an empty table, an unknown column, overlapping index and columns, or a
	// table lacking the numeric or categorical columns a default needs.
	ErrInvalidValue = errors.New("invalid value")
)
