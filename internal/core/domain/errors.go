package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidStatement = errors.New("invalid generated statement")
	ErrTableExcluded    = errors.New("table excluded by policy")
)

// ConnectionError means the source could not be reached or refused a
// table-level statement. It is fatal for the current table only.
type ConnectionError struct {
	Op  string
	Err error
}

func (e *ConnectionError) Error() string { return fmt.Sprintf("connection: %s: %v", e.Op, e.Err) }
func (e *ConnectionError) Unwrap() error { return e.Err }

// PartialStatisticError is one failed statistic on one column. The engine
// turns it into a ColumnWarning and keeps the rest of the profile.
type PartialStatisticError struct {
	Column    string
	Statistic string
	Err       error
}

func (e *PartialStatisticError) Error() string {
	return fmt.Sprintf("statistic %s on column %s: %v", e.Statistic, e.Column, e.Err)
}
func (e *PartialStatisticError) Unwrap() error { return e.Err }

// SchemaExtractionError wraps a failed catalog query.
type SchemaExtractionError struct {
	Table string
	Op    string
	Err   error
}

func (e *SchemaExtractionError) Error() string {
	return fmt.Sprintf("extracting schema of %s (%s): %v", e.Table, e.Op, e.Err)
}
func (e *SchemaExtractionError) Unwrap() error { return e.Err }

// TableNotFoundError is returned when the catalog has no columns for a table.
type TableNotFoundError struct {
	Schema string
	Table  string
}

func (e *TableNotFoundError) Error() string {
	if e.Schema == "" {
		return fmt.Sprintf("table %s not found", e.Table)
	}
	return fmt.Sprintf("table %s.%s not found", e.Schema, e.Table)
}

func (e *TableNotFoundError) Is(target error) bool { return target == ErrNotFound }

// IsTableNotFound reports whether err carries a TableNotFoundError.
func IsTableNotFound(err error) bool {
	var nf *TableNotFoundError
	return errors.As(err, &nf)
}
