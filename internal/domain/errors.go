package domain

import (
	"errors"
	"fmt"
)

// Run-fatal error classes. Adapters wrap these with %w so the engine can pick
// the log signal and metric outcome with errors.Is.
var (
	// ErrFetch covers network failures, timeouts and non-2xx responses from
	// the outage source.
	ErrFetch = errors.New("fetch outage source")

	// ErrMalformedSource means the document has no <table> element at all.
	ErrMalformedSource = errors.New("malformed outage source: no table found")

	// ErrNoData means a table was found but no row produced an outage. A
	// sudden stream of these usually means the source layout changed.
	ErrNoData = errors.New("outage source contains no data rows")

	// ErrPersistence marks store failures.
	ErrPersistence = errors.New("persistence")

	// ErrNotFound is returned by stores for unknown tasks or groups.
	ErrNotFound = errors.New("record not found")
)

// RowParseError is a recoverable failure on a single table row.
type RowParseError struct {
	Row int
	Err error
}

func (e *RowParseError) Error() string {
	return fmt.Sprintf("parse row %d: %v", e.Row, e.Err)
}

func (e *RowParseError) Unwrap() error { return e.Err }

// DispatchError is a recoverable send failure for one group.
type DispatchError struct {
	GroupID string
	Err     error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch to group %s: %v", e.GroupID, e.Err)
}

func (e *DispatchError) Unwrap() error { return e.Err }
