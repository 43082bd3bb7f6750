package repository

import "errors"

// Sentinel kinds for entity store errors.
var (
	// ErrUnavailable means no connection could be obtained.
	ErrUnavailable = errors.New("entity store unavailable")
	// ErrQuery means a statement failed on an open connection.
	ErrQuery = errors.New("entity store query failed")
	// ErrUnsupportedDriver is returned by Open for unknown drivers.
	ErrUnsupportedDriver = errors.New("unsupported store driver")
	// ErrUnknownEntity is returned for an Entity without a table mapping.
	ErrUnknownEntity = errors.New("unknown entity")
)
