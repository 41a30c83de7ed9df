package dbkit

import "errors"

var (
	// ErrUnknownDatabase is returned when an operation references a
	// logical database the service was not configured with.
	ErrUnknownDatabase = errors.New("dbkit: unknown database key")

	// ErrUnsupportedDatasource is returned when a key's datasource
	// offers no way to execute SQL through the standard interfaces.
	ErrUnsupportedDatasource = errors.New("dbkit: datasource cannot execute queries")
)
