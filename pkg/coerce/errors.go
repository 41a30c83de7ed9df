package coerce

import "errors"

// Sentinel errors for registry operations.
var (
	// ErrAlreadyRegistered is returned when a coercer is registered twice
	// under the same key. The registry is append-only; entries are never
	// replaced or removed.
	ErrAlreadyRegistered = errors.New("coerce: key already registered")

	// ErrEmptyColumn is returned when a registration omits the column name.
	ErrEmptyColumn = errors.New("coerce: column name is required")

	// ErrNilCoercer is returned when Register is called with a nil inbound
	// or outbound function. Use RegisterNone for explicit no-op entries.
	ErrNilCoercer = errors.New("coerce: nil coercion function")
)
