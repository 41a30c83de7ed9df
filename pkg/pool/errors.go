package pool

import "errors"

var (
	// ErrUnknownDatabase is returned for operations on a key that was
	// never initialized.
	ErrUnknownDatabase = errors.New("pool: unknown database key")

	// ErrPoolClosed is returned for operations on a halted key. Closed
	// is terminal for a record; only a fresh Init revives the key.
	ErrPoolClosed = errors.New("pool: closed")

	// ErrPoolSuspended is returned when an acquisition would need an
	// active pool but the key is suspended.
	ErrPoolSuspended = errors.New("pool: suspended")

	// ErrAlreadyInitialized is returned when Init is called for a key
	// that is currently active or suspended.
	ErrAlreadyInitialized = errors.New("pool: already initialized")

	// ErrUnresolvedCallback is returned when a configuration names a
	// lifecycle that is not registered. Fatal for that database's startup.
	ErrUnresolvedCallback = errors.New("pool: unresolved lifecycle callback")

	// ErrNotCloseable is returned when a record carries no resource
	// handle implementing Closer.
	ErrNotCloseable = errors.New("pool: datasource does not implement Closer")

	// ErrFailedToConnect is returned when acquisition or the validation
	// ping fails after all retries. Retrying beyond that is the pool
	// implementation's concern, not this layer's.
	ErrFailedToConnect = errors.New("pool: failed to connect")

	// ErrLoadConfig is returned when the multi-database configuration
	// file cannot be read or parsed.
	ErrLoadConfig = errors.New("pool: failed to load configuration")
)
