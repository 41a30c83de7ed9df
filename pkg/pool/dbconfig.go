package pool

import "context"

// Closer is the capability interface resource handles implement to
// support the generic close path. Built-in datasources implement it;
// custom handles must too if Halt is expected to release them.
type Closer interface {
	Close() error
}

// Pinger is implemented by datasources that can validate connectivity.
// Init issues one throwaway ping through it after acquisition.
type Pinger interface {
	Ping(ctx context.Context) error
}

// DBConfig is the immutable runtime record for one logical database. It
// wraps the live data source with the configuration and lifecycle that
// produced it. Suspend and resume replace the record; nothing mutates
// it in place. Callers receive it as a read-only reference.
type DBConfig struct {
	// Key is the logical database identifier.
	Key string
	// Name is the display name used in operational logs.
	Name string
	// Config is the normalized configuration the record was built from.
	Config Config
	// Datasource is the live pooled handle. It is nil only between
	// construction and successful acquisition.
	Datasource any
	// Datastore and Database are auxiliary resource handles some
	// lifecycles attach. Halt considers them, Datasource first, when
	// picking what to close.
	Datastore any
	Database  any

	lifecycle Lifecycle
}

// handle returns the first non-nil resource handle in close-preference
// order: datasource, datastore, database.
func (d *DBConfig) handle() any {
	switch {
	case d.Datasource != nil:
		return d.Datasource
	case d.Datastore != nil:
		return d.Datastore
	default:
		return d.Database
	}
}

// close releases the record's resource handle. The configured close
// callback wins; otherwise the handle must implement Closer.
func (d *DBConfig) close(ctx context.Context) error {
	h := d.handle()
	if h == nil {
		return nil
	}
	if d.lifecycle.Close != nil {
		return d.lifecycle.Close(ctx, h)
	}
	if c, ok := h.(Closer); ok {
		return c.Close()
	}
	return ErrNotCloseable
}
