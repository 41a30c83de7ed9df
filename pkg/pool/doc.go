// Package pool manages the lifecycle of pooled database connections:
// acquisition, closing, suspension, and resumption, one pool per
// logical database key.
//
// A Manager owns one DBConfig record per key. The record wraps the live
// data source together with the lifecycle callbacks that operate on it.
// Records are immutable: suspend and resume replace the record rather
// than mutating it, and callers only ever receive read-only references.
//
// # Lifecycle
//
// Each key moves through an explicit state machine:
//
//	uninitialized -> active -> suspended -> active (resumed) -> closed
//
// Init acquires the pool, validates connectivity with one throwaway
// ping, and activates the key. Suspend pauses the pool through the
// configured suspend callback; without one it degrades to a full Halt.
// Resume reuses the existing pool in place when the new configuration
// is structurally equal to the old one (lifecycle callbacks excluded
// from the comparison, since they are functions rather than data);
// otherwise it halts and re-initializes. Halt closes whichever resource
// handle the record carries, through the Closer capability interface.
//
// Every transition is logged with the logical key and display name.
//
// # Drivers
//
// Two lifecycles ship with the package: MySQLLifecycle, backed by
// database/sql with go-sql-driver/mysql and a gate that pauses new
// acquisitions while suspended, and PostgresLifecycle, backed by
// pgxpool. Custom lifecycles plug in through named registration:
//
//	m := pool.NewManager()
//	m.RegisterLifecycle("replica", customLifecycle)
//
// Configuration files reference lifecycles by name through the
// initializer/finalizer/suspender/resumer keys; an unresolvable name is
// a fatal configuration error at Init time.
package pool
