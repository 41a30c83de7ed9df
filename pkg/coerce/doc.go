// Package coerce provides a two-directional value coercion registry for
// converting values between application types and database column types.
//
// Coercers are registered under a table/column key and looked up with a
// column-only fallback. Keys are case-insensitive and treat hyphens and
// underscores as equivalent, so "user-accounts/created-at" and
// "user_accounts/created_at" resolve to the same entry.
//
// # Registration
//
// Register a pair of functions per column, one for each direction:
//
//	reg := coerce.NewRegistry()
//	err := reg.Register("users", "created_at",
//	    coerce.Func(timeToUnix), // inbound: application -> storage
//	    coerce.Func(unixToTime), // outbound: storage -> application
//	)
//
// A column without a table scopes the entry to every table:
//
//	err := reg.Register("", "deleted_at", timeToUnix, unixToTime)
//
// Columns that are known to need no conversion can be marked explicitly,
// which suppresses the fallback lookup and records the column as verified:
//
//	err := reg.RegisterNone("users", "id")
//
// # Lookup
//
// Coercion is applied through In and Out. A value with no registered
// coercer passes through unchanged, so unanticipated columns never fail:
//
//	v, err := reg.In("users", "created_at", t)
//
// The Resolve method exposes how a key resolved (qualified entry, column
// fallback, explicit no-op, or miss) for diagnostics and tests.
//
// The registry is append-only and safe for concurrent use.
package coerce
