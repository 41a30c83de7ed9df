// Package dbkit is a database access layer built from five pieces: a
// value coercion registry, a cached query template builder, a parameter
// marshaling DSL, a connection pool lifecycle manager, and a migration
// runner.
//
// The Service type wires the pieces together behind one constructor so
// applications hold a single explicitly-constructed value instead of
// package globals:
//
//	svc, err := dbkit.New(
//	    dbkit.WithDatabases(configs),
//	    dbkit.WithMigrations(sets),
//	)
//	if err != nil { ... }
//	defer svc.Close()
//
//	if err := svc.Init(ctx); err != nil { ... }
//
//	res, err := svc.Exec(ctx, "main",
//	    "insert into %[t] (email) values (?)",
//	    dbkit.Subs{"t": "users"},
//	    dbkit.Table("users"), dbkit.Col("email"), "ada@example.com",
//	)
//
// Each piece is usable on its own through its package: pkg/coerce,
// pkg/qtpl, pkg/params, pkg/pool, and pkg/migrate.
package dbkit
