// Package migrate applies and rolls back ordered migration sets per
// logical database, driving the pool manager to bring databases up and
// tearing down only what it started.
//
// # Snapshot bookkeeping
//
// Every run snapshots which logical databases are active before and
// after the operation. Databases that were already up before the call
// stay up afterwards; databases the runner itself started are halted
// once the run completes. A failing migration propagates immediately
// and skips the cleanup for that run, leaving started services running.
//
// # Usage
//
//	r := migrate.NewRunner(manager, configs, map[string]migrate.Set{
//	    "main": {FS: mainMigrations, Table: "schema_migrations"},
//	})
//
//	if err := r.Up(ctx); err != nil { ... }
//
// Before applying a set, the runner issues a database-creation
// pre-check (CREATE DATABASE IF NOT EXISTS on MySQL, a catalog-checked
// CREATE DATABASE on PostgreSQL) so first deployments need no manual
// provisioning step.
//
// Rollback accepts three shapes: the zero RollbackSpec rolls back one
// migration, Steps rolls back a count, and Version rolls back down to a
// specific migration identifier.
//
// Migrations themselves are executed by goose; the Migrator interface
// is the seam for substituting another engine.
package migrate
