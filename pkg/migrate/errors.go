package migrate

import "errors"

var (
	// ErrNoMigrationSet is returned when a key has no configured
	// migration set.
	ErrNoMigrationSet = errors.New("migrate: no migration set for key")

	// ErrNoConfig is returned when a key has no database configuration.
	ErrNoConfig = errors.New("migrate: no configuration for key")

	// ErrEnsureDatabase is returned when the database-creation
	// pre-check fails.
	ErrEnsureDatabase = errors.New("migrate: failed to ensure database exists")

	// ErrSetDialect is returned when the migration engine rejects the
	// configured dialect.
	ErrSetDialect = errors.New("migrate: failed to set dialect")

	// ErrApplyMigrations is returned when applying a migration set
	// fails. Already-applied migrations from the same run stay applied.
	ErrApplyMigrations = errors.New("migrate: failed to apply migrations")

	// ErrRollback is returned when rolling back fails.
	ErrRollback = errors.New("migrate: failed to roll back migrations")

	// ErrNoSQLDatasource is returned when a key's datasource cannot
	// provide a database/sql handle for the migration engine.
	ErrNoSQLDatasource = errors.New("migrate: datasource provides no sql.DB")
)
