package dbutils

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
)

// Opens and pings a database/sql connection pool
func Open(driver string, dsn string, maxConns int) (*sql.DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", driver)
	}

	if maxConns > 0 {
		db.SetMaxOpenConns(maxConns)
		// the number of idle connections should be the same as the number of open connections.
		// otherwise connections are constantly closed and reopened between operations, and that
		// cost ends up in the measured times.
		db.SetMaxIdleConns(maxConns)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "ping %s", driver)
	}

	return db, nil
}

// Executes the statements in order, stopping at the first error
func ExecAll(ctx context.Context, db *sql.DB, statements ...string) error {
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrapf(err, "exec %q", stmt)
		}
	}
	return nil
}

// Reclaims the space of deleted rows and refreshes the planner statistics
func Vacuum(ctx context.Context, db *sql.DB, driver string) error {
	switch driver {
	case "postgres":
		return ExecAll(ctx, db, "vacuum analyze")
	case "sqlite3":
		return ExecAll(ctx, db, "VACUUM", "ANALYZE")
	default:
		return nil
	}
}

// Runs fn inside a transaction, committing on success and rolling back otherwise
func InTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return errors.Wrap(tx.Commit(), "commit")
}
