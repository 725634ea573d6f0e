// Package sqlxrepos implements the domain repositories on PostgreSQL
// through sqlx. Optimistic concurrency on activities and reports uses a
// version column compared in the UPDATE's WHERE clause.
package sqlxrepos

import (
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

// NewDB wraps an opened *sql.DB for the repositories.
func NewDB(db *sql.DB) *sqlx.DB {
	return sqlx.NewDb(db, "postgres")
}

func rollback(tx *sqlx.Tx) {
	_ = tx.Rollback()
}

func wrapNotFound(err error, notFound error, msg string) error {
	if err == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}
