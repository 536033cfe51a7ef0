package sqldb

import (
	"context"
	"database/sql"
	"fmt"
)

// DB wraps the ledger's sql.DB handle together with the dialect it was
// opened with, so repository code can rebind placeholders per backend.
type DB struct {
	*sql.DB
	Dialect Dialect
}

func New(db *sql.DB, dialect Dialect) *DB {
	return &DB{
		DB:      db,
		Dialect: dialect,
	}
}

// WithTx runs fn inside a database transaction. The ledger append uses it
// so a failed insert never leaves a partial write behind.
func (db *DB) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}
