// Package dbx holds the database plumbing shared by the profile and
// session repositories: the DBTX handle, transaction helpers and goose
// migrations.
package dbx

import (
	"context"
	"database/sql"
	"fmt"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx, so repositories can run
// inside or outside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// InTx runs fn inside a transaction and returns its value. The transaction
// commits when fn returns nil and rolls back otherwise. A panic in fn rolls
// back and is re-raised.
//
//	salt, err := dbx.InTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) ([]byte, error) {
//	    return metadata.NewSQLiteRepository(tx).Get(ctx, "salt")
//	})
func InTx[T any](ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(ctx context.Context, tx DBTX) (T, error)) (v T, err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return v, fmt.Errorf("begin tx: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	v, err = fn(ctx, tx)
	if err != nil {
		var zero T
		return zero, err
	}

	if err := tx.Commit(); err != nil {
		var zero T
		return zero, fmt.Errorf("commit tx: %w", err)
	}
	committed = true
	return v, nil
}

// WithTx is InTx for functions that only report an error.
func WithTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(ctx context.Context, tx DBTX) error) error {
	_, err := InTx(ctx, db, opts, func(ctx context.Context, tx DBTX) (struct{}, error) {
		return struct{}{}, fn(ctx, tx)
	})
	return err
}
