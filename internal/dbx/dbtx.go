// Package dbx holds the database plumbing shared by repositories and
// services: the DBTX handle accepted by every repository, a transaction
// runner, and classification of Postgres constraint violations.
package dbx

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// DBTX is what a repository needs to run statements. *sql.DB and *sql.Tx
// both satisfy it, so a repo is bound either to the pool or to a tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// TxStarter opens transactions; *sql.DB implements it.
type TxStarter interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// WithTx runs fn inside a transaction opened on db.
//
// A nil return from fn commits. An error from fn rolls back and is returned
// unchanged, joined with the rollback failure if there was one, so callers
// can still match sentinel errors with errors.Is. A panic in fn rolls back
// and is re-raised.
func WithTx(ctx context.Context, db TxStarter, opts *sql.TxOptions, fn func(ctx context.Context, tx DBTX) error) (err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				err = errors.Join(err, fmt.Errorf("rollback tx: %w", rbErr))
			}
			return
		}
		if cErr := tx.Commit(); cErr != nil {
			err = fmt.Errorf("commit tx: %w", cErr)
		}
	}()

	return fn(ctx, tx)
}
