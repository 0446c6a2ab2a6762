package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sakif/flashcards/internal/repository"
)

// querier is the subset of database/sql the repositories use.
// Both *sql.DB and *sql.Tx satisfy it.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx runs fn inside a single transaction.
//
// Commit happens only if fn returns nil. An error or a panic rolls back;
// the panic is re-raised after the rollback. The named return lets the
// deferred function replace a nil error with a commit failure.
//
// If db is already a transactional view, fn joins the open transaction and
// the outer WithTx decides whether to commit.
func (db *DB) WithTx(ctx context.Context, fn func(tx repository.Store) error) (err error) {
	if db.tx != nil {
		return fn(db)
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}
	txDB := &DB{conn: db.conn, q: tx, tx: tx}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				err = errors.Join(err, fmt.Errorf("sqlite: rolling back transaction: %w", rbErr))
			}
			return
		}
		if cErr := tx.Commit(); cErr != nil {
			err = fmt.Errorf("sqlite: committing transaction: %w", cErr)
		}
	}()

	err = fn(txDB)
	return err
}
