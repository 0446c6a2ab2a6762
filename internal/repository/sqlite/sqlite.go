// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// WHY SQLITE?
// SQLite is an embedded database: it lives inside the Go binary as a single
// file. No separate database server to run. It enforces foreign keys with
// ON DELETE CASCADE and UNIQUE constraints, which is all the integrity this
// service needs.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo, so you need a C compiler and cross-compilation
// gets painful. modernc.org/sqlite is a pure Go translation of SQLite.
//
// ONE CONNECTION:
// database/sql hands out pooled connections. With SQLite that causes two
// problems: every ":memory:" connection is a separate, empty database, and
// concurrent writers on separate connections fail with SQLITE_BUSY. We cap
// the pool at a single connection so transactions serialize in Go instead.
// The consequence for code in this package: never run a second query while
// a *sql.Rows is still open.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"

	"github.com/sakif/flashcards/internal/repository"

	// Registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// MIGRATIONS:
// Schema changes are plain SQL files annotated for goose and embedded into
// the binary, so a deployment never depends on files next to the executable.
//
//go:embed migrations/*.sql
var migrations embed.FS

// compile-time check that *DB implements repository.Store
var _ repository.Store = (*DB)(nil)

// DB wraps a sql.DB connection pool and hands out repositories.
//
// A DB is either the root handle (tx == nil, queries go to the pool) or a
// transactional view created by WithTx (queries go to tx). Both expose the
// same Users/Decks/Cards accessors, so repository code never knows which one
// it is running on.
type DB struct {
	conn *sql.DB
	q    querier
	tx   *sql.Tx
}

// New opens the SQLite database at dbPath and runs migrations.
//
// dbPath examples:
//   - "data/flashcards.db" → file-based database (persistent)
//   - ":memory:"           → in-memory database (tests)
func New(ctx context.Context, dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)
	conn.SetConnMaxIdleTime(0)

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// PRAGMA STATEMENTS:
	// Foreign keys are OFF by default in SQLite (for backwards compatibility).
	// Cascading deletes from users → decks → cards depend on them.
	pragmas := []string{
		"PRAGMA foreign_keys=ON",
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := conn.ExecContext(ctx, p); err != nil {
			conn.Close()
			return nil, fmt.Errorf("sqlite: %s: %w", p, err)
		}
	}

	db := &DB{conn: conn, q: conn}

	if err := db.migrate(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool. Only call it on the root handle.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping verifies the database is reachable. Used by the health check.
func (db *DB) Ping(ctx context.Context) error {
	if err := db.conn.PingContext(ctx); err != nil {
		return fmt.Errorf("sqlite: ping: %w", err)
	}
	return nil
}

func (db *DB) Users() repository.UserRepository { return &UserDB{q: db.q} }
func (db *DB) Decks() repository.DeckRepository { return &DeckDB{q: db.q} }
func (db *DB) Cards() repository.CardRepository { return &CardDB{q: db.q} }

// migrate applies every pending goose migration.
//
// The goose Provider pins one connection for the whole run, which suits the
// single-connection pool above.
func (db *DB) migrate(ctx context.Context) error {
	fsys, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("locating migrations: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectSQLite3, db.conn, fsys)
	if err != nil {
		return fmt.Errorf("creating migration provider: %w", err)
	}

	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("applying migrations: %w", err)
	}
	return nil
}
