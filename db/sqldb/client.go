package sqldb

import (
	"context"
	"errors"
)

var ErrNoRows = errors.New("sqldb: no rows in result set")

// Client - a connection pool to one database. Statements use the dialect's
// own placeholders; see PlaceholderPrefix.
type Client interface {
	Init() error
	Close() error
	Conf() *Conf
	DSN() string
	Ping(ctx context.Context) error
	// PlaceholderPrefix - '?' for mysql, '$' for pgsql
	PlaceholderPrefix() byte
	// RawStore holds the embedded statements converted to this dialect.
	RawStore() *RawSQLStore

	Exec(ctx context.Context, query string, args ...any) (Result, error)
	QueryRows(ctx context.Context, query string, args ...any) (Rows, error) // Eager. Fail upfront on statement execution
	QueryRow(ctx context.Context, query string, args ...any) Row            // Lazy. only fails at Scan()
}
