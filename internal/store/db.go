package store

import (
	"context"
	"database/sql"
)

// DBTX is the read surface the word stores need. *sql.DB, *sql.Tx and
// *sql.Conn all satisfy it, so a store can run inside a caller's
// transaction without knowing about it.
type DBTX interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// TxBeginner is implemented by *sql.DB.
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

var (
	_ DBTX       = (*sql.DB)(nil)
	_ DBTX       = (*sql.Tx)(nil)
	_ DBTX       = (*sql.Conn)(nil)
	_ TxBeginner = (*sql.DB)(nil)
)
