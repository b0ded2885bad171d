package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
)

// Pool matches the methods from *pgxpool.Pool the repositories use.
// This allows us to mock the database in tests.
type Pool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// WithTx runs fn inside a transaction. The transaction is committed only when fn
// returns nil; any error (including a failed commit) leaves nothing behind.
func WithTx(ctx context.Context, pool Pool, fn func(tx pgx.Tx) error) error {
	tx, err := pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "commit tx")
	}
	return nil
}

const (
	foreignKeyViolation = "23503"
	uniqueViolation     = "23505"
)

// ForeignKeyViolation reports the violated constraint name when err is a FK error.
func ForeignKeyViolation(err error) (string, bool) {
	return pgErrorConstraint(err, foreignKeyViolation)
}

// UniqueViolation reports the violated constraint name when err is a unique error.
func UniqueViolation(err error) (string, bool) {
	return pgErrorConstraint(err, uniqueViolation)
}

func pgErrorConstraint(err error, code string) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == code {
		return pgErr.ConstraintName, true
	}
	return "", false
}
