package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Pool abstracts the pgx connection pool to make testing easier.
type Pool interface {
	Acquire(ctx context.Context) (*pgxpool.Conn, error)
	Close()
}

// Connect initialises a PostgreSQL connection pool using the provided database URL.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}
	return pool, nil
}

// PostgreSQL error codes the service cares about.
const (
	CodeUniqueViolation      = "23505"
	CodeForeignKeyViolation  = "23503"
	CodeSerializationFailure = "40001"
	CodeDeadlockDetected     = "40P01"
	CodeLockNotAvailable     = "55P03"
)

var transientCodes = map[string]struct{}{
	CodeSerializationFailure: {},
	CodeDeadlockDetected:     {},
	CodeLockNotAvailable:     {},
}

// ErrorCode returns the SQLSTATE carried by err, or "" when err is not a server error.
func ErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// IsTransient reports whether err is a concurrency failure that is safe to retry
// by re-running the whole transaction.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, pgx.ErrTxClosed) {
		return true
	}
	_, ok := transientCodes[ErrorCode(err)]
	return ok
}

// IsRetryableWrite reports whether a write transaction lost a race: a
// serialization failure, a deadlock, or a unique violation from a concurrent
// insert of the same key. Context errors are not retryable here.
func IsRetryableWrite(err error) bool {
	code := ErrorCode(err)
	if code == CodeUniqueViolation {
		return true
	}
	_, ok := transientCodes[code]
	return ok
}
