package db

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestErrorClassification(t *testing.T) {
	wrapped := func(code string) error {
		return fmt.Errorf("exec: %w", &pgconn.PgError{Code: code})
	}

	cases := []struct {
		name      string
		err       error
		transient bool
		retryable bool
	}{
		{"nil", nil, false, false},
		{"serialization", wrapped(CodeSerializationFailure), true, true},
		{"deadlock", wrapped(CodeDeadlockDetected), true, true},
		{"lockNotAvailable", wrapped(CodeLockNotAvailable), true, true},
		{"uniqueViolation", wrapped(CodeUniqueViolation), false, true},
		{"foreignKey", wrapped(CodeForeignKeyViolation), false, false},
		{"deadline", context.DeadlineExceeded, true, false},
		{"txClosed", pgx.ErrTxClosed, true, false},
		{"plain", errors.New("boom"), false, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsTransient(tc.err); got != tc.transient {
				t.Fatalf("IsTransient = %v, want %v", got, tc.transient)
			}
			if got := IsRetryableWrite(tc.err); got != tc.retryable {
				t.Fatalf("IsRetryableWrite = %v, want %v", got, tc.retryable)
			}
		})
	}
}

func TestErrorCode(t *testing.T) {
	if code := ErrorCode(fmt.Errorf("wrap: %w", &pgconn.PgError{Code: CodeUniqueViolation})); code != CodeUniqueViolation {
		t.Fatalf("expected %s got %q", CodeUniqueViolation, code)
	}
	if code := ErrorCode(errors.New("plain")); code != "" {
		t.Fatalf("expected empty code got %q", code)
	}
}
