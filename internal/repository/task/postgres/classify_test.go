package postgres

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	repo "taskHierarchy/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func dialFailure(code string) error {
	return fmt.Errorf("failed to connect to `user=app database=tasks`: %w", &pgconn.PgError{Severity: "FATAL", Code: code})
}

func TestClassifyQueryErr(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected error
	}{
		{name: "password rejected on dial", err: dialFailure("28P01"), expected: repo.ErrStorageUnavailable},
		{name: "database dropped", err: dialFailure("3D000"), expected: repo.ErrStorageUnavailable},
		{name: "server shutting down", err: dialFailure("57P03"), expected: repo.ErrStorageUnavailable},
		{name: "connection exception", err: &pgconn.PgError{Code: "08006"}, expected: repo.ErrStorageUnavailable},
		{name: "too many connections", err: &pgconn.PgError{Code: "53300"}, expected: repo.ErrStorageUnavailable},
		{name: "undefined column", err: &pgconn.PgError{Code: "42703"}, expected: repo.ErrQuerySyntax},
		{name: "undefined table", err: &pgconn.PgError{Code: "42P01"}, expected: repo.ErrQuerySyntax},
		{name: "invalid text representation", err: &pgconn.PgError{Code: "22P02"}, expected: repo.ErrMapping},
		{name: "pool closed", err: errors.New("closed pool"), expected: repo.ErrStorageUnavailable},
		{name: "cancelled", err: context.Canceled, expected: context.Canceled},
		{name: "deadline", err: fmt.Errorf("query: %w", context.DeadlineExceeded), expected: context.DeadlineExceeded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classifyQueryErr(tt.err)

			assert.ErrorIs(t, err, tt.expected)
			assert.ErrorIs(t, err, tt.err, "driver error stays in the chain")
		})
	}
}

func TestClassifyQueryErr_ContextNotWrapped(t *testing.T) {
	err := classifyQueryErr(context.Canceled)

	assert.Equal(t, context.Canceled, err)
	assert.NotErrorIs(t, err, repo.ErrStorageUnavailable)
}

func TestClassifyRowsErr(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected error
	}{
		{name: "scan into wrong type", err: pgx.ScanArgError{ColumnIndex: 1, Err: errors.New("cannot scan NULL into *string")}, expected: repo.ErrMapping},
		{name: "unknown decode failure", err: errors.New("can't scan into dest[0]"), expected: repo.ErrMapping},
		{name: "connection dropped mid-read", err: io.ErrUnexpectedEOF, expected: repo.ErrStorageUnavailable},
		{name: "admin shutdown", err: &pgconn.PgError{Code: "57P01"}, expected: repo.ErrStorageUnavailable},
		{name: "auth expired", err: dialFailure("28000"), expected: repo.ErrStorageUnavailable},
		{name: "numeric out of range", err: &pgconn.PgError{Code: "22003"}, expected: repo.ErrMapping},
		{name: "cancelled", err: context.Canceled, expected: context.Canceled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classifyRowsErr(tt.err)

			assert.ErrorIs(t, err, tt.expected)
		})
	}
}

func TestClassifyPgErr_UnknownClass(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "XX000"}

	err := classifyPgErr(pgErr, pgErr)

	assert.ErrorIs(t, err, pgErr)
	assert.NotErrorIs(t, err, repo.ErrStorageUnavailable)
	assert.NotErrorIs(t, err, repo.ErrQuerySyntax)
	assert.NotErrorIs(t, err, repo.ErrMapping)
}
