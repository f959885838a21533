package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ivankudzin/heartsync/internal/repo/repoerr"
)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	classConnection         = "08"
	codeAdminShutdown       = "57P01"
	codeCannotConnectNow    = "57P03"
)

func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, repoerr.ErrNotFound)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, repoerr.Wrap(repoerr.ErrUnavailable, err))
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == codeUniqueViolation:
			return fmt.Errorf("%s: %w", op, repoerr.Wrap(repoerr.ErrConflict, err))
		case pgErr.Code == codeForeignKeyViolation:
			return fmt.Errorf("%s: %w", op, repoerr.Wrap(repoerr.ErrNotFound, err))
		case strings.HasPrefix(pgErr.Code, classConnection),
			pgErr.Code == codeAdminShutdown,
			pgErr.Code == codeCannotConnectNow:
			return fmt.Errorf("%s: %w", op, repoerr.Wrap(repoerr.ErrUnavailable, err))
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) || pgconn.SafeToRetry(err) || pgconn.Timeout(err) {
		return fmt.Errorf("%s: %w", op, repoerr.Wrap(repoerr.ErrUnavailable, err))
	}

	return fmt.Errorf("%s: %w", op, err)
}
