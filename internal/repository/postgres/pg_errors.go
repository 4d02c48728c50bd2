package postgresrepo

import (
	"errors"
	"fmt"

	"github.com/elisaschroeder/eventease/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	codeUniqueViolation = "23505"
	codeCheckViolation  = "23514"
)

// wrapDBErr maps driver errors to repository errors and prefixes op.
func wrapDBErr(op string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	var pge *pgconn.PgError
	if errors.As(err, &pge) {
		switch pge.Code {
		case codeUniqueViolation:
			return fmt.Errorf("%s:%w", op, repository.ErrConflict)
		case codeCheckViolation:
			return fmt.Errorf("%s:%w", op, repository.ErrCapacityExceeded)
		}
	}

	return fmt.Errorf("%s:%w", op, err)
}
