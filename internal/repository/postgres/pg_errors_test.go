package postgresrepo

import (
	"errors"
	"fmt"
	"testing"

	"github.com/elisaschroeder/eventease/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestWrapDBErr(t *testing.T) {
	other := errors.New("boom")

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"no rows", pgx.ErrNoRows, repository.ErrNotFound},
		{"unique", &pgconn.PgError{Code: "23505"}, repository.ErrConflict},
		{"capacity check", fmt.Errorf("exec: %w", &pgconn.PgError{Code: "23514"}), repository.ErrCapacityExceeded},
		{"other", other, other},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := wrapDBErr("op", tt.err)
			if !errors.Is(got, tt.want) {
				t.Errorf("wrapDBErr() = %v, want wrapping %v", got, tt.want)
			}
		})
	}

	if wrapDBErr("op", nil) != nil {
		t.Error("wrapDBErr(nil) should be nil")
	}
}
