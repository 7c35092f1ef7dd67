package records

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound         = errors.New("record not found")
	ErrDuplicate        = errors.New("record already exists")
	ErrInvalidStatus    = errors.New("invalid certificate set status")
	ErrEmptyRoster      = errors.New("roster has no holders")
	ErrShortIDExhausted = errors.New("could not allocate a free certificate id")
)

// mapError converts driver errors into package errors.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicate
	}
	return err
}

// MapHTTPStatus maps record errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidStatus), errors.Is(err, ErrEmptyRoster):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
