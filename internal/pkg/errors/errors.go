package errors

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is a generic sentinel for missing resources.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument is a generic sentinel for invalid input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrConflict marks write conflicts (unique violations, concurrent writers).
	ErrConflict = errors.New("conflict")
	// ErrUnavailable marks a backing store that could not be reached.
	ErrUnavailable = errors.New("unavailable")
)

// MapStore tags infrastructure errors with the sentinels above so callers can branch with errors.Is.
func MapStore(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrConflict) || errors.Is(err, ErrUnavailable) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errors.Join(ErrNotFound, err)
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return errors.Join(ErrConflict, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch strings.TrimSpace(pgErr.Code) {
		case "23505", "40001", "40P01":
			return errors.Join(ErrConflict, err)
		}
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "unique constraint failed"), strings.Contains(msg, "database is locked"):
		return errors.Join(ErrConflict, err)
	case strings.Contains(msg, "connection refused"), strings.Contains(msg, "broken pipe"):
		return errors.Join(ErrUnavailable, err)
	}
	return err
}
