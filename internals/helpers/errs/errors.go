// Package errs berisi taksonomi error domain ledger/enrollment/absensi.
// Service membungkus sentinel di bawah dengan alasan; handler memetakan ke status HTTP.
package errs

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidState        = errors.New("invalid state")
	ErrInvariantViolation  = errors.New("invariant violation")
	ErrTransientDependency = errors.New("transient dependency failure")
)

func NotFound(format string, args ...any) error {
	return wrap(ErrNotFound, format, args...)
}

func InvalidState(format string, args ...any) error {
	return wrap(ErrInvalidState, format, args...)
}

func InvariantViolation(format string, args ...any) error {
	return wrap(ErrInvariantViolation, format, args...)
}

func Transient(format string, args ...any) error {
	return wrap(ErrTransientDependency, format, args...)
}

func wrap(kind error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))
}

// FromGorm: ErrRecordNotFound → NotFound(what), error lain dikembalikan apa adanya
func FromGorm(err error, what string, args ...any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NotFound(what, args...)
	}
	return err
}

// IsDomain: true kalau err termasuk salah satu sentinel di atas
func IsDomain(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrInvalidState) ||
		errors.Is(err, ErrInvariantViolation) ||
		errors.Is(err, ErrTransientDependency)
}

// IsUniqueViolation: SQLSTATE 23505 dari pgx maupun lib/pq (+ gorm TranslateError)
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
