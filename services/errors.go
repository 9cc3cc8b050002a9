package services

import (
	"errors"
	"fmt"

	"github.com/yeremiapane/restaurant-ordering/database"
)

// Error kinds returned by every service operation. Wrapped errors carry the
// detail; match with errors.Is.
var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("not found")
	ErrEmptyCart         = errors.New("cart is empty")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrConflict          = errors.New("conflict")
)

func validationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// storeError maps persistence errors onto the service kinds.
func storeError(err error, subject string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, database.ErrRecordNotFound):
		return fmt.Errorf("%w: %s", ErrNotFound, subject)
	case errors.Is(err, database.ErrDuplicate):
		return fmt.Errorf("%w: %s already exists", ErrConflict, subject)
	case errors.Is(err, database.ErrVersionConflict):
		return fmt.Errorf("%w: %s was modified concurrently", ErrConflict, subject)
	}
	return fmt.Errorf("%s: %w", subject, err)
}
