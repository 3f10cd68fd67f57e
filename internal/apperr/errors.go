// Package apperr holds the error kinds shared by every domain package.
// Services return these sentinels (or errors wrapping them) and the HTTP layer
// maps them to status codes with errors.Is.
package apperr

import (
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
)

var (
	ErrForbidden         = errors.New("forbidden")
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrInvalidState      = errors.New("invalid state transition")
	ErrInvalidQuantity   = errors.New("invalid quantity")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrMultiSupplierCart = errors.New("cart contains products from more than one supplier")
	ErrEmptyCart         = errors.New("cart is empty")
	ErrValidation        = errors.New("validation failed")
	ErrUnauthenticated   = errors.New("unauthenticated")

	// ErrConcurrentUpdate is returned by the store when a transaction lost a
	// race (serialization failure, deadlock). Callers may retry.
	ErrConcurrentUpdate = errors.New("concurrent update")
	// ErrTransient is what callers see once retries are exhausted.
	ErrTransient = errors.New("temporarily unavailable, retry the request")
)

// StockError identifies the product that failed a stock check.
type StockError struct {
	ProductID uuid.UUID
	Requested int
	Available int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d", e.ProductID, e.Requested, e.Available)
}

func (e *StockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// Validation wraps ErrValidation with a field-level message.
func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
