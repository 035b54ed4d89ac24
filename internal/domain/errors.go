package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrNoData indicates a lookup found nothing (no cached price, no snapshot).
// Aggregation treats it as a staleness condition, never a failure.
var ErrNoData = errors.New("no data available")

// MissingRateError indicates a requested currency has no rate in the active
// rate set. Conversion fails loudly; a silent 1.0 substitute would produce
// wrong dollar figures.
type MissingRateError struct {
	Currency Currency
}

func (e *MissingRateError) Error() string {
	return fmt.Sprintf("no exchange rate available for %s", e.Currency)
}

// ValidationError rejects an input before any state change. It carries the
// offending field so handlers can surface a field-level message.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// IsValidation reports whether err is (or wraps) a ValidationError
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// InsufficientQuantityError rejects a SELL that exceeds the quantity held
// at its point in the FIFO sequence. It names the shortfall so the caller
// can explain exactly how much is available.
type InsufficientQuantityError struct {
	HoldingID string
	Requested decimal.Decimal
	Held      decimal.Decimal
}

func (e *InsufficientQuantityError) Error() string {
	return fmt.Sprintf("cannot sell %s of holding %s: only %s held",
		e.Requested, e.HoldingID, e.Held)
}

// NotFoundError indicates a requested entity does not exist (or is deleted)
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}

// IsNotFound reports whether err is (or wraps) a NotFoundError
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
