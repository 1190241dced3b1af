package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound is returned when a slot period, batch, entry, wallet or
	// order cannot be located.
	ErrNotFound = errors.New("not found")

	// ErrInsufficientCapacity is returned when a slot reservation exceeds
	// the period's remaining plant capacity.
	ErrInsufficientCapacity = errors.New("insufficient slot capacity")

	// ErrInsufficientStock is returned when a stage transfer exceeds the
	// source entry's available quantity.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrInsufficientBalance is returned when a DEBIT would drive a dealer
	// wallet balance negative.
	ErrInsufficientBalance = errors.New("insufficient wallet balance")

	// ErrMissingField is returned when a required request field is absent.
	ErrMissingField = errors.New("missing required field")

	// ErrValidation is returned for malformed input that survives field
	// presence checks (bad quantities, unknown enums, malformed ids).
	ErrValidation = errors.New("validation failed")

	// ErrConflict is returned when an optimistic version check fails on
	// write. The caller must re-read and retry.
	ErrConflict = errors.New("concurrent modification detected")

	// ErrUpdateFailed is returned when an atomic update matched zero rows.
	// This indicates a data-integrity fault, not a business rejection.
	ErrUpdateFailed = errors.New("update matched no documents")
)

// CapacityError reports a slot reservation that exceeded remaining capacity.
// Available is only populated when the remaining quantity falls below the
// reporting threshold.
type CapacityError struct {
	PeriodID    int64
	Requested   int
	Available   int
	PeriodStart time.Time
	PeriodEnd   time.Time
}

func (e *CapacityError) Error() string {
	rng := fmt.Sprintf("%s to %s", e.PeriodStart.Format("2006-01-02"), e.PeriodEnd.Format("2006-01-02"))
	if e.Available < CapacityReportThreshold {
		return fmt.Sprintf("slot period %d (%s): requested %d plants, only %d available",
			e.PeriodID, rng, e.Requested, e.Available)
	}
	return fmt.Sprintf("slot period %d (%s): requested %d plants exceeds remaining capacity",
		e.PeriodID, rng, e.Requested)
}

func (e *CapacityError) Unwrap() error { return ErrInsufficientCapacity }

// StockError reports a transfer that exceeded a stage entry's availability.
type StockError struct {
	Stage     Stage
	EntryID   int64
	Requested int
	Available int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("%s entry %d: requested %d, only %d available (short %d)",
		e.Stage, e.EntryID, e.Requested, e.Available, e.Requested-e.Available)
}

func (e *StockError) Unwrap() error { return ErrInsufficientStock }

// BalanceError reports a wallet debit that exceeded the available amount.
type BalanceError struct {
	DealerID  int64
	Requested string
	Available string
}

func (e *BalanceError) Error() string {
	return fmt.Sprintf("dealer %d wallet: debit %s exceeds balance %s", e.DealerID, e.Requested, e.Available)
}

func (e *BalanceError) Unwrap() error { return ErrInsufficientBalance }

// MissingFieldError names the absent field.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field: %s", e.Field)
}

func (e *MissingFieldError) Unwrap() error { return ErrMissingField }

// IsNotFound reports whether err indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsClientError reports whether err is caused by the caller's input rather
// than the system's state.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInsufficientCapacity) ||
		errors.Is(err, ErrInsufficientStock) ||
		errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrMissingField) ||
		errors.Is(err, ErrValidation)
}
