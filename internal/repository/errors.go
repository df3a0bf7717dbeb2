// Package repository defines error values shared across repositories.
// These sentinels let higher layers such as handlers and the checkout
// coordinator distinguish failure scenarios without string matching.
// Every mutating operation reports its outcome through these values;
// none of them are ever used as panics or control-flow exceptions.
package repository

import (
	"errors"
	"fmt"
)

// ErrEventNotFound indicates the requested event id is unknown.
var ErrEventNotFound = errors.New("event not found")

// ErrCategoryNotFound indicates the requested category id is unknown.
var ErrCategoryNotFound = errors.New("category not found")

// ErrPurchaseNotFound indicates no purchase matches the given id or
// reference code.
var ErrPurchaseNotFound = errors.New("purchase not found")

// ErrInvalidQuantity is returned when a reservation or purchase is
// attempted with a non-positive quantity.  It is detected before any
// mutation, so inventory is never touched.
var ErrInvalidQuantity = errors.New("invalid quantity")

// ErrConflict is returned when a delete cannot proceed because of
// dependent records, such as removing an event that has been purchased.
// Handlers translate this into HTTP 409.
var ErrConflict = errors.New("conflict")

// InsufficientTicketsError is returned when a reservation asks for more
// tickets than the event has left.  It carries the live available count
// so callers can render a specific message ("only 3 tickets left")
// instead of a generic failure.
type InsufficientTicketsError struct {
	EventID   uint64
	Requested int
	Available int
}

func (e *InsufficientTicketsError) Error() string {
	return fmt.Sprintf("insufficient tickets for event %d: requested %d, available %d",
		e.EventID, e.Requested, e.Available)
}
