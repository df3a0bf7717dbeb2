// Package checkout implements the purchase transaction coordinator: it
// turns a validated purchase intent into a committed, all-or-nothing
// purchase with its inventory decrements.
package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/munoimshahriar/Event-Ticketing-System/internal/clock"
	"github.com/munoimshahriar/Event-Ticketing-System/internal/model"
	"github.com/munoimshahriar/Event-Ticketing-System/internal/repository"
)

// ErrEmptyCart is returned when checkout is attempted with no lines.
// Nothing is read or written before this check.
var ErrEmptyCart = errors.New("cart is empty")

// ItemUnavailableError reports the first cart line that could not be
// honored during a multi-line checkout.  It names the offending event so
// the buyer knows which line to fix, and carries the live available
// count at the time the transaction was aborted.
type ItemUnavailableError struct {
	EventID    uint64
	EventTitle string
	Requested  int
	Available  int
}

func (e *ItemUnavailableError) Error() string {
	return fmt.Sprintf("not enough tickets for %q: requested %d, available %d",
		e.EventTitle, e.Requested, e.Available)
}

// Store is the persistence surface the coordinator needs.  Every method
// called inside WithTx shares one transaction, so an error returned from
// the WithTx closure undoes every reservation and insert made before it.
type Store interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetEvent(ctx context.Context, eventID uint64) (model.Event, error)
	ReserveTickets(ctx context.Context, eventID uint64, quantity int) error
	InsertPurchase(ctx context.Context, p *model.Purchase) error
	InsertPurchaseLines(ctx context.Context, lines []model.PurchaseLine) error
}

// Coordinator executes purchases.  It owns no state between calls; the
// cart is handed in per request and all durable effects happen inside a
// single Store transaction.
type Coordinator struct {
	store Store
	clock clock.Clock
}

// NewCoordinator returns a Coordinator over the given store.
func NewCoordinator(store Store, clk clock.Clock) *Coordinator {
	return &Coordinator{store: store, clock: clk}
}

// PurchaseInput is the single-event fast path input.
type PurchaseInput struct {
	EventID   uint64
	Quantity  int
	Purchaser model.Purchaser
}

// Purchase buys tickets for one event.  It is the single-item
// equivalent of Checkout and shares the same transactional path, so the
// no-oversell guarantee is identical.
func (c *Coordinator) Purchase(ctx context.Context, in PurchaseInput) (model.Purchase, error) {
	line := model.CartLine{EventID: in.EventID, Quantity: in.Quantity}
	return c.Checkout(ctx, []model.CartLine{line}, in.Purchaser)
}

// Checkout commits a multi-line purchase atomically.  Lines are
// processed in the order given; prices and titles are re-read from live
// event state inside the transaction, never trusted from the cart
// snapshot.  Either every line is reserved and recorded, or the
// transaction rolls back and no inventory changes: a line that cannot be
// honored aborts the whole purchase with *ItemUnavailableError, leaving
// the already-reserved lines restored by the rollback.
//
// Transient storage failures are retried once before the error is
// surfaced; domain failures are never retried.
func (c *Coordinator) Checkout(ctx context.Context, lines []model.CartLine, purchaser model.Purchaser) (model.Purchase, error) {
	if len(lines) == 0 {
		return model.Purchase{}, ErrEmptyCart
	}
	if err := purchaser.Validate(); err != nil {
		return model.Purchase{}, err
	}
	for _, l := range lines {
		if l.Quantity <= 0 {
			return model.Purchase{}, repository.ErrInvalidQuantity
		}
	}

	var result model.Purchase
	err := c.withRetry(ctx, func() error {
		return c.store.WithTx(ctx, func(txCtx context.Context) error {
			purchase := model.Purchase{
				Reference:   newReference(),
				PurchasedAt: c.clock.Now(),
				UserID:      purchaser.UserID,
				GuestName:   purchaser.GuestName,
				GuestEmail:  purchaser.GuestEmail,
			}

			recorded := make([]model.PurchaseLine, 0, len(lines))
			for _, l := range lines {
				event, err := c.store.GetEvent(txCtx, l.EventID)
				if err != nil {
					return err
				}
				if err := c.store.ReserveTickets(txCtx, l.EventID, l.Quantity); err != nil {
					var short *repository.InsufficientTicketsError
					if errors.As(err, &short) {
						return &ItemUnavailableError{
							EventID:    event.ID,
							EventTitle: event.Title,
							Requested:  short.Requested,
							Available:  short.Available,
						}
					}
					return err
				}
				recorded = append(recorded, model.PurchaseLine{
					EventID:        event.ID,
					EventTitle:     event.Title,
					Quantity:       l.Quantity,
					UnitPriceCents: event.PriceCents,
				})
				purchase.TotalCents += event.PriceCents * int64(l.Quantity)
			}

			if err := c.store.InsertPurchase(txCtx, &purchase); err != nil {
				return err
			}
			for i := range recorded {
				recorded[i].PurchaseID = purchase.ID
			}
			if err := c.store.InsertPurchaseLines(txCtx, recorded); err != nil {
				return err
			}

			purchase.Lines = recorded
			result = purchase
			return nil
		})
	})
	if err != nil {
		return model.Purchase{}, err
	}
	return result, nil
}

// withRetry runs fn and, when it fails with something other than a
// domain outcome, runs it exactly once more.  The transaction inside fn
// has already rolled back by the time the retry starts, so the second
// attempt begins from clean state.
func (c *Coordinator) withRetry(ctx context.Context, fn func() error) error {
	err := fn()
	if err == nil || isDomainErr(err) || ctx.Err() != nil {
		return err
	}
	return fn()
}

// isDomainErr reports whether err is a business outcome rather than a
// storage failure.  Domain outcomes are deterministic: retrying them
// would only repeat the same answer.
func isDomainErr(err error) bool {
	var unavailable *ItemUnavailableError
	var short *repository.InsufficientTicketsError
	switch {
	case errors.Is(err, ErrEmptyCart),
		errors.Is(err, model.ErrPurchaserMissing),
		errors.Is(err, repository.ErrEventNotFound),
		errors.Is(err, repository.ErrInvalidQuantity),
		errors.As(err, &unavailable),
		errors.As(err, &short):
		return true
	}
	return false
}

// newReference mints the opaque code handed to the buyer.  UUIDs keep
// references unguessable without a counter table.
func newReference() string {
	return uuid.NewString()
}
