package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/munoimshahriar/Event-Ticketing-System/internal/model"
)

type txKey struct{}

// errNoTx signals a checkout mutation attempted outside WithTx.  This is
// a programming error, not a runtime condition.
var errNoTx = errors.New("repository: mutation outside transaction")

// CheckoutStore bundles the event, inventory and purchase repositories
// behind the narrow surface the checkout coordinator needs.  All calls
// made inside WithTx share one database transaction carried through the
// context, so a failure at any step rolls back every reservation and
// insert made before it.
type CheckoutStore struct {
	db        *sql.DB
	events    *EventRepo
	inventory *InventoryRepo
	purchases *PurchaseRepo
}

// NewCheckoutStore returns a CheckoutStore over the given repositories.
func NewCheckoutStore(db *sql.DB, events *EventRepo, inventory *InventoryRepo, purchases *PurchaseRepo) *CheckoutStore {
	return &CheckoutStore{db: db, events: events, inventory: inventory, purchases: purchases}
}

func txFromContext(ctx context.Context) *sql.Tx {
	tx, _ := ctx.Value(txKey{}).(*sql.Tx)
	return tx
}

// WithTx runs fn inside a database transaction.  The transaction is
// committed when fn returns nil and rolled back otherwise.  Nested calls
// join the enclosing transaction.
func (s *CheckoutStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if txFromContext(ctx) != nil {
		return fn(ctx)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	txCtx := context.WithValue(ctx, txKey{}, tx)
	if err := fn(txCtx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// GetEvent loads an event, inside the ambient transaction when present.
func (s *CheckoutStore) GetEvent(ctx context.Context, eventID uint64) (model.Event, error) {
	if tx := txFromContext(ctx); tx != nil {
		return s.events.GetByIDTx(ctx, tx, eventID)
	}
	return s.events.GetByID(ctx, eventID)
}

// ReserveTickets atomically decrements available stock for an event.
// Must be called inside WithTx.
func (s *CheckoutStore) ReserveTickets(ctx context.Context, eventID uint64, quantity int) error {
	tx := txFromContext(ctx)
	if tx == nil {
		return errNoTx
	}
	return s.inventory.ReserveTx(ctx, tx, eventID, quantity)
}

// InsertPurchase writes the purchase header.  Must be called inside
// WithTx.
func (s *CheckoutStore) InsertPurchase(ctx context.Context, p *model.Purchase) error {
	tx := txFromContext(ctx)
	if tx == nil {
		return errNoTx
	}
	return s.purchases.CreateTx(ctx, tx, p)
}

// InsertPurchaseLines writes the purchase line items.  Must be called
// inside WithTx.
func (s *CheckoutStore) InsertPurchaseLines(ctx context.Context, lines []model.PurchaseLine) error {
	tx := txFromContext(ctx)
	if tx == nil {
		return errNoTx
	}
	return s.purchases.CreateLinesBulkTx(ctx, tx, lines)
}
