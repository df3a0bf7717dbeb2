package repository

import (
	"context"
	"database/sql"
)

// InventoryRepo is the single authority for checking and decrementing an
// event's available ticket count.  No other code path writes the
// available_tickets column.  The reservation primitive is one
// conditional UPDATE, so the check and the decrement are a single atomic
// step at the storage layer: two rival reservations for the last tickets
// can never both succeed, regardless of how many request handlers run
// concurrently.
type InventoryRepo struct {
	db *sql.DB
}

// NewInventoryRepo returns an InventoryRepo bound to the given database.
func NewInventoryRepo(db *sql.DB) *InventoryRepo { return &InventoryRepo{db: db} }

// ReserveTx atomically checks and decrements the available ticket count
// for an event within the caller's transaction.  The WHERE clause makes
// the decrement conditional, so there is no read-then-write gap visible
// to other callers; InnoDB holds the row lock until the transaction
// commits or rolls back, which also restores the decrement when a later
// step of the same checkout fails.
//
// Outcomes: nil on success, ErrInvalidQuantity for quantity <= 0 (checked
// before touching the database), ErrEventNotFound for an unknown event,
// or *InsufficientTicketsError carrying the live available count.
func (r *InventoryRepo) ReserveTx(ctx context.Context, tx *sql.Tx, eventID uint64, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	res, err := tx.ExecContext(ctx,
		`UPDATE events SET available_tickets = available_tickets - ? WHERE id = ? AND available_tickets >= ?`,
		quantity, eventID, quantity)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}
	// No row matched: either the event does not exist or stock is short.
	// Re-read inside the same transaction to report the live count.
	var available int
	err = tx.QueryRowContext(ctx,
		`SELECT available_tickets FROM events WHERE id = ?`, eventID).Scan(&available)
	if err == sql.ErrNoRows {
		return ErrEventNotFound
	}
	if err != nil {
		return err
	}
	return &InsufficientTicketsError{EventID: eventID, Requested: quantity, Available: available}
}
