package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/munoimshahriar/Event-Ticketing-System/internal/model"
)

// Availability buckets accepted by EventFilter.Availability.
const (
	AvailabilityAvailable = "available" // available_tickets > 0
	AvailabilitySoldOut   = "soldout"   // available_tickets == 0
)

// EventFilter defines catalog search criteria and pagination.  Zero
// values mean "no constraint".  Reads always reflect the latest
// committed inventory state; the catalog never writes availability.
type EventFilter struct {
	Title        string     // case-insensitive substring match
	CategoryID   uint64     // exact category match
	DateFrom     *time.Time // inclusive lower bound on event date
	DateTo       *time.Time // inclusive upper bound on event date
	Availability string     // "", "available" or "soldout"
	SortBy       string     // "date" (default), "title" or "price"
	Page         int
	PageSize     int
}

// buildEventFilter translates an EventFilter into a WHERE condition and
// its arguments.  Kept separate from the query methods so the
// translation is testable without a database.
func buildEventFilter(f EventFilter) (string, []any) {
	where := []string{}
	args := []any{}

	if f.Title != "" {
		where = append(where, "LOWER(e.title) LIKE ?")
		args = append(args, "%"+strings.ToLower(f.Title)+"%")
	}
	if f.CategoryID != 0 {
		where = append(where, "e.category_id = ?")
		args = append(args, f.CategoryID)
	}
	if f.DateFrom != nil {
		where = append(where, "e.date >= ?")
		args = append(args, f.DateFrom.UTC())
	}
	if f.DateTo != nil {
		where = append(where, "e.date <= ?")
		args = append(args, f.DateTo.UTC())
	}
	switch f.Availability {
	case AvailabilityAvailable:
		where = append(where, "e.available_tickets > 0")
	case AvailabilitySoldOut:
		where = append(where, "e.available_tickets = 0")
	}

	if len(where) == 0 {
		return "1=1", args
	}
	return strings.Join(where, " AND "), args
}

// eventOrderBy maps a SortBy value to a safe ORDER BY clause.  Unknown
// values fall back to date ordering.
func eventOrderBy(sortBy string) string {
	switch strings.ToLower(sortBy) {
	case "title":
		return "e.title ASC, e.id ASC"
	case "price":
		return "e.price_cents ASC, e.id ASC"
	default:
		return "e.date ASC, e.id ASC"
	}
}

const eventColumns = `e.id, e.title, e.date, e.price_cents, e.available_tickets, e.category_id, e.organizer_id, e.created_at, e.updated_at`

// EventRepo manages persistence for catalog events.  Availability is
// read here but only ever written through InventoryRepo's reservation
// path (and the initial stock at creation).
type EventRepo struct {
	db *sql.DB
}

// NewEventRepo returns an EventRepo bound to the given database.
func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

func scanEvent(row interface{ Scan(...any) error }) (model.Event, error) {
	var e model.Event
	var organizerID sql.NullInt64
	err := row.Scan(&e.ID, &e.Title, &e.Date, &e.PriceCents, &e.AvailableTickets,
		&e.CategoryID, &organizerID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return model.Event{}, err
	}
	if organizerID.Valid {
		oid := uint64(organizerID.Int64)
		e.OrganizerID = &oid
	}
	e.Date = e.Date.UTC()
	return e, nil
}

// GetByID returns a single event or ErrEventNotFound.
func (r *EventRepo) GetByID(ctx context.Context, id uint64) (model.Event, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events e WHERE e.id = ?`, id)
	e, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return model.Event{}, ErrEventNotFound
	}
	return e, err
}

// GetByIDTx is GetByID within an existing transaction, used by checkout
// so the price read participates in the commit's isolation.
func (r *EventRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Event, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events e WHERE e.id = ?`, id)
	e, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return model.Event{}, ErrEventNotFound
	}
	return e, err
}

// Search returns events matching the filter plus the unpaged total.
func (r *EventRepo) Search(ctx context.Context, f EventFilter) ([]model.Event, int64, error) {
	cond, args := buildEventFilter(f)

	var total int64
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM events e WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 || f.PageSize > 200 {
		f.PageSize = 50
	}
	limit := f.PageSize
	offset := (f.Page - 1) * f.PageSize

	query := `SELECT ` + eventColumns + ` FROM events e WHERE ` + cond +
		` ORDER BY ` + eventOrderBy(f.SortBy) + ` LIMIT ? OFFSET ?`
	argsData := append(append([]any{}, args...), limit, offset)

	rows, err := r.db.QueryContext(ctx, query, argsData...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]model.Event, 0, limit)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Create inserts a new event with its initial ticket stock and
// populates generated fields on the given struct.
func (r *EventRepo) Create(ctx context.Context, e *model.Event) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO events (title, date, price_cents, available_tickets, category_id, organizer_id)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.Title, e.Date.UTC(), e.PriceCents, e.AvailableTickets, e.CategoryID, nullableID(e.OrganizerID))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)
	fresh, err := r.GetByID(ctx, e.ID)
	if err != nil {
		return err
	}
	*e = fresh
	return nil
}

// Update rewrites the mutable catalog fields of an event.  Availability
// is deliberately not included: stock changes only flow through the
// inventory reservation path.
func (r *EventRepo) Update(ctx context.Context, e *model.Event) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE events SET title = ?, date = ?, price_cents = ?, category_id = ? WHERE id = ?`,
		e.Title, e.Date.UTC(), e.PriceCents, e.CategoryID, e.ID)
	if err != nil {
		return err
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		// Distinguish a missing row from an update that changed nothing.
		if _, getErr := r.GetByID(ctx, e.ID); getErr != nil {
			return getErr
		}
	}
	fresh, err := r.GetByID(ctx, e.ID)
	if err != nil {
		return err
	}
	*e = fresh
	return nil
}

// HasPurchases reports whether any purchase line references the event.
func (r *EventRepo) HasPurchases(ctx context.Context, id uint64) (bool, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM purchase_lines WHERE event_id = ?`, id).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Delete hard-deletes an event.  Events with existing purchases cannot
// be deleted; the receipt's referential integrity wins and the caller
// gets ErrConflict.
func (r *EventRepo) Delete(ctx context.Context, id uint64) error {
	purchased, err := r.HasPurchases(ctx, id)
	if err != nil {
		return err
	}
	if purchased {
		return ErrConflict
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrEventNotFound
	}
	return nil
}

// CountByOrganizer reports how many events an organizer owns, for the
// dashboard summary.
func (r *EventRepo) CountByOrganizer(ctx context.Context, organizerID uint64) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM events WHERE organizer_id = ?`, organizerID).Scan(&n)
	return n, err
}

// LowAvailability lists events with fewer than threshold tickets left,
// for the organizer dashboard.
func (r *EventRepo) LowAvailability(ctx context.Context, threshold int) ([]model.Event, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+eventColumns+` FROM events e WHERE e.available_tickets < ? ORDER BY e.available_tickets ASC, e.date ASC`,
		threshold)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func nullableID(id *uint64) any {
	if id == nil {
		return nil
	}
	return *id
}
