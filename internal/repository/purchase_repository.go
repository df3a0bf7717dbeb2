package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/munoimshahriar/Event-Ticketing-System/internal/model"
)

// PurchaseRepo persists completed purchases and their line items.  A
// purchase and its lines are only ever written inside the checkout
// transaction; once committed they are immutable.  All timestamp fields
// are stored in UTC.
type PurchaseRepo struct {
	db *sql.DB
}

// NewPurchaseRepo returns a PurchaseRepo bound to the given database.
func NewPurchaseRepo(db *sql.DB) *PurchaseRepo { return &PurchaseRepo{db: db} }

// CreateTx inserts the purchase header within the scope of an existing
// transaction and populates the generated ID and timestamps on the
// provided record.  The caller must commit or roll back the transaction.
func (r *PurchaseRepo) CreateTx(ctx context.Context, tx *sql.Tx, p *model.Purchase) error {
	const q = `INSERT INTO purchases (reference, purchased_at, total_cents, user_id, guest_name, guest_email)
	           VALUES (?, ?, ?, ?, ?, ?)`
	result, err := tx.ExecContext(ctx, q,
		p.Reference, p.PurchasedAt.UTC(), p.TotalCents, nullableID(p.UserID), p.GuestName, p.GuestEmail)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

// CreateLinesBulkTx inserts multiple purchase_lines rows in a single
// statement within the provided transaction.  Each line must carry the
// owning purchase ID.  Passing an empty slice has no effect and returns
// nil.
func (r *PurchaseRepo) CreateLinesBulkTx(ctx context.Context, tx *sql.Tx, lines []model.PurchaseLine) error {
	if len(lines) == 0 {
		return nil
	}
	query := `INSERT INTO purchase_lines (purchase_id, event_id, quantity, unit_price_cents) VALUES `
	args := make([]interface{}, 0, len(lines)*4)
	for i, l := range lines {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?)"
		args = append(args, l.PurchaseID, l.EventID, l.Quantity, l.UnitPriceCents)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

const purchaseColumns = `p.id, p.reference, p.purchased_at, p.total_cents, p.user_id, p.guest_name, p.guest_email`

func scanPurchase(row interface{ Scan(...any) error }) (model.Purchase, error) {
	var p model.Purchase
	var userID sql.NullInt64
	var guestName, guestEmail sql.NullString
	err := row.Scan(&p.ID, &p.Reference, &p.PurchasedAt, &p.TotalCents, &userID, &guestName, &guestEmail)
	if err != nil {
		return model.Purchase{}, err
	}
	if userID.Valid {
		uid := uint64(userID.Int64)
		p.UserID = &uid
	}
	p.GuestName = guestName.String
	p.GuestEmail = guestEmail.String
	p.PurchasedAt = p.PurchasedAt.UTC()
	return p, nil
}

// loadLines fetches the line items for one purchase in checkout order,
// joining the event title for display.
func (r *PurchaseRepo) loadLines(ctx context.Context, purchaseID uint64) ([]model.PurchaseLine, error) {
	const q = `SELECT l.id, l.purchase_id, l.event_id, e.title, l.quantity, l.unit_price_cents
	           FROM purchase_lines l
	           JOIN events e ON e.id = l.event_id
	           WHERE l.purchase_id = ?
	           ORDER BY l.id`
	rows, err := r.db.QueryContext(ctx, q, purchaseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	lines := make([]model.PurchaseLine, 0)
	for rows.Next() {
		var l model.PurchaseLine
		if err := rows.Scan(&l.ID, &l.PurchaseID, &l.EventID, &l.EventTitle, &l.Quantity, &l.UnitPriceCents); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

// GetByReference loads a purchase and its lines by public reference
// code.  Returns ErrPurchaseNotFound when no purchase matches.
func (r *PurchaseRepo) GetByReference(ctx context.Context, reference string) (model.Purchase, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+purchaseColumns+` FROM purchases p WHERE p.reference = ?`, reference)
	p, err := scanPurchase(row)
	if err == sql.ErrNoRows {
		return model.Purchase{}, ErrPurchaseNotFound
	}
	if err != nil {
		return model.Purchase{}, err
	}
	p.Lines, err = r.loadLines(ctx, p.ID)
	if err != nil {
		return model.Purchase{}, err
	}
	return p, nil
}

// GetByID loads a purchase and its lines by primary key.
func (r *PurchaseRepo) GetByID(ctx context.Context, id uint64) (model.Purchase, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+purchaseColumns+` FROM purchases p WHERE p.id = ?`, id)
	p, err := scanPurchase(row)
	if err == sql.ErrNoRows {
		return model.Purchase{}, ErrPurchaseNotFound
	}
	if err != nil {
		return model.Purchase{}, err
	}
	p.Lines, err = r.loadLines(ctx, p.ID)
	if err != nil {
		return model.Purchase{}, err
	}
	return p, nil
}

// ListByUser returns all purchases for a registered user, newest first,
// with lines populated in a single follow-up query.
func (r *PurchaseRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Purchase, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+purchaseColumns+` FROM purchases p WHERE p.user_id = ? ORDER BY p.purchased_at DESC, p.id DESC`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	purchases := make([]model.Purchase, 0)
	index := make(map[uint64]int)
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			return nil, err
		}
		p.Lines = []model.PurchaseLine{}
		index[p.ID] = len(purchases)
		purchases = append(purchases, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(purchases) == 0 {
		return purchases, nil
	}
	// Fetch lines for all purchases in one query.
	ids := make([]interface{}, 0, len(purchases))
	placeholders := make([]string, 0, len(purchases))
	for _, p := range purchases {
		ids = append(ids, p.ID)
		placeholders = append(placeholders, "?")
	}
	lineQuery := `SELECT l.id, l.purchase_id, l.event_id, e.title, l.quantity, l.unit_price_cents
	              FROM purchase_lines l
	              JOIN events e ON e.id = l.event_id
	              WHERE l.purchase_id IN (` + strings.Join(placeholders, ",") + `)
	              ORDER BY l.purchase_id, l.id`
	lrows, err := r.db.QueryContext(ctx, lineQuery, ids...)
	if err != nil {
		return nil, err
	}
	defer lrows.Close()
	for lrows.Next() {
		var l model.PurchaseLine
		if err := lrows.Scan(&l.ID, &l.PurchaseID, &l.EventID, &l.EventTitle, &l.Quantity, &l.UnitPriceCents); err != nil {
			return nil, err
		}
		idx, ok := index[l.PurchaseID]
		if !ok {
			continue
		}
		purchases[idx].Lines = append(purchases[idx].Lines, l)
	}
	if err := lrows.Err(); err != nil {
		return nil, err
	}
	return purchases, nil
}
