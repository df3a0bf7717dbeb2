package model

import (
	"errors"
	"strings"
	"time"
)

// ErrPurchaserMissing is returned when a purchase carries neither a
// registered user reference nor a complete guest name/email pair.
var ErrPurchaserMissing = errors.New("purchaser identification required")

// Purchaser identifies who is buying tickets.  Either UserID points at a
// registered account, or GuestName and GuestEmail are both set for a
// guest checkout.  At least one identification channel is required.
type Purchaser struct {
	UserID     *uint64
	GuestName  string
	GuestEmail string
}

// Validate checks that at least one identification channel is present.
func (p Purchaser) Validate() error {
	if p.UserID != nil {
		return nil
	}
	if strings.TrimSpace(p.GuestName) != "" && strings.TrimSpace(p.GuestEmail) != "" {
		return nil
	}
	return ErrPurchaserMissing
}

// Purchase is the durable receipt of a completed checkout.  A purchase
// and its lines are created atomically at commit time and are immutable
// afterwards.
//
// Fields:
//  ID          - primary key identifier.
//  Reference   - opaque public reference code handed to the buyer.
//  PurchasedAt - commit timestamp (UTC).
//  TotalCents  - sum of line subtotals at commit-time prices.
//  UserID      - purchasing account, nil for guest checkouts.
//  GuestName   - guest display name (may be empty for account purchases).
//  GuestEmail  - guest contact email.
//  Lines       - ordered line items, owned exclusively by this purchase.
type Purchase struct {
	ID          uint64         // purchases.id
	Reference   string         // purchases.reference
	PurchasedAt time.Time      // purchases.purchased_at (UTC)
	TotalCents  int64          // purchases.total_cents
	UserID      *uint64        // purchases.user_id (nullable)
	GuestName   string         // purchases.guest_name
	GuestEmail  string         // purchases.guest_email
	Lines       []PurchaseLine // purchase_lines rows, in checkout order
}

// PurchaseLine records one event/quantity pair within a purchase.  The
// unit price is captured at commit time so the receipt stays stable when
// the event is later repriced.
//
// Fields:
//  ID             - primary key identifier.
//  PurchaseID     - owning purchase.
//  EventID        - purchased event.
//  EventTitle     - denormalized title for display (populated on reads).
//  Quantity       - number of tickets, at least 1.
//  UnitPriceCents - event price in cents at commit time.
type PurchaseLine struct {
	ID             uint64 // purchase_lines.id
	PurchaseID     uint64 // purchase_lines.purchase_id
	EventID        uint64 // purchase_lines.event_id
	EventTitle     string // joined from events.title
	Quantity       int    // purchase_lines.quantity
	UnitPriceCents int64  // purchase_lines.unit_price_cents
}

// SubtotalCents is the line total at the captured unit price.
func (l PurchaseLine) SubtotalCents() int64 {
	return l.UnitPriceCents * int64(l.Quantity)
}
