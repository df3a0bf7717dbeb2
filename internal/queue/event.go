package queue

import (
	"time"

	"github.com/munoimshahriar/Event-Ticketing-System/internal/model"
)

// PurchaseConfirmedLine is one event/quantity pair inside a confirmed
// purchase message.
type PurchaseConfirmedLine struct {
	EventID        uint64 `json:"event_id"`
	EventTitle     string `json:"event_title"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
}

// PurchaseConfirmedEvent is published after a checkout commits.  It
// carries enough information for downstream consumers to notify the
// buyer or feed analytics without querying the primary database.
type PurchaseConfirmedEvent struct {
	PurchaseID  uint64                  `json:"purchase_id"`
	Reference   string                  `json:"reference"`
	UserID      *uint64                 `json:"user_id,omitempty"`
	GuestName   string                  `json:"guest_name,omitempty"`
	GuestEmail  string                  `json:"guest_email,omitempty"`
	TotalCents  int64                   `json:"total_cents"`
	Lines       []PurchaseConfirmedLine `json:"lines"`
	PurchasedAt string                  `json:"purchased_at"`
}

// NewPurchaseConfirmedEvent builds the broker payload from a committed
// purchase.
func NewPurchaseConfirmedEvent(p model.Purchase) PurchaseConfirmedEvent {
	ev := PurchaseConfirmedEvent{
		PurchaseID:  p.ID,
		Reference:   p.Reference,
		UserID:      p.UserID,
		GuestName:   p.GuestName,
		GuestEmail:  p.GuestEmail,
		TotalCents:  p.TotalCents,
		Lines:       make([]PurchaseConfirmedLine, 0, len(p.Lines)),
		PurchasedAt: p.PurchasedAt.UTC().Format(time.RFC3339),
	}
	for _, l := range p.Lines {
		ev.Lines = append(ev.Lines, PurchaseConfirmedLine{
			EventID:        l.EventID,
			EventTitle:     l.EventTitle,
			Quantity:       l.Quantity,
			UnitPriceCents: l.UnitPriceCents,
		})
	}
	return ev
}
