package model

import "time"

// Event represents a ticketed event listed in the catalog.  Each event
// carries its own availability counter which is decremented exclusively
// through the inventory reservation path; no other code writes it.
//
// Fields:
//  ID               - primary key identifier.
//  Title            - display title of the event.
//  Date             - when the event takes place (stored UTC).
//  PriceCents       - ticket price in cents (two fixed fraction digits).
//  AvailableTickets - remaining sellable tickets, never negative.
//  CategoryID       - category the event belongs to.
//  OrganizerID      - user who owns the event; nil when the organizer
//                     account was deleted and the event is orphaned.
//  CreatedAt        - creation timestamp.
//  UpdatedAt        - last update timestamp.
type Event struct {
	ID               uint64    // events.id
	Title            string    // events.title
	Date             time.Time // events.date (UTC)
	PriceCents       int64     // events.price_cents
	AvailableTickets int       // events.available_tickets
	CategoryID       uint64    // events.category_id
	OrganizerID      *uint64   // events.organizer_id (nullable)
	CreatedAt        time.Time // events.created_at
	UpdatedAt        time.Time // events.updated_at
}

// SoldOut reports whether no tickets remain.
func (e Event) SoldOut() bool { return e.AvailableTickets == 0 }
