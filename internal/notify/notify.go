// Package notify delivers purchase confirmations to buyers.
package notify

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/munoimshahriar/Event-Ticketing-System/internal/queue"
)

// Sender delivers a confirmation for one committed purchase.  The queue
// consumer retries delivery by redelivering the message, so Sender
// implementations should be idempotent per purchase reference.
type Sender interface {
	SendConfirmation(ctx context.Context, ev queue.PurchaseConfirmedEvent) error
}

// LogSender writes confirmations to the process log.  It stands in for
// a mail or SMS integration in development and tests.
type LogSender struct{}

func NewLogSender() *LogSender { return &LogSender{} }

func (s *LogSender) SendConfirmation(_ context.Context, ev queue.PurchaseConfirmedEvent) error {
	recipient := ev.GuestEmail
	if recipient == "" && ev.UserID != nil {
		recipient = fmt.Sprintf("user:%d", *ev.UserID)
	}
	parts := make([]string, 0, len(ev.Lines))
	for _, l := range ev.Lines {
		parts = append(parts, fmt.Sprintf("%dx %q", l.Quantity, l.EventTitle))
	}
	log.Printf("confirmation: reference=%s to=%s total=%d cents items=%s",
		ev.Reference, recipient, ev.TotalCents, strings.Join(parts, ", "))
	return nil
}
