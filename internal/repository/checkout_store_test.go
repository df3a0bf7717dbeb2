package repository

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/munoimshahriar/Event-Ticketing-System/internal/model"
)

// Integration tests run only when TEST_MYSQL_DSN points at a database
// with schema.sql applied, e.g.
// root:secret@tcp(localhost:3306)/ticketing_test?parseTime=true&loc=UTC

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("TEST_MYSQL_DSN")
	if dsn == "" {
		t.Skip("TEST_MYSQL_DSN not set, skipping integration test")
	}
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.Ping(); err != nil {
		t.Skipf("test database unreachable: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// seedTestEvent inserts a category and an event and registers cleanup.
func seedTestEvent(t *testing.T, db *sql.DB, tickets int) uint64 {
	t.Helper()
	ctx := context.Background()

	res, err := db.ExecContext(ctx,
		`INSERT INTO categories (name, description) VALUES (?, ?)`,
		"it-"+t.Name(), "integration fixture")
	if err != nil {
		t.Fatalf("insert category: %v", err)
	}
	catID, _ := res.LastInsertId()

	res, err = db.ExecContext(ctx,
		`INSERT INTO events (title, date, price_cents, available_tickets, category_id) VALUES (?,?,?,?,?)`,
		"Integration Gig", time.Now().UTC().Add(24*time.Hour), 2500, tickets, catID)
	if err != nil {
		t.Fatalf("insert event: %v", err)
	}
	eventID, _ := res.LastInsertId()

	t.Cleanup(func() {
		db.ExecContext(ctx, `DELETE FROM purchases WHERE id IN (SELECT purchase_id FROM purchase_lines WHERE event_id = ?)`, eventID)
		db.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, eventID)
		db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, catID)
	})
	return uint64(eventID)
}

func TestReserveTx_Integration(t *testing.T) {
	db := openTestDB(t)
	eventID := seedTestEvent(t, db, 5)
	ctx := context.Background()
	repo := NewInventoryRepo(db)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	defer tx.Rollback()

	if err := repo.ReserveTx(ctx, tx, eventID, 3); err != nil {
		t.Fatalf("reserve 3 of 5: %v", err)
	}

	var available int
	if err := tx.QueryRowContext(ctx,
		`SELECT available_tickets FROM events WHERE id = ?`, eventID).Scan(&available); err != nil {
		t.Fatalf("read available: %v", err)
	}
	if available != 2 {
		t.Fatalf("expected 2 tickets left, got %d", available)
	}

	err = repo.ReserveTx(ctx, tx, eventID, 3)
	var short *InsufficientTicketsError
	if !errors.As(err, &short) {
		t.Fatalf("expected InsufficientTicketsError, got %v", err)
	}
	if short.Available != 2 || short.Requested != 3 {
		t.Fatalf("expected requested 3 available 2, got %+v", short)
	}

	if err := repo.ReserveTx(ctx, tx, 0, 1); !errors.Is(err, ErrEventNotFound) {
		t.Fatalf("expected ErrEventNotFound, got %v", err)
	}
	if err := repo.ReserveTx(ctx, tx, eventID, 0); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity, got %v", err)
	}
}

func TestCheckoutStore_Integration(t *testing.T) {
	db := openTestDB(t)
	eventID := seedTestEvent(t, db, 4)
	ctx := context.Background()

	store := NewCheckoutStore(db, NewEventRepo(db), NewInventoryRepo(db), NewPurchaseRepo(db))
	purchases := NewPurchaseRepo(db)

	t.Run("failed transaction leaves no trace", func(t *testing.T) {
		boom := errors.New("boom")
		err := store.WithTx(ctx, func(ctx context.Context) error {
			if err := store.ReserveTickets(ctx, eventID, 2); err != nil {
				return err
			}
			p := model.Purchase{Reference: "it-rollback", PurchasedAt: time.Now().UTC(), TotalCents: 5000}
			if err := store.InsertPurchase(ctx, &p); err != nil {
				return err
			}
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("expected boom, got %v", err)
		}

		if _, err := purchases.GetByReference(ctx, "it-rollback"); !errors.Is(err, ErrPurchaseNotFound) {
			t.Fatalf("rolled back purchase should not exist, got %v", err)
		}
		ev, err := NewEventRepo(db).GetByID(ctx, eventID)
		if err != nil {
			t.Fatalf("get event: %v", err)
		}
		if ev.AvailableTickets != 4 {
			t.Fatalf("expected stock restored to 4, got %d", ev.AvailableTickets)
		}
	})

	t.Run("committed transaction persists", func(t *testing.T) {
		err := store.WithTx(ctx, func(ctx context.Context) error {
			if err := store.ReserveTickets(ctx, eventID, 2); err != nil {
				return err
			}
			p := model.Purchase{Reference: "it-commit", PurchasedAt: time.Now().UTC(), TotalCents: 5000}
			if err := store.InsertPurchase(ctx, &p); err != nil {
				return err
			}
			return store.InsertPurchaseLines(ctx, []model.PurchaseLine{
				{PurchaseID: p.ID, EventID: eventID, Quantity: 2, UnitPriceCents: 2500},
			})
		})
		if err != nil {
			t.Fatalf("checkout transaction: %v", err)
		}

		p, err := purchases.GetByReference(ctx, "it-commit")
		if err != nil {
			t.Fatalf("get purchase: %v", err)
		}
		if len(p.Lines) != 1 || p.Lines[0].Quantity != 2 {
			t.Fatalf("unexpected lines: %+v", p.Lines)
		}
		ev, err := NewEventRepo(db).GetByID(ctx, eventID)
		if err != nil {
			t.Fatalf("get event: %v", err)
		}
		if ev.AvailableTickets != 2 {
			t.Fatalf("expected 2 tickets left, got %d", ev.AvailableTickets)
		}
	})

	t.Run("mutations outside WithTx rejected", func(t *testing.T) {
		if err := store.ReserveTickets(ctx, eventID, 1); err == nil {
			t.Fatal("reserve outside a transaction should fail")
		}
	})
}
