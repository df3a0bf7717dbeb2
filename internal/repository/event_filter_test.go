package repository

import (
	"strings"
	"testing"
	"time"
)

func TestBuildEventFilter(t *testing.T) {
	t.Parallel()

	t.Run("empty filter matches everything", func(t *testing.T) {
		cond, args := buildEventFilter(EventFilter{})
		if cond != "1=1" {
			t.Fatalf("expected 1=1, got %q", cond)
		}
		if len(args) != 0 {
			t.Fatalf("expected no args, got %v", args)
		}
	})

	t.Run("title becomes lowercase substring match", func(t *testing.T) {
		cond, args := buildEventFilter(EventFilter{Title: "Jazz"})
		if !strings.Contains(cond, "LOWER(e.title) LIKE ?") {
			t.Fatalf("expected LIKE condition, got %q", cond)
		}
		if len(args) != 1 || args[0] != "%jazz%" {
			t.Fatalf("expected arg %%jazz%%, got %v", args)
		}
	})

	t.Run("all criteria combine with AND in order", func(t *testing.T) {
		from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		to := time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)
		cond, args := buildEventFilter(EventFilter{
			Title:        "go",
			CategoryID:   3,
			DateFrom:     &from,
			DateTo:       &to,
			Availability: AvailabilityAvailable,
		})
		want := "LOWER(e.title) LIKE ? AND e.category_id = ? AND e.date >= ? AND e.date <= ? AND e.available_tickets > 0"
		if cond != want {
			t.Fatalf("expected %q, got %q", want, cond)
		}
		if len(args) != 4 {
			t.Fatalf("expected 4 args, got %d", len(args))
		}
	})

	t.Run("soldout bucket filters zero stock", func(t *testing.T) {
		cond, args := buildEventFilter(EventFilter{Availability: AvailabilitySoldOut})
		if cond != "e.available_tickets = 0" {
			t.Fatalf("expected soldout condition, got %q", cond)
		}
		if len(args) != 0 {
			t.Fatalf("expected no args, got %v", args)
		}
	})

	t.Run("unknown availability bucket is ignored", func(t *testing.T) {
		cond, _ := buildEventFilter(EventFilter{Availability: "whatever"})
		if cond != "1=1" {
			t.Fatalf("expected unknown bucket ignored, got %q", cond)
		}
	})
}

func TestEventOrderBy(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"title":   "e.title ASC, e.id ASC",
		"price":   "e.price_cents ASC, e.id ASC",
		"date":    "e.date ASC, e.id ASC",
		"":        "e.date ASC, e.id ASC",
		"bogus":   "e.date ASC, e.id ASC",
		"TITLE":   "e.title ASC, e.id ASC",
	}
	for in, want := range cases {
		if got := eventOrderBy(in); got != want {
			t.Fatalf("sort %q: expected %q, got %q", in, want, got)
		}
	}
}
