package model

import "testing"

func TestCartAddOrUpdate(t *testing.T) {
	t.Parallel()

	t.Run("replaces quantity instead of accumulating", func(t *testing.T) {
		c := NewCart()
		c.AddOrUpdate(CartLine{EventID: 1, Title: "Jazz Night", PriceCents: 2500, Quantity: 2})
		c.AddOrUpdate(CartLine{EventID: 1, Title: "Jazz Night", PriceCents: 2500, Quantity: 5})

		lines := c.Lines()
		if len(lines) != 1 {
			t.Fatalf("expected 1 line, got %d", len(lines))
		}
		if lines[0].Quantity != 5 {
			t.Fatalf("expected quantity replaced to 5, got %d", lines[0].Quantity)
		}
	})

	t.Run("re-adding same line is idempotent", func(t *testing.T) {
		c := NewCart()
		line := CartLine{EventID: 1, Title: "Jazz Night", PriceCents: 2500, Quantity: 3}
		c.AddOrUpdate(line)
		c.AddOrUpdate(line)
		c.AddOrUpdate(line)

		if c.Len() != 1 {
			t.Fatalf("expected 1 line, got %d", c.Len())
		}
		if got := c.SubtotalTotalCents(); got != 7500 {
			t.Fatalf("expected subtotal 7500, got %d", got)
		}
	})

	t.Run("zero quantity removes the line", func(t *testing.T) {
		c := NewCart()
		c.AddOrUpdate(CartLine{EventID: 1, Quantity: 2})
		c.AddOrUpdate(CartLine{EventID: 2, Quantity: 1})
		c.AddOrUpdate(CartLine{EventID: 1, Quantity: 0})

		lines := c.Lines()
		if len(lines) != 1 || lines[0].EventID != 2 {
			t.Fatalf("expected only event 2 to remain, got %+v", lines)
		}
	})

	t.Run("removing from empty cart is a no-op", func(t *testing.T) {
		c := NewCart()
		c.AddOrUpdate(CartLine{EventID: 7, Quantity: -1})
		if c.Len() != 0 {
			t.Fatalf("expected empty cart, got %d lines", c.Len())
		}
	})

	t.Run("preserves insertion order across updates and removals", func(t *testing.T) {
		c := NewCart()
		c.AddOrUpdate(CartLine{EventID: 1, Quantity: 1})
		c.AddOrUpdate(CartLine{EventID: 2, Quantity: 1})
		c.AddOrUpdate(CartLine{EventID: 3, Quantity: 1})
		c.AddOrUpdate(CartLine{EventID: 2, Quantity: 9})
		c.AddOrUpdate(CartLine{EventID: 1, Quantity: 0})
		c.AddOrUpdate(CartLine{EventID: 4, Quantity: 1})

		want := []uint64{2, 3, 4}
		lines := c.Lines()
		if len(lines) != len(want) {
			t.Fatalf("expected %d lines, got %d", len(want), len(lines))
		}
		for i, id := range want {
			if lines[i].EventID != id {
				t.Fatalf("position %d: expected event %d, got %d", i, id, lines[i].EventID)
			}
		}
		if lines[0].Quantity != 9 {
			t.Fatalf("expected updated quantity 9 for event 2, got %d", lines[0].Quantity)
		}
	})

	t.Run("lines returns a copy", func(t *testing.T) {
		c := NewCart()
		c.AddOrUpdate(CartLine{EventID: 1, Quantity: 2})
		lines := c.Lines()
		lines[0].Quantity = 99
		if c.Lines()[0].Quantity != 2 {
			t.Fatalf("mutating the returned slice must not affect the cart")
		}
	})

	t.Run("clear empties the cart", func(t *testing.T) {
		c := NewCart()
		c.AddOrUpdate(CartLine{EventID: 1, Quantity: 2})
		c.Clear()
		if c.Len() != 0 {
			t.Fatalf("expected empty cart after Clear, got %d lines", c.Len())
		}
		c.AddOrUpdate(CartLine{EventID: 1, Quantity: 1})
		if c.Len() != 1 {
			t.Fatalf("expected cart usable after Clear")
		}
	})
}

func TestCartSubtotals(t *testing.T) {
	t.Parallel()

	c := NewCart()
	c.AddOrUpdate(CartLine{EventID: 1, PriceCents: 2500, Quantity: 2})
	c.AddOrUpdate(CartLine{EventID: 2, PriceCents: 9900, Quantity: 1})

	if got := c.SubtotalTotalCents(); got != 2*2500+9900 {
		t.Fatalf("expected subtotal %d, got %d", 2*2500+9900, got)
	}
}

func TestPurchaserValidate(t *testing.T) {
	t.Parallel()

	uid := uint64(1)
	cases := []struct {
		name      string
		purchaser Purchaser
		wantErr   bool
	}{
		{"registered user", Purchaser{UserID: &uid}, false},
		{"guest with name and email", Purchaser{GuestName: "Dana", GuestEmail: "dana@example.com"}, false},
		{"guest missing email", Purchaser{GuestName: "Dana"}, true},
		{"guest missing name", Purchaser{GuestEmail: "dana@example.com"}, true},
		{"guest with blank fields", Purchaser{GuestName: "  ", GuestEmail: " "}, true},
		{"nobody", Purchaser{}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.purchaser.Validate()
			if tc.wantErr && err != ErrPurchaserMissing {
				t.Fatalf("expected ErrPurchaserMissing, got %v", err)
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		})
	}
}
