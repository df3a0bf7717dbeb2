package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/munoimshahriar/Event-Ticketing-System/internal/checkout"
	"github.com/munoimshahriar/Event-Ticketing-System/internal/model"
	"github.com/munoimshahriar/Event-Ticketing-System/internal/queue"
	"github.com/munoimshahriar/Event-Ticketing-System/internal/repository"
)

type fakeCheckout struct {
	purchaseIn  checkout.PurchaseInput
	linesIn     []model.CartLine
	purchaserIn model.Purchaser
	receipt     model.Purchase
	err         error
}

func (f *fakeCheckout) Purchase(_ context.Context, in checkout.PurchaseInput) (model.Purchase, error) {
	f.purchaseIn = in
	if f.err != nil {
		return model.Purchase{}, f.err
	}
	return f.receipt, nil
}

func (f *fakeCheckout) Checkout(_ context.Context, lines []model.CartLine, p model.Purchaser) (model.Purchase, error) {
	f.linesIn = lines
	f.purchaserIn = p
	if f.err != nil {
		return model.Purchase{}, f.err
	}
	return f.receipt, nil
}

type fakeReader struct {
	byReference map[string]model.Purchase
	byUser      map[uint64][]model.Purchase
	err         error
}

func (f *fakeReader) GetByReference(_ context.Context, reference string) (model.Purchase, error) {
	if f.err != nil {
		return model.Purchase{}, f.err
	}
	p, ok := f.byReference[reference]
	if !ok {
		return model.Purchase{}, repository.ErrPurchaseNotFound
	}
	return p, nil
}

func (f *fakeReader) ListByUser(_ context.Context, userID uint64) ([]model.Purchase, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.byUser[userID], nil
}

func sampleReceipt() model.Purchase {
	return model.Purchase{
		ID:          1,
		Reference:   "ref-abc",
		PurchasedAt: time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC),
		TotalCents:  5000,
		GuestName:   "Ada",
		GuestEmail:  "ada@example.com",
		Lines: []model.PurchaseLine{
			{EventID: 7, EventTitle: "Jazz Night", Quantity: 2, UnitPriceCents: 2500},
		},
	}
}

func postJSON(t *testing.T, e *echo.Echo, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON response %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestPurchaseHandler_BuyTickets(t *testing.T) {
	e := echo.New()

	t.Run("guest purchase succeeds", func(t *testing.T) {
		co := &fakeCheckout{receipt: sampleReceipt()}
		h := NewPurchaseHandler(co, &fakeReader{}, nil)

		c, rec := postJSON(t, e, "/v1/events/7/purchase",
			`{"quantity":2,"guest_name":"Ada","guest_email":"ada@example.com"}`)
		c.SetParamNames("id")
		c.SetParamValues("7")

		if err := h.BuyTickets(c); err != nil {
			t.Fatalf("BuyTickets: %v", err)
		}
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if co.purchaseIn.EventID != 7 || co.purchaseIn.Quantity != 2 {
			t.Fatalf("unexpected coordinator input: %+v", co.purchaseIn)
		}
		if co.purchaseIn.Purchaser.GuestName != "Ada" || co.purchaseIn.Purchaser.GuestEmail != "ada@example.com" {
			t.Fatalf("guest identity not forwarded: %+v", co.purchaseIn.Purchaser)
		}
		if co.purchaseIn.Purchaser.UserID != nil {
			t.Fatalf("expected anonymous purchaser, got user %d", *co.purchaseIn.Purchaser.UserID)
		}

		body := decodeBody(t, rec)
		item, ok := body["item"].(map[string]any)
		if !ok {
			t.Fatalf("missing item in response: %v", body)
		}
		if item["reference"] != "ref-abc" {
			t.Fatalf("expected reference ref-abc, got %v", item["reference"])
		}
		if item["total_cents"] != float64(5000) {
			t.Fatalf("expected total 5000, got %v", item["total_cents"])
		}
	})

	t.Run("logged in user forwarded", func(t *testing.T) {
		co := &fakeCheckout{receipt: sampleReceipt()}
		h := NewPurchaseHandler(co, &fakeReader{}, nil)

		c, rec := postJSON(t, e, "/v1/events/7/purchase", `{"quantity":1}`)
		c.SetParamNames("id")
		c.SetParamValues("7")
		c.Set("user_id", float64(42))

		if err := h.BuyTickets(c); err != nil {
			t.Fatalf("BuyTickets: %v", err)
		}
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d", rec.Code)
		}
		if co.purchaseIn.Purchaser.UserID == nil || *co.purchaseIn.Purchaser.UserID != 42 {
			t.Fatalf("expected user 42, got %+v", co.purchaseIn.Purchaser)
		}
	})

	t.Run("bad event id", func(t *testing.T) {
		h := NewPurchaseHandler(&fakeCheckout{}, &fakeReader{}, nil)
		c, rec := postJSON(t, e, "/v1/events/abc/purchase", `{"quantity":1}`)
		c.SetParamNames("id")
		c.SetParamValues("abc")

		if err := h.BuyTickets(c); err != nil {
			t.Fatalf("BuyTickets: %v", err)
		}
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestPurchaseHandler_ErrorMapping(t *testing.T) {
	e := echo.New()

	cases := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"empty cart", checkout.ErrEmptyCart, http.StatusBadRequest},
		{"missing purchaser", model.ErrPurchaserMissing, http.StatusBadRequest},
		{"invalid quantity", repository.ErrInvalidQuantity, http.StatusBadRequest},
		{"event not found", repository.ErrEventNotFound, http.StatusNotFound},
		{"item unavailable", &checkout.ItemUnavailableError{
			EventID: 7, EventTitle: "Jazz Night", Requested: 5, Available: 2,
		}, http.StatusConflict},
		{"storage failure", errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			co := &fakeCheckout{err: tc.err}
			h := NewPurchaseHandler(co, &fakeReader{}, nil)

			c, rec := postJSON(t, e, "/v1/checkout",
				`{"lines":[{"event_id":7,"quantity":1}],"guest_name":"Ada","guest_email":"a@b.c"}`)
			if err := h.DoCheckout(c); err != nil {
				t.Fatalf("DoCheckout: %v", err)
			}
			if rec.Code != tc.wantCode {
				t.Fatalf("expected %d, got %d: %s", tc.wantCode, rec.Code, rec.Body.String())
			}
		})
	}

	t.Run("conflict body carries availability", func(t *testing.T) {
		co := &fakeCheckout{err: &checkout.ItemUnavailableError{
			EventID: 7, EventTitle: "Jazz Night", Requested: 5, Available: 2,
		}}
		h := NewPurchaseHandler(co, &fakeReader{}, nil)

		c, rec := postJSON(t, e, "/v1/checkout",
			`{"lines":[{"event_id":7,"quantity":5}],"guest_name":"Ada","guest_email":"a@b.c"}`)
		if err := h.DoCheckout(c); err != nil {
			t.Fatalf("DoCheckout: %v", err)
		}
		body := decodeBody(t, rec)
		if body["available"] != float64(2) || body["requested"] != float64(5) {
			t.Fatalf("availability not reported: %v", body)
		}
		if msg, _ := body["error"].(string); !strings.Contains(msg, "Jazz Night") {
			t.Fatalf("error should name the event: %v", body["error"])
		}
	})
}

func TestPurchaseHandler_DoCheckout(t *testing.T) {
	e := echo.New()

	t.Run("duplicate lines replace, not accumulate", func(t *testing.T) {
		co := &fakeCheckout{receipt: sampleReceipt()}
		h := NewPurchaseHandler(co, &fakeReader{}, nil)

		c, rec := postJSON(t, e, "/v1/checkout",
			`{"lines":[{"event_id":7,"quantity":1},{"event_id":9,"quantity":3},{"event_id":7,"quantity":2}],"guest_name":"Ada","guest_email":"a@b.c"}`)
		if err := h.DoCheckout(c); err != nil {
			t.Fatalf("DoCheckout: %v", err)
		}
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if len(co.linesIn) != 2 {
			t.Fatalf("expected 2 folded lines, got %d: %+v", len(co.linesIn), co.linesIn)
		}
		if co.linesIn[0].EventID != 7 || co.linesIn[0].Quantity != 2 {
			t.Fatalf("duplicate should replace earlier line: %+v", co.linesIn[0])
		}
		if co.linesIn[1].EventID != 9 || co.linesIn[1].Quantity != 3 {
			t.Fatalf("unexpected second line: %+v", co.linesIn[1])
		}
	})

	t.Run("zero quantity removes the line", func(t *testing.T) {
		co := &fakeCheckout{err: checkout.ErrEmptyCart}
		h := NewPurchaseHandler(co, &fakeReader{}, nil)

		c, rec := postJSON(t, e, "/v1/checkout",
			`{"lines":[{"event_id":7,"quantity":2},{"event_id":7,"quantity":0}],"guest_name":"Ada","guest_email":"a@b.c"}`)
		if err := h.DoCheckout(c); err != nil {
			t.Fatalf("DoCheckout: %v", err)
		}
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for emptied cart, got %d", rec.Code)
		}
		if len(co.linesIn) != 0 {
			t.Fatalf("expected no lines after removal, got %+v", co.linesIn)
		}
	})

	t.Run("missing event id rejected", func(t *testing.T) {
		h := NewPurchaseHandler(&fakeCheckout{}, &fakeReader{}, nil)
		c, rec := postJSON(t, e, "/v1/checkout",
			`{"lines":[{"quantity":2}],"guest_name":"Ada","guest_email":"a@b.c"}`)
		if err := h.DoCheckout(c); err != nil {
			t.Fatalf("DoCheckout: %v", err)
		}
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("negative quantity rejected before coordinator", func(t *testing.T) {
		co := &fakeCheckout{}
		h := NewPurchaseHandler(co, &fakeReader{}, nil)
		c, rec := postJSON(t, e, "/v1/checkout",
			`{"lines":[{"event_id":7,"quantity":-1}],"guest_name":"Ada","guest_email":"a@b.c"}`)
		if err := h.DoCheckout(c); err != nil {
			t.Fatalf("DoCheckout: %v", err)
		}
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestPurchaseHandler_PublishAfterCommit(t *testing.T) {
	e := echo.New()
	published := make(chan queue.PurchaseConfirmedEvent, 1)
	co := &fakeCheckout{receipt: sampleReceipt()}
	h := NewPurchaseHandler(co, &fakeReader{}, func(_ context.Context, ev queue.PurchaseConfirmedEvent) error {
		published <- ev
		return nil
	})

	c, rec := postJSON(t, e, "/v1/checkout",
		`{"lines":[{"event_id":7,"quantity":2}],"guest_name":"Ada","guest_email":"a@b.c"}`)
	if err := h.DoCheckout(c); err != nil {
		t.Fatalf("DoCheckout: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	select {
	case ev := <-published:
		if ev.Reference != "ref-abc" || ev.TotalCents != 5000 {
			t.Fatalf("unexpected event: %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("confirmation event was never published")
	}
}

func TestPurchaseHandler_GetPurchase(t *testing.T) {
	e := echo.New()
	reader := &fakeReader{byReference: map[string]model.Purchase{"ref-abc": sampleReceipt()}}
	h := NewPurchaseHandler(&fakeCheckout{}, reader, nil)

	t.Run("found", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/purchases/ref-abc", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("reference")
		c.SetParamValues("ref-abc")

		if err := h.GetPurchase(c); err != nil {
			t.Fatalf("GetPurchase: %v", err)
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		body := decodeBody(t, rec)
		item := body["item"].(map[string]any)
		lines := item["lines"].([]any)
		if len(lines) != 1 {
			t.Fatalf("expected 1 line, got %d", len(lines))
		}
		line := lines[0].(map[string]any)
		if line["subtotal_cents"] != float64(5000) {
			t.Fatalf("expected subtotal 5000, got %v", line["subtotal_cents"])
		}
	})

	t.Run("unknown reference", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/purchases/nope", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("reference")
		c.SetParamValues("nope")

		if err := h.GetPurchase(c); err != nil {
			t.Fatalf("GetPurchase: %v", err)
		}
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}

func TestPurchaseHandler_ListPurchases(t *testing.T) {
	e := echo.New()
	reader := &fakeReader{byUser: map[uint64][]model.Purchase{42: {sampleReceipt()}}}
	h := NewPurchaseHandler(&fakeCheckout{}, reader, nil)

	t.Run("requires identity", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/purchases", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		if err := h.ListPurchases(c); err != nil {
			t.Fatalf("ListPurchases: %v", err)
		}
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("lists own purchases", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/purchases", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.Set("user_id", float64(42))

		if err := h.ListPurchases(c); err != nil {
			t.Fatalf("ListPurchases: %v", err)
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		body := decodeBody(t, rec)
		items := body["items"].([]any)
		if len(items) != 1 {
			t.Fatalf("expected 1 purchase, got %d", len(items))
		}
	})
}
