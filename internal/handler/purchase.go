package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/munoimshahriar/Event-Ticketing-System/internal/checkout"
	"github.com/munoimshahriar/Event-Ticketing-System/internal/model"
	"github.com/munoimshahriar/Event-Ticketing-System/internal/queue"
	"github.com/munoimshahriar/Event-Ticketing-System/internal/repository"
)

// CheckoutService is the slice of the checkout coordinator the handler
// needs; tests substitute a fake.
type CheckoutService interface {
	Purchase(ctx context.Context, in checkout.PurchaseInput) (model.Purchase, error)
	Checkout(ctx context.Context, lines []model.CartLine, purchaser model.Purchaser) (model.Purchase, error)
}

// PurchaseReader reads committed purchases for confirmation endpoints.
type PurchaseReader interface {
	GetByReference(ctx context.Context, reference string) (model.Purchase, error)
	ListByUser(ctx context.Context, userID uint64) ([]model.Purchase, error)
}

// PurchaseHandler exposes ticket buying and purchase lookup.  Both
// guest and registered purchases go through here: the JWT is optional
// on these routes and a missing one just means the body must identify
// a guest.
type PurchaseHandler struct {
	Checkout  CheckoutService
	Purchases PurchaseReader
	// Publish pushes a confirmation event after commit; best effort,
	// never blocks the response.  May be nil.
	Publish func(ctx context.Context, ev queue.PurchaseConfirmedEvent) error
}

func NewPurchaseHandler(co CheckoutService, purchases PurchaseReader,
	publish func(ctx context.Context, ev queue.PurchaseConfirmedEvent) error) *PurchaseHandler {
	if co == nil || purchases == nil {
		panic("nil dependency passed to NewPurchaseHandler")
	}
	return &PurchaseHandler{Checkout: co, Purchases: purchases, Publish: publish}
}

type guestPart struct {
	GuestName  string `json:"guest_name"`
	GuestEmail string `json:"guest_email"`
}

type buyReq struct {
	Quantity int `json:"quantity"`
	guestPart
}

type checkoutLineReq struct {
	EventID  uint64 `json:"event_id"`
	Quantity int    `json:"quantity"`
}

type checkoutReq struct {
	Lines []checkoutLineReq `json:"lines"`
	guestPart
}

type lineView struct {
	EventID        uint64 `json:"event_id"`
	EventTitle     string `json:"event_title"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	SubtotalCents  int64  `json:"subtotal_cents"`
}

type purchaseView struct {
	Reference   string     `json:"reference"`
	PurchasedAt time.Time  `json:"purchased_at"`
	TotalCents  int64      `json:"total_cents"`
	GuestName   string     `json:"guest_name,omitempty"`
	Lines       []lineView `json:"lines"`
}

func toPurchaseView(p model.Purchase) purchaseView {
	v := purchaseView{
		Reference:   p.Reference,
		PurchasedAt: p.PurchasedAt,
		TotalCents:  p.TotalCents,
		GuestName:   p.GuestName,
		Lines:       make([]lineView, 0, len(p.Lines)),
	}
	for _, l := range p.Lines {
		v.Lines = append(v.Lines, lineView{
			EventID:        l.EventID,
			EventTitle:     l.EventTitle,
			Quantity:       l.Quantity,
			UnitPriceCents: l.UnitPriceCents,
			SubtotalCents:  l.SubtotalCents(),
		})
	}
	return v
}

func (h *PurchaseHandler) purchaser(c echo.Context, g guestPart) model.Purchaser {
	return model.Purchaser{
		UserID:     optionalUserID(c),
		GuestName:  strings.TrimSpace(g.GuestName),
		GuestEmail: strings.TrimSpace(g.GuestEmail),
	}
}

// BuyTickets handles POST /v1/events/:id/purchase, the single-event
// fast path.
func (h *PurchaseHandler) BuyTickets(c echo.Context) error {
	eventID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	var req buyReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	p, err := h.Checkout.Purchase(c.Request().Context(), checkout.PurchaseInput{
		EventID:   eventID,
		Quantity:  req.Quantity,
		Purchaser: h.purchaser(c, req.guestPart),
	})
	if err != nil {
		return respondCheckoutError(c, err)
	}
	h.publishConfirmed(p)
	return c.JSON(http.StatusCreated, echo.Map{"item": toPurchaseView(p)})
}

// DoCheckout handles POST /v1/checkout.  Request lines are folded
// through a cart so a duplicated event id replaces the earlier line
// instead of double-counting, then the whole cart commits or nothing
// does.
func (h *PurchaseHandler) DoCheckout(c echo.Context) error {
	var req checkoutReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	cart := model.NewCart()
	for _, l := range req.Lines {
		if l.EventID == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "event_id is required on every line"})
		}
		if l.Quantity < 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "quantity must not be negative"})
		}
		cart.AddOrUpdate(model.CartLine{EventID: l.EventID, Quantity: l.Quantity})
	}

	p, err := h.Checkout.Checkout(c.Request().Context(), cart.Lines(), h.purchaser(c, req.guestPart))
	if err != nil {
		return respondCheckoutError(c, err)
	}
	h.publishConfirmed(p)
	return c.JSON(http.StatusCreated, echo.Map{"item": toPurchaseView(p)})
}

// GetPurchase handles GET /v1/purchases/:reference.
func (h *PurchaseHandler) GetPurchase(c echo.Context) error {
	reference := strings.TrimSpace(c.Param("reference"))
	if reference == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reference"})
	}
	p, err := h.Purchases.GetByReference(c.Request().Context(), reference)
	if err != nil {
		if errors.Is(err, repository.ErrPurchaseNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "purchase not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch purchase"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": toPurchaseView(p)})
}

// ListPurchases handles GET /v1/purchases for the authenticated user.
func (h *PurchaseHandler) ListPurchases(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	purchases, err := h.Purchases.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to list purchases"})
	}
	items := make([]purchaseView, 0, len(purchases))
	for _, p := range purchases {
		items = append(items, toPurchaseView(p))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// publishConfirmed fires the purchase.confirmed event without blocking
// the response; publish failures are logged by the publisher and never
// affect the committed purchase.
func (h *PurchaseHandler) publishConfirmed(p model.Purchase) {
	if h.Publish == nil {
		return
	}
	ev := queue.NewPurchaseConfirmedEvent(p)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := h.Publish(ctx, ev); err != nil {
			log.Printf("purchase-confirmed: publish failed for %s: %v", p.Reference, err)
		}
	}()
}

// respondCheckoutError maps coordinator outcomes to HTTP responses.
func respondCheckoutError(c echo.Context, err error) error {
	var unavailable *checkout.ItemUnavailableError
	switch {
	case errors.Is(err, checkout.ErrEmptyCart):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cart is empty"})
	case errors.Is(err, model.ErrPurchaserMissing):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "guest_name and guest_email are required when not logged in"})
	case errors.Is(err, repository.ErrInvalidQuantity):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "quantity must be at least 1"})
	case errors.Is(err, repository.ErrEventNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
	case errors.As(err, &unavailable):
		return c.JSON(http.StatusConflict, echo.Map{
			"error":     "not enough tickets for \"" + unavailable.EventTitle + "\"",
			"event_id":  unavailable.EventID,
			"requested": unavailable.Requested,
			"available": unavailable.Available,
		})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "checkout failed"})
}
