package router

import (
	"github.com/labstack/echo/v4"

	"github.com/munoimshahriar/Event-Ticketing-System/internal/handler"
	"github.com/munoimshahriar/Event-Ticketing-System/internal/middleware"
)

// RegisterPurchase registers buying and confirmation endpoints.  Buying
// and confirmation lookup accept both guests and logged-in users, so
// they carry OptionalJWT; the purchase history list is tied to an
// account and requires a full token.
func RegisterPurchase(e *echo.Echo, h *handler.PurchaseHandler, jwtSecret string) {
	g := e.Group("/v1", middleware.OptionalJWT(jwtSecret))
	g.POST("/events/:id/purchase", h.BuyTickets)
	g.POST("/checkout", h.DoCheckout)
	g.GET("/purchases/:reference", h.GetPurchase)

	mine := e.Group("/v1", middleware.JWTAuth(jwtSecret))
	mine.GET("/purchases", h.ListPurchases)
}
