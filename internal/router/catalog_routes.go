package router

import (
	"github.com/labstack/echo/v4"

	"github.com/munoimshahriar/Event-Ticketing-System/internal/handler"
)

// RegisterCatalog registers the public, unauthenticated browse
// endpoints.  The optional cache middleware (nil-safe via variadic) is
// applied only here: catalog reads tolerate short staleness, checkout
// does not.
func RegisterCatalog(e *echo.Echo, h *handler.CatalogHandler, mw ...echo.MiddlewareFunc) {
	g := e.Group("/v1", mw...)
	g.GET("/events", h.ListEvents)
	g.GET("/events/:id", h.GetEvent)
	g.GET("/categories", h.ListCategories)
}
