package router

import (
	"github.com/labstack/echo/v4"

	"github.com/munoimshahriar/Event-Ticketing-System/internal/handler"
	"github.com/munoimshahriar/Event-Ticketing-System/internal/middleware"
	"github.com/munoimshahriar/Event-Ticketing-System/internal/repository"
)

// RegisterOrganizer registers event management endpoints under
// /v1/organizer.  All routes require a valid JWT with the ORGANIZER or
// ADMIN role; per-event ownership is validated in the handlers.
func RegisterOrganizer(e *echo.Echo, h *handler.OrganizerHandler, jwtSecret string) {
	g := e.Group(
		"/v1/organizer",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(repository.RoleOrganizer, repository.RoleAdmin),
	)
	g.POST("/events", h.CreateEvent)
	g.PUT("/events/:id", h.UpdateEvent)
	g.DELETE("/events/:id", h.DeleteEvent)
	g.GET("/dashboard", h.Dashboard)
}
