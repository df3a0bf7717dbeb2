package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/munoimshahriar/Event-Ticketing-System/internal/model"
	"github.com/munoimshahriar/Event-Ticketing-System/internal/repository"
)

// OrganizerHandler covers event management for organizers and admins.
// Routes using it are wrapped in JWTAuth plus RequireRole, so a valid
// user_id and role are always present; per-event ownership is checked
// here because it needs the event row.
type OrganizerHandler struct {
	Events     *repository.EventRepo
	Categories *repository.CategoryRepo
}

func NewOrganizerHandler(events *repository.EventRepo, categories *repository.CategoryRepo) *OrganizerHandler {
	if events == nil || categories == nil {
		panic("nil repository passed to NewOrganizerHandler")
	}
	return &OrganizerHandler{Events: events, Categories: categories}
}

type eventReq struct {
	Title            string `json:"title"`
	Date             string `json:"date"`
	PriceCents       int64  `json:"price_cents"`
	AvailableTickets int    `json:"available_tickets"`
	CategoryID       uint64 `json:"category_id"`
}

// canManage reports whether the caller may modify the event: admins
// always, organizers only for events they own.
func canManage(e model.Event, callerID uint64, role string) bool {
	if role == repository.RoleAdmin {
		return true
	}
	return e.OrganizerID != nil && *e.OrganizerID == callerID
}

// CreateEvent handles POST /v1/organizer/events.  The creator becomes
// the event's organizer and available_tickets sets the initial stock;
// after creation stock only moves through purchases.
func (h *OrganizerHandler) CreateEvent(c echo.Context) error {
	callerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req eventReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title is required"})
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date"})
	}
	if req.PriceCents < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "price_cents must not be negative"})
	}
	if req.AvailableTickets < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "available_tickets must not be negative"})
	}

	ctx := c.Request().Context()
	if _, err := h.Categories.GetByID(ctx, req.CategoryID); err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown category"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to check category"})
	}

	event := model.Event{
		Title:            req.Title,
		Date:             date,
		PriceCents:       req.PriceCents,
		AvailableTickets: req.AvailableTickets,
		CategoryID:       req.CategoryID,
		OrganizerID:      &callerID,
	}
	if err := h.Events.Create(ctx, &event); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create event"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"item": toEventView(event)})
}

// UpdateEvent handles PUT /v1/organizer/events/:id.  Title, date, price
// and category are mutable; ticket stock is not, so a repricing can
// never race a checkout into overselling.
func (h *OrganizerHandler) UpdateEvent(c echo.Context) error {
	callerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	var req eventReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx := c.Request().Context()
	event, err := h.Events.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch event"})
	}
	if !canManage(event, callerID, currentRole(c)) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	if title := strings.TrimSpace(req.Title); title != "" {
		event.Title = title
	}
	if req.Date != "" {
		date, err := parseDate(req.Date)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date"})
		}
		event.Date = date
	}
	if req.PriceCents < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "price_cents must not be negative"})
	}
	if req.PriceCents > 0 {
		event.PriceCents = req.PriceCents
	}
	if req.CategoryID != 0 {
		if _, err := h.Categories.GetByID(ctx, req.CategoryID); err != nil {
			if errors.Is(err, repository.ErrCategoryNotFound) {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown category"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to check category"})
		}
		event.CategoryID = req.CategoryID
	}

	if err := h.Events.Update(ctx, &event); err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update event"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": toEventView(event)})
}

// DeleteEvent handles DELETE /v1/organizer/events/:id.  Events that
// have been purchased cannot be removed; receipts must keep resolving.
func (h *OrganizerHandler) DeleteEvent(c echo.Context) error {
	callerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}

	ctx := c.Request().Context()
	event, err := h.Events.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch event"})
	}
	if !canManage(event, callerID, currentRole(c)) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	if err := h.Events.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "event has purchases and cannot be deleted"})
		case errors.Is(err, repository.ErrEventNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete event"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Dashboard handles GET /v1/organizer/dashboard.  It reports how many
// events the caller owns and lists events that are close to selling
// out, with an optional ?threshold= override.
func (h *OrganizerHandler) Dashboard(c echo.Context) error {
	callerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	threshold := 10
	if v := c.QueryParam("threshold"); v != "" {
		t, err := strconv.Atoi(v)
		if err != nil || t < 1 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid threshold"})
		}
		threshold = t
	}

	ctx := c.Request().Context()
	owned, err := h.Events.CountByOrganizer(ctx, callerID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load dashboard"})
	}
	events, err := h.Events.LowAvailability(ctx, threshold)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load dashboard"})
	}
	items := make([]eventView, 0, len(events))
	for _, e := range events {
		items = append(items, toEventView(e))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"own_events": owned,
		"threshold":  threshold,
		"items":      items,
	})
}
