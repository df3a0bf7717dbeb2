package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/munoimshahriar/Event-Ticketing-System/internal/model"
	"github.com/munoimshahriar/Event-Ticketing-System/internal/repository"
)

// CatalogHandler serves the public, read-only event catalog.  No
// authentication is required; availability shown here is advisory and
// only the checkout path can consume it.
type CatalogHandler struct {
	Events     *repository.EventRepo
	Categories *repository.CategoryRepo
}

func NewCatalogHandler(events *repository.EventRepo, categories *repository.CategoryRepo) *CatalogHandler {
	if events == nil || categories == nil {
		panic("nil repository passed to NewCatalogHandler")
	}
	return &CatalogHandler{Events: events, Categories: categories}
}

// eventView is the public JSON shape of an event.
type eventView struct {
	ID               uint64    `json:"id"`
	Title            string    `json:"title"`
	Date             time.Time `json:"date"`
	PriceCents       int64     `json:"price_cents"`
	AvailableTickets int       `json:"available_tickets"`
	SoldOut          bool      `json:"sold_out"`
	CategoryID       uint64    `json:"category_id"`
}

func toEventView(e model.Event) eventView {
	return eventView{
		ID:               e.ID,
		Title:            e.Title,
		Date:             e.Date,
		PriceCents:       e.PriceCents,
		AvailableTickets: e.AvailableTickets,
		SoldOut:          e.SoldOut(),
		CategoryID:       e.CategoryID,
	}
}

// ListEvents handles GET /v1/events.  Supported query parameters:
// title (substring), category_id, date_from, date_to (RFC3339 or
// YYYY-MM-DD), availability (available|soldout), sort
// (date|title|price), page and page_size.
func (h *CatalogHandler) ListEvents(c echo.Context) error {
	filter, err := parseEventFilter(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	events, total, err := h.Events.Search(c.Request().Context(), filter)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to search events"})
	}

	items := make([]eventView, 0, len(events))
	for _, e := range events {
		items = append(items, toEventView(e))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"items": items,
		"total": total,
	})
}

// GetEvent handles GET /v1/events/:id.
func (h *CatalogHandler) GetEvent(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	e, err := h.Events.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrEventNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch event"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": toEventView(e)})
}

// ListCategories handles GET /v1/categories.
func (h *CatalogHandler) ListCategories(c echo.Context) error {
	cats, err := h.Categories.ListAll(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to list categories"})
	}
	items := make([]echo.Map, 0, len(cats))
	for _, cat := range cats {
		items = append(items, echo.Map{"id": cat.ID, "name": cat.Name, "description": cat.Description})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

func parseEventFilter(c echo.Context) (repository.EventFilter, error) {
	f := repository.EventFilter{
		Title:  strings.TrimSpace(c.QueryParam("title")),
		SortBy: c.QueryParam("sort"),
	}
	if v := c.QueryParam("category_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil || id == 0 {
			return f, errors.New("invalid category_id")
		}
		f.CategoryID = id
	}
	if v := c.QueryParam("date_from"); v != "" {
		t, err := parseDate(v)
		if err != nil {
			return f, errors.New("invalid date_from")
		}
		f.DateFrom = &t
	}
	if v := c.QueryParam("date_to"); v != "" {
		t, err := parseDate(v)
		if err != nil {
			return f, errors.New("invalid date_to")
		}
		f.DateTo = &t
	}
	if v := strings.ToLower(c.QueryParam("availability")); v != "" {
		if v != repository.AvailabilityAvailable && v != repository.AvailabilitySoldOut {
			return f, errors.New("availability must be 'available' or 'soldout'")
		}
		f.Availability = v
	}
	if v := c.QueryParam("page"); v != "" {
		f.Page, _ = strconv.Atoi(v)
	}
	if v := c.QueryParam("page_size"); v != "" {
		f.PageSize, _ = strconv.Atoi(v)
	}
	return f, nil
}

// parseDate accepts RFC3339 timestamps and bare dates.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
