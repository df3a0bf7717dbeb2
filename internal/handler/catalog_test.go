package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/munoimshahriar/Event-Ticketing-System/internal/repository"
)

func filterContext(target string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	return e.NewContext(req, httptest.NewRecorder())
}

func TestParseEventFilter(t *testing.T) {
	t.Run("all parameters", func(t *testing.T) {
		c := filterContext("/v1/events?title=jazz&category_id=3&date_from=2026-06-01&date_to=2026-07-01T18:00:00Z&availability=available&sort=price&page=2&page_size=10")
		f, err := parseEventFilter(c)
		if err != nil {
			t.Fatalf("parseEventFilter: %v", err)
		}
		if f.Title != "jazz" || f.CategoryID != 3 || f.SortBy != "price" {
			t.Fatalf("unexpected filter: %+v", f)
		}
		if f.Page != 2 || f.PageSize != 10 {
			t.Fatalf("paging not parsed: %+v", f)
		}
		if f.Availability != repository.AvailabilityAvailable {
			t.Fatalf("expected availability filter, got %q", f.Availability)
		}
		wantFrom := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
		if f.DateFrom == nil || !f.DateFrom.Equal(wantFrom) {
			t.Fatalf("expected date_from %v, got %v", wantFrom, f.DateFrom)
		}
		wantTo := time.Date(2026, 7, 1, 18, 0, 0, 0, time.UTC)
		if f.DateTo == nil || !f.DateTo.Equal(wantTo) {
			t.Fatalf("expected date_to %v, got %v", wantTo, f.DateTo)
		}
	})

	t.Run("empty query is valid", func(t *testing.T) {
		f, err := parseEventFilter(filterContext("/v1/events"))
		if err != nil {
			t.Fatalf("parseEventFilter: %v", err)
		}
		if f.Title != "" || f.CategoryID != 0 || f.DateFrom != nil {
			t.Fatalf("expected zero filter, got %+v", f)
		}
	})

	bad := []struct {
		name   string
		target string
	}{
		{"bad category id", "/v1/events?category_id=abc"},
		{"zero category id", "/v1/events?category_id=0"},
		{"bad date_from", "/v1/events?date_from=june"},
		{"bad date_to", "/v1/events?date_to=01-06-2026"},
		{"unknown availability", "/v1/events?availability=plenty"},
	}
	for _, tc := range bad {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := parseEventFilter(filterContext(tc.target)); err == nil {
				t.Fatalf("expected error for %s", tc.target)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	if _, err := parseDate("2026-06-01"); err != nil {
		t.Fatalf("bare date should parse: %v", err)
	}
	got, err := parseDate("2026-06-01T12:30:00+02:00")
	if err != nil {
		t.Fatalf("RFC3339 should parse: %v", err)
	}
	if got.Location() != time.UTC {
		t.Fatalf("expected UTC normalization, got %v", got.Location())
	}
	if _, err := parseDate("tomorrow"); err == nil {
		t.Fatal("expected error for junk input")
	}
}
