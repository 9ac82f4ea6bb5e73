package handler

import (
	"context"
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/rivieraos/riviera/internal/model"
	"github.com/rivieraos/riviera/internal/repository"
)

// PublicHandler serves the unauthenticated browse surface: venue
// lists, units, menus and QR resolution.  These endpoints sit behind
// the response cache middleware.
type PublicHandler struct {
	Venues   *repository.VenueRepo
	Products *repository.ProductRepo
	Reviews  *repository.ReviewRepo
}

func NewPublicHandler(v *repository.VenueRepo, p *repository.ProductRepo, r *repository.ReviewRepo) *PublicHandler {
	return &PublicHandler{Venues: v, Products: p, Reviews: r}
}

// publicVenue is a venue stripped for public consumption: no owner
// id, no audit timestamps.
type publicVenue struct {
	ID       uint64 `json:"id"`
	Name     string `json:"name"`
	Timezone string `json:"timezone"`
}

// publicUnit omits the QR token: the token is a bearer credential for
// the on-site flow and must only ever travel inside a printed code.
type publicUnit struct {
	ID   uint64 `json:"id"`
	Code string `json:"code"`
	Kind string `json:"kind"`
}

type publicProduct struct {
	ID         uint64 `json:"id"`
	Name       string `json:"name"`
	Category   string `json:"category,omitempty"`
	PriceCents uint32 `json:"price_cents"`
}

func publicVenueFrom(v model.Venue) publicVenue {
	return publicVenue{ID: v.ID, Name: v.Name, Timezone: v.Timezone}
}

func publicUnitFrom(u model.Unit) publicUnit {
	return publicUnit{ID: u.ID, Code: u.Code, Kind: u.Kind}
}

// ListVenues is GET /v1/public/venues.
func (h *PublicHandler) ListVenues(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	venues, err := h.Venues.ListVenues(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list venues failed"})
	}
	out := make([]publicVenue, 0, len(venues))
	for _, v := range venues {
		out = append(out, publicVenueFrom(v))
	}
	return c.JSON(http.StatusOK, echo.Map{"venues": out})
}

// ListUnits is GET /v1/public/venues/:id/units (active units only).
func (h *PublicHandler) ListUnits(c echo.Context) error {
	venueID := paramUint(c, "id")
	if venueID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid venue id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	units, err := h.Venues.ListUnits(ctx, venueID, true)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list units failed"})
	}
	out := make([]publicUnit, 0, len(units))
	for _, u := range units {
		out = append(out, publicUnitFrom(u))
	}
	return c.JSON(http.StatusOK, echo.Map{"units": out})
}

// Menu is GET /v1/public/venues/:id/menu.
func (h *PublicHandler) Menu(c echo.Context) error {
	venueID := paramUint(c, "id")
	if venueID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid venue id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	products, err := h.Products.ListByVenue(ctx, venueID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load menu failed"})
	}
	out := make([]publicProduct, 0, len(products))
	for _, p := range products {
		out = append(out, publicProduct{
			ID:         p.ID,
			Name:       p.Name,
			Category:   p.Category,
			PriceCents: p.PriceCents,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"products": out})
}

// ResolveQR is GET /v1/public/qr/:token, the entry point of the
// on-site flow.  A malformed token is 400, an unknown one 404; the
// client then falls back to DISCOVER mode.
func (h *PublicHandler) ResolveQR(c echo.Context) error {
	token := strings.TrimSpace(c.Param("token"))
	if token == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "qr token required"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	unit, venue, err := h.Venues.ResolveQRToken(ctx, token)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "unknown qr code"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "resolve failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"venue": publicVenueFrom(venue),
		"unit":  publicUnitFrom(unit),
	})
}

// VenueReviews is GET /v1/public/venues/:id/reviews.
func (h *PublicHandler) VenueReviews(c echo.Context) error {
	venueID := paramUint(c, "id")
	if venueID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid venue id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	reviews, err := h.Reviews.ListByVenue(ctx, venueID, 50)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load reviews failed"})
	}
	out := make([]reviewResp, 0, len(reviews))
	for _, r := range reviews {
		out = append(out, reviewToResp(r))
	}
	return c.JSON(http.StatusOK, echo.Map{"reviews": out})
}
