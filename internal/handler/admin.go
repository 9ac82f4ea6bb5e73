package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/rivieraos/riviera/internal/middleware"
	"github.com/rivieraos/riviera/internal/model"
	"github.com/rivieraos/riviera/internal/repository"
)

// AdminHandler covers venue management: creating venues, units and
// menu products, and the floor layout editor.  Every mutation checks
// venue ownership first.
type AdminHandler struct {
	Venues   *repository.VenueRepo
	Products *repository.ProductRepo
	Layouts  *repository.LayoutRepo
}

func NewAdminHandler(v *repository.VenueRepo, p *repository.ProductRepo, l *repository.LayoutRepo) *AdminHandler {
	return &AdminHandler{Venues: v, Products: p, Layouts: l}
}

// ownsOr403 verifies venue ownership and writes the 403 itself.
func (h *AdminHandler) ownsOr403(ctx context.Context, c echo.Context, venueID uint64) bool {
	owns, err := h.Venues.OwnsVenue(ctx, venueID, middleware.UserID(c))
	if err != nil {
		_ = c.JSON(http.StatusInternalServerError, echo.Map{"error": "ownership check failed"})
		return false
	}
	if !owns {
		_ = c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		return false
	}
	return true
}

type venueCreateReq struct {
	Name     string `json:"name"`
	Timezone string `json:"timezone"`
}

// CreateVenue is POST /v1/admin/venues.
func (h *AdminHandler) CreateVenue(c echo.Context) error {
	var req venueCreateReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
	}
	tz := strings.TrimSpace(req.Timezone)
	if tz == "" {
		tz = "UTC"
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	id, err := h.Venues.CreateVenue(ctx, middleware.UserID(c), strings.TrimSpace(req.Name), tz)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create venue failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": id})
}

type unitCreateReq struct {
	Code    string `json:"code"`
	QRToken string `json:"qr_token"`
	Kind    string `json:"kind"`
}

// CreateUnit is POST /v1/admin/venues/:id/units.
func (h *AdminHandler) CreateUnit(c echo.Context) error {
	venueID := paramUint(c, "id")
	if venueID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid venue id"})
	}
	var req unitCreateReq
	if err := c.Bind(&req); err != nil || req.Code == "" || req.QRToken == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "code and qr_token required"})
	}
	kind := strings.ToUpper(strings.TrimSpace(req.Kind))
	switch kind {
	case model.UnitKindSunbed, model.UnitKindDaybed, model.UnitKindTable:
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "kind must be SUNBED, DAYBED or TABLE"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if !h.ownsOr403(ctx, c, venueID) {
		return nil
	}
	id, err := h.Venues.CreateUnit(ctx, venueID, req.Code, req.QRToken, kind)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create unit failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": id})
}

type productCreateReq struct {
	Name       string `json:"name"`
	Category   string `json:"category"`
	PriceCents uint32 `json:"price_cents"`
}

// CreateProduct is POST /v1/admin/venues/:id/products.
func (h *AdminHandler) CreateProduct(c echo.Context) error {
	venueID := paramUint(c, "id")
	if venueID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid venue id"})
	}
	var req productCreateReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Name) == "" || req.PriceCents == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and price_cents required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if !h.ownsOr403(ctx, c, venueID) {
		return nil
	}
	id, err := h.Products.CreateProduct(ctx, venueID, strings.TrimSpace(req.Name), strings.TrimSpace(req.Category), req.PriceCents)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create product failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": id})
}

type layoutPosition struct {
	UnitID   uint64 `json:"unit_id"`
	X        int32  `json:"x"`
	Y        int32  `json:"y"`
	Rotation int16  `json:"rotation"`
}

type layoutReq struct {
	Positions []layoutPosition `json:"positions"`
}

// GetLayout is GET /v1/venues/:id/layout.  Reading the floor plan is
// open to any authenticated staff of the platform; only saving is
// owner-gated.
func (h *AdminHandler) GetLayout(c echo.Context) error {
	venueID := paramUint(c, "id")
	if venueID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid venue id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	positions, err := h.Layouts.ListByVenue(ctx, venueID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load layout failed"})
	}
	out := make([]layoutPosition, 0, len(positions))
	for _, p := range positions {
		out = append(out, layoutPosition{UnitID: p.UnitID, X: p.X, Y: p.Y, Rotation: p.Rotation})
	}
	return c.JSON(http.StatusOK, echo.Map{"positions": out})
}

// SaveLayout is PUT /v1/admin/venues/:id/layout.  It replaces the
// whole floor plan in one transaction.
func (h *AdminHandler) SaveLayout(c echo.Context) error {
	venueID := paramUint(c, "id")
	if venueID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid venue id"})
	}
	var req layoutReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	for _, p := range req.Positions {
		if p.UnitID == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unit_id required on every position"})
		}
		switch p.Rotation {
		case 0, 90, 180, 270:
		default:
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "rotation must be 0, 90, 180 or 270"})
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if !h.ownsOr403(ctx, c, venueID) {
		return nil
	}
	positions := make([]model.UnitPosition, 0, len(req.Positions))
	for _, p := range req.Positions {
		positions = append(positions, model.UnitPosition{
			UnitID:   p.UnitID,
			VenueID:  venueID,
			X:        p.X,
			Y:        p.Y,
			Rotation: p.Rotation,
		})
	}
	if err := h.Layouts.ReplaceForVenue(ctx, venueID, positions); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save layout failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"saved": len(positions)})
}
