package handler

import (
	"context"
	"net/http"
	"regexp"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/rivieraos/riviera/internal/config"
	"github.com/rivieraos/riviera/internal/middleware"
	"github.com/rivieraos/riviera/internal/model"
	"github.com/rivieraos/riviera/internal/queue"
	"github.com/rivieraos/riviera/internal/repository"
	queue_publisher "github.com/rivieraos/riviera/internal/service"
)

// BookingHandler drives the sunbed checkout: a time-boxed hold on the
// chosen units, then a confirm that converts live holds into a
// booking.  Both steps run their checks inside one transaction so two
// customers racing for the same sunbed cannot both win.
type BookingHandler struct {
	Cfg      config.Config
	Holds    *repository.UnitHoldRepo
	Bookings *repository.BookingRepo
	Venues   *repository.VenueRepo
}

func NewBookingHandler(cfg config.Config, h *repository.UnitHoldRepo, b *repository.BookingRepo, v *repository.VenueRepo) *BookingHandler {
	return &BookingHandler{Cfg: cfg, Holds: h, Bookings: b, Venues: v}
}

var bookingDateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

type holdReq struct {
	VenueID     uint64   `json:"venue_id"`
	BookingDate string   `json:"booking_date"`
	UnitIDs     []uint64 `json:"unit_ids"`
}

type confirmReq struct {
	HoldToken   string `json:"hold_token"`
	VenueID     uint64 `json:"venue_id"`
	BookingDate string `json:"booking_date"`
	UnitPrices  []struct {
		UnitID     uint64 `json:"unit_id"`
		PriceCents uint32 `json:"price_cents"`
	} `json:"unit_prices"`
}

// Hold places a hold on the requested units for the calling user.
func (h *BookingHandler) Hold(c echo.Context) error {
	userID := middleware.UserID(c)
	var req holdReq
	if err := c.Bind(&req); err != nil || req.VenueID == 0 || len(req.UnitIDs) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "venue_id and unit_ids required"})
	}
	if !bookingDateRe.MatchString(req.BookingDate) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "booking_date must be YYYY-MM-DD"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	// All requested units must exist and belong to the venue.
	for _, id := range req.UnitIDs {
		unit, err := h.Venues.GetUnit(ctx, id)
		if err != nil || unit.VenueID != req.VenueID || !unit.IsActive {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown unit for venue"})
		}
	}

	token, err := repository.NewHoldToken()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hold failed"})
	}
	expiresAt := time.Now().UTC().Add(time.Duration(h.Cfg.HoldTTLMin) * time.Minute)

	tx, err := h.Bookings.Begin(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hold failed"})
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := h.Holds.ExpireHoldsTx(ctx, tx, req.VenueID, req.BookingDate); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hold failed"})
	}
	held, err := h.Holds.HeldByOthersTx(ctx, tx, userID, req.VenueID, req.BookingDate, req.UnitIDs)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hold failed"})
	}
	booked, err := h.Bookings.BookedUnitsTx(ctx, tx, req.VenueID, req.BookingDate, req.UnitIDs)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hold failed"})
	}
	if len(held) > 0 || len(booked) > 0 {
		return c.JSON(http.StatusConflict, echo.Map{
			"error":        "units unavailable",
			"held_units":   held,
			"booked_units": booked,
		})
	}

	holds := make([]repository.UnitHoldRecord, 0, len(req.UnitIDs))
	for _, id := range req.UnitIDs {
		holds = append(holds, repository.UnitHoldRecord{
			UserID:      userID,
			VenueID:     req.VenueID,
			UnitID:      id,
			BookingDate: req.BookingDate,
			HoldToken:   token,
			ExpiresAt:   expiresAt,
		})
	}
	if err := h.Holds.CreateMultipleTx(ctx, tx, holds); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hold failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hold failed"})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"hold_token": token,
		"expires_at": expiresAt,
		"unit_ids":   req.UnitIDs,
	})
}

// Confirm converts the live holds behind a token into a CONFIRMED
// booking and announces it.  A lapsed token yields 410.
func (h *BookingHandler) Confirm(c echo.Context) error {
	userID := middleware.UserID(c)
	var req confirmReq
	if err := c.Bind(&req); err != nil || req.HoldToken == "" || req.VenueID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "hold_token and venue_id required"})
	}
	if !bookingDateRe.MatchString(req.BookingDate) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "booking_date must be YYYY-MM-DD"})
	}
	prices := make(map[uint64]uint32, len(req.UnitPrices))
	for _, up := range req.UnitPrices {
		prices[up.UnitID] = up.PriceCents
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	tx, err := h.Bookings.Begin(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "confirm failed"})
	}
	defer func() { _ = tx.Rollback() }()

	unitIDs, err := h.Holds.DeleteByTokenTx(ctx, tx, userID, req.HoldToken)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "confirm failed"})
	}
	if len(unitIDs) == 0 {
		return c.JSON(http.StatusGone, echo.Map{"error": "hold expired or unknown"})
	}

	booked, err := h.Bookings.BookedUnitsTx(ctx, tx, req.VenueID, req.BookingDate, unitIDs)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "confirm failed"})
	}
	if len(booked) > 0 {
		return c.JSON(http.StatusConflict, echo.Map{"error": "units unavailable", "booked_units": booked})
	}

	var total uint32
	units := make([]repository.BookingUnitRecord, 0, len(unitIDs))
	for _, id := range unitIDs {
		price := prices[id]
		total += price
		units = append(units, repository.BookingUnitRecord{UnitID: id, PriceCents: price})
	}

	booking := model.Booking{
		UserID:           userID,
		VenueID:          req.VenueID,
		BookingDate:      req.BookingDate,
		Status:           "CONFIRMED",
		TotalAmountCents: total,
	}
	if err := h.Bookings.CreateTx(ctx, tx, &booking); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "confirm failed"})
	}
	for i := range units {
		units[i].BookingID = booking.ID
	}
	if err := h.Bookings.CreateUnitsBulkTx(ctx, tx, units); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "confirm failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "confirm failed"})
	}

	venue, _ := h.Venues.GetVenue(ctx, req.VenueID)
	codes := make([]string, 0, len(unitIDs))
	for _, id := range unitIDs {
		if u, err := h.Venues.GetUnit(ctx, id); err == nil {
			codes = append(codes, u.Code)
		}
	}
	_ = queue_publisher.PublishBookingConfirmed(ctx, queue.BookingConfirmedEvent{
		BookingID:        booking.ID,
		UserID:           userID,
		VenueID:          req.VenueID,
		VenueName:        venue.Name,
		BookingDate:      req.BookingDate,
		UnitCodes:        codes,
		TotalAmountCents: total,
		ConfirmedAt:      time.Now().UTC().Format(time.RFC3339),
	})

	return c.JSON(http.StatusCreated, echo.Map{"booking": booking, "unit_ids": unitIDs})
}

// List is GET /v1/bookings: the caller's bookings, newest first.
func (h *BookingHandler) List(c echo.Context) error {
	userID := middleware.UserID(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	details, err := h.Bookings.ListByUser(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list bookings failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": details})
}

// Get is GET /v1/bookings/:id.
func (h *BookingHandler) Get(c echo.Context) error {
	bookingID := paramUint(c, "id")
	if bookingID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	det, err := h.Bookings.GetByIDForUser(ctx, bookingID, middleware.UserID(c))
	if err != nil {
		switch err {
		case repository.ErrForbidden:
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		default:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"booking": det})
}
