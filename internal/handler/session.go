package handler

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/rivieraos/riviera/internal/model"
	"github.com/rivieraos/riviera/internal/repository"
	"github.com/rivieraos/riviera/internal/store"
)

// SessionHandler exposes the per-device visit session over HTTP.
// Starting a session is what a QR scan resolves into; everything else
// is bookkeeping around the four-hour visit window.
type SessionHandler struct {
	Sessions *store.SessionStore
	Venues   *repository.VenueRepo
}

func NewSessionHandler(s *store.SessionStore, v *repository.VenueRepo) *SessionHandler {
	return &SessionHandler{Sessions: s, Venues: v}
}

type sessionStartReq struct {
	QRToken string `json:"qr_token"`
}

type sessionResp struct {
	Mode             string         `json:"mode"`
	Active           bool           `json:"active"`
	DurationMinutes  int64          `json:"duration_minutes"`
	RemainingMinutes int64          `json:"remaining_minutes"`
	Session          *model.Session `json:"session,omitempty"`
}

func (h *SessionHandler) render(ctx context.Context, device string) (sessionResp, error) {
	st, err := h.Sessions.Get(ctx, device)
	if err != nil {
		return sessionResp{}, err
	}
	active, err := h.Sessions.Active(ctx, device)
	if err != nil {
		return sessionResp{}, err
	}
	dur, err := h.Sessions.Duration(ctx, device)
	if err != nil {
		return sessionResp{}, err
	}
	rem, err := h.Sessions.Remaining(ctx, device)
	if err != nil {
		return sessionResp{}, err
	}
	return sessionResp{
		Mode:             st.Mode,
		Active:           active,
		DurationMinutes:  dur,
		RemainingMinutes: rem,
		Session:          st.Session,
	}, nil
}

// Start resolves a scanned QR token and opens a SPOT session for the
// device, overwriting any previous one.
func (h *SessionHandler) Start(c echo.Context) error {
	device, ok := requireDevice(c)
	if !ok {
		return nil
	}
	var req sessionStartReq
	if err := c.Bind(&req); err != nil || req.QRToken == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "qr_token required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	unit, venue, err := h.Venues.ResolveQRToken(ctx, req.QRToken)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "unknown qr code"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "resolve failed"})
	}

	if _, err := h.Sessions.Start(ctx, device, venue.ID, unit.ID, venue.Name); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "start session failed"})
	}
	resp, err := h.render(ctx, device)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load session failed"})
	}
	return c.JSON(http.StatusCreated, resp)
}

// Exit flips the device back to DISCOVER but keeps the session
// around.  Idempotent.
func (h *SessionHandler) Exit(c echo.Context) error {
	device, ok := requireDevice(c)
	if !ok {
		return nil
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Sessions.Exit(ctx, device); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "exit failed"})
	}
	resp, err := h.render(ctx, device)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load session failed"})
	}
	return c.JSON(http.StatusOK, resp)
}

// Clear discards the session entirely.
func (h *SessionHandler) Clear(c echo.Context) error {
	device, ok := requireDevice(c)
	if !ok {
		return nil
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Sessions.Clear(ctx, device); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "clear failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Get returns the current session state with derived fields.
func (h *SessionHandler) Get(c echo.Context) error {
	device, ok := requireDevice(c)
	if !ok {
		return nil
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	resp, err := h.render(ctx, device)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load session failed"})
	}
	return c.JSON(http.StatusOK, resp)
}
