package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/rivieraos/riviera/internal/feedback"
	"github.com/rivieraos/riviera/internal/model"
	"github.com/rivieraos/riviera/internal/repository"
)

// FeedbackHandler ingests customer reviews.  Every submission is
// persisted locally first; negative feedback (rating <= 2) is then
// forwarded to the external collector through the retry queue
// service, so a collector outage delays forwarding but never loses
// the review.
type FeedbackHandler struct {
	Reviews *repository.ReviewRepo
	Service *feedback.Service
}

func NewFeedbackHandler(r *repository.ReviewRepo, s *feedback.Service) *FeedbackHandler {
	return &FeedbackHandler{Reviews: r, Service: s}
}

type feedbackReq struct {
	VenueID uint64 `json:"venue_id"`
	Rating  uint8  `json:"rating"`
	Comment string `json:"comment"`
	Contact string `json:"contact"`
}

// reviewResp is the review shape returned to clients.  Contact stays
// server-side: it is collected for follow-up, not for display.
type reviewResp struct {
	ID        uint64    `json:"id"`
	VenueID   uint64    `json:"venue_id"`
	Rating    uint8     `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func reviewToResp(r model.Review) reviewResp {
	return reviewResp{
		ID:        r.ID,
		VenueID:   r.VenueID,
		Rating:    r.Rating,
		Comment:   r.Comment,
		CreatedAt: r.CreatedAt,
	}
}

// collectorPayload is the shape forwarded to the external collector.
type collectorPayload struct {
	VenueID     uint64 `json:"venue_id"`
	Rating      uint8  `json:"rating"`
	Comment     string `json:"comment"`
	Contact     string `json:"contact,omitempty"`
	SubmittedAt string `json:"submitted_at"`
}

// Submit is POST /v1/public/feedback.
func (h *FeedbackHandler) Submit(c echo.Context) error {
	var req feedbackReq
	if err := c.Bind(&req); err != nil || req.VenueID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "venue_id required"})
	}
	if req.Rating < 1 || req.Rating > 5 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "rating must be 1..5"})
	}
	req.Comment = strings.TrimSpace(req.Comment)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	review, err := h.Reviews.Create(ctx, req.VenueID, req.Rating, req.Comment, strings.TrimSpace(req.Contact))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "store review failed"})
	}

	// Only negative feedback leaves the building.
	if req.Rating > 2 {
		return c.JSON(http.StatusCreated, echo.Map{"review": reviewToResp(review), "forwarded": false})
	}

	payload, err := json.Marshal(collectorPayload{
		VenueID:     req.VenueID,
		Rating:      req.Rating,
		Comment:     req.Comment,
		Contact:     req.Contact,
		SubmittedAt: review.CreatedAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "encode feedback failed"})
	}

	if err := h.Service.Submit(ctx, payload); err != nil {
		var httpErr *feedback.HTTPError
		if errors.As(err, &httpErr) {
			// The collector rejected the payload; nothing was queued.
			return c.JSON(http.StatusBadGateway, echo.Map{
				"review":    reviewToResp(review),
				"forwarded": false,
				"error":     "collector rejected feedback",
			})
		}
		// Transport failure: queued for a later replay.
		return c.JSON(http.StatusAccepted, echo.Map{
			"review":    reviewToResp(review),
			"forwarded": false,
			"queued":    true,
		})
	}
	return c.JSON(http.StatusCreated, echo.Map{"review": reviewToResp(review), "forwarded": true})
}

// QueueStatus is GET /v1/admin/feedback/queue.
func (h *FeedbackHandler) QueueStatus(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	n, err := h.Service.QueueLen(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "queue status failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"queued": n})
}

// Flush is POST /v1/admin/feedback/flush.  It replays the retry
// queue immediately instead of waiting for the next scheduled flush.
func (h *FeedbackHandler) Flush(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
	defer cancel()

	remaining, err := h.Service.ProcessRetryQueue(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "flush failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"remaining": remaining})
}
