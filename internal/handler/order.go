package handler

import (
	"context"
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/rivieraos/riviera/internal/board"
	"github.com/rivieraos/riviera/internal/middleware"
	"github.com/rivieraos/riviera/internal/model"
	"github.com/rivieraos/riviera/internal/queue"
	"github.com/rivieraos/riviera/internal/repository"
	queue_publisher "github.com/rivieraos/riviera/internal/service"
)

// OrderHandler drives the order lifecycle: checkout, board fetch,
// staff claim and completion.  Every mutation is applied to the local
// hub immediately (optimistic) and published to the broker so other
// instances' boards converge; publish failures are tolerated because
// the next snapshot or refresh self-corrects.
type OrderHandler struct {
	Orders   *repository.OrderRepo
	Products *repository.ProductRepo
	Venues   *repository.VenueRepo
	Hub      *board.Hub
}

func NewOrderHandler(o *repository.OrderRepo, p *repository.ProductRepo, v *repository.VenueRepo, hub *board.Hub) *OrderHandler {
	return &OrderHandler{Orders: o, Products: p, Venues: v, Hub: hub}
}

type orderLineReq struct {
	ProductID uint64 `json:"product_id"`
	Quantity  uint32 `json:"quantity"`
}

type orderCreateReq struct {
	VenueID uint64         `json:"venue_id"`
	UnitID  uint64         `json:"unit_id"`
	Items   []orderLineReq `json:"items"`
}

type orderStatusReq struct {
	Status string `json:"status"`
}

type orderLineResp struct {
	ProductID  uint64 `json:"product_id"`
	Name       string `json:"name"`
	Quantity   uint32 `json:"quantity"`
	PriceCents uint32 `json:"price_cents"`
}

type orderResp struct {
	ID               uint64          `json:"id"`
	VenueID          uint64          `json:"venue_id"`
	UnitID           uint64          `json:"unit_id"`
	UnitCode         string          `json:"unit_code"`
	Status           string          `json:"status"`
	TotalAmountCents uint32          `json:"total_amount_cents"`
	AssignedUserID   *uint64         `json:"assigned_user_id,omitempty"`
	AssignedUserName *string         `json:"assigned_user_name,omitempty"`
	Revision         uint64          `json:"revision"`
	CreatedAt        time.Time       `json:"created_at"`
	Items            []orderLineResp `json:"items,omitempty"`
}

func orderToResp(o model.Order, items []model.OrderItem) orderResp {
	resp := orderResp{
		ID:               o.ID,
		VenueID:          o.VenueID,
		UnitID:           o.UnitID,
		UnitCode:         o.UnitCode,
		Status:           o.Status,
		TotalAmountCents: o.TotalAmountCents,
		AssignedUserID:   o.AssignedUserID,
		AssignedUserName: o.AssignedUserName,
		Revision:         o.Revision,
		CreatedAt:        o.CreatedAt,
	}
	for _, it := range items {
		resp.Items = append(resp.Items, orderLineResp{
			ProductID:  it.ProductID,
			Name:       it.Name,
			Quantity:   it.Quantity,
			PriceCents: it.PriceCents,
		})
	}
	return resp
}

// Create places an order from the cart payload.  Prices and names
// are resolved server-side from the product catalog.
func (h *OrderHandler) Create(c echo.Context) error {
	var req orderCreateReq
	if err := c.Bind(&req); err != nil || req.VenueID == 0 || req.UnitID == 0 || len(req.Items) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "venue_id, unit_id and items required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	unit, err := h.Venues.GetUnit(ctx, req.UnitID)
	if err != nil || unit.VenueID != req.VenueID {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown unit for venue"})
	}

	ids := make([]uint64, 0, len(req.Items))
	for _, l := range req.Items {
		if l.ProductID == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "product_id required on every line"})
		}
		ids = append(ids, l.ProductID)
	}
	products, err := h.Products.GetByIDs(ctx, req.VenueID, ids)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load products failed"})
	}

	inputs := make([]repository.OrderItemInput, 0, len(req.Items))
	for _, l := range req.Items {
		p, found := products[l.ProductID]
		if !found {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown product in order"})
		}
		qty := l.Quantity
		if qty == 0 {
			qty = 1
		}
		inputs = append(inputs, repository.OrderItemInput{
			ProductID:  p.ID,
			Name:       p.Name,
			Quantity:   qty,
			PriceCents: p.PriceCents,
		})
	}

	order, items, err := h.Orders.Create(ctx, req.VenueID, req.UnitID, unit.Code, inputs)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create order failed"})
	}

	h.Hub.HandleOrderPlaced(order.VenueID, board.EntryFromOrder(order, items))

	event := queue.OrderPlacedEvent{
		OrderID:          order.ID,
		VenueID:          order.VenueID,
		UnitID:           order.UnitID,
		UnitCode:         order.UnitCode,
		TotalAmountCents: order.TotalAmountCents,
		CreatedAt:        order.CreatedAt.UTC().Format(time.RFC3339),
		Revision:         order.Revision,
	}
	for _, it := range items {
		event.Items = append(event.Items, queue.OrderItemPayload{Name: it.Name, Quantity: it.Quantity})
	}
	_ = queue_publisher.PublishOrderPlaced(ctx, event)

	return c.JSON(http.StatusCreated, echo.Map{"order": orderToResp(order, items)})
}

// List is the initial bulk fetch for a board: the venue's PENDING
// and PREPARING orders, oldest first.
func (h *OrderHandler) List(c echo.Context) error {
	venueID := queryUint(c, "venue_id")
	if venueID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "venue_id required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	orders, items, err := h.Orders.ListPending(ctx, venueID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list orders failed"})
	}

	// Feed the local board through the same reconciliation path as
	// push events; stale rows lose to newer revisions already held.
	entries := make([]board.Entry, 0, len(orders))
	out := make([]orderResp, 0, len(orders))
	for _, o := range orders {
		entries = append(entries, board.EntryFromOrder(o, items[o.ID]))
		out = append(out, orderToResp(o, items[o.ID]))
	}
	h.Hub.Board(venueID).Load(entries)

	return c.JSON(http.StatusOK, echo.Map{"orders": out})
}

// Assign claims an order for the calling staff member.  A claim held
// by someone else yields 409 and leaves the board unchanged.
func (h *OrderHandler) Assign(c echo.Context) error {
	orderID := paramUint(c, "id")
	if orderID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}
	userID := middleware.UserID(c)
	userName := middleware.DisplayName(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	order, err := h.Orders.Assign(ctx, orderID, userID, userName)
	if err != nil {
		switch err {
		case repository.ErrConflict:
			return c.JSON(http.StatusConflict, echo.Map{"error": "order already claimed"})
		case sql.ErrNoRows:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "assign failed"})
		}
	}

	h.Hub.HandleOrderAssigned(order.VenueID, order.ID, userID, userName, order.Revision)
	_ = queue_publisher.PublishOrderAssigned(ctx, queue.OrderAssignedEvent{
		OrderID:          order.ID,
		VenueID:          order.VenueID,
		AssignedUserID:   userID,
		AssignedUserName: userName,
		Revision:         order.Revision,
	})

	return c.JSON(http.StatusOK, echo.Map{"order": orderToResp(order, nil)})
}

// UpdateStatus transitions an order.  Completion and cancellation
// remove it from the board.
func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	orderID := paramUint(c, "id")
	if orderID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}
	var req orderStatusReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	status := strings.ToUpper(strings.TrimSpace(req.Status))
	switch status {
	case model.OrderStatusPreparing, model.OrderStatusCompleted, model.OrderStatusCancelled:
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	order, err := h.Orders.UpdateStatus(ctx, orderID, status)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update status failed"})
	}

	if status == model.OrderStatusCompleted || status == model.OrderStatusCancelled {
		h.Hub.HandleOrderCompleted(order.VenueID, order.ID)
		_ = queue_publisher.PublishOrderCompleted(ctx, queue.OrderCompletedEvent{
			OrderID:     order.ID,
			VenueID:     order.VenueID,
			Revision:    order.Revision,
			CompletedAt: time.Now().UTC().Format(time.RFC3339),
		})
	}

	return c.JSON(http.StatusOK, echo.Map{"order": orderToResp(order, nil)})
}
