package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/rivieraos/riviera/internal/model"
	"github.com/rivieraos/riviera/internal/repository"
	"github.com/rivieraos/riviera/internal/store"
)

// CartHandler exposes the per-device cart.  Adding an item goes
// through the product catalog so prices and names come from the
// database, never from the client.
type CartHandler struct {
	Carts    *store.CartStore
	Products *repository.ProductRepo
}

func NewCartHandler(carts *store.CartStore, products *repository.ProductRepo) *CartHandler {
	return &CartHandler{Carts: carts, Products: products}
}

type cartAddReq struct {
	VenueID   uint64 `json:"venue_id"`
	ProductID uint64 `json:"product_id"`
	Quantity  uint32 `json:"quantity"`
}

type cartQuantityReq struct {
	Quantity int32 `json:"quantity"`
}

type cartVenueReq struct {
	VenueID   uint64 `json:"venue_id"`
	UnitID    uint64 `json:"unit_id"`
	VenueName string `json:"venue_name"`
}

type cartResp struct {
	model.CartState
	TotalCents uint64 `json:"total_cents"`
	ItemCount  uint32 `json:"item_count"`
}

func cartView(st model.CartState) cartResp {
	return cartResp{
		CartState:  st,
		TotalCents: store.CartTotalCents(st),
		ItemCount:  store.CartItemCount(st),
	}
}

// Get returns the cart with derived totals.
func (h *CartHandler) Get(c echo.Context) error {
	device, ok := requireDevice(c)
	if !ok {
		return nil
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	st, err := h.Carts.Get(ctx, device)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load cart failed"})
	}
	return c.JSON(http.StatusOK, cartView(st))
}

// AddItem merges a product into the cart: an existing line for the
// same product grows, otherwise a new line is appended.
func (h *CartHandler) AddItem(c echo.Context) error {
	device, ok := requireDevice(c)
	if !ok {
		return nil
	}
	var req cartAddReq
	if err := c.Bind(&req); err != nil || req.VenueID == 0 || req.ProductID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "venue_id and product_id required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	products, err := h.Products.GetByIDs(ctx, req.VenueID, []uint64{req.ProductID})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load product failed"})
	}
	p, found := products[req.ProductID]
	if !found {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
	}

	line, err := h.Carts.AddOrIncrement(ctx, device, p.ID, p.Name, p.PriceCents, req.Quantity)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update cart failed"})
	}
	st, err := h.Carts.Get(ctx, device)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load cart failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"line": line, "cart": cartView(st)})
}

// UpdateQuantity sets a line's quantity; zero or below removes it.
func (h *CartHandler) UpdateQuantity(c echo.Context) error {
	device, ok := requireDevice(c)
	if !ok {
		return nil
	}
	cartID := c.Param("cartId")
	var req cartQuantityReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	st, err := h.Carts.UpdateQuantity(ctx, device, cartID, req.Quantity)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update cart failed"})
	}
	return c.JSON(http.StatusOK, cartView(st))
}

// RemoveItem deletes a line.  Unknown ids are a silent no-op.
func (h *CartHandler) RemoveItem(c echo.Context) error {
	device, ok := requireDevice(c)
	if !ok {
		return nil
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	st, err := h.Carts.RemoveItem(ctx, device, c.Param("cartId"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update cart failed"})
	}
	return c.JSON(http.StatusOK, cartView(st))
}

// Clear empties the cart and its venue binding.
func (h *CartHandler) Clear(c echo.Context) error {
	device, ok := requireDevice(c)
	if !ok {
		return nil
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Carts.Clear(ctx, device); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "clear cart failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// SetVenue rebinds the cart's venue context.
func (h *CartHandler) SetVenue(c echo.Context) error {
	device, ok := requireDevice(c)
	if !ok {
		return nil
	}
	var req cartVenueReq
	if err := c.Bind(&req); err != nil || req.VenueID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "venue_id required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	st, err := h.Carts.SetVenue(ctx, device, req.VenueID, req.UnitID, req.VenueName)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update cart failed"})
	}
	return c.JSON(http.StatusOK, cartView(st))
}
