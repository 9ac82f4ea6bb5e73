package model

import "time"

// Order statuses as stored in orders.status.  An order is visible
// on the live board while PENDING or PREPARING; completion removes
// it from the board.
const (
	OrderStatusPending   = "PENDING"
	OrderStatusPreparing = "PREPARING"
	OrderStatusCompleted = "COMPLETED"
	OrderStatusCancelled = "CANCELLED"
)

// Order records a customer order placed from a sunbed or table.
// The assignee columns track which staff member claimed the order
// on the live board; both are null while the order is unclaimed.
// Revision increments on every mutation and orders board events,
// so consumers can drop stale updates regardless of arrival order.
//
// Fields:
//  ID               – primary key identifier.
//  VenueID          – venue the order was placed at.
//  UnitID           – unit (sunbed/table) the order belongs to.
//  UnitCode         – denormalized unit label for display.
//  Status           – PENDING, PREPARING, COMPLETED or CANCELLED.
//  TotalAmountCents – total price in cents for all items.
//  AssignedUserID   – staff member who claimed the order (nullable).
//  AssignedUserName – display name of the assignee (nullable).
//  Revision         – monotonic per-order version counter.
//  CreatedAt        – creation timestamp.
//  UpdatedAt        – last update timestamp.
type Order struct {
	ID               uint64    // orders.id
	VenueID          uint64    // orders.venue_id
	UnitID           uint64    // orders.unit_id
	UnitCode         string    // orders.unit_code
	Status           string    // orders.status
	TotalAmountCents uint32    // orders.total_amount_cents
	AssignedUserID   *uint64   // orders.assigned_user_id (nullable)
	AssignedUserName *string   // orders.assigned_user_name (nullable)
	Revision         uint64    // orders.revision
	CreatedAt        time.Time // orders.created_at
	UpdatedAt        time.Time // orders.updated_at
}

// OrderItem is a single line of an order.  Name and price are
// denormalized from the product at order time so that later menu
// edits do not rewrite order history.
//
// Fields:
//  ID         – primary key identifier.
//  OrderID    – owning order.
//  ProductID  – product that was ordered.
//  Name       – product name at order time.
//  Quantity   – number of units ordered, always > 0.
//  PriceCents – unit price in cents at order time.
type OrderItem struct {
	ID         uint64 // order_items.id
	OrderID    uint64 // order_items.order_id
	ProductID  uint64 // order_items.product_id
	Name       string // order_items.name
	Quantity   uint32 // order_items.quantity
	PriceCents uint32 // order_items.price_cents
}
