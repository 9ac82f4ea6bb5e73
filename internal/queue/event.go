// Package queue defines message payloads exchanged over the message
// broker and the background consumer that feeds the live order
// boards.
package queue

// Queue names.  Each event kind gets its own durable queue, declared
// idempotently by both publisher and consumer.
const (
	OrderPlacedQueue      = "order.placed"
	OrderAssignedQueue    = "order.assigned"
	OrderCompletedQueue   = "order.completed"
	BookingConfirmedQueue = "booking.confirmed"
)

// OrderItemPayload is one order line inside an OrderPlacedEvent.
type OrderItemPayload struct {
	Name     string `json:"name"`
	Quantity uint32 `json:"quantity"`
}

// OrderPlacedEvent is published when a customer places an order.
// It carries everything a board needs, so consumers never have to
// query the primary database.
type OrderPlacedEvent struct {
	OrderID          uint64             `json:"order_id"`
	VenueID          uint64             `json:"venue_id"`
	UnitID           uint64             `json:"unit_id"`
	UnitCode         string             `json:"unit_code"`
	Items            []OrderItemPayload `json:"items"`
	TotalAmountCents uint32             `json:"total_amount_cents"`
	CreatedAt        string             `json:"created_at"`
	Revision         uint64             `json:"revision"`
}

// OrderAssignedEvent is published when a staff member claims an
// order on the board.
type OrderAssignedEvent struct {
	OrderID          uint64 `json:"order_id"`
	VenueID          uint64 `json:"venue_id"`
	AssignedUserID   uint64 `json:"assigned_user_id"`
	AssignedUserName string `json:"assigned_user_name"`
	Revision         uint64 `json:"revision"`
}

// OrderCompletedEvent is published when an order leaves the board.
type OrderCompletedEvent struct {
	OrderID     uint64 `json:"order_id"`
	VenueID     uint64 `json:"venue_id"`
	Revision    uint64 `json:"revision"`
	CompletedAt string `json:"completed_at"`
}

// BookingConfirmedEvent is published when a sunbed booking is
// successfully confirmed.  Downstream consumers can log, notify or
// feed analytics from it.
type BookingConfirmedEvent struct {
	BookingID        uint64   `json:"booking_id"`
	UserID           uint64   `json:"user_id"`
	VenueID          uint64   `json:"venue_id"`
	VenueName        string   `json:"venue_name"`
	BookingDate      string   `json:"booking_date"`
	UnitCodes        []string `json:"units"`
	TotalAmountCents uint32   `json:"total_amount_cents"`
	ConfirmedAt      string   `json:"confirmed_at"`
}
