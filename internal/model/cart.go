package model

import "time"

// CartItem is a single line in a device's cart.  CartID is a
// locally generated UUID distinct from ProductID, so the same
// product can appear as separate lines when a flow wants that.
type CartItem struct {
	CartID     string    `json:"cart_id"`
	ProductID  uint64    `json:"product_id"`
	Name       string    `json:"name"`
	PriceCents uint32    `json:"price_cents"`
	Quantity   uint32    `json:"quantity"`
	AddedAt    time.Time `json:"added_at"`
}

// CartState is the persisted cart blob for one device.  The cart
// is bound to a single venue/unit pair; clearing the cart wipes
// the items and the venue binding together.
type CartState struct {
	SchemaVersion int        `json:"schema_version"`
	Items         []CartItem `json:"items"`
	VenueID       uint64     `json:"venue_id"`
	UnitID        uint64     `json:"unit_id"`
	VenueName     string     `json:"venue_name"`
}
