package model

import "time"

// Product is a menu item sold at a venue (drinks, food, rentals).
// Prices are stored in cents to avoid floating point rounding.
// Corresponds to a row in the `products` table.
//
// Fields:
//  ID         – primary key identifier.
//  VenueID    – venue whose menu the product belongs to.
//  Name       – display name.
//  Category   – menu section (e.g. COCKTAILS, SNACKS).
//  PriceCents – unit price in cents.
//  IsActive   – whether the product is currently orderable.
//  CreatedAt  – creation timestamp.
//  UpdatedAt  – last update timestamp.
type Product struct {
	ID         uint64    // products.id
	VenueID    uint64    // products.venue_id
	Name       string    // products.name
	Category   string    // products.category
	PriceCents uint32    // products.price_cents
	IsActive   bool      // products.is_active
	CreatedAt  time.Time // products.created_at
	UpdatedAt  time.Time // products.updated_at
}
