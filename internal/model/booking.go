package model

import "time"

// UnitHold is a temporary hold placed on a unit while a customer
// is completing a booking.  Holds stop concurrent checkouts from
// grabbing the same sunbed and expire automatically at their
// expires_at timestamp; expired holds are reaped lazily inside
// the booking transaction.  Corresponds to a row in `unit_holds`.
//
// Fields:
//  ID          – primary key identifier.
//  UserID      – user holding the unit (nullable for guests).
//  VenueID     – venue of the held unit.
//  UnitID      – unit being held.
//  BookingDate – calendar date (venue timezone) being booked.
//  HoldToken   – opaque token returned to the client.
//  ExpiresAt   – when the hold expires.
//  CreatedAt   – when the hold was created.
type UnitHold struct {
	ID          uint64    // unit_holds.id
	UserID      *uint64   // unit_holds.user_id (nullable)
	VenueID     uint64    // unit_holds.venue_id
	UnitID      uint64    // unit_holds.unit_id
	BookingDate string    // unit_holds.booking_date (YYYY-MM-DD)
	HoldToken   string    // unit_holds.hold_token
	ExpiresAt   time.Time // unit_holds.expires_at
	CreatedAt   time.Time // unit_holds.created_at
}

// Booking records a confirmed reservation of one or more units
// for a calendar date.  Corresponds to a row in `bookings`.
//
// Fields:
//  ID               – primary key identifier.
//  UserID           – user who made the booking.
//  VenueID          – venue being booked.
//  BookingDate      – calendar date being booked (YYYY-MM-DD).
//  Status           – CONFIRMED or CANCELLED.
//  TotalAmountCents – total price in cents for all units.
//  CreatedAt        – creation timestamp.
//  UpdatedAt        – last update timestamp.
type Booking struct {
	ID               uint64    // bookings.id
	UserID           uint64    // bookings.user_id
	VenueID          uint64    // bookings.venue_id
	BookingDate      string    // bookings.booking_date
	Status           string    // bookings.status
	TotalAmountCents uint32    // bookings.total_amount_cents
	CreatedAt        time.Time // bookings.created_at
	UpdatedAt        time.Time // bookings.updated_at
}

// BookingUnit links a booking to the individual units it covers.
//
// Fields:
//  ID         – primary key identifier.
//  BookingID  – owning booking.
//  UnitID     – unit reserved by the booking.
//  PriceCents – price for this unit in cents.
//  CreatedAt  – creation timestamp.
type BookingUnit struct {
	ID         uint64    // booking_units.id
	BookingID  uint64    // booking_units.booking_id
	UnitID     uint64    // booking_units.unit_id
	PriceCents uint32    // booking_units.price_cents
	CreatedAt  time.Time // booking_units.created_at
}
