package model

import "time"

// Venue represents a beach club or restaurant operated on the
// platform.  A venue owns a set of bookable units (sunbeds,
// tables) and a menu of products.  This struct corresponds to a
// row in the `venues` table.
//
// Fields:
//  ID        – primary key identifier.
//  OwnerID   – user ID of the venue owner.
//  Name      – unique venue name per owner.
//  Timezone  – IANA timezone name used for booking dates.
//  CreatedAt – timestamp when the venue was created.
//  UpdatedAt – timestamp of last update.
type Venue struct {
	ID        uint64    // venues.id
	OwnerID   uint64    // venues.owner_id
	Name      string    // venues.name
	Timezone  string    // venues.timezone
	CreatedAt time.Time // venues.created_at
	UpdatedAt time.Time // venues.updated_at
}

// Unit kinds.
const (
	UnitKindSunbed = "SUNBED"
	UnitKindDaybed = "DAYBED"
	UnitKindTable  = "TABLE"
)

// Unit is a single bookable spot inside a venue: a sunbed, a
// daybed or a table.  Every unit carries a printed QR code; a
// customer scanning it enters on-site (SPOT) mode bound to this
// unit.  Corresponds to a row in the `units` table.
//
// Fields:
//  ID        – primary key identifier.
//  VenueID   – venue the unit belongs to.
//  Code      – short human-readable label (e.g. "S-14").
//  QRToken   – opaque token embedded in the printed QR code.
//  Kind      – SUNBED, DAYBED or TABLE.
//  IsActive  – whether the unit can currently be booked.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Unit struct {
	ID        uint64    // units.id
	VenueID   uint64    // units.venue_id
	Code      string    // units.code
	QRToken   string    // units.qr_token
	Kind      string    // units.kind
	IsActive  bool      // units.is_active
	CreatedAt time.Time // units.created_at
	UpdatedAt time.Time // units.updated_at
}

// UnitPosition stores where a unit sits on the venue's floor map.
// The admin layout editor replaces a venue's positions wholesale.
// Corresponds to a row in the `unit_positions` table.
//
// Fields:
//  UnitID    – unit being placed (primary key).
//  VenueID   – owning venue, denormalized for bulk replace.
//  X, Y      – coordinates on the floor plan, in grid cells.
//  Rotation  – rotation in degrees (0, 90, 180, 270).
//  UpdatedAt – last time the layout was saved.
type UnitPosition struct {
	UnitID    uint64    // unit_positions.unit_id
	VenueID   uint64    // unit_positions.venue_id
	X         int32     // unit_positions.x
	Y         int32     // unit_positions.y
	Rotation  int16     // unit_positions.rotation
	UpdatedAt time.Time // unit_positions.updated_at
}
