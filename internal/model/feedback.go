package model

import (
	"encoding/json"
	"time"
)

// Review is a customer review persisted locally before any
// forwarding happens.  Corresponds to a row in the `reviews`
// table.
//
// Fields:
//  ID        – primary key identifier.
//  VenueID   – venue being reviewed.
//  Rating    – 1..5 stars.
//  Comment   – free-form text, may be empty.
//  Contact   – optional customer contact (email/phone).
//  CreatedAt – creation timestamp.
type Review struct {
	ID        uint64    // reviews.id
	VenueID   uint64    // reviews.venue_id
	Rating    uint8     // reviews.rating
	Comment   string    // reviews.comment
	Contact   string    // reviews.contact
	CreatedAt time.Time // reviews.created_at
}

// RetryEntry is one queued feedback submission awaiting replay.
// Entries live in a durable list; the ID correlates flush results
// with queue entries so a partial flush keeps exactly the failed
// subset.  Payload is kept as raw JSON so the queue never needs
// to understand the collector's schema.
type RetryEntry struct {
	ID        string          `json:"id"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}
