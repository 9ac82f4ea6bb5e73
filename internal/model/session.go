package model

// Visit modes.  A device is either browsing the whole coastline
// (DISCOVER) or pinned to the venue/unit it scanned a QR code at
// (SPOT).
const (
	ModeSpot     = "SPOT"
	ModeDiscover = "DISCOVER"
)

// SessionTTLMinutes bounds how long a QR-scanned session stays
// active.  After four hours the session is logically expired even
// though the stored blob is only removed on an explicit clear.
const SessionTTLMinutes = 4 * 60

// Session is the per-device visit session created when a customer
// scans a unit's QR code.  It is persisted as a JSON blob in the
// key-value store, not in MySQL; the json tags define the stored
// shape.  StartTime is epoch milliseconds to match the QR client.
type Session struct {
	VenueID        uint64 `json:"venue_id"`
	UnitID         uint64 `json:"unit_id"`
	VenueName      string `json:"venue_name"`
	StartTime      int64  `json:"start_time"`
	ManuallyExited bool   `json:"manually_exited"`
}

// SessionState is the full persisted blob: the current mode plus
// the session object, which survives a manual exit for later
// inspection and is only dropped on Clear.
type SessionState struct {
	SchemaVersion int      `json:"schema_version"`
	Mode          string   `json:"mode"`
	Session       *Session `json:"session,omitempty"`
}
