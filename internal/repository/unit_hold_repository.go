package repository

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"time"
)

// UnitHoldRecord is the persistence model for a unit hold used by
// the repository layer when creating and querying holds.  The
// exported model.UnitHold should be used for business logic.
type UnitHoldRecord struct {
	ID          uint64    // primary key of the unit_holds row
	UserID      uint64    // user who holds the unit
	VenueID     uint64    // venue of the held unit
	UnitID      uint64    // unit being held
	BookingDate string    // calendar date being booked (YYYY-MM-DD)
	HoldToken   string    // opaque token returned to the client
	ExpiresAt   time.Time // expiration timestamp
	CreatedAt   time.Time // creation timestamp
}

// UnitHoldRepo provides data access to the unit_holds table.  All
// expiry comparisons are performed in UTC; callers must pass UTC
// timestamps.
type UnitHoldRepo struct {
	db *sql.DB
}

// NewUnitHoldRepo returns a new UnitHoldRepo bound to the database.
func NewUnitHoldRepo(db *sql.DB) *UnitHoldRepo { return &UnitHoldRepo{db: db} }

// NewHoldToken generates the random hex token stored in
// unit_holds.hold_token and returned to the client.
func NewHoldToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// ExpireHoldsTx removes all expired holds for a venue and date and
// returns the unit IDs that were released.  A hold is expired when
// expires_at <= now (UTC).  Runs inside the caller's transaction;
// the booking flow calls it first so stale holds never block a new
// checkout.
func (r *UnitHoldRepo) ExpireHoldsTx(ctx context.Context, tx *sql.Tx, venueID uint64, bookingDate string) ([]uint64, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT unit_id FROM unit_holds WHERE venue_id = ? AND booking_date = ? AND expires_at <= UTC_TIMESTAMP()`,
		venueID, bookingDate)
	if err != nil {
		return nil, err
	}
	var expired []uint64
	for rows.Next() {
		var id uint64
		if scanErr := rows.Scan(&id); scanErr != nil {
			rows.Close()
			return nil, scanErr
		}
		expired = append(expired, id)
	}
	if err = rows.Close(); err != nil {
		return nil, err
	}
	if len(expired) == 0 {
		return []uint64{}, nil
	}
	_, err = tx.ExecContext(ctx,
		`DELETE FROM unit_holds WHERE venue_id = ? AND booking_date = ? AND expires_at <= UTC_TIMESTAMP()`,
		venueID, bookingDate)
	if err != nil {
		return nil, err
	}
	return expired, nil
}

// HeldByOthersTx returns the subset of the given units that carry an
// active hold belonging to a different user.  Called after
// ExpireHoldsTx inside the same transaction.
func (r *UnitHoldRepo) HeldByOthersTx(ctx context.Context, tx *sql.Tx, userID, venueID uint64, bookingDate string, unitIDs []uint64) ([]uint64, error) {
	if len(unitIDs) == 0 {
		return nil, nil
	}
	q := `SELECT unit_id FROM unit_holds
		WHERE venue_id = ? AND booking_date = ? AND user_id <> ? AND expires_at > UTC_TIMESTAMP() AND unit_id IN (`
	args := []interface{}{venueID, bookingDate, userID}
	for i, id := range unitIDs {
		if i > 0 {
			q += ","
		}
		q += "?"
		args = append(args, id)
	}
	q += ")"
	rows, err := tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var held []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		held = append(held, id)
	}
	return held, rows.Err()
}

// CreateMultipleTx inserts the holds within the provided
// transaction.  Passing an empty slice has no effect.
func (r *UnitHoldRepo) CreateMultipleTx(ctx context.Context, tx *sql.Tx, holds []UnitHoldRecord) error {
	if len(holds) == 0 {
		return nil
	}
	q := `INSERT INTO unit_holds (user_id, venue_id, unit_id, booking_date, hold_token, expires_at) VALUES `
	args := make([]interface{}, 0, len(holds)*6)
	for i, h := range holds {
		if i > 0 {
			q += ","
		}
		q += "(?, ?, ?, ?, ?, ?)"
		args = append(args, h.UserID, h.VenueID, h.UnitID, h.BookingDate, h.HoldToken,
			h.ExpiresAt.UTC().Format("2006-01-02 15:04:05"))
	}
	_, err := tx.ExecContext(ctx, q, args...)
	return err
}

// DeleteByTokenTx consumes all live holds carrying the given token
// for the user and returns the released unit IDs.  Expired holds are
// not returned, so a confirm attempt on a lapsed token comes back
// empty.  Used when a booking is confirmed or abandoned.
func (r *UnitHoldRepo) DeleteByTokenTx(ctx context.Context, tx *sql.Tx, userID uint64, holdToken string) ([]uint64, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT unit_id FROM unit_holds WHERE user_id = ? AND hold_token = ? AND expires_at > UTC_TIMESTAMP()`,
		userID, holdToken)
	if err != nil {
		return nil, err
	}
	var released []uint64
	for rows.Next() {
		var id uint64
		if scanErr := rows.Scan(&id); scanErr != nil {
			rows.Close()
			return nil, scanErr
		}
		released = append(released, id)
	}
	if err = rows.Close(); err != nil {
		return nil, err
	}
	if len(released) == 0 {
		return []uint64{}, nil
	}
	_, err = tx.ExecContext(ctx,
		`DELETE FROM unit_holds WHERE user_id = ? AND hold_token = ?`,
		userID, holdToken)
	if err != nil {
		return nil, err
	}
	return released, nil
}
