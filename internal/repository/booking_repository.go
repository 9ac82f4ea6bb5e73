package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/rivieraos/riviera/internal/model"
)

// BookingRepo provides CRUD operations for bookings and their units.
// A booking groups one or more sunbed units for a venue and calendar
// date.  Units reserved under a booking are stored in the
// booking_units table.  All timestamp fields are stored in UTC.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// BookingUnitRecord mirrors the booking_units table.  Only fields
// needed for insertion are exposed.
type BookingUnitRecord struct {
	BookingID  uint64
	UnitID     uint64
	PriceCents uint32
}

// CreateTx inserts a new booking within the scope of an existing
// transaction.  It populates the generated ID and timestamps on the
// provided record.  The caller must commit or rollback the
// transaction.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	const q = `INSERT INTO bookings (user_id, venue_id, booking_date, status, total_amount_cents) VALUES (?, ?, ?, ?, ?)`
	result, err := tx.ExecContext(ctx, q, b.UserID, b.VenueID, b.BookingDate, b.Status, b.TotalAmountCents)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	const sel = `SELECT id, user_id, venue_id, booking_date, status, total_amount_cents, created_at, updated_at FROM bookings WHERE id = ?`
	return tx.QueryRowContext(ctx, sel, b.ID).Scan(
		&b.ID, &b.UserID, &b.VenueID, &b.BookingDate, &b.Status, &b.TotalAmountCents,
		&b.CreatedAt, &b.UpdatedAt,
	)
}

// CreateUnitsBulkTx inserts multiple booking_units rows in a single
// statement.  The caller must supply the booking ID in each record.
// Passing an empty slice has no effect and returns nil.
func (r *BookingRepo) CreateUnitsBulkTx(ctx context.Context, tx *sql.Tx, units []BookingUnitRecord) error {
	if len(units) == 0 {
		return nil
	}
	query := `INSERT INTO booking_units (booking_id, unit_id, price_cents) VALUES `
	args := make([]interface{}, 0, len(units)*3)
	for i, u := range units {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?)"
		args = append(args, u.BookingID, u.UnitID, u.PriceCents)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// BookedUnitsTx returns the subset of the given units already covered
// by a CONFIRMED booking for the venue and date.  The booking flow
// calls it inside its transaction, after expiring stale holds, to
// reject units someone else has already paid for.
func (r *BookingRepo) BookedUnitsTx(ctx context.Context, tx *sql.Tx, venueID uint64, bookingDate string, unitIDs []uint64) ([]uint64, error) {
	if len(unitIDs) == 0 {
		return nil, nil
	}
	placeholders := make([]string, 0, len(unitIDs))
	args := []interface{}{venueID, bookingDate}
	for _, id := range unitIDs {
		placeholders = append(placeholders, "?")
		args = append(args, id)
	}
	q := `SELECT bu.unit_id
	      FROM booking_units bu
	      JOIN bookings b ON b.id = bu.booking_id
	      WHERE b.venue_id = ? AND b.booking_date = ? AND b.status = 'CONFIRMED'
	        AND bu.unit_id IN (` + strings.Join(placeholders, ",") + `)`
	rows, err := tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var booked []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		booked = append(booked, id)
	}
	return booked, rows.Err()
}

// BookingDetail encapsulates a booking along with its venue name and
// the units reserved.  It is returned by ListByUser for display to
// customers.
type BookingDetail struct {
	ID               uint64 `json:"id"`
	VenueID          uint64 `json:"venue_id"`
	VenueName        string `json:"venue_name"`
	BookingDate      string `json:"booking_date"`
	Status           string `json:"status"`
	TotalAmountCents uint32 `json:"total_amount_cents"`
	CreatedAt        string `json:"created_at"`
	Units            []struct {
		UnitID     uint64 `json:"unit_id"`
		Code       string `json:"code"`
		Kind       string `json:"kind"`
		PriceCents uint32 `json:"price_cents"`
	} `json:"units"`
}

// ListByUser returns all bookings for the given user, newest first,
// each with its venue name and units.  When no bookings exist an
// empty slice is returned.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]BookingDetail, error) {
	const q = `SELECT b.id, b.venue_id, v.name, b.booking_date, b.status, b.total_amount_cents, b.created_at
	           FROM bookings b
	           JOIN venues v ON v.id = b.venue_id
	           WHERE b.user_id = ?
	           ORDER BY b.created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	details := make([]BookingDetail, 0)
	index := make(map[uint64]int)
	for rows.Next() {
		var d BookingDetail
		var createdAt time.Time
		if err := rows.Scan(&d.ID, &d.VenueID, &d.VenueName, &d.BookingDate, &d.Status, &d.TotalAmountCents, &createdAt); err != nil {
			return nil, err
		}
		d.CreatedAt = createdAt.UTC().Format(time.RFC3339)
		d.Units = []struct {
			UnitID     uint64 `json:"unit_id"`
			Code       string `json:"code"`
			Kind       string `json:"kind"`
			PriceCents uint32 `json:"price_cents"`
		}{}
		index[d.ID] = len(details)
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(details) == 0 {
		return details, nil
	}
	ids := make([]interface{}, 0, len(details))
	placeholders := make([]string, 0, len(details))
	for _, d := range details {
		ids = append(ids, d.ID)
		placeholders = append(placeholders, "?")
	}
	unitQuery := `SELECT bu.booking_id, bu.unit_id, u.code, u.kind, bu.price_cents
	              FROM booking_units bu
	              JOIN units u ON u.id = bu.unit_id
	              WHERE bu.booking_id IN (` + strings.Join(placeholders, ",") + `)
	              ORDER BY bu.booking_id, u.code`
	urows, err := r.db.QueryContext(ctx, unitQuery, ids...)
	if err != nil {
		return nil, err
	}
	defer urows.Close()
	for urows.Next() {
		var bid, uid uint64
		var code, kind string
		var price uint32
		if err := urows.Scan(&bid, &uid, &code, &kind, &price); err != nil {
			return nil, err
		}
		idx, ok := index[bid]
		if !ok {
			continue
		}
		details[idx].Units = append(details[idx].Units, struct {
			UnitID     uint64 `json:"unit_id"`
			Code       string `json:"code"`
			Kind       string `json:"kind"`
			PriceCents uint32 `json:"price_cents"`
		}{UnitID: uid, Code: code, Kind: kind, PriceCents: price})
	}
	if err := urows.Err(); err != nil {
		return nil, err
	}
	return details, nil
}

// GetByIDForUser returns one booking for the given user, or
// sql.ErrNoRows when it does not exist, or ErrForbidden when it
// belongs to someone else.
func (r *BookingRepo) GetByIDForUser(ctx context.Context, bookingID, userID uint64) (*BookingDetail, error) {
	var ownerID uint64
	err := r.db.QueryRowContext(ctx,
		"SELECT user_id FROM bookings WHERE id = ?", bookingID).Scan(&ownerID)
	if err != nil {
		return nil, err
	}
	if ownerID != userID {
		return nil, ErrForbidden
	}
	const q = `SELECT b.id, b.venue_id, v.name, b.booking_date, b.status, b.total_amount_cents, b.created_at
	           FROM bookings b
	           JOIN venues v ON v.id = b.venue_id
	           WHERE b.id = ?`
	var d BookingDetail
	var createdAt time.Time
	if err := r.db.QueryRowContext(ctx, q, bookingID).Scan(
		&d.ID, &d.VenueID, &d.VenueName, &d.BookingDate, &d.Status, &d.TotalAmountCents, &createdAt,
	); err != nil {
		return nil, err
	}
	d.CreatedAt = createdAt.UTC().Format(time.RFC3339)
	d.Units = []struct {
		UnitID     uint64 `json:"unit_id"`
		Code       string `json:"code"`
		Kind       string `json:"kind"`
		PriceCents uint32 `json:"price_cents"`
	}{}
	const unitQ = `SELECT bu.unit_id, u.code, u.kind, bu.price_cents
	               FROM booking_units bu
	               JOIN units u ON u.id = bu.unit_id
	               WHERE bu.booking_id = ?
	               ORDER BY u.code`
	rows, err := r.db.QueryContext(ctx, unitQ, d.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var uid uint64
		var code, kind string
		var price uint32
		if err := rows.Scan(&uid, &code, &kind, &price); err != nil {
			return nil, err
		}
		d.Units = append(d.Units, struct {
			UnitID     uint64 `json:"unit_id"`
			Code       string `json:"code"`
			Kind       string `json:"kind"`
			PriceCents uint32 `json:"price_cents"`
		}{UnitID: uid, Code: code, Kind: kind, PriceCents: price})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &d, nil
}

// Begin starts a transaction on the underlying database.  The booking
// handler drives the hold/confirm flow across several repositories
// within one transaction, so it needs a shared entry point.
func (r *BookingRepo) Begin(ctx context.Context) (*sql.Tx, error) {
	return r.db.BeginTx(ctx, nil)
}
