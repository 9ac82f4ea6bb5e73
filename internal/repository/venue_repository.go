package repository

import (
	"context"
	"database/sql"

	"github.com/rivieraos/riviera/internal/model"
)

// VenueRepo provides access to the 'venues' and 'units' tables.
// Units are read through their venue so ownership checks can join in
// one place.
type VenueRepo struct{ DB *sql.DB }

func NewVenueRepo(db *sql.DB) *VenueRepo { return &VenueRepo{DB: db} }

// ListVenues returns all venues for public browsing.
func (r *VenueRepo) ListVenues(ctx context.Context) ([]model.Venue, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, owner_id, name, timezone, created_at, updated_at FROM venues ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Venue
	for rows.Next() {
		var v model.Venue
		if err := rows.Scan(&v.ID, &v.OwnerID, &v.Name, &v.Timezone, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// GetVenue fetches one venue by id.
func (r *VenueRepo) GetVenue(ctx context.Context, id uint64) (model.Venue, error) {
	var v model.Venue
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, owner_id, name, timezone, created_at, updated_at FROM venues WHERE id=? LIMIT 1",
		id).Scan(&v.ID, &v.OwnerID, &v.Name, &v.Timezone, &v.CreatedAt, &v.UpdatedAt)
	return v, err
}

// CreateVenue inserts a venue for the given owner and returns its id.
func (r *VenueRepo) CreateVenue(ctx context.Context, ownerID uint64, name, timezone string) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO venues (owner_id, name, timezone) VALUES (?,?,?)",
		ownerID, name, timezone)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// ListUnits returns a venue's units, optionally only active ones.
func (r *VenueRepo) ListUnits(ctx context.Context, venueID uint64, activeOnly bool) ([]model.Unit, error) {
	q := "SELECT id, venue_id, code, qr_token, kind, is_active, created_at, updated_at FROM units WHERE venue_id=?"
	if activeOnly {
		q += " AND is_active=1"
	}
	q += " ORDER BY code"
	rows, err := r.DB.QueryContext(ctx, q, venueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Unit
	for rows.Next() {
		var u model.Unit
		if err := rows.Scan(&u.ID, &u.VenueID, &u.Code, &u.QRToken, &u.Kind, &u.IsActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// GetUnit fetches one unit by id.
func (r *VenueRepo) GetUnit(ctx context.Context, id uint64) (model.Unit, error) {
	var u model.Unit
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, venue_id, code, qr_token, kind, is_active, created_at, updated_at FROM units WHERE id=? LIMIT 1",
		id).Scan(&u.ID, &u.VenueID, &u.Code, &u.QRToken, &u.Kind, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// ResolveQRToken maps a scanned QR token to its unit and venue.
// This is the entry point of the on-site flow: the result feeds
// session/start.  An unknown or inactive token yields sql.ErrNoRows.
func (r *VenueRepo) ResolveQRToken(ctx context.Context, token string) (model.Unit, model.Venue, error) {
	var u model.Unit
	var v model.Venue
	err := r.DB.QueryRowContext(ctx, `
		SELECT u.id, u.venue_id, u.code, u.qr_token, u.kind, u.is_active, u.created_at, u.updated_at,
		       v.id, v.owner_id, v.name, v.timezone, v.created_at, v.updated_at
		FROM units u
		JOIN venues v ON v.id = u.venue_id
		WHERE u.qr_token = ? AND u.is_active = 1
		LIMIT 1`, token).Scan(
		&u.ID, &u.VenueID, &u.Code, &u.QRToken, &u.Kind, &u.IsActive, &u.CreatedAt, &u.UpdatedAt,
		&v.ID, &v.OwnerID, &v.Name, &v.Timezone, &v.CreatedAt, &v.UpdatedAt)
	return u, v, err
}

// CreateUnit inserts a unit and returns its id.  The QR token must
// be unique across all venues.
func (r *VenueRepo) CreateUnit(ctx context.Context, venueID uint64, code, qrToken, kind string) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO units (venue_id, code, qr_token, kind) VALUES (?,?,?,?)",
		venueID, code, qrToken, kind)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// OwnsVenue reports whether the user owns the venue.  Used by admin
// endpoints before any mutation.
func (r *VenueRepo) OwnsVenue(ctx context.Context, venueID, userID uint64) (bool, error) {
	var ownerID uint64
	err := r.DB.QueryRowContext(ctx,
		"SELECT owner_id FROM venues WHERE id=? LIMIT 1", venueID).Scan(&ownerID)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	return ownerID == userID, nil
}
