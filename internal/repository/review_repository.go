package repository

import (
	"context"
	"database/sql"

	"github.com/rivieraos/riviera/internal/model"
)

// ReviewRepo provides access to the 'reviews' table.  Reviews are
// persisted locally before any forwarding to the external collector,
// so a collector outage never loses customer feedback.
type ReviewRepo struct{ DB *sql.DB }

func NewReviewRepo(db *sql.DB) *ReviewRepo { return &ReviewRepo{DB: db} }

// Create inserts a review and returns the stored row.
func (r *ReviewRepo) Create(ctx context.Context, venueID uint64, rating uint8, comment, contact string) (model.Review, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO reviews (venue_id, rating, comment, contact) VALUES (?,?,?,?)",
		venueID, rating, comment, contact)
	if err != nil {
		return model.Review{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Review{}, err
	}
	var rev model.Review
	err = r.DB.QueryRowContext(ctx,
		"SELECT id, venue_id, rating, comment, contact, created_at FROM reviews WHERE id = ?",
		id).Scan(&rev.ID, &rev.VenueID, &rev.Rating, &rev.Comment, &rev.Contact, &rev.CreatedAt)
	return rev, err
}

// ListByVenue returns a venue's reviews, newest first.
func (r *ReviewRepo) ListByVenue(ctx context.Context, venueID uint64, limit int) ([]model.Review, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, venue_id, rating, comment, contact, created_at
		FROM reviews WHERE venue_id = ?
		ORDER BY created_at DESC LIMIT ?`, venueID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Review, 0)
	for rows.Next() {
		var rev model.Review
		if err := rows.Scan(&rev.ID, &rev.VenueID, &rev.Rating, &rev.Comment, &rev.Contact, &rev.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rev)
	}
	return out, rows.Err()
}
