package repository

import (
	"context"
	"database/sql"

	"github.com/rivieraos/riviera/internal/model"
)

// LayoutRepo persists venue floor-plan positions.  The layout editor
// saves a whole venue at once, so writes replace every position for
// the venue in one transaction.
type LayoutRepo struct{ DB *sql.DB }

func NewLayoutRepo(db *sql.DB) *LayoutRepo { return &LayoutRepo{DB: db} }

// ListByVenue returns the venue's unit positions ordered by unit id.
func (r *LayoutRepo) ListByVenue(ctx context.Context, venueID uint64) ([]model.UnitPosition, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT unit_id, venue_id, x, y, rotation, updated_at
		FROM unit_positions WHERE venue_id = ? ORDER BY unit_id`, venueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.UnitPosition, 0)
	for rows.Next() {
		var p model.UnitPosition
		if err := rows.Scan(&p.UnitID, &p.VenueID, &p.X, &p.Y, &p.Rotation, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ReplaceForVenue deletes the venue's stored layout and inserts the
// given positions in one transaction.  Saving an empty layout clears
// the floor plan.
func (r *LayoutRepo) ReplaceForVenue(ctx context.Context, venueID uint64, positions []model.UnitPosition) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM unit_positions WHERE venue_id = ?", venueID); err != nil {
		return err
	}
	if len(positions) > 0 {
		q := `INSERT INTO unit_positions (unit_id, venue_id, x, y, rotation) VALUES `
		args := make([]interface{}, 0, len(positions)*5)
		for i, p := range positions {
			if i > 0 {
				q += ","
			}
			q += "(?, ?, ?, ?, ?)"
			args = append(args, p.UnitID, venueID, p.X, p.Y, p.Rotation)
		}
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			return err
		}
	}
	return tx.Commit()
}
