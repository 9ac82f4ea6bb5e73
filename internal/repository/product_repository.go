package repository

import (
	"context"
	"database/sql"

	"github.com/rivieraos/riviera/internal/model"
)

// ProductRepo provides access to the 'products' table (venue menus).
type ProductRepo struct{ DB *sql.DB }

func NewProductRepo(db *sql.DB) *ProductRepo { return &ProductRepo{DB: db} }

// ListByVenue returns a venue's active menu, ordered by category
// then name so the client can render sections directly.
func (r *ProductRepo) ListByVenue(ctx context.Context, venueID uint64) ([]model.Product, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, venue_id, name, category, price_cents, is_active, created_at, updated_at
		FROM products
		WHERE venue_id = ? AND is_active = 1
		ORDER BY category, name`, venueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Product
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(&p.ID, &p.VenueID, &p.Name, &p.Category, &p.PriceCents, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetByIDs fetches the given products of one venue, keyed by id.
// Products from other venues or inactive ones are simply absent from
// the result; the caller decides whether that is an error.
func (r *ProductRepo) GetByIDs(ctx context.Context, venueID uint64, ids []uint64) (map[uint64]model.Product, error) {
	out := make(map[uint64]model.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	q := `SELECT id, venue_id, name, category, price_cents, is_active, created_at, updated_at
		FROM products WHERE venue_id = ? AND is_active = 1 AND id IN (`
	args := make([]interface{}, 0, len(ids)+1)
	args = append(args, venueID)
	for i, id := range ids {
		if i > 0 {
			q += ","
		}
		q += "?"
		args = append(args, id)
	}
	q += ")"
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(&p.ID, &p.VenueID, &p.Name, &p.Category, &p.PriceCents, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out[p.ID] = p
	}
	return out, rows.Err()
}

// CreateProduct inserts a menu item and returns its id.
func (r *ProductRepo) CreateProduct(ctx context.Context, venueID uint64, name, category string, priceCents uint32) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO products (venue_id, name, category, price_cents) VALUES (?,?,?,?)",
		venueID, name, category, priceCents)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}
