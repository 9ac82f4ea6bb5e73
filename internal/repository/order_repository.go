package repository

import (
	"context"
	"database/sql"

	"github.com/rivieraos/riviera/internal/model"
)

// OrderRepo provides CRUD operations for orders and their items.
// Orders carry a monotonic revision column incremented by every
// mutation; board events embed the revision so consumers can drop
// stale updates regardless of arrival order.
type OrderRepo struct {
	db *sql.DB
}

// NewOrderRepo returns a new OrderRepo bound to the given database.
func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{db: db} }

// OrderItemInput describes one line of an order being created.
// Name and price are denormalized from the product at order time.
type OrderItemInput struct {
	ProductID  uint64
	Name       string
	Quantity   uint32
	PriceCents uint32
}

// Create inserts an order with its items in one transaction and
// returns the stored order.  The total is computed here from the
// lines, so a client cannot claim a different amount.
func (r *OrderRepo) Create(ctx context.Context, venueID, unitID uint64, unitCode string, items []OrderItemInput) (model.Order, []model.OrderItem, error) {
	var total uint64
	for _, it := range items {
		total += uint64(it.PriceCents) * uint64(it.Quantity)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Order{}, nil, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO orders (venue_id, unit_id, unit_code, status, total_amount_cents, revision)
		VALUES (?, ?, ?, ?, ?, 1)`,
		venueID, unitID, unitCode, model.OrderStatusPending, uint32(total))
	if err != nil {
		return model.Order{}, nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Order{}, nil, err
	}
	orderID := uint64(id)

	if len(items) > 0 {
		q := `INSERT INTO order_items (order_id, product_id, name, quantity, price_cents) VALUES `
		args := make([]interface{}, 0, len(items)*5)
		for i, it := range items {
			if i > 0 {
				q += ","
			}
			q += "(?, ?, ?, ?, ?)"
			args = append(args, orderID, it.ProductID, it.Name, it.Quantity, it.PriceCents)
		}
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			return model.Order{}, nil, err
		}
	}

	order, err := scanOrderTx(ctx, tx, orderID)
	if err != nil {
		return model.Order{}, nil, err
	}
	if err := tx.Commit(); err != nil {
		return model.Order{}, nil, err
	}

	lines, err := r.ItemsFor(ctx, []uint64{orderID})
	if err != nil {
		return model.Order{}, nil, err
	}
	return order, lines[orderID], nil
}

const orderColumns = `id, venue_id, unit_id, unit_code, status, total_amount_cents,
	assigned_user_id, assigned_user_name, revision, created_at, updated_at`

func scanOrder(row *sql.Row) (model.Order, error) {
	var o model.Order
	var assignedID sql.NullInt64
	var assignedName sql.NullString
	err := row.Scan(&o.ID, &o.VenueID, &o.UnitID, &o.UnitCode, &o.Status, &o.TotalAmountCents,
		&assignedID, &assignedName, &o.Revision, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return o, err
	}
	if assignedID.Valid {
		v := uint64(assignedID.Int64)
		o.AssignedUserID = &v
	}
	if assignedName.Valid {
		n := assignedName.String
		o.AssignedUserName = &n
	}
	return o, nil
}

func scanOrderTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Order, error) {
	return scanOrder(tx.QueryRowContext(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE id = ?", id))
}

// GetByID fetches one order.
func (r *OrderRepo) GetByID(ctx context.Context, id uint64) (model.Order, error) {
	return scanOrder(r.db.QueryRowContext(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE id = ?", id))
}

// ListPending returns a venue's orders still visible on the board
// (PENDING or PREPARING), oldest first, together with their items.
// This backs the board's initial bulk fetch.
func (r *OrderRepo) ListPending(ctx context.Context, venueID uint64) ([]model.Order, map[uint64][]model.OrderItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE venue_id = ? AND status IN (?, ?)
		ORDER BY created_at`,
		venueID, model.OrderStatusPending, model.OrderStatusPreparing)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var orders []model.Order
	var ids []uint64
	for rows.Next() {
		var o model.Order
		var assignedID sql.NullInt64
		var assignedName sql.NullString
		if err := rows.Scan(&o.ID, &o.VenueID, &o.UnitID, &o.UnitCode, &o.Status, &o.TotalAmountCents,
			&assignedID, &assignedName, &o.Revision, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, nil, err
		}
		if assignedID.Valid {
			v := uint64(assignedID.Int64)
			o.AssignedUserID = &v
		}
		if assignedName.Valid {
			n := assignedName.String
			o.AssignedUserName = &n
		}
		orders = append(orders, o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	items, err := r.ItemsFor(ctx, ids)
	if err != nil {
		return nil, nil, err
	}
	return orders, items, nil
}

// ItemsFor loads the items of the given orders, grouped by order id.
func (r *OrderRepo) ItemsFor(ctx context.Context, orderIDs []uint64) (map[uint64][]model.OrderItem, error) {
	out := make(map[uint64][]model.OrderItem, len(orderIDs))
	if len(orderIDs) == 0 {
		return out, nil
	}
	q := `SELECT id, order_id, product_id, name, quantity, price_cents FROM order_items WHERE order_id IN (`
	args := make([]interface{}, 0, len(orderIDs))
	for i, id := range orderIDs {
		if i > 0 {
			q += ","
		}
		q += "?"
		args = append(args, id)
	}
	q += ") ORDER BY id"
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var it model.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Name, &it.Quantity, &it.PriceCents); err != nil {
			return nil, err
		}
		out[it.OrderID] = append(out[it.OrderID], it)
	}
	return out, rows.Err()
}

// Assign claims an order for a staff member.  The claim only lands
// when the order is still on the board and either unclaimed or
// already claimed by the same user (re-claiming your own order is a
// no-op refresh).  A claim held by someone else yields ErrConflict.
func (r *OrderRepo) Assign(ctx context.Context, orderID, userID uint64, userName string) (model.Order, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET assigned_user_id = ?, assigned_user_name = ?, revision = revision + 1
		WHERE id = ? AND status IN (?, ?)
		  AND (assigned_user_id IS NULL OR assigned_user_id = ?)`,
		userID, userName, orderID,
		model.OrderStatusPending, model.OrderStatusPreparing, userID)
	if err != nil {
		return model.Order{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return model.Order{}, err
	}
	if n == 0 {
		// Either gone from the board or claimed by someone else.
		if _, err := r.GetByID(ctx, orderID); err != nil {
			return model.Order{}, err
		}
		return model.Order{}, ErrConflict
	}
	return r.GetByID(ctx, orderID)
}

// UpdateStatus transitions an order and bumps its revision.  The
// handler validates which transitions staff may request.
func (r *OrderRepo) UpdateStatus(ctx context.Context, orderID uint64, status string) (model.Order, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders SET status = ?, revision = revision + 1 WHERE id = ?`,
		status, orderID)
	if err != nil {
		return model.Order{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return model.Order{}, err
	}
	if n == 0 {
		return model.Order{}, sql.ErrNoRows
	}
	return r.GetByID(ctx, orderID)
}
