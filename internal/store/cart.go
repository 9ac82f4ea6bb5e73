package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/rivieraos/riviera/internal/model"
	"github.com/rivieraos/riviera/internal/storage"
)

// cartSchemaVersion guards the persisted cart blob the same way the
// session version does: incompatible blobs are dropped on load.
const cartSchemaVersion = 1

const cartKeyPrefix = "riviera:cart:"

// CartStore accumulates order lines for a device before checkout.
// A cart is bound to exactly one venue/unit pair; there are no
// multi-venue carts.  Every stored line has quantity > 0; setting
// a quantity to zero or below removes the line.
type CartStore struct {
	kv  storage.KV
	now func() time.Time
}

// NewCartStore returns a store bound to the given backend.
func NewCartStore(kv storage.KV) *CartStore {
	return &CartStore{kv: kv, now: time.Now}
}

func cartKey(deviceID string) string { return cartKeyPrefix + deviceID }

func (s *CartStore) load(ctx context.Context, deviceID string) (model.CartState, error) {
	fresh := model.CartState{SchemaVersion: cartSchemaVersion, Items: []model.CartItem{}}
	b, err := s.kv.Get(ctx, cartKey(deviceID))
	if err != nil {
		if err == storage.ErrNotFound {
			return fresh, nil
		}
		return fresh, err
	}
	var st model.CartState
	if err := json.Unmarshal(b, &st); err != nil || st.SchemaVersion != cartSchemaVersion {
		return fresh, nil
	}
	if st.Items == nil {
		st.Items = []model.CartItem{}
	}
	return st, nil
}

func (s *CartStore) save(ctx context.Context, deviceID string, st model.CartState) error {
	b, err := json.Marshal(st)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, cartKey(deviceID), b)
}

// Get returns the current cart state.
func (s *CartStore) Get(ctx context.Context, deviceID string) (model.CartState, error) {
	return s.load(ctx, deviceID)
}

// AddItem always appends a new line with a freshly generated cart
// id, even when a line for the same product already exists.  Flows
// that want duplicate product entries tracked separately use this;
// everything else should call AddOrIncrement.  Returns the created
// line.
func (s *CartStore) AddItem(ctx context.Context, deviceID string, productID uint64, name string, priceCents, quantity uint32) (model.CartItem, error) {
	if quantity == 0 {
		quantity = 1
	}
	st, err := s.load(ctx, deviceID)
	if err != nil {
		return model.CartItem{}, err
	}
	line := model.CartItem{
		CartID:     uuid.NewString(),
		ProductID:  productID,
		Name:       name,
		PriceCents: priceCents,
		Quantity:   quantity,
		AddedAt:    s.now().UTC(),
	}
	st.Items = append(st.Items, line)
	return line, s.save(ctx, deviceID, st)
}

// AddOrIncrement is the single documented merge operation: when a
// line for the product already exists its quantity grows, otherwise
// a new line is appended.  Returns the affected line.
func (s *CartStore) AddOrIncrement(ctx context.Context, deviceID string, productID uint64, name string, priceCents, quantity uint32) (model.CartItem, error) {
	if quantity == 0 {
		quantity = 1
	}
	st, err := s.load(ctx, deviceID)
	if err != nil {
		return model.CartItem{}, err
	}
	for i := range st.Items {
		if st.Items[i].ProductID == productID {
			st.Items[i].Quantity += quantity
			return st.Items[i], s.save(ctx, deviceID, st)
		}
	}
	line := model.CartItem{
		CartID:     uuid.NewString(),
		ProductID:  productID,
		Name:       name,
		PriceCents: priceCents,
		Quantity:   quantity,
		AddedAt:    s.now().UTC(),
	}
	st.Items = append(st.Items, line)
	return line, s.save(ctx, deviceID, st)
}

// RemoveItem filters out the line with the given cart id.  An
// unknown id is a no-op, not an error.
func (s *CartStore) RemoveItem(ctx context.Context, deviceID, cartID string) (model.CartState, error) {
	st, err := s.load(ctx, deviceID)
	if err != nil {
		return st, err
	}
	kept := st.Items[:0]
	removed := false
	for _, it := range st.Items {
		if it.CartID == cartID {
			removed = true
			continue
		}
		kept = append(kept, it)
	}
	if !removed {
		return st, nil
	}
	st.Items = kept
	return st, s.save(ctx, deviceID, st)
}

// UpdateQuantity replaces a line's quantity.  A quantity of zero or
// below removes the line; an unknown id is a no-op.
func (s *CartStore) UpdateQuantity(ctx context.Context, deviceID, cartID string, quantity int32) (model.CartState, error) {
	if quantity <= 0 {
		return s.RemoveItem(ctx, deviceID, cartID)
	}
	st, err := s.load(ctx, deviceID)
	if err != nil {
		return st, err
	}
	for i := range st.Items {
		if st.Items[i].CartID == cartID {
			st.Items[i].Quantity = uint32(quantity)
			return st, s.save(ctx, deviceID, st)
		}
	}
	return st, nil
}

// Clear empties the items and the venue binding together: a cart
// never retains lines without the venue they belong to.
func (s *CartStore) Clear(ctx context.Context, deviceID string) error {
	return s.save(ctx, deviceID, model.CartState{
		SchemaVersion: cartSchemaVersion,
		Items:         []model.CartItem{},
	})
}

// SetVenue overwrites the venue context fields without touching the
// items.
func (s *CartStore) SetVenue(ctx context.Context, deviceID string, venueID, unitID uint64, venueName string) (model.CartState, error) {
	st, err := s.load(ctx, deviceID)
	if err != nil {
		return st, err
	}
	st.VenueID = venueID
	st.UnitID = unitID
	st.VenueName = venueName
	return st, s.save(ctx, deviceID, st)
}

// CartTotalCents sums price*quantity across the lines.  A zero
// quantity is counted as 1; stored carts never contain one, but an
// old blob hand-edited or written by a buggy client should still
// total sensibly.
func CartTotalCents(st model.CartState) uint64 {
	var total uint64
	for _, it := range st.Items {
		q := it.Quantity
		if q == 0 {
			q = 1
		}
		total += uint64(it.PriceCents) * uint64(q)
	}
	return total
}

// CartItemCount sums quantities with the same defensive default as
// CartTotalCents.
func CartItemCount(st model.CartState) uint32 {
	var n uint32
	for _, it := range st.Items {
		q := it.Quantity
		if q == 0 {
			q = 1
		}
		n += q
	}
	return n
}
