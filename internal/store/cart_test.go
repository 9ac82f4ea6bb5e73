package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rivieraos/riviera/internal/model"
	"github.com/rivieraos/riviera/internal/storage"
)

func newCartStore(t *testing.T) *CartStore {
	t.Helper()
	return NewCartStore(storage.NewMemoryKV())
}

func TestCartTotalsAndCount(t *testing.T) {
	s := newCartStore(t)
	ctx := context.Background()

	_, err := s.AddItem(ctx, testDevice, 1, "Spritz", 500, 2)
	require.NoError(t, err)
	_, err = s.AddItem(ctx, testDevice, 2, "Focaccia", 300, 1)
	require.NoError(t, err)

	st, err := s.Get(ctx, testDevice)
	require.NoError(t, err)
	assert.Equal(t, uint64(1300), CartTotalCents(st))
	assert.Equal(t, uint32(3), CartItemCount(st))
}

func TestCartZeroQuantityCountsAsOne(t *testing.T) {
	// Stored carts never hold zero quantities, but a blob written by
	// an older client must still total defensively.
	st := model.CartState{Items: []model.CartItem{
		{CartID: "a", ProductID: 1, PriceCents: 500, Quantity: 0},
		{CartID: "b", ProductID: 2, PriceCents: 300, Quantity: 2},
	}}
	assert.Equal(t, uint64(1100), CartTotalCents(st))
	assert.Equal(t, uint32(3), CartItemCount(st))
}

func TestCartAddItemAlwaysAppends(t *testing.T) {
	s := newCartStore(t)
	ctx := context.Background()

	a, err := s.AddItem(ctx, testDevice, 1, "Spritz", 500, 1)
	require.NoError(t, err)
	b, err := s.AddItem(ctx, testDevice, 1, "Spritz", 500, 1)
	require.NoError(t, err)
	assert.NotEqual(t, a.CartID, b.CartID, "duplicate product entries get distinct cart ids")

	st, err := s.Get(ctx, testDevice)
	require.NoError(t, err)
	assert.Len(t, st.Items, 2)
}

func TestCartAddOrIncrementMerges(t *testing.T) {
	s := newCartStore(t)
	ctx := context.Background()

	first, err := s.AddOrIncrement(ctx, testDevice, 1, "Spritz", 500, 1)
	require.NoError(t, err)
	merged, err := s.AddOrIncrement(ctx, testDevice, 1, "Spritz", 500, 2)
	require.NoError(t, err)

	assert.Equal(t, first.CartID, merged.CartID)
	assert.Equal(t, uint32(3), merged.Quantity)

	st, err := s.Get(ctx, testDevice)
	require.NoError(t, err)
	assert.Len(t, st.Items, 1)

	// A different product still appends.
	_, err = s.AddOrIncrement(ctx, testDevice, 2, "Focaccia", 300, 1)
	require.NoError(t, err)
	st, err = s.Get(ctx, testDevice)
	require.NoError(t, err)
	assert.Len(t, st.Items, 2)
}

func TestCartUpdateQuantityFloor(t *testing.T) {
	for _, q := range []int32{0, -3} {
		s := newCartStore(t)
		ctx := context.Background()
		line, err := s.AddItem(ctx, testDevice, 1, "Spritz", 500, 2)
		require.NoError(t, err)

		st, err := s.UpdateQuantity(ctx, testDevice, line.CartID, q)
		require.NoError(t, err)
		assert.Empty(t, st.Items, "quantity %d removes the line", q)
	}
}

func TestCartUpdateQuantityReplaces(t *testing.T) {
	s := newCartStore(t)
	ctx := context.Background()
	line, err := s.AddItem(ctx, testDevice, 1, "Spritz", 500, 2)
	require.NoError(t, err)

	st, err := s.UpdateQuantity(ctx, testDevice, line.CartID, 5)
	require.NoError(t, err)
	require.Len(t, st.Items, 1)
	assert.Equal(t, uint32(5), st.Items[0].Quantity)
}

func TestCartUnknownIDNoops(t *testing.T) {
	s := newCartStore(t)
	ctx := context.Background()
	_, err := s.AddItem(ctx, testDevice, 1, "Spritz", 500, 2)
	require.NoError(t, err)
	before, err := s.Get(ctx, testDevice)
	require.NoError(t, err)

	st, err := s.RemoveItem(ctx, testDevice, "nonexistent-id")
	require.NoError(t, err)
	assert.Equal(t, before, st)

	st, err = s.UpdateQuantity(ctx, testDevice, "nonexistent-id", 5)
	require.NoError(t, err)
	assert.Equal(t, before, st)
}

func TestCartClearWipesItemsAndVenue(t *testing.T) {
	s := newCartStore(t)
	ctx := context.Background()

	_, err := s.SetVenue(ctx, testDevice, 3, 30, "Lido")
	require.NoError(t, err)
	_, err = s.AddItem(ctx, testDevice, 1, "Spritz", 500, 1)
	require.NoError(t, err)

	require.NoError(t, s.Clear(ctx, testDevice))
	st, err := s.Get(ctx, testDevice)
	require.NoError(t, err)
	assert.Empty(t, st.Items)
	assert.Zero(t, st.VenueID)
	assert.Zero(t, st.UnitID)
	assert.Empty(t, st.VenueName)
}

func TestCartSetVenueKeepsItems(t *testing.T) {
	s := newCartStore(t)
	ctx := context.Background()

	_, err := s.AddItem(ctx, testDevice, 1, "Spritz", 500, 1)
	require.NoError(t, err)
	st, err := s.SetVenue(ctx, testDevice, 9, 90, "Bagno Paradiso")
	require.NoError(t, err)

	assert.Equal(t, uint64(9), st.VenueID)
	assert.Len(t, st.Items, 1)
}

func TestCartIncompatibleBlobDiscarded(t *testing.T) {
	kv := storage.NewMemoryKV()
	ctx := context.Background()
	require.NoError(t, kv.Set(ctx, cartKey(testDevice), []byte(`{"schema_version":0,"items":[{"cart_id":"x"}]}`)))

	s := NewCartStore(kv)
	st, err := s.Get(ctx, testDevice)
	require.NoError(t, err)
	assert.Empty(t, st.Items)
}
