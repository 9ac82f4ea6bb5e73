package handler

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rivieraos/riviera/internal/model"
)

func keysOf(t *testing.T, v interface{}) map[string]interface{} {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &m))
	return m
}

func TestPublicUnitOmitsQRToken(t *testing.T) {
	u := model.Unit{
		ID:      3,
		VenueID: 1,
		Code:    "S-14",
		QRToken: "tok-printed-on-the-bed",
		Kind:    model.UnitKindSunbed,
	}
	b, err := json.Marshal(publicUnitFrom(u))
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":3,"code":"S-14","kind":"SUNBED"}`, string(b))
	assert.NotContains(t, string(b), "tok-printed-on-the-bed")
}

func TestPublicVenueOmitsOwner(t *testing.T) {
	v := model.Venue{ID: 2, OwnerID: 77, Name: "Cala Blanca", Timezone: "Europe/Madrid"}
	m := keysOf(t, publicVenueFrom(v))
	assert.Equal(t, map[string]interface{}{
		"id": float64(2), "name": "Cala Blanca", "timezone": "Europe/Madrid",
	}, m)
}

func TestOrderRespUsesSnakeCaseKeys(t *testing.T) {
	uid := uint64(9)
	name := "Maya"
	o := model.Order{
		ID:               1,
		VenueID:          2,
		UnitID:           3,
		UnitCode:         "S-1",
		Status:           model.OrderStatusPending,
		TotalAmountCents: 1800,
		AssignedUserID:   &uid,
		AssignedUserName: &name,
		Revision:         4,
		CreatedAt:        time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
	items := []model.OrderItem{{ProductID: 7, Name: "Mojito", Quantity: 2, PriceCents: 900}}

	m := keysOf(t, orderToResp(o, items))
	for _, k := range []string{
		"id", "venue_id", "unit_id", "unit_code", "status",
		"total_amount_cents", "assigned_user_id", "assigned_user_name",
		"revision", "created_at", "items",
	} {
		assert.Contains(t, m, k)
	}
	assert.NotContains(t, m, "TotalAmountCents")

	line := keysOf(t, orderToResp(o, items).Items[0])
	assert.Contains(t, line, "product_id")
	assert.Contains(t, line, "price_cents")

	// Unclaimed orders drop the assignee keys entirely.
	unclaimed := keysOf(t, orderToResp(model.Order{ID: 1}, nil))
	assert.NotContains(t, unclaimed, "assigned_user_id")
	assert.NotContains(t, unclaimed, "assigned_user_name")
}

func TestReviewRespOmitsContact(t *testing.T) {
	r := model.Review{
		ID:        5,
		VenueID:   2,
		Rating:    1,
		Comment:   "cold fries",
		Contact:   "ana@example.com",
		CreatedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
	b, err := json.Marshal(reviewToResp(r))
	require.NoError(t, err)
	assert.NotContains(t, string(b), "ana@example.com")

	m := keysOf(t, reviewToResp(r))
	assert.Contains(t, m, "venue_id")
	assert.Contains(t, m, "created_at")
	assert.NotContains(t, m, "contact")
}
