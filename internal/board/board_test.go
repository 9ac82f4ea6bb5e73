package board

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entryAt(id uint64, createdAt time.Time) Entry {
	return Entry{
		ID:               id,
		UnitCode:         "S-14",
		Items:            []Item{{Name: "Spritz", Quantity: 2}},
		TotalAmountCents: 1000,
		CreatedAt:        createdAt,
		Revision:         1,
	}
}

func TestTierBoundaries(t *testing.T) {
	cases := []struct {
		elapsed time.Duration
		want    string
	}{
		{0, TierFresh},
		{299 * time.Second, TierFresh},
		{300 * time.Second, TierWarning},
		{599 * time.Second, TierWarning},
		{600 * time.Second, TierLate},
		{2 * time.Hour, TierLate},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, TierFor(tc.elapsed), "elapsed=%s", tc.elapsed)
	}
}

func TestVisualPriority(t *testing.T) {
	me, other := uint64(2), uint64(3)

	// Late wins regardless of assignment.
	assert.Equal(t, VisualLate, VisualFor(TierLate, &me, me))
	assert.Equal(t, VisualLate, VisualFor(TierLate, nil, me))

	// Otherwise claims order by identity.
	assert.Equal(t, VisualMine, VisualFor(TierFresh, &me, me))
	assert.Equal(t, VisualOther, VisualFor(TierFresh, &other, me))
	assert.Equal(t, VisualUnclaimed, VisualFor(TierWarning, nil, me))

	// An anonymous wall display never sees "mine".
	assert.Equal(t, VisualOther, VisualFor(TierFresh, &me, 0))
}

func TestUpsertDropsStaleRevision(t *testing.T) {
	b := New()
	now := time.Now()

	e := entryAt(1, now)
	e.Revision = 3
	require.True(t, b.Upsert(e))

	stale := entryAt(1, now)
	stale.Revision = 2
	stale.UnitCode = "WRONG"
	assert.False(t, b.Upsert(stale))

	snap := b.Snapshot(now, 0)
	require.Len(t, snap.Orders, 1)
	assert.Equal(t, "S-14", snap.Orders[0].UnitCode)
	assert.Equal(t, uint64(3), snap.Orders[0].Revision)
}

func TestAssignBeforeOrderArrivalIsParked(t *testing.T) {
	b := New()
	now := time.Now()

	// The assignment push outruns the new-order push.
	assert.False(t, b.Assign(1, 2, "Marta", 2))
	assert.Zero(t, b.Len())

	require.True(t, b.Upsert(entryAt(1, now)))
	snap := b.Snapshot(now, 2)
	require.Len(t, snap.Orders, 1)
	require.NotNil(t, snap.Orders[0].AssignedUserID)
	assert.Equal(t, uint64(2), *snap.Orders[0].AssignedUserID)
	assert.Equal(t, "Marta", *snap.Orders[0].AssignedUserName)
	assert.Equal(t, uint64(2), snap.Orders[0].Revision)
	assert.Equal(t, VisualMine, snap.Orders[0].Visual)
}

func TestAssignStaleRevisionDropped(t *testing.T) {
	b := New()
	now := time.Now()

	e := entryAt(1, now)
	e.Revision = 5
	require.True(t, b.Upsert(e))
	assert.False(t, b.Assign(1, 2, "Marta", 4))

	snap := b.Snapshot(now, 0)
	assert.Nil(t, snap.Orders[0].AssignedUserID)
}

func TestConcurrentClaimLastRevisionWins(t *testing.T) {
	b := New()
	now := time.Now()
	require.True(t, b.Upsert(entryAt(1, now)))

	require.True(t, b.Assign(1, 2, "Marta", 2))
	require.True(t, b.Assign(1, 3, "Luca", 3))
	// The earlier claim replayed out of order must not clobber.
	assert.False(t, b.Assign(1, 2, "Marta", 2))

	snap := b.Snapshot(now, 0)
	assert.Equal(t, uint64(3), *snap.Orders[0].AssignedUserID)
}

func TestRemoveIsIdempotent(t *testing.T) {
	b := New()
	now := time.Now()
	require.True(t, b.Upsert(entryAt(1, now)))

	assert.True(t, b.Remove(1))
	// Completion event arriving after the local removal is a no-op.
	assert.False(t, b.Remove(1))
	assert.Zero(t, b.Len())
}

func TestSnapshotNewestFirstAndAverage(t *testing.T) {
	b := New()
	now := time.Now()

	require.True(t, b.Upsert(entryAt(1, now.Add(-100*time.Second))))
	require.True(t, b.Upsert(entryAt(2, now.Add(-20*time.Second))))
	require.True(t, b.Upsert(entryAt(3, now.Add(-60*time.Second))))

	snap := b.Snapshot(now, 0)
	require.Len(t, snap.Orders, 3)
	assert.Equal(t, uint64(2), snap.Orders[0].ID)
	assert.Equal(t, uint64(3), snap.Orders[1].ID)
	assert.Equal(t, uint64(1), snap.Orders[2].ID)
	assert.InDelta(t, 60.0, snap.AverageWaitSeconds, 0.001)
}

func TestSnapshotEmptyBoard(t *testing.T) {
	b := New()
	snap := b.Snapshot(time.Now(), 0)
	assert.Empty(t, snap.Orders)
	assert.Zero(t, snap.AverageWaitSeconds)
}

func TestLoadAfterEventsKeepsNewerState(t *testing.T) {
	b := New()
	now := time.Now()

	// A claim event lands before the initial REST fetch returns.
	e := entryAt(1, now)
	e.Revision = 2
	require.True(t, b.Upsert(e))
	require.True(t, b.Assign(1, 2, "Marta", 3))

	// The stale bulk fetch (revision 1, unclaimed) must not undo it.
	b.Load([]Entry{entryAt(1, now)})

	snap := b.Snapshot(now, 0)
	require.NotNil(t, snap.Orders[0].AssignedUserID)
	assert.Equal(t, uint64(3), snap.Orders[0].Revision)
}
