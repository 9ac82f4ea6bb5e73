package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rivieraos/riviera/internal/model"
	"github.com/rivieraos/riviera/internal/storage"
)

const testDevice = "device-abc"

func newSessionStoreAt(t *testing.T, now time.Time) *SessionStore {
	t.Helper()
	s := NewSessionStore(storage.NewMemoryKV())
	s.now = func() time.Time { return now }
	return s
}

func TestSessionStartOverwrites(t *testing.T) {
	now := time.Date(2025, 7, 14, 12, 0, 0, 0, time.UTC)
	s := newSessionStoreAt(t, now)
	ctx := context.Background()

	_, err := s.Start(ctx, testDevice, 1, 10, "Lido Azzurro")
	require.NoError(t, err)
	st, err := s.Start(ctx, testDevice, 2, 20, "Bagno Paradiso")
	require.NoError(t, err)

	assert.Equal(t, model.ModeSpot, st.Mode)
	require.NotNil(t, st.Session)
	assert.Equal(t, uint64(2), st.Session.VenueID)
	assert.Equal(t, uint64(20), st.Session.UnitID)
	assert.False(t, st.Session.ManuallyExited)
	assert.Equal(t, now.UnixMilli(), st.Session.StartTime)
}

func TestSessionActiveBoundaries(t *testing.T) {
	now := time.Date(2025, 7, 14, 16, 0, 0, 0, time.UTC)
	ctx := context.Background()

	cases := []struct {
		name    string
		elapsed time.Duration
		exited  bool
		want    bool
	}{
		{"just started", 0, false, true},
		{"3h59m", 3*time.Hour + 59*time.Minute, false, true},
		{"exactly 4h", 4 * time.Hour, false, false},
		{"4h01m", 4*time.Hour + time.Minute, false, false},
		{"manually exited", time.Minute, true, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newSessionStoreAt(t, now.Add(-tc.elapsed))
			_, err := s.Start(ctx, testDevice, 1, 10, "Lido")
			require.NoError(t, err)
			s.now = func() time.Time { return now }
			if tc.exited {
				_, err := s.Exit(ctx, testDevice)
				require.NoError(t, err)
			}
			active, err := s.Active(ctx, testDevice)
			require.NoError(t, err)
			assert.Equal(t, tc.want, active)
		})
	}
}

func TestSessionActiveWithoutSession(t *testing.T) {
	s := newSessionStoreAt(t, time.Now())
	active, err := s.Active(context.Background(), testDevice)
	require.NoError(t, err)
	assert.False(t, active)
}

func TestSessionExitIdempotent(t *testing.T) {
	s := newSessionStoreAt(t, time.Now())
	ctx := context.Background()

	_, err := s.Start(ctx, testDevice, 1, 10, "Lido")
	require.NoError(t, err)

	first, err := s.Exit(ctx, testDevice)
	require.NoError(t, err)
	assert.Equal(t, model.ModeDiscover, first.Mode)
	require.NotNil(t, first.Session)
	assert.True(t, first.Session.ManuallyExited)

	// Second exit changes nothing and does not error.
	second, err := s.Exit(ctx, testDevice)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSessionExitWithoutSessionIsNoop(t *testing.T) {
	s := newSessionStoreAt(t, time.Now())
	st, err := s.Exit(context.Background(), testDevice)
	require.NoError(t, err)
	assert.Equal(t, model.ModeDiscover, st.Mode)
	assert.Nil(t, st.Session)
}

func TestSessionExitRetainsSessionUntilClear(t *testing.T) {
	s := newSessionStoreAt(t, time.Now())
	ctx := context.Background()

	_, err := s.Start(ctx, testDevice, 1, 10, "Lido")
	require.NoError(t, err)
	_, err = s.Exit(ctx, testDevice)
	require.NoError(t, err)

	st, err := s.Get(ctx, testDevice)
	require.NoError(t, err)
	require.NotNil(t, st.Session, "exited session is kept for inspection")

	require.NoError(t, s.Clear(ctx, testDevice))
	st, err = s.Get(ctx, testDevice)
	require.NoError(t, err)
	assert.Nil(t, st.Session)
	assert.Equal(t, model.ModeDiscover, st.Mode)
}

func TestSessionDurationAndRemaining(t *testing.T) {
	start := time.Date(2025, 7, 14, 12, 0, 0, 0, time.UTC)
	s := newSessionStoreAt(t, start)
	ctx := context.Background()

	_, err := s.Start(ctx, testDevice, 1, 10, "Lido")
	require.NoError(t, err)

	// 90 minutes and 30 seconds in: both reads floor to whole minutes.
	s.now = func() time.Time { return start.Add(90*time.Minute + 30*time.Second) }
	d, err := s.Duration(ctx, testDevice)
	require.NoError(t, err)
	assert.Equal(t, int64(90), d)
	r, err := s.Remaining(ctx, testDevice)
	require.NoError(t, err)
	assert.Equal(t, int64(149), r)

	// Past expiry the remaining time clamps to zero.
	s.now = func() time.Time { return start.Add(5 * time.Hour) }
	r, err = s.Remaining(ctx, testDevice)
	require.NoError(t, err)
	assert.Equal(t, int64(0), r)
}

func TestSessionDurationWithoutSession(t *testing.T) {
	s := newSessionStoreAt(t, time.Now())
	ctx := context.Background()
	d, err := s.Duration(ctx, testDevice)
	require.NoError(t, err)
	assert.Equal(t, int64(0), d)
	r, err := s.Remaining(ctx, testDevice)
	require.NoError(t, err)
	assert.Equal(t, int64(0), r)
}

func TestSessionSurvivesStoreRestart(t *testing.T) {
	kv := storage.NewMemoryKV()
	ctx := context.Background()

	first := NewSessionStore(kv)
	_, err := first.Start(ctx, testDevice, 7, 70, "Lido")
	require.NoError(t, err)

	// A new store instance over the same backend sees the session.
	second := NewSessionStore(kv)
	st, err := second.Get(ctx, testDevice)
	require.NoError(t, err)
	require.NotNil(t, st.Session)
	assert.Equal(t, uint64(7), st.Session.VenueID)
}

func TestSessionIncompatibleBlobDiscarded(t *testing.T) {
	kv := storage.NewMemoryKV()
	ctx := context.Background()
	require.NoError(t, kv.Set(ctx, sessionKey(testDevice), []byte(`{"schema_version":99,"mode":"SPOT"}`)))

	s := NewSessionStore(kv)
	st, err := s.Get(ctx, testDevice)
	require.NoError(t, err)
	assert.Equal(t, model.ModeDiscover, st.Mode)
	assert.Nil(t, st.Session)
}
