// Package store holds the per-device client state containers: the
// visit session and the cart.  Both are explicit, dependency-injected
// instances over a storage.KV backend rather than ambient singletons,
// so tests can run isolated copies, and both persist schema-versioned
// JSON blobs that survive reloads and app restarts.
package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rivieraos/riviera/internal/model"
	"github.com/rivieraos/riviera/internal/storage"
)

// sessionSchemaVersion is bumped whenever the persisted blob shape
// changes.  A blob with a different version is discarded on load and
// replaced by a fresh DISCOVER state instead of being misread.
const sessionSchemaVersion = 1

const sessionKeyPrefix = "riviera:session:"

// sessionTTL is how long a QR-scanned session stays logically
// active.  Expiry is checked lazily on every read; nothing sweeps
// expired blobs out of storage.
const sessionTTL = time.Duration(model.SessionTTLMinutes) * time.Minute

// SessionStore manages visit sessions keyed by device id.  The now
// field is swappable so expiry boundaries can be tested with a fixed
// clock.
type SessionStore struct {
	kv  storage.KV
	now func() time.Time
}

// NewSessionStore returns a store bound to the given backend.
func NewSessionStore(kv storage.KV) *SessionStore {
	return &SessionStore{kv: kv, now: time.Now}
}

func sessionKey(deviceID string) string { return sessionKeyPrefix + deviceID }

// load reads the persisted state for a device.  A missing key or a
// blob from an incompatible schema version yields the default
// DISCOVER state with no session.
func (s *SessionStore) load(ctx context.Context, deviceID string) (model.SessionState, error) {
	fresh := model.SessionState{SchemaVersion: sessionSchemaVersion, Mode: model.ModeDiscover}
	b, err := s.kv.Get(ctx, sessionKey(deviceID))
	if err != nil {
		if err == storage.ErrNotFound {
			return fresh, nil
		}
		return fresh, err
	}
	var st model.SessionState
	if err := json.Unmarshal(b, &st); err != nil || st.SchemaVersion != sessionSchemaVersion {
		return fresh, nil
	}
	return st, nil
}

func (s *SessionStore) save(ctx context.Context, deviceID string, st model.SessionState) error {
	b, err := json.Marshal(st)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, sessionKey(deviceID), b)
}

// Start unconditionally overwrites any existing session for the
// device with a fresh SPOT one.  It never fails on business grounds;
// only a storage error can surface.
func (s *SessionStore) Start(ctx context.Context, deviceID string, venueID, unitID uint64, venueName string) (model.SessionState, error) {
	st := model.SessionState{
		SchemaVersion: sessionSchemaVersion,
		Mode:          model.ModeSpot,
		Session: &model.Session{
			VenueID:   venueID,
			UnitID:    unitID,
			VenueName: venueName,
			StartTime: s.now().UnixMilli(),
		},
	}
	return st, s.save(ctx, deviceID, st)
}

// Exit marks the session as manually exited and flips the mode back
// to DISCOVER, but keeps the session object around for inspection.
// Calling Exit with no session, or twice in a row, is a no-op.
func (s *SessionStore) Exit(ctx context.Context, deviceID string) (model.SessionState, error) {
	st, err := s.load(ctx, deviceID)
	if err != nil {
		return st, err
	}
	if st.Session == nil {
		return st, nil
	}
	if st.Session.ManuallyExited && st.Mode == model.ModeDiscover {
		return st, nil
	}
	st.Session.ManuallyExited = true
	st.Mode = model.ModeDiscover
	return st, s.save(ctx, deviceID, st)
}

// Clear resets the device to DISCOVER and discards the session
// object entirely.
func (s *SessionStore) Clear(ctx context.Context, deviceID string) error {
	return s.save(ctx, deviceID, model.SessionState{
		SchemaVersion: sessionSchemaVersion,
		Mode:          model.ModeDiscover,
	})
}

// Get returns the current state without mutating it.
func (s *SessionStore) Get(ctx context.Context, deviceID string) (model.SessionState, error) {
	return s.load(ctx, deviceID)
}

// Active reports whether the device has a live SPOT session: a
// session exists, was not manually exited, and less than four hours
// have elapsed since it started.  It is a pure read; an expired
// session stays in storage until Clear is called.
func (s *SessionStore) Active(ctx context.Context, deviceID string) (bool, error) {
	st, err := s.load(ctx, deviceID)
	if err != nil {
		return false, err
	}
	return sessionActive(st, s.now()), nil
}

func sessionActive(st model.SessionState, now time.Time) bool {
	if st.Session == nil || st.Session.ManuallyExited {
		return false
	}
	elapsed := now.Sub(time.UnixMilli(st.Session.StartTime))
	return elapsed < sessionTTL
}

// Duration returns whole minutes elapsed since the session started,
// floor-rounded; 0 when there is no session.
func (s *SessionStore) Duration(ctx context.Context, deviceID string) (int64, error) {
	st, err := s.load(ctx, deviceID)
	if err != nil {
		return 0, err
	}
	if st.Session == nil {
		return 0, nil
	}
	elapsed := s.now().Sub(time.UnixMilli(st.Session.StartTime))
	if elapsed < 0 {
		return 0, nil
	}
	return int64(elapsed / time.Minute), nil
}

// Remaining returns whole minutes left before the four hour window
// closes, floor-rounded and clamped at 0; 0 when there is no
// session.
func (s *SessionStore) Remaining(ctx context.Context, deviceID string) (int64, error) {
	st, err := s.load(ctx, deviceID)
	if err != nil {
		return 0, err
	}
	if st.Session == nil {
		return 0, nil
	}
	left := sessionTTL - s.now().Sub(time.UnixMilli(st.Session.StartTime))
	if left <= 0 {
		return 0, nil
	}
	return int64(left / time.Minute), nil
}
