// Package board maintains the live order boards shown on staff
// displays (bar screens, collector handhelds).  Each venue has one
// board: a reconciled set of pending orders kept consistent between
// the initial REST fetch and the stream of broker events, with
// derived elapsed-time tiers and claim state.
//
// Reconciliation is upsert-by-id with a per-order monotonic revision
// counter, so REST responses and push events can arrive in any order:
// stale revisions are dropped, and an assignment observed before its
// order is parked and applied when the order shows up.
package board

import (
	"sort"
	"sync"
	"time"

	"github.com/rivieraos/riviera/internal/model"
)

// Elapsed-time tiers.  Boundaries are inclusive on the upper tier:
// 299s is fresh, exactly 300s is warning, exactly 600s is late.
const (
	TierFresh   = "fresh"
	TierWarning = "warning"
	TierLate    = "late"
)

const (
	warningAfter = 300 * time.Second
	lateAfter    = 600 * time.Second
)

// TierFor buckets an order's age.
func TierFor(elapsed time.Duration) string {
	switch {
	case elapsed < warningAfter:
		return TierFresh
	case elapsed < lateAfter:
		return TierWarning
	default:
		return TierLate
	}
}

// Visual states driving the border color on staff displays.
// Late overrides everything; otherwise a claim by the viewer beats a
// claim by someone else, which beats unclaimed.
const (
	VisualLate      = "late"
	VisualMine      = "mine"
	VisualOther     = "other"
	VisualUnclaimed = "unclaimed"
)

// VisualFor derives the display state from the tier, the assignment
// and the viewer's identity.
func VisualFor(tier string, assignedUserID *uint64, viewerID uint64) string {
	if tier == TierLate {
		return VisualLate
	}
	if assignedUserID == nil {
		return VisualUnclaimed
	}
	if viewerID != 0 && *assignedUserID == viewerID {
		return VisualMine
	}
	return VisualOther
}

// Item is one order line as shown on the board.
type Item struct {
	Name     string `json:"name"`
	Quantity uint32 `json:"quantity"`
}

// Entry is the board's record of one pending order.
type Entry struct {
	ID               uint64    `json:"id"`
	UnitCode         string    `json:"unit_code"`
	Items            []Item    `json:"items"`
	TotalAmountCents uint32    `json:"total_amount_cents"`
	CreatedAt        time.Time `json:"created_at"`
	AssignedUserID   *uint64   `json:"assigned_user_id,omitempty"`
	AssignedUserName *string   `json:"assigned_user_name,omitempty"`
	Revision         uint64    `json:"revision"`
}

// EntryFromOrder builds a board entry from a persisted order.
func EntryFromOrder(o model.Order, items []model.OrderItem) Entry {
	e := Entry{
		ID:               o.ID,
		UnitCode:         o.UnitCode,
		Items:            make([]Item, 0, len(items)),
		TotalAmountCents: o.TotalAmountCents,
		CreatedAt:        o.CreatedAt,
		AssignedUserID:   o.AssignedUserID,
		AssignedUserName: o.AssignedUserName,
		Revision:         o.Revision,
	}
	for _, it := range items {
		e.Items = append(e.Items, Item{Name: it.Name, Quantity: it.Quantity})
	}
	return e
}

// parkedAssign holds an assignment event that arrived before its
// order did.
type parkedAssign struct {
	userID   uint64
	userName string
	revision uint64
}

// Board is the reconciled pending-order set for one venue.  All
// methods are safe for concurrent use; the hub's tick loop, the
// broker consumer and HTTP handlers all touch the same board.
type Board struct {
	mu     sync.Mutex
	orders map[uint64]*Entry
	parked map[uint64]parkedAssign
}

// New returns an empty board.
func New() *Board {
	return &Board{
		orders: make(map[uint64]*Entry),
		parked: make(map[uint64]parkedAssign),
	}
}

// Load upserts the result of the initial bulk fetch.  Events that
// raced ahead of the fetch are not lost: each entry goes through the
// same revision check as a push would.
func (b *Board) Load(entries []Entry) {
	for _, e := range entries {
		b.Upsert(e)
	}
}

// Upsert applies an order create/update.  A revision lower than or
// equal to the one already held is stale and dropped.  A parked
// assignment for this id is applied on top if it is newer.  Returns
// true when the board changed.
func (b *Board) Upsert(e Entry) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	cur, ok := b.orders[e.ID]
	if ok && e.Revision <= cur.Revision {
		return false
	}
	next := e
	b.orders[e.ID] = &next

	if pa, ok := b.parked[e.ID]; ok {
		delete(b.parked, e.ID)
		if pa.revision > next.Revision {
			uid, name := pa.userID, pa.userName
			next.AssignedUserID = &uid
			next.AssignedUserName = &name
			next.Revision = pa.revision
		}
	}
	return true
}

// Assign applies a claim.  When the order is not on the board yet
// (the assignment push outran the order push), the claim is parked
// and applied by the next Upsert for that id.  Returns true when the
// visible board changed.
func (b *Board) Assign(orderID, userID uint64, userName string, revision uint64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	cur, ok := b.orders[orderID]
	if !ok {
		if pa, ok := b.parked[orderID]; !ok || revision > pa.revision {
			b.parked[orderID] = parkedAssign{userID: userID, userName: userName, revision: revision}
		}
		return false
	}
	if revision <= cur.Revision {
		return false
	}
	cur.AssignedUserID = &userID
	cur.AssignedUserName = &userName
	cur.Revision = revision
	return true
}

// Remove drops a completed order from the visible set.  Removing an
// unknown id is a no-op, which makes local removal after a
// successful completion request and a later completion event
// idempotent.
func (b *Board) Remove(orderID uint64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.parked, orderID)
	if _, ok := b.orders[orderID]; !ok {
		return false
	}
	delete(b.orders, orderID)
	return true
}

// Len reports the number of visible orders.
func (b *Board) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.orders)
}

// OrderView is one order as serialized to displays: the entry plus
// the per-tick derived fields.
type OrderView struct {
	Entry
	ElapsedSeconds int64  `json:"elapsed_seconds"`
	Tier           string `json:"tier"`
	Visual         string `json:"visual"`
}

// Snapshot is the full board state pushed to a display on every
// clock tick and after every reconciled event.
type Snapshot struct {
	Orders             []OrderView `json:"orders"`
	AverageWaitSeconds float64     `json:"average_wait_seconds"`
	GeneratedAt        time.Time   `json:"generated_at"`
}

// Snapshot derives the display state for one viewer at the given
// instant.  Orders are newest first.  The average wait is the mean
// of all visible orders' elapsed seconds, recomputed on every call
// over the one venue's pending orders.
func (b *Board) Snapshot(now time.Time, viewerID uint64) Snapshot {
	b.mu.Lock()
	entries := make([]Entry, 0, len(b.orders))
	for _, e := range b.orders {
		entries = append(entries, *e)
	}
	b.mu.Unlock()

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].ID > entries[j].ID
		}
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})

	snap := Snapshot{Orders: make([]OrderView, 0, len(entries)), GeneratedAt: now}
	var totalElapsed int64
	for _, e := range entries {
		elapsed := now.Sub(e.CreatedAt)
		if elapsed < 0 {
			elapsed = 0
		}
		secs := int64(elapsed / time.Second)
		tier := TierFor(elapsed)
		snap.Orders = append(snap.Orders, OrderView{
			Entry:          e,
			ElapsedSeconds: secs,
			Tier:           tier,
			Visual:         VisualFor(tier, e.AssignedUserID, viewerID),
		})
		totalElapsed += secs
	}
	if n := len(snap.Orders); n > 0 {
		snap.AverageWaitSeconds = float64(totalElapsed) / float64(n)
	}
	return snap
}
