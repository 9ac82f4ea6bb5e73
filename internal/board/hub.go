package board

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Frame types pushed to displays.  new_order frames carry the alert
// flag so a display can synthesize its tone even when the snapshot
// that follows is what actually re-renders the list.
const (
	frameSnapshot = "snapshot"
	frameNewOrder = "new_order"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 45 * time.Second
	maxMessageSize = 512
	sendBuffer     = 16
)

type snapshotFrame struct {
	Type string `json:"type"`
	Snapshot
}

type newOrderFrame struct {
	Type  string    `json:"type"`
	Alert bool      `json:"alert"`
	Order OrderView `json:"order"`
}

// client is one connected display.  Writes go through a buffered
// channel drained by a single writer goroutine; a display that
// cannot keep up is dropped rather than allowed to block the hub.
type client struct {
	hub      *Hub
	venueID  uint64
	viewerID uint64
	conn     *websocket.Conn

	mu     sync.Mutex // guards send against close
	send   chan []byte
	closed bool
}

// Hub owns one board per venue, the set of connected displays and
// the shared 1 Hz clock.  A single ticker drives the derived-state
// recomputation for every venue; there are no per-order timers.
type Hub struct {
	mu      sync.RWMutex
	boards  map[uint64]*Board
	clients map[uint64]map[*client]struct{}
	now     func() time.Time
	tick    time.Duration
}

// NewHub returns an empty hub ticking at 1 Hz.
func NewHub() *Hub {
	return &Hub{
		boards:  make(map[uint64]*Board),
		clients: make(map[uint64]map[*client]struct{}),
		now:     time.Now,
		tick:    time.Second,
	}
}

// Board returns the venue's board, creating it on first use.
func (h *Hub) Board(venueID uint64) *Board {
	h.mu.Lock()
	defer h.mu.Unlock()
	b, ok := h.boards[venueID]
	if !ok {
		b = New()
		h.boards[venueID] = b
	}
	return b
}

// Run drives the shared clock until the context is cancelled.
// Every tick re-derives and pushes snapshots for venues that have at
// least one connected display.
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(h.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case <-ticker.C:
			h.mu.RLock()
			venues := make([]uint64, 0, len(h.clients))
			for id, set := range h.clients {
				if len(set) > 0 {
					venues = append(venues, id)
				}
			}
			h.mu.RUnlock()
			for _, id := range venues {
				h.broadcastSnapshots(id)
			}
		}
	}
}

// HandleOrderPlaced upserts a freshly placed order and announces it.
func (h *Hub) HandleOrderPlaced(venueID uint64, e Entry) {
	if !h.Board(venueID).Upsert(e) {
		return
	}
	now := h.now()
	h.eachClient(venueID, func(c *client) {
		tier := TierFor(now.Sub(e.CreatedAt))
		view := OrderView{
			Entry:          e,
			ElapsedSeconds: int64(now.Sub(e.CreatedAt) / time.Second),
			Tier:           tier,
			Visual:         VisualFor(tier, e.AssignedUserID, c.viewerID),
		}
		c.enqueue(newOrderFrame{Type: frameNewOrder, Alert: true, Order: view})
	})
	h.broadcastSnapshots(venueID)
}

// HandleOrderAssigned applies a claim and refreshes the displays.
func (h *Hub) HandleOrderAssigned(venueID, orderID, userID uint64, userName string, revision uint64) {
	if h.Board(venueID).Assign(orderID, userID, userName, revision) {
		h.broadcastSnapshots(venueID)
	}
}

// HandleOrderCompleted removes a finished order from the board.
func (h *Hub) HandleOrderCompleted(venueID, orderID uint64) {
	if h.Board(venueID).Remove(orderID) {
		h.broadcastSnapshots(venueID)
	}
}

// Subscribe registers an upgraded connection as a display for the
// venue, sends it an immediate snapshot and services it until the
// peer goes away.  viewerID may be 0 for anonymous wall displays.
func (h *Hub) Subscribe(venueID, viewerID uint64, conn *websocket.Conn) {
	c := &client{
		hub:      h,
		venueID:  venueID,
		viewerID: viewerID,
		conn:     conn,
		send:     make(chan []byte, sendBuffer),
	}
	h.mu.Lock()
	set, ok := h.clients[venueID]
	if !ok {
		set = make(map[*client]struct{})
		h.clients[venueID] = set
	}
	set[c] = struct{}{}
	h.mu.Unlock()

	c.enqueue(snapshotFrame{Type: frameSnapshot, Snapshot: h.Board(venueID).Snapshot(h.now(), viewerID)})

	go c.writePump()
	go c.readPump()
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if set, ok := h.clients[c.venueID]; ok {
		delete(set, c)
	}
	h.mu.Unlock()
	c.close()
}

func (h *Hub) eachClient(venueID uint64, fn func(*client)) {
	h.mu.RLock()
	cs := make([]*client, 0, len(h.clients[venueID]))
	for c := range h.clients[venueID] {
		cs = append(cs, c)
	}
	h.mu.RUnlock()
	for _, c := range cs {
		fn(c)
	}
}

// broadcastSnapshots pushes a viewer-specific snapshot to every
// display of the venue.  Claim colors depend on who is looking, so
// the snapshot is derived per connection.
func (h *Hub) broadcastSnapshots(venueID uint64) {
	b := h.Board(venueID)
	now := h.now()
	h.eachClient(venueID, func(c *client) {
		c.enqueue(snapshotFrame{Type: frameSnapshot, Snapshot: b.Snapshot(now, c.viewerID)})
	})
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	var all []*client
	for _, set := range h.clients {
		for c := range set {
			all = append(all, c)
		}
	}
	h.clients = make(map[uint64]map[*client]struct{})
	h.mu.Unlock()
	for _, c := range all {
		c.close()
	}
}

func (c *client) enqueue(v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Printf("board: marshal frame: %v", err)
		return
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	select {
	case c.send <- b:
		c.mu.Unlock()
	default:
		c.mu.Unlock()
		// Slow consumer: drop the connection, the display will
		// reconnect and get a fresh snapshot.
		c.hub.unregister(c)
	}
}

func (c *client) close() {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
	c.mu.Unlock()
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump exists to detect the peer closing; displays never send
// application data.
func (c *client) readPump() {
	defer c.hub.unregister(c)
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
