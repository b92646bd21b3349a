// Package broadcast fans events out to websocket connections grouped by
// room code.
package broadcast

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = time.Minute
	pingPeriod     = pongWait * 9 / 10
	sendBufferSize = 64
)

// Message is the wire envelope for every event in both directions
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Client is one websocket connection
type Client struct {
	ID   string
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (c *Client) close() {
	c.once.Do(func() { close(c.send) })
}

// Hub tracks connections and the room each one is attached to
type Hub struct {
	mu       sync.RWMutex
	clients  map[string]*Client
	rooms    map[string]map[string]struct{} // code -> conn ids
	memberOf map[string]string              // conn id -> code
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{
		clients:  make(map[string]*Client),
		rooms:    make(map[string]map[string]struct{}),
		memberOf: make(map[string]string),
	}
}

// Register assigns a connection id and starts its write pump
func (h *Hub) Register(conn *websocket.Conn) *Client {
	c := &Client{ID: uuid.NewString(), conn: conn, send: make(chan []byte, sendBufferSize)}
	h.add(c)
	go h.writePump(c)
	return c
}

func (h *Hub) add(c *Client) {
	h.mu.Lock()
	h.clients[c.ID] = c
	h.mu.Unlock()
}

// Unregister detaches and closes a connection
func (h *Hub) Unregister(connID string) {
	h.mu.Lock()
	c, ok := h.clients[connID]
	delete(h.clients, connID)
	h.detachLocked(connID)
	h.mu.Unlock()
	if ok {
		c.close()
	}
}

// Attach puts a connection in a room, leaving any previous one
func (h *Hub) Attach(code, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.detachLocked(connID)
	members, ok := h.rooms[code]
	if !ok {
		members = make(map[string]struct{})
		h.rooms[code] = members
	}
	members[connID] = struct{}{}
	h.memberOf[connID] = code
}

// Detach removes a connection from its room
func (h *Hub) Detach(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.detachLocked(connID)
}

func (h *Hub) detachLocked(connID string) {
	code, ok := h.memberOf[connID]
	if !ok {
		return
	}
	delete(h.memberOf, connID)
	if members := h.rooms[code]; members != nil {
		delete(members, connID)
		if len(members) == 0 {
			delete(h.rooms, code)
		}
	}
}

// Members returns the connection ids attached to a room
func (h *Hub) Members(code string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]string, 0, len(h.rooms[code]))
	for id := range h.rooms[code] {
		out = append(out, id)
	}
	return out
}

// Broadcast sends an event to every connection in a room and returns how
// many accepted it. A client whose buffer is full misses the event.
func (h *Hub) Broadcast(code, event string, data any) int {
	payload, err := encode(event, data)
	if err != nil {
		log.Error().Err(err).Str("event", event).Msg("Failed to encode event")
		return 0
	}

	h.mu.RLock()
	targets := make([]*Client, 0, len(h.rooms[code]))
	for id := range h.rooms[code] {
		if c, ok := h.clients[id]; ok {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	sent := 0
	for _, c := range targets {
		if deliver(c, payload) {
			sent++
		}
	}
	log.Debug().
		Str("room_code", code).
		Str("event", event).
		Int("sent", sent).
		Int("clients", len(targets)).
		Msg("Broadcast")
	return sent
}

// Send delivers an event to a single connection
func (h *Hub) Send(connID, event string, data any) bool {
	payload, err := encode(event, data)
	if err != nil {
		log.Error().Err(err).Str("event", event).Msg("Failed to encode event")
		return false
	}
	h.mu.RLock()
	c, ok := h.clients[connID]
	h.mu.RUnlock()
	if !ok {
		return false
	}
	return deliver(c, payload)
}

func encode(event string, data any) ([]byte, error) {
	msg := Message{Type: event}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		msg.Data = raw
	}
	return json.Marshal(msg)
}

// deliver never blocks; the send channel may already be closed by Unregister
func deliver(c *Client, payload []byte) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	select {
	case c.send <- payload:
		return true
	default:
		log.Warn().Str("conn_id", c.ID).Msg("Client send buffer full, dropping event")
		return false
	}
}

func (h *Hub) writePump(c *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				log.Debug().Err(err).Str("conn_id", c.ID).Msg("Write failed")
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

// PrepareRead applies the read limits and keepalive deadline to a new
// connection
func PrepareRead(conn *websocket.Conn, maxMessage int64) {
	conn.SetReadLimit(maxMessage)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
}
