package models

import (
	"maps"
	"sync"
	"time"
)

// Room is a party container owned by the registry. Every field is guarded by
// the room's own lock; the registry never hands a *Room to callers.
type Room struct {
	Code               string
	HostConnID         string
	Players            map[string]*Player // playerID -> Player
	Order              []string           // join order of Players
	Status             RoomStatus
	CreatedAt          time.Time
	HostDisconnectedAt time.Time // zero while the host is connected
	ReadyStates        map[string]ReadyState
	mu                 sync.Mutex
}

// RoomView is an immutable copy of a room handed out by the registry
type RoomView struct {
	Code             string                `json:"code"`
	HostConnID       string                `json:"-"`
	Status           RoomStatus            `json:"status"`
	Players          []Player              `json:"players"`
	ReadyStates      map[string]ReadyState `json:"readyStates"`
	CreatedAt        time.Time             `json:"createdAt"`
	HostDisconnected bool                  `json:"hostDisconnected"`
}

// NewRoom creates an empty waiting room
func NewRoom(code, hostConnID string, now time.Time) *Room {
	return &Room{
		Code:        code,
		HostConnID:  hostConnID,
		Players:     make(map[string]*Player),
		Status:      RoomWaiting,
		CreatedAt:   now,
		ReadyStates: make(map[string]ReadyState),
	}
}

// Lock acquires the room's lock
func (r *Room) Lock() {
	r.mu.Lock()
}

// Unlock releases the room's lock
func (r *Room) Unlock() {
	r.mu.Unlock()
}

// AddPlayer appends a player (must be called with lock held)
func (r *Room) AddPlayer(p *Player) {
	if _, exists := r.Players[p.ID]; !exists {
		r.Order = append(r.Order, p.ID)
	}
	r.Players[p.ID] = p
}

// DeletePlayer drops a player and its ready state (must be called with lock held)
func (r *Room) DeletePlayer(playerID string) (*Player, bool) {
	p, ok := r.Players[playerID]
	if !ok {
		return nil, false
	}
	delete(r.Players, playerID)
	delete(r.ReadyStates, playerID)
	for i, id := range r.Order {
		if id == playerID {
			r.Order = append(r.Order[:i], r.Order[i+1:]...)
			break
		}
	}
	return p, true
}

// HostAway reports whether the host has no live connection (must be called with lock held)
func (r *Room) HostAway() bool {
	return !r.HostDisconnectedAt.IsZero()
}

// AllReady reports whether every current player is ready (must be called with lock held)
func (r *Room) AllReady() bool {
	if len(r.Order) == 0 {
		return false
	}
	for _, id := range r.Order {
		if !r.ReadyStates[id].Ready {
			return false
		}
	}
	return true
}

// View copies the room (must be called with lock held)
func (r *Room) View() RoomView {
	players := make([]Player, 0, len(r.Order))
	for _, id := range r.Order {
		players = append(players, *r.Players[id])
	}
	return RoomView{
		Code:             r.Code,
		HostConnID:       r.HostConnID,
		Status:           r.Status,
		Players:          players,
		ReadyStates:      maps.Clone(r.ReadyStates),
		CreatedAt:        r.CreatedAt,
		HostDisconnected: r.HostAway(),
	}
}
