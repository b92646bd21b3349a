// Package store owns the live rooms, their members and the connection
// bindings that tie transport connections to them.
package store

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aaronzipp/voice-party/internal/game"
	"github.com/aaronzipp/voice-party/internal/models"
)

// Binding records what a transport connection is attached to
type Binding struct {
	RoomCode string
	PlayerID string // empty for the host
	IsHost   bool
}

// LeaveKind says what a departing connection was
type LeaveKind int

const (
	LeftNone LeaveKind = iota
	LeftHost
	LeftPlayer
)

// LeaveResult describes the effect of LeaveRoom
type LeaveResult struct {
	Kind       LeaveKind
	RoomCode   string
	PlayerID   string
	HostConnID string // current host connection, empty when the host is away
}

// Removal describes a room deleted by the stale sweep
type Removal struct {
	RoomCode string
	Reason   string
	ConnIDs  []string // released bindings
}

// Config tunes registry timing
type Config struct {
	CreateCooldown time.Duration
	HostGrace      time.Duration
	NoticeAfter    time.Duration
	MaxAge         time.Duration
	SweepInterval  time.Duration
	NoticeInterval time.Duration
	PruneInterval  time.Duration
}

// DefaultConfig returns the production timings
func DefaultConfig() Config {
	return Config{
		CreateCooldown: game.CreateCooldown,
		HostGrace:      game.HostGracePeriod,
		NoticeAfter:    game.HostAwayNoticeAfter,
		MaxAge:         game.RoomMaxAge,
		SweepInterval:  game.StaleSweepInterval,
		NoticeInterval: game.HostNoticeInterval,
		PruneInterval:  game.LimiterPruneInterval,
	}
}

// Registry manages room storage. Lock order is registry, then room.
type Registry struct {
	mu       sync.RWMutex
	rooms    map[string]*models.Room
	bindings map[string]Binding   // connID -> binding
	noticed  map[string]time.Time // code -> disconnection episode already surfaced
	limiter  *CreationLimiter
	cfg      Config
	now      func() time.Time
}

// NewRegistry creates an empty registry
func NewRegistry(cfg Config) *Registry {
	return &Registry{
		rooms:    make(map[string]*models.Room),
		bindings: make(map[string]Binding),
		noticed:  make(map[string]time.Time),
		limiter:  NewCreationLimiter(cfg.CreateCooldown),
		cfg:      cfg,
		now:      time.Now,
	}
}

// SetClock replaces the registry's time source
func (s *Registry) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Limiter exposes the creation limiter for pruning
func (s *Registry) Limiter() *CreationLimiter {
	return s.limiter
}

// CreateRoom opens a room hosted by hostConnID. identity is the caller's
// network identity used for the creation cooldown.
func (s *Registry) CreateRoom(hostConnID, identity string) (models.RoomView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if wait, ok := s.limiter.Allow(identity, now); !ok {
		return models.RoomView{}, &RateLimitError{Wait: wait}
	}

	code := game.UniqueRoomCode(func(c string) bool {
		_, taken := s.rooms[c]
		return taken
	})
	room := models.NewRoom(code, hostConnID, now)
	s.rooms[code] = room
	s.bindings[hostConnID] = Binding{RoomCode: code, IsHost: true}
	return room.View(), nil
}

// JoinRoom adds a connected player to a waiting room
func (s *Registry) JoinRoom(code, name, connID string) (models.Player, error) {
	name = game.CleanName(name)
	if name == "" {
		return models.Player{}, ErrInvalidName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[code]
	if !ok {
		return models.Player{}, ErrRoomNotFound
	}
	room.Lock()
	defer room.Unlock()

	if room.Status != models.RoomWaiting {
		return models.Player{}, fmt.Errorf("%w: status %s", ErrRoomNotJoinable, room.Status)
	}
	player := &models.Player{
		ID:        uuid.NewString(),
		Name:      name,
		RoomCode:  code,
		ConnID:    connID,
		Connected: true,
	}
	room.AddPlayer(player)
	s.bindings[connID] = Binding{RoomCode: code, PlayerID: player.ID}
	return *player, nil
}

// LeaveRoom handles an explicit leave or a dropped connection. Nobody is
// removed: the host starts its grace period, a player is flagged disconnected.
func (s *Registry) LeaveRoom(connID string) LeaveResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bindings[connID]
	if !ok {
		return LeaveResult{}
	}
	delete(s.bindings, connID)
	room, ok := s.rooms[b.RoomCode]
	if !ok {
		return LeaveResult{}
	}
	room.Lock()
	defer room.Unlock()

	if b.IsHost {
		if room.HostConnID != connID {
			return LeaveResult{}
		}
		if !room.HostAway() {
			room.HostDisconnectedAt = s.now()
		}
		return LeaveResult{Kind: LeftHost, RoomCode: room.Code}
	}

	player, ok := room.Players[b.PlayerID]
	if !ok || player.ConnID != connID {
		return LeaveResult{}
	}
	player.Connected = false
	result := LeaveResult{Kind: LeftPlayer, RoomCode: room.Code, PlayerID: player.ID}
	if !room.HostAway() {
		result.HostConnID = room.HostConnID
	}
	return result
}

// ReconnectHost binds a new host connection to an existing room. Only the
// stale sweep deletes rooms, so this succeeds as long as the room exists.
func (s *Registry) ReconnectHost(code, connID string) (models.RoomView, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[code]
	if !ok {
		return models.RoomView{}, false
	}
	room.Lock()
	defer room.Unlock()

	if old := room.HostConnID; old != connID {
		if b, bound := s.bindings[old]; bound && b.IsHost && b.RoomCode == code {
			delete(s.bindings, old)
		}
	}
	room.HostConnID = connID
	room.HostDisconnectedAt = time.Time{}
	delete(s.noticed, code)
	s.bindings[connID] = Binding{RoomCode: code, IsHost: true}
	return room.View(), true
}

// ReconnectPlayer rebinds a known player to a new connection
func (s *Registry) ReconnectPlayer(code, playerID, connID string) (models.Player, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[code]
	if !ok {
		return models.Player{}, false
	}
	room.Lock()
	defer room.Unlock()

	player, ok := room.Players[playerID]
	if !ok {
		return models.Player{}, false
	}
	if old := player.ConnID; old != connID {
		if b, bound := s.bindings[old]; bound && b.PlayerID == playerID {
			delete(s.bindings, old)
		}
	}
	player.ConnID = connID
	player.Connected = true
	s.bindings[connID] = Binding{RoomCode: code, PlayerID: playerID}
	return *player, true
}

// RemovePlayer deletes a player outright at the host's request
func (s *Registry) RemovePlayer(code, playerID string) (models.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[code]
	if !ok {
		return models.Player{}, ErrRoomNotFound
	}
	room.Lock()
	defer room.Unlock()

	player, ok := room.DeletePlayer(playerID)
	if !ok {
		return models.Player{}, ErrPlayerNotFound
	}
	if b, bound := s.bindings[player.ConnID]; bound && b.PlayerID == playerID {
		delete(s.bindings, player.ConnID)
	}
	return *player, nil
}

// SetReady marks a player ready and reports whether everyone now is
func (s *Registry) SetReady(code, playerID string, hasMic bool) (models.RoomView, bool, error) {
	return s.setReady(code, playerID, models.ReadyState{Ready: true, HasMic: hasMic})
}

// SetNotReady clears a player's ready flag, keeping its mic report
func (s *Registry) SetNotReady(code, playerID string) (models.RoomView, bool, error) {
	return s.setReady(code, playerID, models.ReadyState{Ready: false})
}

func (s *Registry) setReady(code, playerID string, state models.ReadyState) (models.RoomView, bool, error) {
	s.mu.RLock()
	room, ok := s.rooms[code]
	s.mu.RUnlock()
	if !ok {
		return models.RoomView{}, false, ErrRoomNotFound
	}
	room.Lock()
	defer room.Unlock()

	if room.Status != models.RoomPreparing {
		return models.RoomView{}, false, ErrNotPreparing
	}
	if _, ok := room.Players[playerID]; !ok {
		return models.RoomView{}, false, ErrPlayerNotFound
	}
	if !state.Ready {
		state.HasMic = room.ReadyStates[playerID].HasMic
	}
	room.ReadyStates[playerID] = state
	return room.View(), room.AllReady(), nil
}

var transitions = map[models.RoomStatus][]models.RoomStatus{
	models.RoomWaiting:   {models.RoomPreparing},
	models.RoomPreparing: {models.RoomPlaying, models.RoomWaiting},
	models.RoomPlaying:   {models.RoomFinished, models.RoomWaiting},
	models.RoomFinished:  {models.RoomWaiting, models.RoomPreparing},
}

// Transition moves a room to a new status. Entering the lobby or a new ready
// check clears every ready flag.
func (s *Registry) Transition(code string, to models.RoomStatus) (models.RoomView, error) {
	s.mu.RLock()
	room, ok := s.rooms[code]
	s.mu.RUnlock()
	if !ok {
		return models.RoomView{}, ErrRoomNotFound
	}
	room.Lock()
	defer room.Unlock()

	allowed := false
	for _, next := range transitions[room.Status] {
		if next == to {
			allowed = true
			break
		}
	}
	if !allowed {
		return models.RoomView{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, room.Status, to)
	}
	room.Status = to
	if to == models.RoomWaiting || to == models.RoomPreparing {
		room.ReadyStates = make(map[string]models.ReadyState)
	}
	return room.View(), nil
}

// Get retrieves a copy of a room by code
func (s *Registry) Get(code string) (models.RoomView, bool) {
	s.mu.RLock()
	room, ok := s.rooms[code]
	s.mu.RUnlock()
	if !ok {
		return models.RoomView{}, false
	}
	room.Lock()
	defer room.Unlock()
	return room.View(), true
}

// Exists checks if a room code is live
func (s *Registry) Exists(code string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.rooms[code]
	return ok
}

// Binding returns what a connection is attached to
func (s *Registry) Binding(connID string) (Binding, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bindings[connID]
	return b, ok
}

// Count reports the number of live rooms
func (s *Registry) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}

// Delete removes a room and releases its bindings. Deleting a missing room is
// a no-op.
func (s *Registry) Delete(code string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[code]; !ok {
		return nil
	}
	return s.deleteLocked(code)
}

func (s *Registry) deleteLocked(code string) []string {
	var released []string
	for connID, b := range s.bindings {
		if b.RoomCode == code {
			released = append(released, connID)
			delete(s.bindings, connID)
		}
	}
	sort.Strings(released)
	delete(s.rooms, code)
	delete(s.noticed, code)
	return released
}

// CollectStale deletes rooms older than MaxAge and rooms whose host has been
// gone longer than the grace period
func (s *Registry) CollectStale(now time.Time) []Removal {
	s.mu.Lock()
	defer s.mu.Unlock()

	var expired []Removal
	for code, room := range s.rooms {
		room.Lock()
		reason := ""
		switch {
		case now.Sub(room.CreatedAt) > s.cfg.MaxAge:
			reason = "expired"
		case room.HostAway() && now.Sub(room.HostDisconnectedAt) > s.cfg.HostGrace:
			reason = "host_timeout"
		}
		room.Unlock()
		if reason != "" {
			expired = append(expired, Removal{RoomCode: code, Reason: reason})
		}
	}
	sort.Slice(expired, func(i, j int) bool { return expired[i].RoomCode < expired[j].RoomCode })
	for i := range expired {
		expired[i].ConnIDs = s.deleteLocked(expired[i].RoomCode)
	}
	return expired
}

// HostDisconnectNotices returns rooms whose host has been away between
// NoticeAfter and the grace period. Each disconnection episode is reported
// once.
func (s *Registry) HostDisconnectNotices(now time.Time) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var codes []string
	for code, room := range s.rooms {
		room.Lock()
		if room.HostAway() {
			away := now.Sub(room.HostDisconnectedAt)
			seen, noticed := s.noticed[code]
			if away >= s.cfg.NoticeAfter && away <= s.cfg.HostGrace &&
				(!noticed || !seen.Equal(room.HostDisconnectedAt)) {
				s.noticed[code] = room.HostDisconnectedAt
				codes = append(codes, code)
			}
		}
		room.Unlock()
	}
	sort.Strings(codes)
	return codes
}
