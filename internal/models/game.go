package models

import (
	"maps"
	"time"
)

// Position is a 2D point used by clients to place a player avatar
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// PlayerGameState is the per-player part of a session shared by every mode
type PlayerGameState struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Score    float64   `json:"score"`
	IsAlive  bool      `json:"isAlive"`
	Position *Position `json:"position,omitempty"`
}

// RacerState holds the racer-only fields of a session
type RacerState struct {
	TrackLength  float64            `json:"trackLength"`
	Position     map[string]float64 `json:"position"`
	Speed        map[string]float64 `json:"speed"`
	AssignedWord map[string]string  `json:"assignedWord"`
}

// Teams splits tug-of-war players by side
type Teams struct {
	Red  []string `json:"red"`
	Blue []string `json:"blue"`
}

// TugState holds the tug-of-war-only fields of a session
type TugState struct {
	Teams        Teams             `json:"teams"`
	AssignedWord map[string]string `json:"assignedWord"`
	RopePosition float64           `json:"ropePosition"`
}

// GameSession is the authoritative state of one running mini-game. Mode tags
// which of Racer or Tug is set; the other is always nil.
type GameSession struct {
	RoomCode  string                      `json:"roomCode"`
	Mode      GameMode                    `json:"mode"`
	Status    SessionStatus               `json:"status"`
	StartTime *time.Time                  `json:"startTime,omitempty"`
	EndTime   *time.Time                  `json:"endTime,omitempty"`
	Winner    string                      `json:"winner,omitempty"`
	Players   map[string]*PlayerGameState `json:"players"`
	Order     []string                    `json:"order"` // insertion order of Players
	Racer     *RacerState                 `json:"racer,omitempty"`
	Tug       *TugState                   `json:"tug,omitempty"`
}

// AssignedWord returns the trigger word given to a player in either mode
func (s *GameSession) AssignedWord(playerID string) (string, bool) {
	var words map[string]string
	switch s.Mode {
	case ModeRacer:
		if s.Racer != nil {
			words = s.Racer.AssignedWord
		}
	case ModeTugOfWar:
		if s.Tug != nil {
			words = s.Tug.AssignedWord
		}
	}
	w, ok := words[playerID]
	return w, ok
}

// Clone deep-copies the session so it can leave the owning goroutine
func (s *GameSession) Clone() *GameSession {
	if s == nil {
		return nil
	}
	out := *s
	if s.StartTime != nil {
		t := *s.StartTime
		out.StartTime = &t
	}
	if s.EndTime != nil {
		t := *s.EndTime
		out.EndTime = &t
	}
	out.Players = make(map[string]*PlayerGameState, len(s.Players))
	for id, p := range s.Players {
		cp := *p
		if p.Position != nil {
			pos := *p.Position
			cp.Position = &pos
		}
		out.Players[id] = &cp
	}
	out.Order = append([]string(nil), s.Order...)
	if s.Racer != nil {
		out.Racer = &RacerState{
			TrackLength:  s.Racer.TrackLength,
			Position:     maps.Clone(s.Racer.Position),
			Speed:        maps.Clone(s.Racer.Speed),
			AssignedWord: maps.Clone(s.Racer.AssignedWord),
		}
	}
	if s.Tug != nil {
		out.Tug = &TugState{
			Teams: Teams{
				Red:  append([]string(nil), s.Tug.Teams.Red...),
				Blue: append([]string(nil), s.Tug.Teams.Blue...),
			},
			AssignedWord: maps.Clone(s.Tug.AssignedWord),
			RopePosition: s.Tug.RopePosition,
		}
	}
	return &out
}
