// Package render builds the read-only views sent to clients
package render

import (
	"sort"
	"strings"

	"github.com/aaronzipp/voice-party/internal/models"
)

// Standing is one row of a results table
type Standing struct {
	Rank     int     `json:"rank"`
	PlayerID string  `json:"playerId"`
	Name     string  `json:"name"`
	Score    float64 `json:"score"`
	Team     string  `json:"team,omitempty"`
	Winner   bool    `json:"winner"`
}

// Standings ranks a session's players. In tug of war the whole winning
// team shares the win and ranks first.
func Standings(s *models.GameSession) []Standing {
	if s == nil {
		return nil
	}

	team := map[string]string{}
	if s.Tug != nil {
		for _, id := range s.Tug.Teams.Red {
			team[id] = "red"
		}
		for _, id := range s.Tug.Teams.Blue {
			team[id] = "blue"
		}
	}

	rows := make([]Standing, 0, len(s.Order))
	for _, id := range s.Order {
		p, ok := s.Players[id]
		if !ok {
			continue
		}
		row := Standing{PlayerID: id, Name: p.Name, Score: p.Score, Team: team[id]}
		switch {
		case s.Winner == "":
		case row.Team != "":
			row.Winner = row.Team == team[s.Winner]
		default:
			row.Winner = id == s.Winner
		}
		rows = append(rows, row)
	}

	// winners first, then score desc, then name asc
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Winner != rows[j].Winner {
			return rows[i].Winner
		}
		if rows[i].Score != rows[j].Score {
			return rows[i].Score > rows[j].Score
		}
		return strings.ToLower(rows[i].Name) < strings.ToLower(rows[j].Name)
	})
	for i := range rows {
		rows[i].Rank = i + 1
	}
	return rows
}

// RoomSummary is the public view of a room
type RoomSummary struct {
	Room         models.RoomView     `json:"room"`
	Session      *models.GameSession `json:"session,omitempty"`
	ReadyPlayers []string            `json:"readyPlayers"`
	Standings    []Standing          `json:"standings,omitempty"`
	JoinURL      string              `json:"joinUrl"`
}
