package game

import (
	"github.com/aaronzipp/voice-party/internal/models"
)

// ReadySummary is the payload of a playerReadyStatus event
type ReadySummary struct {
	PlayerID   string                       `json:"playerId"`
	Ready      bool                         `json:"ready"`
	HasMic     bool                         `json:"hasMic"`
	ReadyCount int                          `json:"readyCount"`
	Total      int                          `json:"total"`
	States     map[string]models.ReadyState `json:"readyStates"`
}

// CountReadyPlayers counts how many current players are ready
func CountReadyPlayers(room models.RoomView) int {
	count := 0
	for _, p := range room.Players {
		if room.ReadyStates[p.ID].Ready {
			count++
		}
	}
	return count
}

// SummarizeReady builds the ready status broadcast for one player's toggle
func SummarizeReady(room models.RoomView, playerID string) ReadySummary {
	state := room.ReadyStates[playerID]
	return ReadySummary{
		PlayerID:   playerID,
		Ready:      state.Ready,
		HasMic:     state.HasMic,
		ReadyCount: CountReadyPlayers(room),
		Total:      len(room.Players),
		States:     room.ReadyStates,
	}
}

// GetReadyPlayerNames returns the names of all ready players in join order
func GetReadyPlayerNames(room models.RoomView) []string {
	names := make([]string, 0)
	for _, p := range room.Players {
		if room.ReadyStates[p.ID].Ready {
			names = append(names, p.Name)
		}
	}
	return names
}

// CanStart reports whether the room may leave the lobby for a new game
func CanStart(room models.RoomView) bool {
	if len(room.Players) < MinPlayers {
		return false
	}
	return room.Status == models.RoomWaiting || room.Status == models.RoomFinished
}

// AllReady reports whether every current player is ready
func AllReady(room models.RoomView) bool {
	return len(room.Players) > 0 && CountReadyPlayers(room) == len(room.Players)
}
