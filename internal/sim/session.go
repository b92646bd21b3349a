package sim

import (
	"errors"
	"fmt"

	"github.com/aaronzipp/voice-party/internal/models"
)

var (
	ErrUnknownMode      = errors.New("unknown game mode")
	ErrNotEnoughPlayers = errors.New("not enough players")
	ErrOddPlayers       = errors.New("tug of war needs an even number of players")
	ErrNoWords          = errors.New("trigger word pool is empty")
)

// newSession builds the mode-specific state. words is the already shuffled
// pool; players receive words in order, cycling when they outnumber it.
func newSession(code string, mode models.GameMode, players []models.Player, words []string, trackLength float64) (*models.GameSession, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
	if len(players) == 0 {
		return nil, ErrNotEnoughPlayers
	}
	if len(words) == 0 {
		return nil, ErrNoWords
	}
	if mode == models.ModeTugOfWar && len(players)%2 != 0 {
		return nil, fmt.Errorf("%w: got %d", ErrOddPlayers, len(players))
	}

	session := &models.GameSession{
		RoomCode: code,
		Mode:     mode,
		Status:   models.SessionWaiting,
		Players:  make(map[string]*models.PlayerGameState, len(players)),
		Order:    make([]string, 0, len(players)),
	}
	assigned := make(map[string]string, len(players))
	for i, p := range players {
		session.Players[p.ID] = &models.PlayerGameState{ID: p.ID, Name: p.Name, IsAlive: true}
		session.Order = append(session.Order, p.ID)
		assigned[p.ID] = words[i%len(words)]
	}

	switch mode {
	case models.ModeRacer:
		session.Racer = &models.RacerState{
			TrackLength:  trackLength,
			Position:     make(map[string]float64, len(players)),
			Speed:        make(map[string]float64, len(players)),
			AssignedWord: assigned,
		}
		for _, id := range session.Order {
			session.Racer.Position[id] = 0
			session.Racer.Speed[id] = 0
		}
	case models.ModeTugOfWar:
		half := len(session.Order) / 2
		session.Tug = &models.TugState{
			Teams: models.Teams{
				Red:  append([]string(nil), session.Order[:half]...),
				Blue: append([]string(nil), session.Order[half:]...),
			},
			AssignedWord: assigned,
		}
	}
	return session, nil
}
