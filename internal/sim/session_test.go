package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aaronzipp/voice-party/internal/models"
)

func players(ids ...string) []models.Player {
	out := make([]models.Player, 0, len(ids))
	for _, id := range ids {
		out = append(out, models.Player{ID: id, Name: "name-" + id, Connected: true})
	}
	return out
}

func TestNewSessionValidation(t *testing.T) {
	words := []string{"wifi", "gravity"}

	_, err := newSession("ABCD", "chess", players("a"), words, 100)
	assert.ErrorIs(t, err, ErrUnknownMode)

	_, err = newSession("ABCD", models.ModeRacer, nil, words, 100)
	assert.ErrorIs(t, err, ErrNotEnoughPlayers)

	_, err = newSession("ABCD", models.ModeTugOfWar, players("a", "b", "c"), words, 100)
	assert.ErrorIs(t, err, ErrOddPlayers)

	_, err = newSession("ABCD", models.ModeTugOfWar, players("a"), words, 100)
	assert.ErrorIs(t, err, ErrOddPlayers)

	_, err = newSession("ABCD", models.ModeRacer, players("a"), nil, 100)
	assert.ErrorIs(t, err, ErrNoWords)
}

func TestNewTugSessionSplitsTeams(t *testing.T) {
	s, err := newSession("ABCD", models.ModeTugOfWar, players("a", "b", "c", "d"), []string{"wifi", "gravity", "pizza", "moon"}, 100)
	require.NoError(t, err)

	require.NotNil(t, s.Tug)
	assert.Nil(t, s.Racer)
	assert.Equal(t, []string{"a", "b"}, s.Tug.Teams.Red)
	assert.Equal(t, []string{"c", "d"}, s.Tug.Teams.Blue)
	assert.Zero(t, s.Tug.RopePosition)
	assert.Equal(t, models.SessionWaiting, s.Status)
	assert.Equal(t, "gravity", s.Tug.AssignedWord["b"])
}

func TestNewRacerSessionCyclesWords(t *testing.T) {
	s, err := newSession("ABCD", models.ModeRacer, players("a", "b", "c"), []string{"wifi", "gravity"}, 50)
	require.NoError(t, err)

	require.NotNil(t, s.Racer)
	assert.Equal(t, 50.0, s.Racer.TrackLength)
	assert.Equal(t, []string{"a", "b", "c"}, s.Order)
	word, ok := s.AssignedWord("c")
	assert.True(t, ok)
	assert.Equal(t, "wifi", word)
	assert.True(t, s.Players["a"].IsAlive)
}
