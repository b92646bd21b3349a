package sim

import (
	"math"
	"slices"

	"github.com/aaronzipp/voice-party/internal/models"
)

const (
	racerFriction       = 0.98
	racerMinSpeed       = 0.001
	racerOvershoot      = 1.0
	racerSlowSpeed      = 0.015
	racerStartBoost     = 0.06
	racerBoost          = 0.04
	racerSpeedCapFactor = 0.15

	tugPullFactor = 3.0
	tugRopeLimit  = 100.0
	tugWinLine    = 80.0
)

// stepRacer applies friction and integrates positions. Positions may pass
// the finish by one unit so the finish check never misses a crossing.
func stepRacer(r *models.RacerState, order []string) {
	for _, id := range order {
		speed := r.Speed[id] * racerFriction
		if speed < racerMinSpeed {
			speed = 0
		}
		r.Speed[id] = speed
		r.Position[id] = math.Min(r.Position[id]+speed, r.TrackLength+racerOvershoot)
	}
}

// racerWinner returns the first player in order at or past the finish
func racerWinner(r *models.RacerState, order []string) (string, bool) {
	for _, id := range order {
		if r.Position[id] >= r.TrackLength {
			return id, true
		}
	}
	return "", false
}

// applyRacer boosts a racer. A nearly stopped racer gets a bigger kick, and
// the resulting speed is capped relative to the match score.
func applyRacer(r *models.RacerState, playerID string, score float64) {
	speed := r.Speed[playerID]
	boost := racerBoost
	if speed < racerSlowSpeed {
		boost = racerStartBoost
	}
	r.Speed[playerID] = math.Min(speed+boost*score, racerSpeedCapFactor*score)
}

// tugWinner checks the rope against both win lines
func tugWinner(t *models.TugState) (string, bool) {
	switch {
	case t.RopePosition <= -tugWinLine && len(t.Teams.Red) > 0:
		return t.Teams.Red[0], true
	case t.RopePosition >= tugWinLine && len(t.Teams.Blue) > 0:
		return t.Teams.Blue[0], true
	}
	return "", false
}

// applyTug pulls the rope toward the player's side
func applyTug(t *models.TugState, playerID string, score float64) {
	pull := tugPullFactor * score
	switch {
	case slices.Contains(t.Teams.Red, playerID):
		t.RopePosition = math.Max(t.RopePosition-pull, -tugRopeLimit)
	case slices.Contains(t.Teams.Blue, playerID):
		t.RopePosition = math.Min(t.RopePosition+pull, tugRopeLimit)
	}
}
