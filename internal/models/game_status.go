package models

// RoomStatus represents where a room is in its lifecycle
type RoomStatus string

const (
	RoomWaiting   RoomStatus = "waiting"
	RoomPreparing RoomStatus = "preparing"
	RoomPlaying   RoomStatus = "playing"
	RoomFinished  RoomStatus = "finished"
)

// SessionStatus represents the state of a running mini-game
type SessionStatus string

const (
	SessionWaiting   SessionStatus = "waiting"
	SessionCountdown SessionStatus = "countdown"
	SessionPlaying   SessionStatus = "playing"
	SessionFinished  SessionStatus = "finished"
)

// GameMode selects the mini-game variant of a session
type GameMode string

const (
	ModeRacer    GameMode = "racer"
	ModeTugOfWar GameMode = "tug_of_war"
)

// Valid reports whether the mode is one the engine can run
func (m GameMode) Valid() bool {
	return m == ModeRacer || m == ModeTugOfWar
}
